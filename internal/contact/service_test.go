package contact

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/BorderlessBits/contact-api/internal/events"
	"github.com/BorderlessBits/contact-api/internal/ratelimit"
)

// fakeProvider is a scripted delivery provider: it fails failUntil times,
// then succeeds. failUntil < 0 means it always fails.
type fakeProvider struct {
	mu        sync.Mutex
	name      string
	failUntil int
	calls     int
	// block, when set, is received from before every call returns.
	block chan struct{}
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Deliver(ctx context.Context, sub *SanitizedSubmission) (*DeliveryResult, error) {
	if p.block != nil {
		<-p.block
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++

	if p.failUntil < 0 || p.calls <= p.failUntil {
		return &DeliveryResult{
			Success:   false,
			Provider:  p.name,
			Message:   "scripted failure",
			Timestamp: time.Now().UTC(),
		}, errors.New("scripted failure")
	}
	return &DeliveryResult{
		Success:   true,
		Provider:  p.name,
		Message:   "scripted success",
		Timestamp: time.Now().UTC(),
	}, nil
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// unconfiguredProvider always reports missing configuration.
type unconfiguredProvider struct {
	mu    sync.Mutex
	calls int
}

func (p *unconfiguredProvider) Name() string { return "unconfigured" }

func (p *unconfiguredProvider) Deliver(ctx context.Context, sub *SanitizedSubmission) (*DeliveryResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return nil, ErrProviderNotConfigured
}

// fakeAutoReply records auto-reply sends and optionally fails.
type fakeAutoReply struct {
	mu     sync.Mutex
	calls  int
	err    error
	called chan struct{}
}

func (f *fakeAutoReply) SendAutoReply(ctx context.Context, sub *SanitizedSubmission) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.called != nil {
		close(f.called)
	}
	return f.err
}

// newTestService builds a service with instant backoff and the given
// providers. The recorded backoff delays are returned for inspection.
func newTestService(t *testing.T, cfg ServiceConfig) (*Service, *[]time.Duration) {
	t.Helper()

	var delays []time.Duration
	svc := NewService(cfg, WithWaitFunc(func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}))
	return svc, &delays
}

func validInput() SubmissionInput {
	return SubmissionInput{
		Name:        "Jo",
		Email:       "a@b.co",
		Message:     "1234567890",
		ProjectType: "cloud_architecture",
		Timeline:    "immediate",
	}
}

func TestSubmit_DeliversOnFirstAttempt(t *testing.T) {
	primary := &fakeProvider{name: "primary"}
	svc, _ := newTestService(t, ServiceConfig{Providers: []DeliveryProvider{primary}})

	outcome := svc.Submit(context.Background(), "client-a", validInput())

	if outcome.Code != OutcomeDelivered {
		t.Fatalf("outcome = %s, want delivered", outcome.Code)
	}
	if outcome.Delivery == nil || !outcome.Delivery.Success {
		t.Fatal("expected a successful delivery result")
	}
	if outcome.Delivery.Provider != "primary" {
		t.Errorf("provider = %q, want primary", outcome.Delivery.Provider)
	}
	if outcome.ReferenceID == "" {
		t.Error("expected a reference ID")
	}
	if primary.callCount() != 1 {
		t.Errorf("primary called %d times, want 1", primary.callCount())
	}
}

func TestSubmit_HoneypotAbortsSilently(t *testing.T) {
	primary := &fakeProvider{name: "primary"}
	svc, _ := newTestService(t, ServiceConfig{Providers: []DeliveryProvider{primary}})

	input := validInput()
	input.Website = "http://bot-filled-this.example"

	outcome := svc.Submit(context.Background(), "client-a", input)

	if outcome.Code != OutcomeHoneypot {
		t.Fatalf("outcome = %s, want honeypot", outcome.Code)
	}
	// The message must be indistinguishable from a real success.
	if outcome.Message != successMessage {
		t.Errorf("honeypot message = %q, want the success message", outcome.Message)
	}
	if primary.callCount() != 0 {
		t.Errorf("honeypot submission reached a provider %d times", primary.callCount())
	}
}

func TestSubmit_PrimaryExhaustedThenFallbackOnce(t *testing.T) {
	primary := &fakeProvider{name: "primary", failUntil: -1}
	fallback := &fakeProvider{name: "fallback"}
	svc, delays := newTestService(t, ServiceConfig{
		Providers: []DeliveryProvider{primary, fallback},
	})

	outcome := svc.Submit(context.Background(), "client-a", validInput())

	if outcome.Code != OutcomeDelivered {
		t.Fatalf("outcome = %s, want delivered", outcome.Code)
	}
	if primary.callCount() != 3 {
		t.Errorf("primary called %d times, want 3", primary.callCount())
	}
	if fallback.callCount() != 1 {
		t.Errorf("fallback called %d times, want 1", fallback.callCount())
	}
	if outcome.Delivery.Provider != "fallback" {
		t.Errorf("result provider = %q, want fallback", outcome.Delivery.Provider)
	}

	// Backoff doubles from the base delay between same-provider retries.
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(*delays) != len(want) {
		t.Fatalf("recorded %d backoff waits, want %d", len(*delays), len(want))
	}
	for i, d := range want {
		if (*delays)[i] != d {
			t.Errorf("backoff %d = %v, want %v", i, (*delays)[i], d)
		}
	}
}

func TestSubmit_AllProvidersExhausted(t *testing.T) {
	primary := &fakeProvider{name: "primary", failUntil: -1}
	fallback := &fakeProvider{name: "fallback", failUntil: -1}
	svc, _ := newTestService(t, ServiceConfig{
		Providers:   []DeliveryProvider{primary, fallback},
		DirectEmail: "hello@borderlessbits.com",
	})

	outcome := svc.Submit(context.Background(), "client-a", validInput())

	if outcome.Code != OutcomeFailed {
		t.Fatalf("outcome = %s, want failed", outcome.Code)
	}
	if primary.callCount() != 3 || fallback.callCount() != 3 {
		t.Errorf("calls = %d/%d, want 3/3", primary.callCount(), fallback.callCount())
	}
	if !strings.Contains(outcome.Message, "hello@borderlessbits.com") {
		t.Errorf("terminal failure message %q should include the direct email", outcome.Message)
	}
}

func TestSubmit_UnconfiguredProviderSkippedWithoutRetries(t *testing.T) {
	primary := &unconfiguredProvider{}
	fallback := &fakeProvider{name: "fallback"}
	svc, delays := newTestService(t, ServiceConfig{
		Providers: []DeliveryProvider{primary, fallback},
	})

	outcome := svc.Submit(context.Background(), "client-a", validInput())

	if outcome.Code != OutcomeDelivered {
		t.Fatalf("outcome = %s, want delivered", outcome.Code)
	}
	if primary.calls != 1 {
		t.Errorf("unconfigured provider probed %d times, want 1", primary.calls)
	}
	if len(*delays) != 0 {
		t.Errorf("configuration errors must not trigger backoff, got %v", *delays)
	}
}

func TestSubmit_ValidationFailureNeverReachesProviders(t *testing.T) {
	primary := &fakeProvider{name: "primary"}
	svc, _ := newTestService(t, ServiceConfig{Providers: []DeliveryProvider{primary}})

	input := validInput()
	input.Email = "not-an-email"
	input.Message = "short"

	outcome := svc.Submit(context.Background(), "client-a", input)

	if outcome.Code != OutcomeInvalid {
		t.Fatalf("outcome = %s, want invalid", outcome.Code)
	}
	if _, ok := outcome.FieldErrors["email"]; !ok {
		t.Error("expected an email field error")
	}
	if _, ok := outcome.FieldErrors["message"]; !ok {
		t.Error("expected a message field error")
	}
	if primary.callCount() != 0 {
		t.Errorf("invalid submission reached a provider %d times", primary.callCount())
	}
}

func TestSubmit_SpamRejectedWithGenericMessage(t *testing.T) {
	primary := &fakeProvider{name: "primary"}
	svc, _ := newTestService(t, ServiceConfig{Providers: []DeliveryProvider{primary}})

	input := validInput()
	input.Name = "test"
	input.Message = "BUY NOW CLICK HERE!!!"

	outcome := svc.Submit(context.Background(), "client-a", input)

	if outcome.Code != OutcomeSpam {
		t.Fatalf("outcome = %s, want spam", outcome.Code)
	}
	if outcome.Message != rejectionMessage {
		t.Errorf("spam message = %q, want the generic rejection", outcome.Message)
	}
	if len(outcome.FieldErrors) != 0 {
		t.Error("spam rejection must not leak field detail")
	}
	if primary.callCount() != 0 {
		t.Errorf("spam submission reached a provider %d times", primary.callCount())
	}
}

func TestSubmit_RateLimited(t *testing.T) {
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter := ratelimit.New(1, 5*time.Minute, ratelimit.WithClock(func() time.Time { return clock }))
	defer limiter.Stop()

	primary := &fakeProvider{name: "primary"}
	svc, _ := newTestService(t, ServiceConfig{
		Limiter:   limiter,
		Providers: []DeliveryProvider{primary},
	})

	first := svc.Submit(context.Background(), "client-a", validInput())
	if first.Code != OutcomeDelivered {
		t.Fatalf("first outcome = %s, want delivered", first.Code)
	}

	second := svc.Submit(context.Background(), "client-a", validInput())
	if second.Code != OutcomeRateLimited {
		t.Fatalf("second outcome = %s, want rate_limited", second.Code)
	}
	if second.RetryAfter != 5*time.Minute {
		t.Errorf("retry after = %v, want 5m", second.RetryAfter)
	}
	if primary.callCount() != 1 {
		t.Errorf("rate-limited submission reached a provider, calls = %d", primary.callCount())
	}
}

func TestSubmit_ConcurrentSubmissionIgnored(t *testing.T) {
	block := make(chan struct{})
	primary := &fakeProvider{name: "primary", block: block}
	svc, _ := newTestService(t, ServiceConfig{Providers: []DeliveryProvider{primary}})

	firstDone := make(chan SubmissionOutcome, 1)
	go func() {
		firstDone <- svc.Submit(context.Background(), "client-a", validInput())
	}()

	// Wait until the first submission is inside the delivery stage.
	deadline := time.After(2 * time.Second)
	for {
		svc.mu.Lock()
		inFlight := svc.inFlight["client-a"]
		svc.mu.Unlock()
		if inFlight {
			break
		}
		select {
		case <-deadline:
			t.Fatal("first submission never started")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	second := svc.Submit(context.Background(), "client-a", validInput())
	if second.Code != OutcomeInFlight {
		t.Errorf("second outcome = %s, want in_flight", second.Code)
	}

	close(block)
	first := <-firstDone
	if first.Code != OutcomeDelivered {
		t.Errorf("first outcome = %s, want delivered", first.Code)
	}

	// Another client was never blocked by client-a's guard.
	third := svc.Submit(context.Background(), "client-b", validInput())
	if third.Code != OutcomeDelivered {
		t.Errorf("other client outcome = %s, want delivered", third.Code)
	}
}

func TestSubmit_AutoReplyIsBestEffort(t *testing.T) {
	primary := &fakeProvider{name: "primary"}
	reply := &fakeAutoReply{err: errors.New("template missing"), called: make(chan struct{})}
	svc, _ := newTestService(t, ServiceConfig{
		Providers: []DeliveryProvider{primary},
		AutoReply: reply,
	})

	outcome := svc.Submit(context.Background(), "client-a", validInput())

	if outcome.Code != OutcomeDelivered {
		t.Fatalf("outcome = %s, want delivered", outcome.Code)
	}

	select {
	case <-reply.called:
	case <-time.After(2 * time.Second):
		t.Fatal("auto-reply was never attempted")
	}
}

func TestSubmit_PublishesLifecycleEvents(t *testing.T) {
	bus := events.NewBus()

	var mu sync.Mutex
	var seen []events.EventType
	for _, et := range []events.EventType{events.SubmissionAccepted, events.SubmissionRejected, events.SubmissionFailed} {
		eventType := et
		bus.Subscribe(eventType, func(events.Event) {
			mu.Lock()
			seen = append(seen, eventType)
			mu.Unlock()
		})
	}

	primary := &fakeProvider{name: "primary"}
	svc, _ := newTestService(t, ServiceConfig{
		Providers: []DeliveryProvider{primary},
		Bus:       bus,
	})

	svc.Submit(context.Background(), "client-a", validInput())

	spam := validInput()
	spam.Name = "test"
	spam.Message = "BUY NOW CLICK HERE!!!"
	svc.Submit(context.Background(), "client-b", spam)

	mu.Lock()
	defer mu.Unlock()
	want := []events.EventType{events.SubmissionAccepted, events.SubmissionRejected}
	if len(seen) != len(want) || seen[0] != want[0] || seen[1] != want[1] {
		t.Errorf("events = %v, want %v", seen, want)
	}
}

func TestRetryPolicy_Delay(t *testing.T) {
	policy := DefaultRetryPolicy()

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 5 * time.Second}, // capped
		{10, 5 * time.Second},
	}

	for _, tt := range tests {
		if got := policy.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}
