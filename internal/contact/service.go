package contact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BorderlessBits/contact-api/internal/events"
	"github.com/BorderlessBits/contact-api/internal/metrics"
	"github.com/BorderlessBits/contact-api/internal/ratelimit"
	"github.com/BorderlessBits/contact-api/internal/sanitizer"
)

// User-visible messages. These are the only texts the pipeline ever
// surfaces: field errors, a wait time, a generic rejection, or the
// direct-email fallback.
const (
	successMessage   = "Thank you for your message. We'll be in touch within one business day."
	rejectionMessage = "Your message could not be sent."
)

// RetryPolicy controls per-provider delivery retries: exponential backoff
// starting at BaseDelay, doubling per attempt, capped at MaxDelay.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy matches the delivery contract: up to 3 attempts per
// provider, 1s base delay, 5s cap.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    5 * time.Second,
	}
}

// Delay returns the backoff before the given retry (attempt is 1-based:
// Delay(1) precedes the second attempt).
func (r RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := time.Duration(float64(r.BaseDelay) * math.Pow(2, float64(attempt-1)))
	if d > r.MaxDelay {
		d = r.MaxDelay
	}
	return d
}

// Service is the submission orchestrator. It sequences honeypot, rate
// limit, validation, and spam checks before any network call, then walks
// the provider list in priority order with per-provider retries.
type Service struct {
	sanitizer *sanitizer.TextSanitizer
	limiter   *ratelimit.Limiter
	providers []DeliveryProvider
	autoReply AutoReplySender
	bus       *events.Bus
	logger    *slog.Logger
	retry     RetryPolicy

	// directEmail is surfaced to the user when every provider fails.
	directEmail string

	now  func() time.Time
	wait func(ctx context.Context, d time.Duration) error

	mu       sync.Mutex
	inFlight map[string]bool
}

// ServiceConfig wires the orchestrator's collaborators.
type ServiceConfig struct {
	Sanitizer   *sanitizer.TextSanitizer
	Limiter     *ratelimit.Limiter
	Providers   []DeliveryProvider
	AutoReply   AutoReplySender
	Bus         *events.Bus
	Logger      *slog.Logger
	Retry       RetryPolicy
	DirectEmail string
}

// ServiceOption adjusts internals for testing.
type ServiceOption func(*Service)

// WithClock replaces the service's time source.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithWaitFunc replaces the backoff sleep, letting tests run the retry
// loop without real delays.
func WithWaitFunc(wait func(ctx context.Context, d time.Duration) error) ServiceOption {
	return func(s *Service) { s.wait = wait }
}

// NewService creates the submission orchestrator.
func NewService(cfg ServiceConfig, opts ...ServiceOption) *Service {
	if cfg.Sanitizer == nil {
		cfg.Sanitizer = sanitizer.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryPolicy()
	}

	s := &Service{
		sanitizer:   cfg.Sanitizer,
		limiter:     cfg.Limiter,
		providers:   cfg.Providers,
		autoReply:   cfg.AutoReply,
		bus:         cfg.Bus,
		logger:      cfg.Logger,
		retry:       cfg.Retry,
		directEmail: cfg.DirectEmail,
		now:         time.Now,
		wait:        waitContext,
		inFlight:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit runs one submission through the full pipeline and returns its
// outcome. Local rejections (honeypot, rate limit, validation, spam)
// never reach the network; only the delivery stage is retried. A second
// Submit for the same client while one is in flight is ignored.
func (s *Service) Submit(ctx context.Context, clientID string, input SubmissionInput) SubmissionOutcome {
	ref := uuid.New().String()
	log := s.logger.With(slog.String("reference_id", ref))

	if !s.beginSubmission(clientID) {
		log.Debug("submission ignored, another is in flight", slog.String("client", clientID))
		return SubmissionOutcome{Code: OutcomeInFlight, ReferenceID: ref, Message: rejectionMessage}
	}
	defer s.endSubmission(clientID)

	// Honeypot: a filled decoy field means a bot. Abort silently with a
	// success-shaped message so the bot learns nothing.
	if input.Website != "" {
		log.Info("honeypot triggered, dropping submission")
		s.publish(events.SubmissionRejected, ref, map[string]string{"reason": string(OutcomeHoneypot)})
		return SubmissionOutcome{Code: OutcomeHoneypot, ReferenceID: ref, Message: successMessage}
	}

	if s.limiter != nil && !s.limiter.Allow(clientID) {
		retryAfter := s.limiter.RetryAfter(clientID)
		log.Info("submission rate limited", slog.Duration("retry_after", retryAfter))
		s.publish(events.SubmissionRejected, ref, map[string]string{"reason": string(OutcomeRateLimited)})
		return SubmissionOutcome{
			Code:        OutcomeRateLimited,
			ReferenceID: ref,
			Message:     fmt.Sprintf("Too many attempts. Please wait %s and try again.", formatWait(retryAfter)),
			RetryAfter:  retryAfter,
		}
	}

	sub := s.buildSubmission(input)

	if fieldErrors := ValidateForm(sub); !fieldErrors.Valid() {
		log.Info("submission failed validation", slog.Int("field_errors", len(fieldErrors)))
		s.publish(events.SubmissionRejected, ref, map[string]string{"reason": string(OutcomeInvalid)})
		return SubmissionOutcome{
			Code:        OutcomeInvalid,
			ReferenceID: ref,
			Message:     "Please correct the highlighted fields.",
			FieldErrors: fieldErrors,
		}
	}

	if IsLikelySpam(sub) {
		log.Info("submission rejected by spam heuristic")
		s.publish(events.SubmissionRejected, ref, map[string]string{"reason": string(OutcomeSpam)})
		return SubmissionOutcome{Code: OutcomeSpam, ReferenceID: ref, Message: rejectionMessage}
	}

	result := s.deliver(ctx, log, sub)
	if result != nil && result.Success {
		s.publish(events.SubmissionAccepted, ref, map[string]string{"provider": result.Provider})
		s.sendAutoReply(ctx, log, sub)
		return SubmissionOutcome{
			Code:        OutcomeDelivered,
			ReferenceID: ref,
			Message:     successMessage,
			Delivery:    result,
		}
	}

	log.Error("all delivery providers exhausted")
	s.publish(events.SubmissionFailed, ref, nil)
	return SubmissionOutcome{
		Code:        OutcomeFailed,
		ReferenceID: ref,
		Message:     fmt.Sprintf("Something went wrong sending your message. Please email us directly at %s.", s.directEmail),
		Delivery:    result,
	}
}

// buildSubmission sanitizes every free-text field and parses the enums.
// A fresh SanitizedSubmission is built for each attempt from the same
// source input and never mutated afterwards.
func (s *Service) buildSubmission(input SubmissionInput) *SanitizedSubmission {
	return &SanitizedSubmission{
		Name:           s.sanitizer.Sanitize(input.Name),
		Email:          s.sanitizer.Sanitize(input.Email),
		Company:        s.sanitizer.Sanitize(input.Company),
		Phone:          s.sanitizer.Sanitize(input.Phone),
		Message:        s.sanitizer.Sanitize(input.Message),
		ProjectType:    ProjectType(s.sanitizer.Sanitize(input.ProjectType)),
		Timeline:       Timeline(s.sanitizer.Sanitize(input.Timeline)),
		BudgetRange:    BudgetRange(s.sanitizer.Sanitize(input.BudgetRange)),
		ReferralSource: ReferralSource(s.sanitizer.Sanitize(input.ReferralSource)),
		SubmittedAt:    s.now().UTC(),
	}
}

// deliver walks the provider list in priority order, retrying each
// provider up to the policy's attempt count with exponential backoff.
// Providers reporting ErrProviderNotConfigured are skipped immediately.
// The last result is returned whether or not any provider succeeded.
func (s *Service) deliver(ctx context.Context, log *slog.Logger, sub *SanitizedSubmission) *DeliveryResult {
	var last *DeliveryResult

	for _, provider := range s.providers {
		for attempt := 1; attempt <= s.retry.MaxAttempts; attempt++ {
			start := time.Now()
			result, err := provider.Deliver(ctx, sub)
			metrics.DeliveryDuration.WithLabelValues(provider.Name()).Observe(time.Since(start).Seconds())
			if result != nil {
				last = result
			}
			if err == nil && result != nil && result.Success {
				metrics.DeliveryAttemptsTotal.WithLabelValues(provider.Name(), "success").Inc()
				log.Info("submission delivered",
					slog.String("provider", provider.Name()),
					slog.Int("attempt", attempt))
				return result
			}
			if errors.Is(err, ErrProviderNotConfigured) {
				log.Debug("provider not configured, skipping", slog.String("provider", provider.Name()))
				break
			}
			metrics.DeliveryAttemptsTotal.WithLabelValues(provider.Name(), "failure").Inc()

			log.Warn("delivery attempt failed",
				slog.String("provider", provider.Name()),
				slog.Int("attempt", attempt),
				slog.Any("error", err))

			if attempt == s.retry.MaxAttempts {
				break
			}
			if waitErr := s.wait(ctx, s.retry.Delay(attempt)); waitErr != nil {
				log.Warn("delivery abandoned", slog.Any("error", waitErr))
				return last
			}
		}
	}

	return last
}

// sendAutoReply fires the confirmation email without blocking the
// submission result. Failures are logged and swallowed: the submission
// already succeeded.
func (s *Service) sendAutoReply(ctx context.Context, log *slog.Logger, sub *SanitizedSubmission) {
	if s.autoReply == nil {
		return
	}

	// Detach from the request context so the reply can finish after the
	// HTTP response is written.
	replyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)

	go func() {
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				log.Error("auto-reply panicked", slog.Any("panic", r))
			}
		}()

		if err := s.autoReply.SendAutoReply(replyCtx, sub); err != nil {
			if errors.Is(err, ErrProviderNotConfigured) {
				return
			}
			log.Warn("auto-reply failed", slog.Any("error", err))
		}
	}()
}

func (s *Service) beginSubmission(clientID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[clientID] {
		return false
	}
	s.inFlight[clientID] = true
	return true
}

func (s *Service) endSubmission(clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, clientID)
}

func (s *Service) publish(eventType events.EventType, ref string, payload map[string]string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.Event{
		Type:        eventType,
		Timestamp:   s.now().UTC(),
		ReferenceID: ref,
		Payload:     payload,
	})
}

// waitContext sleeps for d or until the context is done.
func waitContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// formatWait rounds a wait duration up to a human-friendly unit.
func formatWait(d time.Duration) string {
	if d <= 0 {
		return "a moment"
	}
	if d < time.Minute {
		secs := int(d.Round(time.Second).Seconds())
		if secs <= 1 {
			return "a second"
		}
		return fmt.Sprintf("%d seconds", secs)
	}
	mins := int((d + time.Minute - 1) / time.Minute)
	if mins == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", mins)
}
