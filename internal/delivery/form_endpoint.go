package delivery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/BorderlessBits/contact-api/internal/contact"
)

// FormEndpointProvider posts submissions to a static-host form endpoint
// as a URL-encoded body. Any 2xx response counts as accepted.
type FormEndpointProvider struct {
	endpointURL string
	formName    string
	client      Doer
}

// NewFormEndpointProvider creates the form-endpoint transport. An empty
// endpointURL produces a provider that fails fast with ErrNotConfigured,
// which the orchestrator treats as "skip to the next provider".
func NewFormEndpointProvider(endpointURL, formName string, client Doer) *FormEndpointProvider {
	if client == nil {
		client = defaultHTTPClient()
	}
	if formName == "" {
		formName = "contact"
	}
	return &FormEndpointProvider{
		endpointURL: endpointURL,
		formName:    formName,
		client:      client,
	}
}

// Name returns the provider identifier used in results and metrics.
func (p *FormEndpointProvider) Name() string {
	return ProviderFormEndpoint
}

// Deliver serializes the submission to form-encoded fields and posts it.
func (p *FormEndpointProvider) Deliver(ctx context.Context, sub *contact.SanitizedSubmission) (*contact.DeliveryResult, error) {
	if p.endpointURL == "" {
		return p.failure("form endpoint not configured"), ErrNotConfigured
	}

	body := EncodeForm(p.formName, sub)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpointURL, strings.NewReader(body))
	if err != nil {
		return p.failure("invalid form endpoint request"), fmt.Errorf("build form endpoint request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return p.failure("form endpoint unreachable"), fmt.Errorf("post to form endpoint: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := fmt.Sprintf("form endpoint returned status %d", resp.StatusCode)
		return p.failure(msg), fmt.Errorf("form endpoint status %d", resp.StatusCode)
	}

	return &contact.DeliveryResult{
		Success:   true,
		Provider:  ProviderFormEndpoint,
		Message:   "submission accepted by form endpoint",
		Timestamp: time.Now().UTC(),
	}, nil
}

func (p *FormEndpointProvider) failure(msg string) *contact.DeliveryResult {
	return &contact.DeliveryResult{
		Success:   false,
		Provider:  ProviderFormEndpoint,
		Message:   msg,
		Timestamp: time.Now().UTC(),
	}
}

// EncodeForm builds the URL-encoded body for a submission. Field names
// follow the static-host convention (hyphenated, plus the form-name
// discriminator). Optional fields are included only when present.
func EncodeForm(formName string, sub *contact.SanitizedSubmission) string {
	values := url.Values{}
	values.Set("form-name", formName)
	values.Set("name", sub.Name)
	values.Set("email", sub.Email)
	values.Set("company", sub.Company)
	values.Set("project-type", string(sub.ProjectType))
	values.Set("project-timeline", string(sub.Timeline))
	values.Set("message", sub.Message)
	if sub.BudgetRange != "" {
		values.Set("budget-range", string(sub.BudgetRange))
	}
	if sub.ReferralSource != "" {
		values.Set("referral-source", string(sub.ReferralSource))
	}
	return values.Encode()
}
