package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/BorderlessBits/contact-api/internal/contact"
)

// sendPath is the EmailJS send endpoint, relative to the API base URL.
const sendPath = "/api/v1.0/email/send"

// EmailJSConfig holds the identifiers EmailJS requires on every send.
type EmailJSConfig struct {
	BaseURL             string
	ServiceID           string
	TemplateID          string
	AutoReplyTemplateID string
	PublicKey           string
	// ToEmail is the inbox that receives submission notifications.
	ToEmail string
}

// EmailJSProvider delivers submissions through the EmailJS transactional
// email API. Enum fields are mapped to their human-readable labels before
// they reach the email template.
type EmailJSProvider struct {
	cfg    EmailJSConfig
	client Doer
}

// NewEmailJSProvider creates the transactional-email transport.
func NewEmailJSProvider(cfg EmailJSConfig, client Doer) *EmailJSProvider {
	if client == nil {
		client = defaultHTTPClient()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.emailjs.com"
	}
	return &EmailJSProvider{cfg: cfg, client: client}
}

// Name returns the provider identifier used in results and metrics.
func (p *EmailJSProvider) Name() string {
	return ProviderEmailJS
}

// sendRequest is the EmailJS API request envelope.
type sendRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	TemplateParams map[string]string `json:"template_params"`
}

// Deliver sends the submission notification email. Missing configuration
// fails fast with ErrNotConfigured instead of attempting the network call.
func (p *EmailJSProvider) Deliver(ctx context.Context, sub *contact.SanitizedSubmission) (*contact.DeliveryResult, error) {
	if !p.configured() {
		return p.failure("email provider not configured"), ErrNotConfigured
	}

	params := map[string]string{
		"from_name":        sub.Name,
		"from_email":       sub.Email,
		"company":          sub.Company,
		"project_type":     sub.ProjectType.Label(),
		"project_timeline": sub.Timeline.Label(),
		"message":          sub.Message,
		"budget_range":     budgetLabel(sub.BudgetRange),
		"referral_source":  referralLabel(sub.ReferralSource),
		"to_email":         p.cfg.ToEmail,
		"submission_date":  sub.SubmittedAt.UTC().Format(time.RFC3339),
	}

	if err := p.send(ctx, p.cfg.TemplateID, params); err != nil {
		return p.failure("email send failed"), err
	}

	return &contact.DeliveryResult{
		Success:   true,
		Provider:  ProviderEmailJS,
		Message:   "submission delivered by email",
		Timestamp: time.Now().UTC(),
	}, nil
}

// SendAutoReply sends the confirmation email back to the submitter. It is
// best-effort: callers log failures but never surface them to the user.
func (p *EmailJSProvider) SendAutoReply(ctx context.Context, sub *contact.SanitizedSubmission) error {
	if !p.configured() || p.cfg.AutoReplyTemplateID == "" {
		return ErrNotConfigured
	}

	params := map[string]string{
		"to_name":         sub.Name,
		"to_email":        sub.Email,
		"project_type":    sub.ProjectType.Label(),
		"submission_date": sub.SubmittedAt.UTC().Format(time.RFC3339),
	}

	return p.send(ctx, p.cfg.AutoReplyTemplateID, params)
}

func (p *EmailJSProvider) configured() bool {
	return p.cfg.ServiceID != "" && p.cfg.TemplateID != "" && p.cfg.PublicKey != ""
}

func (p *EmailJSProvider) send(ctx context.Context, templateID string, params map[string]string) error {
	payload, err := json.Marshal(sendRequest{
		ServiceID:      p.cfg.ServiceID,
		TemplateID:     templateID,
		UserID:         p.cfg.PublicKey,
		TemplateParams: params,
	})
	if err != nil {
		return fmt.Errorf("marshal email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+sendPath, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("post to email API: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("email API status %d", resp.StatusCode)
	}
	return nil
}

func (p *EmailJSProvider) failure(msg string) *contact.DeliveryResult {
	return &contact.DeliveryResult{
		Success:   false,
		Provider:  ProviderEmailJS,
		Message:   msg,
		Timestamp: time.Now().UTC(),
	}
}

// budgetLabel and referralLabel render optional enums for the email
// template, keeping it readable when the field was left blank.
func budgetLabel(b contact.BudgetRange) string {
	if b == "" {
		return "Not specified"
	}
	return b.Label()
}

func referralLabel(r contact.ReferralSource) string {
	if r == "" {
		return "Not specified"
	}
	return r.Label()
}
