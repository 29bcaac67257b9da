// Package delivery implements the transports that carry a validated
// submission to an external service: the static-host form endpoint and
// the EmailJS transactional email API. Both normalize their outcome into
// a contact.DeliveryResult so the orchestrator stays provider-agnostic.
package delivery

import (
	"net/http"
	"time"

	"github.com/BorderlessBits/contact-api/internal/contact"
)

// Provider names reported in delivery results and metrics.
const (
	ProviderFormEndpoint = "form_endpoint"
	ProviderEmailJS      = "emailjs"
)

// ErrNotConfigured marks a provider that is missing required
// configuration. The orchestrator skips such providers without retrying:
// a configuration error cannot heal between attempts.
var ErrNotConfigured = contact.ErrProviderNotConfigured

// Doer executes HTTP requests. *http.Client satisfies it; tests inject
// fakes.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// defaultHTTPClient bounds every provider request so a hung remote cannot
// stall the retry chain indefinitely.
func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}
