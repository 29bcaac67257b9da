// Package contact implements the contact-form submission pipeline:
// sanitization, field validation, spam heuristics, rate limiting, and
// delivery orchestration across providers.
package contact

import (
	"context"
	"errors"
	"time"
)

// ErrProviderNotConfigured marks a delivery provider that is missing
// required configuration. The orchestrator skips such providers without
// retrying: a configuration error cannot heal between attempts.
var ErrProviderNotConfigured = errors.New("delivery provider not configured")

// ProjectType identifies the kind of engagement being requested.
type ProjectType string

const (
	ProjectCloudArchitecture ProjectType = "cloud_architecture"
	ProjectHealthcare        ProjectType = "healthcare_software"
	ProjectGovernment        ProjectType = "government_digital"
	ProjectAssessment        ProjectType = "technical_assessment"
)

// Valid reports whether the value is one of the closed set.
func (p ProjectType) Valid() bool {
	switch p {
	case ProjectCloudArchitecture, ProjectHealthcare, ProjectGovernment, ProjectAssessment:
		return true
	}
	return false
}

// Label returns the human-readable form used in outbound email.
func (p ProjectType) Label() string {
	switch p {
	case ProjectCloudArchitecture:
		return "Cloud Architecture"
	case ProjectHealthcare:
		return "Healthcare Software"
	case ProjectGovernment:
		return "Government Digital Services"
	case ProjectAssessment:
		return "Technical Assessment"
	}
	return string(p)
}

// Timeline identifies when the prospect wants to start.
type Timeline string

const (
	TimelineImmediate   Timeline = "immediate"
	TimelineOneToThree  Timeline = "one_to_three_months"
	TimelineThreeToSix  Timeline = "three_to_six_months"
	TimelineExploratory Timeline = "exploring"
)

func (t Timeline) Valid() bool {
	switch t {
	case TimelineImmediate, TimelineOneToThree, TimelineThreeToSix, TimelineExploratory:
		return true
	}
	return false
}

func (t Timeline) Label() string {
	switch t {
	case TimelineImmediate:
		return "Immediate"
	case TimelineOneToThree:
		return "1-3 Months"
	case TimelineThreeToSix:
		return "3-6 Months"
	case TimelineExploratory:
		return "Just Exploring"
	}
	return string(t)
}

// BudgetRange is the optional project budget bracket.
type BudgetRange string

const (
	BudgetUnder25K  BudgetRange = "under_25k"
	Budget25KTo50K  BudgetRange = "25k_to_50k"
	Budget50KTo100K BudgetRange = "50k_to_100k"
	BudgetOver100K  BudgetRange = "over_100k"
)

func (b BudgetRange) Valid() bool {
	switch b {
	case BudgetUnder25K, Budget25KTo50K, Budget50KTo100K, BudgetOver100K:
		return true
	}
	return false
}

func (b BudgetRange) Label() string {
	switch b {
	case BudgetUnder25K:
		return "Under $25,000"
	case Budget25KTo50K:
		return "$25,000 - $50,000"
	case Budget50KTo100K:
		return "$50,000 - $100,000"
	case BudgetOver100K:
		return "Over $100,000"
	}
	return string(b)
}

// ReferralSource is the optional answer to "how did you hear about us".
type ReferralSource string

const (
	ReferralSearch      ReferralSource = "search_engine"
	ReferralLinkedIn    ReferralSource = "linkedin"
	ReferralWordOfMouth ReferralSource = "referral"
	ReferralOther       ReferralSource = "other"
)

func (r ReferralSource) Valid() bool {
	switch r {
	case ReferralSearch, ReferralLinkedIn, ReferralWordOfMouth, ReferralOther:
		return true
	}
	return false
}

func (r ReferralSource) Label() string {
	switch r {
	case ReferralSearch:
		return "Search Engine"
	case ReferralLinkedIn:
		return "LinkedIn"
	case ReferralWordOfMouth:
		return "Referral"
	case ReferralOther:
		return "Other"
	}
	return string(r)
}

// SubmissionInput carries the raw form values exactly as the client sent
// them. Website is the honeypot field: hidden from humans, so any value
// there marks the submission as automated.
type SubmissionInput struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Company        string `json:"company"`
	Phone          string `json:"phone"`
	ProjectType    string `json:"project_type"`
	Timeline       string `json:"project_timeline"`
	Message        string `json:"message"`
	BudgetRange    string `json:"budget_range"`
	ReferralSource string `json:"referral_source"`
	Website        string `json:"website"`
}

// SanitizedSubmission is a SubmissionInput after every free-text field has
// been sanitized and enum fields parsed. It is built fresh for each
// submission attempt and never mutated afterwards.
type SanitizedSubmission struct {
	Name           string
	Email          string
	Company        string
	Phone          string
	ProjectType    ProjectType
	Timeline       Timeline
	Message        string
	BudgetRange    BudgetRange
	ReferralSource ReferralSource
	SubmittedAt    time.Time
}

// ValidationResult maps field names to human-readable error messages.
// An empty map means the submission is valid.
type ValidationResult map[string]string

// Valid reports whether no field failed validation.
func (v ValidationResult) Valid() bool {
	return len(v) == 0
}

// DeliveryResult is the normalized outcome of one delivery attempt,
// regardless of which provider made it.
type DeliveryResult struct {
	Success   bool      `json:"success"`
	Provider  string    `json:"provider"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// DeliveryProvider is a transport capable of delivering a validated
// submission to an external service. Implementations return a normalized
// DeliveryResult so the orchestrator stays provider-agnostic.
type DeliveryProvider interface {
	Name() string
	Deliver(ctx context.Context, sub *SanitizedSubmission) (*DeliveryResult, error)
}

// AutoReplySender sends the best-effort confirmation email back to the
// submitter after a successful delivery.
type AutoReplySender interface {
	SendAutoReply(ctx context.Context, sub *SanitizedSubmission) error
}

// OutcomeCode classifies how a submission left the pipeline.
type OutcomeCode string

const (
	// OutcomeDelivered means a provider accepted the submission.
	OutcomeDelivered OutcomeCode = "delivered"
	// OutcomeHoneypot means the decoy field was filled; the submission is
	// silently dropped with no delivery attempt.
	OutcomeHoneypot OutcomeCode = "honeypot"
	// OutcomeRateLimited means the client identifier exhausted its window.
	OutcomeRateLimited OutcomeCode = "rate_limited"
	// OutcomeInvalid means one or more fields failed validation.
	OutcomeInvalid OutcomeCode = "invalid"
	// OutcomeSpam means the spam heuristic rejected the submission.
	OutcomeSpam OutcomeCode = "spam"
	// OutcomeInFlight means another submission for the same client is
	// still being processed and this one was ignored.
	OutcomeInFlight OutcomeCode = "in_flight"
	// OutcomeFailed means every provider and retry was exhausted.
	OutcomeFailed OutcomeCode = "failed"
)

// SubmissionOutcome is the orchestrator's final word on one submission.
// Exactly one of FieldErrors or Delivery is populated for the invalid and
// delivered outcomes respectively.
type SubmissionOutcome struct {
	Code        OutcomeCode
	ReferenceID string
	Message     string
	FieldErrors ValidationResult
	RetryAfter  time.Duration
	Delivery    *DeliveryResult
}
