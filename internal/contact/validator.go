package contact

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	// MinNameLength and MaxNameLength bound the name field.
	MinNameLength = 2
	MaxNameLength = 100
	// MaxEmailLength is the RFC 5321 total address limit.
	MaxEmailLength = 254
	// MaxLocalPartLength is the RFC 5321 local part limit.
	MaxLocalPartLength = 64
	// MaxDomainLabelLength is the per-label limit for the domain part.
	MaxDomainLabelLength = 63
	// MaxCompanyLength bounds the optional company field.
	MaxCompanyLength = 200
	// MinMessageLength and MaxMessageLength bound the message field.
	MinMessageLength = 10
	MaxMessageLength = 2000
)

// invalidCharsMessage is deliberately generic: suspicious input gets no
// detail about which pattern tripped.
const invalidCharsMessage = "Field contains invalid characters"

// suspiciousPatterns match content that indicates an injection attempt.
// A hit fails the field regardless of its other rules.
var suspiciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<\s*script`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)\bon[a-z]+\s*=`),
	regexp.MustCompile(`(?i)<\s*(iframe|object|embed|form|input)`),
	regexp.MustCompile(`(?i)data:\s*text/html`),
}

// nameRegex permits Unicode letters plus the punctuation found in real
// names (spaces, hyphens, apostrophes, periods).
var nameRegex = regexp.MustCompile(`^[\p{L}\s.'-]+$`)

// emailRegex is an RFC 5322 approximation; structural limits (length,
// label rules, consecutive dots) are checked separately.
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9-]+(\.[a-zA-Z0-9-]+)*$`)

// phoneRegex accepts international numeric formats with an optional
// leading plus and common separators.
var phoneRegex = regexp.MustCompile(`^\+?[0-9][0-9\s().-]{5,18}[0-9]$`)

// validate is the request-binding validator shared with the HTTP handler.
var validate = validator.New()

// ContainsSuspiciousContent reports whether the value matches any known
// injection pattern.
func ContainsSuspiciousContent(value string) bool {
	for _, p := range suspiciousPatterns {
		if p.MatchString(value) {
			return true
		}
	}
	return false
}

// ValidateField checks a single field value against its rule and returns
// a human-readable error message, or "" when the value passes. The
// suspicious-content check runs first and short-circuits the
// field-specific rules.
func ValidateField(field, value string) string {
	if ContainsSuspiciousContent(value) {
		return invalidCharsMessage
	}

	switch field {
	case "name":
		return validateName(value)
	case "email":
		return validateEmail(value)
	case "company":
		if len(value) > MaxCompanyLength {
			return fmt.Sprintf("Company must be %d characters or fewer", MaxCompanyLength)
		}
	case "phone":
		if value != "" && !phoneRegex.MatchString(value) {
			return "Please enter a valid phone number"
		}
	case "message":
		return validateMessage(value)
	case "project_type":
		if value == "" {
			return "Please select a project type"
		}
		if !ProjectType(value).Valid() {
			return "Please select a valid project type"
		}
	case "project_timeline":
		if value == "" {
			return "Please select a timeline"
		}
		if !Timeline(value).Valid() {
			return "Please select a valid timeline"
		}
	case "budget_range":
		if value != "" && !BudgetRange(value).Valid() {
			return "Please select a valid budget range"
		}
	case "referral_source":
		if value != "" && !ReferralSource(value).Valid() {
			return "Please select a valid referral source"
		}
	}
	return ""
}

// ValidateForm checks every field of a sanitized submission and returns
// the per-field errors. The submission is never mutated; an empty result
// means every required field is present and every present field passed.
func ValidateForm(sub *SanitizedSubmission) ValidationResult {
	result := ValidationResult{}

	fields := map[string]string{
		"name":             sub.Name,
		"email":            sub.Email,
		"company":          sub.Company,
		"phone":            sub.Phone,
		"message":          sub.Message,
		"project_type":     string(sub.ProjectType),
		"project_timeline": string(sub.Timeline),
		"budget_range":     string(sub.BudgetRange),
		"referral_source":  string(sub.ReferralSource),
	}

	for field, value := range fields {
		if msg := ValidateField(field, value); msg != "" {
			result[field] = msg
		}
	}

	return result
}

func validateName(value string) string {
	if value == "" {
		return "Name is required"
	}
	length := len([]rune(value))
	if length < MinNameLength || length > MaxNameLength {
		return fmt.Sprintf("Name must be between %d and %d characters", MinNameLength, MaxNameLength)
	}
	if !nameRegex.MatchString(value) {
		return "Name may only contain letters, spaces, hyphens, apostrophes, and periods"
	}
	return ""
}

func validateEmail(value string) string {
	const invalid = "Please enter a valid email address"

	if value == "" {
		return "Email is required"
	}
	if len(value) > MaxEmailLength {
		return invalid
	}
	if strings.Contains(value, "..") {
		return invalid
	}
	if !emailRegex.MatchString(value) {
		return invalid
	}

	at := strings.LastIndex(value, "@")
	local, domain := value[:at], value[at+1:]

	if len(local) > MaxLocalPartLength {
		return invalid
	}
	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") {
		return invalid
	}

	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return invalid
	}
	for _, label := range labels {
		if label == "" || len(label) > MaxDomainLabelLength {
			return invalid
		}
		if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return invalid
		}
	}

	return ""
}

func validateMessage(value string) string {
	if value == "" {
		return "Message is required"
	}
	length := len([]rune(value))
	if length < MinMessageLength {
		return fmt.Sprintf("Message must be at least %d characters", MinMessageLength)
	}
	if length > MaxMessageLength {
		return fmt.Sprintf("Message must be %d characters or fewer", MaxMessageLength)
	}
	return ""
}
