package contact

import (
	"strings"
	"testing"
)

// validSubmission returns a minimal submission that passes every rule.
func validSubmission() *SanitizedSubmission {
	return &SanitizedSubmission{
		Name:        "Jo",
		Email:       "a@b.co",
		Message:     "1234567890",
		ProjectType: ProjectCloudArchitecture,
		Timeline:    TimelineImmediate,
	}
}

func TestValidateForm_ValidSubmission(t *testing.T) {
	result := ValidateForm(validSubmission())
	if !result.Valid() {
		t.Errorf("expected valid submission, got errors: %v", result)
	}
}

func TestValidateForm_FieldRules(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*SanitizedSubmission)
		wantField string
	}{
		{
			name:      "name too short",
			mutate:    func(s *SanitizedSubmission) { s.Name = "J" },
			wantField: "name",
		},
		{
			name:      "name too long",
			mutate:    func(s *SanitizedSubmission) { s.Name = strings.Repeat("a", 101) },
			wantField: "name",
		},
		{
			name:      "name with digits",
			mutate:    func(s *SanitizedSubmission) { s.Name = "R2D2" },
			wantField: "name",
		},
		{
			name:      "name missing",
			mutate:    func(s *SanitizedSubmission) { s.Name = "" },
			wantField: "name",
		},
		{
			name:      "email not an address",
			mutate:    func(s *SanitizedSubmission) { s.Email = "not-an-email" },
			wantField: "email",
		},
		{
			name:      "email consecutive dots",
			mutate:    func(s *SanitizedSubmission) { s.Email = "a..b@example.com" },
			wantField: "email",
		},
		{
			name:      "email domain label leading hyphen",
			mutate:    func(s *SanitizedSubmission) { s.Email = "a@-example.com" },
			wantField: "email",
		},
		{
			name:      "email local part too long",
			mutate:    func(s *SanitizedSubmission) { s.Email = strings.Repeat("a", 65) + "@example.com" },
			wantField: "email",
		},
		{
			name:      "email total too long",
			mutate:    func(s *SanitizedSubmission) { s.Email = "a@" + strings.Repeat("b.", 130) + "co" },
			wantField: "email",
		},
		{
			name:      "email domain label too long",
			mutate:    func(s *SanitizedSubmission) { s.Email = "a@" + strings.Repeat("b", 64) + ".com" },
			wantField: "email",
		},
		{
			name:      "message too short",
			mutate:    func(s *SanitizedSubmission) { s.Message = "short" },
			wantField: "message",
		},
		{
			name:      "message too long",
			mutate:    func(s *SanitizedSubmission) { s.Message = strings.Repeat("a", 2001) },
			wantField: "message",
		},
		{
			name:      "company too long",
			mutate:    func(s *SanitizedSubmission) { s.Company = strings.Repeat("a", 201) },
			wantField: "company",
		},
		{
			name:      "phone invalid",
			mutate:    func(s *SanitizedSubmission) { s.Phone = "call me" },
			wantField: "phone",
		},
		{
			name:      "project type missing",
			mutate:    func(s *SanitizedSubmission) { s.ProjectType = "" },
			wantField: "project_type",
		},
		{
			name:      "project type outside enum",
			mutate:    func(s *SanitizedSubmission) { s.ProjectType = "blockchain" },
			wantField: "project_type",
		},
		{
			name:      "timeline missing",
			mutate:    func(s *SanitizedSubmission) { s.Timeline = "" },
			wantField: "project_timeline",
		},
		{
			name:      "budget outside enum",
			mutate:    func(s *SanitizedSubmission) { s.BudgetRange = "one million" },
			wantField: "budget_range",
		},
		{
			name:      "referral outside enum",
			mutate:    func(s *SanitizedSubmission) { s.ReferralSource = "tv" },
			wantField: "referral_source",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := validSubmission()
			tt.mutate(sub)

			result := ValidateForm(sub)
			if result.Valid() {
				t.Fatal("expected validation to fail")
			}
			if _, ok := result[tt.wantField]; !ok {
				t.Errorf("expected error on %q, got %v", tt.wantField, result)
			}
		})
	}
}

func TestValidateForm_OptionalFieldsMayBeEmpty(t *testing.T) {
	sub := validSubmission()
	sub.Company = ""
	sub.Phone = ""
	sub.BudgetRange = ""
	sub.ReferralSource = ""

	if result := ValidateForm(sub); !result.Valid() {
		t.Errorf("optional fields left empty should be valid, got %v", result)
	}
}

func TestValidateForm_AcceptsInternationalNames(t *testing.T) {
	names := []string{"José García", "Zoë O'Brien", "Jean-Luc Picard", "Dr. Müller", "Åsa Lindqvist"}
	for _, name := range names {
		sub := validSubmission()
		sub.Name = name
		if result := ValidateForm(sub); !result.Valid() {
			t.Errorf("name %q should be valid, got %v", name, result)
		}
	}
}

func TestValidateForm_ValidPhones(t *testing.T) {
	phones := []string{"+1 (555) 123-4567", "+442071838750", "555-123-4567"}
	for _, phone := range phones {
		sub := validSubmission()
		sub.Phone = phone
		if result := ValidateForm(sub); !result.Valid() {
			t.Errorf("phone %q should be valid, got %v", phone, result)
		}
	}
}

func TestValidateField_SuspiciousContentShortCircuits(t *testing.T) {
	payloads := []string{
		"<script>alert(1)</script>",
		"javascript:alert(1)",
		`<img onerror=alert(1)>`,
		"<iframe src=x>",
		"<object data=x>",
		"data:text/html;base64,xyz",
	}

	for _, payload := range payloads {
		// A suspicious payload must fail every field with the generic
		// message, even a field whose own rules it might pass.
		for _, field := range []string{"name", "email", "message", "company"} {
			got := ValidateField(field, payload)
			if got != invalidCharsMessage {
				t.Errorf("ValidateField(%q, %q) = %q, want generic invalid-characters message", field, payload, got)
			}
		}
	}
}

func TestValidateForm_DoesNotMutateInput(t *testing.T) {
	sub := validSubmission()
	sub.Company = "Acme"
	before := *sub

	ValidateForm(sub)

	if *sub != before {
		t.Error("ValidateForm mutated its input")
	}
}
