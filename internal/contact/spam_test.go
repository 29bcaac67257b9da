package contact

import (
	"strings"
	"testing"
)

func TestIsLikelySpam_GenuineInquiry(t *testing.T) {
	sub := &SanitizedSubmission{
		Name:  "Sarah Chen",
		Email: "sarah.chen@hospital.org",
		Message: "We're evaluating options for migrating our patient portal to the cloud. " +
			"Our current system handles about 50,000 monthly users. " +
			"Could we schedule a call to discuss your experience with compliant architectures?",
	}

	if IsLikelySpam(sub) {
		t.Error("genuine inquiry flagged as spam")
	}
}

func TestIsLikelySpam_TwoSignalsRequired(t *testing.T) {
	tests := []struct {
		name string
		sub  *SanitizedSubmission
		want bool
	}{
		{
			name: "spam phrase plus generic name",
			sub: &SanitizedSubmission{
				Name:    "test",
				Email:   "someone@example.com",
				Message: "BUY NOW CLICK HERE!!!",
			},
			want: true,
		},
		{
			name: "spam phrase alone is tolerated",
			sub: &SanitizedSubmission{
				Name:    "Sarah Chen",
				Email:   "sarah@example.com",
				Message: "A colleague told me to act now and reach out about our cloud project, which has been stalled for a year.",
			},
			want: false,
		},
		{
			name: "too many links plus digit-heavy sender",
			sub: &SanitizedSubmission{
				Name:  "Mark Webb",
				Email: "promo123456@example.com",
				Message: "Check https://a.example https://b.example https://c.example " +
					"for our offerings and pricing information.",
			},
			want: true,
		},
		{
			name: "two links are fine",
			sub: &SanitizedSubmission{
				Name:    "Mark Webb",
				Email:   "mark@example.com",
				Message: "Our site is https://example.com and the docs live at https://docs.example.com if you want background.",
			},
			want: false,
		},
		{
			name: "character run plus noreply sender",
			sub: &SanitizedSubmission{
				Name:    "Robert Long",
				Email:   "noreply@example.com",
				Message: "Hellooooooooooo there, I have a great proposition for your business.",
			},
			want: true,
		},
		{
			name: "shouting plus placeholder name",
			sub: &SanitizedSubmission{
				Name:    "admin",
				Email:   "real.person@example.com",
				Message: "I NEED A WEBSITE FOR MY BUSINESS RIGHT AWAY",
			},
			want: true,
		},
		{
			name: "single character name alone is tolerated",
			sub: &SanitizedSubmission{
				Name:    "X",
				Email:   "x@example.com",
				Message: "Following up on our conversation at the conference last week about your consulting services.",
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsLikelySpam(tt.sub); got != tt.want {
				t.Errorf("IsLikelySpam = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasLongCharRun(t *testing.T) {
	if hasLongCharRun(strings.Repeat("a", 10)) {
		t.Error("10-character run should be tolerated")
	}
	if !hasLongCharRun(strings.Repeat("a", 11)) {
		t.Error("11-character run should fire")
	}
	if hasLongCharRun("abababababababababab") {
		t.Error("alternating characters are not a run")
	}
}

func TestMostlyUppercase(t *testing.T) {
	if !mostlyUppercase("HELLO THERE FRIEND") {
		t.Error("all-caps message should fire")
	}
	if mostlyUppercase("Hello there, friend. How are you?") {
		t.Error("normal capitalization should not fire")
	}
	if mostlyUppercase("OK!!") {
		t.Error("uppercase at exactly half the characters should not fire")
	}
	// Digits and punctuation dilute the ratio even when every letter is a
	// capital, so terse scheduling notes are not treated as shouting.
	if mostlyUppercase("ASAP!!! 10/12 9:00--17:00 #4B") {
		t.Error("punctuation-heavy message should not fire")
	}
}
