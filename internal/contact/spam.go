package contact

import (
	"regexp"
	"strings"
	"unicode"
)

// spamSignalThreshold is the number of independent signals that must fire
// before a submission is treated as spam. Requiring two keeps a single
// quirk (an enthusiastic all-caps sentence, say) from rejecting a real
// inquiry.
const spamSignalThreshold = 2

// maxMessageURLs is the number of links tolerated in a message.
const maxMessageURLs = 2

// maxCharRun is the longest allowed run of a single repeated character.
const maxCharRun = 10

var urlRegex = regexp.MustCompile(`(?i)https?://[^\s]+|www\.[^\s]+`)

var digitRunRegex = regexp.MustCompile(`[0-9]{5,}`)

// spamPhrases are lowercase phrases that almost never appear in a genuine
// consulting inquiry.
var spamPhrases = []string{
	"buy now",
	"click here",
	"limited time offer",
	"act now",
	"make money fast",
	"work from home",
	"100% free",
	"guaranteed results",
	"increase your traffic",
	"seo services",
	"cheap viagra",
	"casino",
	"crypto investment",
	"double your income",
}

// genericNames are placeholder names bots commonly submit.
var genericNames = map[string]bool{
	"test":  true,
	"user":  true,
	"admin": true,
	"name":  true,
}

// IsLikelySpam scores a sanitized submission against a fixed set of
// suspicion signals and reports whether at least two fired. It is a pure
// function; false positives are an accepted tradeoff of keeping the
// heuristic simple.
func IsLikelySpam(sub *SanitizedSubmission) bool {
	signals := 0

	if countURLs(sub.Message) > maxMessageURLs {
		signals++
	}
	if hasLongCharRun(sub.Message) {
		signals++
	}
	if containsSpamPhrase(sub.Message) {
		signals++
	}
	if mostlyUppercase(sub.Message) {
		signals++
	}
	if suspiciousEmailLocalPart(sub.Email) {
		signals++
	}
	if genericName(sub.Name) {
		signals++
	}

	return signals >= spamSignalThreshold
}

func countURLs(message string) int {
	return len(urlRegex.FindAllString(message, -1))
}

// hasLongCharRun reports whether any character repeats more than
// maxCharRun times consecutively. RE2 has no backreferences, so the run
// is counted directly.
func hasLongCharRun(message string) bool {
	var prev rune
	run := 0
	for _, r := range message {
		if r == prev {
			run++
			if run > maxCharRun {
				return true
			}
		} else {
			prev = r
			run = 1
		}
	}
	return false
}

func containsSpamPhrase(message string) bool {
	lower := strings.ToLower(message)
	for _, phrase := range spamPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// mostlyUppercase reports whether uppercase letters make up more than
// half of the message's characters. Spaces and punctuation count toward
// the total, so only sustained shouting crosses the line.
func mostlyUppercase(message string) bool {
	total, upper := 0, 0
	for _, r := range message {
		total++
		if unicode.IsUpper(r) {
			upper++
		}
	}
	if total == 0 {
		return false
	}
	return upper*2 > total
}

func suspiciousEmailLocalPart(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	local := strings.ToLower(email[:at])

	if digitRunRegex.MatchString(local) {
		return true
	}
	return strings.Contains(local, "noreply") || strings.Contains(local, "no-reply")
}

func genericName(name string) bool {
	if len([]rune(name)) < MinNameLength {
		return true
	}
	return genericNames[strings.ToLower(strings.TrimSpace(name))]
}
