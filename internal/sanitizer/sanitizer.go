// Package sanitizer normalizes free-text form input before validation.
// All markup is stripped, whitespace is collapsed, and output length is
// bounded so downstream components never see raw HTML or oversized values.
package sanitizer

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

// MaxFieldLength is the upper bound applied to every sanitized value.
const MaxFieldLength = 2000

// TextSanitizer strips markup from free-text input and normalizes it.
type TextSanitizer struct {
	policy *bluemonday.Policy
}

// New creates a TextSanitizer backed by a strict policy that retains no
// tags and no attributes.
func New() *TextSanitizer {
	return &TextSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize strips all markup from raw, collapses whitespace runs to single
// spaces, trims, and truncates to MaxFieldLength runes. It never returns
// an error: empty or all-markup input yields an empty string.
//
// Sanitize is deterministic and idempotent, so re-sanitizing a stored
// value is safe.
func (s *TextSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}

	// StrictPolicy drops every tag and attribute but HTML-escapes what
	// remains; unescape until stable so plain text like "O'Brien & Co"
	// round-trips and nested encodings ("&amp;lt;", however deep) cannot
	// survive an extra decoding layer. Each pass that changes the string
	// replaces an entity with something shorter, so the loop terminates.
	cleaned := s.policy.Sanitize(raw)
	for {
		next := html.UnescapeString(cleaned)
		if next == cleaned {
			break
		}
		cleaned = next
	}

	// Unescaping can resurrect encoded angle brackets, so any survivors
	// are removed outright rather than re-parsed.
	cleaned = strings.Map(func(r rune) rune {
		if r == '<' || r == '>' {
			return -1
		}
		return r
	}, cleaned)

	cleaned = collapseWhitespace(cleaned)

	runes := []rune(cleaned)
	if len(runes) > MaxFieldLength {
		cleaned = strings.TrimSpace(string(runes[:MaxFieldLength]))
	}

	return cleaned
}

// collapseWhitespace replaces every run of Unicode whitespace with a
// single space and trims the result.
func collapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			inSpace = true
			continue
		}
		if inSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		inSpace = false
		b.WriteRune(r)
	}

	return b.String()
}
