// Package events provides the in-memory event bus carrying submission
// lifecycle notifications to observers (audit logging, metrics). Publishing
// is best-effort: a slow or missing subscriber never affects the pipeline.
package events

import "time"

// EventType identifies a submission lifecycle event.
type EventType string

const (
	// SubmissionAccepted fires when a provider accepts a submission.
	SubmissionAccepted EventType = "submission.accepted"
	// SubmissionRejected fires on any local rejection (honeypot, rate
	// limit, validation, spam).
	SubmissionRejected EventType = "submission.rejected"
	// SubmissionFailed fires when every provider and retry is exhausted.
	SubmissionFailed EventType = "submission.failed"
)

// Event is a single submission lifecycle notification.
type Event struct {
	ID        string
	Type      EventType
	Timestamp time.Time
	// ReferenceID ties the event back to the submission it describes.
	ReferenceID string
	// Payload carries event-specific detail (outcome code, provider).
	Payload map[string]string
}

// Handler consumes events. Handlers run synchronously on the publishing
// goroutine and must not block.
type Handler func(Event)
