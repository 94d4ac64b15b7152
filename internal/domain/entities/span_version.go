package entities

import "time"

// InitialVersionSummary is the change summary of every version 1.
const InitialVersionSummary = "Initial version"

// SpanVersion is an immutable snapshot of a span's versioned fields.
// Version numbers for a given span start at 1 and are gapless; versions
// are only ever appended and only deleted together with their span.
type SpanVersion struct {
	ID            string    `json:"id"`
	SpanID        string    `json:"span_id"`
	Version       int       `json:"version"`
	ChangedBy     string    `json:"changed_by"`
	ChangeSummary string    `json:"change_summary"`
	Data          Span      `json:"data"`
	CreatedAt     time.Time `json:"created_at"`
}
