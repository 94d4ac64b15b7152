package entities

import "time"

// User is a principal whose access is evaluated against spans. A nil
// *User passed to the resolver represents an unauthenticated guest.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	IsAdmin        bool      `json:"is_admin"`
	PersonalSpanID string    `json:"personal_span_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// SpanPermission grants a user access to a span with access level "shared".
type SpanPermission struct {
	SpanID    string    `json:"span_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
