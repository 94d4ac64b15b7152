// Package entities contains core domain data structures.
package entities

import (
	"strings"
	"time"
)

// AccessLevel controls who may view a span.
type AccessLevel string

const (
	AccessPublic  AccessLevel = "public"
	AccessPrivate AccessLevel = "private"
	AccessShared  AccessLevel = "shared"
)

// ValidAccessLevel reports whether s names a known access level.
func ValidAccessLevel(s string) bool {
	switch AccessLevel(s) {
	case AccessPublic, AccessPrivate, AccessShared:
		return true
	}
	return false
}

// Default span type names. Further types can be added via SpanTypeService.
const (
	TypePerson       = "person"
	TypePlace        = "place"
	TypeEvent        = "event"
	TypeOrganisation = "organisation"
	TypeThing        = "thing"
	TypeRole         = "role"
	TypeConnection   = "connection"
)

// Span is a typed, access-controlled entity: a person, place, event,
// organisation, thing, role, or the narrative holder for a connection.
type Span struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Slug        string      `json:"slug"`
	Type        string      `json:"type"`
	OwnerID     string      `json:"owner_id"`
	UpdaterID   string      `json:"updater_id"`
	AccessLevel AccessLevel `json:"access_level"`
	Start       FlexDate    `json:"start,omitempty"`
	End         FlexDate    `json:"end,omitempty"`
	Description string      `json:"description,omitempty"`
	Notes       string      `json:"notes,omitempty"`
	Metadata    *Metadata   `json:"metadata,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// IsConnectionSpan reports whether this span narrates a connection.
func (s *Span) IsConnectionSpan() bool {
	return s.Type == TypeConnection
}

// NormalizeName converts a name to lowercase for case-insensitive matching.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
