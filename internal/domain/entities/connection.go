package entities

import "time"

// Connection is a directed, typed edge between two spans. ParentID is the
// subject in the forward reading, ChildID the object. Every connection
// references exactly one span of type "connection" that carries its
// narrative content.
type Connection struct {
	ID               string    `json:"id"`
	ParentID         string    `json:"parent_id"`
	ChildID          string    `json:"child_id"`
	TypeID           string    `json:"type_id"`
	ConnectionSpanID string    `json:"connection_span_id"`
	CreatedAt        time.Time `json:"created_at"`
}
