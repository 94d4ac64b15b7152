package entities

import "time"

// ConnectionType is a named relationship category. The forward pair reads
// parent-to-child ("employed"), the inverse pair child-to-parent
// ("was employed by") so a connection can be narrated from either side.
type ConnectionType struct {
	Name               string    `json:"name"`
	ForwardPredicate   string    `json:"forward_predicate"`
	ForwardDescription string    `json:"forward_description,omitempty"`
	InversePredicate   string    `json:"inverse_predicate"`
	InverseDescription string    `json:"inverse_description,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}
