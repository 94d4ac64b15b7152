package ports

import "context"

// MusicMatch is one result from the external music metadata service.
type MusicMatch struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Type           string `json:"type,omitempty"`
	Country        string `json:"country,omitempty"`
	Disambiguation string `json:"disambiguation,omitempty"`
	Score          int    `json:"score"`
}

// MusicSearch is the external music metadata collaborator. Implementations
// must keep at least one second between outbound calls process-wide and
// retry a rate-limited response exactly once; any other failure is fatal
// for that call.
type MusicSearch interface {
	// Search returns matches for the query, best first.
	Search(ctx context.Context, query string) ([]MusicMatch, error)
}
