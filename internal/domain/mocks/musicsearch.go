package mocks

import (
	"context"

	"github.com/spanlab/span-core/internal/domain/ports"
)

// MusicSearch is a mock implementation of ports.MusicSearch.
type MusicSearch struct {
	Matches []ports.MusicMatch
	Err     error
	Queries []string
}

// Search returns the canned matches and records the query.
func (m *MusicSearch) Search(_ context.Context, query string) ([]ports.MusicMatch, error) {
	m.Queries = append(m.Queries, query)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Matches, nil
}
