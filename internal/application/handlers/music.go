package handlers

import (
	"context"
	"fmt"

	"github.com/spanlab/span-core/internal/domain/entities"
	"github.com/spanlab/span-core/internal/domain/ports"
	"github.com/spanlab/span-core/internal/domain/services"
)

// MusicHandler looks up musical subjects in the external metadata service
// and turns picked matches into spans.
type MusicHandler struct {
	search ports.MusicSearch
	spans  *services.SpanService
}

// NewMusicHandler creates a new MusicHandler.
func NewMusicHandler(search ports.MusicSearch, spans *services.SpanService) *MusicHandler {
	return &MusicHandler{
		search: search,
		spans:  spans,
	}
}

// HandleSearch returns matches for the query, best first.
func (h *MusicHandler) HandleSearch(ctx context.Context, query string) ([]ports.MusicMatch, error) {
	return h.search.Search(ctx, query)
}

// HandleAdopt creates a span from a match. Artists of type "Person" become
// person spans, everything else an organisation (groups, orchestras).
func (h *MusicHandler) HandleAdopt(ctx context.Context, match ports.MusicMatch, principal *entities.User) (*entities.Span, error) {
	if match.Name == "" {
		return nil, fmt.Errorf("match has no name")
	}

	spanType := entities.TypeOrganisation
	if match.Type == "Person" {
		spanType = entities.TypePerson
	}

	description := match.Disambiguation
	if description == "" && match.Country != "" {
		description = fmt.Sprintf("Artist from %s", match.Country)
	}

	input := services.SpanInput{
		Name:        match.Name,
		Type:        spanType,
		AccessLevel: entities.AccessPrivate,
		Description: description,
	}
	if match.ID != "" {
		input.Metadata = &entities.Metadata{
			Extra: map[string]string{"musicbrainz_id": match.ID},
		}
	}

	return h.spans.Create(ctx, input, principal)
}
