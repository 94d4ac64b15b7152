package services

import (
	"context"
	"fmt"

	"github.com/spanlab/span-core/internal/domain/entities"
	"github.com/spanlab/span-core/internal/domain/ports"
)

// Projection is the relationship-language view of a connection: parent
// becomes subject, child becomes object.
type Projection struct {
	SubjectID        string `json:"subject_id"`
	ObjectID         string `json:"object_id"`
	TypeID           string `json:"type_id"`
	ConnectionSpanID string `json:"connection_span_id"`
}

// Project maps a connection to its subject/object projection. It is a pure
// function of the connection row, so the projection can never lag behind
// an update to the row it reflects.
func Project(conn *entities.Connection) Projection {
	return Projection{
		SubjectID:        conn.ParentID,
		ObjectID:         conn.ChildID,
		TypeID:           conn.TypeID,
		ConnectionSpanID: conn.ConnectionSpanID,
	}
}

// ProjectionService answers subject/object queries over connections. Reads
// go straight to the connection rows; there is no separate materialization
// to fall out of sync.
type ProjectionService struct {
	store ports.Store
}

// NewProjectionService creates a new ProjectionService.
func NewProjectionService(store ports.Store) *ProjectionService {
	return &ProjectionService{store: store}
}

// ListBySubject returns projections of connections where the span is the subject.
func (s *ProjectionService) ListBySubject(ctx context.Context, spanID string) ([]Projection, error) {
	conns, err := s.store.ListConnectionsBySubject(ctx, spanID)
	if err != nil {
		return nil, fmt.Errorf("listing connections by subject: %w", err)
	}
	return projectAll(conns), nil
}

// ListByObject returns projections of connections where the span is the object.
func (s *ProjectionService) ListByObject(ctx context.Context, spanID string) ([]Projection, error) {
	conns, err := s.store.ListConnectionsByObject(ctx, spanID)
	if err != nil {
		return nil, fmt.Errorf("listing connections by object: %w", err)
	}
	return projectAll(conns), nil
}

// ListForSpan returns projections of every connection touching the span.
func (s *ProjectionService) ListForSpan(ctx context.Context, spanID string) ([]Projection, error) {
	conns, err := s.store.ListConnectionsForSpan(ctx, spanID)
	if err != nil {
		return nil, fmt.Errorf("listing connections for span: %w", err)
	}
	return projectAll(conns), nil
}

func projectAll(conns []entities.Connection) []Projection {
	result := make([]Projection, len(conns))
	for i := range conns {
		result[i] = Project(&conns[i])
	}
	return result
}

// NarrateProjection renders a projection as a sentence.
func (s *ProjectionService) NarrateProjection(ctx context.Context, p Projection, inverse bool) (string, error) {
	conn := &entities.Connection{
		ParentID:         p.SubjectID,
		ChildID:          p.ObjectID,
		TypeID:           p.TypeID,
		ConnectionSpanID: p.ConnectionSpanID,
	}
	return s.Narrate(ctx, conn, inverse)
}

// Narrate renders a connection as a sentence using its type's predicate
// pair: forward reads subject-to-object, inverse object-to-subject.
func (s *ProjectionService) Narrate(ctx context.Context, conn *entities.Connection, inverse bool) (string, error) {
	ct, err := s.store.FindConnectionType(ctx, conn.TypeID)
	if err != nil {
		return "", fmt.Errorf("loading connection type: %w", err)
	}
	if ct == nil {
		return "", fmt.Errorf("connection type %s: %w", conn.TypeID, entities.ErrNotFound)
	}

	subject, err := s.store.FindSpanByID(ctx, conn.ParentID)
	if err != nil {
		return "", fmt.Errorf("loading subject: %w", err)
	}
	object, err := s.store.FindSpanByID(ctx, conn.ChildID)
	if err != nil {
		return "", fmt.Errorf("loading object: %w", err)
	}
	if subject == nil || object == nil {
		return "", fmt.Errorf("connection %s endpoints: %w", conn.ID, entities.ErrNotFound)
	}

	if inverse {
		return fmt.Sprintf("%s %s %s", object.Name, ct.InversePredicate, subject.Name), nil
	}
	return fmt.Sprintf("%s %s %s", subject.Name, ct.ForwardPredicate, object.Name), nil
}
