package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/spanlab/span-core/internal/domain/entities"
	"github.com/spanlab/span-core/internal/domain/ports"
)

// ConnectionService manages connections and the connection-spans that
// narrate them.
type ConnectionService struct {
	store ports.Store
	spans *SpanService
	types *ConnectionTypeService
}

// NewConnectionService creates a new ConnectionService.
func NewConnectionService(store ports.Store, spans *SpanService, types *ConnectionTypeService) *ConnectionService {
	return &ConnectionService{
		store: store,
		spans: spans,
		types: types,
	}
}

// Create links parent to child with the given type. It validates both
// endpoints, rejects duplicates, and creates the narrating connection-span
// (named from the type's forward predicate) in the same step. The
// connection-span gets its own owner and access level: the narrative about
// a relationship is access-controlled independently of its endpoints.
func (c *ConnectionService) Create(ctx context.Context, parentID, typeName, childID string, accessLevel entities.AccessLevel, actor *entities.User) (*entities.Connection, error) {
	if actor == nil {
		return nil, errors.New("an authenticated owner is required")
	}
	if parentID == childID {
		return nil, errors.New("a span cannot be connected to itself")
	}

	ct, err := c.types.Get(ctx, typeName)
	if err != nil {
		return nil, fmt.Errorf("checking connection type: %w", err)
	}
	if ct == nil {
		return nil, fmt.Errorf("connection type '%s': %w", typeName, entities.ErrNotFound)
	}

	parent, err := c.store.FindSpanByID(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("loading parent: %w", err)
	}
	if parent == nil {
		return nil, fmt.Errorf("parent span %s: %w", parentID, entities.ErrNotFound)
	}
	child, err := c.store.FindSpanByID(ctx, childID)
	if err != nil {
		return nil, fmt.Errorf("loading child: %w", err)
	}
	if child == nil {
		return nil, fmt.Errorf("child span %s: %w", childID, entities.ErrNotFound)
	}
	if parent.IsConnectionSpan() || child.IsConnectionSpan() {
		return nil, errors.New("connection endpoints must be ordinary spans")
	}

	existing, err := c.store.FindConnectionBetween(ctx, parentID, childID, typeName)
	if err != nil {
		return nil, fmt.Errorf("checking existing connection: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("connection already exists between these spans (id: %s)", existing.ID)
	}

	connSpan, err := c.spans.Create(ctx, SpanInput{
		Name:        fmt.Sprintf("%s %s %s", parent.Name, ct.ForwardPredicate, child.Name),
		Type:        entities.TypeConnection,
		AccessLevel: accessLevel,
	}, actor)
	if err != nil {
		return nil, fmt.Errorf("creating connection span: %w", err)
	}

	conn := &entities.Connection{
		ID:               uuid.New().String(),
		ParentID:         parentID,
		ChildID:          childID,
		TypeID:           ct.Name,
		ConnectionSpanID: connSpan.ID,
		CreatedAt:        time.Now(),
	}
	if err := c.store.SaveConnection(ctx, conn); err != nil {
		// Roll back the orphaned connection-span.
		_ = c.spans.Delete(ctx, connSpan.ID, actor)
		return nil, fmt.Errorf("saving connection: %w", err)
	}

	return conn, nil
}

// Delete removes a connection and its narrating connection-span.
func (c *ConnectionService) Delete(ctx context.Context, id string, actor *entities.User) error {
	conn, err := c.store.FindConnectionByID(ctx, id)
	if err != nil {
		return fmt.Errorf("loading connection: %w", err)
	}
	if conn == nil {
		return fmt.Errorf("connection %s: %w", id, entities.ErrNotFound)
	}

	if err := c.store.DeleteConnection(ctx, id); err != nil {
		return fmt.Errorf("deleting connection: %w", err)
	}
	if err := c.spans.Delete(ctx, conn.ConnectionSpanID, actor); err != nil {
		return fmt.Errorf("deleting connection span: %w", err)
	}
	return nil
}

// Get finds a connection by ID. Returns nil if not found.
func (c *ConnectionService) Get(ctx context.Context, id string) (*entities.Connection, error) {
	return c.store.FindConnectionByID(ctx, id)
}

// List returns every connection touching the span.
func (c *ConnectionService) List(ctx context.Context, spanID string) ([]entities.Connection, error) {
	return c.store.ListConnectionsForSpan(ctx, spanID)
}
