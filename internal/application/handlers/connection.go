package handlers

import (
	"context"
	"fmt"

	"github.com/spanlab/span-core/internal/domain/entities"
	"github.com/spanlab/span-core/internal/domain/services"
)

// ConnectionHandler handles connection operations.
type ConnectionHandler struct {
	connections *services.ConnectionService
	projections *services.ProjectionService
	spans       *services.SpanService
	access      *services.AccessResolver
}

// NewConnectionHandler creates a new ConnectionHandler.
func NewConnectionHandler(connections *services.ConnectionService, projections *services.ProjectionService, spans *services.SpanService, access *services.AccessResolver) *ConnectionHandler {
	return &ConnectionHandler{
		connections: connections,
		projections: projections,
		spans:       spans,
		access:      access,
	}
}

// ConnectionInfo is a connection with its forward narration.
type ConnectionInfo struct {
	Connection entities.Connection `json:"connection"`
	Narration  string              `json:"narration"`
}

// HandleCreate connects two spans, addressed by slug, with the given type.
func (h *ConnectionHandler) HandleCreate(ctx context.Context, parentSlug, typeName, childSlug string, accessLevel entities.AccessLevel, principal *entities.User) (*ConnectionInfo, error) {
	parent, err := h.requireSpan(ctx, parentSlug)
	if err != nil {
		return nil, err
	}
	child, err := h.requireSpan(ctx, childSlug)
	if err != nil {
		return nil, err
	}

	conn, err := h.connections.Create(ctx, parent.ID, typeName, child.ID, accessLevel, principal)
	if err != nil {
		return nil, err
	}

	narration, err := h.projections.Narrate(ctx, conn, false)
	if err != nil {
		return nil, err
	}
	return &ConnectionInfo{Connection: *conn, Narration: narration}, nil
}

// HandleDelete removes a connection and its narrating span.
func (h *ConnectionHandler) HandleDelete(ctx context.Context, id string, principal *entities.User) error {
	return h.connections.Delete(ctx, id, principal)
}

// HandleList returns the connections touching a span that the principal may
// see, each narrated from the span's point of view.
func (h *ConnectionHandler) HandleList(ctx context.Context, slug string, principal *entities.User) ([]ConnectionInfo, error) {
	span, err := h.requireSpan(ctx, slug)
	if err != nil {
		return nil, err
	}

	conns, err := h.connections.List(ctx, span.ID)
	if err != nil {
		return nil, err
	}

	result := make([]ConnectionInfo, 0, len(conns))
	for i := range conns {
		conn := &conns[i]

		farID := conn.ChildID
		if conn.ChildID == span.ID {
			farID = conn.ParentID
		}
		far, err := h.spans.Get(ctx, farID)
		if err != nil {
			return nil, err
		}
		if far == nil {
			continue
		}
		verdict, err := h.access.Resolve(ctx, principal, far)
		if err != nil {
			return nil, err
		}
		if verdict != services.Allow {
			continue
		}

		narration, err := h.projections.Narrate(ctx, conn, conn.ChildID == span.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, ConnectionInfo{Connection: *conn, Narration: narration})
	}
	return result, nil
}

func (h *ConnectionHandler) requireSpan(ctx context.Context, slug string) (*entities.Span, error) {
	span, err := h.spans.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if span == nil {
		return nil, fmt.Errorf("span %q: %w", slug, entities.ErrNotFound)
	}
	return span, nil
}
