package handlers

import (
	"context"

	"github.com/spanlab/span-core/internal/domain/entities"
	"github.com/spanlab/span-core/internal/domain/services"
)

// TypeHandler handles span type and connection type operations.
type TypeHandler struct {
	spanTypes       *services.SpanTypeService
	connectionTypes *services.ConnectionTypeService
}

// NewTypeHandler creates a new TypeHandler.
func NewTypeHandler(spanTypes *services.SpanTypeService, connectionTypes *services.ConnectionTypeService) *TypeHandler {
	return &TypeHandler{
		spanTypes:       spanTypes,
		connectionTypes: connectionTypes,
	}
}

// HandleListSpanTypes returns all span types.
func (h *TypeHandler) HandleListSpanTypes(ctx context.Context) ([]entities.SpanType, error) {
	return h.spanTypes.List(ctx)
}

// HandleAddSpanType creates a new span type.
func (h *TypeHandler) HandleAddSpanType(ctx context.Context, name, description string) error {
	return h.spanTypes.Add(ctx, name, description)
}

// HandleRemoveSpanType deletes a span type no span uses.
func (h *TypeHandler) HandleRemoveSpanType(ctx context.Context, name string) error {
	return h.spanTypes.Remove(ctx, name)
}

// HandleListConnectionTypes returns all connection types.
func (h *TypeHandler) HandleListConnectionTypes(ctx context.Context) ([]entities.ConnectionType, error) {
	return h.connectionTypes.List(ctx)
}

// HandleAddConnectionType creates a new connection type.
func (h *TypeHandler) HandleAddConnectionType(ctx context.Context, ct entities.ConnectionType) error {
	return h.connectionTypes.Add(ctx, ct)
}

// HandleRemoveConnectionType deletes a connection type no connection references.
func (h *TypeHandler) HandleRemoveConnectionType(ctx context.Context, name string) error {
	return h.connectionTypes.Remove(ctx, name)
}

// HandleDescribeConnectionType returns one connection type, or nil if unknown.
func (h *TypeHandler) HandleDescribeConnectionType(ctx context.Context, name string) (*entities.ConnectionType, error) {
	return h.connectionTypes.Get(ctx, name)
}
