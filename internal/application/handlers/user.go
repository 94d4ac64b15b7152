package handlers

import (
	"context"

	"github.com/spanlab/span-core/internal/domain/entities"
	"github.com/spanlab/span-core/internal/domain/services"
)

// UserHandler handles user account operations.
type UserHandler struct {
	service *services.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// HandleCreate registers a user. A non-empty name also creates their
// personal span.
func (h *UserHandler) HandleCreate(ctx context.Context, email, name string, isAdmin bool) (*entities.User, error) {
	return h.service.Create(ctx, email, name, isAdmin)
}

// HandleList returns all users.
func (h *UserHandler) HandleList(ctx context.Context) ([]entities.User, error) {
	return h.service.List(ctx)
}

// HandleDelete removes a user. Admins cannot delete their own account.
func (h *UserHandler) HandleDelete(ctx context.Context, id string, principal *entities.User) error {
	return h.service.Delete(ctx, id, principal)
}
