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

// UserService manages principals.
type UserService struct {
	store ports.Store
	spans *SpanService
}

// NewUserService creates a new UserService.
func NewUserService(store ports.Store, spans *SpanService) *UserService {
	return &UserService{store: store, spans: spans}
}

// Create registers a user. When name is non-empty a personal span of type
// person is created and linked, owned by the new user.
func (s *UserService) Create(ctx context.Context, email, name string, isAdmin bool) (*entities.User, error) {
	if email == "" {
		return nil, errors.New("email is required")
	}
	existing, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("checking email: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("user with email %s already exists", email)
	}

	user := &entities.User{
		ID:        uuid.New().String(),
		Email:     email,
		IsAdmin:   isAdmin,
		CreatedAt: time.Now(),
	}
	if err := s.store.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("saving user: %w", err)
	}

	if name != "" {
		personal, err := s.spans.Create(ctx, SpanInput{
			Name:        name,
			Type:        entities.TypePerson,
			AccessLevel: entities.AccessPrivate,
		}, user)
		if err != nil {
			return nil, fmt.Errorf("creating personal span: %w", err)
		}
		user.PersonalSpanID = personal.ID
		if err := s.store.SaveUser(ctx, user); err != nil {
			return nil, fmt.Errorf("linking personal span: %w", err)
		}
	}

	return user, nil
}

// Get finds a user by ID. Returns nil if not found.
func (s *UserService) Get(ctx context.Context, id string) (*entities.User, error) {
	return s.store.FindUserByID(ctx, id)
}

// List returns all users.
func (s *UserService) List(ctx context.Context) ([]entities.User, error) {
	return s.store.ListUsers(ctx)
}

// Delete removes a user account. An admin cannot delete their own account;
// a regular user deleting themself takes their personal span (and with it
// that span's versions and connections) along.
func (s *UserService) Delete(ctx context.Context, id string, actor *entities.User) error {
	if actor != nil && actor.IsAdmin && actor.ID == id {
		return entities.ErrAdminSelfDelete
	}

	user, err := s.store.FindUserByID(ctx, id)
	if err != nil {
		return fmt.Errorf("loading user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("user %s: %w", id, entities.ErrNotFound)
	}

	if user.PersonalSpanID != "" {
		if err := s.spans.Delete(ctx, user.PersonalSpanID, actor); err != nil && !errors.Is(err, entities.ErrNotFound) {
			return fmt.Errorf("deleting personal span: %w", err)
		}
	}

	if err := s.store.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return nil
}
