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

// SpanInput carries the caller-editable fields of a span.
type SpanInput struct {
	Name        string
	Type        string
	AccessLevel entities.AccessLevel
	Start       entities.FlexDate
	End         entities.FlexDate
	Description string
	Notes       string
	Metadata    *entities.Metadata
}

// SpanService manages the span lifecycle: creation with slug derivation,
// updates with version recording, and cascading deletion.
type SpanService struct {
	store     ports.Store
	recorder  *VersionRecorder
	spanTypes *SpanTypeService
}

// NewSpanService creates a new SpanService.
func NewSpanService(store ports.Store, recorder *VersionRecorder, spanTypes *SpanTypeService) *SpanService {
	return &SpanService{
		store:     store,
		recorder:  recorder,
		spanTypes: spanTypes,
	}
}

func (s *SpanService) validateInput(ctx context.Context, input SpanInput) error {
	if input.Name == "" {
		return errors.New("span name is required")
	}
	if !s.spanTypes.IsValid(ctx, input.Type) {
		return fmt.Errorf("unknown span type '%s'", input.Type)
	}
	if !entities.ValidAccessLevel(string(input.AccessLevel)) {
		return fmt.Errorf("unknown access level '%s'", input.AccessLevel)
	}
	if !input.Start.Valid() || !input.End.Valid() {
		return errors.New("invalid temporal bounds")
	}
	return nil
}

// Create makes a new span owned by the actor and records version 1.
func (s *SpanService) Create(ctx context.Context, input SpanInput, actor *entities.User) (*entities.Span, error) {
	if actor == nil {
		return nil, errors.New("an authenticated owner is required")
	}
	if input.AccessLevel == "" {
		input.AccessLevel = entities.AccessPrivate
	}
	if err := s.validateInput(ctx, input); err != nil {
		return nil, err
	}

	slug, err := UniqueSlug(ctx, s.store, input.Name)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	span := &entities.Span{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Slug:        slug,
		Type:        input.Type,
		OwnerID:     actor.ID,
		UpdaterID:   actor.ID,
		AccessLevel: input.AccessLevel,
		Start:       input.Start,
		End:         input.End,
		Description: input.Description,
		Notes:       input.Notes,
		Metadata:    input.Metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.SaveSpan(ctx, span); err != nil {
		return nil, fmt.Errorf("saving span: %w", err)
	}
	if _, err := s.recorder.RecordCreate(ctx, span, actor.ID); err != nil {
		return nil, err
	}
	if err := s.store.LogAction(ctx, "span.create", span.ID, actor.ID, nil); err != nil {
		return nil, fmt.Errorf("logging span creation: %w", err)
	}
	return span, nil
}

// Update applies the input to an existing span, marks the actor as last
// writer, and records the next version. The slug stays stable across
// renames so existing references keep resolving.
func (s *SpanService) Update(ctx context.Context, id string, input SpanInput, actor *entities.User) (*entities.Span, error) {
	if actor == nil {
		return nil, errors.New("an authenticated updater is required")
	}
	if err := s.validateInput(ctx, input); err != nil {
		return nil, err
	}

	span, err := s.store.FindSpanByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading span: %w", err)
	}
	if span == nil {
		return nil, fmt.Errorf("span %s: %w", id, entities.ErrNotFound)
	}

	span.Name = input.Name
	span.Type = input.Type
	span.AccessLevel = input.AccessLevel
	span.Start = input.Start
	span.End = input.End
	span.Description = input.Description
	span.Notes = input.Notes
	span.Metadata = input.Metadata
	span.UpdaterID = actor.ID
	span.UpdatedAt = time.Now()

	if err := s.store.SaveSpan(ctx, span); err != nil {
		return nil, fmt.Errorf("saving span: %w", err)
	}
	if _, err := s.recorder.RecordUpdate(ctx, span, actor.ID); err != nil {
		return nil, err
	}
	if err := s.store.LogAction(ctx, "span.update", span.ID, actor.ID, nil); err != nil {
		return nil, fmt.Errorf("logging span update: %w", err)
	}
	return span, nil
}

// Delete removes a span together with its versions, grants and
// connections. Versions never outlive their span.
func (s *SpanService) Delete(ctx context.Context, id string, actor *entities.User) error {
	if err := s.store.DeleteSpanCascade(ctx, id); err != nil {
		return fmt.Errorf("deleting span: %w", err)
	}
	actorID := ""
	if actor != nil {
		actorID = actor.ID
	}
	if err := s.store.LogAction(ctx, "span.delete", id, actorID, nil); err != nil {
		return fmt.Errorf("logging span deletion: %w", err)
	}
	return nil
}

// Get finds a span by ID. Returns nil if not found.
func (s *SpanService) Get(ctx context.Context, id string) (*entities.Span, error) {
	return s.store.FindSpanByID(ctx, id)
}

// GetBySlug finds a span by slug. Returns nil if not found.
func (s *SpanService) GetBySlug(ctx context.Context, slug string) (*entities.Span, error) {
	return s.store.FindSpanBySlug(ctx, slug)
}

// List returns spans, optionally filtered by type, with pagination.
func (s *SpanService) List(ctx context.Context, spanType string, limit, offset int) ([]*entities.Span, error) {
	return s.store.ListSpans(ctx, spanType, limit, offset)
}

// Search searches spans by name pattern.
func (s *SpanService) Search(ctx context.Context, query string, limit int) ([]*entities.Span, error) {
	return s.store.SearchSpans(ctx, query, limit)
}

// Grant gives a user shared access to a span. Only the owner or an admin
// may grant.
func (s *SpanService) Grant(ctx context.Context, spanID, userID string, actor *entities.User) error {
	if err := s.checkGrantAuthority(ctx, spanID, actor); err != nil {
		return err
	}
	if err := s.store.GrantAccess(ctx, spanID, userID); err != nil {
		return fmt.Errorf("granting access: %w", err)
	}
	return s.store.LogAction(ctx, "span.grant", spanID, actor.ID, map[string]any{"user": userID})
}

// Revoke removes a user's shared access to a span.
func (s *SpanService) Revoke(ctx context.Context, spanID, userID string, actor *entities.User) error {
	if err := s.checkGrantAuthority(ctx, spanID, actor); err != nil {
		return err
	}
	if err := s.store.RevokeAccess(ctx, spanID, userID); err != nil {
		return fmt.Errorf("revoking access: %w", err)
	}
	return s.store.LogAction(ctx, "span.revoke", spanID, actor.ID, map[string]any{"user": userID})
}

// AuditTrail returns the recorded actions for a span, newest first.
func (s *SpanService) AuditTrail(ctx context.Context, spanID string) ([]entities.AuditEntry, error) {
	return s.store.FindAuditLog(ctx, spanID)
}

func (s *SpanService) checkGrantAuthority(ctx context.Context, spanID string, actor *entities.User) error {
	if actor == nil {
		return errors.New("an authenticated actor is required")
	}
	span, err := s.store.FindSpanByID(ctx, spanID)
	if err != nil {
		return fmt.Errorf("loading span: %w", err)
	}
	if span == nil {
		return fmt.Errorf("span %s: %w", spanID, entities.ErrNotFound)
	}
	if !actor.IsAdmin && actor.ID != span.OwnerID {
		return errors.New("only the owner or an admin may manage grants")
	}
	return nil
}
