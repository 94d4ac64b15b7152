package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spanlab/span-core/internal/domain/entities"
	"github.com/spanlab/span-core/internal/domain/ports"
)

// SpanTypeService manages the span-type taxonomy.
type SpanTypeService struct {
	store ports.Store
}

// NewSpanTypeService creates a new SpanTypeService.
func NewSpanTypeService(store ports.Store) *SpanTypeService {
	return &SpanTypeService{store: store}
}

// LoadDefaults seeds the built-in span types.
func (s *SpanTypeService) LoadDefaults(ctx context.Context) error {
	existing, err := s.store.ListSpanTypes(ctx)
	if err != nil {
		return fmt.Errorf("listing span types: %w", err)
	}

	existingSet := make(map[string]bool, len(existing))
	for _, st := range existing {
		existingSet[st.Name] = true
	}

	for _, st := range entities.DefaultSpanTypes {
		if !existingSet[st.Name] {
			stCopy := st
			if err := s.store.SaveSpanType(ctx, &stCopy); err != nil {
				return fmt.Errorf("seeding span type %s: %w", st.Name, err)
			}
		}
	}
	return nil
}

// List returns all span types.
func (s *SpanTypeService) List(ctx context.Context) ([]entities.SpanType, error) {
	return s.store.ListSpanTypes(ctx)
}

// Get returns a span type by name, or nil if not found.
func (s *SpanTypeService) Get(ctx context.Context, name string) (*entities.SpanType, error) {
	return s.store.FindSpanType(ctx, name)
}

// Add registers a new span type.
func (s *SpanTypeService) Add(ctx context.Context, name, description string) error {
	name = strings.ToLower(strings.TrimSpace(name))

	if !validTypeNameRegex.MatchString(name) {
		return errors.New("invalid type name: must be lowercase alphanumeric with underscores, starting with a letter")
	}

	existing, err := s.store.FindSpanType(ctx, name)
	if err != nil {
		return fmt.Errorf("checking span type: %w", err)
	}
	if existing != nil {
		return fmt.Errorf("span type '%s' already exists", name)
	}

	st := &entities.SpanType{Name: name, Description: description}
	if err := s.store.SaveSpanType(ctx, st); err != nil {
		return fmt.Errorf("saving span type: %w", err)
	}
	return nil
}

// Remove deletes a span type. Built-in types and types still carried by a
// span cannot be removed.
func (s *SpanTypeService) Remove(ctx context.Context, name string) error {
	if entities.IsDefaultSpanType(name) {
		return fmt.Errorf("cannot remove default span type '%s'", name)
	}

	existing, err := s.store.FindSpanType(ctx, name)
	if err != nil {
		return fmt.Errorf("checking span type: %w", err)
	}
	if existing == nil {
		return fmt.Errorf("span type '%s': %w", name, entities.ErrNotFound)
	}

	carriers, err := s.store.ListSpans(ctx, name, 1, 0)
	if err != nil {
		return fmt.Errorf("checking spans of type: %w", err)
	}
	if len(carriers) > 0 {
		return fmt.Errorf("span type '%s' is still in use: %w", name, entities.ErrTypeInUse)
	}

	if err := s.store.DeleteSpanType(ctx, name); err != nil {
		return fmt.Errorf("deleting span type: %w", err)
	}
	return nil
}

// IsValid checks if a type name exists in the registry.
func (s *SpanTypeService) IsValid(ctx context.Context, name string) bool {
	st, err := s.store.FindSpanType(ctx, name)
	return err == nil && st != nil
}
