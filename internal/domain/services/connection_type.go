package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/spanlab/span-core/internal/domain/entities"
	"github.com/spanlab/span-core/internal/domain/ports"
)

// validTypeNameRegex allows lowercase alphanumeric and underscores only.
var validTypeNameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ConnectionTypeService manages the connection-type taxonomy.
type ConnectionTypeService struct {
	store       ports.Store
	cache       map[string]*entities.ConnectionType
	sortedNames []string // cached sorted names, populated with cache
	cacheMu     sync.RWMutex
}

// NewConnectionTypeService creates a new ConnectionTypeService.
func NewConnectionTypeService(store ports.Store) *ConnectionTypeService {
	return &ConnectionTypeService{
		store: store,
		cache: make(map[string]*entities.ConnectionType),
	}
}

// LoadDefaults seeds the built-in connection types.
func (s *ConnectionTypeService) LoadDefaults(ctx context.Context) error {
	existing, err := s.store.ListConnectionTypes(ctx)
	if err != nil {
		return fmt.Errorf("listing connection types: %w", err)
	}

	existingSet := make(map[string]bool, len(existing))
	for _, ct := range existing {
		existingSet[ct.Name] = true
	}

	for _, ct := range entities.DefaultConnectionTypes {
		if !existingSet[ct.Name] {
			ctCopy := ct
			if err := s.store.SaveConnectionType(ctx, &ctCopy); err != nil {
				return fmt.Errorf("seeding connection type %s: %w", ct.Name, err)
			}
		}
	}
	s.invalidateCache()
	return nil
}

// List returns all connection types.
func (s *ConnectionTypeService) List(ctx context.Context) ([]entities.ConnectionType, error) {
	return s.store.ListConnectionTypes(ctx)
}

// Get returns a connection type by name, or nil if not found.
func (s *ConnectionTypeService) Get(ctx context.Context, name string) (*entities.ConnectionType, error) {
	return s.store.FindConnectionType(ctx, name)
}

// Add creates a new connection type with its forward and inverse predicate pair.
func (s *ConnectionTypeService) Add(ctx context.Context, ct entities.ConnectionType) error {
	ct.Name = strings.ToLower(strings.TrimSpace(ct.Name))

	if !validTypeNameRegex.MatchString(ct.Name) {
		return errors.New("invalid type name: must be lowercase alphanumeric with underscores, starting with a letter")
	}
	if ct.ForwardPredicate == "" || ct.InversePredicate == "" {
		return errors.New("forward and inverse predicates are required")
	}

	existing, err := s.store.FindConnectionType(ctx, ct.Name)
	if err != nil {
		return fmt.Errorf("checking connection type: %w", err)
	}
	if existing != nil {
		return fmt.Errorf("connection type '%s' already exists", ct.Name)
	}

	if err := s.store.SaveConnectionType(ctx, &ct); err != nil {
		return fmt.Errorf("saving connection type: %w", err)
	}

	s.invalidateCache()
	return nil
}

// Remove deletes a connection type. Built-in types cannot be removed, and
// neither can a type any connection still references.
func (s *ConnectionTypeService) Remove(ctx context.Context, name string) error {
	if entities.IsDefaultConnectionType(name) {
		return fmt.Errorf("cannot remove default connection type '%s'", name)
	}

	existing, err := s.store.FindConnectionType(ctx, name)
	if err != nil {
		return fmt.Errorf("checking connection type: %w", err)
	}
	if existing == nil {
		return fmt.Errorf("connection type '%s': %w", name, entities.ErrNotFound)
	}

	inUse, err := s.store.CountConnectionsByType(ctx, name)
	if err != nil {
		return fmt.Errorf("counting connections of type: %w", err)
	}
	if inUse > 0 {
		return fmt.Errorf("connection type '%s' is referenced by %d connections: %w", name, inUse, entities.ErrTypeInUse)
	}

	if err := s.store.DeleteConnectionType(ctx, name); err != nil {
		return fmt.Errorf("deleting connection type: %w", err)
	}

	s.invalidateCache()
	return nil
}

// IsValid checks if a type name exists in the registry.
func (s *ConnectionTypeService) IsValid(ctx context.Context, name string) bool {
	// Fast path: check cache with read lock
	s.cacheMu.RLock()
	if len(s.cache) > 0 {
		_, ok := s.cache[name]
		s.cacheMu.RUnlock()
		return ok
	}
	s.cacheMu.RUnlock()

	// Slow path: need to populate cache
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	// Double-check: another goroutine may have populated the cache
	if len(s.cache) > 0 {
		_, ok := s.cache[name]
		return ok
	}

	types, err := s.store.ListConnectionTypes(ctx)
	if err != nil {
		return false
	}

	s.populateCacheFromTypes(types)
	_, ok := s.cache[name]
	return ok
}

// ValidNames returns all registered type names, sorted. The returned slice
// is shared and must not be modified by callers.
func (s *ConnectionTypeService) ValidNames(ctx context.Context) ([]string, error) {
	s.cacheMu.RLock()
	if len(s.cache) > 0 {
		names := s.sortedNames
		s.cacheMu.RUnlock()
		return names, nil
	}
	s.cacheMu.RUnlock()

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	if len(s.cache) > 0 {
		return s.sortedNames, nil
	}

	types, err := s.store.ListConnectionTypes(ctx)
	if err != nil {
		return nil, err
	}

	s.populateCacheFromTypes(types)
	return s.sortedNames, nil
}

// populateCacheFromTypes fills the cache and sortedNames from a types slice.
// Caller must hold cacheMu write lock.
func (s *ConnectionTypeService) populateCacheFromTypes(types []entities.ConnectionType) {
	s.cache = make(map[string]*entities.ConnectionType, len(types))
	s.sortedNames = make([]string, len(types))
	for i := range types {
		s.cache[types[i].Name] = &types[i]
		s.sortedNames[i] = types[i].Name
	}
	sort.Strings(s.sortedNames)
}

func (s *ConnectionTypeService) invalidateCache() {
	s.cacheMu.Lock()
	s.cache = make(map[string]*entities.ConnectionType)
	s.sortedNames = nil
	s.cacheMu.Unlock()
}
