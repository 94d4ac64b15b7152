// Package mocks provides in-memory implementations of the domain ports
// for use in tests.
package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/spanlab/span-core/internal/domain/entities"
)

// Store is a mock implementation of ports.Store backed by maps. Setting
// Err makes every call fail with it; finer-grained failures can be
// injected via the per-area error fields.
type Store struct {
	mu sync.Mutex

	Spans       map[string]*entities.Span
	Connections map[string]*entities.Connection
	ConnTypes   map[string]*entities.ConnectionType
	SpanTypes   map[string]*entities.SpanType
	Versions    map[string][]entities.SpanVersion // keyed by span ID, ascending
	Grants      map[string]map[string]bool        // span ID -> user ID -> granted
	Users       map[string]*entities.User
	Audit       []entities.AuditEntry

	Err           error
	VersionErr    error // returned by InsertVersion before the conflict check
	DeleteSpanErr error
}

// NewStore creates a new mock Store.
func NewStore() *Store {
	return &Store{
		Spans:       make(map[string]*entities.Span),
		Connections: make(map[string]*entities.Connection),
		ConnTypes:   make(map[string]*entities.ConnectionType),
		SpanTypes:   make(map[string]*entities.SpanType),
		Versions:    make(map[string][]entities.SpanVersion),
		Grants:      make(map[string]map[string]bool),
		Users:       make(map[string]*entities.User),
	}
}

// EnsureSchema creates the database schema if it doesn't exist.
func (m *Store) EnsureSchema(_ context.Context) error { return m.Err }

// Close closes the database connection.
func (m *Store) Close() error { return nil }

// Span methods.

// SaveSpan inserts or updates a span by ID.
func (m *Store) SaveSpan(_ context.Context, span *entities.Span) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *span
	m.Spans[span.ID] = &copied
	return nil
}

// FindSpanByID finds a span by ID.
func (m *Store) FindSpanByID(_ context.Context, id string) (*entities.Span, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Spans[id], nil
}

// FindSpanBySlug finds a span by its slug.
func (m *Store) FindSpanBySlug(_ context.Context, slug string) (*entities.Span, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.Spans {
		if s.Slug == slug {
			return s, nil
		}
	}
	return nil, nil
}

// SlugExists reports whether any span already uses the slug.
func (m *Store) SlugExists(_ context.Context, slug string) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.Spans {
		if s.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

// ListSpans lists spans, optionally filtered by type, with pagination.
func (m *Store) ListSpans(_ context.Context, spanType string, limit, offset int) ([]*entities.Span, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]*entities.Span, 0, len(m.Spans))
	for _, s := range m.Spans {
		if spanType == "" || s.Type == spanType {
			all = append(all, s)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	if offset >= len(all) {
		return []*entities.Span{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// SearchSpans searches spans by name pattern.
func (m *Store) SearchSpans(_ context.Context, query string, limit int) ([]*entities.Span, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	needle := entities.NormalizeName(query)
	result := make([]*entities.Span, 0, 8)
	for _, s := range m.Spans {
		if strings.Contains(entities.NormalizeName(s.Name), needle) {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

// DeleteSpanCascade deletes a span with its versions, grants and connections.
func (m *Store) DeleteSpanCascade(_ context.Context, id string) error {
	if m.Err != nil {
		return m.Err
	}
	if m.DeleteSpanErr != nil {
		return m.DeleteSpanErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Spans[id]; !ok {
		return entities.ErrNotFound
	}
	for cid, c := range m.Connections {
		if c.ParentID == id || c.ChildID == id {
			delete(m.Spans, c.ConnectionSpanID)
			delete(m.Versions, c.ConnectionSpanID)
			delete(m.Connections, cid)
		}
	}
	delete(m.Spans, id)
	delete(m.Versions, id)
	delete(m.Grants, id)
	return nil
}

// CountSpans returns the total number of spans.
func (m *Store) CountSpans(_ context.Context) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Spans), nil
}

// Connection methods.

// SaveConnection inserts or updates a connection by ID.
func (m *Store) SaveConnection(_ context.Context, conn *entities.Connection) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *conn
	m.Connections[conn.ID] = &copied
	return nil
}

// FindConnectionByID finds a connection by ID.
func (m *Store) FindConnectionByID(_ context.Context, id string) (*entities.Connection, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Connections[id], nil
}

// FindConnectionBySpan finds the connection narrated by a connection-span.
func (m *Store) FindConnectionBySpan(_ context.Context, connectionSpanID string) (*entities.Connection, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.Connections {
		if c.ConnectionSpanID == connectionSpanID {
			return c, nil
		}
	}
	return nil, nil
}

// FindConnectionBetween finds a connection with the given endpoints and type.
func (m *Store) FindConnectionBetween(_ context.Context, parentID, childID, typeID string) (*entities.Connection, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.Connections {
		if c.ParentID == parentID && c.ChildID == childID && c.TypeID == typeID {
			return c, nil
		}
	}
	return nil, nil
}

// ListConnectionsBySubject lists connections whose parent is the span.
func (m *Store) ListConnectionsBySubject(_ context.Context, spanID string) ([]entities.Connection, error) {
	return m.listConnections(func(c *entities.Connection) bool { return c.ParentID == spanID })
}

// ListConnectionsByObject lists connections whose child is the span.
func (m *Store) ListConnectionsByObject(_ context.Context, spanID string) ([]entities.Connection, error) {
	return m.listConnections(func(c *entities.Connection) bool { return c.ChildID == spanID })
}

// ListConnectionsForSpan lists connections where the span is parent or child.
func (m *Store) ListConnectionsForSpan(_ context.Context, spanID string) ([]entities.Connection, error) {
	return m.listConnections(func(c *entities.Connection) bool {
		return c.ParentID == spanID || c.ChildID == spanID
	})
}

func (m *Store) listConnections(match func(*entities.Connection) bool) ([]entities.Connection, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]entities.Connection, 0, 8)
	for _, c := range m.Connections {
		if match(c) {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// DeleteConnection deletes a connection by ID.
func (m *Store) DeleteConnection(_ context.Context, id string) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Connections[id]; !ok {
		return entities.ErrNotFound
	}
	delete(m.Connections, id)
	return nil
}

// CountConnectionsByType counts connections referencing a type.
func (m *Store) CountConnectionsByType(_ context.Context, typeID string) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.Connections {
		if c.TypeID == typeID {
			count++
		}
	}
	return count, nil
}

// Connection type methods.

// SaveConnectionType inserts or updates a connection type by name.
func (m *Store) SaveConnectionType(_ context.Context, ct *entities.ConnectionType) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *ct
	m.ConnTypes[ct.Name] = &copied
	return nil
}

// FindConnectionType finds a connection type by name.
func (m *Store) FindConnectionType(_ context.Context, name string) (*entities.ConnectionType, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ConnTypes[name], nil
}

// ListConnectionTypes lists all connection types ordered by name.
func (m *Store) ListConnectionTypes(_ context.Context) ([]entities.ConnectionType, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]entities.ConnectionType, 0, len(m.ConnTypes))
	for _, t := range m.ConnTypes {
		result = append(result, *t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// DeleteConnectionType deletes a connection type by name.
func (m *Store) DeleteConnectionType(_ context.Context, name string) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ConnTypes[name]; !ok {
		return entities.ErrNotFound
	}
	delete(m.ConnTypes, name)
	return nil
}

// Span type methods.

// SaveSpanType inserts or updates a span type by name.
func (m *Store) SaveSpanType(_ context.Context, st *entities.SpanType) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *st
	m.SpanTypes[st.Name] = &copied
	return nil
}

// FindSpanType finds a span type by name.
func (m *Store) FindSpanType(_ context.Context, name string) (*entities.SpanType, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.SpanTypes[name], nil
}

// ListSpanTypes lists all span types ordered by name.
func (m *Store) ListSpanTypes(_ context.Context) ([]entities.SpanType, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]entities.SpanType, 0, len(m.SpanTypes))
	for _, t := range m.SpanTypes {
		result = append(result, *t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// DeleteSpanType deletes a span type by name.
func (m *Store) DeleteSpanType(_ context.Context, name string) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.SpanTypes[name]; !ok {
		return entities.ErrNotFound
	}
	delete(m.SpanTypes, name)
	return nil
}

// Version methods.

// InsertVersion appends a version row, enforcing number uniqueness the way
// the sqlite UNIQUE(span_id, version) constraint does.
func (m *Store) InsertVersion(_ context.Context, v *entities.SpanVersion) error {
	if m.Err != nil {
		return m.Err
	}
	if m.VersionErr != nil {
		return m.VersionErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.Versions[v.SpanID] {
		if existing.Version == v.Version {
			return entities.ErrVersionConflict
		}
	}
	m.Versions[v.SpanID] = append(m.Versions[v.SpanID], *v)
	sort.Slice(m.Versions[v.SpanID], func(i, j int) bool {
		return m.Versions[v.SpanID][i].Version < m.Versions[v.SpanID][j].Version
	})
	return nil
}

// FindVersionsBySpan returns all versions of a span, oldest first.
func (m *Store) FindVersionsBySpan(_ context.Context, spanID string) ([]entities.SpanVersion, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]entities.SpanVersion(nil), m.Versions[spanID]...), nil
}

// FindVersion finds one version of a span.
func (m *Store) FindVersion(_ context.Context, spanID string, version int) (*entities.SpanVersion, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Versions[spanID] {
		if m.Versions[spanID][i].Version == version {
			v := m.Versions[spanID][i]
			return &v, nil
		}
	}
	return nil, nil
}

// FindLatestVersion finds the most recent version of a span.
func (m *Store) FindLatestVersion(_ context.Context, spanID string) (*entities.SpanVersion, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	versions := m.Versions[spanID]
	if len(versions) == 0 {
		return nil, nil
	}
	v := versions[len(versions)-1]
	return &v, nil
}

// CountVersions counts how many versions a span has.
func (m *Store) CountVersions(_ context.Context, spanID string) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Versions[spanID]), nil
}

// Permission methods.

// GrantAccess records a shared-access grant.
func (m *Store) GrantAccess(_ context.Context, spanID, userID string) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Grants[spanID] == nil {
		m.Grants[spanID] = make(map[string]bool)
	}
	m.Grants[spanID][userID] = true
	return nil
}

// RevokeAccess removes a shared-access grant.
func (m *Store) RevokeAccess(_ context.Context, spanID, userID string) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Grants[spanID], userID)
	return nil
}

// HasGrant reports whether the user holds a grant on the span.
func (m *Store) HasGrant(_ context.Context, spanID, userID string) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Grants[spanID][userID], nil
}

// User methods.

// SaveUser inserts or updates a user by ID.
func (m *Store) SaveUser(_ context.Context, user *entities.User) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *user
	m.Users[user.ID] = &copied
	return nil
}

// FindUserByID finds a user by ID.
func (m *Store) FindUserByID(_ context.Context, id string) (*entities.User, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Users[id], nil
}

// FindUserByEmail finds a user by email.
func (m *Store) FindUserByEmail(_ context.Context, email string) (*entities.User, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.Users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

// ListUsers lists all users ordered by email.
func (m *Store) ListUsers(_ context.Context) ([]entities.User, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]entities.User, 0, len(m.Users))
	for _, u := range m.Users {
		result = append(result, *u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Email < result[j].Email })
	return result, nil
}

// DeleteUser deletes a user row by ID.
func (m *Store) DeleteUser(_ context.Context, id string) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Users[id]; !ok {
		return entities.ErrNotFound
	}
	delete(m.Users, id)
	return nil
}

// Audit methods.

// LogAction logs an action to the audit log.
func (m *Store) LogAction(_ context.Context, action, spanID, actorID string, details map[string]any) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Audit = append(m.Audit, entities.AuditEntry{
		ID:      int64(len(m.Audit) + 1),
		Action:  action,
		SpanID:  spanID,
		ActorID: actorID,
		Details: details,
	})
	return nil
}

// FindAuditLog finds audit log entries for a span, newest first.
func (m *Store) FindAuditLog(_ context.Context, spanID string) ([]entities.AuditEntry, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]entities.AuditEntry, 0, 8)
	for i := len(m.Audit) - 1; i >= 0; i-- {
		if m.Audit[i].SpanID == spanID {
			result = append(result, m.Audit[i])
		}
	}
	return result, nil
}
