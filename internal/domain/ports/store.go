// Package ports defines the interfaces between the domain and infrastructure.
package ports

import (
	"context"

	"github.com/spanlab/span-core/internal/domain/entities"
)

// Store defines the persistence interface for spans, connections, types,
// versions, permissions and users. Implementations must make version
// insertion atomic (no two writers may claim the same version number for
// one span) and cascade deletes transactional.
type Store interface {
	// EnsureSchema creates the database schema if it doesn't exist.
	EnsureSchema(ctx context.Context) error

	// Close closes the database connection.
	Close() error

	// Span operations

	// SaveSpan inserts or updates a span by ID.
	SaveSpan(ctx context.Context, span *entities.Span) error

	// FindSpanByID finds a span by ID. Returns nil if not found.
	FindSpanByID(ctx context.Context, id string) (*entities.Span, error)

	// FindSpanBySlug finds a span by its slug. Returns nil if not found.
	FindSpanBySlug(ctx context.Context, slug string) (*entities.Span, error)

	// SlugExists reports whether any span already uses the slug.
	SlugExists(ctx context.Context, slug string) (bool, error)

	// ListSpans lists spans, optionally filtered by type, with pagination.
	ListSpans(ctx context.Context, spanType string, limit, offset int) ([]*entities.Span, error)

	// SearchSpans searches spans by name pattern (case-insensitive).
	SearchSpans(ctx context.Context, query string, limit int) ([]*entities.Span, error)

	// DeleteSpanCascade deletes a span together with its versions, its
	// permission grants, and every connection touching it (including each
	// such connection's narrating span and that span's versions), in a
	// single transaction.
	DeleteSpanCascade(ctx context.Context, id string) error

	// CountSpans returns the total number of spans.
	CountSpans(ctx context.Context) (int, error)

	// Connection operations

	// SaveConnection inserts or updates a connection by ID.
	SaveConnection(ctx context.Context, conn *entities.Connection) error

	// FindConnectionByID finds a connection by ID. Returns nil if not found.
	FindConnectionByID(ctx context.Context, id string) (*entities.Connection, error)

	// FindConnectionBySpan finds the connection narrated by the given
	// connection-span. Returns nil if not found.
	FindConnectionBySpan(ctx context.Context, connectionSpanID string) (*entities.Connection, error)

	// FindConnectionBetween finds a connection with the given endpoints and
	// type. Returns nil if none exists.
	FindConnectionBetween(ctx context.Context, parentID, childID, typeID string) (*entities.Connection, error)

	// ListConnectionsBySubject lists connections whose parent is the span.
	ListConnectionsBySubject(ctx context.Context, spanID string) ([]entities.Connection, error)

	// ListConnectionsByObject lists connections whose child is the span.
	ListConnectionsByObject(ctx context.Context, spanID string) ([]entities.Connection, error)

	// ListConnectionsForSpan lists connections where the span is parent or child.
	ListConnectionsForSpan(ctx context.Context, spanID string) ([]entities.Connection, error)

	// DeleteConnection deletes a connection by ID, leaving its
	// connection-span to the caller.
	DeleteConnection(ctx context.Context, id string) error

	// CountConnectionsByType counts connections referencing a type.
	CountConnectionsByType(ctx context.Context, typeID string) (int, error)

	// Connection type operations

	// SaveConnectionType inserts or updates a connection type by name.
	SaveConnectionType(ctx context.Context, ct *entities.ConnectionType) error

	// FindConnectionType finds a connection type by name. Returns nil if not found.
	FindConnectionType(ctx context.Context, name string) (*entities.ConnectionType, error)

	// ListConnectionTypes lists all connection types ordered by name.
	ListConnectionTypes(ctx context.Context) ([]entities.ConnectionType, error)

	// DeleteConnectionType deletes a connection type by name.
	DeleteConnectionType(ctx context.Context, name string) error

	// Span type operations

	// SaveSpanType inserts or updates a span type by name.
	SaveSpanType(ctx context.Context, st *entities.SpanType) error

	// FindSpanType finds a span type by name. Returns nil if not found.
	FindSpanType(ctx context.Context, name string) (*entities.SpanType, error)

	// ListSpanTypes lists all span types ordered by name.
	ListSpanTypes(ctx context.Context) ([]entities.SpanType, error)

	// DeleteSpanType deletes a span type by name.
	DeleteSpanType(ctx context.Context, name string) error

	// Version operations

	// InsertVersion appends a version row. Returns ErrVersionConflict if the
	// (span, version) pair is already claimed.
	InsertVersion(ctx context.Context, v *entities.SpanVersion) error

	// FindVersionsBySpan returns all versions of a span, oldest first.
	FindVersionsBySpan(ctx context.Context, spanID string) ([]entities.SpanVersion, error)

	// FindVersion finds one version of a span. Returns nil if not found.
	FindVersion(ctx context.Context, spanID string, version int) (*entities.SpanVersion, error)

	// FindLatestVersion finds the most recent version of a span. Returns
	// nil if the span has no versions.
	FindLatestVersion(ctx context.Context, spanID string) (*entities.SpanVersion, error)

	// CountVersions counts how many versions a span has.
	CountVersions(ctx context.Context, spanID string) (int, error)

	// Permission operations

	// GrantAccess records a shared-access grant. Granting twice is a no-op.
	GrantAccess(ctx context.Context, spanID, userID string) error

	// RevokeAccess removes a shared-access grant.
	RevokeAccess(ctx context.Context, spanID, userID string) error

	// HasGrant reports whether the user holds a grant on the span.
	HasGrant(ctx context.Context, spanID, userID string) (bool, error)

	// User operations

	// SaveUser inserts or updates a user by ID.
	SaveUser(ctx context.Context, user *entities.User) error

	// FindUserByID finds a user by ID. Returns nil if not found.
	FindUserByID(ctx context.Context, id string) (*entities.User, error)

	// FindUserByEmail finds a user by email. Returns nil if not found.
	FindUserByEmail(ctx context.Context, email string) (*entities.User, error)

	// ListUsers lists all users ordered by email.
	ListUsers(ctx context.Context) ([]entities.User, error)

	// DeleteUser deletes a user row by ID.
	DeleteUser(ctx context.Context, id string) error

	// Audit operations

	// LogAction logs an action to the audit log.
	LogAction(ctx context.Context, action, spanID, actorID string, details map[string]any) error

	// FindAuditLog finds audit log entries for a span, newest first.
	FindAuditLog(ctx context.Context, spanID string) ([]entities.AuditEntry, error)
}
