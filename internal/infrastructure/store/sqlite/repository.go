// Package sqlite provides a SQLite implementation of the Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/spanlab/span-core/internal/domain/entities"
	"github.com/spanlab/span-core/internal/infrastructure/config"
)

// Repository implements ports.Store using SQLite.
type Repository struct {
	db   *sql.DB
	path string
}

// NewRepository creates a new SQLite repository.
func NewRepository(cfg config.SQLiteConfig) (*Repository, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// Enable foreign keys for referential integrity
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	// Enable WAL mode for better concurrent read/write performance
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Set busy timeout to avoid "database is locked" errors
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return &Repository{
		db:   db,
		path: cfg.Path,
	}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Path returns the database file path.
func (r *Repository) Path() string {
	return r.path
}

// EnsureSchema creates the database schema if it doesn't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	-- Spans (people, places, events, things, and connection narrations)
	CREATE TABLE IF NOT EXISTS spans (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		type TEXT NOT NULL,
		owner_id TEXT NOT NULL,
		updater_id TEXT NOT NULL,
		access_level TEXT NOT NULL,
		start_year INTEGER NOT NULL DEFAULT 0,
		start_month INTEGER NOT NULL DEFAULT 0,
		start_day INTEGER NOT NULL DEFAULT 0,
		end_year INTEGER NOT NULL DEFAULT 0,
		end_month INTEGER NOT NULL DEFAULT 0,
		end_day INTEGER NOT NULL DEFAULT 0,
		description TEXT,
		notes TEXT,
		metadata TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_spans_type ON spans(type);
	CREATE INDEX IF NOT EXISTS idx_spans_owner ON spans(owner_id);

	-- Connections (directed, typed edges between two spans)
	CREATE TABLE IF NOT EXISTS connections (
		id TEXT PRIMARY KEY,
		parent_id TEXT NOT NULL,
		child_id TEXT NOT NULL,
		type_id TEXT NOT NULL,
		connection_span_id TEXT NOT NULL UNIQUE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_connections_parent ON connections(parent_id);
	CREATE INDEX IF NOT EXISTS idx_connections_child ON connections(child_id);
	CREATE INDEX IF NOT EXISTS idx_connections_type ON connections(type_id);

	-- Connection types (named relationship categories)
	CREATE TABLE IF NOT EXISTS connection_types (
		name TEXT PRIMARY KEY,
		forward_predicate TEXT NOT NULL,
		forward_description TEXT,
		inverse_predicate TEXT NOT NULL,
		inverse_description TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- Span types (user-extensible taxonomy)
	CREATE TABLE IF NOT EXISTS span_types (
		name TEXT PRIMARY KEY,
		description TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- Span version history (tracks changes over time)
	CREATE TABLE IF NOT EXISTS span_versions (
		id TEXT PRIMARY KEY,
		span_id TEXT NOT NULL,
		version INTEGER NOT NULL,
		changed_by TEXT NOT NULL,
		change_summary TEXT NOT NULL,
		data TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(span_id, version)
	);
	CREATE INDEX IF NOT EXISTS idx_span_versions_span ON span_versions(span_id);

	-- Shared-access grants
	CREATE TABLE IF NOT EXISTS span_permissions (
		span_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (span_id, user_id)
	);

	-- Users
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		is_admin INTEGER NOT NULL DEFAULT 0,
		personal_span_id TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- Audit log (tracks all actions)
	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		action TEXT NOT NULL,
		span_id TEXT,
		actor_id TEXT,
		details TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_audit_log_span ON audit_log(span_id);
	CREATE INDEX IF NOT EXISTS idx_audit_log_action ON audit_log(action);
	`

	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

const spanColumns = `id, name, slug, type, owner_id, updater_id, access_level,
		start_year, start_month, start_day, end_year, end_month, end_day,
		description, notes, metadata, created_at, updated_at`

// SaveSpan saves or updates a span.
func (r *Repository) SaveSpan(ctx context.Context, span *entities.Span) error {
	var metadata sql.NullString
	if span.Metadata != nil {
		data, err := json.Marshal(span.Metadata)
		if err != nil {
			return fmt.Errorf("marshaling span metadata: %w", err)
		}
		metadata = sql.NullString{String: string(data), Valid: true}
	}

	query := `
		INSERT INTO spans (` + spanColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			updater_id = excluded.updater_id,
			access_level = excluded.access_level,
			start_year = excluded.start_year,
			start_month = excluded.start_month,
			start_day = excluded.start_day,
			end_year = excluded.end_year,
			end_month = excluded.end_month,
			end_day = excluded.end_day,
			description = excluded.description,
			notes = excluded.notes,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		span.ID,
		span.Name,
		span.Slug,
		span.Type,
		span.OwnerID,
		span.UpdaterID,
		string(span.AccessLevel),
		span.Start.Year, span.Start.Month, span.Start.Day,
		span.End.Year, span.End.Month, span.End.Day,
		span.Description,
		span.Notes,
		metadata,
		span.CreatedAt,
		span.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving span: %w", err)
	}
	return nil
}

// FindSpanByID finds a span by its ID.
func (r *Repository) FindSpanByID(ctx context.Context, id string) (*entities.Span, error) {
	return r.findSpan(ctx, `SELECT `+spanColumns+` FROM spans WHERE id = ?`, id)
}

// FindSpanBySlug finds a span by its slug.
func (r *Repository) FindSpanBySlug(ctx context.Context, slug string) (*entities.Span, error) {
	return r.findSpan(ctx, `SELECT `+spanColumns+` FROM spans WHERE slug = ?`, slug)
}

// SlugExists reports whether any span already uses the slug.
func (r *Repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM spans WHERE slug = ?`, slug).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking slug: %w", err)
	}
	return count > 0, nil
}

// ListSpans lists spans with pagination, optionally filtered by type.
func (r *Repository) ListSpans(ctx context.Context, spanType string, limit, offset int) ([]*entities.Span, error) {
	query := `SELECT ` + spanColumns + ` FROM spans`
	args := []any{}
	if spanType != "" {
		query += ` WHERE type = ?`
		args = append(args, spanType)
	}
	query += ` ORDER BY name ASC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)
	return r.querySpans(ctx, query, args...)
}

// SearchSpans searches spans by name pattern (case-insensitive).
func (r *Repository) SearchSpans(ctx context.Context, query string, limit int) ([]*entities.Span, error) {
	pattern := "%" + entities.NormalizeName(query) + "%"
	sqlQuery := `
		SELECT ` + spanColumns + `
		FROM spans
		WHERE LOWER(name) LIKE ?
		ORDER BY name ASC
		LIMIT ?
	`
	return r.querySpans(ctx, sqlQuery, pattern, limit)
}

// DeleteSpanCascade deletes a span together with its versions, grants, and
// every connection touching it, including each such connection's narrating
// span. Runs in a single transaction.
func (r *Repository) DeleteSpanCascade(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, connection_span_id
		FROM connections
		WHERE parent_id = ? OR child_id = ? OR connection_span_id = ?
	`, id, id, id)
	if err != nil {
		return fmt.Errorf("querying touching connections: %w", err)
	}

	spanIDs := []string{id}
	connectionIDs := []string{}
	for rows.Next() {
		var connID, connSpanID string
		if err := rows.Scan(&connID, &connSpanID); err != nil {
			rows.Close()
			return fmt.Errorf("scanning connection: %w", err)
		}
		connectionIDs = append(connectionIDs, connID)
		if connSpanID != id {
			spanIDs = append(spanIDs, connSpanID)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating connections: %w", err)
	}

	for _, connID := range connectionIDs {
		if _, err := tx.ExecContext(ctx, `DELETE FROM connections WHERE id = ?`, connID); err != nil {
			return fmt.Errorf("deleting connection: %w", err)
		}
	}
	for _, spanID := range spanIDs {
		if _, err := tx.ExecContext(ctx, `DELETE FROM span_versions WHERE span_id = ?`, spanID); err != nil {
			return fmt.Errorf("deleting span versions: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM span_permissions WHERE span_id = ?`, spanID); err != nil {
			return fmt.Errorf("deleting span permissions: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM spans WHERE id = ?`, spanID); err != nil {
			return fmt.Errorf("deleting span: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing cascade delete: %w", err)
	}
	return nil
}

// CountSpans returns the total number of spans.
func (r *Repository) CountSpans(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM spans`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting spans: %w", err)
	}
	return count, nil
}

// findSpan executes a single-span query.
func (r *Repository) findSpan(ctx context.Context, query string, args ...any) (*entities.Span, error) {
	spans, err := r.querySpans(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(spans) == 0 {
		return nil, nil
	}
	return spans[0], nil
}

// querySpans is a helper to execute span queries.
func (r *Repository) querySpans(ctx context.Context, query string, args ...any) ([]*entities.Span, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying spans: %w", err)
	}
	defer rows.Close()

	result := make([]*entities.Span, 0, 16)
	for rows.Next() {
		var span entities.Span
		var accessLevel string
		var description, notes, metadata sql.NullString

		if err := rows.Scan(
			&span.ID,
			&span.Name,
			&span.Slug,
			&span.Type,
			&span.OwnerID,
			&span.UpdaterID,
			&accessLevel,
			&span.Start.Year, &span.Start.Month, &span.Start.Day,
			&span.End.Year, &span.End.Month, &span.End.Day,
			&description,
			&notes,
			&metadata,
			&span.CreatedAt,
			&span.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning span: %w", err)
		}

		span.AccessLevel = entities.AccessLevel(accessLevel)
		span.Description = description.String
		span.Notes = notes.String
		if metadata.Valid && metadata.String != "" {
			var md entities.Metadata
			if err := json.Unmarshal([]byte(metadata.String), &md); err != nil {
				return nil, fmt.Errorf("unmarshaling span metadata: %w", err)
			}
			span.Metadata = &md
		}
		result = append(result, &span)
	}
	return result, rows.Err()
}

// SaveConnection saves or updates a connection.
func (r *Repository) SaveConnection(ctx context.Context, conn *entities.Connection) error {
	query := `
		INSERT INTO connections (id, parent_id, child_id, type_id, connection_span_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			parent_id = excluded.parent_id,
			child_id = excluded.child_id,
			type_id = excluded.type_id,
			connection_span_id = excluded.connection_span_id
	`
	_, err := r.db.ExecContext(ctx, query,
		conn.ID,
		conn.ParentID,
		conn.ChildID,
		conn.TypeID,
		conn.ConnectionSpanID,
		conn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving connection: %w", err)
	}
	return nil
}

const connectionColumns = `id, parent_id, child_id, type_id, connection_span_id, created_at`

// FindConnectionByID finds a connection by its ID.
func (r *Repository) FindConnectionByID(ctx context.Context, id string) (*entities.Connection, error) {
	return r.findConnection(ctx, `SELECT `+connectionColumns+` FROM connections WHERE id = ?`, id)
}

// FindConnectionBySpan finds the connection narrated by the given connection-span.
func (r *Repository) FindConnectionBySpan(ctx context.Context, connectionSpanID string) (*entities.Connection, error) {
	return r.findConnection(ctx, `SELECT `+connectionColumns+` FROM connections WHERE connection_span_id = ?`, connectionSpanID)
}

// FindConnectionBetween finds a connection with the given endpoints and type.
func (r *Repository) FindConnectionBetween(ctx context.Context, parentID, childID, typeID string) (*entities.Connection, error) {
	query := `
		SELECT ` + connectionColumns + `
		FROM connections
		WHERE parent_id = ? AND child_id = ? AND type_id = ?
		LIMIT 1
	`
	return r.findConnection(ctx, query, parentID, childID, typeID)
}

// ListConnectionsBySubject lists connections whose parent is the span.
func (r *Repository) ListConnectionsBySubject(ctx context.Context, spanID string) ([]entities.Connection, error) {
	query := `
		SELECT ` + connectionColumns + `
		FROM connections
		WHERE parent_id = ?
		ORDER BY created_at DESC
	`
	return r.queryConnections(ctx, query, spanID)
}

// ListConnectionsByObject lists connections whose child is the span.
func (r *Repository) ListConnectionsByObject(ctx context.Context, spanID string) ([]entities.Connection, error) {
	query := `
		SELECT ` + connectionColumns + `
		FROM connections
		WHERE child_id = ?
		ORDER BY created_at DESC
	`
	return r.queryConnections(ctx, query, spanID)
}

// ListConnectionsForSpan lists connections where the span is parent or child.
func (r *Repository) ListConnectionsForSpan(ctx context.Context, spanID string) ([]entities.Connection, error) {
	query := `
		SELECT ` + connectionColumns + `
		FROM connections
		WHERE parent_id = ? OR child_id = ?
		ORDER BY created_at DESC
	`
	return r.queryConnections(ctx, query, spanID, spanID)
}

// DeleteConnection deletes a connection by ID.
func (r *Repository) DeleteConnection(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM connections WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting connection: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("connection not found: %s", id)
	}
	return nil
}

// CountConnectionsByType counts connections referencing a type.
func (r *Repository) CountConnectionsByType(ctx context.Context, typeID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM connections WHERE type_id = ?`, typeID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting connections: %w", err)
	}
	return count, nil
}

// findConnection executes a single-connection query.
func (r *Repository) findConnection(ctx context.Context, query string, args ...any) (*entities.Connection, error) {
	row := r.db.QueryRowContext(ctx, query, args...)

	var conn entities.Connection
	err := row.Scan(
		&conn.ID,
		&conn.ParentID,
		&conn.ChildID,
		&conn.TypeID,
		&conn.ConnectionSpanID,
		&conn.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning connection: %w", err)
	}
	return &conn, nil
}

// queryConnections is a helper to execute connection queries.
func (r *Repository) queryConnections(ctx context.Context, query string, args ...any) ([]entities.Connection, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying connections: %w", err)
	}
	defer rows.Close()

	connections := make([]entities.Connection, 0, 16)
	for rows.Next() {
		var conn entities.Connection
		if err := rows.Scan(
			&conn.ID,
			&conn.ParentID,
			&conn.ChildID,
			&conn.TypeID,
			&conn.ConnectionSpanID,
			&conn.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning connection: %w", err)
		}
		connections = append(connections, conn)
	}
	return connections, rows.Err()
}

// SaveConnectionType saves or updates a connection type.
func (r *Repository) SaveConnectionType(ctx context.Context, ct *entities.ConnectionType) error {
	query := `
		INSERT INTO connection_types (name, forward_predicate, forward_description, inverse_predicate, inverse_description, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			forward_predicate = excluded.forward_predicate,
			forward_description = excluded.forward_description,
			inverse_predicate = excluded.inverse_predicate,
			inverse_description = excluded.inverse_description
	`
	_, err := r.db.ExecContext(ctx, query,
		ct.Name,
		ct.ForwardPredicate,
		ct.ForwardDescription,
		ct.InversePredicate,
		ct.InverseDescription,
		ct.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving connection type: %w", err)
	}
	return nil
}

// FindConnectionType finds a connection type by name.
func (r *Repository) FindConnectionType(ctx context.Context, name string) (*entities.ConnectionType, error) {
	query := `
		SELECT name, forward_predicate, forward_description, inverse_predicate, inverse_description, created_at
		FROM connection_types
		WHERE name = ?
	`
	row := r.db.QueryRowContext(ctx, query, name)

	ct, err := scanConnectionType(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning connection type: %w", err)
	}
	return ct, nil
}

// ListConnectionTypes lists all connection types ordered by name.
func (r *Repository) ListConnectionTypes(ctx context.Context) ([]entities.ConnectionType, error) {
	query := `
		SELECT name, forward_predicate, forward_description, inverse_predicate, inverse_description, created_at
		FROM connection_types
		ORDER BY name ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying connection types: %w", err)
	}
	defer rows.Close()

	types := make([]entities.ConnectionType, 0, 16)
	for rows.Next() {
		ct, err := scanConnectionType(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning connection type: %w", err)
		}
		types = append(types, *ct)
	}
	return types, rows.Err()
}

// DeleteConnectionType deletes a connection type by name.
func (r *Repository) DeleteConnectionType(ctx context.Context, name string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM connection_types WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deleting connection type: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("connection type not found: %s", name)
	}
	return nil
}

// scanner abstracts sql.Row and sql.Rows for shared scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanConnectionType(s scanner) (*entities.ConnectionType, error) {
	var ct entities.ConnectionType
	var forwardDesc, inverseDesc sql.NullString

	err := s.Scan(
		&ct.Name,
		&ct.ForwardPredicate,
		&forwardDesc,
		&ct.InversePredicate,
		&inverseDesc,
		&ct.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	ct.ForwardDescription = forwardDesc.String
	ct.InverseDescription = inverseDesc.String
	return &ct, nil
}

// SaveSpanType saves or updates a span type.
func (r *Repository) SaveSpanType(ctx context.Context, st *entities.SpanType) error {
	query := `
		INSERT INTO span_types (name, description, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			description = excluded.description
	`
	_, err := r.db.ExecContext(ctx, query, st.Name, st.Description, st.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving span type: %w", err)
	}
	return nil
}

// FindSpanType finds a span type by name.
func (r *Repository) FindSpanType(ctx context.Context, name string) (*entities.SpanType, error) {
	query := `
		SELECT name, description, created_at
		FROM span_types
		WHERE name = ?
	`
	row := r.db.QueryRowContext(ctx, query, name)

	var st entities.SpanType
	var description sql.NullString

	err := row.Scan(&st.Name, &description, &st.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning span type: %w", err)
	}

	st.Description = description.String
	return &st, nil
}

// ListSpanTypes lists all span types ordered by name.
func (r *Repository) ListSpanTypes(ctx context.Context) ([]entities.SpanType, error) {
	query := `
		SELECT name, description, created_at
		FROM span_types
		ORDER BY name ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying span types: %w", err)
	}
	defer rows.Close()

	types := make([]entities.SpanType, 0, 16)
	for rows.Next() {
		var st entities.SpanType
		var description sql.NullString

		if err := rows.Scan(&st.Name, &description, &st.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning span type: %w", err)
		}
		st.Description = description.String
		types = append(types, st)
	}
	return types, rows.Err()
}

// DeleteSpanType deletes a span type by name.
func (r *Repository) DeleteSpanType(ctx context.Context, name string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM span_types WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deleting span type: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("span type not found: %s", name)
	}
	return nil
}

// InsertVersion appends a version row. The UNIQUE(span_id, version) table
// constraint arbitrates concurrent writers; a losing insert surfaces as
// entities.ErrVersionConflict.
func (r *Repository) InsertVersion(ctx context.Context, v *entities.SpanVersion) error {
	data, err := json.Marshal(v.Data)
	if err != nil {
		return fmt.Errorf("marshaling version data: %w", err)
	}

	query := `
		INSERT INTO span_versions (id, span_id, version, changed_by, change_summary, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		v.ID,
		v.SpanID,
		v.Version,
		v.ChangedBy,
		v.ChangeSummary,
		string(data),
		v.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("inserting version %d for span %s: %w", v.Version, v.SpanID, entities.ErrVersionConflict)
		}
		return fmt.Errorf("inserting span version: %w", err)
	}
	return nil
}

const versionColumns = `id, span_id, version, changed_by, change_summary, data, created_at`

// FindVersionsBySpan finds all versions of a span, oldest first.
func (r *Repository) FindVersionsBySpan(ctx context.Context, spanID string) ([]entities.SpanVersion, error) {
	query := `
		SELECT ` + versionColumns + `
		FROM span_versions
		WHERE span_id = ?
		ORDER BY version ASC
	`
	rows, err := r.db.QueryContext(ctx, query, spanID)
	if err != nil {
		return nil, fmt.Errorf("querying span versions: %w", err)
	}
	defer rows.Close()

	versions := make([]entities.SpanVersion, 0, 16)
	for rows.Next() {
		v, err := scanSpanVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, *v)
	}
	return versions, rows.Err()
}

// FindVersion finds one version of a span.
func (r *Repository) FindVersion(ctx context.Context, spanID string, version int) (*entities.SpanVersion, error) {
	query := `
		SELECT ` + versionColumns + `
		FROM span_versions
		WHERE span_id = ? AND version = ?
	`
	row := r.db.QueryRowContext(ctx, query, spanID, version)

	v, err := scanSpanVersion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// FindLatestVersion finds the most recent version of a span.
func (r *Repository) FindLatestVersion(ctx context.Context, spanID string) (*entities.SpanVersion, error) {
	query := `
		SELECT ` + versionColumns + `
		FROM span_versions
		WHERE span_id = ?
		ORDER BY version DESC
		LIMIT 1
	`
	row := r.db.QueryRowContext(ctx, query, spanID)

	v, err := scanSpanVersion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// CountVersions counts how many versions a span has.
func (r *Repository) CountVersions(ctx context.Context, spanID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM span_versions WHERE span_id = ?`, spanID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting versions: %w", err)
	}
	return count, nil
}

func scanSpanVersion(s scanner) (*entities.SpanVersion, error) {
	var v entities.SpanVersion
	var data string

	err := s.Scan(
		&v.ID,
		&v.SpanID,
		&v.Version,
		&v.ChangedBy,
		&v.ChangeSummary,
		&data,
		&v.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning span version: %w", err)
	}

	if err := json.Unmarshal([]byte(data), &v.Data); err != nil {
		return nil, fmt.Errorf("unmarshaling version data: %w", err)
	}
	return &v, nil
}

// GrantAccess records a shared-access grant. Granting twice is a no-op.
func (r *Repository) GrantAccess(ctx context.Context, spanID, userID string) error {
	query := `INSERT OR IGNORE INTO span_permissions (span_id, user_id) VALUES (?, ?)`
	_, err := r.db.ExecContext(ctx, query, spanID, userID)
	if err != nil {
		return fmt.Errorf("granting access: %w", err)
	}
	return nil
}

// RevokeAccess removes a shared-access grant.
func (r *Repository) RevokeAccess(ctx context.Context, spanID, userID string) error {
	query := `DELETE FROM span_permissions WHERE span_id = ? AND user_id = ?`
	_, err := r.db.ExecContext(ctx, query, spanID, userID)
	if err != nil {
		return fmt.Errorf("revoking access: %w", err)
	}
	return nil
}

// HasGrant reports whether the user holds a grant on the span.
func (r *Repository) HasGrant(ctx context.Context, spanID, userID string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM span_permissions WHERE span_id = ? AND user_id = ?`
	err := r.db.QueryRowContext(ctx, query, spanID, userID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking grant: %w", err)
	}
	return count > 0, nil
}

// SaveUser saves or updates a user.
func (r *Repository) SaveUser(ctx context.Context, user *entities.User) error {
	var personalSpanID sql.NullString
	if user.PersonalSpanID != "" {
		personalSpanID = sql.NullString{String: user.PersonalSpanID, Valid: true}
	}

	query := `
		INSERT INTO users (id, email, is_admin, personal_span_id, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			is_admin = excluded.is_admin,
			personal_span_id = excluded.personal_span_id
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.IsAdmin,
		personalSpanID,
		user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving user: %w", err)
	}
	return nil
}

// FindUserByID finds a user by ID.
func (r *Repository) FindUserByID(ctx context.Context, id string) (*entities.User, error) {
	return r.findUser(ctx, `SELECT id, email, is_admin, personal_span_id, created_at FROM users WHERE id = ?`, id)
}

// FindUserByEmail finds a user by email.
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.findUser(ctx, `SELECT id, email, is_admin, personal_span_id, created_at FROM users WHERE email = ?`, email)
}

// ListUsers lists all users ordered by email.
func (r *Repository) ListUsers(ctx context.Context) ([]entities.User, error) {
	query := `
		SELECT id, email, is_admin, personal_span_id, created_at
		FROM users
		ORDER BY email ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	users := make([]entities.User, 0, 16)
	for rows.Next() {
		var user entities.User
		var personalSpanID sql.NullString

		if err := rows.Scan(&user.ID, &user.Email, &user.IsAdmin, &personalSpanID, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		user.PersonalSpanID = personalSpanID.String
		users = append(users, user)
	}
	return users, rows.Err()
}

// DeleteUser deletes a user row by ID.
func (r *Repository) DeleteUser(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("user not found: %s", id)
	}
	return nil
}

func (r *Repository) findUser(ctx context.Context, query string, args ...any) (*entities.User, error) {
	row := r.db.QueryRowContext(ctx, query, args...)

	var user entities.User
	var personalSpanID sql.NullString

	err := row.Scan(&user.ID, &user.Email, &user.IsAdmin, &personalSpanID, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}

	user.PersonalSpanID = personalSpanID.String
	return &user, nil
}

// LogAction logs an action to the audit log.
func (r *Repository) LogAction(ctx context.Context, action, spanID, actorID string, details map[string]any) error {
	var detailsJSON sql.NullString
	if details != nil {
		data, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("marshaling details: %w", err)
		}
		detailsJSON = sql.NullString{String: string(data), Valid: true}
	}

	var spanIDPtr, actorIDPtr sql.NullString
	if spanID != "" {
		spanIDPtr = sql.NullString{String: spanID, Valid: true}
	}
	if actorID != "" {
		actorIDPtr = sql.NullString{String: actorID, Valid: true}
	}

	query := `INSERT INTO audit_log (action, span_id, actor_id, details) VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, action, spanIDPtr, actorIDPtr, detailsJSON)
	if err != nil {
		return fmt.Errorf("logging action: %w", err)
	}
	return nil
}

// FindAuditLog finds audit log entries for a specific span, newest first.
func (r *Repository) FindAuditLog(ctx context.Context, spanID string) ([]entities.AuditEntry, error) {
	query := `
		SELECT id, action, span_id, actor_id, details, created_at
		FROM audit_log
		WHERE span_id = ?
		ORDER BY id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, spanID)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	var entries []entities.AuditEntry
	for rows.Next() {
		var entry entities.AuditEntry
		var entrySpanID, actorID, details sql.NullString

		if err := rows.Scan(
			&entry.ID,
			&entry.Action,
			&entrySpanID,
			&actorID,
			&details,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}

		entry.SpanID = entrySpanID.String
		entry.ActorID = actorID.String
		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &entry.Details); err != nil {
				return nil, fmt.Errorf("unmarshaling details: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
