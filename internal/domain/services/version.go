package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spanlab/span-core/internal/domain/entities"
	"github.com/spanlab/span-core/internal/domain/ports"
)

// versionConflictRetries is how many times a racing version insert is
// retried before ErrVersionConflict surfaces to the caller.
const versionConflictRetries = 3

// fieldKind selects the change-summary wording for a versioned field.
type fieldKind int

const (
	scalarField   fieldKind = iota // "<Field> changed"
	longTextField                  // "<Field> updated"
)

// versionedField describes one field tracked in version snapshots.
type versionedField struct {
	label string
	kind  fieldKind
	value func(*entities.Span) string
}

// versionedFields is the per-field summary configuration, in the order
// clauses appear in a change summary.
var versionedFields = []versionedField{
	{"Name", scalarField, func(s *entities.Span) string { return s.Name }},
	{"Slug", scalarField, func(s *entities.Span) string { return s.Slug }},
	{"Type", scalarField, func(s *entities.Span) string { return s.Type }},
	{"Access level", scalarField, func(s *entities.Span) string { return string(s.AccessLevel) }},
	{"Start date", scalarField, func(s *entities.Span) string { return s.Start.String() }},
	{"End date", scalarField, func(s *entities.Span) string { return s.End.String() }},
	{"Description", longTextField, func(s *entities.Span) string { return s.Description }},
	{"Notes", longTextField, func(s *entities.Span) string { return s.Notes }},
	{"Metadata", scalarField, metadataValue},
}

func metadataValue(s *entities.Span) string {
	if s.Metadata == nil {
		return ""
	}
	data, err := json.Marshal(s.Metadata)
	if err != nil {
		return fmt.Sprintf("%+v", s.Metadata)
	}
	return string(data)
}

// VersionRecorder appends immutable, sequentially numbered snapshots of
// spans. Version numbers per span are gapless and strictly increasing;
// concurrent writers are serialized by the store's atomic insert plus an
// internal retry.
type VersionRecorder struct {
	store ports.Store
}

// NewVersionRecorder creates a new VersionRecorder.
func NewVersionRecorder(store ports.Store) *VersionRecorder {
	return &VersionRecorder{store: store}
}

// RecordCreate writes version 1 for a freshly created span.
func (r *VersionRecorder) RecordCreate(ctx context.Context, span *entities.Span, changedBy string) (*entities.SpanVersion, error) {
	v := &entities.SpanVersion{
		ID:            uuid.New().String(),
		SpanID:        span.ID,
		Version:       1,
		ChangedBy:     changedBy,
		ChangeSummary: entities.InitialVersionSummary,
		Data:          *span,
		CreatedAt:     time.Now(),
	}
	if err := r.store.InsertVersion(ctx, v); err != nil {
		return nil, fmt.Errorf("recording initial version: %w", err)
	}
	return v, nil
}

// RecordUpdate diffs the span against its latest snapshot and appends the
// next version. Returns nil without writing when no versioned field
// changed. Conflicting writers are retried before ErrVersionConflict
// surfaces.
func (r *VersionRecorder) RecordUpdate(ctx context.Context, span *entities.Span, changedBy string) (*entities.SpanVersion, error) {
	var lastErr error
	for attempt := 0; attempt < versionConflictRetries; attempt++ {
		latest, err := r.store.FindLatestVersion(ctx, span.ID)
		if err != nil {
			return nil, fmt.Errorf("loading latest version: %w", err)
		}
		if latest == nil {
			return nil, fmt.Errorf("span %s has no versions: %w", span.ID, entities.ErrNotFound)
		}

		summary := ChangeSummary(&latest.Data, span)
		if summary == "" {
			return nil, nil
		}

		v := &entities.SpanVersion{
			ID:            uuid.New().String(),
			SpanID:        span.ID,
			Version:       latest.Version + 1,
			ChangedBy:     changedBy,
			ChangeSummary: summary,
			Data:          *span,
			CreatedAt:     time.Now(),
		}
		err = r.store.InsertVersion(ctx, v)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, entities.ErrVersionConflict) {
			return nil, fmt.Errorf("recording version %d: %w", v.Version, err)
		}
		lastErr = err
	}
	return nil, fmt.Errorf("recording version after %d attempts: %w", versionConflictRetries, lastErr)
}

// History returns a span's versions, oldest first. A deleted or unknown
// span has an empty history.
func (r *VersionRecorder) History(ctx context.Context, spanID string) ([]entities.SpanVersion, error) {
	versions, err := r.store.FindVersionsBySpan(ctx, spanID)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	return versions, nil
}

// Diff renders the change summary between two stored versions of a span.
func (r *VersionRecorder) Diff(ctx context.Context, spanID string, a, b int) (string, error) {
	va, err := r.store.FindVersion(ctx, spanID, a)
	if err != nil {
		return "", fmt.Errorf("loading version %d: %w", a, err)
	}
	vb, err := r.store.FindVersion(ctx, spanID, b)
	if err != nil {
		return "", fmt.Errorf("loading version %d: %w", b, err)
	}
	if va == nil || vb == nil {
		return "", fmt.Errorf("span %s versions %d..%d: %w", spanID, a, b, entities.ErrNotFound)
	}
	return ChangeSummary(&va.Data, &vb.Data), nil
}

// ChangeSummary renders the human-readable clause list for the fields that
// differ between two snapshots ("Name changed, Description updated").
// Returns the empty string when nothing differs.
func ChangeSummary(before, after *entities.Span) string {
	clauses := make([]string, 0, len(versionedFields))
	for _, f := range versionedFields {
		if f.value(before) == f.value(after) {
			continue
		}
		switch f.kind {
		case longTextField:
			clauses = append(clauses, f.label+" updated")
		default:
			clauses = append(clauses, f.label+" changed")
		}
	}
	return strings.Join(clauses, ", ")
}
