package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spanlab/span-core/internal/domain/entities"
	"github.com/spanlab/span-core/internal/infrastructure/parsers"
)

// ConflictStrategy defines how to handle spans that already exist during
// import (matched by the slug their name derives).
type ConflictStrategy string

const (
	// ConflictSkip leaves the existing span untouched.
	ConflictSkip ConflictStrategy = "skip"
	// ConflictReplace updates the existing span, recording a new version.
	ConflictReplace ConflictStrategy = "replace"
)

// ImportOptions controls import behavior.
type ImportOptions struct {
	DryRun     bool             // Validate without saving
	OnConflict ConflictStrategy // How to handle existing spans
}

// ImportError represents an error for a specific span during import.
type ImportError struct {
	Index   int    // Position in the source document (1-indexed)
	Field   string // Which field has the error
	Message string // Human-readable error message
}

func (e ImportError) Error() string {
	if e.Index > 0 {
		return fmt.Sprintf("span %d: %s", e.Index, e.Message)
	}
	return e.Message
}

// ImportResult contains the result of an import operation.
type ImportResult struct {
	Imported int
	Updated  int
	Skipped  int
	Errors   []ImportError
}

// ImportService validates and imports parsed span documents.
type ImportService struct {
	spans     *SpanService
	spanTypes *SpanTypeService
}

// NewImportService creates a new ImportService.
func NewImportService(spans *SpanService, spanTypes *SpanTypeService) *ImportService {
	return &ImportService{spans: spans, spanTypes: spanTypes}
}

// Import validates raw spans and writes them on behalf of the actor.
// Invalid entries are collected as errors and do not abort the rest.
func (s *ImportService) Import(ctx context.Context, rawSpans []parsers.RawSpan, actor *entities.User, opts ImportOptions) (*ImportResult, error) {
	if opts.OnConflict == "" {
		opts.OnConflict = ConflictSkip
	}
	result := &ImportResult{}

	for i := range rawSpans {
		raw := &rawSpans[i]
		index := raw.Index
		if index == 0 {
			index = i + 1
		}

		input, importErr := s.validateRawSpan(ctx, raw, index)
		if importErr != nil {
			result.Errors = append(result.Errors, *importErr)
			continue
		}

		existing, err := s.spans.GetBySlug(ctx, Slugify(raw.Name))
		if err != nil {
			return nil, fmt.Errorf("checking for existing span: %w", err)
		}

		if opts.DryRun {
			if existing != nil && opts.OnConflict == ConflictSkip {
				result.Skipped++
			} else {
				result.Imported++
			}
			continue
		}

		switch {
		case existing == nil:
			if _, err := s.spans.Create(ctx, *input, actor); err != nil {
				return nil, fmt.Errorf("importing span %d: %w", index, err)
			}
			result.Imported++
		case opts.OnConflict == ConflictReplace:
			if _, err := s.spans.Update(ctx, existing.ID, *input, actor); err != nil {
				return nil, fmt.Errorf("replacing span %d: %w", index, err)
			}
			result.Updated++
		default:
			result.Skipped++
		}
	}

	return result, nil
}

// validateRawSpan checks one raw span and converts it to a SpanInput.
func (s *ImportService) validateRawSpan(ctx context.Context, raw *parsers.RawSpan, index int) (*SpanInput, *ImportError) {
	if raw.Name == "" {
		return nil, &ImportError{Index: index, Field: "name", Message: "missing required field: name"}
	}
	if raw.Type == "" {
		return nil, &ImportError{Index: index, Field: "type", Message: "missing required field: type"}
	}
	if !s.spanTypes.IsValid(ctx, raw.Type) {
		return nil, &ImportError{Index: index, Field: "type", Message: fmt.Sprintf("unknown span type '%s'", raw.Type)}
	}

	level := entities.AccessLevel(raw.AccessLevel)
	if raw.AccessLevel == "" {
		level = entities.AccessPrivate
	} else if !entities.ValidAccessLevel(raw.AccessLevel) {
		return nil, &ImportError{Index: index, Field: "access_level", Message: fmt.Sprintf("unknown access level '%s'", raw.AccessLevel)}
	}

	input := &SpanInput{
		Name:        raw.Name,
		Type:        raw.Type,
		AccessLevel: level,
		Description: raw.Description,
		Notes:       raw.Notes,
	}
	if raw.Start != nil {
		input.Start = entities.FlexDate{Year: raw.Start.Year, Month: raw.Start.Month, Day: raw.Start.Day}
	}
	if raw.End != nil {
		input.End = entities.FlexDate{Year: raw.End.Year, Month: raw.End.Month, Day: raw.End.Day}
	}
	if !input.Start.Valid() {
		return nil, &ImportError{Index: index, Field: "start", Message: "invalid start date"}
	}
	if !input.End.Valid() {
		return nil, &ImportError{Index: index, Field: "end", Message: "invalid end date"}
	}

	if raw.Subtype != "" || len(raw.Metadata) > 0 {
		input.Metadata = metadataFromRaw(raw)
	}

	return input, nil
}

// metadataFromRaw builds the typed metadata variant for known subtypes and
// keeps everything else in the passthrough map.
func metadataFromRaw(raw *parsers.RawSpan) *entities.Metadata {
	md := &entities.Metadata{Subtype: raw.Subtype}
	if raw.Subtype == entities.SubtypePhoto {
		photo := &entities.PhotoMetadata{
			URL:     raw.Metadata["url"],
			Caption: raw.Metadata["caption"],
		}
		if y, err := strconv.Atoi(raw.Metadata["taken_year"]); err == nil {
			photo.TakenYear = y
		}
		md.Photo = photo
		return md
	}
	if len(raw.Metadata) > 0 {
		md.Extra = make(map[string]string, len(raw.Metadata))
		for k, v := range raw.Metadata {
			md.Extra[k] = v
		}
	}
	return md
}
