package handlers

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/spanlab/span-core/internal/domain/entities"
	"github.com/spanlab/span-core/internal/domain/services"
	"github.com/spanlab/span-core/internal/infrastructure/parsers"
)

// exportPageSize bounds one listing round-trip during export.
const exportPageSize = 500

// ExportHandler writes a principal's visible spans and connections as a
// YAML document the importer accepts back.
type ExportHandler struct {
	spans       *services.SpanService
	access      *services.AccessResolver
	projections *services.ProjectionService
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(spans *services.SpanService, access *services.AccessResolver, projections *services.ProjectionService) *ExportHandler {
	return &ExportHandler{
		spans:       spans,
		access:      access,
		projections: projections,
	}
}

// exportDocument is the YAML envelope written by Handle.
type exportDocument struct {
	Spans       []parsers.RawSpan  `yaml:"spans"`
	Connections []exportConnection `yaml:"connections,omitempty"`
}

// exportConnection references endpoints by slug so the document survives
// re-import into a store with fresh IDs.
type exportConnection struct {
	Subject string `yaml:"subject"`
	Type    string `yaml:"type"`
	Object  string `yaml:"object"`
}

// Handle writes every span the principal may see, plus the connections
// whose both endpoints are visible, to w. Narrating connection-spans are
// represented by their connection entry, not listed as spans.
func (h *ExportHandler) Handle(ctx context.Context, w io.Writer, principal *entities.User) error {
	visible, err := h.visibleSpans(ctx, principal)
	if err != nil {
		return err
	}

	doc := exportDocument{Spans: make([]parsers.RawSpan, 0, len(visible))}

	slugsByID := make(map[string]string, len(visible))
	for _, span := range visible {
		slugsByID[span.ID] = span.Slug
	}

	for _, span := range visible {
		if span.IsConnectionSpan() {
			continue
		}
		doc.Spans = append(doc.Spans, rawFromSpan(span))
	}

	// Spans come back ordered by name, so connections follow the subject's
	// name order and the document is stable across runs.
	for _, span := range visible {
		if span.IsConnectionSpan() {
			continue
		}
		projections, err := h.projections.ListBySubject(ctx, span.ID)
		if err != nil {
			return err
		}
		for _, p := range projections {
			objectSlug, ok := slugsByID[p.ObjectID]
			if !ok {
				continue
			}
			doc.Connections = append(doc.Connections, exportConnection{
				Subject: span.Slug,
				Type:    p.TypeID,
				Object:  objectSlug,
			})
		}
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("encoding export document: %w", err)
	}
	return encoder.Close()
}

func (h *ExportHandler) visibleSpans(ctx context.Context, principal *entities.User) ([]*entities.Span, error) {
	var visible []*entities.Span
	for offset := 0; ; offset += exportPageSize {
		page, err := h.spans.List(ctx, "", exportPageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("listing spans: %w", err)
		}
		for _, span := range page {
			verdict, err := h.access.Resolve(ctx, principal, span)
			if err != nil {
				return nil, err
			}
			if verdict == services.Allow {
				visible = append(visible, span)
			}
		}
		if len(page) < exportPageSize {
			return visible, nil
		}
	}
}

// rawFromSpan converts a span to its import-document form.
func rawFromSpan(span *entities.Span) parsers.RawSpan {
	raw := parsers.RawSpan{
		Name:        span.Name,
		Type:        span.Type,
		AccessLevel: string(span.AccessLevel),
		Description: span.Description,
		Notes:       span.Notes,
	}
	if !span.Start.IsZero() {
		raw.Start = &parsers.RawDate{Year: span.Start.Year, Month: span.Start.Month, Day: span.Start.Day}
	}
	if !span.End.IsZero() {
		raw.End = &parsers.RawDate{Year: span.End.Year, Month: span.End.Month, Day: span.End.Day}
	}
	if span.Metadata != nil {
		raw.Subtype = span.Metadata.Subtype
		if span.Metadata.Photo != nil {
			raw.Metadata = map[string]string{}
			if span.Metadata.Photo.URL != "" {
				raw.Metadata["url"] = span.Metadata.Photo.URL
			}
			if span.Metadata.Photo.Caption != "" {
				raw.Metadata["caption"] = span.Metadata.Photo.Caption
			}
			if span.Metadata.Photo.TakenYear != 0 {
				raw.Metadata["taken_year"] = fmt.Sprintf("%d", span.Metadata.Photo.TakenYear)
			}
		} else if len(span.Metadata.Extra) > 0 {
			raw.Metadata = span.Metadata.Extra
		}
	}
	return raw
}
