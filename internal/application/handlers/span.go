// Package handlers contains application use case handlers.
package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/spanlab/span-core/internal/domain/entities"
	"github.com/spanlab/span-core/internal/domain/services"
)

// Denial errors returned when a principal may not view a span.
var (
	// ErrAuthRequired means the span might become visible after signing in.
	ErrAuthRequired = errors.New("authentication required")
	// ErrForbidden means the span stays hidden regardless of who asks.
	ErrForbidden = errors.New("access forbidden")
)

// SpanHandler handles span operations on behalf of a principal.
type SpanHandler struct {
	spans       *services.SpanService
	access      *services.AccessResolver
	projections *services.ProjectionService
	recorder    *services.VersionRecorder
}

// NewSpanHandler creates a new SpanHandler.
func NewSpanHandler(spans *services.SpanService, access *services.AccessResolver, projections *services.ProjectionService, recorder *services.VersionRecorder) *SpanHandler {
	return &SpanHandler{
		spans:       spans,
		access:      access,
		projections: projections,
		recorder:    recorder,
	}
}

// SpanView is a span together with its directional readings.
type SpanView struct {
	Span        *entities.Span        `json:"span"`
	AsSubject   []services.Projection `json:"as_subject,omitempty"`
	AsObject    []services.Projection `json:"as_object,omitempty"`
	Connections []string              `json:"connections,omitempty"`
}

// HandleCreate creates a new span owned by the principal.
func (h *SpanHandler) HandleCreate(ctx context.Context, input services.SpanInput, principal *entities.User) (*entities.Span, error) {
	return h.spans.Create(ctx, input, principal)
}

// HandleUpdate updates a span the principal may see.
func (h *SpanHandler) HandleUpdate(ctx context.Context, slug string, input services.SpanInput, principal *entities.User) (*entities.Span, error) {
	span, err := h.resolveVisible(ctx, slug, principal)
	if err != nil {
		return nil, err
	}
	return h.spans.Update(ctx, span.ID, input, principal)
}

// HandleDelete deletes a span and everything hanging off it.
func (h *SpanHandler) HandleDelete(ctx context.Context, slug string, principal *entities.User) error {
	span, err := h.resolveVisible(ctx, slug, principal)
	if err != nil {
		return err
	}
	return h.spans.Delete(ctx, span.ID, principal)
}

// HandleShow returns a span with its connection readings, narrated from the
// span's point of view. Readings whose far endpoint the principal may not
// see are dropped rather than redacted.
func (h *SpanHandler) HandleShow(ctx context.Context, slug string, principal *entities.User) (*SpanView, error) {
	span, err := h.resolveVisible(ctx, slug, principal)
	if err != nil {
		return nil, err
	}

	view := &SpanView{Span: span}

	asSubject, err := h.projections.ListBySubject(ctx, span.ID)
	if err != nil {
		return nil, fmt.Errorf("listing subject readings: %w", err)
	}
	view.AsSubject, err = h.visibleProjections(ctx, asSubject, principal, false)
	if err != nil {
		return nil, err
	}

	asObject, err := h.projections.ListByObject(ctx, span.ID)
	if err != nil {
		return nil, fmt.Errorf("listing object readings: %w", err)
	}
	view.AsObject, err = h.visibleProjections(ctx, asObject, principal, true)
	if err != nil {
		return nil, err
	}

	for _, p := range append(append([]services.Projection{}, view.AsSubject...), view.AsObject...) {
		line, err := h.projections.NarrateProjection(ctx, p, p.ObjectID == span.ID)
		if err != nil {
			return nil, err
		}
		view.Connections = append(view.Connections, line)
	}

	return view, nil
}

// HandleList lists spans the principal may see.
func (h *SpanHandler) HandleList(ctx context.Context, spanType string, limit, offset int, principal *entities.User) ([]*entities.Span, error) {
	spans, err := h.spans.List(ctx, spanType, limit, offset)
	if err != nil {
		return nil, err
	}
	return h.filterVisible(ctx, spans, principal)
}

// HandleSearch searches spans by name, filtered to what the principal may see.
func (h *SpanHandler) HandleSearch(ctx context.Context, query string, limit int, principal *entities.User) ([]*entities.Span, error) {
	spans, err := h.spans.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	return h.filterVisible(ctx, spans, principal)
}

// HandleHistory returns a span's versions, oldest first.
func (h *SpanHandler) HandleHistory(ctx context.Context, slug string, principal *entities.User) ([]entities.SpanVersion, error) {
	span, err := h.resolveVisible(ctx, slug, principal)
	if err != nil {
		return nil, err
	}
	return h.recorder.History(ctx, span.ID)
}

// HandleDiff describes what changed between two versions of a span.
func (h *SpanHandler) HandleDiff(ctx context.Context, slug string, from, to int, principal *entities.User) (string, error) {
	span, err := h.resolveVisible(ctx, slug, principal)
	if err != nil {
		return "", err
	}
	return h.recorder.Diff(ctx, span.ID, from, to)
}

// HandleAudit returns the recorded actions for a span, newest first.
func (h *SpanHandler) HandleAudit(ctx context.Context, slug string, principal *entities.User) ([]entities.AuditEntry, error) {
	span, err := h.resolveVisible(ctx, slug, principal)
	if err != nil {
		return nil, err
	}
	return h.spans.AuditTrail(ctx, span.ID)
}

// HandleGrant shares a span with another user.
func (h *SpanHandler) HandleGrant(ctx context.Context, slug, userID string, principal *entities.User) error {
	span, err := h.resolveVisible(ctx, slug, principal)
	if err != nil {
		return err
	}
	return h.spans.Grant(ctx, span.ID, userID, principal)
}

// HandleRevoke removes a user's shared access to a span.
func (h *SpanHandler) HandleRevoke(ctx context.Context, slug, userID string, principal *entities.User) error {
	span, err := h.resolveVisible(ctx, slug, principal)
	if err != nil {
		return err
	}
	return h.spans.Revoke(ctx, span.ID, userID, principal)
}

// resolveVisible loads a span by slug and enforces the principal's verdict.
func (h *SpanHandler) resolveVisible(ctx context.Context, slug string, principal *entities.User) (*entities.Span, error) {
	span, err := h.spans.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if span == nil {
		return nil, fmt.Errorf("span %q: %w", slug, entities.ErrNotFound)
	}

	verdict, err := h.access.Resolve(ctx, principal, span)
	if err != nil {
		return nil, err
	}
	switch verdict {
	case services.DenyRequireAuth:
		return nil, fmt.Errorf("span %q: %w", slug, ErrAuthRequired)
	case services.DenyForbidden:
		return nil, fmt.Errorf("span %q: %w", slug, ErrForbidden)
	}
	return span, nil
}

// filterVisible keeps only spans the principal is allowed to view.
func (h *SpanHandler) filterVisible(ctx context.Context, spans []*entities.Span, principal *entities.User) ([]*entities.Span, error) {
	visible := make([]*entities.Span, 0, len(spans))
	for _, span := range spans {
		verdict, err := h.access.Resolve(ctx, principal, span)
		if err != nil {
			return nil, err
		}
		if verdict == services.Allow {
			visible = append(visible, span)
		}
	}
	return visible, nil
}

// visibleProjections drops readings whose far endpoint the principal may not see.
func (h *SpanHandler) visibleProjections(ctx context.Context, projections []services.Projection, principal *entities.User, asObject bool) ([]services.Projection, error) {
	visible := make([]services.Projection, 0, len(projections))
	for _, p := range projections {
		farID := p.ObjectID
		if asObject {
			farID = p.SubjectID
		}
		far, err := h.spans.Get(ctx, farID)
		if err != nil {
			return nil, err
		}
		if far == nil {
			continue
		}
		verdict, err := h.access.Resolve(ctx, principal, far)
		if err != nil {
			return nil, err
		}
		if verdict == services.Allow {
			visible = append(visible, p)
		}
	}
	return visible, nil
}
