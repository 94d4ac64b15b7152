package services

import (
	"context"
	"fmt"

	"github.com/spanlab/span-core/internal/domain/entities"
	"github.com/spanlab/span-core/internal/domain/ports"
)

// Verdict is the outcome of an access check. Denials are ordinary values,
// not errors: DenyRequireAuth is recoverable (the caller offers a login
// path), DenyForbidden is terminal for the current principal.
type Verdict int

const (
	Allow Verdict = iota
	DenyRequireAuth
	DenyForbidden
)

// String returns the verdict name.
func (v Verdict) String() string {
	switch v {
	case Allow:
		return "allow"
	case DenyRequireAuth:
		return "deny-require-auth"
	case DenyForbidden:
		return "deny-forbidden"
	default:
		return "unknown"
	}
}

// AccessResolver decides whether a principal may view a span. It performs
// read-only evaluation and takes no locks; the principal is always passed
// explicitly rather than read from ambient state.
type AccessResolver struct {
	store ports.Store
}

// NewAccessResolver creates a new AccessResolver.
func NewAccessResolver(store ports.Store) *AccessResolver {
	return &AccessResolver{store: store}
}

// Resolve evaluates access for a principal (nil = guest) on a span.
//
// For ordinary spans the rules apply in priority order: public allows
// anyone, admins are always allowed, guests are asked to authenticate,
// private spans admit only their owner, and shared spans admit the owner
// plus explicitly granted users.
//
// A connection-span is visible exactly when both endpoints of the
// connection it narrates are visible: if either endpoint is forbidden the
// whole thing is forbidden, regardless of the connection-span's own access
// level or owner. The severest endpoint verdict wins.
func (r *AccessResolver) Resolve(ctx context.Context, principal *entities.User, span *entities.Span) (Verdict, error) {
	if span == nil {
		return DenyForbidden, fmt.Errorf("resolving access: %w", entities.ErrNotFound)
	}

	if span.IsConnectionSpan() {
		return r.resolveConnectionSpan(ctx, principal, span)
	}

	return r.resolveWithGrants(ctx, principal, span)
}

// resolveSpan applies the ordinary-span rules. It is pure.
func resolveSpan(principal *entities.User, span *entities.Span) Verdict {
	if span.AccessLevel == entities.AccessPublic {
		return Allow
	}
	if principal == nil {
		return DenyRequireAuth
	}
	if principal.IsAdmin {
		return Allow
	}

	switch span.AccessLevel {
	case entities.AccessPrivate:
		if principal.ID == span.OwnerID {
			return Allow
		}
		return DenyForbidden
	case entities.AccessShared:
		if principal.ID == span.OwnerID {
			return Allow
		}
		// Grant lookup happens in resolveWithGrants; the pure path denies.
		return DenyForbidden
	default:
		return DenyForbidden
	}
}

// resolveWithGrants applies the ordinary-span rules, consulting the store
// for shared-access grants.
func (r *AccessResolver) resolveWithGrants(ctx context.Context, principal *entities.User, span *entities.Span) (Verdict, error) {
	verdict := resolveSpan(principal, span)
	if verdict != DenyForbidden || span.AccessLevel != entities.AccessShared || principal == nil {
		return verdict, nil
	}
	granted, err := r.store.HasGrant(ctx, span.ID, principal.ID)
	if err != nil {
		return DenyForbidden, fmt.Errorf("checking grant: %w", err)
	}
	if granted {
		return Allow, nil
	}
	return DenyForbidden, nil
}

// resolveConnectionSpan combines the verdicts on both endpoints of the
// narrated connection. The connection-span's own access level does not
// participate: you can see the relationship iff you can see both sides.
func (r *AccessResolver) resolveConnectionSpan(ctx context.Context, principal *entities.User, span *entities.Span) (Verdict, error) {
	conn, err := r.store.FindConnectionBySpan(ctx, span.ID)
	if err != nil {
		return DenyForbidden, fmt.Errorf("finding connection for span %s: %w", span.ID, err)
	}
	if conn == nil {
		return DenyForbidden, fmt.Errorf("connection for span %s: %w", span.ID, entities.ErrNotFound)
	}

	parentVerdict, err := r.resolveEndpoint(ctx, principal, conn.ParentID)
	if err != nil {
		return DenyForbidden, err
	}
	childVerdict, err := r.resolveEndpoint(ctx, principal, conn.ChildID)
	if err != nil {
		return DenyForbidden, err
	}

	return worst(parentVerdict, childVerdict), nil
}

func (r *AccessResolver) resolveEndpoint(ctx context.Context, principal *entities.User, spanID string) (Verdict, error) {
	span, err := r.store.FindSpanByID(ctx, spanID)
	if err != nil {
		return DenyForbidden, fmt.Errorf("loading endpoint %s: %w", spanID, err)
	}
	if span == nil {
		return DenyForbidden, fmt.Errorf("endpoint %s: %w", spanID, entities.ErrNotFound)
	}
	if span.IsConnectionSpan() {
		return r.resolveConnectionSpan(ctx, principal, span)
	}
	return r.resolveWithGrants(ctx, principal, span)
}

// worst returns the severer of two verdicts: forbidden beats require-auth
// beats allow.
func worst(a, b Verdict) Verdict {
	if a == DenyForbidden || b == DenyForbidden {
		return DenyForbidden
	}
	if a == DenyRequireAuth || b == DenyRequireAuth {
		return DenyRequireAuth
	}
	return Allow
}
