package entities

import "errors"

// Sentinel errors shared across layers. Access denials are never errors;
// they are AccessResolver verdicts.
var (
	// ErrNotFound reports an unknown span, connection, type, user or version.
	ErrNotFound = errors.New("not found")

	// ErrVersionConflict reports that two writers raced for the same
	// version number. The recorder retries internally before surfacing it.
	ErrVersionConflict = errors.New("version number conflict")

	// ErrTypeInUse blocks deleting a connection type that connections
	// still reference.
	ErrTypeInUse = errors.New("connection type is in use")

	// ErrReservedSlug blocks slugs that collide with reserved route tokens.
	ErrReservedSlug = errors.New("slug is a reserved word")

	// ErrAdminSelfDelete blocks an admin deleting their own account.
	ErrAdminSelfDelete = errors.New("admin accounts cannot delete themselves")

	// ErrRateLimited reports an upstream rate limit that persisted through
	// the single permitted retry.
	ErrRateLimited = errors.New("upstream rate limited")

	// ErrUpstreamUnavailable reports a non-retryable upstream failure.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
