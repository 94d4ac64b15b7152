package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spanlab/span-core/internal/domain/entities"
	"github.com/spanlab/span-core/internal/domain/mocks"
)

func accessFixture(t *testing.T) (*mocks.Store, *AccessResolver) {
	t.Helper()
	store := mocks.NewStore()
	return store, NewAccessResolver(store)
}

func addSpan(store *mocks.Store, id, ownerID string, level entities.AccessLevel) *entities.Span {
	span := &entities.Span{
		ID:          id,
		Name:        id,
		Type:        entities.TypePerson,
		OwnerID:     ownerID,
		AccessLevel: level,
	}
	store.Spans[id] = span
	return span
}

func addConnectionSpan(store *mocks.Store, id, ownerID string, level entities.AccessLevel, parentID, childID string) *entities.Span {
	span := &entities.Span{
		ID:          id,
		Name:        id,
		Type:        entities.TypeConnection,
		OwnerID:     ownerID,
		AccessLevel: level,
	}
	store.Spans[id] = span
	store.Connections[id+"-conn"] = &entities.Connection{
		ID:               id + "-conn",
		ParentID:         parentID,
		ChildID:          childID,
		TypeID:           "friend",
		ConnectionSpanID: id,
	}
	return span
}

func TestResolvePublicSpan(t *testing.T) {
	store, resolver := accessFixture(t)
	span := addSpan(store, "s1", "owner", entities.AccessPublic)

	principals := map[string]*entities.User{
		"guest":    nil,
		"owner":    {ID: "owner"},
		"stranger": {ID: "someone-else"},
		"admin":    {ID: "root", IsAdmin: true},
	}
	for name, p := range principals {
		verdict, err := resolver.Resolve(context.Background(), p, span)
		require.NoError(t, err, name)
		assert.Equal(t, Allow, verdict, name)
	}
}

func TestResolvePrivateSpan(t *testing.T) {
	store, resolver := accessFixture(t)
	span := addSpan(store, "s1", "owner", entities.AccessPrivate)

	tests := []struct {
		name      string
		principal *entities.User
		want      Verdict
	}{
		{"owner allowed", &entities.User{ID: "owner"}, Allow},
		{"non-owner forbidden", &entities.User{ID: "stranger"}, DenyForbidden},
		{"admin allowed", &entities.User{ID: "root", IsAdmin: true}, Allow},
		{"guest must authenticate", nil, DenyRequireAuth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, err := resolver.Resolve(context.Background(), tt.principal, span)
			require.NoError(t, err)
			assert.Equal(t, tt.want, verdict)
		})
	}
}

func TestResolveSharedSpan(t *testing.T) {
	store, resolver := accessFixture(t)
	span := addSpan(store, "s1", "owner", entities.AccessShared)
	require.NoError(t, store.GrantAccess(context.Background(), "s1", "invitee"))

	tests := []struct {
		name      string
		principal *entities.User
		want      Verdict
	}{
		{"owner allowed", &entities.User{ID: "owner"}, Allow},
		{"granted user allowed", &entities.User{ID: "invitee"}, Allow},
		{"ungranted user forbidden", &entities.User{ID: "stranger"}, DenyForbidden},
		{"guest must authenticate", nil, DenyRequireAuth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, err := resolver.Resolve(context.Background(), tt.principal, span)
			require.NoError(t, err)
			assert.Equal(t, tt.want, verdict)
		})
	}
}

// A connection-span is visible iff both endpoints are, independently of the
// connection-span's own owner and access level.
func TestResolveConnectionSpanEndpointConjunction(t *testing.T) {
	ctx := context.Background()

	t.Run("both endpoints owned, narration owned by third party", func(t *testing.T) {
		store, resolver := accessFixture(t)
		addSpan(store, "subject", "alice", entities.AccessPrivate)
		addSpan(store, "object", "alice", entities.AccessPrivate)
		cs := addConnectionSpan(store, "cs", "third-party", entities.AccessPrivate, "subject", "object")

		verdict, err := resolver.Resolve(ctx, &entities.User{ID: "alice"}, cs)
		require.NoError(t, err)
		assert.Equal(t, Allow, verdict)
	})

	t.Run("one endpoint private to another owner", func(t *testing.T) {
		store, resolver := accessFixture(t)
		addSpan(store, "subject", "alice", entities.AccessPrivate)
		addSpan(store, "object", "bob", entities.AccessPrivate)
		cs := addConnectionSpan(store, "cs", "alice", entities.AccessPublic, "subject", "object")

		// The connection-span itself is public to alice, but the hidden
		// endpoint makes the whole relationship forbidden.
		verdict, err := resolver.Resolve(ctx, &entities.User{ID: "alice"}, cs)
		require.NoError(t, err)
		assert.Equal(t, DenyForbidden, verdict)
	})

	t.Run("guest with one private endpoint", func(t *testing.T) {
		store, resolver := accessFixture(t)
		addSpan(store, "subject", "alice", entities.AccessPublic)
		addSpan(store, "object", "alice", entities.AccessPrivate)
		cs := addConnectionSpan(store, "cs", "alice", entities.AccessPublic, "subject", "object")

		verdict, err := resolver.Resolve(ctx, nil, cs)
		require.NoError(t, err)
		assert.Equal(t, DenyRequireAuth, verdict)
	})

	t.Run("forbidden outranks require-auth", func(t *testing.T) {
		store, resolver := accessFixture(t)
		addSpan(store, "subject", "bob", entities.AccessPrivate)
		addSpan(store, "object", "alice", entities.AccessShared)
		cs := addConnectionSpan(store, "cs", "alice", entities.AccessPublic, "subject", "object")

		verdict, err := resolver.Resolve(ctx, &entities.User{ID: "carol"}, cs)
		require.NoError(t, err)
		assert.Equal(t, DenyForbidden, verdict)
	})

	t.Run("admin sees everything", func(t *testing.T) {
		store, resolver := accessFixture(t)
		addSpan(store, "subject", "alice", entities.AccessPrivate)
		addSpan(store, "object", "bob", entities.AccessPrivate)
		cs := addConnectionSpan(store, "cs", "carol", entities.AccessPrivate, "subject", "object")

		verdict, err := resolver.Resolve(ctx, &entities.User{ID: "root", IsAdmin: true}, cs)
		require.NoError(t, err)
		assert.Equal(t, Allow, verdict)
	})

	t.Run("shared endpoint grant opens the connection", func(t *testing.T) {
		store, resolver := accessFixture(t)
		addSpan(store, "subject", "carol", entities.AccessPrivate)
		addSpan(store, "object", "bob", entities.AccessShared)
		require.NoError(t, store.GrantAccess(ctx, "object", "carol"))
		cs := addConnectionSpan(store, "cs", "bob", entities.AccessPrivate, "subject", "object")

		verdict, err := resolver.Resolve(ctx, &entities.User{ID: "carol"}, cs)
		require.NoError(t, err)
		assert.Equal(t, Allow, verdict)
	})
}

func TestResolveConnectionSpanMissingConnection(t *testing.T) {
	store, resolver := accessFixture(t)
	orphan := &entities.Span{ID: "cs", Type: entities.TypeConnection, AccessLevel: entities.AccessPublic}
	store.Spans["cs"] = orphan

	_, err := resolver.Resolve(context.Background(), nil, orphan)
	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func TestResolveNilSpan(t *testing.T) {
	_, resolver := accessFixture(t)
	_, err := resolver.Resolve(context.Background(), nil, nil)
	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func TestWorstOrdering(t *testing.T) {
	assert.Equal(t, Allow, worst(Allow, Allow))
	assert.Equal(t, DenyRequireAuth, worst(Allow, DenyRequireAuth))
	assert.Equal(t, DenyForbidden, worst(DenyRequireAuth, DenyForbidden))
	assert.Equal(t, DenyForbidden, worst(DenyForbidden, Allow))
}
