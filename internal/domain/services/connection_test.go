package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spanlab/span-core/internal/domain/entities"
	"github.com/spanlab/span-core/internal/domain/mocks"
)

func connectionFixture(t *testing.T) (*mocks.Store, *ConnectionService, *SpanService) {
	t.Helper()
	ctx := context.Background()
	store := mocks.NewStore()
	spanTypes := NewSpanTypeService(store)
	require.NoError(t, spanTypes.LoadDefaults(ctx))
	connTypes := NewConnectionTypeService(store)
	require.NoError(t, connTypes.LoadDefaults(ctx))
	spans := NewSpanService(store, NewVersionRecorder(store), spanTypes)
	return store, NewConnectionService(store, spans, connTypes), spans
}

func TestConnectionCreate(t *testing.T) {
	ctx := context.Background()
	store, svc, spans := connectionFixture(t)
	owner := &entities.User{ID: "u1"}

	ada, err := spans.Create(ctx, personInput("Ada Lovelace"), owner)
	require.NoError(t, err)
	soc, err := spans.Create(ctx, SpanInput{
		Name:        "Royal Society",
		Type:        entities.TypeOrganisation,
		AccessLevel: entities.AccessPublic,
	}, owner)
	require.NoError(t, err)

	conn, err := svc.Create(ctx, ada.ID, "membership", soc.ID, entities.AccessPublic, owner)
	require.NoError(t, err)
	assert.Equal(t, ada.ID, conn.ParentID)
	assert.Equal(t, soc.ID, conn.ChildID)

	// The narrating connection-span exists, is typed "connection", and is
	// named from the forward predicate.
	connSpan, err := store.FindSpanByID(ctx, conn.ConnectionSpanID)
	require.NoError(t, err)
	require.NotNil(t, connSpan)
	assert.True(t, connSpan.IsConnectionSpan())
	assert.Equal(t, "Ada Lovelace is a member of Royal Society", connSpan.Name)

	// Its own version chain started at 1.
	versions, err := store.FindVersionsBySpan(ctx, connSpan.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)
}

func TestConnectionCreateRejections(t *testing.T) {
	ctx := context.Background()
	_, svc, spans := connectionFixture(t)
	owner := &entities.User{ID: "u1"}

	ada, err := spans.Create(ctx, personInput("Ada"), owner)
	require.NoError(t, err)
	bab, err := spans.Create(ctx, personInput("Babbage"), owner)
	require.NoError(t, err)

	_, err = svc.Create(ctx, ada.ID, "friend", ada.ID, entities.AccessPublic, owner)
	assert.ErrorContains(t, err, "connected to itself")

	_, err = svc.Create(ctx, ada.ID, "nonsense", bab.ID, entities.AccessPublic, owner)
	assert.ErrorIs(t, err, entities.ErrNotFound)

	_, err = svc.Create(ctx, ada.ID, "friend", "ghost", entities.AccessPublic, owner)
	assert.ErrorIs(t, err, entities.ErrNotFound)

	first, err := svc.Create(ctx, ada.ID, "friend", bab.ID, entities.AccessPublic, owner)
	require.NoError(t, err)
	_, err = svc.Create(ctx, ada.ID, "friend", bab.ID, entities.AccessPublic, owner)
	assert.ErrorContains(t, err, "already exists")

	// A connection-span cannot itself be an endpoint.
	_, err = svc.Create(ctx, first.ConnectionSpanID, "friend", bab.ID, entities.AccessPublic, owner)
	assert.ErrorContains(t, err, "ordinary spans")
}

func TestConnectionDeleteRemovesNarration(t *testing.T) {
	ctx := context.Background()
	store, svc, spans := connectionFixture(t)
	owner := &entities.User{ID: "u1"}

	ada, err := spans.Create(ctx, personInput("Ada"), owner)
	require.NoError(t, err)
	bab, err := spans.Create(ctx, personInput("Babbage"), owner)
	require.NoError(t, err)
	conn, err := svc.Create(ctx, ada.ID, "friend", bab.ID, entities.AccessPublic, owner)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, conn.ID, owner))

	gone, err := svc.Get(ctx, conn.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	connSpan, err := store.FindSpanByID(ctx, conn.ConnectionSpanID)
	require.NoError(t, err)
	assert.Nil(t, connSpan)

	err = svc.Delete(ctx, conn.ID, owner)
	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func TestDeletingEndpointCascadesConnection(t *testing.T) {
	ctx := context.Background()
	store, svc, spans := connectionFixture(t)
	owner := &entities.User{ID: "u1"}

	ada, err := spans.Create(ctx, personInput("Ada"), owner)
	require.NoError(t, err)
	bab, err := spans.Create(ctx, personInput("Babbage"), owner)
	require.NoError(t, err)
	conn, err := svc.Create(ctx, ada.ID, "friend", bab.ID, entities.AccessPublic, owner)
	require.NoError(t, err)

	require.NoError(t, spans.Delete(ctx, ada.ID, owner))

	gone, err := svc.Get(ctx, conn.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	connSpan, err := store.FindSpanByID(ctx, conn.ConnectionSpanID)
	require.NoError(t, err)
	assert.Nil(t, connSpan, "the narrating span goes with the connection")
}
