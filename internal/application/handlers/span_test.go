package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spanlab/span-core/internal/domain/entities"
	"github.com/spanlab/span-core/internal/domain/mocks"
	"github.com/spanlab/span-core/internal/domain/services"
)

// fixture wires every handler over the in-memory store.
type fixture struct {
	store       *mocks.Store
	spans       *services.SpanService
	connections *services.ConnectionService
	span        *SpanHandler
	connection  *ConnectionHandler
	export      *ExportHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store := mocks.NewStore()
	spanTypes := services.NewSpanTypeService(store)
	connectionTypes := services.NewConnectionTypeService(store)
	require.NoError(t, spanTypes.LoadDefaults(ctx))
	require.NoError(t, connectionTypes.LoadDefaults(ctx))

	recorder := services.NewVersionRecorder(store)
	spans := services.NewSpanService(store, recorder, spanTypes)
	access := services.NewAccessResolver(store)
	projections := services.NewProjectionService(store)
	connections := services.NewConnectionService(store, spans, connectionTypes)

	return &fixture{
		store:       store,
		spans:       spans,
		connections: connections,
		span:        NewSpanHandler(spans, access, projections, recorder),
		connection:  NewConnectionHandler(connections, projections, spans, access),
		export:      NewExportHandler(spans, access, projections),
	}
}

func (f *fixture) mustCreate(t *testing.T, input services.SpanInput, owner *entities.User) *entities.Span {
	t.Helper()
	span, err := f.spans.Create(context.Background(), input, owner)
	require.NoError(t, err)
	return span
}

func TestSpanHandler_ShowEnforcesAccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := &entities.User{ID: "u1"}
	stranger := &entities.User{ID: "u2"}

	f.mustCreate(t, services.SpanInput{Name: "Ada Lovelace", Type: entities.TypePerson, AccessLevel: entities.AccessPublic}, owner)
	f.mustCreate(t, services.SpanInput{Name: "Secret Diary", Type: entities.TypeThing, AccessLevel: entities.AccessPrivate}, owner)

	view, err := f.span.HandleShow(ctx, "ada-lovelace", nil)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", view.Span.Name)

	// A guest is told to sign in; a signed-in stranger is refused outright.
	_, err = f.span.HandleShow(ctx, "secret-diary", nil)
	assert.ErrorIs(t, err, ErrAuthRequired)

	_, err = f.span.HandleShow(ctx, "secret-diary", stranger)
	assert.ErrorIs(t, err, ErrForbidden)

	view, err = f.span.HandleShow(ctx, "secret-diary", owner)
	require.NoError(t, err)
	assert.Equal(t, "Secret Diary", view.Span.Name)

	_, err = f.span.HandleShow(ctx, "nobody", owner)
	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func TestSpanHandler_ShowNarratesBothDirections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := &entities.User{ID: "u1"}

	f.mustCreate(t, services.SpanInput{Name: "Ada Lovelace", Type: entities.TypePerson, AccessLevel: entities.AccessPublic}, owner)
	f.mustCreate(t, services.SpanInput{Name: "London", Type: entities.TypePlace, AccessLevel: entities.AccessPublic}, owner)

	_, err := f.connection.HandleCreate(ctx, "ada-lovelace", "residence", "london", entities.AccessPublic, owner)
	require.NoError(t, err)

	ada, err := f.span.HandleShow(ctx, "ada-lovelace", nil)
	require.NoError(t, err)
	require.Len(t, ada.AsSubject, 1)
	assert.Empty(t, ada.AsObject)
	require.Len(t, ada.Connections, 1)
	assert.Equal(t, "Ada Lovelace lived in London", ada.Connections[0])

	london, err := f.span.HandleShow(ctx, "london", nil)
	require.NoError(t, err)
	assert.Empty(t, london.AsSubject)
	require.Len(t, london.AsObject, 1)
	require.Len(t, london.Connections, 1)
	assert.Equal(t, "London was home to Ada Lovelace", london.Connections[0])
}

func TestSpanHandler_ShowHidesInvisibleEndpoints(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := &entities.User{ID: "u1"}

	f.mustCreate(t, services.SpanInput{Name: "Ada Lovelace", Type: entities.TypePerson, AccessLevel: entities.AccessPublic}, owner)
	f.mustCreate(t, services.SpanInput{Name: "Hidden Estate", Type: entities.TypePlace, AccessLevel: entities.AccessPrivate}, owner)

	_, err := f.connection.HandleCreate(ctx, "ada-lovelace", "residence", "hidden-estate", entities.AccessPublic, owner)
	require.NoError(t, err)

	// The guest sees the person but not the reading into the private place.
	view, err := f.span.HandleShow(ctx, "ada-lovelace", nil)
	require.NoError(t, err)
	assert.Empty(t, view.AsSubject)
	assert.Empty(t, view.Connections)

	// The owner sees the whole picture.
	view, err = f.span.HandleShow(ctx, "ada-lovelace", owner)
	require.NoError(t, err)
	assert.Len(t, view.AsSubject, 1)
}

func TestSpanHandler_ListFiltersByVerdict(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := &entities.User{ID: "u1"}

	f.mustCreate(t, services.SpanInput{Name: "Ada Lovelace", Type: entities.TypePerson, AccessLevel: entities.AccessPublic}, owner)
	f.mustCreate(t, services.SpanInput{Name: "Secret Diary", Type: entities.TypeThing, AccessLevel: entities.AccessPrivate}, owner)

	public, err := f.span.HandleList(ctx, "", 50, 0, nil)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, "Ada Lovelace", public[0].Name)

	all, err := f.span.HandleList(ctx, "", 50, 0, owner)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSpanHandler_HistoryAndDiff(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := &entities.User{ID: "u1"}

	f.mustCreate(t, services.SpanInput{Name: "Ada Lovelace", Type: entities.TypePerson, AccessLevel: entities.AccessPublic}, owner)

	_, err := f.span.HandleUpdate(ctx, "ada-lovelace", services.SpanInput{
		Name: "Ada King", Type: entities.TypePerson, AccessLevel: entities.AccessPublic,
	}, owner)
	require.NoError(t, err)

	history, err := f.span.HandleHistory(ctx, "ada-lovelace", owner)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, entities.InitialVersionSummary, history[0].ChangeSummary)
	assert.Equal(t, "Name changed", history[1].ChangeSummary)

	diff, err := f.span.HandleDiff(ctx, "ada-lovelace", 1, 2, owner)
	require.NoError(t, err)
	assert.Equal(t, "Name changed", diff)
}

func TestSpanHandler_GrantOpensSharedSpan(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := &entities.User{ID: "u1"}
	reader := &entities.User{ID: "u2"}

	f.mustCreate(t, services.SpanInput{Name: "Family Album", Type: entities.TypeThing, AccessLevel: entities.AccessShared}, owner)

	_, err := f.span.HandleShow(ctx, "family-album", reader)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, f.span.HandleGrant(ctx, "family-album", "u2", owner))

	view, err := f.span.HandleShow(ctx, "family-album", reader)
	require.NoError(t, err)
	assert.Equal(t, "Family Album", view.Span.Name)

	require.NoError(t, f.span.HandleRevoke(ctx, "family-album", "u2", owner))
	_, err = f.span.HandleShow(ctx, "family-album", reader)
	assert.ErrorIs(t, err, ErrForbidden)
}
