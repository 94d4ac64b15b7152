package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spanlab/span-core/internal/domain/entities"
	"github.com/spanlab/span-core/internal/domain/mocks"
)

func spanFixture(t *testing.T) (*mocks.Store, *SpanService) {
	t.Helper()
	ctx := context.Background()
	store := mocks.NewStore()
	spanTypes := NewSpanTypeService(store)
	require.NoError(t, spanTypes.LoadDefaults(ctx))
	svc := NewSpanService(store, NewVersionRecorder(store), spanTypes)
	return store, svc
}

func personInput(name string) SpanInput {
	return SpanInput{
		Name:        name,
		Type:        entities.TypePerson,
		AccessLevel: entities.AccessPublic,
	}
}

func TestSpanCreate(t *testing.T) {
	ctx := context.Background()
	store, svc := spanFixture(t)
	owner := &entities.User{ID: "u1"}

	span, err := svc.Create(ctx, personInput("Ada Lovelace"), owner)
	require.NoError(t, err)
	assert.Equal(t, "ada-lovelace", span.Slug)
	assert.Equal(t, "u1", span.OwnerID)
	assert.Equal(t, "u1", span.UpdaterID)

	versions, err := store.FindVersionsBySpan(ctx, span.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, 1, versions[0].Version)
	assert.Equal(t, entities.InitialVersionSummary, versions[0].ChangeSummary)
}

func TestSpanCreateSlugCollision(t *testing.T) {
	ctx := context.Background()
	_, svc := spanFixture(t)
	owner := &entities.User{ID: "u1"}

	first, err := svc.Create(ctx, personInput("Ada Lovelace"), owner)
	require.NoError(t, err)
	second, err := svc.Create(ctx, personInput("Ada Lovelace"), owner)
	require.NoError(t, err)

	assert.Equal(t, "ada-lovelace", first.Slug)
	assert.Equal(t, "ada-lovelace-2", second.Slug)
}

func TestSpanCreateValidation(t *testing.T) {
	ctx := context.Background()
	_, svc := spanFixture(t)
	owner := &entities.User{ID: "u1"}

	_, err := svc.Create(ctx, SpanInput{Type: entities.TypePerson, AccessLevel: entities.AccessPublic}, owner)
	assert.ErrorContains(t, err, "name is required")

	_, err = svc.Create(ctx, SpanInput{Name: "X", Type: "starship", AccessLevel: entities.AccessPublic}, owner)
	assert.ErrorContains(t, err, "unknown span type")

	_, err = svc.Create(ctx, SpanInput{Name: "X", Type: entities.TypePerson, AccessLevel: "secret"}, owner)
	assert.ErrorContains(t, err, "unknown access level")

	bad := personInput("X")
	bad.Start = entities.FlexDate{Year: 1900, Day: 4} // day without month
	_, err = svc.Create(ctx, bad, owner)
	assert.ErrorContains(t, err, "temporal bounds")

	_, err = svc.Create(ctx, personInput("X"), nil)
	assert.ErrorContains(t, err, "owner is required")
}

func TestSpanUpdateRecordsVersion(t *testing.T) {
	ctx := context.Background()
	store, svc := spanFixture(t)
	owner := &entities.User{ID: "u1"}
	editor := &entities.User{ID: "u2", IsAdmin: true}

	span, err := svc.Create(ctx, personInput("Ada Lovelace"), owner)
	require.NoError(t, err)

	input := personInput("Ada King")
	input.Description = "Mathematician and writer"
	updated, err := svc.Update(ctx, span.ID, input, editor)
	require.NoError(t, err)
	assert.Equal(t, "u2", updated.UpdaterID)
	assert.Equal(t, "u1", updated.OwnerID)
	assert.Equal(t, span.Slug, updated.Slug, "slug stays stable across renames")

	versions, err := store.FindVersionsBySpan(ctx, span.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, "Name changed, Description updated", versions[1].ChangeSummary)
}

func TestSpanUpdateUnknown(t *testing.T) {
	ctx := context.Background()
	_, svc := spanFixture(t)

	_, err := svc.Update(ctx, "ghost", personInput("X"), &entities.User{ID: "u1"})
	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func TestSpanDeleteCascadesVersions(t *testing.T) {
	ctx := context.Background()
	store, svc := spanFixture(t)
	owner := &entities.User{ID: "u1"}

	span, err := svc.Create(ctx, personInput("Ada Lovelace"), owner)
	require.NoError(t, err)

	input := personInput("Ada King")
	_, err = svc.Update(ctx, span.ID, input, owner)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, span.ID, owner))

	got, err := svc.Get(ctx, span.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	versions, err := store.FindVersionsBySpan(ctx, span.ID)
	require.NoError(t, err)
	assert.Empty(t, versions, "versions do not outlive their span")
}

func TestSpanGrantAuthority(t *testing.T) {
	ctx := context.Background()
	store, svc := spanFixture(t)
	owner := &entities.User{ID: "u1"}

	input := personInput("Diary")
	input.AccessLevel = entities.AccessShared
	span, err := svc.Create(ctx, input, owner)
	require.NoError(t, err)

	err = svc.Grant(ctx, span.ID, "friend", &entities.User{ID: "stranger"})
	assert.ErrorContains(t, err, "only the owner or an admin")

	require.NoError(t, svc.Grant(ctx, span.ID, "friend", owner))
	granted, err := store.HasGrant(ctx, span.ID, "friend")
	require.NoError(t, err)
	assert.True(t, granted)

	require.NoError(t, svc.Revoke(ctx, span.ID, "friend", &entities.User{ID: "root", IsAdmin: true}))
	granted, err = store.HasGrant(ctx, span.ID, "friend")
	require.NoError(t, err)
	assert.False(t, granted)
}
