package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spanlab/span-core/internal/domain/entities"
	"github.com/spanlab/span-core/internal/domain/mocks"
)

func TestConnectionTypeLoadDefaults(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewStore()
	svc := NewConnectionTypeService(store)

	require.NoError(t, svc.LoadDefaults(ctx))
	types, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, types, len(entities.DefaultConnectionTypes))

	// Idempotent.
	require.NoError(t, svc.LoadDefaults(ctx))
	types, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, types, len(entities.DefaultConnectionTypes))
}

func TestConnectionTypeAdd(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewStore()
	svc := NewConnectionTypeService(store)

	err := svc.Add(ctx, entities.ConnectionType{
		Name:             "Rivalry",
		ForwardPredicate: "was the rival of",
		InversePredicate: "was the rival of",
	})
	require.NoError(t, err)
	assert.True(t, svc.IsValid(ctx, "rivalry"))

	err = svc.Add(ctx, entities.ConnectionType{
		Name:             "rivalry",
		ForwardPredicate: "x",
		InversePredicate: "y",
	})
	assert.ErrorContains(t, err, "already exists")

	err = svc.Add(ctx, entities.ConnectionType{Name: "Bad Name!", ForwardPredicate: "x", InversePredicate: "y"})
	assert.ErrorContains(t, err, "invalid type name")

	err = svc.Add(ctx, entities.ConnectionType{Name: "nopredicates"})
	assert.ErrorContains(t, err, "predicates are required")
}

func TestConnectionTypeRemoveGuards(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewStore()
	svc := NewConnectionTypeService(store)
	require.NoError(t, svc.LoadDefaults(ctx))

	err := svc.Remove(ctx, "family")
	assert.ErrorContains(t, err, "default")

	require.NoError(t, svc.Add(ctx, entities.ConnectionType{
		Name:             "rivalry",
		ForwardPredicate: "was the rival of",
		InversePredicate: "was the rival of",
	}))
	store.Connections["c1"] = &entities.Connection{ID: "c1", ParentID: "a", ChildID: "b", TypeID: "rivalry", ConnectionSpanID: "cs"}

	err = svc.Remove(ctx, "rivalry")
	assert.ErrorIs(t, err, entities.ErrTypeInUse)

	delete(store.Connections, "c1")
	require.NoError(t, svc.Remove(ctx, "rivalry"))
	assert.False(t, svc.IsValid(ctx, "rivalry"))

	err = svc.Remove(ctx, "rivalry")
	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func TestConnectionTypeValidNamesSorted(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewStore()
	svc := NewConnectionTypeService(store)
	require.NoError(t, svc.LoadDefaults(ctx))

	names, err := svc.ValidNames(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, names)
	for i := 1; i < len(names); i++ {
		assert.Less(t, names[i-1], names[i])
	}
}

func TestSpanTypeRegistry(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewStore()
	svc := NewSpanTypeService(store)
	require.NoError(t, svc.LoadDefaults(ctx))

	assert.True(t, svc.IsValid(ctx, entities.TypePerson))
	assert.False(t, svc.IsValid(ctx, "spacecraft"))

	require.NoError(t, svc.Add(ctx, "spacecraft", "Vehicles that go to space"))
	assert.True(t, svc.IsValid(ctx, "spacecraft"))

	err := svc.Remove(ctx, entities.TypePerson)
	assert.ErrorContains(t, err, "default")

	store.Spans["v"] = &entities.Span{ID: "v", Name: "Voyager", Type: "spacecraft"}
	err = svc.Remove(ctx, "spacecraft")
	assert.ErrorIs(t, err, entities.ErrTypeInUse)

	delete(store.Spans, "v")
	require.NoError(t, svc.Remove(ctx, "spacecraft"))
}
