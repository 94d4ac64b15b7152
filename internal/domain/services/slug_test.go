package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spanlab/span-core/internal/domain/entities"
	"github.com/spanlab/span-core/internal/domain/mocks"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Ada Lovelace", "ada-lovelace"},
		{"  Ada   Lovelace  ", "ada-lovelace"},
		{"Café de Flore", "cafe-de-flore"},
		{"O'Brien & Sons, Ltd.", "o-brien-sons-ltd"},
		{"Dvořák", "dvorak"},
		{"---", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.name), tt.name)
	}
}

func TestUniqueSlugCollision(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewStore()
	store.Spans["s1"] = &entities.Span{ID: "s1", Slug: "ada-lovelace"}
	store.Spans["s2"] = &entities.Span{ID: "s2", Slug: "ada-lovelace-2"}

	slug, err := UniqueSlug(ctx, store, "Ada Lovelace")
	require.NoError(t, err)
	assert.Equal(t, "ada-lovelace-3", slug)
}

func TestUniqueSlugReservedWord(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewStore()

	slug, err := UniqueSlug(ctx, store, "Admin")
	require.NoError(t, err)
	assert.Equal(t, "admin-2", slug)
	assert.False(t, IsReservedSlug(slug))
}

func TestUniqueSlugEmptyName(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewStore()

	slug, err := UniqueSlug(ctx, store, "!!!")
	require.NoError(t, err)
	assert.Equal(t, "span", slug)
}
