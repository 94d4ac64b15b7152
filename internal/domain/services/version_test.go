package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spanlab/span-core/internal/domain/entities"
	"github.com/spanlab/span-core/internal/domain/mocks"
)

func versionFixture(t *testing.T) (*mocks.Store, *VersionRecorder, *entities.Span) {
	t.Helper()
	store := mocks.NewStore()
	recorder := NewVersionRecorder(store)
	span := &entities.Span{
		ID:          "s1",
		Name:        "Ada Lovelace",
		Slug:        "ada-lovelace",
		Type:        entities.TypePerson,
		OwnerID:     "u1",
		UpdaterID:   "u1",
		AccessLevel: entities.AccessPublic,
		Start:       entities.FlexDate{Year: 1815, Month: 12, Day: 10},
	}
	return store, recorder, span
}

func TestRecordCreateWritesVersionOne(t *testing.T) {
	ctx := context.Background()
	_, recorder, span := versionFixture(t)

	v, err := recorder.RecordCreate(ctx, span, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, v.Version)
	assert.Equal(t, entities.InitialVersionSummary, v.ChangeSummary)
	assert.Equal(t, span.Name, v.Data.Name)
}

func TestRecordUpdateNumbersAreGapless(t *testing.T) {
	ctx := context.Background()
	_, recorder, span := versionFixture(t)

	_, err := recorder.RecordCreate(ctx, span, "u1")
	require.NoError(t, err)

	names := []string{"Ada King", "Ada, Countess of Lovelace", "Ada Lovelace"}
	for i, name := range names {
		span.Name = name
		v, err := recorder.RecordUpdate(ctx, span, "u1")
		require.NoError(t, err)
		assert.Equal(t, i+2, v.Version)
		assert.Equal(t, "Name changed", v.ChangeSummary)
	}

	history, err := recorder.History(ctx, span.ID)
	require.NoError(t, err)
	require.Len(t, history, 4)
	for i, v := range history {
		assert.Equal(t, i+1, v.Version)
	}
}

func TestRecordUpdateNoChangesWritesNothing(t *testing.T) {
	ctx := context.Background()
	store, recorder, span := versionFixture(t)

	_, err := recorder.RecordCreate(ctx, span, "u1")
	require.NoError(t, err)

	v, err := recorder.RecordUpdate(ctx, span, "u1")
	require.NoError(t, err)
	assert.Nil(t, v)

	count, err := store.CountVersions(ctx, span.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRecordUpdateWithoutCreate(t *testing.T) {
	ctx := context.Background()
	_, recorder, span := versionFixture(t)

	_, err := recorder.RecordUpdate(ctx, span, "u1")
	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func TestChangeSummaryWording(t *testing.T) {
	before := &entities.Span{Name: "Ada", Description: "old", Notes: "old", AccessLevel: entities.AccessPublic}

	tests := []struct {
		name   string
		mutate func(*entities.Span)
		want   string
	}{
		{"scalar field", func(s *entities.Span) { s.Name = "Ada King" }, "Name changed"},
		{"long text field", func(s *entities.Span) { s.Description = "new" }, "Description updated"},
		{"notes", func(s *entities.Span) { s.Notes = "new" }, "Notes updated"},
		{"access level", func(s *entities.Span) { s.AccessLevel = entities.AccessPrivate }, "Access level changed"},
		{"start date", func(s *entities.Span) { s.Start = entities.FlexDate{Year: 1815} }, "Start date changed"},
		{"metadata", func(s *entities.Span) {
			s.Metadata = &entities.Metadata{Subtype: entities.SubtypePhoto, Photo: &entities.PhotoMetadata{URL: "x"}}
		}, "Metadata changed"},
		{
			"several fields joined in config order",
			func(s *entities.Span) {
				s.Name = "Ada King"
				s.Description = "new"
			},
			"Name changed, Description updated",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			after := *before
			tt.mutate(&after)
			assert.Equal(t, tt.want, ChangeSummary(before, &after))
		})
	}
}

func TestConcurrentUpdatesNeverShareANumber(t *testing.T) {
	ctx := context.Background()
	_, recorder, span := versionFixture(t)

	_, err := recorder.RecordCreate(ctx, span, "u1")
	require.NoError(t, err)

	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			updated := *span
			updated.Notes = string(rune('a' + i))
			_, err := recorder.RecordUpdate(ctx, &updated, "u1")
			// A writer may exhaust its retries under heavy contention;
			// what it must never do is claim a duplicate number.
			if err != nil {
				assert.ErrorIs(t, err, entities.ErrVersionConflict)
			}
		}(i)
	}
	wg.Wait()

	history, err := recorder.History(ctx, span.ID)
	require.NoError(t, err)
	seen := make(map[int]bool)
	for _, v := range history {
		assert.False(t, seen[v.Version], "duplicate version %d", v.Version)
		seen[v.Version] = true
	}
	for i := 1; i <= len(history); i++ {
		assert.True(t, seen[i], "gap at version %d", i)
	}
}

func TestDiff(t *testing.T) {
	ctx := context.Background()
	_, recorder, span := versionFixture(t)

	_, err := recorder.RecordCreate(ctx, span, "u1")
	require.NoError(t, err)

	span.Name = "Ada King"
	span.Description = "Mathematician"
	_, err = recorder.RecordUpdate(ctx, span, "u1")
	require.NoError(t, err)

	summary, err := recorder.Diff(ctx, span.ID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "Name changed, Description updated", summary)

	_, err = recorder.Diff(ctx, span.ID, 1, 9)
	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func TestHistoryOfUnknownSpanIsEmpty(t *testing.T) {
	ctx := context.Background()
	_, recorder, _ := versionFixture(t)

	history, err := recorder.History(ctx, "ghost")
	require.NoError(t, err)
	assert.Empty(t, history)
}
