package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spanlab/span-core/internal/domain/entities"
	"github.com/spanlab/span-core/internal/domain/mocks"
)

func userFixture(t *testing.T) (*mocks.Store, *UserService) {
	t.Helper()
	ctx := context.Background()
	store := mocks.NewStore()
	spanTypes := NewSpanTypeService(store)
	require.NoError(t, spanTypes.LoadDefaults(ctx))
	spans := NewSpanService(store, NewVersionRecorder(store), spanTypes)
	return store, NewUserService(store, spans)
}

func TestUserCreateWithPersonalSpan(t *testing.T) {
	ctx := context.Background()
	store, svc := userFixture(t)

	user, err := svc.Create(ctx, "ada@example.org", "Ada Lovelace", false)
	require.NoError(t, err)
	require.NotEmpty(t, user.PersonalSpanID)

	personal, err := store.FindSpanByID(ctx, user.PersonalSpanID)
	require.NoError(t, err)
	require.NotNil(t, personal)
	assert.Equal(t, user.ID, personal.OwnerID)
	assert.Equal(t, entities.TypePerson, personal.Type)
	assert.Equal(t, entities.AccessPrivate, personal.AccessLevel)
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	_, svc := userFixture(t)

	_, err := svc.Create(ctx, "ada@example.org", "", false)
	require.NoError(t, err)
	_, err = svc.Create(ctx, "ada@example.org", "", false)
	assert.ErrorContains(t, err, "already exists")
}

func TestAdminCannotDeleteOwnAccount(t *testing.T) {
	ctx := context.Background()
	_, svc := userFixture(t)

	admin, err := svc.Create(ctx, "root@example.org", "", true)
	require.NoError(t, err)

	err = svc.Delete(ctx, admin.ID, admin)
	assert.ErrorIs(t, err, entities.ErrAdminSelfDelete)
}

func TestUserSelfDeleteCascadesPersonalSpan(t *testing.T) {
	ctx := context.Background()
	store, svc := userFixture(t)

	user, err := svc.Create(ctx, "ada@example.org", "Ada Lovelace", false)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, user.ID, user))

	gone, err := svc.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	personal, err := store.FindSpanByID(ctx, user.PersonalSpanID)
	require.NoError(t, err)
	assert.Nil(t, personal)
}

func TestAdminCanDeleteOtherUsers(t *testing.T) {
	ctx := context.Background()
	_, svc := userFixture(t)

	admin, err := svc.Create(ctx, "root@example.org", "", true)
	require.NoError(t, err)
	user, err := svc.Create(ctx, "ada@example.org", "", false)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, user.ID, admin))

	err = svc.Delete(ctx, "ghost", admin)
	assert.ErrorIs(t, err, entities.ErrNotFound)
}
