//go:build integration

package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-calendar/internal/database"
	"go-calendar/internal/model"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	ctx := context.Background()
	db, err := database.New(ctx, url, 4, 1)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(ctx))

	return db
}

func createUser(t *testing.T, repo *UserRepository) model.User {
	t.Helper()

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Name:         "Ada",
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestUserRepository_RefreshTokenLifecycle(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db.Pool)
	ctx := context.Background()
	user := createUser(t, repo)

	require.NoError(t, repo.SetRefreshToken(ctx, user.ID, "r1"))
	identity, err := repo.FindUserByValidRefreshToken(ctx, user.ID, "r1")
	require.NoError(t, err)
	assert.Equal(t, model.Identity{UserID: user.ID, Email: user.Email}, identity)

	require.NoError(t, repo.SetRefreshToken(ctx, user.ID, "r2"))
	_, err = repo.FindUserByValidRefreshToken(ctx, user.ID, "r1")
	assert.ErrorIs(t, err, model.ErrSessionNotFound)

	require.NoError(t, repo.ClearRefreshToken(ctx, user.ID))
	_, err = repo.FindUserByValidRefreshToken(ctx, user.ID, "r2")
	assert.ErrorIs(t, err, model.ErrSessionNotFound)

	stored, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.RefreshToken)
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db.Pool)
	user := createUser(t, repo)

	dup := user
	dup.ID = uuid.NewString()
	err := repo.Create(context.Background(), dup)
	assert.ErrorIs(t, err, model.ErrUserAlreadyExists)
}

func TestUserRepository_SetRefreshTokenUnknownUser(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db.Pool)

	err := repo.SetRefreshToken(context.Background(), uuid.NewString(), "r1")
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestEventRepository_CRUD(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db.Pool)
	events := NewEventRepository(db.Pool)
	ctx := context.Background()
	owner := createUser(t, users)

	start := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	event := model.Event{
		ID:        uuid.NewString(),
		Title:     "Standup",
		Start:     start,
		End:       start.Add(15 * time.Minute),
		UserID:    owner.ID,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, events.Create(ctx, event))

	found, err := events.FindByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, "Standup", found.Title)
	require.NotNil(t, found.User)
	assert.Equal(t, owner.Email, found.User.Email)

	found.Title = "Planning"
	require.NoError(t, events.Update(ctx, found))

	require.NoError(t, events.Delete(ctx, event.ID))
	_, err = events.FindByID(ctx, event.ID)
	assert.ErrorIs(t, err, model.ErrEventNotFound)
	assert.ErrorIs(t, events.Delete(ctx, event.ID), model.ErrEventNotFound)
}
