package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeidea/internal/models"
)

func TestProfileRepository_Upsert(t *testing.T) {
	repo := NewProfileRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &models.Profile{ID: "user-1", Email: "a@example.com", NotifyEmail: true}))
	require.NoError(t, repo.Upsert(ctx, &models.Profile{
		ID:             "user-1",
		Email:          "b@example.com",
		TelegramChatID: sql.NullInt64{Int64: 42, Valid: true},
		NotifyTelegram: true,
	}))

	p, err := repo.FindByID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "b@example.com", p.Email)
	assert.Equal(t, int64(42), p.TelegramChatID.Int64)
	assert.True(t, p.NotifyTelegram)
	assert.False(t, p.NotifyEmail)
}

func TestProfileRepository_UpsertEmailOptOut(t *testing.T) {
	repo := NewProfileRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &models.Profile{ID: "new-user", Email: "n@example.com", NotifyEmail: false}))
	p, err := repo.FindByID(ctx, "new-user")
	require.NoError(t, err)
	assert.False(t, p.NotifyEmail, "new profile")

	require.NoError(t, repo.Upsert(ctx, &models.Profile{ID: "user-2", Email: "a@example.com", NotifyEmail: true}))
	p, err = repo.FindByID(ctx, "user-2")
	require.NoError(t, err)
	assert.True(t, p.NotifyEmail)

	require.NoError(t, repo.Upsert(ctx, &models.Profile{ID: "user-2", Email: "a@example.com", NotifyEmail: false}))
	p, err = repo.FindByID(ctx, "user-2")
	require.NoError(t, err)
	assert.False(t, p.NotifyEmail, "existing profile")
}
