package repository_test

import (
	"context"
	"errors"
	"testing"

	"bigvyapaar/internal/models"
	"bigvyapaar/internal/repository"
	"bigvyapaar/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codeOf(err error) string {
	return models.ErrorCode(err)
}

func TestUserRepository(t *testing.T) {
	stores := testutil.NewSQLiteStores(t)
	repo := stores.Users
	ctx := context.Background()

	testutil.SeedUser(t, repo, "u1", "asha")

	t.Run("GetByID", func(t *testing.T) {
		u, err := repo.GetByID(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "asha", u.Username)
	})

	t.Run("GetByIDMissing", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "missing")
		assert.Equal(t, models.CodeNotFound, codeOf(err))
	})

	t.Run("CreateDuplicate", func(t *testing.T) {
		err := repo.Create(ctx, &models.User{ID: "u1"})
		assert.Equal(t, models.CodeConflict, codeOf(err))
	})

	t.Run("Update", func(t *testing.T) {
		u, err := repo.Update(ctx, "u1", func(u *models.User) error {
			u.TradeRequestSent = append(u.TradeRequestSent, "t1")
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"t1"}, u.TradeRequestSent)
	})

	t.Run("UpdateNoChange", func(t *testing.T) {
		u, err := repo.Update(ctx, "u1", func(u *models.User) error {
			u.Username = "changed"
			return repository.ErrNoChange
		})
		require.NoError(t, err)
		assert.Equal(t, "changed", u.Username)

		stored, _ := repo.GetByID(ctx, "u1")
		assert.Equal(t, "asha", stored.Username)
	})

	t.Run("UpdateCallbackAppErrorPassesThrough", func(t *testing.T) {
		_, err := repo.Update(ctx, "u1", func(*models.User) error {
			return models.NewConflictError("Trade request already sent")
		})
		var appErr *models.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "Trade request already sent", appErr.Message)
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		_, err := repo.Update(ctx, "missing", func(*models.User) error { return nil })
		assert.Equal(t, models.CodeNotFound, codeOf(err))
	})
}

func TestProductRepository(t *testing.T) {
	stores, _ := testutil.NewRedisStores(t)
	repo := stores.Products
	ctx := context.Background()

	testutil.SeedProduct(t, repo, "p1", "u1", nil, nil)
	testutil.SeedProduct(t, repo, "p2", "u2", nil, nil)

	t.Run("List", func(t *testing.T) {
		all, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, "p2"))
		err := repo.Delete(ctx, "p2")
		assert.Equal(t, models.CodeNotFound, codeOf(err))
	})

	t.Run("GetByIDMissingMessage", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "p2")
		var appErr *models.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "Product not found", appErr.Message)
	})
}

func TestChatRepository(t *testing.T) {
	stores := testutil.NewSQLiteStores(t)
	repo := stores.Chats
	ctx := context.Background()

	chat := &models.Chat{
		ID:       "c1",
		User1:    models.Participant{ID: "u1", Username: "asha"},
		User2:    models.Participant{ID: "u2", Username: "ravi"},
		Messages: []models.Message{},
	}
	require.NoError(t, repo.Create(ctx, chat))

	got, err := repo.Update(ctx, "c1", func(c *models.Chat) error {
		c.Messages = append(c.Messages, models.Message{Timestamp: 1, Content: "hi", SentBy1: true})
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got.Messages, 1)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "hi", all[0].Messages[0].Content)
}

func TestPhoneIndexRepository(t *testing.T) {
	stores := testutil.NewSQLiteStores(t)
	repo := stores.Phones
	ctx := context.Background()

	require.NoError(t, repo.Reserve(ctx, "+911234", "u1"))
	assert.Equal(t, models.CodeConflict, codeOf(repo.Reserve(ctx, "+911234", "u2")))

	id, err := repo.Lookup(ctx, "+911234")
	require.NoError(t, err)
	assert.Equal(t, "u1", id)

	require.NoError(t, repo.Release(ctx, "+911234"))
	require.NoError(t, repo.Release(ctx, "+911234"))
	_, err = repo.Lookup(ctx, "+911234")
	assert.Equal(t, models.CodeNotFound, codeOf(err))
}
