package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/rift/internal/profile"
	"github.com/hrygo/rift/store"
	"github.com/hrygo/rift/store/db"
)

func newTestingStore(t *testing.T) *store.Store {
	t.Helper()
	p := &profile.Profile{
		Mode:   "dev",
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "rift_test.db"),
	}
	driver, err := db.NewDBDriver(p)
	require.NoError(t, err)
	s := store.New(driver, p)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := newTestingStore(t)
	ctx := context.Background()

	initialized, err := s.GetDriver().IsInitialized(ctx)
	require.NoError(t, err)
	assert.True(t, initialized)
	require.NoError(t, s.Migrate(ctx))
}

func TestPromptHistory(t *testing.T) {
	s := newTestingStore(t)
	ctx := context.Background()

	prompts := []string{"one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten", "eleven", "twelve"}
	for i, p := range prompts {
		session := "a"
		if i%2 == 1 {
			session = "b"
		}
		h, err := s.CreatePromptHistory(ctx, &store.PromptHistory{SessionID: session, Prompt: p, ResultType: "chat"})
		require.NoError(t, err)
		assert.NotEmpty(t, h.ID)
		assert.NotZero(t, h.CreatedTs)
	}

	t.Run("default limit newest first", func(t *testing.T) {
		list, err := s.ListPromptHistory(ctx, nil)
		require.NoError(t, err)
		require.Len(t, list, store.DefaultHistoryLimit)
		assert.Equal(t, "twelve", list[0].Prompt)
		assert.Equal(t, "three", list[len(list)-1].Prompt)
	})

	t.Run("by session", func(t *testing.T) {
		session := "b"
		list, err := s.ListPromptHistory(ctx, &store.FindPromptHistory{SessionID: &session, Limit: 3})
		require.NoError(t, err)
		require.Len(t, list, 3)
		for _, h := range list {
			assert.Equal(t, "b", h.SessionID)
		}
		assert.Equal(t, "twelve", list[0].Prompt)
	})
}

func TestOAuthToken(t *testing.T) {
	s := newTestingStore(t)
	ctx := context.Background()

	got, err := s.GetOAuthToken(ctx, &store.FindOAuthToken{Provider: "google"})
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = s.UpsertOAuthToken(ctx, &store.OAuthToken{
		Provider:     "google",
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		TokenType:    "Bearer",
		ExpiryTs:     100,
		Scopes:       "calendar gmail",
	})
	require.NoError(t, err)

	// A refresh response without a refresh token keeps the stored one.
	updated, err := s.UpsertOAuthToken(ctx, &store.OAuthToken{
		Provider:    "google",
		AccessToken: "access-2",
		TokenType:   "Bearer",
		ExpiryTs:    200,
	})
	require.NoError(t, err)
	assert.Equal(t, "access-2", updated.AccessToken)
	assert.Equal(t, "refresh-1", updated.RefreshToken)
	assert.Equal(t, "calendar gmail", updated.Scopes)
	assert.Equal(t, int64(200), updated.ExpiryTs)

	require.NoError(t, s.DeleteOAuthToken(ctx, &store.DeleteOAuthToken{Provider: "google"}))
	got, err = s.GetOAuthToken(ctx, &store.FindOAuthToken{Provider: "google"})
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = s.UpsertOAuthToken(ctx, &store.OAuthToken{})
	assert.Error(t, err)
}
