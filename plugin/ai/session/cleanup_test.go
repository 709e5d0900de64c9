package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSessionCleanupJob(t *testing.T) {
	ctx := context.Background()

	t.Run("NewSessionCleanupJob_DefaultConfig", func(t *testing.T) {
		job := NewSessionCleanupJob(NewMockSessionService(nil), CleanupConfig{})

		assert.Equal(t, DefaultMaxIdle, job.config.MaxIdle)
		assert.Equal(t, DefaultCleanupInterval, job.config.CleanupInterval)
	})

	t.Run("NewSessionCleanupJob_CustomConfig", func(t *testing.T) {
		job := NewSessionCleanupJob(NewMockSessionService(nil), CleanupConfig{
			MaxIdle:         time.Minute,
			CleanupInterval: time.Hour,
		})

		assert.Equal(t, time.Minute, job.config.MaxIdle)
		assert.Equal(t, time.Hour, job.config.CleanupInterval)
	})

	t.Run("RunOnce_CleansIdleSessions", func(t *testing.T) {
		now := time.Date(2026, 1, 27, 10, 0, 0, 0, time.UTC)
		mock := NewMockSessionService(func() time.Time { return now })
		mock.Put(NewState("old-session", now.Add(-3*time.Hour)))
		mock.Put(NewState("recent-session", now.Add(-time.Minute)))

		job := NewSessionCleanupJob(mock, CleanupConfig{MaxIdle: time.Hour})
		deleted, err := job.RunOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)

		list, err := mock.ListSessions(ctx, 0)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "recent-session", list[0].SessionID)
	})

	t.Run("RunOnce_PropagatesError", func(t *testing.T) {
		mock := NewMockSessionService(nil)
		mock.Err = assert.AnError

		_, err := NewSessionCleanupJob(mock, CleanupConfig{}).RunOnce(ctx)
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("StartStop_ManagesRunningState", func(t *testing.T) {
		job := NewSessionCleanupJob(NewMockSessionService(nil), CleanupConfig{
			CleanupInterval: time.Hour,
		})
		assert.False(t, job.IsRunning())

		require.NoError(t, job.Start(ctx))
		assert.True(t, job.IsRunning())

		// Start again (should be idempotent)
		require.NoError(t, job.Start(ctx))

		job.Stop()
		assert.False(t, job.IsRunning())

		// Stop again (should be idempotent)
		job.Stop()
	})

	t.Run("Ticker_RunsCleanup", func(t *testing.T) {
		mock := NewMockSessionService(nil)
		job := NewSessionCleanupJob(mock, CleanupConfig{
			MaxIdle:         time.Hour,
			CleanupInterval: 5 * time.Millisecond,
		})
		require.NoError(t, job.Start(ctx))
		defer job.Stop()

		assert.Eventually(t, func() bool {
			for _, c := range mock.Calls() {
				if c == "CleanupExpired" {
					return true
				}
			}
			return false
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("DefaultCleanupConfig_ReturnsDefaults", func(t *testing.T) {
		config := DefaultCleanupConfig()

		assert.Equal(t, DefaultMaxIdle, config.MaxIdle)
		assert.Equal(t, DefaultCleanupInterval, config.CleanupInterval)
	})
}
