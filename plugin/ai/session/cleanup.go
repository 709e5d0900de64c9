package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultMaxIdle is how long a session may sit unused before it is dropped.
	DefaultMaxIdle = 2 * time.Hour
	// DefaultCleanupInterval is the default interval between cleanup runs.
	DefaultCleanupInterval = 10 * time.Minute
)

// CleanupConfig holds configuration for the cleanup job.
type CleanupConfig struct {
	MaxIdle         time.Duration // Idle time after which a session expires (default: 2h)
	CleanupInterval time.Duration // Interval between cleanup runs (default: 10m)
}

// DefaultCleanupConfig returns the default cleanup configuration.
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		MaxIdle:         DefaultMaxIdle,
		CleanupInterval: DefaultCleanupInterval,
	}
}

// SessionCleanupJob handles periodic cleanup of idle sessions.
type SessionCleanupJob struct {
	sessionSvc SessionService
	config     CleanupConfig

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	done     chan struct{}
}

// NewSessionCleanupJob creates a new cleanup job.
func NewSessionCleanupJob(svc SessionService, config CleanupConfig) *SessionCleanupJob {
	if config.MaxIdle <= 0 {
		config.MaxIdle = DefaultMaxIdle
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultCleanupInterval
	}

	return &SessionCleanupJob{
		sessionSvc: svc,
		config:     config,
	}
}

// Start begins the periodic cleanup job.
// This method is non-blocking and starts the cleanup in a goroutine.
func (j *SessionCleanupJob) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.running {
		return nil // Already running
	}

	j.running = true
	j.stopChan = make(chan struct{})
	j.done = make(chan struct{})

	go j.run(ctx, j.stopChan, j.done)

	slog.Info("session cleanup job started",
		"max_idle", j.config.MaxIdle,
		"interval", j.config.CleanupInterval)

	return nil
}

// Stop stops the cleanup job and waits for the loop to exit.
func (j *SessionCleanupJob) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	close(j.stopChan)
	done := j.done
	j.running = false
	j.mu.Unlock()

	<-done
	slog.Info("session cleanup job stopped")
}

// RunOnce executes a single cleanup run immediately.
func (j *SessionCleanupJob) RunOnce(ctx context.Context) (int64, error) {
	return j.cleanup(ctx)
}

func (j *SessionCleanupJob) run(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(j.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if deleted, err := j.cleanup(ctx); err != nil {
				slog.Error("session cleanup failed", "error", err)
			} else if deleted > 0 {
				slog.Info("session cleanup completed", "deleted", deleted)
			}
		}
	}
}

func (j *SessionCleanupJob) cleanup(ctx context.Context) (int64, error) {
	return j.sessionSvc.CleanupExpired(ctx, j.config.MaxIdle)
}

// IsRunning returns whether the cleanup job is currently running.
func (j *SessionCleanupJob) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}
