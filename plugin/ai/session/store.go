package session

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"
)

// memoryStore implements SessionService in process memory.
type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*State
	now      func() time.Time
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() SessionService {
	return newMemoryStore(time.Now)
}

func newMemoryStore(now func() time.Time) *memoryStore {
	return &memoryStore{
		sessions: make(map[string]*State),
		now:      now,
	}
}

// LoadState returns the state for sessionID, creating it when absent.
func (s *memoryStore) LoadState(_ context.Context, sessionID string) (*State, error) {
	if sessionID != "" {
		s.mu.RLock()
		st, ok := s.sessions[sessionID]
		s.mu.RUnlock()
		if ok {
			return st, nil
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sessionID == "" {
		sessionID = shortuuid.New()
	} else if st, ok := s.sessions[sessionID]; ok {
		return st, nil
	}

	st := NewState(sessionID, s.now())
	s.sessions[sessionID] = st
	slog.Debug("session created", "session_id", sessionID)
	return st, nil
}

// DeleteState drops a session.
func (s *memoryStore) DeleteState(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// ListSessions lists sessions, most recently used first.
func (s *memoryStore) ListSessions(_ context.Context, limit int) ([]SessionSummary, error) {
	s.mu.RLock()
	states := make([]*State, 0, len(s.sessions))
	for _, st := range s.sessions {
		states = append(states, st)
	}
	s.mu.RUnlock()

	summaries := make([]SessionSummary, 0, len(states))
	for _, st := range states {
		st.Lock()
		summaries = append(summaries, st.Summary())
		st.Unlock()
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].UpdatedAt != summaries[j].UpdatedAt {
			return summaries[i].UpdatedAt > summaries[j].UpdatedAt
		}
		return summaries[i].SessionID < summaries[j].SessionID
	})
	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

// CleanupExpired removes sessions idle for longer than maxIdle. Sessions in
// the middle of a turn are skipped.
func (s *memoryStore) CleanupExpired(_ context.Context, maxIdle time.Duration) (int64, error) {
	cutoff := s.now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, st := range s.sessions {
		if !st.mu.TryLock() {
			continue
		}
		expired := st.UpdatedAt.Before(cutoff)
		st.mu.Unlock()
		if expired {
			delete(s.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

// Ensure memoryStore implements SessionService
var _ SessionService = (*memoryStore)(nil)
