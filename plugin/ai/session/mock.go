package session

import (
	"context"
	"sync"
	"time"
)

// MockSessionService is a SessionService for tests. It stores state in
// memory, records calls and can be told to fail.
type MockSessionService struct {
	*memoryStore

	mu    sync.Mutex
	Err   error
	calls []string
}

// NewMockSessionService creates an empty mock whose clock is now.
func NewMockSessionService(now func() time.Time) *MockSessionService {
	if now == nil {
		now = time.Now
	}
	return &MockSessionService{memoryStore: newMemoryStore(now)}
}

func (m *MockSessionService) record(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, op)
	return m.Err
}

// Calls returns the operations invoked so far.
func (m *MockSessionService) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Put stores st directly, bypassing creation.
func (m *MockSessionService) Put(st *State) {
	m.memoryStore.mu.Lock()
	defer m.memoryStore.mu.Unlock()
	m.sessions[st.ID] = st
}

func (m *MockSessionService) LoadState(ctx context.Context, sessionID string) (*State, error) {
	if err := m.record("LoadState"); err != nil {
		return nil, err
	}
	return m.memoryStore.LoadState(ctx, sessionID)
}

func (m *MockSessionService) DeleteState(ctx context.Context, sessionID string) error {
	if err := m.record("DeleteState"); err != nil {
		return err
	}
	return m.memoryStore.DeleteState(ctx, sessionID)
}

func (m *MockSessionService) ListSessions(ctx context.Context, limit int) ([]SessionSummary, error) {
	if err := m.record("ListSessions"); err != nil {
		return nil, err
	}
	return m.memoryStore.ListSessions(ctx, limit)
}

func (m *MockSessionService) CleanupExpired(ctx context.Context, maxIdle time.Duration) (int64, error) {
	if err := m.record("CleanupExpired"); err != nil {
		return 0, err
	}
	return m.memoryStore.CleanupExpired(ctx, maxIdle)
}

// Ensure MockSessionService implements SessionService
var _ SessionService = (*MockSessionService)(nil)
