package store

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
)

// DefaultHistoryLimit is used when FindPromptHistory.Limit is not set.
const DefaultHistoryLimit = 10

// PromptHistory is one routed prompt and the envelope type it produced.
type PromptHistory struct {
	// ID is a ULID, so lexical order is creation order.
	ID         string
	SessionID  string
	Prompt     string
	ResultType string
	Response   string
	CreatedTs  int64
}

var (
	entropyMu sync.Mutex
	// Monotonic within a millisecond so ids stay ordered under bursts.
	entropy = ulid.Monotonic(rand.Reader, 0)
)

func newHistoryID(now time.Time) (string, error) {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	id, err := ulid.New(ulid.Timestamp(now), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

type FindPromptHistory struct {
	SessionID *string
	Limit     int
}

// CreatePromptHistory stores create, filling ID and CreatedTs when empty.
func (s *Store) CreatePromptHistory(ctx context.Context, create *PromptHistory) (*PromptHistory, error) {
	if create == nil {
		return nil, errors.New("history is nil")
	}
	now := time.Now()
	if create.CreatedTs == 0 {
		create.CreatedTs = now.Unix()
	}
	if create.ID == "" {
		id, err := newHistoryID(now)
		if err != nil {
			return nil, errors.Wrap(err, "failed to generate history id")
		}
		create.ID = id
	}
	return s.driver.CreatePromptHistory(ctx, create)
}

// ListPromptHistory returns the newest rows first.
func (s *Store) ListPromptHistory(ctx context.Context, find *FindPromptHistory) ([]*PromptHistory, error) {
	if find == nil {
		find = &FindPromptHistory{}
	}
	if find.Limit <= 0 {
		find.Limit = DefaultHistoryLimit
	}
	return s.driver.ListPromptHistory(ctx, find)
}
