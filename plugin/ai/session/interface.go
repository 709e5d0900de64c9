// Package session holds per-session router state: the email draft, the last
// result listing and the follow-up register. State lives in memory only and
// is dropped when the process exits.
package session

import (
	"context"
	"time"
)

// SessionService defines the session state store interface.
type SessionService interface {
	// LoadState returns the state for sessionID, creating an empty one when
	// the id is unknown. An empty sessionID allocates a new id.
	LoadState(ctx context.Context, sessionID string) (*State, error)

	// DeleteState drops a session. Unknown ids are not an error.
	DeleteState(ctx context.Context, sessionID string) error

	// ListSessions lists sessions, most recently used first.
	ListSessions(ctx context.Context, limit int) ([]SessionSummary, error)

	// CleanupExpired drops sessions idle for longer than maxIdle.
	CleanupExpired(ctx context.Context, maxIdle time.Duration) (int64, error)
}

// SessionSummary represents a session summary.
type SessionSummary struct {
	SessionID string `json:"session_id"`
	Phase     Phase  `json:"phase"`
	Mode      Mode   `json:"mode,omitempty"`
	HasDraft  bool   `json:"has_draft"`
	Results   int    `json:"results"`
	UpdatedAt int64  `json:"updated_at"`
}
