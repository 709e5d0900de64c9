package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// PromptHistory model related methods.
	CreatePromptHistory(ctx context.Context, create *PromptHistory) (*PromptHistory, error)
	ListPromptHistory(ctx context.Context, find *FindPromptHistory) ([]*PromptHistory, error)

	// OAuthToken model related methods.
	UpsertOAuthToken(ctx context.Context, upsert *OAuthToken) (*OAuthToken, error)
	GetOAuthToken(ctx context.Context, find *FindOAuthToken) (*OAuthToken, error)
	DeleteOAuthToken(ctx context.Context, delete *DeleteOAuthToken) error
}
