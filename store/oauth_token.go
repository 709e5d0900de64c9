package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// OAuthToken is the persisted credential of one provider.
type OAuthToken struct {
	Provider     string
	AccessToken  string
	RefreshToken string
	TokenType    string
	// ExpiryTs is a unix timestamp; zero means the token does not expire.
	ExpiryTs  int64
	Scopes    string
	UpdatedTs int64
}

type FindOAuthToken struct {
	Provider string
}

type DeleteOAuthToken struct {
	Provider string
}

func (s *Store) UpsertOAuthToken(ctx context.Context, upsert *OAuthToken) (*OAuthToken, error) {
	if upsert == nil || upsert.Provider == "" {
		return nil, errors.New("provider is required")
	}
	upsert.UpdatedTs = time.Now().Unix()
	return s.driver.UpsertOAuthToken(ctx, upsert)
}

// GetOAuthToken returns nil, nil when no token is stored for the provider.
func (s *Store) GetOAuthToken(ctx context.Context, find *FindOAuthToken) (*OAuthToken, error) {
	if find == nil || find.Provider == "" {
		return nil, errors.New("provider is required")
	}
	return s.driver.GetOAuthToken(ctx, find)
}

func (s *Store) DeleteOAuthToken(ctx context.Context, delete *DeleteOAuthToken) error {
	if delete == nil || delete.Provider == "" {
		return errors.New("provider is required")
	}
	return s.driver.DeleteOAuthToken(ctx, delete)
}
