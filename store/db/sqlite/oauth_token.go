package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hrygo/rift/store"
)

func (d *DB) UpsertOAuthToken(ctx context.Context, upsert *store.OAuthToken) (*store.OAuthToken, error) {
	stmt := `INSERT INTO oauth_token (provider, access_token, refresh_token, token_type, expiry_ts, scopes, updated_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (provider) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = CASE WHEN excluded.refresh_token = '' THEN oauth_token.refresh_token ELSE excluded.refresh_token END,
			token_type = excluded.token_type,
			expiry_ts = excluded.expiry_ts,
			scopes = CASE WHEN excluded.scopes = '' THEN oauth_token.scopes ELSE excluded.scopes END,
			updated_ts = excluded.updated_ts
		RETURNING provider, access_token, refresh_token, token_type, expiry_ts, scopes, updated_ts`

	result := &store.OAuthToken{}
	err := d.db.QueryRowContext(ctx, stmt,
		upsert.Provider, upsert.AccessToken, upsert.RefreshToken, upsert.TokenType, upsert.ExpiryTs, upsert.Scopes, upsert.UpdatedTs,
	).Scan(&result.Provider, &result.AccessToken, &result.RefreshToken, &result.TokenType, &result.ExpiryTs, &result.Scopes, &result.UpdatedTs)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert oauth_token: %w", err)
	}
	return result, nil
}

func (d *DB) GetOAuthToken(ctx context.Context, find *store.FindOAuthToken) (*store.OAuthToken, error) {
	query := `SELECT provider, access_token, refresh_token, token_type, expiry_ts, scopes, updated_ts FROM oauth_token WHERE provider = ?`

	result := &store.OAuthToken{}
	err := d.db.QueryRowContext(ctx, query, find.Provider).
		Scan(&result.Provider, &result.AccessToken, &result.RefreshToken, &result.TokenType, &result.ExpiryTs, &result.Scopes, &result.UpdatedTs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get oauth_token: %w", err)
	}
	return result, nil
}

func (d *DB) DeleteOAuthToken(ctx context.Context, delete *store.DeleteOAuthToken) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM oauth_token WHERE provider = ?`, delete.Provider); err != nil {
		return fmt.Errorf("failed to delete oauth_token: %w", err)
	}
	return nil
}
