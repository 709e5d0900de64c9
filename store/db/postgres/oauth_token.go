package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hrygo/rift/store"
)

func (d *DB) UpsertOAuthToken(ctx context.Context, upsert *store.OAuthToken) (*store.OAuthToken, error) {
	stmt := `INSERT INTO oauth_token (provider, access_token, refresh_token, token_type, expiry_ts, scopes, updated_ts)
		VALUES (` + placeholder(1) + `, ` + placeholder(2) + `, ` + placeholder(3) + `, ` + placeholder(4) + `, ` + placeholder(5) + `, ` + placeholder(6) + `, ` + placeholder(7) + `)
		ON CONFLICT (provider) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = CASE WHEN EXCLUDED.refresh_token = '' THEN oauth_token.refresh_token ELSE EXCLUDED.refresh_token END,
			token_type = EXCLUDED.token_type,
			expiry_ts = EXCLUDED.expiry_ts,
			scopes = CASE WHEN EXCLUDED.scopes = '' THEN oauth_token.scopes ELSE EXCLUDED.scopes END,
			updated_ts = EXCLUDED.updated_ts
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
	query := `SELECT provider, access_token, refresh_token, token_type, expiry_ts, scopes, updated_ts FROM oauth_token WHERE provider = ` + placeholder(1)

	result := &store.OAuthToken{}
	err := d.db.QueryRowContext(ctx, query, find.Provider).
		Scan(&result.Provider, &result.AccessToken, &result.RefreshToken, &result.TokenType, &result.ExpiryTs, &result.Scopes, &result.UpdatedTs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found, return nil without error
		}
		return nil, fmt.Errorf("failed to get oauth_token: %w", err)
	}
	return result, nil
}

func (d *DB) DeleteOAuthToken(ctx context.Context, delete *store.DeleteOAuthToken) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM oauth_token WHERE provider = `+placeholder(1), delete.Provider); err != nil {
		return fmt.Errorf("failed to delete oauth_token: %w", err)
	}
	return nil
}
