// Package oauth keeps provider OAuth2 tokens in the store and hands out
// token sources that persist refreshed tokens. A missing token, or one the
// provider refuses to refresh, surfaces as capability.ErrAuthRequired.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/hrygo/rift/plugin/capability"
	"github.com/hrygo/rift/store"
)

// TokenStore persists tokens per provider. *store.Store implements it.
type TokenStore interface {
	GetOAuthToken(ctx context.Context, find *store.FindOAuthToken) (*store.OAuthToken, error)
	UpsertOAuthToken(ctx context.Context, upsert *store.OAuthToken) (*store.OAuthToken, error)
	DeleteOAuthToken(ctx context.Context, delete *store.DeleteOAuthToken) error
}

// Ensure *store.Store implements TokenStore
var _ TokenStore = (*store.Store)(nil)

var errNoToken = errors.New("no token stored")

// Manager owns the token of one provider.
type Manager struct {
	provider capability.Provider
	config   *oauth2.Config
	store    TokenStore

	mu    sync.Mutex
	token *oauth2.Token
}

// NewManager creates a Manager for provider.
func NewManager(provider capability.Provider, config *oauth2.Config, store TokenStore) *Manager {
	return &Manager{provider: provider, config: config, store: store}
}

// Provider returns the provider the manager serves.
func (m *Manager) Provider() capability.Provider {
	return m.provider
}

// AuthCodeURL returns the consent page URL. Offline access is requested so
// the provider issues a refresh token.
func (m *Manager) AuthCodeURL(state string) string {
	return m.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a token and persists it.
func (m *Manager) Exchange(ctx context.Context, code string) error {
	start := time.Now()
	tok, err := m.config.Exchange(ctx, code)
	if err != nil {
		slog.Warn("oauth exchange failed", "provider", m.provider, "error", err, "latency_ms", time.Since(start).Milliseconds())
		return fmt.Errorf("%s: exchange code: %w", m.provider, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.save(ctx, tok); err != nil {
		return err
	}
	m.token = tok
	slog.Info("oauth token stored", "provider", m.provider, "latency_ms", time.Since(start).Milliseconds())
	return nil
}

// EnsureAuth returns an error wrapping capability.ErrAuthRequired when no
// valid or refreshable token exists.
func (m *Manager) EnsureAuth(ctx context.Context) error {
	_, err := m.TokenSource(ctx).Token()
	return err
}

// Revoke forgets the stored token.
func (m *Manager) Revoke(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = nil
	return m.store.DeleteOAuthToken(ctx, &store.DeleteOAuthToken{Provider: string(m.provider)})
}

// TokenSource returns a source that loads the stored token, refreshes it
// when expired and writes refreshed tokens back to the store.
func (m *Manager) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &persistingSource{ctx: ctx, m: m}
}

// Client returns an HTTP client authorized with the provider token.
func (m *Manager) Client(ctx context.Context) *http.Client {
	return oauth2.NewClient(ctx, m.TokenSource(ctx))
}

type persistingSource struct {
	ctx context.Context
	m   *Manager
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token == nil {
		tok, err := m.load(s.ctx)
		if err != nil {
			return nil, err
		}
		if tok == nil {
			return nil, capability.AuthRequired(m.provider, errNoToken)
		}
		m.token = tok
	}
	if m.token.Valid() {
		return m.token, nil
	}
	if m.token.RefreshToken == "" {
		return nil, capability.AuthRequired(m.provider, errors.New("token expired and cannot be refreshed"))
	}

	start := time.Now()
	fresh, err := m.config.TokenSource(s.ctx, m.token).Token()
	if err != nil {
		slog.Warn("oauth refresh failed", "provider", m.provider, "error", err, "latency_ms", time.Since(start).Milliseconds())
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			return nil, capability.AuthRequired(m.provider, err)
		}
		return nil, fmt.Errorf("%s: refresh token: %w", m.provider, err)
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = m.token.RefreshToken
	}
	if err := m.save(s.ctx, fresh); err != nil {
		// The fresh token still works for this process.
		slog.Error("failed to persist refreshed token", "provider", m.provider, "error", err)
	}
	m.token = fresh
	slog.Debug("oauth token refreshed", "provider", m.provider, "latency_ms", time.Since(start).Milliseconds())
	return fresh, nil
}

func (m *Manager) load(ctx context.Context) (*oauth2.Token, error) {
	row, err := m.store.GetOAuthToken(ctx, &store.FindOAuthToken{Provider: string(m.provider)})
	if err != nil {
		return nil, fmt.Errorf("%s: load token: %w", m.provider, err)
	}
	if row == nil {
		return nil, nil
	}
	tok := &oauth2.Token{
		AccessToken:  row.AccessToken,
		RefreshToken: row.RefreshToken,
		TokenType:    row.TokenType,
	}
	if row.ExpiryTs > 0 {
		tok.Expiry = time.Unix(row.ExpiryTs, 0)
	}
	return tok, nil
}

func (m *Manager) save(ctx context.Context, tok *oauth2.Token) error {
	row := &store.OAuthToken{
		Provider:     string(m.provider),
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Scopes:       strings.Join(m.config.Scopes, " "),
	}
	if !tok.Expiry.IsZero() {
		row.ExpiryTs = tok.Expiry.Unix()
	}
	if _, err := m.store.UpsertOAuthToken(ctx, row); err != nil {
		return fmt.Errorf("%s: save token: %w", m.provider, err)
	}
	return nil
}
