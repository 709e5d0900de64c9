package oauth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hrygo/rift/plugin/capability"
)

// StateTTL bounds how long a consent page may stay open.
const StateTTL = 10 * time.Minute

var (
	// ErrUnknownProvider is returned for providers without a configured client.
	ErrUnknownProvider = errors.New("unknown oauth provider")
	// ErrInvalidState is returned when a callback state does not verify.
	ErrInvalidState = errors.New("invalid oauth state")
)

type stateClaims struct {
	Provider string `json:"provider"`
	jwt.RegisteredClaims
}

// Registry holds the managers of every configured provider and signs the
// OAuth state parameter, so a callback can be matched to its provider
// without server-side bookkeeping.
type Registry struct {
	managers map[capability.Provider]*Manager
	secret   []byte
	now      func() time.Time
}

// NewRegistry creates a registry. An empty secret is replaced by a random
// one, which invalidates pending consent pages on restart.
func NewRegistry(secret string, managers ...*Manager) *Registry {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		_, _ = rand.Read(key)
	}
	r := &Registry{
		managers: make(map[capability.Provider]*Manager, len(managers)),
		secret:   key,
		now:      time.Now,
	}
	for _, m := range managers {
		r.managers[m.Provider()] = m
	}
	return r
}

// Manager returns the manager of p.
func (r *Registry) Manager(p capability.Provider) (*Manager, bool) {
	m, ok := r.managers[p]
	return m, ok
}

// AuthURL returns the consent page URL of p with a signed state.
func (r *Registry) AuthURL(p capability.Provider) (string, error) {
	m, ok := r.managers[p]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownProvider, p)
	}
	now := r.now()
	claims := stateClaims{
		Provider: string(p),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(StateTTL)),
		},
	}
	state, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
	if err != nil {
		return "", fmt.Errorf("sign oauth state: %w", err)
	}
	return m.AuthCodeURL(state), nil
}

// Callback verifies state, exchanges code with the provider it names and
// persists the token.
func (r *Registry) Callback(ctx context.Context, state, code string) (capability.Provider, error) {
	var claims stateClaims
	_, err := jwt.ParseWithClaims(state, &claims, func(t *jwt.Token) (any, error) {
		return r.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(r.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	p := capability.Provider(claims.Provider)
	m, ok := r.managers[p]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownProvider, p)
	}
	if code == "" {
		return p, errors.New("missing authorization code")
	}
	return p, m.Exchange(ctx, code)
}
