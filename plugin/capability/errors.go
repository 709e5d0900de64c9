package capability

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

var (
	// ErrAuthRequired means no valid or refreshable token exists for a provider.
	ErrAuthRequired = errors.New("auth required")
	// ErrNoActiveDevice means Spotify has no device to play on.
	ErrNoActiveDevice = errors.New("no active device")
	// ErrNotFound means the requested entity does not exist.
	ErrNotFound = errors.New("not found")
)

// Provider names an OAuth provider.
type Provider string

const (
	ProviderGoogle  Provider = "google"
	ProviderSpotify Provider = "spotify"
)

// AuthError reports which provider needs the user to sign in.
type AuthError struct {
	Provider Provider
	Err      error
}

// AuthRequired returns an AuthError for p.
func AuthRequired(p Provider, cause error) error {
	return &AuthError{Provider: p, Err: cause}
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: auth required: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s: auth required", e.Provider)
}

func (e *AuthError) Is(target error) bool { return target == ErrAuthRequired }

func (e *AuthError) Unwrap() error { return e.Err }

// AuthProvider returns the provider of an auth error in err's chain.
func AuthProvider(err error) (Provider, bool) {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Provider, true
	}
	return "", false
}

// ProviderError is a failed downstream API call.
type ProviderError struct {
	Service string
	Op      string
	Status  int
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Service, e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Service, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsTransient reports whether err is worth retrying: rate limits, 5xx
// responses and network timeouts.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		if pe.Status == http.StatusTooManyRequests || pe.Status >= 500 {
			return true
		}
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
