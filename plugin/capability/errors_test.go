package capability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestAuthError(t *testing.T) {
	err := fmt.Errorf("list events: %w", AuthRequired(ProviderGoogle, errors.New("token expired")))

	assert.ErrorIs(t, err, ErrAuthRequired)
	p, ok := AuthProvider(err)
	assert.True(t, ok)
	assert.Equal(t, ProviderGoogle, p)
	assert.Contains(t, err.Error(), "google: auth required: token expired")

	_, ok = AuthProvider(errors.New("boom"))
	assert.False(t, ok)
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limited", &ProviderError{Service: "gmail", Op: "send", Status: http.StatusTooManyRequests, Err: errors.New("slow down")}, true},
		{"server error", fmt.Errorf("wrapped: %w", &ProviderError{Service: "drive", Op: "list", Status: 503, Err: errors.New("unavailable")}), true},
		{"client error", &ProviderError{Service: "drive", Op: "get", Status: 404, Err: ErrNotFound}, false},
		{"deadline", context.DeadlineExceeded, true},
		{"net timeout", timeoutErr{}, true},
		{"auth", AuthRequired(ProviderSpotify, nil), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestProviderError(t *testing.T) {
	err := &ProviderError{Service: "drive", Op: "get", Status: 404, Err: ErrNotFound}
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "drive get: status 404: not found", err.Error())
}

func TestMockMusic_NoDevice(t *testing.T) {
	m := &MockMusic{}
	err := m.Play(context.Background(), "spotify:track:1")
	assert.ErrorIs(t, err, ErrNoActiveDevice)
	assert.Empty(t, m.Played)
}
