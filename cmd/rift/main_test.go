package main

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/rift/server/assistant"
	"github.com/hrygo/rift/store"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in, fallback string
		want         slog.Level
		wantErr      bool
	}{
		{"", "warn", slog.LevelWarn, false},
		{"debug", "warn", slog.LevelDebug, false},
		{" WARNING ", "info", slog.LevelWarn, false},
		{"error", "info", slog.LevelError, false},
		{"", "", slog.LevelInfo, false},
		{"loud", "info", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := parseLevel(tt.in, tt.fallback)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

type fakeAssistant struct {
	prompts []assistant.Request
	resets  int
}

func (f *fakeAssistant) RoutePrompt(_ context.Context, req assistant.Request) (*assistant.Result, error) {
	f.prompts = append(f.prompts, req)
	if strings.Contains(req.Text, "play") {
		return &assistant.Result{SessionID: "s1", Type: assistant.TypeAuthRequired, Error: assistant.MsgAuthRequired, AuthURL: "http://127.0.0.1:8787/auth/spotify"}, nil
	}
	return &assistant.Result{SessionID: "s1", Type: assistant.TypeEmailDraft, Response: "Email draft created."}, nil
}

func (f *fakeAssistant) SendDraft(_ context.Context, sessionID string) (*assistant.Result, error) {
	return &assistant.Result{SessionID: sessionID, Type: assistant.TypeEmailSent, Success: true, Response: "Email sent successfully to sarah@x.com"}, nil
}

func (f *fakeAssistant) Reset(context.Context, string) error {
	f.resets++
	return nil
}

func (f *fakeAssistant) History(context.Context, string, int) ([]*store.PromptHistory, error) {
	return []*store.PromptHistory{
		{Prompt: "send it", ResultType: "email-sent"},
		{Prompt: "email sarah", ResultType: "email-draft"},
	}, nil
}

func TestRepl(t *testing.T) {
	f := &fakeAssistant{}
	var out bytes.Buffer
	r := &repl{
		svc: f,
		in:  strings.NewReader("email sarah\n\n/send\n/history\nplay jazz\n/reset\n/quit\nnever routed\n"),
		out: &out,
	}

	require.NoError(t, r.run(context.Background()))

	require.Len(t, f.prompts, 2)
	assert.Empty(t, f.prompts[0].SessionID)
	assert.Equal(t, "s1", f.prompts[1].SessionID)
	assert.Equal(t, 1, f.resets)

	got := out.String()
	assert.Contains(t, got, "Email draft created.")
	assert.Contains(t, got, "Email sent successfully to sarah@x.com")
	assert.Contains(t, got, "Sign in: http://127.0.0.1:8787/auth/spotify")
	assert.Contains(t, got, "Session reset.")
	// Oldest first.
	assert.Less(t, strings.Index(got, "email sarah"), strings.Index(got, "send it"))
}
