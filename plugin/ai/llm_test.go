package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestNewLLMService(t *testing.T) {
	tests := []struct {
		name        string
		cfg         *LLMConfig
		expectError error
		anyError    bool
	}{
		{
			name: "OpenAI-compatible config",
			cfg: &LLMConfig{
				Provider: "openai",
				Model:    "gpt-4o-mini",
				APIKey:   "test-key",
				BaseURL:  "https://api.openai.com/v1",
			},
		},
		{
			name:        "missing key",
			cfg:         &LLMConfig{Provider: "gemini", Model: "gemini-2.0-flash"},
			expectError: ErrLLMUnavailable,
		},
		{
			name:        "nil config",
			cfg:         nil,
			expectError: ErrLLMUnavailable,
		},
		{
			name:     "unsupported provider",
			cfg:      &LLMConfig{Provider: "unsupported", APIKey: "k"},
			anyError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewLLMService(context.Background(), tt.cfg)
			switch {
			case tt.expectError != nil:
				assert.ErrorIs(t, err, tt.expectError)
				assert.Nil(t, svc)
			case tt.anyError:
				assert.Error(t, err)
			default:
				require.NoError(t, err)
				assert.NotNil(t, svc)
			}
		})
	}
}

func TestFormatMessages(t *testing.T) {
	history := []Message{UserMessage("hi"), AssistantMessage("hello")}
	msgs := FormatMessages("be brief", "what now", history)

	require.Len(t, msgs, 4)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, "user", msgs[1].Role)
	assert.Equal(t, "assistant", msgs[2].Role)
	assert.Equal(t, "what now", msgs[3].Content)

	assert.Len(t, FormatMessages("", "x", nil), 1)
}

func TestConvertMessages(t *testing.T) {
	out := convertMessages([]Message{SystemPrompt("s"), UserMessage("u"), AssistantMessage("a")})
	require.Len(t, out, 3)
	assert.Equal(t, "system", out[0].Role)
	assert.Equal(t, "user", out[1].Role)
	assert.Equal(t, "assistant", out[2].Role)
}

func TestChatWithTimeout(t *testing.T) {
	t.Run("nil service", func(t *testing.T) {
		_, err := ChatWithTimeout(context.Background(), nil, time.Second, "", "x")
		assert.ErrorIs(t, err, ErrLLMUnavailable)
	})

	t.Run("mock reply", func(t *testing.T) {
		mock := NewMockLLMService().On("ping", "pong")
		got, err := ChatWithTimeout(context.Background(), mock, time.Second, "sys", "ping")
		require.NoError(t, err)
		assert.Equal(t, "pong", got)
		assert.Len(t, mock.Calls(), 1)
	})
}

func TestRateLimitedService(t *testing.T) {
	mock := NewMockLLMService()
	mock.Default = "ok"
	svc := NewRateLimitedService(mock, rate.Every(time.Hour), 1)

	got, err := svc.Chat(context.Background(), []Message{UserMessage("a")})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)

	// Bucket is empty; a short deadline must fail instead of blocking.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = svc.Chat(ctx, []Message{UserMessage("b")})
	assert.Error(t, err)
	assert.Len(t, mock.Calls(), 1)
}

func TestMockLLMService(t *testing.T) {
	boom := errors.New("boom")
	mock := NewMockLLMService().On("alpha", "A").OnError("beta", boom)
	mock.Default = "D"

	got, err := mock.Chat(context.Background(), []Message{UserMessage("alpha")})
	require.NoError(t, err)
	assert.Equal(t, "A", got)

	_, err = mock.Chat(context.Background(), []Message{UserMessage("beta")})
	assert.ErrorIs(t, err, boom)

	got, _ = mock.Chat(context.Background(), []Message{UserMessage("gamma")})
	assert.Equal(t, "D", got)
}
