package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// ErrLLMUnavailable is returned when no LLM backend is configured.
// Callers treat it like any other LLM failure and use their fallback.
var ErrLLMUnavailable = errors.New("LLM unavailable")

// Message represents a chat message.
type Message struct {
	Role    string // system, user, assistant
	Content string
}

// LLMService is the LLM service interface.
type LLMService interface {
	// Chat performs a synchronous completion and returns the text reply.
	Chat(ctx context.Context, messages []Message) (string, error)
}

// NewLLMService creates an LLMService for the configured provider.
// Returns ErrLLMUnavailable when the provider has no API key.
func NewLLMService(ctx context.Context, cfg *LLMConfig) (LLMService, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, ErrLLMUnavailable
	}

	var svc LLMService
	switch cfg.Provider {
	case "gemini":
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create genai client: %w", err)
		}
		svc = &geminiService{
			client:      client,
			model:       cfg.Model,
			maxTokens:   int32(cfg.MaxTokens),
			temperature: cfg.Temperature,
		}

	case "openai":
		config := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			config.BaseURL = cfg.BaseURL
		}
		svc = &openaiService{
			client:      openai.NewClientWithConfig(config),
			model:       cfg.Model,
			maxTokens:   cfg.MaxTokens,
			temperature: cfg.Temperature,
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}

	if cfg.RequestsPerSecond > 0 {
		svc = NewRateLimitedService(svc, rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
	}
	return svc, nil
}

type geminiService struct {
	client      *genai.Client
	model       string
	maxTokens   int32
	temperature float32
}

func (s *geminiService) Chat(ctx context.Context, messages []Message) (string, error) {
	start := time.Now()

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(s.temperature),
	}
	if s.maxTokens > 0 {
		config.MaxOutputTokens = s.maxTokens
	}

	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			config.SystemInstruction = genai.NewContentFromText(m.Content, genai.RoleUser)
		case "assistant":
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini generate content failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	slog.Debug("gemini chat completed",
		"model", s.model,
		"response_len", len(text),
		"latency_ms", time.Since(start).Milliseconds())
	if text == "" {
		return "", fmt.Errorf("empty response")
	}
	return text, nil
}

type openaiService struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

func (s *openaiService) Chat(ctx context.Context, messages []Message) (string, error) {
	start := time.Now()

	req := openai.ChatCompletionRequest{
		Model:       s.model,
		Messages:    convertMessages(messages),
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response")
	}

	slog.Debug("openai chat completed",
		"model", s.model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"latency_ms", time.Since(start).Milliseconds())
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func convertMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case "system":
			role = openai.ChatMessageRoleSystem
		case "assistant":
			role = openai.ChatMessageRoleAssistant
		}
		out[i] = openai.ChatCompletionMessage{Role: role, Content: m.Content}
	}
	return out
}

// rateLimitedService paces calls to the wrapped service.
// A wait that outlives the caller's deadline fails like any other LLM error.
type rateLimitedService struct {
	next    LLMService
	limiter *rate.Limiter
}

// NewRateLimitedService wraps svc with a token bucket limiter.
func NewRateLimitedService(svc LLMService, limit rate.Limit, burst int) LLMService {
	if burst <= 0 {
		burst = 1
	}
	return &rateLimitedService{
		next:    svc,
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (s *rateLimitedService) Chat(ctx context.Context, messages []Message) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}
	return s.next.Chat(ctx, messages)
}

// Helper for creating system prompts
func SystemPrompt(content string) Message {
	return Message{Role: "system", Content: content}
}

// Helper for creating user messages
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// Helper for creating assistant messages
func AssistantMessage(content string) Message {
	return Message{Role: "assistant", Content: content}
}

// FormatMessages formats messages for prompt templates.
func FormatMessages(systemPrompt string, userContent string, history []Message) []Message {
	messages := []Message{}
	if systemPrompt != "" {
		messages = append(messages, SystemPrompt(systemPrompt))
	}
	messages = append(messages, history...)
	messages = append(messages, UserMessage(userContent))
	return messages
}

// ChatWithTimeout runs a single-prompt completion bounded by timeout.
// A nil service yields ErrLLMUnavailable.
func ChatWithTimeout(ctx context.Context, svc LLMService, timeout time.Duration, systemPrompt, userContent string) (string, error) {
	if svc == nil {
		return "", ErrLLMUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return svc.Chat(ctx, FormatMessages(systemPrompt, userContent, nil))
}
