package ai

import (
	"context"
	"strings"
	"sync"
)

// MockLLMService is a scripted LLMService for tests.
// Replies are matched by substring against the concatenated prompt, in insertion order.
type MockLLMService struct {
	mu sync.Mutex

	// Err, when set, is returned from every call.
	Err error
	// Default is returned when no rule matches.
	Default string

	rules []mockRule
	calls []string
}

type mockRule struct {
	contains string
	reply    string
	err      error
}

// NewMockLLMService creates an empty MockLLMService.
func NewMockLLMService() *MockLLMService {
	return &MockLLMService{}
}

// On registers a reply for prompts containing substr.
func (m *MockLLMService) On(substr, reply string) *MockLLMService {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, mockRule{contains: substr, reply: reply})
	return m
}

// OnError registers an error for prompts containing substr.
func (m *MockLLMService) OnError(substr string, err error) *MockLLMService {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, mockRule{contains: substr, err: err})
	return m
}

// Chat implements LLMService.
func (m *MockLLMService) Chat(ctx context.Context, messages []Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var prompt strings.Builder
	for _, msg := range messages {
		prompt.WriteString(msg.Content)
		prompt.WriteString("\n")
	}
	text := prompt.String()
	m.calls = append(m.calls, text)

	if m.Err != nil {
		return "", m.Err
	}
	for _, r := range m.rules {
		if strings.Contains(text, r.contains) {
			return r.reply, r.err
		}
	}
	return m.Default, nil
}

// Calls returns the prompts seen so far.
func (m *MockLLMService) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// Ensure MockLLMService implements LLMService
var _ LLMService = (*MockLLMService)(nil)
