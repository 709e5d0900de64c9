package router

import (
	"context"
)

// MockRouterService is a mock implementation of RouterService for testing.
type MockRouterService struct {
	// IntentOverrides allows tests to override intent classification results
	IntentOverrides map[string]Intent

	rules *RuleMatcher
	calls int
}

// NewMockRouterService creates a new MockRouterService.
func NewMockRouterService() *MockRouterService {
	return &MockRouterService{
		IntentOverrides: make(map[string]Intent),
		rules:           NewRuleMatcher(),
	}
}

// ClassifyIntent returns an override when present, otherwise the rule result.
func (m *MockRouterService) ClassifyIntent(ctx context.Context, input string) Classification {
	m.calls++
	if intent, ok := m.IntentOverrides[input]; ok {
		return Classification{Intent: intent, Confidence: 1.0, Source: SourceLLM}
	}
	intent, confidence, _ := m.rules.Match(input)
	return Classification{Intent: intent, Confidence: confidence, Source: SourceRule}
}

// Calls returns how many times ClassifyIntent ran.
func (m *MockRouterService) Calls() int {
	return m.calls
}

// Ensure MockRouterService implements RouterService
var _ RouterService = (*MockRouterService)(nil)
