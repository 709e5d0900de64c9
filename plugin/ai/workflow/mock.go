package workflow

import (
	"context"
	"sync"
)

// MockStepRunner is a scripted StepRunner for tests. Results are keyed by
// step action; unscripted steps succeed with an empty response.
type MockStepRunner struct {
	mu      sync.Mutex
	results map[string]StepResult
	errs    map[string]error
	steps   []Step
}

// NewMockStepRunner creates an empty MockStepRunner.
func NewMockStepRunner() *MockStepRunner {
	return &MockStepRunner{
		results: make(map[string]StepResult),
		errs:    make(map[string]error),
	}
}

// On scripts the result for steps with action.
func (m *MockStepRunner) On(action string, res StepResult) *MockStepRunner {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[action] = res
	return m
}

// OnError scripts an error for steps with action.
func (m *MockStepRunner) OnError(action string, err error) *MockStepRunner {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[action] = err
	return m
}

// RunStep implements StepRunner.
func (m *MockStepRunner) RunStep(_ context.Context, step Step, _ *Artifacts) (StepResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, step)
	if err := m.errs[step.Action]; err != nil {
		return StepResult{}, err
	}
	if res, ok := m.results[step.Action]; ok {
		return res, nil
	}
	return StepResult{Type: string(step.Tool)}, nil
}

// Steps returns the steps run so far, with their final prompts.
func (m *MockStepRunner) Steps() []Step {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Step(nil), m.steps...)
}

// MockWorkflowService is a WorkflowService that never detects a workflow
// unless told to.
type MockWorkflowService struct {
	Kind     Kind
	Detected bool
	PlanErr  error
	Steps    []Step

	inner Service
}

// NewMockWorkflowService creates a mock that detects nothing.
func NewMockWorkflowService() *MockWorkflowService {
	return &MockWorkflowService{}
}

func (m *MockWorkflowService) Detect(_ context.Context, _ string) (Kind, bool) {
	return m.Kind, m.Detected
}

func (m *MockWorkflowService) Plan(_ context.Context, kind Kind, prompt string) (*Plan, error) {
	if m.PlanErr != nil {
		return nil, m.PlanErr
	}
	return &Plan{Kind: kind, Prompt: prompt, Steps: m.Steps}, nil
}

// Execute runs the plan without prompt enhancement.
func (m *MockWorkflowService) Execute(ctx context.Context, plan *Plan, runner StepRunner) *Report {
	return m.inner.Execute(ctx, plan, runner)
}

// Ensure mocks implement their interfaces
var (
	_ StepRunner      = (*MockStepRunner)(nil)
	_ WorkflowService = (*MockWorkflowService)(nil)
)
