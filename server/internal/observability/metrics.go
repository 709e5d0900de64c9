package observability

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics counts routed prompts per stage ("meet-fast-path", "workflow",
// "follow-up", "ordinal", "intent:<INTENT>").
type Metrics struct {
	mu sync.Mutex

	requestTotal  atomic.Int64
	requestFailed atomic.Int64

	stages map[string]*StageMetrics
}

// StageMetrics represents metrics for one routing stage.
type StageMetrics struct {
	count         atomic.Int64
	totalDuration atomic.Int64 // milliseconds
	errorCount    atomic.Int64
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{stages: make(map[string]*StageMetrics)}
}

// Record records one routed prompt.
func (m *Metrics) Record(stage string, duration time.Duration, failed bool) {
	m.requestTotal.Add(1)
	sm := m.stage(stage)
	sm.count.Add(1)
	sm.totalDuration.Add(duration.Milliseconds())
	if failed {
		m.requestFailed.Add(1)
		sm.errorCount.Add(1)
	}
}

func (m *Metrics) stage(name string) *StageMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	sm, ok := m.stages[name]
	if !ok {
		sm = &StageMetrics{}
		m.stages[name] = sm
	}
	return sm
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() *MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	stages := make([]StageSnapshot, 0, len(m.stages))
	for name, sm := range m.stages {
		s := StageSnapshot{
			Stage:      name,
			Count:      sm.count.Load(),
			ErrorCount: sm.errorCount.Load(),
		}
		if s.Count > 0 {
			s.AverageMs = sm.totalDuration.Load() / s.Count
		}
		stages = append(stages, s)
	}
	sort.Slice(stages, func(i, j int) bool { return stages[i].Stage < stages[j].Stage })

	return &MetricsSnapshot{
		RequestTotal:  m.requestTotal.Load(),
		RequestFailed: m.requestFailed.Load(),
		Stages:        stages,
	}
}

// MetricsSnapshot represents a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	RequestTotal  int64           `json:"request_total"`
	RequestFailed int64           `json:"request_failed"`
	Stages        []StageSnapshot `json:"stages"`
}

// StageSnapshot represents metrics for one stage.
type StageSnapshot struct {
	Stage      string `json:"stage"`
	Count      int64  `json:"count"`
	ErrorCount int64  `json:"error_count"`
	AverageMs  int64  `json:"average_ms"`
}

// SuccessRate returns the success rate as a percentage (0-100).
func (s *MetricsSnapshot) SuccessRate() float64 {
	if s.RequestTotal == 0 {
		return 100.0
	}
	return float64(s.RequestTotal-s.RequestFailed) / float64(s.RequestTotal) * 100.0
}
