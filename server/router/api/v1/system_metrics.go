package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// MetricsOverviewResponse summarizes routing since the process started.
type MetricsOverviewResponse struct {
	TotalRequests int64          `json:"total_requests"`
	ErrorCount    int64          `json:"error_count"`
	SuccessRate   float64        `json:"success_rate"`
	Stages        []StageMetrics `json:"stages"`
}

// StageMetrics is the per-stage breakdown of routed prompts.
type StageMetrics struct {
	Stage        string `json:"stage"`
	Count        int64  `json:"count"`
	ErrorCount   int64  `json:"error_count"`
	AvgLatencyMs int64  `json:"avg_latency_ms"`
}

// GetMetricsOverview returns the in-memory routing metrics.
// GET /api/v1/system/metrics
func (s *APIV1Service) GetMetricsOverview(c echo.Context) error {
	if s.Metrics == nil {
		return c.JSON(http.StatusOK, MetricsOverviewResponse{SuccessRate: 100, Stages: []StageMetrics{}})
	}
	snap := s.Metrics.Snapshot()
	stages := make([]StageMetrics, 0, len(snap.Stages))
	for _, st := range snap.Stages {
		stages = append(stages, StageMetrics{
			Stage:        st.Stage,
			Count:        st.Count,
			ErrorCount:   st.ErrorCount,
			AvgLatencyMs: st.AverageMs,
		})
	}
	return c.JSON(http.StatusOK, MetricsOverviewResponse{
		TotalRequests: snap.RequestTotal,
		ErrorCount:    snap.RequestFailed,
		SuccessRate:   snap.SuccessRate(),
		Stages:        stages,
	})
}
