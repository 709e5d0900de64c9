// Package aitime resolves English natural-language time expressions
// ("tomorrow at 10am", "next friday", "in 2 hours") against a reference clock.
package aitime

import (
	"context"
	"time"
)

// TimeService defines the time parsing service interface.
type TimeService interface {
	// Normalize resolves a free-text expression to an instant in timezone.
	// Supports: "tomorrow at 3pm", "friday 10:30", "2026-01-28", "15:00"
	Normalize(ctx context.Context, input string, timezone string) (time.Time, error)

	// ParseNaturalTime resolves an expression to a range relative to reference.
	// Range keywords ("today", "this week", "next 3 days") yield their span;
	// a point in time yields a one-hour range.
	ParseNaturalTime(ctx context.Context, input string, reference time.Time) (TimeRange, error)
}

// TimeRange represents a time range.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}
