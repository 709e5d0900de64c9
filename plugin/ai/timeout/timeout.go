// Package timeout defines centralized timeout constants for LLM call sites.
// Every LLM call is bounded so the command bar stays responsive; on expiry the
// caller falls back exactly as for any other LLM failure.
package timeout

import "time"

// LLM call-site timeouts.
const (
	// ClassifyTimeout bounds single-token intent classification.
	ClassifyTimeout = 3 * time.Second

	// ExtractTimeout bounds slot extraction for one intent.
	ExtractTimeout = 5 * time.Second

	// DraftEditTimeout bounds rewriting an email draft from a follow-up instruction.
	DraftEditTimeout = 10 * time.Second

	// WorkflowDetectTimeout bounds the "is this a multi-step request" check.
	WorkflowDetectTimeout = 3 * time.Second

	// WorkflowPlanTimeout bounds CUSTOM step-list planning.
	WorkflowPlanTimeout = 5 * time.Second

	// EnhanceTimeout bounds splicing prior-step context into a workflow sub-prompt.
	EnhanceTimeout = 3 * time.Second

	// SelectTimeout bounds picking an item (event, playlist) from a candidate list.
	SelectTimeout = 5 * time.Second

	// ProviderTimeout bounds a single capability client call.
	ProviderTimeout = 30 * time.Second

	// MaxTruncateLength is the maximum length for truncating strings in logs.
	MaxTruncateLength = 200
)
