// Package extract turns a free-text prompt into a typed payload for one intent.
//
// Every shape is extracted by the same routine: an instruction template with
// the current time, timezone and worked examples is sent to the LLM, the first
// balanced JSON object in the reply is decoded into the payload, and any LLM
// failure (missing key, error, timeout, unparseable reply) falls back to the
// shape's regex heuristics. Extraction never fails; fields that could not be
// found are left empty for the caller to ask about.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/rift/plugin/ai"
	"github.com/hrygo/rift/plugin/ai/timeout"
)

// Source records which path produced a payload.
type Source string

const (
	SourceLLM  Source = "llm"
	SourceRule Source = "rule"
)

// Example is one worked input/output pair embedded in an instruction template.
type Example struct {
	Input  string
	Output string
}

// Env is what a shape may consult besides the prompt itself.
type Env struct {
	Now      time.Time
	Location *time.Location
}

// Schema describes how to extract one payload shape.
type Schema[T any] struct {
	// Name identifies the shape in logs.
	Name string
	// Instruction describes the JSON object the LLM must return.
	Instruction string
	Examples    []Example
	// Timeout overrides timeout.ExtractTimeout when non-zero.
	Timeout time.Duration
	// Fallback extracts the payload without the LLM. Must be deterministic.
	Fallback func(prompt string, env Env) T
	// Normalize runs on the payload from either path.
	Normalize func(v *T, env Env)
}

// Extractor holds the LLM client and clock shared by every shape.
type Extractor struct {
	llm ai.LLMService
	loc *time.Location
	now func() time.Time
}

// NewExtractor creates an Extractor. llm may be nil, in which case every
// extraction takes the fallback path. loc defaults to time.Local.
func NewExtractor(llm ai.LLMService, loc *time.Location) *Extractor {
	if loc == nil {
		loc = time.Local
	}
	return &Extractor{
		llm: llm,
		loc: loc,
		now: time.Now,
	}
}

// WithClock replaces the clock, for tests.
func (x *Extractor) WithClock(now func() time.Time) *Extractor {
	x.now = now
	return x
}

// HasLLM reports whether an LLM client is configured.
func (x *Extractor) HasLLM() bool {
	return x.llm != nil
}

// LLM returns the configured client, possibly nil.
func (x *Extractor) LLM() ai.LLMService {
	return x.llm
}

// Env returns the current extraction environment.
func (x *Extractor) Env() Env {
	return Env{Now: x.now().In(x.loc), Location: x.loc}
}

// Run extracts a payload of shape T from prompt.
func Run[T any](ctx context.Context, x *Extractor, schema Schema[T], prompt string) (T, Source) {
	env := x.Env()

	var out T
	source := SourceRule
	if v, err := runLLM(ctx, x, schema, prompt, env); err == nil {
		out = v
		source = SourceLLM
	} else {
		if x.llm != nil {
			slog.Warn("extraction LLM path failed, using fallback",
				"shape", schema.Name,
				"input", ai.Truncate(prompt, 50),
				"error", err)
		}
		if schema.Fallback != nil {
			out = schema.Fallback(prompt, env)
		}
	}

	if schema.Normalize != nil {
		schema.Normalize(&out, env)
	}
	return out, source
}

func runLLM[T any](ctx context.Context, x *Extractor, schema Schema[T], prompt string, env Env) (T, error) {
	var zero T
	if x.llm == nil {
		return zero, ai.ErrLLMUnavailable
	}

	d := schema.Timeout
	if d <= 0 {
		d = timeout.ExtractTimeout
	}

	start := time.Now()
	reply, err := ai.ChatWithTimeout(ctx, x.llm, d, "", BuildPrompt(schema.Instruction, schema.Examples, prompt, env))
	if err != nil {
		return zero, err
	}

	raw, ok := FindJSONObject(reply)
	if !ok {
		return zero, fmt.Errorf("no JSON object in reply: %s", ai.Truncate(reply, 50))
	}

	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return zero, fmt.Errorf("decode %s payload: %w", schema.Name, err)
	}

	slog.Debug("extraction completed",
		"shape", schema.Name,
		"latency_ms", time.Since(start).Milliseconds())
	return v, nil
}

// BuildPrompt renders an extraction instruction for one prompt.
func BuildPrompt(instruction string, examples []Example, prompt string, env Env) string {
	var b strings.Builder
	b.WriteString("You extract structured details from requests made to a desktop assistant.\n")
	b.WriteString(strings.TrimSpace(instruction))
	b.WriteString("\n\n")

	now := env.Now
	_, offset := now.Zone()
	fmt.Fprintf(&b, "The current date and time is: %s (%s)\n", now.Format(time.RFC3339), now.Weekday())
	fmt.Fprintf(&b, "The user's timezone is: %s (UTC%s)\n", env.Location, formatOffset(offset))
	b.WriteString("Interpret relative dates against the current date and output times in the user's timezone.\n")
	b.WriteString("If a field is not specified, use an empty value for it.\n")
	b.WriteString("Respond with the JSON object only, no explanation.\n")

	for i, ex := range examples {
		fmt.Fprintf(&b, "\nExample %d:\nInput: %q\nOutput: %s\n", i+1, ex.Input, ex.Output)
	}

	fmt.Fprintf(&b, "\nNow extract from this input:\n%q\n\nOutput:\n", prompt)
	return b.String()
}

func formatOffset(seconds int) string {
	sign := '+'
	if seconds < 0 {
		sign = '-'
		seconds = -seconds
	}
	return fmt.Sprintf("%c%02d:%02d", sign, seconds/3600, (seconds%3600)/60)
}
