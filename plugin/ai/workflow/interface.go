// Package workflow detects compound requests that need more than one
// capability in sequence, plans them as ordered steps and runs the steps one
// after another, feeding what earlier steps produced into later ones.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// WorkflowService defines the multi-step request interface.
type WorkflowService interface {
	// Detect reports whether prompt needs a multi-step workflow.
	Detect(ctx context.Context, prompt string) (Kind, bool)

	// Plan builds the ordered steps for a detected workflow.
	Plan(ctx context.Context, kind Kind, prompt string) (*Plan, error)

	// Execute runs plan sequentially through runner. It always returns a
	// report, even when every step fails.
	Execute(ctx context.Context, plan *Plan, runner StepRunner) *Report
}

// Kind is a workflow category.
type Kind string

const (
	KindMeetAndEmail    Kind = "MEET_AND_EMAIL"
	KindDocsAndShare    Kind = "DOCS_AND_SHARE"
	KindCalendarAndDocs Kind = "CALENDAR_AND_DOCS"
	KindCustom          Kind = "CUSTOM"
)

// ParseKind converts an LLM token to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(strings.ToUpper(strings.TrimSpace(s))); k {
	case KindMeetAndEmail, KindDocsAndShare, KindCalendarAndDocs, KindCustom:
		return k, true
	}
	return "", false
}

// Tool is a capability a step runs against.
type Tool string

const (
	ToolEmail    Tool = "EMAIL"
	ToolCalendar Tool = "CALENDAR"
	ToolDrive    Tool = "DRIVE"
	ToolDocs     Tool = "DOCS"
	ToolMeet     Tool = "MEET"
)

// Tools is the capability catalogue offered to the CUSTOM planner.
var Tools = []struct {
	Tool        Tool
	Description string
}{
	{ToolEmail, "Create, send, search emails"},
	{ToolCalendar, "Create, modify, query calendar events"},
	{ToolDrive, "Search, open, share files in Google Drive"},
	{ToolDocs, "Create, search, open, update, share Google Docs"},
	{ToolMeet, "Create, share Google Meet links"},
}

// Known reports whether t is in the catalogue.
func (t Tool) Known() bool {
	for _, entry := range Tools {
		if entry.Tool == t {
			return true
		}
	}
	return false
}

// Step actions used by the named plans. CUSTOM plans carry free-form actions
// that runners match by keyword.
const (
	ActionCreate      = "create"
	ActionShare       = "share"
	ActionSearchOpen  = "search-open"
	ActionCreateNotes = "create-notes"
)

// Step is one tool call of a plan.
type Step struct {
	Tool     Tool   `json:"tool"`
	Action   string `json:"action"`
	Prompt   string `json:"prompt"`
	Critical bool   `json:"critical,omitempty"`
}

// Plan is the ordered step list for one compound request.
type Plan struct {
	Kind   Kind
	Prompt string
	Steps  []Step
}

// Artifact is something a step created or found.
type Artifact struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Link      string   `json:"link,omitempty"`
	Start     string   `json:"start,omitempty"`
	End       string   `json:"end,omitempty"`
	Attendees []string `json:"attendees,omitempty"`
}

// Artifacts accumulates step output across one plan execution.
type Artifacts struct {
	Event      *Artifact  `json:"event,omitempty"`
	Meeting    *Artifact  `json:"meeting,omitempty"`
	Doc        *Artifact  `json:"doc,omitempty"`
	DriveFile  *Artifact  `json:"drive_file,omitempty"`
	Docs       []Artifact `json:"docs,omitempty"`
	DriveFiles []Artifact `json:"drive_files,omitempty"`
}

// Empty reports whether nothing has been accumulated.
func (a *Artifacts) Empty() bool {
	return a.Event == nil && a.Meeting == nil && a.Doc == nil && a.DriveFile == nil &&
		len(a.Docs) == 0 && len(a.DriveFiles) == 0
}

// Merge copies the non-empty fields of o into a.
func (a *Artifacts) Merge(o Artifacts) {
	if o.Event != nil {
		a.Event = o.Event
	}
	if o.Meeting != nil {
		a.Meeting = o.Meeting
	}
	if o.Doc != nil {
		a.Doc = o.Doc
	}
	if o.DriveFile != nil {
		a.DriveFile = o.DriveFile
	}
	if len(o.Docs) > 0 {
		a.Docs = o.Docs
	}
	if len(o.DriveFiles) > 0 {
		a.DriveFiles = o.DriveFiles
	}
}

// Describe renders the accumulator for the enhancement prompt.
func (a *Artifacts) Describe() string {
	var b strings.Builder
	line := func(label string, v any) {
		raw, err := json.Marshal(v)
		if err != nil {
			return
		}
		fmt.Fprintf(&b, "%s: %s\n", label, raw)
	}
	if a.Event != nil {
		line("Event", a.Event)
	}
	if a.Doc != nil {
		line("Document", a.Doc)
	}
	if a.Meeting != nil {
		line("Meeting", a.Meeting)
	}
	if a.DriveFile != nil {
		line("Drive File", a.DriveFile)
	}
	if len(a.Docs) > 0 {
		line("Documents", a.Docs)
	}
	if len(a.DriveFiles) > 0 {
		line("Drive Files", a.DriveFiles)
	}
	return b.String()
}

// StepResult is what a runner reports for one step.
type StepResult struct {
	// Type is the envelope type the step produced ("event", "docs-create", "error" ...).
	Type     string
	Response string
	// Error marks the step as failed.
	Error     string
	Artifacts Artifacts
}

// Failed reports whether the step failed.
func (r StepResult) Failed() bool {
	return r.Error != ""
}

// StepRunner executes single steps against the capability clients.
type StepRunner interface {
	// RunStep runs step. acc holds what earlier steps produced. A returned
	// error is recorded as a failed step.
	RunStep(ctx context.Context, step Step, acc *Artifacts) (StepResult, error)
}

// StepOutcome records one executed step.
type StepOutcome struct {
	Step     Step
	Prompt   string
	Type     string
	Response string
	Error    string
}

// Report is the aggregated result of a plan.
type Report struct {
	Kind      Kind
	Outcomes  []StepOutcome
	Artifacts Artifacts
	// Aborted is set when a critical step failed or ctx was cancelled.
	Aborted bool
}

// StepTypes lists the result type of every attempted step.
func (r *Report) StepTypes() []string {
	out := make([]string, len(r.Outcomes))
	for i, o := range r.Outcomes {
		out[i] = o.Type
	}
	return out
}

// Response renders the multi-paragraph summary shown to the user.
func (r *Report) Response() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Completed workflow with %d steps:", len(r.Outcomes))
	for i, o := range r.Outcomes {
		if o.Error != "" {
			fmt.Fprintf(&b, "\n\nStep %d (%s) error: %s", i+1, o.Step.Action, o.Error)
			continue
		}
		resp := o.Response
		if resp == "" {
			resp = "Completed successfully"
		}
		fmt.Fprintf(&b, "\n\nStep %d (%s): %s", i+1, o.Step.Action, resp)
	}
	return b.String()
}
