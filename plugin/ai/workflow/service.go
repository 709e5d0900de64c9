package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/hrygo/rift/plugin/ai"
	"github.com/hrygo/rift/plugin/ai/extract"
	"github.com/hrygo/rift/plugin/ai/timeout"
)

var (
	// ErrNoSteps is returned when a CUSTOM plan comes back empty.
	ErrNoSteps = errors.New("no valid workflow steps identified")
	// ErrPlanUnavailable is returned when a CUSTOM plan cannot be built without the LLM.
	ErrPlanUnavailable = errors.New("an LLM is required to plan custom workflows")
)

var (
	// MusicPattern marks prompts that must never be treated as workflows.
	MusicPattern = regexp.MustCompile(`(?i)\b(?:spotify|music|song|play|pause|resume|next|previous|skip|playlist)\b`)
	// MeetPattern is the explicit "create a meeting" phrasing.
	MeetPattern = regexp.MustCompile(`(?i)\b(?:create|make|set\s+up|schedule)\s+(?:a\s+)?(?:google\s+)?meet(?:ing)?\b`)

	calendarThenDocs = regexp.MustCompile(`(?i)\b(?:schedule|create|add|book|set\s+up|put)\b.*\b(?:meeting|event|call|appointment|sync|review)\b.*\b(?:and|then)\b.*\b(?:create|make|start|write|open)\b.*\b(?:doc|document|notes)\b`)
	docsThenShare    = regexp.MustCompile(`(?i)\b(?:create|make|write|start|find|search\s+for|look\s+up)\b.*\b(?:doc|document|notes)\b.*\b(?:and|then)\s+(?:share|send)\b`)
	meetThenEmail    = regexp.MustCompile(`(?i)\bmeet(?:ing)?\b.*\b(?:and|then)\s+(?:email|send|share|invite)\b`)
)

// Service implements WorkflowService.
// Detection, named-plan details and step enhancement use the LLM when one is
// configured; each falls back to rules or to the unmodified prompt.
type Service struct {
	llm ai.LLMService
	x   *extract.Extractor
}

// NewService creates a workflow service. x supplies the LLM client and clock.
func NewService(x *extract.Extractor) *Service {
	return &Service{llm: x.LLM(), x: x}
}

type detection struct {
	IsWorkflow   bool     `json:"isWorkflow"`
	WorkflowType string   `json:"workflowType"`
	Steps        []string `json:"steps"`
}

const detectPrompt = `Analyze this user request and determine if it requires a multi-step workflow:
%q

A multi-step workflow is needed when the request involves multiple tools or services in sequence.
Examples of multi-step workflows:
1. "Create a Google Meet for tomorrow at 3pm and email the link to john@example.com"
2. "Find my notes about project X in Google Docs and share them with the team"
3. "Schedule a meeting with the team and create a Google Doc for meeting notes"

If this is a multi-step workflow, respond with a JSON object containing:
{"isWorkflow": true, "workflowType": "one of: MEET_AND_EMAIL, DOCS_AND_SHARE, CALENDAR_AND_DOCS, CUSTOM", "steps": ["step1", "step2"]}

If this is NOT a multi-step workflow, respond with:
{"isWorkflow": false}

Respond with ONLY the JSON object, nothing else.`

// Detect reports whether prompt needs a multi-step workflow. Music prompts
// are never workflows.
func (s *Service) Detect(ctx context.Context, prompt string) (Kind, bool) {
	if MusicPattern.MatchString(prompt) {
		return "", false
	}

	start := time.Now()
	if s.llm != nil {
		kind, ok, err := s.detectLLM(ctx, prompt)
		if err == nil {
			slog.Debug("workflow detection by LLM",
				"input", ai.Truncate(prompt, 50),
				"workflow", kind,
				"detected", ok,
				"latency_ms", time.Since(start).Milliseconds())
			return kind, ok
		}
		slog.Warn("workflow detection failed, using rule fallback",
			"input", ai.Truncate(prompt, 50),
			"error", err)
	}

	kind, ok := detectRules(prompt)
	if ok {
		slog.Debug("workflow detection by rules", "input", ai.Truncate(prompt, 50), "workflow", kind)
	}
	return kind, ok
}

func (s *Service) detectLLM(ctx context.Context, prompt string) (Kind, bool, error) {
	reply, err := ai.ChatWithTimeout(ctx, s.llm, timeout.WorkflowDetectTimeout, "", fmt.Sprintf(detectPrompt, prompt))
	if err != nil {
		return "", false, err
	}
	raw, ok := extract.FindJSONObject(reply)
	if !ok {
		return "", false, fmt.Errorf("no JSON object in detection reply: %s", ai.Truncate(reply, 50))
	}
	var d detection
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return "", false, fmt.Errorf("decode detection: %w", err)
	}
	if !d.IsWorkflow {
		return "", false, nil
	}
	kind, ok := ParseKind(d.WorkflowType)
	if !ok {
		slog.Warn("unknown workflow type, treating as single intent", "workflow", d.WorkflowType)
		return "", false, nil
	}
	return kind, true, nil
}

// detectRules only recognizes the named shapes; CUSTOM needs the planner LLM.
func detectRules(prompt string) (Kind, bool) {
	switch {
	case calendarThenDocs.MatchString(prompt):
		return KindCalendarAndDocs, true
	case docsThenShare.MatchString(prompt):
		return KindDocsAndShare, true
	case meetThenEmail.MatchString(prompt) && len(extract.Emails(prompt)) > 0:
		return KindMeetAndEmail, true
	}
	return "", false
}

// Plan builds the ordered steps for kind.
func (s *Service) Plan(ctx context.Context, kind Kind, prompt string) (*Plan, error) {
	var steps []Step
	switch kind {
	case KindMeetAndEmail:
		steps = meetAndEmailSteps(prompt)
	case KindDocsAndShare:
		d, _ := extract.Run(ctx, s.x, docsShareSchema, prompt)
		steps = docsAndShareSteps(d)
	case KindCalendarAndDocs:
		d, _ := extract.Run(ctx, s.x, calendarDocsSchema, prompt)
		steps = calendarAndDocsSteps(d, prompt)
	case KindCustom:
		if MeetPattern.MatchString(prompt) {
			kind = KindMeetAndEmail
			steps = meetAndEmailSteps(prompt)
			break
		}
		var err error
		if steps, err = s.planCustom(ctx, prompt); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown workflow type: %s", kind)
	}

	slog.Info("workflow planned",
		"workflow", kind,
		"input", ai.Truncate(prompt, 50),
		"steps", len(steps))
	return &Plan{Kind: kind, Prompt: prompt, Steps: steps}, nil
}

func meetAndEmailSteps(prompt string) []Step {
	return []Step{
		{Tool: ToolMeet, Action: ActionCreate, Prompt: prompt, Critical: true},
		{Tool: ToolMeet, Action: ActionShare, Prompt: prompt},
	}
}

func docsAndShareSteps(d docsShareDetails) []Step {
	var first Step
	if d.Action == "search" {
		first = Step{Tool: ToolDocs, Action: ActionSearchOpen, Prompt: fmt.Sprintf("search for %s in google docs", d.DocTitle), Critical: true}
	} else {
		p := fmt.Sprintf("create a google doc called %q", d.DocTitle)
		if d.DocContent != "" {
			p += " with content: " + d.DocContent
		}
		first = Step{Tool: ToolDocs, Action: ActionCreate, Prompt: p, Critical: true}
	}
	steps := []Step{first}
	if len(d.ShareWith) > 0 {
		steps = append(steps, Step{Tool: ToolDocs, Action: ActionShare, Prompt: "share it with " + strings.Join(d.ShareWith, ", ")})
	}
	return steps
}

func calendarAndDocsSteps(d calendarDocsDetails, prompt string) []Step {
	eventPrompt := d.EventClause
	if d.EventTitle != "" {
		eventPrompt = strings.TrimSpace(fmt.Sprintf("Create an event called %q %s", d.EventTitle, d.EventTime))
		if len(d.EventAttendees) > 0 {
			eventPrompt += " with " + strings.Join(d.EventAttendees, ", ")
		}
	}
	if eventPrompt == "" {
		eventPrompt = prompt
	}
	steps := []Step{{Tool: ToolCalendar, Action: ActionCreate, Prompt: eventPrompt, Critical: true}}
	if d.CreateDoc {
		steps = append(steps, Step{Tool: ToolDocs, Action: ActionCreateNotes, Prompt: d.DocTitle})
	}
	return steps
}

const customPrompt = `Analyze this user request and break it down into a sequence of steps:
%q

Available tools:
%s
Respond with a JSON object containing:
{"steps": [{"tool": "one of: EMAIL, CALENDAR, DRIVE, DOCS, MEET", "action": "specific action to take", "prompt": "prompt to use for this step", "critical": true if later steps cannot run without this one}]}

Respond with ONLY the JSON object, nothing else.`

func (s *Service) planCustom(ctx context.Context, prompt string) ([]Step, error) {
	if s.llm == nil {
		return nil, ErrPlanUnavailable
	}

	var tools strings.Builder
	for _, t := range Tools {
		fmt.Fprintf(&tools, "- %s: %s\n", t.Tool, t.Description)
	}

	reply, err := ai.ChatWithTimeout(ctx, s.llm, timeout.WorkflowPlanTimeout, "", fmt.Sprintf(customPrompt, prompt, tools.String()))
	if err != nil {
		return nil, fmt.Errorf("plan workflow: %w", err)
	}
	raw, ok := extract.FindJSONObject(reply)
	if !ok {
		return nil, fmt.Errorf("failed to parse workflow steps: %s", ai.Truncate(reply, 50))
	}
	var out struct {
		Steps []Step `json:"steps"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("failed to parse workflow steps: %w", err)
	}

	steps := out.Steps[:0]
	for _, st := range out.Steps {
		st.Tool = Tool(strings.ToUpper(strings.TrimSpace(string(st.Tool))))
		st.Action = strings.ToLower(strings.TrimSpace(st.Action))
		st.Prompt = strings.TrimSpace(st.Prompt)
		if st.Prompt == "" {
			continue
		}
		steps = append(steps, st)
	}
	if len(steps) == 0 {
		return nil, ErrNoSteps
	}
	return steps, nil
}

const enhancePrompt = `Enhance this prompt with context from previous workflow steps:

Original prompt: %q

Context from previous steps:
%s
Return an enhanced prompt that includes relevant information from the context.
Only return the enhanced prompt, nothing else.`

// Execute runs the plan one step at a time. Steps after the first get their
// prompt enhanced with the accumulated artifacts when an LLM is configured.
// Only a failed critical step stops the run.
func (s *Service) Execute(ctx context.Context, plan *Plan, runner StepRunner) *Report {
	report := &Report{Kind: plan.Kind}
	start := time.Now()

	for i, step := range plan.Steps {
		if ctx.Err() != nil {
			report.Aborted = true
			break
		}

		prompt := step.Prompt
		// create-notes prompts carry a document title, not a request.
		if i > 0 && !report.Artifacts.Empty() && step.Action != ActionCreateNotes {
			prompt = s.enhance(ctx, prompt, &report.Artifacts)
		}
		run := step
		run.Prompt = prompt

		outcome := StepOutcome{Step: step, Prompt: prompt}
		stepStart := time.Now()
		res, err := s.runStep(ctx, runner, run, &report.Artifacts)
		switch {
		case err != nil:
			outcome.Type = "error"
			outcome.Error = fmt.Sprintf("Failed to execute %s: %v", step.Action, err)
		case res.Failed():
			outcome.Type = res.Type
			if outcome.Type == "" {
				outcome.Type = "error"
			}
			outcome.Error = res.Error
		default:
			outcome.Type = res.Type
			outcome.Response = res.Response
			report.Artifacts.Merge(res.Artifacts)
		}
		report.Outcomes = append(report.Outcomes, outcome)

		slog.Info("workflow step executed",
			"workflow", plan.Kind,
			"step", i+1,
			"tool", step.Tool,
			"action", step.Action,
			"type", outcome.Type,
			"failed", outcome.Error != "",
			"latency_ms", time.Since(stepStart).Milliseconds())

		if outcome.Error != "" && step.Critical {
			slog.Warn("critical workflow step failed, aborting",
				"workflow", plan.Kind,
				"step", i+1,
				"error", outcome.Error)
			report.Aborted = true
			break
		}
	}

	slog.Info("workflow completed",
		"workflow", plan.Kind,
		"steps", len(report.Outcomes),
		"aborted", report.Aborted,
		"latency_ms", time.Since(start).Milliseconds())
	return report
}

func (s *Service) runStep(ctx context.Context, runner StepRunner, step Step, acc *Artifacts) (StepResult, error) {
	if !step.Tool.Known() {
		return StepResult{}, fmt.Errorf("unknown tool: %s", step.Tool)
	}
	return runner.RunStep(ctx, step, acc)
}

func (s *Service) enhance(ctx context.Context, prompt string, acc *Artifacts) string {
	if s.llm == nil {
		return prompt
	}
	reply, err := ai.ChatWithTimeout(ctx, s.llm, timeout.EnhanceTimeout, "", fmt.Sprintf(enhancePrompt, prompt, acc.Describe()))
	if err != nil {
		slog.Warn("workflow prompt enhancement failed, using original prompt",
			"input", ai.Truncate(prompt, 50),
			"error", err)
		return prompt
	}
	enhanced := strings.Trim(strings.TrimSpace(reply), `"`)
	if enhanced == "" {
		return prompt
	}
	return enhanced
}

// Ensure Service implements WorkflowService
var _ WorkflowService = (*Service)(nil)
