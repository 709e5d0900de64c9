package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/rift/plugin/ai"
	"github.com/hrygo/rift/plugin/ai/extract"
)

var fixedNow = time.Date(2026, 1, 27, 10, 0, 0, 0, time.UTC)

func newService(llm ai.LLMService) *Service {
	x := extract.NewExtractor(llm, time.UTC).WithClock(func() time.Time { return fixedNow })
	return NewService(x)
}

func TestDetect_SkipsMusicPrompts(t *testing.T) {
	llm := ai.NewMockLLMService()
	llm.Default = `{"isWorkflow": true, "workflowType": "CUSTOM"}`
	svc := newService(llm)

	for _, prompt := range []string{
		"play some jazz and then skip to the next song",
		"pause spotify",
		"create a playlist and share it with ana@example.com",
	} {
		_, ok := svc.Detect(context.Background(), prompt)
		assert.False(t, ok, prompt)
	}
	assert.Empty(t, llm.Calls())
}

func TestDetect_LLM(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		err      error
		prompt   string
		wantKind Kind
		wantOK   bool
	}{
		{
			name:     "named workflow",
			reply:    "```json\n{\"isWorkflow\": true, \"workflowType\": \"DOCS_AND_SHARE\", \"steps\": [\"create\", \"share\"]}\n```",
			prompt:   "write a doc called Roadmap and share it with ana@example.com",
			wantKind: KindDocsAndShare,
			wantOK:   true,
		},
		{
			name:   "not a workflow",
			reply:  `{"isWorkflow": false}`,
			prompt: "what's on my calendar today",
		},
		{
			name:   "unknown type",
			reply:  `{"isWorkflow": true, "workflowType": "TELEPORT"}`,
			prompt: "email bob and call alice",
		},
		{
			name:     "LLM error uses rules",
			err:      context.DeadlineExceeded,
			prompt:   "schedule a design review tomorrow at 2pm and create a doc for notes",
			wantKind: KindCalendarAndDocs,
			wantOK:   true,
		},
		{
			name:   "garbage reply uses rules",
			reply:  "sure!",
			prompt: "what's on my calendar today",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := ai.NewMockLLMService()
			llm.Default = tt.reply
			llm.Err = tt.err
			kind, ok := newService(llm).Detect(context.Background(), tt.prompt)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantKind, kind)
		})
	}
}

func TestDetect_Rules(t *testing.T) {
	svc := newService(nil)
	tests := []struct {
		prompt   string
		wantKind Kind
		wantOK   bool
	}{
		{"schedule a team sync friday at 3pm and create a doc for notes", KindCalendarAndDocs, true},
		{"create a doc called Launch Plan and share it with ana@example.com", KindDocsAndShare, true},
		{"find my notes about the offsite and share them with Priya", KindDocsAndShare, true},
		{"set up a google meet tomorrow and email the link to bob@example.com", KindMeetAndEmail, true},
		{"set up a meeting tomorrow and email the team", "", false},
		{"schedule a team meeting tomorrow at 10am", "", false},
		{"do I have any unread emails", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.prompt, func(t *testing.T) {
			kind, ok := svc.Detect(context.Background(), tt.prompt)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantKind, kind)
		})
	}
}

func TestPlan_NamedWorkflowsWithoutLLM(t *testing.T) {
	svc := newService(nil)
	ctx := context.Background()

	t.Run("meet and email", func(t *testing.T) {
		prompt := "set up a google meet tomorrow and email the link to bob@example.com"
		plan, err := svc.Plan(ctx, KindMeetAndEmail, prompt)
		require.NoError(t, err)
		want := []Step{
			{Tool: ToolMeet, Action: ActionCreate, Prompt: prompt, Critical: true},
			{Tool: ToolMeet, Action: ActionShare, Prompt: prompt},
		}
		assert.Empty(t, cmp.Diff(want, plan.Steps))
	})

	t.Run("docs and share, create", func(t *testing.T) {
		plan, err := svc.Plan(ctx, KindDocsAndShare, "create a doc called Launch Plan and share it with ana@example.com and Bob")
		require.NoError(t, err)
		want := []Step{
			{Tool: ToolDocs, Action: ActionCreate, Prompt: `create a google doc called "Launch Plan"`, Critical: true},
			{Tool: ToolDocs, Action: ActionShare, Prompt: "share it with ana@example.com, Bob"},
		}
		assert.Empty(t, cmp.Diff(want, plan.Steps))
	})

	t.Run("docs and share, search", func(t *testing.T) {
		plan, err := svc.Plan(ctx, KindDocsAndShare, "find my notes about the offsite and share them with Priya")
		require.NoError(t, err)
		require.Len(t, plan.Steps, 2)
		assert.Equal(t, ActionSearchOpen, plan.Steps[0].Action)
		assert.Equal(t, "search for offsite in google docs", plan.Steps[0].Prompt)
		assert.Equal(t, "share it with Priya", plan.Steps[1].Prompt)
	})

	t.Run("calendar and docs", func(t *testing.T) {
		plan, err := svc.Plan(ctx, KindCalendarAndDocs, `schedule a design review tomorrow at 2pm and create a doc called "Review Notes"`)
		require.NoError(t, err)
		want := []Step{
			{Tool: ToolCalendar, Action: ActionCreate, Prompt: "schedule a design review tomorrow at 2pm", Critical: true},
			{Tool: ToolDocs, Action: ActionCreateNotes, Prompt: "Review Notes"},
		}
		assert.Empty(t, cmp.Diff(want, plan.Steps))
	})

	t.Run("custom requires LLM", func(t *testing.T) {
		_, err := svc.Plan(ctx, KindCustom, "email bob the budget and add it to my doc")
		assert.ErrorIs(t, err, ErrPlanUnavailable)
	})

	t.Run("custom meeting phrasing becomes meet and email", func(t *testing.T) {
		plan, err := svc.Plan(ctx, KindCustom, "create a meeting and send it to bob@example.com")
		require.NoError(t, err)
		assert.Equal(t, KindMeetAndEmail, plan.Kind)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := svc.Plan(ctx, Kind("NOPE"), "x")
		assert.Error(t, err)
	})
}

func TestPlan_LLMDetails(t *testing.T) {
	llm := ai.NewMockLLMService().
		On("calendar and document workflow", `{"eventTitle": "Team Meeting", "eventTime": "tomorrow at 2pm", "eventAttendees": ["ana@example.com"], "createDoc": true, "docTitle": ""}`)
	plan, err := newService(llm).Plan(context.Background(), KindCalendarAndDocs, "team meeting tomorrow 2pm with ana and a notes doc")
	require.NoError(t, err)

	want := []Step{
		{Tool: ToolCalendar, Action: ActionCreate, Prompt: `Create an event called "Team Meeting" tomorrow at 2pm with ana@example.com`, Critical: true},
		{Tool: ToolDocs, Action: ActionCreateNotes, Prompt: ""},
	}
	assert.Empty(t, cmp.Diff(want, plan.Steps))
}

func TestPlan_Custom(t *testing.T) {
	llm := ai.NewMockLLMService().
		On("break it down", `{"steps": [
			{"tool": "docs", "action": "Search", "prompt": "find the Q3 budget doc"},
			{"tool": "EMAIL", "action": "draft", "prompt": "email the budget to cfo@example.com", "critical": true},
			{"tool": "CALENDAR", "action": "create", "prompt": ""}
		]}`)
	plan, err := newService(llm).Plan(context.Background(), KindCustom, "find the Q3 budget doc and email it to cfo@example.com")
	require.NoError(t, err)

	want := []Step{
		{Tool: ToolDocs, Action: "search", Prompt: "find the Q3 budget doc"},
		{Tool: ToolEmail, Action: "draft", Prompt: "email the budget to cfo@example.com", Critical: true},
	}
	assert.Empty(t, cmp.Diff(want, plan.Steps))

	prompt := llm.Calls()[0]
	assert.Contains(t, prompt, "- MEET: Create, share Google Meet links")

	t.Run("empty plan", func(t *testing.T) {
		llm := ai.NewMockLLMService().On("break it down", `{"steps": []}`)
		_, err := newService(llm).Plan(context.Background(), KindCustom, "do things")
		assert.ErrorIs(t, err, ErrNoSteps)
	})
}

func TestExecute_ContinuesPastNonCriticalFailure(t *testing.T) {
	plan := &Plan{Kind: KindCustom, Steps: []Step{
		{Tool: ToolDocs, Action: "create", Prompt: "create a doc called Plan"},
		{Tool: ToolEmail, Action: "send", Prompt: "email it to bob"},
		{Tool: ToolCalendar, Action: "query", Prompt: "what's on tomorrow"},
	}}
	runner := NewMockStepRunner().
		On("create", StepResult{Type: "docs-create", Response: `Created "Plan"`, Artifacts: Artifacts{Doc: &Artifact{ID: "d1", Title: "Plan"}}}).
		OnError("send", errors.New("smtp down")).
		On("query", StepResult{Type: "query", Response: "Nothing scheduled."})

	report := newService(nil).Execute(context.Background(), plan, runner)

	assert.False(t, report.Aborted)
	assert.Equal(t, []string{"docs-create", "error", "query"}, report.StepTypes())
	assert.Len(t, runner.Steps(), 3)
	require.NotNil(t, report.Artifacts.Doc)
	assert.Equal(t, "d1", report.Artifacts.Doc.ID)

	want := "Completed workflow with 3 steps:" +
		"\n\nStep 1 (create): Created \"Plan\"" +
		"\n\nStep 2 (send) error: Failed to execute send: smtp down" +
		"\n\nStep 3 (query): Nothing scheduled."
	assert.Equal(t, want, report.Response())
}

func TestExecute_CriticalFailureAborts(t *testing.T) {
	plan := &Plan{Kind: KindDocsAndShare, Steps: []Step{
		{Tool: ToolDocs, Action: ActionSearchOpen, Prompt: "search for plan", Critical: true},
		{Tool: ToolDocs, Action: ActionShare, Prompt: "share it with bob"},
	}}
	runner := NewMockStepRunner().
		On(ActionSearchOpen, StepResult{Type: "docs-search", Error: `I found multiple documents matching "plan". Please specify which one you want to share.`})

	report := newService(nil).Execute(context.Background(), plan, runner)

	assert.True(t, report.Aborted)
	assert.Equal(t, []string{"docs-search"}, report.StepTypes())
	assert.Len(t, runner.Steps(), 1)
}

func TestExecute_UnknownTool(t *testing.T) {
	plan := &Plan{Kind: KindCustom, Steps: []Step{
		{Tool: "SLACK", Action: "post", Prompt: "post in #general"},
		{Tool: ToolDrive, Action: "search", Prompt: "find budget"},
	}}
	runner := NewMockStepRunner()
	report := newService(nil).Execute(context.Background(), plan, runner)

	require.Len(t, report.Outcomes, 2)
	assert.Contains(t, report.Outcomes[0].Error, "unknown tool: SLACK")
	assert.Len(t, runner.Steps(), 1)
}

func TestExecute_Enhancement(t *testing.T) {
	plan := &Plan{Kind: KindMeetAndEmail, Steps: []Step{
		{Tool: ToolMeet, Action: ActionCreate, Prompt: "create a meet", Critical: true},
		{Tool: ToolMeet, Action: ActionShare, Prompt: "email the link to bob@example.com"},
	}}
	meeting := &Artifact{ID: "e1", Title: "Meeting", Link: "https://meet.google.com/abc-defg-hij"}

	t.Run("with LLM", func(t *testing.T) {
		llm := ai.NewMockLLMService().
			On("Enhance this prompt", `"email the link https://meet.google.com/abc-defg-hij to bob@example.com"`)
		runner := NewMockStepRunner().On(ActionCreate, StepResult{Type: "meet-create", Artifacts: Artifacts{Meeting: meeting}})

		newService(llm).Execute(context.Background(), plan, runner)

		steps := runner.Steps()
		require.Len(t, steps, 2)
		assert.Equal(t, "create a meet", steps[0].Prompt)
		assert.Equal(t, "email the link https://meet.google.com/abc-defg-hij to bob@example.com", steps[1].Prompt)
		require.Len(t, llm.Calls(), 1)
		assert.Contains(t, llm.Calls()[0], `Meeting: {"id":"e1"`)
	})

	t.Run("LLM failure keeps prompt", func(t *testing.T) {
		llm := ai.NewMockLLMService()
		llm.Err = context.DeadlineExceeded
		runner := NewMockStepRunner().On(ActionCreate, StepResult{Type: "meet-create", Artifacts: Artifacts{Meeting: meeting}})

		newService(llm).Execute(context.Background(), plan, runner)
		assert.Equal(t, "email the link to bob@example.com", runner.Steps()[1].Prompt)
	})

	t.Run("nothing accumulated skips enhancement", func(t *testing.T) {
		llm := ai.NewMockLLMService()
		runner := NewMockStepRunner()

		newService(llm).Execute(context.Background(), plan, runner)
		assert.Empty(t, llm.Calls())
	})
}

func TestExecute_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	plan := &Plan{Kind: KindCustom, Steps: []Step{{Tool: ToolDrive, Action: "search", Prompt: "x"}}}

	report := newService(nil).Execute(ctx, plan, NewMockStepRunner())
	assert.True(t, report.Aborted)
	assert.Empty(t, report.Outcomes)
}

func TestArtifacts_Describe(t *testing.T) {
	var a Artifacts
	assert.True(t, a.Empty())

	a.Merge(Artifacts{Event: &Artifact{ID: "e1", Title: "Sync"}})
	a.Merge(Artifacts{Doc: &Artifact{ID: "d1", Title: "Notes"}})
	assert.False(t, a.Empty())

	lines := strings.Split(strings.TrimSpace(a.Describe()), "\n")
	assert.Equal(t, []string{
		`Event: {"id":"e1","title":"Sync"}`,
		`Document: {"id":"d1","title":"Notes"}`,
	}, lines)
}

func TestNotesDoc(t *testing.T) {
	ev := Artifact{
		Title:     "Team Meeting",
		Start:     "2026-01-28T14:00:00Z",
		End:       "2026-01-28T15:00:00Z",
		Attendees: []string{"ana@example.com"},
	}

	title, body := NotesDoc(ev, "", time.UTC)
	assert.Equal(t, "Notes: Team Meeting - 1/28/2026", title)
	assert.Equal(t, "Meeting Notes: Team Meeting\n"+
		"Date: Jan 28, 2026 2:00 PM - Jan 28, 2026 3:00 PM\n"+
		"\nAttendees: ana@example.com\n"+
		"\n# Agenda\n\n# Discussion\n\n# Action Items\n", body)

	title, _ = NotesDoc(ev, "Review Notes", time.UTC)
	assert.Equal(t, "Review Notes", title)
}

func TestParseKind(t *testing.T) {
	k, ok := ParseKind(" custom ")
	assert.True(t, ok)
	assert.Equal(t, KindCustom, k)

	_, ok = ParseKind("EMAIL")
	assert.False(t, ok)
}
