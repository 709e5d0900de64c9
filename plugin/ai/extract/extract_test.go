package extract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/rift/plugin/ai"
)

// 2026-01-27 is a Tuesday.
var fixedNow = time.Date(2026, 1, 27, 10, 0, 0, 0, time.UTC)

func newTestExtractor(llm ai.LLMService) *Extractor {
	return NewExtractor(llm, time.UTC).WithClock(func() time.Time { return fixedNow })
}

func TestFindJSONObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"plain", `{"a": 1}`, `{"a": 1}`, true},
		{"fenced", "Sure!\n```json\n{\"a\": 1}\n```", `{"a": 1}`, true},
		{"nested", `x {"a": {"b": [1, 2]}} y`, `{"a": {"b": [1, 2]}}`, true},
		{"brace in string", `{"a": "}"} {"b": 2}`, `{"a": "}"}`, true},
		{"escaped quote", `{"a": "say \"{hi}\""}`, `{"a": "say \"{hi}\""}`, true},
		{"none", `no json here`, "", false},
		{"unbalanced", `{"a": 1`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindJSONObject(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTitleCase(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"team meeting", "Team Meeting"},
		{"the lord of the rings", "The Lord of the Rings"},
		{"meeting with sarah", "Meeting with Sarah"},
		{"what it's for", "What It's For"},
		{"  spaced   out  ", "Spaced Out"},
		{"iOS launch plan", "iOS Launch Plan"},
		{"DOCTOR APPOINTMENT", "DOCTOR APPOINTMENT"},
		{"q3 review", "Q3 Review"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, TitleCase(tt.input))
		})
	}
}

func TestEvent_Fallback(t *testing.T) {
	x := newTestExtractor(nil)

	got := x.Event(context.Background(), "schedule a team meeting tomorrow at 10am")
	assert.Equal(t, "Team Meeting", got.Title)
	require.True(t, got.HasStart())
	assert.Equal(t, time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC), got.StartTime)
	assert.Equal(t, time.Date(2026, 1, 28, 11, 0, 0, 0, time.UTC), got.EndTime)
	assert.Equal(t, "2026-01-28T10:00:00Z", got.Start)
}

func TestEvent_FallbackTable(t *testing.T) {
	x := newTestExtractor(nil)

	tests := []struct {
		name       string
		input      string
		title      string
		location   string
		recurrence []string
		hasStart   bool
	}{
		{"recurring", "meeting with Sarah every Monday at 9am", "Meeting with Sarah", "", []string{"RRULE:FREQ=WEEKLY;BYDAY=MO"}, true},
		{"daily", "daily standup at 10am", "Standup", "", []string{"RRULE:FREQ=DAILY"}, true},
		{"location", "lunch with sam friday at noon in Palo Alto", "Lunch with Sam", "Palo Alto", nil, true},
		{"called", "create an event called board review on friday at 2pm", "Board Review", "", nil, true},
		{"no time", "add dentist appointment to my calendar", "Dentist Appointment", "", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := x.Event(context.Background(), tt.input)
			assert.Equal(t, tt.title, got.Title)
			assert.Equal(t, tt.location, got.Location)
			assert.Equal(t, tt.recurrence, got.Recurrence)
			assert.Equal(t, tt.hasStart, got.HasStart())
		})
	}
}

func TestEvent_LLMPath(t *testing.T) {
	llm := ai.NewMockLLMService()
	llm.Default = "Sure!\n```json\n{\"title\": \"team sync\", \"start\": \"2026-01-28T10:00:00Z\", \"end\": null, \"location\": null, \"description\": null, \"recurrence\": null}\n```"
	x := newTestExtractor(llm)

	got, source := Run(context.Background(), x, eventSchema, "team sync tomorrow 10")
	assert.Equal(t, SourceLLM, source)
	assert.Equal(t, "Team Sync", got.Title)
	assert.Equal(t, time.Hour, got.EndTime.Sub(got.StartTime))

	require.Len(t, llm.Calls(), 1)
	prompt := llm.Calls()[0]
	assert.Contains(t, prompt, "2026-01-27T10:00:00Z")
	assert.Contains(t, prompt, "UTC+00:00")
	assert.Contains(t, prompt, "Example 3")
	assert.Contains(t, prompt, `"team sync tomorrow 10"`)
}

func TestRun_LLMFailureFallsBack(t *testing.T) {
	tests := []struct {
		name string
		llm  *ai.MockLLMService
	}{
		{"error", &ai.MockLLMService{Err: errors.New("503")}},
		{"deadline", &ai.MockLLMService{Err: context.DeadlineExceeded}},
		{"no json", &ai.MockLLMService{Default: "I cannot help with that"}},
		{"wrong types", &ai.MockLLMService{Default: `{"title": 42}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := newTestExtractor(tt.llm)
			got, source := Run(context.Background(), x, eventSchema, "schedule a team meeting tomorrow at 10am")
			assert.Equal(t, SourceRule, source)
			assert.Equal(t, "Team Meeting", got.Title)
		})
	}
}

func TestEmailDraft_Fallback(t *testing.T) {
	x := newTestExtractor(nil)

	tests := []struct {
		input string
		want  EmailDraft
	}{
		{"draft an email to john about the launch", EmailDraft{Recipient: "john", Subject: "The Launch"}},
		{"email john about lunch", EmailDraft{Recipient: "john", Subject: "Lunch"}},
		{"send an email to bob@example.com saying the report is ready", EmailDraft{Recipient: "bob@example.com", Body: "The report is ready"}},
		{"email sarah@x.com about the Q3 plan saying see attached", EmailDraft{Recipient: "sarah@x.com", Subject: "The Q3 Plan", Body: "See attached"}},
		{"write an email to a@x.com and b@y.org", EmailDraft{Recipient: "a@x.com, b@y.org"}},
		{"write an email", EmailDraft{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := x.EmailDraft(context.Background(), tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("EmailDraft() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEmailDraft_LLMKeepsRecipientName(t *testing.T) {
	llm := ai.NewMockLLMService()
	llm.Default = `{"recipient": "Sarah", "subject": "paris trip", "body": "hello"}`
	x := newTestExtractor(llm)

	got := x.EmailDraft(context.Background(), "write to Sarah about the paris trip saying hello")
	assert.Equal(t, EmailDraft{Recipient: "Sarah", Subject: "Paris Trip", Body: "hello"}, got)
}

func TestEmailQuery_CountPolicy(t *testing.T) {
	x := newTestExtractor(nil)

	tests := []struct {
		input string
		want  EmailQuery
	}{
		{"do I have any unread emails", EmailQuery{Count: 10, UnreadOnly: true}},
		{"show my last 5 emails from amazon", EmailQuery{Count: 5, Query: "from:amazon"}},
		{"show me 200 emails", EmailQuery{Count: 50}},
		{"any emails about the invoice", EmailQuery{Count: 10, Query: "the invoice"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := x.EmailQuery(context.Background(), tt.input)
			assert.Equal(t, tt.want, got)
		})
	}

	llm := ai.NewMockLLMService()
	llm.Default = `{"count": 500, "query": "", "unreadOnly": false}`
	got := newTestExtractor(llm).EmailQuery(context.Background(), "show me every email")
	assert.Equal(t, MaxEmailCount, got.Count)
}

func TestEmailView_Fallback(t *testing.T) {
	x := newTestExtractor(nil)
	assert.Equal(t, EmailView{Index: 2}, x.EmailView(context.Background(), "open email #2"))
	assert.Equal(t, EmailView{Query: "from:Amazon"}, x.EmailView(context.Background(), "show me the email from Amazon"))
	assert.Equal(t, EmailView{Index: 3}, x.EmailView(context.Background(), "read the third one"))
}

func TestEditDraft_Fallback(t *testing.T) {
	x := newTestExtractor(nil)
	current := EmailDraft{Recipient: "bob@x.com", Subject: "Launch", Body: "Hi Bob"}

	tests := []struct {
		input string
		want  EmailDraft
	}{
		{"change the subject to paris trip", EmailDraft{Recipient: "bob@x.com", Subject: "Paris Trip", Body: "Hi Bob"}},
		{"send it to carol@x.com", EmailDraft{Recipient: "carol@x.com", Subject: "Launch", Body: "Hi Bob"}},
		{"add thanks for your help", EmailDraft{Recipient: "bob@x.com", Subject: "Launch", Body: "Hi Bob\n\nThanks for your help"}},
		{"replace the body with see you soon", EmailDraft{Recipient: "bob@x.com", Subject: "Launch", Body: "See you soon"}},
		{"make it nicer", current},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := x.EditDraft(context.Background(), current, tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("EditDraft() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEditDraft_LLMMergesWithCurrent(t *testing.T) {
	llm := ai.NewMockLLMService()
	llm.Default = `{"recipient": "[No recipient specified]", "subject": "", "body": "Dear Bob, kind regards"}`
	x := newTestExtractor(llm)

	current := EmailDraft{Recipient: "bob@x.com", Subject: "Launch", Body: "hi"}
	got := x.EditDraft(context.Background(), current, "make it more formal")
	assert.Equal(t, EmailDraft{Recipient: "bob@x.com", Subject: "Launch", Body: "Dear Bob, kind regards"}, got)
	assert.Contains(t, llm.Calls()[0], "To: bob@x.com")
}

func TestDriveSearch_Fallback(t *testing.T) {
	x := newTestExtractor(nil)

	tests := []struct {
		input string
		want  DriveSearch
		mime  string
	}{
		{"find the budget spreadsheet in drive", DriveSearch{Query: "budget", FileType: FileTypeSpreadsheet}, "application/vnd.google-apps.spreadsheet"},
		{"search my google docs for meeting notes", DriveSearch{Query: "meeting notes", FileType: FileTypeDocument}, "application/vnd.google-apps.document"},
		{`search drive for "Q3 Roadmap"`, DriveSearch{Query: "Q3 Roadmap"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := x.DriveSearch(context.Background(), tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.mime, got.MimeType())
		})
	}
}

func TestDocs_Fallback(t *testing.T) {
	x := newTestExtractor(nil)
	ctx := context.Background()

	assert.Equal(t, DocsCreate{Title: "Roadmap"}, x.DocsCreate(ctx, "create a doc called Roadmap"))
	assert.Equal(t,
		DocsCreate{Title: "Offsite Agenda", Content: "Breakfast at 9"},
		x.DocsCreate(ctx, "make a google doc about the offsite agenda with breakfast at 9"))
	assert.Equal(t, DocsCreate{Title: DefaultDocTitle}, x.DocsCreate(ctx, "new google doc"))

	assert.Equal(t, DocsUpdate{Target: "Q3", Content: "Notes"}, x.DocsUpdate(ctx, "add notes to the doc about Q3"))
	assert.Equal(t, DocsUpdate{Target: "#2", Content: "Ship on friday"}, x.DocsUpdate(ctx, `append "ship on friday" to doc #2`))
}

func TestShare_Fallback(t *testing.T) {
	x := newTestExtractor(nil)

	tests := []struct {
		input string
		want  Share
	}{
		{"share file #1 with bob@example.com", Share{Target: "#1", Emails: []string{"bob@example.com"}, Role: "reader"}},
		{"share the budget spreadsheet with Alice so she can edit", Share{Target: "budget spreadsheet", Names: []string{"Alice"}, Role: "writer"}},
		{"send the meeting link to alice@example.com and Tom", Share{Emails: []string{"alice@example.com"}, Names: []string{"Tom"}, Role: "reader"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := x.Share(context.Background(), tt.input)
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Share() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMeet_Defaults(t *testing.T) {
	x := newTestExtractor(nil)

	got := x.Meet(context.Background(), "create a meeting")
	assert.Equal(t, DefaultMeetingTitle, got.Details.Title)
	assert.Equal(t, time.Date(2026, 1, 27, 11, 0, 0, 0, time.UTC), got.Details.StartTime)
	assert.Equal(t, time.Hour, got.Details.EndTime.Sub(got.Details.StartTime))
	assert.Empty(t, got.Recipients)
}

func TestMeet_Fallback(t *testing.T) {
	x := newTestExtractor(nil)

	got := x.Meet(context.Background(), "create a google meet for the design review tomorrow at 2pm and send it to ana@example.com")
	assert.Equal(t, "Design Review", got.Details.Title)
	assert.Equal(t, time.Date(2026, 1, 28, 14, 0, 0, 0, time.UTC), got.Details.StartTime)
	assert.Equal(t, time.Date(2026, 1, 28, 15, 0, 0, 0, time.UTC), got.Details.EndTime)
	assert.Equal(t, []string{"ana@example.com"}, got.Recipients)

	got = x.Meet(context.Background(), "set up a meet with Tom")
	assert.Equal(t, DefaultMeetingTitle, got.Details.Title)
	assert.Equal(t, []string{"Tom"}, got.Names)
}

func TestEventChanges_Fallback(t *testing.T) {
	x := newTestExtractor(nil)
	ctx := context.Background()

	got := x.EventChanges(ctx, "rename the standup to daily sync")
	assert.Equal(t, "Daily Sync", got.Title)

	got = x.EventChanges(ctx, "move the dentist appointment to friday at 4pm")
	assert.Equal(t, time.Date(2026, 1, 30, 16, 0, 0, 0, time.UTC), got.StartTime)

	got = x.EventChanges(ctx, "add a meet link to the standup and invite bob@example.com")
	assert.True(t, got.AddMeetLink)
	assert.Equal(t, []string{"bob@example.com"}, got.AddAttendees)
	assert.False(t, got.IsEmpty())

	assert.True(t, x.EventChanges(ctx, "change the standup").IsEmpty())
}

func TestSelect(t *testing.T) {
	candidates := []string{"Team Standup (Tue 09:00)", "1:1 with Bob (Wed 14:00)"}
	ctx := context.Background()

	t.Run("word overlap", func(t *testing.T) {
		idx, ok := newTestExtractor(nil).Select(ctx, "event", "delete the meeting with Bob", candidates)
		require.True(t, ok)
		assert.Equal(t, 1, idx)
	})

	t.Run("no overlap", func(t *testing.T) {
		_, ok := newTestExtractor(nil).Select(ctx, "event", "delete the meeting", candidates)
		assert.False(t, ok)
	})

	t.Run("ordinal out of range", func(t *testing.T) {
		_, ok := newTestExtractor(nil).Select(ctx, "event", "delete event 3", candidates)
		assert.False(t, ok)
	})

	t.Run("llm pick", func(t *testing.T) {
		llm := ai.NewMockLLMService()
		llm.Default = "Event 1"
		idx, ok := newTestExtractor(llm).Select(ctx, "event", "cancel my morning sync", candidates)
		require.True(t, ok)
		assert.Equal(t, 0, idx)
		assert.Contains(t, llm.Calls()[0], "Event 2: 1:1 with Bob (Wed 14:00)")
	})

	t.Run("llm none", func(t *testing.T) {
		llm := ai.NewMockLLMService()
		llm.Default = "NONE"
		_, ok := newTestExtractor(llm).Select(ctx, "event", "cancel the dentist", candidates)
		assert.False(t, ok)
	})

	t.Run("llm error falls back", func(t *testing.T) {
		llm := &ai.MockLLMService{Err: errors.New("boom")}
		idx, ok := newTestExtractor(llm).Select(ctx, "event", "remove the standup", candidates)
		require.True(t, ok)
		assert.Equal(t, 0, idx)
	})
}

func TestSpotify(t *testing.T) {
	assert.Equal(t, "Bohemian Rhapsody by Queen", PlayQuery("play Bohemian Rhapsody by Queen"))
	assert.Equal(t, "jazz", PlayQuery("play some jazz on spotify"))
	assert.Equal(t, "", PlayQuery("play music"))
	assert.Equal(t, "daft punk", SearchQuery("search spotify for daft punk"))

	controls := map[string]PlaybackAction{
		"pause":            ActionPause,
		"stop the music":   ActionPause,
		"skip this song":   ActionNext,
		"go back":          ActionPrevious,
		"resume":           ActionResume,
		"what's playing":   ActionStatus,
		"spotify":          ActionStatus,
		"play next track":  ActionNext,
		"previous track":   ActionPrevious,
		"continue playing": ActionResume,
	}
	for input, want := range controls {
		assert.Equal(t, want, ControlAction(input), input)
	}

	assert.Equal(t, PlaylistRequest{Op: PlaylistCreate, Name: "Focus"}, Playlist("create a playlist called Focus", fixedNow))
	assert.Equal(t, PlaylistRequest{Op: PlaylistCreate, Name: "Road Trip"}, Playlist(`make a playlist named "Road Trip"`, fixedNow))
	assert.Equal(t, PlaylistRequest{Op: PlaylistCreate, Name: "My Playlist 1/27/2026"}, Playlist("make a new playlist", fixedNow))
	assert.Equal(t, PlaylistRequest{Op: PlaylistList}, Playlist("show my playlists", fixedNow))
	assert.Equal(t, PlaylistRequest{Op: PlaylistPlay, Name: "workout"}, Playlist("play my workout playlist", fixedNow))
}

func TestPlaylistChoice(t *testing.T) {
	names := []string{"Workout", "Chill Vibes", "Focus"}

	tests := []struct {
		input string
		want  int
		ok    bool
	}{
		{"#2", 1, true},
		{"3", 2, true},
		{"play chill vibes", 1, true},
		{"the focus playlist", 2, true},
		{"#9", 0, false},
		{"something else entirely", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := PlaylistChoice(tt.input, names)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestFallback_Idempotent(t *testing.T) {
	x := newTestExtractor(nil)
	ctx := context.Background()
	prompts := []string{
		"schedule a team meeting tomorrow at 10am",
		"draft an email to john@example.com about the launch saying we ship friday",
		"find the budget spreadsheet in drive",
		"create a google meet with ana@example.com tomorrow at 2pm",
		"share file #2 with bob@example.com as editor",
		"",
	}

	for _, p := range prompts {
		assert.True(t, cmp.Equal(x.Event(ctx, p), x.Event(ctx, p)), "event %q", p)
		assert.True(t, cmp.Equal(x.EmailDraft(ctx, p), x.EmailDraft(ctx, p)), "draft %q", p)
		assert.True(t, cmp.Equal(x.DriveSearch(ctx, p), x.DriveSearch(ctx, p)), "drive %q", p)
		assert.True(t, cmp.Equal(x.Meet(ctx, p), x.Meet(ctx, p)), "meet %q", p)
		assert.True(t, cmp.Equal(x.Share(ctx, p), x.Share(ctx, p)), "share %q", p)
	}
}
