package assistant_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/rift/internal/profile"
	"github.com/hrygo/rift/plugin/ai"
	"github.com/hrygo/rift/plugin/ai/extract"
	"github.com/hrygo/rift/plugin/ai/router"
	"github.com/hrygo/rift/plugin/ai/session"
	"github.com/hrygo/rift/plugin/ai/workflow"
	"github.com/hrygo/rift/plugin/capability"
	"github.com/hrygo/rift/server/assistant"
	"github.com/hrygo/rift/server/internal/observability"
	"github.com/hrygo/rift/store"
	"github.com/hrygo/rift/store/db"
)

// 2026-01-27 is a Tuesday.
var fixedNow = time.Date(2026, 1, 27, 10, 0, 0, 0, time.UTC)

type stubAuth struct {
	url string
}

func (a *stubAuth) AuthURL(p capability.Provider) (string, error) {
	return a.url + "?provider=" + string(p), nil
}

type harness struct {
	svc       *assistant.Service
	mocks     *capability.Mocks
	router    *router.MockRouterService
	workflows *workflow.MockWorkflowService
	sessions  session.SessionService
	metrics   *observability.Metrics
	opened    []string
}

func newHarness(t *testing.T, history assistant.HistoryStore) *harness {
	t.Helper()
	return newLLMHarness(t, history, nil)
}

// newLLMHarness is newHarness with llm behind extraction, chat and reply
// suggestions. Classification stays on the mock router.
func newLLMHarness(t *testing.T, history assistant.HistoryStore, llm ai.LLMService) *harness {
	t.Helper()
	clients, mocks := capability.NewMockClients()
	h := &harness{
		mocks:     mocks,
		router:    router.NewMockRouterService(),
		workflows: workflow.NewMockWorkflowService(),
		sessions:  session.NewMemoryStore(),
		metrics:   observability.NewMetrics(),
	}
	x := extract.NewExtractor(llm, time.UTC).WithClock(func() time.Time { return fixedNow })
	h.svc = assistant.NewService(assistant.Config{
		Classifier: h.router,
		Extractor:  x,
		Workflows:  h.workflows,
		Sessions:   h.sessions,
		Clients:    clients,
		History:    history,
		Auth:       &stubAuth{url: "https://accounts.example.com/consent"},
		OpenURL: func(url string) error {
			h.opened = append(h.opened, url)
			return nil
		},
		Metrics: h.metrics,
	})
	return h
}

func (h *harness) route(t *testing.T, sessionID, text string) *assistant.Result {
	t.Helper()
	res, err := h.svc.RoutePrompt(context.Background(), assistant.Request{SessionID: sessionID, Text: text})
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func (h *harness) state(t *testing.T, sessionID string) *session.State {
	t.Helper()
	st, err := h.sessions.LoadState(context.Background(), sessionID)
	require.NoError(t, err)
	return st
}

func TestRoutePrompt_EmptyPrompt(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.svc.RoutePrompt(context.Background(), assistant.Request{Text: "   "})
	assert.ErrorIs(t, err, assistant.ErrEmptyPrompt)
}

func TestRoutePrompt_CreateEvent(t *testing.T) {
	h := newHarness(t, nil)

	res := h.route(t, "", "schedule a team meeting tomorrow at 10am")
	assert.Equal(t, assistant.TypeEvent, res.Type)
	assert.Equal(t, router.IntentCalendarCreate, res.Intent)
	assert.True(t, res.Success)
	assert.NotEmpty(t, res.SessionID)

	ev, ok := res.Result.(*capability.Event)
	require.True(t, ok)
	assert.Equal(t, "Team Meeting", ev.Summary)
	assert.Equal(t, time.Hour, ev.End.Sub(ev.Start))

	require.Len(t, h.mocks.Calendar.Created, 1)
	assert.Equal(t, time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC), h.mocks.Calendar.Created[0].Start)
}

func TestRoutePrompt_EventWithoutTimeAsksForIt(t *testing.T) {
	h := newHarness(t, nil)

	res := h.route(t, "", "add dentist appointment to my calendar")
	assert.Equal(t, assistant.TypeChat, res.Type)
	assert.Contains(t, res.Response, "date and time")
	assert.Empty(t, h.mocks.Calendar.Created)
}

func TestRoutePrompt_DraftSendRoundTrip(t *testing.T) {
	h := newHarness(t, nil)

	res := h.route(t, "", "email sarah@x.com about the Q3 plan saying see attached")
	require.Equal(t, assistant.TypeEmailDraft, res.Type)
	assert.True(t, res.FollowUpMode)
	assert.Equal(t, session.ModeEmailEdit, res.FollowUpType)
	require.NotNil(t, res.Draft)
	assert.Equal(t, session.Draft{From: "me@example.com", To: "sarah@x.com", Subject: "The Q3 Plan", Body: "See attached"}, *res.Draft)
	assert.Contains(t, res.Response, "**Email draft created.**")

	sid := res.SessionID
	require.NotNil(t, h.state(t, sid).Draft())

	sent := h.route(t, sid, "send it")
	assert.Equal(t, assistant.TypeEmailSent, sent.Type)
	assert.True(t, sent.Success)
	assert.Equal(t, "sarah@x.com", sent.Email)
	assert.Contains(t, sent.Response, "Email sent successfully to sarah@x.com")
	assert.Contains(t, sent.Response, "See attached")

	require.Len(t, h.mocks.Mail.Sent, 1)
	assert.Equal(t, capability.OutgoingEmail{From: "me@example.com", To: "sarah@x.com", Subject: "The Q3 Plan", Body: "See attached"}, h.mocks.Mail.Sent[0])

	st := h.state(t, sid)
	assert.Nil(t, st.Draft())
	assert.Nil(t, st.FollowUp())
}

func TestRoutePrompt_SendIncompleteDraftAsks(t *testing.T) {
	h := newHarness(t, nil)

	res := h.route(t, "", "email sarah@x.com about lunch")
	require.Equal(t, assistant.TypeEmailDraft, res.Type)

	ask := h.route(t, res.SessionID, "send it")
	assert.Equal(t, assistant.TypeChat, ask.Type)
	assert.Contains(t, ask.Response, "missing content")
	assert.True(t, ask.FollowUpMode)
	assert.Equal(t, session.ModeEmailEdit, ask.FollowUpType)
	assert.Empty(t, h.mocks.Mail.Sent)
	assert.NotNil(t, h.state(t, res.SessionID).Draft())
}

func TestSendDraft_ResolvesContactName(t *testing.T) {
	h := newHarness(t, nil)
	h.mocks.Contacts.Book["john"] = "john@example.com"

	res := h.route(t, "", "email john about the launch saying we ship friday")
	require.NotNil(t, res.Draft)
	assert.Equal(t, "john@example.com", res.Draft.To)

	sent, err := h.svc.SendDraft(context.Background(), res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, assistant.TypeEmailSent, sent.Type)
	require.Len(t, h.mocks.Mail.Sent, 1)
	assert.Equal(t, "john@example.com", h.mocks.Mail.Sent[0].To)
}

func TestRoutePrompt_UnresolvedRecipientBlocksSend(t *testing.T) {
	h := newHarness(t, nil)

	res := h.route(t, "", "email john about the launch saying we ship friday")
	require.NotNil(t, res.Draft)
	assert.Equal(t, "john", res.Draft.To)

	ask := h.route(t, res.SessionID, "send it")
	assert.Equal(t, assistant.TypeChat, ask.Type)
	assert.Contains(t, ask.Response, "john")
	assert.Empty(t, h.mocks.Mail.Sent)
}

func TestRoutePrompt_DiscardDraft(t *testing.T) {
	h := newHarness(t, nil)

	res := h.route(t, "", "email sarah@x.com about lunch")
	got := h.route(t, res.SessionID, "cancel")
	assert.Equal(t, assistant.TypeChat, got.Type)
	assert.Equal(t, "Draft discarded.", got.Response)
	assert.Nil(t, h.state(t, res.SessionID).Draft())
}

func TestRoutePrompt_UnreadEmailsThenOrdinal(t *testing.T) {
	h := newHarness(t, nil)
	h.mocks.Mail.Inbox = []capability.EmailContent{
		{Email: capability.Email{ID: "m1", From: "ana@example.com", Subject: "Offsite", Date: fixedNow, Unread: true}, Body: "Agenda attached."},
		{Email: capability.Email{ID: "m2", From: "bo@example.com", Subject: "Lunch?", Date: fixedNow, Unread: true}, Body: "Noon works."},
	}

	res := h.route(t, "", "do I have any unread emails")
	assert.Equal(t, assistant.TypeEmailUnread, res.Type)
	assert.Contains(t, h.mocks.Mail.Queries, "is:unread max:10")
	assert.Len(t, res.Items, 2)
	assert.Contains(t, res.Response, "1. Offsite")

	calls := h.router.Calls()
	view := h.route(t, res.SessionID, "open email #2")
	assert.Equal(t, assistant.TypeEmailView, view.Type)
	assert.Contains(t, view.Response, "Noon works.")
	assert.NotContains(t, view.Response, "Suggested response")
	assert.Equal(t, calls, h.router.Calls())
}

func seedInbox(h *harness) {
	h.mocks.Mail.Inbox = []capability.EmailContent{
		{Email: capability.Email{ID: "m1", From: "ana@example.com", Subject: "Offsite", Date: fixedNow, Unread: true}, Body: "Offsite agenda: budget review at 9."},
		{Email: capability.Email{ID: "m2", From: "bo@example.com", Subject: "Lunch?", Date: fixedNow, Unread: true}, Body: "Noon works."},
	}
}

const (
	replyMarker = "reply the user could send"
	chatMarker  = "desktop command bar assistant"
)

func TestRoutePrompt_ViewEmailSuggestsReply(t *testing.T) {
	tests := []struct {
		name string
		llm  *ai.MockLLMService
		want string
	}{
		{
			name: "suggestion",
			llm:  ai.NewMockLLMService().On(replyMarker, "  Thanks Ana, 9 works for me.  "),
			want: "\n\nSuggested response:\nThanks Ana, 9 works for me.",
		},
		{
			name: "nothing to answer",
			llm:  ai.NewMockLLMService().On(replyMarker, "NONE."),
		},
		{
			name: "llm failure",
			llm:  ai.NewMockLLMService().OnError(replyMarker, errors.New("quota exceeded")),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newLLMHarness(t, nil, tt.llm)
			seedInbox(h)

			listed := h.route(t, "", "do I have any unread emails")
			view := h.route(t, listed.SessionID, "open email #1")
			require.Equal(t, assistant.TypeEmailView, view.Type)
			assert.True(t, view.Success)
			assert.Contains(t, view.Response, "Offsite agenda: budget review at 9.")
			if tt.want == "" {
				assert.NotContains(t, view.Response, "Suggested response")
			} else {
				assert.True(t, strings.HasSuffix(view.Response, tt.want), view.Response)
			}

			var asked bool
			for _, call := range tt.llm.Calls() {
				if strings.Contains(call, replyMarker) {
					asked = true
					assert.Contains(t, call, "Offsite agenda: budget review at 9.")
				}
			}
			assert.True(t, asked)
		})
	}
}

func TestRoutePrompt_FollowUpCarriesPriorExchange(t *testing.T) {
	llm := ai.NewMockLLMService().
		On(replyMarker, "Sounds good.").
		On(chatMarker, "Ana scheduled a budget review at 9.")
	h := newLLMHarness(t, nil, llm)
	seedInbox(h)

	listed := h.route(t, "", "do I have any unread emails")
	view := h.route(t, listed.SessionID, "open email #1")
	require.Equal(t, assistant.TypeEmailView, view.Type)
	f := h.state(t, view.SessionID).FollowUp()
	require.NotNil(t, f)
	assert.Equal(t, session.ModeEmailView, f.Mode)

	got := h.route(t, view.SessionID, "summarize it for me")
	assert.Equal(t, assistant.TypeChat, got.Type)
	assert.Equal(t, "Ana scheduled a budget review at 9.", got.Response)

	calls := llm.Calls()
	require.NotEmpty(t, calls)
	last := calls[len(calls)-1]
	require.Contains(t, last, chatMarker)
	prior := strings.Index(last, "open email #1")
	shown := strings.Index(last, "Offsite agenda: budget review at 9.")
	asked := strings.Index(last, "summarize it for me")
	require.True(t, prior >= 0 && shown >= 0 && asked >= 0, last)
	assert.Less(t, prior, shown)
	assert.Less(t, shown, asked)

	// The chat answer settled the register, so the next turn starts fresh.
	assert.Nil(t, h.state(t, view.SessionID).FollowUp())
	h.route(t, view.SessionID, "summarize it for me")
	calls = llm.Calls()
	assert.NotContains(t, calls[len(calls)-1], "Offsite agenda")
}

func TestRoutePrompt_FileOrdinalAfterEmailListing(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
	}{
		{name: "update doc", prompt: "add hello world to doc #1"},
		{name: "open doc", prompt: "open doc #1"},
		{name: "open file", prompt: "open file #1"},
		{name: "share file", prompt: "share file #1 with ana@example.com"},
		{name: "share doc", prompt: "share doc #1 with ana@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			seedInbox(h)

			listed := h.route(t, "", "do I have any unread emails")
			require.Equal(t, assistant.TypeEmailUnread, listed.Type)

			res := h.route(t, listed.SessionID, tt.prompt)
			assert.Equal(t, assistant.TypeError, res.Type)
			assert.Contains(t, res.Error, "did not list files or documents")
			assert.Empty(t, h.mocks.Docs.Appended)
			assert.Empty(t, h.mocks.Docs.Shares)
			assert.Empty(t, h.mocks.Drive.Shares)
			assert.Empty(t, h.opened)
		})
	}
}

func TestRoutePrompt_DocOrdinalWithoutListing(t *testing.T) {
	h := newHarness(t, nil)

	res := h.route(t, "", "add hello world to doc #1")
	assert.Equal(t, assistant.TypeError, res.Type)
	assert.Contains(t, res.Error, "no search results")
	assert.Empty(t, h.mocks.Docs.Appended)
}

func TestRoutePrompt_DocOrdinalAfterDocsListing(t *testing.T) {
	h := newHarness(t, nil)
	st := h.state(t, "")
	st.SetResults(session.KindDocs, "offsite", []session.Item{{ID: "d1", Title: "Offsite notes", URL: "https://docs.example.com/d1"}})

	res := h.route(t, st.ID, "add hello world to doc #1")
	assert.Equal(t, assistant.TypeDocsUpdate, res.Type)
	assert.Equal(t, map[string][]string{"d1": {"Hello world"}}, h.mocks.Docs.Appended)
}

func TestRoutePrompt_NoUnreadEmails(t *testing.T) {
	h := newHarness(t, nil)

	res := h.route(t, "", "do I have any unread emails")
	assert.Equal(t, assistant.TypeEmailUnread, res.Type)
	assert.Equal(t, "You have no unread emails.", res.Response)
}

func seedFiles(t *testing.T, h *harness) string {
	t.Helper()
	st := h.state(t, "")
	st.SetResults(session.KindFiles, "budget", []session.Item{
		{ID: "f1", Title: "FileA", URL: "https://drive.example.com/f1"},
		{ID: "f2", Title: "FileB", URL: "https://drive.example.com/f2"},
	})
	st.SetFollowUp(session.FollowUp{Prompt: "find budget files", Mode: session.ModeDriveSearch})
	return st.ID
}

func TestRoutePrompt_OrdinalOpensFile(t *testing.T) {
	h := newHarness(t, nil)
	sid := seedFiles(t, h)

	res := h.route(t, sid, "open file #2")
	assert.Equal(t, assistant.TypeDriveOpen, res.Type)
	assert.True(t, strings.HasPrefix(res.Response, `Opening "FileB"`), res.Response)
	assert.Equal(t, []string{"https://drive.example.com/f2"}, h.opened)
	assert.Zero(t, h.router.Calls())
}

func TestRoutePrompt_OrdinalOutOfRange(t *testing.T) {
	h := newHarness(t, nil)
	sid := seedFiles(t, h)

	res := h.route(t, sid, "open file #5")
	assert.Equal(t, assistant.TypeError, res.Type)
	assert.Contains(t, res.Error, "#5")
	assert.Contains(t, res.Error, "2 result(s)")
	assert.Empty(t, h.opened)

	// A failed turn keeps the listing follow-up so the user can retry.
	f := h.state(t, sid).FollowUp()
	require.NotNil(t, f)
	assert.Equal(t, session.ModeDriveSearch, f.Mode)
}

func TestRoutePrompt_BareNumberNeedsPendingListing(t *testing.T) {
	h := newHarness(t, nil)
	sid := seedFiles(t, h)

	res := h.route(t, sid, "2")
	assert.Equal(t, assistant.TypeDriveOpen, res.Type)

	// The open moved the follow-up to refinement; a bare number is no
	// longer a choice.
	calls := h.router.Calls()
	h.route(t, sid, "2")
	assert.Equal(t, calls+1, h.router.Calls())
}

func TestRoutePrompt_OrdinalSharesFile(t *testing.T) {
	h := newHarness(t, nil)
	sid := seedFiles(t, h)

	res := h.route(t, sid, "share file #1 with ana@example.com")
	assert.Equal(t, assistant.TypeDriveShare, res.Type)
	assert.Contains(t, res.Response, "✓ ana@example.com")
	require.Len(t, h.mocks.Drive.Shares, 1)
	assert.Equal(t, capability.Share{ID: "f1", Email: "ana@example.com", Role: capability.RoleReader}, h.mocks.Drive.Shares[0])
}

func TestRoutePrompt_WorkflowReportsEveryStep(t *testing.T) {
	h := newHarness(t, nil)
	h.mocks.Docs.Err = errors.New("docs down")
	h.workflows.Detected = true
	h.workflows.Kind = workflow.KindCustom
	h.workflows.Steps = []workflow.Step{
		{Tool: workflow.ToolCalendar, Action: workflow.ActionCreate, Prompt: "schedule a team meeting tomorrow at 10am"},
		{Tool: workflow.ToolDocs, Action: workflow.ActionCreateNotes, Prompt: ""},
		{Tool: workflow.ToolEmail, Action: "send", Prompt: "email bob@example.com about the notes saying see you there"},
	}

	res := h.route(t, "", "schedule a team meeting tomorrow at 10am, write notes and email bob")
	assert.Equal(t, assistant.TypeWorkflow, res.Type)
	assert.True(t, res.Success)
	require.Len(t, res.Steps, 3)

	assert.Equal(t, assistant.TypeEvent, res.Steps[0].Type)
	assert.Empty(t, res.Steps[0].Error)
	assert.Contains(t, res.Steps[1].Error, "docs down")
	assert.Equal(t, assistant.TypeEmailSent, res.Steps[2].Type)

	require.Len(t, h.mocks.Mail.Sent, 1)
	assert.Equal(t, "bob@example.com", h.mocks.Mail.Sent[0].To)
	arts, ok := res.Result.(workflow.Artifacts)
	require.True(t, ok)
	require.NotNil(t, arts.Event)
	assert.Equal(t, "Team Meeting", arts.Event.Title)
}

func TestRoutePrompt_CriticalStepAborts(t *testing.T) {
	h := newHarness(t, nil)
	h.mocks.Meet.Err = errors.New("meet down")
	h.workflows.Detected = true
	h.workflows.Kind = workflow.KindMeetAndEmail
	h.workflows.Steps = []workflow.Step{
		{Tool: workflow.ToolMeet, Action: workflow.ActionCreate, Prompt: "a google meet with ana@example.com", Critical: true},
		{Tool: workflow.ToolMeet, Action: workflow.ActionShare, Prompt: "email it to ana@example.com"},
	}

	res := h.route(t, "", "video call with ana@example.com and email it")
	assert.Equal(t, assistant.TypeWorkflow, res.Type)
	assert.False(t, res.Success)
	require.Len(t, res.Steps, 1)
	assert.Contains(t, res.Steps[0].Error, "meet down")
	assert.Empty(t, h.mocks.Mail.Sent)
}

func TestRoutePrompt_WorkflowPlanErrorFallsThrough(t *testing.T) {
	h := newHarness(t, nil)
	h.workflows.Detected = true
	h.workflows.Kind = workflow.KindCustom
	h.workflows.PlanErr = workflow.ErrPlanUnavailable

	res := h.route(t, "", "schedule a team meeting tomorrow at 10am")
	assert.Equal(t, assistant.TypeEvent, res.Type)
}

func TestRoutePrompt_AuthRequired(t *testing.T) {
	h := newHarness(t, nil)
	h.mocks.Calendar.Err = capability.AuthRequired(capability.ProviderGoogle, errors.New("token expired"))

	res := h.route(t, "", "what's on my calendar today")
	assert.Equal(t, assistant.TypeAuthRequired, res.Type)
	assert.Equal(t, assistant.MsgAuthRequired, res.Error)
	assert.Equal(t, capability.ProviderGoogle, res.Provider)
	assert.Equal(t, "https://accounts.example.com/consent?provider=google", res.AuthURL)
	assert.Equal(t, []string{res.AuthURL}, h.opened)
}

func TestRoutePrompt_NoActiveDevice(t *testing.T) {
	h := newHarness(t, nil)
	h.mocks.Music.HasDevice = false
	h.mocks.Music.Results = capability.SearchResults{Tracks: []capability.Track{
		{Name: "Yesterday", URI: "spotify:track:1", Artists: []string{"The Beatles"}},
	}}

	res := h.route(t, "", "play yesterday by the beatles")
	assert.Equal(t, assistant.TypeError, res.Type)
	assert.Equal(t, assistant.MsgNoActiveDevice, res.Error)
}

func TestRoutePrompt_PlayTrack(t *testing.T) {
	h := newHarness(t, nil)
	h.mocks.Music.Results = capability.SearchResults{Tracks: []capability.Track{
		{Name: "Yesterday", URI: "spotify:track:1", Artists: []string{"The Beatles"}},
	}}

	res := h.route(t, "", "play yesterday by the beatles")
	assert.Equal(t, assistant.TypeSpotifyPlayback, res.Type)
	assert.Equal(t, `Now playing: "Yesterday" by The Beatles`, res.Response)
	assert.Equal(t, []string{"spotify:track:1"}, h.mocks.Music.Played)
}

func TestRoutePrompt_PlaylistSelection(t *testing.T) {
	h := newHarness(t, nil)
	h.mocks.Music.Lists = []capability.Playlist{
		{ID: "p1", Name: "Focus", URI: "spotify:playlist:p1", Tracks: 12},
		{ID: "p2", Name: "Road Trip", URI: "spotify:playlist:p2", Tracks: 40},
	}

	res := h.route(t, "", "show my playlists")
	require.Equal(t, assistant.TypeSpotifyPlaylists, res.Type)
	assert.Equal(t, session.ModePlaylistSelection, res.FollowUpType)

	got := h.route(t, res.SessionID, "road trip")
	assert.Equal(t, assistant.TypeSpotifyPlayback, got.Type)
	assert.Equal(t, []string{"spotify:playlist:p2"}, h.mocks.Music.Played)
}

func TestRoutePrompt_ChatFallback(t *testing.T) {
	h := newHarness(t, nil)

	res := h.route(t, "", "tell me a joke")
	assert.Equal(t, assistant.TypeChat, res.Type)
	assert.Equal(t, assistant.MsgCapabilities, res.Response)
}

func TestRoutePrompt_ProviderErrorBecomesErrorResult(t *testing.T) {
	h := newHarness(t, nil)
	h.mocks.Calendar.Err = errors.New("backend unavailable")

	res := h.route(t, "", "what's on my calendar today")
	assert.Equal(t, assistant.TypeError, res.Type)
	assert.Equal(t, "Failed to query calendar: backend unavailable", res.Error)

	snap := h.metrics.Snapshot()
	assert.Equal(t, int64(1), snap.RequestTotal)
	assert.Equal(t, int64(1), snap.RequestFailed)
}

func TestRoutePrompt_ContextOverridesFollowUp(t *testing.T) {
	h := newHarness(t, nil)
	h.mocks.Music.Lists = []capability.Playlist{{ID: "p1", Name: "Focus", URI: "spotify:playlist:p1"}}

	listed := h.route(t, "", "show my playlists")
	_, err := h.svc.RoutePrompt(context.Background(), assistant.Request{
		SessionID: listed.SessionID,
		Text:      "focus",
		Context:   &session.FollowUp{Prompt: "show my playlists", Mode: session.ModeEmailView},
	})
	require.NoError(t, err)
	assert.Empty(t, h.mocks.Music.Played)
}

func TestReset(t *testing.T) {
	h := newHarness(t, nil)

	res := h.route(t, "", "email sarah@x.com about lunch")
	require.NoError(t, h.svc.Reset(context.Background(), res.SessionID))

	st := h.state(t, res.SessionID)
	assert.Nil(t, st.Draft())
	assert.Nil(t, st.FollowUp())
	assert.Nil(t, st.Results())
}

func TestHistory(t *testing.T) {
	p := &profile.Profile{
		Mode:   "dev",
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "rift_test.db"),
	}
	driver, err := db.NewDBDriver(p)
	require.NoError(t, err)
	s := store.New(driver, p)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })

	h := newHarness(t, s)
	first := h.route(t, "", "do I have any unread emails")
	h.route(t, first.SessionID, "tell me a joke")
	h.route(t, "", "tell me another joke")

	list, err := h.svc.History(context.Background(), first.SessionID, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "tell me a joke", list[0].Prompt)
	assert.Equal(t, assistant.TypeChat, list[0].ResultType)
	assert.Equal(t, "do I have any unread emails", list[1].Prompt)
	assert.Equal(t, assistant.TypeEmailUnread, list[1].ResultType)

	all, err := h.svc.History(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
