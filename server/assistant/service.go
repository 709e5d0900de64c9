package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/browser"

	"github.com/hrygo/rift/plugin/ai"
	"github.com/hrygo/rift/plugin/ai/extract"
	"github.com/hrygo/rift/plugin/ai/router"
	"github.com/hrygo/rift/plugin/ai/session"
	"github.com/hrygo/rift/plugin/ai/workflow"
	"github.com/hrygo/rift/plugin/capability"
	"github.com/hrygo/rift/server/internal/observability"
	"github.com/hrygo/rift/store"
)

// Config holds the collaborators of the assistant. Clients must have every
// capability set; the other fields have defaults.
type Config struct {
	Classifier router.RouterService
	Extractor  *extract.Extractor
	Workflows  workflow.WorkflowService
	Sessions   session.SessionService
	Clients    *capability.Clients
	History    HistoryStore
	Auth       AuthURLs
	// OpenURL opens a link in the user's browser. Defaults to browser.OpenURL.
	OpenURL func(url string) error
	Metrics *observability.Metrics
	Logger  *slog.Logger
}

type handler func(ctx context.Context, t *turn) (*Result, error)

// stage is one step of the routing order. A stage that does not apply
// returns a nil result and a nil error.
type stage struct {
	name string
	run  handler
}

// turn is the state of one prompt while it is routed.
type turn struct {
	prompt string
	state  *session.State
	rc     *observability.RequestContext

	// followUp is the register as it stood when the prompt arrived.
	followUp *session.FollowUp
}

// history returns the prior exchange of a pending follow-up as chat
// messages, oldest first.
func (t *turn) history() []ai.Message {
	f := t.followUp
	if f == nil || (f.Prompt == "" && f.Response == "") {
		return nil
	}
	return []ai.Message{ai.UserMessage(f.Prompt), ai.AssistantMessage(f.Response)}
}

// Service implements AssistantService.
type Service struct {
	classifier router.RouterService
	x          *extract.Extractor
	llm        ai.LLMService
	workflows  workflow.WorkflowService
	sessions   session.SessionService
	clients    *capability.Clients
	history    HistoryStore
	auth       AuthURLs
	openURL    func(string) error
	metrics    *observability.Metrics
	logger     *slog.Logger

	stages   []stage
	handlers map[router.Intent]handler
}

// NewService creates the assistant and builds its dispatch table.
func NewService(cfg Config) *Service {
	x := cfg.Extractor
	if x == nil {
		x = extract.NewExtractor(nil, time.Local)
	}
	s := &Service{
		classifier: cfg.Classifier,
		x:          x,
		llm:        x.LLM(),
		workflows:  cfg.Workflows,
		sessions:   cfg.Sessions,
		clients:    cfg.Clients,
		history:    cfg.History,
		auth:       cfg.Auth,
		openURL:    cfg.OpenURL,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
	}
	if s.classifier == nil {
		s.classifier = router.NewService(router.Config{LLMClient: x.LLM()})
	}
	if s.workflows == nil {
		s.workflows = workflow.NewService(x)
	}
	if s.sessions == nil {
		s.sessions = session.NewMemoryStore()
	}
	if s.clients == nil {
		s.clients = &capability.Clients{}
	}
	if s.openURL == nil {
		s.openURL = browser.OpenURL
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.stages = []stage{
		{name: "meet-fast-path", run: s.meetFastPath},
		{name: "workflow", run: s.runWorkflow},
		{name: "follow-up", run: s.followUp},
		{name: "ordinal", run: s.ordinal},
		{name: "classify", run: s.classify},
	}
	s.handlers = map[router.Intent]handler{
		router.IntentEmailDraft:      s.createDraft,
		router.IntentEmailEdit:       s.editDraft,
		router.IntentEmailQuery:      s.queryEmails,
		router.IntentEmailView:       s.viewEmail,
		router.IntentCalendarCreate:  s.createEvent,
		router.IntentCalendarQuery:   s.queryEvents,
		router.IntentCalendarModify:  s.modifyEvent,
		router.IntentCalendarDelete:  s.deleteEvent,
		router.IntentDriveSearch:     s.searchDrive,
		router.IntentDriveOpen:       s.openDrive,
		router.IntentDriveShare:      s.shareDrive,
		router.IntentDocsCreate:      s.createDoc,
		router.IntentDocsSearch:      s.searchDocs,
		router.IntentDocsOpen:        s.openDoc,
		router.IntentDocsShare:       s.shareDoc,
		router.IntentDocsUpdate:      s.updateDoc,
		router.IntentMeetCreate:      s.createMeeting,
		router.IntentMeetShare:       s.shareMeeting,
		router.IntentSpotifyPlay:     s.play,
		router.IntentSpotifySearch:   s.searchMusic,
		router.IntentSpotifyControl:  s.control,
		router.IntentSpotifyPlaylist: s.playlist,
		router.IntentChat:            s.chat,
	}
	return s
}

// RoutePrompt handles one prompt.
func (s *Service) RoutePrompt(ctx context.Context, req Request) (*Result, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, ErrEmptyPrompt
	}
	return s.withTurn(ctx, req.SessionID, text, func(ctx context.Context, t *turn) *Result {
		if req.Context != nil {
			t.state.SetFollowUp(*req.Context)
			t.followUp = t.state.FollowUp()
		}
		return s.route(ctx, t)
	})
}

// SendDraft sends the session's email draft.
func (s *Service) SendDraft(ctx context.Context, sessionID string) (*Result, error) {
	return s.withTurn(ctx, sessionID, "send it", func(ctx context.Context, t *turn) *Result {
		t.rc.SetStage("send-draft")
		res, err := s.sendDraft(ctx, t)
		if err != nil {
			return s.convert(ctx, t, err)
		}
		return res
	})
}

// Reset returns the session to idle.
func (s *Service) Reset(ctx context.Context, sessionID string) error {
	st, err := s.sessions.LoadState(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	st.Lock()
	defer st.Unlock()
	st.Reset()
	st.Touch(time.Now())
	s.logger.Info("session reset", "session_id", st.ID)
	return nil
}

// History lists recent prompts.
func (s *Service) History(ctx context.Context, sessionID string, limit int) ([]*store.PromptHistory, error) {
	if s.history == nil {
		return nil, nil
	}
	find := &store.FindPromptHistory{Limit: limit}
	if sessionID != "" {
		find.SessionID = &sessionID
	}
	return s.history.ListPromptHistory(ctx, find)
}

// withTurn runs fn with the session locked, then updates the follow-up
// register and records the turn.
func (s *Service) withTurn(ctx context.Context, sessionID, text string, fn func(context.Context, *turn) *Result) (*Result, error) {
	st, err := s.sessions.LoadState(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	st.Lock()
	defer st.Unlock()

	rc := observability.NewRequestContext(s.logger, st.ID)
	t := &turn{prompt: text, state: st, rc: rc, followUp: st.FollowUp()}
	rc.Debug("prompt received", slog.String("input", ai.Truncate(text, 50)))

	res := fn(ctx, t)
	res.SessionID = st.ID
	settle(st, text, res)
	st.Touch(time.Now())

	if s.metrics != nil {
		s.metrics.Record(rc.Stage, rc.Duration(), res.Failed())
	}
	rc.Info("prompt routed",
		slog.String(observability.LogFieldResultType, res.Type),
		slog.String(observability.LogFieldIntent, string(res.Intent)),
		slog.Int64(observability.LogFieldDuration, rc.DurationMs()))
	s.record(ctx, t, res)
	return res, nil
}

// settle applies the single-slot follow-up rule: the latest result always
// replaces the pending follow-up, except failed results, which keep it so the
// user can retry.
func settle(st *session.State, prompt string, res *Result) {
	switch {
	case res.Failed():
	case res.FollowUpMode:
		st.SetFollowUp(session.FollowUp{Prompt: prompt, Response: res.Response, Mode: res.FollowUpType})
	default:
		st.ClearFollowUp()
	}
}

func (s *Service) record(ctx context.Context, t *turn, res *Result) {
	if s.history == nil {
		return
	}
	text := res.Response
	if text == "" {
		text = res.Error
	}
	_, err := s.history.CreatePromptHistory(ctx, &store.PromptHistory{
		SessionID:  t.state.ID,
		Prompt:     t.prompt,
		ResultType: res.Type,
		Response:   text,
	})
	if err != nil {
		t.rc.Warn("failed to record prompt history", slog.String("error", err.Error()))
	}
}

// route runs the stages in order; the first stage producing a result wins.
func (s *Service) route(ctx context.Context, t *turn) *Result {
	for _, stg := range s.stages {
		t.rc.SetStage(stg.name)
		res, err := stg.run(ctx, t)
		if err != nil {
			return s.convert(ctx, t, err)
		}
		if res != nil {
			return res
		}
	}
	return &Result{Type: TypeChat, Response: MsgCapabilities}
}

// convert turns a handler error into a result. This is the only place
// provider errors become user-facing.
func (s *Service) convert(ctx context.Context, t *turn, err error) *Result {
	switch {
	case errors.Is(err, capability.ErrAuthRequired):
		return s.authRequired(t, err)
	case errors.Is(err, capability.ErrNoActiveDevice):
		t.rc.Warn("no active spotify device", slog.String("error", err.Error()))
		return &Result{Type: TypeError, Error: MsgNoActiveDevice}
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		return &Result{Type: TypeError, Error: "The request was canceled."}
	}
	t.rc.Error("prompt failed", err)
	return &Result{Type: TypeError, Error: err.Error()}
}

// authRequired opens the consent page of the provider named by err.
func (s *Service) authRequired(t *turn, err error) *Result {
	p, ok := capability.AuthProvider(err)
	if !ok {
		p = capability.ProviderGoogle
	}
	t.rc.Warn("provider auth required", slog.String("provider", string(p)))

	res := &Result{Type: TypeAuthRequired, Error: MsgAuthRequired, Provider: p}
	if s.auth == nil {
		return res
	}
	url, aerr := s.auth.AuthURL(p)
	if aerr != nil {
		t.rc.Warn("failed to build auth url", slog.String("error", aerr.Error()))
		return res
	}
	res.AuthURL = url
	if oerr := s.openURL(url); oerr != nil {
		t.rc.Warn("failed to open browser", slog.String("error", oerr.Error()))
	}
	return res
}

func (s *Service) meetFastPath(ctx context.Context, t *turn) (*Result, error) {
	if !workflow.MeetPattern.MatchString(t.prompt) {
		return nil, nil
	}
	return s.createMeeting(ctx, t)
}

func (s *Service) runWorkflow(ctx context.Context, t *turn) (*Result, error) {
	if workflow.MusicPattern.MatchString(t.prompt) {
		return nil, nil
	}
	kind, ok := s.workflows.Detect(ctx, t.prompt)
	if !ok {
		return nil, nil
	}
	plan, err := s.workflows.Plan(ctx, kind, t.prompt)
	if err != nil {
		t.rc.Warn("workflow planning failed, classifying instead",
			slog.String("workflow", string(kind)),
			slog.String("error", err.Error()))
		return nil, nil
	}

	report := s.workflows.Execute(ctx, plan, &stepRunner{s: s, t: t})
	res := &Result{
		Type:     TypeWorkflow,
		Response: report.Response(),
		Success:  !report.Aborted,
		Result:   report.Artifacts,
	}
	for _, o := range report.Outcomes {
		res.Steps = append(res.Steps, StepSummary{
			Tool:     string(o.Step.Tool),
			Action:   o.Step.Action,
			Prompt:   o.Prompt,
			Type:     o.Type,
			Response: o.Response,
			Error:    o.Error,
		})
	}
	return res, nil
}

// followUp resolves the pending follow-up: sending or editing the draft, or
// choosing from a playlist listing.
func (s *Service) followUp(ctx context.Context, t *turn) (*Result, error) {
	draft := t.state.Draft()
	if draft != nil && sendPhrase.MatchString(t.prompt) {
		return s.sendDraft(ctx, t)
	}
	f := t.followUp
	if f == nil {
		return nil, nil
	}
	switch f.Mode {
	case session.ModeEmailEdit:
		if draft == nil {
			return nil, nil
		}
		if discardPhrase.MatchString(t.prompt) {
			t.state.ClearDraft()
			return &Result{Type: TypeChat, Response: "Draft discarded."}, nil
		}
		return s.editDraft(ctx, t)
	case session.ModePlaylistSelection:
		return s.choosePlaylist(ctx, t)
	}
	return nil, nil
}

func (s *Service) classify(ctx context.Context, t *turn) (*Result, error) {
	c := s.classifier.ClassifyIntent(ctx, t.prompt)
	t.rc.SetStage("intent:" + string(c.Intent))
	t.rc.Debug("intent classified",
		slog.String(observability.LogFieldIntent, string(c.Intent)),
		slog.String("source", string(c.Source)))

	h, ok := s.handlers[c.Intent]
	if !ok {
		h = s.chat
	}
	res, err := h(ctx, t)
	if res != nil {
		res.Intent = c.Intent
	}
	return res, err
}

// userError prefixes a provider error with what was being attempted.
type userError struct {
	action string
	err    error
}

func (e *userError) Error() string { return e.action + ": " + e.err.Error() }

func (e *userError) Unwrap() error { return e.err }

func failed(action string, err error) error {
	return &userError{action: action, err: err}
}

func chatResult(msg string) *Result {
	return &Result{Type: TypeChat, Response: msg}
}

func errorResult(msg string) *Result {
	return &Result{Type: TypeError, Error: msg}
}

// Ensure Service implements AssistantService
var _ AssistantService = (*Service)(nil)
