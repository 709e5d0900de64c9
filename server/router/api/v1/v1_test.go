package v1_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hrygo/rift/internal/profile"
	"github.com/hrygo/rift/plugin/capability"
	"github.com/hrygo/rift/plugin/oauth"
	"github.com/hrygo/rift/server/assistant"
	"github.com/hrygo/rift/server/internal/observability"
	v1 "github.com/hrygo/rift/server/router/api/v1"
	"github.com/hrygo/rift/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubAssistant struct {
	requests []assistant.Request
	sent     []string
	reset    []string
	history  []*store.PromptHistory
	limit    int
}

func (a *stubAssistant) RoutePrompt(_ context.Context, req assistant.Request) (*assistant.Result, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, assistant.ErrEmptyPrompt
	}
	a.requests = append(a.requests, req)
	id := req.SessionID
	if id == "" {
		id = "sess-new"
	}
	return &assistant.Result{
		SessionID: id,
		Type:      assistant.TypeEmailDraft,
		Response:  "**Email draft created.**\n\nTo: sarah@x.com",
	}, nil
}

func (a *stubAssistant) SendDraft(_ context.Context, sessionID string) (*assistant.Result, error) {
	a.sent = append(a.sent, sessionID)
	return &assistant.Result{SessionID: sessionID, Type: assistant.TypeEmailSent, Success: true, Response: "Email sent successfully to sarah@x.com"}, nil
}

func (a *stubAssistant) Reset(_ context.Context, sessionID string) error {
	a.reset = append(a.reset, sessionID)
	return nil
}

func (a *stubAssistant) History(_ context.Context, _ string, limit int) ([]*store.PromptHistory, error) {
	a.limit = limit
	return a.history, nil
}

type stubOAuth struct {
	callbackErr error
}

func (o *stubOAuth) AuthURL(p capability.Provider) (string, error) {
	if p != capability.ProviderGoogle {
		return "", oauth.ErrUnknownProvider
	}
	return "https://accounts.example.com/consent?state=abc", nil
}

func (o *stubOAuth) Callback(_ context.Context, _, _ string) (capability.Provider, error) {
	return capability.ProviderGoogle, o.callbackErr
}

func newTestServer(t *testing.T, a assistant.AssistantService, flow v1.OAuthFlow) *echo.Echo {
	t.Helper()
	svc := v1.NewAPIV1Service(&profile.Profile{Mode: "dev"}, a, flow, observability.NewMetrics())
	t.Cleanup(svc.Close)
	e := echo.New()
	svc.Register(e)
	return e
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRoutePrompt(t *testing.T) {
	a := &stubAssistant{}
	e := newTestServer(t, a, nil)

	rec := do(e, http.MethodPost, "/api/v1/prompt", `{"text":"email sarah@x.com about lunch"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "sess-new", got["session_id"])
	assert.Equal(t, assistant.TypeEmailDraft, got["type"])
	assert.Contains(t, got["html"], "<strong>Email draft created.</strong>")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sess-new", cookies[0].Value)
}

func TestRoutePrompt_SessionFromCookie(t *testing.T) {
	a := &stubAssistant{}
	e := newTestServer(t, a, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/prompt", strings.NewReader(`{"text":"send it"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.AddCookie(&http.Cookie{Name: "rift_session", Value: "sess-1"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, a.requests, 1)
	assert.Equal(t, "sess-1", a.requests[0].SessionID)
}

func TestRoutePrompt_EmptyText(t *testing.T) {
	e := newTestServer(t, &stubAssistant{}, nil)

	rec := do(e, http.MethodPost, "/api/v1/prompt", `{"text":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_ARGUMENT")
}

func TestSendDraftAndReset(t *testing.T) {
	a := &stubAssistant{}
	e := newTestServer(t, a, nil)

	rec := do(e, http.MethodPost, "/api/v1/draft/send", `{"session_id":"sess-1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"sess-1"}, a.sent)
	assert.Contains(t, rec.Body.String(), `"type":"email-sent"`)

	rec = do(e, http.MethodPost, "/api/v1/reset", `{"session_id":"sess-1"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"sess-1"}, a.reset)

	rec = do(e, http.MethodPost, "/api/v1/reset", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListHistory(t *testing.T) {
	a := &stubAssistant{history: []*store.PromptHistory{
		{ID: "01B", SessionID: "s", Prompt: "send it", ResultType: "email-sent"},
		{ID: "01A", SessionID: "s", Prompt: "email sarah", ResultType: "email-draft"},
	}}
	e := newTestServer(t, a, nil)

	rec := do(e, http.MethodGet, "/api/v1/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, a.limit)

	var got struct {
		History []struct {
			ID     string `json:"id"`
			Prompt string `json:"prompt"`
		} `json:"history"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.History, 2)
	assert.Equal(t, "01B", got.History[0].ID)

	rec = do(e, http.MethodGet, "/api/v1/history?limit=500", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 100, a.limit)

	rec = do(e, http.MethodGet, "/api/v1/history?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthStart(t *testing.T) {
	tests := []struct {
		name     string
		flow     v1.OAuthFlow
		path     string
		wantCode int
	}{
		{"redirects to consent", &stubOAuth{}, "/auth/google", http.StatusFound},
		{"unknown provider", &stubOAuth{}, "/auth/dropbox", http.StatusNotFound},
		{"not configured", nil, "/auth/google", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestServer(t, &stubAssistant{}, tt.flow)
			rec := do(e, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusFound {
				assert.Equal(t, "https://accounts.example.com/consent?state=abc", rec.Header().Get(echo.HeaderLocation))
			}
		})
	}
}

func TestAuthCallback(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		query    string
		wantCode int
		wantBody string
	}{
		{"success", nil, "?state=s&code=c", http.StatusOK, "Signed in to google"},
		{"bad state", oauth.ErrInvalidState, "?state=s&code=c", http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"exchange failed", errors.New("oauth2: invalid_grant"), "?state=s&code=c", http.StatusUnauthorized, "Sign-in failed"},
		{"consent denied", nil, "?error=access_denied", http.StatusBadRequest, "access_denied"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestServer(t, &stubAssistant{}, &stubOAuth{callbackErr: tt.err})
			rec := do(e, http.MethodGet, "/auth/callback"+tt.query, "")
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestGetMetricsOverview(t *testing.T) {
	e := newTestServer(t, &stubAssistant{}, nil)

	rec := do(e, http.MethodGet, "/api/v1/system/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got v1.MetricsOverviewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(0), got.TotalRequests)
	assert.Equal(t, 100.0, got.SuccessRate)
}
