package v1

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/rift/plugin/ai/session"
	"github.com/hrygo/rift/server/assistant"
	apierrors "github.com/hrygo/rift/server/internal/errors"
)

const (
	sessionCookie       = "rift_session"
	sessionCookieMaxAge = 12 * time.Hour

	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

type PromptRequest struct {
	SessionID string            `json:"session_id"`
	Text      string            `json:"text"`
	Context   *session.FollowUp `json:"context,omitempty"`
}

// PromptResponse is the assistant envelope plus the response rendered as HTML.
type PromptResponse struct {
	*assistant.Result
	HTML string `json:"html,omitempty"`
}

type SessionRequest struct {
	SessionID string `json:"session_id"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RoutePrompt handles one command bar prompt.
// POST /api/v1/prompt
func (s *APIV1Service) RoutePrompt(c echo.Context) error {
	var req PromptRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, apierrors.InvalidArgument("invalid request body"))
	}
	if req.SessionID == "" {
		req.SessionID = sessionFromCookie(c)
	}

	res, err := s.Assistant.RoutePrompt(c.Request().Context(), assistant.Request{
		SessionID: req.SessionID,
		Text:      req.Text,
		Context:   req.Context,
	})
	if err != nil {
		if errors.Is(err, assistant.ErrEmptyPrompt) {
			return respondError(c, apierrors.InvalidArgument(err.Error()))
		}
		return respondError(c, err)
	}
	return s.respondResult(c, res)
}

// SendDraft sends the session's email draft.
// POST /api/v1/draft/send
func (s *APIV1Service) SendDraft(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return respondError(c, err)
	}
	res, err := s.Assistant.SendDraft(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return s.respondResult(c, res)
}

// Reset returns the session to idle.
// POST /api/v1/reset
func (s *APIV1Service) Reset(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := s.Assistant.Reset(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListHistory returns recent prompts, newest first.
// GET /api/v1/history?limit=10&session_id=...
func (s *APIV1Service) ListHistory(c echo.Context) error {
	limit := defaultHistoryLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return respondError(c, apierrors.InvalidArgument("limit must be a positive integer"))
		}
		limit = min(n, maxHistoryLimit)
	}

	list, err := s.Assistant.History(c.Request().Context(), c.QueryParam("session_id"), limit)
	if err != nil {
		return respondError(c, err)
	}

	type historyItem struct {
		ID         string `json:"id"`
		SessionID  string `json:"session_id"`
		Prompt     string `json:"prompt"`
		ResultType string `json:"result_type"`
		Response   string `json:"response,omitempty"`
		CreatedTs  int64  `json:"created_ts"`
	}
	items := make([]historyItem, 0, len(list))
	for _, h := range list {
		items = append(items, historyItem{
			ID:         h.ID,
			SessionID:  h.SessionID,
			Prompt:     h.Prompt,
			ResultType: h.ResultType,
			Response:   h.Response,
			CreatedTs:  h.CreatedTs,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"history": items})
}

func (s *APIV1Service) respondResult(c echo.Context, res *assistant.Result) error {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    res.SessionID,
		Path:     "/",
		MaxAge:   int(sessionCookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(http.StatusOK, PromptResponse{Result: res, HTML: s.renderHTML(res)})
}

func (s *APIV1Service) renderHTML(res *assistant.Result) string {
	text := res.Response
	if text == "" {
		text = res.Error
	}
	if text == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(text), &buf); err != nil {
		slog.Warn("failed to render response markdown", "error", err)
		return ""
	}
	return buf.String()
}

func sessionID(c echo.Context) (string, error) {
	var req SessionRequest
	if err := c.Bind(&req); err != nil {
		return "", apierrors.InvalidArgument("invalid request body")
	}
	if req.SessionID == "" {
		req.SessionID = sessionFromCookie(c)
	}
	if req.SessionID == "" {
		return "", apierrors.InvalidArgument("session_id is required")
	}
	return req.SessionID, nil
}

func sessionFromCookie(c echo.Context) string {
	cookie, err := c.Cookie(sessionCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// respondError writes err as a coded JSON error. Errors that are not
// APIErrors are reported as internal.
func respondError(c echo.Context, err error) error {
	var apiErr *apierrors.APIError
	if !errors.As(err, &apiErr) {
		if errors.Is(err, context.Canceled) {
			apiErr = apierrors.ContextCanceled(err)
		} else {
			apiErr = apierrors.Internal(err)
		}
	}
	if apiErr.Code == apierrors.ErrCodeInternal {
		slog.Error("api request failed", "path", c.Path(), "error", err)
	}
	return c.JSON(apiErr.HTTPStatus(), errorResponse{Code: string(apiErr.Code), Message: apiErr.Message})
}
