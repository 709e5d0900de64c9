// Package assistant is the command bar entry point. RoutePrompt takes one
// prompt through a fixed order of stages (meeting fast path, workflow
// detection, follow-up, ordinal references, intent classification) and
// returns a uniform Result envelope. Provider failures never escape as raw
// errors: they are converted into error, auth-required or clarifying results.
package assistant

import (
	"context"
	"errors"

	"github.com/hrygo/rift/plugin/ai/router"
	"github.com/hrygo/rift/plugin/ai/session"
	"github.com/hrygo/rift/plugin/capability"
	"github.com/hrygo/rift/store"
)

// AssistantService defines the command bar interface.
type AssistantService interface {
	// RoutePrompt handles one prompt. The returned error is reserved for
	// invalid requests and session store failures; everything else is
	// reported inside the Result.
	RoutePrompt(ctx context.Context, req Request) (*Result, error)

	// SendDraft sends the session's email draft.
	SendDraft(ctx context.Context, sessionID string) (*Result, error)

	// Reset returns the session to idle, dropping draft, listing and follow-up.
	Reset(ctx context.Context, sessionID string) error

	// History lists recent prompts, newest first. An empty sessionID lists all sessions.
	History(ctx context.Context, sessionID string, limit int) ([]*store.PromptHistory, error)
}

// ErrEmptyPrompt is returned by RoutePrompt for blank text.
var ErrEmptyPrompt = errors.New("prompt is empty")

// Request is one submitted prompt.
type Request struct {
	// SessionID selects the session. Empty allocates a new one.
	SessionID string `json:"session_id,omitempty"`
	Text      string `json:"text"`
	// Context, when set, replaces the session's pending follow-up for this
	// turn. Clients that keep follow-up state themselves send it here.
	Context *session.FollowUp `json:"context,omitempty"`
}

// Result types.
const (
	TypeChat         = "chat"
	TypeError        = "error"
	TypeAuthRequired = "auth-required"
	TypeWorkflow     = "workflow-result"

	TypeEvent         = "event"
	TypeQuery         = "query"
	TypeDelete        = "delete"
	TypeEventModified = "event-modified"

	TypeEmailDraft  = "email-draft"
	TypeEmailSent   = "email-sent"
	TypeEmailUnread = "email-unread"
	TypeEmailSearch = "email-search"
	TypeEmailView   = "email-view"

	TypeDriveSearch = "drive-search"
	TypeDriveOpen   = "drive-open"
	TypeDriveShare  = "drive-share"

	TypeDocsCreate = "docs-create"
	TypeDocsSearch = "docs-search"
	TypeDocsOpen   = "docs-open"
	TypeDocsShare  = "docs-share"
	TypeDocsUpdate = "docs-update"

	TypeMeetCreate = "meet-create"
	TypeMeetUpdate = "meet-update"
	TypeMeetShare  = "meet-share"

	TypeSpotifyPlayback  = "spotify-playback"
	TypeSpotifyStatus    = "spotify-playback-status"
	TypeSpotifySearch    = "spotify-search"
	TypeSpotifyPlaylist  = "spotify-playlist"
	TypeSpotifyPlaylists = "spotify-playlists"
)

// User-facing messages shared by several stages.
const (
	MsgAuthRequired   = "Authentication required. Please check your browser to complete the sign-in process."
	MsgNoActiveDevice = "No active Spotify device found. Please open Spotify on your device first."
	MsgCapabilities   = "I can help you with calendar events, emails, Google Drive files, Google Docs, Google Meet meetings, and Spotify music. What would you like to do?"
)

// Result is the envelope returned for every prompt.
type Result struct {
	SessionID string `json:"session_id"`
	Type      string `json:"type"`
	Response  string `json:"response,omitempty"`
	Error     string `json:"error,omitempty"`
	Success   bool   `json:"success,omitempty"`

	FollowUpMode bool         `json:"followUpMode,omitempty"`
	FollowUpType session.Mode `json:"followUpType,omitempty"`

	// Intent is set when the prompt went through classification.
	Intent router.Intent `json:"intent,omitempty"`

	// Result carries the created or changed entity (event, meeting, document,
	// playlist, email content).
	Result  any            `json:"result,omitempty"`
	Changes []string       `json:"changes,omitempty"`
	Items   []session.Item `json:"items,omitempty"`
	Draft   *session.Draft `json:"draft,omitempty"`
	Steps   []StepSummary  `json:"steps,omitempty"`
	// Email is the recipient of a sent email.
	Email string `json:"email,omitempty"`
	// URL is the link opened in the browser, if any.
	URL string `json:"url,omitempty"`

	Provider capability.Provider `json:"provider,omitempty"`
	AuthURL  string              `json:"auth_url,omitempty"`
}

// Failed reports whether the result is an error or auth prompt.
func (r *Result) Failed() bool {
	return r.Type == TypeError || r.Type == TypeAuthRequired
}

// StepSummary is one executed workflow step.
type StepSummary struct {
	Tool     string `json:"tool"`
	Action   string `json:"action"`
	Prompt   string `json:"prompt"`
	Type     string `json:"type"`
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// HistoryStore persists routed prompts. *store.Store satisfies it.
type HistoryStore interface {
	CreatePromptHistory(ctx context.Context, create *store.PromptHistory) (*store.PromptHistory, error)
	ListPromptHistory(ctx context.Context, find *store.FindPromptHistory) ([]*store.PromptHistory, error)
}

// AuthURLs builds provider consent page URLs. *oauth.Registry satisfies it.
type AuthURLs interface {
	AuthURL(p capability.Provider) (string, error)
}
