package session

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Mode tags what the last turn is waiting for.
type Mode string

const (
	ModeEmailEdit         Mode = "email-edit"
	ModeEmailSearch       Mode = "email-search"
	ModeEmailView         Mode = "email-view"
	ModeDriveSearch       Mode = "drive-search"
	ModeDriveOpen         Mode = "drive-open"
	ModeDocsSearch        Mode = "docs-search"
	ModeDocsOpen          Mode = "docs-open"
	ModePlaylistSelection Mode = "spotify-playlist-selection"
)

// Phase is the follow-up state machine position.
type Phase string

const (
	PhaseIdle                   Phase = "idle"
	PhaseAwaitingDisambiguation Phase = "awaiting-disambiguation"
	PhaseAwaitingRefinement     Phase = "awaiting-refinement"
)

// Phase returns the phase a follow-up in mode m puts the session in.
func (m Mode) Phase() Phase {
	switch m {
	case ModeEmailSearch, ModeDriveSearch, ModeDocsSearch, ModePlaylistSelection:
		return PhaseAwaitingDisambiguation
	case ModeEmailEdit, ModeEmailView, ModeDriveOpen, ModeDocsOpen:
		return PhaseAwaitingRefinement
	}
	return PhaseIdle
}

// ParseMode converts s to a known Mode.
func ParseMode(s string) (Mode, bool) {
	m := Mode(s)
	return m, m.Phase() != PhaseIdle
}

// FollowUp is the pending interactive state left by the previous turn.
type FollowUp struct {
	Prompt   string `json:"prompt"`
	Response string `json:"response"`
	Mode     Mode   `json:"mode"`
}

// Draft is the email being composed.
type Draft struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// ResultKind names what a listing holds.
type ResultKind string

const (
	KindEmails    ResultKind = "emails"
	KindFiles     ResultKind = "files"
	KindDocs      ResultKind = "docs"
	KindPlaylists ResultKind = "playlists"
)

// Item is one entry of a listing, addressable by its 1-based position.
type Item struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	URL      string `json:"url,omitempty"`
	URI      string `json:"uri,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
}

// Results is the last listing shown to the user.
type Results struct {
	Kind  ResultKind `json:"kind"`
	Query string     `json:"query"`
	Items []Item     `json:"items"`
}

// ErrNoResults is returned when an ordinal is resolved without a listing.
var ErrNoResults = errors.New("there are no search results to choose from; run a search first")

// OrdinalError reports an ordinal outside the current listing.
type OrdinalError struct {
	N   int
	Len int
}

func (e *OrdinalError) Error() string {
	return fmt.Sprintf("there is no item #%d; the last search returned %d result(s)", e.N, e.Len)
}

// State is one session's router state. The router holds Lock for the whole
// turn, so a session handles one prompt at a time.
type State struct {
	mu sync.Mutex

	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time

	draft    *Draft
	results  *Results
	followUp *FollowUp
}

// NewState creates an idle state.
func NewState(id string, now time.Time) *State {
	return &State{ID: id, CreatedAt: now, UpdatedAt: now}
}

// Lock acquires the session for one turn.
func (s *State) Lock() { s.mu.Lock() }

// Unlock releases the session.
func (s *State) Unlock() { s.mu.Unlock() }

// Touch records activity.
func (s *State) Touch(now time.Time) { s.UpdatedAt = now }

// Phase returns the current follow-up phase.
func (s *State) Phase() Phase {
	if s.followUp == nil {
		return PhaseIdle
	}
	return s.followUp.Mode.Phase()
}

// FollowUp returns the pending follow-up, or nil when idle.
func (s *State) FollowUp() *FollowUp {
	if s.followUp == nil {
		return nil
	}
	f := *s.followUp
	return &f
}

// SetFollowUp replaces the pending follow-up. There is a single slot: a new
// follow-up always overwrites the previous one.
func (s *State) SetFollowUp(f FollowUp) {
	s.followUp = &f
}

// ClearFollowUp returns the register to idle.
func (s *State) ClearFollowUp() {
	s.followUp = nil
}

// Draft returns a copy of the current draft, or nil.
func (s *State) Draft() *Draft {
	if s.draft == nil {
		return nil
	}
	d := *s.draft
	return &d
}

// SetDraft replaces the draft; an unsent previous draft is discarded.
func (s *State) SetDraft(d Draft) {
	s.draft = &d
}

// ClearDraft destroys the draft.
func (s *State) ClearDraft() {
	s.draft = nil
}

// Results returns the current listing, or nil.
func (s *State) Results() *Results {
	return s.results
}

// SetResults overwrites the listing.
func (s *State) SetResults(kind ResultKind, query string, items []Item) {
	s.results = &Results{Kind: kind, Query: query, Items: items}
}

// Resolve returns item n (1-based) of the current listing.
func (s *State) Resolve(n int) (Item, error) {
	if s.results == nil || len(s.results.Items) == 0 {
		return Item{}, ErrNoResults
	}
	if n < 1 || n > len(s.results.Items) {
		return Item{}, &OrdinalError{N: n, Len: len(s.results.Items)}
	}
	return s.results.Items[n-1], nil
}

// Reset returns the session to idle, dropping draft and listing.
func (s *State) Reset() {
	s.draft = nil
	s.results = nil
	s.followUp = nil
}

// Summary describes the state for listings.
func (s *State) Summary() SessionSummary {
	sum := SessionSummary{
		SessionID: s.ID,
		Phase:     s.Phase(),
		HasDraft:  s.draft != nil,
		UpdatedAt: s.UpdatedAt.Unix(),
	}
	if s.followUp != nil {
		sum.Mode = s.followUp.Mode
	}
	if s.results != nil {
		sum.Results = len(s.results.Items)
	}
	return sum
}
