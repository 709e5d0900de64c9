// Package router classifies command-bar prompts into a closed set of intents.
package router

import (
	"context"
	"strings"
)

// RouterService defines the intent classification service interface.
type RouterService interface {
	// ClassifyIntent classifies a prompt into exactly one Intent.
	// It never fails: LLM errors and timeouts fall back to the rule matcher,
	// and the rule matcher defaults to IntentChat.
	ClassifyIntent(ctx context.Context, input string) Classification
}

// Intent represents the type of user intent.
type Intent string

const (
	IntentEmailDraft      Intent = "EMAIL_DRAFT"
	IntentEmailQuery      Intent = "EMAIL_QUERY"
	IntentEmailView       Intent = "EMAIL_VIEW"
	IntentEmailEdit       Intent = "EMAIL_EDIT"
	IntentCalendarCreate  Intent = "CALENDAR_CREATE"
	IntentCalendarQuery   Intent = "CALENDAR_QUERY"
	IntentCalendarModify  Intent = "CALENDAR_MODIFY"
	IntentCalendarDelete  Intent = "CALENDAR_DELETE"
	IntentDriveSearch     Intent = "DRIVE_SEARCH"
	IntentDriveOpen       Intent = "DRIVE_OPEN"
	IntentDriveShare      Intent = "DRIVE_SHARE"
	IntentDocsCreate      Intent = "DOCS_CREATE"
	IntentDocsSearch      Intent = "DOCS_SEARCH"
	IntentDocsOpen        Intent = "DOCS_OPEN"
	IntentDocsShare       Intent = "DOCS_SHARE"
	IntentDocsUpdate      Intent = "DOCS_UPDATE"
	IntentMeetCreate      Intent = "MEET_CREATE"
	IntentMeetShare       Intent = "MEET_SHARE"
	IntentSpotifyPlay     Intent = "SPOTIFY_PLAY"
	IntentSpotifySearch   Intent = "SPOTIFY_SEARCH"
	IntentSpotifyControl  Intent = "SPOTIFY_CONTROL"
	IntentSpotifyPlaylist Intent = "SPOTIFY_PLAYLIST"
	IntentChat            Intent = "CHAT"
)

// intentCatalog lists every intent with the one-line description sent to the LLM.
var intentCatalog = []struct {
	Intent      Intent
	Description string
}{
	{IntentEmailDraft, "the user wants to create, compose, or write an email"},
	{IntentEmailQuery, "the user wants to check or list emails in general (e.g. \"do I have any unread emails\")"},
	{IntentEmailView, "the user wants to view one specific email (by number, sender, or topic)"},
	{IntentEmailEdit, "the user wants to change the email draft that is currently open"},
	{IntentCalendarCreate, "the user wants to create or add a calendar event"},
	{IntentCalendarQuery, "the user wants to check or view calendar events"},
	{IntentCalendarModify, "the user wants to modify, update, or change a calendar event"},
	{IntentCalendarDelete, "the user wants to delete or remove a calendar event"},
	{IntentDriveSearch, "the user wants to search for files in Google Drive"},
	{IntentDriveOpen, "the user wants to open a specific file from Google Drive"},
	{IntentDriveShare, "the user wants to share a file from Google Drive"},
	{IntentDocsCreate, "the user wants to create a new Google Doc"},
	{IntentDocsSearch, "the user wants to search for Google Docs"},
	{IntentDocsOpen, "the user wants to open a specific Google Doc"},
	{IntentDocsShare, "the user wants to share a Google Doc"},
	{IntentDocsUpdate, "the user wants to add content to an existing Google Doc"},
	{IntentMeetCreate, "the user wants to create a Google Meet video call"},
	{IntentMeetShare, "the user wants to share a Google Meet link with people"},
	{IntentSpotifyPlay, "the user wants to play music, a song, an artist, or an album on Spotify"},
	{IntentSpotifySearch, "the user wants to search Spotify for music without playing it"},
	{IntentSpotifyControl, "the user wants to control playback (pause, resume, next, previous, status)"},
	{IntentSpotifyPlaylist, "the user wants to create, list, or play a Spotify playlist"},
	{IntentChat, "the request does not fit any of the above categories"},
}

// AllIntents returns every intent in catalog order.
func AllIntents() []Intent {
	out := make([]Intent, len(intentCatalog))
	for i, entry := range intentCatalog {
		out[i] = entry.Intent
	}
	return out
}

// ParseIntent converts a bare token into an Intent.
// Surrounding whitespace, backticks, quotes and trailing punctuation are ignored.
func ParseIntent(s string) (Intent, bool) {
	token := strings.TrimSpace(s)
	token = strings.Trim(token, "`\"'*.:; \n\t")
	if i := strings.IndexAny(token, " \n\t"); i > 0 {
		token = token[:i]
	}
	token = strings.ToUpper(token)
	for _, entry := range intentCatalog {
		if string(entry.Intent) == token {
			return entry.Intent, true
		}
	}
	return "", false
}

// Domain returns the capability family of the intent ("email", "calendar", ...).
func (i Intent) Domain() string {
	switch {
	case strings.HasPrefix(string(i), "EMAIL_"):
		return "email"
	case strings.HasPrefix(string(i), "CALENDAR_"):
		return "calendar"
	case strings.HasPrefix(string(i), "DRIVE_"):
		return "drive"
	case strings.HasPrefix(string(i), "DOCS_"):
		return "docs"
	case strings.HasPrefix(string(i), "MEET_"):
		return "meet"
	case strings.HasPrefix(string(i), "SPOTIFY_"):
		return "spotify"
	default:
		return "chat"
	}
}

// Source records which layer produced a classification.
type Source string

const (
	SourceLLM  Source = "llm"
	SourceRule Source = "rule"
)

// Classification is the result of ClassifyIntent.
type Classification struct {
	Intent     Intent  `json:"intent"`
	Confidence float32 `json:"confidence"`
	Source     Source  `json:"source"`
}
