package router

import (
	"regexp"
)

// intentRule matches when every group has at least one matching pattern
// and no pattern in none matches.
type intentRule struct {
	intent Intent
	all    []*regexp.Regexp
	none   []*regexp.Regexp
}

func (r intentRule) matches(input string) bool {
	for _, p := range r.all {
		if !p.MatchString(input) {
			return false
		}
	}
	for _, p := range r.none {
		if p.MatchString(input) {
			return false
		}
	}
	return true
}

// RuleMatcher is the deterministic fallback classifier.
// Rules are evaluated in order and the first match wins, so more specific
// intents sit above the looser ones that would also accept them
// ("delete the meeting" also satisfies the calendar query keywords).
type RuleMatcher struct {
	rules []intentRule
}

func re(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + pattern)
}

var (
	emailNoun    = re(`\b(email|emails|mail|inbox|unread|message|messages)\b`)
	eventNoun    = re(`\b(event|events|meeting|meetings|appointment|appointments|calendar)\b`)
	driveNoun    = re(`\b(drive|files?|folders?|spreadsheets?|sheets?|presentations?|slides?|pdfs?)\b`)
	docNoun      = re(`\b(google\s+docs?|docs?|documents?|notes?)\b`)
	musicNoun    = re(`\b(music|songs?|tracks?|artists?|albums?|spotify)\b`)
	searchVerb   = re(`\b(search|find|look\s+for|look\s+up|locate)\b`)
	openVerb     = re(`\b(open|view|show|read|display)\b`)
	shareVerb    = re(`\b(share|send)\b`)
	meetNoun     = re(`\b(google\s+meet|meet\s+link|meeting\s+link|video\s+call|video\s+conference|video\s+meeting)\b`)
	createVerb   = re(`\b(create|make|new|start|set\s+up)\b`)
	ordinalRef   = re(`#\s*\d+|\b(first|second|third|fourth|fifth|last)\b|\bnumber\s+\d+\b`)
	controlVerb  = re(`\b(pause|stop|resume|next|previous|skip|back|shuffle|repeat|what'?s\s+playing|currently\s+playing|now\s+playing)\b`)
	bareControl  = re(`^\s*(pause|stop|resume|skip|next|previous|back)(\s+(song|track|music|it))?\s*[.!]?\s*$`)
	playVerb     = re(`\b(play|listen\s+to|put\s+on)\b`)
	leadingPlay  = re(`^\s*(please\s+)?(play|listen\s+to|put\s+on)\b`)
	playlistNoun = re(`\bplaylists?\b`)
)

// NewRuleMatcher creates the ordered rule table.
func NewRuleMatcher() *RuleMatcher {
	return &RuleMatcher{rules: []intentRule{
		{intent: IntentEmailDraft, all: []*regexp.Regexp{
			re(`\b(draft|write|compose|create|send)\s+(an?\s+|the\s+)?(new\s+)?(email|mail|message)\b|\b(email|mail|message)\s+(to|for)\b|^\s*(e-?mail|message)\s+[a-z]`),
		}},
		{intent: IntentEmailView, all: []*regexp.Regexp{
			openVerb,
			re(`\b(emails?|mail|messages?)\b`),
			re(`#\s*\d+|\b(from|about|regarding)\b|\bnumber\s+\d+\b|\b(first|second|third)\b`),
		}},
		{intent: IntentEmailQuery, all: []*regexp.Regexp{
			emailNoun,
			re(`\b(show|list|get|check|view|read|any|new|unread|recent|latest|last)\b`),
		}},
		{intent: IntentDocsCreate, all: []*regexp.Regexp{
			createVerb,
			re(`\b(google\s+doc|doc|document)\b`),
		}, none: []*regexp.Regexp{searchVerb}},
		{intent: IntentDocsUpdate, all: []*regexp.Regexp{
			re(`\b(add|append|update|write|insert)\b`),
			re(`\b(to|in|into)\s+(the\s+|my\s+)?(google\s+)?(doc|document)\b`),
		}},
		{intent: IntentMeetShare, all: []*regexp.Regexp{shareVerb, meetNoun}},
		{intent: IntentMeetCreate, all: []*regexp.Regexp{createVerb, meetNoun}},
		{intent: IntentDocsShare, all: []*regexp.Regexp{shareVerb, docNoun}, none: []*regexp.Regexp{driveNoun}},
		{intent: IntentDriveShare, all: []*regexp.Regexp{shareVerb, re(`\b(drive|files?|#\s*\d+)\b`)}},
		{intent: IntentDocsOpen, all: []*regexp.Regexp{re(`\bopen\b`), docNoun}, none: []*regexp.Regexp{driveNoun}},
		{intent: IntentDriveOpen, all: []*regexp.Regexp{re(`\bopen\b`), driveNoun}},
		{intent: IntentDriveOpen, all: []*regexp.Regexp{re(`\bopen\b`), ordinalRef}},
		{intent: IntentDriveSearch, all: []*regexp.Regexp{searchVerb, driveNoun}},
		{intent: IntentDocsSearch, all: []*regexp.Regexp{searchVerb, docNoun}},
		{intent: IntentSpotifyControl, all: []*regexp.Regexp{bareControl}},
		{intent: IntentSpotifyControl, all: []*regexp.Regexp{controlVerb, musicNoun}, none: []*regexp.Regexp{playlistNoun}},
		{intent: IntentSpotifyPlaylist, all: []*regexp.Regexp{playlistNoun}},
		{intent: IntentSpotifySearch, all: []*regexp.Regexp{searchVerb, musicNoun}},
		{intent: IntentSpotifyPlay, all: []*regexp.Regexp{leadingPlay}, none: []*regexp.Regexp{eventNoun}},
		{intent: IntentSpotifyPlay, all: []*regexp.Regexp{playVerb, musicNoun}},
		{intent: IntentCalendarDelete, all: []*regexp.Regexp{
			re(`\b(delete|remove|cancel|clear)\b`), eventNoun,
		}},
		{intent: IntentCalendarModify, all: []*regexp.Regexp{
			re(`\b(change|modify|update|edit|rename|reschedule|move|invite)\b|\badd\b.*\bto\s+(the|my|this|that)\s+(event|meeting|appointment)\b`),
			eventNoun,
		}},
		{intent: IntentCalendarCreate, all: []*regexp.Regexp{
			re(`\b(add|create|schedule|set\s+up|book|make|new|plan|put)\b`), eventNoun,
		}, none: []*regexp.Regexp{re(`^\s*(what|when|do\s+i|am\s+i|show|list)\b`)}},
		{intent: IntentCalendarCreate, all: []*regexp.Regexp{
			re(`^\s*(schedule|book|set\s+up)\b`),
			re(`\b(today|tomorrow|tonight|monday|tuesday|wednesday|thursday|friday|saturday|sunday|next\s+week|at\s+\d{1,2}|\d{1,2}\s*(am|pm))\b`),
		}},
		{intent: IntentCalendarQuery, all: []*regexp.Regexp{
			re(`\b(what|when|show|list|do\s+i\s+have|am\s+i|upcoming|next|today|tomorrow|this\s+week|next\s+week|free|busy)\b`),
			re(`\b(schedule|agenda|calendar|events?|meetings?|appointments?|busy|free|plans?)\b`),
		}},
	}}
}

// Match returns the first matching intent, or IntentChat with matched=false.
func (m *RuleMatcher) Match(input string) (Intent, float32, bool) {
	for _, rule := range m.rules {
		if rule.matches(input) {
			return rule.intent, 0.8, true
		}
	}
	return IntentChat, 0.5, false
}
