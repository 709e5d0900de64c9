package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// PlaybackAction is a SPOTIFY_CONTROL command.
type PlaybackAction string

const (
	ActionPause    PlaybackAction = "pause"
	ActionResume   PlaybackAction = "resume"
	ActionNext     PlaybackAction = "next"
	ActionPrevious PlaybackAction = "previous"
	ActionStatus   PlaybackAction = "status"
)

// PlaylistOp is what a SPOTIFY_PLAYLIST prompt asks for.
type PlaylistOp string

const (
	PlaylistCreate PlaylistOp = "create"
	PlaylistList   PlaylistOp = "list"
	PlaylistPlay   PlaylistOp = "play"
	PlaylistHelp   PlaylistOp = "help"
)

// PlaylistRequest is the payload of a SPOTIFY_PLAYLIST prompt.
type PlaylistRequest struct {
	Op   PlaylistOp
	Name string
}

var (
	playNoise        = regexp.MustCompile(`(?i)\b(?:please|play|listen\s+to|start|put\s+on|on\s+spotify|with\s+spotify|in\s+spotify|spotify|some|me|music|songs?|tracks?|artist|album|the\s+song|the\s+track)\b`)
	musicSearchNoise = regexp.MustCompile(`(?i)\b(?:please|search(?:\s+for)?|find|look\s+(?:for|up)|on\s+spotify|with\s+spotify|in\s+spotify|spotify|for|music|songs?|tracks?|artists?|albums?)\b`)

	statusWords   = regexp.MustCompile(`(?i)\b(?:what'?s\s+playing|what\s+is\s+playing|currently\s+playing|now\s+playing|what\s+song|status)\b`)
	pauseWords    = regexp.MustCompile(`(?i)\b(?:pause|stop|hold)\b`)
	resumeWords   = regexp.MustCompile(`(?i)\b(?:resume|unpause|continue|play|start)\b`)
	nextWords     = regexp.MustCompile(`(?i)\b(?:next|skip|forward)\b`)
	previousWords = regexp.MustCompile(`(?i)\b(?:previous|back|last\s+song|go\s+back|rewind)\b`)

	playlistCreateWords = regexp.MustCompile(`(?i)\b(?:create|make|new)\b`)
	playlistListWords   = regexp.MustCompile(`(?i)\b(?:list|show|my|what|which|all)\b`)
	playlistPlayWords   = regexp.MustCompile(`(?i)\b(?:play|shuffle|put\s+on)\b`)
	playlistQuotedName  = regexp.MustCompile(`(?i)(?:create|make|new)\s+(?:a\s+)?(?:new\s+)?(?:spotify\s+)?playlist\s+(?:called|named)\s+["“]([^"”]+)["”]`)
	playlistName        = regexp.MustCompile(`(?i)(?:create|make|new)\s+(?:a\s+)?(?:new\s+)?(?:spotify\s+)?playlist\s+(?:called|named)\s+(.+?)(?:\s+with\b|$)`)
	playlistPlayName    = regexp.MustCompile(`(?i)\b(?:play|shuffle|put\s+on)\s+(?:my\s+|the\s+)?(.+?)\s+playlist\b|\bplaylist\s+(?:called|named)?\s*["“]?([^"”]+?)["”]?\s*$`)
)

// PlayQuery strips command words from a SPOTIFY_PLAY prompt, leaving the
// song, artist or genre to search for.
func PlayQuery(prompt string) string {
	return trimPhrase(collapse(playNoise.ReplaceAllString(prompt, " ")))
}

// SearchQuery strips command words from a SPOTIFY_SEARCH prompt.
func SearchQuery(prompt string) string {
	return trimPhrase(collapse(musicSearchNoise.ReplaceAllString(prompt, " ")))
}

// ControlAction maps a SPOTIFY_CONTROL prompt to a playback command.
func ControlAction(prompt string) PlaybackAction {
	switch {
	case statusWords.MatchString(prompt):
		return ActionStatus
	case pauseWords.MatchString(prompt):
		return ActionPause
	case nextWords.MatchString(prompt):
		return ActionNext
	case previousWords.MatchString(prompt):
		return ActionPrevious
	case resumeWords.MatchString(prompt):
		return ActionResume
	}
	return ActionStatus
}

// Playlist parses a SPOTIFY_PLAYLIST prompt. A new playlist without a name is
// called "My Playlist <date>".
func Playlist(prompt string, now time.Time) PlaylistRequest {
	switch {
	case playlistCreateWords.MatchString(prompt):
		name := ""
		if m := playlistQuotedName.FindStringSubmatch(prompt); m != nil {
			name = m[1]
		} else if m := playlistName.FindStringSubmatch(prompt); m != nil {
			name = trimPhrase(m[1])
		}
		if name == "" {
			name = "My Playlist " + now.Format("1/2/2006")
		}
		return PlaylistRequest{Op: PlaylistCreate, Name: name}

	case playlistPlayWords.MatchString(prompt):
		if m := playlistPlayName.FindStringSubmatch(prompt); m != nil {
			name := m[1]
			if name == "" {
				name = m[2]
			}
			return PlaylistRequest{Op: PlaylistPlay, Name: trimPhrase(name)}
		}
		return PlaylistRequest{Op: PlaylistList}

	case playlistListWords.MatchString(prompt):
		return PlaylistRequest{Op: PlaylistList}
	}
	return PlaylistRequest{Op: PlaylistHelp}
}

// PlaylistChoice resolves a reply to a playlist listing: "#2", "the second
// one", or a (partial) playlist name.
func PlaylistChoice(prompt string, names []string) (int, bool) {
	if n, ok := Ordinal(prompt); ok {
		if n >= 1 && n <= len(names) {
			return n - 1, true
		}
		return 0, false
	}
	if n, ok := bareNumber(prompt); ok {
		if n >= 1 && n <= len(names) {
			return n - 1, true
		}
		return 0, false
	}
	want := strings.ToLower(collapse(playNoise.ReplaceAllString(prompt, " ")))
	want = strings.TrimPrefix(strings.TrimSpace(strings.TrimSuffix(want, "playlist")), "the ")
	if want == "" {
		return 0, false
	}
	for i, name := range names {
		if strings.EqualFold(name, want) {
			return i, true
		}
	}
	for i, name := range names {
		if strings.Contains(strings.ToLower(name), want) {
			return i, true
		}
	}
	return bestOverlap(prompt, names)
}

var bareNumberPattern = regexp.MustCompile(`^\s*(?:number\s+)?(\d{1,3})\s*\.?\s*$`)

func bareNumber(s string) (int, bool) {
	m := bareNumberPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	return n, err == nil
}
