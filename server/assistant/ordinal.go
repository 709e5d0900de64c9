package assistant

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/hrygo/rift/plugin/ai/session"
)

var (
	ordinalCommand = regexp.MustCompile(`(?i)^\s*(?:please\s+)?(?:(open|view|show|read|play|share|send)\s+)?(?:the\s+|me\s+)?(?:(file|doc|document|email|mail|message|item|result|playlist|number|option)\s*)?(?:#\s*|no\.\s*)?(\d{1,3})(?:st|nd|rd|th)?\b\s*(.*)$`)
	ordinalWord    = regexp.MustCompile(`(?i)^\s*(?:please\s+)?(?:(open|view|show|read|play|share|send)\s+)?(?:the\s+)?(first|second|third|fourth|fifth|sixth|seventh|eighth|ninth|tenth|last)(?:\s+(one|file|doc|document|email|mail|message|item|result|playlist))?\b\s*(.*)$`)
	recipientTail  = regexp.MustCompile(`(?i)^(?:with|to)\s+\S`)
)

var wordOrdinals = map[string]int{
	"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5,
	"sixth": 6, "seventh": 7, "eighth": 8, "ninth": 9, "tenth": 10,
}

// ordinalRef is a prompt that only points into the last listing,
// such as "open file #2" or "share the first one with ana@example.com".
type ordinalRef struct {
	verb string
	noun string
	n    int
	rest string
}

// parseOrdinal recognizes an ordinal reference. A bare number ("2") only
// counts while a listing is waiting for a choice.
func parseOrdinal(prompt string, size int, pending bool) (ordinalRef, bool) {
	if m := ordinalCommand.FindStringSubmatch(prompt); m != nil {
		n, err := strconv.Atoi(m[3])
		if err != nil {
			return ordinalRef{}, false
		}
		ref := ordinalRef{
			verb: strings.ToLower(m[1]),
			noun: strings.ToLower(m[2]),
			n:    n,
			rest: strings.TrimSpace(m[4]),
		}
		marked := ref.noun != "" || strings.Contains(prompt, "#")
		if !marked && !pending {
			return ordinalRef{}, false
		}
		return ref, ref.restOK()
	}
	if m := ordinalWord.FindStringSubmatch(prompt); m != nil {
		ref := ordinalRef{
			verb: strings.ToLower(m[1]),
			noun: strings.ToLower(m[3]),
			rest: strings.TrimSpace(m[4]),
		}
		if ref.noun == "one" {
			ref.noun = ""
		}
		if ref.verb == "" && !pending {
			return ordinalRef{}, false
		}
		if w := strings.ToLower(m[2]); w == "last" {
			ref.n = size
		} else {
			ref.n = wordOrdinals[w]
		}
		return ref, ref.restOK()
	}
	return ordinalRef{}, false
}

func (r ordinalRef) restOK() bool {
	if r.rest == "" {
		return true
	}
	return (r.verb == "share" || r.verb == "send") && recipientTail.MatchString(r.rest)
}

// accepts reports whether the reference makes sense for a listing of kind.
func (r ordinalRef) accepts(kind session.ResultKind) bool {
	switch r.noun {
	case "file", "doc", "document":
		if kind != session.KindFiles && kind != session.KindDocs {
			return false
		}
	case "email", "mail", "message":
		if kind != session.KindEmails {
			return false
		}
	case "playlist":
		if kind != session.KindPlaylists {
			return false
		}
	}
	switch r.verb {
	case "share":
		return kind == session.KindFiles || kind == session.KindDocs
	case "send":
		return false
	case "play":
		return kind == session.KindPlaylists
	}
	return true
}

// ordinal resolves a reference into the last listing without consulting
// the classifier.
func (s *Service) ordinal(ctx context.Context, t *turn) (*Result, error) {
	results := t.state.Results()
	if results == nil || len(results.Items) == 0 {
		return nil, nil
	}
	pending := t.state.Phase() == session.PhaseAwaitingDisambiguation
	ref, ok := parseOrdinal(t.prompt, len(results.Items), pending)
	if !ok || !ref.accepts(results.Kind) {
		return nil, nil
	}
	item, err := t.state.Resolve(ref.n)
	if err != nil {
		return errorResult(upperFirst(err.Error()) + "."), nil
	}

	switch results.Kind {
	case session.KindFiles:
		if ref.verb == "share" {
			return s.shareItem(ctx, t, s.drive(""), item)
		}
		return s.openItem(t, s.drive(""), item)
	case session.KindDocs:
		if ref.verb == "share" {
			return s.shareItem(ctx, t, s.docs(), item)
		}
		return s.openItem(t, s.docs(), item)
	case session.KindEmails:
		return s.showEmail(ctx, t, item)
	case session.KindPlaylists:
		return s.playPlaylist(ctx, item)
	}
	return nil, nil
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
