package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	emailPattern   = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	ordinalPattern = regexp.MustCompile(`(?i)(?:#|\bnumber\s+|\bno\.\s*|\b(?:file|doc|document|email|mail|message|item|result|playlist|event)\s+)(\d{1,3})\b`)
	wordOrdinal    = regexp.MustCompile(`(?i)\b(first|second|third|fourth|fifth|sixth|seventh|eighth|ninth|tenth)\b`)
	spaceRun       = regexp.MustCompile(`\s+`)
	quotedPattern  = regexp.MustCompile(`"([^"]+)"|“([^”]+)”`)
)

var ordinalWords = map[string]int{
	"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5,
	"sixth": 6, "seventh": 7, "eighth": 8, "ninth": 9, "tenth": 10,
}

// nameStopwords are words after "to"/"for"/"with" that are never a contact name.
var nameStopwords = map[string]bool{
	"me": true, "my": true, "myself": true, "the": true, "a": true, "an": true,
	"him": true, "her": true, "them": true, "us": true, "everyone": true,
	"everybody": true, "all": true, "say": true, "ask": true, "tell": true,
	"let": true, "about": true, "it": true, "this": true, "that": true,
	"someone": true, "send": true, "be": true, "do": true, "see": true,
	"check": true, "discuss": true, "confirm": true, "remind": true,
	"email": true, "mail": true, "message": true, "write": true, "reply": true,
	"to": true,
}

// Emails returns every email address in s, in order, without duplicates.
func Emails(s string) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range emailPattern.FindAllString(s, -1) {
		m = strings.TrimRight(m, ".")
		key := strings.ToLower(m)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, m)
	}
	return out
}

// Ordinal returns the 1-based item reference in s ("#2", "file 2", "the second one").
func Ordinal(s string) (int, bool) {
	if m := ordinalPattern.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return n, true
		}
	}
	if m := wordOrdinal.FindStringSubmatch(s); m != nil {
		return ordinalWords[strings.ToLower(m[1])], true
	}
	return 0, false
}

// Quoted returns the first double-quoted span in s.
func Quoted(s string) (string, bool) {
	m := quotedPattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	if m[1] != "" {
		return m[1], true
	}
	return m[2], true
}

func collapse(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

// trimPhrase strips whitespace, wrapping quotes and trailing punctuation.
func trimPhrase(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'“”`)
	s = strings.TrimRight(s, ".!?,;:")
	return strings.TrimSpace(s)
}

func firstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
