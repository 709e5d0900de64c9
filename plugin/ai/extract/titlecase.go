package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

var smallWords = map[string]bool{
	"a": true, "an": true, "and": true, "as": true, "at": true, "but": true,
	"by": true, "for": true, "in": true, "nor": true, "of": true, "on": true,
	"or": true, "so": true, "the": true, "to": true, "up": true, "with": true,
}

// TitleCase capitalizes every word of s except small words (articles, short
// prepositions, conjunctions) that are neither first nor last. Whitespace is
// collapsed. Words that already carry inner capitals ("iOS", "McKay") and
// all-caps acronyms are kept as written.
func TitleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		lower := strings.ToLower(w)
		if i > 0 && i < len(words)-1 && smallWords[strings.Trim(lower, ".,:;!?")] {
			words[i] = lower
			continue
		}
		if hasInnerUpper(w) {
			continue
		}
		words[i] = capitalize(lower)
	}
	return strings.Join(words, " ")
}

func capitalize(w string) string {
	for i, r := range w {
		if unicode.IsLetter(r) {
			return w[:i] + string(unicode.ToUpper(r)) + w[i+utf8.RuneLen(r):]
		}
		if unicode.IsDigit(r) {
			return w
		}
	}
	return w
}

func hasInnerUpper(w string) bool {
	first := true
	for _, r := range w {
		if !unicode.IsLetter(r) {
			continue
		}
		if !first && unicode.IsUpper(r) {
			return true
		}
		first = false
	}
	return false
}
