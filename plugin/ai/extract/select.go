package extract

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/hrygo/rift/plugin/ai"
	"github.com/hrygo/rift/plugin/ai/timeout"
)

var (
	itemReply = regexp.MustCompile(`(?i)\b(?:item|event|playlist|option)?\s*#?(\d{1,3})\b`)
	wordSplit = regexp.MustCompile(`[^\p{L}\p{N}]+`)
)

// selectNoise are prompt words that never identify an item.
var selectNoise = map[string]bool{
	"delete": true, "remove": true, "cancel": true, "clear": true, "modify": true,
	"change": true, "update": true, "edit": true, "move": true, "reschedule": true,
	"rename": true, "play": true, "open": true, "my": true, "the": true, "event": true,
	"meeting": true, "appointment": true, "calendar": true, "playlist": true,
	"from": true, "with": true, "and": true, "for": true, "please": true, "add": true,
	"link": true, "invite": true, "call": true, "one": true, "that": true, "this": true,
}

// Select picks the item of candidates the prompt refers to and returns its
// 0-based index. kind names the items in the LLM instruction ("event",
// "playlist"). An explicit ordinal always wins; otherwise the LLM chooses,
// falling back to the candidate sharing the most words with the prompt.
func (x *Extractor) Select(ctx context.Context, kind, prompt string, candidates []string) (int, bool) {
	if len(candidates) == 0 {
		return 0, false
	}
	if n, ok := Ordinal(prompt); ok {
		if n >= 1 && n <= len(candidates) {
			return n - 1, true
		}
		return 0, false
	}

	if x.llm != nil {
		idx, err := x.selectLLM(ctx, kind, prompt, candidates)
		if err == nil {
			return idx, idx >= 0
		}
		slog.Warn("selection LLM path failed, using word overlap",
			"kind", kind,
			"input", ai.Truncate(prompt, 50),
			"error", err)
	}
	return bestOverlap(prompt, candidates)
}

func (x *Extractor) selectLLM(ctx context.Context, kind, prompt string, candidates []string) (int, error) {
	label := upperFirst(kind)

	var b strings.Builder
	fmt.Fprintf(&b, "The user said: %q\n\nWhich of these %ss do they mean?\n\n", prompt, kind)
	for i, c := range candidates {
		fmt.Fprintf(&b, "%s %d: %s\n", label, i+1, c)
	}
	fmt.Fprintf(&b, "\nRespond with only \"%s N\" for the matching one, or \"NONE\" if none matches.", label)

	reply, err := ai.ChatWithTimeout(ctx, x.llm, timeout.SelectTimeout, "", b.String())
	if err != nil {
		return 0, err
	}
	if strings.Contains(strings.ToUpper(reply), "NONE") {
		return -1, nil
	}
	m := itemReply.FindStringSubmatch(reply)
	if m == nil {
		return 0, fmt.Errorf("unrecognized selection reply: %s", ai.Truncate(reply, 50))
	}
	n, _ := strconv.Atoi(m[1])
	if n < 1 || n > len(candidates) {
		return 0, fmt.Errorf("selection %d out of range", n)
	}
	return n - 1, nil
}

// bestOverlap returns the candidate sharing the most significant words with
// prompt. Ties and zero overlap select nothing.
func bestOverlap(prompt string, candidates []string) (int, bool) {
	words := significantWords(prompt)
	if len(words) == 0 {
		return 0, false
	}

	best, bestScore, tied := -1, 0, false
	for i, c := range candidates {
		score := 0
		for w := range significantWords(c) {
			if words[w] {
				score++
			}
		}
		switch {
		case score > bestScore:
			best, bestScore, tied = i, score, false
		case score == bestScore && score > 0:
			tied = true
		}
	}
	if best < 0 || tied {
		return 0, false
	}
	return best, true
}

func significantWords(s string) map[string]bool {
	out := map[string]bool{}
	for _, w := range wordSplit.Split(strings.ToLower(s), -1) {
		if len(w) < 3 || selectNoise[w] || smallWords[w] {
			continue
		}
		out[w] = true
	}
	return out
}
