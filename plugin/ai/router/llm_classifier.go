package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/hrygo/rift/plugin/ai"
	"github.com/hrygo/rift/plugin/ai/timeout"
)

// LLMClassifier asks the model for a single bare intent token.
type LLMClassifier struct {
	client ai.LLMService
}

// NewLLMClassifier creates a new LLM classifier. A nil client disables it.
func NewLLMClassifier(client ai.LLMService) *LLMClassifier {
	return &LLMClassifier{client: client}
}

// classificationSystemPrompt is sent with temperature 0.
const classificationSystemPrompt = `You classify requests typed into a desktop command bar.
Respond with ONLY ONE category name from the list, nothing else.`

// BuildClassificationPrompt renders the catalog and the user request.
func BuildClassificationPrompt(input string) string {
	var b strings.Builder
	b.WriteString("Analyze this user request and determine what action should be taken:\n")
	fmt.Fprintf(&b, "%q\n\nCategories:\n", input)
	for _, entry := range intentCatalog {
		fmt.Fprintf(&b, "- %s: %s\n", entry.Intent, entry.Description)
	}
	b.WriteString(`
If the user names a specific email source or topic, or uses a number reference, choose EMAIL_VIEW rather than EMAIL_QUERY.

Example:
Request: "Show me the Wall Street Journal email"
Response: EMAIL_VIEW`)
	return b.String()
}

// Classify returns the model's intent. Any reply that is not a catalog
// member is an error so the caller falls back to rules.
func (c *LLMClassifier) Classify(ctx context.Context, input string) (Intent, error) {
	if c == nil || c.client == nil {
		return "", ai.ErrLLMUnavailable
	}

	reply, err := ai.ChatWithTimeout(ctx, c.client, timeout.ClassifyTimeout,
		classificationSystemPrompt, BuildClassificationPrompt(input))
	if err != nil {
		return "", fmt.Errorf("LLM classification failed: %w", err)
	}

	intent, ok := ParseIntent(reply)
	if !ok {
		return "", fmt.Errorf("LLM returned unknown intent %q", ai.Truncate(reply, 40))
	}
	return intent, nil
}
