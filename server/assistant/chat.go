package assistant

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hrygo/rift/plugin/ai"
	"github.com/hrygo/rift/plugin/ai/timeout"
)

const chatSystemPrompt = `You are Rift, a desktop command bar assistant.
You can manage calendar events, read and send email, search and share Google Drive files,
create and edit Google Docs, set up Google Meet calls and control Spotify.
Answer briefly in plain text. If the user asks for something you cannot do, say so and
suggest a command you can run.`

// chat answers prompts that match no capability. A pending follow-up goes
// along as history so "summarize it" can refer to what was just shown.
func (s *Service) chat(ctx context.Context, t *turn) (*Result, error) {
	if s.llm == nil {
		return chatResult(MsgCapabilities), nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeout.ExtractTimeout)
	defer cancel()
	reply, err := s.llm.Chat(ctx, ai.FormatMessages(chatSystemPrompt, t.prompt, t.history()))
	if err != nil {
		t.rc.Warn("chat reply failed", slog.String("error", err.Error()))
		return chatResult(MsgCapabilities), nil
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return chatResult(MsgCapabilities), nil
	}
	return chatResult(reply), nil
}
