package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/rift/plugin/ai"
	"github.com/hrygo/rift/plugin/ai/extract"
	"github.com/hrygo/rift/plugin/ai/session"
	"github.com/hrygo/rift/plugin/ai/timeout"
	"github.com/hrygo/rift/plugin/capability"
)

const (
	emailViewHint = `You can view an email by saying "view email #[number]".`

	replyPrompt = `You help the user answer their email. Read the message below and write a short
reply the user could send. Reply with the body text only, without a subject line or signature.
If the message needs no reply (newsletters, receipts, notifications), answer NONE.`

	// replyInputLimit bounds the message text sent for a suggested reply.
	replyInputLimit = 4000
)

func (s *Service) queryEmails(ctx context.Context, t *turn) (*Result, error) {
	q := s.x.EmailQuery(ctx, t.prompt)
	if q.Query == "" {
		emails, err := s.clients.Mail.ListUnread(ctx, q.Count)
		if err != nil {
			return nil, failed("Failed to query emails", err)
		}
		if len(emails) == 0 {
			return &Result{Type: TypeEmailUnread, Response: "You have no unread emails."}, nil
		}
		items := emailItems(emails)
		t.state.SetResults(session.KindEmails, "is:unread", items)
		return &Result{
			Type:         TypeEmailUnread,
			Success:      true,
			Response:     fmt.Sprintf("Here are your %d most recent unread email(s):\n\n", len(emails)) + s.formatEmails(emails) + emailViewHint,
			Result:       emails,
			Items:        items,
			FollowUpMode: true,
			FollowUpType: session.ModeEmailSearch,
		}, nil
	}

	query := q.Query
	if q.UnreadOnly && !strings.Contains(query, "is:unread") {
		query += " is:unread"
	}
	emails, err := s.clients.Mail.Search(ctx, query, q.Count)
	if err != nil {
		return nil, failed("Failed to search emails", err)
	}
	if len(emails) == 0 {
		return &Result{Type: TypeEmailSearch, Response: fmt.Sprintf("No emails found matching %q.", q.Query)}, nil
	}
	items := emailItems(emails)
	t.state.SetResults(session.KindEmails, query, items)
	return &Result{
		Type:         TypeEmailSearch,
		Success:      true,
		Response:     fmt.Sprintf("Found %d email(s) matching %q:\n\n", len(emails), q.Query) + s.formatEmails(emails) + emailViewHint,
		Result:       emails,
		Items:        items,
		FollowUpMode: true,
		FollowUpType: session.ModeEmailSearch,
	}, nil
}

func (s *Service) viewEmail(ctx context.Context, t *turn) (*Result, error) {
	v := s.x.EmailView(ctx, t.prompt)
	switch {
	case v.Index > 0:
		if res := t.state.Results(); res == nil || res.Kind != session.KindEmails {
			emails, err := s.clients.Mail.ListUnread(ctx, extract.MaxEmailCount)
			if err != nil {
				return nil, failed("Failed to view email", err)
			}
			if len(emails) == 0 {
				return &Result{Type: TypeEmailView, Response: "You have no unread emails to view."}, nil
			}
			t.state.SetResults(session.KindEmails, "is:unread", emailItems(emails))
		}
		item, err := t.state.Resolve(v.Index)
		if err != nil {
			var oe *session.OrdinalError
			if errors.As(err, &oe) {
				return errorResult(fmt.Sprintf("Invalid email number. Please choose a number between 1 and %d.", oe.Len)), nil
			}
			return errorResult(err.Error()), nil
		}
		return s.showEmail(ctx, t, item)

	case v.Query != "":
		emails, err := s.clients.Mail.Search(ctx, v.Query, extract.DefaultEmailCount)
		if err != nil {
			return nil, failed("Failed to view email", err)
		}
		switch len(emails) {
		case 0:
			return &Result{Type: TypeEmailSearch, Response: fmt.Sprintf("No emails found matching %q.", v.Query)}, nil
		case 1:
			return s.showEmail(ctx, t, emailItems(emails)[0])
		}
		items := emailItems(emails)
		t.state.SetResults(session.KindEmails, v.Query, items)
		return &Result{
			Type:         TypeEmailSearch,
			Response:     fmt.Sprintf("Found %d emails matching %q:\n\n", len(emails), v.Query) + s.formatEmails(emails) + `Please specify which email to view by number (e.g., "view email #1").`,
			Result:       emails,
			Items:        items,
			FollowUpMode: true,
			FollowUpType: session.ModeEmailSearch,
		}, nil
	}
	return chatResult(`Please specify which email you want to view by number (e.g., "view email #2") or by content (e.g., "show email about meeting").`), nil
}

// showEmail fetches and renders one message of a listing.
func (s *Service) showEmail(ctx context.Context, t *turn, item session.Item) (*Result, error) {
	c, err := s.clients.Mail.GetContent(ctx, item.ID)
	if err != nil {
		return nil, failed("Failed to view email", err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n", orPlaceholder(c.Subject, "(no subject)"))
	fmt.Fprintf(&b, "From: %s\n", c.From)
	if c.To != "" {
		fmt.Fprintf(&b, "To: %s\n", c.To)
	}
	fmt.Fprintf(&b, "Date: %s\n\n", s.formatDate(c.Date))
	b.WriteString(orPlaceholder(c.Body, c.Snippet))
	if reply := s.suggestReply(ctx, t, c); reply != "" {
		fmt.Fprintf(&b, "\n\nSuggested response:\n%s", reply)
	}
	return &Result{
		Type:         TypeEmailView,
		Success:      true,
		Response:     b.String(),
		Result:       c,
		FollowUpMode: true,
		FollowUpType: session.ModeEmailView,
	}, nil
}

// suggestReply drafts a reply to c. It is empty when no LLM is configured
// or the message needs no answer.
func (s *Service) suggestReply(ctx context.Context, t *turn, c *capability.EmailContent) string {
	if s.llm == nil {
		return ""
	}
	text := fmt.Sprintf("From: %s\nSubject: %s\n\n%s", c.From, c.Subject, ai.Truncate(orPlaceholder(c.Body, c.Snippet), replyInputLimit))
	reply, err := ai.ChatWithTimeout(ctx, s.llm, timeout.ExtractTimeout, replyPrompt, text)
	if err != nil {
		t.rc.Warn("reply suggestion failed", slog.String("error", err.Error()))
		return ""
	}
	reply = strings.TrimSpace(reply)
	if strings.EqualFold(strings.Trim(reply, ".\"'"), "none") {
		return ""
	}
	return reply
}

func (s *Service) formatEmails(emails []capability.Email) string {
	var b strings.Builder
	for i, e := range emails {
		fmt.Fprintf(&b, "%d. %s\n   From: %s\n   Date: %s\n", i+1, orPlaceholder(e.Subject, "(no subject)"), e.From, s.formatDate(e.Date))
		if e.Snippet != "" {
			fmt.Fprintf(&b, "   %s\n", ai.Truncate(e.Snippet, 100))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func emailItems(emails []capability.Email) []session.Item {
	items := make([]session.Item, 0, len(emails))
	for _, e := range emails {
		items = append(items, session.Item{ID: e.ID, Title: e.Subject, Subtitle: e.From})
	}
	return items
}

func (s *Service) loc() *time.Location {
	return s.x.Env().Location
}

func (s *Service) formatDate(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.In(s.loc()).Format("Mon, Jan 2, 2006 3:04 PM")
}
