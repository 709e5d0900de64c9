package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/hrygo/rift/plugin/ai"
	"github.com/hrygo/rift/plugin/ai/extract"
	"github.com/hrygo/rift/plugin/ai/session"
	"github.com/hrygo/rift/plugin/ai/timeout"
	"github.com/hrygo/rift/plugin/capability"
)

var (
	sendPhrase    = regexp.MustCompile(`(?i)^\s*(?:please\s+)?(?:ok(?:ay)?,?\s+)?send(?:\s+(?:it|this|that|the\s+(?:email|draft|message|mail)))?(?:\s+now)?\s*[.!]?\s*$`)
	discardPhrase = regexp.MustCompile(`(?i)^\s*(?:cancel|discard|delete|never\s*mind|forget)(?:\s+(?:it|this|that|the\s+(?:email|draft|message)))?\s*[.!]?\s*$`)
	recipientSep  = regexp.MustCompile(`(?i)\s*(?:,|;|\band\b)\s*`)
)

const (
	msgNoDraftToEdit = `No draft email to edit. Create a draft first with "write an email to someone@example.com".`
	msgNoDraftToSend = `No draft email to send. Create a draft first with "write an email to someone@example.com".`

	subjectPrompt = `Write a concise subject line (at most 8 words) for the email below.
Reply with the subject only, without quotes or a "Subject:" prefix.`
)

func (s *Service) createDraft(ctx context.Context, t *turn) (*Result, error) {
	d := s.x.EmailDraft(ctx, t.prompt)
	from, err := s.clients.Mail.UserEmail(ctx)
	if err != nil {
		return nil, failed("Failed to create draft", err)
	}
	draft := session.Draft{
		From:    from,
		To:      s.resolveRecipients(ctx, t, d.Recipient),
		Subject: d.Subject,
		Body:    d.Body,
	}
	t.state.SetDraft(draft)
	return draftResult("**Email draft created.**", draft), nil
}

func (s *Service) editDraft(ctx context.Context, t *turn) (*Result, error) {
	d := t.state.Draft()
	if d == nil {
		return chatResult(msgNoDraftToEdit), nil
	}
	current := extract.EmailDraft{Recipient: d.To, Subject: d.Subject, Body: d.Body}
	updated := s.x.EditDraft(ctx, current, t.prompt)

	next := session.Draft{From: d.From, To: d.To, Subject: updated.Subject, Body: updated.Body}
	if updated.Recipient != current.Recipient {
		next.To = s.resolveRecipients(ctx, t, updated.Recipient)
	}
	t.state.SetDraft(next)
	return draftResult("**Email draft updated.**", next), nil
}

// sendDraft validates and sends the draft. Missing pieces produce a
// clarifying question that keeps the draft open for editing.
func (s *Service) sendDraft(ctx context.Context, t *turn) (*Result, error) {
	d := t.state.Draft()
	if d == nil {
		return chatResult(msgNoDraftToSend), nil
	}
	if strings.TrimSpace(d.To) == "" {
		return clarifyDraft(*d, "Draft email is missing recipient. Who should it go to?"), nil
	}
	if names := unresolved(d.To); len(names) > 0 {
		return clarifyDraft(*d, fmt.Sprintf(`I couldn't find an email address for %s. Tell me the address, for example "send it to name@example.com".`,
			strings.Join(names, ", "))), nil
	}
	if strings.TrimSpace(d.Body) == "" {
		return clarifyDraft(*d, "Draft email is missing content. What should the email say?"), nil
	}
	if strings.TrimSpace(d.Subject) == "" {
		d.Subject = s.generateSubject(ctx, t, d.Body)
		if d.Subject == "" {
			return clarifyDraft(*d, "Draft email is missing subject. What should the subject be?"), nil
		}
	}
	if d.From == "" {
		from, err := s.clients.Mail.UserEmail(ctx)
		if err != nil {
			return nil, failed("Failed to send email", err)
		}
		d.From = from
	}

	id, err := s.clients.Mail.Send(ctx, capability.OutgoingEmail{From: d.From, To: d.To, Subject: d.Subject, Body: d.Body})
	if err != nil {
		return nil, failed("Failed to send email", err)
	}
	t.state.ClearDraft()
	t.rc.Info("email sent", slog.String("message_id", id))

	return &Result{
		Type:     TypeEmailSent,
		Success:  true,
		Email:    d.To,
		Draft:    d,
		Response: fmt.Sprintf("Email sent successfully to %s\n\n**Subject:** %s\n\n%s", d.To, d.Subject, d.Body),
	}, nil
}

// generateSubject asks the LLM for a subject line. Empty without an LLM.
func (s *Service) generateSubject(ctx context.Context, t *turn, body string) string {
	if s.llm == nil {
		return ""
	}
	reply, err := ai.ChatWithTimeout(ctx, s.llm, timeout.ExtractTimeout, subjectPrompt, body)
	if err != nil {
		t.rc.Warn("subject generation failed", slog.String("error", err.Error()))
		return ""
	}
	subject := strings.TrimSpace(reply)
	subject = strings.TrimPrefix(subject, "Subject:")
	subject = strings.Trim(strings.TrimSpace(subject), `"'`)
	if i := strings.IndexByte(subject, '\n'); i >= 0 {
		subject = subject[:i]
	}
	return extract.TitleCase(subject)
}

// resolveRecipients maps contact names in raw to addresses. Names that do
// not resolve are kept so the user can see and fix them.
func (s *Service) resolveRecipients(ctx context.Context, t *turn, raw string) string {
	var out []string
	for _, part := range recipientSep.Split(strings.TrimSpace(raw), -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.Contains(part, "@") {
			out = append(out, part)
			continue
		}
		addr, err := s.clients.Contacts.ResolveEmail(ctx, part)
		if err != nil {
			t.rc.Debug("contact not resolved", slog.String("name", part), slog.String("error", err.Error()))
			out = append(out, part)
			continue
		}
		out = append(out, addr)
	}
	return strings.Join(out, ", ")
}

func unresolved(to string) []string {
	var names []string
	for _, part := range strings.Split(to, ",") {
		if part = strings.TrimSpace(part); part != "" && !strings.Contains(part, "@") {
			names = append(names, part)
		}
	}
	return names
}

func draftResult(title string, d session.Draft) *Result {
	return &Result{
		Type:         TypeEmailDraft,
		Success:      true,
		Response:     formatDraft(title, d),
		Draft:        &d,
		FollowUpMode: true,
		FollowUpType: session.ModeEmailEdit,
	}
}

func clarifyDraft(d session.Draft, question string) *Result {
	return &Result{
		Type:         TypeChat,
		Response:     question,
		Draft:        &d,
		FollowUpMode: true,
		FollowUpType: session.ModeEmailEdit,
	}
}

func formatDraft(title string, d session.Draft) string {
	var b strings.Builder
	b.WriteString(title)
	fmt.Fprintf(&b, "\n\n**From:** %s", d.From)
	fmt.Fprintf(&b, "\n**To:** %s", orPlaceholder(d.To, "[Please specify recipient]"))
	fmt.Fprintf(&b, "\n**Subject:** %s", orPlaceholder(d.Subject, "[Please specify subject]"))
	fmt.Fprintf(&b, "\n\n%s", orPlaceholder(d.Body, "[Please specify email content]"))
	b.WriteString("\n\nSay \"send it\" to send, or tell me what to change.")
	return b.String()
}

func orPlaceholder(s, placeholder string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}
