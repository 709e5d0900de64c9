package google

import (
	"bytes"
	"context"
	"encoding/base64"
	"html"
	"net/mail"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/api/gmail/v1"
	"gopkg.in/gomail.v2"

	"github.com/hrygo/rift/plugin/capability"
)

const (
	me = "me"

	// metadataFetchLimit bounds concurrent message fetches per search.
	metadataFetchLimit = 5
)

var (
	tagPattern   = regexp.MustCompile(`(?s)<[^>]*>`)
	blankPattern = regexp.MustCompile(`\n{3,}`)
)

// Mail implements capability.Mail on Gmail.
type Mail struct {
	svc *gmail.Service

	mu    sync.Mutex
	email string
}

// Ensure Mail implements capability.Mail
var _ capability.Mail = (*Mail)(nil)

func (m *Mail) UserEmail(ctx context.Context) (_ string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.email != "" {
		return m.email, nil
	}

	defer observe("gmail", "profile")(&err)
	profile, err := m.svc.Users.GetProfile(me).Context(ctx).Do()
	if err != nil {
		return "", wrapErr("gmail", "profile", err)
	}
	m.email = profile.EmailAddress
	return m.email, nil
}

func (m *Mail) ListUnread(ctx context.Context, max int) ([]capability.Email, error) {
	emails, err := m.Search(ctx, "is:unread in:inbox", max)
	if err != nil {
		return nil, err
	}
	for i := range emails {
		emails[i].Unread = true
	}
	return emails, nil
}

func (m *Mail) Search(ctx context.Context, query string, max int) (_ []capability.Email, err error) {
	defer observe("gmail", "search")(&err)

	call := m.svc.Users.Messages.List(me).Q(query).Context(ctx)
	if max > 0 {
		call = call.MaxResults(int64(max))
	}
	resp, err := call.Do()
	if err != nil {
		return nil, wrapErr("gmail", "search", err)
	}

	emails := make([]capability.Email, len(resp.Messages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(metadataFetchLimit)
	for i, ref := range resp.Messages {
		g.Go(func() error {
			msg, err := m.svc.Users.Messages.Get(me, ref.Id).
				Format("metadata").
				MetadataHeaders("From", "To", "Subject", "Date").
				Context(gctx).Do()
			if err != nil {
				return wrapErr("gmail", "get", err)
			}
			emails[i] = toEmail(msg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return emails, nil
}

func (m *Mail) GetContent(ctx context.Context, id string) (_ *capability.EmailContent, err error) {
	defer observe("gmail", "get")(&err)

	msg, err := m.svc.Users.Messages.Get(me, id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, wrapErr("gmail", "get", err)
	}
	return &capability.EmailContent{Email: toEmail(msg), Body: messageBody(msg.Payload)}, nil
}

// Send composes msg as MIME and sends it. An empty From is the user's own
// address.
func (m *Mail) Send(ctx context.Context, msg capability.OutgoingEmail) (_ string, err error) {
	from := msg.From
	if from == "" {
		if from, err = m.UserEmail(ctx); err != nil {
			return "", err
		}
	}
	raw, err := composeMIME(from, msg)
	if err != nil {
		return "", err
	}

	defer observe("gmail", "send")(&err)
	sent, err := m.svc.Users.Messages.Send(me, &gmail.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		return "", wrapErr("gmail", "send", err)
	}
	return sent.Id, nil
}

// composeMIME renders a plain-text message and encodes it for the Gmail
// API's raw field.
func composeMIME(from string, msg capability.OutgoingEmail) (string, error) {
	var to []string
	for _, addr := range strings.Split(msg.To, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			to = append(to, addr)
		}
	}

	mm := gomail.NewMessage()
	mm.SetHeader("From", from)
	mm.SetHeader("To", to...)
	mm.SetHeader("Subject", msg.Subject)
	mm.SetBody("text/plain", msg.Body)

	var buf bytes.Buffer
	if _, err := mm.WriteTo(&buf); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(buf.Bytes()), nil
}

func toEmail(msg *gmail.Message) capability.Email {
	e := capability.Email{ID: msg.Id, ThreadID: msg.ThreadId, Snippet: html.UnescapeString(msg.Snippet)}
	for _, label := range msg.LabelIds {
		if label == "UNREAD" {
			e.Unread = true
		}
	}
	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			switch strings.ToLower(h.Name) {
			case "from":
				e.From = h.Value
			case "to":
				e.To = h.Value
			case "subject":
				e.Subject = h.Value
			case "date":
				if t, err := mail.ParseDate(h.Value); err == nil {
					e.Date = t
				}
			}
		}
	}
	if e.Date.IsZero() && msg.InternalDate > 0 {
		e.Date = time.UnixMilli(msg.InternalDate)
	}
	return e
}

// messageBody returns the first text/plain part, or the first text/html part
// with tags removed.
func messageBody(part *gmail.MessagePart) string {
	if part == nil {
		return ""
	}
	if text := findPart(part, "text/plain"); text != "" {
		return strings.TrimSpace(text)
	}
	if markup := findPart(part, "text/html"); markup != "" {
		text := html.UnescapeString(tagPattern.ReplaceAllString(markup, ""))
		return strings.TrimSpace(blankPattern.ReplaceAllString(text, "\n\n"))
	}
	return ""
}

func findPart(part *gmail.MessagePart, mimeType string) string {
	if strings.HasPrefix(part.MimeType, mimeType) && part.Body != nil && part.Body.Data != "" {
		if data, err := decodeBase64URL(part.Body.Data); err == nil {
			return string(data)
		}
	}
	for _, child := range part.Parts {
		if text := findPart(child, mimeType); text != "" {
			return text
		}
	}
	return ""
}

func decodeBase64URL(s string) ([]byte, error) {
	if data, err := base64.URLEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.RawURLEncoding.DecodeString(s)
}
