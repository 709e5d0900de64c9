package extract

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/hrygo/rift/plugin/ai/timeout"
)

// EmailDraft is the payload of an EMAIL_DRAFT prompt. Recipient is either an
// address list or a contact name still to be resolved.
type EmailDraft struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

// EmailQuery is the payload of an EMAIL_QUERY prompt.
type EmailQuery struct {
	Count      int    `json:"count"`
	Query      string `json:"query"`
	UnreadOnly bool   `json:"unreadOnly"`
}

// EmailView selects one message, by position in the last listing or by search.
type EmailView struct {
	Index int    `json:"index"`
	Query string `json:"query"`
}

const (
	DefaultEmailCount = 10
	MaxEmailCount     = 50
)

var (
	leadingRecipient = regexp.MustCompile(`(?i)^\s*(?:please\s+)?(?:e-?mail|message|ping|write)\s+([A-Za-z][\w.'\-]*)`)
	toRecipient      = regexp.MustCompile(`(?i)\b(?:to|for)\s+([A-Za-z][\w.'\-]*)`)
	subjectIntro     = regexp.MustCompile(`(?i)\b(?:about|regarding|re:|titled|subject(?:\s+line)?(?:\s+is|\s*:)?)\s+(.+)$`)
	bodyIntro        = regexp.MustCompile(`(?i)\b(?:saying|that says|to say|and say|telling (?:him|her|them)|tell (?:him|her|them)|and tell (?:him|her|them)|asking(?: (?:him|her|them))?|body(?:\s*:)?|message(?:\s*:))\s+(.+)$`)
	bodyCut          = regexp.MustCompile(`(?i)\s*\b(?:saying|that says|to say|and say|telling|tell (?:him|her|them)|and tell|asking|body|with the message)\b.*$`)

	countAfter  = regexp.MustCompile(`(?i)\b(?:last|latest|recent|top|first|newest)\s+(\d{1,3})\b`)
	countBefore = regexp.MustCompile(`(?i)\b(\d{1,3})\s+(?:(?:most\s+)?(?:recent|latest|new|newest|unread)\s+)*(?:e-?mails?|messages?|mails?)\b`)
	fromSender  = regexp.MustCompile(`(?i)\bfrom\s+([\w.@\-]+)`)
	aboutTopic  = regexp.MustCompile(`(?i)\b(?:about|regarding|containing|with subject|mentioning)\s+(.+)$`)
	unreadWord  = regexp.MustCompile(`(?i)\b(?:unread|new)\b`)
)

var emailDraftSchema = Schema[EmailDraft]{
	Name: "email-draft",
	Instruction: `Extract email details from the request.
Return JSON with these fields (empty string if not specified):
{"recipient": "email address(es) or contact name", "subject": "email subject, preserving capitalization", "body": "email body content"}`,
	Examples: []Example{
		{`email john@example.com about Paris`, `{"recipient": "john@example.com", "subject": "Paris", "body": ""}`},
		{`write to Sarah saying hello`, `{"recipient": "Sarah", "subject": "", "body": "hello"}`},
		{`draft an email to ops@acme.io about the outage telling them the fix is live`, `{"recipient": "ops@acme.io", "subject": "The Outage", "body": "The fix is live."}`},
	},
	Fallback:  emailDraftFallback,
	Normalize: normalizeDraft,
}

// EmailDraft extracts recipient, subject and body.
func (x *Extractor) EmailDraft(ctx context.Context, prompt string) EmailDraft {
	v, _ := Run(ctx, x, emailDraftSchema, prompt)
	return v
}

func emailDraftFallback(prompt string, _ Env) EmailDraft {
	var d EmailDraft

	if addrs := Emails(prompt); len(addrs) > 0 {
		d.Recipient = strings.Join(addrs, ", ")
	} else if name := recipientName(prompt); name != "" {
		d.Recipient = name
	}

	if m := bodyIntro.FindStringSubmatch(prompt); m != nil {
		d.Body = upperFirst(trimPhrase(m[1]))
	}

	if m := subjectIntro.FindStringSubmatch(prompt); m != nil {
		subject := bodyCut.ReplaceAllString(m[1], "")
		subject = emailPattern.ReplaceAllString(subject, "")
		d.Subject = trimPhrase(firstWords(subject, 6))
	}
	return d
}

func recipientName(prompt string) string {
	for _, m := range toRecipient.FindAllStringSubmatch(prompt, -1) {
		if !nameStopwords[strings.ToLower(m[1])] {
			return trimPhrase(m[1])
		}
	}
	if m := leadingRecipient.FindStringSubmatch(prompt); m != nil {
		if !nameStopwords[strings.ToLower(m[1])] {
			return trimPhrase(m[1])
		}
	}
	return ""
}

func normalizeDraft(d *EmailDraft, _ Env) {
	d.Recipient = trimPhrase(d.Recipient)
	d.Subject = TitleCase(trimPhrase(d.Subject))
	d.Body = strings.TrimSpace(d.Body)
}

var emailQuerySchema = Schema[EmailQuery]{
	Name: "email-query",
	Instruction: `Extract an email listing request.
Return JSON: {"count": number of emails requested (0 if not specified), "query": "Gmail search query for sender or topic, empty if none", "unreadOnly": true if only unread or new emails are wanted}`,
	Examples: []Example{
		{`do I have any unread emails`, `{"count": 0, "query": "", "unreadOnly": true}`},
		{`show my last 5 emails from amazon`, `{"count": 5, "query": "from:amazon", "unreadOnly": false}`},
		{`any emails about the invoice`, `{"count": 0, "query": "invoice", "unreadOnly": false}`},
	},
	Fallback:  emailQueryFallback,
	Normalize: normalizeEmailQuery,
}

// EmailQuery extracts how many emails to list and an optional search query.
func (x *Extractor) EmailQuery(ctx context.Context, prompt string) EmailQuery {
	v, _ := Run(ctx, x, emailQuerySchema, prompt)
	return v
}

func emailQueryFallback(prompt string, _ Env) EmailQuery {
	q := EmailQuery{UnreadOnly: unreadWord.MatchString(prompt)}

	if m := countAfter.FindStringSubmatch(prompt); m != nil {
		q.Count, _ = strconv.Atoi(m[1])
	} else if m := countBefore.FindStringSubmatch(prompt); m != nil {
		q.Count, _ = strconv.Atoi(m[1])
	}

	var parts []string
	if m := fromSender.FindStringSubmatch(prompt); m != nil {
		parts = append(parts, "from:"+trimPhrase(m[1]))
	}
	if m := aboutTopic.FindStringSubmatch(prompt); m != nil {
		parts = append(parts, trimPhrase(m[1]))
	}
	q.Query = strings.Join(parts, " ")
	return q
}

func normalizeEmailQuery(q *EmailQuery, _ Env) {
	if q.Count <= 0 {
		q.Count = DefaultEmailCount
	}
	q.Count = clamp(q.Count, 1, MaxEmailCount)
	q.Query = strings.TrimSpace(q.Query)
}

var emailViewSchema = Schema[EmailView]{
	Name: "email-view",
	Instruction: `The user wants to view one specific email.
Return JSON: {"index": 1-based position if the user refers to a numbered email (0 otherwise), "query": "Gmail search query for sender or topic, empty if a number was given"}`,
	Examples: []Example{
		{`open email #2`, `{"index": 2, "query": ""}`},
		{`show me the email from Amazon`, `{"index": 0, "query": "from:Amazon"}`},
		{`read the message about the quarterly report`, `{"index": 0, "query": "quarterly report"}`},
	},
	Fallback: emailViewFallback,
	Normalize: func(v *EmailView, _ Env) {
		if v.Index < 0 {
			v.Index = 0
		}
		v.Query = strings.TrimSpace(v.Query)
	},
}

// EmailView extracts which message to open.
func (x *Extractor) EmailView(ctx context.Context, prompt string) EmailView {
	v, _ := Run(ctx, x, emailViewSchema, prompt)
	return v
}

func emailViewFallback(prompt string, _ Env) EmailView {
	if n, ok := Ordinal(prompt); ok {
		return EmailView{Index: n}
	}
	var v EmailView
	if m := fromSender.FindStringSubmatch(prompt); m != nil {
		v.Query = "from:" + trimPhrase(m[1])
	} else if m := aboutTopic.FindStringSubmatch(prompt); m != nil {
		v.Query = trimPhrase(m[1])
	}
	return v
}

var (
	editSubject   = regexp.MustCompile(`(?i)\b(?:change|set|update|make|rename)\s+(?:the\s+)?subject(?:\s+line)?\s+(?:to|as|:)\s+(.+)$`)
	editRecipient = regexp.MustCompile(`(?i)\b(?:(?:send|address)\s+it\s+to|(?:change|set|update)\s+(?:the\s+)?(?:recipient|to|address)\s+(?:to\s+)?)\s*(.+)$`)
	editBody      = regexp.MustCompile(`(?i)\b(?:change|set|replace|update|rewrite)\s+(?:the\s+)?(?:body|content|message|text)\s+(?:to|with|as)\s+(.+)$`)
	editAppend    = regexp.MustCompile(`(?i)^\s*(?:also\s+)?(?:add|append|include|mention)\s+(?:that\s+)?(.+)$`)
	editSignOff   = regexp.MustCompile(`(?i)\bsign\s+(?:it|off)\s+(?:as|with)\s+(.+)$`)
	placeholder   = regexp.MustCompile(`^\[(?:no|please specify)\b.*\]$`)
)

func draftEditSchema(current EmailDraft) Schema[EmailDraft] {
	return Schema[EmailDraft]{
		Name: "email-edit",
		Instruction: fmt.Sprintf(`The user has an email draft that needs to be updated according to their request.

Current draft:
To: %s
Subject: %s
Body: %s

Apply the request and return the full updated draft as JSON:
{"recipient": "updated recipient or the existing one", "subject": "updated subject or the existing one", "body": "updated body or the existing one"}
Preserve proper capitalization for subjects.`,
			orPlaceholder(current.Recipient, "[No recipient specified]"),
			orPlaceholder(current.Subject, "[No subject specified]"),
			orPlaceholder(current.Body, "[No body specified]")),
		Examples: []Example{
			{`change the subject to Paris`, `{"recipient": "` + current.Recipient + `", "subject": "Paris", "body": "..."}`},
			{`make it more formal`, `{"recipient": "` + current.Recipient + `", "subject": "...", "body": "Dear ..., ... Kind regards"}`},
		},
		Timeout:  timeout.DraftEditTimeout,
		Fallback: func(prompt string, _ Env) EmailDraft { return applyDraftEdit(current, prompt) },
		Normalize: func(d *EmailDraft, _ Env) {
			if d.Recipient == "" || placeholder.MatchString(d.Recipient) {
				d.Recipient = current.Recipient
			}
			if d.Subject == "" || placeholder.MatchString(d.Subject) {
				d.Subject = current.Subject
			}
			if d.Body == "" || placeholder.MatchString(d.Body) || d.Body == "..." {
				d.Body = current.Body
			}
			d.Recipient = trimPhrase(d.Recipient)
			d.Subject = trimPhrase(d.Subject)
			d.Body = strings.TrimSpace(d.Body)
		},
	}
}

// EditDraft applies a free-text edit instruction to current and returns the
// updated draft. Fields the instruction does not touch are kept.
func (x *Extractor) EditDraft(ctx context.Context, current EmailDraft, instruction string) EmailDraft {
	v, _ := Run(ctx, x, draftEditSchema(current), instruction)
	return v
}

func applyDraftEdit(d EmailDraft, prompt string) EmailDraft {
	switch {
	case editSubject.MatchString(prompt):
		d.Subject = TitleCase(trimPhrase(editSubject.FindStringSubmatch(prompt)[1]))
	case editRecipient.MatchString(prompt):
		target := editRecipient.FindStringSubmatch(prompt)[1]
		if addrs := Emails(target); len(addrs) > 0 {
			d.Recipient = strings.Join(addrs, ", ")
		} else {
			d.Recipient = trimPhrase(target)
		}
	case editBody.MatchString(prompt):
		d.Body = upperFirst(trimPhrase(editBody.FindStringSubmatch(prompt)[1]))
	case editSignOff.MatchString(prompt):
		d.Body = joinParagraphs(d.Body, trimPhrase(editSignOff.FindStringSubmatch(prompt)[1]))
	case editAppend.MatchString(prompt):
		d.Body = joinParagraphs(d.Body, upperFirst(strings.TrimSpace(editAppend.FindStringSubmatch(prompt)[1])))
	default:
		if addrs := Emails(prompt); len(addrs) > 0 && d.Recipient == "" {
			d.Recipient = strings.Join(addrs, ", ")
		}
	}
	return d
}

func joinParagraphs(body, extra string) string {
	if strings.TrimSpace(body) == "" {
		return extra
	}
	return strings.TrimRight(body, "\n ") + "\n\n" + extra
}

func orPlaceholder(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
