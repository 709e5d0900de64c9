package extract

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/hrygo/rift/plugin/ai/aitime"
)

// DefaultMeetingTitle is used when a MEET_CREATE prompt names no title.
const DefaultMeetingTitle = "Meeting"

// MeetingDetails describes the calendar side of a Meet.
type MeetingDetails struct {
	Title       string `json:"title"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Description string `json:"description"`

	StartTime time.Time `json:"-"`
	EndTime   time.Time `json:"-"`
}

// Meet is the payload of a MEET_CREATE prompt.
type Meet struct {
	Details    MeetingDetails `json:"meetingDetails"`
	Recipients []string       `json:"emailRecipients"`
	Names      []string       `json:"names"`
}

var (
	meetTitled = regexp.MustCompile(`(?i)\b(?:called|titled|named|for|about|to\s+discuss)\s+["“]?(.+?)["”]?\s*$`)
	meetLead   = regexp.MustCompile(`(?i)^.*?\b(?:google\s+)?meet(?:ing)?\b`)
	meetInvite = regexp.MustCompile(`(?i)\b(?:and\s+)?(?:send|share|email|invite)\b.*$`)
)

var meetSchema = Schema[Meet]{
	Name: "meet-create",
	Instruction: `Extract a Google Meet video call to create from the request.
Return JSON: {"meetingDetails": {"title": "meeting title in title case", "start": "RFC3339 start", "end": "RFC3339 end", "description": "agenda or empty"}, "emailRecipients": ["email addresses to send the link to"], "names": ["people named without an email address"]}
If no start is given use an empty string. If no end is given use an empty string.`,
	Examples: []Example{
		{`create a google meet for the design review tomorrow at 2pm and send it to ana@example.com`, `{"meetingDetails": {"title": "Design Review", "start": "2024-06-15T14:00:00-07:00", "end": "", "description": ""}, "emailRecipients": ["ana@example.com"], "names": []}`},
		{`set up a meet with Tom`, `{"meetingDetails": {"title": "", "start": "", "end": "", "description": ""}, "emailRecipients": [], "names": ["Tom"]}`},
	},
	Fallback:  meetFallback,
	Normalize: normalizeMeet,
}

// Meet extracts the details of a Meet to create and who should get the link.
func (x *Extractor) Meet(ctx context.Context, prompt string) Meet {
	v, _ := Run(ctx, x, meetSchema, prompt)
	return v
}

func meetFallback(prompt string, env Env) Meet {
	m := Meet{Recipients: Emails(prompt), Names: Attendees(prompt)}

	if res, ok := aitime.NewParserAt(env.Now).Extract(prompt); ok {
		m.Details.Start = res.Time.Format(time.RFC3339)
	}

	rest := meetInvite.ReplaceAllString(prompt, "")
	rest = withNames.ReplaceAllString(rest, "")
	rest = aitime.StripPhrases(rest)
	if q, ok := Quoted(prompt); ok {
		m.Details.Title = q
	} else if t := meetTitled.FindStringSubmatch(rest); t != nil {
		m.Details.Title = strings.TrimPrefix(trimPhrase(t[1]), "the ")
	} else if tail := trimPhrase(meetLead.ReplaceAllString(rest, "")); tail != "" && len(strings.Fields(tail)) <= 6 {
		m.Details.Title = strings.TrimPrefix(tail, "the ")
	}
	return m
}

// normalizeMeet applies the defaults: next full hour, one hour long, "Meeting".
func normalizeMeet(m *Meet, env Env) {
	d := &m.Details
	d.Title = TitleCase(trimPhrase(d.Title))
	if d.Title == "" {
		d.Title = DefaultMeetingTitle
	}
	d.Description = strings.TrimSpace(d.Description)

	d.StartTime = parseInstant(d.Start, env.Location)
	if d.StartTime.IsZero() {
		now := env.Now
		d.StartTime = time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, now.Location()).Add(time.Hour)
	}
	d.EndTime = parseInstant(d.End, env.Location)
	if !d.EndTime.After(d.StartTime) {
		d.EndTime = d.StartTime.Add(time.Hour)
	}
	d.Start = d.StartTime.Format(time.RFC3339)
	d.End = d.EndTime.Format(time.RFC3339)

	var recipients []string
	for _, r := range m.Recipients {
		recipients = append(recipients, Emails(r)...)
	}
	m.Recipients = recipients
}
