package extract

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/hrygo/rift/plugin/ai/aitime"
)

// Event is the payload of a CALENDAR_CREATE prompt. Start and End hold the
// LLM's RFC3339 strings; StartTime and EndTime are the resolved instants.
type Event struct {
	Title       string   `json:"title"`
	Start       string   `json:"start"`
	End         string   `json:"end"`
	Location    string   `json:"location"`
	Description string   `json:"description"`
	Recurrence  []string `json:"recurrence"`

	StartTime time.Time `json:"-"`
	EndTime   time.Time `json:"-"`
}

// HasStart reports whether a start instant could be resolved.
func (e Event) HasStart() bool {
	return !e.StartTime.IsZero()
}

// EventChanges is the payload of a CALENDAR_MODIFY prompt. Empty fields are
// left unchanged on the event.
type EventChanges struct {
	Title        string   `json:"title"`
	Start        string   `json:"start"`
	End          string   `json:"end"`
	Location     string   `json:"location"`
	Description  string   `json:"description"`
	AddMeetLink  bool     `json:"addMeetLink"`
	AddAttendees []string `json:"addAttendees"`

	StartTime time.Time `json:"-"`
	EndTime   time.Time `json:"-"`
}

// IsEmpty reports whether no change was found.
func (c EventChanges) IsEmpty() bool {
	return c.Title == "" && c.StartTime.IsZero() && c.Location == "" &&
		c.Description == "" && !c.AddMeetLink && len(c.AddAttendees) == 0
}

var (
	eventLead     = regexp.MustCompile(`(?i)^\s*(?:please\s+)?(?:can you\s+)?(?:schedule|create|add|set\s*up|book|make|put|plan|arrange|organi[sz]e)\s+(?:(?:a|an|the|my|new)\s+)*`)
	calendarWords = regexp.MustCompile(`(?i)\s*\b(?:(?:on|to|in|into)\s+(?:my|the)\s+(?:google\s+)?calendar|calendar\s+event|an?\s+event\s+(?:for|called|titled|named))\b`)
	titledEvent   = regexp.MustCompile(`(?i)\b(?:called|titled|named)\s+(.+)$`)
	eventLocation = regexp.MustCompile(`(?i)\s+(?:in|at)\s+((?:the\s+)?[A-Z][\w'\-]*(?:\s+[A-Z][\w'\-]*)*)\s*$`)
	everyPattern  = regexp.MustCompile(`(?i)\b(?:every\s+(day|weekday|week|month|monday|tuesday|wednesday|thursday|friday|saturday|sunday)|(daily|weekly|monthly))\b`)
	withNames     = regexp.MustCompile(`(?i)\bwith\s+(.+)$`)
	nameSeparator = regexp.MustCompile(`(?i)\s*(?:,|\band\b|&)\s*`)

	renameTo     = regexp.MustCompile(`(?i)\b(?:rename|retitle|change\s+(?:the\s+)?(?:title|name))\b.*?\bto\s+["“]?([^"”]+?)["”]?\s*$`)
	moveTo       = regexp.MustCompile(`(?i)\b(?:move|reschedule|push|shift|change\s+(?:the\s+)?time)\b.*?\b(?:to|for)\s+(.+)$`)
	locationTo   = regexp.MustCompile(`(?i)\b(?:location|venue|place)\s+(?:to|as|:)\s+(.+)$`)
	descTo       = regexp.MustCompile(`(?i)\b(?:description|notes?|agenda)\s+(?:to|as|:)\s+(.+)$`)
	meetLinkWant = regexp.MustCompile(`(?i)\b(?:add|include|attach|with)\s+(?:a\s+)?(?:google\s+)?meet(?:ing)?\s+link\b|\bmake\s+it\s+(?:a\s+)?(?:video|virtual|online)\b`)
)

var weekdayCodes = map[string]string{
	"monday": "MO", "tuesday": "TU", "wednesday": "WE", "thursday": "TH",
	"friday": "FR", "saturday": "SA", "sunday": "SU",
}

var eventSchema = Schema[Event]{
	Name: "calendar-event",
	Instruction: `Extract Google Calendar event details from the request.
Return a JSON object with these keys: title, start, end, location, description, recurrence.
- "title" must be professionally formatted in title case.
- "start" and "end" must be RFC3339 with the user's UTC offset.
- If the end time is not specified, set it 1 hour after the start.
- If the year or month is not specified, infer it from the current date.
- "recurrence" is an array of RRULE strings (e.g. ["RRULE:FREQ=WEEKLY;BYDAY=MO"]) or null if not recurring.
- Use null for any other field that is missing.`,
	Examples: []Example{
		{`meeting with Sarah every Monday at 9am`, `{"title": "Meeting with Sarah", "start": "2024-06-17T09:00:00-07:00", "end": "2024-06-17T10:00:00-07:00", "location": null, "description": null, "recurrence": ["RRULE:FREQ=WEEKLY;BYDAY=MO"]}`},
		{`daily standup at 10am`, `{"title": "Daily Standup", "start": "2024-06-14T10:00:00-07:00", "end": "2024-06-14T11:00:00-07:00", "location": null, "description": null, "recurrence": ["RRULE:FREQ=DAILY"]}`},
		{`doctor appointment with Dr. Kim next Thursday 2-3pm in Palo Alto`, `{"title": "Doctor Appointment with Dr. Kim", "start": "2024-06-20T14:00:00-07:00", "end": "2024-06-20T15:00:00-07:00", "location": "Palo Alto", "description": null, "recurrence": null}`},
	},
	Fallback:  eventFallback,
	Normalize: normalizeEvent,
}

// Event extracts a calendar event to create.
func (x *Extractor) Event(ctx context.Context, prompt string) Event {
	v, _ := Run(ctx, x, eventSchema, prompt)
	return v
}

func eventFallback(prompt string, env Env) Event {
	var e Event

	if res, ok := aitime.NewParserAt(env.Now).Extract(prompt); ok {
		e.Start = res.Time.Format(time.RFC3339)
	}
	if rule := recurrenceRule(prompt); rule != "" {
		e.Recurrence = []string{rule}
	}

	rest := everyPattern.ReplaceAllString(prompt, " ")
	if m := titledEvent.FindStringSubmatch(rest); m != nil {
		e.Title = trimPhrase(aitime.StripPhrases(m[1]))
		rest = titledEvent.ReplaceAllString(rest, "")
	}

	rest = calendarWords.ReplaceAllString(aitime.StripPhrases(rest), "")
	if m := eventLocation.FindStringSubmatch(rest); m != nil {
		e.Location = trimPhrase(m[1])
		rest = rest[:len(rest)-len(m[0])]
	}

	if e.Title == "" {
		rest = eventLead.ReplaceAllString(rest, "")
		e.Title = trimPhrase(collapse(rest))
	}
	return e
}

// recurrenceRule maps "every monday", "daily", "weekly" to an RRULE.
func recurrenceRule(prompt string) string {
	m := everyPattern.FindStringSubmatch(prompt)
	if m == nil {
		return ""
	}
	word := strings.ToLower(m[1] + m[2])
	switch word {
	case "day", "daily":
		return "RRULE:FREQ=DAILY"
	case "weekday":
		return "RRULE:FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR"
	case "week", "weekly":
		return "RRULE:FREQ=WEEKLY"
	case "month", "monthly":
		return "RRULE:FREQ=MONTHLY"
	}
	return "RRULE:FREQ=WEEKLY;BYDAY=" + weekdayCodes[word]
}

func normalizeEvent(e *Event, env Env) {
	e.Title = TitleCase(trimPhrase(e.Title))
	e.Location = strings.TrimSpace(e.Location)
	e.Description = strings.TrimSpace(e.Description)

	e.StartTime = parseInstant(e.Start, env.Location)
	e.EndTime = parseInstant(e.End, env.Location)
	if e.StartTime.IsZero() {
		e.Start, e.End = "", ""
		e.EndTime = time.Time{}
		return
	}
	if !e.EndTime.After(e.StartTime) {
		e.EndTime = e.StartTime.Add(time.Hour)
	}
	e.Start = e.StartTime.Format(time.RFC3339)
	e.End = e.EndTime.Format(time.RFC3339)
}

var eventChangesSchema = Schema[EventChanges]{
	Name: "calendar-changes",
	Instruction: `The user wants to modify an existing calendar event. Extract only what should change.
Return JSON: {"title": "new title or empty", "start": "new RFC3339 start or empty", "end": "new RFC3339 end or empty", "location": "new location or empty", "description": "new description or empty", "addMeetLink": true if a Google Meet link should be added, "addAttendees": ["email addresses or names to invite"]}`,
	Examples: []Example{
		{`rename the standup to Daily Sync`, `{"title": "Daily Sync", "start": "", "end": "", "location": "", "description": "", "addMeetLink": false, "addAttendees": []}`},
		{`add a meet link to my 3pm meeting and invite bob@example.com`, `{"title": "", "start": "", "end": "", "location": "", "description": "", "addMeetLink": true, "addAttendees": ["bob@example.com"]}`},
		{`move the dentist appointment to friday at 4pm`, `{"title": "", "start": "2024-06-21T16:00:00-07:00", "end": "", "location": "", "description": "", "addMeetLink": false, "addAttendees": []}`},
	},
	Fallback:  eventChangesFallback,
	Normalize: normalizeEventChanges,
}

// EventChanges extracts the edits to apply to an existing event.
func (x *Extractor) EventChanges(ctx context.Context, prompt string) EventChanges {
	v, _ := Run(ctx, x, eventChangesSchema, prompt)
	return v
}

func eventChangesFallback(prompt string, env Env) EventChanges {
	var c EventChanges

	if m := renameTo.FindStringSubmatch(prompt); m != nil {
		c.Title = trimPhrase(m[1])
	}
	if m := moveTo.FindStringSubmatch(prompt); m != nil {
		if res, ok := aitime.NewParserAt(env.Now).Extract(m[1]); ok {
			c.Start = res.Time.Format(time.RFC3339)
		}
	}
	if m := locationTo.FindStringSubmatch(prompt); m != nil {
		c.Location = trimPhrase(m[1])
	}
	if m := descTo.FindStringSubmatch(prompt); m != nil {
		c.Description = trimPhrase(m[1])
	}
	c.AddMeetLink = meetLinkWant.MatchString(prompt)
	c.AddAttendees = Emails(prompt)
	return c
}

func normalizeEventChanges(c *EventChanges, env Env) {
	c.Title = TitleCase(trimPhrase(c.Title))
	c.StartTime = parseInstant(c.Start, env.Location)
	c.EndTime = parseInstant(c.End, env.Location)
	if !c.StartTime.IsZero() && !c.EndTime.After(c.StartTime) {
		c.EndTime = time.Time{}
	}
	var attendees []string
	for _, a := range c.AddAttendees {
		if a = strings.TrimSpace(a); a != "" {
			attendees = append(attendees, a)
		}
	}
	c.AddAttendees = attendees
}

// Attendees returns the names after "with" in prompt that are not addresses,
// for contact resolution ("lunch with Sam and Alex").
func Attendees(prompt string) []string {
	m := withNames.FindStringSubmatch(prompt)
	if m == nil {
		return nil
	}
	tail := aitime.StripPhrases(m[1])
	var out []string
	for _, part := range nameSeparator.Split(tail, -1) {
		part = trimPhrase(part)
		if part == "" || emailPattern.MatchString(part) || nameStopwords[strings.ToLower(part)] {
			continue
		}
		if len(strings.Fields(part)) > 3 {
			continue
		}
		out = append(out, part)
	}
	return out
}

var instantLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseInstant(s string, loc *time.Location) time.Time {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return time.Time{}
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range instantLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			if layout == "2006-01-02" {
				t = t.Add(aitime.DefaultHour * time.Hour)
			}
			return t.In(loc)
		}
	}
	return time.Time{}
}
