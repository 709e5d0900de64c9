package workflow

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/hrygo/rift/plugin/ai/extract"
)

type docsShareDetails struct {
	Action     string   `json:"action"`
	DocTitle   string   `json:"docTitle"`
	DocContent string   `json:"docContent"`
	ShareWith  []string `json:"shareWith"`
}

type calendarDocsDetails struct {
	EventTitle     string   `json:"eventTitle"`
	EventTime      string   `json:"eventTime"`
	EventAttendees []string `json:"eventAttendees"`
	CreateDoc      bool     `json:"createDoc"`
	DocTitle       string   `json:"docTitle"`

	// EventClause is the event half of the prompt, used when no title was extracted.
	EventClause string `json:"-"`
}

var (
	searchLead   = regexp.MustCompile(`(?i)^\s*(?:please\s+)?(?:find|search\s+for|search|look\s+up|locate|get|pull\s+up)\b`)
	searchTitle  = regexp.MustCompile(`(?i)^\s*(?:please\s+)?(?:find|search\s+for|search|look\s+up|locate|get|pull\s+up)\s+(?:my\s+|the\s+)?(.+?)(?:\s+(?:in|on|from)\s+(?:google\s+)?(?:docs?|drive))?\s+(?:and|then)\s+(?:share|send)\b`)
	namedTitle   = regexp.MustCompile(`(?i)\b(?:called|named|titled)\s+["“]?(.+?)["”]?(?:\s+(?:with|containing|saying|and|then)\b|$)`)
	aboutTitle   = regexp.MustCompile(`(?i)\b(?:doc(?:ument)?|notes)\s+(?:about|for|on)\s+(.+?)(?:\s+(?:with|containing|saying|and|then)\b|$)`)
	contentPart  = regexp.MustCompile(`(?i)\b(?:with\s+(?:the\s+)?content|containing|saying|that\s+says)\s*:?\s+(.+?)(?:\s+(?:and|then)\s+(?:share|send)\b|$)`)
	shareTail    = regexp.MustCompile(`(?i)\b(?:share|send)\s+(?:it|them|this|that|the\s+doc(?:ument)?|the\s+notes)?\s*(?:with|to)\s+(.+)$`)
	listSplit    = regexp.MustCompile(`(?i)\s*(?:,|\band\b|&)\s*`)
	docsClause   = regexp.MustCompile(`(?i)\s+(?:and|then)\s+(?:also\s+)?(?:create|make|start|write|open)\b(.*)$`)
	docsWanted   = regexp.MustCompile(`(?i)\b(?:doc|document|notes)\b`)
	leadingNoise = regexp.MustCompile(`(?i)^(?:the|my|a|an)\s+`)
)

var docsShareSchema = extract.Schema[docsShareDetails]{
	Name: "workflow-docs-share",
	Instruction: `Analyze this request for a document workflow.
Return JSON: {"action": "create" if a new document should be created or "search" if an existing document should be found, "docTitle": "title of the document to create or search for", "docContent": "content for a new document or empty", "shareWith": ["email addresses or names to share the document with"]}`,
	Examples: []extract.Example{
		{Input: `Create a document called Project Plan and share it with john@example.com`, Output: `{"action": "create", "docTitle": "Project Plan", "docContent": "", "shareWith": ["john@example.com"]}`},
		{Input: `find my notes about the offsite and share them with Priya`, Output: `{"action": "search", "docTitle": "offsite", "docContent": "", "shareWith": ["Priya"]}`},
	},
	Fallback: docsShareFallback,
	Normalize: func(d *docsShareDetails, _ extract.Env) {
		d.Action = strings.ToLower(strings.TrimSpace(d.Action))
		if d.Action != "search" {
			d.Action = "create"
		}
		d.DocTitle = strings.TrimSpace(d.DocTitle)
		if d.DocTitle == "" && d.Action == "create" {
			d.DocTitle = extract.DefaultDocTitle
		}
		d.DocContent = strings.TrimSpace(d.DocContent)
		d.ShareWith = cleanList(d.ShareWith)
	},
}

func docsShareFallback(prompt string, _ extract.Env) docsShareDetails {
	d := docsShareDetails{Action: "create"}
	if searchLead.MatchString(prompt) {
		d.Action = "search"
	}

	switch {
	case d.Action == "search":
		if m := searchTitle.FindStringSubmatch(prompt); m != nil {
			d.DocTitle = leadingNoise.ReplaceAllString(strings.TrimPrefix(m[1], "notes about "), "")
		}
	default:
		if q, ok := extract.Quoted(prompt); ok {
			d.DocTitle = q
		} else if m := namedTitle.FindStringSubmatch(prompt); m != nil {
			d.DocTitle = m[1]
		} else if m := aboutTitle.FindStringSubmatch(prompt); m != nil {
			d.DocTitle = extract.TitleCase(leadingNoise.ReplaceAllString(m[1], ""))
		}
		if m := contentPart.FindStringSubmatch(prompt); m != nil {
			d.DocContent = m[1]
		}
	}

	if m := shareTail.FindStringSubmatch(prompt); m != nil {
		d.ShareWith = listSplit.Split(m[1], -1)
	}
	return d
}

var calendarDocsSchema = extract.Schema[calendarDocsDetails]{
	Name: "workflow-calendar-docs",
	Instruction: `Analyze this request for a calendar and document workflow.
Return JSON: {"eventTitle": "title for the calendar event", "eventTime": "the time for the event as the user said it, e.g. tomorrow at 3pm", "eventAttendees": ["email addresses of attendees"], "createDoc": true if a document should be created for the event, "docTitle": "title for the document or empty"}`,
	Examples: []extract.Example{
		{Input: `Schedule a team meeting tomorrow at 2pm and create a doc for notes`, Output: `{"eventTitle": "Team Meeting", "eventTime": "tomorrow at 2pm", "eventAttendees": [], "createDoc": true, "docTitle": "Team Meeting Notes"}`},
	},
	Fallback: calendarDocsFallback,
	Normalize: func(d *calendarDocsDetails, _ extract.Env) {
		d.EventTitle = strings.TrimSpace(d.EventTitle)
		d.EventTime = strings.TrimSpace(d.EventTime)
		d.DocTitle = strings.TrimSpace(d.DocTitle)
		d.EventAttendees = cleanList(d.EventAttendees)
	},
}

func calendarDocsFallback(prompt string, _ extract.Env) calendarDocsDetails {
	d := calendarDocsDetails{EventClause: prompt}
	loc := docsClause.FindStringSubmatchIndex(prompt)
	if loc == nil {
		return d
	}
	d.EventClause = strings.TrimSpace(prompt[:loc[0]])
	docPart := prompt[loc[2]:loc[3]]
	d.CreateDoc = docsWanted.MatchString(docPart)
	if q, ok := extract.Quoted(docPart); ok {
		d.DocTitle = q
	} else if m := namedTitle.FindStringSubmatch(docPart); m != nil {
		d.DocTitle = m[1]
	}
	return d
}

func cleanList(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		s = strings.Trim(strings.TrimSpace(s), ".")
		s = leadingNoise.ReplaceAllString(s, "")
		if s == "" || seen[strings.ToLower(s)] {
			continue
		}
		seen[strings.ToLower(s)] = true
		out = append(out, s)
	}
	return out
}

// NotesDoc renders the title and body of a meeting-notes document for a
// created event. title overrides the default "Notes: <event> - <date>".
func NotesDoc(ev Artifact, title string, loc *time.Location) (string, string) {
	if loc == nil {
		loc = time.Local
	}
	start, errStart := time.Parse(time.RFC3339, ev.Start)
	end, errEnd := time.Parse(time.RFC3339, ev.End)

	if title == "" {
		title = "Notes: " + ev.Title
		if errStart == nil {
			title += " - " + start.In(loc).Format("1/2/2006")
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Meeting Notes: %s\n", ev.Title)
	if errStart == nil && errEnd == nil {
		fmt.Fprintf(&b, "Date: %s - %s\n", start.In(loc).Format("Jan 2, 2006 3:04 PM"), end.In(loc).Format("Jan 2, 2006 3:04 PM"))
	}
	fmt.Fprintf(&b, "\nAttendees: %s\n", strings.Join(ev.Attendees, ", "))
	b.WriteString("\n# Agenda\n\n# Discussion\n\n# Action Items\n")
	return title, b.String()
}
