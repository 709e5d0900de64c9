package extract

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

// File type filters understood by DriveSearch.
const (
	FileTypeDocument     = "document"
	FileTypeSpreadsheet  = "spreadsheet"
	FileTypePresentation = "presentation"
	FileTypePDF          = "pdf"
	FileTypeFolder       = "folder"
)

var mimeTypes = map[string]string{
	FileTypeDocument:     "application/vnd.google-apps.document",
	FileTypeSpreadsheet:  "application/vnd.google-apps.spreadsheet",
	FileTypePresentation: "application/vnd.google-apps.presentation",
	FileTypePDF:          "application/pdf",
	FileTypeFolder:       "application/vnd.google-apps.folder",
}

// DriveSearch is the payload of DRIVE_SEARCH and DOCS_SEARCH prompts.
type DriveSearch struct {
	Query    string `json:"searchQuery"`
	FileType string `json:"fileTypeFilter"`
}

// MimeType returns the Drive MIME type for FileType, or "" for no filter.
func (s DriveSearch) MimeType() string {
	return mimeTypes[s.FileType]
}

// DocsCreate is the payload of a DOCS_CREATE prompt.
type DocsCreate struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// DocsUpdate is the payload of a DOCS_UPDATE prompt. Target is a document
// name or an ordinal reference such as "#2".
type DocsUpdate struct {
	Target  string `json:"target"`
	Content string `json:"content"`
}

// Share is the payload of DRIVE_SHARE, DOCS_SHARE and MEET_SHARE prompts.
type Share struct {
	Target string   `json:"target"`
	Emails []string `json:"emails"`
	Names  []string `json:"names"`
	Role   string   `json:"role"`
}

// DefaultDocTitle is used when a DOCS_CREATE prompt names no title.
const DefaultDocTitle = "Untitled Document"

var (
	fileTypeWords = []struct {
		re       *regexp.Regexp
		fileType string
	}{
		{regexp.MustCompile(`(?i)\b(?:spreadsheets?|sheets?|excel|xlsx)\b`), FileTypeSpreadsheet},
		{regexp.MustCompile(`(?i)\b(?:presentations?|slides?|slide\s+decks?|decks?|powerpoint)\b`), FileTypePresentation},
		{regexp.MustCompile(`(?i)\bpdfs?\b`), FileTypePDF},
		{regexp.MustCompile(`(?i)\bfolders?\b`), FileTypeFolder},
		{regexp.MustCompile(`(?i)\b(?:google\s+)?(?:docs?|documents?)\b`), FileTypeDocument},
	}
	searchNoise = regexp.MustCompile(`(?i)\b(?:please|can you|could you|find|search(?:\s+for)?|look(?:\s+for|\s+up)?|show(?:\s+me)?|get|list|open|where(?:'s|\s+is)|my|me|all|the|a|an|any|some|files?|in|on|from|(?:google\s+)?drive|(?:google\s+)?docs?|documents?|spreadsheets?|sheets?|presentations?|slides?|decks?|pdfs?|folders?|for|about|called|named|titled|related\s+to|with|that|i\s+have|google)\b`)

	docTitle     = regexp.MustCompile(`(?i)\b(?:called|named|titled)\s+["“]?(.+?)["”]?(?:\s+(?:with|containing|that\s+says|saying)\s+(.+))?$`)
	docAbout     = regexp.MustCompile(`(?i)\b(?:doc(?:ument)?|google\s+doc)\s+(?:about|for|on)\s+(.+?)(?:\s+(?:with|containing|that\s+says|saying)\s+(.+))?$`)
	docsAppend   = regexp.MustCompile(`(?i)\b(?:add|append|write|insert|put)\s+(.+?)\s+(?:to|into|in)\s+(?:the\s+|my\s+)?(?:google\s+)?doc(?:ument)?(?:\s+(?:called|named|titled|about))?\s*(.*)$`)
	docsAppendTo = regexp.MustCompile(`(?i)\b(?:update|edit)\s+(?:the\s+|my\s+)?(?:google\s+)?doc(?:ument)?\s+(.+?)\s+(?:with|to\s+say|adding)\s+(.+)$`)

	shareTarget = regexp.MustCompile(`(?i)\b(?:share|send)\s+(?:the\s+|my\s+)?(?:google\s+)?(?:file|doc(?:ument)?|spreadsheet|presentation|folder|meeting\s+link|meet\s+link|meeting|meet)?\s*(.*?)\s+(?:with|to)\s+`)
	shareWith   = regexp.MustCompile(`(?i)\b(?:with|to)\s+(.+)$`)
	editorWord  = regexp.MustCompile(`(?i)\b(?:edit|editor|editing|write|writer|can\s+change)\b`)
	commentWord = regexp.MustCompile(`(?i)\bcomment(?:er|ing)?\b`)
	roleTail    = regexp.MustCompile(`(?i)\s*\b(?:as\s+(?:an?\s+)?(?:editor|viewer|commenter|reader)|with\s+(?:edit|view|comment)\s+access|(?:so\s+(?:that\s+)?(?:they|he|she)\s+)?can\s+(?:edit|view|comment))\b.*$`)
)

var driveSearchSchema = Schema[DriveSearch]{
	Name: "drive-search",
	Instruction: `Extract a Google Drive file search from the request.
Return JSON: {"searchQuery": "the words to search for in file names and content", "fileTypeFilter": one of "document", "spreadsheet", "presentation", "pdf", "folder" or "" for any}`,
	Examples: []Example{
		{`find the budget spreadsheet in drive`, `{"searchQuery": "budget", "fileTypeFilter": "spreadsheet"}`},
		{`search my google docs for meeting notes`, `{"searchQuery": "meeting notes", "fileTypeFilter": "document"}`},
		{`where is the Q3 roadmap`, `{"searchQuery": "Q3 roadmap", "fileTypeFilter": ""}`},
	},
	Fallback: driveSearchFallback,
	Normalize: func(s *DriveSearch, _ Env) {
		s.Query = trimPhrase(s.Query)
		s.FileType = strings.ToLower(strings.TrimSpace(s.FileType))
		if _, ok := mimeTypes[s.FileType]; !ok {
			s.FileType = ""
		}
	},
}

// DriveSearch extracts a search query and optional file type filter.
func (x *Extractor) DriveSearch(ctx context.Context, prompt string) DriveSearch {
	v, _ := Run(ctx, x, driveSearchSchema, prompt)
	return v
}

func driveSearchFallback(prompt string, _ Env) DriveSearch {
	var s DriveSearch
	for _, ft := range fileTypeWords {
		if ft.re.MatchString(prompt) {
			s.FileType = ft.fileType
			break
		}
	}
	if q, ok := Quoted(prompt); ok {
		s.Query = q
		return s
	}
	s.Query = collapse(searchNoise.ReplaceAllString(prompt, " "))
	return s
}

var docsCreateSchema = Schema[DocsCreate]{
	Name: "docs-create",
	Instruction: `Extract a new Google Doc from the request.
Return JSON: {"title": "document title in title case", "content": "initial body text, empty if none was given"}`,
	Examples: []Example{
		{`create a doc called Roadmap`, `{"title": "Roadmap", "content": ""}`},
		{`make a google doc for the offsite agenda with breakfast at 9 and planning at 10`, `{"title": "Offsite Agenda", "content": "Breakfast at 9 and planning at 10"}`},
	},
	Fallback: docsCreateFallback,
	Normalize: func(d *DocsCreate, _ Env) {
		d.Title = TitleCase(trimPhrase(d.Title))
		if d.Title == "" {
			d.Title = DefaultDocTitle
		}
		d.Content = strings.TrimSpace(d.Content)
	},
}

// DocsCreate extracts the title and optional content of a new document.
func (x *Extractor) DocsCreate(ctx context.Context, prompt string) DocsCreate {
	v, _ := Run(ctx, x, docsCreateSchema, prompt)
	return v
}

func docsCreateFallback(prompt string, _ Env) DocsCreate {
	if m := docTitle.FindStringSubmatch(prompt); m != nil {
		return DocsCreate{Title: m[1], Content: upperFirst(trimPhrase(m[2]))}
	}
	if m := docAbout.FindStringSubmatch(prompt); m != nil {
		title := strings.TrimPrefix(strings.TrimPrefix(trimPhrase(m[1]), "the "), "The ")
		return DocsCreate{Title: title, Content: upperFirst(trimPhrase(m[2]))}
	}
	return DocsCreate{}
}

var docsUpdateSchema = Schema[DocsUpdate]{
	Name: "docs-update",
	Instruction: `The user wants to add text to an existing Google Doc.
Return JSON: {"target": "name of the document, or \"#N\" if they refer to a numbered result", "content": "the text to append"}`,
	Examples: []Example{
		{`add notes about the launch to the doc called Q3 Plan`, `{"target": "Q3 Plan", "content": "Notes about the launch"}`},
		{`append "ship on friday" to doc #2`, `{"target": "#2", "content": "ship on friday"}`},
	},
	Fallback: docsUpdateFallback,
	Normalize: func(d *DocsUpdate, _ Env) {
		d.Target = trimPhrase(d.Target)
		d.Content = strings.TrimSpace(d.Content)
	},
}

// DocsUpdate extracts which document to append to and what.
func (x *Extractor) DocsUpdate(ctx context.Context, prompt string) DocsUpdate {
	v, _ := Run(ctx, x, docsUpdateSchema, prompt)
	return v
}

func docsUpdateFallback(prompt string, _ Env) DocsUpdate {
	var d DocsUpdate
	if m := docsAppend.FindStringSubmatch(prompt); m != nil {
		d.Content = upperFirst(trimPhrase(m[1]))
		d.Target = trimPhrase(m[2])
	} else if m := docsAppendTo.FindStringSubmatch(prompt); m != nil {
		d.Target = trimPhrase(m[1])
		d.Content = upperFirst(trimPhrase(m[2]))
	}
	if n, ok := Ordinal(prompt); ok {
		d.Target = "#" + strconv.Itoa(n)
	}
	return d
}

var shareSchema = Schema[Share]{
	Name: "share",
	Instruction: `The user wants to share a file, document or meeting with people.
Return JSON: {"target": "name of the item, or \"#N\" if they refer to a numbered result, empty for the current item", "emails": ["email addresses"], "names": ["people named without an email address"], "role": "reader", "writer" or "commenter"}`,
	Examples: []Example{
		{`share file #1 with bob@example.com`, `{"target": "#1", "emails": ["bob@example.com"], "names": [], "role": "reader"}`},
		{`share the budget spreadsheet with Alice so she can edit`, `{"target": "budget spreadsheet", "emails": [], "names": ["Alice"], "role": "writer"}`},
	},
	Fallback:  shareFallback,
	Normalize: normalizeShare,
}

// Share extracts what to share, with whom and with which role.
func (x *Extractor) Share(ctx context.Context, prompt string) Share {
	v, _ := Run(ctx, x, shareSchema, prompt)
	return v
}

func shareFallback(prompt string, _ Env) Share {
	s := Share{Emails: Emails(prompt), Role: "reader"}
	switch {
	case commentWord.MatchString(prompt):
		s.Role = "commenter"
	case editorWord.MatchString(prompt):
		s.Role = "writer"
	}

	if n, ok := Ordinal(prompt); ok {
		s.Target = "#" + strconv.Itoa(n)
	} else if q, ok := Quoted(prompt); ok {
		s.Target = q
	} else if m := shareTarget.FindStringSubmatch(prompt); m != nil {
		s.Target = trimPhrase(m[1])
	}

	if m := shareWith.FindStringSubmatch(roleTail.ReplaceAllString(prompt, "")); m != nil {
		for _, part := range nameSeparator.Split(m[1], -1) {
			part = trimPhrase(part)
			if part == "" || emailPattern.MatchString(part) || nameStopwords[strings.ToLower(part)] {
				continue
			}
			if len(strings.Fields(part)) <= 3 {
				s.Names = append(s.Names, part)
			}
		}
	}
	return s
}

func normalizeShare(s *Share, _ Env) {
	s.Target = trimPhrase(s.Target)
	switch strings.ToLower(s.Role) {
	case "writer", "editor":
		s.Role = "writer"
	case "commenter":
		s.Role = "commenter"
	default:
		s.Role = "reader"
	}
	var emails []string
	for _, e := range s.Emails {
		emails = append(emails, Emails(e)...)
	}
	s.Emails = emails
}
