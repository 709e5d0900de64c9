package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/rift/plugin/ai/extract"
	"github.com/hrygo/rift/plugin/ai/session"
	"github.com/hrygo/rift/plugin/ai/workflow"
	"github.com/hrygo/rift/plugin/capability"
)

// stepRunner runs workflow steps through the same handlers single prompts
// use, inside the turn that started the workflow.
type stepRunner struct {
	s *Service
	t *turn
}

func (r *stepRunner) RunStep(ctx context.Context, step workflow.Step, acc *workflow.Artifacts) (workflow.StepResult, error) {
	t := &turn{prompt: step.Prompt, state: r.t.state, rc: r.t.rc}
	h := r.handlerFor(step, acc)
	if h == nil {
		return workflow.StepResult{}, fmt.Errorf("unsupported action %q for %s", step.Action, step.Tool)
	}

	res, err := h(ctx, t)
	if err != nil {
		res = r.s.convert(ctx, t, err)
	}
	if res == nil {
		return workflow.StepResult{}, fmt.Errorf("no result for %s %s", step.Tool, step.Action)
	}

	out := workflow.StepResult{Type: res.Type, Response: res.Response}
	switch {
	case res.Failed():
		out.Error = orPlaceholder(res.Error, res.Response)
	case res.Type == TypeChat:
		// A clarifying question did nothing, so later steps have no input.
		out.Error = res.Response
	default:
		out.Artifacts = r.artifacts(res)
	}
	return out, nil
}

// handlerFor maps a step to a handler. Named plans use the Action constants;
// CUSTOM plans carry free-form actions matched by keyword.
func (r *stepRunner) handlerFor(step workflow.Step, acc *workflow.Artifacts) handler {
	s := r.s
	action := strings.ToLower(step.Action)
	has := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(action, w) {
				return true
			}
		}
		return false
	}

	switch step.Tool {
	case workflow.ToolCalendar:
		switch {
		case has("delete", "remove", "cancel"):
			return s.deleteEvent
		case has("modify", "update", "change", "move", "reschedule"):
			return s.modifyEvent
		case has("query", "list", "check", "find", "search", "show"):
			return s.queryEvents
		}
		return s.createEvent

	case workflow.ToolDocs:
		switch {
		case action == workflow.ActionCreateNotes:
			return func(ctx context.Context, t *turn) (*Result, error) { return r.createNotes(ctx, t, acc) }
		case has("share"):
			return func(ctx context.Context, t *turn) (*Result, error) { return r.shareArtifact(ctx, t, s.docs(), acc.Doc, acc.Docs) }
		case action == workflow.ActionSearchOpen:
			return r.searchOpenDoc
		case has("update", "append", "add", "write"):
			return s.updateDoc
		case has("open"):
			return s.openDoc
		case has("search", "find"):
			return s.searchDocs
		}
		return s.createDoc

	case workflow.ToolDrive:
		switch {
		case has("share"):
			return func(ctx context.Context, t *turn) (*Result, error) {
				return r.shareArtifact(ctx, t, s.drive(""), acc.DriveFile, acc.DriveFiles)
			}
		case has("open"):
			return s.openDrive
		}
		return s.searchDrive

	case workflow.ToolMeet:
		if has("share", "send", "email", "invite") {
			return func(ctx context.Context, t *turn) (*Result, error) { return r.inviteToMeeting(ctx, t, acc) }
		}
		return func(ctx context.Context, t *turn) (*Result, error) { return s.newMeeting(ctx, t, false) }

	case workflow.ToolEmail:
		switch {
		case has("search", "find", "check", "list", "query", "read"):
			return s.queryEmails
		case has("send", "share", "email"):
			return func(ctx context.Context, t *turn) (*Result, error) { return r.sendEmail(ctx, t, true) }
		}
		return func(ctx context.Context, t *turn) (*Result, error) { return r.sendEmail(ctx, t, false) }
	}
	return nil
}

// createNotes creates a notes document for the event an earlier step made.
func (r *stepRunner) createNotes(ctx context.Context, t *turn, acc *workflow.Artifacts) (*Result, error) {
	if acc.Event == nil {
		return errorResult("No event was created to take notes for."), nil
	}
	title, body := workflow.NotesDoc(*acc.Event, strings.TrimSpace(t.prompt), r.s.loc())
	doc, err := r.s.clients.Docs.Create(ctx, title, body)
	if err != nil {
		return nil, failed("Failed to create document", err)
	}
	return &Result{
		Type:     TypeDocsCreate,
		Success:  true,
		Response: fmt.Sprintf("Created meeting notes %q.", doc.Title),
		Result:   doc,
		URL:      doc.URL,
	}, nil
}

// searchOpenDoc finds an existing document and opens the best match, so a
// later share step has a target.
func (r *stepRunner) searchOpenDoc(ctx context.Context, t *turn) (*Result, error) {
	s := r.s
	q := s.x.DriveSearch(ctx, t.prompt)
	if q.Query == "" {
		return errorResult("Could not tell which document to look for."), nil
	}
	files, err := s.clients.Docs.Search(ctx, q.Query, fileSearchLimit)
	if err != nil {
		return nil, failed("Failed to search documents", err)
	}
	if len(files) == 0 {
		return errorResult(fmt.Sprintf("No documents found matching %q.", q.Query)), nil
	}
	i := exactName(files, q.Query)
	if i < 0 {
		i = 0
	}
	items := fileItems(files)
	t.state.SetResults(session.KindDocs, q.Query, items)
	res, err := s.openItem(t, s.docs(), items[i])
	if err != nil || res.Failed() {
		return res, err
	}
	res.Result = files[i]
	return res, nil
}

// shareArtifact shares the document or file an earlier step produced.
func (r *stepRunner) shareArtifact(ctx context.Context, t *turn, lib library, one *workflow.Artifact, many []workflow.Artifact) (*Result, error) {
	target := one
	if target == nil && len(many) > 0 {
		target = &many[0]
	}
	if target == nil {
		return errorResult(fmt.Sprintf("There is no %s to share.", lib.noun)), nil
	}
	sh := r.s.x.Share(ctx, t.prompt)
	if len(sh.Emails) == 0 && len(sh.Names) == 0 {
		return errorResult(fmt.Sprintf("No recipients to share %q with.", target.Title)), nil
	}
	return r.s.shareWith(ctx, t, lib, session.Item{ID: target.ID, Title: target.Title, URL: target.Link}, sh)
}

// inviteToMeeting emails the link of the meeting an earlier step created.
func (r *stepRunner) inviteToMeeting(ctx context.Context, t *turn, acc *workflow.Artifacts) (*Result, error) {
	if acc.Meeting == nil {
		return errorResult("There is no meeting to share."), nil
	}
	s := r.s
	m := acc.Meeting
	recipients, missing := s.recipients(ctx, t, extract.Share{Emails: extract.Emails(t.prompt), Names: extract.Attendees(t.prompt)})
	if len(recipients) == 0 {
		recipients = m.Attendees
	}
	if len(recipients) == 0 {
		return errorResult(fmt.Sprintf("No recipients to share %q with.", m.Title)), nil
	}

	mt := &capability.Meeting{ID: m.ID, Summary: m.Title, MeetLink: m.Link, Attendees: m.Attendees}
	mt.Start, _ = time.Parse(time.RFC3339, m.Start)
	mt.End, _ = time.Parse(time.RFC3339, m.End)
	if err := s.sendInvitation(ctx, mt, recipients); err != nil {
		return nil, failed("Failed to share meeting", err)
	}
	resp := fmt.Sprintf("Shared meeting %q via email with %s.", m.Title, strings.Join(recipients, ", "))
	if len(missing) > 0 {
		resp += "\n\nCould not find an email address for: " + strings.Join(missing, ", ")
	}
	return &Result{Type: TypeMeetShare, Success: true, Response: resp, Email: strings.Join(recipients, ", ")}, nil
}

// sendEmail composes an email from the step prompt. With send set, a
// complete email goes out directly; otherwise it is left as the draft.
func (r *stepRunner) sendEmail(ctx context.Context, t *turn, send bool) (*Result, error) {
	s := r.s
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
	if !send || draft.To == "" || len(unresolved(draft.To)) > 0 || strings.TrimSpace(draft.Body) == "" {
		return draftResult("**Email draft created.**", draft), nil
	}
	return s.sendDraft(ctx, t)
}

// artifacts extracts what a step produced for later steps.
func (r *stepRunner) artifacts(res *Result) workflow.Artifacts {
	var a workflow.Artifacts
	switch v := res.Result.(type) {
	case *capability.Event:
		a.Event = &workflow.Artifact{
			ID:        v.ID,
			Title:     v.Summary,
			Link:      v.HTMLLink,
			Start:     v.Start.Format(time.RFC3339),
			End:       v.End.Format(time.RFC3339),
			Attendees: v.Attendees,
		}
	case *capability.Meeting:
		a.Meeting = &workflow.Artifact{
			ID:        v.ID,
			Title:     v.Summary,
			Link:      v.MeetLink,
			Start:     v.Start.Format(time.RFC3339),
			End:       v.End.Format(time.RFC3339),
			Attendees: v.Attendees,
		}
	case *capability.Document:
		a.Doc = &workflow.Artifact{ID: v.ID, Title: v.Title, Link: v.URL}
	case capability.File:
		art := fileArtifact(v)
		if res.Type == TypeDocsOpen {
			a.Doc = &art
		} else {
			a.DriveFile = &art
		}
	case session.Item:
		art := workflow.Artifact{ID: v.ID, Title: v.Title, Link: v.URL}
		if res.Type == TypeDocsOpen {
			a.Doc = &art
		} else {
			a.DriveFile = &art
		}
	case []capability.File:
		arts := make([]workflow.Artifact, 0, len(v))
		for _, f := range v {
			arts = append(arts, fileArtifact(f))
		}
		if res.Type == TypeDocsSearch {
			a.Docs = arts
		} else {
			a.DriveFiles = arts
		}
	}
	return a
}

func fileArtifact(f capability.File) workflow.Artifact {
	return workflow.Artifact{ID: f.ID, Title: f.Name, Link: f.WebViewLink}
}
