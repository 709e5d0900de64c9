package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/hrygo/rift/plugin/capability"
)

var inviteWords = regexp.MustCompile(`(?i)\b(?:send|share|e-?mail|invite|mail)\b`)

func (s *Service) createMeeting(ctx context.Context, t *turn) (*Result, error) {
	return s.newMeeting(ctx, t, inviteWords.MatchString(t.prompt))
}

// newMeeting creates a Meet for the prompt. With invite set, the attendees
// also get the link by email.
func (s *Service) newMeeting(ctx context.Context, t *turn, invite bool) (*Result, error) {
	m := s.x.Meet(ctx, t.prompt)
	named, missing := s.resolveNames(ctx, t, m.Names)
	attendees := dedupe(append(append([]string{}, m.Recipients...), named...))

	mt, err := s.clients.Meet.Create(ctx, capability.MeetingSpec{
		Title:       m.Details.Title,
		Start:       m.Details.StartTime,
		End:         m.Details.EndTime,
		Attendees:   attendees,
		Description: m.Details.Description,
	})
	if err != nil {
		return nil, failed("Failed to create meeting", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Created Google Meet: %q\n\nMeet link: %s", mt.Summary, mt.MeetLink)
	fmt.Fprintf(&b, "\nWhen: %s", s.formatMeeting(mt))
	if invite && len(attendees) > 0 {
		if err := s.sendInvitation(ctx, mt, attendees); err != nil {
			t.rc.Warn("meeting invitation failed", slog.String("error", err.Error()))
			fmt.Fprintf(&b, "\n\nNote: Couldn't send email invitation: %v", err)
		} else {
			fmt.Fprintf(&b, "\n\nShared via email with: %s", strings.Join(attendees, ", "))
		}
	}
	if len(mt.Attendees) > 0 {
		fmt.Fprintf(&b, "\n\nAttendees: %s", strings.Join(mt.Attendees, ", "))
	}
	if len(missing) > 0 {
		fmt.Fprintf(&b, "\n\nCould not find an email address for: %s", strings.Join(missing, ", "))
	}
	return &Result{Type: TypeMeetCreate, Success: true, Response: b.String(), Result: mt, URL: mt.MeetLink}, nil
}

// shareMeeting adds people to an upcoming meeting that has a Meet link.
func (s *Service) shareMeeting(ctx context.Context, t *turn) (*Result, error) {
	sh := s.x.Share(ctx, t.prompt)
	recipients, missing := s.recipients(ctx, t, sh)
	if len(recipients) == 0 {
		msg := "Please specify which meeting to share and with whom (email addresses)."
		if len(missing) > 0 {
			msg += " Could not find an email address for: " + strings.Join(missing, ", ")
		}
		return chatResult(msg), nil
	}

	events, err := s.upcoming(ctx)
	if err != nil {
		return nil, failed("Failed to share meeting", err)
	}
	var meetings []capability.Event
	for _, ev := range events {
		if ev.MeetLink != "" {
			meetings = append(meetings, ev)
		}
	}
	if len(meetings) == 0 {
		return errorResult("No upcoming meetings with a Google Meet link found."), nil
	}
	idx := 0
	if len(meetings) > 1 {
		if i, ok := s.x.Select(ctx, "meeting", t.prompt, s.eventLabels(meetings)); ok {
			idx = i
		}
	}

	mt, err := s.clients.Meet.AddAttendees(ctx, meetings[idx].ID, recipients)
	if err != nil {
		return nil, failed("Failed to share meeting", err)
	}
	resp := fmt.Sprintf("Added %s to the meeting %q.", strings.Join(recipients, ", "), mt.Summary)
	if mt.MeetLink != "" {
		resp += "\n\nMeet link: " + mt.MeetLink
	}
	if len(missing) > 0 {
		resp += "\n\nCould not find an email address for: " + strings.Join(missing, ", ")
	}
	return &Result{Type: TypeMeetUpdate, Success: true, Response: resp, Result: mt, URL: mt.MeetLink}, nil
}

// sendInvitation emails the meeting link to attendees from the user's account.
func (s *Service) sendInvitation(ctx context.Context, mt *capability.Meeting, to []string) error {
	from, err := s.clients.Mail.UserEmail(ctx)
	if err != nil {
		return err
	}
	var body strings.Builder
	fmt.Fprintf(&body, "You're invited to join a Google Meet video call.\n\n")
	fmt.Fprintf(&body, "Meeting: %s\n", mt.Summary)
	fmt.Fprintf(&body, "When: %s\n", s.formatMeeting(mt))
	fmt.Fprintf(&body, "Join: %s\n", mt.MeetLink)
	if mt.Description != "" {
		fmt.Fprintf(&body, "\n%s\n", mt.Description)
	}
	fmt.Fprintf(&body, "\nSee you there,\n%s", from)

	_, err = s.clients.Mail.Send(ctx, capability.OutgoingEmail{
		From:    from,
		To:      strings.Join(to, ", "),
		Subject: "Invitation: " + mt.Summary,
		Body:    body.String(),
	})
	return err
}

func (s *Service) formatMeeting(mt *capability.Meeting) string {
	if mt.Start.IsZero() {
		return "not scheduled"
	}
	start, end := mt.Start.In(s.loc()), mt.End.In(s.loc())
	if mt.End.IsZero() {
		return start.Format("Mon, Jan 2 at 3:04 PM")
	}
	return start.Format("Mon, Jan 2 at 3:04 PM") + " - " + end.Format("3:04 PM")
}
