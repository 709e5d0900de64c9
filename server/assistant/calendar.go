package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/rift/plugin/ai/aitime"
	"github.com/hrygo/rift/plugin/ai/extract"
	"github.com/hrygo/rift/plugin/capability"
)

const (
	eventQueryLimit    = 25
	upcomingLimit      = 10
	defaultQueryWindow = 7 * 24 * time.Hour
)

func (s *Service) createEvent(ctx context.Context, t *turn) (*Result, error) {
	ev := s.x.Event(ctx, t.prompt)
	if !ev.HasStart() {
		title := ev.Title
		if title == "" {
			title = "New Event"
		}
		return chatResult(fmt.Sprintf("I understood you want to create an event titled %q, but I need more information about the date and time.", title)), nil
	}

	attendees, missing := s.resolveNames(ctx, t, extract.Attendees(t.prompt))
	attendees = dedupe(append(attendees, extract.Emails(t.prompt)...))

	created, err := s.clients.Calendar.CreateEvent(ctx, capability.EventSpec{
		Summary:     ev.Title,
		Description: ev.Description,
		Location:    ev.Location,
		Start:       ev.StartTime,
		End:         ev.EndTime,
		Recurrence:  ev.Recurrence,
		Attendees:   attendees,
	})
	if err != nil {
		return nil, failed("Failed to create event", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Created event %q on %s.", created.Summary, s.formatWhen(created))
	if created.Location != "" {
		fmt.Fprintf(&b, "\nLocation: %s", created.Location)
	}
	if len(created.Attendees) > 0 {
		fmt.Fprintf(&b, "\nAttendees: %s", strings.Join(created.Attendees, ", "))
	}
	if len(missing) > 0 {
		fmt.Fprintf(&b, "\n\nCould not find an email address for: %s", strings.Join(missing, ", "))
	}
	if created.HTMLLink != "" {
		fmt.Fprintf(&b, "\n\n%s", created.HTMLLink)
	}
	return &Result{Type: TypeEvent, Success: true, Response: b.String(), Result: created}, nil
}

func (s *Service) queryEvents(ctx context.Context, t *turn) (*Result, error) {
	now := s.x.Env().Now
	r := capability.TimeRange{Start: now, End: now.Add(defaultQueryWindow)}
	if tr, err := aitime.RangeFor(t.prompt, now); err == nil {
		r = capability.TimeRange{Start: tr.Start, End: tr.End}
	}

	events, err := s.clients.Calendar.ListEvents(ctx, r, eventQueryLimit)
	if err != nil {
		return nil, failed("Failed to query calendar", err)
	}
	if len(events) == 0 {
		return &Result{Type: TypeQuery, Response: "No events found.", Result: events}, nil
	}

	lines := make([]string, 0, len(events))
	for _, ev := range events {
		lines = append(lines, fmt.Sprintf("Event: %s, Date: %s, Time: %s, Location: %s",
			ev.Summary,
			ev.Start.In(s.loc()).Format("Mon, Jan 2, 2006"),
			s.formatTime(ev),
			orPlaceholder(ev.Location, "Not specified")))
	}
	return &Result{Type: TypeQuery, Success: true, Response: strings.Join(lines, "\n"), Result: events}, nil
}

func (s *Service) deleteEvent(ctx context.Context, t *turn) (*Result, error) {
	events, err := s.upcoming(ctx)
	if err != nil {
		return nil, failed("Failed to delete event", err)
	}
	if len(events) == 0 {
		return errorResult("No upcoming events found to delete."), nil
	}
	idx, ok := s.x.Select(ctx, "event", t.prompt, s.eventLabels(events))
	if !ok {
		return errorResult("Could not determine which event to delete. Please specify the event name."), nil
	}
	ev := events[idx]
	if err := s.clients.Calendar.DeleteEvent(ctx, ev.ID); err != nil {
		if errors.Is(err, capability.ErrNotFound) {
			return errorResult("No matching event found to delete."), nil
		}
		return nil, failed("Failed to delete event", err)
	}
	return &Result{Type: TypeDelete, Success: true, Response: "Deleted event: " + ev.Summary, Result: ev}, nil
}

func (s *Service) modifyEvent(ctx context.Context, t *turn) (*Result, error) {
	events, err := s.upcoming(ctx)
	if err != nil {
		return nil, failed("Failed to modify event", err)
	}
	if len(events) == 0 {
		return errorResult("No upcoming events found to modify."), nil
	}
	idx, ok := s.x.Select(ctx, "event", t.prompt, s.eventLabels(events))
	if !ok {
		return errorResult("Could not identify which event to modify."), nil
	}
	ev := events[idx]

	ch := s.x.EventChanges(ctx, t.prompt)
	if ch.IsEmpty() {
		return errorResult("Could not determine what changes to make to the event."), nil
	}

	var (
		patch   = capability.EventChanges{AddMeetLink: ch.AddMeetLink}
		changes []string
	)
	if ch.Title != "" {
		patch.Summary = &ch.Title
		changes = append(changes, fmt.Sprintf("Title changed to %q", ch.Title))
	}
	if !ch.StartTime.IsZero() {
		start, end := ch.StartTime, ch.EndTime
		if end.IsZero() || !end.After(start) {
			end = start.Add(ev.End.Sub(ev.Start))
		}
		patch.Start, patch.End = &start, &end
		changes = append(changes, fmt.Sprintf("Time changed to %s - %s",
			start.In(s.loc()).Format("Mon, Jan 2 3:04 PM"),
			end.In(s.loc()).Format("3:04 PM")))
	}
	if ch.Location != "" {
		patch.Location = &ch.Location
		changes = append(changes, fmt.Sprintf("Location changed to %q", ch.Location))
	}
	if ch.Description != "" {
		patch.Description = &ch.Description
		changes = append(changes, "Description updated")
	}
	if ch.AddMeetLink {
		changes = append(changes, "Google Meet link added")
	}
	added, missing := s.resolveNames(ctx, t, ch.AddAttendees)
	if len(added) > 0 {
		patch.AddAttendees = added
		changes = append(changes, fmt.Sprintf("%d attendee(s) added", len(added)))
	}
	if len(changes) == 0 {
		msg := "Could not determine what changes to make to the event."
		if len(missing) > 0 {
			msg += " Could not find an email address for: " + strings.Join(missing, ", ")
		}
		return errorResult(msg), nil
	}

	updated, err := s.clients.Calendar.PatchEvent(ctx, ev.ID, patch)
	if err != nil {
		return nil, failed("Failed to modify event", err)
	}

	resp := fmt.Sprintf("Updated event %q:\n- %s", updated.Summary, strings.Join(changes, "\n- "))
	if len(missing) > 0 {
		resp += "\n\nCould not find an email address for: " + strings.Join(missing, ", ")
	}
	return &Result{Type: TypeEventModified, Success: true, Response: resp, Result: updated, Changes: changes}, nil
}

// upcoming lists the events of the next week, the candidates for delete and
// modify prompts.
func (s *Service) upcoming(ctx context.Context) ([]capability.Event, error) {
	now := s.x.Env().Now
	return s.clients.Calendar.ListEvents(ctx, capability.TimeRange{Start: now, End: now.Add(defaultQueryWindow)}, upcomingLimit)
}

func (s *Service) eventLabels(events []capability.Event) []string {
	labels := make([]string, 0, len(events))
	for _, ev := range events {
		labels = append(labels, fmt.Sprintf("%s (%s)", ev.Summary, s.formatWhen(&ev)))
	}
	return labels
}

func (s *Service) formatWhen(ev *capability.Event) string {
	start := ev.Start.In(s.loc())
	if ev.AllDay {
		return start.Format("Mon, Jan 2")
	}
	return start.Format("Mon, Jan 2 at 3:04 PM")
}

func (s *Service) formatTime(ev capability.Event) string {
	if ev.AllDay {
		return "All day"
	}
	return ev.Start.In(s.loc()).Format("3:04 PM") + " - " + ev.End.In(s.loc()).Format("3:04 PM")
}
