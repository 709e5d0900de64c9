package google

import (
	"context"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/calendar/v3"

	"github.com/hrygo/rift/plugin/capability"
)

const primaryCalendar = "primary"

// Calendar implements capability.Calendar on the user's primary calendar.
type Calendar struct {
	svc *calendar.Service
	loc *time.Location
}

// Ensure Calendar implements capability.Calendar
var _ capability.Calendar = (*Calendar)(nil)

func (c *Calendar) ListEvents(ctx context.Context, r capability.TimeRange, max int) (_ []capability.Event, err error) {
	defer observe("calendar", "list")(&err)

	call := c.svc.Events.List(primaryCalendar).
		TimeMin(r.Start.Format(time.RFC3339)).
		TimeMax(r.End.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx)
	if max > 0 {
		call = call.MaxResults(int64(max))
	}
	resp, err := call.Do()
	if err != nil {
		return nil, wrapErr("calendar", "list", err)
	}

	events := make([]capability.Event, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Status == "cancelled" {
			continue
		}
		events = append(events, c.toEvent(item))
	}
	return events, nil
}

func (c *Calendar) CreateEvent(ctx context.Context, spec capability.EventSpec) (_ *capability.Event, err error) {
	defer observe("calendar", "create")(&err)

	ev := &calendar.Event{
		Summary:     spec.Summary,
		Description: spec.Description,
		Location:    spec.Location,
		Start:       eventTime(spec.Start),
		End:         eventTime(spec.End),
		Recurrence:  spec.Recurrence,
		Attendees:   attendees(spec.Attendees),
	}
	call := c.svc.Events.Insert(primaryCalendar, ev).Context(ctx)
	if spec.AddMeet {
		ev.ConferenceData = meetRequest()
		call = call.ConferenceDataVersion(1)
	}
	if len(spec.Attendees) > 0 {
		call = call.SendUpdates("all")
	}

	created, err := call.Do()
	if err != nil {
		return nil, wrapErr("calendar", "create", err)
	}
	out := c.toEvent(created)
	return &out, nil
}

func (c *Calendar) DeleteEvent(ctx context.Context, id string) (err error) {
	defer observe("calendar", "delete")(&err)
	return wrapErr("calendar", "delete", c.svc.Events.Delete(primaryCalendar, id).Context(ctx).Do())
}

func (c *Calendar) PatchEvent(ctx context.Context, id string, changes capability.EventChanges) (_ *capability.Event, err error) {
	defer observe("calendar", "patch")(&err)

	patch := &calendar.Event{}
	if changes.Summary != nil {
		patch.Summary = *changes.Summary
	}
	if changes.Description != nil {
		patch.Description = *changes.Description
	}
	if changes.Location != nil {
		patch.Location = *changes.Location
	}
	if changes.Start != nil {
		patch.Start = eventTime(*changes.Start)
	}
	if changes.End != nil {
		patch.End = eventTime(*changes.End)
	}
	if len(changes.AddAttendees) > 0 {
		// Patch replaces the attendee list, so merge with the current one.
		current, err := c.svc.Events.Get(primaryCalendar, id).Context(ctx).Do()
		if err != nil {
			return nil, wrapErr("calendar", "patch", err)
		}
		patch.Attendees = mergeAttendees(current.Attendees, changes.AddAttendees)
	}

	call := c.svc.Events.Patch(primaryCalendar, id, patch).Context(ctx)
	if changes.AddMeetLink {
		patch.ConferenceData = meetRequest()
		call = call.ConferenceDataVersion(1)
	}
	if len(changes.AddAttendees) > 0 {
		call = call.SendUpdates("all")
	}

	updated, err := call.Do()
	if err != nil {
		return nil, wrapErr("calendar", "patch", err)
	}
	out := c.toEvent(updated)
	return &out, nil
}

func (c *Calendar) get(ctx context.Context, id string) (*capability.Event, error) {
	ev, err := c.svc.Events.Get(primaryCalendar, id).Context(ctx).Do()
	if err != nil {
		return nil, wrapErr("calendar", "get", err)
	}
	out := c.toEvent(ev)
	return &out, nil
}

func (c *Calendar) toEvent(ev *calendar.Event) capability.Event {
	out := capability.Event{
		ID:          ev.Id,
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		HTMLLink:    ev.HtmlLink,
		MeetLink:    meetLink(ev),
	}
	out.Start, out.AllDay = c.parseTime(ev.Start)
	out.End, _ = c.parseTime(ev.End)
	for _, a := range ev.Attendees {
		if a.Email != "" {
			out.Attendees = append(out.Attendees, a.Email)
		}
	}
	return out
}

// parseTime reads a timed or all-day boundary. All-day dates are midnight in
// the configured location.
func (c *Calendar) parseTime(t *calendar.EventDateTime) (time.Time, bool) {
	if t == nil {
		return time.Time{}, false
	}
	if t.DateTime != "" {
		if v, err := time.Parse(time.RFC3339, t.DateTime); err == nil {
			return v.In(c.loc), false
		}
	}
	if t.Date != "" {
		if v, err := time.ParseInLocation("2006-01-02", t.Date, c.loc); err == nil {
			return v, true
		}
	}
	return time.Time{}, false
}

func eventTime(t time.Time) *calendar.EventDateTime {
	edt := &calendar.EventDateTime{DateTime: t.Format(time.RFC3339)}
	if name := t.Location().String(); name != "Local" && name != "" {
		edt.TimeZone = name
	}
	return edt
}

func attendees(emails []string) []*calendar.EventAttendee {
	if len(emails) == 0 {
		return nil
	}
	out := make([]*calendar.EventAttendee, 0, len(emails))
	for _, e := range emails {
		out = append(out, &calendar.EventAttendee{Email: e})
	}
	return out
}

func mergeAttendees(current []*calendar.EventAttendee, add []string) []*calendar.EventAttendee {
	seen := make(map[string]bool, len(current))
	out := make([]*calendar.EventAttendee, 0, len(current)+len(add))
	for _, a := range current {
		seen[a.Email] = true
		out = append(out, a)
	}
	for _, e := range add {
		if !seen[e] {
			seen[e] = true
			out = append(out, &calendar.EventAttendee{Email: e})
		}
	}
	return out
}

func meetRequest() *calendar.ConferenceData {
	return &calendar.ConferenceData{
		CreateRequest: &calendar.CreateConferenceRequest{
			RequestId:             uuid.NewString(),
			ConferenceSolutionKey: &calendar.ConferenceSolutionKey{Type: "hangoutsMeet"},
		},
	}
}

func meetLink(ev *calendar.Event) string {
	if ev.HangoutLink != "" {
		return ev.HangoutLink
	}
	if ev.ConferenceData != nil {
		for _, ep := range ev.ConferenceData.EntryPoints {
			if ep.EntryPointType == "video" {
				return ep.Uri
			}
		}
	}
	return ""
}
