package google

import (
	"context"
	"errors"
	"fmt"

	"github.com/hrygo/rift/plugin/capability"
)

// Meet implements capability.Meet as calendar events with a Meet conference.
type Meet struct {
	cal *Calendar
}

// Ensure Meet implements capability.Meet
var _ capability.Meet = (*Meet)(nil)

func (m *Meet) Create(ctx context.Context, spec capability.MeetingSpec) (*capability.Meeting, error) {
	if spec.Start.IsZero() || spec.End.IsZero() {
		return nil, errors.New("meeting start and end are required")
	}
	ev, err := m.cal.CreateEvent(ctx, capability.EventSpec{
		Summary:     spec.Title,
		Description: spec.Description,
		Start:       spec.Start,
		End:         spec.End,
		Attendees:   spec.Attendees,
		AddMeet:     true,
	})
	if err != nil {
		return nil, err
	}
	return toMeeting(ev), nil
}

func (m *Meet) Get(ctx context.Context, id string) (*capability.Meeting, error) {
	ev, err := m.cal.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if ev.MeetLink == "" {
		return nil, fmt.Errorf("%w: event %s has no Meet link", capability.ErrNotFound, id)
	}
	return toMeeting(ev), nil
}

func (m *Meet) AddAttendees(ctx context.Context, id string, emails []string) (*capability.Meeting, error) {
	ev, err := m.cal.PatchEvent(ctx, id, capability.EventChanges{AddAttendees: emails})
	if err != nil {
		return nil, err
	}
	return toMeeting(ev), nil
}

func toMeeting(ev *capability.Event) *capability.Meeting {
	return &capability.Meeting{
		ID:          ev.ID,
		Summary:     ev.Summary,
		Description: ev.Description,
		Start:       ev.Start,
		End:         ev.End,
		MeetLink:    ev.MeetLink,
		HTMLLink:    ev.HTMLLink,
		Attendees:   ev.Attendees,
	}
}
