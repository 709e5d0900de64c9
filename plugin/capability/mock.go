package capability

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// The mocks below are in-memory providers for tests. Setting Err makes every
// call fail with it.

// MockCalendar is an in-memory Calendar.
type MockCalendar struct {
	mu sync.Mutex

	Err     error
	Events  []Event
	Created []EventSpec
	Deleted []string
	Ranges  []TimeRange
}

func (m *MockCalendar) ListEvents(_ context.Context, r TimeRange, max int) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Ranges = append(m.Ranges, r)
	if m.Err != nil {
		return nil, m.Err
	}
	var out []Event
	for _, ev := range m.Events {
		if ev.End.After(r.Start) && ev.Start.Before(r.End) {
			out = append(out, ev)
		}
	}
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out, nil
}

func (m *MockCalendar) CreateEvent(_ context.Context, spec EventSpec) (*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	m.Created = append(m.Created, spec)
	ev := Event{
		ID:          fmt.Sprintf("evt-%d", len(m.Events)+1),
		Summary:     spec.Summary,
		Description: spec.Description,
		Location:    spec.Location,
		Start:       spec.Start,
		End:         spec.End,
		Attendees:   spec.Attendees,
	}
	ev.HTMLLink = "https://calendar.google.com/event?eid=" + ev.ID
	if spec.AddMeet {
		ev.MeetLink = "https://meet.google.com/" + ev.ID
	}
	m.Events = append(m.Events, ev)
	return &ev, nil
}

func (m *MockCalendar) DeleteEvent(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for i, ev := range m.Events {
		if ev.ID == id {
			m.Events = append(m.Events[:i], m.Events[i+1:]...)
			m.Deleted = append(m.Deleted, id)
			return nil
		}
	}
	return fmt.Errorf("event %s: %w", id, ErrNotFound)
}

func (m *MockCalendar) PatchEvent(_ context.Context, id string, ch EventChanges) (*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for i := range m.Events {
		ev := &m.Events[i]
		if ev.ID != id {
			continue
		}
		if ch.Summary != nil {
			ev.Summary = *ch.Summary
		}
		if ch.Description != nil {
			ev.Description = *ch.Description
		}
		if ch.Location != nil {
			ev.Location = *ch.Location
		}
		if ch.Start != nil {
			ev.Start = *ch.Start
		}
		if ch.End != nil {
			ev.End = *ch.End
		}
		if ch.AddMeetLink && ev.MeetLink == "" {
			ev.MeetLink = "https://meet.google.com/" + ev.ID
		}
		ev.Attendees = append(ev.Attendees, ch.AddAttendees...)
		out := *ev
		return &out, nil
	}
	return nil, fmt.Errorf("event %s: %w", id, ErrNotFound)
}

// MockMail is an in-memory Mail.
type MockMail struct {
	mu sync.Mutex

	Err     error
	Address string
	Inbox   []EmailContent
	Sent    []OutgoingEmail
	Queries []string
}

func (m *MockMail) UserEmail(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	return m.Address, nil
}

func (m *MockMail) ListUnread(_ context.Context, max int) ([]Email, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queries = append(m.Queries, fmt.Sprintf("is:unread max:%d", max))
	if m.Err != nil {
		return nil, m.Err
	}
	var out []Email
	for _, e := range m.Inbox {
		if e.Unread && len(out) < max {
			out = append(out, e.Email)
		}
	}
	return out, nil
}

func (m *MockMail) Search(_ context.Context, query string, max int) ([]Email, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queries = append(m.Queries, query)
	if m.Err != nil {
		return nil, m.Err
	}
	var out []Email
	for _, e := range m.Inbox {
		if len(out) < max {
			out = append(out, e.Email)
		}
	}
	return out, nil
}

func (m *MockMail) GetContent(_ context.Context, id string) (*EmailContent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, e := range m.Inbox {
		if e.ID == id {
			out := e
			return &out, nil
		}
	}
	return nil, fmt.Errorf("message %s: %w", id, ErrNotFound)
}

func (m *MockMail) Send(_ context.Context, msg OutgoingEmail) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	m.Sent = append(m.Sent, msg)
	return fmt.Sprintf("msg-%d", len(m.Sent)), nil
}

// Share records one Share call.
type Share struct {
	ID    string
	Email string
	Role  string
}

// MockDrive is an in-memory Drive. Search matches names case-insensitively.
type MockDrive struct {
	mu sync.Mutex

	Err    error
	Files  []FileContent
	Shares []Share
}

func (m *MockDrive) Search(_ context.Context, query, mimeType string, max int) ([]File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return searchFiles(m.Files, query, mimeType, max), nil
}

func (m *MockDrive) GetContent(_ context.Context, id string) (*FileContent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, f := range m.Files {
		if f.ID == id {
			out := f
			return &out, nil
		}
	}
	return nil, fmt.Errorf("file %s: %w", id, ErrNotFound)
}

func (m *MockDrive) Share(_ context.Context, id, email, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Shares = append(m.Shares, Share{ID: id, Email: email, Role: role})
	return nil
}

func searchFiles(files []FileContent, query, mimeType string, max int) []File {
	q := strings.ToLower(query)
	var out []File
	for _, f := range files {
		if mimeType != "" && f.MimeType != mimeType {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(f.Name), q) {
			continue
		}
		if max > 0 && len(out) >= max {
			break
		}
		out = append(out, f.File)
	}
	return out
}

// MockDocs is an in-memory Docs.
type MockDocs struct {
	mu sync.Mutex

	Err      error
	Files    []FileContent
	Created  []Document
	Appended map[string][]string
	Shares   []Share
}

func (m *MockDocs) Create(_ context.Context, title, content string) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	id := fmt.Sprintf("doc-%d", len(m.Created)+1)
	doc := Document{ID: id, Title: title, URL: "https://docs.google.com/document/d/" + id + "/edit"}
	m.Created = append(m.Created, doc)
	m.Files = append(m.Files, FileContent{
		File:    File{ID: id, Name: title, MimeType: "application/vnd.google-apps.document", WebViewLink: doc.URL},
		Content: content,
	})
	return &doc, nil
}

func (m *MockDocs) Append(_ context.Context, id, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if m.Appended == nil {
		m.Appended = make(map[string][]string)
	}
	m.Appended[id] = append(m.Appended[id], text)
	return nil
}

func (m *MockDocs) Search(_ context.Context, query string, max int) ([]File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return searchFiles(m.Files, query, "", max), nil
}

func (m *MockDocs) Share(_ context.Context, id, email, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Shares = append(m.Shares, Share{ID: id, Email: email, Role: role})
	return nil
}

// MockMeet is an in-memory Meet.
type MockMeet struct {
	mu sync.Mutex

	Err      error
	Meetings []Meeting
}

func (m *MockMeet) Create(_ context.Context, spec MeetingSpec) (*Meeting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	id := fmt.Sprintf("meet-%d", len(m.Meetings)+1)
	mt := Meeting{
		ID:          id,
		Summary:     spec.Title,
		Description: spec.Description,
		Start:       spec.Start,
		End:         spec.End,
		MeetLink:    "https://meet.google.com/" + id,
		Attendees:   spec.Attendees,
	}
	m.Meetings = append(m.Meetings, mt)
	return &mt, nil
}

func (m *MockMeet) Get(_ context.Context, id string) (*Meeting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, mt := range m.Meetings {
		if mt.ID == id {
			out := mt
			return &out, nil
		}
	}
	return nil, fmt.Errorf("meeting %s: %w", id, ErrNotFound)
}

func (m *MockMeet) AddAttendees(_ context.Context, id string, emails []string) (*Meeting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for i := range m.Meetings {
		if m.Meetings[i].ID == id {
			m.Meetings[i].Attendees = append(m.Meetings[i].Attendees, emails...)
			out := m.Meetings[i]
			return &out, nil
		}
	}
	return nil, fmt.Errorf("meeting %s: %w", id, ErrNotFound)
}

// MockMusic is an in-memory Music. Playback commands fail with
// ErrNoActiveDevice unless HasDevice is set.
type MockMusic struct {
	mu sync.Mutex

	Err       error
	HasDevice bool
	Results   SearchResults
	Lists     []Playlist
	Current   *Playback
	Played    []string
	Commands  []string
	Queries   []string
}

func (m *MockMusic) Search(_ context.Context, query string, _ []SearchType, _ int) (*SearchResults, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queries = append(m.Queries, query)
	if m.Err != nil {
		return nil, m.Err
	}
	out := m.Results
	return &out, nil
}

func (m *MockMusic) command(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if !m.HasDevice {
		return fmt.Errorf("spotify %s: %w", name, ErrNoActiveDevice)
	}
	m.Commands = append(m.Commands, name)
	return nil
}

func (m *MockMusic) Play(_ context.Context, uri string) error {
	if err := m.command("play"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Played = append(m.Played, uri)
	return nil
}

func (m *MockMusic) Pause(context.Context) error    { return m.command("pause") }
func (m *MockMusic) Resume(context.Context) error   { return m.command("resume") }
func (m *MockMusic) Next(context.Context) error     { return m.command("next") }
func (m *MockMusic) Previous(context.Context) error { return m.command("previous") }

func (m *MockMusic) Devices(context.Context) ([]Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if !m.HasDevice {
		return nil, nil
	}
	return []Device{{ID: "dev-1", Name: "Laptop", Type: "Computer", Active: true}}, nil
}

func (m *MockMusic) Playback(context.Context) (*Playback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Current, nil
}

func (m *MockMusic) CreatePlaylist(_ context.Context, name, _ string) (*Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	id := fmt.Sprintf("pl-%d", len(m.Lists)+1)
	pl := Playlist{ID: id, Name: name, URI: "spotify:playlist:" + id}
	m.Lists = append(m.Lists, pl)
	return &pl, nil
}

func (m *MockMusic) Playlists(_ context.Context, limit int) ([]Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := append([]Playlist(nil), m.Lists...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MockContacts resolves names from Book (lower-case name to address).
type MockContacts struct {
	Err  error
	Book map[string]string
}

func (m *MockContacts) ResolveEmail(_ context.Context, name string) (string, error) {
	if strings.Contains(name, "@") {
		return name, nil
	}
	if m.Err != nil {
		return "", m.Err
	}
	if addr, ok := m.Book[strings.ToLower(strings.TrimSpace(name))]; ok {
		return addr, nil
	}
	return "", fmt.Errorf("contact %q: %w", name, ErrNotFound)
}

// NewMockClients returns a Clients backed by empty mocks.
func NewMockClients() (*Clients, *Mocks) {
	ms := &Mocks{
		Calendar: &MockCalendar{},
		Mail:     &MockMail{Address: "me@example.com"},
		Drive:    &MockDrive{},
		Docs:     &MockDocs{},
		Meet:     &MockMeet{},
		Music:    &MockMusic{HasDevice: true},
		Contacts: &MockContacts{Book: map[string]string{}},
	}
	return &Clients{
		Calendar: ms.Calendar,
		Mail:     ms.Mail,
		Drive:    ms.Drive,
		Docs:     ms.Docs,
		Meet:     ms.Meet,
		Music:    ms.Music,
		Contacts: ms.Contacts,
	}, ms
}

// Mocks gives tests typed access to the mocks behind NewMockClients.
type Mocks struct {
	Calendar *MockCalendar
	Mail     *MockMail
	Drive    *MockDrive
	Docs     *MockDocs
	Meet     *MockMeet
	Music    *MockMusic
	Contacts *MockContacts
}

// Ensure mocks implement their interfaces
var (
	_ Calendar = (*MockCalendar)(nil)
	_ Mail     = (*MockMail)(nil)
	_ Drive    = (*MockDrive)(nil)
	_ Docs     = (*MockDocs)(nil)
	_ Meet     = (*MockMeet)(nil)
	_ Music    = (*MockMusic)(nil)
	_ Contacts = (*MockContacts)(nil)
)
