// Package capability defines the provider clients the assistant calls:
// calendar, mail, drive, docs, meet, music and contacts. Every method returns
// an error wrapping ErrAuthRequired when the provider needs the user to sign
// in again.
package capability

import "context"

// Calendar manages calendar events.
type Calendar interface {
	ListEvents(ctx context.Context, r TimeRange, max int) ([]Event, error)
	CreateEvent(ctx context.Context, spec EventSpec) (*Event, error)
	DeleteEvent(ctx context.Context, id string) error
	PatchEvent(ctx context.Context, id string, changes EventChanges) (*Event, error)
}

// Mail reads and sends email.
type Mail interface {
	// UserEmail returns the authenticated user's own address.
	UserEmail(ctx context.Context) (string, error)
	ListUnread(ctx context.Context, max int) ([]Email, error)
	// Search runs a provider query such as "from:ana is:unread".
	Search(ctx context.Context, query string, max int) ([]Email, error)
	GetContent(ctx context.Context, id string) (*EmailContent, error)
	// Send delivers msg and returns the provider message id.
	Send(ctx context.Context, msg OutgoingEmail) (string, error)
}

// Drive searches and shares files.
type Drive interface {
	// Search matches file names. mimeType may be empty for any type.
	Search(ctx context.Context, query, mimeType string, max int) ([]File, error)
	GetContent(ctx context.Context, id string) (*FileContent, error)
	Share(ctx context.Context, id, email, role string) error
}

// Docs creates and edits documents.
type Docs interface {
	Create(ctx context.Context, title, content string) (*Document, error)
	// Append adds text at the end of the document body.
	Append(ctx context.Context, id, text string) error
	Search(ctx context.Context, query string, max int) ([]File, error)
	Share(ctx context.Context, id, email, role string) error
}

// Meet creates video meetings.
type Meet interface {
	Create(ctx context.Context, spec MeetingSpec) (*Meeting, error)
	Get(ctx context.Context, id string) (*Meeting, error)
	AddAttendees(ctx context.Context, id string, emails []string) (*Meeting, error)
}

// Music controls Spotify playback. Play and the transport controls return an
// error wrapping ErrNoActiveDevice when there is nothing to play on.
type Music interface {
	Search(ctx context.Context, query string, types []SearchType, limit int) (*SearchResults, error)
	Play(ctx context.Context, uri string) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	Devices(ctx context.Context) ([]Device, error)
	// Playback returns nil when nothing is playing.
	Playback(ctx context.Context) (*Playback, error)
	CreatePlaylist(ctx context.Context, name, description string) (*Playlist, error)
	Playlists(ctx context.Context, limit int) ([]Playlist, error)
}

// Contacts resolves people to addresses.
type Contacts interface {
	// ResolveEmail returns name unchanged when it is already an address, and
	// an error wrapping ErrNotFound when no contact matches.
	ResolveEmail(ctx context.Context, name string) (string, error)
}

// Clients bundles every capability the assistant uses.
type Clients struct {
	Calendar Calendar
	Mail     Mail
	Drive    Drive
	Docs     Docs
	Meet     Meet
	Music    Music
	Contacts Contacts
}
