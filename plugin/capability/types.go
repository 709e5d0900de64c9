package capability

import "time"

// TimeRange is a half-open interval [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Event is a calendar event.
type Event struct {
	ID          string    `json:"id"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	AllDay      bool      `json:"all_day,omitempty"`
	HTMLLink    string    `json:"html_link,omitempty"`
	MeetLink    string    `json:"meet_link,omitempty"`
	Attendees   []string  `json:"attendees,omitempty"`
}

// EventSpec describes an event to create.
type EventSpec struct {
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	Recurrence  []string
	Attendees   []string
	// AddMeet requests a Google Meet conference on the event.
	AddMeet bool
}

// EventChanges is a partial update. Nil fields are left unchanged.
type EventChanges struct {
	Summary      *string
	Description  *string
	Location     *string
	Start        *time.Time
	End          *time.Time
	AddMeetLink  bool
	AddAttendees []string
}

// Email is a message header as listed.
type Email struct {
	ID       string    `json:"id"`
	ThreadID string    `json:"thread_id,omitempty"`
	From     string    `json:"from"`
	To       string    `json:"to,omitempty"`
	Subject  string    `json:"subject"`
	Snippet  string    `json:"snippet,omitempty"`
	Date     time.Time `json:"date"`
	Unread   bool      `json:"unread,omitempty"`
}

// EmailContent is a full message.
type EmailContent struct {
	Email
	Body string `json:"body"`
}

// OutgoingEmail is a message to send. To may list several comma-separated
// addresses.
type OutgoingEmail struct {
	From    string
	To      string
	Subject string
	Body    string
}

// File is a Drive file.
type File struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	MimeType     string    `json:"mime_type"`
	WebViewLink  string    `json:"web_view_link"`
	ModifiedTime time.Time `json:"modified_time"`
	Owners       []string  `json:"owners,omitempty"`
}

// FileContent is a file and its text, if it has any.
type FileContent struct {
	File
	Content string `json:"content,omitempty"`
}

// Document is a Google Doc.
type Document struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Sharing roles.
const (
	RoleReader    = "reader"
	RoleWriter    = "writer"
	RoleCommenter = "commenter"
)

// MeetingSpec describes a Meet to create.
type MeetingSpec struct {
	Title       string
	Start       time.Time
	End         time.Time
	Attendees   []string
	Description string
}

// Meeting is a calendar event carrying a Meet conference.
type Meeting struct {
	ID          string    `json:"id"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	MeetLink    string    `json:"meet_link"`
	HTMLLink    string    `json:"html_link,omitempty"`
	Attendees   []string  `json:"attendees,omitempty"`
}

// SearchType selects Spotify result kinds.
type SearchType string

const (
	SearchTrack    SearchType = "track"
	SearchArtist   SearchType = "artist"
	SearchAlbum    SearchType = "album"
	SearchPlaylist SearchType = "playlist"
)

// Track is a Spotify track.
type Track struct {
	Name    string   `json:"name"`
	URI     string   `json:"uri"`
	Artists []string `json:"artists"`
	Album   string   `json:"album,omitempty"`
}

// Artist is a Spotify artist.
type Artist struct {
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// Album is a Spotify album.
type Album struct {
	Name    string   `json:"name"`
	URI     string   `json:"uri"`
	Artists []string `json:"artists"`
}

// Playlist is a Spotify playlist.
type Playlist struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	URI    string `json:"uri"`
	Tracks int    `json:"tracks"`
}

// SearchResults groups Spotify search hits by kind.
type SearchResults struct {
	Tracks    []Track    `json:"tracks,omitempty"`
	Artists   []Artist   `json:"artists,omitempty"`
	Albums    []Album    `json:"albums,omitempty"`
	Playlists []Playlist `json:"playlists,omitempty"`
}

// Device is a Spotify Connect device.
type Device struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Active bool   `json:"active"`
}

// Playback is the current player state.
type Playback struct {
	Playing bool   `json:"playing"`
	Track   *Track `json:"track,omitempty"`
	Device  string `json:"device,omitempty"`
}
