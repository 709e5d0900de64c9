// Package spotify implements the music capability on the Spotify Web API.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/hrygo/rift/plugin/capability"
)

// Scopes are requested on the consent page.
var Scopes = []string{
	spotifyauth.ScopeUserReadPlaybackState,
	spotifyauth.ScopeUserModifyPlaybackState,
	spotifyauth.ScopeUserReadCurrentlyPlaying,
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistModifyPrivate,
	spotifyauth.ScopePlaylistModifyPublic,
}

// NewOAuthConfig returns the Spotify OAuth2 client configuration.
func NewOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyauth.AuthURL,
			TokenURL: spotifyauth.TokenURL,
		},
	}
}

// Client implements capability.Music.
type Client struct {
	api *spotify.Client
}

// Ensure Client implements capability.Music
var _ capability.Music = (*Client)(nil)

// NewClient creates a client over httpClient, which must attach the user's
// token. opts are passed to the Spotify library (tests set a base URL).
func NewClient(httpClient *http.Client, opts ...spotify.ClientOption) *Client {
	return &Client{api: spotify.New(httpClient, opts...)}
}

func (c *Client) Search(ctx context.Context, query string, types []capability.SearchType, limit int) (_ *capability.SearchResults, err error) {
	defer observe("search")(&err)

	var st spotify.SearchType
	for _, t := range types {
		switch t {
		case capability.SearchTrack:
			st |= spotify.SearchTypeTrack
		case capability.SearchArtist:
			st |= spotify.SearchTypeArtist
		case capability.SearchAlbum:
			st |= spotify.SearchTypeAlbum
		case capability.SearchPlaylist:
			st |= spotify.SearchTypePlaylist
		}
	}
	if st == 0 {
		st = spotify.SearchTypeTrack
	}
	if limit <= 0 {
		limit = 5
	}

	res, err := c.api.Search(ctx, query, st, spotify.Limit(limit))
	if err != nil {
		return nil, wrapErr("search", err)
	}

	out := &capability.SearchResults{}
	if res.Tracks != nil {
		for _, t := range res.Tracks.Tracks {
			out.Tracks = append(out.Tracks, toTrack(t))
		}
	}
	if res.Artists != nil {
		for _, a := range res.Artists.Artists {
			out.Artists = append(out.Artists, capability.Artist{Name: a.Name, URI: string(a.URI)})
		}
	}
	if res.Albums != nil {
		for _, a := range res.Albums.Albums {
			out.Albums = append(out.Albums, capability.Album{Name: a.Name, URI: string(a.URI), Artists: artistNames(a.Artists)})
		}
	}
	if res.Playlists != nil {
		for _, p := range res.Playlists.Playlists {
			out.Playlists = append(out.Playlists, toPlaylist(p))
		}
	}
	return out, nil
}

// Play starts uri on the active device. Track URIs play as a queue of one;
// album and playlist URIs play as a context. An empty uri resumes.
func (c *Client) Play(ctx context.Context, uri string) (err error) {
	defer observe("play")(&err)

	if uri == "" {
		return wrapErr("play", c.api.Play(ctx))
	}
	opts := &spotify.PlayOptions{}
	u := spotify.URI(uri)
	if strings.Contains(uri, ":track:") {
		opts.URIs = []spotify.URI{u}
	} else {
		opts.PlaybackContext = &u
	}
	return wrapErr("play", c.api.PlayOpt(ctx, opts))
}

func (c *Client) Pause(ctx context.Context) (err error) {
	defer observe("pause")(&err)
	return wrapErr("pause", c.api.Pause(ctx))
}

func (c *Client) Resume(ctx context.Context) (err error) {
	defer observe("resume")(&err)
	return wrapErr("resume", c.api.Play(ctx))
}

func (c *Client) Next(ctx context.Context) (err error) {
	defer observe("next")(&err)
	return wrapErr("next", c.api.Next(ctx))
}

func (c *Client) Previous(ctx context.Context) (err error) {
	defer observe("previous")(&err)
	return wrapErr("previous", c.api.Previous(ctx))
}

func (c *Client) Devices(ctx context.Context) (_ []capability.Device, err error) {
	defer observe("devices")(&err)

	devices, err := c.api.PlayerDevices(ctx)
	if err != nil {
		return nil, wrapErr("devices", err)
	}
	out := make([]capability.Device, 0, len(devices))
	for _, d := range devices {
		out = append(out, capability.Device{ID: string(d.ID), Name: d.Name, Type: d.Type, Active: d.Active})
	}
	return out, nil
}

func (c *Client) Playback(ctx context.Context) (_ *capability.Playback, err error) {
	defer observe("playback")(&err)

	state, err := c.api.PlayerState(ctx)
	if err != nil {
		return nil, wrapErr("playback", err)
	}
	if state == nil || state.Item == nil {
		return nil, nil
	}
	track := toTrack(*state.Item)
	return &capability.Playback{Playing: state.Playing, Track: &track, Device: state.Device.Name}, nil
}

func (c *Client) CreatePlaylist(ctx context.Context, name, description string) (_ *capability.Playlist, err error) {
	defer observe("create-playlist")(&err)

	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		return nil, wrapErr("create-playlist", err)
	}
	pl, err := c.api.CreatePlaylistForUser(ctx, user.ID, name, description, false, false)
	if err != nil {
		return nil, wrapErr("create-playlist", err)
	}
	return &capability.Playlist{ID: string(pl.ID), Name: pl.Name, URI: string(pl.URI), Tracks: int(pl.Tracks.Total)}, nil
}

func (c *Client) Playlists(ctx context.Context, limit int) (_ []capability.Playlist, err error) {
	defer observe("playlists")(&err)

	if limit <= 0 {
		limit = 10
	}
	page, err := c.api.CurrentUsersPlaylists(ctx, spotify.Limit(limit))
	if err != nil {
		return nil, wrapErr("playlists", err)
	}
	out := make([]capability.Playlist, 0, len(page.Playlists))
	for _, p := range page.Playlists {
		out = append(out, toPlaylist(p))
	}
	return out, nil
}

func toTrack(t spotify.FullTrack) capability.Track {
	return capability.Track{Name: t.Name, URI: string(t.URI), Artists: artistNames(t.Artists), Album: t.Album.Name}
}

func toPlaylist(p spotify.SimplePlaylist) capability.Playlist {
	return capability.Playlist{ID: string(p.ID), Name: p.Name, URI: string(p.URI), Tracks: int(p.Tracks.Total)}
}

func artistNames(artists []spotify.SimpleArtist) []string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		names = append(names, a.Name)
	}
	return names
}

// wrapErr maps Spotify API errors: 401 needs a new sign-in, 404 on a player
// endpoint means no active device.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, capability.ErrAuthRequired) {
		return err
	}
	status, msg := 0, err.Error()
	var se spotify.Error
	var sp *spotify.Error
	switch {
	case errors.As(err, &se):
		status, msg = se.Status, se.Message
	case errors.As(err, &sp):
		status, msg = sp.Status, sp.Message
	}

	switch {
	case status == http.StatusUnauthorized:
		return capability.AuthRequired(capability.ProviderSpotify, err)
	case isPlayerOp(op) && (status == http.StatusNotFound || strings.Contains(strings.ToLower(msg), "no active device")):
		return fmt.Errorf("spotify %s: %w", op, capability.ErrNoActiveDevice)
	}
	return &capability.ProviderError{Service: "spotify", Op: op, Status: status, Err: err}
}

func isPlayerOp(op string) bool {
	switch op {
	case "play", "pause", "resume", "next", "previous":
		return true
	}
	return false
}

func observe(op string) func(err *error) {
	start := time.Now()
	return func(err *error) {
		if *err != nil {
			slog.Warn("spotify api call failed", "op", op, "error", *err, "latency_ms", time.Since(start).Milliseconds())
			return
		}
		slog.Debug("spotify api call", "op", op, "latency_ms", time.Since(start).Milliseconds())
	}
}
