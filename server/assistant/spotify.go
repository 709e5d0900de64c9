package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/hrygo/rift/plugin/ai/extract"
	"github.com/hrygo/rift/plugin/ai/session"
	"github.com/hrygo/rift/plugin/capability"
)

const (
	musicSearchLimit  = 5
	musicGroupLimit   = 3
	playlistListLimit = 10
	playlistFindLimit = 50
)

const msgPlaylistHelp = `I can help with your Spotify playlists:
- "show my playlists" lists them
- "create a playlist called Road Trip" makes a new one
- "play my Focus playlist" starts one`

func (s *Service) play(ctx context.Context, t *turn) (*Result, error) {
	query := extract.PlayQuery(t.prompt)
	if query == "" {
		if err := s.clients.Music.Resume(ctx); err != nil {
			return nil, failed("Error playing music", err)
		}
		return &Result{Type: TypeSpotifyPlayback, Success: true, Response: "Resumed Spotify playback."}, nil
	}

	res, err := s.clients.Music.Search(ctx, query, []capability.SearchType{capability.SearchTrack}, 1)
	if err != nil {
		return nil, failed("Error playing music", err)
	}
	if len(res.Tracks) == 0 {
		return errorResult(fmt.Sprintf("No tracks found matching %q.", query)), nil
	}
	track := res.Tracks[0]
	if err := s.clients.Music.Play(ctx, track.URI); err != nil {
		return nil, failed("Error playing music", err)
	}
	return &Result{
		Type:     TypeSpotifyPlayback,
		Success:  true,
		Response: fmt.Sprintf("Now playing: %q by %s", track.Name, artistList(track.Artists)),
		Result:   track,
	}, nil
}

func (s *Service) searchMusic(ctx context.Context, t *turn) (*Result, error) {
	query := extract.SearchQuery(t.prompt)
	if query == "" {
		return chatResult("What would you like to search for on Spotify?"), nil
	}
	types := []capability.SearchType{capability.SearchTrack, capability.SearchArtist, capability.SearchAlbum}
	res, err := s.clients.Music.Search(ctx, query, types, musicSearchLimit)
	if err != nil {
		return nil, failed("Error searching Spotify", err)
	}
	if len(res.Tracks) == 0 && len(res.Artists) == 0 && len(res.Albums) == 0 {
		return &Result{Type: TypeSpotifySearch, Response: fmt.Sprintf("No results found on Spotify for %q.", query)}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Spotify results for %q:", query)
	if len(res.Tracks) > 0 {
		b.WriteString("\n\nTracks:")
		for i, tr := range res.Tracks {
			if i == musicSearchLimit {
				break
			}
			fmt.Fprintf(&b, "\n%d. %s by %s", i+1, tr.Name, artistList(tr.Artists))
		}
	}
	if len(res.Artists) > 0 {
		b.WriteString("\n\nArtists:")
		for i, a := range res.Artists {
			if i == musicGroupLimit {
				break
			}
			fmt.Fprintf(&b, "\n%d. %s", i+1, a.Name)
		}
	}
	if len(res.Albums) > 0 {
		b.WriteString("\n\nAlbums:")
		for i, a := range res.Albums {
			if i == musicGroupLimit {
				break
			}
			fmt.Fprintf(&b, "\n%d. %s by %s", i+1, a.Name, artistList(a.Artists))
		}
	}
	return &Result{Type: TypeSpotifySearch, Success: true, Response: b.String(), Result: res}, nil
}

func (s *Service) control(ctx context.Context, t *turn) (*Result, error) {
	music := s.clients.Music
	var (
		err error
		msg string
	)
	switch extract.ControlAction(t.prompt) {
	case extract.ActionStatus:
		return s.playbackStatus(ctx)
	case extract.ActionPause:
		err, msg = music.Pause(ctx), "Paused Spotify playback."
	case extract.ActionResume:
		err, msg = music.Resume(ctx), "Resumed Spotify playback."
	case extract.ActionNext:
		err, msg = music.Next(ctx), "Skipped to the next track."
	case extract.ActionPrevious:
		err, msg = music.Previous(ctx), "Went back to the previous track."
	}
	if err != nil {
		return nil, failed("Error controlling playback", err)
	}
	return &Result{Type: TypeSpotifyPlayback, Success: true, Response: msg}, nil
}

func (s *Service) playbackStatus(ctx context.Context) (*Result, error) {
	pb, err := s.clients.Music.Playback(ctx)
	if err != nil {
		return nil, failed("Error getting playback status", err)
	}
	if pb == nil || pb.Track == nil {
		return &Result{Type: TypeSpotifyStatus, Response: "Nothing is playing on Spotify right now."}, nil
	}
	state := "Paused"
	if pb.Playing {
		state = "Now playing"
	}
	resp := fmt.Sprintf("%s: %q by %s", state, pb.Track.Name, artistList(pb.Track.Artists))
	if pb.Device != "" {
		resp += " on " + pb.Device
	}
	return &Result{Type: TypeSpotifyStatus, Success: true, Response: resp, Result: pb}, nil
}

func (s *Service) playlist(ctx context.Context, t *turn) (*Result, error) {
	req := extract.Playlist(t.prompt, s.x.Env().Now)
	switch req.Op {
	case extract.PlaylistCreate:
		pl, err := s.clients.Music.CreatePlaylist(ctx, req.Name, "")
		if err != nil {
			return nil, failed("Error with playlist operation", err)
		}
		return &Result{
			Type:     TypeSpotifyPlaylist,
			Success:  true,
			Response: fmt.Sprintf("Created playlist %q.", pl.Name),
			Result:   pl,
		}, nil

	case extract.PlaylistList:
		return s.listPlaylists(ctx, t)

	case extract.PlaylistPlay:
		lists, err := s.clients.Music.Playlists(ctx, playlistFindLimit)
		if err != nil {
			return nil, failed("Error with playlist operation", err)
		}
		idx, ok := extract.PlaylistChoice(req.Name, playlistNames(lists))
		if !ok {
			return errorResult(fmt.Sprintf("I couldn't find a playlist called %q.", req.Name)), nil
		}
		return s.playPlaylist(ctx, playlistItems(lists)[idx])
	}
	return &Result{Type: TypeSpotifyPlaylist, Response: msgPlaylistHelp}, nil
}

func (s *Service) listPlaylists(ctx context.Context, t *turn) (*Result, error) {
	lists, err := s.clients.Music.Playlists(ctx, playlistListLimit)
	if err != nil {
		return nil, failed("Error with playlist operation", err)
	}
	if len(lists) == 0 {
		return &Result{Type: TypeSpotifyPlaylists, Response: `You don't have any playlists yet. Say "create a playlist called ..." to make one.`}, nil
	}
	items := playlistItems(lists)
	t.state.SetResults(session.KindPlaylists, "", items)

	var b strings.Builder
	b.WriteString("Here are your Spotify playlists:\n")
	for i, pl := range lists {
		fmt.Fprintf(&b, "\n%d. %s (%d tracks)", i+1, pl.Name, pl.Tracks)
	}
	b.WriteString("\n\nSay the number or name of a playlist to play it.")
	return &Result{
		Type:         TypeSpotifyPlaylists,
		Success:      true,
		Response:     b.String(),
		Result:       lists,
		Items:        items,
		FollowUpMode: true,
		FollowUpType: session.ModePlaylistSelection,
	}, nil
}

// choosePlaylist answers a playlist listing. Replies that name no playlist
// fall through to the next stage.
func (s *Service) choosePlaylist(ctx context.Context, t *turn) (*Result, error) {
	res := t.state.Results()
	if res == nil || res.Kind != session.KindPlaylists {
		return nil, nil
	}
	names := make([]string, 0, len(res.Items))
	for _, it := range res.Items {
		names = append(names, it.Title)
	}
	idx, ok := extract.PlaylistChoice(t.prompt, names)
	if !ok {
		return nil, nil
	}
	return s.playPlaylist(ctx, res.Items[idx])
}

func (s *Service) playPlaylist(ctx context.Context, item session.Item) (*Result, error) {
	if err := s.clients.Music.Play(ctx, item.URI); err != nil {
		return nil, failed("Error with playlist operation", err)
	}
	return &Result{
		Type:     TypeSpotifyPlayback,
		Success:  true,
		Response: fmt.Sprintf("Now playing your playlist %q.", item.Title),
		Result:   item,
	}, nil
}

func playlistItems(lists []capability.Playlist) []session.Item {
	items := make([]session.Item, 0, len(lists))
	for _, pl := range lists {
		items = append(items, session.Item{
			ID:       pl.ID,
			Title:    pl.Name,
			Subtitle: fmt.Sprintf("%d tracks", pl.Tracks),
			URI:      pl.URI,
		})
	}
	return items
}

func playlistNames(lists []capability.Playlist) []string {
	names := make([]string, 0, len(lists))
	for _, pl := range lists {
		names = append(names, pl.Name)
	}
	return names
}

func artistList(artists []string) string {
	if len(artists) == 0 {
		return "Unknown artist"
	}
	return strings.Join(artists, ", ")
}
