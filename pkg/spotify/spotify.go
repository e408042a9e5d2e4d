// Package spotify wraps the slice of the Spotify Web API used as a
// migration source: playlists, playlist tracks, saved tracks, and
// playlist cover art.
package spotify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/oauth2"

	"github.com/crosstune/crosstune/pkg/httpx"
	"github.com/crosstune/crosstune/pkg/types"
)

// ProviderName is the token store namespace for this provider.
const ProviderName = "spotify"

const apiBaseURL = "https://api.spotify.com/v1"

// Endpoint is the Spotify OAuth 2.0 endpoint. The authorization code
// flow with PKCE is used so no client secret needs to ship with the
// binary.
var Endpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.spotify.com/authorize",
	TokenURL: "https://accounts.spotify.com/api/token",
}

// Scopes required by the library operations.
var Scopes = []string{
	"playlist-read-private",
	"playlist-read-collaborative",
	"user-library-read",
}

// OAuthConfig builds the oauth2 configuration for the authorization
// code + PKCE flow.
func OAuthConfig(clientID, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:    clientID,
		RedirectURL: redirectURL,
		Endpoint:    Endpoint,
		Scopes:      Scopes,
	}
}

// Client exposes the read side of a user's Spotify library.
type Client struct {
	api *httpx.Client
	// Downloader fetches cover images. It defaults to a client with
	// the shared timeout and carries no credentials since cover URLs
	// are public CDN links.
	Downloader *http.Client
}

// New returns a Client that authenticates every call with the given
// token source.
func New(tokens oauth2.TokenSource) *Client {
	return &Client{
		api: &httpx.Client{
			Provider: ProviderName,
			BaseURL:  apiBaseURL,
			Tokens:   tokens,
			Style:    httpx.AuthHeader,
		},
		Downloader: &http.Client{Timeout: httpx.DefaultTimeout},
	}
}

type pagingEnvelope struct {
	Next string `json:"next"`
}

type playlistPage struct {
	pagingEnvelope
	Items []playlistObject `json:"items"`
}

type playlistObject struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Tracks      struct {
		Total int `json:"total"`
	} `json:"tracks"`
	Owner struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
	} `json:"owner"`
	Images []imageObject `json:"images"`
}

type imageObject struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type trackPage struct {
	pagingEnvelope
	Items []struct {
		AddedAt string       `json:"added_at"`
		Track   *trackObject `json:"track"`
	} `json:"items"`
}

type trackObject struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	DurationMS int    `json:"duration_ms"`
	IsLocal    bool   `json:"is_local"`
	Album      struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"album"`
	Artists []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"artists"`
}

func (t *trackObject) toTrack(addedAt string) types.Track {
	track := types.Track{
		ID:          t.ID,
		Title:       t.Name,
		DurationSec: t.DurationMS / 1000,
		Album:       types.Album{ID: t.Album.ID, Title: t.Album.Name},
		AddedAt:     addedAt,
		IsLocal:     t.IsLocal,
	}
	for _, a := range t.Artists {
		track.Artists = append(track.Artists, types.Artist{ID: a.ID, Name: a.Name})
	}
	return track
}

// MyPlaylists lists every playlist in the user's library, following
// pagination until the API reports no next page.
func (c *Client) MyPlaylists(ctx context.Context) ([]types.Playlist, error) {
	var playlists []types.Playlist
	path := "/me/playlists"
	query := url.Values{"limit": {"50"}}
	for path != "" {
		var page playlistPage
		if err := c.api.Get(ctx, path, query, &page); err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			playlists = append(playlists, types.Playlist{
				ID:          item.ID,
				Title:       item.Name,
				Description: item.Description,
				TrackCount:  item.Tracks.Total,
				Owner:       item.Owner.DisplayName,
			})
		}
		path, query = page.Next, nil
	}
	return playlists, nil
}

// trackFields trims the playlist track payload to what the migration
// actually reads.
const trackFields = "next,items(added_at,track(id,name,duration_ms,is_local,album(id,name),artists(id,name)))"

// PlaylistTracks lists the tracks of a playlist in playlist order.
// Entries whose track object is null, which the API uses for removed
// or unavailable content, are skipped.
func (c *Client) PlaylistTracks(ctx context.Context, playlistID string) ([]types.Track, error) {
	var tracks []types.Track
	path := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	query := url.Values{"limit": {"100"}, "fields": {trackFields}}
	for path != "" {
		var page trackPage
		if err := c.api.Get(ctx, path, query, &page); err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			if item.Track == nil {
				continue
			}
			tracks = append(tracks, item.Track.toTrack(item.AddedAt))
		}
		path, query = page.Next, nil
	}
	return tracks, nil
}

// SavedTracks lists the user's liked songs, most recently saved first,
// which is the order the API returns them in.
func (c *Client) SavedTracks(ctx context.Context) ([]types.Track, error) {
	var tracks []types.Track
	path := "/me/tracks"
	query := url.Values{"limit": {"50"}}
	for path != "" {
		var page trackPage
		if err := c.api.Get(ctx, path, query, &page); err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			if item.Track == nil {
				continue
			}
			tracks = append(tracks, item.Track.toTrack(item.AddedAt))
		}
		path, query = page.Next, nil
	}
	return tracks, nil
}

// BestPlaylistImageURL returns the URL of the largest cover image of a
// playlist, or empty when the playlist has no cover.
func (c *Client) BestPlaylistImageURL(ctx context.Context, playlistID string) (string, error) {
	var out struct {
		Images []imageObject `json:"images"`
	}
	path := fmt.Sprintf("/playlists/%s", url.PathEscape(playlistID))
	if err := c.api.Get(ctx, path, url.Values{"fields": {"images"}}, &out); err != nil {
		return "", err
	}
	best := ""
	bestArea := -1
	for _, img := range out.Images {
		area := img.Width * img.Height
		if area > bestArea {
			best, bestArea = img.URL, area
		}
	}
	return best, nil
}

// DownloadImage fetches the raw bytes of a cover image URL.
func (c *Client) DownloadImage(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.Downloader.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download cover: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &httpx.APIError{
			Provider: ProviderName,
			Status:   resp.StatusCode,
			Detail:   "cover download failed with status " + strconv.Itoa(resp.StatusCode),
		}
	}
	return io.ReadAll(resp.Body)
}
