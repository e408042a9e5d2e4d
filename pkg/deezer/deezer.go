// Package deezer wraps the slice of the Deezer API used as a read-only
// migration source. Deezer never issues refresh tokens, so an expired
// token means the user re-runs the interactive authorization.
package deezer

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"golang.org/x/oauth2"

	"github.com/crosstune/crosstune/pkg/httpx"
	"github.com/crosstune/crosstune/pkg/types"
)

// ProviderName is the token store namespace for this provider.
const ProviderName = "deezer"

const apiBaseURL = "https://api.deezer.com"

// pageSize is the index/limit window used when paging lists.
const pageSize = 50

// Client exposes a user's Deezer library. The access token travels as
// a query parameter, which is the only style the API accepts.
type Client struct {
	api *httpx.Client
}

// New returns a Client that authenticates every call with the given
// token source.
func New(tokens oauth2.TokenSource) *Client {
	return &Client{
		api: &httpx.Client{
			Provider: ProviderName,
			BaseURL:  apiBaseURL,
			Tokens:   tokens,
			Style:    httpx.AuthQuery,
		},
	}
}

// User identifies the authenticated Deezer account.
type User struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country"`
}

// CurrentUser fetches the authenticated user's profile.
func (c *Client) CurrentUser(ctx context.Context) (User, error) {
	var u User
	if err := c.api.Get(ctx, "/user/me", nil, &u); err != nil {
		return User{}, fmt.Errorf("current user: %w", err)
	}
	return u, nil
}

type playlistList struct {
	Data []struct {
		ID       int64  `json:"id"`
		Title    string `json:"title"`
		NBTracks int    `json:"nb_tracks"`
		Creator  struct {
			Name string `json:"name"`
		} `json:"creator"`
	} `json:"data"`
	Total int `json:"total"`
}

// UserPlaylists lists every playlist in the user's library using
// index/limit paging.
func (c *Client) UserPlaylists(ctx context.Context) ([]types.Playlist, error) {
	var playlists []types.Playlist
	for index := 0; ; {
		var page playlistList
		query := url.Values{
			"index": {strconv.Itoa(index)},
			"limit": {strconv.Itoa(pageSize)},
		}
		if err := c.api.Get(ctx, "/user/me/playlists", query, &page); err != nil {
			return nil, err
		}
		for _, item := range page.Data {
			playlists = append(playlists, types.Playlist{
				ID:         strconv.FormatInt(item.ID, 10),
				Title:      item.Title,
				TrackCount: item.NBTracks,
				Owner:      item.Creator.Name,
			})
		}
		index += len(page.Data)
		if len(page.Data) == 0 || index >= page.Total {
			return playlists, nil
		}
	}
}

type historyList struct {
	Data []struct {
		ID       int64  `json:"id"`
		Title    string `json:"title"`
		Duration int    `json:"duration"`
		Artist   struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"artist"`
		Album struct {
			ID    int64  `json:"id"`
			Title string `json:"title"`
		} `json:"album"`
		Timestamp int64 `json:"timestamp"`
	} `json:"data"`
	Total int `json:"total"`
}

// ListeningHistory lists the user's recently played tracks, most
// recent first.
func (c *Client) ListeningHistory(ctx context.Context) ([]types.Track, error) {
	var tracks []types.Track
	for index := 0; ; {
		var page historyList
		query := url.Values{
			"index": {strconv.Itoa(index)},
			"limit": {strconv.Itoa(pageSize)},
		}
		if err := c.api.Get(ctx, "/user/me/history", query, &page); err != nil {
			return nil, err
		}
		for _, item := range page.Data {
			tracks = append(tracks, types.Track{
				ID:          strconv.FormatInt(item.ID, 10),
				Title:       item.Title,
				DurationSec: item.Duration,
				Album: types.Album{
					ID:    strconv.FormatInt(item.Album.ID, 10),
					Title: item.Album.Title,
				},
				Artists: []types.Artist{{
					ID:   strconv.FormatInt(item.Artist.ID, 10),
					Name: item.Artist.Name,
				}},
			})
		}
		index += len(page.Data)
		if len(page.Data) == 0 || index >= page.Total {
			return tracks, nil
		}
	}
}
