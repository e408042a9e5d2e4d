// Package tidal wraps the slice of the Tidal v1 API used as a
// migration destination: playlists, playlist tracks, favorites, and
// track search. Authentication uses the OAuth device flow and tokens
// live in the token store.
package tidal

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/oauth2"

	"github.com/crosstune/crosstune/pkg/httpx"
	"github.com/crosstune/crosstune/pkg/match"
	"github.com/crosstune/crosstune/pkg/types"
)

// ProviderName is the token store namespace for this provider.
const ProviderName = "tidal"

const apiBaseURL = "https://api.tidal.com/v1"

// addBatchSize caps the number of track ids per add request.
const addBatchSize = 100

// Client exposes a user's Tidal library. The user id and country code
// are resolved lazily from the session endpoint on first use.
type Client struct {
	api *httpx.Client

	mu          sync.Mutex
	userID      string
	countryCode string
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
	}
}

type sessionObject struct {
	UserID      int64  `json:"userId"`
	CountryCode string `json:"countryCode"`
}

// session resolves and caches the authenticated user id and country
// code.
func (c *Client) session(ctx context.Context) (userID, countryCode string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.userID != "" {
		return c.userID, c.countryCode, nil
	}
	var sess sessionObject
	if err := c.api.Get(ctx, "/sessions", nil, &sess); err != nil {
		return "", "", fmt.Errorf("resolve session: %w", err)
	}
	c.userID = strconv.FormatInt(sess.UserID, 10)
	c.countryCode = sess.CountryCode
	if c.countryCode == "" {
		c.countryCode = "US"
	}
	return c.userID, c.countryCode, nil
}

type pageEnvelope struct {
	Limit              int `json:"limit"`
	Offset             int `json:"offset"`
	TotalNumberOfItems int `json:"totalNumberOfItems"`
}

type playlistObject struct {
	UUID           string `json:"uuid"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	NumberOfTracks int    `json:"numberOfTracks"`
	Creator        struct {
		ID int64 `json:"id"`
	} `json:"creator"`
}

func (p *playlistObject) toPlaylist() types.Playlist {
	return types.Playlist{
		ID:          p.UUID,
		Title:       p.Title,
		Description: p.Description,
		TrackCount:  p.NumberOfTracks,
		Owner:       strconv.FormatInt(p.Creator.ID, 10),
	}
}

type trackObject struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Duration int    `json:"duration"`
	URL      string `json:"url"`
	Album    struct {
		ID    int64  `json:"id"`
		Title string `json:"title"`
	} `json:"album"`
	Artists []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"artists"`
}

func (t *trackObject) toTrack() types.Track {
	track := types.Track{
		ID:          strconv.FormatInt(t.ID, 10),
		Title:       t.Title,
		DurationSec: t.Duration,
		Album: types.Album{
			ID:    strconv.FormatInt(t.Album.ID, 10),
			Title: t.Album.Title,
		},
	}
	for _, a := range t.Artists {
		track.Artists = append(track.Artists, types.Artist{
			ID:   strconv.FormatInt(a.ID, 10),
			Name: a.Name,
		})
	}
	return track
}

// UserPlaylists lists every playlist owned by the authenticated user.
func (c *Client) UserPlaylists(ctx context.Context) ([]types.Playlist, error) {
	userID, countryCode, err := c.session(ctx)
	if err != nil {
		return nil, err
	}
	var playlists []types.Playlist
	path := fmt.Sprintf("/users/%s/playlists", userID)
	for offset := 0; ; {
		var page struct {
			pageEnvelope
			Items []playlistObject `json:"items"`
		}
		query := url.Values{
			"limit":       {"50"},
			"offset":      {strconv.Itoa(offset)},
			"countryCode": {countryCode},
		}
		if err := c.api.Get(ctx, path, query, &page); err != nil {
			return nil, err
		}
		for i := range page.Items {
			playlists = append(playlists, page.Items[i].toPlaylist())
		}
		offset += len(page.Items)
		if len(page.Items) == 0 || offset >= page.TotalNumberOfItems {
			return playlists, nil
		}
	}
}

// PlaylistTracks lists the tracks of a playlist in playlist order.
func (c *Client) PlaylistTracks(ctx context.Context, playlistID string) ([]types.Track, error) {
	_, countryCode, err := c.session(ctx)
	if err != nil {
		return nil, err
	}
	var tracks []types.Track
	path := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	for offset := 0; ; {
		var page struct {
			pageEnvelope
			Items []trackObject `json:"items"`
		}
		query := url.Values{
			"limit":       {"100"},
			"offset":      {strconv.Itoa(offset)},
			"countryCode": {countryCode},
		}
		if err := c.api.Get(ctx, path, query, &page); err != nil {
			return nil, err
		}
		for i := range page.Items {
			tracks = append(tracks, page.Items[i].toTrack())
		}
		offset += len(page.Items)
		if len(page.Items) == 0 || offset >= page.TotalNumberOfItems {
			return tracks, nil
		}
	}
}

// ListPlaylistTrackIDs returns the ids of a playlist's tracks in
// playlist order.
func (c *Client) ListPlaylistTrackIDs(ctx context.Context, playlistID string) ([]string, error) {
	tracks, err := c.PlaylistTracks(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(tracks))
	for _, t := range tracks {
		ids = append(ids, t.ID)
	}
	return ids, nil
}

// CreatePlaylist creates an empty playlist owned by the authenticated
// user.
func (c *Client) CreatePlaylist(ctx context.Context, title, description string) (types.Playlist, error) {
	userID, _, err := c.session(ctx)
	if err != nil {
		return types.Playlist{}, err
	}
	var created playlistObject
	form := url.Values{"title": {title}, "description": {description}}
	path := fmt.Sprintf("/users/%s/playlists", userID)
	if err := c.api.PostForm(ctx, path, form, &created); err != nil {
		return types.Playlist{}, fmt.Errorf("create playlist %q: %w", title, err)
	}
	return created.toPlaylist(), nil
}

// CheckPlaylist reports whether a playlist with the given title exists,
// comparing titles case-insensitively.
func (c *Client) CheckPlaylist(ctx context.Context, title string) (types.Playlist, bool, error) {
	playlists, err := c.UserPlaylists(ctx)
	if err != nil {
		return types.Playlist{}, false, err
	}
	want := strings.ToLower(strings.TrimSpace(title))
	for _, p := range playlists {
		if strings.ToLower(strings.TrimSpace(p.Title)) == want {
			return p, true, nil
		}
	}
	return types.Playlist{}, false, nil
}

// GetOrCreatePlaylist returns the playlist with the given title,
// creating it when no case-insensitive match exists.
func (c *Client) GetOrCreatePlaylist(ctx context.Context, title, description string) (types.Playlist, error) {
	existing, ok, err := c.CheckPlaylist(ctx, title)
	if err != nil {
		return types.Playlist{}, err
	}
	if ok {
		return existing, nil
	}
	return c.CreatePlaylist(ctx, title, description)
}

// NormalizeTrackIDs extracts numeric ids from raw values, which may be
// track URLs or bare ids, dropping anything unparseable and duplicates
// while preserving first-seen order.
func NormalizeTrackIDs(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		id := match.ExtractTidalTrackID(v)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// AddTracksByIDs adds tracks to a playlist in batches. Input values
// are normalized and deduplicated, and when avoidDuplicates is set the
// ids already present in the playlist are filtered out first. Returns
// the number of tracks actually added.
func (c *Client) AddTracksByIDs(ctx context.Context, playlistID string, values []string, avoidDuplicates bool) (int, error) {
	ids := NormalizeTrackIDs(values)
	if avoidDuplicates && len(ids) > 0 {
		existing, err := c.ListPlaylistTrackIDs(ctx, playlistID)
		if err != nil {
			return 0, err
		}
		present := make(map[string]struct{}, len(existing))
		for _, id := range existing {
			present[id] = struct{}{}
		}
		kept := ids[:0]
		for _, id := range ids {
			if _, ok := present[id]; !ok {
				kept = append(kept, id)
			}
		}
		ids = kept
	}
	if len(ids) == 0 {
		return 0, nil
	}

	path := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	added := 0
	for start := 0; start < len(ids); start += addBatchSize {
		end := start + addBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]
		req := httpx.Request{
			Method: http.MethodPost,
			Path:   path,
			Form: url.Values{
				"trackIds":           {strings.Join(batch, ",")},
				"onArtifactNotFound": {"SKIP"},
				"onDupes":            {"SKIP"},
			},
			Header: http.Header{"If-None-Match": {"*"}},
		}
		if err := c.api.Do(ctx, req, nil); err != nil {
			return added, fmt.Errorf("add %d tracks to playlist %s: %w", len(batch), playlistID, err)
		}
		added += len(batch)
	}
	return added, nil
}

// FavoriteTrackIDs lists the ids of the user's favorite tracks.
func (c *Client) FavoriteTrackIDs(ctx context.Context) ([]string, error) {
	userID, countryCode, err := c.session(ctx)
	if err != nil {
		return nil, err
	}
	var ids []string
	path := fmt.Sprintf("/users/%s/favorites/tracks", userID)
	for offset := 0; ; {
		var page struct {
			pageEnvelope
			Items []struct {
				Item trackObject `json:"item"`
			} `json:"items"`
		}
		query := url.Values{
			"limit":       {"100"},
			"offset":      {strconv.Itoa(offset)},
			"countryCode": {countryCode},
		}
		if err := c.api.Get(ctx, path, query, &page); err != nil {
			return nil, err
		}
		for i := range page.Items {
			ids = append(ids, strconv.FormatInt(page.Items[i].Item.ID, 10))
		}
		offset += len(page.Items)
		if len(page.Items) == 0 || offset >= page.TotalNumberOfItems {
			return ids, nil
		}
	}
}

// AddFavoritesByIDs favorites tracks one by one, which is how the API
// behaves most reliably, skipping ids already present when
// avoidDuplicates is set. Returns the number added.
func (c *Client) AddFavoritesByIDs(ctx context.Context, values []string, avoidDuplicates bool) (int, error) {
	userID, countryCode, err := c.session(ctx)
	if err != nil {
		return 0, err
	}
	ids := NormalizeTrackIDs(values)
	if avoidDuplicates && len(ids) > 0 {
		existing, errList := c.FavoriteTrackIDs(ctx)
		if errList != nil {
			return 0, errList
		}
		present := make(map[string]struct{}, len(existing))
		for _, id := range existing {
			present[id] = struct{}{}
		}
		kept := ids[:0]
		for _, id := range ids {
			if _, ok := present[id]; !ok {
				kept = append(kept, id)
			}
		}
		ids = kept
	}

	path := fmt.Sprintf("/users/%s/favorites/tracks", userID)
	added := 0
	for _, id := range ids {
		form := url.Values{"trackIds": {id}, "countryCode": {countryCode}}
		if err := c.api.PostForm(ctx, path, form, nil); err != nil {
			return added, fmt.Errorf("favorite track %s: %w", id, err)
		}
		added++
	}
	return added, nil
}

// SetPlaylistImage uploads a cover image for a playlist. Cover upload
// is cosmetic, so callers treat a failure as non-fatal.
func (c *Client) SetPlaylistImage(ctx context.Context, playlistID string, image []byte) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", "cover.jpg")
	if err != nil {
		return err
	}
	if _, err := part.Write(image); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	path := fmt.Sprintf("%s/playlists/%s/image", strings.TrimRight(c.api.BaseURL, "/"), url.PathEscape(playlistID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	if c.api.Tokens != nil {
		tok, errTok := c.api.Tokens.Token()
		if errTok != nil {
			return errTok
		}
		tok.SetAuthHeader(req)
	}
	httpClient := c.api.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: httpx.DefaultTimeout}
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &httpx.APIError{Provider: ProviderName, Status: resp.StatusCode, Detail: "cover upload rejected"}
	}
	return nil
}
