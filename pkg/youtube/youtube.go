// Package youtube wraps the slice of the YouTube Data API v3 used as a
// migration destination: video search, playlists, playlist items, and
// liked videos.
package youtube

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/oauth2"

	"github.com/crosstune/crosstune/pkg/httpx"
	"github.com/crosstune/crosstune/pkg/match"
	"github.com/crosstune/crosstune/pkg/types"
)

// ProviderName is the token store namespace for this provider.
const ProviderName = "youtube"

const apiBaseURL = "https://www.googleapis.com/youtube/v3"

// musicCategoryID is the YouTube category for music videos.
const musicCategoryID = "10"

// likedPlaylistID is the virtual playlist holding the user's likes.
const likedPlaylistID = "LL"

// DefaultSearchLimit is the per-query candidate count used when the
// caller does not specify one.
const DefaultSearchLimit = 7

// Video is a search or playlist entry as the scorer sees it.
type Video struct {
	ID           string
	Title        string
	ChannelTitle string
	CategoryID   string
}

// ScoredVideo is a Video annotated with its match score.
type ScoredVideo struct {
	Video
	Score int
}

// Client exposes a user's YouTube library.
type Client struct {
	api *httpx.Client
	// Cache short-circuits repeated searches for the same track and
	// artist. Nil disables caching.
	Cache *SearchCache
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

type searchPage struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
		} `json:"snippet"`
	} `json:"items"`
}

type videosPage struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			CategoryID string `json:"categoryId"`
		} `json:"snippet"`
	} `json:"items"`
}

// SearchOptions tunes SearchTracks.
type SearchOptions struct {
	// Limit caps the number of candidates. Zero means
	// DefaultSearchLimit.
	Limit int
	// SkipVideosLookup leaves CategoryID empty instead of spending an
	// extra quota unit per search on the /videos call.
	SkipVideosLookup bool
}

// SearchTracks searches videos for the query and optionally annotates
// each result with its category.
func (c *Client) SearchTracks(ctx context.Context, query string, opts SearchOptions) ([]Video, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	var page searchPage
	q := url.Values{
		"part":       {"snippet"},
		"q":          {query},
		"type":       {"video"},
		"maxResults": {strconv.Itoa(limit)},
	}
	if err := c.api.Get(ctx, "/search", q, &page); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	videos := make([]Video, 0, len(page.Items))
	ids := make([]string, 0, len(page.Items))
	for _, item := range page.Items {
		if item.ID.VideoID == "" {
			continue
		}
		videos = append(videos, Video{
			ID:           item.ID.VideoID,
			Title:        item.Snippet.Title,
			ChannelTitle: item.Snippet.ChannelTitle,
		})
		ids = append(ids, item.ID.VideoID)
	}
	if opts.SkipVideosLookup || len(ids) == 0 {
		return videos, nil
	}

	var details videosPage
	q = url.Values{"part": {"snippet"}, "id": {strings.Join(ids, ",")}}
	if err := c.api.Get(ctx, "/videos", q, &details); err != nil {
		return nil, fmt.Errorf("video details: %w", err)
	}
	categories := make(map[string]string, len(details.Items))
	for _, item := range details.Items {
		categories[item.ID] = item.Snippet.CategoryID
	}
	for i := range videos {
		videos[i].CategoryID = categories[videos[i].ID]
	}
	return videos, nil
}

// SearchTracksWithScores searches for a track by title and artist and
// rates every candidate, best first. The sort is stable so equal
// scores keep the provider's relevance order.
func (c *Client) SearchTracksWithScores(ctx context.Context, title, artist string, opts SearchOptions) ([]ScoredVideo, error) {
	cleaned := match.CleanTitle(title)
	videos, err := c.SearchTracks(ctx, match.BuildQuery(cleaned, artist), opts)
	if err != nil {
		return nil, err
	}
	scored := make([]ScoredVideo, 0, len(videos))
	for _, v := range videos {
		score := match.Score(cleaned, artist, v.Title, v.ChannelTitle, v.CategoryID == musicCategoryID, match.YouTubeOptions())
		scored = append(scored, ScoredVideo{Video: v, Score: score})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	return scored, nil
}

// FindBestMatch returns the id and score of the best candidate for the
// given title and artist. Results are served from the cache when one
// is attached. A miss is reported with an empty id, not an error.
func (c *Client) FindBestMatch(ctx context.Context, title, artist string, opts SearchOptions) (string, int, types.Match, error) {
	if c.Cache != nil {
		if hit, ok := c.Cache.Get(title, artist); ok {
			return hit.ID, hit.Score, types.Match{ID: hit.ID, Title: hit.Title, Artists: hit.Channel}, nil
		}
	}
	scored, err := c.SearchTracksWithScores(ctx, title, artist, opts)
	if err != nil {
		return "", 0, types.Match{}, err
	}
	if len(scored) == 0 {
		return "", 0, types.Match{}, nil
	}
	best := scored[0]
	if c.Cache != nil {
		c.Cache.Put(title, artist, CachedResult{
			ID:      best.ID,
			Title:   best.Title,
			Channel: best.ChannelTitle,
			Score:   best.Score,
		})
	}
	summary := types.Match{
		ID:      best.ID,
		Title:   best.Title,
		Artists: best.ChannelTitle,
		URL:     "https://www.youtube.com/watch?v=" + best.ID,
	}
	return best.ID, best.Score, summary, nil
}

type playlistsPage struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		} `json:"snippet"`
		ContentDetails struct {
			ItemCount int `json:"itemCount"`
		} `json:"contentDetails"`
	} `json:"items"`
}

// MyPlaylists lists every playlist owned by the authenticated user.
func (c *Client) MyPlaylists(ctx context.Context) ([]types.Playlist, error) {
	var playlists []types.Playlist
	pageToken := ""
	for {
		var page playlistsPage
		q := url.Values{
			"part":       {"snippet,contentDetails"},
			"mine":       {"true"},
			"maxResults": {"50"},
		}
		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}
		if err := c.api.Get(ctx, "/playlists", q, &page); err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			playlists = append(playlists, types.Playlist{
				ID:          item.ID,
				Title:       item.Snippet.Title,
				Description: item.Snippet.Description,
				TrackCount:  item.ContentDetails.ItemCount,
			})
		}
		if page.NextPageToken == "" {
			return playlists, nil
		}
		pageToken = page.NextPageToken
	}
}

type playlistItemsPage struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		Snippet struct {
			Title                  string `json:"title"`
			VideoOwnerChannelTitle string `json:"videoOwnerChannelTitle"`
			PublishedAt            string `json:"publishedAt"`
		} `json:"snippet"`
		ContentDetails struct {
			VideoID string `json:"videoId"`
		} `json:"contentDetails"`
	} `json:"items"`
}

// PlaylistItems lists the videos of a playlist in playlist order.
func (c *Client) PlaylistItems(ctx context.Context, playlistID string) ([]types.Track, error) {
	var tracks []types.Track
	pageToken := ""
	for {
		var page playlistItemsPage
		q := url.Values{
			"part":       {"snippet,contentDetails"},
			"playlistId": {playlistID},
			"maxResults": {"50"},
		}
		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}
		if err := c.api.Get(ctx, "/playlistItems", q, &page); err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			track := types.Track{
				ID:      item.ContentDetails.VideoID,
				Title:   item.Snippet.Title,
				AddedAt: item.Snippet.PublishedAt,
			}
			if item.Snippet.VideoOwnerChannelTitle != "" {
				track.Artists = []types.Artist{{Name: item.Snippet.VideoOwnerChannelTitle}}
			}
			tracks = append(tracks, track)
		}
		if page.NextPageToken == "" {
			return tracks, nil
		}
		pageToken = page.NextPageToken
	}
}

// LikedVideos lists the user's liked videos.
func (c *Client) LikedVideos(ctx context.Context) ([]types.Track, error) {
	return c.PlaylistItems(ctx, likedPlaylistID)
}

// CreatePlaylist creates a playlist with the given privacy status.
// Valid statuses are private, unlisted, and public.
func (c *Client) CreatePlaylist(ctx context.Context, title, description, privacyStatus string) (types.Playlist, error) {
	if privacyStatus == "" {
		privacyStatus = "private"
	}
	body := map[string]interface{}{
		"snippet": map[string]string{
			"title":       title,
			"description": description,
		},
		"status": map[string]string{"privacyStatus": privacyStatus},
	}
	var created struct {
		ID      string `json:"id"`
		Snippet struct {
			Title string `json:"title"`
		} `json:"snippet"`
	}
	req := httpx.Request{
		Method: "POST",
		Path:   "/playlists",
		Query:  url.Values{"part": {"snippet,status"}},
		Body:   body,
	}
	if err := c.api.Do(ctx, req, &created); err != nil {
		return types.Playlist{}, fmt.Errorf("create playlist %q: %w", title, err)
	}
	return types.Playlist{ID: created.ID, Title: created.Snippet.Title}, nil
}

// AddVideos inserts videos into a playlist one by one, which is the
// only shape the API accepts. When avoidDuplicates is set, ids already
// in the playlist are filtered out first. Returns the number added.
func (c *Client) AddVideos(ctx context.Context, playlistID string, videoIDs []string, avoidDuplicates bool) (int, error) {
	seen := make(map[string]struct{}, len(videoIDs))
	ids := make([]string, 0, len(videoIDs))
	for _, raw := range videoIDs {
		id := match.ExtractYouTubeVideoID(raw)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if avoidDuplicates && len(ids) > 0 {
		existing, err := c.PlaylistItems(ctx, playlistID)
		if err != nil {
			return 0, err
		}
		present := make(map[string]struct{}, len(existing))
		for _, t := range existing {
			present[t.ID] = struct{}{}
		}
		kept := ids[:0]
		for _, id := range ids {
			if _, ok := present[id]; !ok {
				kept = append(kept, id)
			}
		}
		ids = kept
	}

	added := 0
	for _, id := range ids {
		body := map[string]interface{}{
			"snippet": map[string]interface{}{
				"playlistId": playlistID,
				"resourceId": map[string]string{
					"kind":    "youtube#video",
					"videoId": id,
				},
			},
		}
		req := httpx.Request{
			Method: "POST",
			Path:   "/playlistItems",
			Query:  url.Values{"part": {"snippet"}},
			Body:   body,
		}
		if err := c.api.Do(ctx, req, nil); err != nil {
			return added, fmt.Errorf("add video %s to playlist %s: %w", id, playlistID, err)
		}
		added++
	}
	return added, nil
}

// PlannedVideo pairs a source track with its resolved video.
type PlannedVideo struct {
	Source types.Track
	ID     string
	Score  int
	Match  types.Match
}

// PlanTracksByMetadata resolves each source track to its best video
// candidate. Unresolvable tracks stay in the plan with an empty id so
// callers can report them.
func (c *Client) PlanTracksByMetadata(ctx context.Context, tracks []types.Track, opts SearchOptions) ([]PlannedVideo, error) {
	plan := make([]PlannedVideo, 0, len(tracks))
	for _, t := range tracks {
		artist := ""
		if len(t.Artists) > 0 {
			artist = t.Artists[0].Name
		}
		id, score, summary, err := c.FindBestMatch(ctx, t.Title, artist, opts)
		if err != nil {
			return nil, err
		}
		plan = append(plan, PlannedVideo{Source: t, ID: id, Score: score, Match: summary})
	}
	return plan, nil
}

// AddPlanned inserts the planned videos whose score reaches minScore
// and returns the inserted count alongside the entries left out.
func (c *Client) AddPlanned(ctx context.Context, playlistID string, plan []PlannedVideo, minScore int, avoidDuplicates bool) (int, []PlannedVideo, error) {
	ids := make([]string, 0, len(plan))
	var skipped []PlannedVideo
	for _, p := range plan {
		if p.ID == "" || p.Score < minScore {
			skipped = append(skipped, p)
			continue
		}
		ids = append(ids, p.ID)
	}
	added, err := c.AddVideos(ctx, playlistID, ids, avoidDuplicates)
	if err != nil {
		return added, skipped, err
	}
	return added, skipped, nil
}
