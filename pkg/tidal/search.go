package tidal

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/crosstune/crosstune/pkg/match"
	"github.com/crosstune/crosstune/pkg/types"
)

// DefaultSearchLimit is the per-query candidate count used when the
// caller does not specify one.
const DefaultSearchLimit = 7

// SearchTracks runs a track search and returns the normalized results
// in the provider's relevance order.
func (c *Client) SearchTracks(ctx context.Context, query string, limit int) ([]types.Track, error) {
	_, countryCode, err := c.session(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	var page struct {
		Items []trackObject `json:"items"`
	}
	q := url.Values{
		"query":       {query},
		"limit":       {strconv.Itoa(limit)},
		"countryCode": {countryCode},
	}
	if err := c.api.Get(ctx, "/search/tracks", q, &page); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	tracks := make([]types.Track, 0, len(page.Items))
	for i := range page.Items {
		tracks = append(tracks, page.Items[i].toTrack())
	}
	return tracks, nil
}

// SearchTracksWithScores searches for a track by title and artist and
// rates every candidate, best first.
func (c *Client) SearchTracksWithScores(ctx context.Context, title, artist string, limit int) ([]types.Candidate, error) {
	cleaned := match.CleanTitle(title)
	results, err := c.SearchTracks(ctx, match.BuildQuery(cleaned, artist), limit)
	if err != nil {
		return nil, err
	}
	return match.RankCandidates(cleaned, artist, results, match.TidalOptions()), nil
}

// FindBestMatch returns the id and score of the best candidate for the
// given title and artist, plus a summary of what matched. A miss is
// reported with an empty id and score zero, not an error.
func (c *Client) FindBestMatch(ctx context.Context, title, artist string, limit int) (string, int, types.Match, error) {
	candidates, err := c.SearchTracksWithScores(ctx, title, artist, limit)
	if err != nil {
		return "", 0, types.Match{}, err
	}
	if len(candidates) == 0 {
		return "", 0, types.Match{}, nil
	}
	best := candidates[0]
	names := make([]string, 0, len(best.Artists))
	for _, a := range best.Artists {
		names = append(names, a.Name)
	}
	summary := types.Match{
		ID:      best.ID,
		Title:   best.Title,
		Artists: strings.Join(names, ", "),
	}
	return best.ID, best.Score, summary, nil
}

// PlannedTrack pairs a source track with its resolved destination.
type PlannedTrack struct {
	Source types.Track
	ID     string
	Score  int
	Match  types.Match
}

// PlanTracksByMetadata resolves each source track to its best
// destination candidate. Unresolvable tracks stay in the plan with an
// empty id so callers can report them.
func (c *Client) PlanTracksByMetadata(ctx context.Context, tracks []types.Track, limit int) ([]PlannedTrack, error) {
	plan := make([]PlannedTrack, 0, len(tracks))
	for _, t := range tracks {
		artist := ""
		if len(t.Artists) > 0 {
			artist = t.Artists[0].Name
		}
		id, score, summary, err := c.FindBestMatch(ctx, t.Title, artist, limit)
		if err != nil {
			return nil, err
		}
		plan = append(plan, PlannedTrack{Source: t, ID: id, Score: score, Match: summary})
	}
	return plan, nil
}

// AddPlanned inserts the planned tracks whose score reaches minScore
// and returns the inserted count alongside the entries left out.
func (c *Client) AddPlanned(ctx context.Context, playlistID string, plan []PlannedTrack, minScore int, avoidDuplicates bool) (int, []PlannedTrack, error) {
	ids := make([]string, 0, len(plan))
	var skipped []PlannedTrack
	for _, p := range plan {
		if p.ID == "" || p.Score < minScore {
			skipped = append(skipped, p)
			continue
		}
		ids = append(ids, p.ID)
	}
	added, err := c.AddTracksByIDs(ctx, playlistID, ids, avoidDuplicates)
	if err != nil {
		return added, skipped, err
	}
	return added, skipped, nil
}

// AddFavoritesByMetadata resolves track metadata to ids and favorites
// every track that found a match, regardless of score.
func (c *Client) AddFavoritesByMetadata(ctx context.Context, tracks []types.Track, limit int, avoidDuplicates bool) (int, error) {
	plan, err := c.PlanTracksByMetadata(ctx, tracks, limit)
	if err != nil {
		return 0, err
	}
	ids := make([]string, 0, len(plan))
	for _, p := range plan {
		if p.ID != "" {
			ids = append(ids, p.ID)
		}
	}
	return c.AddFavoritesByIDs(ctx, ids, avoidDuplicates)
}

// Strategies accepted by AddTracksByMetadata.
const (
	StrategyBest  = "best"
	StrategyFirst = "first"
)

// AddTracksByMetadata resolves and inserts tracks in one step. The
// "best" strategy takes the highest scoring candidate; "first" takes
// the provider's top search result regardless of score.
func (c *Client) AddTracksByMetadata(ctx context.Context, playlistID string, tracks []types.Track, strategy string, limit int, avoidDuplicates bool) (int, error) {
	var ids []string
	for _, t := range tracks {
		artist := ""
		if len(t.Artists) > 0 {
			artist = t.Artists[0].Name
		}
		switch strategy {
		case StrategyFirst:
			results, err := c.SearchTracks(ctx, match.BuildQuery(match.CleanTitle(t.Title), artist), limit)
			if err != nil {
				return 0, err
			}
			if len(results) > 0 {
				ids = append(ids, results[0].ID)
			}
		case StrategyBest, "":
			id, _, _, err := c.FindBestMatch(ctx, t.Title, artist, limit)
			if err != nil {
				return 0, err
			}
			if id != "" {
				ids = append(ids, id)
			}
		default:
			return 0, fmt.Errorf("unknown add strategy %q", strategy)
		}
	}
	return c.AddTracksByIDs(ctx, playlistID, ids, avoidDuplicates)
}
