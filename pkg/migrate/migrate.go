// Package migrate implements the library transfer flows: Spotify to
// Tidal, Spotify to YouTube, liked songs to favorites, and the
// two-account Tidal playlist sync.
package migrate

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/crosstune/crosstune/pkg/types"
)

// DefaultThreshold is the score below which a resolved track is
// considered low confidence and skipped.
const DefaultThreshold = 51

// DefaultPerQueryLimit is the candidate count requested per search.
const DefaultPerQueryLimit = 7

// defaultConcurrency bounds concurrent search requests while planning.
const defaultConcurrency = 4

// ResolveFunc finds the best destination candidate for a title and
// artist pair. A miss is an empty id with a nil error.
type ResolveFunc func(ctx context.Context, title, artist string) (id string, score int, summary types.Match, err error)

// PlannedItem is one source track with its resolved destination.
type PlannedItem struct {
	Track  types.Track
	Artist string
	DestID string
	Score  int
	Match  types.Match
	// LowConfidence marks items that will be skipped rather than
	// inserted.
	LowConfidence bool
}

// Planner resolves source tracks against a destination library.
type Planner struct {
	Resolve ResolveFunc
	// Concurrency bounds parallel resolution. Zero means
	// defaultConcurrency.
	Concurrency int
	// MinScore marks resolutions below it as low confidence. Zero
	// means DefaultThreshold.
	MinScore int
}

// Plan resolves every track. The returned plan preserves source order
// regardless of resolution order.
func (p *Planner) Plan(ctx context.Context, tracks []types.Track) ([]PlannedItem, error) {
	minScore := p.MinScore
	if minScore <= 0 {
		minScore = DefaultThreshold
	}
	limit := p.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}

	items := make([]PlannedItem, len(tracks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := range tracks {
		i := i
		g.Go(func() error {
			t := tracks[i]
			artist := firstArtist(t)
			id, score, summary, err := p.Resolve(gctx, t.Title, artist)
			if err != nil {
				return err
			}
			items[i] = PlannedItem{
				Track:         t,
				Artist:        artist,
				DestID:        id,
				Score:         score,
				Match:         summary,
				LowConfidence: id == "" || score < minScore,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

func firstArtist(t types.Track) string {
	if len(t.Artists) > 0 {
		return t.Artists[0].Name
	}
	return ""
}

// splitPlan separates a plan into insertable ids and skipped items.
func splitPlan(plan []PlannedItem) (ids []string, skipped []PlannedItem) {
	for _, item := range plan {
		if item.LowConfidence {
			skipped = append(skipped, item)
			continue
		}
		ids = append(ids, item.DestID)
	}
	return ids, skipped
}

// titleFilter reports whether a playlist passes the optional title
// selection. An empty selection passes everything.
func titleFilter(selection []string, title string) bool {
	if len(selection) == 0 {
		return true
	}
	for _, s := range selection {
		if equalFoldTrim(s, title) {
			return true
		}
	}
	return false
}
