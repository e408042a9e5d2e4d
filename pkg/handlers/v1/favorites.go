package v1

import (
	"context"
	"fmt"

	crosstune "github.com/crosstune/crosstune"
	"github.com/crosstune/crosstune/pkg/types"
)

// FavoritesAdder is the write side of a provider's favorites list.
type FavoritesAdder interface {
	AddFavoritesByIDs(ctx context.Context, ids []string, avoidDuplicates bool) (int, error)
}

// FavoritesResolver is implemented by providers that can resolve track
// metadata to their own ids before favoriting.
type FavoritesResolver interface {
	AddFavoritesByMetadata(ctx context.Context, tracks []types.Track, limit int, avoidDuplicates bool) (int, error)
}

// FavoritesClientFn builds a favorites-capable client for a named
// token store user.
type FavoritesClientFn func(ctx context.Context, user string) (FavoritesAdder, error)

// ErrReadOnlyProvider is returned by registry entries whose API offers
// no favorites write path.
var ErrReadOnlyProvider = fmt.Errorf("provider is read-only")

// FavoriteItem names a track to resolve before favoriting.
type FavoriteItem struct {
	Title  string `json:"title"`
	Artist string `json:"artist,omitempty"`
}

// FavoritesEvent names the provider account and the tracks to add,
// either as provider ids or as metadata to resolve.
type FavoritesEvent struct {
	User            string         `json:"user"`
	Provider        string         `json:"provider"`
	TrackIDs        []string       `json:"trackIDs,omitempty"`
	Items           []FavoriteItem `json:"items,omitempty"`
	PerQueryLimit   int            `json:"perQueryLimit,omitempty"`
	AvoidDuplicates bool           `json:"avoidDuplicates"`
}

// FavoritesOutput reports how many tracks were added.
type FavoritesOutput struct {
	Provider string `json:"provider"`
	Added    int    `json:"added"`
}

// Favorites adds tracks to a provider's favorites list through a
// registry of per-provider client builders.
type Favorites struct {
	Providers map[string]FavoritesClientFn
}

// Handle adds the tracks and reports the inserted count.
func (h *Favorites) Handle(ctx context.Context, in FavoritesEvent) (FavoritesOutput, error) {
	if in.User == "" {
		return FavoritesOutput{}, crosstune.InvalidInputError{Field: "user", Reason: "required"}
	}
	build, ok := h.Providers[in.Provider]
	if !ok {
		return FavoritesOutput{}, crosstune.InvalidInputError{Field: "provider", Reason: fmt.Sprintf("unknown provider %q", in.Provider)}
	}
	client, err := build(ctx, in.User)
	if err != nil {
		return FavoritesOutput{}, err
	}
	added := 0
	if len(in.TrackIDs) > 0 {
		n, err := client.AddFavoritesByIDs(ctx, in.TrackIDs, in.AvoidDuplicates)
		if err != nil {
			return FavoritesOutput{}, err
		}
		added += n
	}
	if len(in.Items) > 0 {
		resolver, ok := client.(FavoritesResolver)
		if !ok {
			return FavoritesOutput{}, crosstune.InvalidInputError{Field: "items", Reason: fmt.Sprintf("%s cannot resolve track metadata", in.Provider)}
		}
		tracks := make([]types.Track, 0, len(in.Items))
		for _, it := range in.Items {
			track := types.Track{Title: it.Title}
			if it.Artist != "" {
				track.Artists = []types.Artist{{Name: it.Artist}}
			}
			tracks = append(tracks, track)
		}
		n, err := resolver.AddFavoritesByMetadata(ctx, tracks, in.PerQueryLimit, in.AvoidDuplicates)
		if err != nil {
			return FavoritesOutput{}, err
		}
		added += n
	}
	return FavoritesOutput{Provider: in.Provider, Added: added}, nil
}
