package v1

import (
	"context"

	crosstune "github.com/crosstune/crosstune"
	"github.com/crosstune/crosstune/pkg/migrate"
	"github.com/crosstune/crosstune/pkg/tokenstore"
)

// Migration targets accepted by the migrate function.
const (
	TargetTidal   = "tidal"
	TargetYouTube = "youtube"
)

// SourceFn builds the migration source, typically the Spotify client
// for the configured user.
type SourceFn func(ctx context.Context) (migrate.Source, migrate.CoverSource, error)

// TidalDestinationFn builds a Tidal destination for a named token
// store user.
type TidalDestinationFn func(ctx context.Context, user string) (migrate.TidalDestination, error)

// YouTubeDestinationFn builds the YouTube destination along with its
// resolver and a flush callback that persists the search cache after
// the run.
type YouTubeDestinationFn func(ctx context.Context) (migrate.YouTubeDestination, migrate.ResolveFunc, func(context.Context) error, error)

// MigrateEvent selects the destination and tunes the run.
type MigrateEvent struct {
	// User is the token store user of the Tidal destination account.
	// Ignored for the youtube target, which is bound by configuration.
	User            string   `json:"user,omitempty"`
	Target          string   `json:"target"`
	ScoreThreshold  int      `json:"scoreThreshold,omitempty"`
	PerQueryLimit   int      `json:"perQueryLimit,omitempty"`
	AvoidDuplicates bool     `json:"avoidDuplicates"`
	IncludeLiked    bool     `json:"includeLiked"`
	// LikedOnly restricts the run to liked songs, skipping playlists.
	LikedOnly     bool     `json:"likedOnly,omitempty"`
	PrivacyStatus string   `json:"privacyStatus,omitempty"`
	Playlists     []string `json:"playlists,omitempty"`
}

// Migrate copies a library from the configured source account into a
// destination account.
type Migrate struct {
	Source  SourceFn
	Tidal   TidalDestinationFn
	YouTube YouTubeDestinationFn
	Store   *tokenstore.Store
}

// Handle executes the migration and returns the report.
func (h *Migrate) Handle(ctx context.Context, in MigrateEvent) (*migrate.Report, error) {
	switch in.Target {
	case TargetTidal, TargetYouTube:
	default:
		return nil, crosstune.InvalidInputError{Field: "target", Reason: "must be tidal or youtube"}
	}
	source, covers, err := h.Source(ctx)
	if err != nil {
		return nil, err
	}

	if in.Target == TargetTidal {
		if in.User == "" {
			return nil, crosstune.InvalidInputError{Field: "user", Reason: "required for the tidal target"}
		}
		dest, errDest := h.Tidal(ctx, in.User)
		if errDest != nil {
			return nil, errDest
		}
		m := &migrate.SpotifyToTidal{
			Source:          source,
			Covers:          covers,
			Dest:            dest,
			Store:           h.Store,
			Threshold:       in.ScoreThreshold,
			PerQueryLimit:   in.PerQueryLimit,
			AvoidDuplicates: in.AvoidDuplicates,
			Playlists:       in.Playlists,
			IncludeLiked:    in.IncludeLiked,
		}
		if in.LikedOnly {
			return m.MigrateLikedSongs(ctx)
		}
		return m.Run(ctx)
	}

	if in.LikedOnly {
		return nil, crosstune.InvalidInputError{Field: "likedOnly", Reason: "not supported for the youtube target"}
	}
	dest, resolve, flush, err := h.YouTube(ctx)
	if err != nil {
		return nil, err
	}
	m := &migrate.SpotifyToYouTube{
		Source:          source,
		Dest:            dest,
		Resolve:         resolve,
		Store:           h.Store,
		Threshold:       in.ScoreThreshold,
		AvoidDuplicates: in.AvoidDuplicates,
		Playlists:       in.Playlists,
		PrivacyStatus:   in.PrivacyStatus,
	}
	report, err := m.Run(ctx)
	if err != nil {
		return nil, err
	}
	if flush != nil {
		if errFlush := flush(ctx); errFlush != nil {
			return nil, errFlush
		}
	}
	return report, nil
}
