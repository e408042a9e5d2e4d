package migrate

import (
	"context"
	"fmt"
	"time"

	crosstune "github.com/crosstune/crosstune"
	"github.com/crosstune/crosstune/pkg/logs"
	"github.com/crosstune/crosstune/pkg/tokenstore"
	"github.com/crosstune/crosstune/pkg/types"
)

// Stat names emitted on the migration path.
const (
	statResolved = "tracks.resolved"
	statInserted = "tracks.inserted"
	statSkipped  = "tracks.skipped"
	statPlaylist = "playlist.migrate"
)

// Source is the read side of the account being migrated away from.
type Source interface {
	MyPlaylists(ctx context.Context) ([]types.Playlist, error)
	PlaylistTracks(ctx context.Context, playlistID string) ([]types.Track, error)
	SavedTracks(ctx context.Context) ([]types.Track, error)
}

// CoverSource additionally serves playlist cover art. The Spotify
// client satisfies both.
type CoverSource interface {
	BestPlaylistImageURL(ctx context.Context, playlistID string) (string, error)
	DownloadImage(ctx context.Context, imageURL string) ([]byte, error)
}

// TidalDestination is the write side of a Tidal account.
type TidalDestination interface {
	CheckPlaylist(ctx context.Context, title string) (types.Playlist, bool, error)
	CreatePlaylist(ctx context.Context, title, description string) (types.Playlist, error)
	FindBestMatch(ctx context.Context, title, artist string, limit int) (string, int, types.Match, error)
	AddTracksByIDs(ctx context.Context, playlistID string, ids []string, avoidDuplicates bool) (int, error)
	AddFavoritesByIDs(ctx context.Context, ids []string, avoidDuplicates bool) (int, error)
	SetPlaylistImage(ctx context.Context, playlistID string, image []byte) error
}

// SpotifyToTidal copies playlists, and optionally liked songs, from a
// Spotify account into a Tidal account.
type SpotifyToTidal struct {
	Source Source
	Covers CoverSource
	Dest   TidalDestination
	// Store receives cover objects and the skipped tracks report. Nil
	// disables both.
	Store *tokenstore.Store

	// Threshold is the minimum score for insertion. Zero means
	// DefaultThreshold.
	Threshold int
	// PerQueryLimit caps search candidates. Zero means
	// DefaultPerQueryLimit.
	PerQueryLimit int
	// Concurrency bounds parallel resolution during planning.
	Concurrency     int
	AvoidDuplicates bool
	// Playlists restricts the run to the named playlists. Empty means
	// all of them.
	Playlists []string
	// IncludeLiked also migrates liked songs into Tidal favorites.
	IncludeLiked bool

	// now is replaceable for report naming in tests.
	now func() time.Time
}

func (m *SpotifyToTidal) planner() *Planner {
	limit := m.PerQueryLimit
	if limit <= 0 {
		limit = DefaultPerQueryLimit
	}
	return &Planner{
		Resolve: func(ctx context.Context, title, artist string) (string, int, types.Match, error) {
			return m.Dest.FindBestMatch(ctx, title, artist, limit)
		},
		Concurrency: m.Concurrency,
		MinScore:    m.threshold(),
	}
}

func (m *SpotifyToTidal) threshold() int {
	if m.Threshold <= 0 {
		return DefaultThreshold
	}
	return m.Threshold
}

// Run executes the migration and returns the per-playlist report.
func (m *SpotifyToTidal) Run(ctx context.Context) (*Report, error) {
	logger := crosstune.LoggerFromContext(ctx)
	stat := crosstune.StatFromContext(ctx)

	playlists, err := m.Source.MyPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("list source playlists: %w", err)
	}
	logger.Info(logs.MigrationStarted{Target: "tidal", Playlists: len(playlists)})

	planner := m.planner()
	report := &Report{}
	for _, playlist := range playlists {
		if !titleFilter(m.Playlists, playlist.Title) {
			continue
		}
		start := time.Now()
		pr, err := m.migratePlaylist(ctx, planner, playlist)
		if err != nil {
			return nil, err
		}
		stat.Timing(statPlaylist, time.Since(start), "target:tidal")
		stat.Count(statResolved, float64(pr.Total), "target:tidal")
		stat.Count(statInserted, float64(pr.Inserted), "target:tidal")
		stat.Count(statSkipped, float64(len(pr.Skipped)), "target:tidal")
		report.Playlists = append(report.Playlists, pr)
	}

	if m.IncludeLiked {
		fav, err := m.migrateLiked(ctx, planner)
		if err != nil {
			return nil, err
		}
		report.Favorites = fav
		stat.Count(statInserted, float64(fav.Inserted), "target:tidal-favorites")
		stat.Count(statSkipped, float64(len(fav.Skipped)), "target:tidal-favorites")
	}

	if err := m.writeReport(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

func (m *SpotifyToTidal) migratePlaylist(ctx context.Context, planner *Planner, playlist types.Playlist) (PlaylistReport, error) {
	logger := crosstune.LoggerFromContext(ctx)

	// A destination playlist with the same title means a previous run
	// already handled it.
	if _, exists, err := m.Dest.CheckPlaylist(ctx, playlist.Title); err != nil {
		return PlaylistReport{}, fmt.Errorf("check playlist %q: %w", playlist.Title, err)
	} else if exists {
		logger.Info(logs.PlaylistSkipped{Playlist: playlist.Title, Reason: "already-exists"})
		return PlaylistReport{Name: playlist.Title, Existing: true}, nil
	}

	tracks, err := m.Source.PlaylistTracks(ctx, playlist.ID)
	if err != nil {
		return PlaylistReport{}, fmt.Errorf("list tracks of %q: %w", playlist.Title, err)
	}
	plan, err := planner.Plan(ctx, tracks)
	if err != nil {
		return PlaylistReport{}, fmt.Errorf("plan %q: %w", playlist.Title, err)
	}

	created, err := m.Dest.CreatePlaylist(ctx, playlist.Title, playlist.Description)
	if err != nil {
		return PlaylistReport{}, fmt.Errorf("create playlist %q: %w", playlist.Title, err)
	}
	coverKey := m.copyCover(ctx, playlist, created.ID)

	ids, skippedItems := splitPlan(plan)
	inserted, err := m.Dest.AddTracksByIDs(ctx, created.ID, ids, m.AvoidDuplicates)
	if err != nil {
		return PlaylistReport{}, fmt.Errorf("add tracks to %q: %w", playlist.Title, err)
	}

	pr := PlaylistReport{
		Name:     playlist.Title,
		Total:    len(tracks),
		Inserted: inserted,
		CoverKey: coverKey,
	}
	for _, item := range skippedItems {
		logger.Warn(logs.TrackSkipped{
			Playlist: playlist.Title,
			Track:    item.Track.Title,
			Artist:   item.Artist,
			Score:    item.Score,
		})
		pr.Skipped = append(pr.Skipped, SkippedTrack{
			Playlist: playlist.Title,
			Title:    item.Track.Title,
			Artist:   item.Artist,
			Score:    item.Score,
		})
	}
	logger.Info(logs.PlaylistMigrated{
		Playlist: playlist.Title,
		Total:    pr.Total,
		Inserted: pr.Inserted,
		Skipped:  len(pr.Skipped),
	})
	return pr, nil
}

// copyCover stores the source cover in the bucket and offers it to the
// destination. Covers are cosmetic, so every failure is logged and
// swallowed.
func (m *SpotifyToTidal) copyCover(ctx context.Context, playlist types.Playlist, destID string) string {
	if m.Covers == nil || m.Store == nil {
		return ""
	}
	logger := crosstune.LoggerFromContext(ctx)
	imageURL, err := m.Covers.BestPlaylistImageURL(ctx, playlist.ID)
	if err != nil || imageURL == "" {
		if err != nil {
			logger.Warn(logs.CoverCopyFailed{Playlist: playlist.Title, Reason: err.Error()})
		}
		return ""
	}
	data, err := m.Covers.DownloadImage(ctx, imageURL)
	if err != nil {
		logger.Warn(logs.CoverCopyFailed{Playlist: playlist.Title, Reason: err.Error()})
		return ""
	}
	key, err := m.Store.PutCover(ctx, playlist.Title, data)
	if err != nil {
		logger.Warn(logs.CoverCopyFailed{Playlist: playlist.Title, Reason: err.Error()})
		return ""
	}
	logger.Info(logs.CoverCopied{Playlist: playlist.Title, Key: key})
	if err := m.Dest.SetPlaylistImage(ctx, destID, data); err != nil {
		logger.Warn(logs.CoverCopyFailed{Playlist: playlist.Title, Reason: err.Error()})
	}
	return key
}

func (m *SpotifyToTidal) migrateLiked(ctx context.Context, planner *Planner) (*FavoritesReport, error) {
	logger := crosstune.LoggerFromContext(ctx)

	tracks, err := m.Source.SavedTracks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list liked songs: %w", err)
	}
	plan, err := planner.Plan(ctx, tracks)
	if err != nil {
		return nil, fmt.Errorf("plan liked songs: %w", err)
	}
	ids, skippedItems := splitPlan(plan)
	inserted, err := m.Dest.AddFavoritesByIDs(ctx, ids, m.AvoidDuplicates)
	if err != nil {
		return nil, fmt.Errorf("add favorites: %w", err)
	}

	fav := &FavoritesReport{Total: len(tracks), Inserted: inserted}
	for _, item := range skippedItems {
		fav.Skipped = append(fav.Skipped, SkippedTrack{
			Playlist: "liked songs",
			Title:    item.Track.Title,
			Artist:   item.Artist,
			Score:    item.Score,
		})
	}
	logger.Info(logs.FavoritesMigrated{
		Total:    fav.Total,
		Inserted: fav.Inserted,
		Skipped:  len(fav.Skipped),
	})
	return fav, nil
}

// MigrateLikedSongs runs only the liked songs portion.
func (m *SpotifyToTidal) MigrateLikedSongs(ctx context.Context) (*Report, error) {
	fav, err := m.migrateLiked(ctx, m.planner())
	if err != nil {
		return nil, err
	}
	report := &Report{Favorites: fav}
	if err := m.writeReport(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// writeReport persists the skipped track records for the run.
func (m *SpotifyToTidal) writeReport(ctx context.Context, report *Report) error {
	if m.Store == nil {
		return nil
	}
	lines := report.SkippedLines()
	if len(lines) == 0 {
		return nil
	}
	now := m.now
	if now == nil {
		now = time.Now
	}
	name := tokenstore.ReportName("skipped", now())
	key, err := m.Store.PutReport(ctx, name, lines)
	if err != nil {
		return fmt.Errorf("write skipped report: %w", err)
	}
	report.ReportKey = key
	crosstune.LoggerFromContext(ctx).Info(logs.ReportWritten{Key: key, Lines: len(lines)})
	return nil
}
