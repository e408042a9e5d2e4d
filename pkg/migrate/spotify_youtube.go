package migrate

import (
	"context"
	"fmt"
	"strings"
	"time"

	crosstune "github.com/crosstune/crosstune"
	"github.com/crosstune/crosstune/pkg/logs"
	"github.com/crosstune/crosstune/pkg/tokenstore"
	"github.com/crosstune/crosstune/pkg/types"
)

// YouTubeDestination is the write side of a YouTube account.
type YouTubeDestination interface {
	MyPlaylists(ctx context.Context) ([]types.Playlist, error)
	CreatePlaylist(ctx context.Context, title, description, privacyStatus string) (types.Playlist, error)
	AddVideos(ctx context.Context, playlistID string, videoIDs []string, avoidDuplicates bool) (int, error)
}

// SpotifyToYouTube copies playlists from a Spotify account into a
// YouTube account.
type SpotifyToYouTube struct {
	Source Source
	Dest   YouTubeDestination
	// Resolve finds the destination video for a track. Callers wire
	// the YouTube client's FindBestMatch with their search options.
	Resolve ResolveFunc
	// Store receives the skipped tracks report. Nil disables it.
	Store *tokenstore.Store

	Threshold       int
	Concurrency     int
	AvoidDuplicates bool
	Playlists       []string
	// PrivacyStatus for created playlists: private, unlisted, or
	// public. Empty means private.
	PrivacyStatus string

	now func() time.Time
}

func (m *SpotifyToYouTube) threshold() int {
	if m.Threshold <= 0 {
		return DefaultThreshold
	}
	return m.Threshold
}

// Run executes the migration and returns the per-playlist report.
func (m *SpotifyToYouTube) Run(ctx context.Context) (*Report, error) {
	logger := crosstune.LoggerFromContext(ctx)
	stat := crosstune.StatFromContext(ctx)

	playlists, err := m.Source.MyPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("list source playlists: %w", err)
	}
	logger.Info(logs.MigrationStarted{Target: "youtube", Playlists: len(playlists)})

	existing, err := m.Dest.MyPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("list destination playlists: %w", err)
	}
	existingTitles := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		existingTitles[strings.ToLower(strings.TrimSpace(p.Title))] = struct{}{}
	}

	planner := &Planner{
		Resolve:     m.Resolve,
		Concurrency: m.Concurrency,
		MinScore:    m.threshold(),
	}

	report := &Report{}
	for _, playlist := range playlists {
		if !titleFilter(m.Playlists, playlist.Title) {
			continue
		}
		if _, ok := existingTitles[strings.ToLower(strings.TrimSpace(playlist.Title))]; ok {
			logger.Info(logs.PlaylistSkipped{Playlist: playlist.Title, Reason: "already-exists"})
			report.Playlists = append(report.Playlists, PlaylistReport{Name: playlist.Title, Existing: true})
			continue
		}

		start := time.Now()
		pr, err := m.migratePlaylist(ctx, planner, playlist)
		if err != nil {
			return nil, err
		}
		stat.Timing(statPlaylist, time.Since(start), "target:youtube")
		stat.Count(statResolved, float64(pr.Total), "target:youtube")
		stat.Count(statInserted, float64(pr.Inserted), "target:youtube")
		stat.Count(statSkipped, float64(len(pr.Skipped)), "target:youtube")
		report.Playlists = append(report.Playlists, pr)
	}

	if err := m.writeReport(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

func (m *SpotifyToYouTube) migratePlaylist(ctx context.Context, planner *Planner, playlist types.Playlist) (PlaylistReport, error) {
	logger := crosstune.LoggerFromContext(ctx)

	tracks, err := m.Source.PlaylistTracks(ctx, playlist.ID)
	if err != nil {
		return PlaylistReport{}, fmt.Errorf("list tracks of %q: %w", playlist.Title, err)
	}
	plan, err := planner.Plan(ctx, tracks)
	if err != nil {
		return PlaylistReport{}, fmt.Errorf("plan %q: %w", playlist.Title, err)
	}

	created, err := m.Dest.CreatePlaylist(ctx, playlist.Title, playlist.Description, m.PrivacyStatus)
	if err != nil {
		return PlaylistReport{}, fmt.Errorf("create playlist %q: %w", playlist.Title, err)
	}

	ids, skippedItems := splitPlan(plan)
	inserted, err := m.Dest.AddVideos(ctx, created.ID, ids, m.AvoidDuplicates)
	if err != nil {
		return PlaylistReport{}, fmt.Errorf("add videos to %q: %w", playlist.Title, err)
	}

	pr := PlaylistReport{Name: playlist.Title, Total: len(tracks), Inserted: inserted}
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

func (m *SpotifyToYouTube) writeReport(ctx context.Context, report *Report) error {
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
