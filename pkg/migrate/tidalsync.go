package migrate

import (
	"context"
	"fmt"
	"sort"
	"strings"

	crosstune "github.com/crosstune/crosstune"
	"github.com/crosstune/crosstune/pkg/logs"
	"github.com/crosstune/crosstune/pkg/types"
)

// SyncClient is the slice of a Tidal account used by the two-account
// playlist sync.
type SyncClient interface {
	UserPlaylists(ctx context.Context) ([]types.Playlist, error)
	ListPlaylistTrackIDs(ctx context.Context, playlistID string) ([]string, error)
	AddTracksByIDs(ctx context.Context, playlistID string, ids []string, avoidDuplicates bool) (int, error)
}

// SyncPlaylistReport is the outcome for one shared playlist.
type SyncPlaylistReport struct {
	Title string `json:"title"`
	// Union is the combined track count across both accounts.
	Union  int `json:"union"`
	AddedA int `json:"addedA"`
	AddedB int `json:"addedB"`
}

// SyncReport is the outcome of a sync run.
type SyncReport struct {
	Playlists []SyncPlaylistReport `json:"playlists"`
}

// TidalSync levels the shared playlists of two Tidal accounts: for
// every playlist title both accounts have, each side receives the
// tracks it is missing from the other. Playlists are never created and
// tracks are never removed.
type TidalSync struct {
	A, B            SyncClient
	AvoidDuplicates bool
	// Playlists restricts the run to the named shared playlists.
	Playlists []string
}

type syncSide struct {
	playlist types.Playlist
	ids      []string
	set      map[string]struct{}
}

func loadSide(ctx context.Context, client SyncClient, playlist types.Playlist) (syncSide, error) {
	ids, err := client.ListPlaylistTrackIDs(ctx, playlist.ID)
	if err != nil {
		return syncSide{}, fmt.Errorf("list tracks of %q: %w", playlist.Title, err)
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return syncSide{playlist: playlist, ids: ids, set: set}, nil
}

// missingFrom returns the ids present in the union but not on the
// side, sorted for a deterministic insert order.
func missingFrom(side syncSide, union []string) []string {
	var missing []string
	for _, id := range union {
		if _, ok := side.set[id]; !ok {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)
	return missing
}

// Run executes the sync and returns per-playlist counts.
func (s *TidalSync) Run(ctx context.Context) (*SyncReport, error) {
	logger := crosstune.LoggerFromContext(ctx)
	stat := crosstune.StatFromContext(ctx)

	playlistsA, err := s.A.UserPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("list playlists of account A: %w", err)
	}
	playlistsB, err := s.B.UserPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("list playlists of account B: %w", err)
	}

	byTitleB := make(map[string]types.Playlist, len(playlistsB))
	for _, p := range playlistsB {
		byTitleB[strings.ToLower(strings.TrimSpace(p.Title))] = p
	}

	report := &SyncReport{}
	for _, pa := range playlistsA {
		pb, shared := byTitleB[strings.ToLower(strings.TrimSpace(pa.Title))]
		if !shared || !titleFilter(s.Playlists, pa.Title) {
			continue
		}

		sideA, err := loadSide(ctx, s.A, pa)
		if err != nil {
			return nil, err
		}
		sideB, err := loadSide(ctx, s.B, pb)
		if err != nil {
			return nil, err
		}

		// Union preserves first-seen order: A's tracks, then B's
		// additions.
		seen := make(map[string]struct{}, len(sideA.ids)+len(sideB.ids))
		var union []string
		for _, id := range append(append([]string{}, sideA.ids...), sideB.ids...) {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			union = append(union, id)
		}
		if len(union) == 0 {
			report.Playlists = append(report.Playlists, SyncPlaylistReport{Title: pa.Title})
			continue
		}

		addedA, err := s.A.AddTracksByIDs(ctx, pa.ID, missingFrom(sideA, union), s.AvoidDuplicates)
		if err != nil {
			return nil, fmt.Errorf("update %q on account A: %w", pa.Title, err)
		}
		addedB, err := s.B.AddTracksByIDs(ctx, pb.ID, missingFrom(sideB, union), s.AvoidDuplicates)
		if err != nil {
			return nil, fmt.Errorf("update %q on account B: %w", pb.Title, err)
		}

		report.Playlists = append(report.Playlists, SyncPlaylistReport{
			Title:  pa.Title,
			Union:  len(union),
			AddedA: addedA,
			AddedB: addedB,
		})
	}

	totalA, totalB := 0, 0
	for _, p := range report.Playlists {
		totalA += p.AddedA
		totalB += p.AddedB
	}
	stat.Count(statInserted, float64(totalA+totalB), "target:tidal-sync")
	logger.Info(logs.SyncCompleted{
		Playlists: len(report.Playlists),
		AddedA:    totalA,
		AddedB:    totalB,
	})
	return report, nil
}
