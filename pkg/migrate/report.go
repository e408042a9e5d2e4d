package migrate

import (
	"fmt"
	"strings"
)

// SkippedTrack is a source track that was not inserted.
type SkippedTrack struct {
	Playlist string `json:"playlist"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Score    int    `json:"score"`
}

// Line renders the report record for a skipped track.
func (s SkippedTrack) Line() string {
	return fmt.Sprintf("%s | %s — %s", s.Playlist, s.Title, s.Artist)
}

// PlaylistReport is the outcome for one playlist.
type PlaylistReport struct {
	Name     string         `json:"name"`
	Total    int            `json:"total"`
	Inserted int            `json:"inserted"`
	Skipped  []SkippedTrack `json:"skipped,omitempty"`
	// Existing marks playlists left untouched because the destination
	// already had them.
	Existing bool   `json:"existing,omitempty"`
	CoverKey string `json:"coverKey,omitempty"`
}

// FavoritesReport is the outcome of a liked songs migration.
type FavoritesReport struct {
	Total    int            `json:"total"`
	Inserted int            `json:"inserted"`
	Skipped  []SkippedTrack `json:"skipped,omitempty"`
}

// Report is the outcome of a migration run.
type Report struct {
	Playlists []PlaylistReport `json:"playlists"`
	Favorites *FavoritesReport `json:"favorites,omitempty"`
	ReportKey string           `json:"reportKey,omitempty"`
}

// SkippedLines renders every skipped track as report records.
func (r *Report) SkippedLines() []string {
	var lines []string
	for _, p := range r.Playlists {
		for _, s := range p.Skipped {
			lines = append(lines, s.Line())
		}
	}
	if r.Favorites != nil {
		for _, s := range r.Favorites.Skipped {
			lines = append(lines, s.Line())
		}
	}
	return lines
}

func equalFoldTrim(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
