// Package logs defines the structured events emitted on the migration
// and sync paths.
package logs

// MigrationStarted marks the beginning of a playlist migration run.
type MigrationStarted struct {
	Message   string `logevent:"message,default=migration-started"`
	User      string `logevent:"user"`
	Target    string `logevent:"target"`
	Playlists int    `logevent:"playlists"`
}

// PlaylistMigrated reports the outcome for one playlist.
type PlaylistMigrated struct {
	Message  string `logevent:"message,default=playlist-migrated"`
	Playlist string `logevent:"playlist"`
	Total    int    `logevent:"total"`
	Inserted int    `logevent:"inserted"`
	Skipped  int    `logevent:"skipped"`
}

// PlaylistSkipped reports a playlist left untouched because the
// destination already has it.
type PlaylistSkipped struct {
	Message  string `logevent:"message,default=playlist-skipped"`
	Playlist string `logevent:"playlist"`
	Reason   string `logevent:"reason"`
}

// TrackSkipped reports a source track that was not inserted.
type TrackSkipped struct {
	Message  string `logevent:"message,default=track-skipped"`
	Playlist string `logevent:"playlist"`
	Track    string `logevent:"track"`
	Artist   string `logevent:"artist"`
	Score    int    `logevent:"score"`
}

// CoverCopied reports a playlist cover stored in the bucket.
type CoverCopied struct {
	Message  string `logevent:"message,default=cover-copied"`
	Playlist string `logevent:"playlist"`
	Key      string `logevent:"key"`
}

// CoverCopyFailed reports a cover that could not be stored or offered
// to the destination. Cover copy is best effort so this is a warning.
type CoverCopyFailed struct {
	Message  string `logevent:"message,default=cover-copy-failed"`
	Playlist string `logevent:"playlist"`
	Reason   string `logevent:"reason"`
}

// SyncCompleted reports the outcome of a two-account playlist sync.
type SyncCompleted struct {
	Message   string `logevent:"message,default=sync-completed"`
	Playlists int    `logevent:"playlists"`
	AddedA    int    `logevent:"addeda"`
	AddedB    int    `logevent:"addedb"`
}

// FavoritesMigrated reports the outcome of a liked songs migration.
type FavoritesMigrated struct {
	Message  string `logevent:"message,default=favorites-migrated"`
	Total    int    `logevent:"total"`
	Inserted int    `logevent:"inserted"`
	Skipped  int    `logevent:"skipped"`
}

// TokenMissing reports a token store miss for a provider and user.
type TokenMissing struct {
	Message  string `logevent:"message,default=token-missing"`
	Provider string `logevent:"provider"`
	User     string `logevent:"user"`
}

// ReportWritten reports a run report object landing in the bucket.
type ReportWritten struct {
	Message string `logevent:"message,default=report-written"`
	Key     string `logevent:"key"`
	Lines   int    `logevent:"lines"`
}
