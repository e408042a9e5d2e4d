package types

// Artist identifies a performing artist on any provider.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Album identifies the album a track belongs to.
type Album struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Track is the normalized track shape produced by every provider
// library. IDs are strings at the boundary: Tidal ids are numeric
// strings, YouTube video ids are 11 character strings, and Spotify
// ids are base62 strings.
type Track struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	DurationSec int      `json:"duration,omitempty"`
	Album       Album    `json:"album"`
	Artists     []Artist `json:"artists"`
	AddedAt     string   `json:"addedAt,omitempty"`
	IsLocal     bool     `json:"isLocal,omitempty"`
}

// Playlist is the normalized playlist shape produced by every
// provider library.
type Playlist struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	TrackCount  int    `json:"trackCount"`
	Owner       string `json:"owner,omitempty"`
}

// Candidate is a search result annotated with a match score.
type Candidate struct {
	Track
	Score int `json:"score"`
}

// Match summarizes the best candidate found for a source track.
type Match struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Artists string `json:"artists"`
	URL     string `json:"url,omitempty"`
}
