package match

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/crosstune/crosstune/pkg/types"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "lowercases", in: "Viva La Vida", want: "viva la vida"},
		{name: "collapses whitespace", in: "  viva \t la\n vida ", want: "viva la vida"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "Yellow", want: "Yellow"},
		{name: "parenthesized suffix", in: "Yellow (2011 Remaster)", want: "Yellow"},
		{name: "dashed span", in: "Yellow --demo-- take", want: "Yellow  take"},
		{name: "nested left alone", in: "A (b (c))", want: "A ( (c))"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanTitle(tt.in))
		})
	}
}

func TestBuildQuery(t *testing.T) {
	assert.Equal(t, "Yellow - Coldplay", BuildQuery("Yellow", "Coldplay"))
	assert.Equal(t, "Yellow", BuildQuery("Yellow", ""))
	assert.Equal(t, "Coldplay", BuildQuery("", "Coldplay"))
}

func TestScore(t *testing.T) {
	tests := []struct {
		name       string
		track      string
		artist     string
		title      string
		artistLine string
		isMusic    bool
		opts       Options
		want       int
	}{
		{
			name:  "full title and artist line match",
			track: "Viva la Vida", artist: "Coldplay",
			title: "Viva la Vida", artistLine: "Coldplay",
			opts: TidalOptions(),
			want: 75,
		},
		{
			name:  "artist in title and line",
			track: "Viva la Vida", artist: "Coldplay",
			title: "Coldplay - Viva la Vida", artistLine: "Coldplay",
			opts: TidalOptions(),
			want: 95,
		},
		{
			name:  "token hits capped at 35",
			track: "one two three four five six", artist: "",
			title: "six five four three two one",
			opts:  TidalOptions(),
			// Six token hits would be 42 but the cap holds at 35.
			want: 35,
		},
		{
			name:  "partial token match",
			track: "viva vida nada", artist: "",
			title: "viva la vida",
			opts:  TidalOptions(),
			want: 14,
		},
		{
			name:  "penalty word not in query",
			track: "Viva la Vida", artist: "Coldplay",
			title: "Viva la Vida (karaoke version)", artistLine: "Karaoke Hits",
			opts: TidalOptions(),
			want: 47,
		},
		{
			name:  "penalty word requested is free",
			track: "Thriller live", artist: "",
			title: "thriller live at wembley",
			opts:  TidalOptions(),
			want: 55,
		},
		{
			name:  "clamped at zero",
			track: "zzz", artist: "",
			title: "cover karaoke remix instrumental live",
			opts:  TidalOptions(),
			want: 0,
		},
		{
			name:  "youtube weights and category bonus",
			track: "Yellow", artist: "Coldplay",
			title: "Yellow", artistLine: "Coldplay", isMusic: true,
			opts: YouTubeOptions(),
			want: 75, // 55 + 15 + 5
		},
		{
			name:  "youtube does not penalize live",
			track: "Yellow", artist: "Coldplay",
			title: "Yellow live", artistLine: "Coldplay",
			opts: YouTubeOptions(),
			want: 70, // 55 + 15, no live penalty
		},
		{
			name:  "tidal penalizes live",
			track: "Yellow", artist: "Coldplay",
			title: "Yellow live", artistLine: "Coldplay",
			opts: TidalOptions(),
			want: 67, // 55 + 20 - 8
		},
		{
			name:  "youtube still penalizes karaoke",
			track: "Yellow", artist: "Coldplay",
			title: "Yellow karaoke", artistLine: "Coldplay",
			opts: YouTubeOptions(),
			want: 60, // 55 + 15 - 10
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.track, tt.artist, tt.title, tt.artistLine, tt.isMusic, tt.opts)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRankCandidatesOrderAndStability(t *testing.T) {
	items := []types.Track{
		{ID: "1", Title: "Viva la Vida (karaoke)", Artists: []types.Artist{{Name: "Karaoke Band"}}},
		{ID: "2", Title: "Viva la Vida", Artists: []types.Artist{{Name: "Coldplay"}}},
		{ID: "3", Title: "Viva la Vida", Artists: []types.Artist{{Name: "Coldplay"}}},
	}
	ranked := RankCandidates("Viva la Vida", "Coldplay", items, TidalOptions())
	assert.Equal(t, "2", ranked[0].ID)
	assert.Equal(t, "3", ranked[1].ID, "equal scores keep provider order")
	assert.Equal(t, "1", ranked[2].ID)
	assert.True(t, ranked[0].Score > ranked[2].Score)
}

func TestExtractTidalTrackID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "browse url", in: "https://tidal.com/browse/track/12345678", want: "12345678"},
		{name: "listen url", in: "https://listen.tidal.com/track/12345678", want: "12345678"},
		{name: "open url", in: "open.tidal.com/track/99", want: "99"},
		{name: "bare digits", in: " 4242 ", want: "4242"},
		{name: "not a track url", in: "https://tidal.com/browse/album/1", want: ""},
		{name: "garbage", in: "hello", want: ""},
		{name: "empty", in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractTidalTrackID(tt.in))
		})
	}
}

func TestExtractYouTubeVideoID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "watch url", in: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{name: "short url", in: "https://youtu.be/dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{name: "mobile url", in: "m.youtube.com/watch?v=dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{name: "bare id", in: "dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{name: "bare id padded", in: " vid00000002 ", want: "vid00000002"},
		{name: "bare id wrong length", in: "dQw4w9WgXc", want: ""},
		{name: "garbage", in: "not a url", want: ""},
		{name: "empty", in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractYouTubeVideoID(tt.in))
		})
	}
}
