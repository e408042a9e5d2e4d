// Package match implements the candidate scoring heuristic used to resolve a
// source track against search results from a destination provider. Scores are
// in the 0..100 range and the weights are part of the product behavior: they
// determine which track ends up in the destination playlist.
package match

import (
	"regexp"
	"sort"
	"strings"

	"github.com/crosstune/crosstune/pkg/types"
)

// PenalWords are terms that lower a candidate's score when they appear in
// the candidate title without being part of the query.
var PenalWords = []string{"cover", "karaoke", "remix", "instrumental", "live"}

var (
	spaceRE     = regexp.MustCompile(`\s+`)
	tokenRE     = regexp.MustCompile(`[^\w]+`)
	parenRE     = regexp.MustCompile(`\([^()]*\)|--.*?--`)
	tidalURLRE  = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?(?:listen\.|open\.)?tidal\.com/(?:browse/)?track/(\d+)`)
	digitsRE    = regexp.MustCompile(`^\d+$`)
	youtubeIDRE = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?(?:m\.)?(?:youtube\.com/watch\?v=|youtu\.be/)([\w-]{11})`)
	bareVideoRE = regexp.MustCompile(`^[\w-]{11}$`)
)

// Normalize lowercases, collapses runs of whitespace, and trims.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = spaceRE.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// CleanTitle strips parenthesized segments and "--...--" spans from a track
// title before it is used as a search query. Remaster and feature suffixes
// hurt recall on every provider.
func CleanTitle(s string) string {
	return strings.TrimSpace(parenRE.ReplaceAllString(s, ""))
}

// BuildQuery joins track and artist into a free text query.
func BuildQuery(track, artist string) string {
	if artist == "" {
		return track
	}
	if track == "" {
		return artist
	}
	return track + " - " + artist
}

// Options tune provider specific scoring behavior.
type Options struct {
	// ArtistInLine is the weight applied when the artist name appears in
	// the candidate's artist (or channel) line.
	ArtistInLine int
	// PenalWeight is subtracted per penalty word found in the candidate
	// title that was not part of the query.
	PenalWeight int
	// CategoryBonus is added when the candidate is flagged as music
	// content by the provider.
	CategoryBonus int
	// PenaltyWords overrides PenalWords when non-nil.
	PenaltyWords []string
}

// TidalOptions reproduce the weighting used against Tidal search results.
func TidalOptions() Options {
	return Options{ArtistInLine: 20, PenalWeight: 8}
}

// YouTubeOptions reproduce the weighting used against YouTube search
// results, where the channel is a weaker artist signal than a real
// artist line and the music category carries a small bonus. Live
// versions are common on YouTube and are not penalized there.
func YouTubeOptions() Options {
	return Options{
		ArtistInLine:  15,
		PenalWeight:   10,
		CategoryBonus: 5,
		PenaltyWords:  []string{"cover", "karaoke", "remix", "instrumental"},
	}
}

// Score rates a candidate 0..100 against the requested track and artist.
//
// A full substring match of the track title is worth 55 points, otherwise
// each query token found in the title is worth 7 points up to a cap of 35.
// The artist contributes 20 points when present in the candidate title and
// ArtistInLine points when present in the artist line. Each penalty word in
// the title that the query did not ask for subtracts PenalWeight. The result
// is clamped to [0, 100].
func Score(track, artist string, title, artistLine string, isMusic bool, opts Options) int {
	ntrack := Normalize(track)
	nartist := Normalize(artist)
	title = Normalize(title)
	artistLine = Normalize(artistLine)

	score := 0
	if ntrack != "" && strings.Contains(title, ntrack) {
		score += 55
	} else {
		hits := 0
		for _, tok := range tokenRE.Split(ntrack, -1) {
			if tok != "" && strings.Contains(title, tok) {
				hits++
			}
		}
		score += min(35, 7*hits)
	}

	if nartist != "" {
		if strings.Contains(title, nartist) {
			score += 20
		}
		if strings.Contains(artistLine, nartist) {
			score += opts.ArtistInLine
		}
	}

	words := opts.PenaltyWords
	if words == nil {
		words = PenalWords
	}
	for _, w := range words {
		if strings.Contains(title, w) && !strings.Contains(ntrack, w) {
			score -= opts.PenalWeight
		}
	}

	if isMusic {
		score += opts.CategoryBonus
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// ScoreCandidate rates a normalized candidate track.
func ScoreCandidate(track, artist string, c types.Track, opts Options) int {
	names := make([]string, 0, len(c.Artists))
	for _, a := range c.Artists {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return Score(track, artist, c.Title, strings.Join(names, ", "), false, opts)
}

// RankCandidates scores and sorts candidates from best to worst. The sort is
// stable so equal scores keep the provider's relevance order.
func RankCandidates(track, artist string, items []types.Track, opts Options) []types.Candidate {
	out := make([]types.Candidate, 0, len(items))
	for _, it := range items {
		out = append(out, types.Candidate{
			Track: it,
			Score: ScoreCandidate(track, artist, it, opts),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// ExtractTidalTrackID pulls a numeric track id out of a Tidal track URL or a
// bare numeric string. Returns the empty string when no id is present.
func ExtractTidalTrackID(value string) string {
	s := strings.TrimSpace(value)
	if s == "" {
		return ""
	}
	if m := tidalURLRE.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	if digitsRE.MatchString(s) {
		return s
	}
	return ""
}

// ExtractYouTubeVideoID pulls an 11 character video id out of a YouTube
// watch or share URL, or accepts a bare id as-is. Returns the empty
// string when no id is present.
func ExtractYouTubeVideoID(value string) string {
	s := strings.TrimSpace(value)
	if s == "" {
		return ""
	}
	if m := youtubeIDRE.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	if bareVideoRE.MatchString(s) {
		return s
	}
	return ""
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
