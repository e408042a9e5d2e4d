package tidal

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/crosstune/crosstune/pkg/types"
)

func newTestClient(baseURL string) *Client {
	c := New(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test"}))
	c.api.BaseURL = baseURL
	c.userID = "42"
	c.countryCode = "US"
	return c
}

func TestSessionResolution(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sessions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"sessionId":"s","userId":77,"countryCode":"DE"}`)
	}))
	defer server.Close()

	c := New(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test"}))
	c.api.BaseURL = server.URL

	userID, countryCode, err := c.session(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "77", userID)
	assert.Equal(t, "DE", countryCode)

	// Cached: the second call must not hit the server again.
	server.Close()
	userID, _, err = c.session(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "77", userID)
}

func TestUserPlaylistsPagination(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/42/playlists", r.URL.Path)
		assert.Equal(t, "US", r.URL.Query().Get("countryCode"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("offset") {
		case "0":
			fmt.Fprint(w, `{"totalNumberOfItems":3,"items":[
				{"uuid":"u1","title":"road songs","numberOfTracks":12,"creator":{"id":42}},
				{"uuid":"u2","title":"gym","numberOfTracks":3,"creator":{"id":42}}
			]}`)
		case "2":
			fmt.Fprint(w, `{"totalNumberOfItems":3,"items":[{"uuid":"u3","title":"quiet","numberOfTracks":1,"creator":{"id":42}}]}`)
		default:
			t.Fatalf("unexpected offset %q", r.URL.Query().Get("offset"))
		}
	}))
	defer server.Close()

	playlists, err := newTestClient(server.URL).UserPlaylists(context.Background())
	require.NoError(t, err)
	require.Len(t, playlists, 3)
	assert.Equal(t, "u1", playlists[0].ID)
	assert.Equal(t, "road songs", playlists[0].Title)
	assert.Equal(t, "42", playlists[0].Owner)
	assert.Equal(t, "u3", playlists[2].ID)
}

func TestNormalizeTrackIDs(t *testing.T) {
	in := []string{
		"https://tidal.com/browse/track/12345",
		"12345",
		"67890",
		"not a track",
		"https://listen.tidal.com/track/67890",
		"111",
	}
	assert.Equal(t, []string{"12345", "67890", "111"}, NormalizeTrackIDs(in))
}

func TestAddTracksByIDsBatches(t *testing.T) {
	ids := make([]string, 0, 205)
	for i := 0; i < 205; i++ {
		ids = append(ids, fmt.Sprintf("%d", 1000+i))
	}

	var batches []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/playlists/u1/tracks", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "*", r.Header.Get("If-None-Match"))
		require.NoError(t, r.ParseForm())
		batches = append(batches, len(strings.Split(r.PostForm.Get("trackIds"), ",")))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	added, err := newTestClient(server.URL).AddTracksByIDs(context.Background(), "u1", ids, false)
	require.NoError(t, err)
	assert.Equal(t, 205, added)
	assert.Equal(t, []int{100, 100, 5}, batches)
}

func TestAddTracksByIDsAvoidDuplicates(t *testing.T) {
	var posted []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodGet {
			fmt.Fprint(w, `{"totalNumberOfItems":2,"items":[
				{"id":1,"title":"a","duration":10,"album":{"id":9,"title":"x"},"artists":[{"id":5,"name":"A"}]},
				{"id":2,"title":"b","duration":10,"album":{"id":9,"title":"x"},"artists":[{"id":5,"name":"A"}]}
			]}`)
			return
		}
		require.NoError(t, r.ParseForm())
		posted = strings.Split(r.PostForm.Get("trackIds"), ",")
	}))
	defer server.Close()

	added, err := newTestClient(server.URL).AddTracksByIDs(context.Background(), "u1", []string{"1", "2", "3", "3"}, true)
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, []string{"3"}, posted)
}

func TestAddTracksByIDsNothingToAdd(t *testing.T) {
	// No server: an empty normalized set must not produce any request.
	c := newTestClient("http://127.0.0.1:0")
	added, err := c.AddTracksByIDs(context.Background(), "u1", []string{"garbage"}, false)
	require.NoError(t, err)
	assert.Zero(t, added)
}

func TestGetOrCreatePlaylistMatchesCaseInsensitive(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method, "existing playlist must not trigger a create")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"totalNumberOfItems":1,"items":[{"uuid":"u1","title":"Road Songs","numberOfTracks":12,"creator":{"id":42}}]}`)
	}))
	defer server.Close()

	p, err := newTestClient(server.URL).GetOrCreatePlaylist(context.Background(), "road songs", "")
	require.NoError(t, err)
	assert.Equal(t, "u1", p.ID)
}

func TestGetOrCreatePlaylistCreatesOnMiss(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodGet {
			fmt.Fprint(w, `{"totalNumberOfItems":0,"items":[]}`)
			return
		}
		require.Equal(t, "/users/42/playlists", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "fresh", r.PostForm.Get("title"))
		fmt.Fprint(w, `{"uuid":"u9","title":"fresh","numberOfTracks":0,"creator":{"id":42}}`)
	}))
	defer server.Close()

	p, err := newTestClient(server.URL).GetOrCreatePlaylist(context.Background(), "fresh", "")
	require.NoError(t, err)
	assert.Equal(t, "u9", p.ID)
}

func TestAddFavoritesOneByOne(t *testing.T) {
	var calls []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/42/favorites/tracks", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		calls = append(calls, r.PostForm.Get("trackIds"))
	}))
	defer server.Close()

	added, err := newTestClient(server.URL).AddFavoritesByIDs(context.Background(), []string{"1", "2", "1"}, false)
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, []string{"1", "2"}, calls)
}

func TestAddFavoritesByMetadata(t *testing.T) {
	var favored []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/search/tracks" {
			if strings.Contains(r.URL.Query().Get("query"), "Nothing") {
				fmt.Fprint(w, `{"items":[]}`)
				return
			}
			fmt.Fprint(w, `{"items":[{"id":7,"title":"Hey","duration":200,"album":{"id":9,"title":"x"},"artists":[{"id":6,"name":"Dúo"}]}]}`)
			return
		}
		require.Equal(t, "/users/42/favorites/tracks", r.URL.Path)
		require.NoError(t, r.ParseForm())
		favored = append(favored, r.PostForm.Get("trackIds"))
	}))
	defer server.Close()

	tracks := []types.Track{
		{Title: "Hey", Artists: []types.Artist{{Name: "Dúo"}}},
		{Title: "Nothing", Artists: []types.Artist{{Name: "Nobody"}}},
	}
	added, err := newTestClient(server.URL).AddFavoritesByMetadata(context.Background(), tracks, 7, false)
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, []string{"7"}, favored)
}

func TestFindBestMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search/tracks", r.URL.Path)
		assert.Equal(t, "hey - dúo", strings.ToLower(r.URL.Query().Get("query")))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"items":[
			{"id":1,"title":"Hey (Karaoke Version)","duration":200,"album":{"id":9,"title":"x"},"artists":[{"id":5,"name":"Karaoke Stars"}]},
			{"id":2,"title":"Hey","duration":201,"album":{"id":9,"title":"x"},"artists":[{"id":6,"name":"Dúo"}]}
		]}`)
	}))
	defer server.Close()

	id, score, summary, err := newTestClient(server.URL).FindBestMatch(context.Background(), "Hey", "Dúo", 7)
	require.NoError(t, err)
	assert.Equal(t, "2", id)
	// substring 55 + artist in line 20 = 75
	assert.Equal(t, 75, score)
	assert.Equal(t, "Hey", summary.Title)
	assert.Equal(t, "Dúo", summary.Artists)
}

func TestFindBestMatchNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"items":[]}`)
	}))
	defer server.Close()

	id, score, _, err := newTestClient(server.URL).FindBestMatch(context.Background(), "nothing", "nobody", 7)
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.Zero(t, score)
}

func TestAddPlannedHonorsThreshold(t *testing.T) {
	var posted []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		posted = strings.Split(r.PostForm.Get("trackIds"), ",")
	}))
	defer server.Close()

	plan := []PlannedTrack{
		{Source: types.Track{Title: "a"}, ID: "1", Score: 90},
		{Source: types.Track{Title: "b"}, ID: "2", Score: 40},
		{Source: types.Track{Title: "c"}},
	}
	added, skipped, err := newTestClient(server.URL).AddPlanned(context.Background(), "u1", plan, 51, false)
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	require.Len(t, skipped, 2)
	assert.Equal(t, "b", skipped[0].Source.Title)
	assert.Equal(t, "c", skipped[1].Source.Title)
	assert.Equal(t, []string{"1"}, posted)
}
