package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func jsonDecode(r *http.Request, out interface{}) error {
	return json.NewDecoder(r.Body).Decode(out)
}

func newTestClient(baseURL string) *Client {
	c := New(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test"}))
	c.api.BaseURL = baseURL
	return c
}

func TestSearchTracksAnnotatesCategory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/search":
			assert.Equal(t, "video", r.URL.Query().Get("type"))
			fmt.Fprint(w, `{"items":[
				{"id":{"videoId":"vid00000001"},"snippet":{"title":"Hey","channelTitle":"Dúo"}},
				{"id":{"videoId":"vid00000002"},"snippet":{"title":"Hey (Live)","channelTitle":"Concerts"}}
			]}`)
		case "/videos":
			assert.Equal(t, "vid00000001,vid00000002", r.URL.Query().Get("id"))
			fmt.Fprint(w, `{"items":[
				{"id":"vid00000001","snippet":{"categoryId":"10"}},
				{"id":"vid00000002","snippet":{"categoryId":"24"}}
			]}`)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	videos, err := newTestClient(server.URL).SearchTracks(context.Background(), "Hey - Dúo", SearchOptions{})
	require.NoError(t, err)
	require.Len(t, videos, 2)
	assert.Equal(t, "10", videos[0].CategoryID)
	assert.Equal(t, "24", videos[1].CategoryID)
}

func TestSearchTracksSkipVideosLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path, "videos lookup must be skipped")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"items":[{"id":{"videoId":"vid00000001"},"snippet":{"title":"Hey","channelTitle":"Dúo"}}]}`)
	}))
	defer server.Close()

	videos, err := newTestClient(server.URL).SearchTracks(context.Background(), "Hey", SearchOptions{SkipVideosLookup: true})
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Empty(t, videos[0].CategoryID)
}

func TestFindBestMatchPrefersMusicChannel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/search":
			fmt.Fprint(w, `{"items":[
				{"id":{"videoId":"vid00000001"},"snippet":{"title":"Hey (Karaoke)","channelTitle":"Sing Along"}},
				{"id":{"videoId":"vid00000002"},"snippet":{"title":"Hey","channelTitle":"Dúo"}}
			]}`)
		case "/videos":
			fmt.Fprint(w, `{"items":[
				{"id":"vid00000001","snippet":{"categoryId":"24"}},
				{"id":"vid00000002","snippet":{"categoryId":"10"}}
			]}`)
		}
	}))
	defer server.Close()

	id, score, summary, err := newTestClient(server.URL).FindBestMatch(context.Background(), "Hey", "Dúo", SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, "vid00000002", id)
	// substring 55 + channel 15 + category 5 = 75
	assert.Equal(t, 75, score)
	assert.Equal(t, "https://www.youtube.com/watch?v=vid00000002", summary.URL)
}

func TestFindBestMatchUsesCache(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/search" {
			fmt.Fprint(w, `{"items":[{"id":{"videoId":"vid00000009"},"snippet":{"title":"Run","channelTitle":"Someone"}}]}`)
			return
		}
		fmt.Fprint(w, `{"items":[{"id":"vid00000009","snippet":{"categoryId":"10"}}]}`)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	c.Cache = NewSearchCache()

	id1, score1, _, err := c.FindBestMatch(context.Background(), "Run", "Someone", SearchOptions{})
	require.NoError(t, err)
	require.Equal(t, "vid00000009", id1)
	afterFirst := calls

	id2, score2, _, err := c.FindBestMatch(context.Background(), "  RUN ", "someone", SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
	assert.Equal(t, score1, score2)
	assert.Equal(t, afterFirst, calls, "second lookup must be served from cache")
}

func TestMyPlaylistsFollowsPageToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/playlists", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("pageToken") {
		case "":
			fmt.Fprint(w, `{"nextPageToken":"tok2","items":[{"id":"pl1","snippet":{"title":"road songs"},"contentDetails":{"itemCount":12}}]}`)
		case "tok2":
			fmt.Fprint(w, `{"items":[{"id":"pl2","snippet":{"title":"gym"},"contentDetails":{"itemCount":3}}]}`)
		default:
			t.Fatalf("unexpected pageToken %q", r.URL.Query().Get("pageToken"))
		}
	}))
	defer server.Close()

	playlists, err := newTestClient(server.URL).MyPlaylists(context.Background())
	require.NoError(t, err)
	require.Len(t, playlists, 2)
	assert.Equal(t, "pl1", playlists[0].ID)
	assert.Equal(t, 12, playlists[0].TrackCount)
	assert.Equal(t, "gym", playlists[1].Title)
}

func TestAddVideosAvoidsDuplicates(t *testing.T) {
	var inserted []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodGet {
			require.Equal(t, "/playlistItems", r.URL.Path)
			fmt.Fprint(w, `{"items":[{"snippet":{"title":"a"},"contentDetails":{"videoId":"vid00000001"}}]}`)
			return
		}
		var body struct {
			Snippet struct {
				PlaylistID string `json:"playlistId"`
				ResourceID struct {
					VideoID string `json:"videoId"`
				} `json:"resourceId"`
			} `json:"snippet"`
		}
		require.NoError(t, jsonDecode(r, &body))
		assert.Equal(t, "pl1", body.Snippet.PlaylistID)
		inserted = append(inserted, body.Snippet.ResourceID.VideoID)
		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	ids := []string{"vid00000001", "vid00000002", "vid00000002", "https://youtu.be/vid00000003"}
	added, err := newTestClient(server.URL).AddVideos(context.Background(), "pl1", ids, true)
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, []string{"vid00000002", "vid00000003"}, inserted)
}

func TestAddVideosAcceptsBareIDs(t *testing.T) {
	// Resolved matches carry bare video ids rather than watch URLs, so
	// the insert path must accept them as-is.
	var inserted []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var body struct {
			Snippet struct {
				ResourceID struct {
					VideoID string `json:"videoId"`
				} `json:"resourceId"`
			} `json:"snippet"`
		}
		require.NoError(t, jsonDecode(r, &body))
		inserted = append(inserted, body.Snippet.ResourceID.VideoID)
		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	added, err := newTestClient(server.URL).AddVideos(context.Background(), "pl1", []string{"dQw4w9WgXcQ", "vid00000002"}, false)
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, []string{"dQw4w9WgXcQ", "vid00000002"}, inserted)
}

func TestAddPlannedHonorsThreshold(t *testing.T) {
	var inserted int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		inserted++
		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	plan := []PlannedVideo{
		{ID: "vid00000001", Score: 80},
		{ID: "vid00000002", Score: 20},
		{},
	}
	added, skipped, err := newTestClient(server.URL).AddPlanned(context.Background(), "pl1", plan, 51, false)
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Len(t, skipped, 2)
	assert.Equal(t, 1, inserted)
}
