package spotify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestClient(baseURL string) *Client {
	c := New(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test"}))
	c.api.BaseURL = baseURL
	return c
}

func TestMyPlaylistsFollowsPagination(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/me/playlists", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("offset") {
		case "":
			fmt.Fprintf(w, `{
				"next": %q,
				"items": [
					{"id":"p1","name":"road songs","tracks":{"total":12},"owner":{"id":"ana","display_name":"Ana"}},
					{"id":"p2","name":"gym","description":"loud","tracks":{"total":3},"owner":{"id":"ana","display_name":"Ana"}}
				]
			}`, server.URL+"/me/playlists?offset=50&limit=50")
		case "50":
			fmt.Fprint(w, `{"next": null, "items": [{"id":"p3","name":"quiet","tracks":{"total":1},"owner":{"id":"ana","display_name":"Ana"}}]}`)
		default:
			t.Fatalf("unexpected offset %q", r.URL.Query().Get("offset"))
		}
	}))
	defer server.Close()

	playlists, err := newTestClient(server.URL).MyPlaylists(context.Background())
	require.NoError(t, err)
	require.Len(t, playlists, 3)
	assert.Equal(t, "road songs", playlists[0].Title)
	assert.Equal(t, 12, playlists[0].TrackCount)
	assert.Equal(t, "Ana", playlists[0].Owner)
	assert.Equal(t, "loud", playlists[1].Description)
	assert.Equal(t, "p3", playlists[2].ID)
}

func TestPlaylistTracksSkipsNullEntries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/playlists/p1/tracks", r.URL.Path)
		assert.Equal(t, trackFields, r.URL.Query().Get("fields"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"next": null,
			"items": [
				{"added_at":"2024-01-02T03:04:05Z","track":{"id":"t1","name":"Hey","duration_ms":215000,"album":{"id":"a1","name":"First"},"artists":[{"id":"ar1","name":"Dúo"}]}},
				{"added_at":"2024-01-03T00:00:00Z","track":null},
				{"added_at":"2024-01-04T00:00:00Z","track":{"id":"","name":"Home Recording","duration_ms":10000,"is_local":true,"album":{"id":"","name":""},"artists":[{"id":"","name":"Me"}]}}
			]
		}`)
	}))
	defer server.Close()

	tracks, err := newTestClient(server.URL).PlaylistTracks(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, "Hey", tracks[0].Title)
	assert.Equal(t, 215, tracks[0].DurationSec)
	assert.Equal(t, "Dúo", tracks[0].Artists[0].Name)
	assert.Equal(t, "First", tracks[0].Album.Title)
	assert.True(t, tracks[1].IsLocal)
}

func TestSavedTracks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/me/tracks", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"next": null,
			"items": [{"added_at":"2024-05-01T00:00:00Z","track":{"id":"t9","name":"Run","duration_ms":180000,"album":{"id":"a9","name":"Laps"},"artists":[{"id":"ar9","name":"Someone"}]}}]
		}`)
	}))
	defer server.Close()

	tracks, err := newTestClient(server.URL).SavedTracks(context.Background())
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "Run", tracks[0].Title)
	assert.Equal(t, "2024-05-01T00:00:00Z", tracks[0].AddedAt)
}

func TestBestPlaylistImageURLPicksLargest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/playlists/p1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"images":[
			{"url":"https://img/small","width":60,"height":60},
			{"url":"https://img/big","width":640,"height":640},
			{"url":"https://img/mid","width":300,"height":300}
		]}`)
	}))
	defer server.Close()

	best, err := newTestClient(server.URL).BestPlaylistImageURL(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "https://img/big", best)
}

func TestBestPlaylistImageURLNoImages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"images":[]}`)
	}))
	defer server.Close()

	best, err := newTestClient(server.URL).BestPlaylistImageURL(context.Background(), "p1")
	require.NoError(t, err)
	assert.Empty(t, best)
}

func TestDownloadImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte{0xff, 0xd8, 0xff})
	}))
	defer server.Close()

	data, err := newTestClient(server.URL).DownloadImage(context.Background(), server.URL+"/cover.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff}, data)
}

func TestAuthenticatorCarriesPKCE(t *testing.T) {
	auth := NewAuthenticator(OAuthConfig("client-id", "http://127.0.0.1:8888/callback"), "state-1")
	u := auth.AuthCodeURL()
	assert.Contains(t, u, "code_challenge=")
	assert.Contains(t, u, "code_challenge_method=S256")
	assert.Contains(t, u, "state=state-1")
	assert.Equal(t, "state-1", auth.State())
}
