package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	settings "github.com/asecurityteam/settings/v2"

	crosstune "github.com/crosstune/crosstune"
	"github.com/crosstune/crosstune/pkg/deezer"
	v1 "github.com/crosstune/crosstune/pkg/handlers/v1"
	"github.com/crosstune/crosstune/pkg/migrate"
	"github.com/crosstune/crosstune/pkg/spotify"
	"github.com/crosstune/crosstune/pkg/tidal"
	"github.com/crosstune/crosstune/pkg/tokenstore"
	"github.com/crosstune/crosstune/pkg/types"
	"github.com/crosstune/crosstune/pkg/youtube"
)

func main() {
	ctx := context.Background()

	// Handle the -h flag and print settings.
	fs := flag.NewFlagSet("", flag.ContinueOnError)
	fs.Usage = func() {}
	if err := fs.Parse(os.Args[1:]); err == flag.ErrHelp {
		fmt.Println(crosstune.Help())
		return
	}

	source, err := settings.NewEnvSource(os.Environ())
	if err != nil {
		panic(err.Error())
	}
	prefixed := &settings.PrefixSource{Source: source, Prefix: []string{"CROSSTUNE"}}

	store := new(tokenstore.Store)
	if err := settings.NewComponent(ctx, prefixed, tokenstore.NewComponent(), store); err != nil {
		panic(err.Error())
	}
	spotifyProvider := new(spotify.Provider)
	if err := settings.NewComponent(ctx, prefixed, spotify.NewComponent(), spotifyProvider); err != nil {
		panic(err.Error())
	}
	tidalProvider := new(tidal.Provider)
	if err := settings.NewComponent(ctx, prefixed, tidal.NewComponent(), tidalProvider); err != nil {
		panic(err.Error())
	}
	youtubeProvider := new(youtube.Provider)
	if err := settings.NewComponent(ctx, prefixed, youtube.NewComponent(), youtubeProvider); err != nil {
		panic(err.Error())
	}
	deezerProvider := new(deezer.Provider)
	if err := settings.NewComponent(ctx, prefixed, deezer.NewComponent(), deezerProvider); err != nil {
		panic(err.Error())
	}

	syncHandler := &v1.Sync{
		Clients: func(ctx context.Context, user string) (migrate.SyncClient, error) {
			return tidalProvider.Client(ctx, store, user)
		},
	}
	migrateHandler := &v1.Migrate{
		Source: func(ctx context.Context) (migrate.Source, migrate.CoverSource, error) {
			client, err := spotifyProvider.Client(ctx, store)
			if err != nil {
				return nil, nil, err
			}
			return client, client, nil
		},
		Tidal: func(ctx context.Context, user string) (migrate.TidalDestination, error) {
			return tidalProvider.Client(ctx, store, user)
		},
		YouTube: func(ctx context.Context) (migrate.YouTubeDestination, migrate.ResolveFunc, func(context.Context) error, error) {
			client, err := youtubeProvider.Client(ctx, store)
			if err != nil {
				return nil, nil, nil, err
			}
			resolve := func(ctx context.Context, title, artist string) (string, int, types.Match, error) {
				return client.FindBestMatch(ctx, title, artist, youtube.SearchOptions{})
			}
			flush := func(ctx context.Context) error {
				if client.Cache == nil {
					return nil
				}
				return client.Cache.Save(ctx, store, youtubeProvider.User)
			}
			return client, resolve, flush, nil
		},
		Store: store,
	}
	favoritesHandler := &v1.Favorites{
		Providers: map[string]v1.FavoritesClientFn{
			"tidal": func(ctx context.Context, user string) (v1.FavoritesAdder, error) {
				return tidalProvider.Client(ctx, store, user)
			},
			// The Deezer API exposes no favorites write scope for this
			// application.
			"deezer": func(context.Context, string) (v1.FavoritesAdder, error) {
				return nil, v1.ErrReadOnlyProvider
			},
		},
	}

	fetcher := &crosstune.StaticFetcher{
		Functions: map[string]crosstune.Function{
			// The keys of this map represent the function name and will
			// be accessed using the URL parameter of the Invoke API call.
			"sync":      crosstune.NewFunction(syncHandler.Handle),
			"migrate":   crosstune.NewFunction(migrateHandler.Handle),
			"favorites": crosstune.NewFunction(favoritesHandler.Handle),
		},
	}
	if err := crosstune.Start(ctx, source, fetcher); err != nil {
		panic(err.Error())
	}
}
