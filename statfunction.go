package crosstune

import (
	"context"

	"github.com/rs/xstats"
)

// statFetcher decorates every fetched function so that its invocation
// context carries the stat client. Handlers pull it back out with
// StatFromContext.
type statFetcher struct {
	Stat    Stat
	Fetcher Fetcher
}

func (f *statFetcher) Fetch(ctx context.Context, name string) (Function, error) {
	fn, err := f.Fetcher.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	return &statDecorated{Function: fn, Stat: f.Stat}, nil
}

type statDecorated struct {
	Function
	Stat Stat
}

func (f *statDecorated) Invoke(ctx context.Context, payload []byte) ([]byte, error) {
	return f.Function.Invoke(xstats.NewContext(ctx, f.Stat), payload)
}
