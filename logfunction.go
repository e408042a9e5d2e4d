package crosstune

import (
	"context"

	logevent "github.com/asecurityteam/logevent/v2"
)

// logFetcher decorates every fetched function so that its invocation
// context carries a copy of the shared logger. Handlers pull the logger
// back out with LoggerFromContext.
type logFetcher struct {
	Logger  Logger
	Fetcher Fetcher
}

func (f *logFetcher) Fetch(ctx context.Context, name string) (Function, error) {
	fn, err := f.Fetcher.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	return &logDecorated{Function: fn, Logger: f.Logger}, nil
}

type logDecorated struct {
	Function
	Logger Logger
}

func (f *logDecorated) Invoke(ctx context.Context, payload []byte) ([]byte, error) {
	// Copy so per-invocation annotations never leak between requests.
	return f.Function.Invoke(logevent.NewContext(ctx, f.Logger.Copy()), payload)
}
