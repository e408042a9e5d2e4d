package httpx

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
)

// CaptureRedirect serves the loopback redirect target of an OAuth
// authorization flow and waits for the provider to deliver the code.
// The redirect URL must use a host the process can bind, which is the
// 127.0.0.1 loopback for every provider this service talks to. The
// state parameter echoed by the provider must match state exactly.
func CaptureRedirect(ctx context.Context, redirectURL string, state string) (string, error) {
	u, err := url.Parse(redirectURL)
	if err != nil {
		return "", fmt.Errorf("parse redirect url %q: %w", redirectURL, err)
	}

	type result struct {
		code string
		err  error
	}
	results := make(chan result, 1)
	deliver := func(res result) {
		select {
		case results <- res:
		default:
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc(u.Path, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			deliver(result{err: errors.New("authorization state mismatch")})
			return
		}
		if name := q.Get("error"); name != "" {
			http.Error(w, name, http.StatusBadRequest)
			deliver(result{err: fmt.Errorf("authorization refused: %s", name)})
			return
		}
		fmt.Fprintln(w, "Authorization complete. You can close this tab.")
		deliver(result{code: q.Get("code")})
	})

	listener, err := net.Listen("tcp", u.Host)
	if err != nil {
		return "", fmt.Errorf("listen on %s: %w", u.Host, err)
	}
	server := &http.Server{Handler: mux}
	go func() {
		_ = server.Serve(listener)
	}()
	defer func() {
		_ = server.Shutdown(context.Background())
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-results:
		return res.code, res.err
	}
}
