// Package httpx provides the authenticated JSON client shared by all
// provider packages. It layers bearer token injection, typed API errors,
// and exponential backoff on throttling responses over a plain
// *http.Client.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/oauth2"
)

// DefaultTimeout bounds every provider call unless the caller supplies
// its own http.Client.
const DefaultTimeout = 20 * time.Second

const maxRetryElapsed = 90 * time.Second

// AuthStyle selects how the access token is attached to requests.
type AuthStyle int

const (
	// AuthHeader sends the token as an Authorization: Bearer header.
	// Spotify, Tidal, and Google all use this style.
	AuthHeader AuthStyle = iota
	// AuthQuery sends the token as an access_token query parameter.
	// Deezer is the only provider using this style.
	AuthQuery
)

// APIError carries the provider response for any non-2xx status.
type APIError struct {
	Provider string
	Status   int
	Detail   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api error (%d): %s", e.Provider, e.Status, e.Detail)
}

// Temporary reports whether the call may succeed on retry.
func (e *APIError) Temporary() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// AuthError indicates the stored credentials for a provider cannot be
// used and interactive re-authorization is required.
type AuthError struct {
	Provider string
	Reason   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s authorization required: %s", e.Provider, e.Reason)
}

// Client is a provider scoped REST client.
type Client struct {
	// Provider names the API for errors and log lines.
	Provider string
	// BaseURL is prepended to relative endpoints.
	BaseURL string
	// HTTP is the underlying client. When nil a client with
	// DefaultTimeout is used.
	HTTP *http.Client
	// Tokens supplies the access token per request. A nil source
	// produces unauthenticated requests.
	Tokens oauth2.TokenSource
	// Style selects header or query parameter authentication.
	Style AuthStyle
}

// Request describes a single API call.
type Request struct {
	Method string
	// Path is joined to BaseURL unless it is already absolute. Absolute
	// URLs support pagination cursors that return full next links.
	Path  string
	Query url.Values
	Body  interface{}
	// Form is sent url-encoded when Body is nil.
	Form   url.Values
	Header http.Header
}

// Do executes the request, retrying throttled and 5xx responses with
// exponential backoff, and decodes the JSON response into out when out
// is non-nil.
func (c *Client) Do(ctx context.Context, req Request, out interface{}) error {
	retried401 := false
	op := func() error {
		err := c.once(ctx, req, out)
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized && !retried401 {
			// A 401 can mean the cached token expired ahead of its
			// recorded expiry. Retry once so the token source can
			// refresh before the error becomes permanent.
			retried401 = true
			return apiErr
		}
		return err
	}
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = maxRetryElapsed
	return backoff.Retry(op, backoff.WithContext(bo, ctx))
}

func (c *Client) once(ctx context.Context, req Request, out interface{}) error {
	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	target := req.Path
	if !strings.HasPrefix(target, "http") {
		target = strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(req.Path, "/")
	}
	u, err := url.Parse(target)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("%s: parse url %q: %w", c.Provider, target, err))
	}
	q := u.Query()
	for k, vs := range req.Query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}

	var body io.Reader
	contentType := ""
	if req.Body != nil {
		b, errMarshal := json.Marshal(req.Body)
		if errMarshal != nil {
			return backoff.Permanent(fmt.Errorf("%s: encode body: %w", c.Provider, errMarshal))
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	} else if req.Form != nil {
		body = strings.NewReader(req.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	}

	var token *oauth2.Token
	if c.Tokens != nil {
		token, err = c.Tokens.Token()
		if err != nil {
			return backoff.Permanent(fmt.Errorf("%s: token source: %w", c.Provider, err))
		}
		if c.Style == AuthQuery {
			q.Set("access_token", token.AccessToken)
		}
	}
	u.RawQuery = q.Encode()

	r, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return backoff.Permanent(err)
	}
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			r.Header.Add(k, v)
		}
	}
	if token != nil && c.Style == AuthHeader {
		token.SetAuthHeader(r)
	}

	resp, err := httpClient.Do(r)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		apiErr := &APIError{
			Provider: c.Provider,
			Status:   resp.StatusCode,
			Detail:   strings.TrimSpace(string(detail)),
		}
		if apiErr.Temporary() {
			return apiErr
		}
		return backoff.Permanent(apiErr)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return backoff.Permanent(err)
	}
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return backoff.Permanent(fmt.Errorf("%s: decode response: %w", c.Provider, err))
	}
	return nil
}

// Get is shorthand for Do with a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

// Post is shorthand for Do with a POST request carrying a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

// PostForm posts url-encoded values, used by endpoints that predate JSON
// request bodies.
func (c *Client) PostForm(ctx context.Context, path string, form url.Values, out interface{}) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Form: form}, out)
}
