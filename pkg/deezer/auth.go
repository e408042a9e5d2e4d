package deezer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/crosstune/crosstune/pkg/httpx"
)

const (
	authURL  = "https://connect.deezer.com/oauth/auth.php"
	tokenURL = "https://connect.deezer.com/oauth/access_token.php"
)

// DefaultPerms are the permissions requested during authorization.
var DefaultPerms = []string{"basic_access", "manage_library", "listening_history", "offline_access"}

// Authenticator drives Deezer's authorization code flow. The flow
// predates PKCE and requires the application secret on the token call.
type Authenticator struct {
	AppID  string
	Secret string
	// RedirectURL must match the application's registered domain.
	RedirectURL string
	// Perms defaults to DefaultPerms when empty.
	Perms []string
	// TokenEndpoint overrides tokenURL, for tests.
	TokenEndpoint string
	// HTTP defaults to a client with the shared timeout.
	HTTP *http.Client
}

// AuthCodeURL returns the URL the user must open in a browser.
func (a *Authenticator) AuthCodeURL() string {
	perms := a.Perms
	if len(perms) == 0 {
		perms = DefaultPerms
	}
	q := url.Values{
		"app_id":       {a.AppID},
		"redirect_uri": {a.RedirectURL},
		"perms":        {strings.Join(perms, ",")},
	}
	return authURL + "?" + q.Encode()
}

// Exchange trades the redirect code for an access token. The returned
// token carries no refresh token: Deezer tokens are either long-lived
// or require a fresh authorization.
func (a *Authenticator) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	endpoint := a.TokenEndpoint
	if endpoint == "" {
		endpoint = tokenURL
	}
	q := url.Values{
		"app_id": {a.AppID},
		"secret": {a.Secret},
		"code":   {code},
		"output": {"json"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	httpClient := a.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: httpx.DefaultTimeout}
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("deezer token exchange: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &httpx.APIError{Provider: ProviderName, Status: resp.StatusCode, Detail: strings.TrimSpace(string(body))}
	}
	var payload struct {
		AccessToken string `json:"access_token"`
		Expires     int64  `json:"expires"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("deezer token exchange: decode %q: %w", strings.TrimSpace(string(body)), err)
	}
	if payload.AccessToken == "" {
		return nil, fmt.Errorf("deezer token exchange: empty access token in %q", strings.TrimSpace(string(body)))
	}
	tok := &oauth2.Token{AccessToken: payload.AccessToken}
	if payload.Expires > 0 {
		tok.Expiry = time.Now().Add(time.Duration(payload.Expires) * time.Second)
	}
	return tok, nil
}
