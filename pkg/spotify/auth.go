package spotify

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/crosstune/crosstune/pkg/httpx"
)

// Authenticator drives the one-time authorization code + PKCE flow.
// It is meant for interactive bootstrap from a workstation; once the
// resulting token is stored, the service refreshes it on its own.
type Authenticator struct {
	conf     *oauth2.Config
	verifier string
	state    string
}

// NewAuthenticator returns an Authenticator with a fresh PKCE verifier
// and the given opaque state value.
func NewAuthenticator(conf *oauth2.Config, state string) *Authenticator {
	return &Authenticator{
		conf:     conf,
		verifier: oauth2.GenerateVerifier(),
		state:    state,
	}
}

// AuthCodeURL returns the URL the user must open in a browser.
func (a *Authenticator) AuthCodeURL() string {
	return a.conf.AuthCodeURL(a.state, oauth2.S256ChallengeOption(a.verifier))
}

// State returns the opaque state the redirect must echo back.
func (a *Authenticator) State() string {
	return a.state
}

// CaptureCode serves the loopback redirect address until the provider
// delivers the authorization code, or ctx expires.
func (a *Authenticator) CaptureCode(ctx context.Context) (string, error) {
	return httpx.CaptureRedirect(ctx, a.conf.RedirectURL, a.state)
}

// Exchange trades the redirect code for a token using the PKCE
// verifier generated at construction time.
func (a *Authenticator) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return a.conf.Exchange(ctx, code, oauth2.VerifierOption(a.verifier))
}
