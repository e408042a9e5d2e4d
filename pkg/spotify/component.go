package spotify

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/crosstune/crosstune/pkg/tokenstore"
)

// Config holds the Spotify application settings.
type Config struct {
	ClientID    string `description:"Spotify application client ID."`
	RedirectURL string `description:"Loopback redirect URL registered with the application."`
	User        string `description:"Token store user the stored credentials belong to."`
}

// Name of the configuration tree.
func (*Config) Name() string {
	return ProviderName
}

// Component loads the Spotify settings.
type Component struct{}

// NewComponent populates the default values.
func NewComponent() *Component {
	return &Component{}
}

// Settings returns the default configuration.
func (*Component) Settings() *Config {
	return &Config{
		RedirectURL: "http://127.0.0.1:8888/callback",
	}
}

// New constructs a Provider from the resolved configuration.
func (*Component) New(_ context.Context, conf *Config) (*Provider, error) {
	return &Provider{
		OAuth: OAuthConfig(conf.ClientID, conf.RedirectURL),
		User:  conf.User,
	}, nil
}

// Provider binds the OAuth application to a token store user and hands
// out authenticated clients.
type Provider struct {
	OAuth *oauth2.Config
	User  string
}

// Client loads the stored token for the configured user and returns a
// Client whose refreshed tokens are persisted back to the store.
func (p *Provider) Client(ctx context.Context, store *tokenstore.Store) (*Client, error) {
	tok, err := store.LoadOAuthToken(ctx, ProviderName, p.User)
	if err != nil {
		return nil, err
	}
	return New(store.PersistingSource(ctx, ProviderName, p.User, p.OAuth, tok)), nil
}

// TokenSource returns the persisting token source without wrapping it
// in a Client. Useful for callers that talk to the API directly.
func (p *Provider) TokenSource(ctx context.Context, store *tokenstore.Store) (oauth2.TokenSource, error) {
	tok, err := store.LoadOAuthToken(ctx, ProviderName, p.User)
	if err != nil {
		return nil, err
	}
	return store.PersistingSource(ctx, ProviderName, p.User, p.OAuth, tok), nil
}
