package tidal

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/crosstune/crosstune/pkg/tokenstore"
)

// Config holds the Tidal application settings.
type Config struct {
	ClientID     string `description:"Tidal application client ID."`
	ClientSecret string `description:"Tidal application client secret."`
}

// Name of the configuration tree.
func (*Config) Name() string {
	return ProviderName
}

// Component loads the Tidal settings.
type Component struct{}

// NewComponent populates the default values.
func NewComponent() *Component {
	return &Component{}
}

// Settings returns the default configuration.
func (*Component) Settings() *Config {
	return &Config{}
}

// New constructs a Provider from the resolved configuration.
func (*Component) New(_ context.Context, conf *Config) (*Provider, error) {
	return &Provider{OAuth: OAuthConfig(conf.ClientID, conf.ClientSecret)}, nil
}

// Provider hands out authenticated clients for named token store
// users. Sync runs work with two users at once, so the user is a call
// argument rather than configuration.
type Provider struct {
	OAuth *oauth2.Config
}

// Client loads the stored token for the given user and returns a
// Client whose refreshed tokens are persisted back to the store.
func (p *Provider) Client(ctx context.Context, store *tokenstore.Store, user string) (*Client, error) {
	tok, err := store.LoadOAuthToken(ctx, ProviderName, user)
	if err != nil {
		return nil, err
	}
	return New(store.PersistingSource(ctx, ProviderName, user, p.OAuth, tok)), nil
}
