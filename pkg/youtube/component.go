package youtube

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/crosstune/crosstune/pkg/tokenstore"
)

// Endpoint is Google's OAuth 2.0 endpoint.
var Endpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.google.com/o/oauth2/auth",
	TokenURL: "https://oauth2.googleapis.com/token",
}

// Scopes grant read and write access to the user's YouTube account.
var Scopes = []string{"https://www.googleapis.com/auth/youtube"}

// OAuthConfig builds the Google oauth2 configuration. Offline access
// is requested at authorization time so a refresh token is issued.
func OAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     Endpoint,
		Scopes:       Scopes,
	}
}

// Config holds the YouTube application settings.
type Config struct {
	ClientID     string `description:"Google OAuth client ID."`
	ClientSecret string `description:"Google OAuth client secret."`
	RedirectURL  string `description:"Loopback redirect URL registered with the client."`
	User         string `description:"Token store user the stored credentials belong to."`
}

// Name of the configuration tree.
func (*Config) Name() string {
	return ProviderName
}

// Component loads the YouTube settings.
type Component struct{}

// NewComponent populates the default values.
func NewComponent() *Component {
	return &Component{}
}

// Settings returns the default configuration.
func (*Component) Settings() *Config {
	return &Config{
		RedirectURL: "http://127.0.0.1:8889/callback",
	}
}

// New constructs a Provider from the resolved configuration.
func (*Component) New(_ context.Context, conf *Config) (*Provider, error) {
	return &Provider{
		OAuth: OAuthConfig(conf.ClientID, conf.ClientSecret, conf.RedirectURL),
		User:  conf.User,
	}, nil
}

// Provider binds the OAuth application to a token store user and hands
// out authenticated clients.
type Provider struct {
	OAuth *oauth2.Config
	User  string
}

// Client loads the stored token for the configured user, attaches the
// persisted search cache, and returns a Client whose refreshed tokens
// are persisted back to the store.
func (p *Provider) Client(ctx context.Context, store *tokenstore.Store) (*Client, error) {
	tok, err := store.LoadOAuthToken(ctx, ProviderName, p.User)
	if err != nil {
		return nil, err
	}
	c := New(store.PersistingSource(ctx, ProviderName, p.User, p.OAuth, tok))
	cache, err := LoadSearchCache(ctx, store, p.User)
	if err != nil {
		return nil, err
	}
	c.Cache = cache
	return c, nil
}
