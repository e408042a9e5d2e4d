package deezer

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2"

	"github.com/crosstune/crosstune/pkg/httpx"
	"github.com/crosstune/crosstune/pkg/tokenstore"
)

// Config holds the Deezer application settings.
type Config struct {
	AppID       string `description:"Deezer application id."`
	Secret      string `description:"Deezer application secret."`
	RedirectURL string `description:"Redirect URL registered with the application."`
	Perms       string `description:"Comma separated permission list."`
	User        string `description:"Token store user the stored credentials belong to."`
}

// Name of the configuration tree.
func (*Config) Name() string {
	return ProviderName
}

// Component loads the Deezer settings.
type Component struct{}

// NewComponent populates the default values.
func NewComponent() *Component {
	return &Component{}
}

// Settings returns the default configuration.
func (*Component) Settings() *Config {
	return &Config{
		Perms: strings.Join(DefaultPerms, ","),
	}
}

// New constructs a Provider from the resolved configuration.
func (*Component) New(_ context.Context, conf *Config) (*Provider, error) {
	perms := DefaultPerms
	if conf.Perms != "" {
		perms = strings.Split(conf.Perms, ",")
	}
	return &Provider{
		Auth: &Authenticator{
			AppID:       conf.AppID,
			Secret:      conf.Secret,
			RedirectURL: conf.RedirectURL,
			Perms:       perms,
		},
		User: conf.User,
	}, nil
}

// Provider binds the Deezer application to a token store user and
// hands out authenticated clients.
type Provider struct {
	Auth *Authenticator
	User string
}

// Client loads the stored token for the configured user. There is no
// refresh flow: an expired token surfaces as an error telling the user
// to re-authorize.
func (p *Provider) Client(ctx context.Context, store *tokenstore.Store) (*Client, error) {
	tok, err := store.LoadOAuthToken(ctx, ProviderName, p.User)
	if err != nil {
		return nil, err
	}
	if !tok.Valid() && tok.RefreshToken == "" {
		return nil, &httpx.AuthError{
			Provider: ProviderName,
			Reason:   fmt.Sprintf("token for %s expired, re-run authorization", p.User),
		}
	}
	return New(oauth2.StaticTokenSource(tok)), nil
}
