package tidal

import (
	"context"

	"golang.org/x/oauth2"
)

// Endpoint is the Tidal OAuth 2.0 endpoint for the device flow.
var Endpoint = oauth2.Endpoint{
	DeviceAuthURL: "https://auth.tidal.com/v1/oauth2/device_authorization",
	TokenURL:      "https://auth.tidal.com/v1/oauth2/token",
}

// Scopes grant read and write access to the user's library.
var Scopes = []string{"r_usr", "w_usr"}

// OAuthConfig builds the oauth2 configuration for the device flow.
func OAuthConfig(clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     Endpoint,
		Scopes:       Scopes,
	}
}

// DeviceAuthenticator drives the one-time device login: Start returns
// the verification URL and user code to show, Wait polls until the
// user approves and returns the token to persist.
type DeviceAuthenticator struct {
	conf *oauth2.Config
}

// NewDeviceAuthenticator returns a DeviceAuthenticator over the config.
func NewDeviceAuthenticator(conf *oauth2.Config) *DeviceAuthenticator {
	return &DeviceAuthenticator{conf: conf}
}

// Start requests a device code pair.
func (a *DeviceAuthenticator) Start(ctx context.Context) (*oauth2.DeviceAuthResponse, error) {
	return a.conf.DeviceAuth(ctx)
}

// Wait polls the token endpoint until the device code is approved,
// denied, or expires.
func (a *DeviceAuthenticator) Wait(ctx context.Context, resp *oauth2.DeviceAuthResponse) (*oauth2.Token, error) {
	return a.conf.DeviceAccessToken(ctx, resp)
}
