// Command crosstune-auth runs the interactive authorization flow for a
// provider from a workstation and stores the resulting token in the
// token store. The service itself never prompts: it refreshes stored
// tokens on its own and fails with an authorization error when a
// provider needs this bootstrap again.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	settings "github.com/asecurityteam/settings/v2"
	"golang.org/x/oauth2"

	"github.com/crosstune/crosstune/pkg/deezer"
	"github.com/crosstune/crosstune/pkg/httpx"
	"github.com/crosstune/crosstune/pkg/spotify"
	"github.com/crosstune/crosstune/pkg/tidal"
	"github.com/crosstune/crosstune/pkg/tokenstore"
	"github.com/crosstune/crosstune/pkg/youtube"
)

func main() {
	provider := flag.String("provider", "", "Provider to authorize: spotify, tidal, youtube, or deezer.")
	user := flag.String("user", "", "Token store user to save the credentials under. Defaults to the configured provider user.")
	flag.Parse()

	ctx := context.Background()
	envSource, err := settings.NewEnvSource(os.Environ())
	if err != nil {
		fatal(err)
	}
	source := &settings.PrefixSource{Source: envSource, Prefix: []string{"CROSSTUNE"}}

	store := new(tokenstore.Store)
	if err := settings.NewComponent(ctx, source, tokenstore.NewComponent(), store); err != nil {
		fatal(err)
	}

	var tok *oauth2.Token
	name := *provider
	owner := *user
	switch name {
	case spotify.ProviderName:
		p := new(spotify.Provider)
		if err := settings.NewComponent(ctx, source, spotify.NewComponent(), p); err != nil {
			fatal(err)
		}
		if owner == "" {
			owner = p.User
		}
		auth := spotify.NewAuthenticator(p.OAuth, oauth2.GenerateVerifier())
		fmt.Println("Open the following URL in a browser:")
		fmt.Println(auth.AuthCodeURL())
		code, err := auth.CaptureCode(ctx)
		if err != nil {
			fatal(err)
		}
		if tok, err = auth.Exchange(ctx, code); err != nil {
			fatal(err)
		}
	case tidal.ProviderName:
		p := new(tidal.Provider)
		if err := settings.NewComponent(ctx, source, tidal.NewComponent(), p); err != nil {
			fatal(err)
		}
		if owner == "" {
			fatal(fmt.Errorf("tidal requires -user: tokens are stored per account"))
		}
		auth := tidal.NewDeviceAuthenticator(p.OAuth)
		resp, err := auth.Start(ctx)
		if err != nil {
			fatal(err)
		}
		fmt.Printf("Visit %s and enter code %s\n", resp.VerificationURIComplete, resp.UserCode)
		if tok, err = auth.Wait(ctx, resp); err != nil {
			fatal(err)
		}
	case youtube.ProviderName:
		p := new(youtube.Provider)
		if err := settings.NewComponent(ctx, source, youtube.NewComponent(), p); err != nil {
			fatal(err)
		}
		if owner == "" {
			owner = p.User
		}
		state := oauth2.GenerateVerifier()
		verifier := oauth2.GenerateVerifier()
		fmt.Println("Open the following URL in a browser:")
		fmt.Println(p.OAuth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier)))
		code, err := httpx.CaptureRedirect(ctx, p.OAuth.RedirectURL, state)
		if err != nil {
			fatal(err)
		}
		if tok, err = p.OAuth.Exchange(ctx, code, oauth2.VerifierOption(verifier)); err != nil {
			fatal(err)
		}
	case deezer.ProviderName:
		p := new(deezer.Provider)
		if err := settings.NewComponent(ctx, source, deezer.NewComponent(), p); err != nil {
			fatal(err)
		}
		if owner == "" {
			owner = p.User
		}
		fmt.Println("Open the following URL in a browser:")
		fmt.Println(p.Auth.AuthCodeURL())
		// Deezer echoes no state parameter back on the redirect.
		code, err := httpx.CaptureRedirect(ctx, p.Auth.RedirectURL, "")
		if err != nil {
			fatal(err)
		}
		if tok, err = p.Auth.Exchange(ctx, code); err != nil {
			fatal(err)
		}
	default:
		fatal(fmt.Errorf("unknown provider %q", name))
	}

	if err := store.SaveOAuthToken(ctx, name, owner, tok); err != nil {
		fatal(err)
	}
	fmt.Printf("Stored %s token for %s.\n", name, owner)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err.Error())
	os.Exit(1)
}
