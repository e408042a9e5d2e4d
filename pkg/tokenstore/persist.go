package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/oauth2"

	crosstune "github.com/crosstune/crosstune"
	"github.com/crosstune/crosstune/pkg/logs"
)

// LoadOAuthToken decodes the stored oauth2 token for a provider and
// user pair. A miss is logged before the NotFoundError surfaces: it
// means the one-time authorization bootstrap never ran for this pair.
func (s *Store) LoadOAuthToken(ctx context.Context, provider, user string) (*oauth2.Token, error) {
	raw, err := s.GetToken(ctx, provider, user)
	if err != nil {
		var missing NotFoundError
		if errors.As(err, &missing) {
			crosstune.LoggerFromContext(ctx).Warn(logs.TokenMissing{Provider: provider, User: user})
		}
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, fmt.Errorf("decode %s token for %s: %w", provider, user, err)
	}
	return &tok, nil
}

// SaveOAuthToken encodes and stores an oauth2 token.
func (s *Store) SaveOAuthToken(ctx context.Context, provider, user string, tok *oauth2.Token) error {
	raw, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("encode %s token for %s: %w", provider, user, err)
	}
	return s.PutToken(ctx, provider, user, raw)
}

// persistingSource wraps a refreshing TokenSource and writes every
// newly minted token back to the store so the next invocation does not
// repeat the refresh.
type persistingSource struct {
	ctx      context.Context
	store    *Store
	provider string
	user     string
	inner    oauth2.TokenSource

	mu   sync.Mutex
	last *oauth2.Token
}

// PersistingSource returns a TokenSource that refreshes through the
// given oauth2 config and persists rotated tokens under the provider
// and user key.
func (s *Store) PersistingSource(ctx context.Context, provider, user string, conf *oauth2.Config, tok *oauth2.Token) oauth2.TokenSource {
	return &persistingSource{
		ctx:      ctx,
		store:    s,
		provider: provider,
		user:     user,
		inner:    conf.TokenSource(ctx, tok),
		last:     tok,
	}
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.inner.Token()
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil || tok.AccessToken != p.last.AccessToken {
		if err := p.store.SaveOAuthToken(p.ctx, p.provider, p.user, tok); err != nil {
			return nil, err
		}
		p.last = tok
	}
	return tok, nil
}
