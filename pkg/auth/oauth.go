// Package auth implements the TickTick OAuth2 authorization-code flow.
//
// TickTick's open API has no out-of-band redirect capture, so the flow is
// manual: the user opens the printed authorization URL, approves, and pastes
// the code query parameter back into `ticksync auth --code`. Refreshes are
// handled transparently by the token source, which writes refreshed tokens
// back into the settings file so every later client construction sees them.
package auth

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/harrisonrobin/ticksync/pkg/config"
)

const (
	authURL  = "https://ticktick.com/oauth/authorize"
	tokenURL = "https://ticktick.com/oauth/token"
)

var scopes = []string{"tasks:read", "tasks:write"}

// OAuthConfig builds the oauth2 configuration from the stored client
// credentials. TickTick authenticates the token endpoint with HTTP Basic.
func OAuthConfig(cfg *config.Settings) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       scopes,
		RedirectURL:  "http://localhost",
		Endpoint: oauth2.Endpoint{
			AuthURL:   authURL,
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}

// AuthCodeURL returns the authorization URL for the manual flow, with a
// fresh state parameter.
func AuthCodeURL(cfg *config.Settings) string {
	return OAuthConfig(cfg).AuthCodeURL(uuid.NewString())
}

// Exchange trades a pasted authorization code for tokens and stores them in
// the settings, which the caller is expected to persist.
func Exchange(ctx context.Context, cfg *config.Settings, code string) error {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return fmt.Errorf("client ID and secret must be configured before authenticating")
	}

	tok, err := OAuthConfig(cfg).Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("token exchange failed: %w", err)
	}

	storeToken(cfg, tok)
	cfg.AuthCode = ""
	return nil
}

func storeToken(cfg *config.Settings, tok *oauth2.Token) {
	cfg.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		cfg.RefreshToken = tok.RefreshToken
	}
	if !tok.Expiry.IsZero() {
		cfg.TokenExpiry = tok.Expiry.Unix()
	}
}

func storedToken(cfg *config.Settings) *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  cfg.AccessToken,
		RefreshToken: cfg.RefreshToken,
	}
	if cfg.TokenExpiry > 0 {
		tok.Expiry = time.Unix(cfg.TokenExpiry, 0)
	}
	return tok
}

// SaveFunc persists refreshed settings. Tests substitute a no-op.
type SaveFunc func(*config.Settings) error

// savingSource wraps an oauth2 token source and writes any refreshed token
// back into the settings in place, so the process-wide credential state
// stays current without hidden globals.
type savingSource struct {
	src  oauth2.TokenSource
	cfg  *config.Settings
	save SaveFunc
	mu   sync.Mutex
}

func (s *savingSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, err := s.src.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to obtain token: %w", err)
	}

	if tok.AccessToken != s.cfg.AccessToken || (tok.RefreshToken != "" && tok.RefreshToken != s.cfg.RefreshToken) {
		log.Println("Access token was refreshed; updating stored credentials")
		storeToken(s.cfg, tok)
		if s.save != nil {
			if err := s.save(s.cfg); err != nil {
				log.Printf("Warning: could not persist refreshed token: %v", err)
			}
		}
	}
	return tok, nil
}

// TokenSource returns an auto-refreshing token source for the stored
// credentials. save is invoked whenever a refresh produces new token
// material; pass config.Save for the default settings location.
func TokenSource(ctx context.Context, cfg *config.Settings, save SaveFunc) (oauth2.TokenSource, error) {
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("not authenticated: run the auth command first")
	}

	src := OAuthConfig(cfg).TokenSource(ctx, storedToken(cfg))
	return &savingSource{src: src, cfg: cfg, save: save}, nil
}

// StaticTokenSource wraps a bare access token with no refresh capability.
// Useful for tests and for tokens issued outside the normal flow.
func StaticTokenSource(token string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
}
