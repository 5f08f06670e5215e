package oauth

// Package oauth wraps the external identity provider (the 42 intra API by
// default). The rest of the application only ever needs two calls: exchange
// an authorization code for an access token, and read the profile email for
// an access token. Everything else about the provider stays behind this
// package.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/iliyamo/pong-social/internal/config"
)

// ErrUpstream is returned when the provider call fails or times out.
// Handlers surface it as a generic retryable failure; the token or code the
// client presented may still be valid.
var ErrUpstream = errors.New("oauth: upstream provider error")

// Provider performs the OAuth code exchange and profile lookup.
type Provider struct {
	conf       *oauth2.Config
	profileURL string
	state      *stateSigner
	client     *http.Client
}

// New builds a Provider from application configuration.
func New(cfg config.Config) *Provider {
	return &Provider{
		conf: &oauth2.Config{
			ClientID:     cfg.OAuthClientID,
			ClientSecret: cfg.OAuthClientSec,
			Scopes:       []string{"public"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.OAuthAuthURL,
				TokenURL: cfg.OAuthTokenURL,
			},
		},
		profileURL: cfg.OAuthProfileURL,
		state:      newStateSigner([]byte(cfg.StateSecret), 10*time.Minute),
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// AuthorizeURL returns the provider's authorization URL carrying a signed
// state bound to the given callback URI, for the client to redirect to.
func (p *Provider) AuthorizeURL(callbackURI string) (string, error) {
	state, err := p.state.issue(callbackURI)
	if err != nil {
		return "", err
	}
	conf := *p.conf
	conf.RedirectURL = callbackURI
	return conf.AuthCodeURL(state), nil
}

// VerifyState checks the state parameter returned by the provider: its
// signature, its expiry, and that it was issued for this callback URI.
func (p *Provider) VerifyState(state, callbackURI string) error {
	return p.state.verify(state, callbackURI)
}

// Exchange trades an authorization code for an access token.
func (p *Provider) Exchange(ctx context.Context, code, callbackURI string) (string, error) {
	conf := *p.conf
	conf.RedirectURL = callbackURI
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return tok.AccessToken, nil
}

// FetchEmail reads the email from the provider's profile endpoint using the
// given access token.
func (p *Provider) FetchEmail(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.profileURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: profile endpoint returned %d", ErrUpstream, resp.StatusCode)
	}

	var profile struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if profile.Email == "" {
		return "", fmt.Errorf("%w: profile has no email", ErrUpstream)
	}
	return profile.Email, nil
}
