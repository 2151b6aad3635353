package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ekinyurt/auth-service/internal/auth"
	"github.com/ekinyurt/auth-service/internal/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// ProviderGoogle scopes external ids stored on user records.
const ProviderGoogle = "google"

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleProvider runs the OAuth 2.0 authorization-code flow against Google
// and normalizes the userinfo payload into an auth.Profile.
type GoogleProvider struct {
	cfg *oauth2.Config
}

func NewGoogleProvider(cfg *config.Config) *GoogleProvider {
	return &GoogleProvider{
		cfg: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       []string{"email", "profile"},
			Endpoint:     google.Endpoint,
		},
	}
}

// Enabled reports whether a client registration is configured.
func (p *GoogleProvider) Enabled() bool {
	return p.cfg.ClientID != "" && p.cfg.ClientSecret != ""
}

// AuthCodeURL returns the provider authorization page URL carrying the
// anti-CSRF state.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades the callback code for provider tokens.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	return token, nil
}

// FetchProfile loads the userinfo document with the given token.
func (p *GoogleProvider) FetchProfile(ctx context.Context, token *oauth2.Token) (auth.Profile, error) {
	client := p.cfg.Client(ctx, token)
	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		return auth.Profile{}, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return auth.Profile{}, fmt.Errorf("user info endpoint returned %s", resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return auth.Profile{}, fmt.Errorf("failed to read user info: %w", err)
	}

	var info struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(raw, &info); err != nil {
		return auth.Profile{}, fmt.Errorf("failed to decode user info: %w", err)
	}
	if info.ID == "" {
		return auth.Profile{}, fmt.Errorf("user info missing subject id")
	}

	return auth.Profile{
		Provider:   ProviderGoogle,
		ExternalID: info.ID,
		Email:      info.Email,
		Name:       info.Name,
		Raw:        raw,
	}, nil
}
