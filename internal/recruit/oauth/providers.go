// Package oauth holds the OAuth2 client registrations of the external
// platforms an organization can connect.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/gartstein/recruit/internal/recruit/config"
	e "github.com/gartstein/recruit/internal/recruit/errors"
	"github.com/gartstein/recruit/internal/recruit/models"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/linkedin"
)

// StateTTL bounds the time between authorize and callback.
const StateTTL = 10 * time.Minute

var defaultEndpoints = map[models.Provider]oauth2.Endpoint{
	models.ProviderGoogle:   google.Endpoint,
	models.ProviderLinkedIn: linkedin.Endpoint,
	models.ProviderIndeed: {
		AuthURL:  "https://secure.indeed.com/oauth/v2/authorize",
		TokenURL: "https://apis.indeed.com/oauth/v2/tokens",
	},
}

var defaultScopes = map[models.Provider][]string{
	models.ProviderGoogle:   {"https://www.googleapis.com/auth/calendar.events"},
	models.ProviderLinkedIn: {"openid", "profile", "email", "w_member_social"},
	models.ProviderIndeed:   {"employer_access"},
}

// Registry resolves the oauth2.Config of each configured provider.
type Registry struct {
	configs map[models.Provider]*oauth2.Config
}

// NewRegistry skips providers without a client ID. Providers without a
// built-in endpoint need AUTH_URL and TOKEN_URL.
func NewRegistry(providers map[string]config.OAuthProvider) (*Registry, error) {
	r := &Registry{configs: make(map[models.Provider]*oauth2.Config)}
	for name, p := range providers {
		provider := models.Provider(name)
		if !provider.Valid() {
			return nil, fmt.Errorf("%w: unknown oauth provider %q", e.ErrInvalidInput, name)
		}
		if p.ClientID == "" {
			continue
		}

		endpoint, ok := defaultEndpoints[provider]
		if p.AuthURL != "" {
			endpoint.AuthURL = p.AuthURL
		}
		if p.TokenURL != "" {
			endpoint.TokenURL = p.TokenURL
		}
		if !ok && (endpoint.AuthURL == "" || endpoint.TokenURL == "") {
			return nil, fmt.Errorf("%w: oauth provider %q needs AUTH_URL and TOKEN_URL", e.ErrInvalidInput, name)
		}

		scopes := p.Scopes
		if len(scopes) == 0 {
			scopes = defaultScopes[provider]
		}
		r.configs[provider] = &oauth2.Config{
			ClientID:     p.ClientID,
			ClientSecret: p.ClientSecret,
			RedirectURL:  p.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       scopes,
		}
	}
	return r, nil
}

// Config returns ErrInvalidInput for a provider that is not configured.
func (r *Registry) Config(provider models.Provider) (*oauth2.Config, error) {
	cfg, ok := r.configs[provider]
	if !ok {
		return nil, fmt.Errorf("%w: oauth provider %q is not configured", e.ErrInvalidInput, provider)
	}
	return cfg, nil
}

func (r *Registry) AuthCodeURL(provider models.Provider, state string) (string, error) {
	cfg, err := r.Config(provider)
	if err != nil {
		return "", err
	}
	opts := []oauth2.AuthCodeOption{oauth2.AccessTypeOffline}
	if provider == models.ProviderGoogle {
		opts = append(opts, oauth2.SetAuthURLParam("prompt", "consent"))
	}
	return cfg.AuthCodeURL(state, opts...), nil
}

func (r *Registry) Exchange(ctx context.Context, provider models.Provider, code string) (*oauth2.Token, error) {
	cfg, err := r.Config(provider)
	if err != nil {
		return nil, err
	}
	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %s token exchange: %v", e.ErrExternalService, provider, err)
	}
	return token, nil
}

// NewState returns a random URL safe state value.
func NewState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Token converts stored credentials into an oauth2 token.
func Token(i *models.JobWebsiteIntegration) *oauth2.Token {
	t := &oauth2.Token{
		AccessToken:  i.AccessToken,
		RefreshToken: i.RefreshToken,
		TokenType:    i.TokenType,
	}
	if i.Expiry != nil {
		t.Expiry = *i.Expiry
	}
	return t
}

// ApplyToken copies t onto i. An empty refresh token keeps the stored one.
func ApplyToken(i *models.JobWebsiteIntegration, t *oauth2.Token) {
	i.AccessToken = t.AccessToken
	if t.RefreshToken != "" {
		i.RefreshToken = t.RefreshToken
	}
	i.TokenType = t.TokenType
	if t.Expiry.IsZero() {
		i.Expiry = nil
	} else {
		expiry := t.Expiry
		i.Expiry = &expiry
	}
}
