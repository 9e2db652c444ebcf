package oauth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gartstein/recruit/internal/recruit/config"
	e "github.com/gartstein/recruit/internal/recruit/errors"
	"github.com/gartstein/recruit/internal/recruit/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestNewRegistry(t *testing.T) {
	tests := []struct {
		name      string
		providers map[string]config.OAuthProvider
		expectErr bool
		available []models.Provider
	}{
		{
			name: "built-in endpoints",
			providers: map[string]config.OAuthProvider{
				"google":   {ClientID: "g"},
				"linkedin": {ClientID: "l"},
				"indeed":   {ClientID: "i"},
				"monster":  {},
			},
			available: []models.Provider{models.ProviderGoogle, models.ProviderLinkedIn, models.ProviderIndeed},
		},
		{
			name:      "configured endpoint",
			providers: map[string]config.OAuthProvider{"glassdoor": {ClientID: "gd", AuthURL: "https://gd/auth", TokenURL: "https://gd/token"}},
			available: []models.Provider{models.ProviderGlassdoor},
		},
		{
			name:      "missing endpoint",
			providers: map[string]config.OAuthProvider{"ziprecruiter": {ClientID: "z"}},
			expectErr: true,
		},
		{
			name:      "unknown provider",
			providers: map[string]config.OAuthProvider{"myspace": {ClientID: "m"}},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRegistry(tt.providers)
			if tt.expectErr {
				assert.ErrorIs(t, err, e.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Len(t, r.configs, len(tt.available))
			for _, p := range tt.available {
				_, err := r.Config(p)
				assert.NoError(t, err, p)
			}
		})
	}
}

func TestAuthCodeURL(t *testing.T) {
	r, err := NewRegistry(map[string]config.OAuthProvider{
		"google": {ClientID: "client", RedirectURL: "http://localhost/api/oauth/callback/google"},
	})
	require.NoError(t, err)

	raw, err := r.AuthCodeURL(models.ProviderGoogle, "state-123")
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "state-123", u.Query().Get("state"))
	assert.Equal(t, "offline", u.Query().Get("access_type"))
	assert.Equal(t, "consent", u.Query().Get("prompt"))
	assert.Contains(t, u.Query().Get("scope"), "calendar.events")

	_, err = r.AuthCodeURL(models.ProviderMonster, "state")
	assert.ErrorIs(t, err, e.ErrInvalidInput)
}

func TestExchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("code") != "good" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":"invalid_grant"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"at","refresh_token":"rt","token_type":"Bearer","expires_in":3600}`)
	}))
	defer srv.Close()

	r, err := NewRegistry(map[string]config.OAuthProvider{
		"monster": {ClientID: "c", ClientSecret: "s", AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"},
	})
	require.NoError(t, err)

	token, err := r.Exchange(context.Background(), models.ProviderMonster, "good")
	require.NoError(t, err)
	assert.Equal(t, "at", token.AccessToken)
	assert.Equal(t, "rt", token.RefreshToken)

	_, err = r.Exchange(context.Background(), models.ProviderMonster, "bad")
	assert.ErrorIs(t, err, e.ErrExternalService)
}

func TestTokenRoundTrip(t *testing.T) {
	expiry := time.Now().Add(time.Hour).Truncate(time.Second)
	integration := &models.JobWebsiteIntegration{RefreshToken: "keep"}

	ApplyToken(integration, &oauth2.Token{AccessToken: "new", TokenType: "Bearer", Expiry: expiry})
	assert.Equal(t, "keep", integration.RefreshToken, "missing refresh token keeps the stored one")

	token := Token(integration)
	assert.Equal(t, "new", token.AccessToken)
	assert.Equal(t, "keep", token.RefreshToken)
	assert.True(t, expiry.Equal(token.Expiry))
}

func TestNewState(t *testing.T) {
	a, err := NewState()
	require.NoError(t, err)
	b, err := NewState()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 43)
}
