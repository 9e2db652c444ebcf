package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	e "github.com/gartstein/recruit/internal/recruit/errors"
	"github.com/gartstein/recruit/internal/recruit/models"
	"github.com/gartstein/recruit/internal/recruit/oauth"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

type IntegrationRepository interface {
	GetIntegration(ctx context.Context, orgID uuid.UUID, provider models.Provider) (*models.JobWebsiteIntegration, error)
	UpsertIntegration(ctx context.Context, integration *models.JobWebsiteIntegration) error
	DeleteIntegration(ctx context.Context, orgID uuid.UUID, provider models.Provider) error
	CreateOAuthState(ctx context.Context, state *models.OAuthState) error
	ConsumeOAuthState(ctx context.Context, state string, provider models.Provider, now time.Time) (*models.OAuthState, error)
	DeleteExpiredOAuthStates(ctx context.Context, now time.Time) (int64, error)
}

type OAuthProviders interface {
	AuthCodeURL(provider models.Provider, state string) (string, error)
	Exchange(ctx context.Context, provider models.Provider, code string) (*oauth2.Token, error)
}

// IntegrationService connects and disconnects the OAuth integrations of an
// organization.
type IntegrationService struct {
	repo      IntegrationRepository
	providers OAuthProviders
	now       Clock
	logger    *zap.Logger
}

func NewIntegrationService(repo IntegrationRepository, providers OAuthProviders, logger *zap.Logger) *IntegrationService {
	return &IntegrationService{
		repo:      repo,
		providers: providers,
		now:       time.Now,
		logger:    logger.Named("integration_service"),
	}
}

// Authorize starts an OAuth round trip and returns the provider URL to
// redirect the user to. The state is bound to the caller's organization.
func (s *IntegrationService) Authorize(ctx context.Context, orgID, userID uuid.UUID, provider models.Provider) (string, error) {
	if !provider.Valid() {
		return "", fmt.Errorf("%w: unknown provider %q", e.ErrInvalidInput, provider)
	}
	now := s.now().UTC()
	if n, err := s.repo.DeleteExpiredOAuthStates(ctx, now); err != nil {
		s.logger.Warn("Failed to purge expired OAuth states", zap.Error(err))
	} else if n > 0 {
		s.logger.Debug("Purged expired OAuth states", zap.Int64("count", n))
	}

	value, err := oauth.NewState()
	if err != nil {
		return "", fmt.Errorf("failed to generate oauth state: %w", err)
	}
	// Resolve the provider before persisting anything.
	authURL, err := s.providers.AuthCodeURL(provider, value)
	if err != nil {
		return "", err
	}

	state := &models.OAuthState{
		State:          value,
		OrganizationID: orgID,
		UserID:         userID,
		Provider:       provider,
		ExpiresAt:      now.Add(oauth.StateTTL),
	}
	if err := s.repo.CreateOAuthState(ctx, state); err != nil {
		return "", fmt.Errorf("failed to store oauth state: %w", err)
	}
	return authURL, nil
}

// Callback completes the round trip started by Authorize and stores the
// obtained credentials for the organization bound to state.
func (s *IntegrationService) Callback(ctx context.Context, provider models.Provider, state, code string) (*models.JobWebsiteIntegration, error) {
	if !provider.Valid() {
		return nil, fmt.Errorf("%w: unknown provider %q", e.ErrInvalidInput, provider)
	}
	if state == "" || code == "" {
		return nil, fmt.Errorf("%w: missing state or code", e.ErrInvalidInput)
	}

	bound, err := s.repo.ConsumeOAuthState(ctx, state, provider, s.now().UTC())
	if err != nil {
		return nil, err
	}

	token, err := s.providers.Exchange(ctx, provider, code)
	if err != nil {
		return nil, err
	}

	integration := &models.JobWebsiteIntegration{
		OrganizationID: bound.OrganizationID,
		Provider:       provider,
	}
	oauth.ApplyToken(integration, token)
	if err := s.repo.UpsertIntegration(ctx, integration); err != nil {
		return nil, fmt.Errorf("failed to store integration: %w", err)
	}

	s.logger.Info("Integration connected",
		zap.String("organization_id", bound.OrganizationID.String()),
		zap.String("provider", string(provider)),
	)
	return integration, nil
}

// Disconnect removes the stored credentials. It returns e.ErrNotFound when
// the organization has no such integration.
func (s *IntegrationService) Disconnect(ctx context.Context, orgID uuid.UUID, provider models.Provider) error {
	if err := s.repo.DeleteIntegration(ctx, orgID, provider); err != nil {
		return err
	}
	s.logger.Info("Integration disconnected",
		zap.String("organization_id", orgID.String()),
		zap.String("provider", string(provider)),
	)
	return nil
}

// connectedToken loads the token of a connected provider.
func connectedToken(
	ctx context.Context,
	repo IntegrationRepository,
	orgID uuid.UUID,
	provider models.Provider,
) (*models.JobWebsiteIntegration, *oauth2.Token, error) {
	integration, err := repo.GetIntegration(ctx, orgID, provider)
	if errors.Is(err, e.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: %s is not connected", e.ErrInvalidInput, provider)
	}
	if err != nil {
		return nil, nil, err
	}
	return integration, oauth.Token(integration), nil
}

// storeRefreshed persists token when the provider refreshed it.
func storeRefreshed(
	ctx context.Context,
	repo IntegrationRepository,
	integration *models.JobWebsiteIntegration,
	token *oauth2.Token,
	logger *zap.Logger,
) {
	if token == nil || token.AccessToken == integration.AccessToken {
		return
	}
	oauth.ApplyToken(integration, token)
	if err := repo.UpsertIntegration(ctx, integration); err != nil {
		logger.Warn("Failed to store refreshed token",
			zap.String("provider", string(integration.Provider)),
			zap.Error(err),
		)
	}
}
