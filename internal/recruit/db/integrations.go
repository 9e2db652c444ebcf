package db

import (
	"context"
	"fmt"
	"time"

	e "github.com/gartstein/recruit/internal/recruit/errors"
	"github.com/gartstein/recruit/internal/recruit/models"
	"github.com/google/uuid"
	"gorm.io/gorm/clause"
)

// UpsertIntegration stores fresh credentials for (organization, provider).
func (r *Repository) UpsertIntegration(ctx context.Context, integration *models.JobWebsiteIntegration) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "organization_id"}, {Name: "provider"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"access_token", "refresh_token", "token_type", "expiry", "account_id", "updated_at",
		}),
	}).Create(integration).Error
	return persistenceError(err)
}

func (r *Repository) GetIntegration(
	ctx context.Context,
	orgID uuid.UUID,
	provider models.Provider,
) (*models.JobWebsiteIntegration, error) {
	var integration models.JobWebsiteIntegration
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND provider = ?", orgID, provider).
		First(&integration).Error
	if err != nil {
		return nil, persistenceError(err)
	}
	return &integration, nil
}

func (r *Repository) DeleteIntegration(ctx context.Context, orgID uuid.UUID, provider models.Provider) error {
	result := r.db.WithContext(ctx).
		Where("organization_id = ? AND provider = ?", orgID, provider).
		Delete(&models.JobWebsiteIntegration{})
	if result.Error != nil {
		return persistenceError(result.Error)
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

func (r *Repository) CreateOAuthState(ctx context.Context, state *models.OAuthState) error {
	return persistenceError(r.db.WithContext(ctx).Create(state).Error)
}

// ConsumeOAuthState deletes the state and returns it. A state can be used
// once; an unknown, expired or provider-mismatched state is reported as
// invalid input.
func (r *Repository) ConsumeOAuthState(
	ctx context.Context,
	state string,
	provider models.Provider,
	now time.Time,
) (*models.OAuthState, error) {
	var stored models.OAuthState
	err := r.WithTransaction(ctx, func(tx *Repository) error {
		db := tx.db.WithContext(ctx)
		if err := db.First(&stored, "state = ?", state).Error; err != nil {
			return fmt.Errorf("%w: unknown oauth state", e.ErrInvalidInput)
		}
		if err := db.Delete(&stored).Error; err != nil {
			return persistenceError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if stored.Provider != provider {
		return nil, fmt.Errorf("%w: oauth state issued for %s", e.ErrInvalidInput, stored.Provider)
	}
	if stored.Expired(now) {
		return nil, fmt.Errorf("%w: oauth state expired", e.ErrInvalidInput)
	}
	return &stored, nil
}

// DeleteExpiredOAuthStates removes abandoned authorization attempts.
func (r *Repository) DeleteExpiredOAuthStates(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.OAuthState{})
	return result.RowsAffected, persistenceError(result.Error)
}
