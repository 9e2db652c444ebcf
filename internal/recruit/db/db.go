// Package db implements the GORM-backed repository of the recruiting
// service. Tenant scoping is enforced here: every lookup takes the
// organization ID and an entity owned by another organization is reported
// as not found.
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	e "github.com/gartstein/recruit/internal/recruit/errors"
	"github.com/gartstein/recruit/internal/recruit/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Repository struct {
	db *gorm.DB
}

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	// ConnectTimeout bounds the retries of the initial connection.
	ConnectTimeout time.Duration
}

func NewRepository(cfg *Config) (*Repository, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = cfg.ConnectTimeout
	if policy.MaxElapsedTime == 0 {
		policy.MaxElapsedTime = 30 * time.Second
	}

	var db *gorm.DB
	err := backoff.Retry(func() error {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Warn),
			TranslateError: true,
		})
		return err
	}, policy)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return Open(db)
}

// Open wraps an existing connection and migrates the schema.
func Open(db *gorm.DB) (*Repository, error) {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) WithTransaction(ctx context.Context, fn func(repo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

// Exec runs a raw statement.
func (r *Repository) Exec(ctx context.Context, query string, params ...interface{}) error {
	return r.db.WithContext(ctx).Exec(query, params...).Error
}

func (r *Repository) Close() error {
	db, err := r.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

// CreateOrganization registers a tenant.
func (r *Repository) CreateOrganization(ctx context.Context, org *models.Organization) error {
	if err := r.db.WithContext(ctx).Create(org).Error; err != nil {
		return persistenceError(err)
	}
	return nil
}

// EnsureUser creates the user or updates its name and organization.
func (r *Repository) EnsureUser(ctx context.Context, user *models.User) error {
	var existing models.User
	err := r.db.WithContext(ctx).Where("email = ?", user.Email).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
			return persistenceError(err)
		}
		return nil
	case err != nil:
		return persistenceError(err)
	}

	user.ID = existing.ID
	result := r.db.WithContext(ctx).Model(&existing).Updates(map[string]interface{}{
		"name":            user.Name,
		"organization_id": user.OrganizationID,
	})
	return persistenceError(result.Error)
}

// UserOrganization returns the organization a user belongs to.
// It returns ErrNoOrganization when the user is not tenant-scoped yet.
func (r *Repository) UserOrganization(ctx context.Context, userID string) (string, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", e.ErrNoOrganization
		}
		return "", persistenceError(err)
	}
	if user.OrganizationID == nil {
		return "", e.ErrNoOrganization
	}
	return user.OrganizationID.String(), nil
}

// persistenceError maps driver errors onto the service error taxonomy.
func persistenceError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return e.ErrNotFound
	case errors.Is(err, e.ErrInvalidInput):
		return err
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: duplicate key", e.ErrInvalidInput)
	default:
		return fmt.Errorf("%w: %v", e.ErrPersistence, err)
	}
}
