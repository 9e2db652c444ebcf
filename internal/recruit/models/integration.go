package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Provider names an external platform an organization can connect.
type Provider string

const (
	ProviderGoogle       Provider = "google"
	ProviderLinkedIn     Provider = "linkedin"
	ProviderIndeed       Provider = "indeed"
	ProviderGlassdoor    Provider = "glassdoor"
	ProviderMonster      Provider = "monster"
	ProviderZipRecruiter Provider = "ziprecruiter"
)

// Providers lists every supported provider.
var Providers = []Provider{
	ProviderGoogle,
	ProviderLinkedIn,
	ProviderIndeed,
	ProviderGlassdoor,
	ProviderMonster,
	ProviderZipRecruiter,
}

func (p Provider) Valid() bool {
	for _, known := range Providers {
		if p == known {
			return true
		}
	}
	return false
}

// JobWebsiteIntegration stores the OAuth credentials of one organization
// for one provider. Google Calendar uses the "google" provider.
type JobWebsiteIntegration struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_integration_org_provider" json:"organizationId"`
	Provider       Provider   `gorm:"size:32;not null;uniqueIndex:idx_integration_org_provider" json:"provider"`
	AccessToken    string     `gorm:"type:text" json:"-"`
	RefreshToken   string     `gorm:"type:text" json:"-"`
	TokenType      string     `gorm:"size:32" json:"-"`
	Expiry         *time.Time `json:"expiry,omitempty"`
	AccountID      string     `gorm:"size:255" json:"accountId,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func (i *JobWebsiteIntegration) BeforeCreate(_ *gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// OAuthState protects an OAuth authorization round trip against CSRF and
// binds the callback to the organization that started it.
type OAuthState struct {
	State          string    `gorm:"size:128;primaryKey" json:"state"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null" json:"organizationId"`
	UserID         uuid.UUID `gorm:"type:uuid;not null" json:"userId"`
	Provider       Provider  `gorm:"size:32;not null" json:"provider"`
	ExpiresAt      time.Time `gorm:"index;not null" json:"expiresAt"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (OAuthState) TableName() string {
	return "oauth_states"
}

func (s *OAuthState) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// All returns every model for auto-migration.
func All() []interface{} {
	return []interface{}{
		&Organization{},
		&User{},
		&Candidate{},
		&Skill{},
		&Education{},
		&WorkExperience{},
		&Achievement{},
		&JobPost{},
		&Match{},
		&JobWebsiteIntegration{},
		&OAuthState{},
	}
}
