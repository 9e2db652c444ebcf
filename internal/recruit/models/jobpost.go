package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EmploymentType string

const (
	FullTime   EmploymentType = "FULL_TIME"
	PartTime   EmploymentType = "PART_TIME"
	Contract   EmploymentType = "CONTRACT"
	Internship EmploymentType = "INTERNSHIP"
	Temporary  EmploymentType = "TEMPORARY"
)

func (t EmploymentType) Valid() bool {
	switch t {
	case FullTime, PartTime, Contract, Internship, Temporary:
		return true
	}
	return false
}

type WorkplaceType string

const (
	Onsite WorkplaceType = "ONSITE"
	Hybrid WorkplaceType = "HYBRID"
	Remote WorkplaceType = "REMOTE"
)

func (t WorkplaceType) Valid() bool {
	switch t {
	case Onsite, Hybrid, Remote:
		return true
	}
	return false
}

// JobPostStatus is ACTIVE while a post accepts matches.
type JobPostStatus string

const (
	JobPostActive JobPostStatus = "ACTIVE"
	JobPostClosed JobPostStatus = "CLOSED"
)

// JobPost is an opening published by an organization. Its Skills carry the
// requirement weight of each skill in Level.
type JobPost struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID    uuid.UUID      `gorm:"type:uuid;index;not null" json:"organizationId"`
	AuthorID          uuid.UUID      `gorm:"type:uuid;index;not null" json:"authorId"`
	Title             string         `gorm:"size:255;not null" json:"title"`
	Description       string         `gorm:"type:text" json:"description"`
	CompanyName       string         `gorm:"size:255" json:"companyName"`
	EmploymentType    EmploymentType `gorm:"size:32;not null;default:FULL_TIME" json:"employmentType"`
	WorkplaceType     WorkplaceType  `gorm:"size:32;not null;default:ONSITE" json:"workplaceType"`
	Seniority         string         `gorm:"size:64" json:"seniority,omitempty"`
	YearsOfExperience int            `gorm:"check:years_of_experience >= 0" json:"yearsOfExperience"`
	Location          string         `gorm:"size:255" json:"location,omitempty"`
	Status            JobPostStatus  `gorm:"size:16;index;not null;default:ACTIVE" json:"status"`
	Skills            []Skill        `gorm:"foreignKey:JobPostID;constraint:OnDelete:CASCADE" json:"skills"`
	// LinkedInJobID is set once the post has been published on LinkedIn.
	LinkedInJobID string `gorm:"column:linkedin_job_id;size:128" json:"linkedInJobId,omitempty"`

	ArchivedAt *time.Time     `gorm:"index" json:"archivedAt,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *JobPost) BeforeCreate(_ *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// Eligible reports whether the post may receive new matches.
func (p *JobPost) Eligible() bool {
	return p.Status == JobPostActive && p.ArchivedAt == nil && !p.DeletedAt.Valid
}

// JobPostUpdate represents the fields that can be updated for a JobPost.
// Pointer types are used to allow partial updates; a non-nil Skills
// replaces the whole requirement set.
type JobPostUpdate struct {
	ID                uuid.UUID
	OrganizationID    uuid.UUID
	Title             *string
	Description       *string
	CompanyName       *string
	EmploymentType    *EmploymentType
	WorkplaceType     *WorkplaceType
	Seniority         *string
	YearsOfExperience *int
	Location          *string
	Skills            *[]Skill
}
