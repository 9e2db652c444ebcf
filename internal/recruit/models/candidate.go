// Package models contains the domain models of the recruiting service,
// configured to work with GORM as the ORM.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SkillCategory tags a skill as technical (HARD) or interpersonal (SOFT).
type SkillCategory string

const (
	SkillHard SkillCategory = "HARD"
	SkillSoft SkillCategory = "SOFT"
)

// Candidate is a person whose resume has been ingested by an organization.
// Email is globally unique; re-ingesting a resume with the same email
// replaces every owned collection.
type Candidate struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;index;not null" json:"organizationId"`
	Name           string    `gorm:"size:255" json:"name"`
	Email          string    `gorm:"size:320;uniqueIndex;not null" json:"email"`
	Phone          string    `gorm:"size:64" json:"phone,omitempty"`
	Address        string    `gorm:"size:512" json:"address,omitempty"`
	// ResumeKey is the object storage key of the original resume file.
	ResumeKey string `gorm:"size:1024" json:"resumeKey,omitempty"`
	// Processing is true while an ingestion for this candidate is in flight;
	// skills and experience are provisional until it is cleared.
	Processing bool `gorm:"not null;default:false" json:"processing"`

	Skills       []Skill          `gorm:"foreignKey:CandidateID;constraint:OnDelete:CASCADE" json:"skills"`
	Education    []Education      `gorm:"foreignKey:CandidateID;constraint:OnDelete:CASCADE" json:"education"`
	Experience   []WorkExperience `gorm:"foreignKey:CandidateID;constraint:OnDelete:CASCADE" json:"experience"`
	Achievements []Achievement    `gorm:"foreignKey:CandidateID;constraint:OnDelete:CASCADE" json:"achievements"`

	ArchivedAt *time.Time     `gorm:"index" json:"archivedAt,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *Candidate) BeforeCreate(_ *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// Skill is either owned by a candidate (Level is proficiency) or by a job
// post (Level is the requirement weight). Level is always in 1..10.
type Skill struct {
	ID          uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	CandidateID *uuid.UUID    `gorm:"type:uuid;index" json:"candidateId,omitempty"`
	JobPostID   *uuid.UUID    `gorm:"type:uuid;index" json:"jobPostId,omitempty"`
	Name        string        `gorm:"size:128;not null" json:"name"`
	Level       int           `gorm:"not null;check:level >= 1 AND level <= 10" json:"level"`
	Category    SkillCategory `gorm:"size:8;not null;default:HARD" json:"category"`
}

func (s *Skill) BeforeCreate(_ *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

type Education struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CandidateID  uuid.UUID  `gorm:"type:uuid;index;not null" json:"candidateId"`
	Institution  string     `gorm:"size:255" json:"institution"`
	Degree       string     `gorm:"size:255" json:"degree"`
	FieldOfStudy string     `gorm:"size:255" json:"fieldOfStudy,omitempty"`
	StartDate    *time.Time `json:"startDate,omitempty"`
	EndDate      *time.Time `json:"endDate,omitempty"`
}

func (e *Education) BeforeCreate(_ *gorm.DB) error {
	ensureID(&e.ID)
	return nil
}

type WorkExperience struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CandidateID uuid.UUID  `gorm:"type:uuid;index;not null" json:"candidateId"`
	Company     string     `gorm:"size:255" json:"company"`
	Title       string     `gorm:"size:255" json:"title"`
	Description string     `gorm:"type:text" json:"description,omitempty"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	Current     bool       `json:"current"`
}

func (w *WorkExperience) BeforeCreate(_ *gorm.DB) error {
	ensureID(&w.ID)
	return nil
}

type Achievement struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CandidateID uuid.UUID  `gorm:"type:uuid;index;not null" json:"candidateId"`
	Title       string     `gorm:"size:255" json:"title"`
	Description string     `gorm:"type:text" json:"description,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
}

func (a *Achievement) BeforeCreate(_ *gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

// CandidateProfile is the structured data extracted from one resume,
// ready to be upserted onto a Candidate.
type CandidateProfile struct {
	Name         string
	Email        string
	Phone        string
	Address      string
	Skills       []Skill
	Education    []Education
	Experience   []WorkExperience
	Achievements []Achievement
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
