package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	e "github.com/gartstein/recruit/internal/recruit/errors"
	"github.com/gartstein/recruit/internal/recruit/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MarkCandidateProcessing creates the candidate identified by the profile
// email, or updates its identity fields, and sets processing=true. A
// soft-deleted candidate with the same email is restored.
func (r *Repository) MarkCandidateProcessing(
	ctx context.Context,
	orgID uuid.UUID,
	profile *models.CandidateProfile,
	resumeKey string,
) (*models.Candidate, error) {
	var candidate models.Candidate
	err := r.db.WithContext(ctx).Unscoped().Where("email = ?", profile.Email).First(&candidate).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		candidate = models.Candidate{
			OrganizationID: orgID,
			Name:           profile.Name,
			Email:          profile.Email,
			Phone:          profile.Phone,
			Address:        profile.Address,
			ResumeKey:      resumeKey,
			Processing:     true,
		}
		if err := r.db.WithContext(ctx).Create(&candidate).Error; err != nil {
			return nil, persistenceError(err)
		}
		return &candidate, nil
	case err != nil:
		return nil, persistenceError(err)
	}

	if candidate.OrganizationID != orgID {
		return nil, fmt.Errorf("%w: email %s belongs to another organization", e.ErrInvalidInput, profile.Email)
	}

	result := r.db.WithContext(ctx).Unscoped().Model(&candidate).Updates(map[string]interface{}{
		"name":       profile.Name,
		"phone":      profile.Phone,
		"address":    profile.Address,
		"resume_key": resumeKey,
		"processing": true,
		"deleted_at": nil,
	})
	if result.Error != nil {
		return nil, persistenceError(result.Error)
	}
	candidate.DeletedAt = gorm.DeletedAt{}
	return &candidate, nil
}

// ReplaceCandidateDetails deletes every skill, education, experience and
// achievement row of the candidate, inserts the ones from profile and clears
// the processing flag, all in one transaction.
func (r *Repository) ReplaceCandidateDetails(ctx context.Context, candidateID uuid.UUID, profile *models.CandidateProfile) error {
	return r.WithTransaction(ctx, func(tx *Repository) error {
		db := tx.db.WithContext(ctx)
		for _, child := range []interface{}{&models.Skill{}, &models.Education{}, &models.WorkExperience{}, &models.Achievement{}} {
			if err := db.Where("candidate_id = ?", candidateID).Delete(child).Error; err != nil {
				return persistenceError(err)
			}
		}

		skills := make([]models.Skill, len(profile.Skills))
		for i, s := range profile.Skills {
			s.ID = uuid.Nil
			s.CandidateID = &candidateID
			s.JobPostID = nil
			skills[i] = s
		}
		education := make([]models.Education, len(profile.Education))
		for i, ed := range profile.Education {
			ed.ID = uuid.Nil
			ed.CandidateID = candidateID
			education[i] = ed
		}
		experience := make([]models.WorkExperience, len(profile.Experience))
		for i, w := range profile.Experience {
			w.ID = uuid.Nil
			w.CandidateID = candidateID
			experience[i] = w
		}
		achievements := make([]models.Achievement, len(profile.Achievements))
		for i, a := range profile.Achievements {
			a.ID = uuid.Nil
			a.CandidateID = candidateID
			achievements[i] = a
		}

		if err := createAll(db, &skills, len(skills)); err != nil {
			return err
		}
		if err := createAll(db, &education, len(education)); err != nil {
			return err
		}
		if err := createAll(db, &experience, len(experience)); err != nil {
			return err
		}
		if err := createAll(db, &achievements, len(achievements)); err != nil {
			return err
		}

		result := db.Model(&models.Candidate{}).Where("id = ?", candidateID).Update("processing", false)
		if result.Error != nil {
			return persistenceError(result.Error)
		}
		if result.RowsAffected == 0 {
			return e.ErrNotFound
		}
		return nil
	})
}

// SetCandidateProcessing updates the processing flag only.
func (r *Repository) SetCandidateProcessing(ctx context.Context, candidateID uuid.UUID, processing bool) error {
	result := r.db.WithContext(ctx).Model(&models.Candidate{}).
		Where("id = ?", candidateID).
		Update("processing", processing)
	if result.Error != nil {
		return persistenceError(result.Error)
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

// ListCandidates returns the organization's candidates that are not deleted.
// With archived=false only non-archived candidates are returned, with
// archived=true only archived ones.
func (r *Repository) ListCandidates(ctx context.Context, orgID uuid.UUID, archived bool) ([]models.Candidate, error) {
	query := r.db.WithContext(ctx).
		Preload("Skills").
		Where("organization_id = ?", orgID)
	if archived {
		query = query.Where("archived_at IS NOT NULL")
	} else {
		query = query.Where("archived_at IS NULL")
	}

	var candidates []models.Candidate
	if err := query.Order("created_at DESC").Find(&candidates).Error; err != nil {
		return nil, persistenceError(err)
	}
	return candidates, nil
}

func (r *Repository) GetCandidate(ctx context.Context, orgID, id uuid.UUID) (*models.Candidate, error) {
	var candidate models.Candidate
	err := r.db.WithContext(ctx).
		Preload("Skills").
		Preload("Education").
		Preload("Experience").
		Preload("Achievements").
		Where("organization_id = ?", orgID).
		First(&candidate, "id = ?", id).Error
	if err != nil {
		return nil, persistenceError(err)
	}
	return &candidate, nil
}

// ToggleCandidateArchive archives an active candidate or unarchives an
// archived one.
func (r *Repository) ToggleCandidateArchive(ctx context.Context, orgID, id uuid.UUID, now time.Time) (*models.Candidate, error) {
	var candidate models.Candidate
	err := r.WithTransaction(ctx, func(tx *Repository) error {
		db := tx.db.WithContext(ctx)
		if err := db.Where("organization_id = ?", orgID).First(&candidate, "id = ?", id).Error; err != nil {
			return persistenceError(err)
		}
		var archivedAt *time.Time
		if candidate.ArchivedAt == nil {
			archivedAt = &now
		}
		if err := db.Model(&candidate).Update("archived_at", archivedAt).Error; err != nil {
			return persistenceError(err)
		}
		candidate.ArchivedAt = archivedAt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &candidate, nil
}

// DeleteCandidate soft-deletes a candidate.
func (r *Repository) DeleteCandidate(ctx context.Context, orgID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Delete(&models.Candidate{}, "id = ?", id)
	if result.Error != nil {
		return persistenceError(result.Error)
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

func createAll[T any](db *gorm.DB, rows *[]T, n int) error {
	if n == 0 {
		return nil
	}
	if err := db.Create(rows).Error; err != nil {
		return persistenceError(err)
	}
	return nil
}
