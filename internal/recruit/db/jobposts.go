package db

import (
	"context"
	"time"

	e "github.com/gartstein/recruit/internal/recruit/errors"
	"github.com/gartstein/recruit/internal/recruit/models"
	"github.com/google/uuid"
)

func (r *Repository) CreateJobPost(ctx context.Context, post *models.JobPost) error {
	for i := range post.Skills {
		post.Skills[i].CandidateID = nil
	}
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return persistenceError(err)
	}
	return nil
}

func (r *Repository) GetJobPost(ctx context.Context, orgID, id uuid.UUID) (*models.JobPost, error) {
	var post models.JobPost
	err := r.db.WithContext(ctx).
		Preload("Skills").
		Where("organization_id = ?", orgID).
		First(&post, "id = ?", id).Error
	if err != nil {
		return nil, persistenceError(err)
	}
	return &post, nil
}

// ListJobPosts returns non-deleted posts, either archived or not.
func (r *Repository) ListJobPosts(ctx context.Context, orgID uuid.UUID, archived bool) ([]models.JobPost, error) {
	query := r.db.WithContext(ctx).Preload("Skills").Where("organization_id = ?", orgID)
	if archived {
		query = query.Where("archived_at IS NOT NULL")
	} else {
		query = query.Where("archived_at IS NULL")
	}

	var posts []models.JobPost
	if err := query.Order("created_at DESC").Find(&posts).Error; err != nil {
		return nil, persistenceError(err)
	}
	return posts, nil
}

// ListEligibleJobPosts returns the posts a candidate can be matched
// against: ACTIVE, not archived, not deleted.
func (r *Repository) ListEligibleJobPosts(ctx context.Context, orgID uuid.UUID) ([]models.JobPost, error) {
	var posts []models.JobPost
	err := r.db.WithContext(ctx).
		Preload("Skills").
		Where("organization_id = ? AND status = ? AND archived_at IS NULL", orgID, models.JobPostActive).
		Order("created_at ASC").
		Find(&posts).Error
	if err != nil {
		return nil, persistenceError(err)
	}
	return posts, nil
}

// UpdateJobPost applies the partial update. When update.Skills is set the
// previous requirement rows are replaced in the same transaction.
func (r *Repository) UpdateJobPost(ctx context.Context, update *models.JobPostUpdate) error {
	fields := map[string]interface{}{}
	if update.Title != nil {
		fields["title"] = *update.Title
	}
	if update.Description != nil {
		fields["description"] = *update.Description
	}
	if update.CompanyName != nil {
		fields["company_name"] = *update.CompanyName
	}
	if update.EmploymentType != nil {
		fields["employment_type"] = *update.EmploymentType
	}
	if update.WorkplaceType != nil {
		fields["workplace_type"] = *update.WorkplaceType
	}
	if update.Seniority != nil {
		fields["seniority"] = *update.Seniority
	}
	if update.YearsOfExperience != nil {
		fields["years_of_experience"] = *update.YearsOfExperience
	}
	if update.Location != nil {
		fields["location"] = *update.Location
	}
	fields["updated_at"] = time.Now()

	return r.WithTransaction(ctx, func(tx *Repository) error {
		db := tx.db.WithContext(ctx)
		result := db.Model(&models.JobPost{}).
			Where("id = ? AND organization_id = ?", update.ID, update.OrganizationID).
			Updates(fields)
		if result.Error != nil {
			return persistenceError(result.Error)
		}
		if result.RowsAffected == 0 {
			return e.ErrNotFound
		}

		if update.Skills == nil {
			return nil
		}
		if err := db.Where("job_post_id = ?", update.ID).Delete(&models.Skill{}).Error; err != nil {
			return persistenceError(err)
		}
		skills := make([]models.Skill, len(*update.Skills))
		for i, s := range *update.Skills {
			s.ID = uuid.Nil
			s.JobPostID = &update.ID
			s.CandidateID = nil
			skills[i] = s
		}
		return createAll(db, &skills, len(skills))
	})
}

// ToggleJobPostArchive archives an active post or unarchives an archived one.
func (r *Repository) ToggleJobPostArchive(ctx context.Context, orgID, id uuid.UUID, now time.Time) (*models.JobPost, error) {
	var post models.JobPost
	err := r.WithTransaction(ctx, func(tx *Repository) error {
		db := tx.db.WithContext(ctx)
		if err := db.Where("organization_id = ?", orgID).First(&post, "id = ?", id).Error; err != nil {
			return persistenceError(err)
		}
		var archivedAt *time.Time
		if post.ArchivedAt == nil {
			archivedAt = &now
		}
		if err := db.Model(&post).Update("archived_at", archivedAt).Error; err != nil {
			return persistenceError(err)
		}
		post.ArchivedAt = archivedAt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *Repository) SetJobPostStatus(ctx context.Context, orgID, id uuid.UUID, status models.JobPostStatus) error {
	return r.updateJobPostColumn(ctx, orgID, id, "status", status)
}

func (r *Repository) SetLinkedInJobID(ctx context.Context, orgID, id uuid.UUID, linkedInID string) error {
	return r.updateJobPostColumn(ctx, orgID, id, "linkedin_job_id", linkedInID)
}

func (r *Repository) updateJobPostColumn(ctx context.Context, orgID, id uuid.UUID, column string, value interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.JobPost{}).
		Where("id = ? AND organization_id = ?", id, orgID).
		Update(column, value)
	if result.Error != nil {
		return persistenceError(result.Error)
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

// DeleteJobPost soft-deletes a post.
func (r *Repository) DeleteJobPost(ctx context.Context, orgID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Delete(&models.JobPost{}, "id = ?", id)
	if result.Error != nil {
		return persistenceError(result.Error)
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}
