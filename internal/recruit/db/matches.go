package db

import (
	"context"

	e "github.com/gartstein/recruit/internal/recruit/errors"
	"github.com/gartstein/recruit/internal/recruit/models"
	"github.com/google/uuid"
	"gorm.io/gorm/clause"
)

// UpsertMatch inserts the match or, when the (post, candidate) pair exists,
// refreshes its score, rationale and metadata. Workflow fields (status,
// feedback, e-mail bookkeeping) of an existing match are kept. The stored
// row is returned.
func (r *Repository) UpsertMatch(ctx context.Context, match *models.Match) (*models.Match, error) {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "post_id"}, {Name: "candidate_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"score", "reasoning", "metadata", "updated_at"}),
	}).Create(match).Error
	if err != nil {
		return nil, persistenceError(err)
	}

	var stored models.Match
	err = r.db.WithContext(ctx).
		Where("post_id = ? AND candidate_id = ?", match.PostID, match.CandidateID).
		First(&stored).Error
	if err != nil {
		return nil, persistenceError(err)
	}
	return &stored, nil
}

// ListMatchesByPost returns the matches of a post, best score first.
// Candidates that are archived or deleted are left out.
func (r *Repository) ListMatchesByPost(ctx context.Context, orgID, postID uuid.UUID) ([]models.Match, error) {
	var matches []models.Match
	err := r.db.WithContext(ctx).
		Preload("Candidate").
		Preload("Candidate.Skills").
		Joins("JOIN candidates ON candidates.id = matches.candidate_id").
		Where("matches.organization_id = ? AND matches.post_id = ?", orgID, postID).
		Where("candidates.archived_at IS NULL AND candidates.deleted_at IS NULL").
		Order("matches.score DESC").
		Find(&matches).Error
	if err != nil {
		return nil, persistenceError(err)
	}
	return matches, nil
}

func (r *Repository) GetMatch(ctx context.Context, orgID, id uuid.UUID) (*models.Match, error) {
	var match models.Match
	err := r.db.WithContext(ctx).
		Preload("Candidate").
		Preload("Post").
		Where("organization_id = ?", orgID).
		First(&match, "id = ?", id).Error
	if err != nil {
		return nil, persistenceError(err)
	}
	return &match, nil
}

// UpdateMatch writes the given columns of one match.
func (r *Repository) UpdateMatch(ctx context.Context, orgID, id uuid.UUID, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.Match{}).
		Where("id = ? AND organization_id = ?", id, orgID).
		Updates(fields)
	if result.Error != nil {
		return persistenceError(result.Error)
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}
