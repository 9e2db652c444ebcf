package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/gartstein/recruit/internal/recruit/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CandidateRepository interface {
	ListCandidates(ctx context.Context, orgID uuid.UUID, archived bool) ([]models.Candidate, error)
	GetCandidate(ctx context.Context, orgID, id uuid.UUID) (*models.Candidate, error)
	ToggleCandidateArchive(ctx context.Context, orgID, id uuid.UUID, now time.Time) (*models.Candidate, error)
	DeleteCandidate(ctx context.Context, orgID, id uuid.UUID) error
}

type CandidateService struct {
	repo   CandidateRepository
	now    Clock
	logger *zap.Logger
}

func NewCandidateService(repo CandidateRepository, logger *zap.Logger) *CandidateService {
	return &CandidateService{
		repo:   repo,
		now:    time.Now,
		logger: logger.Named("candidate_service"),
	}
}

// List returns active candidates, or archived ones when archived is set.
// Deleted candidates are never returned.
func (s *CandidateService) List(ctx context.Context, orgID uuid.UUID, archived bool) ([]models.Candidate, error) {
	candidates, err := s.repo.ListCandidates(ctx, orgID, archived)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	return candidates, nil
}

func (s *CandidateService) Get(ctx context.Context, orgID, id uuid.UUID) (*models.Candidate, error) {
	return s.repo.GetCandidate(ctx, orgID, id)
}

// ToggleArchive archives an active candidate and restores an archived one.
func (s *CandidateService) ToggleArchive(ctx context.Context, orgID, id uuid.UUID) (*models.Candidate, error) {
	candidate, err := s.repo.ToggleCandidateArchive(ctx, orgID, id, s.now().UTC())
	if err != nil {
		return nil, err
	}
	s.logger.Info("Candidate archive toggled",
		zap.String("candidate_id", id.String()),
		zap.Bool("archived", candidate.ArchivedAt != nil),
	)
	return candidate, nil
}

func (s *CandidateService) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	if err := s.repo.DeleteCandidate(ctx, orgID, id); err != nil {
		return err
	}
	s.logger.Info("Candidate deleted", zap.String("candidate_id", id.String()))
	return nil
}
