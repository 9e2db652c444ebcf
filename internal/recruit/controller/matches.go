package controller

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gartstein/recruit/internal/recruit/events"
	"github.com/gartstein/recruit/internal/recruit/export"
	"github.com/gartstein/recruit/internal/recruit/llm"
	"github.com/gartstein/recruit/internal/recruit/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type MatchRepository interface {
	GetCandidate(ctx context.Context, orgID, id uuid.UUID) (*models.Candidate, error)
	GetJobPost(ctx context.Context, orgID, id uuid.UUID) (*models.JobPost, error)
	ListEligibleJobPosts(ctx context.Context, orgID uuid.UUID) ([]models.JobPost, error)
	UpsertMatch(ctx context.Context, match *models.Match) (*models.Match, error)
	ListMatchesByPost(ctx context.Context, orgID, postID uuid.UUID) ([]models.Match, error)
}

type Scorer interface {
	Score(ctx context.Context, candidate *models.Candidate, post *models.JobPost) (*llm.ScoreResult, error)
}

// MatchService scores candidates against the organization's open posts.
type MatchService struct {
	repo     MatchRepository
	scorer   Scorer
	producer EventProducer
	logger   *zap.Logger
}

func NewMatchService(repo MatchRepository, scorer Scorer, producer EventProducer, logger *zap.Logger) *MatchService {
	if producer == nil {
		producer = noopProducer{}
	}
	return &MatchService{
		repo:     repo,
		scorer:   scorer,
		producer: producer,
		logger:   logger.Named("match_service"),
	}
}

// ScoreCandidate scores the candidate against every eligible post
// concurrently and returns the matches that met models.MatchThreshold.
// A failing post is logged and skipped. An archived candidate yields no
// matches.
func (s *MatchService) ScoreCandidate(ctx context.Context, orgID, candidateID uuid.UUID) ([]models.Match, error) {
	candidate, err := s.repo.GetCandidate(ctx, orgID, candidateID)
	if err != nil {
		return nil, err
	}
	if candidate.ArchivedAt != nil {
		s.logger.Info("Skipping scoring of archived candidate", zap.String("candidate_id", candidateID.String()))
		return []models.Match{}, nil
	}

	posts, err := s.repo.ListEligibleJobPosts(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list job posts: %w", err)
	}

	results := make([]*models.Match, len(posts))
	var wg sync.WaitGroup
	for i := range posts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = s.scorePost(ctx, candidate, &posts[i])
		}(i)
	}
	wg.Wait()

	matches := make([]models.Match, 0, len(posts))
	for _, m := range results {
		if m != nil {
			matches = append(matches, *m)
		}
	}
	s.logger.Info("Candidate scored",
		zap.String("candidate_id", candidateID.String()),
		zap.Int("posts", len(posts)),
		zap.Int("matches", len(matches)),
	)
	return matches, nil
}

func (s *MatchService) scorePost(ctx context.Context, candidate *models.Candidate, post *models.JobPost) *models.Match {
	fields := []zap.Field{
		zap.String("candidate_id", candidate.ID.String()),
		zap.String("post_id", post.ID.String()),
	}

	res, err := s.scorer.Score(ctx, candidate, post)
	if err != nil {
		s.logger.Warn("Failed to score candidate for post", append(fields, zap.Error(err))...)
		return nil
	}
	if res.Score < models.MatchThreshold {
		s.logger.Info("Score below match threshold", append(fields, zap.Int("score", res.Score))...)
		return nil
	}

	match := &models.Match{
		PostID:         post.ID,
		CandidateID:    candidate.ID,
		OrganizationID: candidate.OrganizationID,
		Score:          res.Score,
		Reasoning:      res.Reasoning,
		Status:         models.MatchNew,
	}
	if err := match.SetMetadata(res.Metadata); err != nil {
		s.logger.Error("Failed to encode match metadata", append(fields, zap.Error(err))...)
		return nil
	}

	stored, err := s.repo.UpsertMatch(ctx, match)
	if err != nil {
		s.logger.Error("Failed to store match", append(fields, zap.Error(err))...)
		return nil
	}
	s.producer.Produce(events.NewMatchEvent(events.MatchScored, stored))
	return stored
}

// CandidateIngested scores a freshly ingested candidate in the calling
// goroutine. Errors are logged.
func (s *MatchService) CandidateIngested(ctx context.Context, orgID, candidateID uuid.UUID) {
	if _, err := s.ScoreCandidate(ctx, orgID, candidateID); err != nil {
		s.logger.Error("Inline scoring failed",
			zap.String("candidate_id", candidateID.String()),
			zap.Error(err),
		)
	}
}

// HandleCandidateIngested is the events.Handler of the scorer worker.
func (s *MatchService) HandleCandidateIngested(ctx context.Context, event events.Event) error {
	_, err := s.ScoreCandidate(ctx, event.OrganizationID, event.CandidateID)
	return err
}

// ListByPost returns the matches of a post, best first.
func (s *MatchService) ListByPost(ctx context.Context, orgID, postID uuid.UUID) ([]models.Match, error) {
	if _, err := s.repo.GetJobPost(ctx, orgID, postID); err != nil {
		return nil, err
	}
	return s.repo.ListMatchesByPost(ctx, orgID, postID)
}

// Export writes the matches of a post as an xlsx workbook and returns the
// file name to offer for download.
func (s *MatchService) Export(ctx context.Context, orgID, postID uuid.UUID, w io.Writer, now time.Time) (string, error) {
	post, err := s.repo.GetJobPost(ctx, orgID, postID)
	if err != nil {
		return "", err
	}
	matches, err := s.repo.ListMatchesByPost(ctx, orgID, postID)
	if err != nil {
		return "", err
	}
	if err := export.WriteMatches(w, post, matches); err != nil {
		return "", fmt.Errorf("failed to export matches: %w", err)
	}
	return export.FileName(post, now), nil
}
