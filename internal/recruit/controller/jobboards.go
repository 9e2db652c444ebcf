package controller

import (
	"context"
	"fmt"
	"time"

	e "github.com/gartstein/recruit/internal/recruit/errors"
	"github.com/gartstein/recruit/internal/recruit/jobboard"
	"github.com/gartstein/recruit/internal/recruit/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

type JobBoard interface {
	PostJob(ctx context.Context, token *oauth2.Token, post *models.JobPost, now time.Time) (string, error)
	Applications(ctx context.Context, token *oauth2.Token, jobID string) ([]jobboard.Application, error)
}

type JobBoardRepository interface {
	GetJobPost(ctx context.Context, orgID, id uuid.UUID) (*models.JobPost, error)
	ListJobPosts(ctx context.Context, orgID uuid.UUID, archived bool) ([]models.JobPost, error)
	SetLinkedInJobID(ctx context.Context, orgID, id uuid.UUID, linkedInID string) error
}

// JobBoardService publishes posts to LinkedIn and reads their applications.
type JobBoardService struct {
	posts        JobBoardRepository
	integrations IntegrationRepository
	linkedIn     JobBoard
	now          Clock
	logger       *zap.Logger
}

func NewJobBoardService(posts JobBoardRepository, integrations IntegrationRepository, linkedIn JobBoard, logger *zap.Logger) *JobBoardService {
	return &JobBoardService{
		posts:        posts,
		integrations: integrations,
		linkedIn:     linkedIn,
		now:          time.Now,
		logger:       logger.Named("jobboard_service"),
	}
}

// PostToLinkedIn publishes an eligible post once.
func (s *JobBoardService) PostToLinkedIn(ctx context.Context, orgID, postID uuid.UUID) (*models.JobPost, error) {
	post, err := s.posts.GetJobPost(ctx, orgID, postID)
	if err != nil {
		return nil, err
	}
	if !post.Eligible() {
		return nil, fmt.Errorf("%w: only active job posts can be published", e.ErrInvalidInput)
	}
	if post.LinkedInJobID != "" {
		return nil, fmt.Errorf("%w: job post is already published on linkedin", e.ErrInvalidInput)
	}

	_, token, err := connectedToken(ctx, s.integrations, orgID, models.ProviderLinkedIn)
	if err != nil {
		return nil, err
	}
	jobID, err := s.linkedIn.PostJob(ctx, token, post, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.posts.SetLinkedInJobID(ctx, orgID, postID, jobID); err != nil {
		return nil, fmt.Errorf("failed to store linkedin job id: %w", err)
	}
	post.LinkedInJobID = jobID
	return post, nil
}

// Applications returns the LinkedIn applications of one post, or of every
// published active post when postID is uuid.Nil.
func (s *JobBoardService) Applications(ctx context.Context, orgID, postID uuid.UUID) ([]jobboard.Application, error) {
	var jobIDs []string
	if postID != uuid.Nil {
		post, err := s.posts.GetJobPost(ctx, orgID, postID)
		if err != nil {
			return nil, err
		}
		if post.LinkedInJobID == "" {
			return nil, fmt.Errorf("%w: job post is not published on linkedin", e.ErrInvalidInput)
		}
		jobIDs = append(jobIDs, post.LinkedInJobID)
	} else {
		posts, err := s.posts.ListJobPosts(ctx, orgID, false)
		if err != nil {
			return nil, err
		}
		for _, p := range posts {
			if p.LinkedInJobID != "" {
				jobIDs = append(jobIDs, p.LinkedInJobID)
			}
		}
	}

	apps := []jobboard.Application{}
	if len(jobIDs) == 0 {
		return apps, nil
	}
	_, token, err := connectedToken(ctx, s.integrations, orgID, models.ProviderLinkedIn)
	if err != nil {
		return nil, err
	}
	for _, id := range jobIDs {
		res, err := s.linkedIn.Applications(ctx, token, id)
		if err != nil {
			return nil, err
		}
		apps = append(apps, res...)
	}
	return apps, nil
}
