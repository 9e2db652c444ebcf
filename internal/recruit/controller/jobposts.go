package controller

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	e "github.com/gartstein/recruit/internal/recruit/errors"
	"github.com/gartstein/recruit/internal/recruit/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type JobPostRepository interface {
	CreateJobPost(ctx context.Context, post *models.JobPost) error
	GetJobPost(ctx context.Context, orgID, id uuid.UUID) (*models.JobPost, error)
	ListJobPosts(ctx context.Context, orgID uuid.UUID, archived bool) ([]models.JobPost, error)
	UpdateJobPost(ctx context.Context, update *models.JobPostUpdate) error
	ToggleJobPostArchive(ctx context.Context, orgID, id uuid.UUID, now time.Time) (*models.JobPost, error)
	SetJobPostStatus(ctx context.Context, orgID, id uuid.UUID, status models.JobPostStatus) error
	DeleteJobPost(ctx context.Context, orgID, id uuid.UUID) error
}

type SkillInput struct {
	Name     string               `json:"name" validate:"required,max=128"`
	Level    int                  `json:"level" validate:"min=1,max=10"`
	Category models.SkillCategory `json:"category" validate:"omitempty,oneof=HARD SOFT"`
}

// JobPostInput is the payload of a new job post. Description may be HTML,
// in which case it is stored as Markdown.
type JobPostInput struct {
	Title             string                `json:"title" validate:"required,max=255"`
	Description       string                `json:"description" validate:"max=20000"`
	CompanyName       string                `json:"companyName" validate:"max=255"`
	EmploymentType    models.EmploymentType `json:"employmentType" validate:"omitempty,oneof=FULL_TIME PART_TIME CONTRACT INTERNSHIP TEMPORARY"`
	WorkplaceType     models.WorkplaceType  `json:"workplaceType" validate:"omitempty,oneof=ONSITE HYBRID REMOTE"`
	Seniority         string                `json:"seniority" validate:"max=64"`
	YearsOfExperience int                   `json:"yearsOfExperience" validate:"min=0,max=60"`
	Location          string                `json:"location" validate:"max=255"`
	Skills            []SkillInput          `json:"skills" validate:"dive"`
}

// JobPostPatch carries a partial update; nil fields are left unchanged and
// a non-nil Skills replaces every required skill.
type JobPostPatch struct {
	Title             *string                `json:"title" validate:"omitempty,min=1,max=255"`
	Description       *string                `json:"description" validate:"omitempty,max=20000"`
	CompanyName       *string                `json:"companyName" validate:"omitempty,max=255"`
	EmploymentType    *models.EmploymentType `json:"employmentType" validate:"omitempty,oneof=FULL_TIME PART_TIME CONTRACT INTERNSHIP TEMPORARY"`
	WorkplaceType     *models.WorkplaceType  `json:"workplaceType" validate:"omitempty,oneof=ONSITE HYBRID REMOTE"`
	Seniority         *string                `json:"seniority" validate:"omitempty,max=64"`
	YearsOfExperience *int                   `json:"yearsOfExperience" validate:"omitempty,min=0,max=60"`
	Location          *string                `json:"location" validate:"omitempty,max=255"`
	Skills            *[]SkillInput          `json:"skills" validate:"omitempty,dive"`
}

type JobPostService struct {
	repo   JobPostRepository
	now    Clock
	logger *zap.Logger
}

func NewJobPostService(repo JobPostRepository, logger *zap.Logger) *JobPostService {
	return &JobPostService{
		repo:   repo,
		now:    time.Now,
		logger: logger.Named("jobpost_service"),
	}
}

func (s *JobPostService) Create(ctx context.Context, orgID, authorID uuid.UUID, in *JobPostInput) (*models.JobPost, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	description, err := toMarkdown(in.Description)
	if err != nil {
		return nil, err
	}

	post := &models.JobPost{
		ID:                uuid.New(),
		OrganizationID:    orgID,
		AuthorID:          authorID,
		Title:             strings.TrimSpace(in.Title),
		Description:       description,
		CompanyName:       in.CompanyName,
		EmploymentType:    in.EmploymentType,
		WorkplaceType:     in.WorkplaceType,
		Seniority:         in.Seniority,
		YearsOfExperience: in.YearsOfExperience,
		Location:          in.Location,
		Status:            models.JobPostActive,
		Skills:            toSkills(in.Skills),
	}
	if post.EmploymentType == "" {
		post.EmploymentType = models.FullTime
	}
	if post.WorkplaceType == "" {
		post.WorkplaceType = models.Onsite
	}

	if err := s.repo.CreateJobPost(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create job post: %w", err)
	}
	s.logger.Info("Job post created", zap.String("post_id", post.ID.String()), zap.Int("skills", len(post.Skills)))
	return post, nil
}

func (s *JobPostService) Get(ctx context.Context, orgID, id uuid.UUID) (*models.JobPost, error) {
	return s.repo.GetJobPost(ctx, orgID, id)
}

func (s *JobPostService) List(ctx context.Context, orgID uuid.UUID, archived bool) ([]models.JobPost, error) {
	posts, err := s.repo.ListJobPosts(ctx, orgID, archived)
	if err != nil {
		return nil, fmt.Errorf("failed to list job posts: %w", err)
	}
	return posts, nil
}

// Update applies patch and returns the stored post.
func (s *JobPostService) Update(ctx context.Context, orgID, id uuid.UUID, patch *JobPostPatch) (*models.JobPost, error) {
	if err := validateInput(patch); err != nil {
		return nil, err
	}

	update := &models.JobPostUpdate{
		ID:                id,
		OrganizationID:    orgID,
		Title:             patch.Title,
		CompanyName:       patch.CompanyName,
		EmploymentType:    patch.EmploymentType,
		WorkplaceType:     patch.WorkplaceType,
		Seniority:         patch.Seniority,
		YearsOfExperience: patch.YearsOfExperience,
		Location:          patch.Location,
	}
	if patch.Description != nil {
		description, err := toMarkdown(*patch.Description)
		if err != nil {
			return nil, err
		}
		update.Description = &description
	}
	if patch.Skills != nil {
		skills := toSkills(*patch.Skills)
		update.Skills = &skills
	}

	if err := s.repo.UpdateJobPost(ctx, update); err != nil {
		return nil, err
	}
	return s.repo.GetJobPost(ctx, orgID, id)
}

func (s *JobPostService) ToggleArchive(ctx context.Context, orgID, id uuid.UUID) (*models.JobPost, error) {
	post, err := s.repo.ToggleJobPostArchive(ctx, orgID, id, s.now().UTC())
	if err != nil {
		return nil, err
	}
	s.logger.Info("Job post archive toggled",
		zap.String("post_id", id.String()),
		zap.Bool("archived", post.ArchivedAt != nil),
	)
	return post, nil
}

// ToggleClosed closes an active post and reopens a closed one.
func (s *JobPostService) ToggleClosed(ctx context.Context, orgID, id uuid.UUID) (*models.JobPost, error) {
	post, err := s.repo.GetJobPost(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	next := models.JobPostClosed
	if post.Status == models.JobPostClosed {
		next = models.JobPostActive
	}
	if err := s.repo.SetJobPostStatus(ctx, orgID, id, next); err != nil {
		return nil, err
	}
	post.Status = next
	return post, nil
}

func (s *JobPostService) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	if err := s.repo.DeleteJobPost(ctx, orgID, id); err != nil {
		return err
	}
	s.logger.Info("Job post deleted", zap.String("post_id", id.String()))
	return nil
}

func toSkills(in []SkillInput) []models.Skill {
	skills := make([]models.Skill, 0, len(in))
	for _, s := range in {
		category := s.Category
		if category == "" {
			category = models.SkillHard
		}
		skills = append(skills, models.Skill{
			Name:     strings.TrimSpace(s.Name),
			Level:    s.Level,
			Category: category,
		})
	}
	return skills
}

var htmlTag = regexp.MustCompile(`(?i)<(p|div|br|ul|ol|li|h[1-6]|strong|em|b|i|a|span|table)\b[^>]*>`)

// toMarkdown converts HTML descriptions, as pasted from rich text editors
// or job boards, to Markdown. Plain text and Markdown pass through.
func toMarkdown(description string) (string, error) {
	description = strings.TrimSpace(description)
	if !htmlTag.MatchString(description) {
		return description, nil
	}
	md, err := htmltomarkdown.ConvertString(description)
	if err != nil {
		return "", fmt.Errorf("%w: description: %v", e.ErrInvalidInput, err)
	}
	return strings.TrimSpace(md), nil
}
