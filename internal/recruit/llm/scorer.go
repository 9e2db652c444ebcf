package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	e "github.com/gartstein/recruit/internal/recruit/errors"
	"github.com/gartstein/recruit/internal/recruit/models"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type matchAnswer struct {
	Score           int                `json:"score" validate:"min=0,max=100"`
	SeniorityMatch  int                `json:"seniorityMatch" validate:"min=0,max=100"`
	SkillMatches    []skillMatchAnswer `json:"skillMatches" validate:"dive"`
	Reasoning       string             `json:"reasoning" validate:"required"`
	Recommendations []string           `json:"recommendations"`
}

type skillMatchAnswer struct {
	Skill          string `json:"skill" validate:"required"`
	RequiredLevel  int    `json:"requiredLevel" validate:"min=0,max=10"`
	CandidateLevel int    `json:"candidateLevel" validate:"min=0,max=10"`
	Match          string `json:"match" validate:"oneof=EXCEEDS MEETS PARTIAL MISSING"`
}

// ScoreResult is the validated outcome of scoring one candidate against one post.
type ScoreResult struct {
	Score     int
	Reasoning string
	Metadata  models.MatchMetadata
}

type Scorer struct {
	gen      Generator
	validate *validator.Validate
	logger   *zap.Logger
}

func NewScorer(gen Generator, logger *zap.Logger) *Scorer {
	return &Scorer{
		gen:      gen,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.Named("match_scorer"),
	}
}

func (s *Scorer) Score(ctx context.Context, candidate *models.Candidate, post *models.JobPost) (*ScoreResult, error) {
	raw, err := s.gen.GenerateJSON(ctx, scoringPrompt(candidate, post), matchSchema)
	if err != nil {
		return nil, err
	}

	var answer matchAnswer
	if err := decodeStrict(raw, &answer); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(&answer); err != nil {
		return nil, fmt.Errorf("%w: %v", e.ErrSchemaValidation, err)
	}

	result := &ScoreResult{
		Score:     answer.Score,
		Reasoning: strings.TrimSpace(answer.Reasoning),
		Metadata: models.MatchMetadata{
			SeniorityMatch:  answer.SeniorityMatch,
			Recommendations: answer.Recommendations,
		},
	}
	for _, sm := range answer.SkillMatches {
		result.Metadata.SkillMatches = append(result.Metadata.SkillMatches, models.SkillMatch(sm))
	}
	return result, nil
}

func scoringPrompt(c *models.Candidate, p *models.JobPost) string {
	var b strings.Builder
	b.WriteString("You are a recruiter evaluating how well a candidate fits a job. Return JSON only.\n\n")

	b.WriteString("JOB\n")
	fmt.Fprintf(&b, "Title: %s\n", p.Title)
	if p.Seniority != "" {
		fmt.Fprintf(&b, "Seniority: %s\n", p.Seniority)
	}
	fmt.Fprintf(&b, "Years of experience required: %d\n", p.YearsOfExperience)
	fmt.Fprintf(&b, "Employment: %s, %s\n", p.EmploymentType, p.WorkplaceType)
	b.WriteString("Required skills (name: weight 1-10):\n")
	for _, sk := range p.Skills {
		fmt.Fprintf(&b, "- %s: %d\n", sk.Name, sk.Level)
	}

	b.WriteString("\nCANDIDATE\n")
	b.WriteString("Skills (name: proficiency 1-10):\n")
	for _, sk := range c.Skills {
		fmt.Fprintf(&b, "- %s: %d (%s)\n", sk.Name, sk.Level, sk.Category)
	}
	b.WriteString("Experience:\n")
	for _, ex := range c.Experience {
		fmt.Fprintf(&b, "- %s at %s (%s to %s)\n", ex.Title, ex.Company, formatDate(ex.StartDate), endDate(ex.EndDate, ex.Current))
	}
	b.WriteString("Education:\n")
	for _, ed := range c.Education {
		fmt.Fprintf(&b, "- %s %s, %s\n", ed.Degree, ed.FieldOfStudy, ed.Institution)
	}

	b.WriteString(`
Scoring rules:
- score is 0 to 100 and weighs each required skill by its weight.
- seniorityMatch is 0 to 100 and compares the required seniority and years with the candidate's history.
- For every required skill add one skillMatches entry; candidateLevel is 0 when the skill is missing.
- reasoning is written in the first person, as the recruiter talking directly to the candidate ("I noticed you...").
- recommendations are concrete steps that would improve the fit.
`)
	return b.String()
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "unknown"
	}
	return t.Format("Jan 2006")
}

func endDate(t *time.Time, current bool) string {
	if current {
		return "present"
	}
	return formatDate(t)
}
