package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	e "github.com/gartstein/recruit/internal/recruit/errors"
	"github.com/gartstein/recruit/internal/recruit/models"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type extractedSkill struct {
	Name     string `json:"name" validate:"required"`
	Level    int    `json:"level" validate:"min=1,max=10"`
	Category string `json:"category" validate:"oneof=HARD SOFT"`
}

type extractedEducation struct {
	Institution  string `json:"institution" validate:"required"`
	Degree       string `json:"degree"`
	FieldOfStudy string `json:"fieldOfStudy"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
}

type extractedExperience struct {
	Company     string `json:"company" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Current     bool   `json:"current"`
}

type extractedAchievement struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

type extractedResume struct {
	Name         string                 `json:"name" validate:"required"`
	Email        string                 `json:"email" validate:"required,email"`
	Phone        string                 `json:"phone"`
	Address      string                 `json:"address"`
	Skills       []extractedSkill       `json:"skills" validate:"dive"`
	Education    []extractedEducation   `json:"education" validate:"dive"`
	Experience   []extractedExperience  `json:"experience" validate:"dive"`
	Achievements []extractedAchievement `json:"achievements" validate:"dive"`
}

const extractionPrompt = `You are an expert technical recruiter. Read the resume below and return JSON only.

Rules:
1. List every specific hard skill (languages, frameworks, databases, tools, platforms). Do not list vague terms such as "programming" or "software".
2. Rate each skill from 1 to 10 using the evidence in the work history: years of use, seniority of the roles and scope of the projects. Skills that are only listed without evidence get at most 4.
3. Add relevant soft skills with category SOFT.
4. Extract education, work experience and achievements. Dates must be YYYY-MM-DD or "Month YYYY"; use "Present" for ongoing roles and set current to true.
5. Use empty strings for unknown values. Never invent an e-mail address.

Resume:
%s`

// Extractor turns resume text into a validated CandidateProfile.
type Extractor struct {
	gen      Generator
	validate *validator.Validate
	dates    *DateParser
	logger   *zap.Logger
}

func NewExtractor(gen Generator, now func() time.Time, logger *zap.Logger) *Extractor {
	logger = logger.Named("resume_extractor")
	return &Extractor{
		gen:      gen,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		dates:    NewDateParser(now, logger),
		logger:   logger,
	}
}

// Extract returns ErrSchemaValidation when the model answer does not match
// the declared schema. There is no correction round trip.
func (x *Extractor) Extract(ctx context.Context, text string) (*models.CandidateProfile, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty resume text", e.ErrInvalidInput)
	}

	raw, err := x.gen.GenerateJSON(ctx, fmt.Sprintf(extractionPrompt, text), resumeSchema)
	if err != nil {
		return nil, err
	}

	var resume extractedResume
	if err := decodeStrict(raw, &resume); err != nil {
		return nil, err
	}
	if err := x.validate.Struct(&resume); err != nil {
		return nil, fmt.Errorf("%w: %v", e.ErrSchemaValidation, err)
	}

	return x.toProfile(&resume), nil
}

func (x *Extractor) toProfile(r *extractedResume) *models.CandidateProfile {
	profile := &models.CandidateProfile{
		Name:    strings.TrimSpace(r.Name),
		Email:   strings.ToLower(strings.TrimSpace(r.Email)),
		Phone:   r.Phone,
		Address: r.Address,
	}
	for _, s := range r.Skills {
		profile.Skills = append(profile.Skills, models.Skill{
			Name:     strings.TrimSpace(s.Name),
			Level:    s.Level,
			Category: models.SkillCategory(s.Category),
		})
	}
	for _, ed := range r.Education {
		profile.Education = append(profile.Education, models.Education{
			Institution:  ed.Institution,
			Degree:       ed.Degree,
			FieldOfStudy: ed.FieldOfStudy,
			StartDate:    x.dates.Parse("education.startDate", ed.StartDate),
			EndDate:      x.dates.Parse("education.endDate", ed.EndDate),
		})
	}
	for _, ex := range r.Experience {
		current := ex.Current || strings.EqualFold(strings.TrimSpace(ex.EndDate), "present")
		profile.Experience = append(profile.Experience, models.WorkExperience{
			Company:     ex.Company,
			Title:       ex.Title,
			Description: ex.Description,
			StartDate:   x.dates.Parse("experience.startDate", ex.StartDate),
			EndDate:     x.dates.Parse("experience.endDate", ex.EndDate),
			Current:     current,
		})
	}
	for _, a := range r.Achievements {
		profile.Achievements = append(profile.Achievements, models.Achievement{
			Title:       a.Title,
			Description: a.Description,
			Date:        x.dates.Parse("achievement.date", a.Date),
		})
	}
	return profile
}

// decodeStrict rejects unknown fields and trailing data.
func decodeStrict(raw string, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(strings.TrimSpace(raw))))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", e.ErrSchemaValidation, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data after JSON document", e.ErrSchemaValidation)
	}
	return nil
}
