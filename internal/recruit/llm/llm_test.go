package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/vertexai/genai"
	e "github.com/gartstein/recruit/internal/recruit/errors"
	"github.com/gartstein/recruit/internal/recruit/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// mockGenerator implements Generator for testing.
type mockGenerator struct {
	generateJSON func(context.Context, string, *genai.Schema) (string, error)
}

func (m *mockGenerator) GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	return m.generateJSON(ctx, prompt, schema)
}

func answering(body string) *mockGenerator {
	return &mockGenerator{
		generateJSON: func(context.Context, string, *genai.Schema) (string, error) {
			return body, nil
		},
	}
}

var fixedNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

const janeResume = `{
  "name": "Jane Doe",
  "email": "Jane@Example.com",
  "phone": "+1 555 0100",
  "address": "Berlin",
  "skills": [
    {"name": "Go", "level": 8, "category": "HARD"},
    {"name": "Mentoring", "level": 6, "category": "SOFT"}
  ],
  "education": [
    {"institution": "TU Berlin", "degree": "MSc", "fieldOfStudy": "Computer Science", "startDate": "2014-10-01", "endDate": "September 2016"}
  ],
  "experience": [
    {"company": "Acme", "title": "Senior Engineer", "description": "Payments", "startDate": "March 2019", "endDate": "Present", "current": false}
  ],
  "achievements": [
    {"title": "Speaker at GopherCon", "description": "", "date": "sometime"}
  ]
}`

func TestExtract(t *testing.T) {
	core, recorded := observer.New(zap.WarnLevel)
	var schema *genai.Schema
	gen := &mockGenerator{
		generateJSON: func(_ context.Context, prompt string, s *genai.Schema) (string, error) {
			schema = s
			assert.Contains(t, prompt, "Jane Doe, Go developer")
			return janeResume, nil
		},
	}
	x := NewExtractor(gen, func() time.Time { return fixedNow }, zap.New(core))

	profile, err := x.Extract(context.Background(), "Jane Doe, Go developer")
	require.NoError(t, err)

	assert.Same(t, resumeSchema, schema)
	assert.Equal(t, "Jane Doe", profile.Name)
	assert.Equal(t, "jane@example.com", profile.Email)
	require.Len(t, profile.Skills, 2)
	assert.Equal(t, models.SkillSoft, profile.Skills[1].Category)

	require.Len(t, profile.Education, 1)
	assert.Equal(t, time.Date(2014, 10, 1, 0, 0, 0, 0, time.UTC), *profile.Education[0].StartDate)
	assert.Equal(t, time.Date(2016, 9, 1, 0, 0, 0, 0, time.UTC), *profile.Education[0].EndDate)

	require.Len(t, profile.Experience, 1)
	assert.True(t, profile.Experience[0].Current, "Present marks the role as current")
	assert.Equal(t, fixedNow, *profile.Experience[0].EndDate)

	require.Len(t, profile.Achievements, 1)
	assert.Equal(t, fixedNow, *profile.Achievements[0].Date, "unparseable date falls back to now")
	assert.Equal(t, 1, recorded.FilterMessage("unparseable date, using current date").Len())
}

func TestExtractRejectsInvalidAnswers(t *testing.T) {
	tests := []struct {
		name   string
		answer string
	}{
		{name: "not json", answer: "Sure! Here is the resume"},
		{name: "unknown field", answer: `{"name":"A","email":"a@b.co","skills":[],"education":[],"experience":[],"achievements":[],"age":31}`},
		{name: "missing email", answer: `{"name":"A","email":"","skills":[],"education":[],"experience":[],"achievements":[]}`},
		{name: "invalid email", answer: `{"name":"A","email":"nope","skills":[],"education":[],"experience":[],"achievements":[]}`},
		{name: "skill level out of range", answer: `{"name":"A","email":"a@b.co","skills":[{"name":"Go","level":11,"category":"HARD"}],"education":[],"experience":[],"achievements":[]}`},
		{name: "unknown category", answer: `{"name":"A","email":"a@b.co","skills":[{"name":"Go","level":5,"category":"MEDIUM"}],"education":[],"experience":[],"achievements":[]}`},
		{name: "trailing data", answer: `{"name":"A","email":"a@b.co","skills":[],"education":[],"experience":[],"achievements":[]} {}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := NewExtractor(answering(tt.answer), nil, zaptest.NewLogger(t))
			_, err := x.Extract(context.Background(), "resume text")
			assert.ErrorIs(t, err, e.ErrSchemaValidation)
			assert.ErrorIs(t, err, e.ErrInvalidInput)
		})
	}
}

func TestExtractGeneratorFailure(t *testing.T) {
	gen := &mockGenerator{
		generateJSON: func(context.Context, string, *genai.Schema) (string, error) {
			return "", errors.Join(e.ErrExternalService, errors.New("quota exceeded"))
		},
	}
	_, err := NewExtractor(gen, nil, zaptest.NewLogger(t)).Extract(context.Background(), "text")
	assert.ErrorIs(t, err, e.ErrExternalService)

	_, err = NewExtractor(gen, nil, zaptest.NewLogger(t)).Extract(context.Background(), "   ")
	assert.ErrorIs(t, err, e.ErrInvalidInput)
}

func TestDateParser(t *testing.T) {
	core, recorded := observer.New(zap.WarnLevel)
	p := NewDateParser(func() time.Time { return fixedNow }, zap.New(core))

	tests := []struct {
		value string
		want  *time.Time
	}{
		{value: "", want: nil},
		{value: "2020-02-29", want: ptr(time.Date(2020, 2, 29, 0, 0, 0, 0, time.UTC))},
		{value: "2021-07", want: ptr(time.Date(2021, 7, 1, 0, 0, 0, 0, time.UTC))},
		{value: "January 2019", want: ptr(time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC))},
		{value: "Sep 2018", want: ptr(time.Date(2018, 9, 1, 0, 0, 0, 0, time.UTC))},
		{value: "2015", want: ptr(time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC))},
		{value: "Present", want: ptr(fixedNow)},
		{value: "present", want: ptr(fixedNow)},
		{value: "the summer after college", want: ptr(fixedNow)},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got := p.Parse("test", tt.value)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "got %v want %v", got, tt.want)
		})
	}
	assert.Equal(t, 1, recorded.Len(), "only the unparseable value is logged")
}

func TestScore(t *testing.T) {
	candidate := &models.Candidate{
		Name:   "Jane Doe",
		Skills: []models.Skill{{Name: "Go", Level: 8, Category: models.SkillHard}},
		Experience: []models.WorkExperience{
			{Company: "Acme", Title: "Senior Engineer", StartDate: ptr(time.Date(2019, 3, 1, 0, 0, 0, 0, time.UTC)), Current: true},
		},
	}
	post := &models.JobPost{
		Title:     "Backend Engineer",
		Seniority: "Senior",
		Skills:    []models.Skill{{Name: "Go", Level: 9}, {Name: "Kafka", Level: 5}},
	}

	gen := &mockGenerator{
		generateJSON: func(_ context.Context, prompt string, s *genai.Schema) (string, error) {
			assert.Same(t, matchSchema, s)
			assert.Contains(t, prompt, "- Go: 9")
			assert.Contains(t, prompt, "- Kafka: 5")
			assert.Contains(t, prompt, "Senior Engineer at Acme (Mar 2019 to present)")
			assert.Contains(t, prompt, "first person")
			return `{"score":72,"seniorityMatch":80,"skillMatches":[{"skill":"Go","requiredLevel":9,"candidateLevel":8,"match":"PARTIAL"},{"skill":"Kafka","requiredLevel":5,"candidateLevel":0,"match":"MISSING"}],"reasoning":" I noticed your strong Go background. ","recommendations":["Get hands-on with Kafka"]}`, nil
		},
	}

	result, err := NewScorer(gen, zaptest.NewLogger(t)).Score(context.Background(), candidate, post)
	require.NoError(t, err)
	assert.Equal(t, 72, result.Score)
	assert.Equal(t, "I noticed your strong Go background.", result.Reasoning)
	assert.Equal(t, 80, result.Metadata.SeniorityMatch)
	require.Len(t, result.Metadata.SkillMatches, 2)
	assert.Equal(t, models.SkillMatch{Skill: "Kafka", RequiredLevel: 5, CandidateLevel: 0, Match: "MISSING"}, result.Metadata.SkillMatches[1])
}

func TestScoreRejectsOutOfRange(t *testing.T) {
	gen := answering(`{"score":140,"seniorityMatch":10,"skillMatches":[],"reasoning":"x","recommendations":[]}`)
	_, err := NewScorer(gen, zaptest.NewLogger(t)).Score(context.Background(), &models.Candidate{}, &models.JobPost{})
	assert.ErrorIs(t, err, e.ErrSchemaValidation)
}

func ptr(t time.Time) *time.Time {
	return &t
}
