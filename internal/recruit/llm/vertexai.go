// Package llm extracts structured candidate profiles from resume text and
// scores candidates against job posts with a Gemini model. Every model
// answer is decoded strictly and validated before it leaves the package.
package llm

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	e "github.com/gartstein/recruit/internal/recruit/errors"
)

// Generator produces a JSON document that follows schema.
type Generator interface {
	GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema) (string, error)
}

type VertexConfig struct {
	ProjectID   string
	Location    string
	Model       string
	Temperature float32
}

// VertexAIClient wraps the Vertex AI Gemini API.
type VertexAIClient struct {
	client *genai.Client
	cfg    VertexConfig
}

func NewVertexAIClient(ctx context.Context, cfg VertexConfig) (*VertexAIClient, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("%w: GCP project is required", e.ErrInvalidInput)
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.2
	}

	client, err := genai.NewClient(ctx, cfg.ProjectID, cfg.Location)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex AI client: %w", err)
	}
	return &VertexAIClient{client: client, cfg: cfg}, nil
}

// GenerateJSON asks the model for an application/json answer constrained
// by schema and returns the raw text.
func (v *VertexAIClient) GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	model := v.client.GenerativeModel(v.cfg.Model)
	model.SetTemperature(v.cfg.Temperature)
	model.SetTopP(0.95)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = schema

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("%w: generate content: %v", e.ErrExternalService, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: no response candidates returned", e.ErrExternalService)
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String(), nil
}

func (v *VertexAIClient) Close() error {
	return v.client.Close()
}
