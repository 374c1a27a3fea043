// Package gemini adapts the Gemini API to planner.Oracle.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"study-planner/internal/planner"
)

const DefaultModel = "gemini-2.5-flash"

var errEmptyResponse = errors.New("gemini: empty response")

type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Oracle sends planner prompts to one Gemini model.
type Oracle struct {
	models  generator
	model   string
	timeout time.Duration
}

var _ planner.Oracle = (*Oracle)(nil)

// New creates a Gemini API client. A zero timeout leaves deadlines to the caller.
func New(ctx context.Context, apiKey, model string, timeout time.Duration) (*Oracle, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini: api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return newOracle(client.Models, model, timeout), nil
}

func newOracle(models generator, model string, timeout time.Duration) *Oracle {
	if model == "" {
		model = DefaultModel
	}
	return &Oracle{models: models, model: model, timeout: timeout}
}

// Model is recorded on generated plans.
func (o *Oracle) Model() string {
	return o.model
}

func (o *Oracle) Generate(ctx context.Context, req planner.OracleRequest) (string, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	cfg := &genai.GenerateContentConfig{}
	if req.Temperature > 0 {
		cfg.Temperature = genai.Ptr(req.Temperature)
	}
	if req.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = req.MaxOutputTokens
	}

	resp, err := o.models.GenerateContent(ctx, o.model, genai.Text(req.Prompt()), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errEmptyResponse
	}
	return text, nil
}
