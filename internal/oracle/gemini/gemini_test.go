package gemini

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"study-planner/internal/planner"
)

type fakeModels struct {
	text     string
	err      error
	model    string
	prompt   string
	config   *genai.GenerateContentConfig
	deadline bool
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.config = config
	_, f.deadline = ctx.Deadline()
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []*genai.Part{{Text: f.text}}},
	}}}, nil
}

func TestGenerate(t *testing.T) {
	models := &fakeModels{text: "  [{\"date\": \"2026-01-05\"}]\n"}
	o := newOracle(models, "", time.Minute)

	out, err := o.Generate(context.Background(), planner.OracleRequest{
		Role:            "role",
		OutputContract:  "Return JSON.",
		Temperature:     0.5,
		MaxOutputTokens: 8192,
	})
	require.NoError(t, err)
	assert.Equal(t, `[{"date": "2026-01-05"}]`, out)
	assert.Equal(t, DefaultModel, models.model)
	assert.Equal(t, DefaultModel, o.Model())
	assert.Equal(t, "role\n\nReturn JSON.", models.prompt)
	require.NotNil(t, models.config.Temperature)
	assert.Equal(t, float32(0.5), *models.config.Temperature)
	assert.Equal(t, int32(8192), models.config.MaxOutputTokens)
	assert.True(t, models.deadline)
}

func TestGenerateErrors(t *testing.T) {
	boom := errors.New("quota exceeded")
	_, err := newOracle(&fakeModels{err: boom}, "m", 0).Generate(context.Background(), planner.OracleRequest{})
	assert.ErrorIs(t, err, boom)

	_, err = newOracle(&fakeModels{text: "  "}, "m", 0).Generate(context.Background(), planner.OracleRequest{})
	assert.ErrorIs(t, err, errEmptyResponse)
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New(context.Background(), " ", "", time.Second)
	assert.Error(t, err)
}
