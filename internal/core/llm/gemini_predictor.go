package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/markdave123-py/ticketlens/internal/core"
	"github.com/markdave123-py/ticketlens/internal/models"
)

const systemPrompt = "You are a senior software engineer analyzing development tickets. " +
	"Return only valid JSON, no markdown."

const promptTemplate = `Act as a senior software engineer. Analyze this ticket and identify specific code files, components, and API endpoints that need modification.

Consider:
1. Frontend components (UI elements, pages, components)
2. Backend services/APIs
3. Database/models
4. Configuration files
5. Tests

Return ONLY valid JSON (no markdown):
{
  "frontend_files": ["path/to/Component.tsx"],
  "backend_files": ["api/controllers/controller.js"],
  "database_files": ["models/Model.js"],
  "config_files": ["config/app.js"],
  "test_files": ["tests/test.js"],
  "confidence_score": 0.85,
  "reasoning": "Brief explanation"
}

Ticket: %s`

type GeminiPredictor struct {
	client    *genai.Client
	modelName string
}

func NewGeminiPredictor(ctx context.Context, apiKey, modelName string) (*GeminiPredictor, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &GeminiPredictor{client: cl, modelName: modelName}, nil
}

func (g *GeminiPredictor) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// Predict asks the model which files the ticket will touch. One attempt; any
// failure here is an upstream failure for the caller.
func (g *GeminiPredictor) Predict(ctx context.Context, ticketText string) (*models.PredictionResult, error) {
	m := g.client.GenerativeModel(g.modelName)
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}
	temp := float32(0.2)
	m.Temperature = &temp

	resp, err := m.GenerateContent(ctx, genai.Text(fmt.Sprintf(promptTemplate, ticketText)))
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini generate: empty response")
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}

	return ParsePrediction(b.String())
}

// ParsePrediction decodes the model's JSON answer. Code fences are stripped
// first since models wrap output in them despite instructions. Missing fields
// stay at their zero value; TotalFiles is recomputed from the lists.
func ParsePrediction(raw string) (*models.PredictionResult, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	var result models.PredictionResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, fmt.Errorf("decode prediction: %w", err)
	}
	result.TotalFiles = result.CountFiles()
	return &result, nil
}

var _ core.Predictor = (*GeminiPredictor)(nil)
