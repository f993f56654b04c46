package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrediction(t *testing.T) {
	raw := `{
		"frontend_files": ["src/pages/Login.tsx", "src/components/AuthForm.tsx"],
		"backend_files": ["api/auth/session.go"],
		"database_files": [],
		"config_files": ["config/auth.yaml"],
		"test_files": ["api/auth/session_test.go"],
		"confidence_score": 0.85,
		"reasoning": "Touches the auth flow end to end."
	}`

	result, err := ParsePrediction(raw)
	require.NoError(t, err)

	assert.Len(t, result.FrontendFiles, 2)
	assert.Equal(t, 0.85, result.ConfidenceScore)
	assert.Equal(t, "Touches the auth flow end to end.", result.Reasoning)
	// TotalFiles is recomputed, never trusted from the model.
	assert.Equal(t, 5, result.TotalFiles)
}

func TestParsePredictionStripsCodeFences(t *testing.T) {
	raw := "```json\n{\"backend_files\": [\"api/server.go\"], \"confidence_score\": 0.7}\n```"

	result, err := ParsePrediction(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"api/server.go"}, result.BackendFiles)
	assert.Equal(t, 1, result.TotalFiles)
}

func TestParsePredictionIgnoresModelTotalFiles(t *testing.T) {
	raw := `{"frontend_files": ["a.tsx"], "total_files": 99}`

	result, err := ParsePrediction(raw)
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalFiles)
}

func TestParsePredictionPartialOutput(t *testing.T) {
	raw := `{"confidence_score": 0.4}`

	result, err := ParsePrediction(raw)
	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalFiles)
	assert.Empty(t, result.FrontendFiles)
	assert.Empty(t, result.Reasoning)
}

func TestParsePredictionInvalidJSON(t *testing.T) {
	_, err := ParsePrediction("Sorry, I cannot answer that.")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode prediction")
}
