package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitOrigins(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"http://localhost:5173", []string{"http://localhost:5173"}},
		{"https://a.example.com,https://b.example.com", []string{"https://a.example.com", "https://b.example.com"}},
		{" https://a.example.com , https://b.example.com ", []string{"https://a.example.com", "https://b.example.com"}},
		{"https://a.example.com,,", []string{"https://a.example.com"}},
		{"", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, splitOrigins(tt.in), tt.in)
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TICKETLENS_TEST_STR", "value")
	assert.Equal(t, "value", getEnv("TICKETLENS_TEST_STR", "fallback"))
	assert.Equal(t, "fallback", getEnv("TICKETLENS_TEST_UNSET", "fallback"))

	t.Setenv("TICKETLENS_TEST_INT", "42")
	assert.Equal(t, 42, getEnvInt("TICKETLENS_TEST_INT", 7))
	t.Setenv("TICKETLENS_TEST_INT", "notanint")
	assert.Equal(t, 7, getEnvInt("TICKETLENS_TEST_INT", 7))
	assert.Equal(t, 7, getEnvInt("TICKETLENS_TEST_INT_UNSET", 7))

	t.Setenv("TICKETLENS_TEST_BOOL", "true")
	assert.True(t, getEnvBool("TICKETLENS_TEST_BOOL", false))
	t.Setenv("TICKETLENS_TEST_BOOL", "notabool")
	assert.False(t, getEnvBool("TICKETLENS_TEST_BOOL", false))
}
