package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderBootstrapSubstitutesEmbedDim(t *testing.T) {
	sqlBytes, err := bootstrapFS.ReadFile("scripts/initdb.sql")
	require.NoError(t, err)
	script := string(sqlBytes)
	require.Contains(t, script, "vector(768)")

	rendered := renderBootstrap(script, 1536)
	assert.Contains(t, rendered, "vector(1536)")
	assert.NotContains(t, rendered, "vector(768)")
}

func TestRenderBootstrapDefaultsDimension(t *testing.T) {
	for _, dim := range []int{0, -1, 768} {
		rendered := renderBootstrap("embedding vector(768)", dim)
		assert.Equal(t, "embedding vector(768)", rendered, "dim %d", dim)
	}
}
