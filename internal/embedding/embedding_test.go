package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plagiarism-checker/internal/config"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abcdef", 3))
	assert.Equal(t, "abc", Truncate("abc", 3))
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "abcdef", Truncate("abcdef", 0))
	// Cuts at rune boundaries, never mid-rune.
	assert.Equal(t, "éé", Truncate("ééé", 2))
}

func TestNewEmbedder_Local(t *testing.T) {
	e, err := NewEmbedder(&config.EmbedderConfig{
		Provider:      "local",
		Dimension:     128,
		MaxInputRunes: 2048,
	})
	require.NoError(t, err)
	assert.Equal(t, 128, e.Dimension())
	assert.IsType(t, &LocalEmbedder{}, e)
}
