package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "local", cfg.Embedder.Provider)
	assert.Equal(t, DefaultLocalDimension, cfg.Embedder.Dimension)
	assert.Equal(t, "chromem", cfg.Corpus.Backend)
	assert.Equal(t, DefaultWindowSize, cfg.Pipeline.WindowSize)
	assert.Equal(t, DefaultStride, cfg.Pipeline.Stride)
	assert.Equal(t, DefaultTopK, cfg.Pipeline.TopK)
	assert.Equal(t, DefaultMinSimilarity, cfg.Pipeline.MinSimilarity)
	assert.Equal(t, DefaultDecisionThreshold, cfg.Pipeline.DecisionThreshold)
	assert.Equal(t, DefaultPerRequestTimeout, cfg.Pipeline.PerRequestTimeout.Std())
	assert.Positive(t, cfg.Pipeline.MaxConcurrentRequests)
	assert.Equal(t, 2*cfg.Pipeline.MaxConcurrentRequests, cfg.Pipeline.MaxPendingRequests)
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
embedder:
  provider: local
  dimension: 64
pipeline:
  window_size: 100
  stride: 80
  per_request_timeout: 5s
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 64, cfg.Embedder.Dimension)
	assert.Equal(t, 100, cfg.Pipeline.WindowSize)
	assert.Equal(t, 80, cfg.Pipeline.Stride)
	assert.Equal(t, 5*time.Second, cfg.Pipeline.PerRequestTimeout.Std())
	// Unset values fall back to defaults.
	assert.Equal(t, DefaultTopK, cfg.Pipeline.TopK)
	assert.Equal(t, "chromem", cfg.Corpus.Backend)
}

func TestLoadConfig_InvalidDuration(t *testing.T) {
	path := writeConfig(t, `
pipeline:
  per_request_timeout: sixty seconds
`)
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.True(t, os.IsNotExist(err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown provider", func(c *Config) { c.Embedder.Provider = "tfhub" }},
		{"zero dimension", func(c *Config) { c.Embedder.Dimension = -1 }},
		{"unknown backend", func(c *Config) { c.Corpus.Backend = "redis" }},
		{"stride over window", func(c *Config) { c.Pipeline.Stride = c.Pipeline.WindowSize + 1 }},
		{"negative stride", func(c *Config) { c.Pipeline.Stride = -1 }},
		{"min similarity out of range", func(c *Config) { c.Pipeline.MinSimilarity = 1.5 }},
		{"threshold out of range", func(c *Config) { c.Pipeline.DecisionThreshold = -0.1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
