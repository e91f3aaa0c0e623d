// Package embedding maps passages of text to fixed-dimensional vectors.
// Implementations are stateless and reentrant once constructed: the same
// input text always yields the same vector.
package embedding

import (
	"context"

	"plagiarism-checker/internal/config"
)

// Embedder produces a fixed-dimensional vector for a passage of text.
type Embedder interface {
	// Embed returns the vector for one passage.
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch embeds several passages in one model invocation where the
	// backend supports it. Batching never changes per-passage results.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Dimension is the length of every vector this embedder produces.
	Dimension() int
}

// NewEmbedder constructs the embedder selected by the configuration.
func NewEmbedder(cfg *config.EmbedderConfig) (Embedder, error) {
	switch cfg.Provider {
	case "local":
		return NewLocalEmbedder(cfg.Dimension, cfg.MaxInputRunes), nil
	default:
		return NewRemoteEmbedder(cfg)
	}
}

// Truncate deterministically cuts text at the limit rune boundary. Inputs
// longer than the model's limit are truncated rather than rejected; the
// vector for a long input is therefore the vector of its first limit runes.
func Truncate(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
