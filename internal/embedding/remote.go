package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"plagiarism-checker/internal/apperrors"
	"plagiarism-checker/internal/config"
)

// RemoteEmbedder wraps a langchaingo embedder over an OpenAI- or
// Ollama-compatible endpoint. The underlying model must be deterministic for
// the pipeline's determinism guarantee to hold; sentence-embedding models
// served by both providers are.
type RemoteEmbedder struct {
	impl      *embeddings.EmbedderImpl
	dimension int
	maxRunes  int
	batchSize int
}

// NewRemoteEmbedder builds the provider-backed embedder from config.
func NewRemoteEmbedder(cfg *config.EmbedderConfig) (*RemoteEmbedder, error) {
	var (
		client embeddings.EmbedderClient
		err    error
	)
	switch cfg.Provider {
	case "openai":
		client, err = openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithModel(cfg.Model),
		)
	case "ollama":
		client, err = ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
	default:
		return nil, fmt.Errorf("embedding: unknown remote provider %q", cfg.Provider)
	}
	if err != nil {
		log.Error().Err(err).Str("provider", cfg.Provider).Msg("Error initializing embedding client")
		return nil, apperrors.Wrap(err, apperrors.CodeEmbeddingUnavailable)
	}

	impl, err := embeddings.NewEmbedder(client, embeddings.WithBatchSize(cfg.BatchSize))
	if err != nil {
		log.Error().Err(err).Msg("Error creating embedder")
		return nil, apperrors.Wrap(err, apperrors.CodeEmbeddingUnavailable)
	}

	return &RemoteEmbedder{
		impl:      impl,
		dimension: cfg.Dimension,
		maxRunes:  cfg.MaxInputRunes,
		batchSize: cfg.BatchSize,
	}, nil
}

func (e *RemoteEmbedder) Dimension() int { return e.dimension }

func (e *RemoteEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.impl.EmbedQuery(ctx, Truncate(text, e.maxRunes))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeEmbeddingUnavailable)
	}
	if len(vec) != e.dimension {
		return nil, apperrors.Wrap(
			fmt.Errorf("model returned dimension %d, configured %d", len(vec), e.dimension),
			apperrors.CodeEmbeddingUnavailable)
	}
	return vec, nil
}

func (e *RemoteEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	truncated := make([]string, len(texts))
	for i, t := range texts {
		truncated[i] = Truncate(t, e.maxRunes)
	}
	vecs, err := e.impl.EmbedDocuments(ctx, truncated)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeEmbeddingUnavailable)
	}
	for i, vec := range vecs {
		if len(vec) != e.dimension {
			return nil, apperrors.Wrap(
				fmt.Errorf("vector %d has dimension %d, configured %d", i, len(vec), e.dimension),
				apperrors.CodeEmbeddingUnavailable)
		}
	}
	return vecs, nil
}
