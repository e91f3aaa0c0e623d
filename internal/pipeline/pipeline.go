// Package pipeline wires the checking stages together and owns the
// concurrency boundary around them. Each stage is synchronous and
// side-effect-free; the shared embedder and corpus index are injected at
// construction and only read afterwards.
package pipeline

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"plagiarism-checker/internal/apperrors"
	"plagiarism-checker/internal/chunker"
	"plagiarism-checker/internal/config"
	"plagiarism-checker/internal/corpus"
	"plagiarism-checker/internal/embedding"
	"plagiarism-checker/internal/extractor"
	"plagiarism-checker/internal/matcher"
	"plagiarism-checker/internal/models"
	"plagiarism-checker/internal/report"
)

// Stage names a step of document processing. A request moves through the
// stages in order and lands in Done, or in Failed from any of them; no
// stage is retried automatically.
type Stage string

const (
	StageReceived   Stage = "received"
	StageExtracting Stage = "extracting"
	StageChunking   Stage = "chunking"
	StageEmbedding  Stage = "embedding"
	StageMatching   Stage = "matching"
	StageReporting  Stage = "reporting"
	StageDone       Stage = "done"
	StageFailed     Stage = "failed"
)

// Pipeline runs the full check for one document.
type Pipeline struct {
	cfg      *config.Config
	embedder embedding.Embedder
	index    *corpus.Handle
}

func New(cfg *config.Config, embedder embedding.Embedder, index *corpus.Handle) *Pipeline {
	return &Pipeline{cfg: cfg, embedder: embedder, index: index}
}

// Check processes one document and returns its report. Any stage failure
// aborts the whole document; there are no partial reports, so the overall
// score is always computed from a complete set of chunks.
func (p *Pipeline) Check(ctx context.Context, data []byte, format models.Format) (models.Report, error) {
	pc := p.cfg.Pipeline

	text, err := extractor.Extract(data, format, pc.MaxDocumentBytes)
	if err != nil {
		return models.Report{}, stageErr(ctx, err, StageExtracting)
	}
	text = chunker.Normalize(text)

	chunks, err := chunker.Chunk(text, pc.WindowSize, pc.Stride)
	if err != nil {
		return models.Report{}, stageErr(ctx, err, StageChunking)
	}

	if err := p.embedChunks(ctx, chunks); err != nil {
		return models.Report{}, stageErr(ctx, err, StageEmbedding)
	}

	idx := p.index.Load()
	if idx == nil {
		return models.Report{}, apperrors.New(apperrors.CodeIndexUnavailable).WithStage(string(StageMatching))
	}
	matches, err := matcher.Match(ctx, chunks, idx, pc.TopK, pc.MinSimilarity)
	if err != nil {
		return models.Report{}, stageErr(ctx, apperrors.Wrap(err, apperrors.CodeInternal), StageMatching)
	}

	rep := report.Build(matches, text, pc.DecisionThreshold)
	log.Debug().
		Int("chunks", len(chunks)).
		Int("matches", len(matches)).
		Float64("overall_score", rep.OverallScore).
		Bool("is_plagiarized", rep.IsPlagiarized).
		Msg("Report built")
	return rep, nil
}

// embedChunks fills every chunk's embedding, batching model calls. A single
// chunk failure aborts the document.
func (p *Pipeline) embedChunks(ctx context.Context, chunks []models.Chunk) error {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	vecs, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}
	if len(vecs) != len(chunks) {
		return apperrors.New(apperrors.CodeEmbeddingUnavailable)
	}
	for i := range chunks {
		chunks[i].Embedding = vecs[i]
	}
	return nil
}

// stageErr attributes a failure to a stage, translating context expiry into
// the timeout code so callers see TIMEOUT rather than the stage's own code.
func stageErr(ctx context.Context, err error, stage Stage) error {
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(ctxErr, context.DeadlineExceeded) {
		return apperrors.Wrap(err, apperrors.CodeTimeout).WithStage(string(stage))
	}
	var ae *apperrors.Error
	if errors.As(err, &ae) {
		return ae.WithStage(string(stage))
	}
	return apperrors.Wrap(err, apperrors.CodeInternal).WithStage(string(stage))
}
