package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plagiarism-checker/internal/apperrors"
	"plagiarism-checker/internal/chunker"
	"plagiarism-checker/internal/config"
	"plagiarism-checker/internal/corpus"
	"plagiarism-checker/internal/embedding"
	"plagiarism-checker/internal/models"
)

const sampleText = `The Industrial Revolution was a period of global transition
towards more widespread and efficient manufacturing processes. It began in
Great Britain and spread to continental Europe and the United States during
the late eighteenth and early nineteenth centuries. Steam power, machine
tools and the factory system changed how goods were produced and moved.`

const unrelatedText = `Coral reefs are underwater ecosystems held together by
calcium carbonate structures secreted by corals. Most reefs grow best in
warm, shallow, clear, sunny and agitated water. They deliver ecosystem
services for tourism, fisheries and shoreline protection.`

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Embedder.Dimension = 128
	return cfg
}

// corpusFromText chunks and embeds text exactly the way the serving
// pipeline does, so a resubmission of the same text matches it.
func corpusFromText(t *testing.T, cfg *config.Config, embedder embedding.Embedder, title, text string) *corpus.MemIndex {
	t.Helper()
	normalized := chunker.Normalize(text)
	chunks, err := chunker.Chunk(normalized, cfg.Pipeline.WindowSize, cfg.Pipeline.Stride)
	require.NoError(t, err)

	entries := make([]models.CorpusEntry, len(chunks))
	for i, chunk := range chunks {
		vec, err := embedder.Embed(context.Background(), chunk.Text)
		require.NoError(t, err)
		entries[i] = models.CorpusEntry{
			ID:        fmt.Sprintf("%s-%03d", title, i),
			Title:     title,
			URL:       "https://example.org/" + title,
			Text:      chunk.Text,
			Embedding: vec,
		}
	}
	idx, err := corpus.Build(entries, cfg.Embedder.Dimension)
	require.NoError(t, err)
	return idx
}

func newTestPipeline(t *testing.T, cfg *config.Config, corpusText string) *Pipeline {
	t.Helper()
	embedder, err := embedding.NewEmbedder(&cfg.Embedder)
	require.NoError(t, err)
	idx := corpusFromText(t, cfg, embedder, "source", corpusText)
	return New(cfg, embedder, corpus.NewHandle(idx))
}

func TestCheck_SelfSimilarity(t *testing.T) {
	cfg := testConfig()
	p := newTestPipeline(t, cfg, sampleText)

	rep, err := p.Check(context.Background(), []byte(sampleText), models.FormatText)
	require.NoError(t, err)

	assert.Greater(t, rep.OverallScore, 0.95, "document identical to a source must score near 1")
	assert.True(t, rep.IsPlagiarized)
	require.NotEmpty(t, rep.Matches)
	assert.Greater(t, rep.Matches[0].Similarity, 0.95)
	assert.Equal(t, "source", rep.Matches[0].Title)
	require.NotEmpty(t, rep.Sources)
	assert.Equal(t, "source", rep.Sources[0].Title)
}

func TestCheck_UnrelatedDocument(t *testing.T) {
	cfg := testConfig()
	p := newTestPipeline(t, cfg, unrelatedText)

	rep, err := p.Check(context.Background(), []byte(sampleText), models.FormatText)
	require.NoError(t, err)

	assert.False(t, rep.IsPlagiarized)
	assert.Less(t, rep.OverallScore, cfg.Pipeline.DecisionThreshold)
	assert.Empty(t, rep.Matches)
	require.NotNil(t, rep.Matches, "matches must serialize as [], not null")
}

func TestCheck_Deterministic(t *testing.T) {
	cfg := testConfig()
	p := newTestPipeline(t, cfg, sampleText)

	first, err := p.Check(context.Background(), []byte(sampleText), models.FormatText)
	require.NoError(t, err)
	second, err := p.Check(context.Background(), []byte(sampleText), models.FormatText)
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(firstJSON), string(secondJSON))
}

func TestCheck_IndexUnavailable(t *testing.T) {
	cfg := testConfig()
	embedder, err := embedding.NewEmbedder(&cfg.Embedder)
	require.NoError(t, err)
	p := New(cfg, embedder, corpus.NewHandle(nil))

	_, err = p.Check(context.Background(), []byte(sampleText), models.FormatText)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeIndexUnavailable))
}

func TestCheck_IndexSwapDuringServing(t *testing.T) {
	cfg := testConfig()
	embedder, err := embedding.NewEmbedder(&cfg.Embedder)
	require.NoError(t, err)
	handle := corpus.NewHandle(corpusFromText(t, cfg, embedder, "old", unrelatedText))
	p := New(cfg, embedder, handle)

	rep, err := p.Check(context.Background(), []byte(sampleText), models.FormatText)
	require.NoError(t, err)
	assert.False(t, rep.IsPlagiarized)

	handle.Swap(corpusFromText(t, cfg, embedder, "new", sampleText))

	rep, err = p.Check(context.Background(), []byte(sampleText), models.FormatText)
	require.NoError(t, err)
	assert.True(t, rep.IsPlagiarized)
	assert.Equal(t, "new", rep.Matches[0].Title)
}

func TestCheck_StageAttribution(t *testing.T) {
	cfg := testConfig()
	p := newTestPipeline(t, cfg, sampleText)

	_, err := p.Check(context.Background(), []byte("data"), models.Format("RTF"))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnsupportedFormat))

	var ae *apperrors.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, string(StageExtracting), ae.Stage)
}

func TestCheck_EmptyDocument(t *testing.T) {
	cfg := testConfig()
	p := newTestPipeline(t, cfg, sampleText)

	_, err := p.Check(context.Background(), []byte("   \n "), models.FormatText)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeEmptyDocument))

	var ae *apperrors.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, string(StageChunking), ae.Stage)
}
