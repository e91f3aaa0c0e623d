package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plagiarism-checker/internal/models"
)

func TestBuild_WeightedScore(t *testing.T) {
	text := strings.Repeat("x", 1000)
	matches := []models.Match{
		{Start: 0, End: 400, EntryID: "a", Similarity: 1.0},
		{Start: 500, End: 700, EntryID: "b", Similarity: 0.5},
	}

	rep := Build(matches, text, 0.3)
	// (400*1.0 + 200*0.5) / 1000 = 0.5.
	assert.InDelta(t, 0.5, rep.OverallScore, 1e-9)
	assert.True(t, rep.IsPlagiarized)
	assert.Equal(t, 1000, rep.CharCount)
}

func TestBuild_ScoreClamped(t *testing.T) {
	// Overlapping matches can nominally exceed the document length.
	text := strings.Repeat("x", 100)
	matches := []models.Match{
		{Start: 0, End: 100, EntryID: "a", Similarity: 1.0},
		{Start: 0, End: 100, EntryID: "b", Similarity: 1.0},
	}

	rep := Build(matches, text, 0.3)
	assert.Equal(t, 1.0, rep.OverallScore)
}

func TestBuild_ThresholdInclusive(t *testing.T) {
	text := strings.Repeat("x", 100)
	matches := []models.Match{
		{Start: 0, End: 50, EntryID: "a", Similarity: 1.0},
	}

	rep := Build(matches, text, 0.5)
	assert.InDelta(t, 0.5, rep.OverallScore, 1e-9)
	assert.True(t, rep.IsPlagiarized, "score equal to the threshold is plagiarized")

	rep = Build(matches, text, 0.51)
	assert.False(t, rep.IsPlagiarized)
}

func TestBuild_NoMatches(t *testing.T) {
	rep := Build(nil, "a clean document with several words", 0.3)
	assert.Equal(t, 0.0, rep.OverallScore)
	assert.False(t, rep.IsPlagiarized)
	require.NotNil(t, rep.Matches, "matches must serialize as [], not null")
	assert.Empty(t, rep.Matches)
	assert.Empty(t, rep.Sources)
	assert.Equal(t, 6, rep.WordCount)
}

func TestBuild_EmptyText(t *testing.T) {
	rep := Build(nil, "", 0.3)
	assert.Equal(t, 0.0, rep.OverallScore)
	assert.False(t, rep.IsPlagiarized)
	assert.Equal(t, 0, rep.WordCount)
	assert.Equal(t, 0, rep.CharCount)
}

func TestBuild_MatchOrdering(t *testing.T) {
	text := strings.Repeat("x", 1000)
	matches := []models.Match{
		{Start: 500, End: 600, EntryID: "a", Similarity: 0.85},
		{Start: 0, End: 100, EntryID: "b", Similarity: 0.95},
		{Start: 200, End: 300, EntryID: "c", Similarity: 0.95},
	}

	rep := Build(matches, text, 0.3)
	require.Len(t, rep.Matches, 3)
	assert.Equal(t, "b", rep.Matches[0].EntryID)
	assert.Equal(t, "c", rep.Matches[1].EntryID)
	assert.Equal(t, "a", rep.Matches[2].EntryID)
}

func TestBuild_InputNotMutated(t *testing.T) {
	matches := []models.Match{
		{Start: 500, End: 600, EntryID: "a", Similarity: 0.5},
		{Start: 0, End: 100, EntryID: "b", Similarity: 0.9},
	}

	Build(matches, strings.Repeat("x", 1000), 0.3)
	assert.Equal(t, "a", matches[0].EntryID, "caller's slice order is preserved")
}

func TestBuild_SourceBreakdown(t *testing.T) {
	text := strings.Repeat("x", 1000)
	matches := []models.Match{
		{Start: 0, End: 400, Title: "Big Source", URL: "https://example.org/big", Similarity: 1.0},
		{Start: 500, End: 600, Title: "Big Source", URL: "https://example.org/big", Similarity: 0.5},
		{Start: 700, End: 800, Title: "Small Source", URL: "https://example.org/small", Similarity: 0.9},
	}

	rep := Build(matches, text, 0.3)
	require.Len(t, rep.Sources, 2)

	big := rep.Sources[0]
	assert.Equal(t, "Big Source", big.Title)
	assert.Equal(t, 2, big.MatchCount)
	// (400*1.0 + 100*0.5) / 1000.
	assert.InDelta(t, 0.45, big.Contribution, 1e-9)

	small := rep.Sources[1]
	assert.Equal(t, "Small Source", small.Title)
	assert.Equal(t, 1, small.MatchCount)
	assert.InDelta(t, 0.09, small.Contribution, 1e-9)
}
