// Package report aggregates merged matches into the final verdict.
package report

import (
	"sort"
	"strings"

	"plagiarism-checker/internal/models"
)

// Build computes the overall score and verdict for a document of docLen
// runes. The overall score is the similarity-weighted fraction of the
// document covered by matches, clamped to [0,1]; the verdict is true when
// the score reaches the decision threshold (inclusive).
func Build(matches []models.Match, text string, threshold float64) models.Report {
	docLen := len([]rune(text))

	var weighted float64
	for _, m := range matches {
		weighted += float64(m.End-m.Start) * m.Similarity
	}
	score := 0.0
	if docLen > 0 {
		score = weighted / float64(docLen)
	}
	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}

	sorted := make([]models.Match, len(matches))
	copy(sorted, matches)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Similarity != sorted[j].Similarity {
			return sorted[i].Similarity > sorted[j].Similarity
		}
		return sorted[i].Start < sorted[j].Start
	})

	return models.Report{
		OverallScore:  score,
		IsPlagiarized: score >= threshold,
		Matches:       sorted,
		Sources:       sourceBreakdown(sorted, docLen),
		WordCount:     len(strings.Fields(text)),
		CharCount:     docLen,
	}
}

// sourceBreakdown groups matches by source and sums each source's weighted
// share of the document, ordered by contribution descending.
func sourceBreakdown(matches []models.Match, docLen int) []models.SourceContribution {
	if len(matches) == 0 || docLen == 0 {
		return nil
	}

	type key struct{ title, url string }
	totals := make(map[key]*models.SourceContribution)
	var order []key
	for _, m := range matches {
		k := key{m.Title, m.URL}
		sc, ok := totals[k]
		if !ok {
			sc = &models.SourceContribution{Title: m.Title, URL: m.URL}
			totals[k] = sc
			order = append(order, k)
		}
		sc.Contribution += float64(m.End-m.Start) * m.Similarity / float64(docLen)
		sc.MatchCount++
	}

	sources := make([]models.SourceContribution, 0, len(order))
	for _, k := range order {
		sources = append(sources, *totals[k])
	}
	sort.Slice(sources, func(i, j int) bool {
		if sources[i].Contribution != sources[j].Contribution {
			return sources[i].Contribution > sources[j].Contribution
		}
		return sources[i].Title < sources[j].Title
	})
	return sources
}
