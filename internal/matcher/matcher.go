// Package matcher turns per-chunk nearest-neighbor hits into merged,
// scored match spans.
package matcher

import (
	"context"
	"sort"

	"plagiarism-checker/internal/corpus"
	"plagiarism-checker/internal/models"
)

// Match queries the index for each embedded chunk, keeps candidates at or
// above minSimilarity, and merges adjacent chunks that hit the same corpus
// entry into single spans. Overlapping chunks from one plagiarized region
// independently match the same source; merging keeps them from being
// counted twice.
func Match(ctx context.Context, chunks []models.Chunk, idx corpus.Index, topK int, minSimilarity float64) ([]models.Match, error) {
	var spans []models.Match
	entries := make(map[string]models.CorpusEntry)

	for _, chunk := range chunks {
		hits, err := idx.Query(ctx, chunk.Embedding, topK)
		if err != nil {
			return nil, err
		}
		seen := make(map[string]bool, len(hits))
		for _, hit := range hits {
			if hit.Similarity < minSimilarity {
				// Hits are similarity-descending; the rest are below too.
				break
			}
			// Hits are best-first, so the first hit per entry wins.
			if seen[hit.Entry.ID] {
				continue
			}
			seen[hit.Entry.ID] = true
			entries[hit.Entry.ID] = hit.Entry
			spans = append(spans, models.Match{
				Start:      chunk.Start,
				End:        chunk.End,
				EntryID:    hit.Entry.ID,
				Title:      hit.Entry.Title,
				URL:        hit.Entry.URL,
				Similarity: hit.Similarity,
			})
		}
	}

	return Merge(spans), nil
}

// Merge collapses spans that touch or overlap and refer to the same corpus
// entry. The merged similarity is the span-length-weighted mean of the
// members. Merge is idempotent: merging an already-merged list returns the
// same list. The result is ordered by similarity descending, with ties
// broken by longer span first, then lower entry ID.
func Merge(spans []models.Match) []models.Match {
	if len(spans) == 0 {
		return nil
	}

	grouped := make(map[string][]models.Match)
	for _, span := range spans {
		grouped[span.EntryID] = append(grouped[span.EntryID], span)
	}

	var merged []models.Match
	for _, group := range grouped {
		sort.Slice(group, func(i, j int) bool {
			if group[i].Start != group[j].Start {
				return group[i].Start < group[j].Start
			}
			return group[i].End < group[j].End
		})

		current := group[0]
		weighted := current.Similarity * spanWeight(current)
		weight := spanWeight(current)
		for _, span := range group[1:] {
			if span.Start <= current.End {
				if span.End > current.End {
					current.End = span.End
				}
				weighted += span.Similarity * spanWeight(span)
				weight += spanWeight(span)
				continue
			}
			current.Similarity = weighted / weight
			merged = append(merged, current)
			current = span
			weighted = span.Similarity * spanWeight(span)
			weight = spanWeight(span)
		}
		current.Similarity = weighted / weight
		merged = append(merged, current)
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Similarity != merged[j].Similarity {
			return merged[i].Similarity > merged[j].Similarity
		}
		li, lj := merged[i].End-merged[i].Start, merged[j].End-merged[j].Start
		if li != lj {
			return li > lj
		}
		if merged[i].EntryID != merged[j].EntryID {
			return merged[i].EntryID < merged[j].EntryID
		}
		return merged[i].Start < merged[j].Start
	})
	return merged
}

func spanWeight(m models.Match) float64 {
	if m.End <= m.Start {
		return 1
	}
	return float64(m.End - m.Start)
}
