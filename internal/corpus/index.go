// Package corpus holds the reference index: the prebuilt, read-only
// collection of Wikipedia passages the pipeline matches documents against.
package corpus

import (
	"context"
	"fmt"
	"math"
	"sort"

	"plagiarism-checker/internal/models"
)

// Hit is one nearest-neighbor result. Similarity is cosine similarity
// rescaled to [0,1].
type Hit struct {
	Entry      models.CorpusEntry
	Similarity float64
}

// Index answers nearest-neighbor queries over the corpus. Implementations
// are safe for concurrent use and never mutate shared state on Query. An
// exact implementation must match brute-force cosine ranking; an
// approximate implementation must document its recall against exact ranking
// and keep it at or above 95%.
type Index interface {
	Query(ctx context.Context, vector []float32, k int) ([]Hit, error)
	Dimension() int
	Len() int
}

// MemIndex is the exact in-memory index: a brute-force cosine scan over
// L2-normalized vectors. It is immutable after Build.
type MemIndex struct {
	entries   []models.CorpusEntry
	vectors   [][]float32 // normalized copies, parallel to entries
	dimension int
}

// Build constructs a MemIndex from corpus entries. Every entry's embedding
// must have the given dimension; a mismatch is a configuration error, not a
// per-request failure.
func Build(entries []models.CorpusEntry, dimension int) (*MemIndex, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("corpus: dimension must be positive")
	}
	idx := &MemIndex{
		entries:   make([]models.CorpusEntry, len(entries)),
		vectors:   make([][]float32, len(entries)),
		dimension: dimension,
	}
	for i, entry := range entries {
		if len(entry.Embedding) != dimension {
			return nil, fmt.Errorf("corpus: entry %s has dimension %d, index requires %d",
				entry.ID, len(entry.Embedding), dimension)
		}
		idx.entries[i] = entry
		idx.vectors[i] = normalize(entry.Embedding)
	}
	return idx, nil
}

func (idx *MemIndex) Dimension() int { return idx.dimension }

func (idx *MemIndex) Len() int { return len(idx.entries) }

// Query returns the k entries most similar to vector, similarity
// descending. Results match brute-force cosine ranking exactly; equal
// similarities are ordered by ascending entry ID for determinism.
func (idx *MemIndex) Query(_ context.Context, vector []float32, k int) ([]Hit, error) {
	if len(vector) != idx.dimension {
		return nil, fmt.Errorf("corpus: query dimension %d, index requires %d", len(vector), idx.dimension)
	}
	if k <= 0 || len(idx.entries) == 0 {
		return nil, nil
	}

	q := normalize(vector)
	hits := make([]Hit, len(idx.entries))
	for i, vec := range idx.vectors {
		hits[i] = Hit{Entry: idx.entries[i], Similarity: RescaleCosine(dot(vec, q))}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].Entry.ID < hits[j].Entry.ID
	})
	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// RescaleCosine maps a cosine similarity in [-1,1] to [0,1], clamping
// float rounding at the edges.
func RescaleCosine(cos float64) float64 {
	s := (cos + 1) / 2
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func normalize(vec []float32) []float32 {
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	out := make([]float32, len(vec))
	if norm == 0 {
		return out
	}
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}
