package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
)

// LocalEmbedder is a deterministic feature-hashing vectorizer. Each token is
// hashed into one of dimension slots with a hash-derived sign, and the
// resulting vector is L2-normalized. It needs no model download and no
// network, which makes it the test-time embedder and an offline fallback.
// It captures lexical overlap rather than deep semantics, so corpora built
// with it must be queried with it.
type LocalEmbedder struct {
	dimension    int
	maxRunes     int
	tokenPattern *regexp.Regexp
}

func NewLocalEmbedder(dimension, maxRunes int) *LocalEmbedder {
	return &LocalEmbedder{
		dimension:    dimension,
		maxRunes:     maxRunes,
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`),
	}
}

func (e *LocalEmbedder) Dimension() int { return e.dimension }

func (e *LocalEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dimension)
	tokens := e.tokenPattern.FindAllString(Truncate(text, e.maxRunes), -1)
	for _, tok := range tokens {
		h := fnv.New64a()
		h.Write([]byte(tok))
		sum := h.Sum64()
		slot := int(sum % uint64(e.dimension))
		if sum&(1<<63) != 0 {
			vec[slot]--
		} else {
			vec[slot]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec, nil
}

func (e *LocalEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		vecs[i] = vec
	}
	return vecs, nil
}
