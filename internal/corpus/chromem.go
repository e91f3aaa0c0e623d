package corpus

import (
	"context"
	"fmt"
	"runtime"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"plagiarism-checker/internal/models"
)

const compress = false

// ChromemStore is the embedded persistent corpus backend. The indexer
// writes entries with precomputed embeddings; the checker opens the same
// path read-only and serves queries straight from the collection, which
// performs an exact cosine scan.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	dimension  int
}

// OpenChromem opens (or creates) the store at path. inMemory is used by
// tests and by rebuilds that are exported afterwards.
func OpenChromem(path, collectionName string, inMemory bool, dimension int) (*ChromemStore, error) {
	var (
		db  *chromem.DB
		err error
	)
	if inMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(path, compress)
		if err != nil {
			return nil, fmt.Errorf("corpus: failed to open database: %w", err)
		}
	}

	collection, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("corpus: failed to create/get collection: %w", err)
	}

	store := &ChromemStore{db: db, collection: collection, dimension: dimension}
	if err := store.checkDimension(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

// checkDimension probes a non-empty collection with a unit vector of the
// configured dimension. Stored embeddings of a different length make the
// probe fail, which is surfaced as a fatal configuration error instead of
// failing every request later.
func (s *ChromemStore) checkDimension(ctx context.Context) error {
	if s.collection.Count() == 0 {
		return nil
	}
	probe := make([]float32, s.dimension)
	probe[0] = 1
	if _, err := s.collection.QueryEmbedding(ctx, probe, 1, nil, nil); err != nil {
		return fmt.Errorf("corpus: stored embeddings incompatible with configured dimension %d: %w", s.dimension, err)
	}
	return nil
}

// AddEntries writes corpus entries with their precomputed embeddings.
func (s *ChromemStore) AddEntries(ctx context.Context, entries []models.CorpusEntry) error {
	docs := make([]chromem.Document, 0, len(entries))
	for _, entry := range entries {
		if len(entry.Embedding) != s.dimension {
			return fmt.Errorf("corpus: entry %s has dimension %d, store requires %d",
				entry.ID, len(entry.Embedding), s.dimension)
		}
		docs = append(docs, chromem.Document{
			ID:      entry.ID,
			Content: entry.Text,
			Metadata: map[string]string{
				"title": entry.Title,
				"url":   entry.URL,
			},
			Embedding: entry.Embedding,
		})
	}
	if len(docs) == 0 {
		return nil
	}
	log.Debug().Int("entries", len(docs)).Msg("Adding entries to corpus collection")
	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("corpus: failed to add documents: %w", err)
	}
	return nil
}

func (s *ChromemStore) Dimension() int { return s.dimension }

func (s *ChromemStore) Len() int { return s.collection.Count() }

// Query implements Index over the chromem collection.
func (s *ChromemStore) Query(ctx context.Context, vector []float32, k int) ([]Hit, error) {
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("corpus: query dimension %d, store requires %d", len(vector), s.dimension)
	}
	count := s.collection.Count()
	if k > count {
		k = count
	}
	if k <= 0 {
		return nil, nil
	}

	results, err := s.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: vector,
		NResults:       k,
	})
	if err != nil {
		return nil, fmt.Errorf("corpus: similarity query failed: %w", err)
	}

	hits := make([]Hit, 0, len(results))
	for _, res := range results {
		hits = append(hits, Hit{
			Entry: models.CorpusEntry{
				ID:    res.ID,
				Title: res.Metadata["title"],
				URL:   res.Metadata["url"],
				Text:  res.Content,
			},
			Similarity: RescaleCosine(float64(res.Similarity)),
		})
	}
	return hits, nil
}
