package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"plagiarism-checker/internal/config"
	"plagiarism-checker/internal/models"
)

// entryRow is the corpus_entries table. The embedding is stored in a
// pgvector column; it travels as the textual vector literal so no driver
// support for the vector type is needed.
type entryRow struct {
	bun.BaseModel `bun:"table:corpus_entries,alias:ce"`
	ID            string `bun:"id,pk"`
	Title         string `bun:"title,notnull"`
	URL           string `bun:"url,notnull"`
	Text          string `bun:"text,notnull"`
	Embedding     string `bun:"embedding,notnull"`
}

// PGStore is the Postgres/pgvector corpus backend. Unlike ChromemStore it
// is only a store: serving loads all entries once and builds a MemIndex.
type PGStore struct {
	db        *bun.DB
	dimension int
}

// ConnectPG opens the corpus database from config.
func ConnectPG(cfg *config.DatabaseConfig, dimension int) (*PGStore, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(cfg.DSN),
		pgdriver.WithPassword(cfg.Password),
	))
	db := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return &PGStore{db: db, dimension: dimension}, nil
}

func (s *PGStore) Close() error { return s.db.Close() }

// Init creates the corpus_entries table with the configured vector
// dimension.
func (s *PGStore) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS corpus_entries (
			id text PRIMARY KEY,
			title text NOT NULL,
			url text NOT NULL,
			text text NOT NULL,
			embedding vector(%d) NOT NULL
		)`, s.dimension))
	return err
}

// Drop removes the corpus table; the indexer uses it for full rebuilds.
func (s *PGStore) Drop(ctx context.Context) error {
	_, err := s.db.NewDropTable().Model((*entryRow)(nil)).IfExists().Exec(ctx)
	return err
}

// AddEntries batch-inserts corpus entries.
func (s *PGStore) AddEntries(ctx context.Context, entries []models.CorpusEntry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]entryRow, len(entries))
	for i, entry := range entries {
		if len(entry.Embedding) != s.dimension {
			return fmt.Errorf("corpus: entry %s has dimension %d, store requires %d",
				entry.ID, len(entry.Embedding), s.dimension)
		}
		rows[i] = entryRow{
			ID:        entry.ID,
			Title:     entry.Title,
			URL:       entry.URL,
			Text:      entry.Text,
			Embedding: formatVector(entry.Embedding),
		}
	}
	_, err := s.db.NewInsert().Model(&rows).Exec(ctx)
	return err
}

// LoadAll reads every corpus entry; the result feeds Build to produce the
// serving MemIndex.
func (s *PGStore) LoadAll(ctx context.Context) ([]models.CorpusEntry, error) {
	var rows []entryRow
	if err := s.db.NewSelect().Model(&rows).Order("id ASC").Scan(ctx); err != nil {
		return nil, err
	}
	entries := make([]models.CorpusEntry, len(rows))
	for i, row := range rows {
		embedding, err := parseVector(row.Embedding)
		if err != nil {
			return nil, fmt.Errorf("corpus: entry %s: %w", row.ID, err)
		}
		if len(embedding) != s.dimension {
			return nil, fmt.Errorf("corpus: entry %s has dimension %d, configured %d",
				row.ID, len(embedding), s.dimension)
		}
		entries[i] = models.CorpusEntry{
			ID:        row.ID,
			Title:     row.Title,
			URL:       row.URL,
			Text:      row.Text,
			Embedding: embedding,
		}
	}
	return entries, nil
}

// formatVector renders the pgvector literal: "[0.1,0.2,...]".
func formatVector(vec []float32) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range vec {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}

func parseVector(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, fmt.Errorf("malformed vector literal")
	}
	body := s[1 : len(s)-1]
	if body == "" {
		return nil, nil
	}
	parts := strings.Split(body, ",")
	vec := make([]float32, len(parts))
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return nil, fmt.Errorf("malformed vector literal: %w", err)
		}
		vec[i] = float32(f)
	}
	return vec, nil
}
