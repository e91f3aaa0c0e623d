package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"plagiarism-checker/internal/chunker"
	"plagiarism-checker/internal/config"
	"plagiarism-checker/internal/corpus"
	"plagiarism-checker/internal/embedding"
	"plagiarism-checker/internal/models"
	"plagiarism-checker/internal/wikipedia"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Caller().Logger()

	dumpPath := flag.String("dump", "", "Path to a JSON-lines dump file with one {title,url,text} object per line")
	titlesFlag := flag.String("titles", "", "Comma-separated Wikipedia article titles to fetch")
	wikiURL := flag.String("wiki-url", "", "MediaWiki base URL (default: en.wikipedia.org)")
	configPath := flag.String("config", configFilePath, "Path to the config file")
	reset := flag.Bool("reset", false, "Drop existing corpus entries before indexing")
	flag.Parse()

	if *dumpPath == "" && *titlesFlag == "" {
		log.Fatal().Msg("Please provide a dump file using the -dump flag or article titles using the -titles flag")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn().Str("path", *configPath).Msg("Config file not found, using defaults")
			cfg = config.Default()
		} else {
			log.Fatal().Err(err).Msg("Error loading config")
		}
	}
	log.Debug().Interface("config", cfg).Msg("Loaded config")

	ctx := context.Background()

	articles, err := loadArticles(ctx, *dumpPath, *titlesFlag, *wikiURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading articles")
	}
	log.Info().Int("articles", len(articles)).Msg("Loaded articles")

	embedder, err := embedding.NewEmbedder(&cfg.Embedder)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	entries, err := buildEntries(ctx, cfg, embedder, articles)
	if err != nil {
		log.Fatal().Err(err).Msg("Error building corpus entries")
	}
	log.Info().Int("entries", len(entries)).Msg("Embedded corpus entries")

	if err := storeEntries(ctx, cfg, entries, *reset); err != nil {
		log.Fatal().Err(err).Msg("Error storing corpus entries")
	}
	log.Info().Str("backend", cfg.Corpus.Backend).Msg("Corpus index ready")
}

func loadArticles(ctx context.Context, dumpPath, titlesFlag, wikiURL string) ([]wikipedia.Article, error) {
	if dumpPath != "" {
		return readDump(dumpPath)
	}
	titles := strings.Split(titlesFlag, ",")
	for i := range titles {
		titles[i] = strings.TrimSpace(titles[i])
	}
	return wikipedia.NewClient(wikiURL).FetchArticles(ctx, titles)
}

func readDump(path string) ([]wikipedia.Article, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var articles []wikipedia.Article
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1<<20), 16<<20)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var article wikipedia.Article
		if err := json.Unmarshal([]byte(text), &article); err != nil {
			return nil, fmt.Errorf("dump line %d: %w", line, err)
		}
		articles = append(articles, article)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(articles) == 0 {
		return nil, fmt.Errorf("dump %s contains no articles", path)
	}
	return articles, nil
}

// buildEntries chunks every article with the serving window and stride so
// corpus passages line up with query chunks, then embeds them in batches.
func buildEntries(ctx context.Context, cfg *config.Config, embedder embedding.Embedder, articles []wikipedia.Article) ([]models.CorpusEntry, error) {
	var entries []models.CorpusEntry
	for _, article := range articles {
		text := chunker.Normalize(article.Text)
		chunks, err := chunker.Chunk(text, cfg.Pipeline.WindowSize, cfg.Pipeline.Stride)
		if err != nil {
			log.Warn().Err(err).Str("title", article.Title).Msg("Skipping article")
			continue
		}
		for _, chunk := range chunks {
			entries = append(entries, models.CorpusEntry{
				ID:    uuid.New().String(),
				Title: article.Title,
				URL:   article.URL,
				Text:  chunk.Text,
			})
		}
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no corpus entries produced")
	}

	batchSize := cfg.Embedder.BatchSize
	for start := 0; start < len(entries); start += batchSize {
		end := min(start+batchSize, len(entries))
		texts := make([]string, 0, end-start)
		for _, entry := range entries[start:end] {
			texts = append(texts, entry.Text)
		}
		vectors, err := embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, err
		}
		for i := range vectors {
			entries[start+i].Embedding = vectors[i]
		}
		log.Debug().Int("done", end).Int("total", len(entries)).Msg("Embedded batch")
	}
	return entries, nil
}

func storeEntries(ctx context.Context, cfg *config.Config, entries []models.CorpusEntry, reset bool) error {
	switch cfg.Corpus.Backend {
	case "chromem":
		if reset {
			if err := os.RemoveAll(cfg.Corpus.Path); err != nil {
				return err
			}
		}
		store, err := corpus.OpenChromem(cfg.Corpus.Path, cfg.Corpus.Collection, false, cfg.Embedder.Dimension)
		if err != nil {
			return err
		}
		return store.AddEntries(ctx, entries)
	case "postgres":
		store, err := corpus.ConnectPG(&cfg.Corpus.Database, cfg.Embedder.Dimension)
		if err != nil {
			return err
		}
		defer store.Close()
		if reset {
			if err := store.Drop(ctx); err != nil {
				return err
			}
		}
		if err := store.Init(ctx); err != nil {
			return err
		}
		return store.AddEntries(ctx, entries)
	}
	return fmt.Errorf("unknown corpus backend %q", cfg.Corpus.Backend)
}
