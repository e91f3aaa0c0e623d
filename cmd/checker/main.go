package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"plagiarism-checker/internal/apperrors"
	"plagiarism-checker/internal/config"
	"plagiarism-checker/internal/corpus"
	"plagiarism-checker/internal/embedding"
	"plagiarism-checker/internal/models"
	"plagiarism-checker/internal/pipeline"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Caller().Logger()

	filePath := flag.String("file", "", "Path to the document to check")
	formatFlag := flag.String("format", "", "Document format: txt, pdf or docx (default: from file extension)")
	configPath := flag.String("config", configFilePath, "Path to the config file")
	corpusPath := flag.String("corpus", "", "Corpus path, overrides the config value")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if *filePath == "" {
		log.Fatal().Msg("Please provide a document using the -file flag")
	}

	cfg := loadConfig(*configPath)
	if *corpusPath != "" {
		cfg.Corpus.Path = *corpusPath
	}
	log.Debug().Interface("config", cfg).Msg("Loaded config")

	format, err := resolveFormat(*filePath, *formatFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Error resolving document format")
	}

	data, err := os.ReadFile(*filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error reading document")
	}

	embedder, err := embedding.NewEmbedder(&cfg.Embedder)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	handle, cleanup, err := openCorpus(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening corpus index")
	}
	defer cleanup()

	pool := pipeline.NewPool(
		pipeline.New(cfg, embedder, handle),
		cfg.Pipeline.MaxConcurrentRequests,
		cfg.Pipeline.MaxPendingRequests,
	)
	defer pool.Close()

	report, err := pool.Check(context.Background(), data, format)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Error encoding report")
	}
	fmt.Println(string(out))
}

func loadConfig(path string) *config.Config {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn().Str("path", path).Msg("Config file not found, using defaults")
			return config.Default()
		}
		log.Fatal().Err(err).Msg("Error loading config")
	}
	return cfg
}

func resolveFormat(filePath, formatFlag string) (models.Format, error) {
	if formatFlag != "" {
		return models.ParseFormat(formatFlag)
	}
	ext := strings.ToLower(filepath.Ext(filePath))
	if ext == "" {
		return "", fmt.Errorf("cannot infer format of %q, use the -format flag", filePath)
	}
	return models.ParseFormat(ext)
}

// openCorpus builds the serving index for the configured backend. The
// chromem backend serves queries straight from the persisted collection;
// the postgres backend loads every entry into memory once at startup.
func openCorpus(ctx context.Context, cfg *config.Config) (*corpus.Handle, func(), error) {
	switch cfg.Corpus.Backend {
	case "chromem":
		store, err := corpus.OpenChromem(cfg.Corpus.Path, cfg.Corpus.Collection, false, cfg.Embedder.Dimension)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Int("entries", store.Len()).Str("path", cfg.Corpus.Path).Msg("Opened corpus collection")
		return corpus.NewHandle(store), func() {}, nil
	case "postgres":
		store, err := corpus.ConnectPG(&cfg.Corpus.Database, cfg.Embedder.Dimension)
		if err != nil {
			return nil, nil, err
		}
		entries, err := store.LoadAll(ctx)
		if err != nil {
			store.Close()
			return nil, nil, err
		}
		idx, err := corpus.Build(entries, cfg.Embedder.Dimension)
		if err != nil {
			store.Close()
			return nil, nil, err
		}
		log.Info().Int("entries", idx.Len()).Msg("Loaded corpus from database")
		return corpus.NewHandle(idx), func() { store.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown corpus backend %q", cfg.Corpus.Backend)
}

func printError(err error) {
	payload := struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}{}
	payload.Error.Code = string(apperrors.CodeOf(err))
	payload.Error.Message = apperrors.MessageOf(err)
	out, _ := json.Marshal(payload)
	fmt.Println(string(out))
}
