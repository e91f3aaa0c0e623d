package config

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// EmbedderConfig selects and parameterizes the embedding model.
type EmbedderConfig struct {
	// Provider is one of "local", "openai", "ollama".
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
	Key      string `yaml:"api_key"`
	Model    string `yaml:"model"`
	// Dimension is the model's output dimensionality. Corpus entries with a
	// different dimensionality are rejected at load time.
	Dimension int `yaml:"dimension"`
	// MaxInputRunes is the deterministic truncation limit applied before
	// calling the model.
	MaxInputRunes int `yaml:"max_input_runes"`
	BatchSize     int `yaml:"batch_size"`
}

// DatabaseConfig is the Postgres corpus backend connection.
type DatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

// CorpusConfig selects the reference index backend.
type CorpusConfig struct {
	// Backend is "chromem" or "postgres".
	Backend    string         `yaml:"backend"`
	Path       string         `yaml:"path"`
	Collection string         `yaml:"collection"`
	Database   DatabaseConfig `yaml:"database"`
}

// Duration wraps time.Duration so YAML values like "60s" parse.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// PipelineConfig holds the matching parameters and the concurrency limits.
type PipelineConfig struct {
	WindowSize            int      `yaml:"window_size"`
	Stride                int      `yaml:"stride"`
	TopK                  int      `yaml:"top_k"`
	MinSimilarity         float64  `yaml:"min_similarity"`
	DecisionThreshold     float64  `yaml:"decision_threshold"`
	MaxConcurrentRequests int      `yaml:"max_concurrent_requests"`
	MaxPendingRequests    int      `yaml:"max_pending_requests"`
	PerRequestTimeout     Duration `yaml:"per_request_timeout"`
	MaxDocumentBytes      int      `yaml:"max_document_bytes"`
}

type Config struct {
	Embedder EmbedderConfig `yaml:"embedder"`
	Corpus   CorpusConfig   `yaml:"corpus"`
	Pipeline PipelineConfig `yaml:"pipeline"`
}

// Documented defaults. Window and stride are rune counts; the default
// stride gives 25% overlap between neighboring chunks.
const (
	DefaultWindowSize        = 200
	DefaultStride            = 150
	DefaultTopK              = 5
	DefaultMinSimilarity     = 0.80
	DefaultDecisionThreshold = 0.30
	DefaultPerRequestTimeout = 60 * time.Second
	DefaultMaxDocumentBytes  = 10 << 20
	DefaultMaxInputRunes     = 2048
	DefaultBatchSize         = 16
	DefaultLocalDimension    = 256
)

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a config with every default applied, suitable when no
// config file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero values with the documented defaults.
func (c *Config) ApplyDefaults() {
	if c.Embedder.Provider == "" {
		c.Embedder.Provider = "local"
	}
	if c.Embedder.Dimension == 0 && c.Embedder.Provider == "local" {
		c.Embedder.Dimension = DefaultLocalDimension
	}
	if c.Embedder.MaxInputRunes == 0 {
		c.Embedder.MaxInputRunes = DefaultMaxInputRunes
	}
	if c.Embedder.BatchSize == 0 {
		c.Embedder.BatchSize = DefaultBatchSize
	}
	if c.Corpus.Backend == "" {
		c.Corpus.Backend = "chromem"
	}
	if c.Corpus.Path == "" {
		c.Corpus.Path = "./corpusdb"
	}
	if c.Corpus.Collection == "" {
		c.Corpus.Collection = "wikipedia"
	}
	if c.Pipeline.WindowSize == 0 {
		c.Pipeline.WindowSize = DefaultWindowSize
	}
	if c.Pipeline.Stride == 0 {
		c.Pipeline.Stride = DefaultStride
	}
	if c.Pipeline.TopK == 0 {
		c.Pipeline.TopK = DefaultTopK
	}
	if c.Pipeline.MinSimilarity == 0 {
		c.Pipeline.MinSimilarity = DefaultMinSimilarity
	}
	if c.Pipeline.DecisionThreshold == 0 {
		c.Pipeline.DecisionThreshold = DefaultDecisionThreshold
	}
	if c.Pipeline.MaxConcurrentRequests == 0 {
		c.Pipeline.MaxConcurrentRequests = runtime.NumCPU()
	}
	if c.Pipeline.MaxPendingRequests == 0 {
		c.Pipeline.MaxPendingRequests = 2 * c.Pipeline.MaxConcurrentRequests
	}
	if c.Pipeline.PerRequestTimeout == 0 {
		c.Pipeline.PerRequestTimeout = Duration(DefaultPerRequestTimeout)
	}
	if c.Pipeline.MaxDocumentBytes == 0 {
		c.Pipeline.MaxDocumentBytes = DefaultMaxDocumentBytes
	}
}

// Validate rejects parameter combinations the pipeline cannot honor.
func (c *Config) Validate() error {
	switch c.Embedder.Provider {
	case "local", "openai", "ollama":
	default:
		return fmt.Errorf("config: unknown embedder provider %q", c.Embedder.Provider)
	}
	if c.Embedder.Dimension <= 0 {
		return fmt.Errorf("config: embedder dimension must be positive")
	}
	switch c.Corpus.Backend {
	case "chromem", "postgres":
	default:
		return fmt.Errorf("config: unknown corpus backend %q", c.Corpus.Backend)
	}
	if c.Pipeline.WindowSize <= 0 || c.Pipeline.Stride <= 0 {
		return fmt.Errorf("config: window size and stride must be positive")
	}
	if c.Pipeline.Stride > c.Pipeline.WindowSize {
		return fmt.Errorf("config: stride %d exceeds window size %d", c.Pipeline.Stride, c.Pipeline.WindowSize)
	}
	if c.Pipeline.MinSimilarity < 0 || c.Pipeline.MinSimilarity > 1 {
		return fmt.Errorf("config: min_similarity must be in [0,1]")
	}
	if c.Pipeline.DecisionThreshold < 0 || c.Pipeline.DecisionThreshold > 1 {
		return fmt.Errorf("config: decision_threshold must be in [0,1]")
	}
	return nil
}
