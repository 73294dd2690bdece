package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"tinyrag/internal/adapter/ticker"
	"tinyrag/internal/domain"
	"tinyrag/internal/retry"
)

// Config holds all configuration for tinyrag.
type Config struct {
	Store      StoreConfig      `yaml:"store"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Retrieve   RetrieveConfig   `yaml:"retrieve"`
	Retry      RetryConfig      `yaml:"retry"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	Tickers    []ticker.Alias   `yaml:"tickers"`
}

// StoreConfig selects the vector store backend by URL scheme:
// postgres://, bolt://path or memory://.
type StoreConfig struct {
	URL string `yaml:"url"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider  string        `yaml:"provider"` // "ollama" or "hash"
	Model     string        `yaml:"model"`
	BaseURL   string        `yaml:"base_url"`
	Dimension int           `yaml:"dimension"`
	BatchSize int           `yaml:"batch_size"`
	Timeout   time.Duration `yaml:"timeout"`
}

type GenerationConfig struct {
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

type ChunkingConfig struct {
	Encoding     string `yaml:"encoding"`
	ChunkTokens  int    `yaml:"chunk_tokens"`
	ChunkOverlap int    `yaml:"chunk_overlap"`
}

type RetrieveConfig struct {
	TopK    int `yaml:"top_k"`
	MaxTopK int `yaml:"max_top_k"`

	// Opt-in LRU of query embeddings while serving; size 0 disables it.
	QueryCacheSize int           `yaml:"query_cache_size"`
	QueryCacheTTL  time.Duration `yaml:"query_cache_ttl"`
}

// RetryConfig bounds retries of transient store and generation failures.
type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

// IngestConfig locates filings. Includes and excludes are doublestar
// patterns relative to Root.
type IngestConfig struct {
	Root     string   `yaml:"root"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

type ServerConfig struct {
	Addr          string        `yaml:"addr"`
	APIKey        string        `yaml:"api_key"`
	RateLimitRPS  float64       `yaml:"rate_limit_rps"` // 0 disables
	RateBurst     int           `yaml:"rate_burst"`
	HealthTimeout time.Duration `yaml:"health_timeout"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

const (
	DefaultOllamaHost = "http://localhost:11434"
	DefaultFilingsDir = "sec-edgar-filings"
)

// DefaultDatabaseURL points at a local rag_db owned by $USER.
func DefaultDatabaseURL() string {
	user := os.Getenv("USER")
	if user == "" {
		user = "postgres"
	}
	return fmt.Sprintf("postgresql://%s@localhost:5432/rag_db", user)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			URL: DefaultDatabaseURL(),
		},
		Embedding: EmbeddingConfig{
			Provider:  "ollama",
			Model:     "all-minilm",
			BaseURL:   DefaultOllamaHost,
			Dimension: 384,
			BatchSize: 32,
			Timeout:   60 * time.Second,
		},
		Generation: GenerationConfig{
			BaseURL: DefaultOllamaHost,
			Model:   "llama3.2",
			Timeout: 120 * time.Second,
		},
		Chunking: ChunkingConfig{
			Encoding:     "cl100k_base",
			ChunkTokens:  400,
			ChunkOverlap: 100,
		},
		Retrieve: RetrieveConfig{
			TopK:           6,
			MaxTopK:        20,
			QueryCacheSize: 0,
			QueryCacheTTL:  10 * time.Minute,
		},
		Retry: RetryConfig{
			MaxAttempts:    retry.DefaultMaxAttempts,
			InitialBackoff: retry.DefaultInitialBackoff,
			MaxBackoff:     retry.DefaultMaxBackoff,
		},
		Ingest: IngestConfig{
			Root:     DefaultFilingsDir,
			Includes: []string{"*/10-K/*/full-submission.txt"},
		},
		Server: ServerConfig{
			Addr:          ":8001",
			RateLimitRPS:  0,
			RateBurst:     10,
			HealthTimeout: 3 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Tickers: ticker.DefaultAliases(),
	}
}

// Load loads configuration from a YAML file and applies environment
// overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}

	cfg.applyEnv()
	return cfg, nil
}

// LoadFromDir loads dir/.env into the environment, then the first of
// tinyrag.yaml and .tinyrag/config.yaml found in dir.
func LoadFromDir(dir string) (*Config, error) {
	if err := LoadDotEnv(dir); err != nil {
		return nil, err
	}

	for _, path := range []string{
		filepath.Join(dir, "tinyrag.yaml"),
		filepath.Join(dir, ".tinyrag", "config.yaml"),
	} {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	cfg := DefaultConfig()
	cfg.applyEnv()
	return cfg, nil
}

// LoadDotEnv loads dir/.env without overriding variables already set.
func LoadDotEnv(dir string) error {
	err := godotenv.Load(filepath.Join(dir, ".env"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Store.URL = v
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		c.Embedding.BaseURL = v
		c.Generation.BaseURL = v
	}
	if v := os.Getenv("RAG_API_KEY"); v != "" {
		c.Server.APIKey = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	switch {
	case c.Store.URL == "":
		return invalid("store.url is empty")
	case c.Embedding.Provider != "ollama" && c.Embedding.Provider != "hash":
		return invalid("unknown embedding provider %q", c.Embedding.Provider)
	case c.Embedding.Dimension <= 0:
		return invalid("embedding.dimension must be positive, got %d", c.Embedding.Dimension)
	case c.Embedding.BatchSize <= 0:
		return invalid("embedding.batch_size must be positive, got %d", c.Embedding.BatchSize)
	case c.Chunking.ChunkTokens <= 0:
		return invalid("chunking.chunk_tokens must be positive, got %d", c.Chunking.ChunkTokens)
	case c.Chunking.ChunkOverlap < 0 || c.Chunking.ChunkOverlap >= c.Chunking.ChunkTokens:
		return invalid("chunking.chunk_overlap must be in [0, %d), got %d", c.Chunking.ChunkTokens, c.Chunking.ChunkOverlap)
	case c.Retrieve.MaxTopK <= 0:
		return invalid("retrieve.max_top_k must be positive, got %d", c.Retrieve.MaxTopK)
	case c.Retrieve.TopK < 1 || c.Retrieve.TopK > c.Retrieve.MaxTopK:
		return invalid("retrieve.top_k must be in [1, %d], got %d", c.Retrieve.MaxTopK, c.Retrieve.TopK)
	case c.Retry.MaxAttempts < 1:
		return invalid("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	case c.Retry.InitialBackoff < 0 || c.Retry.MaxBackoff < c.Retry.InitialBackoff:
		return invalid("retry backoff must satisfy 0 <= initial_backoff <= max_backoff")
	case c.Logging.Format != "console" && c.Logging.Format != "json":
		return invalid("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

// RetryPolicy builds a retry policy that retries errors accepted by retryable.
func (c *Config) RetryPolicy(retryable func(error) bool) retry.Policy {
	p := retry.NewPolicy(retryable)
	p.MaxAttempts = c.Retry.MaxAttempts
	p.InitialBackoff = c.Retry.InitialBackoff
	p.MaxBackoff = c.Retry.MaxBackoff
	return p
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
