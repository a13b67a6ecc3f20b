// Package config loads codescope settings from defaults, an optional YAML
// file, a .env file and CODESCOPE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"codescope/internal/embedder"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// EnvPrefix prefixes environment overrides, e.g. CODESCOPE_EMBEDDING_MODEL.
const EnvPrefix = "CODESCOPE"

// Config is the full codescope configuration.
type Config struct {
	DBPath    string          `mapstructure:"db_path" yaml:"db_path"`
	Embedding EmbeddingConfig `mapstructure:"embedding" yaml:"embedding"`
	Index     IndexConfig     `mapstructure:"index" yaml:"index"`
	Search    SearchConfig    `mapstructure:"search" yaml:"search"`
	Store     StoreConfig     `mapstructure:"store" yaml:"store"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

// EmbeddingConfig selects the embedding provider.
type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider" yaml:"provider"` // ollama, openai
	Model      string `mapstructure:"model" yaml:"model"`
	Endpoint   string `mapstructure:"endpoint" yaml:"endpoint"`
	APIKey     string `mapstructure:"api_key" yaml:"api_key"`
	Dimensions int    `mapstructure:"dimensions" yaml:"dimensions"`
	BatchSize  int    `mapstructure:"batch_size" yaml:"batch_size"`
}

// IndexConfig configures the indexing pipeline.
type IndexConfig struct {
	Workers      int    `mapstructure:"workers" yaml:"workers"`
	ChunksOutput string `mapstructure:"chunks_output" yaml:"chunks_output"`
}

// SearchConfig configures queries.
type SearchConfig struct {
	Results int `mapstructure:"results" yaml:"results"`
}

// StoreConfig configures store access.
type StoreConfig struct {
	Retries int `mapstructure:"retries" yaml:"retries"` // attempts per call, 1 = no retry
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // text, json
}

// Dir returns the per-project state directory.
func Dir(projectRoot string) string {
	return filepath.Join(projectRoot, ".codescope")
}

// Path returns the default config file location.
func Path(projectRoot string) string {
	return filepath.Join(Dir(projectRoot), "config.yaml")
}

// New returns a viper instance with defaults and environment bindings.
// Callers may bind flags to it before Load.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("db_path", "")
	v.SetDefault("embedding.provider", "ollama")
	v.SetDefault("embedding.model", "")
	v.SetDefault("embedding.endpoint", "")
	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.dimensions", 768)
	v.SetDefault("embedding.batch_size", 32)
	v.SetDefault("index.workers", runtime.NumCPU())
	v.SetDefault("index.chunks_output", "")
	v.SetDefault("search.results", 3)
	v.SetDefault("store.retries", 1)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("embedding.api_key", EnvPrefix+"_EMBEDDING_API_KEY", "OPENAI_API_KEY")

	return v
}

// Load reads configuration for projectRoot. An explicit file must exist;
// otherwise <root>/.codescope/config.yaml is used when present. A .env file
// in the project root is loaded into the environment first, without
// overriding variables that are already set.
func Load(v *viper.Viper, projectRoot, file string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(projectRoot, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if file == "" {
		if _, err := os.Stat(Path(projectRoot)); err == nil {
			file = Path(projectRoot)
		}
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(Dir(projectRoot), "index.db")
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = embedder.DefaultModel(cfg.Embedding.Provider)
	}
	if cfg.Index.ChunksOutput != "" && !filepath.IsAbs(cfg.Index.ChunksOutput) {
		cfg.Index.ChunksOutput = filepath.Join(projectRoot, cfg.Index.ChunksOutput)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting, joined, wrapped in ErrInvalid.
func (c *Config) Validate() error {
	var errs []error

	validProviders := map[string]bool{"ollama": true, "openai": true}
	if !validProviders[c.Embedding.Provider] {
		errs = append(errs, fmt.Errorf("invalid embedding provider: %q", c.Embedding.Provider))
	}
	if c.Embedding.Model == "" {
		errs = append(errs, errors.New("embedding model is required"))
	}
	if c.Embedding.Dimensions <= 0 {
		errs = append(errs, fmt.Errorf("embedding dimensions must be positive, got %d", c.Embedding.Dimensions))
	}
	if c.Embedding.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("embedding batch size must be positive, got %d", c.Embedding.BatchSize))
	}
	if c.Index.Workers < 0 {
		errs = append(errs, fmt.Errorf("index workers must not be negative, got %d", c.Index.Workers))
	}
	if c.Search.Results <= 0 {
		errs = append(errs, fmt.Errorf("search results must be positive, got %d", c.Search.Results))
	}
	if c.Store.Retries < 0 {
		errs = append(errs, fmt.Errorf("store retries must not be negative, got %d", c.Store.Retries))
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		errs = append(errs, fmt.Errorf("invalid log format: %q", c.Logging.Format))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}
