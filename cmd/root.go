package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"codescope/internal/config"
	"codescope/internal/embedder"
	"codescope/internal/index"
	"codescope/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagConfig string
	v          = config.New()
)

var rootCmd = &cobra.Command{
	Use:           "codescope",
	Short:         "Semantic code search over tree-sitter chunks",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagConfig, "config", "", "config file (default <project>/.codescope/config.yaml)")
	flags.String("db", "", "database path (default <project>/.codescope/index.db)")
	flags.String("provider", "ollama", "embedding provider (ollama, openai)")
	flags.String("endpoint", "", "embedding API base URL")
	flags.String("model", "", "embedding model (default per provider)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")

	bind := map[string]string{
		"db_path":            "db",
		"embedding.provider": "provider",
		"embedding.endpoint": "endpoint",
		"embedding.model":    "model",
		"logging.level":      "log-level",
		"logging.format":     "log-format",
	}
	for key, flag := range bind {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}
}

// loadConfig reads the configuration for projectRoot and installs the
// default logger.
func loadConfig(projectRoot string) (*config.Config, error) {
	cfg, err := config.Load(v, projectRoot, flagConfig)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(cfg.Logging.NewLogger(os.Stderr))
	return cfg, nil
}

// workingDir returns the absolute project root for commands that operate
// on the current directory.
func workingDir() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Abs(wd)
}

func newEmbedder(cfg *config.Config) (embedder.Embedder, error) {
	return embedder.New(embedder.Config{
		Provider:   cfg.Embedding.Provider,
		Model:      cfg.Embedding.Model,
		Endpoint:   cfg.Embedding.Endpoint,
		APIKey:     cfg.Embedding.APIKey,
		Dimensions: cfg.Embedding.Dimensions,
	})
}

// openStore opens the index database, creating its directory.
func openStore(ctx context.Context, cfg *config.Config) (*store.SQLiteStore, error) {
	emb, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	st, err := store.Open(ctx, cfg.DBPath, store.Options{
		Embedder:   emb,
		Dimensions: cfg.Embedding.Dimensions,
		BatchSize:  cfg.Embedding.BatchSize,
	})
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	return st, nil
}

// openExistingStore is openStore for read-only commands; it refuses to
// create an empty index.
func openExistingStore(ctx context.Context, cfg *config.Config) (*store.SQLiteStore, error) {
	if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("index not found at %s\nRun 'codescope index <path>' first to build the index", cfg.DBPath)
	}
	return openStore(ctx, cfg)
}

func indexerConfig(cfg *config.Config) index.Config {
	retry := index.DefaultRetryConfig()
	retry.MaxRetries = cfg.Store.Retries
	return index.Config{
		Model:        cfg.Embedding.Model,
		Workers:      cfg.Index.Workers,
		ChunksOutput: cfg.Index.ChunksOutput,
		Retry:        retry,
	}
}
