package cmd

import (
	"context"

	"codescope/internal/chunker/languages"
	"codescope/internal/embedder"
	"codescope/internal/store"
	"codescope/internal/tui"
)

func runTUI() error {
	root, err := workingDir()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	ollamaURL := ""
	if cfg.Embedding.Provider == "ollama" {
		ollamaURL = cfg.Embedding.Endpoint
		if ollamaURL == "" {
			ollamaURL = embedder.DefaultOllamaURL
		}
	}

	return tui.Run(tui.Config{
		Root:      root,
		DBPath:    cfg.DBPath,
		Model:     cfg.Embedding.Model,
		OllamaURL: ollamaURL,
		Results:   cfg.Search.Results,
		Registry:  languages.Default(),
		Indexer:   indexerConfig(cfg),
		OpenStore: func(ctx context.Context, model string) (*store.SQLiteStore, error) {
			c := *cfg
			c.Embedding.Model = model
			return openStore(ctx, &c)
		},
	})
}

