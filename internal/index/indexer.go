package index

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"codescope/internal/chunker"
	"codescope/internal/report"
	"codescope/internal/store"
)

// Store is a Collection that also tracks which embedding model built it
// and can swap its contents for a rebuild. store.SQLiteStore implements it.
type Store interface {
	Replacer
	EmbeddingModel(ctx context.Context) (string, error)
	SetEmbeddingModel(ctx context.Context, model string) error
}

var _ Store = (*store.SQLiteStore)(nil)

// ProgressFunc receives pipeline progress. It may be called from several
// goroutines at once.
type ProgressFunc func(phase string, done, total int)

// Config holds the indexer configuration.
type Config struct {
	// Model is the embedding model name recorded with the index.
	Model string
	// Workers is the number of parallel extractors; 0 means NumCPU.
	Workers int
	// ChunksOutput, when set, receives every indexed chunk as JSON.
	ChunksOutput string
	// Retry configures retries of store calls; the zero value disables them.
	Retry      RetryConfig
	OnProgress ProgressFunc
}

// Stats reports indexing results.
type Stats struct {
	FilesTotal   int            `json:"files_total"`
	FilesIndexed int            `json:"files_indexed"`
	FilesSkipped int            `json:"files_skipped"`
	ChunksTotal  int            `json:"chunks_total"`
	ByLanguage   map[string]int `json:"by_language"`
}

// Indexer runs the walk, extract and store pipeline for a project.
type Indexer struct {
	store    Store
	index    *Index
	registry *chunker.Registry
	config   Config
}

// NewIndexer creates an Indexer writing into s.
func NewIndexer(s Store, reg *chunker.Registry, cfg Config) *Indexer {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return &Indexer{
		store:    s,
		index:    New(s, WithRetry(cfg.Retry)),
		registry: reg,
		config:   cfg,
	}
}

// Index returns the underlying retrieval index.
func (ix *Indexer) Index() *Index { return ix.index }

// Run rebuilds the index from the supported source files under root and
// returns the stored chunks in walk order. Files that cannot be read or
// decoded are skipped. Zero chunks is not an error.
func (ix *Indexer) Run(ctx context.Context, root string) (*Stats, []chunker.Chunk, error) {
	files, perFile, err := ix.extractAll(ctx, root)
	if err != nil {
		return nil, nil, err
	}

	stats := &Stats{FilesTotal: len(files), ByLanguage: make(map[string]int)}
	var all []chunker.Chunk
	for i, chunks := range perFile {
		slog.Debug("extracted chunks", "path", files[i].RelPath, "chunks", len(chunks))
		if len(chunks) == 0 {
			stats.FilesSkipped++
			continue
		}
		stats.FilesIndexed++
		all = append(all, chunks...)
	}

	if len(all) == 0 {
		slog.Info("no chunks found", "root", root, "files", len(files))
		return stats, nil, nil
	}

	if err := ix.commit(ctx, all, stats); err != nil {
		return stats, nil, err
	}
	return stats, all, nil
}

// IndexChunks rebuilds the index from already extracted chunks.
func (ix *Indexer) IndexChunks(ctx context.Context, chunks []chunker.Chunk) (*Stats, error) {
	stats := &Stats{ByLanguage: make(map[string]int)}
	files := make(map[string]bool)
	for _, c := range chunks {
		files[c.FilePath] = true
	}
	stats.FilesTotal = len(files)
	stats.FilesIndexed = len(files)

	if len(chunks) == 0 {
		slog.Info("no chunks found")
		return stats, nil
	}
	if err := ix.commit(ctx, chunks, stats); err != nil {
		return stats, err
	}
	return stats, nil
}

// commit replaces the stored records with chunks. A failed rebuild leaves
// the previous index intact.
func (ix *Indexer) commit(ctx context.Context, chunks []chunker.Chunk, stats *Stats) error {
	last, err := ix.store.EmbeddingModel(ctx)
	if err != nil {
		return fmt.Errorf("%w: get embedding model: %w", ErrStore, err)
	}
	if last != "" && last != ix.config.Model {
		slog.Info("embedding model changed, rebuilding index", "from", last, "to", ix.config.Model)
	}

	ix.progress(fmt.Sprintf("Embedding %d chunks...", len(chunks)), 0, len(chunks))
	if err := ix.index.Replace(ctx, chunks); err != nil {
		return fmt.Errorf("store chunks: %w", err)
	}
	ix.progress("Done", len(chunks), len(chunks))

	for _, c := range chunks {
		stats.ByLanguage[c.Language]++
	}
	stats.ChunksTotal = len(chunks)
	slog.Info("indexed chunks", "chunks", len(chunks), "files", stats.FilesIndexed)

	if err := ix.store.SetEmbeddingModel(ctx, ix.config.Model); err != nil {
		return fmt.Errorf("%w: set embedding model: %w", ErrStore, err)
	}

	if ix.config.ChunksOutput != "" {
		if err := report.SaveJSON(ix.config.ChunksOutput, chunks); err != nil {
			return err
		}
		slog.Info("saved chunks", "path", ix.config.ChunksOutput)
	}
	return nil
}

func (ix *Indexer) progress(phase string, done, total int) {
	if ix.config.OnProgress != nil {
		ix.config.OnProgress(phase, done, total)
	}
}
