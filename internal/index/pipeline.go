package index

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"codescope/internal/chunker"
	"codescope/internal/walker"

	"golang.org/x/sync/errgroup"
)

// extractAll walks root and extracts every supported file with a pool of
// workers. Each worker owns an Extractor, and so its own parsers; the
// registry is shared. Results are indexed by walk position, so the output
// order does not depend on scheduling.
func (ix *Indexer) extractAll(ctx context.Context, root string) ([]walker.FileInfo, [][]chunker.Chunk, error) {
	files, err := walker.Collect(ctx, root, ix.registry.Extensions())
	if err != nil {
		return nil, nil, fmt.Errorf("walk %s: %w", root, err)
	}
	slog.Info("discovered source files", "root", root, "files", len(files))

	results := make([][]chunker.Chunk, len(files))
	work := make(chan int)
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(work)
		for i := range files {
			select {
			case work <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for range min(ix.config.Workers, max(len(files), 1)) {
		g.Go(func() error {
			ext := chunker.NewExtractor(ix.registry)
			defer ext.Close()

			for i := range work {
				results[i] = extractOne(ext, files[i])
				ix.progress("Extracting chunks...", int(done.Add(1)), len(files))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return files, results, nil
}

// extractOne reads and extracts a single file. Failures are logged and
// yield no chunks.
func extractOne(ext *chunker.Extractor, f walker.FileInfo) []chunker.Chunk {
	src, err := os.ReadFile(f.Path)
	if err != nil {
		slog.Warn("skipping unreadable file", "path", f.RelPath, "error", err)
		return nil
	}
	return ext.Extract(f.RelPath, src)
}
