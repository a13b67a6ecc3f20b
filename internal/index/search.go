package index

import (
	"context"
	"fmt"

	"codescope/internal/report"
)

// DefaultResults is the number of hits returned when none is requested.
const DefaultResults = 3

// Searcher answers natural-language queries against an Index.
type Searcher struct {
	index *Index
}

// NewSearcher creates a Searcher over idx.
func NewSearcher(idx *Index) *Searcher {
	return &Searcher{index: idx}
}

// Search returns up to n hits for query, closest first, and writes them
// to outputPath as JSON when it is not empty.
func (s *Searcher) Search(ctx context.Context, query string, n int, outputPath string) ([]Hit, error) {
	if n <= 0 {
		n = DefaultResults
	}
	hits, err := s.index.Query(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	if outputPath != "" {
		if err := report.SaveJSON(outputPath, hits); err != nil {
			return hits, err
		}
	}
	return hits, nil
}
