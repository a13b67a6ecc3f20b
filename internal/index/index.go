// Package index stores extracted chunks in a vector collection and serves
// ranked nearest-neighbour queries over them.
package index

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"codescope/internal/chunker"
	"codescope/internal/store"
)

// ErrStore marks a failure of the underlying collection. The index is not
// in the expected state after such an error; callers may retry the batch.
var ErrStore = errors.New("store failure")

// Collection is the embed-and-rank capability the index is built on.
// Results are grouped by query text, closest first.
type Collection interface {
	Add(ctx context.Context, ids, documents []string, metadatas []store.Metadata) error
	Query(ctx context.Context, texts []string, n int) (*store.QueryResult, error)
	Count(ctx context.Context) (int, error)
}

// Hit is one ranked query result. Score is the collection's distance, so
// lower is closer.
type Hit struct {
	Content      string  `json:"content"`
	FilePath     string  `json:"file_path"`
	FunctionName string  `json:"function_name"`
	StartLine    int     `json:"start_line"`
	EndLine      int     `json:"end_line"`
	Language     string  `json:"language"`
	ChunkType    string  `json:"chunk_type"`
	Score        float64 `json:"score"`
}

// Option configures an Index.
type Option func(*Index)

// WithRetry retries collection calls that fail, with exponential backoff.
func WithRetry(cfg RetryConfig) Option {
	return func(idx *Index) { idx.retry = cfg }
}

// Index assigns chunk ids and shapes metadata for a Collection.
type Index struct {
	coll  Collection
	retry RetryConfig

	mu     sync.Mutex
	seeded bool
	next   atomic.Int64
}

// New returns an Index over coll.
func New(coll Collection, opts ...Option) *Index {
	idx := &Index{coll: coll, retry: RetryConfig{MaxRetries: 1}}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// ChunkID returns the record id for position i.
func ChunkID(i int) string {
	return "chunk_" + strconv.Itoa(i)
}

// ChunkMetadata returns every non-content field of c.
func ChunkMetadata(c chunker.Chunk) store.Metadata {
	return store.Metadata{
		"file_path":     c.FilePath,
		"function_name": c.FunctionName,
		"start_line":    c.StartLine,
		"end_line":      c.EndLine,
		"language":      c.Language,
		"chunk_type":    c.ChunkType,
	}
}

// Add stores chunks under ids chunk_{offset+i}. The caller must pass an
// offset past every id already in the collection; see Append for a
// variant that tracks it.
func (idx *Index) Add(ctx context.Context, chunks []chunker.Chunk, offset int) error {
	if len(chunks) == 0 {
		return nil
	}

	ids, docs, metas := records(chunks, offset)
	_, err := retryWithBackoff(ctx, idx.retry, func() (struct{}, error) {
		return struct{}{}, idx.coll.Add(ctx, ids, docs, metas)
	})
	if err != nil {
		return fmt.Errorf("%w: add %d chunks at offset %d: %w", ErrStore, len(chunks), offset, err)
	}
	return nil
}

// Replacer is a Collection that can swap its whole contents at once.
type Replacer interface {
	Collection
	Replace(ctx context.Context, ids, documents []string, metadatas []store.Metadata) error
}

// Replace makes chunks, under ids chunk_0.., the only records in the
// collection, which must implement Replacer. The collection applies the
// swap atomically, so on error the previous records stay in place. Later
// Appends continue after the new records.
func (idx *Index) Replace(ctx context.Context, chunks []chunker.Chunk) error {
	coll, ok := idx.coll.(Replacer)
	if !ok {
		return fmt.Errorf("replace: %T cannot replace its records", idx.coll)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	ids, docs, metas := records(chunks, 0)
	_, err := retryWithBackoff(ctx, idx.retry, func() (struct{}, error) {
		return struct{}{}, coll.Replace(ctx, ids, docs, metas)
	})
	if err != nil {
		return fmt.Errorf("%w: replace with %d chunks: %w", ErrStore, len(chunks), err)
	}
	idx.next.Store(int64(len(chunks)))
	idx.seeded = true
	return nil
}

func records(chunks []chunker.Chunk, offset int) (ids, docs []string, metas []store.Metadata) {
	ids = make([]string, len(chunks))
	docs = make([]string, len(chunks))
	metas = make([]store.Metadata, len(chunks))
	for i, c := range chunks {
		ids[i] = ChunkID(offset + i)
		docs[i] = c.Content
		metas[i] = ChunkMetadata(c)
	}
	return ids, docs, metas
}

// Append stores chunks after everything already in the collection. The
// id range is reserved atomically, so concurrent calls never collide.
func (idx *Index) Append(ctx context.Context, chunks []chunker.Chunk) (offset int, err error) {
	if len(chunks) == 0 {
		return 0, nil
	}
	if err := idx.seed(ctx); err != nil {
		return 0, err
	}

	end := idx.next.Add(int64(len(chunks)))
	offset = int(end) - len(chunks)
	return offset, idx.Add(ctx, chunks, offset)
}

// seed starts the id counter at the collection's current size.
func (idx *Index) seed(ctx context.Context) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.seeded {
		return nil
	}
	n, err := idx.coll.Count(ctx)
	if err != nil {
		return fmt.Errorf("%w: count records: %w", ErrStore, err)
	}
	idx.next.Store(int64(n))
	idx.seeded = true
	return nil
}

// Query returns up to n hits for text, closest first. No matches is an
// empty result, not an error.
func (idx *Index) Query(ctx context.Context, text string, n int) ([]Hit, error) {
	if n <= 0 {
		return []Hit{}, nil
	}

	res, err := retryWithBackoff(ctx, idx.retry, func() (*store.QueryResult, error) {
		return idx.coll.Query(ctx, []string{text}, n)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: query: %w", ErrStore, err)
	}
	if res == nil || len(res.IDs) == 0 {
		return []Hit{}, nil
	}
	if len(res.Documents) != len(res.IDs) || len(res.Metadatas) != len(res.IDs) || len(res.Distances) != len(res.IDs) {
		return nil, fmt.Errorf("%w: malformed query result", ErrStore)
	}

	docs, metas, dists := res.Documents[0], res.Metadatas[0], res.Distances[0]
	if len(docs) != len(res.IDs[0]) || len(metas) != len(docs) || len(dists) != len(docs) {
		return nil, fmt.Errorf("%w: malformed query result", ErrStore)
	}

	hits := make([]Hit, len(docs))
	for i := range docs {
		hits[i] = hitFrom(docs[i], metas[i], dists[i])
	}
	return hits, nil
}

func hitFrom(doc string, meta store.Metadata, distance float64) Hit {
	return Hit{
		Content:      doc,
		FilePath:     stringField(meta, "file_path"),
		FunctionName: stringField(meta, "function_name"),
		StartLine:    intField(meta, "start_line"),
		EndLine:      intField(meta, "end_line"),
		Language:     stringField(meta, "language"),
		ChunkType:    stringField(meta, "chunk_type"),
		Score:        distance,
	}
}

func stringField(m store.Metadata, key string) string {
	s, _ := m[key].(string)
	return s
}

func intField(m store.Metadata, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
