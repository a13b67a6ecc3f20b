package index

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"codescope/internal/chunker"
	"codescope/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCollection keeps records in insertion order and ranks them by that
// order, with distance 0.25 per position.
type fakeCollection struct {
	mu       sync.Mutex
	ids      []string
	docs     []string
	metas    []store.Metadata
	addCalls int
	failures int // remaining calls that fail
	err      error
}

func (f *fakeCollection) fail() error {
	if f.failures > 0 {
		f.failures--
		return f.err
	}
	return nil
}

func (f *fakeCollection) Add(_ context.Context, ids, docs []string, metas []store.Metadata) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addCalls++
	if err := f.fail(); err != nil {
		return err
	}
	seen := make(map[string]bool, len(f.ids))
	for _, id := range f.ids {
		seen[id] = true
	}
	for _, id := range ids {
		if seen[id] {
			return fmt.Errorf("duplicate id %s", id)
		}
	}
	f.ids = append(f.ids, ids...)
	f.docs = append(f.docs, docs...)
	f.metas = append(f.metas, metas...)
	return nil
}

func (f *fakeCollection) Query(_ context.Context, texts []string, n int) (*store.QueryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return nil, err
	}
	res := &store.QueryResult{
		IDs:       make([][]string, len(texts)),
		Documents: make([][]string, len(texts)),
		Metadatas: make([][]store.Metadata, len(texts)),
		Distances: make([][]float64, len(texts)),
	}
	for qi := range texts {
		for i := 0; i < len(f.ids) && i < n; i++ {
			res.IDs[qi] = append(res.IDs[qi], f.ids[i])
			res.Documents[qi] = append(res.Documents[qi], f.docs[i])
			res.Metadatas[qi] = append(res.Metadatas[qi], f.metas[i])
			res.Distances[qi] = append(res.Distances[qi], 0.25*float64(i))
		}
	}
	return res, nil
}

func (f *fakeCollection) Count(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ids), nil
}

func sampleChunks(n int) []chunker.Chunk {
	chunks := make([]chunker.Chunk, n)
	for i := range chunks {
		chunks[i] = chunker.Chunk{
			Content:      fmt.Sprintf("func F%d() int {\n\treturn %d\n}", i, i),
			FilePath:     "pkg/f.go",
			FunctionName: fmt.Sprintf("F%d", i),
			StartLine:    i*4 + 1,
			EndLine:      i*4 + 3,
			Language:     "go",
			ChunkType:    "function",
		}
	}
	return chunks
}

func TestAdd_EmptyIsNoop(t *testing.T) {
	coll := &fakeCollection{}
	require.NoError(t, New(coll).Add(context.Background(), nil, 0))
	assert.Zero(t, coll.addCalls)
}

func TestAdd_AssignsOffsetIDs(t *testing.T) {
	ctx := context.Background()
	coll := &fakeCollection{}
	idx := New(coll)

	require.NoError(t, idx.Add(ctx, sampleChunks(3), 0))
	require.NoError(t, idx.Add(ctx, sampleChunks(2), 3))

	assert.Equal(t, []string{"chunk_0", "chunk_1", "chunk_2", "chunk_3", "chunk_4"}, coll.ids)
	assert.Equal(t, sampleChunks(3)[1].Content, coll.docs[1])
	assert.Equal(t, store.Metadata{
		"file_path":     "pkg/f.go",
		"function_name": "F1",
		"start_line":    5,
		"end_line":      7,
		"language":      "go",
		"chunk_type":    "function",
	}, coll.metas[1])
}

func TestAdd_StaleOffsetCollides(t *testing.T) {
	ctx := context.Background()
	idx := New(&fakeCollection{})

	require.NoError(t, idx.Add(ctx, sampleChunks(2), 0))
	err := idx.Add(ctx, sampleChunks(2), 0)
	assert.ErrorIs(t, err, ErrStore)
}

func TestAppend_ContinuesAfterExistingRecords(t *testing.T) {
	ctx := context.Background()
	coll := &fakeCollection{}
	require.NoError(t, New(coll).Add(ctx, sampleChunks(2), 0))

	idx := New(coll)
	offset, err := idx.Append(ctx, sampleChunks(3))
	require.NoError(t, err)
	assert.Equal(t, 2, offset)

	offset, err = idx.Append(ctx, sampleChunks(1))
	require.NoError(t, err)
	assert.Equal(t, 5, offset)
	assert.Equal(t, "chunk_5", coll.ids[5])
}

func TestAppend_ConcurrentCallsNeverCollide(t *testing.T) {
	ctx := context.Background()
	coll := &fakeCollection{}
	idx := New(coll)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := idx.Append(ctx, sampleChunks(5))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, coll.ids, 40)
	seen := make(map[string]bool)
	for _, id := range coll.ids {
		assert.False(t, seen[id], id)
		seen[id] = true
	}
	for i := range 40 {
		assert.True(t, seen[ChunkID(i)], ChunkID(i))
	}
}

func TestReplace_SwapsRecords(t *testing.T) {
	ctx := context.Background()
	s := &fakeStore{}
	idx := New(s)
	require.NoError(t, idx.Add(ctx, sampleChunks(3), 0))

	require.NoError(t, idx.Replace(ctx, sampleChunks(2)))
	assert.Equal(t, []string{"chunk_0", "chunk_1"}, s.ids)

	offset, err := idx.Append(ctx, sampleChunks(1))
	require.NoError(t, err)
	assert.Equal(t, 2, offset)
}

func TestReplace_FailureKeepsRecords(t *testing.T) {
	ctx := context.Background()
	s := &fakeStore{}
	idx := New(s)
	require.NoError(t, idx.Add(ctx, sampleChunks(3), 0))

	s.failures, s.err = 1, assert.AnError
	err := idx.Replace(ctx, sampleChunks(1))
	assert.ErrorIs(t, err, ErrStore)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Len(t, s.ids, 3)
}

func TestReplace_RequiresReplacer(t *testing.T) {
	err := New(&fakeCollection{}).Replace(context.Background(), sampleChunks(1))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrStore)
}

// shortResultCollection returns an id group without matching document,
// metadata or distance groups.
type shortResultCollection struct{ fakeCollection }

func (c *shortResultCollection) Query(context.Context, []string, int) (*store.QueryResult, error) {
	return &store.QueryResult{IDs: [][]string{{"chunk_0"}}}, nil
}

func TestQuery_MalformedResult(t *testing.T) {
	hits, err := New(&shortResultCollection{}).Query(context.Background(), "x", 3)
	assert.ErrorIs(t, err, ErrStore)
	assert.Nil(t, hits)
}

func TestQuery_RankedHits(t *testing.T) {
	ctx := context.Background()
	idx := New(&fakeCollection{})
	chunks := sampleChunks(2)
	require.NoError(t, idx.Add(ctx, chunks, 0))

	hits, err := idx.Query(ctx, "x", 3)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, Hit{
		Content:      chunks[0].Content,
		FilePath:     "pkg/f.go",
		FunctionName: "F0",
		StartLine:    1,
		EndLine:      3,
		Language:     "go",
		ChunkType:    "function",
		Score:        0,
	}, hits[0])
	assert.Less(t, hits[0].Score, hits[1].Score)
}

func TestQuery_Empty(t *testing.T) {
	idx := New(&fakeCollection{})

	hits, err := idx.Query(context.Background(), "x", 3)
	require.NoError(t, err)
	assert.NotNil(t, hits)
	assert.Empty(t, hits)

	hits, err = idx.Query(context.Background(), "x", 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestStoreFailure(t *testing.T) {
	boom := errors.New("quota exceeded")
	coll := &fakeCollection{failures: 2, err: boom}
	idx := New(coll)

	err := idx.Add(context.Background(), sampleChunks(1), 0)
	assert.ErrorIs(t, err, ErrStore)
	assert.ErrorIs(t, err, boom)

	_, err = idx.Query(context.Background(), "x", 3)
	assert.ErrorIs(t, err, ErrStore)
	assert.ErrorIs(t, err, boom)
}

func TestWithRetry(t *testing.T) {
	coll := &fakeCollection{failures: 2, err: errors.New("connection reset")}
	idx := New(coll, WithRetry(RetryConfig{
		MaxRetries: 3,
		BaseDelay:  time.Millisecond,
		MaxDelay:   2 * time.Millisecond,
		Multiplier: 2,
	}))

	require.NoError(t, idx.Add(context.Background(), sampleChunks(1), 0))
	assert.Equal(t, 3, coll.addCalls)
}

func TestRetryWithBackoff_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := retryWithBackoff(ctx, RetryConfig{MaxRetries: 5, BaseDelay: time.Hour}, func() (int, error) {
		calls++
		cancel()
		return 0, errors.New("transient")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
