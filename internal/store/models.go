package store

import "context"

// Metadata holds the non-content fields of a stored record. Values are
// limited to string, int, float64 and bool.
type Metadata map[string]any

// QueryResult is the raw answer to a nearest-neighbour query. Every field
// is indexed first by query text, then by rank (best match first).
type QueryResult struct {
	IDs       [][]string
	Documents [][]string
	Metadatas [][]Metadata
	Distances [][]float64
}

// Embedder turns documents into vectors. The returned slice has the same
// length and order as the input.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}
