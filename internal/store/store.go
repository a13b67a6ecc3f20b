package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	sqlite_vec.Auto()
}

const (
	// DefaultDimensions matches nomic-embed-text.
	DefaultDimensions = 768
	defaultBatchSize  = 32
	// maxK is the largest k sqlite-vec accepts in a KNN query.
	maxK = 4096

	metaDimensions     = "dimensions"
	metaEmbeddingModel = "embedding_model"
)

// Options configures a SQLiteStore.
type Options struct {
	Embedder   Embedder
	Dimensions int
	// BatchSize caps how many documents are sent to the embedder at once.
	BatchSize int
}

// SQLiteStore is a document collection backed by SQLite + sqlite-vec. It
// embeds documents on insert and ranks them by L2 distance on query, so a
// lower distance means a closer match.
type SQLiteStore struct {
	db        *sql.DB
	emb       Embedder
	batchSize int
}

// Open creates or opens a SQLite database at the given path and initializes the schema.
func Open(ctx context.Context, dbPath string, opts Options) (*SQLiteStore, error) {
	if opts.Embedder == nil {
		return nil, errors.New("open store: embedder is required")
	}
	if opts.Dimensions <= 0 {
		opts.Dimensions = DefaultDimensions
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := Init(ctx, db, opts.Dimensions); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	s := &SQLiteStore{db: db, emb: opts.Embedder, batchSize: opts.BatchSize}
	if err := s.checkDimensions(ctx, opts.Dimensions); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// checkDimensions pins the vector width on first open and refuses to reuse
// a database built for a different width.
func (s *SQLiteStore) checkDimensions(ctx context.Context, dims int) error {
	stored, err := s.GetMeta(ctx, metaDimensions)
	if err != nil {
		return fmt.Errorf("get meta: %w", err)
	}
	if stored == "" {
		return s.SetMeta(ctx, metaDimensions, strconv.Itoa(dims))
	}
	if stored != strconv.Itoa(dims) {
		return fmt.Errorf("index was built with %s dimensions, configured for %d", stored, dims)
	}
	return nil
}

// Add embeds the documents and stores them with their ids and metadata in
// a single transaction. Ids must be unique across the collection.
func (s *SQLiteStore) Add(ctx context.Context, ids, documents []string, metadatas []Metadata) error {
	if err := checkLengths(ids, documents, metadatas); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	embeddings, err := s.embed(ctx, documents)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insert(ctx, tx, ids, documents, metadatas, embeddings); err != nil {
		return err
	}
	return tx.Commit()
}

// Replace swaps the whole collection for the given records. Documents are
// embedded before anything is deleted, and the delete and insert share one
// transaction, so on error the previous records are left untouched. With
// no records it empties the collection. Meta entries are kept.
func (s *SQLiteStore) Replace(ctx context.Context, ids, documents []string, metadatas []Metadata) error {
	if err := checkLengths(ids, documents, metadatas); err != nil {
		return err
	}

	embeddings, err := s.embed(ctx, documents)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM vec_records"); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM records"); err != nil {
		return err
	}
	if err := insert(ctx, tx, ids, documents, metadatas, embeddings); err != nil {
		return err
	}
	return tx.Commit()
}

func checkLengths(ids, documents []string, metadatas []Metadata) error {
	if len(ids) != len(documents) || len(ids) != len(metadatas) {
		return fmt.Errorf("mismatched ids (%d), documents (%d) and metadatas (%d)", len(ids), len(documents), len(metadatas))
	}
	return nil
}

func insert(ctx context.Context, tx *sql.Tx, ids, documents []string, metadatas []Metadata, embeddings [][]float32) error {
	recStmt, err := tx.PrepareContext(ctx, "INSERT INTO records (id, document, metadata) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer recStmt.Close()

	vecStmt, err := tx.PrepareContext(ctx, "INSERT INTO vec_records (record_seq, embedding) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer vecStmt.Close()

	for i, id := range ids {
		meta := []byte("{}")
		if len(metadatas[i]) > 0 {
			if meta, err = json.Marshal(metadatas[i]); err != nil {
				return fmt.Errorf("marshal metadata for %s: %w", id, err)
			}
		}
		res, err := recStmt.ExecContext(ctx, id, documents[i], string(meta))
		if err != nil {
			return fmt.Errorf("insert record %s: %w", id, err)
		}
		seq, err := res.LastInsertId()
		if err != nil {
			return err
		}
		blob, err := sqlite_vec.SerializeFloat32(embeddings[i])
		if err != nil {
			return fmt.Errorf("serialize embedding for %s: %w", id, err)
		}
		if _, err := vecStmt.ExecContext(ctx, seq, blob); err != nil {
			return fmt.Errorf("insert embedding for %s: %w", id, err)
		}
	}
	return nil
}

func (s *SQLiteStore) embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += s.batchSize {
		end := min(i+s.batchSize, len(texts))
		embs, err := s.emb.Embed(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("embed documents: %w", err)
		}
		if len(embs) != end-i {
			return nil, fmt.Errorf("expected %d embeddings, got %d", end-i, len(embs))
		}
		out = append(out, embs...)
	}
	return out, nil
}

// Query returns up to n nearest records for each text, closest first.
func (s *SQLiteStore) Query(ctx context.Context, texts []string, n int) (*QueryResult, error) {
	res := &QueryResult{
		IDs:       make([][]string, len(texts)),
		Documents: make([][]string, len(texts)),
		Metadatas: make([][]Metadata, len(texts)),
		Distances: make([][]float64, len(texts)),
	}
	if len(texts) == 0 || n <= 0 {
		return res, nil
	}

	n = min(n, maxK)

	vecs, err := s.embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	for qi, vec := range vecs {
		if err := s.knn(ctx, vec, n, res, qi); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (s *SQLiteStore) knn(ctx context.Context, vec []float32, n int, res *QueryResult, qi int) error {
	blob, err := sqlite_vec.SerializeFloat32(vec)
	if err != nil {
		return fmt.Errorf("serialize query embedding: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, `
		WITH knn AS (
			SELECT record_seq, distance
			FROM vec_records
			WHERE embedding MATCH ? AND k = ?
		)
		SELECT r.id, r.document, r.metadata, knn.distance
		FROM knn
		JOIN records r ON r.seq = knn.record_seq
		ORDER BY knn.distance
	`, blob, n)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, doc, rawMeta string
			distance         float64
		)
		if err := rows.Scan(&id, &doc, &rawMeta, &distance); err != nil {
			return err
		}
		meta, err := decodeMetadata(rawMeta)
		if err != nil {
			return fmt.Errorf("decode metadata for %s: %w", id, err)
		}
		res.IDs[qi] = append(res.IDs[qi], id)
		res.Documents[qi] = append(res.Documents[qi], doc)
		res.Metadatas[qi] = append(res.Metadatas[qi], meta)
		res.Distances[qi] = append(res.Distances[qi], distance)
	}
	return rows.Err()
}

// decodeMetadata restores integers as int rather than float64.
func decodeMetadata(raw string) (Metadata, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var m Metadata
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	for k, v := range m {
		num, ok := v.(json.Number)
		if !ok {
			continue
		}
		if i, err := num.Int64(); err == nil {
			m[k] = int(i)
		} else if f, err := num.Float64(); err == nil {
			m[k] = f
		}
	}
	return m, nil
}

// Count returns the number of stored records.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&n)
	return n, err
}

// EmbeddingModel returns the model recorded by the last indexing run.
func (s *SQLiteStore) EmbeddingModel(ctx context.Context) (string, error) {
	return s.GetMeta(ctx, metaEmbeddingModel)
}

// SetEmbeddingModel records the model used to embed the stored records.
func (s *SQLiteStore) SetEmbeddingModel(ctx context.Context, model string) error {
	return s.SetMeta(ctx, metaEmbeddingModel, model)
}

// GetMeta returns a metadata value by key, or "" if not set.
func (s *SQLiteStore) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// SetMeta sets a metadata key-value pair.
func (s *SQLiteStore) SetMeta(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
