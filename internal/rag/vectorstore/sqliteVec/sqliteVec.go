// Package sqliteVec is the default vector store backend: chunks and their
// embeddings in a single SQLite database, brute-force cosine search. The
// store owns its directory exclusively; a lock file keeps a second process
// from opening the same path for writing.
package sqliteVec

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/docchat-ai/docchat/internal/domain/ragModel"
	"github.com/docchat-ai/docchat/internal/rag/vectorstore"
	"github.com/docchat-ai/docchat/pkg/logger_i"
)

const (
	metaKeyDimension = "dimension"
	metaKeyModel     = "embedding_model"
	lockFileName     = ".lock"
)

type store struct {
	db       *sql.DB
	lockPath string
	model    string
	logger   *logger_i.Logger

	// writeMu serializes Add and Clear; readers go through SQLite's WAL
	// snapshot and never see a half-written document.
	writeMu sync.Mutex
}

// Open creates or reopens the store under dir. embeddingModel and dimension
// identify the configured embedding model; if the store on disk was written
// with a different one, Open fails with ErrDimensionMismatch up front instead
// of failing unpredictably at search time.
func Open(dir string, embeddingModel string, dimension int) (vectorstore.Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("%w: creating store directory: %v", ragModel.ErrStorageIO, err)
	}

	lockPath := filepath.Join(dir, lockFileName)
	if err := acquireLock(lockPath); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "vectors.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		releaseLock(lockPath)
		return nil, fmt.Errorf("%w: opening %s: %v", ragModel.ErrStorageIO, dbPath, err)
	}

	s := &store{
		db:       db,
		lockPath: lockPath,
		model:    embeddingModel,
		logger:   logger_i.NewLogger("sqlite_vectorstore"),
	}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		releaseLock(lockPath)
		return nil, err
	}
	if err := s.checkStoredModel(embeddingModel, dimension); err != nil {
		db.Close()
		releaseLock(lockPath)
		return nil, err
	}
	s.logger.Info("Vector store opened", "path", dbPath, "model", embeddingModel)
	return s, nil
}

func acquireLock(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%w: store is locked by another process (remove %s if stale)", ragModel.ErrStorageIO, path)
		}
		return fmt.Errorf("%w: acquiring lock: %v", ragModel.ErrStorageIO, err)
	}
	fmt.Fprintf(f, "%d\n", os.Getpid())
	return f.Close()
}

func releaseLock(path string) {
	_ = os.Remove(path)
}

func (s *store) ensureSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS chunks (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	chunk_id     TEXT NOT NULL,
	doc_id       TEXT NOT NULL,
	doc_name     TEXT NOT NULL,
	content      TEXT NOT NULL,
	page_num     INTEGER NOT NULL,
	ordinal      INTEGER NOT NULL,
	start_offset INTEGER NOT NULL,
	end_offset   INTEGER NOT NULL,
	ingested_at  INTEGER NOT NULL,
	embedding    BLOB NOT NULL
);`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("%w: creating schema: %v", ragModel.ErrStorageIO, err)
	}
	return nil
}

// checkStoredModel compares the configured model identity against what the
// store was written with. An empty store passes and adopts the configured
// identity on the first Add.
func (s *store) checkStoredModel(model string, dimension int) error {
	storedDim, storedModel, err := s.readMeta()
	if err != nil {
		return err
	}
	if storedDim == 0 {
		return nil
	}
	if storedModel != model {
		return fmt.Errorf("%w: store was written with model %q, configured model is %q", ragModel.ErrDimensionMismatch, storedModel, model)
	}
	if dimension > 0 && storedDim != dimension {
		return fmt.Errorf("%w: store dimensionality is %d, configured model yields %d", ragModel.ErrDimensionMismatch, storedDim, dimension)
	}
	return nil
}

func (s *store) readMeta() (dimension int, model string, err error) {
	rows, err := s.db.Query(`SELECT key, value FROM meta`)
	if err != nil {
		return 0, "", fmt.Errorf("%w: reading meta: %v", ragModel.ErrStorageIO, err)
	}
	defer rows.Close()
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return 0, "", fmt.Errorf("%w: scanning meta: %v", ragModel.ErrStorageIO, err)
		}
		switch k {
		case metaKeyDimension:
			dimension, _ = strconv.Atoi(v)
		case metaKeyModel:
			model = v
		}
	}
	return dimension, model, rows.Err()
}

func (s *store) Add(ctx context.Context, chunks []ragModel.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("mismatch: got %d chunks but %d vectors", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	storedDim, _, err := s.readMeta()
	if err != nil {
		return err
	}
	// The first non-empty Add establishes the dimensionality for the
	// lifetime of the store.
	dim := storedDim
	if dim == 0 {
		dim = len(vectors[0])
	}
	for i, vec := range vectors {
		if len(vec) != dim {
			return fmt.Errorf("%w: vector %d has length %d, store dimensionality is %d", ragModel.ErrDimensionMismatch, i, len(vec), dim)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin tx: %v", ragModel.ErrStorageIO, err)
	}
	defer func() { _ = tx.Rollback() }()

	if storedDim == 0 {
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO meta(key, value) VALUES (?, ?), (?, ?)`,
			metaKeyDimension, strconv.Itoa(dim), metaKeyModel, s.model); err != nil {
			return fmt.Errorf("%w: writing meta: %v", ragModel.ErrStorageIO, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO chunks
		(chunk_id, doc_id, doc_name, content, page_num, ordinal, start_offset, end_offset, ingested_at, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: prepare insert: %v", ragModel.ErrStorageIO, err)
	}
	defer stmt.Close()

	for i, chunk := range chunks {
		_, err := stmt.ExecContext(ctx,
			chunk.ChunkId, chunk.Doc.Id, chunk.Doc.Name, chunk.Content,
			chunk.PageNum, chunk.Ordinal, chunk.StartOffset, chunk.EndOffset,
			chunk.Doc.IngestedAt.Unix(), encodeVector(vectors[i]))
		if err != nil {
			return fmt.Errorf("%w: inserting chunk %d: %v", ragModel.ErrStorageIO, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ragModel.ErrStorageIO, err)
	}
	s.logger.Debug("Stored chunks", "count", len(chunks))
	return nil
}

func (s *store) Search(ctx context.Context, queryVector []float32, topK int) (ragModel.RetrievalResult, error) {
	if topK < 1 {
		return ragModel.RetrievalResult{}, fmt.Errorf("topK must be >= 1, got %d", topK)
	}

	storedDim, _, err := s.readMeta()
	if err != nil {
		return ragModel.RetrievalResult{}, err
	}
	if storedDim == 0 {
		return ragModel.RetrievalResult{}, nil
	}
	if len(queryVector) != storedDim {
		return ragModel.RetrievalResult{}, fmt.Errorf("%w: query vector has length %d, store dimensionality is %d", ragModel.ErrDimensionMismatch, len(queryVector), storedDim)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT chunk_id, doc_id, doc_name, content,
		page_num, ordinal, start_offset, end_offset, ingested_at, embedding
		FROM chunks ORDER BY id`)
	if err != nil {
		return ragModel.RetrievalResult{}, fmt.Errorf("%w: querying chunks: %v", ragModel.ErrStorageIO, err)
	}
	defer rows.Close()

	var scored []ragModel.ScoredChunk
	for rows.Next() {
		var c ragModel.Chunk
		var ingestedAt int64
		var blob []byte
		if err := rows.Scan(&c.ChunkId, &c.Doc.Id, &c.Doc.Name, &c.Content,
			&c.PageNum, &c.Ordinal, &c.StartOffset, &c.EndOffset, &ingestedAt, &blob); err != nil {
			return ragModel.RetrievalResult{}, fmt.Errorf("%w: scanning chunk: %v", ragModel.ErrStorageIO, err)
		}
		c.Doc.IngestedAt = time.Unix(ingestedAt, 0)

		vec, err := decodeVector(blob)
		if err != nil {
			return ragModel.RetrievalResult{}, fmt.Errorf("%w: %v", ragModel.ErrStorageIO, err)
		}
		scored = append(scored, ragModel.ScoredChunk{
			Chunk: c,
			Score: cosineSimilarity(queryVector, vec),
		})
	}
	if err := rows.Err(); err != nil {
		return ragModel.RetrievalResult{}, fmt.Errorf("%w: %v", ragModel.ErrStorageIO, err)
	}

	// Rows arrive in insertion order; the stable sort keeps that order for
	// equal scores, which is the documented tie-break.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if topK < len(scored) {
		scored = scored[:topK]
	}
	return ragModel.RetrievalResult{Matches: scored}, nil
}

func (s *store) Clear(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin tx: %v", ragModel.ErrStorageIO, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return fmt.Errorf("%w: clearing chunks: %v", ragModel.ErrStorageIO, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM meta`); err != nil {
		return fmt.Errorf("%w: clearing meta: %v", ragModel.ErrStorageIO, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ragModel.ErrStorageIO, err)
	}
	s.logger.Info("Vector store cleared")
	return nil
}

func (s *store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: counting chunks: %v", ragModel.ErrStorageIO, err)
	}
	return n, nil
}

func (s *store) Close() error {
	err := s.db.Close()
	releaseLock(s.lockPath)
	return err
}
