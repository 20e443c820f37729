package vectorstore

import (
	"context"

	"github.com/docchat-ai/docchat/internal/domain/ragModel"
)

// Store persists (chunk, embedding) tuples and answers nearest-neighbor
// queries. All vectors in one store share a single dimensionality, fixed by
// the first non-empty Add for the lifetime of the store.
type Store interface {
	// Add stores chunks with their embeddings all-or-nothing. A vector whose
	// length differs from the store's dimensionality fails the whole call
	// with ragModel.ErrDimensionMismatch and writes nothing.
	Add(ctx context.Context, chunks []ragModel.Chunk, vectors [][]float32) error

	// Search returns up to topK chunks ordered by descending cosine
	// similarity, ties broken by insertion order. An empty store yields an
	// empty result, never an error.
	Search(ctx context.Context, queryVector []float32, topK int) (ragModel.RetrievalResult, error)

	// Clear removes all stored chunks and resets the dimensionality.
	// Idempotent; the documented recovery path after a model change.
	Clear(ctx context.Context) error

	Count(ctx context.Context) (int, error)
	Close() error
}
