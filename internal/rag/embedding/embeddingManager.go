package embedding

import "context"

// Embedder converts text into fixed-length vectors. BatchEmbedding is
// order-preserving and one-to-one with its input.
type Embedder interface {
	GetEmbedding(ctx context.Context, query string) ([]float32, error)
	BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error)
}
