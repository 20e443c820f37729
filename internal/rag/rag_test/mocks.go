package rag_test

import (
	"context"

	"github.com/docchat-ai/docchat/internal/domain/ragModel"
)

// MockStore implements vectorstore.Store
type MockStore struct {
	OnAdd    func(ctx context.Context, chunks []ragModel.Chunk, vectors [][]float32) error
	OnSearch func(ctx context.Context, queryVector []float32, topK int) (ragModel.RetrievalResult, error)
	OnClear  func(ctx context.Context) error
}

func (m *MockStore) Add(ctx context.Context, chunks []ragModel.Chunk, vectors [][]float32) error {
	if m.OnAdd != nil {
		return m.OnAdd(ctx, chunks, vectors)
	}
	return nil
}

func (m *MockStore) Search(ctx context.Context, v []float32, topK int) (ragModel.RetrievalResult, error) {
	if m.OnSearch != nil {
		return m.OnSearch(ctx, v, topK)
	}
	return ragModel.RetrievalResult{
		Matches: []ragModel.ScoredChunk{
			{Chunk: ragModel.Chunk{Content: "default context", Doc: ragModel.Document{Name: "doc.pdf"}, PageNum: 1}, Score: 0.9},
		},
	}, nil
}

func (m *MockStore) Clear(ctx context.Context) error {
	if m.OnClear != nil {
		return m.OnClear(ctx)
	}
	return nil
}

func (m *MockStore) Count(ctx context.Context) (int, error) { return 0, nil }
func (m *MockStore) Close() error                           { return nil }

type MockEmbedder struct {
	OnGetEmbedding   func(ctx context.Context, text string) ([]float32, error)
	OnBatchEmbedding func(ctx context.Context, chunks []string) ([][]float32, error)
}

func (m *MockEmbedder) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	if m.OnBatchEmbedding != nil {
		return m.OnBatchEmbedding(ctx, chunks)
	}
	vectors := make([][]float32, len(chunks))
	for i := range vectors {
		vectors[i] = []float32{0.1, 0.2}
	}
	return vectors, nil
}

func (m *MockEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	if m.OnGetEmbedding != nil {
		return m.OnGetEmbedding(ctx, query)
	}
	return []float32{0.1, 0.2}, nil
}

// MockLLM implements llm.Provider
type MockLLM struct {
	OnGenerate func(ctx context.Context, query string, matches []string, history []string) (string, error)
}

func (m *MockLLM) Generate(ctx context.Context, q string, mth []string, hist []string) (string, error) {
	if m.OnGenerate != nil {
		return m.OnGenerate(ctx, q, mth, hist)
	}
	return "mocked llm response", nil
}
