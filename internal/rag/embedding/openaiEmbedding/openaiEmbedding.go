package openaiEmbedding

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/docchat-ai/docchat/internal/config"
	"github.com/docchat-ai/docchat/internal/domain/ragModel"
	"github.com/docchat-ai/docchat/internal/rag/embedding"
	"github.com/docchat-ai/docchat/pkg/logger_i"
)

var logger *logger_i.Logger

type client struct {
	openai openai.Client
	model  string
}

// GetOpenAIEmbeddingClient builds an embedder against the OpenAI embeddings
// API. The native batch endpoint is used, so one round trip covers a whole
// chunk batch.
func GetOpenAIEmbeddingClient(apiKey string, modelName string) embedding.Embedder {
	logger = logger_i.NewLogger("openai_embedding")
	if apiKey == "" {
		logger.Error("OpenAI API key is empty")
		return nil
	}
	logger.Info("OpenAI embedding client created", "model", modelName)
	return &client{
		openai: openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithRequestTimeout(config.ExternalCallTimeout),
		),
		model: modelName,
	}
}

func (c *client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	vectors, err := c.BatchEmbedding(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *client) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	resp, err := c.openai.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: chunks},
		Model: openai.EmbeddingModel(c.model),
	})
	if err != nil {
		logger.Error("OpenAI embeddings call failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ragModel.ErrServiceUnavailable, err)
	}
	if len(resp.Data) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d inputs", ragModel.ErrEmbeddingFailed, len(resp.Data), len(chunks))
	}

	// Responses are ordered by index, but the API documents the index field
	// as authoritative, so place each vector explicitly.
	vectors := make([][]float32, len(chunks))
	for _, item := range resp.Data {
		vec := make([]float32, len(item.Embedding))
		for i, v := range item.Embedding {
			vec[i] = float32(v)
		}
		if item.Index < 0 || int(item.Index) >= len(vectors) {
			return nil, fmt.Errorf("%w: embedding index %d out of range", ragModel.ErrEmbeddingFailed, item.Index)
		}
		vectors[item.Index] = vec
	}
	for i, vec := range vectors {
		if len(vec) == 0 {
			return nil, fmt.Errorf("%w: empty vector at index %d", ragModel.ErrEmbeddingFailed, i)
		}
	}
	return vectors, nil
}
