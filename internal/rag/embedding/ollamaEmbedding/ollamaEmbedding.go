package ollamaEmbedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/docchat-ai/docchat/internal/config"
	"github.com/docchat-ai/docchat/internal/domain/ragModel"
	"github.com/docchat-ai/docchat/internal/rag/embedding"
	"github.com/docchat-ai/docchat/pkg/logger_i"
)

var logger *logger_i.Logger

type client struct {
	httpClient *http.Client
	baseURL    string
	model      string
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// GetOllamaEmbeddingClient builds an embedder against a local Ollama server.
// Every request runs under config.ExternalCallTimeout.
func GetOllamaEmbeddingClient(baseURL string, modelName string) embedding.Embedder {
	logger = logger_i.NewLogger("ollama_embedding")
	logger.Info("Ollama embedding client created", "model", modelName)
	return &client{
		httpClient: &http.Client{Timeout: config.ExternalCallTimeout},
		baseURL:    baseURL,
		model:      modelName,
	}
}

func (c *client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	vec, err := c.embedWithRetry(ctx, query)
	if err != nil {
		logger.Error("Error getting embedding from Ollama", "error", err)
		return nil, err
	}
	return vec, nil
}

func (c *client) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	// Ollama has no batch endpoint, so chunks are embedded one by one. A
	// single failure fails the whole batch; the caller owns atomicity.
	vectors := make([][]float32, 0, len(chunks))
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ragModel.ErrServiceUnavailable, err)
		}
		vec, err := c.embedWithRetry(ctx, chunk)
		if err != nil {
			logger.Error("Batch embedding failed", "chunk", i, "error", err)
			return nil, fmt.Errorf("embedding chunk %d: %w", i, err)
		}
		vectors = append(vectors, vec)
	}
	return vectors, nil
}

// embedWithRetry retries transport failures a bounded number of times with
// backoff. Malformed responses are surfaced immediately.
func (c *client) embedWithRetry(ctx context.Context, text string) ([]float32, error) {
	var lastErr error
	for attempt := 0; attempt <= config.EmbeddingMaxRetries; attempt++ {
		if attempt > 0 {
			logger.Debug("Retrying embedding call", "attempt", attempt)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ragModel.ErrServiceUnavailable, ctx.Err())
			case <-time.After(config.EmbeddingRetryBackoff * time.Duration(attempt)):
			}
		}

		vec, err := c.doCall(ctx, text)
		if err == nil {
			return vec, nil
		}
		if errors.Is(err, ragModel.ErrEmbeddingFailed) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (c *client) doCall(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Model: c.model, Prompt: text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ragModel.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: status %d: %s", ragModel.ErrServiceUnavailable, resp.StatusCode, raw)
		}
		return nil, fmt.Errorf("%w: status %d: %s", ragModel.ErrEmbeddingFailed, resp.StatusCode, raw)
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ragModel.ErrEmbeddingFailed, err)
	}
	if len(parsed.Embedding) == 0 {
		return nil, fmt.Errorf("%w: empty vector", ragModel.ErrEmbeddingFailed)
	}
	return parsed.Embedding, nil
}
