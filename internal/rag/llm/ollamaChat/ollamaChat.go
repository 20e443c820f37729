// Package ollamaChat is the default chat backend, talking to a local Ollama
// server's /api/chat endpoint.
package ollamaChat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/docchat-ai/docchat/internal/config"
	"github.com/docchat-ai/docchat/internal/domain/ragModel"
	"github.com/docchat-ai/docchat/internal/rag/llm"
	"github.com/docchat-ai/docchat/pkg/logger_i"
)

var logger *logger_i.Logger

type client struct {
	httpClient *http.Client
	baseURL    string
	model      string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
}

func GetOllamaChatClient(baseURL string, modelName string) llm.Provider {
	logger = logger_i.NewLogger("ollama_chat")
	logger.Info("Ollama chat client created", "model", modelName, "baseUrl", baseURL)
	return &client{
		httpClient: &http.Client{Timeout: config.ExternalCallTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      modelName,
	}
}

func (c *client) Generate(ctx context.Context, query string, matches []string, messageHistory []string) (string, error) {
	loggr := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: llm.SystemInstruction},
			{Role: "user", Content: llm.BuildUserPrompt(query, matches, messageHistory)},
		},
		Stream: false,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		loggr.Error("Ollama chat call failed", "error", err)
		return "", fmt.Errorf("%w: %v", ragModel.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		loggr.Error("Ollama chat returned non-200", "status", resp.StatusCode)
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return "", fmt.Errorf("%w: ollama returned status %d", ragModel.ErrServiceUnavailable, resp.StatusCode)
		}
		return "", fmt.Errorf("ollama chat returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding chat response: %w", err)
	}
	return parsed.Message.Content, nil
}
