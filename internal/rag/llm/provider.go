package llm

import "context"

// Provider answers a user question given retrieved context and the recent
// conversation turns.
type Provider interface {
	Generate(ctx context.Context, query string, matches []string, messageHistory []string) (string, error)
}
