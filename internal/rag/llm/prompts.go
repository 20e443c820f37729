package llm

import (
	"fmt"
	"strings"
)

// SystemInstruction is shared by every chat backend so answers stay
// consistent when the backend is swapped in config.
const SystemInstruction = "Answer user inquiries based on the context and conversation history. " +
	"Focus on providing accurate and comprehensive answers that meet user needs and consider the available information. " +
	"Pay attention to details and provide a professional response that adheres to required standards. " +
	"All answers must be in English."

// BuildUserPrompt assembles the per-request prompt: recent conversation
// turns first, then the retrieved chunks, then the question. Empty history
// and empty matches render as empty sections rather than being omitted, so
// the model always sees the same shape.
func BuildUserPrompt(query string, matches []string, messageHistory []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Conversation history:\n%s\n\n", strings.Join(messageHistory, "\n"))
	fmt.Fprintf(&b, "Context:\n%s\n\n", strings.Join(matches, "\n"))
	fmt.Fprintf(&b, "Question: %s\n", query)
	b.WriteString("Answer: Please provide a comprehensive, accurate, and professional response in English:")
	return b.String()
}
