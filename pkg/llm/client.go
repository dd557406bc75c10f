// Package llm wraps the chat-completion provider behind a small interface
// so the orchestrator and tests never depend on a live endpoint.
package llm

import "context"

// Message is one turn of conversational context passed to the provider.
type Message struct {
	Role    string
	Content string
}

// Client generates assistant replies and escalation summaries.
type Client interface {
	// Generate produces a support reply for prompt given prior history.
	Generate(ctx context.Context, prompt string, history []Message) (string, error)
	// Summarize condenses a conversation for an escalation hand-off.
	Summarize(ctx context.Context, history []Message) (string, error)
}
