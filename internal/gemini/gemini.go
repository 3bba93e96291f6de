// Package gemini talks to the Gemini generateContent REST API. Handlers only
// depend on the Provider interface, so tests substitute a fake without any
// network access.
package gemini

import (
	"context"
	"fmt"
)

// Message is one turn of a chat conversation. Role is "user" or "model".
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider is the contract the content handlers depend on. Every method
// returns a *ProviderError on upstream failure.
type Provider interface {
	// Generate produces text for a free-form prompt.
	Generate(ctx context.Context, prompt string) (string, error)
	// Translate renders English technical content into the target language as HTML.
	Translate(ctx context.Context, content, targetLanguage string) (string, error)
	// Chat continues a conversation given prior turns and a new message.
	Chat(ctx context.Context, history []Message, message string) (string, error)
}

// ProviderError wraps an upstream failure. The operation and cause are for
// logs; clients only ever see a generic message.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("gemini %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
