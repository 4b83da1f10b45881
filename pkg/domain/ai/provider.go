// Package ai defines the contract of the external scoring service.
package ai

import (
	"context"
)

// CompletionRequest is a scoring prompt sent to a provider.
type CompletionRequest struct {
	Prompt      string
	System      string
	Temperature float64
	MaxTokens   int
}

// CompletionResponse is the provider's raw answer. Text is untrusted and must
// be validated before use.
type CompletionResponse struct {
	Text  string
	Usage TokenUsage
	Model string
}

// TokenUsage reports the tokens a call consumed.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Total returns input plus output tokens.
func (u TokenUsage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// Provider is implemented by every scoring backend. Failures are returned as
// *evaluation.ScoringError.
type Provider interface {
	ID() string
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
