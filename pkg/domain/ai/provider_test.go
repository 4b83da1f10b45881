package ai

import (
	"context"
	"testing"
)

type stubProvider struct {
	text string
}

func (s *stubProvider) ID() string { return "stub" }
func (s *stubProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &CompletionResponse{
		Text:  s.text,
		Model: "stub-model",
		Usage: TokenUsage{InputTokens: len(req.Prompt) / 4, OutputTokens: len(s.text) / 4},
	}, nil
}

func TestProvider_Contract(t *testing.T) {
	var p Provider = &stubProvider{text: `{"totalScore": 80}`}

	resp, err := p.Complete(context.Background(), CompletionRequest{Prompt: "score this report", MaxTokens: 4000})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Text != `{"totalScore": 80}` {
		t.Errorf("Text = %q", resp.Text)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Complete(ctx, CompletionRequest{Prompt: "x"}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestTokenUsage_Total(t *testing.T) {
	usage := TokenUsage{InputTokens: 100, OutputTokens: 200}
	if usage.Total() != 300 {
		t.Errorf("Total() = %d, want 300", usage.Total())
	}
}
