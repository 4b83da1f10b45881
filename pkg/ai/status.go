package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/felixgeelhaar/fareview/pkg/domain/evaluation"
)

const maxErrorBody = 512

// classifyStatus turns a non-2xx response into a ScoringError. The body is
// read up to a small limit so the provider's own message reaches the user.
func classifyStatus(provider string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	detail := strings.TrimSpace(string(body))
	err := fmt.Errorf("%s API returned status %s", provider, resp.Status)
	if detail != "" {
		err = fmt.Errorf("%w: %s", err, detail)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return evaluation.NewScoringError(evaluation.ScoringAuth, provider, err)
	case http.StatusTooManyRequests:
		return evaluation.NewScoringError(evaluation.ScoringQuota, provider, err)
	default:
		return evaluation.NewScoringError(evaluation.ScoringTransport, provider, err)
	}
}

// transportError wraps a failed round trip. A context deadline keeps its
// identity so callers can tell a timeout from a network failure.
func transportError(provider string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return evaluation.NewScoringError(evaluation.ScoringTimeout, provider, err)
	}
	return evaluation.NewScoringError(evaluation.ScoringTransport, provider, err)
}

// missingKey reports a provider configured without credentials.
func missingKey(provider, env string) error {
	return evaluation.NewScoringError(evaluation.ScoringAuth, provider,
		fmt.Errorf("%s API key not provided (set %s or pass --api-key)", provider, env))
}

func httpClientOrDefault(c *http.Client) *http.Client {
	if c == nil {
		return http.DefaultClient
	}
	return c
}
