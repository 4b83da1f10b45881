package ai

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/fortify/timeout"

	"github.com/felixgeelhaar/fareview/pkg/domain/ai"
	"github.com/felixgeelhaar/fareview/pkg/domain/evaluation"
)

// ResilienceConfig configures retry and timeout behavior.
type ResilienceConfig struct {
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
}

// DefaultResilienceConfig returns the defaults used when no config is given.
func DefaultResilienceConfig() ResilienceConfig {
	return ResilienceConfig{
		MaxRetries: 2,
		RetryDelay: time.Second,
		Timeout:    300 * time.Second,
	}
}

// ResilientProvider retries transport failures and bounds each call with a
// timeout. Auth, quota and timeout failures are returned on first sight.
type ResilientProvider struct {
	inner ai.Provider
	cfg   ResilienceConfig
}

func NewResilientProvider(inner ai.Provider) *ResilientProvider {
	return NewResilientProviderWithConfig(inner, DefaultResilienceConfig())
}

func NewResilientProviderWithConfig(inner ai.Provider, cfg ResilienceConfig) *ResilientProvider {
	def := DefaultResilienceConfig()
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = def.RetryDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &ResilientProvider{inner: inner, cfg: cfg}
}

func (p *ResilientProvider) ID() string {
	return p.inner.ID()
}

// Config returns the effective configuration.
func (p *ResilientProvider) Config() ResilienceConfig {
	return p.cfg
}

func (p *ResilientProvider) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.CompletionResponse, error) {
	r := retry.New[*ai.CompletionResponse](retry.Config{
		MaxAttempts:   p.cfg.MaxRetries,
		InitialDelay:  p.cfg.RetryDelay,
		BackoffPolicy: retry.BackoffExponential,
	})
	t := timeout.New[*ai.CompletionResponse](timeout.Config{
		DefaultTimeout: p.cfg.Timeout,
	})

	// A permanent failure ends the retry loop as a nil result and is
	// reported from here instead.
	var (
		mu        sync.Mutex
		permanent error
	)
	res, err := t.Execute(ctx, p.cfg.Timeout, func(ctx context.Context) (*ai.CompletionResponse, error) {
		return r.Do(ctx, func(ctx context.Context) (*ai.CompletionResponse, error) {
			resp, err := p.inner.Complete(ctx, req)
			if err == nil {
				return resp, nil
			}
			if errors.Is(err, evaluation.ErrScoringTransport) && ctx.Err() == nil {
				return nil, err
			}
			mu.Lock()
			permanent = err
			mu.Unlock()
			return nil, nil
		})
	})

	mu.Lock()
	defer mu.Unlock()
	if permanent != nil {
		var se *evaluation.ScoringError
		if !errors.As(permanent, &se) && errors.Is(permanent, context.DeadlineExceeded) {
			return nil, evaluation.NewScoringError(evaluation.ScoringTimeout, p.inner.ID(), permanent)
		}
		return nil, permanent
	}
	if err != nil {
		var se *evaluation.ScoringError
		if errors.As(err, &se) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, evaluation.NewScoringError(evaluation.ScoringTimeout, p.inner.ID(), err)
	}
	return res, nil
}
