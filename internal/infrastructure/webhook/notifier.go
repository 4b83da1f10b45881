// Package webhook delivers signed analysis notifications to configured
// endpoints.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/fareview/pkg/application"
	"github.com/felixgeelhaar/fareview/pkg/domain/events"
)

// SignatureHeader carries the HMAC-SHA256 of the request body.
const SignatureHeader = "X-Fareview-Signature"

const (
	defaultMaxRetries = 3
	defaultRetryDelay = time.Second
)

// Notifier sends analysis events to every matching endpoint.
type Notifier struct {
	endpoints  []events.WebhookEndpoint
	client     *http.Client
	deadLetter *DeadLetterStore
	logger     *slog.Logger
}

var _ application.Notifier = (*Notifier)(nil)

// NewNotifier creates a notifier with the given endpoints and dead letter store.
func NewNotifier(endpoints []events.WebhookEndpoint, deadLetter *DeadLetterStore) *Notifier {
	return &Notifier{
		endpoints: endpoints,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		deadLetter: deadLetter,
		logger:     slog.Default(),
	}
}

// WithLogger sets the logger used for delivery failures.
func (n *Notifier) WithLogger(l *slog.Logger) *Notifier {
	if l != nil {
		n.logger = l
	}
	return n
}

// Payload is the JSON body sent to webhook endpoints.
type Payload struct {
	EventType string                    `json:"event_type"`
	Timestamp time.Time                 `json:"timestamp"`
	Data      application.AnalysisEvent `json:"data"`
}

// Notify delivers the event to all matching endpoints in parallel and waits
// for them. Endpoints that exhaust their retries are dead-lettered and
// reported in the returned error.
func (n *Notifier) Notify(ctx context.Context, event application.AnalysisEvent) error {
	jsonBody, err := json.Marshal(Payload{
		EventType: event.Type,
		Timestamp: event.Timestamp,
		Data:      event,
	})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	var g errgroup.Group
	errs := make([]error, len(n.endpoints))
	for i, ep := range n.endpoints {
		if !ep.Accepts(event.Type) {
			continue
		}
		body := jsonBody
		if ep.Format == events.FormatSlack {
			if body, err = slackPayload(event); err != nil {
				return err
			}
		}
		g.Go(func() error {
			errs[i] = n.deliver(ctx, ep, event, body)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

func (n *Notifier) deliver(ctx context.Context, ep events.WebhookEndpoint, event application.AnalysisEvent, body []byte) error {
	maxRetries := ep.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	retryDelay := ep.RetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}

	var lastErr error
	attempts := 0
retry:
	for attempts < maxRetries {
		attempts++
		if lastErr = n.send(ctx, ep, body); lastErr == nil {
			return nil
		}
		if attempts == maxRetries {
			break
		}
		select {
		case <-time.After(retryDelay * time.Duration(attempts)): // linear backoff
		case <-ctx.Done():
			lastErr = errors.Join(lastErr, ctx.Err())
			break retry
		}
	}

	if n.deadLetter != nil {
		dl := events.DeadLetter{
			Timestamp:   time.Now().UTC(),
			WebhookName: ep.Name,
			URL:         ep.URL,
			EventType:   event.Type,
			RunID:       event.RunID,
			Payload:     string(body),
			Error:       lastErr.Error(),
			Attempts:    attempts,
		}
		if err := n.deadLetter.Append(dl); err != nil {
			n.logger.Warn("failed to write dead letter", "webhook", ep.Name, "error", err)
		}
	}
	return fmt.Errorf("webhook %s: %w", ep.Name, lastErr)
}

func (n *Notifier) send(ctx context.Context, ep events.WebhookEndpoint, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Fareview-Webhook/1.0")

	if ep.Secret != "" {
		req.Header.Set(SignatureHeader, Sign(body, ep.Secret))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}

// Sign computes the signature header value for a payload.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
