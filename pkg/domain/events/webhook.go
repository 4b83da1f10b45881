// Package events holds the outgoing notification configuration shared by the
// webhook notifier and the config loader.
package events

import "time"

// WebhookConfig defines configuration for outgoing webhook notifications.
type WebhookConfig struct {
	Webhooks []WebhookEndpoint `yaml:"webhooks" json:"webhooks"`
}

// WebhookEndpoint configures a single outgoing webhook.
type WebhookEndpoint struct {
	Name         string        `yaml:"name" json:"name"`
	URL          string        `yaml:"url" json:"url"`
	Secret       string        `yaml:"secret,omitempty" json:"secret,omitempty"`
	EventFilters []string      `yaml:"events,omitempty" json:"events,omitempty"` // empty = all events
	MaxRetries   int           `yaml:"max_retries,omitempty" json:"max_retries,omitempty"`
	RetryDelay   time.Duration `yaml:"retry_delay,omitempty" json:"retry_delay,omitempty"`
	Enabled      bool          `yaml:"enabled" json:"enabled"`
	// Format is FormatJSON (the default) or FormatSlack.
	Format string `yaml:"format,omitempty" json:"format,omitempty"`
}

// Endpoint body formats.
const (
	FormatJSON  = "json"
	FormatSlack = "slack"
)

// Accepts reports whether the endpoint wants events of the given type.
func (e WebhookEndpoint) Accepts(eventType string) bool {
	if !e.Enabled {
		return false
	}
	if len(e.EventFilters) == 0 {
		return true
	}
	for _, f := range e.EventFilters {
		if f == eventType {
			return true
		}
	}
	return false
}

// DeadLetter records a webhook delivery that exhausted its retries.
type DeadLetter struct {
	Timestamp   time.Time `json:"timestamp"`
	WebhookName string    `json:"webhook_name"`
	URL         string    `json:"url"`
	EventType   string    `json:"event_type"`
	RunID       string    `json:"run_id,omitempty"`
	Payload     string    `json:"payload"`
	Error       string    `json:"error"`
	Attempts    int       `json:"attempts"`
}
