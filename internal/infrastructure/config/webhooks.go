package config

import (
	"fmt"
	"net/url"

	"github.com/felixgeelhaar/fareview/pkg/domain/events"
	"github.com/felixgeelhaar/fareview/pkg/storage"
)

// LoadWebhookConfig returns an empty configuration when webhooks.yaml does
// not exist.
func LoadWebhookConfig(root string) (*events.WebhookConfig, error) {
	var cfg events.WebhookConfig
	if _, err := readYAML(root, storage.WebhookFile, &cfg); err != nil {
		return nil, err
	}
	for i, ep := range cfg.Webhooks {
		if ep.Name == "" {
			return nil, fmt.Errorf("webhook %d has no name", i+1)
		}
		u, err := url.Parse(ep.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("webhook %q has invalid url %q", ep.Name, ep.URL)
		}
		if ep.MaxRetries < 0 {
			return nil, fmt.Errorf("webhook %q max_retries must not be negative", ep.Name)
		}
		switch ep.Format {
		case "", events.FormatJSON, events.FormatSlack:
		default:
			return nil, fmt.Errorf("webhook %q has unknown format %q", ep.Name, ep.Format)
		}
	}
	return &cfg, nil
}

func SaveWebhookConfig(root string, cfg *events.WebhookConfig) error {
	if cfg == nil {
		return fmt.Errorf("webhook config is nil")
	}
	return writeYAML(root, storage.WebhookFile, cfg)
}
