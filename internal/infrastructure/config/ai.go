// Package config reads the workspace YAML files under .fareview.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/fareview/pkg/storage"
)

const (
	DefaultTimeoutSec = 300
	DefaultMaxTokens  = 4000
)

// AIConfig stores the scoring service settings.
type AIConfig struct {
	Provider     string `yaml:"provider"`
	Model        string `yaml:"model"`
	MaxRetries   int    `yaml:"max_retries,omitempty"`
	RetryDelayMs int    `yaml:"retry_delay_ms,omitempty"`
	TimeoutSec   int    `yaml:"timeout_sec,omitempty"`
	MaxTokens    int    `yaml:"max_tokens,omitempty"`
	Concurrency  int    `yaml:"concurrency,omitempty"`
}

// ScoringTimeout is the per-report bound on the scoring call.
func (c *AIConfig) ScoringTimeout() time.Duration {
	if c == nil || c.TimeoutSec <= 0 {
		return DefaultTimeoutSec * time.Second
	}
	return time.Duration(c.TimeoutSec) * time.Second
}

// Tokens is the response token budget.
func (c *AIConfig) Tokens() int {
	if c == nil || c.MaxTokens <= 0 {
		return DefaultMaxTokens
	}
	return c.MaxTokens
}

// Workers is the batch concurrency; 1 means sequential.
func (c *AIConfig) Workers() int {
	if c == nil || c.Concurrency < 1 {
		return 1
	}
	return c.Concurrency
}

func (c *AIConfig) validate() error {
	switch {
	case c.MaxRetries < 0:
		return fmt.Errorf("max_retries must not be negative, got %d", c.MaxRetries)
	case c.RetryDelayMs < 0:
		return fmt.Errorf("retry_delay_ms must not be negative, got %d", c.RetryDelayMs)
	case c.TimeoutSec < 0:
		return fmt.Errorf("timeout_sec must not be negative, got %d", c.TimeoutSec)
	case c.MaxTokens < 0:
		return fmt.Errorf("max_tokens must not be negative, got %d", c.MaxTokens)
	case c.Concurrency < 0:
		return fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency)
	}
	return nil
}

// LoadAIConfig returns nil without error when ai.yaml does not exist.
func LoadAIConfig(root string) (*AIConfig, error) {
	var cfg AIConfig
	found, err := readYAML(root, storage.AIConfigFile, &cfg)
	if err != nil || !found {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", storage.AIConfigFile, err)
	}
	return &cfg, nil
}

func SaveAIConfig(root string, cfg *AIConfig) error {
	if cfg == nil {
		return fmt.Errorf("AI config is nil")
	}
	if err := cfg.validate(); err != nil {
		return err
	}
	return writeYAML(root, storage.AIConfigFile, cfg)
}

// readYAML decodes a file under .fareview. found is false when it is absent.
func readYAML(root, name string, out interface{}) (found bool, err error) {
	repo := storage.NewFilesystemRepository(root)
	path, err := repo.ResolvePath(name)
	if err != nil {
		return false, err
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path is confined to .fareview by ResolvePath
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s: %w", name, err)
	}

	if err := yaml.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", name, err)
	}
	return true, nil
}

func writeYAML(root, name string, in interface{}) error {
	repo := storage.NewFilesystemRepository(root)
	if err := repo.Initialize(); err != nil {
		return err
	}
	path, err := repo.ResolvePath(name)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	return os.WriteFile(path, data, 0600)
}
