package wiring

import (
	"os"
	"time"

	"github.com/felixgeelhaar/fareview/internal/infrastructure/config"
	infraai "github.com/felixgeelhaar/fareview/pkg/ai"
	domainai "github.com/felixgeelhaar/fareview/pkg/domain/ai"
	"github.com/felixgeelhaar/fareview/pkg/domain/rubric"
)

// ProviderOptions carries command line overrides. Empty fields fall back to
// the environment, then ai.yaml, then the built-in defaults.
type ProviderOptions struct {
	Provider string
	Model    string
	APIKey   string
}

// ResolveProviderName applies the override order to the provider and model
// names. The ai.yaml model only applies when the provider also comes from
// ai.yaml.
func ResolveProviderName(cfg *config.AIConfig, opts ProviderOptions) (provider, model string) {
	var cfgProvider, cfgModel string
	if cfg != nil {
		cfgProvider, cfgModel = cfg.Provider, cfg.Model
	}

	provider = firstNonEmpty(opts.Provider, os.Getenv("FAREVIEW_AI_PROVIDER"), cfgProvider, infraai.DefaultProvider)
	model = firstNonEmpty(opts.Model, os.Getenv("FAREVIEW_AI_MODEL"))
	if model == "" && provider == firstNonEmpty(cfgProvider, infraai.DefaultProvider) {
		model = cfgModel
	}
	return provider, model
}

// LoadAIProvider builds the configured provider wrapped in the retrying
// decorator. The mock provider answers for r.
func LoadAIProvider(cfg *config.AIConfig, opts ProviderOptions, r *rubric.Rubric) (domainai.Provider, error) {
	providerName, modelName := ResolveProviderName(cfg, opts)

	resilienceConfig := infraai.DefaultResilienceConfig()
	resilienceConfig.Timeout = cfg.ScoringTimeout()
	if cfg != nil {
		if cfg.MaxRetries > 0 {
			resilienceConfig.MaxRetries = cfg.MaxRetries
		}
		if cfg.RetryDelayMs > 0 {
			resilienceConfig.RetryDelay = time.Duration(cfg.RetryDelayMs) * time.Millisecond
		}
	}

	baseProvider, err := infraai.NewProvider(providerName, modelName, opts.APIKey)
	if err != nil {
		return nil, err
	}
	if mock, ok := baseProvider.(*infraai.MockProvider); ok {
		mock.Rubric = r
	}

	return infraai.NewResilientProviderWithConfig(baseProvider, resilienceConfig), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
