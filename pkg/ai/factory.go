package ai

import (
	"fmt"
	"os"
	"sort"

	"github.com/felixgeelhaar/fareview/pkg/domain/ai"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderOllama    = "ollama"
	ProviderMock      = "mock"

	DefaultProvider = ProviderAnthropic
)

var apiKeyEnv = map[string]string{
	ProviderAnthropic: "ANTHROPIC_API_KEY",
	ProviderOpenAI:    "OPENAI_API_KEY",
	ProviderGemini:    "GEMINI_API_KEY",
}

// Providers lists the provider names NewProvider accepts.
func Providers() []string {
	out := []string{ProviderAnthropic, ProviderOpenAI, ProviderGemini, ProviderOllama, ProviderMock}
	sort.Strings(out)
	return out
}

// APIKeyEnv returns the environment variable holding a provider's key, or ""
// when the provider needs none.
func APIKeyEnv(providerName string) string {
	return apiKeyEnv[providerName]
}

// NewProvider builds a provider by name. An empty apiKey falls back to the
// provider's environment variable.
func NewProvider(providerName, modelName, apiKey string) (ai.Provider, error) {
	if providerName == "" {
		providerName = DefaultProvider
	}
	if apiKey == "" {
		if env := apiKeyEnv[providerName]; env != "" {
			apiKey = os.Getenv(env)
		}
	}

	switch providerName {
	case ProviderAnthropic:
		return NewAnthropicProvider(modelName, apiKey), nil
	case ProviderOpenAI:
		return NewOpenAIProvider(modelName, apiKey), nil
	case ProviderGemini:
		return NewGeminiProvider(modelName, apiKey), nil
	case ProviderOllama:
		return NewOllamaProviderWithClient(modelName, os.Getenv("OLLAMA_HOST"), nil), nil
	case ProviderMock:
		if modelName == "" {
			modelName = "fixture"
		}
		return &MockProvider{Model: modelName}, nil
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", providerName)
	}
}

// GetDefaultProvider applies FAREVIEW_AI_PROVIDER and FAREVIEW_AI_MODEL over
// the configured names before building the provider.
func GetDefaultProvider(providerName, modelName, apiKey string) (ai.Provider, error) {
	if env := os.Getenv("FAREVIEW_AI_PROVIDER"); env != "" {
		providerName = env
	}
	if env := os.Getenv("FAREVIEW_AI_MODEL"); env != "" {
		modelName = env
	}
	return NewProvider(providerName, modelName, apiKey)
}
