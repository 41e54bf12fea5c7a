package llm

import (
	"fmt"

	"maimai/internal/config"
	domainllm "maimai/internal/domain/services/llm"
	"maimai/internal/service/llm/providers/anthropic"
	"maimai/internal/service/llm/providers/lorem"
	"maimai/internal/service/llm/providers/openai"
)

// ProviderFactory creates provider instances from configuration
type ProviderFactory struct {
	config *config.Config
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(cfg *config.Config) *ProviderFactory {
	return &ProviderFactory{
		config: cfg,
	}
}

// GetProvider returns a provider instance for the given provider name
//
// Supported providers:
//   - "openai" - GPT models, also summaries, key information and images
//   - "anthropic" - Claude models
//   - "lorem" - mock provider (no API key required)
//
// Providers that also summarize or generate images implement the matching
// domain interfaces; callers type-assert for them.
func (f *ProviderFactory) GetProvider(providerName string) (domainllm.CompletionProvider, error) {
	switch providerName {
	case "openai":
		return f.createOpenAIProvider()
	case "anthropic":
		return f.createAnthropicProvider()
	case "lorem":
		return lorem.NewProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", providerName)
	}
}

func (f *ProviderFactory) createOpenAIProvider() (domainllm.CompletionProvider, error) {
	p, err := openai.NewProvider(openai.Config{
		APIKey:       f.config.OpenAIAPIKey,
		BaseURL:      f.config.OpenAIBaseURL,
		SummaryModel: f.config.SummaryModel,
		ImageModel:   f.config.ImageModel,
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (f *ProviderFactory) createAnthropicProvider() (domainllm.CompletionProvider, error) {
	p, err := anthropic.NewProvider(f.config.AnthropicAPIKey)
	if err != nil {
		return nil, err
	}
	return p, nil
}
