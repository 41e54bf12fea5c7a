package llm

import (
	"fmt"
	"log/slog"

	"maimai/internal/config"
	domainllm "maimai/internal/domain/services/llm"
	"maimai/internal/service/llm/providers/lorem"
)

// Providers bundles everything the message pipeline needs from AI backends
type Providers struct {
	Completion domainllm.CompletionProvider
	Summarizer domainllm.Summarizer
	KeyInfo    domainllm.KeyInfoExtractor
	Images     domainllm.ImageGenerator
}

// SetupProviders builds the registry and picks the secondary services.
// Without an OpenAI key, summaries, key information and images come from
// the lorem provider.
func SetupProviders(cfg *config.Config, logger *slog.Logger) (*Providers, error) {
	factory := NewProviderFactory(cfg)
	registry := NewProviderRegistry(factory)

	if cfg.AnthropicAPIKey != "" {
		logger.Info("provider available", "name", "anthropic", "models", "claude-*")
	} else {
		logger.Warn("ANTHROPIC_API_KEY not set - Anthropic provider not available")
	}

	var secondary domainllm.CompletionProvider = lorem.NewProvider()
	if cfg.OpenAIAPIKey != "" {
		openaiProvider, err := registry.GetProvider("openai")
		if err != nil {
			return nil, fmt.Errorf("openai provider: %w", err)
		}
		secondary = openaiProvider
		logger.Info("provider available", "name", "openai", "models", "gpt-*, o1-*, o3-*")
	} else {
		logger.Warn("OPENAI_API_KEY not set - using lorem for summaries and images")
	}

	providers := &Providers{Completion: registry}

	var ok bool
	if providers.Summarizer, ok = secondary.(domainllm.Summarizer); !ok {
		return nil, fmt.Errorf("provider %s cannot summarize", secondary.Name())
	}
	if providers.KeyInfo, ok = secondary.(domainllm.KeyInfoExtractor); !ok {
		return nil, fmt.Errorf("provider %s cannot extract key information", secondary.Name())
	}
	if providers.Images, ok = secondary.(domainllm.ImageGenerator); !ok {
		return nil, fmt.Errorf("provider %s cannot generate images", secondary.Name())
	}

	logger.Info("provider registry initialized", "secondary", secondary.Name())

	return providers, nil
}
