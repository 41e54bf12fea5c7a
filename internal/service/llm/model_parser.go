package llm

import (
	"fmt"
	"strings"
)

// ModelInfo contains parsed provider and model information
type ModelInfo struct {
	Provider string // Provider name: "openai", "anthropic", "lorem"
	Model    string // Model identifier for that provider
}

// ParseModel extracts provider information from a model string
//
// Supported formats:
//   - "gpt-4o-mini" → {Provider: "openai", Model: "gpt-4o-mini"}
//   - "claude-haiku-4-5" → {Provider: "anthropic", Model: "claude-haiku-4-5"}
//   - "lorem-fast" → {Provider: "lorem", Model: "lorem-fast"}
//   - "openai/gpt-4o" → {Provider: "openai", Model: "gpt-4o"}
//
// Rules:
//   - If model contains "/" → split on first "/" to extract provider
//   - Else → infer provider from model prefix
func ParseModel(modelStr string) (*ModelInfo, error) {
	if modelStr == "" {
		return nil, fmt.Errorf("model string cannot be empty")
	}

	if strings.Contains(modelStr, "/") {
		parts := strings.SplitN(modelStr, "/", 2)
		provider, model := parts[0], parts[1]

		if provider == "" {
			return nil, fmt.Errorf("provider cannot be empty in model string: %s", modelStr)
		}
		if model == "" {
			return nil, fmt.Errorf("model cannot be empty in model string: %s", modelStr)
		}

		return &ModelInfo{
			Provider: provider,
			Model:    model,
		}, nil
	}

	provider := inferProvider(modelStr)
	if provider == "" {
		return nil, fmt.Errorf("unable to infer provider from model: %s", modelStr)
	}

	return &ModelInfo{
		Provider: provider,
		Model:    modelStr,
	}, nil
}

// inferProvider infers the provider from model name prefix
func inferProvider(model string) string {
	modelLower := strings.ToLower(model)

	switch {
	case strings.HasPrefix(modelLower, "claude-"):
		return "anthropic"
	case strings.HasPrefix(modelLower, "gpt-"),
		strings.HasPrefix(modelLower, "o1-"),
		strings.HasPrefix(modelLower, "o3-"):
		return "openai"
	case strings.HasPrefix(modelLower, "lorem-"):
		return "lorem"
	default:
		return ""
	}
}
