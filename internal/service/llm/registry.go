package llm

import (
	"context"
	"fmt"
	"sync"

	"maimai/internal/domain"
	domainllm "maimai/internal/domain/services/llm"
)

// ProviderSource creates providers by name
type ProviderSource interface {
	GetProvider(name string) (domainllm.CompletionProvider, error)
}

// ProviderRegistry routes completion requests to the provider that serves
// the requested model. It implements CompletionProvider itself.
type ProviderRegistry struct {
	source ProviderSource
	cache  map[string]domainllm.CompletionProvider // provider instances by name
	mu     sync.RWMutex
}

// NewProviderRegistry creates a new provider registry.
func NewProviderRegistry(source ProviderSource) *ProviderRegistry {
	return &ProviderRegistry{
		source: source,
		cache:  make(map[string]domainllm.CompletionProvider),
	}
}

var _ domainllm.CompletionProvider = (*ProviderRegistry)(nil)

// GetProvider returns the cached provider for name, creating it on first use.
func (r *ProviderRegistry) GetProvider(name string) (domainllm.CompletionProvider, error) {
	if name == "" {
		return nil, fmt.Errorf("provider cannot be empty")
	}

	r.mu.RLock()
	if cached, exists := r.cache[name]; exists {
		r.mu.RUnlock()
		return cached, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another goroutine may have created the provider while we waited for the lock
	if cached, exists := r.cache[name]; exists {
		return cached, nil
	}

	provider, err := r.source.GetProvider(name)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider '%s': %w", name, err)
	}
	r.cache[name] = provider

	return provider, nil
}

// Complete resolves the provider for req.Model and forwards the request.
// Unknown models are a validation error.
func (r *ProviderRegistry) Complete(ctx context.Context, req *domainllm.CompletionRequest) (*domainllm.CompletionResponse, error) {
	info, err := ParseModel(req.Model)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	provider, err := r.GetProvider(info.Provider)
	if err != nil {
		return nil, &domain.ProviderError{
			Provider: info.Provider,
			Code:     domain.ProviderCodeUnavailable,
			Message:  "provider not configured",
			Err:      err,
		}
	}

	forwarded := *req
	forwarded.Model = info.Model
	return provider.Complete(ctx, &forwarded)
}

// Name returns the registry name.
func (r *ProviderRegistry) Name() string {
	return "registry"
}

// SupportsModel reports whether any known provider serves the model.
func (r *ProviderRegistry) SupportsModel(model string) bool {
	_, err := ParseModel(model)
	return err == nil
}
