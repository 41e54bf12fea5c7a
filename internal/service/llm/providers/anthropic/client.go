package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"maimai/internal/domain"
	domainllm "maimai/internal/domain/services/llm"
)

const defaultMaxTokens = 4096

// Provider implements CompletionProvider for Anthropic (Claude) models.
type Provider struct {
	client *anthropic.Client
}

// NewProvider creates a new Anthropic provider with the given API key.
// Extra options are passed to the SDK client (base URL in tests).
func NewProvider(apiKey string, opts ...option.RequestOption) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	client := anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)

	return &Provider{
		client: &client,
	}, nil
}

var _ domainllm.CompletionProvider = (*Provider)(nil)

// Name returns the provider name.
func (p *Provider) Name() string {
	return "anthropic"
}

// SupportsModel returns true if this provider supports the given model.
// Anthropic models start with "claude-"
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "claude-")
}

// Complete generates a response from Claude.
func (p *Provider) Complete(ctx context.Context, req *domainllm.CompletionRequest) (*domainllm.CompletionResponse, error) {
	if !p.SupportsModel(req.Model) {
		return nil, fmt.Errorf("model '%s' is not supported by Anthropic provider", req.Model)
	}

	system, messages := convertToAnthropicMessages(req.Messages)

	apiParams := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		Messages:  messages,
		MaxTokens: defaultMaxTokens,
	}
	if system != "" {
		apiParams.System = []anthropic.TextBlockParam{
			{
				Type: "text",
				Text: system,
			},
		}
	}

	message, err := p.client.Messages.New(ctx, apiParams)
	if err != nil {
		return nil, mapError(err)
	}

	return convertFromAnthropicResponse(message), nil
}

func mapError(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return &domain.ProviderError{
			Provider: "anthropic",
			Code:     domain.ProviderCodeUnavailable,
			Message:  err.Error(),
			Err:      err,
		}
	}

	code := domain.ProviderCodeBadResponse
	switch {
	case apiErr.StatusCode == http.StatusTooManyRequests:
		code = domain.ProviderCodeRateLimited
	case apiErr.StatusCode == http.StatusPaymentRequired || strings.Contains(strings.ToLower(apiErr.Error()), "credit balance"):
		code = domain.ProviderCodeQuotaExceeded
	case apiErr.StatusCode >= 500:
		code = domain.ProviderCodeUnavailable
	}

	return &domain.ProviderError{
		Provider: "anthropic",
		Code:     code,
		Message:  fmt.Sprintf("anthropic API call failed with status %d", apiErr.StatusCode),
		Err:      err,
	}
}
