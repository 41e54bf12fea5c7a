package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"maimai/internal/domain"
	domainllm "maimai/internal/domain/services/llm"
)

const (
	summaryPrompt = "Summarize the following %s message in one or two short sentences. " +
		"Keep names, numbers and any question being asked. Reply with the summary only."

	keyInfoPrompt = "Extract key information from the text. Reply with a JSON object with the keys " +
		`"entities", "phrases", "verbs" (arrays of strings) and "svo_triples" ` +
		`(array of objects with "subject", "verb", "object"). Use empty arrays when nothing applies.`
)

// Config holds the OpenAI provider settings
type Config struct {
	APIKey       string
	BaseURL      string // optional, for OpenAI-compatible gateways
	SummaryModel string
	ImageModel   string
}

// Provider serves chat completion, summaries, key-information extraction
// and image generation from the OpenAI API.
type Provider struct {
	client       *openai.Client
	summaryModel string
	imageModel   string
}

// NewProvider creates a new OpenAI provider
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Provider{
		client:       openai.NewClientWithConfig(clientCfg),
		summaryModel: cfg.SummaryModel,
		imageModel:   cfg.ImageModel,
	}, nil
}

var (
	_ domainllm.CompletionProvider = (*Provider)(nil)
	_ domainllm.Summarizer         = (*Provider)(nil)
	_ domainllm.KeyInfoExtractor   = (*Provider)(nil)
	_ domainllm.ImageGenerator     = (*Provider)(nil)
)

// Name returns the provider name.
func (p *Provider) Name() string {
	return "openai"
}

// SupportsModel returns true for gpt-*, o1-* and o3-* models.
func (p *Provider) SupportsModel(model string) bool {
	m := strings.ToLower(model)
	return strings.HasPrefix(m, "gpt-") || strings.HasPrefix(m, "o1-") || strings.HasPrefix(m, "o3-")
}

// Complete sends the conversation to the chat completions endpoint.
func (p *Provider) Complete(ctx context.Context, req *domainllm.CompletionRequest) (*domainllm.CompletionResponse, error) {
	if !p.SupportsModel(req.Model) {
		return nil, fmt.Errorf("model '%s' is not supported by OpenAI provider", req.Model)
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    toOpenAIRole(m.Role),
			Content: m.Content,
		})
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: messages,
	})
	if err != nil {
		return nil, mapError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, &domain.ProviderError{
			Provider: p.Name(),
			Code:     domain.ProviderCodeBadResponse,
			Message:  "openai returned no choices",
		}
	}

	model := resp.Model
	if model == "" {
		model = req.Model
	}

	return &domainllm.CompletionResponse{
		Content:      resp.Choices[0].Message.Content,
		Model:        model,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}

// Summarize returns a short summary of one message.
func (p *Provider) Summarize(ctx context.Context, content, role string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.summaryModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf(summaryPrompt, role)},
			{Role: openai.ChatMessageRoleUser, Content: content},
		},
	})
	if err != nil {
		return "", mapError(err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no summary")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// ExtractKeyInformation asks for a JSON object and returns it unparsed.
func (p *Provider) ExtractKeyInformation(ctx context.Context, content string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.summaryModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: keyInfoPrompt},
			{Role: openai.ChatMessageRoleUser, Content: content},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", mapError(err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no extraction")
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateImage creates one image and returns its URL.
func (p *Provider) GenerateImage(ctx context.Context, prompt string) (*domainllm.ImageResponse, error) {
	resp, err := p.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          p.imageModel,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return nil, mapError(err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return nil, &domain.ProviderError{
			Provider: "openai",
			Code:     domain.ProviderCodeBadResponse,
			Message:  "openai returned no image",
		}
	}

	return &domainllm.ImageResponse{
		URL:   resp.Data[0].URL,
		Model: p.imageModel,
	}, nil
}

func toOpenAIRole(role string) string {
	switch role {
	case "system":
		return openai.ChatMessageRoleSystem
	case "assistant":
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}

// mapError turns API failures into a ProviderError with a distinguishing code.
// Quota and rate-limit errors are never retried here.
func mapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &domain.ProviderError{
			Provider: "openai",
			Code:     classify(apiErr.HTTPStatusCode, apiErr.Type, fmt.Sprint(apiErr.Code)),
			Message:  apiErr.Message,
			Err:      err,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &domain.ProviderError{
			Provider: "openai",
			Code:     classify(reqErr.HTTPStatusCode, "", ""),
			Message:  reqErr.Error(),
			Err:      err,
		}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	return &domain.ProviderError{
		Provider: "openai",
		Code:     domain.ProviderCodeUnavailable,
		Message:  err.Error(),
		Err:      err,
	}
}

func classify(status int, errType, code string) string {
	if errType == "insufficient_quota" || code == "insufficient_quota" {
		return domain.ProviderCodeQuotaExceeded
	}
	switch {
	case status == http.StatusTooManyRequests:
		return domain.ProviderCodeRateLimited
	case status >= 500 || status == 0:
		return domain.ProviderCodeUnavailable
	default:
		return domain.ProviderCodeBadResponse
	}
}
