package lorem

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	loremgen "github.com/bozaro/golorem"

	"maimai/internal/domain"
	domainllm "maimai/internal/domain/services/llm"
)

// Provider is a mock provider that generates lorem ipsum text.
// Used for testing and development without requiring real API keys.
//
// Model names select behaviour: "lorem-slow" waits two seconds,
// "lorem-fast" answers immediately, "lorem-quota" and "lorem-ratelimit"
// fail with the matching provider error code.
type Provider struct {
	generator *loremgen.Lorem
	mu        sync.Mutex // golorem is not safe for concurrent use
}

// NewProvider creates a new lorem ipsum provider.
func NewProvider() *Provider {
	return &Provider{
		generator: loremgen.New(),
	}
}

var (
	_ domainllm.CompletionProvider = (*Provider)(nil)
	_ domainllm.Summarizer         = (*Provider)(nil)
	_ domainllm.KeyInfoExtractor   = (*Provider)(nil)
	_ domainllm.ImageGenerator     = (*Provider)(nil)
)

// Name returns the provider name.
func (p *Provider) Name() string {
	return "lorem"
}

// SupportsModel returns true if the model name starts with "lorem-".
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "lorem-")
}

// Complete returns a few paragraphs of lorem ipsum after a model-specific delay.
func (p *Provider) Complete(ctx context.Context, req *domainllm.CompletionRequest) (*domainllm.CompletionResponse, error) {
	if !p.SupportsModel(req.Model) {
		return nil, fmt.Errorf("model '%s' is not supported by lorem provider", req.Model)
	}

	switch {
	case strings.Contains(req.Model, "quota"):
		return nil, &domain.ProviderError{Provider: p.Name(), Code: domain.ProviderCodeQuotaExceeded, Message: "mock quota exceeded"}
	case strings.Contains(req.Model, "ratelimit"):
		return nil, &domain.ProviderError{Provider: p.Name(), Code: domain.ProviderCodeRateLimited, Message: "mock rate limit"}
	}

	select {
	case <-time.After(responseDelay(req.Model)):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	text := p.generateText(400)

	return &domainllm.CompletionResponse{
		Content:      text,
		Model:        req.Model,
		InputTokens:  estimateTokens(req.Messages),
		OutputTokens: len(strings.Fields(text)), // word count as proxy
	}, nil
}

// Summarize returns the first sentence of content, or a lorem sentence.
func (p *Provider) Summarize(_ context.Context, content, _ string) (string, error) {
	content = strings.TrimSpace(content)
	if idx := strings.IndexAny(content, ".!?"); idx > 0 && idx < 200 {
		return content[:idx+1], nil
	}
	if len([]rune(content)) <= 200 && content != "" {
		return content, nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generator.Sentence(5, 10), nil
}

// ExtractKeyInformation returns capitalised words as entities.
func (p *Provider) ExtractKeyInformation(_ context.Context, content string) (string, error) {
	entities := []string{}
	seen := map[string]bool{}
	for _, word := range strings.Fields(content) {
		word = strings.Trim(word, ".,;:!?\"'()")
		if word == "" || seen[word] {
			continue
		}
		if r := []rune(word)[0]; r >= 'A' && r <= 'Z' {
			entities = append(entities, word)
			seen[word] = true
		}
	}

	raw, err := json.Marshal(map[string]any{
		"entities":    entities,
		"phrases":     []string{},
		"verbs":       []string{},
		"svo_triples": []any{},
	})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// GenerateImage returns a placeholder image URL.
func (p *Provider) GenerateImage(_ context.Context, prompt string) (*domainllm.ImageResponse, error) {
	seed := len(prompt)
	return &domainllm.ImageResponse{
		URL:   fmt.Sprintf("https://picsum.photos/seed/%d/1024/1024", seed),
		Model: "lorem-image",
	}, nil
}

func responseDelay(model string) time.Duration {
	switch {
	case strings.Contains(model, "slow"):
		return 2 * time.Second
	case strings.Contains(model, "fast"):
		return 0
	default:
		return 200 * time.Millisecond
	}
}

// generateText generates lorem ipsum text with approximately targetChars characters.
func (p *Provider) generateText(targetChars int) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var sb strings.Builder
	for sb.Len() < targetChars {
		sb.WriteString(p.generator.Paragraph(3, 5))
		sb.WriteString("\n\n")
	}
	return strings.TrimSpace(sb.String())
}

// estimateTokens uses word count as a rough approximation.
func estimateTokens(messages []domainllm.Message) int {
	total := 0
	for _, msg := range messages {
		total += len(strings.Fields(msg.Content))
	}
	return total
}
