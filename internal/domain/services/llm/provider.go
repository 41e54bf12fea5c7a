package llm

import (
	"context"
)

// CompletionProvider is implemented by every chat completion backend.
type CompletionProvider interface {
	// Complete sends the ordered message list and returns the text completion.
	// Quota and rate-limit failures are returned as *domain.ProviderError.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider name (e.g., "openai", "anthropic")
	Name() string

	// SupportsModel returns true if the provider serves the given model
	SupportsModel(model string) bool
}

// Message is one {role, content} entry of a completion request
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest contains the parameters for a completion call
type CompletionRequest struct {
	Model    string
	Messages []Message
}

// CompletionResponse is a text completion with token usage
type CompletionResponse struct {
	Content      string
	Model        string // echoed by the provider, may differ from the request
	InputTokens  int
	OutputTokens int
}

// ImageGenerator produces a single image for a prompt
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (*ImageResponse, error)
}

// ImageResponse carries the generated image URL and the fixed model tag
type ImageResponse struct {
	URL   string
	Model string
}

// Summarizer produces a short summary of one message. Advisory only.
type Summarizer interface {
	Summarize(ctx context.Context, content, role string) (string, error)
}

// KeyInfoExtractor returns the raw JSON extraction for a message.
// Parsing is done by the caller so malformed output can be dropped there.
type KeyInfoExtractor interface {
	ExtractKeyInformation(ctx context.Context, content string) (string, error)
}
