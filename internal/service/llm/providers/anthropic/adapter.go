package anthropic

import (
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	domainllm "maimai/internal/domain/services/llm"
)

// convertToAnthropicMessages splits system messages out into the system
// prompt and converts the rest to SDK message params.
func convertToAnthropicMessages(messages []domainllm.Message) (string, []anthropic.MessageParam) {
	var system []string
	result := make([]anthropic.MessageParam, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case "system":
			system = append(system, msg.Content)
		case "assistant":
			result = append(result, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			result = append(result, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	return strings.Join(system, "\n\n"), result
}

// convertFromAnthropicResponse concatenates the text blocks of a response.
func convertFromAnthropicResponse(msg *anthropic.Message) *domainllm.CompletionResponse {
	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return &domainllm.CompletionResponse{
		Content:      text.String(),
		Model:        string(msg.Model),
		InputTokens:  int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
	}
}
