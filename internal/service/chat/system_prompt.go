package chat

import (
	"strings"

	"maimai/internal/domain/models/chat"
)

// ResolveSystemPrompt concatenates the project prompt and the thread prompt.
// Empty parts are skipped; an empty result means no system message is sent.
func ResolveSystemPrompt(project *chat.Project, thread *chat.Thread) string {
	var parts []string

	if project != nil && project.SystemPrompt != nil {
		if p := strings.TrimSpace(*project.SystemPrompt); p != "" {
			parts = append(parts, p)
		}
	}
	if thread != nil && thread.SystemPrompt != nil {
		if p := strings.TrimSpace(*thread.SystemPrompt); p != "" {
			parts = append(parts, p)
		}
	}

	return strings.Join(parts, "\n\n")
}
