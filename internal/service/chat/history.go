package chat

import (
	"maimai/internal/domain/models/chat"
)

const (
	// optimizeAfter is the thread length above which history is compressed
	optimizeAfter = 3

	// maxSummarized bounds the compressed middle of the history
	maxSummarized = 20
)

// OptimizeHistory shapes thread history for dispatch.
//
// Threads with more than three messages keep the most recent 20 messages
// other than the anchors, each replaced by its summary when one exists,
// followed by the literal latest assistant message and latest user message
// in their original order. Shorter threads are returned as-is.
//
// Applying it to its own output returns the same list.
func OptimizeHistory(messages []chat.Message) []chat.Message {
	out := make([]chat.Message, 0, len(messages))
	if len(messages) <= optimizeAfter {
		return append(out, messages...)
	}

	lastUser, lastAssistant := -1, -1
	for i := len(messages) - 1; i >= 0 && (lastUser < 0 || lastAssistant < 0); i-- {
		switch messages[i].Role {
		case chat.RoleUser:
			if lastUser < 0 {
				lastUser = i
			}
		case chat.RoleAssistant:
			if lastAssistant < 0 {
				lastAssistant = i
			}
		}
	}

	middle := make([]chat.Message, 0, len(messages))
	for i, m := range messages {
		if i == lastUser || i == lastAssistant {
			continue
		}
		if m.HasSummary() {
			m.Content = *m.Summary
		}
		middle = append(middle, m)
	}
	if len(middle) > maxSummarized {
		middle = middle[len(middle)-maxSummarized:]
	}
	out = append(out, middle...)

	// anchors keep chronological order
	for i := range messages {
		if i == lastUser || i == lastAssistant {
			out = append(out, messages[i])
		}
	}

	return out
}
