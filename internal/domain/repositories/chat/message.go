package chat

import (
	"context"

	"maimai/internal/domain/models/chat"
)

// MessageRepository defines data access for thread messages
type MessageRepository interface {
	// Create inserts a message and fills ID and CreatedAt
	Create(ctx context.Context, message *chat.Message) error

	// ListByThread returns the thread's messages in chronological order
	ListByThread(ctx context.Context, threadID string) ([]chat.Message, error)

	// GetByID retrieves a message, scoped through its thread to the owner
	GetByID(ctx context.Context, messageID, userID string) (*chat.Message, error)

	// UpdateSummary attaches a summary to an already persisted message
	UpdateSummary(ctx context.Context, messageID, summary string) error

	// RecentCreditCosts returns credit_cost of the newest assistant messages for a model
	RecentCreditCosts(ctx context.Context, model string, limit int) ([]int, error)
}
