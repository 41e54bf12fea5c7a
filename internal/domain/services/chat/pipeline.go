package chat

import (
	"context"

	"maimai/internal/domain/models/chat"
)

// MessageService runs the credit-metered send pipeline
type MessageService interface {
	// SendMessage checks and reserves credits, appends the user message,
	// calls the completion (or image) provider and persists the reply.
	SendMessage(ctx context.Context, req *SendMessageRequest) (*SendMessageResult, error)
}

// SendMessageRequest is the DTO for sending a message
type SendMessageRequest struct {
	UserID    string  `json:"-"`
	ThreadID  string  `json:"thread_id,omitempty"` // empty starts a new thread
	ProjectID *string `json:"project_id,omitempty"` // used when starting a new thread
	Content   string  `json:"content"`
	Model     string  `json:"model,omitempty"`

	// ImageConfirmed is the user's answer to the image confirmation prompt.
	// nil means the user has not been asked yet.
	ImageConfirmed *bool `json:"image_confirmed,omitempty"`
}

// SendMessageResult is returned by SendMessage
type SendMessageResult struct {
	// RequiresConfirmation is set when the content looks like an image request
	// and ImageConfirmed was nil. Nothing was persisted or charged.
	RequiresConfirmation bool `json:"requires_confirmation"`

	Thread           *chat.Thread  `json:"thread,omitempty"`
	UserMessage      *chat.Message `json:"user_message,omitempty"`
	AssistantMessage *chat.Message `json:"assistant_message,omitempty"`
	EstimatedCost    int           `json:"estimated_cost"`
	ChargedCredits   int           `json:"charged_credits"`
	Balance          int           `json:"balance"`
}
