package social

import (
	"context"

	"maimai/internal/domain/models/social"
)

// Publisher posts to a Facebook page feed
type Publisher interface {
	// PublishToPage returns the remote post id
	PublishToPage(ctx context.Context, pageID, pageToken, message string, link *string) (string, error)
}

// Service shares content to social pages
type Service interface {
	Publish(ctx context.Context, req *PublishRequest) (*social.Post, error)
	ListPosts(ctx context.Context, userID string, limit int) ([]social.Post, error)
}

// PublishRequest is the DTO for POST /api/social/posts.
// Either Content or MessageID must be set; MessageID wins.
type PublishRequest struct {
	UserID    string  `json:"-"`
	PageID    string  `json:"page_id"`
	PageToken string  `json:"page_token"`
	Content   string  `json:"content,omitempty"`
	MessageID *string `json:"message_id,omitempty"`
	Link      *string `json:"link,omitempty"`
}
