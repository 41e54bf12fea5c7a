package social

import (
	"time"
)

// Post is a message published to a Facebook page feed
type Post struct {
	ID           string    `json:"id" db:"id"`
	UserID       string    `json:"user_id" db:"user_id"`
	PageID       string    `json:"page_id" db:"page_id"`
	RemotePostID string    `json:"remote_post_id" db:"remote_post_id"`
	MessageID    *string   `json:"message_id,omitempty" db:"message_id"`
	Content      string    `json:"content" db:"content"`
	Link         *string   `json:"link,omitempty" db:"link"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
