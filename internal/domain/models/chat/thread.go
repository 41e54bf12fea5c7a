package chat

import (
	"time"
)

// Thread is a conversation owned by a user, optionally grouped under a project.
// Threads are never hard-deleted; Hidden acts as the soft delete.
type Thread struct {
	ID           string    `json:"id" db:"id"`
	UserID       string    `json:"user_id" db:"user_id"`
	ProjectID    *string   `json:"project_id,omitempty" db:"project_id"`
	Title        string    `json:"title" db:"title"`
	SystemPrompt *string   `json:"system_prompt,omitempty" db:"system_prompt"`
	Hidden       bool      `json:"hidden" db:"hidden"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`

	// Loaded separately, in chronological order
	Messages []Message `json:"messages,omitempty"`
}

// ThreadListOptions filters thread listings
type ThreadListOptions struct {
	ProjectID     *string
	IncludeHidden bool
}
