package chat

import (
	"time"
)

// Project groups threads and contributes a system prompt to each of them.
type Project struct {
	ID           string    `json:"id" db:"id"`
	UserID       string    `json:"user_id" db:"user_id"`
	Name         string    `json:"name" db:"name"`
	SystemPrompt *string   `json:"system_prompt,omitempty" db:"system_prompt"`
	Hidden       bool      `json:"hidden" db:"hidden"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
