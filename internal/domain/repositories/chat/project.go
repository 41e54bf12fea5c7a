package chat

import (
	"context"

	"maimai/internal/domain/models/chat"
)

// ProjectRepository defines data access for projects
type ProjectRepository interface {
	Create(ctx context.Context, project *chat.Project) error

	// GetByID retrieves a project scoped to its owner
	// Returns domain.ErrNotFound if not found
	GetByID(ctx context.Context, id, userID string) (*chat.Project, error)

	// List retrieves visible projects, ordered by updated_at DESC
	List(ctx context.Context, userID string) ([]chat.Project, error)

	// Update writes name, system prompt, hidden flag and updated_at
	Update(ctx context.Context, project *chat.Project) error
}
