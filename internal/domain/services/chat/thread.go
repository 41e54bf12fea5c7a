package chat

import (
	"context"

	"maimai/internal/domain/models/chat"
	"maimai/internal/httputil"
)

// ThreadService manages threads
type ThreadService interface {
	CreateThread(ctx context.Context, req *CreateThreadRequest) (*chat.Thread, error)

	// GetThread returns the thread with its messages in order
	GetThread(ctx context.Context, threadID, userID string) (*chat.Thread, error)

	ListThreads(ctx context.Context, userID string, opts chat.ThreadListOptions) ([]chat.Thread, error)

	// UpdateThread applies PATCH semantics (absent fields unchanged)
	UpdateThread(ctx context.Context, threadID, userID string, req *UpdateThreadRequest) (*chat.Thread, error)

	// HideThread soft-deletes a thread
	HideThread(ctx context.Context, threadID, userID string) (*chat.Thread, error)
}

// CreateThreadRequest is the DTO for creating a thread
type CreateThreadRequest struct {
	UserID       string  `json:"-"`
	Title        string  `json:"title"`
	ProjectID    *string `json:"project_id,omitempty"`
	SystemPrompt *string `json:"system_prompt,omitempty"`
}

// UpdateThreadRequest is the DTO for PATCH /api/threads/{id}
type UpdateThreadRequest struct {
	Title        *string                 `json:"title,omitempty"`
	ProjectID    httputil.OptionalString `json:"project_id"`
	SystemPrompt httputil.OptionalString `json:"system_prompt"`
	Hidden       *bool                   `json:"hidden,omitempty"`
}

// ProjectService manages projects
type ProjectService interface {
	CreateProject(ctx context.Context, req *CreateProjectRequest) (*chat.Project, error)
	GetProject(ctx context.Context, id, userID string) (*chat.Project, error)
	ListProjects(ctx context.Context, userID string) ([]chat.Project, error)
	UpdateProject(ctx context.Context, id, userID string, req *UpdateProjectRequest) (*chat.Project, error)
	HideProject(ctx context.Context, id, userID string) (*chat.Project, error)
}

// CreateProjectRequest is the DTO for creating a project
type CreateProjectRequest struct {
	UserID       string  `json:"-"`
	Name         string  `json:"name"`
	SystemPrompt *string `json:"system_prompt,omitempty"`
}

// UpdateProjectRequest is the DTO for PATCH /api/projects/{id}
type UpdateProjectRequest struct {
	Name         *string                 `json:"name,omitempty"`
	SystemPrompt httputil.OptionalString `json:"system_prompt"`
}
