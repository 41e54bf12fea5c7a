package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"maimai/internal/config"
	"maimai/internal/domain"
	"maimai/internal/domain/models/chat"
	chatRepo "maimai/internal/domain/repositories/chat"
	chatSvc "maimai/internal/domain/services/chat"
)

// ProjectService implements chatSvc.ProjectService
type ProjectService struct {
	projectRepo chatRepo.ProjectRepository
	logger      *slog.Logger
}

// NewProjectService creates a new project service
func NewProjectService(projectRepo chatRepo.ProjectRepository, logger *slog.Logger) chatSvc.ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		logger:      logger,
	}
}

// CreateProject creates a new project
func (s *ProjectService) CreateProject(ctx context.Context, req *chatSvc.CreateProjectRequest) (*chat.Project, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.ValidateStruct(req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.Name, validation.Required, validation.RuneLength(1, config.MaxProjectNameLength)),
		validation.Field(&req.SystemPrompt, validation.RuneLength(0, config.MaxSystemPromptLength)),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	now := time.Now()
	project := &chat.Project{
		UserID:       req.UserID,
		Name:         req.Name,
		SystemPrompt: normalizePrompt(req.SystemPrompt),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, err
	}

	s.logger.Info("project created",
		"project_id", project.ID,
		"name", project.Name,
		"user_id", req.UserID,
	)

	return project, nil
}

// GetProject retrieves a project by ID
func (s *ProjectService) GetProject(ctx context.Context, id, userID string) (*chat.Project, error) {
	return s.projectRepo.GetByID(ctx, id, userID)
}

// ListProjects retrieves the user's visible projects
func (s *ProjectService) ListProjects(ctx context.Context, userID string) ([]chat.Project, error) {
	return s.projectRepo.List(ctx, userID)
}

// UpdateProject applies name and system prompt changes
func (s *ProjectService) UpdateProject(ctx context.Context, id, userID string, req *chatSvc.UpdateProjectRequest) (*chat.Project, error) {
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
	}
	if err := validation.ValidateStruct(req,
		validation.Field(&req.Name, validation.NilOrNotEmpty, validation.RuneLength(1, config.MaxProjectNameLength)),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if err := validateOptionalPrompt(req.SystemPrompt); err != nil {
		return nil, err
	}

	project, err := s.projectRepo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.SystemPrompt.Present {
		project.SystemPrompt = normalizePrompt(req.SystemPrompt.Value)
	}
	project.UpdatedAt = time.Now()

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, err
	}

	s.logger.Info("project updated",
		"project_id", id,
		"user_id", userID,
	)

	return project, nil
}

// HideProject soft-deletes a project. Its threads are left untouched.
func (s *ProjectService) HideProject(ctx context.Context, id, userID string) (*chat.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	project.Hidden = true
	project.UpdatedAt = time.Now()
	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, err
	}

	s.logger.Info("project hidden",
		"project_id", id,
		"user_id", userID,
	)

	return project, nil
}
