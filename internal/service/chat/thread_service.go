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
	"maimai/internal/httputil"
)

// ThreadService implements chatSvc.ThreadService
type ThreadService struct {
	threadRepo  chatRepo.ThreadRepository
	messageRepo chatRepo.MessageRepository
	projectRepo chatRepo.ProjectRepository
	logger      *slog.Logger
}

// NewThreadService creates a new thread service
func NewThreadService(
	threadRepo chatRepo.ThreadRepository,
	messageRepo chatRepo.MessageRepository,
	projectRepo chatRepo.ProjectRepository,
	logger *slog.Logger,
) chatSvc.ThreadService {
	return &ThreadService{
		threadRepo:  threadRepo,
		messageRepo: messageRepo,
		projectRepo: projectRepo,
		logger:      logger,
	}
}

// CreateThread creates an empty thread, optionally inside a project
func (s *ThreadService) CreateThread(ctx context.Context, req *chatSvc.CreateThreadRequest) (*chat.Thread, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.Title, validation.RuneLength(0, config.MaxThreadTitleLength)),
		validation.Field(&req.SystemPrompt, validation.RuneLength(0, config.MaxSystemPromptLength)),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if req.ProjectID != nil {
		if _, err := s.projectRepo.GetByID(ctx, *req.ProjectID, req.UserID); err != nil {
			return nil, err
		}
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "New thread"
	}

	now := time.Now()
	thread := &chat.Thread{
		UserID:       req.UserID,
		ProjectID:    req.ProjectID,
		Title:        title,
		SystemPrompt: normalizePrompt(req.SystemPrompt),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.threadRepo.Create(ctx, thread); err != nil {
		return nil, err
	}

	s.logger.Info("thread created",
		"thread_id", thread.ID,
		"user_id", req.UserID,
	)

	return thread, nil
}

// GetThread returns the thread with its messages in chronological order
func (s *ThreadService) GetThread(ctx context.Context, threadID, userID string) (*chat.Thread, error) {
	thread, err := s.threadRepo.GetByID(ctx, threadID, userID)
	if err != nil {
		return nil, err
	}

	messages, err := s.messageRepo.ListByThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	thread.Messages = messages

	return thread, nil
}

// ListThreads returns the user's threads, newest first
func (s *ThreadService) ListThreads(ctx context.Context, userID string, opts chat.ThreadListOptions) ([]chat.Thread, error) {
	return s.threadRepo.List(ctx, userID, opts)
}

// UpdateThread renames, moves, re-prompts or hides a thread
func (s *ThreadService) UpdateThread(ctx context.Context, threadID, userID string, req *chatSvc.UpdateThreadRequest) (*chat.Thread, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.Title, validation.NilOrNotEmpty, validation.RuneLength(1, config.MaxThreadTitleLength)),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if err := validateOptionalPrompt(req.SystemPrompt); err != nil {
		return nil, err
	}

	thread, err := s.threadRepo.GetByID(ctx, threadID, userID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title: cannot be blank", domain.ErrValidation)
		}
		thread.Title = title
	}

	if req.ProjectID.Present {
		if req.ProjectID.Value == nil || *req.ProjectID.Value == "" {
			thread.ProjectID = nil
		} else {
			if _, err := s.projectRepo.GetByID(ctx, *req.ProjectID.Value, userID); err != nil {
				return nil, err
			}
			projectID := *req.ProjectID.Value
			thread.ProjectID = &projectID
		}
	}

	if req.SystemPrompt.Present {
		thread.SystemPrompt = normalizePrompt(req.SystemPrompt.Value)
	}

	if req.Hidden != nil {
		thread.Hidden = *req.Hidden
	}

	thread.UpdatedAt = time.Now()
	if err := s.threadRepo.Update(ctx, thread); err != nil {
		return nil, err
	}

	s.logger.Info("thread updated",
		"thread_id", threadID,
		"user_id", userID,
	)

	return thread, nil
}

// HideThread soft-deletes a thread
func (s *ThreadService) HideThread(ctx context.Context, threadID, userID string) (*chat.Thread, error) {
	hidden := true
	return s.UpdateThread(ctx, threadID, userID, &chatSvc.UpdateThreadRequest{Hidden: &hidden})
}

// normalizePrompt maps blank prompts to nil
func normalizePrompt(prompt *string) *string {
	if prompt == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*prompt)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func validateOptionalPrompt(prompt httputil.OptionalString) error {
	if !prompt.Present || prompt.Value == nil {
		return nil
	}
	if err := validation.Validate(*prompt.Value, validation.RuneLength(0, config.MaxSystemPromptLength)); err != nil {
		return fmt.Errorf("%w: system_prompt: %v", domain.ErrValidation, err)
	}
	return nil
}
