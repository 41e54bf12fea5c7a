package social

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"maimai/internal/config"
	"maimai/internal/domain"
	"maimai/internal/domain/models/social"
	chatRepo "maimai/internal/domain/repositories/chat"
	socialRepo "maimai/internal/domain/repositories/social"
	socialSvc "maimai/internal/domain/services/social"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Service implements socialSvc.Service
type Service struct {
	posts     socialRepo.PostRepository
	messages  chatRepo.MessageRepository
	publisher socialSvc.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a social posting service
func NewService(
	posts socialRepo.PostRepository,
	messages chatRepo.MessageRepository,
	publisher socialSvc.Publisher,
	logger *slog.Logger,
) *Service {
	return &Service{
		posts:     posts,
		messages:  messages,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

var _ socialSvc.Service = (*Service)(nil)

// Publish posts to the page and records the remote id. When MessageID is
// set the message's content is shared instead of Content.
func (s *Service) Publish(ctx context.Context, req *socialSvc.PublishRequest) (*social.Post, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.PageID, validation.Required),
		validation.Field(&req.PageToken, validation.Required),
		validation.Field(&req.Content, validation.RuneLength(0, config.MaxSocialPostLength)),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	content := strings.TrimSpace(req.Content)
	if req.MessageID != nil && *req.MessageID != "" {
		msg, err := s.messages.GetByID(ctx, *req.MessageID, req.UserID)
		if err != nil {
			return nil, err
		}
		content = strings.TrimSpace(msg.Content)
	}
	if content == "" {
		return nil, fmt.Errorf("%w: content or message_id is required", domain.ErrValidation)
	}
	if len([]rune(content)) > config.MaxSocialPostLength {
		return nil, fmt.Errorf("%w: post exceeds %d characters", domain.ErrValidation, config.MaxSocialPostLength)
	}

	remoteID, err := s.publisher.PublishToPage(ctx, req.PageID, req.PageToken, content, req.Link)
	if err != nil {
		return nil, err
	}

	post := &social.Post{
		UserID:       req.UserID,
		PageID:       req.PageID,
		RemotePostID: remoteID,
		MessageID:    req.MessageID,
		Content:      content,
		Link:         req.Link,
		CreatedAt:    s.now(),
	}
	if err := s.posts.Create(ctx, post); err != nil {
		// the post is live remotely; keep the id in the log so it can be reconciled
		s.logger.Error("failed to record published post",
			"remote_post_id", remoteID,
			"page_id", req.PageID,
			"error", err,
		)
		return nil, err
	}

	s.logger.Info("post published",
		"post_id", post.ID,
		"page_id", req.PageID,
		"user_id", req.UserID,
	)

	return post, nil
}

// ListPosts returns the user's newest posts
func (s *Service) ListPosts(ctx context.Context, userID string, limit int) ([]social.Post, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.posts.List(ctx, userID, min(limit, maxListLimit))
}
