package social

import (
	"context"

	"maimai/internal/domain/models/social"
)

// PostRepository records published social posts
type PostRepository interface {
	Create(ctx context.Context, post *social.Post) error
	List(ctx context.Context, userID string, limit int) ([]social.Post, error)
}
