package feed

import (
	"context"
	"time"

	"maimai/internal/domain/models/feed"
)

// FeedRepository defines data access for feeds and their items
type FeedRepository interface {
	// Create inserts a feed; duplicate (user, url) yields *domain.ConflictError
	Create(ctx context.Context, f *feed.Feed) error
	GetByID(ctx context.Context, feedID, userID string) (*feed.Feed, error)
	List(ctx context.Context, userID string) ([]feed.Feed, error)
	Delete(ctx context.Context, feedID, userID string) error
	MarkFetched(ctx context.Context, feedID string, at time.Time) error

	// InsertItems stores items, ignoring GUIDs already present. Returns inserted count.
	InsertItems(ctx context.Context, items []feed.Item) (int, error)

	// ListItems returns newest items first
	ListItems(ctx context.Context, feedID string, limit int) ([]feed.Item, error)
}
