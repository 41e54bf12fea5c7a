package feed

import (
	"context"

	"maimai/internal/domain/models/feed"
)

// Fetcher downloads and parses a feed URL
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchedFeed, error)
}

// FetchedFeed is a parsed feed before persistence
type FetchedFeed struct {
	Title string
	Items []feed.Item
}

// Service manages feed subscriptions and ingestion
type Service interface {
	AddFeed(ctx context.Context, userID, url string) (*feed.Feed, error)
	ListFeeds(ctx context.Context, userID string) ([]feed.Feed, error)
	RemoveFeed(ctx context.Context, feedID, userID string) error
	RefreshFeed(ctx context.Context, feedID, userID string) (*feed.RefreshResult, error)

	// RefreshAll refreshes every feed of the user concurrently.
	// Individual failures are reported per feed, not returned as an error.
	RefreshAll(ctx context.Context, userID string) ([]feed.RefreshResult, error)

	ListItems(ctx context.Context, feedID, userID string, limit int) ([]feed.Item, error)
}
