package feed

import (
	"time"
)

// Feed is an RSS or Atom source subscribed by a user
type Feed struct {
	ID            string     `json:"id" db:"id"`
	UserID        string     `json:"user_id" db:"user_id"`
	URL           string     `json:"url" db:"url"`
	Title         string     `json:"title" db:"title"`
	LastFetchedAt *time.Time `json:"last_fetched_at,omitempty" db:"last_fetched_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

// Item is a single entry of a feed. Content is markdown converted from sanitised HTML.
type Item struct {
	ID          string     `json:"id" db:"id"`
	FeedID      string     `json:"feed_id" db:"feed_id"`
	GUID        string     `json:"guid" db:"guid"`
	Title       string     `json:"title" db:"title"`
	Link        string     `json:"link" db:"link"`
	Content     string     `json:"content" db:"content"`
	PublishedAt *time.Time `json:"published_at,omitempty" db:"published_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// RefreshResult summarises one feed refresh
type RefreshResult struct {
	FeedID   string `json:"feed_id"`
	NewItems int    `json:"new_items"`
	Error    string `json:"error,omitempty"`
}
