package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/sync/errgroup"

	"maimai/internal/domain"
	"maimai/internal/domain/models/feed"
	feedRepo "maimai/internal/domain/repositories/feed"
	feedSvc "maimai/internal/domain/services/feed"
)

const (
	// refreshConcurrency bounds concurrent downloads in RefreshAll
	refreshConcurrency = 4

	defaultItemLimit = 50
	maxItemLimit     = 200
)

// Service implements feedSvc.Service
type Service struct {
	repo    feedRepo.FeedRepository
	fetcher feedSvc.Fetcher
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates a feed service
func NewService(repo feedRepo.FeedRepository, fetcher feedSvc.Fetcher, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		fetcher: fetcher,
		logger:  logger,
		now:     time.Now,
	}
}

var _ feedSvc.Service = (*Service)(nil)

// AddFeed validates the url by fetching it, then stores the feed with its
// current items.
func (s *Service) AddFeed(ctx context.Context, userID, rawURL string) (*feed.Feed, error) {
	rawURL = strings.TrimSpace(rawURL)
	if err := validation.Validate(rawURL, validation.Required, validation.By(httpURL)); err != nil {
		return nil, fmt.Errorf("%w: url: %v", domain.ErrValidation, err)
	}

	fetched, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	title := fetched.Title
	if title == "" {
		title = rawURL
	}
	now := s.now()
	f := &feed.Feed{
		UserID:        userID,
		URL:           rawURL,
		Title:         title,
		LastFetchedAt: &now,
		CreatedAt:     now,
	}
	if err := s.repo.Create(ctx, f); err != nil {
		return nil, err
	}

	inserted, err := s.storeItems(ctx, f.ID, fetched.Items)
	if err != nil {
		return nil, err
	}

	s.logger.Info("feed added",
		"feed_id", f.ID,
		"user_id", userID,
		"items", inserted,
	)

	return f, nil
}

// ListFeeds returns the user's subscriptions
func (s *Service) ListFeeds(ctx context.Context, userID string) ([]feed.Feed, error) {
	return s.repo.List(ctx, userID)
}

// RemoveFeed deletes a subscription and its items
func (s *Service) RemoveFeed(ctx context.Context, feedID, userID string) error {
	if err := s.repo.Delete(ctx, feedID, userID); err != nil {
		return err
	}
	s.logger.Info("feed removed", "feed_id", feedID, "user_id", userID)
	return nil
}

// RefreshFeed fetches one feed and stores unseen items
func (s *Service) RefreshFeed(ctx context.Context, feedID, userID string) (*feed.RefreshResult, error) {
	f, err := s.repo.GetByID(ctx, feedID, userID)
	if err != nil {
		return nil, err
	}
	return s.refresh(ctx, f)
}

// RefreshAll refreshes the user's feeds concurrently. A failing feed is
// reported in its result and does not stop the others.
func (s *Service) RefreshAll(ctx context.Context, userID string) ([]feed.RefreshResult, error) {
	feeds, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	results := make([]feed.RefreshResult, len(feeds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(refreshConcurrency)
	for i := range feeds {
		g.Go(func() error {
			result, err := s.refresh(gctx, &feeds[i])
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				results[i] = feed.RefreshResult{FeedID: feeds[i].ID, Error: err.Error()}
				return nil
			}
			results[i] = *result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// ListItems returns the newest items of a feed owned by the user
func (s *Service) ListItems(ctx context.Context, feedID, userID string, limit int) ([]feed.Item, error) {
	if _, err := s.repo.GetByID(ctx, feedID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultItemLimit
	}
	return s.repo.ListItems(ctx, feedID, min(limit, maxItemLimit))
}

func (s *Service) refresh(ctx context.Context, f *feed.Feed) (*feed.RefreshResult, error) {
	fetched, err := s.fetcher.Fetch(ctx, f.URL)
	if err != nil {
		s.logger.Warn("feed refresh failed", "feed_id", f.ID, "url", f.URL, "error", err)
		return nil, err
	}

	inserted, err := s.storeItems(ctx, f.ID, fetched.Items)
	if err != nil {
		return nil, err
	}
	if err := s.repo.MarkFetched(ctx, f.ID, s.now()); err != nil {
		return nil, err
	}

	s.logger.Debug("feed refreshed", "feed_id", f.ID, "new_items", inserted)
	return &feed.RefreshResult{FeedID: f.ID, NewItems: inserted}, nil
}

func (s *Service) storeItems(ctx context.Context, feedID string, items []feed.Item) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	now := s.now()
	for i := range items {
		items[i].FeedID = feedID
		items[i].CreatedAt = now
	}
	return s.repo.InsertItems(ctx, items)
}

// httpURL accepts absolute http(s) urls with a host
func httpURL(value interface{}) error {
	raw, _ := value.(string)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.New("must be an absolute http or https url")
	}
	return nil
}
