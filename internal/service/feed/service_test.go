package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"maimai/internal/domain"
	"maimai/internal/domain/models/feed"
	feedSvc "maimai/internal/domain/services/feed"
)

type fakeRepo struct {
	mu      sync.Mutex
	seq     int
	feeds   map[string]*feed.Feed
	items   map[string][]feed.Item
	fetched map[string]time.Time
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		feeds:   map[string]*feed.Feed{},
		items:   map[string][]feed.Item{},
		fetched: map[string]time.Time{},
	}
}

func (r *fakeRepo) Create(_ context.Context, f *feed.Feed) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.feeds {
		if existing.UserID == f.UserID && existing.URL == f.URL {
			return &domain.ConflictError{Message: "feed exists", ResourceType: "feed", ResourceID: existing.ID}
		}
	}
	r.seq++
	f.ID = fmt.Sprintf("feed-%d", r.seq)
	cp := *f
	r.feeds[f.ID] = &cp
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, feedID, userID string) (*feed.Feed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.feeds[feedID]
	if !ok || f.UserID != userID {
		return nil, domain.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (r *fakeRepo) List(_ context.Context, userID string) ([]feed.Feed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []feed.Feed
	for _, f := range r.feeds {
		if f.UserID == userID {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeRepo) Delete(_ context.Context, feedID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.feeds[feedID]
	if !ok || f.UserID != userID {
		return domain.ErrNotFound
	}
	delete(r.feeds, feedID)
	delete(r.items, feedID)
	return nil
}

func (r *fakeRepo) MarkFetched(_ context.Context, feedID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetched[feedID] = at
	return nil
}

func (r *fakeRepo) InsertItems(_ context.Context, items []feed.Item) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inserted := 0
	for _, item := range items {
		dup := false
		for _, existing := range r.items[item.FeedID] {
			if existing.GUID == item.GUID {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		r.items[item.FeedID] = append(r.items[item.FeedID], item)
		inserted++
	}
	return inserted, nil
}

func (r *fakeRepo) ListItems(_ context.Context, feedID string, limit int) ([]feed.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := r.items[feedID]
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

type fakeFetcher struct {
	mu    sync.Mutex
	feeds map[string]*feedSvc.FetchedFeed
	calls int
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*feedSvc.FetchedFeed, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	fetched, ok := f.feeds[url]
	if !ok {
		return nil, errors.New("connection refused")
	}
	cp := *fetched
	cp.Items = append([]feed.Item(nil), fetched.Items...)
	return &cp, nil
}

func newTestService() (*Service, *fakeRepo, *fakeFetcher) {
	repo := newFakeRepo()
	fetcher := &fakeFetcher{feeds: map[string]*feedSvc.FetchedFeed{
		"https://a.example/rss": {Title: "A", Items: []feed.Item{{GUID: "a1"}, {GUID: "a2"}}},
		"https://b.example/rss": {Title: "", Items: []feed.Item{{GUID: "b1"}}},
	}}
	svc := NewService(repo, fetcher, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return svc, repo, fetcher
}

func TestAddFeed(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	f, err := svc.AddFeed(ctx, "u1", " https://a.example/rss ")
	if err != nil {
		t.Fatalf("AddFeed: %v", err)
	}
	if f.Title != "A" || f.URL != "https://a.example/rss" || f.LastFetchedAt == nil {
		t.Errorf("unexpected feed %+v", f)
	}
	if len(repo.items[f.ID]) != 2 {
		t.Errorf("expected 2 stored items, got %d", len(repo.items[f.ID]))
	}
	for _, item := range repo.items[f.ID] {
		if item.FeedID != f.ID {
			t.Errorf("item not linked to feed: %+v", item)
		}
	}

	untitled, err := svc.AddFeed(ctx, "u1", "https://b.example/rss")
	if err != nil {
		t.Fatalf("AddFeed: %v", err)
	}
	if untitled.Title != "https://b.example/rss" {
		t.Errorf("title should default to url, got %q", untitled.Title)
	}

	if _, err := svc.AddFeed(ctx, "u1", "https://a.example/rss"); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestAddFeed_Validation(t *testing.T) {
	svc, _, fetcher := newTestService()

	for _, raw := range []string{"", "not a url", "ftp://a.example/rss", "/relative"} {
		t.Run(raw, func(t *testing.T) {
			if _, err := svc.AddFeed(context.Background(), "u1", raw); !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
	if fetcher.calls != 0 {
		t.Errorf("invalid urls must not be fetched, got %d calls", fetcher.calls)
	}
}

func TestRefreshFeed_IgnoresDuplicates(t *testing.T) {
	svc, repo, fetcher := newTestService()
	ctx := context.Background()

	f, err := svc.AddFeed(ctx, "u1", "https://a.example/rss")
	if err != nil {
		t.Fatal(err)
	}

	fetcher.feeds["https://a.example/rss"].Items = append(fetcher.feeds["https://a.example/rss"].Items, feed.Item{GUID: "a3"})

	result, err := svc.RefreshFeed(ctx, f.ID, "u1")
	if err != nil {
		t.Fatalf("RefreshFeed: %v", err)
	}
	if result.NewItems != 1 {
		t.Errorf("new items = %d, want 1", result.NewItems)
	}
	if _, ok := repo.fetched[f.ID]; !ok {
		t.Error("fetch time not recorded")
	}

	if _, err := svc.RefreshFeed(ctx, f.ID, "someone-else"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for other user, got %v", err)
	}
}

func TestRefreshAll_ReportsFailuresPerFeed(t *testing.T) {
	svc, _, fetcher := newTestService()
	ctx := context.Background()

	a, _ := svc.AddFeed(ctx, "u1", "https://a.example/rss")
	b, _ := svc.AddFeed(ctx, "u1", "https://b.example/rss")
	delete(fetcher.feeds, "https://b.example/rss")
	fetcher.feeds["https://a.example/rss"].Items = append(fetcher.feeds["https://a.example/rss"].Items, feed.Item{GUID: "a9"})

	results, err := svc.RefreshAll(ctx, "u1")
	if err != nil {
		t.Fatalf("RefreshAll: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	byID := map[string]feed.RefreshResult{}
	for _, r := range results {
		byID[r.FeedID] = r
	}
	if byID[a.ID].NewItems != 1 || byID[a.ID].Error != "" {
		t.Errorf("feed a result %+v", byID[a.ID])
	}
	if byID[b.ID].Error == "" {
		t.Errorf("feed b should report its failure: %+v", byID[b.ID])
	}
}

func TestListItems(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	f, _ := svc.AddFeed(ctx, "u1", "https://a.example/rss")

	items, err := svc.ListItems(ctx, f.ID, "u1", 1)
	if err != nil || len(items) != 1 {
		t.Errorf("ListItems = %d items, %v", len(items), err)
	}
	if _, err := svc.ListItems(ctx, f.ID, "u2", 0); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
