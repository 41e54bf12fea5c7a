package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"maimai/internal/domain"
	"maimai/internal/domain/models/feed"
	feedSvc "maimai/internal/domain/services/feed"
)

const (
	// DefaultFetchTimeout bounds one feed download
	DefaultFetchTimeout = 20 * time.Second

	// maxFeedBytes caps how much of a feed document is read
	maxFeedBytes = 10 << 20

	userAgent = "MaiMai-FeedReader/1.0"
)

// HTTPFetcher downloads feeds over HTTP and parses RSS, Atom and JSON feeds
type HTTPFetcher struct {
	httpClient *http.Client
	content    *contentConverter
}

// NewHTTPFetcher creates a fetcher. A nil client gets DefaultFetchTimeout.
func NewHTTPFetcher(httpClient *http.Client) *HTTPFetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultFetchTimeout}
	}
	return &HTTPFetcher{
		httpClient: httpClient,
		content:    newContentConverter(),
	}
}

var _ feedSvc.Fetcher = (*HTTPFetcher)(nil)

// Fetch downloads url and returns its title and items.
// Item content prefers the full content over the description.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*feedSvc.FetchedFeed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid feed url: %v", domain.ErrValidation, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/feed+json, application/xml;q=0.9, */*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch feed: unexpected status %d", resp.StatusCode)
	}

	parsed, err := gofeed.NewParser().Parse(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: not a valid feed: %v", domain.ErrValidation, err)
	}

	fetched := &feedSvc.FetchedFeed{
		Title: strings.TrimSpace(parsed.Title),
		Items: make([]feed.Item, 0, len(parsed.Items)),
	}
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		converted, err := f.convertItem(item)
		if err != nil {
			return nil, err
		}
		if converted.GUID == "" {
			continue
		}
		fetched.Items = append(fetched.Items, converted)
	}

	return fetched, nil
}

func (f *HTTPFetcher) convertItem(item *gofeed.Item) (feed.Item, error) {
	html := item.Content
	if strings.TrimSpace(html) == "" {
		html = item.Description
	}
	content, err := f.content.Convert(html)
	if err != nil {
		return feed.Item{}, err
	}

	// items without a guid fall back to their link
	guid := strings.TrimSpace(item.GUID)
	if guid == "" {
		guid = strings.TrimSpace(item.Link)
	}

	published := item.PublishedParsed
	if published == nil {
		published = item.UpdatedParsed
	}

	return feed.Item{
		GUID:        guid,
		Title:       strings.TrimSpace(item.Title),
		Link:        strings.TrimSpace(item.Link),
		Content:     content,
		PublishedAt: published,
	}, nil
}
