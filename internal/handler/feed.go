package handler

import (
	"log/slog"
	"net/http"

	feedSvc "maimai/internal/domain/services/feed"
	"maimai/internal/httputil"
)

// FeedHandler handles RSS subscription requests
type FeedHandler struct {
	feeds  feedSvc.Service
	logger *slog.Logger
}

// NewFeedHandler creates a new feed handler
func NewFeedHandler(feeds feedSvc.Service, logger *slog.Logger) *FeedHandler {
	return &FeedHandler{feeds: feeds, logger: logger}
}

// AddFeed subscribes to a feed URL
// POST /api/feeds
func (h *FeedHandler) AddFeed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	feed, err := h.feeds.AddFeed(r.Context(), httputil.GetUserID(r), req.URL)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, feed)
}

// ListFeeds lists subscriptions
// GET /api/feeds
func (h *FeedHandler) ListFeeds(w http.ResponseWriter, r *http.Request) {
	feeds, err := h.feeds.ListFeeds(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, feeds)
}

// RemoveFeed deletes a subscription and its items
// DELETE /api/feeds/{id}
func (h *FeedHandler) RemoveFeed(w http.ResponseWriter, r *http.Request) {
	feedID, ok := IDParam(w, r, "id", "Feed ID")
	if !ok {
		return
	}

	if err := h.feeds.RemoveFeed(r.Context(), feedID, httputil.GetUserID(r)); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RefreshFeed fetches new items for one feed
// POST /api/feeds/{id}/refresh
func (h *FeedHandler) RefreshFeed(w http.ResponseWriter, r *http.Request) {
	feedID, ok := IDParam(w, r, "id", "Feed ID")
	if !ok {
		return
	}

	result, err := h.feeds.RefreshFeed(r.Context(), feedID, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// RefreshAll refreshes every feed; failures are reported per feed
// POST /api/feeds/refresh
func (h *FeedHandler) RefreshAll(w http.ResponseWriter, r *http.Request) {
	results, err := h.feeds.RefreshAll(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, results)
}

// ListItems lists the newest items of a feed
// GET /api/feeds/{id}/items?limit=50
func (h *FeedHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	feedID, ok := IDParam(w, r, "id", "Feed ID")
	if !ok {
		return
	}
	limit, ok := QueryInt(w, r, "limit", 0)
	if !ok {
		return
	}

	items, err := h.feeds.ListItems(r.Context(), feedID, httputil.GetUserID(r), limit)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, items)
}
