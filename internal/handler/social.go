package handler

import (
	"log/slog"
	"net/http"

	socialSvc "maimai/internal/domain/services/social"
	"maimai/internal/httputil"
)

// SocialHandler shares content to Facebook pages
type SocialHandler struct {
	social socialSvc.Service
	logger *slog.Logger
}

// NewSocialHandler creates a new social handler
func NewSocialHandler(social socialSvc.Service, logger *slog.Logger) *SocialHandler {
	return &SocialHandler{social: social, logger: logger}
}

// Publish posts to a page feed
// POST /api/social/posts
func (h *SocialHandler) Publish(w http.ResponseWriter, r *http.Request) {
	var req socialSvc.PublishRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.UserID = httputil.GetUserID(r)

	post, err := h.social.Publish(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, post)
}

// ListPosts lists recorded posts, newest first
// GET /api/social/posts?limit=20
func (h *SocialHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	limit, ok := QueryInt(w, r, "limit", 0)
	if !ok {
		return
	}

	posts, err := h.social.ListPosts(r.Context(), httputil.GetUserID(r), limit)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, posts)
}
