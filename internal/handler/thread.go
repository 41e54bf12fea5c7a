package handler

import (
	"log/slog"
	"net/http"

	"maimai/internal/domain/models/chat"
	chatSvc "maimai/internal/domain/services/chat"
	"maimai/internal/httputil"
)

// ThreadHandler handles thread and message HTTP requests
type ThreadHandler struct {
	threads  chatSvc.ThreadService
	messages chatSvc.MessageService
	logger   *slog.Logger
}

// NewThreadHandler creates a new thread handler
func NewThreadHandler(threads chatSvc.ThreadService, messages chatSvc.MessageService, logger *slog.Logger) *ThreadHandler {
	return &ThreadHandler{
		threads:  threads,
		messages: messages,
		logger:   logger,
	}
}

// CreateThread creates an empty thread
// POST /api/threads
func (h *ThreadHandler) CreateThread(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	var req chatSvc.CreateThreadRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.UserID = userID

	thread, err := h.threads.CreateThread(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, thread)
}

// ListThreads lists the user's threads, newest first
// GET /api/threads?project_id=:id&include_hidden=true
func (h *ThreadHandler) ListThreads(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	opts := chat.ThreadListOptions{IncludeHidden: QueryBool(r, "include_hidden")}
	if projectID := r.URL.Query().Get("project_id"); projectID != "" {
		opts.ProjectID = &projectID
	}

	threads, err := h.threads.ListThreads(r.Context(), userID, opts)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, threads)
}

// GetThread returns a thread with its messages
// GET /api/threads/{id}
func (h *ThreadHandler) GetThread(w http.ResponseWriter, r *http.Request) {
	threadID, ok := IDParam(w, r, "id", "Thread ID")
	if !ok {
		return
	}

	thread, err := h.threads.GetThread(r.Context(), threadID, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, thread)
}

// UpdateThread renames, moves, re-prompts or unhides a thread
// PATCH /api/threads/{id}
func (h *ThreadHandler) UpdateThread(w http.ResponseWriter, r *http.Request) {
	threadID, ok := IDParam(w, r, "id", "Thread ID")
	if !ok {
		return
	}

	var req chatSvc.UpdateThreadRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	thread, err := h.threads.UpdateThread(r.Context(), threadID, httputil.GetUserID(r), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, thread)
}

// HideThread soft-deletes a thread
// DELETE /api/threads/{id}
func (h *ThreadHandler) HideThread(w http.ResponseWriter, r *http.Request) {
	threadID, ok := IDParam(w, r, "id", "Thread ID")
	if !ok {
		return
	}

	thread, err := h.threads.HideThread(r.Context(), threadID, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, thread)
}

// SendMessage sends a message to an existing thread
// POST /api/threads/{id}/messages
func (h *ThreadHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	threadID, ok := IDParam(w, r, "id", "Thread ID")
	if !ok {
		return
	}
	h.send(w, r, threadID)
}

// StartConversation sends the first message of a new thread
// POST /api/messages
func (h *ThreadHandler) StartConversation(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, "")
}

// send returns 200 when the client must confirm an image request, 201 once
// messages were persisted
func (h *ThreadHandler) send(w http.ResponseWriter, r *http.Request, threadID string) {
	var req chatSvc.SendMessageRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.UserID = httputil.GetUserID(r)
	if threadID != "" {
		req.ThreadID = threadID
	}

	result, err := h.messages.SendMessage(r.Context(), &req)
	if err != nil {
		h.logger.Debug("send failed", "thread_id", req.ThreadID, "user_id", req.UserID, "error", err)
		handleError(w, err)
		return
	}

	if result.RequiresConfirmation {
		httputil.RespondJSON(w, http.StatusOK, result)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, result)
}
