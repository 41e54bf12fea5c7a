package handler

import (
	"log/slog"
	"net/http"

	"maimai/internal/domain/models/chat"
	chatSvc "maimai/internal/domain/services/chat"
	"maimai/internal/httputil"
)

// ProjectHandler handles project HTTP requests
type ProjectHandler struct {
	projectService chatSvc.ProjectService
	logger         *slog.Logger
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(projectService chatSvc.ProjectService, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		logger:         logger,
	}
}

// CreateProject creates a new project
// POST /api/projects
// Returns 201 if created, 409 with the existing project if the name is taken
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	var req chatSvc.CreateProjectRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.UserID = userID

	project, err := h.projectService.CreateProject(r.Context(), &req)
	if err != nil {
		HandleCreateConflict(w, err, func(id string) (*chat.Project, error) {
			return h.projectService.GetProject(r.Context(), id, userID)
		})
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, project)
}

// ListProjects lists visible projects
// GET /api/projects
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projectService.ListProjects(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, projects)
}

// GetProject retrieves a single project
// GET /api/projects/{id}
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := IDParam(w, r, "id", "Project ID")
	if !ok {
		return
	}

	project, err := h.projectService.GetProject(r.Context(), id, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, project)
}

// UpdateProject updates name and system prompt
// PATCH /api/projects/{id}
func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := IDParam(w, r, "id", "Project ID")
	if !ok {
		return
	}

	var req chatSvc.UpdateProjectRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	project, err := h.projectService.UpdateProject(r.Context(), id, httputil.GetUserID(r), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, project)
}

// HideProject soft-deletes a project. Its threads are kept.
// DELETE /api/projects/{id}
func (h *ProjectHandler) HideProject(w http.ResponseWriter, r *http.Request) {
	id, ok := IDParam(w, r, "id", "Project ID")
	if !ok {
		return
	}

	project, err := h.projectService.HideProject(r.Context(), id, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, project)
}
