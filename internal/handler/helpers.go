package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"maimai/internal/domain"
	"maimai/internal/httputil"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, err error) {
	var (
		conflictErr *domain.ConflictError
		creditsErr  *domain.InsufficientCreditsError
		providerErr *domain.ProviderError
		maxBytesErr *http.MaxBytesError
	)

	switch {
	case errors.As(err, &creditsErr):
		httputil.RespondErrorWithExtras(w, http.StatusPaymentRequired, creditsErr.Error(), map[string]interface{}{
			"balance":  creditsErr.Balance,
			"required": creditsErr.Required,
		})
	case errors.As(err, &providerErr):
		httputil.RespondErrorWithExtras(w, providerErr.StatusCode(), providerErr.Message, map[string]interface{}{
			"code":     providerErr.Code,
			"provider": providerErr.Provider,
		})
	case errors.As(err, &conflictErr):
		extras := map[string]interface{}{}
		if conflictErr.ResourceID != "" {
			extras["resource_id"] = conflictErr.ResourceID
		}
		if conflictErr.ResourceType != "" {
			extras["resource_type"] = conflictErr.ResourceType
		}
		httputil.RespondErrorWithExtras(w, http.StatusConflict, conflictErr.Error(), extras)
	case errors.Is(err, domain.ErrSendInProgress):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	case errors.As(err, &maxBytesErr):
		httputil.RespondError(w, http.StatusRequestEntityTooLarge, "request body too large")
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	default:
		slog.Error("unhandled error", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// HandleCreateConflict handles conflicts during creation by returning the existing resource with 409.
// If the error is a ConflictError, it calls fetchFn with the existing resource id.
func HandleCreateConflict[T any](w http.ResponseWriter, err error, fetchFn func(id string) (*T, error)) {
	var conflictErr *domain.ConflictError
	if errors.As(err, &conflictErr) && conflictErr.ResourceID != "" {
		existing, fetchErr := fetchFn(conflictErr.ResourceID)
		if fetchErr != nil {
			handleError(w, fetchErr)
			return
		}

		httputil.RespondJSON(w, http.StatusConflict, existing)
		return
	}

	handleError(w, err)
}

// PathParam reads a required path value, writing a 400 when it is missing
func PathParam(w http.ResponseWriter, r *http.Request, name, label string) (string, bool) {
	value := r.PathValue(name)
	if value == "" {
		httputil.RespondError(w, http.StatusBadRequest, label+" is required")
		return "", false
	}
	return value, true
}

// IDParam reads a required UUID path value
func IDParam(w http.ResponseWriter, r *http.Request, name, label string) (string, bool) {
	value, ok := PathParam(w, r, name, label)
	if !ok {
		return "", false
	}
	if _, err := uuid.Parse(value); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid "+label+" format")
		return "", false
	}
	return value, true
}

// QueryInt parses an optional integer query parameter.
// Returns def when absent, false (after writing a 400) when malformed.
func QueryInt(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		httputil.RespondError(w, http.StatusBadRequest, name+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}

// QueryBool parses an optional boolean query parameter
func QueryBool(r *http.Request, name string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return b
}

// HealthCheck is the unauthenticated liveness probe
// GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
