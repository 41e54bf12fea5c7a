package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"maimai/internal/config"
	docSvc "maimai/internal/domain/services/document"
	"maimai/internal/httputil"
)

// multipartOverhead leaves room for form boundaries around the file part
const multipartOverhead = 1 << 20

// DocumentHandler extracts text from uploaded documents
type DocumentHandler struct {
	extractor docSvc.Extractor
	logger    *slog.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(extractor docSvc.Extractor, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{extractor: extractor, logger: logger}
}

// ExtractPDF reads the "file" part of a multipart upload
// POST /api/documents/extract
func (h *DocumentHandler) ExtractPDF(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxPDFSize+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			httputil.RespondError(w, http.StatusRequestEntityTooLarge, "file exceeds 20MB")
			return
		}
		httputil.RespondError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, config.MaxPDFSize+1))
	if err != nil {
		handleError(w, err)
		return
	}

	extraction, err := h.extractor.ExtractPDF(r.Context(), data)
	if err != nil {
		handleError(w, err)
		return
	}

	h.logger.Info("pdf extracted",
		"user_id", httputil.GetUserID(r),
		"filename", header.Filename,
		"pages", extraction.Pages,
		"characters", extraction.Characters,
	)
	httputil.RespondJSON(w, http.StatusOK, extraction)
}
