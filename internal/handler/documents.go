package handler

import (
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/aryan0dhankhar/vendoronboard/internal/service"
	"github.com/go-chi/chi/v5"
)

// DocumentHandler streams stored documents to their business
type DocumentHandler struct {
	onboarding *service.OnboardingService
	logger     *slog.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(onboarding *service.OnboardingService, logger *slog.Logger) *DocumentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentHandler{onboarding: onboarding, logger: logger}
}

// Download handles GET /api/documents/{id}/download
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	doc, rc, err := h.onboarding.OpenDocument(r.Context(), identityFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(filepath.Ext(doc.FileRef))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.FileName}))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, no-store")
	w.WriteHeader(http.StatusOK)

	n, err := io.Copy(w, rc)
	if err != nil {
		h.logger.Error("failed to stream document",
			slog.String("document_id", doc.ID),
			slog.String("bytes_written", strconv.FormatInt(n, 10)),
			slog.String("error", err.Error()),
		)
	}
}
