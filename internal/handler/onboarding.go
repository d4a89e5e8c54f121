package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/vendoronboard/internal/domain"
	"github.com/aryan0dhankhar/vendoronboard/internal/service"
	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
)

// multipart overhead allowed on top of the file size limit
const multipartSlack = 1 << 20

// OnboardingHandler serves the vendor-facing, token-authenticated endpoints
type OnboardingHandler struct {
	onboarding     *service.OnboardingService
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewOnboardingHandler creates a new onboarding handler
func NewOnboardingHandler(onboarding *service.OnboardingService, maxUploadBytes int64, logger *slog.Logger) *OnboardingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnboardingHandler{onboarding: onboarding, maxUploadBytes: maxUploadBytes, logger: logger}
}

// OnboardingVendor is what the vendor sees about itself
type OnboardingVendor struct {
	CompanyName string `json:"company_name"`
	Status      string `json:"status"`
	StatusLabel string `json:"status_label"`
}

// OnboardingResponse is the state of the vendor's onboarding page
type OnboardingResponse struct {
	Vendor       OnboardingVendor     `json:"vendor"`
	Documents    []SlotResponse       `json:"documents"`
	Completeness CompletenessResponse `json:"completeness"`
	CanSubmit    bool                 `json:"can_submit"`
}

// Show handles GET /api/onboard/{token}
func (h *OnboardingHandler) Show(w http.ResponseWriter, r *http.Request) {
	vendor, err := h.onboarding.ResolveVendorByToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.writeState(w, r, vendor)
}

// Upload handles POST /api/onboard/{token}/documents/{type} with multipart field "file"
func (h *OnboardingHandler) Upload(w http.ResponseWriter, r *http.Request) {
	vendor, err := h.onboarding.ResolveVendorByToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartSlack)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, h.logger, domain.NewError(domain.KindValidation,
				"file exceeds the maximum size of "+humanize.Bytes(uint64(h.maxUploadBytes)), err))
			return
		}
		writeError(w, h.logger, domain.NewError(domain.KindValidation, "No file uploaded", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, h.logger, domain.NewError(domain.KindValidation, "failed to read upload", err))
		return
	}

	doc, err := h.onboarding.UploadDocument(r.Context(), vendor.ID, chi.URLParam(r, "type"), data, header.Filename)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, map[string]any{
		"message":  "Document uploaded successfully",
		"document": toDocumentResponse(doc),
	})
}

// Submit handles POST /api/onboard/{token}/submit
func (h *OnboardingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	vendor, err := h.onboarding.ResolveVendorByToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	updated, err := h.onboarding.SubmitForReview(r.Context(), vendor.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.writeState(w, r, updated)
}

func (h *OnboardingHandler) writeState(w http.ResponseWriter, r *http.Request, vendor *domain.Vendor) {
	docs, err := h.onboarding.ListDocuments(r.Context(), vendor.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	completeness := h.onboarding.ComputeCompleteness(docs)
	canSubmit := completeness.IsComplete &&
		(vendor.Status == domain.StatusInvited || vendor.Status == domain.StatusInProgress)

	writeJSON(w, h.logger, http.StatusOK, OnboardingResponse{
		Vendor: OnboardingVendor{
			CompanyName: vendor.CompanyName,
			Status:      string(vendor.Status),
			StatusLabel: vendor.Status.Label(),
		},
		Documents:    toSlots(docs),
		Completeness: toCompletenessResponse(completeness),
		CanSubmit:    canSubmit,
	})
}
