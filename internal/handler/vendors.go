package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/vendoronboard/internal/service"
	"github.com/go-chi/chi/v5"
)

// VendorHandler serves the business-facing vendor endpoints
type VendorHandler struct {
	onboarding *service.OnboardingService
	logger     *slog.Logger
}

// NewVendorHandler creates a new vendor handler
func NewVendorHandler(onboarding *service.OnboardingService, logger *slog.Logger) *VendorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &VendorHandler{onboarding: onboarding, logger: logger}
}

// InviteRequest is the body of POST /api/vendors/invite
type InviteRequest struct {
	CompanyName string `json:"company_name"`
	Email       string `json:"email"`
}

// InviteResponse keeps the field names the dashboard already consumes
type InviteResponse struct {
	Message    string         `json:"message"`
	Vendor     VendorResponse `json:"vendor"`
	InviteLink string         `json:"inviteLink"`
}

// VendorDetailResponse is a vendor with its document slots
type VendorDetailResponse struct {
	Vendor       VendorResponse       `json:"vendor"`
	InviteLink   string               `json:"invite_link"`
	Documents    []SlotResponse       `json:"documents"`
	Completeness CompletenessResponse `json:"completeness"`
}

// Invite handles POST /api/vendors/invite
func (h *VendorHandler) Invite(w http.ResponseWriter, r *http.Request) {
	var req InviteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := h.onboarding.Invite(r.Context(), identityFrom(r), req.CompanyName, req.Email)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, InviteResponse{
		Message:    "Vendor invited successfully",
		Vendor:     toVendorResponse(result.Vendor),
		InviteLink: result.InviteLink,
	})
}

// List handles GET /api/vendors
func (h *VendorHandler) List(w http.ResponseWriter, r *http.Request) {
	vendors, err := h.onboarding.ListVendors(r.Context(), identityFrom(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	out := make([]VendorResponse, 0, len(vendors))
	for _, v := range vendors {
		out = append(out, toVendorResponse(v))
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"vendors": out})
}

// Detail handles GET /api/vendors/{id}
func (h *VendorHandler) Detail(w http.ResponseWriter, r *http.Request) {
	detail, err := h.onboarding.GetVendorDetail(r.Context(), identityFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, VendorDetailResponse{
		Vendor:       toVendorResponse(detail.Vendor),
		InviteLink:   h.onboarding.InviteLink(detail.Vendor.InviteToken),
		Documents:    toSlots(detail.Documents),
		Completeness: toCompletenessResponse(detail.Completeness),
	})
}

// Approve handles POST /api/vendors/{id}/approve
func (h *VendorHandler) Approve(w http.ResponseWriter, r *http.Request) {
	vendor, err := h.onboarding.ApproveVendor(r.Context(), identityFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{
		"message": "Vendor approved",
		"vendor":  toVendorResponse(vendor),
	})
}
