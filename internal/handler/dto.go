package handler

import (
	"time"

	"github.com/aryan0dhankhar/vendoronboard/internal/domain"
)

// VendorResponse is the vendor as shown to its business
type VendorResponse struct {
	ID          string     `json:"id"`
	BusinessID  string     `json:"business_id"`
	CompanyName string     `json:"company_name"`
	Email       string     `json:"email"`
	Status      string     `json:"status"`
	StatusLabel string     `json:"status_label"`
	InvitedAt   time.Time  `json:"invited_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
}

// DocumentResponse is one uploaded document
type DocumentResponse struct {
	ID           string    `json:"id"`
	DocumentType string    `json:"document_type"`
	Label        string    `json:"label"`
	FileName     string    `json:"file_name"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// SlotResponse is one required document slot, uploaded or not
type SlotResponse struct {
	DocumentType string            `json:"document_type"`
	Label        string            `json:"label"`
	Uploaded     bool              `json:"uploaded"`
	Document     *DocumentResponse `json:"document,omitempty"`
}

// CompletenessResponse lists the missing document types
type CompletenessResponse struct {
	IsComplete bool     `json:"is_complete"`
	Missing    []string `json:"missing"`
}

func toVendorResponse(v *domain.Vendor) VendorResponse {
	return VendorResponse{
		ID:          v.ID,
		BusinessID:  v.BusinessID,
		CompanyName: v.CompanyName,
		Email:       v.Email,
		Status:      string(v.Status),
		StatusLabel: v.Status.Label(),
		InvitedAt:   v.InvitedAt,
		CompletedAt: v.CompletedAt,
		ApprovedAt:  v.ApprovedAt,
	}
}

func toDocumentResponse(d *domain.Document) *DocumentResponse {
	return &DocumentResponse{
		ID:           d.ID,
		DocumentType: string(d.DocumentType),
		Label:        d.DocumentType.Label(),
		FileName:     d.FileName,
		UploadedAt:   d.UploadedAt,
	}
}

// toSlots renders the required documents in their fixed order
func toSlots(docs []*domain.Document) []SlotResponse {
	byType := make(map[domain.DocumentType]*domain.Document, len(docs))
	for _, d := range docs {
		byType[d.DocumentType] = d
	}
	slots := make([]SlotResponse, 0, len(domain.RequiredDocumentTypes))
	for _, t := range domain.RequiredDocumentTypes {
		slot := SlotResponse{DocumentType: string(t), Label: t.Label()}
		if d, ok := byType[t]; ok {
			slot.Uploaded = true
			slot.Document = toDocumentResponse(d)
		}
		slots = append(slots, slot)
	}
	return slots
}

func toCompletenessResponse(c domain.Completeness) CompletenessResponse {
	missing := make([]string, len(c.Missing))
	for i, t := range c.Missing {
		missing[i] = string(t)
	}
	return CompletenessResponse{IsComplete: c.IsComplete, Missing: missing}
}
