package service

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aryan0dhankhar/vendoronboard/internal/domain"
	"github.com/aryan0dhankhar/vendoronboard/internal/observability/metrics"
	"github.com/aryan0dhankhar/vendoronboard/internal/observability/tracing"
	"github.com/aryan0dhankhar/vendoronboard/internal/security/auth"
	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel/attribute"
)

// ResolveVendorByToken is the only authorization check on the vendor-facing flow
func (s *OnboardingService) ResolveVendorByToken(ctx context.Context, token string) (*domain.Vendor, error) {
	if !auth.LooksLikeInviteToken(token) {
		return nil, domain.NewError(domain.KindNotFound, "Invalid onboarding link", nil)
	}
	vendor, err := s.vendors.GetByInviteToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewError(domain.KindNotFound, "Invalid onboarding link", nil)
		}
		return nil, err
	}
	return vendor, nil
}

// ListDocuments returns the uploaded documents of a vendor
func (s *OnboardingService) ListDocuments(ctx context.Context, vendorID string) ([]*domain.Document, error) {
	return s.documents.ListByVendor(ctx, vendorID)
}

// ComputeCompleteness reports which required documents are still missing
func (s *OnboardingService) ComputeCompleteness(docs []*domain.Document) domain.Completeness {
	return domain.ComputeCompleteness(docs)
}

// UploadDocument stores one document for a vendor, replacing any previous
// upload of the same type. The blob is written before the metadata row, so a
// failed storage write leaves no metadata behind. A replaced blob under another
// extension is left for the reconciliation sweep, which only removes blobs no
// row references. The first upload moves an invited vendor to in_progress.
func (s *OnboardingService) UploadDocument(ctx context.Context, vendorID, rawType string, data []byte, fileName string) (doc *domain.Document, err error) {
	ctx, span := tracing.Start(ctx, "onboarding.upload",
		attribute.String("vendor.id", vendorID),
		attribute.String("document.type", rawType),
	)
	defer func() { tracing.End(span, err) }()

	docType, err := domain.ParseDocumentType(rawType)
	if err != nil {
		metrics.ObserveUpload("unknown", "invalid", 0)
		return nil, err
	}
	ext, err := s.validateUpload(data, fileName)
	if err != nil {
		metrics.ObserveUpload(string(docType), "invalid", 0)
		return nil, err
	}

	vendor, err := s.vendors.GetByID(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if s.config.RejectLateReupload && (vendor.Status == domain.StatusComplete || vendor.Status == domain.StatusApproved) {
		metrics.ObserveUpload(string(docType), "rejected", 0)
		return nil, domain.NewError(domain.KindPrecondition, "documents can no longer be changed once submitted", nil)
	}

	key := domain.StorageKey(vendorID, docType, ext)
	if err := s.blobs.Put(ctx, key, data); err != nil {
		metrics.ObserveUpload(string(docType), "storage_error", 0)
		s.audit.LogUpload(ctx, vendorID, string(docType), "failure", "storage")
		return nil, err
	}

	doc = &domain.Document{
		ID:           s.newID(),
		VendorID:     vendorID,
		DocumentType: docType,
		FileRef:      key,
		FileName:     filepath.Base(strings.TrimSpace(fileName)),
		UploadedAt:   s.now(),
	}
	if err := s.documents.Upsert(ctx, doc); err != nil {
		metrics.ObserveUpload(string(docType), "persistence_error", 0)
		s.audit.LogUpload(ctx, vendorID, string(docType), "failure", "persistence")
		return nil, err
	}

	if vendor.Status == domain.StatusInvited {
		if _, err := s.vendors.Transition(ctx, vendorID, []domain.VendorStatus{domain.StatusInvited}, domain.StatusInProgress, s.now()); err != nil {
			// Lost a race with a concurrent upload; the vendor already moved on.
			if !errors.Is(err, domain.ErrPrecondition) {
				return nil, err
			}
		} else {
			metrics.ObserveTransition(string(domain.StatusInvited), string(domain.StatusInProgress))
		}
	}

	metrics.ObserveUpload(string(docType), "success", len(data))
	s.audit.LogUpload(ctx, vendorID, string(docType), "success", doc.FileName)
	s.logger.Info("document uploaded",
		slog.String("vendor_id", vendorID),
		slog.String("document_type", string(docType)),
		slog.String("size", humanize.Bytes(uint64(len(data)))),
	)
	return doc, nil
}

// validateUpload checks the payload and returns the lowercased file extension
func (s *OnboardingService) validateUpload(data []byte, fileName string) (string, error) {
	if len(data) == 0 {
		return "", domain.NewError(domain.KindValidation, "No file uploaded", nil)
	}
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return "", domain.NewError(domain.KindValidation, "file name is required", nil)
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	if ext == "" {
		return "", domain.NewError(domain.KindValidation, "file name must have an extension", nil)
	}
	if !slices.ContainsFunc(s.config.AllowedUploadExtensions, func(a string) bool { return strings.EqualFold(a, ext) }) {
		return "", domain.NewError(domain.KindValidation,
			"file type ."+ext+" is not allowed (allowed: "+strings.Join(s.config.AllowedUploadExtensions, ", ")+")", nil)
	}
	if s.config.MaxUploadBytes > 0 && int64(len(data)) > s.config.MaxUploadBytes {
		return "", domain.NewError(domain.KindValidation,
			"file exceeds the maximum size of "+humanize.Bytes(uint64(s.config.MaxUploadBytes)), nil)
	}
	return ext, nil
}

// SubmitForReview marks the vendor complete once every required document is present
func (s *OnboardingService) SubmitForReview(ctx context.Context, vendorID string) (vendor *domain.Vendor, err error) {
	ctx, span := tracing.Start(ctx, "onboarding.submit", attribute.String("vendor.id", vendorID))
	defer func() { tracing.End(span, err) }()

	current, err := s.vendors.GetByID(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if current.Status != domain.StatusInvited && current.Status != domain.StatusInProgress {
		s.audit.LogSubmit(ctx, vendorID, "rejected", "status "+string(current.Status))
		return nil, domain.NewError(domain.KindPrecondition, "vendor has already been submitted", nil)
	}

	docs, err := s.documents.ListByVendor(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	completeness := domain.ComputeCompleteness(docs)
	if !completeness.IsComplete {
		missing := make([]string, len(completeness.Missing))
		for i, t := range completeness.Missing {
			missing[i] = t.Label()
		}
		s.audit.LogSubmit(ctx, vendorID, "rejected", "missing documents")
		return nil, domain.NewError(domain.KindPrecondition, "All documents must be uploaded before submitting (missing: "+strings.Join(missing, ", ")+")", nil)
	}

	vendor, err = s.vendors.Transition(ctx, vendorID,
		[]domain.VendorStatus{domain.StatusInvited, domain.StatusInProgress},
		domain.StatusComplete, s.now())
	if err != nil {
		return nil, err
	}

	metrics.ObserveTransition(string(current.Status), string(domain.StatusComplete))
	s.audit.LogSubmit(ctx, vendorID, "success", "")
	s.logger.Info("vendor submitted for review", slog.String("vendor_id", vendorID))
	return vendor, nil
}
