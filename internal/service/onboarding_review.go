package service

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/aryan0dhankhar/vendoronboard/internal/domain"
	"github.com/aryan0dhankhar/vendoronboard/internal/observability/metrics"
	"github.com/aryan0dhankhar/vendoronboard/internal/observability/tracing"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// VendorDetail is a vendor with its documents and completeness
type VendorDetail struct {
	Vendor       *domain.Vendor
	Documents    []*domain.Document
	Completeness domain.Completeness
}

// ListVendors returns the vendors of the owner's business, newest first.
// An owner who has not invited anyone yet has no business and sees an empty list.
func (s *OnboardingService) ListVendors(ctx context.Context, id domain.Identity) ([]*domain.Vendor, error) {
	if !id.Authenticated() {
		return nil, domain.NewError(domain.KindAuth, "not authenticated", nil)
	}
	business, err := s.lookupBusiness(ctx, id.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return []*domain.Vendor{}, nil
		}
		return nil, err
	}
	return s.vendors.ListByBusiness(ctx, business.ID)
}

// GetVendorDetail returns a vendor owned by the requester with its documents
func (s *OnboardingService) GetVendorDetail(ctx context.Context, id domain.Identity, vendorID string) (*VendorDetail, error) {
	vendor, err := s.ownedVendor(ctx, id, vendorID)
	if err != nil {
		return nil, err
	}
	docs, err := s.documents.ListByVendor(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	return &VendorDetail{
		Vendor:       vendor,
		Documents:    docs,
		Completeness: domain.ComputeCompleteness(docs),
	}, nil
}

// ApproveVendor moves a complete vendor to approved. Approving twice fails.
func (s *OnboardingService) ApproveVendor(ctx context.Context, id domain.Identity, vendorID string) (vendor *domain.Vendor, err error) {
	ctx, span := tracing.Start(ctx, "onboarding.approve", attribute.String("vendor.id", vendorID))
	defer func() { tracing.End(span, err) }()

	if _, err := s.ownedVendor(ctx, id, vendorID); err != nil {
		return nil, err
	}

	vendor, err = s.vendors.Transition(ctx, vendorID,
		[]domain.VendorStatus{domain.StatusComplete},
		domain.StatusApproved, s.now())
	if err != nil {
		if errors.Is(err, domain.ErrPrecondition) {
			s.audit.LogApprove(ctx, id.Email, vendorID, "rejected", "vendor is not complete")
			return nil, domain.NewError(domain.KindPrecondition, "Only vendors with complete submissions can be approved", err)
		}
		return nil, err
	}

	metrics.ObserveTransition(string(domain.StatusComplete), string(domain.StatusApproved))
	s.audit.LogApprove(ctx, id.Email, vendorID, "success", "")
	s.logger.Info("vendor approved",
		slog.String("vendor_id", vendorID),
		slog.String("approved_by", id.Email),
	)
	return vendor, nil
}

// OpenDocument returns a document owned by the requester and a reader over its bytes.
// The caller closes the reader.
func (s *OnboardingService) OpenDocument(ctx context.Context, id domain.Identity, documentID string) (*domain.Document, io.ReadCloser, error) {
	if !id.Authenticated() {
		return nil, nil, domain.NewError(domain.KindAuth, "not authenticated", nil)
	}
	if !validID(documentID) {
		return nil, nil, domain.NewError(domain.KindNotFound, "document not found", nil)
	}
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.ownedVendor(ctx, id, doc.VendorID); err != nil {
		return nil, nil, err
	}
	rc, err := s.blobs.Open(ctx, doc.FileRef)
	if err != nil {
		s.logger.Error("failed to open document",
			slog.String("document_id", documentID),
			slog.String("file_ref", doc.FileRef),
			slog.String("error", err.Error()),
		)
		return nil, nil, err
	}
	return doc, rc, nil
}

// ownedVendor loads a vendor and checks that it belongs to the requester's business
func (s *OnboardingService) ownedVendor(ctx context.Context, id domain.Identity, vendorID string) (*domain.Vendor, error) {
	if !id.Authenticated() {
		return nil, domain.NewError(domain.KindAuth, "not authenticated", nil)
	}
	if !validID(vendorID) {
		return nil, domain.NewError(domain.KindNotFound, "vendor not found", nil)
	}
	vendor, err := s.vendors.GetByID(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	business, err := s.lookupBusiness(ctx, id.Email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if business == nil || business.ID != vendor.BusinessID {
		s.audit.LogDenied(ctx, id.Email, vendorID, "vendor belongs to another business")
		return nil, domain.NewError(domain.KindAuth, "vendor does not belong to your business", nil)
	}
	return vendor, nil
}

// validID reports whether id can name a row; path parameters are untrusted
// and the id columns are UUIDs.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
