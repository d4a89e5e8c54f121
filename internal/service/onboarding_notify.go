package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/vendoronboard/internal/domain"
	"github.com/aryan0dhankhar/vendoronboard/internal/notify"
	"github.com/aryan0dhankhar/vendoronboard/internal/observability/metrics"
	"github.com/aryan0dhankhar/vendoronboard/internal/observability/tracing"
	"go.opentelemetry.io/otel/attribute"
)

const redeliveryBatchSize = 100

// deliverInvite hands the invite to the notifier and records the hand-off on
// the vendor row. A vendor whose row is not marked gets the invite again from
// RedeliverInvites, so delivery is at least once.
func (s *OnboardingService) deliverInvite(ctx context.Context, vendor *domain.Vendor, businessName string) error {
	notification := notify.InviteNotification{
		VendorID:     vendor.ID,
		BusinessName: businessName,
		CompanyName:  vendor.CompanyName,
		Email:        vendor.Email,
		InviteLink:   s.InviteLink(vendor.InviteToken),
		InvitedAt:    vendor.InvitedAt,
	}
	if err := s.notifier.NotifyInvite(ctx, notification); err != nil {
		metrics.ObserveNotification(s.config.Notifier, "error")
		return err
	}
	metrics.ObserveNotification(s.config.Notifier, "success")

	if err := s.vendors.MarkNotified(ctx, vendor.ID, s.now()); err != nil {
		// The notification went out; the next sweep sends a duplicate.
		s.logger.Warn("failed to record invite delivery",
			slog.String("vendor_id", vendor.ID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// RedeliverInvites resends invites that were never handed off, for vendors
// still in invited status and invited more than olderThan ago. It returns the
// number delivered in this pass.
func (s *OnboardingService) RedeliverInvites(ctx context.Context, olderThan time.Duration) (delivered int, err error) {
	ctx, span := tracing.Start(ctx, "onboarding.redeliver_invites")
	defer func() { tracing.End(span, err) }()

	pending, err := s.vendors.ListUnnotified(ctx, s.now().Add(-olderThan), redeliveryBatchSize)
	if err != nil {
		return 0, err
	}
	span.SetAttributes(attribute.Int("invites.pending", len(pending)))

	names := map[string]string{}
	for _, v := range pending {
		name, ok := names[v.BusinessID]
		if !ok {
			business, err := s.businesses.GetByID(ctx, v.BusinessID)
			if err != nil {
				s.logger.Error("failed to load business for invite redelivery",
					slog.String("vendor_id", v.ID),
					slog.String("business_id", v.BusinessID),
					slog.String("error", err.Error()),
				)
				continue
			}
			name = business.Name
			names[v.BusinessID] = name
		}

		if err := s.deliverInvite(ctx, v, name); err != nil {
			s.logger.Warn("invite redelivery failed",
				slog.String("vendor_id", v.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		delivered++
		metrics.ObserveNotification(s.config.Notifier, "redelivered")
	}

	if len(pending) > 0 {
		s.logger.Info("invite redelivery pass finished",
			slog.Int("pending", len(pending)),
			slog.Int("delivered", delivered),
		)
	}
	return delivered, nil
}
