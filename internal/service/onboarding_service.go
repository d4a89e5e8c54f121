package service

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/aryan0dhankhar/vendoronboard/internal/domain"
	"github.com/aryan0dhankhar/vendoronboard/internal/notify"
	"github.com/aryan0dhankhar/vendoronboard/internal/observability/metrics"
	"github.com/aryan0dhankhar/vendoronboard/internal/observability/tracing"
	"github.com/aryan0dhankhar/vendoronboard/internal/security/audit"
	"github.com/aryan0dhankhar/vendoronboard/internal/security/auth"
	"github.com/aryan0dhankhar/vendoronboard/pkg/cache"
	"github.com/aryan0dhankhar/vendoronboard/pkg/config"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const businessCacheTTL = 5 * time.Minute

// OnboardingService runs the vendor onboarding workflow: invitation,
// document intake and review.
type OnboardingService struct {
	businesses domain.BusinessRepository
	vendors    domain.VendorRepository
	documents  domain.DocumentRepository
	blobs      domain.BlobStore
	notifier   notify.Notifier
	audit      *audit.Logger
	logger     *slog.Logger
	config     *config.Config

	businessCache *cache.Cache[*domain.Business]
	now           func() time.Time
	newID         func() string
	newToken      func() (string, error)
}

// InviteResult is the created vendor and the link handed to the notifier
type InviteResult struct {
	Vendor     *domain.Vendor
	InviteLink string
}

// NewOnboardingService creates a new onboarding service
func NewOnboardingService(
	businesses domain.BusinessRepository,
	vendors domain.VendorRepository,
	documents domain.DocumentRepository,
	blobs domain.BlobStore,
	notifier notify.Notifier,
	auditLog *audit.Logger,
	logger *slog.Logger,
	cfg *config.Config,
) *OnboardingService {
	if logger == nil {
		logger = slog.Default()
	}
	if auditLog == nil {
		auditLog = audit.NewLogger(logger)
	}
	if notifier == nil {
		notifier = notify.NewLogNotifier(logger)
	}
	return &OnboardingService{
		businesses:    businesses,
		vendors:       vendors,
		documents:     documents,
		blobs:         blobs,
		notifier:      notifier,
		audit:         auditLog,
		logger:        logger,
		config:        cfg,
		businessCache: cache.New[*domain.Business](),
		now:           time.Now,
		newID:         func() string { return uuid.NewString() },
		newToken:      auth.GenerateInviteToken,
	}
}

// Invite registers a vendor under the requesting owner's business and sends
// the vendor its onboarding link. The business is created on first invite.
func (s *OnboardingService) Invite(ctx context.Context, id domain.Identity, companyName, email string) (result *InviteResult, err error) {
	ctx, span := tracing.Start(ctx, "onboarding.invite")
	defer func() { tracing.End(span, err) }()

	if !id.Authenticated() {
		metrics.ObserveInvite("unauthorized")
		return nil, domain.NewError(domain.KindAuth, "not authenticated", nil)
	}

	companyName = strings.TrimSpace(companyName)
	email = strings.TrimSpace(email)
	if companyName == "" || email == "" {
		metrics.ObserveInvite("invalid")
		return nil, domain.NewError(domain.KindValidation, "Company name and email are required", nil)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		metrics.ObserveInvite("invalid")
		return nil, domain.NewError(domain.KindValidation, "invalid email address", err)
	}

	business, err := s.resolveBusiness(ctx, id.Email)
	if err != nil {
		metrics.ObserveInvite("error")
		return nil, err
	}

	token, err := s.newToken()
	if err != nil {
		metrics.ObserveInvite("error")
		return nil, domain.NewError(domain.KindPersistence, "failed to generate invite token", err)
	}

	vendor := &domain.Vendor{
		ID:          s.newID(),
		BusinessID:  business.ID,
		CompanyName: companyName,
		Email:       addr.Address,
		Status:      domain.StatusInvited,
		InviteToken: token,
		InvitedAt:   s.now(),
	}
	if err := s.vendors.Create(ctx, vendor); err != nil {
		metrics.ObserveInvite("error")
		s.audit.LogInvite(ctx, id.Email, "", "failure", err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("vendor.id", vendor.ID))

	link := s.InviteLink(token)
	// An undelivered invite stays unmarked and is picked up by RedeliverInvites
	if err := s.deliverInvite(ctx, vendor, business.Name); err != nil {
		s.logger.Error("failed to send invite notification",
			slog.String("vendor_id", vendor.ID),
			slog.String("error", err.Error()),
		)
	}

	metrics.ObserveInvite("success")
	s.audit.LogInvite(ctx, id.Email, vendor.ID, "success", "")
	s.logger.Info("vendor invited",
		slog.String("vendor_id", vendor.ID),
		slog.String("business_id", business.ID),
	)

	return &InviteResult{Vendor: vendor, InviteLink: link}, nil
}

// InviteLink builds the vendor-facing onboarding URL for a token
func (s *OnboardingService) InviteLink(token string) string {
	return s.config.AppBaseURL + "/onboard/" + token
}

// resolveBusiness returns the owner's business, creating it with the default
// name if none exists yet.
func (s *OnboardingService) resolveBusiness(ctx context.Context, ownerEmail string) (*domain.Business, error) {
	key := "owner:" + ownerEmail
	if b, ok := s.businessCache.Get(key); ok {
		return b, nil
	}

	business, err := s.businesses.FindOrCreate(ctx, &domain.Business{
		ID:         s.newID(),
		Name:       s.config.DefaultBusinessName,
		OwnerEmail: ownerEmail,
		CreatedAt:  s.now(),
	})
	if err != nil {
		return nil, err
	}
	s.businessCache.Set(key, business, businessCacheTTL)
	return business, nil
}

// lookupBusiness returns the owner's business without creating one
func (s *OnboardingService) lookupBusiness(ctx context.Context, ownerEmail string) (*domain.Business, error) {
	key := "owner:" + ownerEmail
	if b, ok := s.businessCache.Get(key); ok {
		return b, nil
	}
	business, err := s.businesses.GetByOwnerEmail(ctx, ownerEmail)
	if err != nil {
		return nil, err
	}
	s.businessCache.Set(key, business, businessCacheTTL)
	return business, nil
}
