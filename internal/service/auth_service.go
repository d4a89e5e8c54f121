package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/aryan0dhankhar/vendoronboard/internal/domain"
	"github.com/aryan0dhankhar/vendoronboard/internal/security/auth"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// AuthService handles business-owner accounts and sessions
type AuthService struct {
	owners     domain.OwnerRepository
	businesses domain.BusinessRepository
	tokens     *auth.TokenManager
	sessionTTL time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(
	owners domain.OwnerRepository,
	businesses domain.BusinessRepository,
	tokens *auth.TokenManager,
	sessionTTL time.Duration,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &AuthService{
		owners:     owners,
		businesses: businesses,
		tokens:     tokens,
		sessionTTL: sessionTTL,
		logger:     logger,
		now:        time.Now,
	}
}

// SessionResult is returned by register and login
type SessionResult struct {
	OwnerID    string           `json:"owner_id"`
	Email      string           `json:"email"`
	Token      string           `json:"token"`
	TokenType  string           `json:"token_type"`
	ExpiresIn  int              `json:"expires_in"` // seconds
	BusinessID string           `json:"business_id,omitempty"`
	Business   *domain.Business `json:"-"`
}

// Register creates an owner account. When businessName is set the owner's
// business is provisioned right away instead of on the first invite.
func (s *AuthService) Register(ctx context.Context, email, password, businessName string) (*SessionResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, domain.NewError(domain.KindValidation, "email and password are required", nil)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.NewError(domain.KindValidation, "invalid email address", err)
	}
	if len(password) < minPasswordLength {
		return nil, domain.NewError(domain.KindValidation, "password must be at least 8 characters", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, domain.NewError(domain.KindPersistence, "failed to register owner", err)
	}

	owner := &domain.Owner{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	if err := s.owners.Create(ctx, owner); err != nil {
		return nil, err
	}

	result, err := s.session(owner)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(businessName); name != "" {
		business, err := s.businesses.FindOrCreate(ctx, &domain.Business{
			ID:         uuid.NewString(),
			Name:       name,
			OwnerEmail: email,
			CreatedAt:  s.now(),
		})
		if err != nil {
			return nil, err
		}
		result.BusinessID = business.ID
		result.Business = business
	}

	s.logger.Info("owner registered", slog.String("owner_id", owner.ID))
	return result, nil
}

// Login verifies credentials and issues a session token
func (s *AuthService) Login(ctx context.Context, email, password string) (*SessionResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, domain.NewError(domain.KindValidation, "email and password are required", nil)
	}

	owner, err := s.owners.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Info("login attempt with unknown email")
			return nil, domain.NewError(domain.KindAuth, "invalid credentials", nil)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(owner.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login failed with wrong password", slog.String("owner_id", owner.ID))
		return nil, domain.NewError(domain.KindAuth, "invalid credentials", nil)
	}

	result, err := s.session(owner)
	if err != nil {
		return nil, err
	}
	if business, err := s.businesses.GetByOwnerEmail(ctx, email); err == nil {
		result.BusinessID = business.ID
		result.Business = business
	}

	s.logger.Info("owner logged in", slog.String("owner_id", owner.ID))
	return result, nil
}

func (s *AuthService) session(owner *domain.Owner) (*SessionResult, error) {
	token, err := s.tokens.GenerateToken(owner.ID, owner.Email, s.sessionTTL)
	if err != nil {
		s.logger.Error("failed to sign token", slog.String("error", err.Error()))
		return nil, domain.NewError(domain.KindPersistence, "failed to generate token", err)
	}
	return &SessionResult{
		OwnerID:   owner.ID,
		Email:     owner.Email,
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int(s.sessionTTL.Seconds()),
	}, nil
}
