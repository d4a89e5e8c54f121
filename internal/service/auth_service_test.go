package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aryan0dhankhar/vendoronboard/internal/domain"
	"github.com/aryan0dhankhar/vendoronboard/internal/security/auth"
	"github.com/aryan0dhankhar/vendoronboard/internal/testutil"
)

func newAuthService() (*AuthService, *testutil.BusinessRepo, *auth.TokenManager) {
	businesses := testutil.NewBusinessRepo()
	tm := auth.NewTokenManager("secret", "vendoronboard")
	return NewAuthService(testutil.NewOwnerRepo(), businesses, tm, time.Hour, nil), businesses, tm
}

func TestRegisterAndLogin(t *testing.T) {
	s, _, tm := newAuthService()
	ctx := context.Background()

	r, err := s.Register(ctx, "Alice@Example.com", "Password123", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if r.OwnerID == "" || r.Token == "" {
		t.Fatalf("expected owner id and token")
	}
	if r.BusinessID != "" {
		t.Fatalf("no business should be provisioned without a name")
	}
	claims, err := tm.ValidateToken(r.Token)
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
	if claims.Email != "alice@example.com" {
		t.Fatalf("expected normalized email in claims, got %q", claims.Email)
	}

	if _, err := s.Register(ctx, "alice@example.com", "Password123", ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected duplicate email validation error, got %v", err)
	}

	lr, err := s.Login(ctx, "alice@example.com", "Password123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if lr.Token == "" || lr.ExpiresIn != 3600 {
		t.Fatalf("unexpected login result %+v", lr)
	}

	if _, err := s.Login(ctx, "alice@example.com", "Wrong"); !errors.Is(err, domain.ErrAuth) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := s.Login(ctx, "nobody@example.com", "Password123"); !errors.Is(err, domain.ErrAuth) {
		t.Fatalf("expected invalid credentials for unknown email, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	s, _, _ := newAuthService()
	ctx := context.Background()

	cases := []struct{ email, password string }{
		{"", "Password123"},
		{"bob@example.com", ""},
		{"not-an-email", "Password123"},
		{"bob@example.com", "short"},
	}
	for _, c := range cases {
		if _, err := s.Register(ctx, c.email, c.password, ""); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("register(%q, %q): expected validation error, got %v", c.email, c.password, err)
		}
	}
}

func TestRegisterProvisionsBusiness(t *testing.T) {
	s, businesses, _ := newAuthService()
	ctx := context.Background()

	r, err := s.Register(ctx, "carol@example.com", "Password123", "Carol Catering")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if r.BusinessID == "" || r.Business.Name != "Carol Catering" {
		t.Fatalf("expected provisioned business, got %+v", r.Business)
	}
	if businesses.Count() != 1 {
		t.Fatalf("expected one business, got %d", businesses.Count())
	}

	lr, err := s.Login(ctx, "carol@example.com", "Password123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if lr.BusinessID != r.BusinessID {
		t.Fatalf("login should report the provisioned business")
	}
}
