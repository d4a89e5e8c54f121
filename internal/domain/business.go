package domain

import (
	"context"
	"time"
)

// Business is the inviting organization
type Business struct {
	ID         string
	Name       string
	OwnerEmail string // lookup key from the authenticated session
	CreatedAt  time.Time
}

// BusinessRepository defines data access for businesses
type BusinessRepository interface {
	// FindOrCreate inserts business unless a row with the same owner email exists,
	// then returns the stored row. Concurrent callers observe the same business.
	FindOrCreate(ctx context.Context, business *Business) (*Business, error)
	GetByID(ctx context.Context, id string) (*Business, error)
	GetByOwnerEmail(ctx context.Context, ownerEmail string) (*Business, error)
}

// Owner is a business owner account able to open a session
type Owner struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt hash, never returned in API responses
	CreatedAt    time.Time
}

// OwnerRepository defines data access for owner accounts
type OwnerRepository interface {
	Create(ctx context.Context, owner *Owner) error
	GetByEmail(ctx context.Context, email string) (*Owner, error)
}

// Identity is the authenticated requester of a business-facing operation.
// It is always passed explicitly, never read from ambient state.
type Identity struct {
	OwnerID string
	Email   string
}

// Authenticated reports whether the identity carries an owner email
func (i Identity) Authenticated() bool {
	return i.Email != ""
}
