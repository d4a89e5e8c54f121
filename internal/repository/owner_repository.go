package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/aryan0dhankhar/vendoronboard/internal/domain"
	"github.com/lib/pq"
)

// PostgresOwnerRepository implements domain.OwnerRepository using PostgreSQL
type PostgresOwnerRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresOwnerRepository creates a new owner repository
func NewPostgresOwnerRepository(db *sql.DB, logger *slog.Logger) *PostgresOwnerRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresOwnerRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new owner account
func (r *PostgresOwnerRepository) Create(ctx context.Context, owner *domain.Owner) error {
	query := `
		INSERT INTO owners (id, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query, owner.ID, owner.Email, owner.PasswordHash).Scan(&owner.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return domain.NewError(domain.KindValidation, "email already registered", nil)
		}
		r.logger.Error("failed to create owner",
			slog.String("email", owner.Email),
			slog.String("error", err.Error()),
		)
		return domain.NewError(domain.KindPersistence, "failed to create owner", err)
	}

	return nil
}

// GetByEmail retrieves an owner by email
func (r *PostgresOwnerRepository) GetByEmail(ctx context.Context, email string) (*domain.Owner, error) {
	owner := &domain.Owner{}

	query := `
		SELECT id, email, password_hash, created_at
		FROM owners
		WHERE email = $1
	`

	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&owner.ID,
		&owner.Email,
		&owner.PasswordHash,
		&owner.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewError(domain.KindNotFound, "owner not found", nil)
		}
		return nil, domain.NewError(domain.KindPersistence, "failed to get owner", err)
	}

	return owner, nil
}
