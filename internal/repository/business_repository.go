package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/aryan0dhankhar/vendoronboard/internal/domain"
)

// PostgresBusinessRepository implements domain.BusinessRepository using PostgreSQL
type PostgresBusinessRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresBusinessRepository creates a new business repository
func NewPostgresBusinessRepository(db *sql.DB, logger *slog.Logger) *PostgresBusinessRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresBusinessRepository{db: db, logger: logger}
}

// FindOrCreate inserts the business if no row exists for its owner email and
// returns whichever row is stored. The unique index on owner_email makes this
// safe under concurrent first invites.
func (r *PostgresBusinessRepository) FindOrCreate(ctx context.Context, business *domain.Business) (*domain.Business, error) {
	insert := `
		INSERT INTO businesses (id, name, owner_email)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner_email) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, insert, business.ID, business.Name, business.OwnerEmail); err != nil {
		r.logger.Error("failed to insert business",
			slog.String("owner_email", business.OwnerEmail),
			slog.String("error", err.Error()),
		)
		return nil, domain.NewError(domain.KindPersistence, "failed to create business", err)
	}

	return r.GetByOwnerEmail(ctx, business.OwnerEmail)
}

// GetByID retrieves a business by ID
func (r *PostgresBusinessRepository) GetByID(ctx context.Context, id string) (*domain.Business, error) {
	query := `
		SELECT id, name, owner_email, created_at
		FROM businesses
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetByOwnerEmail retrieves the business owned by an email
func (r *PostgresBusinessRepository) GetByOwnerEmail(ctx context.Context, ownerEmail string) (*domain.Business, error) {
	query := `
		SELECT id, name, owner_email, created_at
		FROM businesses
		WHERE owner_email = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, ownerEmail))
}

func (r *PostgresBusinessRepository) scanOne(row *sql.Row) (*domain.Business, error) {
	b := &domain.Business{}
	err := row.Scan(&b.ID, &b.Name, &b.OwnerEmail, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewError(domain.KindNotFound, "business not found", nil)
		}
		return nil, domain.NewError(domain.KindPersistence, "failed to get business", err)
	}
	return b, nil
}
