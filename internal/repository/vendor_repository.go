package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/vendoronboard/internal/domain"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const vendorColumns = `id, business_id, company_name, email, status, invite_token, invited_at, completed_at, approved_at, notified_at`

// PostgresVendorRepository implements domain.VendorRepository using PostgreSQL
type PostgresVendorRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresVendorRepository creates a new vendor repository
func NewPostgresVendorRepository(db *sql.DB, logger *slog.Logger) *PostgresVendorRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresVendorRepository{db: db, logger: logger}
}

// Create inserts a new vendor
func (r *PostgresVendorRepository) Create(ctx context.Context, vendor *domain.Vendor) error {
	query := `
		INSERT INTO vendors (id, business_id, company_name, email, status, invite_token, invited_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		vendor.ID,
		vendor.BusinessID,
		vendor.CompanyName,
		vendor.Email,
		string(vendor.Status),
		vendor.InviteToken,
		vendor.InvitedAt,
	)
	if err != nil {
		r.logger.Error("failed to create vendor",
			slog.String("business_id", vendor.BusinessID),
			slog.String("error", err.Error()),
		)
		return domain.NewError(domain.KindPersistence, "failed to create vendor", err)
	}
	return nil
}

// GetByID retrieves a vendor by ID. IDs that are not UUIDs never match a row.
func (r *PostgresVendorRepository) GetByID(ctx context.Context, id string) (*domain.Vendor, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.NewError(domain.KindNotFound, "vendor not found", nil)
	}
	query := `SELECT ` + vendorColumns + ` FROM vendors WHERE id = $1`
	return scanVendor(r.db.QueryRowContext(ctx, query, id))
}

// GetByInviteToken resolves the vendor holding an invite token
func (r *PostgresVendorRepository) GetByInviteToken(ctx context.Context, token string) (*domain.Vendor, error) {
	query := `SELECT ` + vendorColumns + ` FROM vendors WHERE invite_token = $1`
	return scanVendor(r.db.QueryRowContext(ctx, query, token))
}

// ListByBusiness lists vendors of a business, newest invite first
func (r *PostgresVendorRepository) ListByBusiness(ctx context.Context, businessID string) ([]*domain.Vendor, error) {
	query := `SELECT ` + vendorColumns + ` FROM vendors WHERE business_id = $1 ORDER BY invited_at DESC`

	rows, err := r.db.QueryContext(ctx, query, businessID)
	if err != nil {
		r.logger.Error("failed to list vendors",
			slog.String("business_id", businessID),
			slog.String("error", err.Error()),
		)
		return nil, domain.NewError(domain.KindPersistence, "failed to list vendors", err)
	}
	defer rows.Close()

	out := []*domain.Vendor{}
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewError(domain.KindPersistence, "failed to list vendors", err)
	}
	return out, nil
}

// Transition applies a guarded status change. completed_at and approved_at are
// stamped when entering complete and approved respectively.
func (r *PostgresVendorRepository) Transition(ctx context.Context, id string, from []domain.VendorStatus, to domain.VendorStatus, at time.Time) (*domain.Vendor, error) {
	query := `
		UPDATE vendors
		SET status = $2,
			completed_at = CASE WHEN $2 = 'complete' THEN $3 ELSE completed_at END,
			approved_at = CASE WHEN $2 = 'approved' THEN $3 ELSE approved_at END
		WHERE id = $1 AND status = ANY($4)
		RETURNING ` + vendorColumns

	expected := make([]string, len(from))
	for i, s := range from {
		expected[i] = string(s)
	}

	v, err := scanVendor(r.db.QueryRowContext(ctx, query, id, string(to), at, pq.Array(expected)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewError(domain.KindPrecondition, "vendor is not in a status that allows "+string(to), nil)
		}
		r.logger.Error("failed to transition vendor",
			slog.String("vendor_id", id),
			slog.String("to", string(to)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	return v, nil
}

// MarkNotified records that the invite notification was handed off
func (r *PostgresVendorRepository) MarkNotified(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE vendors SET notified_at = $2 WHERE id = $1 AND notified_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, id, at); err != nil {
		r.logger.Error("failed to mark vendor notified",
			slog.String("vendor_id", id),
			slog.String("error", err.Error()),
		)
		return domain.NewError(domain.KindPersistence, "failed to mark vendor notified", err)
	}
	return nil
}

// ListUnnotified returns still-invited vendors whose notification is pending
func (r *PostgresVendorRepository) ListUnnotified(ctx context.Context, invitedBefore time.Time, limit int) ([]*domain.Vendor, error) {
	query := `SELECT ` + vendorColumns + `
		FROM vendors
		WHERE notified_at IS NULL AND status = 'invited' AND invited_at < $1
		ORDER BY invited_at
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, invitedBefore, limit)
	if err != nil {
		r.logger.Error("failed to list unnotified vendors", slog.String("error", err.Error()))
		return nil, domain.NewError(domain.KindPersistence, "failed to list unnotified vendors", err)
	}
	defer rows.Close()

	out := []*domain.Vendor{}
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewError(domain.KindPersistence, "failed to list unnotified vendors", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVendor(row rowScanner) (*domain.Vendor, error) {
	v := &domain.Vendor{}
	var (
		status      string
		token       sql.NullString
		completedAt sql.NullTime
		approvedAt  sql.NullTime
		notifiedAt  sql.NullTime
	)
	err := row.Scan(
		&v.ID,
		&v.BusinessID,
		&v.CompanyName,
		&v.Email,
		&status,
		&token,
		&v.InvitedAt,
		&completedAt,
		&approvedAt,
		&notifiedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewError(domain.KindNotFound, "vendor not found", nil)
		}
		return nil, domain.NewError(domain.KindPersistence, "failed to read vendor", err)
	}

	v.Status = domain.VendorStatus(status)
	v.InviteToken = token.String
	if completedAt.Valid {
		t := completedAt.Time
		v.CompletedAt = &t
	}
	if approvedAt.Valid {
		t := approvedAt.Time
		v.ApprovedAt = &t
	}
	if notifiedAt.Valid {
		t := notifiedAt.Time
		v.NotifiedAt = &t
	}
	return v, nil
}
