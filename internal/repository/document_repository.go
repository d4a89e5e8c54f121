package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/aryan0dhankhar/vendoronboard/internal/domain"
	"github.com/google/uuid"
)

// PostgresDocumentRepository implements domain.DocumentRepository using PostgreSQL
type PostgresDocumentRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresDocumentRepository creates a new document repository
func NewPostgresDocumentRepository(db *sql.DB, logger *slog.Logger) *PostgresDocumentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresDocumentRepository{db: db, logger: logger}
}

// Upsert records an upload. A second upload of the same type replaces the
// file reference, name and timestamp and keeps the original row ID.
func (r *PostgresDocumentRepository) Upsert(ctx context.Context, doc *domain.Document) error {
	query := `
		INSERT INTO documents (id, vendor_id, document_type, file_ref, file_name, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (vendor_id, document_type) DO UPDATE
		SET file_ref = EXCLUDED.file_ref,
			file_name = EXCLUDED.file_name,
			uploaded_at = EXCLUDED.uploaded_at
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		doc.ID,
		doc.VendorID,
		string(doc.DocumentType),
		doc.FileRef,
		doc.FileName,
		doc.UploadedAt,
	).Scan(&doc.ID)
	if err != nil {
		r.logger.Error("failed to upsert document",
			slog.String("vendor_id", doc.VendorID),
			slog.String("document_type", string(doc.DocumentType)),
			slog.String("error", err.Error()),
		)
		return domain.NewError(domain.KindPersistence, "failed to record document", err)
	}
	return nil
}

// GetByID retrieves a document by ID. IDs that are not UUIDs never match a row.
func (r *PostgresDocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.NewError(domain.KindNotFound, "document not found", nil)
	}
	query := `
		SELECT id, vendor_id, document_type, file_ref, file_name, uploaded_at
		FROM documents
		WHERE id = $1
	`
	d := &domain.Document{}
	var docType string
	err := r.db.QueryRowContext(ctx, query, id).Scan(&d.ID, &d.VendorID, &docType, &d.FileRef, &d.FileName, &d.UploadedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewError(domain.KindNotFound, "document not found", nil)
		}
		return nil, domain.NewError(domain.KindPersistence, "failed to get document", err)
	}
	d.DocumentType = domain.DocumentType(docType)
	return d, nil
}

// ListByVendor returns all documents of a vendor
func (r *PostgresDocumentRepository) ListByVendor(ctx context.Context, vendorID string) ([]*domain.Document, error) {
	query := `
		SELECT id, vendor_id, document_type, file_ref, file_name, uploaded_at
		FROM documents
		WHERE vendor_id = $1
	`
	rows, err := r.db.QueryContext(ctx, query, vendorID)
	if err != nil {
		return nil, domain.NewError(domain.KindPersistence, "failed to list documents", err)
	}
	defer rows.Close()

	out := []*domain.Document{}
	for rows.Next() {
		d := &domain.Document{}
		var docType string
		if err := rows.Scan(&d.ID, &d.VendorID, &docType, &d.FileRef, &d.FileName, &d.UploadedAt); err != nil {
			return nil, domain.NewError(domain.KindPersistence, "failed to scan document", err)
		}
		d.DocumentType = domain.DocumentType(docType)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewError(domain.KindPersistence, "failed to list documents", err)
	}
	return out, nil
}

// ListFileRefs returns every recorded storage key
func (r *PostgresDocumentRepository) ListFileRefs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT file_ref FROM documents`)
	if err != nil {
		return nil, domain.NewError(domain.KindPersistence, "failed to list file refs", err)
	}
	defer rows.Close()

	var refs []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, domain.NewError(domain.KindPersistence, "failed to scan file ref", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
