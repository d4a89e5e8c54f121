package database

import (
	"context"
	"fmt"
	"log/slog"
)

// schema creates the three onboarding relations plus owner accounts.
// businesses.owner_email, vendors.invite_token and documents(vendor_id, document_type)
// carry the uniqueness the repositories rely on.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS owners (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS businesses (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		owner_email TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS vendors (
		id UUID PRIMARY KEY,
		business_id UUID NOT NULL REFERENCES businesses(id),
		company_name TEXT NOT NULL,
		email TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'invited'
			CHECK (status IN ('invited', 'in_progress', 'complete', 'approved')),
		invite_token TEXT UNIQUE,
		invited_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		completed_at TIMESTAMPTZ,
		approved_at TIMESTAMPTZ,
		notified_at TIMESTAMPTZ
	)`,
	`ALTER TABLE vendors ADD COLUMN IF NOT EXISTS notified_at TIMESTAMPTZ`,
	`CREATE INDEX IF NOT EXISTS vendors_business_id_idx ON vendors (business_id)`,
	`CREATE INDEX IF NOT EXISTS vendors_unnotified_idx ON vendors (invited_at) WHERE notified_at IS NULL`,
	`CREATE TABLE IF NOT EXISTS documents (
		id UUID PRIMARY KEY,
		vendor_id UUID NOT NULL REFERENCES vendors(id),
		document_type TEXT NOT NULL
			CHECK (document_type IN ('w9', 'coi', 'banking', 'license')),
		file_ref TEXT NOT NULL,
		file_name TEXT NOT NULL,
		uploaded_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (vendor_id, document_type)
	)`,
}

// Migrate applies the schema. Every statement is idempotent.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := cp.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d failed: %w", i+1, err)
		}
	}
	cp.logger.Info("database schema applied", slog.Int("statements", len(schema)))
	return nil
}
