package repository

import (
	"context"
	"log/slog"
)

// Statements are portable across postgres and sqlite; all timestamps and
// money values are stored as ISO 8601 / canonical decimal TEXT.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS receipts (
		owner_id         TEXT NOT NULL,
		receipt_id       TEXT NOT NULL,
		status           TEXT NOT NULL DEFAULT 'NEW',
		created_at       TEXT NOT NULL,
		updated_at       TEXT,
		confirmed_at     TEXT,
		payee            TEXT,
		tx_date          TEXT,
		total            TEXT,
		vat              TEXT,
		vat_rate         TEXT,
		note             TEXT,
		category         TEXT,
		ynab_exported_at TEXT,
		content_type     TEXT,
		original_key     TEXT,
		processed_key    TEXT,
		ocr_key          TEXT,
		status_key       TEXT,
		PRIMARY KEY (owner_id, receipt_id)
	)`,
	`CREATE INDEX IF NOT EXISTS receipts_owner_created ON receipts (owner_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS receipts_owner_status ON receipts (owner_id, status_key)`,
	`CREATE TABLE IF NOT EXISTS owner_categories (
		owner_id   TEXT PRIMARY KEY,
		names      TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
}

// Migrate applies the schema. Statements are idempotent, so running at
// every startup is safe.
func Migrate(ctx context.Context, db *DB, logger *slog.Logger) error {
	logger.Info("applying record store schema")
	for _, stmt := range migrations {
		if _, err := db.SQL.ExecContext(ctx, stmt); err != nil {
			logger.Error("schema statement failed", "error", err)
			return err
		}
	}
	logger.Info("record store schema up to date")
	return nil
}
