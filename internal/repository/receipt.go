package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sirsalvo/easyreceipts/constants"
	"github.com/sirsalvo/easyreceipts/internal/entity"
)

// receiptColumns is the full column list, in scan order.
const receiptColumns = `owner_id, receipt_id, status, created_at, updated_at, confirmed_at,
	payee, tx_date, total, vat, vat_rate, note, category, ynab_exported_at,
	content_type, original_key, processed_key, ocr_key, status_key`

// columnFor maps logical field names to columns. Only names listed here
// can ever appear in a dynamic SET clause.
var columnFor = map[string]string{
	"payee":          "payee",
	"date":           "tx_date",
	"total":          "total",
	"vat":            "vat",
	"vatRate":        "vat_rate",
	"note":           "note",
	"category":       "category",
	"status":         "status",
	"confirmedAt":    "confirmed_at",
	"statusKey":      "status_key",
	"ynabExportedAt": "ynab_exported_at",
	"updatedAt":      "updated_at",
}

type ReceiptRepository interface {
	// Create inserts a new receipt record.
	Create(ctx context.Context, rec *entity.Receipt) error

	// Get returns the receipt, or nil when absent.
	Get(ctx context.Context, ownerID, receiptID string) (*entity.Receipt, error)

	// List returns the owner's newest receipts, newest first, capped at limit.
	List(ctx context.Context, ownerID string, limit int) ([]*entity.Receipt, error)

	// UpdateFields applies a partial attribute update conditioned on the
	// record existing: set holds logical-field -> value pairs, clear names
	// attributes to remove. Returns the updated record, or nil when the
	// record does not exist (the conditional write did not fire).
	UpdateFields(ctx context.Context, ownerID, receiptID string, set map[string]string, clear []string) (*entity.Receipt, error)

	// DeleteUnconfirmed atomically deletes the record if and only if it is
	// not confirmed, returning the deleted record. Returns nil when the
	// condition did not match (absent or confirmed).
	DeleteUnconfirmed(ctx context.Context, ownerID, receiptID string) (*entity.Receipt, error)
}

type receiptRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewReceiptRepository(db *DB, logger *slog.Logger) ReceiptRepository {
	return &receiptRepository{db: db, logger: logger}
}

func (r *receiptRepository) Create(ctx context.Context, rec *entity.Receipt) error {
	query := r.db.Rebind(`INSERT INTO receipts (` + receiptColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.SQL.ExecContext(ctx, query,
		rec.OwnerID, rec.ReceiptID, string(rec.Status), rec.CreatedAt, rec.UpdatedAt, rec.ConfirmedAt,
		rec.Payee, rec.Date, rec.Total, rec.VAT, rec.VATRate, rec.Note, rec.Category, rec.YNABExportedAt,
		rec.ContentType, rec.OriginalKey, rec.ProcessedKey, rec.OCRKey, rec.StatusKey,
	)
	if err != nil {
		r.logger.Error("failed to insert receipt", "owner_id", rec.OwnerID, "receipt_id", rec.ReceiptID, "error", err)
		return err
	}
	return nil
}

func (r *receiptRepository) Get(ctx context.Context, ownerID, receiptID string) (*entity.Receipt, error) {
	query := r.db.Rebind(`SELECT ` + receiptColumns + ` FROM receipts WHERE owner_id = ? AND receipt_id = ?`)
	rec, err := scanReceipt(r.db.SQL.QueryRowContext(ctx, query, ownerID, receiptID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("failed to get receipt", "owner_id", ownerID, "receipt_id", receiptID, "error", err)
		return nil, err
	}
	return rec, nil
}

func (r *receiptRepository) List(ctx context.Context, ownerID string, limit int) ([]*entity.Receipt, error) {
	query := r.db.Rebind(`SELECT ` + receiptColumns + ` FROM receipts
		WHERE owner_id = ? ORDER BY created_at DESC LIMIT ?`)
	rows, err := r.db.SQL.QueryContext(ctx, query, ownerID, limit)
	if err != nil {
		r.logger.Error("failed to list receipts", "owner_id", ownerID, "error", err)
		return nil, err
	}
	defer rows.Close()

	var out []*entity.Receipt
	for rows.Next() {
		rec, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *receiptRepository) UpdateFields(ctx context.Context, ownerID, receiptID string, set map[string]string, clear []string) (*entity.Receipt, error) {
	assignments := make([]string, 0, len(set)+len(clear))
	args := make([]any, 0, len(set)+2)

	// deterministic clause order keeps queries stable across calls
	for _, name := range []string{"payee", "date", "total", "vat", "vatRate", "note", "category", "status", "confirmedAt", "statusKey", "ynabExportedAt", "updatedAt"} {
		if v, ok := set[name]; ok {
			assignments = append(assignments, columnFor[name]+" = ?")
			args = append(args, v)
		}
	}
	for _, name := range clear {
		col, ok := columnFor[name]
		if !ok {
			return nil, fmt.Errorf("unknown field %q", name)
		}
		assignments = append(assignments, col+" = NULL")
	}
	for name := range set {
		if _, ok := columnFor[name]; !ok {
			return nil, fmt.Errorf("unknown field %q", name)
		}
	}
	if len(assignments) == 0 {
		return nil, fmt.Errorf("empty update")
	}

	query := r.db.Rebind(`UPDATE receipts SET ` + strings.Join(assignments, ", ") +
		` WHERE owner_id = ? AND receipt_id = ? RETURNING ` + receiptColumns)
	args = append(args, ownerID, receiptID)

	rec, err := scanReceipt(r.db.SQL.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		// record vanished between read and write; conditional no-op
		return nil, nil
	}
	if err != nil {
		r.logger.Error("failed to update receipt", "owner_id", ownerID, "receipt_id", receiptID, "error", err)
		return nil, err
	}
	return rec, nil
}

func (r *receiptRepository) DeleteUnconfirmed(ctx context.Context, ownerID, receiptID string) (*entity.Receipt, error) {
	query := r.db.Rebind(`DELETE FROM receipts
		WHERE owner_id = ? AND receipt_id = ?
		  AND confirmed_at IS NULL AND status <> ?
		RETURNING ` + receiptColumns)
	rec, err := scanReceipt(r.db.SQL.QueryRowContext(ctx, query, ownerID, receiptID, string(constants.StatusConfirmed)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("failed to delete receipt", "owner_id", ownerID, "receipt_id", receiptID, "error", err)
		return nil, err
	}
	return rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReceipt(row rowScanner) (*entity.Receipt, error) {
	var rec entity.Receipt
	var status string
	err := row.Scan(
		&rec.OwnerID, &rec.ReceiptID, &status, &rec.CreatedAt, &rec.UpdatedAt, &rec.ConfirmedAt,
		&rec.Payee, &rec.Date, &rec.Total, &rec.VAT, &rec.VATRate, &rec.Note, &rec.Category, &rec.YNABExportedAt,
		&rec.ContentType, &rec.OriginalKey, &rec.ProcessedKey, &rec.OCRKey, &rec.StatusKey,
	)
	if err != nil {
		return nil, err
	}
	rec.Status = constants.ReceiptStatus(status)
	return &rec, nil
}
