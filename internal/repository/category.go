package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"
)

type CategoryRepository interface {
	// Get returns the owner's category list, or nil when none is stored.
	Get(ctx context.Context, ownerID string) ([]string, error)

	// Put replaces the owner's category list.
	Put(ctx context.Context, ownerID string, names []string) error
}

type categoryRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewCategoryRepository(db *DB, logger *slog.Logger) CategoryRepository {
	return &categoryRepository{db: db, logger: logger}
}

func (r *categoryRepository) Get(ctx context.Context, ownerID string) ([]string, error) {
	query := r.db.Rebind(`SELECT names FROM owner_categories WHERE owner_id = ?`)
	var raw string
	err := r.db.SQL.QueryRowContext(ctx, query, ownerID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("failed to get categories", "owner_id", ownerID, "error", err)
		return nil, err
	}
	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		// stored value is unreadable; treat as unset rather than failing reads
		r.logger.Warn("stored categories unreadable, falling back to defaults", "owner_id", ownerID, "error", err)
		return nil, nil
	}
	return names, nil
}

func (r *categoryRepository) Put(ctx context.Context, ownerID string, names []string) error {
	raw, err := json.Marshal(names)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	query := r.db.Rebind(`INSERT INTO owner_categories (owner_id, names, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (owner_id) DO UPDATE SET names = excluded.names, updated_at = excluded.updated_at`)
	if _, err := r.db.SQL.ExecContext(ctx, query, ownerID, string(raw), now); err != nil {
		r.logger.Error("failed to store categories", "owner_id", ownerID, "error", err)
		return err
	}
	return nil
}
