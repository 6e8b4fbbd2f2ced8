package repository

import (
	"context"
	"database/sql"
	"fmt"

	"polyglot/backend/internal/model"
)

type sqliteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) Repository {
	return &sqliteRepository{db: db}
}

func (r *sqliteRepository) AddEntry(ctx context.Context, entry *model.HistoryEntry) error {
	query := `
		INSERT INTO translations (id, source_lang, target_lang, original, translation, has_image, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.SourceLang,
		entry.TargetLang,
		entry.Original,
		entry.Translation,
		entry.HasImage,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("could not insert translation: %w", err)
	}
	return nil
}

// ListEntries returns the newest entries first. A non-positive limit returns everything.
func (r *sqliteRepository) ListEntries(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	query := `
		SELECT id, source_lang, target_lang, original, translation, has_image, created_at
		FROM translations
		ORDER BY created_at DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []model.HistoryEntry{}
	for rows.Next() {
		var e model.HistoryEntry
		if err := rows.Scan(&e.ID, &e.SourceLang, &e.TargetLang, &e.Original, &e.Translation, &e.HasImage, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *sqliteRepository) DeleteEntry(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM translations WHERE id = ?", id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sqliteRepository) ClearEntries(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM translations")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
