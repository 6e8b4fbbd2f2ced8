package repository

import (
	"context"

	"polyglot/backend/internal/model"
)

// Repository defines the storage operations of the translation archive.
// Only finalized translations are stored; the live conversation never is.
type Repository interface {
	AddEntry(ctx context.Context, entry *model.HistoryEntry) error
	ListEntries(ctx context.Context, limit int) ([]model.HistoryEntry, error)
	DeleteEntry(ctx context.Context, id string) error
	ClearEntries(ctx context.Context) (int64, error)
}
