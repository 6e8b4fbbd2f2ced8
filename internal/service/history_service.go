package service

import (
	"context"
	"errors"
	"fmt"

	app_errors "polyglot/backend/internal/errors"
	"polyglot/backend/internal/model"
	"polyglot/backend/internal/repository"
)

// HistoryService exposes the translation archive.
type HistoryService struct {
	repo repository.Repository
}

func NewHistoryService(repo repository.Repository) *HistoryService {
	return &HistoryService{repo: repo}
}

// List returns up to limit entries, newest first.
func (s *HistoryService) List(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", app_errors.ErrValidation)
	}
	return s.repo.ListEntries(ctx, limit)
}

// Delete removes one entry.
func (s *HistoryService) Delete(ctx context.Context, id string) error {
	err := s.repo.DeleteEntry(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("history entry %s: %w", id, app_errors.ErrNotFound)
	}
	return err
}

// Clear removes every entry and reports how many were deleted.
func (s *HistoryService) Clear(ctx context.Context) (int64, error) {
	return s.repo.ClearEntries(ctx)
}
