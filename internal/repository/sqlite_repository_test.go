package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polyglot/backend/internal/model"
	"polyglot/backend/internal/repository"
)

var columns = []string{"id", "source_lang", "target_lang", "original", "translation", "has_image", "created_at"}

func setupRepository(t *testing.T) (repository.Repository, sqlmock.Sqlmock) {
	db, mockDB, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return repository.NewSQLiteRepository(db), mockDB
}

func TestSQLiteRepository_AddEntry(t *testing.T) {
	ctx := context.Background()
	repo, mockDB := setupRepository(t)

	entry := &model.HistoryEntry{
		ID:          "e1",
		SourceLang:  "English",
		TargetLang:  "French",
		Original:    "Hello",
		Translation: "Bonjour",
		CreatedAt:   time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	mockDB.ExpectExec(regexp.QuoteMeta("INSERT INTO translations")).
		WithArgs("e1", "English", "French", "Hello", "Bonjour", false, entry.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.AddEntry(ctx, entry))
	assert.NoError(t, mockDB.ExpectationsWereMet())
}

func TestSQLiteRepository_ListEntries(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("With limit", func(t *testing.T) {
		repo, mockDB := setupRepository(t)
		rows := sqlmock.NewRows(columns).
			AddRow("e2", "English", "German", "Thanks", "Danke", false, now).
			AddRow("e1", "English", "French", "", "Pomme\nApple", true, now.Add(-time.Minute))

		mockDB.ExpectQuery(regexp.QuoteMeta("FROM translations")).WithArgs(2).WillReturnRows(rows)

		entries, err := repo.ListEntries(ctx, 2)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "Danke", entries[0].Translation)
		assert.True(t, entries[1].HasImage)
		assert.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("Empty archive yields an empty slice", func(t *testing.T) {
		repo, mockDB := setupRepository(t)
		mockDB.ExpectQuery(regexp.QuoteMeta("FROM translations")).WillReturnRows(sqlmock.NewRows(columns))

		entries, err := repo.ListEntries(ctx, 0)
		require.NoError(t, err)
		assert.NotNil(t, entries)
		assert.Empty(t, entries)
	})

	t.Run("Query failure", func(t *testing.T) {
		repo, mockDB := setupRepository(t)
		mockDB.ExpectQuery(regexp.QuoteMeta("FROM translations")).WillReturnError(errors.New("disk I/O error"))

		_, err := repo.ListEntries(ctx, 0)
		assert.Error(t, err)
	})
}

func TestSQLiteRepository_DeleteEntry(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo, mockDB := setupRepository(t)
		mockDB.ExpectExec(regexp.QuoteMeta("DELETE FROM translations WHERE id = ?")).
			WithArgs("e1").WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.DeleteEntry(ctx, "e1"))
	})

	t.Run("Missing entry", func(t *testing.T) {
		repo, mockDB := setupRepository(t)
		mockDB.ExpectExec(regexp.QuoteMeta("DELETE FROM translations WHERE id = ?")).
			WithArgs("nope").WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.DeleteEntry(ctx, "nope"), repository.ErrNotFound)
	})
}

func TestSQLiteRepository_ClearEntries(t *testing.T) {
	repo, mockDB := setupRepository(t)
	mockDB.ExpectExec(regexp.QuoteMeta("DELETE FROM translations")).WillReturnResult(sqlmock.NewResult(0, 7))

	n, err := repo.ClearEntries(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 7, n)
}
