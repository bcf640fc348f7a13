package repository

import (
    "context"
    "testing"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func newCategoryRepo(t *testing.T) (*CategoryRepo, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
    require.NoError(t, err)
    t.Cleanup(func() { db.Close() })
    return NewCategoryRepo(db), mock
}

// Renaming a category to its current name affects zero rows but the row
// exists, so relabeling must succeed rather than report not found.
func TestCategoryRepo_UpdateNameToCurrentName(t *testing.T) {
    repo, mock := newCategoryRepo(t)

    mock.ExpectExec(`UPDATE categories SET name = \?`).
        WithArgs("tools", 3).
        WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectQuery(`SELECT COUNT\(\*\) FROM categories WHERE id = \?`).
        WithArgs(3).
        WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

    assert.NoError(t, repo.UpdateName(context.Background(), 3, "tools"))
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRepo_UpdateNameUnknownID(t *testing.T) {
    repo, mock := newCategoryRepo(t)

    mock.ExpectExec(`UPDATE categories SET name = \?`).
        WithArgs("tools", 99).
        WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectQuery(`SELECT COUNT\(\*\) FROM categories WHERE id = \?`).
        WithArgs(99).
        WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

    err := repo.UpdateName(context.Background(), 99, "tools")
    assert.ErrorIs(t, err, ErrCategoryNotFound)
}
