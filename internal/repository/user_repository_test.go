package repository

import (
    "context"
    "database/sql"
    "errors"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

const testBcryptCost = 4 // MinCost keeps hashing fast in tests

func newUserRepo(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
    require.NoError(t, err)
    t.Cleanup(func() { db.Close() })
    return NewUserRepo(db), mock
}

func TestUserRepo_CreateNormalizesEmail(t *testing.T) {
    repo, mock := newUserRepo(t)

    mock.ExpectExec(`INSERT INTO users`).
        WithArgs("ivan@example.com", "Ivan Petrov", sqlmock.AnyArg(), "user", "tok123").
        WillReturnResult(sqlmock.NewResult(9, 1))

    id, err := repo.Create(context.Background(), "  Ivan@Example.COM ", "Ivan Petrov", "secret", "user", "tok123", testBcryptCost)
    require.NoError(t, err)
    assert.Equal(t, uint64(9), id)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_CreateDuplicateEmail(t *testing.T) {
    repo, mock := newUserRepo(t)

    mock.ExpectExec(`INSERT INTO users`).
        WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'ivan@example.com' for key 'users.email'"))

    _, err := repo.Create(context.Background(), "ivan@example.com", "Ivan", "secret", "user", "tok", testBcryptCost)
    assert.ErrorIs(t, err, ErrEmailExists)
}

func userRows(confirmToken any) *sqlmock.Rows {
    now := time.Now()
    return sqlmock.NewRows([]string{
        "id", "email", "full_name", "password_hash", "role", "email_confirmed",
        "confirmation_token", "reset_token", "reset_token_expires_at", "created_at", "updated_at",
    }).AddRow(9, "ivan@example.com", "Ivan Petrov", "$2a$04$hash", "user", false,
        confirmToken, nil, nil, now, now)
}

func TestUserRepo_GetByEmail(t *testing.T) {
    repo, mock := newUserRepo(t)

    mock.ExpectQuery(`FROM users WHERE email=\?`).
        WithArgs("ivan@example.com").
        WillReturnRows(userRows("tok123"))

    u, err := repo.GetByEmail(context.Background(), "Ivan@Example.com")
    require.NoError(t, err)
    assert.Equal(t, uint64(9), u.ID)
    require.NotNil(t, u.ConfirmationToken)
    assert.Equal(t, "tok123", *u.ConfirmationToken)
    assert.Nil(t, u.ResetToken)
}

func TestUserRepo_ConfirmByToken(t *testing.T) {
    repo, mock := newUserRepo(t)

    mock.ExpectExec(`UPDATE users SET email_confirmed=1`).
        WithArgs("tok123").
        WillReturnResult(sqlmock.NewResult(0, 1))

    assert.NoError(t, repo.ConfirmByToken(context.Background(), "tok123"))
}

func TestUserRepo_ConfirmByTokenStaleLink(t *testing.T) {
    repo, mock := newUserRepo(t)

    mock.ExpectExec(`UPDATE users SET email_confirmed=1`).
        WithArgs("gone").
        WillReturnResult(sqlmock.NewResult(0, 0))

    err := repo.ConfirmByToken(context.Background(), "gone")
    assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUserRepo_ResetPasswordByTokenExpired(t *testing.T) {
    repo, mock := newUserRepo(t)

    expired := time.Now().Add(-time.Hour)
    rows := sqlmock.NewRows([]string{
        "id", "email", "full_name", "password_hash", "role", "email_confirmed",
        "confirmation_token", "reset_token", "reset_token_expires_at", "created_at", "updated_at",
    }).AddRow(9, "ivan@example.com", "Ivan", "$2a$04$hash", "user", true,
        nil, "rst", expired, time.Now(), time.Now())

    mock.ExpectQuery(`FROM users WHERE reset_token=\?`).
        WithArgs("rst").
        WillReturnRows(rows)

    err := repo.ResetPasswordByToken(context.Background(), "rst", "newpass", testBcryptCost)
    assert.ErrorIs(t, err, sql.ErrNoRows)
}
