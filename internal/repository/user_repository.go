package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"
    "time"

    "github.com/makshevelkin/MIPTORENT/internal/model"
    "github.com/makshevelkin/MIPTORENT/internal/utils"
)

// ErrEmailExists is returned when registering or changing to an email
// address that another account already uses.
var ErrEmailExists = errors.New("email already exists")

// UserRepo encapsulates all database queries on the `users` table,
// including the email confirmation and password reset token columns.
type UserRepo struct {
    db *sql.DB // db is the underlying database connection pool
}

// NewUserRepo constructs a UserRepo with the provided DB handle.
func NewUserRepo(db *sql.DB) *UserRepo {
    return &UserRepo{db: db}
}

const userColumns = `id, email, full_name, password_hash, role, email_confirmed,
    confirmation_token, reset_token, reset_token_expires_at, created_at, updated_at`

// scanUser reads one row into a model.User, converting nullable columns.
func scanUser(row *sql.Row) (model.User, error) {
    var (
        u         model.User
        confToken sql.NullString
        resToken  sql.NullString
        resExp    sql.NullTime
    )
    err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &u.Role, &u.EmailConfirmed,
        &confToken, &resToken, &resExp, &u.CreatedAt, &u.UpdatedAt)
    if err != nil {
        return model.User{}, err
    }
    if confToken.Valid {
        v := confToken.String
        u.ConfirmationToken = &v
    }
    if resToken.Valid {
        v := resToken.String
        u.ResetToken = &v
    }
    if resExp.Valid {
        v := resExp.Time
        u.ResetTokenExpiresAt = &v
    }
    return u, nil
}

// Create inserts a new user with a hashed password and a pending email
// confirmation token, returning the generated ID.
func (r *UserRepo) Create(ctx context.Context, email, fullName, password, role, confirmationToken string, cost int) (uint64, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    hash, err := utils.HashPassword(password, cost)
    if err != nil {
        return 0, err
    }
    res, err := r.db.ExecContext(ctx,
        "INSERT INTO users (email, full_name, password_hash, role, email_confirmed, confirmation_token) VALUES (?,?,?,?,0,?)",
        email, fullName, hash, role, confirmationToken)
    if err != nil {
        // MySQL duplicate-key error code for the unique email index.
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return 0, ErrEmailExists
        }
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    const q = "SELECT " + userColumns + " FROM users WHERE email=? LIMIT 1"
    return scanUser(r.db.QueryRowContext(ctx, q, email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
    const q = "SELECT " + userColumns + " FROM users WHERE id=? LIMIT 1"
    return scanUser(r.db.QueryRowContext(ctx, q, id))
}

// ConfirmByToken marks the account holding the given confirmation token
// as confirmed and clears the token. sql.ErrNoRows means the link is
// stale or was already used.
func (r *UserRepo) ConfirmByToken(ctx context.Context, token string) error {
    res, err := r.db.ExecContext(ctx,
        "UPDATE users SET email_confirmed=1, confirmation_token=NULL WHERE confirmation_token=?",
        token)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return sql.ErrNoRows
    }
    return nil
}

// SetConfirmationToken stores a fresh confirmation token and resets the
// confirmed flag; used when an email address changes or a confirmation
// link is re-sent.
func (r *UserRepo) SetConfirmationToken(ctx context.Context, userID uint64, token string) error {
    _, err := r.db.ExecContext(ctx,
        "UPDATE users SET email_confirmed=0, confirmation_token=? WHERE id=?",
        token, userID)
    return err
}

// UpdateProfile updates the display name and email.  Changing the email
// is the caller's signal to also call SetConfirmationToken; this method
// only writes the columns.  Duplicate emails map to ErrEmailExists.
func (r *UserRepo) UpdateProfile(ctx context.Context, userID uint64, fullName, email string) error {
    email = strings.ToLower(strings.TrimSpace(email))
    _, err := r.db.ExecContext(ctx,
        "UPDATE users SET full_name=?, email=? WHERE id=?",
        fullName, email, userID)
    if err != nil && strings.Contains(strings.ToLower(err.Error()), "1062") {
        return ErrEmailExists
    }
    return err
}

// UpdatePassword replaces the password hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, userID uint64, password string, cost int) error {
    hash, err := utils.HashPassword(password, cost)
    if err != nil {
        return err
    }
    _, err = r.db.ExecContext(ctx, "UPDATE users SET password_hash=? WHERE id=?", hash, userID)
    return err
}

// SetResetToken stores a password reset token with its expiry for the
// account holding the given email.  sql.ErrNoRows when no such account
// exists; callers deliberately hide that from the client.
func (r *UserRepo) SetResetToken(ctx context.Context, email, token string, expiresAt time.Time) (model.User, error) {
    u, err := r.GetByEmail(ctx, email)
    if err != nil {
        return model.User{}, err
    }
    _, err = r.db.ExecContext(ctx,
        "UPDATE users SET reset_token=?, reset_token_expires_at=? WHERE id=?",
        token, expiresAt, u.ID)
    if err != nil {
        return model.User{}, err
    }
    return u, nil
}

// GetByResetToken fetches the user holding a still-valid reset token.
// sql.ErrNoRows covers both an unknown and an expired token.
func (r *UserRepo) GetByResetToken(ctx context.Context, token string) (model.User, error) {
    const q = "SELECT " + userColumns + " FROM users WHERE reset_token=? LIMIT 1"
    u, err := scanUser(r.db.QueryRowContext(ctx, q, token))
    if err != nil {
        return model.User{}, err
    }
    if u.ResetTokenExpiresAt == nil || u.ResetTokenExpiresAt.Before(time.Now().UTC()) {
        return model.User{}, sql.ErrNoRows
    }
    return u, nil
}

// ResetPasswordByToken sets a new password for the account holding a
// still-valid reset token and clears the token.  sql.ErrNoRows covers
// both an unknown and an expired token.
func (r *UserRepo) ResetPasswordByToken(ctx context.Context, token, password string, cost int) error {
    const q = "SELECT " + userColumns + " FROM users WHERE reset_token=? LIMIT 1"
    u, err := scanUser(r.db.QueryRowContext(ctx, q, token))
    if err != nil {
        return err
    }
    if u.ResetTokenExpiresAt == nil || u.ResetTokenExpiresAt.Before(time.Now().UTC()) {
        return sql.ErrNoRows
    }
    hash, err := utils.HashPassword(password, cost)
    if err != nil {
        return err
    }
    _, err = r.db.ExecContext(ctx,
        "UPDATE users SET password_hash=?, reset_token=NULL, reset_token_expires_at=NULL WHERE id=?",
        hash, u.ID)
    return err
}
