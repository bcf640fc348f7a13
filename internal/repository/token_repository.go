package repository

import (
    "context"
    "database/sql"
    "time"
)

// TokenRepo persists refresh tokens.  Only the SHA-256 hash of a token
// ever reaches the database; the raw value lives client-side.
type TokenRepo struct {
    db *sql.DB // db is the underlying database connection pool
}

// NewTokenRepo constructs a TokenRepo with the provided DB handle.
func NewTokenRepo(db *sql.DB) *TokenRepo {
    return &TokenRepo{db: db}
}

// StoreRefresh inserts a refresh token hash row with its expiry.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
    _, err := r.db.ExecContext(ctx,
        "INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
        userID, tokenHash, exp)
    return err
}

// ValidateRefresh returns the owning user ID when a non-revoked,
// non-expired token with this hash exists.  Revoked and expired tokens
// both surface as sql.ErrNoRows so callers treat them alike.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
    var (
        userID    uint64
        expiresAt time.Time
        revokedAt sql.NullTime
    )
    err := r.db.QueryRowContext(ctx,
        "SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
        tokenHash).Scan(&userID, &expiresAt, &revokedAt)
    if err != nil {
        return 0, err
    }
    if revokedAt.Valid {
        return 0, sql.ErrNoRows
    }
    if time.Now().UTC().After(expiresAt) {
        return 0, sql.ErrNoRows
    }
    return userID, nil
}

// RotateRefresh atomically revokes the old token and stores the new
// one.  Used on every refresh so a stolen old token dies the moment the
// legitimate client rotates.
func (r *TokenRepo) RotateRefresh(ctx context.Context, userID uint64, oldHash, newHash string, exp time.Time) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    if _, err := tx.ExecContext(ctx,
        "UPDATE refresh_tokens SET revoked_at=NOW() WHERE token_hash=? AND revoked_at IS NULL",
        oldHash); err != nil {
        return err
    }
    if _, err := tx.ExecContext(ctx,
        "INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
        userID, newHash, exp); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// RevokeByHash marks a single token as revoked.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
    _, err := r.db.ExecContext(ctx,
        "UPDATE refresh_tokens SET revoked_at=NOW() WHERE token_hash=? AND revoked_at IS NULL",
        tokenHash)
    return err
}

// RevokeAllForUser revokes every active token a user holds, e.g. after
// a password reset.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
    _, err := r.db.ExecContext(ctx,
        "UPDATE refresh_tokens SET revoked_at=NOW() WHERE user_id=? AND revoked_at IS NULL",
        userID)
    return err
}
