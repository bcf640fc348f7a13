// This file defines repository methods for rental orders.  Orders are
// created by checkout inside a transaction that also holds a row lock
// on the item, so the availability re-check and the insert cannot be
// interleaved by a concurrent checkout of the same item.
package repository

import (
    "context"
    "database/sql"
    "errors"
    "fmt"

    "github.com/makshevelkin/MIPTORENT/internal/booking"
    "github.com/makshevelkin/MIPTORENT/internal/model"
)

// ErrOrderNotFound is returned when an order cannot be found.
var ErrOrderNotFound = errors.New("order not found")

// ErrBadTransition is returned when a status update is not allowed by
// the order lifecycle.
var ErrBadTransition = errors.New("status transition not allowed")

// OrderRepo encapsulates all database queries on the orders table.
type OrderRepo struct {
    db *sql.DB // db is the underlying database connection pool
}

// NewOrderRepo constructs an OrderRepo with the provided DB handle.
func NewOrderRepo(db *sql.DB) *OrderRepo {
    return &OrderRepo{db: db}
}

// BeginTx starts a transaction on the underlying pool.  Checkout uses
// it to span the item lock, the availability re-check and the inserts.
func (r *OrderRepo) BeginTx(ctx context.Context) (*sql.Tx, error) {
    return r.db.BeginTx(ctx, nil)
}

const orderColumns = `id, user_id, item_id, qty, date_from, date_to, start_at, end_at,
    status, total, created_at, updated_at`

// scanOrder reads one orders row, converting the nullable window columns.
func scanOrder(scanner interface{ Scan(...any) error }) (model.Order, error) {
    var (
        o       model.Order
        startAt sql.NullString
        endAt   sql.NullString
    )
    err := scanner.Scan(&o.ID, &o.UserID, &o.ItemID, &o.Qty, &o.DateFrom, &o.DateTo,
        &startAt, &endAt, &o.Status, &o.Total, &o.CreatedAt, &o.UpdatedAt)
    if err != nil {
        return model.Order{}, err
    }
    if startAt.Valid {
        v := startAt.String
        o.StartAt = &v
    }
    if endAt.Valid {
        v := endAt.String
        o.EndAt = &v
    }
    return o, nil
}

// CreateTx inserts a new order within the scope of an existing
// transaction.  It populates the generated ID and timestamps on the
// provided record.  The caller must commit or rollback.
func (r *OrderRepo) CreateTx(ctx context.Context, tx *sql.Tx, o *model.Order) error {
    const q = `INSERT INTO orders
        (user_id, item_id, qty, date_from, date_to, start_at, end_at, status, total)
        VALUES (?,?,?,?,?,?,?,?,?)`
    res, err := tx.ExecContext(ctx, q,
        o.UserID, o.ItemID, o.Qty, o.DateFrom, o.DateTo, o.StartAt, o.EndAt, o.Status, o.Total)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    o.ID = uint64(id)

    const sel = "SELECT created_at, updated_at FROM orders WHERE id = ?"
    return tx.QueryRowContext(ctx, sel, o.ID).Scan(&o.CreatedAt, &o.UpdatedAt)
}

const activeWindowsSQL = `SELECT item_id, start_at, end_at FROM orders
    WHERE item_id = ?
      AND status NOT IN ('cancelled', 'canceled')
      AND start_at IS NOT NULL AND end_at IS NOT NULL`

// ActiveWindows returns the rental windows of every order that still
// blocks the given item.  Rows without a stored window are excluded;
// they predate window tracking and cannot conflict.
func (r *OrderRepo) ActiveWindows(ctx context.Context, itemID uint64) ([]booking.ReservationWindow, error) {
    rows, err := r.db.QueryContext(ctx, activeWindowsSQL, itemID)
    if err != nil {
        return nil, err
    }
    return collectWindows(rows)
}

// ActiveWindowsTx is ActiveWindows inside the caller's transaction.
// Run after LockTx on the same item, it sees every committed order and
// no concurrent checkout can add one until the lock is released.
func (r *OrderRepo) ActiveWindowsTx(ctx context.Context, tx *sql.Tx, itemID uint64) ([]booking.ReservationWindow, error) {
    rows, err := tx.QueryContext(ctx, activeWindowsSQL, itemID)
    if err != nil {
        return nil, err
    }
    return collectWindows(rows)
}

func collectWindows(rows *sql.Rows) ([]booking.ReservationWindow, error) {
    defer rows.Close()
    var out []booking.ReservationWindow
    for rows.Next() {
        var w booking.ReservationWindow
        if err := rows.Scan(&w.ItemID, &w.StartAt, &w.EndAt); err != nil {
            return nil, err
        }
        out = append(out, w)
    }
    return out, rows.Err()
}

// GetByID fetches one order, returning ErrOrderNotFound when absent.
func (r *OrderRepo) GetByID(ctx context.Context, id uint64) (*model.Order, error) {
    const q = "SELECT " + orderColumns + " FROM orders WHERE id = ?"
    o, err := scanOrder(r.db.QueryRowContext(ctx, q, id))
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrOrderNotFound
        }
        return nil, err
    }
    return &o, nil
}

// ListByUser returns a user's orders, newest first.
func (r *OrderRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Order, error) {
    const q = "SELECT " + orderColumns + " FROM orders WHERE user_id = ? ORDER BY created_at DESC, id DESC"
    rows, err := r.db.QueryContext(ctx, q, userID)
    if err != nil {
        return nil, err
    }
    return collectOrders(rows)
}

// ListAll returns every order, optionally filtered by status, newest
// first.  Used by the administrator order board.
func (r *OrderRepo) ListAll(ctx context.Context, status model.OrderStatus) ([]model.Order, error) {
    q := "SELECT " + orderColumns + " FROM orders"
    args := []any{}
    if status != "" {
        q += " WHERE status = ?"
        args = append(args, status)
    }
    q += " ORDER BY created_at DESC, id DESC"
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    return collectOrders(rows)
}

func collectOrders(rows *sql.Rows) ([]model.Order, error) {
    defer rows.Close()
    var out []model.Order
    for rows.Next() {
        o, err := scanOrder(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, o)
    }
    return out, rows.Err()
}

// UpdateStatus moves an order to the next lifecycle state.  The current
// row is locked while the transition rule is checked so two concurrent
// updates cannot both pass.  ErrBadTransition wraps the offending pair.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id uint64, next model.OrderStatus) (*model.Order, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    const qLock = "SELECT " + orderColumns + " FROM orders WHERE id = ? FOR UPDATE"
    o, err := scanOrder(tx.QueryRowContext(ctx, qLock, id))
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrOrderNotFound
        }
        return nil, err
    }
    if !o.Status.CanTransitionTo(next) {
        return nil, fmt.Errorf("%w: %s -> %s", ErrBadTransition, o.Status, next)
    }
    if _, err := tx.ExecContext(ctx, "UPDATE orders SET status = ? WHERE id = ?", next, id); err != nil {
        return nil, err
    }
    const qSelect = "SELECT " + orderColumns + " FROM orders WHERE id = ?"
    o, err = scanOrder(tx.QueryRowContext(ctx, qSelect, id))
    if err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    return &o, nil
}
