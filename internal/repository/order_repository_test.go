package repository

import (
    "context"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/makshevelkin/MIPTORENT/internal/model"
)

func newMockDB(t *testing.T) (*OrderRepo, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
    require.NoError(t, err)
    t.Cleanup(func() { db.Close() })
    return NewOrderRepo(db), mock
}

func TestOrderRepo_ActiveWindows(t *testing.T) {
    repo, mock := newMockDB(t)
    ctx := context.Background()

    rows := sqlmock.NewRows([]string{"item_id", "start_at", "end_at"}).
        AddRow(7, "2025-06-01 10:00", "2025-06-01 12:00").
        AddRow(7, "2025-06-03 09:00", "2025-06-04 09:00")

    mock.ExpectQuery(`SELECT item_id, start_at, end_at FROM orders`).
        WithArgs(uint64(7)).
        WillReturnRows(rows)

    windows, err := repo.ActiveWindows(ctx, 7)
    require.NoError(t, err)
    require.Len(t, windows, 2)
    assert.Equal(t, uint64(7), windows[0].ItemID)
    assert.Equal(t, "2025-06-01 10:00", windows[0].StartAt)
    assert.Equal(t, "2025-06-04 09:00", windows[1].EndAt)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_ActiveWindowsExcludesReleasedRows(t *testing.T) {
    repo, mock := newMockDB(t)

    // Cancelled orders and rows without stored windows never reach the
    // availability check; the WHERE clause must carry both filters.
    mock.ExpectQuery(`status NOT IN \('cancelled', 'canceled'\)\s+AND start_at IS NOT NULL AND end_at IS NOT NULL`).
        WithArgs(uint64(3)).
        WillReturnRows(sqlmock.NewRows([]string{"item_id", "start_at", "end_at"}))

    windows, err := repo.ActiveWindows(context.Background(), 3)
    require.NoError(t, err)
    assert.Empty(t, windows)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_CreateTx(t *testing.T) {
    repo, mock := newMockDB(t)
    ctx := context.Background()

    mock.ExpectBegin()
    start := "2025-06-01 10:00"
    end := "2025-06-02 10:00"
    o := &model.Order{
        UserID:   42,
        ItemID:   7,
        Qty:      2,
        DateFrom: "2025-06-01",
        DateTo:   "2025-06-02",
        StartAt:  &start,
        EndAt:    &end,
        Status:   model.StatusPendingPayment,
        Total:    2000,
    }
    mock.ExpectExec(`INSERT INTO orders`).
        WithArgs(o.UserID, o.ItemID, o.Qty, o.DateFrom, o.DateTo, o.StartAt, o.EndAt, o.Status, o.Total).
        WillReturnResult(sqlmock.NewResult(11, 1))
    now := time.Now()
    mock.ExpectQuery(`SELECT created_at, updated_at FROM orders`).
        WithArgs(uint64(11)).
        WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
    mock.ExpectCommit()

    tx, err := repo.BeginTx(ctx)
    require.NoError(t, err)
    require.NoError(t, repo.CreateTx(ctx, tx, o))
    require.NoError(t, tx.Commit())

    assert.Equal(t, uint64(11), o.ID)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func orderRow(id uint64, status model.OrderStatus) *sqlmock.Rows {
    now := time.Now()
    return sqlmock.NewRows([]string{
        "id", "user_id", "item_id", "qty", "date_from", "date_to", "start_at", "end_at",
        "status", "total", "created_at", "updated_at",
    }).AddRow(id, 42, 7, 1, "2025-06-01", "2025-06-02", "2025-06-01 10:00", "2025-06-02 10:00",
        string(status), 1000, now, now)
}

func TestOrderRepo_UpdateStatus(t *testing.T) {
    repo, mock := newMockDB(t)
    ctx := context.Background()

    mock.ExpectBegin()
    mock.ExpectQuery(`FROM orders WHERE id = \? FOR UPDATE`).
        WithArgs(uint64(5)).
        WillReturnRows(orderRow(5, model.StatusPendingPayment))
    mock.ExpectExec(`UPDATE orders SET status = \?`).
        WithArgs(model.StatusPaid, uint64(5)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectQuery(`FROM orders WHERE id = \?`).
        WithArgs(uint64(5)).
        WillReturnRows(orderRow(5, model.StatusPaid))
    mock.ExpectCommit()

    o, err := repo.UpdateStatus(ctx, 5, model.StatusPaid)
    require.NoError(t, err)
    assert.Equal(t, model.StatusPaid, o.Status)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_UpdateStatusRejectsBadTransition(t *testing.T) {
    repo, mock := newMockDB(t)

    mock.ExpectBegin()
    mock.ExpectQuery(`FOR UPDATE`).
        WithArgs(uint64(5)).
        WillReturnRows(orderRow(5, model.StatusPaid))
    mock.ExpectRollback()

    _, err := repo.UpdateStatus(context.Background(), 5, model.StatusProcessing)
    assert.ErrorIs(t, err, ErrBadTransition)
    assert.NoError(t, mock.ExpectationsWereMet())
}
