package handler

import (
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/makshevelkin/MIPTORENT/internal/model"
    "github.com/makshevelkin/MIPTORENT/internal/repository"
)

func newOrderHandler(t *testing.T) (*AdminOrderHandler, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
    require.NoError(t, err)
    t.Cleanup(func() { db.Close() })
    return NewAdminOrderHandler(repository.NewOrderRepo(db)), mock
}

func statusUpdateCtx(body string, id string) (echo.Context, *httptest.ResponseRecorder) {
    e := echo.New()
    req := httptest.NewRequest(http.MethodPut, "/v1/admin/orders/"+id+"/status", strings.NewReader(body))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.SetPath("/v1/admin/orders/:id/status")
    c.SetParamNames("id")
    c.SetParamValues(id)
    return c, rec
}

func mockOrderRow(id uint64, status model.OrderStatus) *sqlmock.Rows {
    now := time.Now()
    return sqlmock.NewRows([]string{
        "id", "user_id", "item_id", "qty", "date_from", "date_to", "start_at", "end_at",
        "status", "total", "created_at", "updated_at",
    }).AddRow(id, 42, 7, 1, "2025-06-01", "2025-06-02", "2025-06-01 10:00", "2025-06-02 10:00",
        string(status), 1000, now, now)
}

func TestAdminUpdateStatusUnknownStatus(t *testing.T) {
    h, _ := newOrderHandler(t)
    c, rec := statusUpdateCtx(`{"status":"shipped"}`, "5")

    require.NoError(t, h.UpdateStatus(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminUpdateStatusBadTransition(t *testing.T) {
    h, mock := newOrderHandler(t)

    mock.ExpectBegin()
    mock.ExpectQuery(`FOR UPDATE`).
        WithArgs(uint64(5)).
        WillReturnRows(mockOrderRow(5, model.StatusCancelled))
    mock.ExpectRollback()

    c, rec := statusUpdateCtx(`{"status":"paid"}`, "5")
    require.NoError(t, h.UpdateStatus(c))
    assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminUpdateStatusSuccess(t *testing.T) {
    h, mock := newOrderHandler(t)

    mock.ExpectBegin()
    mock.ExpectQuery(`FOR UPDATE`).
        WithArgs(uint64(5)).
        WillReturnRows(mockOrderRow(5, model.StatusPendingPayment))
    mock.ExpectExec(`UPDATE orders SET status = \?`).
        WithArgs(model.StatusPaid, uint64(5)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectQuery(`FROM orders WHERE id = \?`).
        WithArgs(uint64(5)).
        WillReturnRows(mockOrderRow(5, model.StatusPaid))
    mock.ExpectCommit()

    c, rec := statusUpdateCtx(`{"status":"paid"}`, "5")
    require.NoError(t, h.UpdateStatus(c))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, rec.Body.String(), `"status":"paid"`)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminUpdateStatusNotFound(t *testing.T) {
    h, mock := newOrderHandler(t)

    mock.ExpectBegin()
    mock.ExpectQuery(`FOR UPDATE`).
        WithArgs(uint64(99)).
        WillReturnRows(sqlmock.NewRows([]string{"id"}))
    mock.ExpectRollback()

    c, rec := statusUpdateCtx(`{"status":"paid"}`, "99")
    require.NoError(t, h.UpdateStatus(c))
    assert.Equal(t, http.StatusNotFound, rec.Code)
}
