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

    "github.com/makshevelkin/MIPTORENT/internal/config"
    "github.com/makshevelkin/MIPTORENT/internal/model"
    "github.com/makshevelkin/MIPTORENT/internal/repository"
)

func newCartHandler(t *testing.T) (*CartHandler, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
    require.NoError(t, err)
    t.Cleanup(func() { db.Close() })
    h := NewCartHandler(config.Config{}, nil,
        repository.NewItemRepo(db), repository.NewOrderRepo(db), repository.NewUserRepo(db))
    return h, mock
}

func bookCtx(body, itemID string, userID uint64) (echo.Context, *httptest.ResponseRecorder) {
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/v1/items/"+itemID+"/book", strings.NewReader(body))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.SetPath("/v1/items/:id/book")
    c.SetParamNames("id")
    c.SetParamValues(itemID)
    c.Set("user_id", userID)
    return c, rec
}

func mockUserRow(confirmed bool) *sqlmock.Rows {
    now := time.Now()
    return sqlmock.NewRows([]string{
        "id", "email", "full_name", "password_hash", "role", "email_confirmed",
        "confirmation_token", "reset_token", "reset_token_expires_at", "created_at", "updated_at",
    }).AddRow(9, "ivan@example.com", "Ivan Petrov", "$2a$04$hash", "user", confirmed,
        nil, nil, nil, now, now)
}

func mockItemRow() *sqlmock.Rows {
    now := time.Now()
    return sqlmock.NewRows([]string{
        "id", "name", "price_per_hour", "price_per_3_hours", "price_per_day", "price_per_week",
        "short_description", "description", "category_id", "created_at", "updated_at",
    }).AddRow(7, "Bike", 0, 0, 600, 3000, "city bike", "A city bike.", 2, now, now)
}

func windowColumns() *sqlmock.Rows {
    return sqlmock.NewRows([]string{"item_id", "start_at", "end_at"})
}

func TestBookItemCreatesProcessingOrder(t *testing.T) {
    h, mock := newCartHandler(t)

    mock.ExpectQuery(`FROM users WHERE id=\?`).
        WithArgs(uint64(9)).
        WillReturnRows(mockUserRow(true))
    mock.ExpectBegin()
    mock.ExpectQuery(`FROM items WHERE id = \? FOR UPDATE`).
        WithArgs(uint64(7)).
        WillReturnRows(mockItemRow())
    mock.ExpectQuery(`FROM orders`).
        WithArgs(uint64(7)).
        WillReturnRows(windowColumns())
    mock.ExpectExec(`INSERT INTO orders`).
        WithArgs(uint64(9), uint64(7), 1, "2025-06-01", "2025-06-02",
            "2025-06-01 10:00", "2025-06-02 10:00", model.StatusProcessing, 600).
        WillReturnResult(sqlmock.NewResult(11, 1))
    mock.ExpectQuery(`SELECT created_at, updated_at FROM orders WHERE id = \?`).
        WithArgs(uint64(11)).
        WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).
            AddRow(time.Now(), time.Now()))
    mock.ExpectCommit()

    c, rec := bookCtx(`{"start_at":"2025-06-01 10:00","end_at":"2025-06-02 10:00"}`, "7", 9)
    require.NoError(t, h.BookItem(c))
    assert.Equal(t, http.StatusCreated, rec.Code)
    assert.Contains(t, rec.Body.String(), `"status":"processing"`)
    assert.Contains(t, rec.Body.String(), `"total":600`)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookItemOverlapConflicts(t *testing.T) {
    h, mock := newCartHandler(t)

    mock.ExpectQuery(`FROM users WHERE id=\?`).
        WithArgs(uint64(9)).
        WillReturnRows(mockUserRow(true))
    mock.ExpectBegin()
    mock.ExpectQuery(`FROM items WHERE id = \? FOR UPDATE`).
        WithArgs(uint64(7)).
        WillReturnRows(mockItemRow())
    mock.ExpectQuery(`FROM orders`).
        WithArgs(uint64(7)).
        WillReturnRows(windowColumns().AddRow(7, "2025-06-01 12:00", "2025-06-01 14:00"))
    mock.ExpectRollback()

    c, rec := bookCtx(`{"start_at":"2025-06-01 10:00","end_at":"2025-06-02 10:00"}`, "7", 9)
    require.NoError(t, h.BookItem(c))
    assert.Equal(t, http.StatusConflict, rec.Code)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookItemRequiresConfirmedEmail(t *testing.T) {
    h, mock := newCartHandler(t)

    mock.ExpectQuery(`FROM users WHERE id=\?`).
        WithArgs(uint64(9)).
        WillReturnRows(mockUserRow(false))

    c, rec := bookCtx(`{"start_at":"2025-06-01 10:00","end_at":"2025-06-02 10:00"}`, "7", 9)
    require.NoError(t, h.BookItem(c))
    assert.Equal(t, http.StatusForbidden, rec.Code)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookItemRejectsInvertedWindow(t *testing.T) {
    h, _ := newCartHandler(t)

    c, rec := bookCtx(`{"start_at":"2025-06-02 10:00","end_at":"2025-06-01 10:00"}`, "7", 9)
    require.NoError(t, h.BookItem(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}
