// This file defines the cart and checkout API.  A cart is a draft in
// Redis: lines are appended and removed freely, re-validated on every
// render, and only turned into orders by checkout.  Checkout is the one
// place where money and availability become binding, so it re-checks
// every line inside a database transaction that holds a row lock on the
// item being booked.

package handler

import (
    "context"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/makshevelkin/MIPTORENT/internal/booking"
    "github.com/makshevelkin/MIPTORENT/internal/config"
    "github.com/makshevelkin/MIPTORENT/internal/model"
    "github.com/makshevelkin/MIPTORENT/internal/queue"
    "github.com/makshevelkin/MIPTORENT/internal/repository"
    queue_publisher "github.com/makshevelkin/MIPTORENT/internal/service"
)

// CartHandler bundles everything the cart and checkout endpoints need.
type CartHandler struct {
    Cfg    config.Config
    Store  *repository.CartStore
    Items  *repository.ItemRepo
    Orders *repository.OrderRepo
    Users  *repository.UserRepo
}

func NewCartHandler(cfg config.Config, store *repository.CartStore, items *repository.ItemRepo, orders *repository.OrderRepo, users *repository.UserRepo) *CartHandler {
    return &CartHandler{Cfg: cfg, Store: store, Items: items, Orders: orders, Users: users}
}

type addLineReq struct {
    ItemID  uint64 `json:"item_id"`
    StartAt string `json:"start_at"`
    EndAt   string `json:"end_at"`
    Qty     int    `json:"qty"`
}

// cartLineResp is one rendered cart line.  Conflict carries the
// storefront warning when the line's window is no longer free; the line
// stays in the cart so the user can adjust it.
type cartLineResp struct {
    Index    int     `json:"index"`
    ItemID   uint64  `json:"item_id"`
    ItemName string  `json:"item_name"`
    StartAt  string  `json:"start_at"`
    EndAt    string  `json:"end_at"`
    Qty      int     `json:"qty"`
    Total    int     `json:"total"`
    Tariff   string  `json:"tariff"`
    Conflict *string `json:"conflict,omitempty"`
}

type orderResp struct {
    ID       uint64  `json:"id"`
    ItemID   uint64  `json:"item_id"`
    Qty      int     `json:"qty"`
    DateFrom string  `json:"date_from"`
    DateTo   string  `json:"date_to"`
    StartAt  *string `json:"start_at"`
    EndAt    *string `json:"end_at"`
    Status   string  `json:"status"`
    Total    int     `json:"total"`
}

func toOrderResp(o model.Order) orderResp {
    return orderResp{
        ID:       o.ID,
        ItemID:   o.ItemID,
        Qty:      o.Qty,
        DateFrom: o.DateFrom,
        DateTo:   o.DateTo,
        StartAt:  o.StartAt,
        EndAt:    o.EndAt,
        Status:   string(o.Status),
        Total:    o.Total,
    }
}

// loadItems fetches the distinct items referenced by the cart.  Lines
// whose item has been removed from the catalog resolve to a nil entry.
func (h *CartHandler) loadItems(ctx context.Context, lines []model.CartLine) (map[uint64]*model.Item, error) {
    items := make(map[uint64]*model.Item)
    for _, ln := range lines {
        if _, seen := items[ln.ItemID]; seen {
            continue
        }
        it, err := h.Items.GetByID(ctx, ln.ItemID)
        if err != nil {
            if err == repository.ErrItemNotFound {
                items[ln.ItemID] = nil
                continue
            }
            return nil, err
        }
        items[ln.ItemID] = it
    }
    return items, nil
}

// renderCart normalizes every line, persists the normalized cart and
// builds the response.  Lines pointing at deleted items are dropped.
// Each surviving line is re-checked against committed orders and the
// other cart lines, skipping itself by index.
func (h *CartHandler) renderCart(ctx context.Context, userID uint64, lines []model.CartLine) ([]cartLineResp, error) {
    items, err := h.loadItems(ctx, lines)
    if err != nil {
        return nil, err
    }

    normalized := make([]model.CartLine, 0, len(lines))
    quotes := make([]booking.QuoteResult, 0, len(lines))
    names := make([]string, 0, len(lines))
    for _, ln := range lines {
        it := items[ln.ItemID]
        if it == nil {
            continue
        }
        norm, quote := booking.NormalizeLine(*it, ln)
        normalized = append(normalized, norm)
        quotes = append(quotes, quote)
        names = append(names, it.Name)
    }
    if err := h.Store.Save(ctx, userID, normalized); err != nil {
        return nil, err
    }

    out := make([]cartLineResp, 0, len(normalized))
    for i, ln := range normalized {
        resp := cartLineResp{
            Index:    i,
            ItemID:   ln.ItemID,
            ItemName: names[i],
            StartAt:  ln.StartAt,
            EndAt:    ln.EndAt,
            Qty:      ln.Qty,
            Total:    quotes[i].Total,
            Tariff:   quotes[i].Tariff,
        }
        windows, err := h.Orders.ActiveWindows(ctx, ln.ItemID)
        if err != nil {
            return nil, err
        }
        if conflict := booking.CheckAvailability(ln.ItemID, quotes[i].Start, quotes[i].End, windows, normalized, i); conflict != nil {
            msg := conflict.Message()
            resp.Conflict = &msg
        }
        out = append(out, resp)
    }
    return out, nil
}

// GetCart renders the cart.  Rendering has side effects: timestamps are
// normalized into canonical form and the repaired cart is persisted, so
// a cart read twice in a row returns identical lines.
func (h *CartHandler) GetCart(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx := c.Request().Context()

    lines, err := h.Store.Get(ctx, uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cart load failed"})
    }
    out, err := h.renderCart(ctx, uid, lines)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cart render failed"})
    }
    grand := 0
    for _, ln := range out {
        grand += ln.Total
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out, "total": grand})
}

// AddLine appends a booking draft to the cart after checking the window
// is free against committed orders and the lines already in the cart.
func (h *CartHandler) AddLine(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req addLineReq
    if err := c.Bind(&req); err != nil || req.ItemID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    // Stored lines are repaired leniently, but fresh input is validated:
    // both bounds must parse and the window must not be empty.
    reqStart, okStart := booking.ParseDateTime(strings.TrimSpace(req.StartAt))
    reqEnd, okEnd := booking.ParseDateTime(strings.TrimSpace(req.EndAt))
    if !okStart || !okEnd {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_at/end_at must be YYYY-MM-DD HH:MM"})
    }
    if !reqEnd.After(reqStart) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_at must be after start_at"})
    }
    ctx := c.Request().Context()

    it, err := h.Items.GetByID(ctx, req.ItemID)
    if err != nil {
        if err == repository.ErrItemNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "item not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }

    lines, err := h.Store.Get(ctx, uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cart load failed"})
    }

    line := model.CartLine{ItemID: req.ItemID, StartAt: strings.TrimSpace(req.StartAt), EndAt: strings.TrimSpace(req.EndAt), Qty: req.Qty}
    norm, quote := booking.NormalizeLine(*it, line)

    windows, err := h.Orders.ActiveWindows(ctx, req.ItemID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    if conflict := booking.CheckAvailability(req.ItemID, quote.Start, quote.End, windows, lines, booking.NoExclude); conflict != nil {
        return c.JSON(http.StatusConflict, echo.Map{"error": conflict.Message()})
    }

    lines = append(lines, norm)
    if err := h.Store.Save(ctx, uid, lines); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cart save failed"})
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "index":  len(lines) - 1,
        "total":  quote.Total,
        "tariff": quote.Tariff,
    })
}

type bookReq struct {
    StartAt string `json:"start_at"`
    EndAt   string `json:"end_at"`
}

// BookItem books an item straight from its detail page, skipping the
// cart. The window is committed immediately as a processing order under
// the same row-lock discipline as checkout. Draft cart lines are not
// consulted: only committed orders bind, and a duplicate draft will
// surface its own conflict on the next cart render.
func (h *CartHandler) BookItem(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    itemID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req bookReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    reqStart, okStart := booking.ParseDateTime(strings.TrimSpace(req.StartAt))
    reqEnd, okEnd := booking.ParseDateTime(strings.TrimSpace(req.EndAt))
    if !okStart || !okEnd {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_at/end_at must be YYYY-MM-DD HH:MM"})
    }
    if !reqEnd.After(reqStart) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_at must be after start_at"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
    defer cancel()

    u, err := h.Users.GetByID(ctx, uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
    }
    if !u.EmailConfirmed {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "confirm your email before booking"})
    }

    tx, err := h.Orders.BeginTx(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    it, err := h.Items.LockTx(ctx, tx, itemID)
    if err != nil {
        if err == repository.ErrItemNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "item not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
    }

    quote := booking.Quote(*it, req.StartAt, req.EndAt, 1)
    if quote.Total == 0 {
        return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "item cannot be priced"})
    }

    windows, err := h.Orders.ActiveWindowsTx(ctx, tx, itemID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
    }
    if conflict := booking.CheckAvailability(itemID, quote.Start, quote.End, windows, nil, booking.NoExclude); conflict != nil {
        return c.JSON(http.StatusConflict, echo.Map{"error": conflict.Message()})
    }

    startAt := quote.Start.Format(booking.DateTimeLayout)
    endAt := quote.End.Format(booking.DateTimeLayout)
    o := model.Order{
        UserID:   uid,
        ItemID:   itemID,
        Qty:      1,
        DateFrom: quote.Start.Format(booking.DateLayout),
        DateTo:   quote.End.Format(booking.DateLayout),
        StartAt:  &startAt,
        EndAt:    &endAt,
        Status:   model.StatusProcessing,
        Total:    quote.Total,
    }
    if err := h.Orders.CreateTx(ctx, tx, &o); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
    }
    committed = true

    return c.JSON(http.StatusCreated, toOrderResp(o))
}

// RemoveLine deletes one cart line by its index.
func (h *CartHandler) RemoveLine(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    idx, err := strconv.Atoi(c.Param("index"))
    if err != nil || idx < 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid index"})
    }
    ctx := c.Request().Context()

    lines, err := h.Store.Get(ctx, uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cart load failed"})
    }
    if idx >= len(lines) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "no such cart line"})
    }
    lines = append(lines[:idx], lines[idx+1:]...)
    if err := h.Store.Save(ctx, uid, lines); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cart save failed"})
    }
    return c.NoContent(http.StatusNoContent)
}

// Checkout turns the whole cart into pending_payment orders.  All lines
// are processed in one database transaction: each item row is locked
// before its availability is re-checked, so two users racing for the
// same window cannot both commit.  Any conflict or unpriceable line
// aborts the lot; the cart survives untouched for the user to fix.
func (h *CartHandler) Checkout(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
    defer cancel()

    u, err := h.Users.GetByID(ctx, uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "checkout failed"})
    }
    if !u.EmailConfirmed {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "confirm your email before checkout"})
    }

    lines, err := h.Store.Get(ctx, uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cart load failed"})
    }
    if len(lines) == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "cart is empty"})
    }

    tx, err := h.Orders.BeginTx(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "checkout failed"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    created := make([]model.Order, 0, len(lines))
    for i, ln := range lines {
        it, err := h.Items.LockTx(ctx, tx, ln.ItemID)
        if err != nil {
            if err == repository.ErrItemNotFound {
                return c.JSON(http.StatusConflict, echo.Map{
                    "error": "item no longer available",
                    "index": i,
                })
            }
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "checkout failed"})
        }

        norm, quote := booking.NormalizeLine(*it, ln)
        if quote.Total == 0 {
            return c.JSON(http.StatusUnprocessableEntity, echo.Map{
                "error": "item cannot be priced",
                "index": i,
            })
        }

        windows, err := h.Orders.ActiveWindowsTx(ctx, tx, ln.ItemID)
        if err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "checkout failed"})
        }
        if conflict := booking.CheckAvailability(ln.ItemID, quote.Start, quote.End, windows, lines, i); conflict != nil {
            return c.JSON(http.StatusConflict, echo.Map{
                "error": conflict.Message(),
                "index": i,
            })
        }

        startAt := norm.StartAt
        endAt := norm.EndAt
        o := model.Order{
            UserID:   uid,
            ItemID:   ln.ItemID,
            Qty:      norm.Qty,
            DateFrom: quote.Start.Format(booking.DateLayout),
            DateTo:   quote.End.Format(booking.DateLayout),
            StartAt:  &startAt,
            EndAt:    &endAt,
            Status:   model.StatusPendingPayment,
            Total:    quote.Total,
        }
        if err := h.Orders.CreateTx(ctx, tx, &o); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "checkout failed"})
        }
        created = append(created, o)
    }

    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "checkout failed"})
    }
    committed = true

    if err := h.Store.Clear(ctx, uid); err != nil {
        c.Logger().Warnf("checkout: clearing cart for user %d failed: %v", uid, err)
    }
    h.sendOrderMail(uid, created)

    out := make([]orderResp, 0, len(created))
    for _, o := range created {
        out = append(out, toOrderResp(o))
    }
    return c.JSON(http.StatusCreated, echo.Map{"orders": out})
}

// sendOrderMail enqueues the checkout receipt.  Best effort only.
func (h *CartHandler) sendOrderMail(userID uint64, orders []model.Order) {
    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByID(ctx, userID)
    if err != nil {
        return
    }
    total := 0
    var b strings.Builder
    b.WriteString("Ваш заказ оформлен и ожидает оплаты.\n")
    for _, o := range orders {
        total += o.Total
        b.WriteString("Заказ №" + strconv.FormatUint(o.ID, 10) +
            ": " + o.DateFrom + " — " + o.DateTo +
            ", сумма " + strconv.Itoa(o.Total) + " руб.\n")
    }
    b.WriteString("Итого: " + strconv.Itoa(total) + " руб.")

    _ = queue_publisher.PublishMail(ctx, queue.MailEvent{
        Kind:    queue.MailKindOrderConfirmation,
        To:      u.Email,
        Subject: "Подтверждение заказа",
        Body:    b.String(),
        UserID:  userID,
    })
}

// ListOrders returns the authenticated user's orders, newest first.
func (h *CartHandler) ListOrders(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx := c.Request().Context()

    orders, err := h.Orders.ListByUser(ctx, uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    out := make([]orderResp, 0, len(orders))
    for _, o := range orders {
        out = append(out, toOrderResp(o))
    }
    return c.JSON(http.StatusOK, echo.Map{"orders": out})
}
