// Administrator endpoints for the order board: listing every order and
// walking orders through their lifecycle.

package handler

import (
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/makshevelkin/MIPTORENT/internal/model"
    "github.com/makshevelkin/MIPTORENT/internal/repository"
)

// AdminOrderHandler bundles the order repository for admin routes.
type AdminOrderHandler struct {
    Orders *repository.OrderRepo
}

func NewAdminOrderHandler(orders *repository.OrderRepo) *AdminOrderHandler {
    return &AdminOrderHandler{Orders: orders}
}

// adminOrderResp extends the customer view with the owning user.
type adminOrderResp struct {
    orderResp
    UserID uint64 `json:"user_id"`
}

type statusReq struct {
    Status string `json:"status"`
}

// ListOrders returns every order, optionally filtered by ?status=.
func (h *AdminOrderHandler) ListOrders(c echo.Context) error {
    var status model.OrderStatus
    if raw := strings.TrimSpace(c.QueryParam("status")); raw != "" {
        status = model.OrderStatus(raw)
        if !status.Valid() {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
        }
    }

    orders, err := h.Orders.ListAll(c.Request().Context(), status)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    out := make([]adminOrderResp, 0, len(orders))
    for _, o := range orders {
        out = append(out, adminOrderResp{orderResp: toOrderResp(o), UserID: o.UserID})
    }
    return c.JSON(http.StatusOK, echo.Map{"orders": out})
}

// GetOrder returns one order by ID.
func (h *AdminOrderHandler) GetOrder(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    o, err := h.Orders.GetByID(c.Request().Context(), id)
    if err != nil {
        if err == repository.ErrOrderNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, adminOrderResp{orderResp: toOrderResp(*o), UserID: o.UserID})
}

// UpdateStatus moves an order along its lifecycle.  Transitions outside
// the allowed graph are rejected with 422 so a cancelled order can
// never come back to life.
func (h *AdminOrderHandler) UpdateStatus(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req statusReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    next := model.OrderStatus(strings.TrimSpace(req.Status))
    if !next.Valid() {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
    }

    o, err := h.Orders.UpdateStatus(c.Request().Context(), id, next)
    if err != nil {
        switch {
        case err == repository.ErrOrderNotFound:
            return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
        case errors.Is(err, repository.ErrBadTransition):
            return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update status failed"})
    }
    return c.JSON(http.StatusOK, adminOrderResp{orderResp: toOrderResp(*o), UserID: o.UserID})
}
