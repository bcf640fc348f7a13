package router

// This file registers administrator routes for managing the catalog and
// the order board.  They are kept separate from the customer routes to
// keep concerns isolated.

import (
    "github.com/labstack/echo/v4"

    "github.com/makshevelkin/MIPTORENT/internal/handler"
    "github.com/makshevelkin/MIPTORENT/internal/middleware"
    "github.com/makshevelkin/MIPTORENT/internal/model"
)

// RegisterAdmin registers admin-scoped endpoints under /v1/admin.
// All routes require a valid JWT and the admin role.
func RegisterAdmin(e *echo.Echo, items *handler.AdminItemHandler, cats *handler.AdminCategoryHandler, orders *handler.AdminOrderHandler, jwtSecret string) {
    g := e.Group(
        "/v1/admin",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleAdmin),
    )

    // ---- Items ----
    g.GET("/items", items.ListItems)
    g.POST("/items", items.CreateItem)
    g.PUT("/items/:id", items.UpdateItem)
    g.PATCH("/items/:id", items.UpdateItem) // alias for clients that use PATCH
    g.DELETE("/items/:id", items.DeleteItem)

    // ---- Categories ----
    g.GET("/categories", cats.ListCategories)
    g.POST("/categories", cats.CreateCategory)
    g.PUT("/categories/:id", cats.UpdateCategory)
    g.PATCH("/categories/:id", cats.UpdateCategory)
    g.DELETE("/categories/:id", cats.DeleteCategory)

    // ---- Orders ----
    g.GET("/orders", orders.ListOrders)
    g.GET("/orders/:id", orders.GetOrder)
    g.PUT("/orders/:id/status", orders.UpdateStatus)
}
