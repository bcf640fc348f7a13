package router

import (
    "github.com/labstack/echo/v4"

    "github.com/makshevelkin/MIPTORENT/internal/handler"
    "github.com/makshevelkin/MIPTORENT/internal/middleware"
    "github.com/makshevelkin/MIPTORENT/internal/model"
)

// RegisterCart registers the cart, checkout and order history routes.
// All routes require a valid JWT; admins get them too since an admin is
// also a renter.
func RegisterCart(e *echo.Echo, h *handler.CartHandler, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleUser, model.RoleAdmin),
    )
    // Rendering the cart normalizes and persists it; GET is not
    // side-effect free here and that is intentional.
    g.GET("/cart", h.GetCart)
    g.POST("/cart", h.AddLine)
    g.DELETE("/cart/:index", h.RemoveLine)
    // Instant booking from the item page, no cart involved.
    g.POST("/items/:id/book", h.BookItem)
    g.POST("/checkout", h.Checkout)
    g.GET("/orders", h.ListOrders)
}
