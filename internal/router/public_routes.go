package router

import (
    "github.com/labstack/echo/v4"

    "github.com/makshevelkin/MIPTORENT/internal/handler"
)

// RegisterPublic registers unauthenticated catalog endpoints.  These
// routes return sanitized data for categories and items and do not
// apply any JWT or role middleware; guests browse the catalog and see
// booked windows before creating an account.
func RegisterPublic(e *echo.Echo, h *handler.CatalogHandler) {
    e.GET("/v1/categories", h.ListCategories)
    // Supports ?q= substring search, ?category=, ?page= and ?page_size=.
    e.GET("/v1/items", h.ListItems)
    // Item detail includes the full image gallery and occupied windows.
    e.GET("/v1/items/:id", h.GetItem)
}
