// Package handler exposes HTTP handlers for both authenticated and public
// endpoints.  This file defines the public catalog API: unauthenticated
// users can browse categories and items and see when an item is already
// booked, without any account data leaking into the responses.

package handler

import (
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/makshevelkin/MIPTORENT/internal/model"
    "github.com/makshevelkin/MIPTORENT/internal/repository"
)

// CatalogHandler aggregates repositories needed for unauthenticated browsing.
type CatalogHandler struct {
    Categories *repository.CategoryRepo
    Items      *repository.ItemRepo
    Orders     *repository.OrderRepo
}

func NewCatalogHandler(cat *repository.CategoryRepo, items *repository.ItemRepo, orders *repository.OrderRepo) *CatalogHandler {
    return &CatalogHandler{Categories: cat, Items: items, Orders: orders}
}

// publicCategory represents a category exposed via the public API.
type publicCategory struct {
    ID   uint64 `json:"id"`
    Name string `json:"name"`
}

// publicItem represents an item in list and detail responses.  Zero
// prices mean the tier is not offered.
type publicItem struct {
    ID               uint64   `json:"id"`
    Name             string   `json:"name"`
    PricePerHour     int      `json:"price_per_hour"`
    PricePer3Hours   int      `json:"price_per_3_hours"`
    PricePerDay      int      `json:"price_per_day"`
    PricePerWeek     int      `json:"price_per_week"`
    ShortDescription string   `json:"short_description"`
    Description      string   `json:"description,omitempty"`
    CategoryID       uint64   `json:"category_id"`
    Images           []string `json:"images"`
}

// bookedWindow is one occupied rental window on an item detail page.
type bookedWindow struct {
    StartAt string `json:"start_at"`
    EndAt   string `json:"end_at"`
}

func toPublicItem(it model.Item) publicItem {
    images := it.Images
    if images == nil {
        images = []string{}
    }
    return publicItem{
        ID:               it.ID,
        Name:             it.Name,
        PricePerHour:     it.PricePerHour,
        PricePer3Hours:   it.PricePer3Hours,
        PricePerDay:      it.PricePerDay,
        PricePerWeek:     it.PricePerWeek,
        ShortDescription: it.ShortDescription,
        Description:      it.Description,
        CategoryID:       it.CategoryID,
        Images:           images,
    }
}

// ListCategories returns all categories. Response JSON contains an
// "items" array of publicCategory.
func (h *CatalogHandler) ListCategories(c echo.Context) error {
    ctx := c.Request().Context()
    cats, err := h.Categories.List(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    out := make([]publicCategory, 0, len(cats))
    for _, cat := range cats {
        out = append(out, publicCategory{ID: cat.ID, Name: cat.Name})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// ListItems returns a catalog page.  Query parameters: q (substring
// match on name and short description), category (ID), page, page_size.
func (h *CatalogHandler) ListItems(c echo.Context) error {
    ctx := c.Request().Context()

    q := repository.ItemSearchQuery{Text: c.QueryParam("q")}
    if raw := c.QueryParam("category"); raw != "" {
        id, err := strconv.ParseUint(raw, 10, 64)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category"})
        }
        q.CategoryID = id
    }
    q.Page, _ = strconv.Atoi(c.QueryParam("page"))
    q.PageSize, _ = strconv.Atoi(c.QueryParam("page_size"))

    items, total, err := h.Items.Search(ctx, q)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    out := make([]publicItem, 0, len(items))
    for _, it := range items {
        p := toPublicItem(it)
        p.Description = "" // list payloads stay slim
        out = append(out, p)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out, "total": total})
}

// GetItem returns one item with its full gallery and the windows during
// which it is already rented, so a client can grey out occupied dates.
func (h *CatalogHandler) GetItem(c echo.Context) error {
    ctx := c.Request().Context()
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    it, err := h.Items.GetByID(ctx, id)
    if err != nil {
        if err == repository.ErrItemNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "item not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    windows, err := h.Orders.ActiveWindows(ctx, id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    booked := make([]bookedWindow, 0, len(windows))
    for _, w := range windows {
        booked = append(booked, bookedWindow{StartAt: w.StartAt, EndAt: w.EndAt})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "item":   toPublicItem(*it),
        "booked": booked,
    })
}
