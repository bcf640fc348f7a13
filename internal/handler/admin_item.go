// This file defines administrator endpoints for managing catalog items.
// All routes here sit behind JWT auth plus an admin role check.

package handler

import (
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/makshevelkin/MIPTORENT/internal/model"
    "github.com/makshevelkin/MIPTORENT/internal/repository"
)

// AdminItemHandler bundles repositories for item administration.
type AdminItemHandler struct {
    Items      *repository.ItemRepo
    Categories *repository.CategoryRepo
}

func NewAdminItemHandler(items *repository.ItemRepo, cats *repository.CategoryRepo) *AdminItemHandler {
    return &AdminItemHandler{Items: items, Categories: cats}
}

type itemReq struct {
    Name             string   `json:"name"`
    PricePerHour     int      `json:"price_per_hour"`
    PricePer3Hours   int      `json:"price_per_3_hours"`
    PricePerDay      int      `json:"price_per_day"`
    PricePerWeek     int      `json:"price_per_week"`
    ShortDescription string   `json:"short_description"`
    Description      string   `json:"description"`
    CategoryID       uint64   `json:"category_id"`
    Images           []string `json:"images"`
}

func (r *itemReq) validate() string {
    r.Name = strings.TrimSpace(r.Name)
    if r.Name == "" {
        return "name required"
    }
    if strings.TrimSpace(r.ShortDescription) == "" {
        return "short_description required"
    }
    if strings.TrimSpace(r.Description) == "" {
        return "description required"
    }
    if r.PricePerHour < 0 || r.PricePer3Hours < 0 || r.PricePerDay < 0 || r.PricePerWeek < 0 {
        return "prices must not be negative"
    }
    if !r.toModel(0).HasTariff() {
        return "at least one tariff must be set"
    }
    if r.CategoryID == 0 {
        return "category_id required"
    }
    return ""
}

func (r *itemReq) toModel(id uint64) model.Item {
    return model.Item{
        ID:               id,
        Name:             r.Name,
        PricePerHour:     r.PricePerHour,
        PricePer3Hours:   r.PricePer3Hours,
        PricePerDay:      r.PricePerDay,
        PricePerWeek:     r.PricePerWeek,
        ShortDescription: strings.TrimSpace(r.ShortDescription),
        Description:      r.Description,
        CategoryID:       r.CategoryID,
        Images:           r.Images,
    }
}

// ListItems returns a catalog page with full descriptions.  Accepts the
// same query parameters as the public listing.
func (h *AdminItemHandler) ListItems(c echo.Context) error {
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
        out = append(out, toPublicItem(it))
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out, "total": total})
}

// CreateItem adds a new item to the catalog.
func (h *AdminItemHandler) CreateItem(c echo.Context) error {
    var req itemReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if msg := req.validate(); msg != "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
    }
    ctx := c.Request().Context()

    if _, err := h.Categories.GetByID(ctx, req.CategoryID); err != nil {
        if err == repository.ErrCategoryNotFound {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "category not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }

    it := req.toModel(0)
    if err := h.Items.Create(ctx, &it); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create item failed"})
    }
    return c.JSON(http.StatusCreated, toPublicItem(it))
}

// UpdateItem rewrites an item and replaces its image gallery.
func (h *AdminItemHandler) UpdateItem(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req itemReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if msg := req.validate(); msg != "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
    }
    ctx := c.Request().Context()

    if _, err := h.Categories.GetByID(ctx, req.CategoryID); err != nil {
        if err == repository.ErrCategoryNotFound {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "category not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }

    it := req.toModel(id)
    if err := h.Items.Update(ctx, &it); err != nil {
        if err == repository.ErrItemNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "item not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update item failed"})
    }
    return c.JSON(http.StatusOK, toPublicItem(it))
}

// DeleteItem removes an item from the catalog along with its images
// and the orders that reference it.
func (h *AdminItemHandler) DeleteItem(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    if err := h.Items.Delete(c.Request().Context(), id); err != nil {
        if err == repository.ErrItemNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "item not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete item failed"})
    }
    return c.NoContent(http.StatusNoContent)
}
