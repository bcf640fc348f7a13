// Administrator endpoints for managing categories.

package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/makshevelkin/MIPTORENT/internal/model"
    "github.com/makshevelkin/MIPTORENT/internal/repository"
)

// AdminCategoryHandler bundles the category repository for admin routes.
type AdminCategoryHandler struct {
    Categories *repository.CategoryRepo
}

func NewAdminCategoryHandler(cats *repository.CategoryRepo) *AdminCategoryHandler {
    return &AdminCategoryHandler{Categories: cats}
}

type categoryReq struct {
    Name string `json:"name"`
}

// ListCategories returns every category.
func (h *AdminCategoryHandler) ListCategories(c echo.Context) error {
    cats, err := h.Categories.List(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    out := make([]publicCategory, 0, len(cats))
    for _, cat := range cats {
        out = append(out, publicCategory{ID: cat.ID, Name: cat.Name})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// CreateCategory adds a new category.
func (h *AdminCategoryHandler) CreateCategory(c echo.Context) error {
    var req categoryReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Name = strings.TrimSpace(req.Name)
    if req.Name == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
    }

    cat := model.Category{Name: req.Name}
    if err := h.Categories.Create(c.Request().Context(), &cat); err != nil {
        if err == repository.ErrCategoryExists {
            return c.JSON(http.StatusConflict, echo.Map{"error": "category already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create category failed"})
    }
    return c.JSON(http.StatusCreated, publicCategory{ID: cat.ID, Name: cat.Name})
}

// UpdateCategory renames a category.
func (h *AdminCategoryHandler) UpdateCategory(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req categoryReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Name = strings.TrimSpace(req.Name)
    if req.Name == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
    }

    if err := h.Categories.UpdateName(c.Request().Context(), id, req.Name); err != nil {
        switch err {
        case repository.ErrCategoryNotFound:
            return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
        case repository.ErrCategoryExists:
            return c.JSON(http.StatusConflict, echo.Map{"error": "category already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update category failed"})
    }
    return c.JSON(http.StatusOK, publicCategory{ID: id, Name: req.Name})
}

// DeleteCategory removes an empty category.  409 while items reference it.
func (h *AdminCategoryHandler) DeleteCategory(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    if err := h.Categories.Delete(c.Request().Context(), id); err != nil {
        switch err {
        case repository.ErrCategoryNotFound:
            return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
        case repository.ErrConflict:
            return c.JSON(http.StatusConflict, echo.Map{"error": "category still has items"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete category failed"})
    }
    return c.NoContent(http.StatusNoContent)
}
