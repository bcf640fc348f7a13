// This file defines repository methods for catalog categories.  A
// Category groups items; deletion is refused while items still
// reference the category so the catalog never orphans inventory.
package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/makshevelkin/MIPTORENT/internal/model"
)

// ErrCategoryNotFound is returned when a category cannot be found.
var ErrCategoryNotFound = errors.New("category not found")

// ErrCategoryExists is returned when creating or renaming a category to
// a name that is already taken.
var ErrCategoryExists = errors.New("category already exists")

// CategoryRepo encapsulates all database queries related to categories.
type CategoryRepo struct {
    db *sql.DB
}

// NewCategoryRepo constructs a CategoryRepo with the provided DB handle.
func NewCategoryRepo(db *sql.DB) *CategoryRepo {
    return &CategoryRepo{db: db}
}

// Create inserts a new category.  On success the ID field is populated
// with the auto-generated value and the timestamp columns are read back.
func (r *CategoryRepo) Create(ctx context.Context, c *model.Category) error {
    const qInsert = "INSERT INTO categories (name) VALUES (?)"
    res, err := r.db.ExecContext(ctx, qInsert, c.Name)
    if err != nil {
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return ErrCategoryExists
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    c.ID = uint64(id)

    const qSelect = "SELECT name, created_at, updated_at FROM categories WHERE id = ?"
    return r.db.QueryRowContext(ctx, qSelect, c.ID).Scan(&c.Name, &c.CreatedAt, &c.UpdatedAt)
}

// GetByID fetches a category by its ID, returning ErrCategoryNotFound
// when no row exists.
func (r *CategoryRepo) GetByID(ctx context.Context, id uint64) (*model.Category, error) {
    const q = "SELECT id, name, created_at, updated_at FROM categories WHERE id = ?"
    var c model.Category
    if err := r.db.QueryRowContext(ctx, q, id).Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrCategoryNotFound
        }
        return nil, err
    }
    return &c, nil
}

// List returns all categories ordered by name.
func (r *CategoryRepo) List(ctx context.Context) ([]*model.Category, error) {
    const q = "SELECT id, name, created_at, updated_at FROM categories ORDER BY name"
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var out []*model.Category
    for rows.Next() {
        c := new(model.Category)
        if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
            return nil, err
        }
        out = append(out, c)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// UpdateName renames a category.  It returns ErrCategoryNotFound when no
// row is affected and ErrCategoryExists on a duplicate name.
func (r *CategoryRepo) UpdateName(ctx context.Context, id uint64, name string) error {
    const q = "UPDATE categories SET name = ? WHERE id = ?"
    res, err := r.db.ExecContext(ctx, q, name, id)
    if err != nil {
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return ErrCategoryExists
        }
        return err
    }
    // RowsAffected is 0 for both a missing row and a rename to the
    // current name, so confirm existence before reporting not found.
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        var exists int
        if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories WHERE id = ?", id).Scan(&exists); err != nil {
            return err
        }
        if exists == 0 {
            return ErrCategoryNotFound
        }
    }
    return nil
}

// Delete removes a category.  ErrConflict is returned while items still
// reference it; ErrCategoryNotFound when it does not exist.
func (r *CategoryRepo) Delete(ctx context.Context, id uint64) error {
    const qCount = "SELECT COUNT(*) FROM items WHERE category_id = ?"
    var n int
    if err := r.db.QueryRowContext(ctx, qCount, id).Scan(&n); err != nil {
        return err
    }
    if n > 0 {
        return ErrConflict
    }
    const qDelete = "DELETE FROM categories WHERE id = ?"
    res, err := r.db.ExecContext(ctx, qDelete, id)
    if err != nil {
        return err
    }
    affected, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if affected == 0 {
        return ErrCategoryNotFound
    }
    return nil
}
