// This file defines repository methods for rental items and their
// gallery images.  Images live in the item_images table and are
// replaced wholesale on every item update, keeping ordering stable via
// the position column.
package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/makshevelkin/MIPTORENT/internal/model"
)

// ErrItemNotFound is returned when an item cannot be found.
var ErrItemNotFound = errors.New("item not found")

// ItemRepo encapsulates all database queries on the items and
// item_images tables.
type ItemRepo struct {
    db *sql.DB // db is the underlying database connection pool
}

// NewItemRepo constructs an ItemRepo with the provided DB handle.
func NewItemRepo(db *sql.DB) *ItemRepo {
    return &ItemRepo{db: db}
}

const itemColumns = `id, name, price_per_hour, price_per_3_hours, price_per_day, price_per_week,
    short_description, description, category_id, created_at, updated_at`

// ItemSearchQuery defines filters & pagination for browsing the catalog.
type ItemSearchQuery struct {
    Text       string // every word must match name or one of the descriptions
    CategoryID uint64 // 0 means all categories
    Page       int
    PageSize   int
}

// scanItem reads one items row into a model.Item without images.
func scanItem(scanner interface{ Scan(...any) error }) (model.Item, error) {
    var it model.Item
    err := scanner.Scan(&it.ID, &it.Name, &it.PricePerHour, &it.PricePer3Hours, &it.PricePerDay,
        &it.PricePerWeek, &it.ShortDescription, &it.Description, &it.CategoryID,
        &it.CreatedAt, &it.UpdatedAt)
    return it, err
}

// Create inserts an item together with its gallery images in one
// transaction.  The generated ID is populated on the model.
func (r *ItemRepo) Create(ctx context.Context, it *model.Item) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    const qInsert = `INSERT INTO items
        (name, price_per_hour, price_per_3_hours, price_per_day, price_per_week,
         short_description, description, category_id)
        VALUES (?,?,?,?,?,?,?,?)`
    res, err := tx.ExecContext(ctx, qInsert,
        it.Name, it.PricePerHour, it.PricePer3Hours, it.PricePerDay, it.PricePerWeek,
        it.ShortDescription, it.Description, it.CategoryID)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    it.ID = uint64(id)

    if err := replaceImagesTx(ctx, tx, it.ID, it.Images); err != nil {
        return err
    }

    const qSelect = "SELECT created_at, updated_at FROM items WHERE id = ?"
    if err := tx.QueryRowContext(ctx, qSelect, it.ID).Scan(&it.CreatedAt, &it.UpdatedAt); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// replaceImagesTx deletes an item's image rows and inserts the new set
// preserving slice order in the position column.
func replaceImagesTx(ctx context.Context, tx *sql.Tx, itemID uint64, urls []string) error {
    if _, err := tx.ExecContext(ctx, "DELETE FROM item_images WHERE item_id = ?", itemID); err != nil {
        return err
    }
    if len(urls) == 0 {
        return nil
    }
    query := "INSERT INTO item_images (item_id, url, position) VALUES "
    args := make([]any, 0, len(urls)*3)
    for i, u := range urls {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?)"
        args = append(args, itemID, u, i)
    }
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// GetByID fetches one item with its images, returning ErrItemNotFound
// when no row exists.
func (r *ItemRepo) GetByID(ctx context.Context, id uint64) (*model.Item, error) {
    const q = "SELECT " + itemColumns + " FROM items WHERE id = ?"
    it, err := scanItem(r.db.QueryRowContext(ctx, q, id))
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrItemNotFound
        }
        return nil, err
    }
    if it.Images, err = r.imagesFor(ctx, id); err != nil {
        return nil, err
    }
    return &it, nil
}

// imagesFor returns an item's image URLs ordered by position.
func (r *ItemRepo) imagesFor(ctx context.Context, itemID uint64) ([]string, error) {
    const q = "SELECT url FROM item_images WHERE item_id = ? ORDER BY position"
    rows, err := r.db.QueryContext(ctx, q, itemID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var urls []string
    for rows.Next() {
        var u string
        if err := rows.Scan(&u); err != nil {
            return nil, err
        }
        urls = append(urls, u)
    }
    return urls, rows.Err()
}

// Search returns a catalog page matching the query along with the total
// number of matches.  Items carry only their first image to keep list
// payloads small; GetByID returns the full gallery.
func (r *ItemRepo) Search(ctx context.Context, q ItemSearchQuery) ([]model.Item, int64, error) {
    where := []string{}
    args := []any{}

    // Word search: every word must occur somewhere in the name, the
    // short description or the full description, in any order.
    for _, word := range strings.Fields(strings.ToLower(q.Text)) {
        needle := "%" + word + "%"
        where = append(where,
            "(LOWER(i.name) LIKE ? OR LOWER(i.short_description) LIKE ? OR LOWER(i.description) LIKE ?)")
        args = append(args, needle, needle, needle)
    }
    if q.CategoryID != 0 {
        where = append(where, "i.category_id = ?")
        args = append(args, q.CategoryID)
    }

    cond := "1=1"
    if len(where) > 0 {
        cond = strings.Join(where, " AND ")
    }

    var total int64
    countSQL := "SELECT COUNT(*) FROM items i WHERE " + cond
    if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
        return nil, 0, err
    }

    if q.PageSize <= 0 {
        q.PageSize = 20
    }
    if q.Page <= 0 {
        q.Page = 1
    }
    limit := q.PageSize
    offset := (q.Page - 1) * q.PageSize

    dataSQL := `SELECT
            i.id, i.name, i.price_per_hour, i.price_per_3_hours, i.price_per_day, i.price_per_week,
            i.short_description, i.description, i.category_id, i.created_at, i.updated_at,
            COALESCE((SELECT url FROM item_images img
                      WHERE img.item_id = i.id ORDER BY img.position LIMIT 1), '') AS cover
        FROM items i
        WHERE ` + cond + `
        ORDER BY i.name ASC
        LIMIT ? OFFSET ?`

    argsData := append(append([]any{}, args...), limit, offset)

    rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
    if err != nil {
        return nil, 0, err
    }
    defer rows.Close()

    out := make([]model.Item, 0, limit)
    for rows.Next() {
        var (
            it    model.Item
            cover string
        )
        if err := rows.Scan(&it.ID, &it.Name, &it.PricePerHour, &it.PricePer3Hours, &it.PricePerDay,
            &it.PricePerWeek, &it.ShortDescription, &it.Description, &it.CategoryID,
            &it.CreatedAt, &it.UpdatedAt, &cover); err != nil {
            return nil, 0, err
        }
        if cover != "" {
            it.Images = []string{cover}
        }
        out = append(out, it)
    }
    if err := rows.Err(); err != nil {
        return nil, 0, err
    }
    return out, total, nil
}

// Update rewrites all item columns and replaces the image gallery in
// one transaction.  ErrItemNotFound when the item does not exist.
func (r *ItemRepo) Update(ctx context.Context, it *model.Item) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    const q = `UPDATE items SET
        name = ?, price_per_hour = ?, price_per_3_hours = ?, price_per_day = ?, price_per_week = ?,
        short_description = ?, description = ?, category_id = ?
        WHERE id = ?`
    res, err := tx.ExecContext(ctx, q,
        it.Name, it.PricePerHour, it.PricePer3Hours, it.PricePerDay, it.PricePerWeek,
        it.ShortDescription, it.Description, it.CategoryID, it.ID)
    if err != nil {
        return err
    }
    // RowsAffected is 0 for both a missing row and a no-op update, so
    // confirm existence explicitly before reporting not found.
    if n, err := res.RowsAffected(); err != nil {
        return err
    } else if n == 0 {
        var exists int
        if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM items WHERE id = ?", it.ID).Scan(&exists); err != nil {
            return err
        }
        if exists == 0 {
            return ErrItemNotFound
        }
    }

    if err := replaceImagesTx(ctx, tx, it.ID, it.Images); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// Delete removes an item together with its images and every order that
// references it, so the catalog never holds dangling bookings.
func (r *ItemRepo) Delete(ctx context.Context, id uint64) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    if _, err := tx.ExecContext(ctx, "DELETE FROM orders WHERE item_id = ?", id); err != nil {
        return err
    }
    if _, err := tx.ExecContext(ctx, "DELETE FROM item_images WHERE item_id = ?", id); err != nil {
        return err
    }
    res, err := tx.ExecContext(ctx, "DELETE FROM items WHERE id = ?", id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrItemNotFound
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// LockTx takes a row lock on one item inside the caller's transaction.
// Checkout holds this lock across the availability re-check and the
// order insert so two concurrent checkouts of the same item serialize.
func (r *ItemRepo) LockTx(ctx context.Context, tx *sql.Tx, itemID uint64) (*model.Item, error) {
    const q = "SELECT " + itemColumns + " FROM items WHERE id = ? FOR UPDATE"
    it, err := scanItem(tx.QueryRowContext(ctx, q, itemID))
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrItemNotFound
        }
        return nil, err
    }
    return &it, nil
}
