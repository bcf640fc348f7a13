package model

import "time"

// Category groups rental items in the catalog.  Category names are
// unique; a category cannot be deleted while items still reference it.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – unique category name.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Category struct {
    ID        uint64    // categories.id
    Name      string    // categories.name
    CreatedAt time.Time // categories.created_at
    UpdatedAt time.Time // categories.updated_at
}
