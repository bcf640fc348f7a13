package model

import "time"

// Item represents a rentable catalog entry.  An item carries up to four
// tariff rates; a zero rate means the tier is not offered.  Rates are
// whole currency units, not minor units.  At least one tier must be
// configured for the item to be priceable.
//
// Fields:
//  ID               – primary key identifier.
//  Name             – item name as shown in the catalog.
//  PricePerHour     – hourly rate (0 = tier not offered).
//  PricePer3Hours   – three-hour-block rate (0 = tier not offered).
//  PricePerDay      – daily rate (0 = tier not offered).
//  PricePerWeek     – weekly-bracket rate, billed per day (0 = not offered).
//  ShortDescription – one-line summary for catalog listings.
//  Description      – full description for the detail page.
//  CategoryID       – owning category.
//  Images           – ordered image URLs attached to the item.
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last update timestamp.
type Item struct {
    ID               uint64    // items.id
    Name             string    // items.name
    PricePerHour     int       // items.price_per_hour
    PricePer3Hours   int       // items.price_per_3h
    PricePerDay      int       // items.price_per_day
    PricePerWeek     int       // items.price_per_week
    ShortDescription string    // items.short_description
    Description      string    // items.description
    CategoryID       uint64    // items.category_id
    Images           []string  // item_images.url, ordered by position
    CreatedAt        time.Time // items.created_at
    UpdatedAt        time.Time // items.updated_at
}

// HasTariff reports whether at least one tariff tier is configured.
// Items without any tier yield a zero quote and cannot be checked out.
func (i Item) HasTariff() bool {
    return i.PricePerHour > 0 || i.PricePer3Hours > 0 || i.PricePerDay > 0 || i.PricePerWeek > 0
}
