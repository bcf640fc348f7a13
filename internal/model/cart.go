package model

// CartLine is one in-progress booking in a user's cart.  Lines are
// ephemeral: they live as a JSON array in Redis keyed by user and have
// no identity beyond their position in that array.  Timestamps are
// minute-resolution strings; the cart render normalizes them into the
// canonical "YYYY-MM-DD HH:MM" form and recomputes the tariff label on
// every listing, so lines survive tariff edits by an administrator.
type CartLine struct {
    ItemID  uint64 `json:"item_id"`
    StartAt string `json:"start_at"`
    EndAt   string `json:"end_at"`
    Qty     int    `json:"qty"`
}
