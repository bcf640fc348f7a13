package model

import "time"

// OrderStatus enumerates the lifecycle states of a rental order.
// Transitions: processing -> confirmed -> paid, processing -> cancelled,
// pending_payment -> paid or cancelled.  Every status except the
// cancelled terminal state keeps the rental window blocked.
type OrderStatus string

const (
    StatusProcessing     OrderStatus = "processing"      // submitted, awaiting review
    StatusConfirmed      OrderStatus = "confirmed"       // approved by an administrator
    StatusPendingPayment OrderStatus = "pending_payment" // created by checkout, invoice outstanding
    StatusPaid           OrderStatus = "paid"            // settled
    StatusCancelled      OrderStatus = "cancelled"       // terminal, releases the window
)

// IsActive reports whether an order in this status still blocks its
// rental window.  Only the cancelled terminal state releases the slot;
// an unpaid but uncancelled order keeps it.  The legacy single-l
// spelling found in older rows is treated as cancelled too.
func (s OrderStatus) IsActive() bool {
    return s != StatusCancelled && s != "canceled"
}

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
    switch s {
    case StatusProcessing, StatusConfirmed, StatusPendingPayment, StatusPaid, StatusCancelled:
        return true
    }
    return false
}

// CanTransitionTo reports whether moving from s to next is allowed by
// the order lifecycle.  Terminal states accept no further transitions.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
    switch s {
    case StatusProcessing:
        return next == StatusConfirmed || next == StatusPaid || next == StatusCancelled
    case StatusConfirmed:
        return next == StatusPaid || next == StatusCancelled
    case StatusPendingPayment:
        return next == StatusPaid || next == StatusCancelled
    }
    return false
}

// Order records a committed rental of one item over one time window.
// Checkout creates one order per cart line.  The window is stored both
// as whole dates (DateFrom/DateTo) for listings and as minute-resolution
// strings (StartAt/EndAt) in the canonical "YYYY-MM-DD HH:MM" form.
// StartAt/EndAt are nullable: rows imported from before window tracking
// have only the dates, and such rows never block availability.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – user who placed the order.
//  ItemID    – rented item.
//  Qty       – number of units rented.
//  DateFrom  – first rental date (YYYY-MM-DD).
//  DateTo    – last rental date (YYYY-MM-DD).
//  StartAt   – rental window start, minute resolution (nullable).
//  EndAt     – rental window end, minute resolution (nullable).
//  Status    – lifecycle state, see OrderStatus.
//  Total     – total charged for the line, whole currency units.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Order struct {
    ID        uint64      // orders.id
    UserID    uint64      // orders.user_id
    ItemID    uint64      // orders.item_id
    Qty       int         // orders.qty
    DateFrom  string      // orders.date_from
    DateTo    string      // orders.date_to
    StartAt   *string     // orders.start_at (nullable)
    EndAt     *string     // orders.end_at (nullable)
    Status    OrderStatus // orders.status
    Total     int         // orders.total
    CreatedAt time.Time   // orders.created_at
    UpdatedAt time.Time   // orders.updated_at
}
