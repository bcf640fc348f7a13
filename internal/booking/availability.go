package booking

import (
    "fmt"
    "time"

    "github.com/makshevelkin/MIPTORENT/internal/model"
)

// NoExclude is passed as excludeIdx when no cart line should be skipped
// during the availability check.
const NoExclude = -1

// ConflictSource tells which side blocked a requested window: a
// persisted order placed by some user, or another line already sitting
// in the caller's own cart.
type ConflictSource string

const (
    ConflictOrder ConflictSource = "order"
    ConflictCart  ConflictSource = "cart"
)

// Conflict describes a failed availability check.  It names the bounds
// of the blocking interval and its source so handlers can render a
// user-facing message identifying the occupied window.
type Conflict struct {
    Source ConflictSource `json:"source"`
    Start  time.Time      `json:"start"`
    End    time.Time      `json:"end"`
}

// Message renders the conflict the way the storefront displays it.
func (c *Conflict) Message() string {
    period := fmt.Sprintf("%s — %s", FormatDateTime(c.Start), FormatDateTime(c.End))
    if c.Source == ConflictCart {
        return fmt.Sprintf("Вы уже выбрали этот товар: %s.", period)
    }
    return fmt.Sprintf("Этот товар уже занят другим пользователем: %s.", period)
}

// ReservationWindow is one active persisted rental window as supplied
// by the order storage.  Timestamps stay in their stored string form so
// the checker can skip rows with missing or unparsable values instead
// of failing on them.
type ReservationWindow struct {
    ItemID  uint64
    StartAt string
    EndAt   string
}

// CheckAvailability decides whether the candidate window [start, end)
// for itemID can be accepted.  It is a pure query: nothing is mutated.
//
// Persisted windows are checked first, then the other cart lines; the
// first overlap found is returned, nil means the window is free.  The
// caller guarantees end > start.  Entries for other items and entries
// whose timestamps do not parse are ignored.  excludeIdx skips one cart
// position, used at checkout so a line does not conflict with itself;
// pass NoExclude otherwise.
func CheckAvailability(itemID uint64, start, end time.Time, reserved []ReservationWindow, cart []model.CartLine, excludeIdx int) *Conflict {
    for _, w := range reserved {
        if w.ItemID != itemID {
            continue
        }
        wStart, ok := ParseDateTime(w.StartAt)
        if !ok {
            continue
        }
        wEnd, ok := ParseDateTime(w.EndAt)
        if !ok {
            continue
        }
        if Overlaps(start, end, wStart, wEnd) {
            return &Conflict{Source: ConflictOrder, Start: wStart, End: wEnd}
        }
    }

    for idx, line := range cart {
        if idx == excludeIdx || line.ItemID != itemID {
            continue
        }
        lStart, ok := ParseDateTime(line.StartAt)
        if !ok {
            continue
        }
        lEnd, ok := ParseDateTime(line.EndAt)
        if !ok {
            continue
        }
        if Overlaps(start, end, lStart, lEnd) {
            return &Conflict{Source: ConflictCart, Start: lStart, End: lEnd}
        }
    }

    return nil
}
