package booking

import (
    "math"
    "time"

    "github.com/makshevelkin/MIPTORENT/internal/model"
)

// Tariff labels attached to priced cart lines and order confirmations.
// The week bracket falling back to the daily rate gets its own label so
// the storefront can explain the billing granularity.
const (
    LabelHourly     = "от часа"
    LabelThreeHours = "от 3 часов"
    LabelDaily      = "от дня"
    LabelWeekly     = "от недели"
    LabelWeekAsDay  = "от дня (неделя)"
)

// QuoteResult is the outcome of pricing one rental window.  Start and
// End are the effective bounds after input repair; Total already
// includes the quantity multiplier.  An empty Tariff with a zero Total
// means the item has no configured tier and cannot be priced.
type QuoteResult struct {
    Total  int
    Start  time.Time
    End    time.Time
    Tariff string
}

// Quote prices the window [startAt, endAt) for qty units of item.  It
// never fails: an unparsable start defaults to the current minute, a
// missing, unparsable or non-after end is repaired to start + 1 day,
// and qty is clamped to at least 1, so even a malformed stored cart
// line yields a displayable result.
//
// Billed duration is hours = ceil(window / 1h), minimum 1, and
// days = ceil(hours / 24).  The duration bracket picks the preferred
// tier and falls through to the next configured one: under three hours
// prefer the hourly rate, under a day the three-hour block, under a
// week the daily rate, otherwise the weekly rate.  Hourly and
// three-hour tiers bill per hour; daily and weekly tiers bill per day.
func Quote(item model.Item, startAt, endAt string, qty int) QuoteResult {
    start, ok := ParseDateTime(startAt)
    if !ok {
        start = time.Now().UTC().Truncate(time.Minute)
    }
    end, ok := ParseDateTime(endAt)
    if !ok || !end.After(start) {
        end = start.Add(24 * time.Hour)
    }

    hours := int(math.Ceil(end.Sub(start).Seconds() / 3600))
    if hours < 1 {
        hours = 1
    }
    days := (hours + 23) / 24

    hourly := func() (int, string) {
        if item.PricePerHour > 0 {
            return hours * item.PricePerHour, LabelHourly
        }
        return 0, ""
    }
    threeHours := func() (int, string) {
        if item.PricePer3Hours > 0 {
            return hours * item.PricePer3Hours, LabelThreeHours
        }
        return 0, ""
    }
    daily := func(label string) func() (int, string) {
        return func() (int, string) {
            if item.PricePerDay > 0 {
                return days * item.PricePerDay, label
            }
            return 0, ""
        }
    }
    weekly := func() (int, string) {
        if item.PricePerWeek > 0 {
            return days * item.PricePerWeek, LabelWeekly
        }
        return 0, ""
    }

    var amount int
    var label string
    switch {
    case hours < 3:
        amount, label = firstOffer(hourly, threeHours, daily(LabelDaily), weekly)
    case hours < 24:
        amount, label = firstOffer(threeHours, hourly, daily(LabelDaily), weekly)
    case hours < 24*7:
        amount, label = firstOffer(daily(LabelDaily), weekly, threeHours, hourly)
    default:
        amount, label = firstOffer(weekly, daily(LabelWeekAsDay), threeHours, hourly)
    }

    if qty < 1 {
        qty = 1
    }
    return QuoteResult{Total: amount * qty, Start: start, End: end, Tariff: label}
}

// firstOffer returns the first tier that is actually configured, in the
// bracket's preference order.  All tiers empty yields (0, "").
func firstOffer(tiers ...func() (int, string)) (int, string) {
    for _, tier := range tiers {
        if amount, label := tier(); label != "" {
            return amount, label
        }
    }
    return 0, ""
}

// NormalizeLine rewrites a cart line into its canonical form and quotes
// it.  The returned line carries minute-resolution timestamps in the
// canonical layout and a clamped quantity; running it through
// NormalizeLine again produces the identical line and quote, which is
// what lets the cart render persist its normalized state back on every
// listing.
func NormalizeLine(item model.Item, line model.CartLine) (model.CartLine, QuoteResult) {
    q := Quote(item, line.StartAt, line.EndAt, line.Qty)
    qty := line.Qty
    if qty < 1 {
        qty = 1
    }
    return model.CartLine{
        ItemID:  line.ItemID,
        StartAt: FormatDateTime(q.Start),
        EndAt:   FormatDateTime(q.End),
        Qty:     qty,
    }, q
}
