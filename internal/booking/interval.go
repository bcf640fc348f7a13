// Package booking contains the availability and pricing core of the
// rental service.  Everything in this package is a pure function over
// values supplied by the caller: no storage access, no session state,
// no clock dependencies beyond the documented repair defaults.  The
// surrounding handlers own validation of *new* input; this package only
// decides and prices.
package booking

import "time"

// DateTimeLayout is the canonical minute-resolution form used for cart
// lines and order windows ("YYYY-MM-DD HH:MM").  All normalization
// rewrites timestamps into this layout.
const DateTimeLayout = "2006-01-02 15:04"

// DateLayout is the whole-date form stored on orders for listings.
const DateLayout = "2006-01-02"

// dateTimeLayouts are the accepted input forms, tried in order.  The
// canonical layout comes first; the T-separated variants cover values
// produced by HTML datetime-local inputs.
var dateTimeLayouts = []string{
    DateTimeLayout,
    "2006-01-02T15:04:05",
    "2006-01-02T15:04",
}

// ParseDateTime parses a minute-resolution timestamp in any accepted
// layout.  The second return value is false for empty or unparsable
// input; callers decide whether that means "skip" (availability) or
// "repair" (pricing).
func ParseDateTime(value string) (time.Time, bool) {
    if value == "" {
        return time.Time{}, false
    }
    for _, layout := range dateTimeLayouts {
        if t, err := time.Parse(layout, value); err == nil {
            return t, true
        }
    }
    return time.Time{}, false
}

// FormatDateTime renders t in the canonical minute-resolution form.
func FormatDateTime(t time.Time) string {
    return t.Format(DateTimeLayout)
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect.  Both comparisons are strict, so intervals
// that merely touch at a boundary do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
    return aStart.Before(bEnd) && aEnd.After(bStart)
}
