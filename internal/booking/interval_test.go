package booking

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, value string) time.Time {
    t.Helper()
    parsed, ok := ParseDateTime(value)
    require.True(t, ok, "expected %q to parse", value)
    return parsed
}

func TestParseDateTimeLayouts(t *testing.T) {
    want := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)
    for _, value := range []string{
        "2025-06-01 10:30",
        "2025-06-01T10:30",
        "2025-06-01T10:30:00",
    } {
        got, ok := ParseDateTime(value)
        require.True(t, ok, value)
        assert.True(t, got.Equal(want), value)
    }
}

func TestParseDateTimeRejectsGarbage(t *testing.T) {
    for _, value := range []string{"", "not-a-date", "2025-06-01", "10:30"} {
        _, ok := ParseDateTime(value)
        assert.False(t, ok, value)
    }
}

func TestFormatDateTimeRoundTrip(t *testing.T) {
    start := mustParse(t, "2025-06-01 10:30")
    assert.Equal(t, "2025-06-01 10:30", FormatDateTime(start))
}

func TestOverlapsBoundaryTouchIsNotOverlap(t *testing.T) {
    aStart := mustParse(t, "2025-06-01 10:00")
    aEnd := mustParse(t, "2025-06-01 11:00")
    bStart := mustParse(t, "2025-06-01 11:00")
    bEnd := mustParse(t, "2025-06-01 12:00")
    assert.False(t, Overlaps(aStart, aEnd, bStart, bEnd))
    assert.False(t, Overlaps(bStart, bEnd, aStart, aEnd))
}

func TestOverlapsStrictOverlapDetected(t *testing.T) {
    aStart := mustParse(t, "2025-06-01 10:00")
    aEnd := mustParse(t, "2025-06-01 12:00")
    bStart := mustParse(t, "2025-06-01 11:00")
    bEnd := mustParse(t, "2025-06-01 13:00")
    assert.True(t, Overlaps(aStart, aEnd, bStart, bEnd))
}

func TestOverlapsSymmetry(t *testing.T) {
    cases := [][4]string{
        {"2025-06-01 10:00", "2025-06-01 12:00", "2025-06-01 11:00", "2025-06-01 13:00"},
        {"2025-06-01 10:00", "2025-06-01 11:00", "2025-06-01 11:00", "2025-06-01 12:00"},
        {"2025-06-01 10:00", "2025-06-02 10:00", "2025-06-01 12:00", "2025-06-01 13:00"},
        {"2025-06-01 10:00", "2025-06-01 11:00", "2025-06-05 10:00", "2025-06-05 11:00"},
    }
    for _, c := range cases {
        aStart, aEnd := mustParse(t, c[0]), mustParse(t, c[1])
        bStart, bEnd := mustParse(t, c[2]), mustParse(t, c[3])
        assert.Equal(t,
            Overlaps(aStart, aEnd, bStart, bEnd),
            Overlaps(bStart, bEnd, aStart, aEnd),
            "overlap must be symmetric for %v", c)
    }
}

func TestOverlapsContainment(t *testing.T) {
    outerStart := mustParse(t, "2025-06-01 08:00")
    outerEnd := mustParse(t, "2025-06-01 20:00")
    innerStart := mustParse(t, "2025-06-01 10:00")
    innerEnd := mustParse(t, "2025-06-01 11:00")
    assert.True(t, Overlaps(outerStart, outerEnd, innerStart, innerEnd))
    assert.True(t, Overlaps(innerStart, innerEnd, outerStart, outerEnd))
}
