package booking

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/makshevelkin/MIPTORENT/internal/model"
)

func TestQuoteShortRentalFallsBackToDaily(t *testing.T) {
    item := model.Item{PricePerDay: 1000}
    q := Quote(item, "2025-06-01 10:00", "2025-06-01 12:00", 1)
    // 2 hours, no hourly tier configured: one day at the daily rate.
    assert.Equal(t, 1000, q.Total)
    assert.Equal(t, LabelDaily, q.Tariff)

    q3 := Quote(item, "2025-06-01 10:00", "2025-06-01 12:00", 3)
    assert.Equal(t, 3000, q3.Total)
}

func TestQuoteThreeHourBlockPreferredInDayBracket(t *testing.T) {
    item := model.Item{PricePerHour: 300, PricePer3Hours: 250}
    q := Quote(item, "2025-06-01 10:00", "2025-06-01 15:00", 1)
    // 5 hours lands in the [3h, 24h) bracket which prefers the block rate.
    assert.Equal(t, 5*250, q.Total)
    assert.Equal(t, LabelThreeHours, q.Tariff)
}

func TestQuoteHourlyPreferredUnderThreeHours(t *testing.T) {
    item := model.Item{PricePerHour: 300, PricePer3Hours: 250}
    q := Quote(item, "2025-06-01 10:00", "2025-06-01 12:00", 1)
    assert.Equal(t, 2*300, q.Total)
    assert.Equal(t, LabelHourly, q.Tariff)
}

func TestQuoteWeeklyBilledPerDay(t *testing.T) {
    item := model.Item{PricePerWeek: 2500}
    q := Quote(item, "2025-06-01 10:00", "2025-06-11 10:00", 1)
    // 240 hours -> 10 days in the weekly bracket, billed per day.
    assert.Equal(t, 10*2500, q.Total)
    assert.Equal(t, LabelWeekly, q.Tariff)
}

func TestQuoteWeekBracketFallsBackToDailyWithDistinctLabel(t *testing.T) {
    item := model.Item{PricePerDay: 1000}
    q := Quote(item, "2025-06-01 10:00", "2025-06-11 10:00", 1)
    assert.Equal(t, 10*1000, q.Total)
    assert.Equal(t, LabelWeekAsDay, q.Tariff)
}

func TestQuoteNoTariffsYieldsZero(t *testing.T) {
    q := Quote(model.Item{}, "2025-06-01 10:00", "2025-06-03 10:00", 2)
    assert.Equal(t, 0, q.Total)
    assert.Equal(t, "", q.Tariff)
}

func TestQuoteRepairsMissingEnd(t *testing.T) {
    item := model.Item{PricePerDay: 500}
    q := Quote(item, "2025-06-01 10:00", "", 1)
    assert.Equal(t, "2025-06-02 10:00", FormatDateTime(q.End))
    assert.Equal(t, 500, q.Total)
    assert.Equal(t, LabelDaily, q.Tariff)
}

func TestQuoteRepairsInvertedEnd(t *testing.T) {
    item := model.Item{PricePerDay: 500}
    q := Quote(item, "2025-06-01 10:00", "2025-05-30 10:00", 1)
    assert.Equal(t, "2025-06-02 10:00", FormatDateTime(q.End))
    assert.Equal(t, 500, q.Total)
}

func TestQuotePartialHourRoundsUp(t *testing.T) {
    item := model.Item{PricePerHour: 100}
    q := Quote(item, "2025-06-01 10:00", "2025-06-01 11:01", 1)
    assert.Equal(t, 2*100, q.Total)
}

func TestQuoteQuantityScaling(t *testing.T) {
    items := []model.Item{
        {PricePerHour: 300},
        {PricePer3Hours: 250},
        {PricePerDay: 1000},
        {PricePerWeek: 2500},
    }
    for _, item := range items {
        single := Quote(item, "2025-06-01 10:00", "2025-06-02 10:00", 1)
        triple := Quote(item, "2025-06-01 10:00", "2025-06-02 10:00", 3)
        assert.Equal(t, 3*single.Total, triple.Total)
        assert.Equal(t, single.Tariff, triple.Tariff)
    }
}

func TestQuoteClampsQuantity(t *testing.T) {
    item := model.Item{PricePerDay: 1000}
    q := Quote(item, "2025-06-01 10:00", "2025-06-02 10:00", 0)
    assert.Equal(t, 1000, q.Total)
    q = Quote(item, "2025-06-01 10:00", "2025-06-02 10:00", -4)
    assert.Equal(t, 1000, q.Total)
}

func TestNormalizeLineIdempotent(t *testing.T) {
    item := model.Item{ID: 7, PricePerDay: 900}
    raw := model.CartLine{ItemID: 7, StartAt: "2025-06-01T10:00", EndAt: "", Qty: 0}

    once, firstQuote := NormalizeLine(item, raw)
    assert.Equal(t, "2025-06-01 10:00", once.StartAt)
    assert.Equal(t, "2025-06-02 10:00", once.EndAt)
    assert.Equal(t, 1, once.Qty)

    twice, secondQuote := NormalizeLine(item, once)
    require.Equal(t, once, twice)
    assert.Equal(t, firstQuote.Total, secondQuote.Total)
    assert.Equal(t, firstQuote.Tariff, secondQuote.Tariff)
}
