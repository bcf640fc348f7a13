package model

import (
    "testing"

    "github.com/stretchr/testify/assert"
)

func TestOrderStatusIsActive(t *testing.T) {
    active := []OrderStatus{StatusProcessing, StatusConfirmed, StatusPendingPayment, StatusPaid}
    for _, s := range active {
        assert.True(t, s.IsActive(), "%s must block its window", s)
    }
    assert.False(t, StatusCancelled.IsActive())
    assert.False(t, OrderStatus("canceled").IsActive(), "legacy spelling is cancelled too")
}

func TestOrderStatusTransitions(t *testing.T) {
    assert.True(t, StatusProcessing.CanTransitionTo(StatusConfirmed))
    assert.True(t, StatusProcessing.CanTransitionTo(StatusCancelled))
    assert.True(t, StatusPendingPayment.CanTransitionTo(StatusPaid))
    assert.True(t, StatusPendingPayment.CanTransitionTo(StatusCancelled))
    assert.True(t, StatusConfirmed.CanTransitionTo(StatusPaid))

    assert.False(t, StatusCancelled.CanTransitionTo(StatusProcessing))
    assert.False(t, StatusPaid.CanTransitionTo(StatusCancelled))
    assert.False(t, StatusPendingPayment.CanTransitionTo(StatusConfirmed))
}

func TestOrderStatusValid(t *testing.T) {
    assert.True(t, StatusPendingPayment.Valid())
    assert.False(t, OrderStatus("shipped").Valid())
}

func TestItemHasTariff(t *testing.T) {
    assert.False(t, Item{}.HasTariff())
    assert.True(t, Item{PricePerWeek: 100}.HasTariff())
    assert.True(t, Item{PricePerHour: 1}.HasTariff())
}
