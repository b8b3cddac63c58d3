package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionIsEntitled(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	future := now.AddDate(0, 0, 14)
	past := now.AddDate(0, 0, -14)

	active := Subscription{Status: SubscriptionStatusActive, CurrentPeriodEnd: past}
	assert.True(t, active.IsEntitled(now), "active stays entitled regardless of period end")

	cancelledFuture := Subscription{Status: SubscriptionStatusCancelled, CurrentPeriodEnd: future}
	assert.True(t, cancelledFuture.IsEntitled(now), "cancelled with paid time left is still entitled")

	cancelledPast := Subscription{Status: SubscriptionStatusCancelled, CurrentPeriodEnd: past}
	assert.False(t, cancelledPast.IsEntitled(now))

	expired := Subscription{Status: SubscriptionStatusExpired, CurrentPeriodEnd: future}
	assert.False(t, expired.IsEntitled(now), "expiration ends entitlement even with a future period end")

	suspended := Subscription{Status: SubscriptionStatusSuspended, CurrentPeriodEnd: future}
	assert.False(t, suspended.IsEntitled(now))
}
