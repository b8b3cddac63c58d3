package models

import "time"

const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusCancelled = "cancelled"
	SubscriptionStatusExpired   = "expired"
	SubscriptionStatusSuspended = "suspended"
)

// Cancellation reason recorded when the gateway omits one.
const CancellationReasonUserRequested = "user_requested"

// Subscription is one user's billing relationship with the payment gateway.
// There is at most one row per user (upsert key) and the gateway's
// subscription identifier is unique across all rows (lookup key for renewal,
// cancellation, expiration, chargeback and refund events). Rows are never
// deleted; lifecycle events only move the status.
type Subscription struct {
	ID                     uint       `gorm:"primaryKey" json:"id"`
	UserID                 uint       `gorm:"not null;uniqueIndex:ux_subscriptions_user" json:"user_id"`
	ExternalSubscriptionID string     `gorm:"type:varchar(191);not null;uniqueIndex:ux_subscriptions_external_id" json:"external_subscription_id"`
	PlanType               string     `gorm:"type:varchar(100);not null" json:"plan_type"`
	PlanName               string     `gorm:"type:varchar(150);not null" json:"plan_name"`
	Status                 string     `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	CurrentPeriodStart     time.Time  `gorm:"type:timestamp;not null" json:"current_period_start"`
	CurrentPeriodEnd       time.Time  `gorm:"type:timestamp;not null;index" json:"current_period_end"`
	Amount                 float64    `gorm:"not null;default:0" json:"amount"`
	Currency               string     `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
	CancelledAt            *time.Time `gorm:"type:timestamp;default:null" json:"cancelled_at,omitempty"`
	CancellationReason     string     `gorm:"type:varchar(100);default:''" json:"cancellation_reason,omitempty"`
	CreatedAt              time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsEntitled reports whether the user still has access at the given time.
// A cancelled subscription stays entitled until its paid period lapses; the
// gateway's Expiration event is the authoritative end of entitlement.
func (s *Subscription) IsEntitled(now time.Time) bool {
	switch s.Status {
	case SubscriptionStatusActive:
		return true
	case SubscriptionStatusCancelled:
		return s.CurrentPeriodEnd.After(now)
	default:
		return false
	}
}
