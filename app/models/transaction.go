package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

const (
	TransactionTypeNewSale    = "new_sale"
	TransactionTypeRenewal    = "renewal"
	TransactionTypeChargeback = "chargeback"
	TransactionTypeRefund     = "refund"
)

const TransactionStatusCompleted = "completed"

// Transaction is one immutable monetary fact reported by the payment gateway.
// Amounts are signed: chargebacks and refunds are stored negative. The unique
// index on the gateway transaction id makes redelivered events a no-op.
type Transaction struct {
	ID                     uint      `gorm:"primaryKey" json:"-"`
	ReferenceID            string    `gorm:"type:varchar(36);not null;uniqueIndex:ux_transactions_reference" json:"reference_id"`
	UserID                 uint      `gorm:"not null;index" json:"user_id"`
	ExternalTransactionID  string    `gorm:"type:varchar(191);not null;uniqueIndex:ux_transactions_external_id" json:"external_transaction_id"`
	ExternalSubscriptionID string    `gorm:"type:varchar(191);not null;index" json:"external_subscription_id"`
	Type                   string    `gorm:"type:varchar(20);not null;index" json:"type"`
	Amount                 float64   `gorm:"not null" json:"amount"`
	Currency               string    `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
	Status                 string    `gorm:"type:varchar(20);not null;default:'completed'" json:"status"`
	PlanType               string    `gorm:"type:varchar(100);not null;default:''" json:"plan_type"`
	CreatedAt              time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// BeforeUpdate rejects mutation so the ledger stays append-only even if a
// caller misuses the model with Save/Updates.
func (t *Transaction) BeforeUpdate(tx *gorm.DB) error {
	return errors.New("transactions are append-only")
}
