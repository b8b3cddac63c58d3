package payments

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Typed commands, one per event type. Each is produced by a validating parse
// step over the raw field map so handler logic never touches loose strings.

type SaleCommand struct {
	SubscriptionID string `validate:"required"`
	Email          string `validate:"required,email"`
	PlanID         string
	TransactionID  string
	InitialPrice   float64
	RecurringPrice float64
	Currency       string
}

func newSaleCommand(fields Fields) (*SaleCommand, error) {
	cmd := &SaleCommand{
		SubscriptionID: fields.String(FieldSubscriptionID),
		Email:          fields.String(FieldEmail),
		PlanID:         fields.String(FieldFormName),
		TransactionID:  fields.String(FieldTransactionID),
		InitialPrice:   fields.Float(FieldInitialPrice),
		RecurringPrice: fields.Float(FieldRecurringPrice),
		Currency:       fields.String(FieldCurrency),
	}
	if err := validate.Struct(cmd); err != nil {
		return nil, err
	}
	return cmd, nil
}

type RenewalCommand struct {
	SubscriptionID string `validate:"required"`
	TransactionID  string
	BilledAmount   float64
	Currency       string
}

func newRenewalCommand(fields Fields) (*RenewalCommand, error) {
	cmd := &RenewalCommand{
		SubscriptionID: fields.String(FieldSubscriptionID),
		TransactionID:  fields.String(FieldTransactionID),
		BilledAmount:   fields.Float(FieldBilledAmount),
		Currency:       fields.String(FieldCurrency),
	}
	if err := validate.Struct(cmd); err != nil {
		return nil, err
	}
	return cmd, nil
}

type CancellationCommand struct {
	SubscriptionID string `validate:"required"`
	Reason         string
}

func newCancellationCommand(fields Fields) (*CancellationCommand, error) {
	cmd := &CancellationCommand{
		SubscriptionID: fields.String(FieldSubscriptionID),
		Reason:         fields.String(FieldReason),
	}
	if err := validate.Struct(cmd); err != nil {
		return nil, err
	}
	return cmd, nil
}

type ExpirationCommand struct {
	SubscriptionID string `validate:"required"`
}

func newExpirationCommand(fields Fields) (*ExpirationCommand, error) {
	cmd := &ExpirationCommand{
		SubscriptionID: fields.String(FieldSubscriptionID),
	}
	if err := validate.Struct(cmd); err != nil {
		return nil, err
	}
	return cmd, nil
}

// DisputeCommand covers both Chargeback and Refund events, which carry the
// same field set and differ only in the lifecycle effect.
type DisputeCommand struct {
	SubscriptionID string `validate:"required"`
	TransactionID  string
	Amount         float64
	BilledAmount   float64
	Currency       string
}

func newDisputeCommand(fields Fields) (*DisputeCommand, error) {
	cmd := &DisputeCommand{
		SubscriptionID: fields.String(FieldSubscriptionID),
		TransactionID:  fields.String(FieldTransactionID),
		Amount:         fields.Float(FieldAmount),
		BilledAmount:   fields.Float(FieldBilledAmount),
		Currency:       fields.String(FieldCurrency),
	}
	if err := validate.Struct(cmd); err != nil {
		return nil, err
	}
	return cmd, nil
}

// DisputedAmount is the positive magnitude the gateway reports for a
// chargeback or refund, before the ledger sign convention is applied.
func (c *DisputeCommand) DisputedAmount(fallback float64) float64 {
	if c.Amount != 0 {
		return c.Amount
	}
	if c.BilledAmount != 0 {
		return c.BilledAmount
	}
	return fallback
}
