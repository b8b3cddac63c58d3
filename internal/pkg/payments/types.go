package payments

import "errors"

// Event type strings as sent by the payment gateway (case-sensitive).
const (
	EventNewSale      = "NewSaleSuccess"
	EventRenewal      = "RenewalSuccess"
	EventCancellation = "Cancellation"
	EventExpiration   = "Expiration"
	EventChargeback   = "Chargeback"
	EventRefund       = "Refund"
)

// Field names used in gateway notification payloads.
const (
	FieldEventType      = "eventType"
	FieldSignature      = "signature"
	FieldSubscriptionID = "subscriptionId"
	FieldEmail          = "email"
	FieldFormName       = "formName"
	FieldTransactionID  = "transactionId"
	FieldInitialPrice   = "initialPrice"
	FieldRecurringPrice = "recurringPrice"
	FieldBilledAmount   = "billedAmount"
	FieldAmount         = "amount"
	FieldCurrency       = "currency"
	FieldReason         = "reason"
)

// ErrSignatureRejected marks an event that failed digest verification. The
// HTTP layer maps it to 401; everything else that errors maps to 500.
var ErrSignatureRejected = errors.New("webhook signature rejected")

// Ack describes how an event was acknowledged. Duplicate and Ignored events
// are still successes towards the gateway so it stops redelivering.
type Ack struct {
	Duplicate bool
	Ignored   bool
	Note      string
}
