package payments

import (
	"net/url"
	"testing"
)

func TestFieldsFromValues(t *testing.T) {
	values, err := url.ParseQuery("eventType=RenewalSuccess&subscriptionId=sub_1&billedAmount=29")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	fields := FieldsFromValues(values)
	if fields.String(FieldEventType) != "RenewalSuccess" {
		t.Fatalf("eventType = %q", fields.String(FieldEventType))
	}
	if fields.Float(FieldBilledAmount) != 29 {
		t.Fatalf("billedAmount = %v", fields.Float(FieldBilledAmount))
	}
}

func TestFieldsFloatDefaultsToZero(t *testing.T) {
	fields := Fields{FieldAmount: "not-a-number"}
	if got := fields.Float(FieldAmount); got != 0 {
		t.Fatalf("unparseable amount = %v, want 0", got)
	}
	if got := fields.Float(FieldBilledAmount); got != 0 {
		t.Fatalf("absent amount = %v, want 0", got)
	}
}

func TestFieldsEncodeIsCanonical(t *testing.T) {
	a := Fields{"b": "2", "a": "1"}
	b := Fields{"a": "1", "b": "2"}
	if a.Encode() != b.Encode() {
		t.Fatalf("expected deterministic encoding, got %q vs %q", a.Encode(), b.Encode())
	}
}

func TestSaleCommandValidation(t *testing.T) {
	_, err := newSaleCommand(Fields{
		FieldSubscriptionID: "sub_1",
		FieldEmail:          "not-an-email",
	})
	if err == nil {
		t.Fatalf("expected malformed email to fail validation")
	}

	cmd, err := newSaleCommand(Fields{
		FieldSubscriptionID: "sub_1",
		FieldEmail:          "a@x.com",
		FieldFormName:       "model-premium",
		FieldInitialPrice:   "29",
	})
	if err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	if cmd.InitialPrice != 29 || cmd.RecurringPrice != 0 {
		t.Fatalf("unexpected prices: initial=%v recurring=%v", cmd.InitialPrice, cmd.RecurringPrice)
	}
}

func TestDisputeCommandAmountFallback(t *testing.T) {
	cmd := &DisputeCommand{Amount: 0, BilledAmount: 0}
	if got := cmd.DisputedAmount(29); got != 29 {
		t.Fatalf("expected stored-amount fallback, got %v", got)
	}
	cmd = &DisputeCommand{Amount: 0, BilledAmount: 15}
	if got := cmd.DisputedAmount(29); got != 15 {
		t.Fatalf("expected billedAmount fallback, got %v", got)
	}
	cmd = &DisputeCommand{Amount: 50}
	if got := cmd.DisputedAmount(29); got != 50 {
		t.Fatalf("expected explicit amount, got %v", got)
	}
}
