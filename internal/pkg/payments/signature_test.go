package payments

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func signFields(fields Fields, secret string) string {
	sum := sha256.Sum256([]byte(signatureBase(fields) + secret))
	return hex.EncodeToString(sum[:])
}

func TestVerifySignature(t *testing.T) {
	secret := "top-secret"
	fields := Fields{
		FieldEventType:      "NewSaleSuccess",
		FieldSubscriptionID: "sub_1",
		FieldEmail:          "a@x.com",
	}

	valid := signFields(fields, secret)
	fields[FieldSignature] = valid

	if !VerifySignature(fields, valid, secret) {
		t.Fatalf("expected valid signature to verify")
	}
	if VerifySignature(fields, "deadbeef", secret) {
		t.Fatalf("expected bad signature to fail")
	}
	if VerifySignature(fields, "", secret) {
		t.Fatalf("expected missing signature to fail when a secret is configured")
	}
	if VerifySignature(fields, "not-hex!", secret) {
		t.Fatalf("expected undecodable signature to fail")
	}
}

func TestVerifySignatureIgnoresSignatureField(t *testing.T) {
	secret := "top-secret"
	fields := Fields{
		FieldEventType:      "Cancellation",
		FieldSubscriptionID: "sub_9",
	}
	valid := signFields(fields, secret)

	// The digest must cover the same base whether or not the signature field
	// itself is part of the map.
	fields[FieldSignature] = valid
	if !VerifySignature(fields, valid, secret) {
		t.Fatalf("expected signature field to be excluded from the signed base")
	}
}

func TestVerifySignatureBaseOrdering(t *testing.T) {
	base := signatureBase(Fields{"b": "2", "a": "1", "c": "3"})
	if base != "a=1&b=2&c=3" {
		t.Fatalf("expected lexicographic base, got %q", base)
	}
}

func TestVerifySignatureWithoutSecret(t *testing.T) {
	fields := Fields{FieldEventType: "Refund"}
	if !VerifySignature(fields, "anything", "") {
		t.Fatalf("expected missing secret to short-circuit to accept")
	}
	if !VerifySignature(fields, "", "") {
		t.Fatalf("expected unsigned event to pass when no secret is configured")
	}
}
