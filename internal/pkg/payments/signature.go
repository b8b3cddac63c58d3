package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"sort"
	"strings"
)

// VerifySignature checks that a notification genuinely originated from the
// payment gateway. The gateway signs the lexicographically sorted field set
// (key=value pairs joined by "&", signature field excluded) with the shared
// secret appended, hashed with SHA-256.
//
// An empty secret short-circuits to accept: that is a deliberate degraded
// mode for local setups, and it is logged loudly every time instead of
// passing silently.
func VerifySignature(fields Fields, claimedDigest, secret string) bool {
	if strings.TrimSpace(secret) == "" {
		log.Print("payments: PAYMENT_WEBHOOK_SECRET is not configured, accepting unverified webhook (degraded security)")
		return true
	}

	claimed := strings.TrimSpace(claimedDigest)
	if claimed == "" {
		return false
	}
	decoded, err := hex.DecodeString(strings.ToLower(claimed))
	if err != nil {
		return false
	}

	sum := sha256.Sum256([]byte(signatureBase(fields) + secret))
	return hmac.Equal(sum[:], decoded)
}

// signatureBase builds the deterministically ordered string the digest
// covers: all fields except the signature itself, sorted by name.
func signatureBase(fields Fields) string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		if key == FieldSignature {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+fields[key])
	}
	return strings.Join(pairs, "&")
}
