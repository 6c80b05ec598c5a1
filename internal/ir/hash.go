package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// DomainAction is the hash domain for idempotency keys.
// The version suffix leaves room for a future algorithm change.
const DomainAction = "offsync/action/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// IdempotencyKey derives the token forwarded with every replay of an action.
//
// The key is computed once at enqueue time and stored with the action, so
// a retry after an ambiguous timeout carries the same token as the first
// attempt and the backend can discard the duplicate.
func IdempotencyKey(id string, kind ActionKind, payload json.RawMessage) (string, error) {
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	canonical, err := MarshalCanonical(map[string]any{
		"id":      id,
		"kind":    string(kind),
		"payload": payload,
	})
	if err != nil {
		return "", fmt.Errorf("IdempotencyKey: %w", err)
	}
	return hashWithDomain(DomainAction, canonical), nil
}
