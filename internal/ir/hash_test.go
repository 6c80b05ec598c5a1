package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyKey_Deterministic(t *testing.T) {
	payload := json.RawMessage(`{"symbol":"INFY","quantity":2}`)

	k1, err := IdempotencyKey("act-1", KindPlaceOrder, payload)
	require.NoError(t, err)
	k2, err := IdempotencyKey("act-1", KindPlaceOrder, payload)
	require.NoError(t, err)

	assert.Equal(t, k1, k2)
	assert.Len(t, k1, 64, "hex-encoded SHA-256")
}

func TestIdempotencyKey_IgnoresKeyOrderAndWhitespace(t *testing.T) {
	k1, err := IdempotencyKey("act-1", KindPlaceOrder, json.RawMessage(`{"symbol":"INFY","quantity":2}`))
	require.NoError(t, err)
	k2, err := IdempotencyKey("act-1", KindPlaceOrder, json.RawMessage(`{ "quantity": 2, "symbol": "INFY" }`))
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
}

func TestIdempotencyKey_DistinguishesInputs(t *testing.T) {
	payload := json.RawMessage(`{"order_id":"o-1"}`)

	base, err := IdempotencyKey("act-1", KindCancelOrder, payload)
	require.NoError(t, err)

	otherID, err := IdempotencyKey("act-2", KindCancelOrder, payload)
	require.NoError(t, err)
	otherKind, err := IdempotencyKey("act-1", KindPlaceOrder, payload)
	require.NoError(t, err)
	otherPayload, err := IdempotencyKey("act-1", KindCancelOrder, json.RawMessage(`{"order_id":"o-2"}`))
	require.NoError(t, err)

	assert.NotEqual(t, base, otherID)
	assert.NotEqual(t, base, otherKind)
	assert.NotEqual(t, base, otherPayload)
}

func TestIdempotencyKey_EmptyPayload(t *testing.T) {
	k, err := IdempotencyKey("act-1", KindUpdateProfile, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, k)
}

func TestHashWithDomain_Separation(t *testing.T) {
	data := []byte("same")
	assert.NotEqual(t, hashWithDomain("a", data), hashWithDomain("b", data))
}
