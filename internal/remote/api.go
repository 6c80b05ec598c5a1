// Package remote defines the backend operations the sync engine replays
// and refreshes from, plus an HTTP JSON client for them.
package remote

import (
	"context"
	"encoding/json"

	"github.com/inr100/offsync/internal/ir"
)

// Result is the backend's answer to one call.
// Success=false with a nil error means the backend rejected the call.
type Result struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// API is the remote backend facade.
//
// Mutating operations take the action's idempotency key so the backend can
// discard a duplicate replay. A returned error means the call did not
// produce an answer (transport failure, timeout).
type API interface {
	PlaceOrder(ctx context.Context, idempotencyKey string, order ir.PlaceOrder) (Result, error)
	CancelOrder(ctx context.Context, idempotencyKey string, orderID string) (Result, error)
	AddMoney(ctx context.Context, idempotencyKey string, amount float64, paymentMethod string) (Result, error)
	UpdateProfile(ctx context.Context, idempotencyKey string, profile map[string]any) (Result, error)
	CreateSocialPost(ctx context.Context, idempotencyKey string, content string, images []string) (Result, error)
	GetPortfolio(ctx context.Context) (Result, error)
	GetMarketData(ctx context.Context) (Result, error)
}
