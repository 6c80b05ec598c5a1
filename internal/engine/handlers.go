package engine

import (
	"context"
	"maps"

	"github.com/inr100/offsync/internal/ir"
	"github.com/inr100/offsync/internal/remote"
)

// Handler replays one action against the backend.
type Handler func(ctx context.Context, api remote.API, a ir.Action) (remote.Result, error)

// Handlers maps each action kind to its replay handler.
type Handlers map[ir.ActionKind]Handler

// DefaultHandlers returns the table dispatching every kind to its
// remote.API operation. The action's idempotency key goes with every call.
func DefaultHandlers() Handlers {
	return Handlers{
		ir.KindPlaceOrder: func(ctx context.Context, api remote.API, a ir.Action) (remote.Result, error) {
			var p ir.PlaceOrder
			if err := ir.DecodePayload(a, &p); err != nil {
				return remote.Result{}, err
			}
			return api.PlaceOrder(ctx, a.IdempotencyKey, p)
		},
		ir.KindCancelOrder: func(ctx context.Context, api remote.API, a ir.Action) (remote.Result, error) {
			var p ir.CancelOrder
			if err := ir.DecodePayload(a, &p); err != nil {
				return remote.Result{}, err
			}
			return api.CancelOrder(ctx, a.IdempotencyKey, p.OrderID)
		},
		ir.KindAddMoney: func(ctx context.Context, api remote.API, a ir.Action) (remote.Result, error) {
			var p ir.AddMoney
			if err := ir.DecodePayload(a, &p); err != nil {
				return remote.Result{}, err
			}
			return api.AddMoney(ctx, a.IdempotencyKey, p.Amount, p.PaymentMethod)
		},
		ir.KindUpdateProfile: func(ctx context.Context, api remote.API, a ir.Action) (remote.Result, error) {
			var p ir.UpdateProfile
			if err := ir.DecodePayload(a, &p); err != nil {
				return remote.Result{}, err
			}
			return api.UpdateProfile(ctx, a.IdempotencyKey, p.Fields)
		},
		ir.KindCreatePost: func(ctx context.Context, api remote.API, a ir.Action) (remote.Result, error) {
			var p ir.CreatePost
			if err := ir.DecodePayload(a, &p); err != nil {
				return remote.Result{}, err
			}
			return api.CreateSocialPost(ctx, a.IdempotencyKey, p.Content, p.Images)
		},
	}
}

// With returns a copy of h with kind handled by fn.
func (h Handlers) With(kind ir.ActionKind, fn Handler) Handlers {
	out := maps.Clone(h)
	if out == nil {
		out = Handlers{}
	}
	out[kind] = fn
	return out
}

// Without returns a copy of h with kind removed.
func (h Handlers) Without(kind ir.ActionKind) Handlers {
	out := maps.Clone(h)
	delete(out, kind)
	return out
}
