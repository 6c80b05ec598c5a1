package ir

import (
	"encoding/json"
	"fmt"
)

// ActionKind identifies the remote operation an Action replays.
type ActionKind string

const (
	KindPlaceOrder    ActionKind = "PLACE_ORDER"
	KindCancelOrder   ActionKind = "CANCEL_ORDER"
	KindAddMoney      ActionKind = "ADD_MONEY"
	KindUpdateProfile ActionKind = "UPDATE_PROFILE"
	KindCreatePost    ActionKind = "CREATE_POST"
)

// AllKinds lists every ActionKind in declaration order.
var AllKinds = []ActionKind{
	KindPlaceOrder,
	KindCancelOrder,
	KindAddMoney,
	KindUpdateProfile,
	KindCreatePost,
}

// Valid reports whether k is one of the known kinds.
func (k ActionKind) Valid() bool {
	for _, known := range AllKinds {
		if k == known {
			return true
		}
	}
	return false
}

// ParseActionKind converts a string to an ActionKind.
// Returns an error for anything outside the closed set.
func ParseActionKind(s string) (ActionKind, error) {
	k := ActionKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown action kind %q", s)
	}
	return k, nil
}

// PlaceOrder is the payload of a PLACE_ORDER action.
type PlaceOrder struct {
	Symbol    string  `json:"symbol"`
	Side      string  `json:"side"`
	Quantity  float64 `json:"quantity"`
	Price     float64 `json:"price,omitempty"`
	OrderType string  `json:"order_type,omitempty"`
}

// CancelOrder is the payload of a CANCEL_ORDER action.
type CancelOrder struct {
	OrderID string `json:"order_id"`
}

// AddMoney is the payload of an ADD_MONEY action.
type AddMoney struct {
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"payment_method"`
}

// UpdateProfile is the payload of an UPDATE_PROFILE action.
type UpdateProfile struct {
	Fields map[string]any `json:"fields"`
}

// CreatePost is the payload of a CREATE_POST action.
type CreatePost struct {
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

// DecodePayload unmarshals an action payload into dst.
func DecodePayload(a Action, dst any) error {
	if len(a.Payload) == 0 {
		return fmt.Errorf("action %s: empty payload", a.ID)
	}
	if err := json.Unmarshal(a.Payload, dst); err != nil {
		return fmt.Errorf("action %s: decode %s payload: %w", a.ID, a.Kind, err)
	}
	return nil
}
