package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/inr100/offsync/internal/ir"
)

// KeyPrefix namespaces cache entries in the durable tier.
const KeyPrefix = "cache_"

// envelope is the durable encoding of a CacheEntry.
type envelope struct {
	Payload  json.RawMessage `json:"payload"`
	StoredAt int64           `json:"stored_at"` // unix milliseconds
	TTL      int64           `json:"ttl"`       // milliseconds
}

func durableKey(key string) string {
	return KeyPrefix + key
}

func encodeEntry(e ir.CacheEntry) (string, error) {
	data, err := json.Marshal(envelope{
		Payload:  e.Payload,
		StoredAt: e.StoredAt.UnixMilli(),
		TTL:      e.TTL.Milliseconds(),
	})
	if err != nil {
		return "", fmt.Errorf("encode entry %s: %w", e.Key, err)
	}
	return string(data), nil
}

func decodeEntry(key, data string) (ir.CacheEntry, error) {
	var env envelope
	if err := json.Unmarshal([]byte(data), &env); err != nil {
		return ir.CacheEntry{}, ir.NewError(ir.ErrCodeParse, "decode entry", key, err)
	}
	if len(env.Payload) == 0 || env.StoredAt <= 0 {
		return ir.CacheEntry{}, ir.NewError(ir.ErrCodeParse, "decode entry", key, errors.New("missing payload or timestamp"))
	}
	return ir.CacheEntry{
		Key:      key,
		Payload:  env.Payload,
		StoredAt: time.UnixMilli(env.StoredAt),
		TTL:      time.Duration(env.TTL) * time.Millisecond,
	}, nil
}
