package ir

import (
	"encoding/json"
	"time"
)

// Action is a pending mutating operation recorded while the backend
// could not be reached. The queue is its sole owner.
//
// INVARIANT: RetryCount never exceeds the queue's max retries; an action
// that reaches the limit is removed and reported as a PermanentFailure.
type Action struct {
	ID             string          `json:"id"`
	Kind           ActionKind      `json:"kind"`
	Payload        json.RawMessage `json:"payload"`
	EnqueuedAt     time.Time       `json:"enqueued_at"`
	RetryCount     int             `json:"retry_count"`
	IdempotencyKey string          `json:"idempotency_key"`
}

// CacheEntry is a time-boxed cached value.
// An entry is valid iff now < StoredAt + TTL.
type CacheEntry struct {
	Key      string
	Payload  json.RawMessage
	StoredAt time.Time
	TTL      time.Duration
}

// ExpiresAt returns the instant the entry stops being valid.
func (e CacheEntry) ExpiresAt() time.Time {
	return e.StoredAt.Add(e.TTL)
}

// Valid reports whether the entry is still fresh at now.
func (e CacheEntry) Valid(now time.Time) bool {
	return now.Before(e.ExpiresAt())
}

// Phase is the coordinator's position in the sync state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseChecking
	PhaseDraining
	PhaseRefreshingCache
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseChecking:
		return "checking"
	case PhaseDraining:
		return "draining"
	case PhaseRefreshingCache:
		return "refreshing_cache"
	default:
		return "unknown"
	}
}

// Cycle outcome reasons.
const (
	ReasonOffline   = "offline"
	ReasonBusy      = "busy"
	ReasonCancelled = "cancelled"
)

// PermanentFailure records an action dropped after exhausting its retries.
type PermanentFailure struct {
	ActionID   string     `json:"action_id"`
	Kind       ActionKind `json:"kind"`
	RetryCount int        `json:"retry_count"`
	LastError  string     `json:"last_error"`
}

// DrainResult summarizes one pass over a queue snapshot.
type DrainResult struct {
	// Processed holds the IDs replayed successfully, in replay order.
	Processed []string `json:"processed"`

	// Retried holds the IDs that failed and stay queued.
	Retried []string `json:"retried,omitempty"`

	// Failed holds actions removed after reaching max retries.
	Failed []PermanentFailure `json:"failed,omitempty"`

	// Skipped holds the IDs left untouched (no handler, or cancellation).
	Skipped []string `json:"skipped,omitempty"`

	// Remaining is the queue length after the pass.
	Remaining int `json:"remaining"`

	// Cancelled is true when the pass stopped early on context cancellation.
	Cancelled bool `json:"cancelled,omitempty"`
}

// SyncResult is the outcome of one coordinator cycle.
type SyncResult struct {
	Cycle     int64              `json:"cycle"`
	Success   bool               `json:"success"`
	Skipped   bool               `json:"skipped,omitempty"`
	Reason    string             `json:"reason,omitempty"`
	Processed int                `json:"processed"`
	Remaining int                `json:"remaining"`
	Failed    []PermanentFailure `json:"failed,omitempty"`
	Refreshed []string           `json:"refreshed,omitempty"`
	StartedAt time.Time          `json:"started_at"`
	Duration  time.Duration      `json:"duration"`
}

// SyncState is a point-in-time view of the coordinator.
type SyncState struct {
	Phase          Phase
	LastSyncResult *SyncResult
}
