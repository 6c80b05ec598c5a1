package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/inr100/offsync/internal/ir"
)

// StorageKey is the durable key holding the ordered action list.
const StorageKey = "offline_queue"

// DefaultMaxRetries is the number of failed replays after which an action
// is dropped as a permanent failure.
const DefaultMaxRetries = 3

// Storage is the durable backend. *store.Store implements it.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
}

// Queue is the durable FIFO of pending actions.
//
// Thread-safety: all methods are safe for concurrent use. Enqueue may run
// while a drain iterates an earlier Snapshot; the new action is simply not
// part of that snapshot.
type Queue struct {
	mu      sync.Mutex
	storage Storage
	ids     IDGenerator
	clock   ir.Clock

	// mirror is the last successfully persisted list.
	mirror []ir.Action
}

// Option configures a Queue.
type Option func(*Queue)

// WithIDGenerator overrides the default UUIDv7 generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(q *Queue) {
		q.ids = g
	}
}

// WithClock overrides the clock used for enqueue timestamps.
func WithClock(c ir.Clock) Option {
	return func(q *Queue) {
		q.clock = c
	}
}

// Open loads the queue from storage.
// A stored list that cannot be decoded is an error: silently dropping
// pending writes would lose user data.
func Open(ctx context.Context, storage Storage, opts ...Option) (*Queue, error) {
	q := &Queue{
		storage: storage,
		ids:     UUIDv7Generator{},
		clock:   ir.SystemClock{},
	}
	for _, opt := range opts {
		opt(q)
	}

	actions, err := q.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("open queue: %w", err)
	}
	q.mirror = actions

	slog.Debug("offline queue loaded", "pending", len(actions))
	return q, nil
}

// Enqueue appends a new action and returns its ID.
// payload is JSON-encoded; a json.RawMessage is stored as is.
func (q *Queue) Enqueue(ctx context.Context, kind ir.ActionKind, payload any) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("enqueue: unknown action kind %q", kind)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", ir.NewError(ir.ErrCodeParse, "enqueue: encode payload", string(kind), err)
	}

	id := q.ids.Generate()
	key, err := ir.IdempotencyKey(id, kind, raw)
	if err != nil {
		return "", fmt.Errorf("enqueue: %w", err)
	}

	action := ir.Action{
		ID:             id,
		Kind:           kind,
		Payload:        raw,
		EnqueuedAt:     q.clock.Now().UTC(),
		RetryCount:     0,
		IdempotencyKey: key,
	}

	err = q.mutate(ctx, "enqueue", func(actions []ir.Action) ([]ir.Action, error) {
		return append(actions, action), nil
	})
	if err != nil {
		return "", err
	}

	slog.Info("action queued", "id", id, "kind", kind)
	return id, nil
}

// Snapshot returns a copy of the pending actions in FIFO order.
func (q *Queue) Snapshot() []ir.Action {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.mirror)
}

// Len returns the number of pending actions.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.mirror)
}

// Get returns the pending action with id.
func (q *Queue) Get(id string) (ir.Action, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	i := indexOf(q.mirror, id)
	if i < 0 {
		return ir.Action{}, false
	}
	return q.mirror[i], true
}

// Remove deletes the action with id. Removing a missing id is a no-op.
func (q *Queue) Remove(ctx context.Context, id string) error {
	return q.mutate(ctx, "remove", func(actions []ir.Action) ([]ir.Action, error) {
		i := indexOf(actions, id)
		if i < 0 {
			return nil, errNoChange
		}
		return slices.Delete(actions, i, i+1), nil
	})
}

// IncrementRetry bumps the retry count of id and returns the new count.
// The action keeps its position in the queue.
func (q *Queue) IncrementRetry(ctx context.Context, id string) (int, error) {
	var count int
	err := q.mutate(ctx, "increment retry", func(actions []ir.Action) ([]ir.Action, error) {
		i := indexOf(actions, id)
		if i < 0 {
			return nil, ir.NewError(ir.ErrCodeNotFound, "increment retry", id, nil)
		}
		actions[i].RetryCount++
		count = actions[i].RetryCount
		return actions, nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// errNoChange short-circuits a mutation that would not change the list.
var errNoChange = errors.New("no change")

// mutate runs fn against the list freshly loaded from storage and persists
// the result. On any failure neither storage nor the mirror changes.
func (q *Queue) mutate(ctx context.Context, op string, fn func([]ir.Action) ([]ir.Action, error)) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	actions, err := q.load(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	next, err := fn(actions)
	if errors.Is(err, errNoChange) {
		q.mirror = actions
		return nil
	}
	if err != nil {
		return err
	}

	if err := q.persist(ctx, next); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	q.mirror = next
	return nil
}

// load reads and decodes the persisted list. A missing key is an empty queue.
func (q *Queue) load(ctx context.Context) ([]ir.Action, error) {
	data, found, err := q.storage.Get(ctx, StorageKey)
	if err != nil {
		return nil, ir.NewError(ir.ErrCodeStorageIO, "load queue", StorageKey, err)
	}
	if !found || data == "" {
		return []ir.Action{}, nil
	}

	var actions []ir.Action
	if err := json.Unmarshal([]byte(data), &actions); err != nil {
		return nil, ir.NewError(ir.ErrCodeParse, "load queue", StorageKey, err)
	}
	if actions == nil {
		actions = []ir.Action{}
	}
	return actions, nil
}

func (q *Queue) persist(ctx context.Context, actions []ir.Action) error {
	data, err := json.Marshal(actions)
	if err != nil {
		return ir.NewError(ir.ErrCodeParse, "persist queue", StorageKey, err)
	}
	if err := q.storage.Put(ctx, StorageKey, string(data)); err != nil {
		return ir.NewError(ir.ErrCodeStorageIO, "persist queue", StorageKey, err)
	}
	return nil
}

func indexOf(actions []ir.Action, id string) int {
	return slices.IndexFunc(actions, func(a ir.Action) bool {
		return a.ID == id
	})
}
