// Package queue is the pending-operation queue: an ordered, durable log of
// writes that have not yet been confirmed by the remote store.
//
// Entries are appended when a remote write fails or the device is offline,
// and removed only once the reconciler confirms the corresponding remote
// write. The queue persists under the syncQueue key of the local store and
// survives process restarts.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/amcabaraban/pureflow-tagum-pos/internal/schema"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/store"
)

// StoreKey is the local store key holding the queue.
const StoreKey = "syncQueue"

// Operation is one not-yet-confirmed write. Payload carries the entity in
// its remote (snake_case) shape, ready to replay against the gateway.
type Operation struct {
	Table    string          `json:"table"`
	Payload  json.RawMessage `json:"data"`
	QueuedAt int64           `json:"timestamp"`
	DeviceID string          `json:"deviceId"`
	Synced   bool            `json:"synced"`
}

// Kind resolves the operation's entity kind.
func (op Operation) Kind() (schema.Kind, error) {
	return schema.KindFromTable(op.Table)
}

// Queue wraps the persisted operation log. Owned by the reconciler; no
// other component reads its entries.
type Queue struct {
	store    *store.Store
	deviceID string
}

// New creates a queue backed by the given store.
func New(st *store.Store, deviceID string) *Queue {
	return &Queue{store: st, deviceID: deviceID}
}

// Enqueue appends a pending write for the kind. The payload must already be
// in the remote shape.
func (q *Queue) Enqueue(ctx context.Context, kind schema.Kind, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", kind, err)
	}

	op := Operation{
		Table:    kind.Table(),
		Payload:  data,
		QueuedAt: time.Now().UnixMilli(),
		DeviceID: q.deviceID,
	}

	if err := store.Append(ctx, q.store, StoreKey, op); err != nil {
		return fmt.Errorf("failed to enqueue %s operation: %w", kind, err)
	}
	return nil
}

// Operations returns the queued entries in FIFO order.
func (q *Queue) Operations(ctx context.Context) ([]Operation, error) {
	return store.List[Operation](ctx, q.store, StoreKey)
}

// Len returns the number of queued entries.
func (q *Queue) Len(ctx context.Context) (int, error) {
	return store.Count[Operation](ctx, q.store, StoreKey)
}

// Drain replays queued entries in FIFO order through attempt.
//
// Entries whose attempt succeeds are removed in one atomic rewrite; a
// failed attempt leaves its entry in place for the next cycle and does not
// stop the cycle. Returns the number of confirmed entries and the number
// still queued.
func (q *Queue) Drain(ctx context.Context, attempt func(Operation) error) (synced, remaining int, err error) {
	err = store.Mutate(ctx, q.store, StoreKey, func(ops []Operation) ([]Operation, error) {
		var keep []Operation
		for _, op := range ops {
			if err := attempt(op); err != nil {
				keep = append(keep, op)
				continue
			}
			op.Synced = true
			synced++
		}
		remaining = len(keep)
		return keep, nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to drain queue: %w", err)
	}
	return synced, remaining, nil
}
