// Package remote abstracts the backend the client synchronizes against: a
// PostgREST-style request/response API plus a websocket change-notification
// feed.
//
// The gateway is kind-agnostic; records cross it as raw JSON in the remote
// (snake_case) shape and package schema owns the typed conversion. Failures
// are classified into the taxonomy in errors.go so that callers can decide
// between retrying (Unreachable) and dropping (Rejected).
package remote

import (
	"context"
	"encoding/json"

	"github.com/amcabaraban/pureflow-tagum-pos/internal/schema"
)

// Event identifies a change-notification type.
type Event string

const (
	EventInsert Event = "INSERT"
	EventUpdate Event = "UPDATE"
	EventDelete Event = "DELETE"

	// EventAll subscribes to every event type for a kind.
	EventAll Event = "*"
)

// Notification is one change pushed from the remote store. Record is the
// post-change row in the remote shape.
type Notification struct {
	Event  Event           `json:"event"`
	Table  string          `json:"table"`
	Record json.RawMessage `json:"record"`
}

// Kind resolves the notification's entity kind from its table name.
func (n Notification) Kind() (schema.Kind, error) {
	return schema.KindFromTable(n.Table)
}

// SelectOptions bound and order a SelectAll query.
type SelectOptions struct {
	// OrderBy is a remote column name; empty means remote default order.
	OrderBy string

	// Descending orders newest-first when true.
	Descending bool

	// Limit caps the row count; zero means unbounded.
	Limit int
}

// Subscription is a live change feed for one entity kind.
//
// C closes when the feed drops (network loss or Close). Delivery is
// at-least-once with no ordering guarantee against concurrent writers.
type Subscription struct {
	C <-chan Notification

	closeFn func()
}

// Close tears the subscription down. Safe to call more than once.
func (s *Subscription) Close() {
	if s.closeFn != nil {
		s.closeFn()
		s.closeFn = nil
	}
}

// NewSubscription wraps a notification channel and teardown func. Gateway
// implementations and test stubs build Subscriptions through this.
func NewSubscription(ch <-chan Notification, closeFn func()) *Subscription {
	return &Subscription{C: ch, closeFn: closeFn}
}

// Gateway is the remote store's client-side surface.
type Gateway interface {
	// Insert creates a row and returns the confirmed row as stored remotely.
	Insert(ctx context.Context, kind schema.Kind, record json.RawMessage) (json.RawMessage, error)

	// UpsertByKey inserts or overwrites the row sharing conflictKey.
	// Remote-side last-write-wins; this is not a field-level merge.
	UpsertByKey(ctx context.Context, kind schema.Kind, record json.RawMessage, conflictKey string) error

	// UpdateByKey patches the row where keyColumn equals keyValue.
	UpdateByKey(ctx context.Context, kind schema.Kind, keyColumn, keyValue string, partial json.RawMessage) error

	// SelectAll reads rows for the kind, ordered and bounded by opts.
	SelectAll(ctx context.Context, kind schema.Kind, opts SelectOptions) ([]json.RawMessage, error)

	// Subscribe opens a change feed for the kind, filtered by mask.
	// The feed stays up only while connectivity holds; the caller owns
	// resubscription.
	Subscribe(ctx context.Context, kind schema.Kind, mask Event) (*Subscription, error)

	// Ping probes reachability. An error means offline.
	Ping(ctx context.Context) error
}
