// Package events is the in-process domain event bus.
//
// Sync components publish what happened (a sale recorded, an entity folded,
// a queue drained) and presentation code subscribes; the sync core never
// calls UI code directly.
package events

import (
	"sync"
	"time"
)

// Type identifies a domain event.
type Type string

const (
	// TypeSaleRecorded fires when a sale is written locally.
	TypeSaleRecorded Type = "sale_recorded"

	// TypeOrderChanged fires when an order is created or its status moves.
	TypeOrderChanged Type = "order_changed"

	// TypeCustomerChanged fires when a customer profile is created or merged.
	TypeCustomerChanged Type = "customer_changed"

	// TypeEntityFolded fires when a remote-origin change lands in the
	// local store via the realtime merge handler.
	TypeEntityFolded Type = "entity_folded"

	// TypeQueueDrained fires after a drain cycle, with counts.
	TypeQueueDrained Type = "queue_drained"

	// TypeSyncCompleted fires after a full drain-and-pull run.
	TypeSyncCompleted Type = "sync_completed"

	// TypeConnectivityChanged fires on online/offline transitions.
	TypeConnectivityChanged Type = "connectivity_changed"
)

// Event is one published domain event.
type Event struct {
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// Bus fans events out to subscribers. A nil *Bus is valid and drops
// everything, so components can publish unconditionally.
type Bus struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

// NewBus creates an event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe registers a subscriber and returns its channel plus a cancel
// func. The channel buffers up to buffer events; when a subscriber falls
// behind, further events are dropped for it rather than blocking publishers.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}

	b.mu.Lock()
	id := b.next
	b.next++
	ch := make(chan Event, buffer)
	b.subs[id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber without blocking.
func (b *Bus) Publish(typ Type, data any) {
	if b == nil {
		return
	}

	evt := Event{Type: typ, Timestamp: time.Now(), Data: data}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
			// Subscriber is behind; drop rather than stall the sync core.
		}
	}
}
