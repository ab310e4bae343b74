package events

import "testing"

func TestPublishSubscribe(t *testing.T) {
	bus := NewBus()

	ch, cancel := bus.Subscribe(4)
	defer cancel()

	bus.Publish(TypeSaleRecorded, map[string]int{"amount": 150})

	select {
	case evt := <-ch:
		if evt.Type != TypeSaleRecorded {
			t.Errorf("got %q, want sale_recorded", evt.Type)
		}
		if evt.Timestamp.IsZero() {
			t.Error("event has no timestamp")
		}
	default:
		t.Fatal("event not delivered")
	}
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	bus := NewBus()

	ch, cancel := bus.Subscribe(1)
	defer cancel()

	// Second publish overflows the buffer; it must drop, not block.
	bus.Publish(TypeQueueDrained, nil)
	bus.Publish(TypeQueueDrained, nil)

	if len(ch) != 1 {
		t.Errorf("buffered %d events, want 1 (overflow dropped)", len(ch))
	}
}

func TestCancelClosesChannel(t *testing.T) {
	bus := NewBus()

	ch, cancel := bus.Subscribe(1)
	cancel()
	cancel() // idempotent

	if _, ok := <-ch; ok {
		t.Error("channel not closed after cancel")
	}

	// Publishing after cancel must not panic.
	bus.Publish(TypeSyncCompleted, nil)
}

func TestNilBusIsSafe(t *testing.T) {
	var bus *Bus
	bus.Publish(TypeSaleRecorded, nil) // must not panic
}
