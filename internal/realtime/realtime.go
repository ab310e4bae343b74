// Package realtime consumes change notifications pushed from the remote
// store and folds them into the local durable store.
//
// Notifications originate from any device; folding is idempotent (an entity
// already present by its identity key is left alone) and the handler drops
// its own device's echoes outright. Folding shares the store's per-key
// locks with the reconciler, so a fold and a snapshot merge for the same
// kind never interleave.
package realtime

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"sync"

	"github.com/amcabaraban/pureflow-tagum-pos/internal/events"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/remote"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/schema"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/store"
)

// State tracks one kind's subscription lifecycle.
type State int

const (
	Unsubscribed State = iota
	Subscribing
	Subscribed
)

// String returns the state's name for status output.
func (s State) String() string {
	switch s {
	case Subscribing:
		return "subscribing"
	case Subscribed:
		return "subscribed"
	default:
		return "unsubscribed"
	}
}

// subscriptionMasks lists the kinds the handler subscribes to and the event
// filter for each. Settings changes arrive via snapshot pulls instead; the
// singleton row churns too rarely to hold a channel open for it.
var subscriptionMasks = map[schema.Kind]remote.Event{
	schema.KindSales:     remote.EventAll,
	schema.KindCustomers: remote.EventInsert,
	schema.KindOrders:    remote.EventAll,
}

// Handler folds remote-origin changes into the local store.
type Handler struct {
	store    *store.Store
	gw       remote.Gateway
	bus      *events.Bus
	logger   *log.Logger
	deviceID string

	mu     sync.Mutex
	subs   map[schema.Kind]*remote.Subscription
	states map[schema.Kind]State
	wg     sync.WaitGroup
}

// New creates a Handler. If logger is nil, a default stderr logger with the
// [realtime] prefix is used.
func New(st *store.Store, gw remote.Gateway, bus *events.Bus, deviceID string, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.New(os.Stderr, "[realtime] ", log.LstdFlags)
	}
	return &Handler{
		store:    st,
		gw:       gw,
		bus:      bus,
		logger:   logger,
		deviceID: deviceID,
		subs:     make(map[schema.Kind]*remote.Subscription),
		states:   make(map[schema.Kind]State),
	}
}

// SubscribeAll sets up subscriptions for every kind from scratch.
//
// Existing subscriptions are torn down first so that a resubscribe after an
// online transition never leaves duplicate handlers folding the same feed.
// A kind whose subscription fails stays Unsubscribed until the next online
// transition; the failure is not surfaced to the user.
func (h *Handler) SubscribeAll(ctx context.Context) {
	h.Teardown()

	h.mu.Lock()
	defer h.mu.Unlock()

	for kind, mask := range subscriptionMasks {
		h.states[kind] = Subscribing

		sub, err := h.gw.Subscribe(ctx, kind, mask)
		if err != nil {
			h.logger.Printf("Subscription for %s failed: %v", kind, err)
			h.states[kind] = Unsubscribed
			continue
		}

		h.subs[kind] = sub
		h.states[kind] = Subscribed
		h.logger.Printf("Subscribed to %s changes", kind)

		h.wg.Add(1)
		go h.consume(ctx, kind, sub)
	}
}

// Teardown closes every active subscription.
func (h *Handler) Teardown() {
	h.mu.Lock()
	for kind, sub := range h.subs {
		sub.Close()
		delete(h.subs, kind)
		h.states[kind] = Unsubscribed
	}
	h.mu.Unlock()

	h.wg.Wait()
}

// States returns a snapshot of each kind's subscription state.
func (h *Handler) States() map[schema.Kind]State {
	h.mu.Lock()
	defer h.mu.Unlock()

	states := make(map[schema.Kind]State, len(subscriptionMasks))
	for kind := range subscriptionMasks {
		states[kind] = h.states[kind]
	}
	return states
}

// consume pumps one subscription's feed until it drops.
func (h *Handler) consume(ctx context.Context, kind schema.Kind, sub *remote.Subscription) {
	defer h.wg.Done()

	for n := range sub.C {
		if err := h.Fold(ctx, n); err != nil {
			h.logger.Printf("Failed to fold %s notification: %v", kind, err)
		}
	}

	// Feed ended: network drop or teardown. The transition is silent; the
	// connectivity monitor's online hook re-invokes SubscribeAll.
	h.mu.Lock()
	if h.subs[kind] == sub {
		delete(h.subs, kind)
		h.states[kind] = Unsubscribed
	}
	h.mu.Unlock()
}

// Fold applies one notification to the local store.
//
// Own-device echoes are dropped without any store mutation or notice.
// Insert-type notifications dedupe by identity key; update-type overwrite
// mutable fields in place, falling back to insert when the entity is
// missing locally. Delete notifications are ignored: folding one as an
// insert would resurrect the removed row on every device.
func (h *Handler) Fold(ctx context.Context, n remote.Notification) error {
	if n.Event != remote.EventInsert && n.Event != remote.EventUpdate {
		return nil
	}

	kind, err := n.Kind()
	if err != nil {
		return err
	}

	switch kind {
	case schema.KindSales:
		return h.foldSale(ctx, n)
	case schema.KindCustomers:
		return h.foldCustomer(ctx, n)
	case schema.KindOrders:
		return h.foldOrder(ctx, n)
	default:
		// Settings and any future kinds refresh via snapshot pulls.
		return nil
	}
}

func (h *Handler) foldSale(ctx context.Context, n remote.Notification) error {
	var rs schema.RemoteSale
	if err := json.Unmarshal(n.Record, &rs); err != nil {
		return err
	}
	if rs.DeviceID == h.deviceID {
		return nil
	}

	folded := false
	err := store.Mutate(ctx, h.store, schema.KindSales.StoreKey(), func(sales []schema.Sale) ([]schema.Sale, error) {
		for i := range sales {
			if sales[i].Matches(rs) {
				if n.Event == remote.EventUpdate {
					sales[i].Amount = rs.Amount
					sales[i].Quantity = rs.Quantity
					sales[i].ContainerSize = rs.ContainerSize
					folded = true
				}
				return sales, nil
			}
		}
		folded = true
		return append(sales, schema.SaleFromRemote(rs)), nil
	})
	if err != nil {
		return err
	}

	if folded {
		h.logger.Printf("Folded remote sale from %s: %s ₱%.2f", rs.DeviceID, rs.CustomerName, rs.Amount)
		h.bus.Publish(events.TypeEntityFolded, map[string]string{
			"kind": schema.KindSales.String(), "customer": rs.CustomerName,
		})
	}
	return nil
}

func (h *Handler) foldCustomer(ctx context.Context, n remote.Notification) error {
	var rc schema.RemoteCustomer
	if err := json.Unmarshal(n.Record, &rc); err != nil {
		return err
	}

	folded := false
	err := store.Mutate(ctx, h.store, schema.KindCustomers.StoreKey(), func(customers []schema.Customer) ([]schema.Customer, error) {
		for i := range customers {
			if customers[i].SameName(rc.Name) {
				merged := schema.MergeCustomer(customers[i], schema.CustomerFromRemote(rc))
				folded = merged != customers[i]
				customers[i] = merged
				return customers, nil
			}
		}
		folded = true
		return append(customers, schema.CustomerFromRemote(rc)), nil
	})
	if err != nil {
		return err
	}

	if folded {
		h.logger.Printf("Folded remote customer: %s", rc.Name)
		h.bus.Publish(events.TypeEntityFolded, map[string]string{
			"kind": schema.KindCustomers.String(), "name": rc.Name,
		})
	}
	return nil
}

func (h *Handler) foldOrder(ctx context.Context, n remote.Notification) error {
	var ro schema.RemoteOrder
	if err := json.Unmarshal(n.Record, &ro); err != nil {
		return err
	}
	if ro.DeviceID == h.deviceID {
		return nil
	}

	folded := false
	err := store.Mutate(ctx, h.store, schema.KindOrders.StoreKey(), func(orders []schema.Order) ([]schema.Order, error) {
		for i := range orders {
			if orders[i].ID == ro.ID {
				if n.Event == remote.EventUpdate {
					orders[i].ApplyRemote(ro)
					folded = true
				}
				return orders, nil
			}
		}
		folded = true
		return append(orders, schema.OrderFromRemote(ro)), nil
	})
	if err != nil {
		return err
	}

	if folded {
		h.logger.Printf("Folded remote order %s: %s is %s", ro.ID, ro.ClientName, ro.Status)
		h.bus.Publish(events.TypeEntityFolded, map[string]string{
			"kind": schema.KindOrders.String(), "order": ro.ID, "status": ro.Status,
		})
	}
	return nil
}
