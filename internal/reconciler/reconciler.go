// Package reconciler reconciles the device's working copies with the remote
// store: it replays the pending-operation queue, then pulls authoritative
// snapshots and merges them into the local store.
//
// Runs are single-flight. Triggers arrive from process start, the
// connectivity monitor's online transition, the periodic tick of the serve
// process, and explicit user request; whichever fires while a run is in
// progress is suppressed rather than queued.
package reconciler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/amcabaraban/pureflow-tagum-pos/internal/events"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/queue"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/remote"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/schema"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/store"
)

// PeriodicPullLimit caps snapshot pulls for routine syncs. Full
// reconciliation (the explicit sync command) pulls unbounded.
const PeriodicPullLimit = 100

// ErrSyncInProgress is returned when a trigger fires while a run is active.
var ErrSyncInProgress = fmt.Errorf("sync already in progress")

// Reconciler drains the queue and pulls snapshots against one gateway.
type Reconciler struct {
	store  *store.Store
	queue  *queue.Queue
	gw     remote.Gateway
	bus    *events.Bus
	logger *log.Logger

	syncing atomic.Bool
}

// Result summarizes one completed run.
type Result struct {
	Synced    int           `json:"synced"`
	Remaining int           `json:"remaining"`
	Pulled    int           `json:"pulled"`
	Duration  time.Duration `json:"duration"`
}

// New creates a Reconciler. If logger is nil, a default stderr logger with
// the [sync] prefix is used.
func New(st *store.Store, q *queue.Queue, gw remote.Gateway, bus *events.Bus, logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	return &Reconciler{store: st, queue: q, gw: gw, bus: bus, logger: logger}
}

// Sync runs one drain-then-pull cycle with the periodic pull cap.
func (r *Reconciler) Sync(ctx context.Context) (Result, error) {
	return r.run(ctx, PeriodicPullLimit)
}

// FullSync runs one drain-then-pull cycle with unbounded pulls.
func (r *Reconciler) FullSync(ctx context.Context) (Result, error) {
	return r.run(ctx, 0)
}

// run enforces the single-flight invariant around one cycle. The flag is
// released on every exit path.
func (r *Reconciler) run(ctx context.Context, pullLimit int) (Result, error) {
	if !r.syncing.CompareAndSwap(false, true) {
		r.logger.Printf("Sync already in progress, skipping trigger")
		return Result{}, ErrSyncInProgress
	}
	defer r.syncing.Store(false)

	start := time.Now()

	synced, remaining, err := r.DrainQueue(ctx)
	if err != nil {
		// A drain error is logged and retried on the next trigger; the
		// pull still runs so fresh remote state lands locally.
		r.logger.Printf("WARNING: queue drain failed: %v", err)
	}

	pulled, pullErr := r.PullSnapshot(ctx, pullLimit)
	if pullErr != nil {
		r.logger.Printf("WARNING: snapshot pull failed: %v", pullErr)
	}

	res := Result{
		Synced:    synced,
		Remaining: remaining,
		Pulled:    pulled,
		Duration:  time.Since(start),
	}

	r.logger.Printf("Sync complete: synced=%d remaining=%d pulled=%d in %v",
		res.Synced, res.Remaining, res.Pulled, res.Duration.Round(time.Millisecond))
	r.bus.Publish(events.TypeSyncCompleted, res)

	if err != nil {
		return res, err
	}
	return res, pullErr
}

// Syncing reports whether a run is in progress.
func (r *Reconciler) Syncing() bool {
	return r.syncing.Load()
}

// DrainQueue replays pending operations in FIFO order.
//
// Every kind drains as an upsert on its conflict key, so a retried entry
// whose earlier confirmation was lost overwrites the remote row instead of
// duplicating it. A failed entry stays queued; the cycle continues past it.
func (r *Reconciler) DrainQueue(ctx context.Context) (synced, remaining int, err error) {
	total, err := r.queue.Len(ctx)
	if err != nil {
		return 0, 0, err
	}
	if total == 0 {
		return 0, 0, nil
	}

	r.logger.Printf("Draining %d pending operations", total)

	synced, remaining, err = r.queue.Drain(ctx, func(op queue.Operation) error {
		kind, kerr := op.Kind()
		if kerr != nil {
			// An unknown table can never succeed; confirm it out of the
			// queue instead of retrying forever.
			r.logger.Printf("WARNING: dropping %v", kerr)
			return nil
		}

		if uerr := r.gw.UpsertByKey(ctx, kind, op.Payload, kind.ConflictKey()); uerr != nil {
			r.logger.Printf("WARNING: %s operation from %s failed: %v", kind, op.DeviceID, uerr)
			return uerr
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	if synced > 0 || remaining > 0 {
		r.logger.Printf("Drain complete: synced=%d remaining=%d", synced, remaining)
		r.bus.Publish(events.TypeQueueDrained, map[string]int{
			"synced": synced, "remaining": remaining,
		})
	}
	return synced, remaining, nil
}

// PullSnapshot pulls every kind's snapshot and merges it locally. Returns
// the total number of rows pulled. A kind whose pull fails is skipped and
// retried on the next trigger.
func (r *Reconciler) PullSnapshot(ctx context.Context, limit int) (int, error) {
	var pulled int
	var firstErr error

	for _, kind := range schema.Kinds {
		n, err := r.pullKind(ctx, kind, limit)
		if err != nil {
			r.logger.Printf("WARNING: pull %s failed: %v", kind, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		pulled += n
	}
	return pulled, firstErr
}

// pullKind pulls one kind's rows and merges them into the local store.
func (r *Reconciler) pullKind(ctx context.Context, kind schema.Kind, limit int) (int, error) {
	opts := remote.SelectOptions{OrderBy: "created_at", Descending: true, Limit: limit}
	if kind == schema.KindSettings {
		// Singleton row; ordering is meaningless.
		opts = remote.SelectOptions{Limit: 1}
	}

	rows, err := r.gw.SelectAll(ctx, kind, opts)
	if err != nil {
		return 0, err
	}

	switch kind {
	case schema.KindSales:
		return len(rows), r.mergeSales(ctx, rows)
	case schema.KindCustomers:
		return len(rows), r.mergeCustomers(ctx, rows)
	case schema.KindOrders:
		return len(rows), r.mergeOrders(ctx, rows)
	case schema.KindSettings:
		return len(rows), r.applySettings(ctx, rows)
	default:
		return 0, fmt.Errorf("unhandled kind %s", kind)
	}
}

// mergeSales folds pulled sale rows into the local list by identity.
//
// A pulled row that matches a local sale (by remote id or sale uid) confirms
// it in place; a row with no local match appends as remote-origin. Local
// sales with no remote identity yet are never discarded by a pull.
func (r *Reconciler) mergeSales(ctx context.Context, rows []json.RawMessage) error {
	return store.Mutate(ctx, r.store, schema.KindSales.StoreKey(), func(sales []schema.Sale) ([]schema.Sale, error) {
		for _, raw := range rows {
			var rs schema.RemoteSale
			if err := json.Unmarshal(raw, &rs); err != nil {
				r.logger.Printf("WARNING: skipping malformed sale row: %v", err)
				continue
			}

			matched := false
			for i := range sales {
				if sales[i].Matches(rs) {
					sales[i].RemoteID = rs.ID
					matched = true
					break
				}
			}
			if !matched {
				sales = append(sales, schema.SaleFromRemote(rs))
			}
		}
		return sales, nil
	})
}

// mergeCustomers folds pulled customer rows by case-insensitive name,
// keeping cumulative counters monotonic.
func (r *Reconciler) mergeCustomers(ctx context.Context, rows []json.RawMessage) error {
	return store.Mutate(ctx, r.store, schema.KindCustomers.StoreKey(), func(customers []schema.Customer) ([]schema.Customer, error) {
		for _, raw := range rows {
			var rc schema.RemoteCustomer
			if err := json.Unmarshal(raw, &rc); err != nil {
				r.logger.Printf("WARNING: skipping malformed customer row: %v", err)
				continue
			}

			matched := false
			for i := range customers {
				if customers[i].SameName(rc.Name) {
					customers[i] = schema.MergeCustomer(customers[i], schema.CustomerFromRemote(rc))
					matched = true
					break
				}
			}
			if !matched {
				customers = append(customers, schema.CustomerFromRemote(rc))
			}
		}
		return customers, nil
	})
}

// mergeOrders folds pulled order rows by id. Remote rows are authoritative
// for an order's mutable fields; local-only orders survive the pull.
func (r *Reconciler) mergeOrders(ctx context.Context, rows []json.RawMessage) error {
	return store.Mutate(ctx, r.store, schema.KindOrders.StoreKey(), func(orders []schema.Order) ([]schema.Order, error) {
		for _, raw := range rows {
			var ro schema.RemoteOrder
			if err := json.Unmarshal(raw, &ro); err != nil {
				r.logger.Printf("WARNING: skipping malformed order row: %v", err)
				continue
			}

			matched := false
			for i := range orders {
				if orders[i].ID == ro.ID {
					orders[i].ApplyRemote(ro)
					matched = true
					break
				}
			}
			if !matched {
				orders = append(orders, schema.OrderFromRemote(ro))
			}
		}
		return orders, nil
	})
}

// applySettings replaces the local settings scalars; the remote row is
// authoritative whenever it exists.
func (r *Reconciler) applySettings(ctx context.Context, rows []json.RawMessage) error {
	if len(rows) == 0 {
		return nil
	}

	var rs schema.RemoteSettings
	if err := json.Unmarshal(rows[0], &rs); err != nil {
		return fmt.Errorf("malformed settings row: %w", err)
	}

	settings := schema.SettingsFromRemote(rs)
	for key, value := range map[string]string{
		schema.KeyStoreName:    settings.StoreName,
		schema.KeyBasePrice:    strconv.FormatFloat(settings.BasePrice, 'f', -1, 64),
		schema.KeySukiDiscount: strconv.FormatFloat(settings.SukiDiscount, 'f', -1, 64),
		schema.KeyBulkDiscount: strconv.FormatFloat(settings.BulkDiscount, 'f', -1, 64),
	} {
		if err := r.store.SetValue(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}
