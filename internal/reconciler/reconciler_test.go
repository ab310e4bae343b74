package reconciler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/amcabaraban/pureflow-tagum-pos/internal/events"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/queue"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/remote"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/schema"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/store"
)

// stubGateway is an in-memory Gateway for reconciler tests. Upserts are
// recorded per table; snapshots serve canned rows. failUpsert makes every
// upsert for the named table fail, simulating a partial outage.
type stubGateway struct {
	mu         sync.Mutex
	upserts    map[string][]json.RawMessage
	snapshots  map[string][]json.RawMessage
	failUpsert map[string]bool
	gate       chan struct{} // when set, SelectAll blocks until closed
}

var _ remote.Gateway = (*stubGateway)(nil)

func newStubGateway() *stubGateway {
	return &stubGateway{
		upserts:    make(map[string][]json.RawMessage),
		snapshots:  make(map[string][]json.RawMessage),
		failUpsert: make(map[string]bool),
	}
}

func (g *stubGateway) Insert(ctx context.Context, kind schema.Kind, record json.RawMessage) (json.RawMessage, error) {
	return record, nil
}

func (g *stubGateway) UpsertByKey(ctx context.Context, kind schema.Kind, record json.RawMessage, conflictKey string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failUpsert[kind.Table()] {
		return fmt.Errorf("%w: stub outage", remote.ErrUnreachable)
	}
	g.upserts[kind.Table()] = append(g.upserts[kind.Table()], record)
	return nil
}

func (g *stubGateway) UpdateByKey(ctx context.Context, kind schema.Kind, keyColumn, keyValue string, partial json.RawMessage) error {
	return nil
}

func (g *stubGateway) SelectAll(ctx context.Context, kind schema.Kind, opts remote.SelectOptions) ([]json.RawMessage, error) {
	g.mu.Lock()
	gate := g.gate
	rows := g.snapshots[kind.Table()]
	g.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return rows, nil
}

func (g *stubGateway) Subscribe(ctx context.Context, kind schema.Kind, mask remote.Event) (*remote.Subscription, error) {
	return nil, fmt.Errorf("%w: no feed in stub", remote.ErrUnreachable)
}

func (g *stubGateway) Ping(ctx context.Context) error { return nil }

func (g *stubGateway) upsertCount(table string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.upserts[table])
}

func setupReconciler(t *testing.T) (*Reconciler, *store.Store, *queue.Queue, *stubGateway) {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	q := queue.New(st, "device-test")
	gw := newStubGateway()
	rec := New(st, q, gw, events.NewBus(), nil)
	return rec, st, q, gw
}

func TestDrainQueuePushesInOrder(t *testing.T) {
	rec, _, q, gw := setupReconciler(t)
	ctx := context.Background()

	for _, uid := range []string{"a", "b", "c"} {
		if err := q.Enqueue(ctx, schema.KindSales, schema.RemoteSale{SaleUID: uid}); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}

	synced, remaining, err := rec.DrainQueue(ctx)
	if err != nil {
		t.Fatalf("DrainQueue failed: %v", err)
	}
	if synced != 3 || remaining != 0 {
		t.Errorf("got synced=%d remaining=%d, want 3/0", synced, remaining)
	}

	if got := gw.upsertCount("sales"); got != 3 {
		t.Fatalf("remote received %d upserts, want 3", got)
	}
	var first schema.RemoteSale
	json.Unmarshal(gw.upserts["sales"][0], &first)
	if first.SaleUID != "a" {
		t.Errorf("first upsert is %q, want a (FIFO)", first.SaleUID)
	}
}

func TestDrainQueuePartialFailure(t *testing.T) {
	rec, _, q, gw := setupReconciler(t)
	ctx := context.Background()

	q.Enqueue(ctx, schema.KindSales, schema.RemoteSale{SaleUID: "s1"})
	q.Enqueue(ctx, schema.KindCustomers, schema.RemoteCustomer{Name: "Aling Nena"})
	q.Enqueue(ctx, schema.KindSales, schema.RemoteSale{SaleUID: "s2"})

	gw.failUpsert["customers"] = true

	synced, remaining, err := rec.DrainQueue(ctx)
	if err != nil {
		t.Fatalf("DrainQueue failed: %v", err)
	}
	if synced != 2 || remaining != 1 {
		t.Errorf("got synced=%d remaining=%d, want 2/1", synced, remaining)
	}

	ops, _ := q.Operations(ctx)
	if len(ops) != 1 || ops[0].Table != "customers" {
		t.Fatalf("wrong entry kept: %+v", ops)
	}

	// Outage over: the kept entry drains on the next cycle.
	gw.failUpsert["customers"] = false
	synced, remaining, err = rec.DrainQueue(ctx)
	if err != nil {
		t.Fatalf("second DrainQueue failed: %v", err)
	}
	if synced != 1 || remaining != 0 {
		t.Errorf("retry got synced=%d remaining=%d, want 1/0", synced, remaining)
	}
}

func TestDrainRetryIsIdempotentUpsert(t *testing.T) {
	rec, _, q, gw := setupReconciler(t)
	ctx := context.Background()

	// Same sale queued twice, as happens when a confirmation is lost and
	// the client retries. Both replays upsert on sale_uid.
	sale := schema.RemoteSale{SaleUID: "uid-dup", Amount: 150}
	q.Enqueue(ctx, schema.KindSales, sale)
	q.Enqueue(ctx, schema.KindSales, sale)

	if _, _, err := rec.DrainQueue(ctx); err != nil {
		t.Fatalf("DrainQueue failed: %v", err)
	}

	if got := gw.upsertCount("sales"); got != 2 {
		t.Fatalf("remote received %d upserts, want 2", got)
	}
	var a, b schema.RemoteSale
	json.Unmarshal(gw.upserts["sales"][0], &a)
	json.Unmarshal(gw.upserts["sales"][1], &b)
	if a.SaleUID != b.SaleUID {
		t.Error("retried entry lost its idempotency key")
	}
}

func TestPullMergesSalesByIdentity(t *testing.T) {
	rec, st, _, gw := setupReconciler(t)
	ctx := context.Background()

	// One local sale already known remotely, one local-only.
	local := []schema.Sale{
		{LocalID: 1, SaleUID: "uid-1", Amount: 150},
		{LocalID: 2, SaleUID: "uid-local", Amount: 75},
	}
	if err := store.Replace(ctx, st, schema.KindSales.StoreKey(), local); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	gw.snapshots["sales"] = []json.RawMessage{
		mustJSON(t, schema.RemoteSale{ID: 11, SaleUID: "uid-1", Amount: 150}),
		mustJSON(t, schema.RemoteSale{ID: 12, SaleUID: "uid-other", Amount: 300, DeviceID: "device-b"}),
	}

	if _, err := rec.PullSnapshot(ctx, 0); err != nil {
		t.Fatalf("PullSnapshot failed: %v", err)
	}

	sales, _ := store.List[schema.Sale](ctx, st, schema.KindSales.StoreKey())
	if len(sales) != 3 {
		t.Fatalf("got %d sales, want 3 (confirm, keep local-only, append remote)", len(sales))
	}
	if sales[0].RemoteID != 11 {
		t.Errorf("matched sale not confirmed: %+v", sales[0])
	}
	if sales[1].SaleUID != "uid-local" {
		t.Errorf("local-only sale discarded by pull: %+v", sales[1])
	}
	if !sales[2].Remote || sales[2].SaleUID != "uid-other" {
		t.Errorf("remote sale not appended as remote-origin: %+v", sales[2])
	}
}

func TestPullIsIdempotent(t *testing.T) {
	rec, st, _, gw := setupReconciler(t)
	ctx := context.Background()

	gw.snapshots["sales"] = []json.RawMessage{
		mustJSON(t, schema.RemoteSale{ID: 5, SaleUID: "uid-5", Amount: 45}),
	}
	gw.snapshots["customers"] = []json.RawMessage{
		mustJSON(t, schema.RemoteCustomer{Name: "Aling Nena", TotalSpent: 500, PurchaseCount: 10}),
	}

	for i := 0; i < 2; i++ {
		if _, err := rec.PullSnapshot(ctx, 0); err != nil {
			t.Fatalf("pull %d failed: %v", i+1, err)
		}
	}

	sales, _ := store.List[schema.Sale](ctx, st, schema.KindSales.StoreKey())
	if len(sales) != 1 {
		t.Errorf("repeated pull duplicated sales: %d", len(sales))
	}
	customers, _ := store.List[schema.Customer](ctx, st, schema.KindCustomers.StoreKey())
	if len(customers) != 1 {
		t.Errorf("repeated pull duplicated customers: %d", len(customers))
	}
	if customers[0].TotalSpent != 500 || customers[0].PurchaseCount != 10 {
		t.Errorf("repeated merge changed counters: %+v", customers[0])
	}
}

func TestPullAppliesSettings(t *testing.T) {
	rec, st, _, gw := setupReconciler(t)
	ctx := context.Background()

	gw.snapshots["settings"] = []json.RawMessage{
		mustJSON(t, schema.RemoteSettings{
			ID: schema.SettingsID, StoreName: "PureFlow Tagum",
			BasePrice: 18, SukiDiscount: 15, BulkDiscount: 25,
		}),
	}

	if _, err := rec.PullSnapshot(ctx, 0); err != nil {
		t.Fatalf("PullSnapshot failed: %v", err)
	}

	if got, _ := st.GetValue(ctx, schema.KeyStoreName); got != "PureFlow Tagum" {
		t.Errorf("store name not applied: %q", got)
	}
	if got, _ := st.GetValue(ctx, schema.KeyBasePrice); got != "18" {
		t.Errorf("base price not applied: %q", got)
	}
}

func TestSingleFlight(t *testing.T) {
	rec, _, _, gw := setupReconciler(t)
	ctx := context.Background()

	gate := make(chan struct{})
	gw.gate = gate

	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		close(started)
		_, err := rec.Sync(ctx)
		done <- err
	}()
	<-started

	// Wait until the first run holds the flag.
	for !rec.Syncing() {
		runtime.Gosched()
	}

	if _, err := rec.Sync(ctx); !errors.Is(err, ErrSyncInProgress) {
		t.Errorf("overlapping trigger got %v, want ErrSyncInProgress", err)
	}

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if rec.Syncing() {
		t.Error("flag not released after run")
	}
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	return data
}
