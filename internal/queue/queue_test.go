package queue

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/amcabaraban/pureflow-tagum-pos/internal/schema"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/store"
)

func setupTestQueue(t *testing.T) *Queue {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	return New(st, "device-test")
}

func TestEnqueueStampsMetadata(t *testing.T) {
	q := setupTestQueue(t)
	ctx := context.Background()

	sale := schema.RemoteSale{SaleUID: "uid-1", Amount: 150}
	if err := q.Enqueue(ctx, schema.KindSales, sale); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	ops, err := q.Operations(ctx)
	if err != nil {
		t.Fatalf("Operations failed: %v", err)
	}
	if len(ops) != 1 {
		t.Fatalf("got %d operations, want 1", len(ops))
	}

	op := ops[0]
	if op.Table != "sales" {
		t.Errorf("got table %q, want sales", op.Table)
	}
	if op.DeviceID != "device-test" {
		t.Errorf("got device %q, want device-test", op.DeviceID)
	}
	if op.Synced {
		t.Error("new operation must not be marked synced")
	}
	if op.QueuedAt == 0 {
		t.Error("missing queue timestamp")
	}

	var decoded schema.RemoteSale
	if err := json.Unmarshal(op.Payload, &decoded); err != nil {
		t.Fatalf("payload not decodable: %v", err)
	}
	if decoded.SaleUID != "uid-1" {
		t.Errorf("payload round-trip lost sale_uid: %+v", decoded)
	}
}

func TestDrainFIFOOrder(t *testing.T) {
	q := setupTestQueue(t)
	ctx := context.Background()

	for _, uid := range []string{"first", "second", "third"} {
		if err := q.Enqueue(ctx, schema.KindSales, schema.RemoteSale{SaleUID: uid}); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}

	var seen []string
	synced, remaining, err := q.Drain(ctx, func(op Operation) error {
		var sale schema.RemoteSale
		if err := json.Unmarshal(op.Payload, &sale); err != nil {
			return err
		}
		seen = append(seen, sale.SaleUID)
		return nil
	})
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if synced != 3 || remaining != 0 {
		t.Errorf("got synced=%d remaining=%d, want 3/0", synced, remaining)
	}

	want := []string{"first", "second", "third"}
	for i, uid := range want {
		if seen[i] != uid {
			t.Fatalf("drain order %v, want %v", seen, want)
		}
	}

	if n, _ := q.Len(ctx); n != 0 {
		t.Errorf("queue not empty after full drain: %d", n)
	}
}

func TestDrainKeepsFailedEntries(t *testing.T) {
	q := setupTestQueue(t)
	ctx := context.Background()

	for _, uid := range []string{"ok-1", "bad", "ok-2"} {
		if err := q.Enqueue(ctx, schema.KindSales, schema.RemoteSale{SaleUID: uid}); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}

	synced, remaining, err := q.Drain(ctx, func(op Operation) error {
		var sale schema.RemoteSale
		json.Unmarshal(op.Payload, &sale)
		if sale.SaleUID == "bad" {
			return errors.New("remote unreachable")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if synced != 2 || remaining != 1 {
		t.Errorf("got synced=%d remaining=%d, want 2/1", synced, remaining)
	}

	ops, _ := q.Operations(ctx)
	if len(ops) != 1 {
		t.Fatalf("got %d remaining operations, want 1", len(ops))
	}
	var sale schema.RemoteSale
	json.Unmarshal(ops[0].Payload, &sale)
	if sale.SaleUID != "bad" {
		t.Errorf("wrong entry kept: %q", sale.SaleUID)
	}
}

func TestDrainSurvivesRestart(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "restart.db")
	ctx := context.Background()

	st, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	q := New(st, "device-test")
	if err := q.Enqueue(ctx, schema.KindCustomers, schema.RemoteCustomer{Name: "Aling Nena"}); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	st.Close()

	st, err = store.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer st.Close()

	q = New(st, "device-test")
	ops, err := q.Operations(ctx)
	if err != nil {
		t.Fatalf("Operations failed: %v", err)
	}
	if len(ops) != 1 || ops[0].Table != "customers" {
		t.Errorf("queue lost across restart: %+v", ops)
	}
}
