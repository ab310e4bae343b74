package schema

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestPricePerGallon(t *testing.T) {
	settings := DefaultSettings()

	tests := []struct {
		tier string
		want float64
	}{
		{TierRegular, 15},
		{TierSuki, 13.5},
		{TierBulk, 12},
		{"unknown", 15},
	}
	for _, tt := range tests {
		if got := settings.PricePerGallon(tt.tier); got != tt.want {
			t.Errorf("PricePerGallon(%q) = %v, want %v", tt.tier, got, tt.want)
		}
	}
}

func TestSaleTotal(t *testing.T) {
	settings := DefaultSettings()

	// 2 containers of 5 gallons at suki pricing: 13.5 * 2 * 5
	if got := settings.SaleTotal(TierSuki, 2, 5); got != 135 {
		t.Errorf("SaleTotal = %v, want 135", got)
	}
}

func TestOrderTotal(t *testing.T) {
	tests := []struct {
		quantity, size int
		wantUnit       float64
		wantTotal      float64
	}{
		{1, 5, 15, 15},
		{2, 3, 10, 20},
		{4, 1, 5, 20},
		{10, 5, 15, 135}, // volume discount kicks in at 10
		{20, 3, 10, 180},
	}
	for _, tt := range tests {
		unit, total := OrderTotal(tt.quantity, tt.size)
		if unit != tt.wantUnit || total != tt.wantTotal {
			t.Errorf("OrderTotal(%d, %d) = (%v, %v), want (%v, %v)",
				tt.quantity, tt.size, unit, total, tt.wantUnit, tt.wantTotal)
		}
	}
}

func TestNewOrderID(t *testing.T) {
	id, code := NewOrderID()
	if len(id) != 36 {
		t.Errorf("order id %q is not a UUID", id)
	}
	if !strings.HasPrefix(code, "ORD-") || len(code) != 12 {
		t.Errorf("display code %q, want ORD- plus 8 chars", code)
	}
	if code != strings.ToUpper(code) {
		t.Errorf("display code %q not uppercase", code)
	}

	id2, _ := NewOrderID()
	if id == id2 {
		t.Error("consecutive order ids collided")
	}
}

func TestSaleValidate(t *testing.T) {
	valid := Sale{
		SaleUID:       NewSaleUID(),
		Type:          TierRegular,
		Quantity:      1,
		ContainerSize: 5,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid sale rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Sale)
	}{
		{"bad tier", func(s *Sale) { s.Type = "vip" }},
		{"suki without name", func(s *Sale) { s.Type = TierSuki; s.Customer = "" }},
		{"zero quantity", func(s *Sale) { s.Quantity = 0 }},
		{"zero container", func(s *Sale) { s.ContainerSize = 0 }},
		{"missing uid", func(s *Sale) { s.SaleUID = "" }},
	}
	for _, tt := range tests {
		sale := valid
		tt.mutate(&sale)
		if err := sale.Validate(); !errors.Is(err, ErrInvalid) {
			t.Errorf("%s: expected ErrInvalid, got %v", tt.name, err)
		}
	}
}

func TestSaleMatches(t *testing.T) {
	sale := Sale{SaleUID: "uid-1", RemoteID: 0}

	if !sale.Matches(RemoteSale{SaleUID: "uid-1"}) {
		t.Error("sale must match its own sale_uid")
	}
	if sale.Matches(RemoteSale{SaleUID: "uid-2"}) {
		t.Error("sale must not match a different sale_uid")
	}

	confirmed := Sale{SaleUID: "uid-1", RemoteID: 99}
	if !confirmed.Matches(RemoteSale{ID: 99}) {
		t.Error("sale must match its confirmed remote id")
	}
}

func TestMergeCustomerMonotonic(t *testing.T) {
	local := Customer{
		Name:          "Aling Nena",
		Type:          TierSuki,
		TotalSpent:    500,
		PurchaseCount: 10,
		LastPurchase:  time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
	}
	stale := Customer{
		Name:          "Aling Nena",
		Type:          TierRegular,
		TotalSpent:    300,
		PurchaseCount: 6,
		LastPurchase:  time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
	}

	merged := MergeCustomer(local, stale)
	if merged.TotalSpent != 500 || merged.PurchaseCount != 10 {
		t.Errorf("stale merge shrank counters: %+v", merged)
	}
	if merged.Type != TierSuki {
		t.Errorf("suki tier lost in merge: %q", merged.Type)
	}
	if !merged.LastPurchase.Equal(local.LastPurchase) {
		t.Errorf("older last purchase won: %v", merged.LastPurchase)
	}
}

func TestMergeCustomerIdempotent(t *testing.T) {
	local := Customer{Name: "Mang Tomas", Type: TierRegular, TotalSpent: 100, PurchaseCount: 2}
	remote := Customer{Name: "Mang Tomas", Type: TierSuki, Phone: "0917", TotalSpent: 150, PurchaseCount: 3}

	once := MergeCustomer(local, remote)
	twice := MergeCustomer(once, remote)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("merge not idempotent (-once +twice):\n%s", diff)
	}
}

func TestMergeCustomerTakesRemoteContact(t *testing.T) {
	local := Customer{Name: "Mang Tomas", Phone: "0917", Address: ""}
	remote := Customer{Name: "Mang Tomas", Phone: "0928", Address: "Purok 3"}

	merged := MergeCustomer(local, remote)
	if merged.Phone != "0928" || merged.Address != "Purok 3" {
		t.Errorf("remote contact fields did not win: %+v", merged)
	}
}

func TestSaleWireRoundTrip(t *testing.T) {
	sale := Sale{
		SaleUID:       "uid-7",
		Customer:      "Aling Nena",
		Type:          TierSuki,
		Quantity:      3,
		ContainerSize: 5,
		Amount:        202.5,
		ProcessedBy:   "maria",
		UserRole:      "staff",
		DeviceID:      "device-a",
	}

	back := SaleFromRemote(sale.ToRemote())
	if back.SaleUID != sale.SaleUID || back.Amount != sale.Amount || back.Customer != sale.Customer {
		t.Errorf("wire conversion lost fields: %+v", back)
	}
	if !back.Remote {
		t.Error("remote-origin flag not set on converted sale")
	}
	if back.LocalID == 0 {
		t.Error("converted sale has no local id")
	}
}

func TestKindTables(t *testing.T) {
	for _, kind := range Kinds {
		back, err := KindFromTable(kind.Table())
		if err != nil {
			t.Fatalf("KindFromTable(%q) failed: %v", kind.Table(), err)
		}
		if back != kind {
			t.Errorf("table %q resolved to %v, want %v", kind.Table(), back, kind)
		}
	}
	if _, err := KindFromTable("nope"); err == nil {
		t.Error("unknown table must not resolve")
	}
}

func TestApplyRemoteKeepsIdentity(t *testing.T) {
	order := Order{
		ID:         "abc",
		Code:       "ORD-ABC",
		ClientName: "Kap. Cruz",
		Status:     StatusPending,
		OrderDate:  time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
	}
	order.ApplyRemote(RemoteOrder{
		ID:         "abc",
		ClientName: "someone else",
		Status:     StatusOutForDelivery,
		AssignedTo: "Kuya Ben",
	})

	if order.Status != StatusOutForDelivery || order.AssignedTo != "Kuya Ben" {
		t.Errorf("mutable fields not applied: %+v", order)
	}
	if order.ClientName != "Kap. Cruz" || order.Code != "ORD-ABC" {
		t.Errorf("identity fields overwritten: %+v", order)
	}
}
