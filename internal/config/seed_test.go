package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/amcabaraban/pureflow-tagum-pos/internal/schema"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/store"
)

const testSeed = `
[settings]
store_name = "PureFlow Tagum"
base_price = 18.0
suki_discount = 12.0

[[customers]]
name = "Aling Nena"
phone = "0917"
type = "suki"

[[customers]]
name = "Mang Tomas"
address = "Purok 3"
`

func writeSeedFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write seed file: %v", err)
	}
	return path
}

func TestLoadSeed(t *testing.T) {
	seed, err := LoadSeed(writeSeedFile(t, testSeed))
	if err != nil {
		t.Fatalf("LoadSeed failed: %v", err)
	}
	if seed.Settings.StoreName != "PureFlow Tagum" || seed.Settings.BasePrice != 18 {
		t.Errorf("settings wrong: %+v", seed.Settings)
	}
	if len(seed.Customers) != 2 || seed.Customers[0].Type != "suki" {
		t.Errorf("customers wrong: %+v", seed.Customers)
	}
}

func TestLoadSeedMalformed(t *testing.T) {
	if _, err := LoadSeed(writeSeedFile(t, "[settings\nbroken")); err == nil {
		t.Error("malformed seed parsed without error")
	}
}

func TestSeedApplyDoesNotClobber(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()
	ctx := context.Background()

	// Live data present before the seed lands.
	if err := st.SetValue(ctx, schema.KeyBasePrice, "25"); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}
	if err := store.Append(ctx, st, schema.KindCustomers.StoreKey(), schema.Customer{
		Name: "Aling Nena", Type: schema.TierSuki, TotalSpent: 500,
	}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	seed, err := LoadSeed(writeSeedFile(t, testSeed))
	if err != nil {
		t.Fatalf("LoadSeed failed: %v", err)
	}
	if err := seed.Apply(ctx, st); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	// Existing price survives; unset name lands.
	if got, _ := st.GetValue(ctx, schema.KeyBasePrice); got != "25" {
		t.Errorf("seed clobbered live price: %q", got)
	}
	if got, _ := st.GetValue(ctx, schema.KeyStoreName); got != "PureFlow Tagum" {
		t.Errorf("seed name not applied: %q", got)
	}

	// Existing customer kept with its history; new one added.
	customers, _ := store.List[schema.Customer](ctx, st, schema.KindCustomers.StoreKey())
	if len(customers) != 2 {
		t.Fatalf("got %d customers, want 2", len(customers))
	}
	if customers[0].TotalSpent != 500 {
		t.Errorf("seed reset customer history: %+v", customers[0])
	}
	if customers[1].Name != "Mang Tomas" || customers[1].AddedBy != "seed" {
		t.Errorf("seeded customer wrong: %+v", customers[1])
	}
}

func TestSeedApplyIdempotent(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()
	ctx := context.Background()

	seed, err := LoadSeed(writeSeedFile(t, testSeed))
	if err != nil {
		t.Fatalf("LoadSeed failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := seed.Apply(ctx, st); err != nil {
			t.Fatalf("Apply %d failed: %v", i+1, err)
		}
	}

	customers, _ := store.List[schema.Customer](ctx, st, schema.KindCustomers.StoreKey())
	if len(customers) != 2 {
		t.Errorf("repeated apply duplicated customers: %d", len(customers))
	}
}
