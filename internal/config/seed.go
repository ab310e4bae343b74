package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/amcabaraban/pureflow-tagum-pos/internal/schema"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/store"
)

// Seed is the shape of the optional TOML seed file. It lets a new terminal
// start with the store's pricing and known suki customers instead of an
// empty database.
type Seed struct {
	Settings  SeedSettings   `toml:"settings"`
	Customers []SeedCustomer `toml:"customers"`
}

// SeedSettings mirrors the pricing parameters.
type SeedSettings struct {
	StoreName    string  `toml:"store_name"`
	BasePrice    float64 `toml:"base_price"`
	SukiDiscount float64 `toml:"suki_discount"`
	BulkDiscount float64 `toml:"bulk_discount"`
}

// SeedCustomer is a pre-registered customer profile.
type SeedCustomer struct {
	Name    string `toml:"name"`
	Phone   string `toml:"phone"`
	Address string `toml:"address"`
	Type    string `toml:"type"`
}

// LoadSeed parses the seed file.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	var seed Seed
	if err := toml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	return &seed, nil
}

// Apply writes the seed into the local store without clobbering live data:
// settings are written only where no value exists yet, and customers are
// added only when the name is not already known.
func (seed *Seed) Apply(ctx context.Context, st *store.Store) error {
	if err := seed.applySettings(ctx, st); err != nil {
		return err
	}
	return seed.applyCustomers(ctx, st)
}

func (seed *Seed) applySettings(ctx context.Context, st *store.Store) error {
	set := func(key, value string) error {
		_, err := st.GetValue(ctx, key)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrNoValue) {
			return err
		}
		return st.SetValue(ctx, key, value)
	}

	if seed.Settings.StoreName != "" {
		if err := set(schema.KeyStoreName, seed.Settings.StoreName); err != nil {
			return err
		}
	}
	for key, val := range map[string]float64{
		schema.KeyBasePrice:    seed.Settings.BasePrice,
		schema.KeySukiDiscount: seed.Settings.SukiDiscount,
		schema.KeyBulkDiscount: seed.Settings.BulkDiscount,
	} {
		if val == 0 {
			continue
		}
		if err := set(key, strconv.FormatFloat(val, 'f', -1, 64)); err != nil {
			return err
		}
	}
	return nil
}

func (seed *Seed) applyCustomers(ctx context.Context, st *store.Store) error {
	if len(seed.Customers) == 0 {
		return nil
	}
	return store.Mutate(ctx, st, schema.KindCustomers.StoreKey(), func(customers []schema.Customer) ([]schema.Customer, error) {
	next:
		for _, sc := range seed.Customers {
			if sc.Name == "" {
				continue
			}
			for i := range customers {
				if customers[i].SameName(sc.Name) {
					continue next
				}
			}
			tier := sc.Type
			if tier == "" {
				tier = schema.TierRegular
			}
			customers = append(customers, schema.Customer{
				Name:    sc.Name,
				Phone:   sc.Phone,
				Address: sc.Address,
				Type:    tier,
				AddedBy: "seed",
			})
		}
		return customers, nil
	})
}
