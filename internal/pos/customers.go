package pos

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/amcabaraban/pureflow-tagum-pos/internal/events"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/schema"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/store"
)

// Customers returns all locally known customers sorted by name.
func (s *Service) Customers(ctx context.Context) ([]schema.Customer, error) {
	customers, err := store.List[schema.Customer](ctx, s.store, schema.KindCustomers.StoreKey())
	if err != nil {
		return nil, err
	}
	sort.Slice(customers, func(i, j int) bool {
		return strings.ToLower(customers[i].Name) < strings.ToLower(customers[j].Name)
	})
	return customers, nil
}

// FindCustomers returns customers whose name, phone, or address contains
// the query, case-insensitively.
func (s *Service) FindCustomers(ctx context.Context, query string) ([]schema.Customer, error) {
	customers, err := s.Customers(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return customers, nil
	}
	matched := customers[:0]
	for _, c := range customers {
		if strings.Contains(strings.ToLower(c.Name), q) ||
			strings.Contains(strings.ToLower(c.Phone), q) ||
			strings.Contains(strings.ToLower(c.Address), q) {
			matched = append(matched, c)
		}
	}
	return matched, nil
}

// AddCustomer registers a new customer profile. Names are unique
// case-insensitively; adding an existing name is an error rather than a
// silent merge so the counter staff notices the duplicate.
func (s *Service) AddCustomer(ctx context.Context, op Operator, customer schema.Customer) (schema.Customer, bool, error) {
	customer.Name = strings.TrimSpace(customer.Name)
	if customer.Type == "" {
		customer.Type = schema.TierRegular
	}
	if err := customer.Validate(); err != nil {
		return schema.Customer{}, false, err
	}
	customer.LocalID = time.Now().UnixNano()
	customer.AddedBy = op.Username

	err := store.Mutate(ctx, s.store, schema.KindCustomers.StoreKey(), func(customers []schema.Customer) ([]schema.Customer, error) {
		for i := range customers {
			if customers[i].SameName(customer.Name) {
				return nil, fmt.Errorf("%w: customer %q already exists", schema.ErrInvalid, customers[i].Name)
			}
		}
		return append(customers, customer), nil
	})
	if err != nil {
		return schema.Customer{}, false, err
	}
	s.bus.Publish(events.TypeCustomerChanged, customer)

	synced, err := s.pushOrEnqueue(ctx, schema.KindCustomers, customer.ToRemote())
	if err != nil {
		return schema.Customer{}, false, err
	}
	return customer, synced, nil
}
