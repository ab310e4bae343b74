package pos

import (
	"context"
	"time"

	"github.com/amcabaraban/pureflow-tagum-pos/internal/schema"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/store"
)

// Summary aggregates sales over a time window.
type Summary struct {
	From          time.Time
	To            time.Time
	SaleCount     int
	Revenue       float64
	Gallons       int
	ByTier        map[string]int
	SukiRevenue   float64
	PendingOrders int
}

// TodaySummary reports the current business day, midnight to now.
func (s *Service) TodaySummary(ctx context.Context) (Summary, error) {
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return s.Summarize(ctx, midnight, now)
}

// Summarize aggregates all sales with a date inside [from, to].
func (s *Service) Summarize(ctx context.Context, from, to time.Time) (Summary, error) {
	summary := Summary{
		From:   from,
		To:     to,
		ByTier: make(map[string]int),
	}

	sales, err := store.List[schema.Sale](ctx, s.store, schema.KindSales.StoreKey())
	if err != nil {
		return Summary{}, err
	}
	for _, sale := range sales {
		if sale.Date.Before(from) || sale.Date.After(to) {
			continue
		}
		summary.SaleCount++
		summary.Revenue += sale.Amount
		summary.Gallons += sale.Quantity * sale.ContainerSize
		summary.ByTier[sale.Type]++
		if sale.Type == schema.TierSuki {
			summary.SukiRevenue += sale.Amount
		}
	}

	orders, err := store.List[schema.Order](ctx, s.store, schema.KindOrders.StoreKey())
	if err != nil {
		return Summary{}, err
	}
	for _, o := range orders {
		if !schema.TerminalStatus(o.Status) {
			summary.PendingOrders++
		}
	}
	return summary, nil
}
