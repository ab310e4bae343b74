package pos

import (
	"context"
	"fmt"
	"time"

	"github.com/amcabaraban/pureflow-tagum-pos/internal/events"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/schema"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/store"
)

// SaleRequest describes a sale as entered at the counter. Amount is
// computed from the current settings, never taken from the caller.
type SaleRequest struct {
	Customer      string
	Tier          string
	Quantity      int
	ContainerSize int
}

// RecordSale records a sale locally and pushes it to the remote store.
//
// The local write always completes before any network activity, so a sale
// recorded offline is durable immediately. synced reports whether the row
// reached the remote store on the first attempt; when false the sale sits
// on the pending queue and the next reconciliation will deliver it.
func (s *Service) RecordSale(ctx context.Context, op Operator, req SaleRequest) (sale schema.Sale, synced bool, err error) {
	settings, err := s.LoadSettings(ctx)
	if err != nil {
		return schema.Sale{}, false, err
	}

	sale = schema.Sale{
		LocalID:       time.Now().UnixMilli(),
		SaleUID:       schema.NewSaleUID(),
		Customer:      req.Customer,
		Type:          req.Tier,
		Quantity:      req.Quantity,
		ContainerSize: req.ContainerSize,
		Amount:        settings.SaleTotal(req.Tier, req.Quantity, req.ContainerSize),
		Date:          time.Now(),
		ProcessedBy:   op.Username,
		UserRole:      op.Role,
		DeviceID:      s.deviceID,
	}
	if err := sale.Validate(); err != nil {
		return schema.Sale{}, false, err
	}

	if err := store.Append(ctx, s.store, schema.KindSales.StoreKey(), sale); err != nil {
		return schema.Sale{}, false, fmt.Errorf("failed to save sale: %w", err)
	}
	s.bus.Publish(events.TypeSaleRecorded, sale)

	if sale.Customer != "" {
		if err := s.recordPurchase(ctx, sale); err != nil {
			s.logger.Printf("Failed to update customer record for %q: %v", sale.Customer, err)
		}
	}

	synced, err = s.pushOrEnqueue(ctx, schema.KindSales, sale.ToRemote())
	if err != nil {
		return schema.Sale{}, false, err
	}
	return sale, synced, nil
}

// Sales returns all locally known sales, newest first.
func (s *Service) Sales(ctx context.Context) ([]schema.Sale, error) {
	sales, err := store.List[schema.Sale](ctx, s.store, schema.KindSales.StoreKey())
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(sales)-1; i < j; i, j = i+1, j-1 {
		sales[i], sales[j] = sales[j], sales[i]
	}
	return sales, nil
}

// recordPurchase folds a sale into the named customer's cumulative record,
// creating the customer on first purchase. The updated record is pushed
// remotely through the usual upsert-or-queue path.
func (s *Service) recordPurchase(ctx context.Context, sale schema.Sale) error {
	var updated schema.Customer
	err := store.Mutate(ctx, s.store, schema.KindCustomers.StoreKey(), func(customers []schema.Customer) ([]schema.Customer, error) {
		for i := range customers {
			if customers[i].SameName(sale.Customer) {
				customers[i].TotalSpent += sale.Amount
				customers[i].PurchaseCount++
				customers[i].LastPurchase = sale.Date
				if sale.Type == schema.TierSuki {
					customers[i].Type = schema.TierSuki
				}
				updated = customers[i]
				return customers, nil
			}
		}
		updated = schema.Customer{
			LocalID:       time.Now().UnixNano(),
			Name:          sale.Customer,
			Type:          sale.Type,
			TotalSpent:    sale.Amount,
			PurchaseCount: 1,
			LastPurchase:  sale.Date,
			AddedBy:       sale.ProcessedBy,
		}
		return append(customers, updated), nil
	})
	if err != nil {
		return err
	}
	s.bus.Publish(events.TypeCustomerChanged, updated)

	_, err = s.pushOrEnqueue(ctx, schema.KindCustomers, updated.ToRemote())
	return err
}
