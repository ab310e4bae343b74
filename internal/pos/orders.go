package pos

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/amcabaraban/pureflow-tagum-pos/internal/events"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/schema"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/store"
)

// OrderRequest describes a client delivery order as taken over the counter
// or phone. Pricing is derived from quantity and container size.
type OrderRequest struct {
	ClientName    string
	ClientPhone   string
	ClientAddress string
	Quantity      int
	ContainerSize int
}

// SubmitOrder creates a pending delivery order locally and pushes it to
// the remote store. Follows the same local-first contract as RecordSale.
func (s *Service) SubmitOrder(ctx context.Context, op Operator, req OrderRequest) (order schema.Order, synced bool, err error) {
	id, code := schema.NewOrderID()
	unit, total := schema.OrderTotal(req.Quantity, req.ContainerSize)

	order = schema.Order{
		ID:            id,
		Code:          code,
		ClientName:    req.ClientName,
		ClientPhone:   req.ClientPhone,
		ClientAddress: req.ClientAddress,
		Quantity:      req.Quantity,
		ContainerSize: req.ContainerSize,
		PricePerUnit:  unit,
		TotalAmount:   total,
		Status:        schema.StatusPending,
		OrderDate:     time.Now(),
		DeviceID:      s.deviceID,
	}
	if err := order.Validate(); err != nil {
		return schema.Order{}, false, err
	}

	if err := store.Append(ctx, s.store, schema.KindOrders.StoreKey(), order); err != nil {
		return schema.Order{}, false, fmt.Errorf("failed to save order: %w", err)
	}
	s.bus.Publish(events.TypeOrderChanged, order)

	synced, err = s.pushOrEnqueue(ctx, schema.KindOrders, order.ToRemote())
	if err != nil {
		return schema.Order{}, false, err
	}
	return order, synced, nil
}

// Orders returns all locally known orders, newest first.
func (s *Service) Orders(ctx context.Context) ([]schema.Order, error) {
	orders, err := store.List[schema.Order](ctx, s.store, schema.KindOrders.StoreKey())
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(orders)-1; i < j; i, j = i+1, j-1 {
		orders[i], orders[j] = orders[j], orders[i]
	}
	return orders, nil
}

// Order returns the order with the given id or display code.
func (s *Service) Order(ctx context.Context, ref string) (schema.Order, error) {
	orders, err := store.List[schema.Order](ctx, s.store, schema.KindOrders.StoreKey())
	if err != nil {
		return schema.Order{}, err
	}
	for _, o := range orders {
		if o.ID == ref || o.Code == ref {
			return o, nil
		}
	}
	return schema.Order{}, fmt.Errorf("order %q not found", ref)
}

// UpdateOrderStatus moves an order through the delivery flow.
//
// Terminal orders cannot change again, and cancellation is reserved for
// admins. Moving to delivered stamps the fulfillment time. The remote
// write is a partial patch on the order id; if it fails, the full updated
// row is queued so the eventual upsert carries the new status.
func (s *Service) UpdateOrderStatus(ctx context.Context, op Operator, ref, status, assignedTo string) (schema.Order, error) {
	if !schema.ValidStatus(status) {
		return schema.Order{}, fmt.Errorf("%w: unknown order status %q", schema.ErrInvalid, status)
	}
	if status == schema.StatusCancelled && !op.Admin() {
		return schema.Order{}, fmt.Errorf("%w: only admins can cancel orders", ErrForbidden)
	}

	var updated schema.Order
	err := store.Mutate(ctx, s.store, schema.KindOrders.StoreKey(), func(orders []schema.Order) ([]schema.Order, error) {
		for i := range orders {
			if orders[i].ID != ref && orders[i].Code != ref {
				continue
			}
			if schema.TerminalStatus(orders[i].Status) {
				return nil, fmt.Errorf("%w: order %s is already %s", schema.ErrInvalid, orders[i].Code, orders[i].Status)
			}
			orders[i].Status = status
			if assignedTo != "" {
				orders[i].AssignedTo = assignedTo
			}
			if status == schema.StatusDelivered {
				orders[i].FulfilledAt = time.Now()
			}
			updated = orders[i]
			return orders, nil
		}
		return nil, fmt.Errorf("order %q not found", ref)
	})
	if err != nil {
		return schema.Order{}, err
	}
	s.bus.Publish(events.TypeOrderChanged, updated)

	patch := map[string]any{
		"status": updated.Status,
	}
	if updated.AssignedTo != "" {
		patch["assigned_to"] = updated.AssignedTo
	}
	if !updated.FulfilledAt.IsZero() {
		patch["fulfilled_at"] = updated.FulfilledAt
	}
	partial, err := json.Marshal(patch)
	if err != nil {
		return schema.Order{}, fmt.Errorf("failed to encode order patch: %w", err)
	}

	if err := s.gw.UpdateByKey(ctx, schema.KindOrders, "id", updated.ID, partial); err != nil {
		s.logger.Printf("Remote status update failed for %s, queued for sync: %v", updated.Code, err)
		if qerr := s.queue.Enqueue(ctx, schema.KindOrders, updated.ToRemote()); qerr != nil {
			return schema.Order{}, fmt.Errorf("failed to queue order update: %w", qerr)
		}
	}
	return updated, nil
}
