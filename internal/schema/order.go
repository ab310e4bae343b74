package schema

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Order lifecycle statuses. Delivered and cancelled are terminal.
const (
	StatusPending        = "pending"
	StatusPreparing      = "preparing"
	StatusOutForDelivery = "out_for_delivery"
	StatusDelivered      = "delivered"
	StatusCancelled      = "cancelled"
)

// ValidStatus reports whether s is a recognized order status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusPreparing, StatusOutForDelivery, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// TerminalStatus reports whether s is a terminal order status.
func TerminalStatus(s string) bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Order is the local working copy of a client delivery order.
//
// ID is a client-generated UUID, unique per creation event across devices.
// Code is the short human-facing form shown on receipts and tables.
type Order struct {
	ID            string    `json:"id"`
	Code          string    `json:"code,omitempty"`
	ClientName    string    `json:"clientName"`
	ClientPhone   string    `json:"clientPhone,omitempty"`
	ClientAddress string    `json:"clientAddress,omitempty"`
	Quantity      int       `json:"quantity"`
	ContainerSize int       `json:"containerSize"`
	PricePerUnit  float64   `json:"pricePerUnit"`
	TotalAmount   float64   `json:"totalAmount"`
	Status        string    `json:"status"`
	AssignedTo    string    `json:"assignedTo,omitempty"`
	OrderDate     time.Time `json:"orderDate"`
	FulfilledAt   time.Time `json:"fulfilledAt,omitzero"`
	DeviceID      string    `json:"deviceId,omitempty"`
	Remote        bool      `json:"isRemote,omitempty"`
}

// RemoteOrder is the snake_case row shape of the remote client_orders table.
// The remote store upserts on id.
type RemoteOrder struct {
	ID            string    `json:"id"`
	ClientName    string    `json:"client_name"`
	ClientPhone   string    `json:"client_phone,omitempty"`
	ClientAddress string    `json:"client_address,omitempty"`
	Quantity      int       `json:"quantity"`
	ContainerSize int       `json:"container_size"`
	PricePerUnit  float64   `json:"price_per_unit"`
	TotalAmount   float64   `json:"total_amount"`
	Status        string    `json:"status"`
	AssignedTo    string    `json:"assigned_to,omitempty"`
	DeviceID      string    `json:"device_id,omitempty"`
	CreatedAt     time.Time `json:"created_at,omitzero"`
	FulfilledAt   time.Time `json:"fulfilled_at,omitzero"`
}

// NewOrderID returns a collision-resistant order id and its display code.
//
// The previous scheme derived ids from a truncated timestamp, which collides
// when two devices create orders in the same second. A UUID keeps creation
// events globally unique; the code keeps the familiar ORD- prefix.
func NewOrderID() (id, code string) {
	u := uuid.NewString()
	return u, "ORD-" + strings.ToUpper(u[:8])
}

// ContainerUnitPrice returns the per-container price for a refill container
// of the given gallon size.
func ContainerUnitPrice(size int) float64 {
	switch size {
	case 5:
		return 15
	case 3:
		return 10
	default:
		return 5
	}
}

// OrderTotal computes an order's unit price and total amount. Orders of ten
// or more containers get a 10% volume discount.
func OrderTotal(quantity, containerSize int) (unit, total float64) {
	unit = ContainerUnitPrice(containerSize)
	total = unit * float64(quantity)
	if quantity >= 10 {
		total *= 0.9
	}
	return unit, total
}

// Validate checks the local preconditions for submitting the order.
func (o *Order) Validate() error {
	if o.ID == "" {
		return fmt.Errorf("%w: missing order id", ErrInvalid)
	}
	if strings.TrimSpace(o.ClientName) == "" {
		return fmt.Errorf("%w: client name is required", ErrInvalid)
	}
	if o.Quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1", ErrInvalid)
	}
	if o.ContainerSize < 1 {
		return fmt.Errorf("%w: container size must be at least 1 gallon", ErrInvalid)
	}
	if !ValidStatus(o.Status) {
		return fmt.Errorf("%w: unknown order status %q", ErrInvalid, o.Status)
	}
	return nil
}

// ToRemote converts the order to its remote row shape.
func (o *Order) ToRemote() RemoteOrder {
	return RemoteOrder{
		ID:            o.ID,
		ClientName:    o.ClientName,
		ClientPhone:   o.ClientPhone,
		ClientAddress: o.ClientAddress,
		Quantity:      o.Quantity,
		ContainerSize: o.ContainerSize,
		PricePerUnit:  o.PricePerUnit,
		TotalAmount:   o.TotalAmount,
		Status:        o.Status,
		AssignedTo:    o.AssignedTo,
		DeviceID:      o.DeviceID,
		FulfilledAt:   o.FulfilledAt,
	}
}

// OrderFromRemote converts a remote row into a local working copy.
func OrderFromRemote(r RemoteOrder) Order {
	code := ""
	if len(r.ID) >= 8 {
		code = "ORD-" + strings.ToUpper(r.ID[:8])
	}
	return Order{
		ID:            r.ID,
		Code:          code,
		ClientName:    r.ClientName,
		ClientPhone:   r.ClientPhone,
		ClientAddress: r.ClientAddress,
		Quantity:      r.Quantity,
		ContainerSize: r.ContainerSize,
		PricePerUnit:  r.PricePerUnit,
		TotalAmount:   r.TotalAmount,
		Status:        r.Status,
		AssignedTo:    r.AssignedTo,
		OrderDate:     r.CreatedAt,
		FulfilledAt:   r.FulfilledAt,
		DeviceID:      r.DeviceID,
		Remote:        true,
	}
}

// ApplyRemote overwrites the order's mutable fields from a remote row,
// leaving local identity and creation metadata untouched.
func (o *Order) ApplyRemote(r RemoteOrder) {
	o.Status = r.Status
	o.AssignedTo = r.AssignedTo
	o.FulfilledAt = r.FulfilledAt
	o.TotalAmount = r.TotalAmount
	o.Quantity = r.Quantity
	o.ContainerSize = r.ContainerSize
	o.PricePerUnit = r.PricePerUnit
}
