package schema

import (
	"fmt"
	"strings"
	"time"
)

// Customer is the local working copy of a customer profile.
//
// Name is the identity key, compared case-insensitively. TotalSpent and
// PurchaseCount are cumulative and only ever merge upward; a stale remote
// pull must never shrink them.
type Customer struct {
	LocalID       int64     `json:"id,omitempty"`
	Name          string    `json:"name"`
	Phone         string    `json:"phone,omitempty"`
	Address       string    `json:"address,omitempty"`
	Type          string    `json:"type"`
	TotalSpent    float64   `json:"totalSpent"`
	PurchaseCount int       `json:"purchaseCount"`
	LastPurchase  time.Time `json:"lastPurchase,omitzero"`
	AddedBy       string    `json:"addedBy,omitempty"`
}

// RemoteCustomer is the snake_case row shape of the remote customers table.
// The remote store upserts on name.
type RemoteCustomer struct {
	ID            int64     `json:"id,omitempty"`
	Name          string    `json:"name"`
	Phone         string    `json:"phone,omitempty"`
	Address       string    `json:"address,omitempty"`
	Type          string    `json:"type"`
	TotalSpent    float64   `json:"total_spent"`
	PurchaseCount int       `json:"purchase_count"`
	LastPurchase  time.Time `json:"last_purchase,omitzero"`
}

// Validate checks the local preconditions for saving the customer.
func (c *Customer) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: customer name is required", ErrInvalid)
	}
	if c.Type != "" && !ValidTier(c.Type) {
		return fmt.Errorf("%w: unknown customer tier %q", ErrInvalid, c.Type)
	}
	return nil
}

// SameName reports whether the customer's identity key matches name.
func (c *Customer) SameName(name string) bool {
	return strings.EqualFold(c.Name, name)
}

// ToRemote converts the customer to its remote row shape.
func (c *Customer) ToRemote() RemoteCustomer {
	return RemoteCustomer{
		Name:          c.Name,
		Phone:         c.Phone,
		Address:       c.Address,
		Type:          c.Type,
		TotalSpent:    c.TotalSpent,
		PurchaseCount: c.PurchaseCount,
		LastPurchase:  c.LastPurchase,
	}
}

// CustomerFromRemote converts a remote row into a local working copy.
func CustomerFromRemote(r RemoteCustomer) Customer {
	return Customer{
		LocalID:       time.Now().UnixNano(),
		Name:          r.Name,
		Phone:         r.Phone,
		Address:       r.Address,
		Type:          r.Type,
		TotalSpent:    r.TotalSpent,
		PurchaseCount: r.PurchaseCount,
		LastPurchase:  r.LastPurchase,
	}
}

// MergeCustomer folds a remote copy into the local one.
//
// Cumulative counters take the larger of the two values, keeping them
// monotonic under stale pulls. Contact fields prefer whichever side has
// them, with the remote winning when both do. A suki tier sticks: once a
// customer is suki on either side, the merge keeps it.
func MergeCustomer(local, remote Customer) Customer {
	merged := local
	if remote.Phone != "" {
		merged.Phone = remote.Phone
	}
	if remote.Address != "" {
		merged.Address = remote.Address
	}
	if remote.Type != "" {
		merged.Type = remote.Type
	}
	if local.Type == TierSuki || remote.Type == TierSuki {
		merged.Type = TierSuki
	}
	if remote.TotalSpent > merged.TotalSpent {
		merged.TotalSpent = remote.TotalSpent
	}
	if remote.PurchaseCount > merged.PurchaseCount {
		merged.PurchaseCount = remote.PurchaseCount
	}
	if remote.LastPurchase.After(merged.LastPurchase) {
		merged.LastPurchase = remote.LastPurchase
	}
	return merged
}
