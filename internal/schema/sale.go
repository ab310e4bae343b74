package schema

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Customer tiers. Suki customers are repeat buyers with a loyalty discount;
// bulk customers buy at volume pricing.
const (
	TierRegular = "regular"
	TierSuki    = "suki"
	TierBulk    = "bulk"
)

// ValidTier reports whether t is a recognized customer tier.
func ValidTier(t string) bool {
	return t == TierRegular || t == TierSuki || t == TierBulk
}

// Sale is the local working copy of a point-of-sale transaction.
//
// LocalID is assigned on the device and never leaves it. SaleUID is the
// client-generated idempotency key recognized by the remote upsert contract.
// RemoteID is zero until the remote store confirms the row.
type Sale struct {
	LocalID       int64     `json:"id"`
	RemoteID      int64     `json:"cloudId,omitempty"`
	SaleUID       string    `json:"saleUid"`
	Customer      string    `json:"customer"`
	Type          string    `json:"type"`
	Quantity      int       `json:"quantity"`
	ContainerSize int       `json:"containerSize"`
	Amount        float64   `json:"amount"`
	Date          time.Time `json:"date"`
	ProcessedBy   string    `json:"processedBy"`
	UserRole      string    `json:"userRole"`
	DeviceID      string    `json:"deviceId"`
	Remote        bool      `json:"isRemote,omitempty"`
}

// RemoteSale is the snake_case row shape of the remote sales table.
type RemoteSale struct {
	ID            int64     `json:"id,omitempty"`
	SaleUID       string    `json:"sale_uid"`
	CustomerName  string    `json:"customer_name"`
	CustomerType  string    `json:"customer_type"`
	Quantity      int       `json:"quantity"`
	ContainerSize int       `json:"container_size"`
	Amount        float64   `json:"amount"`
	ProcessedBy   string    `json:"processed_by"`
	UserRole      string    `json:"user_role"`
	DeviceID      string    `json:"device_id"`
	CreatedAt     time.Time `json:"created_at,omitzero"`
}

// NewSaleUID returns a fresh idempotency key for an outbound sale.
func NewSaleUID() string {
	return uuid.NewString()
}

// Validate checks the local preconditions for recording the sale.
func (s *Sale) Validate() error {
	if !ValidTier(s.Type) {
		return fmt.Errorf("%w: unknown customer tier %q", ErrInvalid, s.Type)
	}
	if s.Type == TierSuki && s.Customer == "" {
		return fmt.Errorf("%w: suki sales require a customer name", ErrInvalid)
	}
	if s.Quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1", ErrInvalid)
	}
	if s.ContainerSize < 1 {
		return fmt.Errorf("%w: container size must be at least 1 gallon", ErrInvalid)
	}
	if s.SaleUID == "" {
		return fmt.Errorf("%w: missing sale uid", ErrInvalid)
	}
	return nil
}

// ToRemote converts the sale to its remote row shape.
//
// The local id and remote-origin flag deliberately do not cross the wire;
// created_at is owned by the remote store on insert.
func (s *Sale) ToRemote() RemoteSale {
	return RemoteSale{
		SaleUID:       s.SaleUID,
		CustomerName:  s.Customer,
		CustomerType:  s.Type,
		Quantity:      s.Quantity,
		ContainerSize: s.ContainerSize,
		Amount:        s.Amount,
		ProcessedBy:   s.ProcessedBy,
		UserRole:      s.UserRole,
		DeviceID:      s.DeviceID,
	}
}

// SaleFromRemote converts a confirmed remote row into a local working copy.
//
// The result carries a fresh local id and the remote-origin flag so that a
// pull or notification fold is distinguishable from a locally recorded sale.
func SaleFromRemote(r RemoteSale) Sale {
	return Sale{
		LocalID:       time.Now().UnixNano(),
		RemoteID:      r.ID,
		SaleUID:       r.SaleUID,
		Customer:      r.CustomerName,
		Type:          r.CustomerType,
		Quantity:      r.Quantity,
		ContainerSize: r.ContainerSize,
		Amount:        r.Amount,
		Date:          r.CreatedAt,
		ProcessedBy:   r.ProcessedBy,
		UserRole:      r.UserRole,
		DeviceID:      r.DeviceID,
		Remote:        true,
	}
}

// Matches reports whether the remote row refers to this sale, either by the
// confirmed remote id or by the client idempotency key.
func (s *Sale) Matches(r RemoteSale) bool {
	if r.ID != 0 && s.RemoteID == r.ID {
		return true
	}
	return r.SaleUID != "" && s.SaleUID == r.SaleUID
}
