package schema

import "fmt"

// SettingsID is the fixed identity of the singleton settings row.
const SettingsID = "store_settings"

// Local store keys for the settings scalars. Unlike the entity kinds,
// settings persist as individual values rather than one JSON array.
const (
	KeyStoreName    = "storeName"
	KeyBasePrice    = "basePrice"
	KeySukiDiscount = "sukiDiscount"
	KeyBulkDiscount = "bulkDiscount"
)

// Settings holds store configuration and pricing parameters.
//
// The local copy always exists (defaults below); the remote copy is
// authoritative whenever it is reachable.
type Settings struct {
	ID           string  `json:"id"`
	StoreName    string  `json:"storeName"`
	BasePrice    float64 `json:"basePrice"`
	SukiDiscount float64 `json:"sukiDiscount"`
	BulkDiscount float64 `json:"bulkDiscount"`
}

// RemoteSettings is the snake_case row shape of the remote settings table.
// The remote store upserts on id.
type RemoteSettings struct {
	ID           string  `json:"id"`
	StoreName    string  `json:"store_name"`
	BasePrice    float64 `json:"base_price"`
	SukiDiscount float64 `json:"suki_discount"`
	BulkDiscount float64 `json:"bulk_discount"`
}

// DefaultSettings returns the out-of-the-box store configuration:
// 15 pesos per gallon, 10% suki discount, 20% bulk discount.
func DefaultSettings() Settings {
	return Settings{
		ID:           SettingsID,
		StoreName:    "PureFlow POS",
		BasePrice:    15,
		SukiDiscount: 10,
		BulkDiscount: 20,
	}
}

// Validate checks the settings' local preconditions.
func (s *Settings) Validate() error {
	if s.StoreName == "" {
		return fmt.Errorf("%w: store name is required", ErrInvalid)
	}
	if s.BasePrice <= 0 {
		return fmt.Errorf("%w: base price must be positive", ErrInvalid)
	}
	if s.SukiDiscount < 0 || s.SukiDiscount > 100 {
		return fmt.Errorf("%w: suki discount must be a percentage", ErrInvalid)
	}
	if s.BulkDiscount < 0 || s.BulkDiscount > 100 {
		return fmt.Errorf("%w: bulk discount must be a percentage", ErrInvalid)
	}
	return nil
}

// ToRemote converts the settings to their remote row shape.
func (s *Settings) ToRemote() RemoteSettings {
	return RemoteSettings{
		ID:           s.ID,
		StoreName:    s.StoreName,
		BasePrice:    s.BasePrice,
		SukiDiscount: s.SukiDiscount,
		BulkDiscount: s.BulkDiscount,
	}
}

// SettingsFromRemote converts a remote row into the local form.
func SettingsFromRemote(r RemoteSettings) Settings {
	return Settings{
		ID:           r.ID,
		StoreName:    r.StoreName,
		BasePrice:    r.BasePrice,
		SukiDiscount: r.SukiDiscount,
		BulkDiscount: r.BulkDiscount,
	}
}

// PricePerGallon returns the per-gallon price for a customer tier.
func (s *Settings) PricePerGallon(tier string) float64 {
	switch tier {
	case TierSuki:
		return s.BasePrice * (1 - s.SukiDiscount/100)
	case TierBulk:
		return s.BasePrice * (1 - s.BulkDiscount/100)
	default:
		return s.BasePrice
	}
}

// SaleTotal computes the amount for a sale of quantity containers of
// containerSize gallons at the tier's per-gallon price.
func (s *Settings) SaleTotal(tier string, quantity, containerSize int) float64 {
	return s.PricePerGallon(tier) * float64(quantity) * float64(containerSize)
}
