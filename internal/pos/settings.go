package pos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/amcabaraban/pureflow-tagum-pos/internal/remote"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/schema"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/store"
)

// LoadSettings returns the effective store settings.
//
// The remote row is authoritative when reachable, and a successful read
// refreshes the local copy so pricing stays correct across an outage. When
// the remote store is unreachable the local copy serves, and a device that
// has never synced falls back to the defaults.
func (s *Service) LoadSettings(ctx context.Context) (schema.Settings, error) {
	rows, err := s.gw.SelectAll(ctx, schema.KindSettings, remote.SelectOptions{Limit: 1})
	if err == nil && len(rows) > 0 {
		var r schema.RemoteSettings
		if err := json.Unmarshal(rows[0], &r); err == nil {
			settings := schema.SettingsFromRemote(r)
			if err := s.writeLocalSettings(ctx, settings); err != nil {
				s.logger.Printf("Failed to cache settings locally: %v", err)
			}
			return settings, nil
		}
	}
	return s.localSettings(ctx)
}

// SaveSettings persists new store settings. Admin only. Local first, then
// the usual remote upsert-or-queue path.
func (s *Service) SaveSettings(ctx context.Context, op Operator, settings schema.Settings) (bool, error) {
	if !op.Admin() {
		return false, fmt.Errorf("%w: only admins can change settings", ErrForbidden)
	}
	settings.ID = schema.SettingsID
	if err := settings.Validate(); err != nil {
		return false, err
	}

	if err := s.writeLocalSettings(ctx, settings); err != nil {
		return false, fmt.Errorf("failed to save settings: %w", err)
	}

	return s.pushOrEnqueue(ctx, schema.KindSettings, settings.ToRemote())
}

// localSettings assembles settings from the individual local scalars,
// falling back to defaults for any missing value.
func (s *Service) localSettings(ctx context.Context) (schema.Settings, error) {
	settings := schema.DefaultSettings()

	if v, err := s.store.GetValue(ctx, schema.KeyStoreName); err == nil {
		settings.StoreName = v
	} else if !errors.Is(err, store.ErrNoValue) {
		return schema.Settings{}, err
	}
	for _, entry := range []struct {
		key string
		dst *float64
	}{
		{schema.KeyBasePrice, &settings.BasePrice},
		{schema.KeySukiDiscount, &settings.SukiDiscount},
		{schema.KeyBulkDiscount, &settings.BulkDiscount},
	} {
		v, err := s.store.GetValue(ctx, entry.key)
		if errors.Is(err, store.ErrNoValue) {
			continue
		}
		if err != nil {
			return schema.Settings{}, err
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*entry.dst = f
		}
	}
	return settings, nil
}

func (s *Service) writeLocalSettings(ctx context.Context, settings schema.Settings) error {
	if err := s.store.SetValue(ctx, schema.KeyStoreName, settings.StoreName); err != nil {
		return err
	}
	for key, val := range map[string]float64{
		schema.KeyBasePrice:    settings.BasePrice,
		schema.KeySukiDiscount: settings.SukiDiscount,
		schema.KeyBulkDiscount: settings.BulkDiscount,
	} {
		if err := s.store.SetValue(ctx, key, strconv.FormatFloat(val, 'f', -1, 64)); err != nil {
			return err
		}
	}
	return nil
}
