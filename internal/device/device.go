// Package device manages the process-wide device identity.
//
// Every outbound write carries the device id so that other devices can tell
// remote-origin changes apart from their own echoes on the notification
// channel.
package device

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/amcabaraban/pureflow-tagum-pos/internal/store"
)

// storeKey is the local store key holding the persisted device id.
const storeKey = "deviceId"

// ID returns the device identity, generating and persisting one on first use.
//
// The id is stable across restarts; reinstalling (deleting the store file)
// produces a new identity, which is acceptable because the id only filters
// notification echoes.
func ID(ctx context.Context, s *store.Store) (string, error) {
	id, err := s.GetValue(ctx, storeKey)
	if err == nil && id != "" {
		return id, nil
	}
	if err != nil && !errors.Is(err, store.ErrNoValue) {
		return "", fmt.Errorf("failed to read device id: %w", err)
	}

	id = "device-" + uuid.NewString()
	if err := s.SetValue(ctx, storeKey, id); err != nil {
		return "", fmt.Errorf("failed to persist device id: %w", err)
	}
	return id, nil
}
