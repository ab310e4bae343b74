package remote

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/amcabaraban/pureflow-tagum-pos/internal/schema"
)

// Offline is a Gateway for terminals with no remote store configured.
// Every call reports the unreachable condition, so the rest of the system
// behaves exactly as it does during an outage: local writes succeed and
// everything else lands on the pending queue.
type Offline struct{}

var _ Gateway = Offline{}

func (Offline) Insert(ctx context.Context, kind schema.Kind, record json.RawMessage) (json.RawMessage, error) {
	return nil, fmt.Errorf("%w: no remote store configured", ErrUnreachable)
}

func (Offline) UpsertByKey(ctx context.Context, kind schema.Kind, record json.RawMessage, conflictKey string) error {
	return fmt.Errorf("%w: no remote store configured", ErrUnreachable)
}

func (Offline) UpdateByKey(ctx context.Context, kind schema.Kind, keyColumn, keyValue string, partial json.RawMessage) error {
	return fmt.Errorf("%w: no remote store configured", ErrUnreachable)
}

func (Offline) SelectAll(ctx context.Context, kind schema.Kind, opts SelectOptions) ([]json.RawMessage, error) {
	return nil, fmt.Errorf("%w: no remote store configured", ErrUnreachable)
}

func (Offline) Subscribe(ctx context.Context, kind schema.Kind, mask Event) (*Subscription, error) {
	return nil, fmt.Errorf("%w: no remote store configured", ErrUnreachable)
}

func (Offline) Ping(ctx context.Context) error {
	return fmt.Errorf("%w: no remote store configured", ErrUnreachable)
}
