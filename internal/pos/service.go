// Package pos is the application service layer for the point of sale.
//
// Every operation follows the same shape: validate, write the local store
// first, then attempt the remote write. A failed remote write never fails
// the operation — the record lands on the pending queue and the caller gets
// an informational notice instead of an error. Only local validation and
// local store failures block.
package pos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/amcabaraban/pureflow-tagum-pos/internal/events"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/queue"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/remote"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/schema"
	"github.com/amcabaraban/pureflow-tagum-pos/internal/store"
)

// Operator roles. Admins manage settings and can cancel orders; staff
// record sales and move orders through the delivery flow.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// ErrForbidden means the operator's role does not allow the operation.
var ErrForbidden = errors.New("operation not allowed for role")

// Operator identifies who is driving the terminal.
type Operator struct {
	Username string
	Role     string
}

// Admin reports whether the operator has the admin role.
func (o Operator) Admin() bool {
	return o.Role == RoleAdmin
}

// Service exposes the store's business operations over the sync core.
type Service struct {
	store    *store.Store
	queue    *queue.Queue
	gw       remote.Gateway
	bus      *events.Bus
	deviceID string
	logger   *log.Logger
}

// New creates a Service. bus may be nil when no observers are attached.
func New(st *store.Store, q *queue.Queue, gw remote.Gateway, bus *events.Bus, deviceID string, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(log.Writer(), "[pos] ", log.LstdFlags)
	}
	return &Service{
		store:    st,
		queue:    q,
		gw:       gw,
		bus:      bus,
		deviceID: deviceID,
		logger:   logger,
	}
}

// DeviceID returns the device identity stamped on outbound records.
func (s *Service) DeviceID() string {
	return s.deviceID
}

// pushOrEnqueue attempts the remote upsert for a freshly written record and
// falls back to the pending queue when the remote store is unreachable or
// rejects the row. Returns true when the row reached the remote store.
func (s *Service) pushOrEnqueue(ctx context.Context, kind schema.Kind, remoteRow any) (bool, error) {
	payload, err := json.Marshal(remoteRow)
	if err != nil {
		return false, fmt.Errorf("failed to encode %s record: %w", kind, err)
	}

	if err := s.gw.UpsertByKey(ctx, kind, payload, kind.ConflictKey()); err != nil {
		s.logger.Printf("Remote write failed for %s, queued for sync: %v", kind, err)
		if qerr := s.queue.Enqueue(ctx, kind, remoteRow); qerr != nil {
			return false, fmt.Errorf("failed to queue %s record: %w", kind, qerr)
		}
		return false, nil
	}
	return true, nil
}
