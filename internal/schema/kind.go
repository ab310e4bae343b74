package schema

import "fmt"

// Kind identifies one of the four record categories synchronized between
// the local and remote stores.
type Kind int

const (
	// KindSales are point-of-sale transactions.
	KindSales Kind = iota

	// KindCustomers are customer profiles keyed by name.
	KindCustomers

	// KindOrders are client delivery orders.
	KindOrders

	// KindSettings is the singleton store configuration row.
	KindSettings
)

// Kinds lists every entity kind in a stable order.
//
// Snapshot pulls and realtime subscriptions iterate this slice so that all
// kinds are covered without string switches scattered through the sync code.
var Kinds = []Kind{KindSales, KindCustomers, KindOrders, KindSettings}

// String returns the kind's short name, matching the remote table name.
func (k Kind) String() string {
	return k.Table()
}

// Table returns the remote table name for the kind.
func (k Kind) Table() string {
	switch k {
	case KindSales:
		return "sales"
	case KindCustomers:
		return "customers"
	case KindOrders:
		return "client_orders"
	case KindSettings:
		return "settings"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// StoreKey returns the local store key under which the kind's working copy
// is persisted as a JSON array.
func (k Kind) StoreKey() string {
	switch k {
	case KindSales:
		return "sales"
	case KindCustomers:
		return "customers"
	case KindOrders:
		return "clientOrders"
	case KindSettings:
		return "settings"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ConflictKey returns the remote column used for upsert conflict resolution.
//
// Sales upsert on the client-generated sale_uid so that a retried drain
// after a lost acknowledgment cannot produce a duplicate remote row.
func (k Kind) ConflictKey() string {
	switch k {
	case KindSales:
		return "sale_uid"
	case KindCustomers:
		return "name"
	case KindOrders:
		return "id"
	case KindSettings:
		return "id"
	default:
		return ""
	}
}

// KindFromTable resolves a remote table name back to its Kind.
func KindFromTable(table string) (Kind, error) {
	for _, k := range Kinds {
		if k.Table() == table {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown entity table %q", table)
}
