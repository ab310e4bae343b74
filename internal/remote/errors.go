package remote

import "errors"

// Gateway failure taxonomy.
//
// Unreachable covers no-network and remote timeouts; it is the retryable
// class, and the reconciler leaves queue entries in place when it sees it.
// Rejected is a remote validation or constraint failure. NotFound is an
// update or lookup against a missing identity.
var (
	ErrUnreachable = errors.New("remote unreachable")
	ErrRejected    = errors.New("remote rejected")
	ErrNotFound    = errors.New("remote not found")
)

// Unreachable reports whether err is in the Unreachable class.
func Unreachable(err error) bool {
	return errors.Is(err, ErrUnreachable)
}
