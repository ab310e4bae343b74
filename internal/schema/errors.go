package schema

import "errors"

// ErrInvalid marks a local precondition failure, such as a missing required
// field. These are the only failures surfaced to the operator as blocking
// errors; remote failures downgrade to queued writes instead.
var ErrInvalid = errors.New("invalid record")
