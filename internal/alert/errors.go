package alert

import "errors"

var (
	// ErrInvalidState signals an illegal lifecycle transition. It is a
	// programmer error and surfaced synchronously to the caller.
	ErrInvalidState = errors.New("alert: invalid state transition")

	// ErrConcurrentModification signals a lost optimistic-commit race. It is
	// recoverable: the alert is simply re-evaluated on the next scan cycle.
	ErrConcurrentModification = errors.New("alert: concurrent modification")
)
