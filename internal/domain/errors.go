package domain

import "errors"

// Error kinds surfaced by the booking core and the stores. Callers wrap them with
// detail via fmt.Errorf("%w: ...") and match with errors.Is.
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidRange        = errors.New("invalid date range")
	ErrRoomUnavailable     = errors.New("room unavailable")
	ErrInvalidTransition   = errors.New("invalid transition")
	ErrMissingField        = errors.New("missing field")
	ErrPersistenceConflict = errors.New("persistence conflict")
	ErrAmountMismatch      = errors.New("payment amount mismatch")
	ErrPaymentDeclined     = errors.New("payment declined")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrAccessDenied        = errors.New("access denied")
)
