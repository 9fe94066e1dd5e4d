package domain

import "errors"

// Sentinel errors shared across repositories and services.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")

	// ErrCapacityExceeded is returned only by the authoritative, lock-protected
	// capacity check inside the participation write transaction. It signals
	// that the advisory pipeline check was stale.
	ErrCapacityExceeded = errors.New("event capacity exceeded")

	// ErrTierNotOnSale is returned when a ticket purchase targets a tier whose
	// sales window is not currently open.
	ErrTierNotOnSale = errors.New("ticket tier not on sale")
)
