package engine

import "errors"

// Sentinel errors for engine operations. Handlers translate these into
// HTTP responses; anything else is an internal failure.
var (
	ErrValidation        = errors.New("validation failed")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrRoundClosed       = errors.New("round closed")
	ErrNotFound          = errors.New("not found")
	ErrTooLate           = errors.New("too late to set result")
	ErrAlreadyResolved   = errors.New("result already set")
)
