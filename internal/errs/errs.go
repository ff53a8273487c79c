// Package errs holds the sentinel errors shared by the services. Handlers map
// them to HTTP statuses in utils.WriteError; everything else is a 500.
package errs

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidFile          = errors.New("invalid file")
	ErrInsufficientCapacity = errors.New("not enough tickets available")
	ErrAlreadyProcessed     = errors.New("order already processed")
	ErrDuplicateTickets     = errors.New("tickets already generated for this order")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrForbidden            = errors.New("forbidden")
	ErrConflict             = errors.New("conflict")
	ErrTooManyRequests      = errors.New("too many requests")

	// ErrReferenceExhausted means no unused order reference was found within
	// the retry budget.
	ErrReferenceExhausted = errors.New("could not allocate a unique order reference")

	// ErrReferenceTaken and ErrTicketNumberTaken report a unique index hit on
	// a generated identifier; callers draw a new one and retry.
	ErrReferenceTaken    = errors.New("order reference already in use")
	ErrTicketNumberTaken = errors.New("ticket number already in use")
)
