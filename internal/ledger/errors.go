package ledger

import "errors"

// Error taxonomy for drawer operations. Callers branch with errors.Is;
// handlers map each sentinel to an HTTP status. A close-time discrepancy is
// a recorded fact, not an error.
var (
	// ErrValidation rejects malformed input (non-positive amount, missing
	// reason, unknown category) before anything is persisted.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidState rejects operations against a session in the wrong
	// state: double-open, double-close, appending to a closed session.
	ErrInvalidState = errors.New("invalid session state")

	// ErrInsufficientBalance rejects a cash-out exceeding the replayed balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrPersistence wraps storage collaborator failures. It is never to be
	// interpreted as a business validation failure.
	ErrPersistence = errors.New("persistence failure")
)
