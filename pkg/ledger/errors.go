package ledger

import "errors"

// Common errors returned by the ledger package.
var (
	// ErrUnknownDriver is returned when Config.Driver names no backend.
	ErrUnknownDriver = errors.New("unknown ledger driver")

	// ErrMissingDBPath is returned when the bolt driver has no file path.
	ErrMissingDBPath = errors.New("bolt driver requires a database path")

	// ErrMissingDatabaseURL is returned when the postgres driver has no URL.
	ErrMissingDatabaseURL = errors.New("postgres driver requires a database URL")

	// ErrInvalidAmount is returned when a record amount is below 1.
	ErrInvalidAmount = errors.New("amount must be at least 1")

	// ErrDuplicateAggregate is returned when an aggregate query yields more
	// than one row for a single key.
	ErrDuplicateAggregate = errors.New("aggregate query returned more than one row")
)
