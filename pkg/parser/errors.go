package parser

import "errors"

// Common errors returned by the parser package. They are wrapped in an
// *apperr.Error so callers can match either the sentinel or the kind.
var (
	// ErrMissingArgument is returned when a required argument token is absent.
	ErrMissingArgument = errors.New("missing argument")

	// ErrNotInteger is returned when the numeric portion is not an integer.
	ErrNotInteger = errors.New("not an integer")

	// ErrUnknownSuffix is returned when the amount ends with an unrecognized multiplier.
	ErrUnknownSuffix = errors.New("unknown multiplier suffix")

	// ErrOutOfRange is returned when a value falls outside the configured bounds.
	ErrOutOfRange = errors.New("value out of range")
)
