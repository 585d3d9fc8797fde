// Package apperr defines the error taxonomy shared by the ysdb packages.
//
// Every failure that crosses a package boundary is an *Error tagged with a
// Kind. Callers branch on the kind instead of on concrete error values:
//
//	amount, err := parser.Amount(text)
//	if err != nil {
//	    if apperr.IsUserFacing(err) {
//	        return "⚠️ " + apperr.Message(err)
//	    }
//	    log.Error("push failed", "error", err)
//	}
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error.
type Kind int

const (
	// KindUnknown is reported for errors that carry no classification.
	KindUnknown Kind = iota

	// KindFormat marks a malformed numeric or command argument.
	KindFormat

	// KindRange marks a well-formed value outside the allowed bounds.
	KindRange

	// KindRateLimited marks a command dropped by a rate limiter.
	KindRateLimited

	// KindDomainRule marks a business rule violation such as the fatigue guard.
	KindDomainRule

	// KindCorruptedState marks a violated aggregate invariant in storage.
	KindCorruptedState

	// KindTransientStorage marks a connection or timeout failure in storage.
	KindTransientStorage
)

// String returns the kind name used in logs and metric labels.
func (k Kind) String() string {
	switch k {
	case KindFormat:
		return "format"
	case KindRange:
		return "range"
	case KindRateLimited:
		return "rate_limited"
	case KindDomainRule:
		return "domain_rule"
	case KindCorruptedState:
		return "corrupted_state"
	case KindTransientStorage:
		return "transient_storage"
	default:
		return "unknown"
	}
}

// Error is a classified failure.
type Error struct {
	Kind Kind   // Classification
	Op   string // Operation that failed, e.g. "ledger.SumWindow"
	Msg  string // Human readable message, shown to users for user-facing kinds
	Err  error  // Underlying error, may be nil
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.describe(), e.Err)
	case e.Op != "":
		return e.Op + ": " + e.describe()
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.describe(), e.Err)
	default:
		return e.describe()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) describe() string {
	if e.Msg != "" {
		return e.Msg
	}
	return e.Kind.String()
}

// Format returns a KindFormat error.
func Format(op, msg string) error {
	return &Error{Kind: KindFormat, Op: op, Msg: msg}
}

// Range returns a KindRange error.
func Range(op, msg string) error {
	return &Error{Kind: KindRange, Op: op, Msg: msg}
}

// DomainRule returns a KindDomainRule error.
func DomainRule(op, msg string) error {
	return &Error{Kind: KindDomainRule, Op: op, Msg: msg}
}

// RateLimited returns a KindRateLimited error.
func RateLimited(op string) error {
	return &Error{Kind: KindRateLimited, Op: op}
}

// Corrupted returns a KindCorruptedState error.
func Corrupted(op, msg string) error {
	return &Error{Kind: KindCorruptedState, Op: op, Msg: msg}
}

// Storage wraps err as a KindTransientStorage error. A nil err yields nil,
// and an err that is already classified is returned unchanged.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindTransientStorage, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsUserFacing reports whether err should be explained to the user rather
// than reported as an internal failure.
func IsUserFacing(err error) bool {
	switch KindOf(err) {
	case KindFormat, KindRange, KindDomainRule:
		return true
	default:
		return false
	}
}

// Message returns the user-visible message carried by err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
