package tracker

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies a tracker failure for retry purposes.
type ErrorKind string

const (
	// KindTransient covers timeouts, rate limits, 5xx responses and
	// network-level failures. Transient errors are retried with backoff.
	KindTransient ErrorKind = "transient"

	// KindPermanent covers authorization failures, schema mismatches and
	// not-found on a known id. Permanent errors are never retried.
	KindPermanent ErrorKind = "permanent"
)

// Error is the typed failure every Tracker implementation returns.
// Classification happens at the adapter boundary, not in the applier.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error // wrapped cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s tracker error: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s tracker error: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Transient wraps err as a retriable tracker failure.
func Transient(msg string, err error) *Error {
	return &Error{Kind: KindTransient, Msg: msg, Err: err}
}

// Permanent wraps err as a non-retriable tracker failure.
func Permanent(msg string, err error) *Error {
	return &Error{Kind: KindPermanent, Msg: msg, Err: err}
}

// IsTransient reports whether err should be retried. Context timeouts
// count as transient: a per-operation deadline firing says nothing about
// the next attempt.
func IsTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te *Error
	return errors.As(err, &te) && te.Kind == KindTransient
}

// IsPermanent reports whether err is classified as non-retriable.
// Unclassified errors are treated as permanent: retrying an unknown
// failure risks duplicate mutations.
func IsPermanent(err error) bool {
	if err == nil || IsTransient(err) {
		return false
	}
	return true
}

// KindOf returns the classification label for reporting.
func KindOf(err error) ErrorKind {
	if IsTransient(err) {
		return KindTransient
	}
	return KindPermanent
}
