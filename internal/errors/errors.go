// Package errors provides the domain sentinels shared by every module. Use
// cases return errors built from these sentinels and handlers map them to HTTP
// status codes.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// ErrUnavailable indicates a backing dependency (database, cache) could not answer.
	// Callers may retry; it never means the resource is absent.
	ErrUnavailable = errors.New("unavailable")
)

// Wrap prefixes err with message while preserving the error chain. A nil err
// stays nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Join wraps err with a domain sentinel so both stay visible to errors.Is.
// Used to classify a driver failure (err) as, for example, ErrUnavailable.
func Join(sentinel, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// IsTimeout reports whether err comes from an expired deadline, either the
// caller's context or a network timeout raised by a driver.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
