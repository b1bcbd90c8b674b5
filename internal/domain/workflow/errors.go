package workflow

import (
	"errors"
	"fmt"
)

// The five error classes every engine operation reports through. Business
// failures are returned values, never panics; callers branch on the class to
// decide between retry and user-facing display.
var (
	// ErrValidation marks caller-fixable input problems; never retried
	ErrValidation = errors.New("validation error")

	// ErrAuthorization marks a wrong actor or role for the requested transition
	ErrAuthorization = errors.New("authorization error")

	// ErrNotFound marks a missing document, approval line, or approver
	ErrNotFound = errors.New("not found")

	// ErrConflict marks an optimistic version mismatch; safe to retry after reload
	ErrConflict = errors.New("conflict")

	// ErrConfiguration marks an ambiguous or malformed approval setup; must
	// surface to an operator, never retried
	ErrConfiguration = errors.New("configuration error")
)

// Named conditions layered on the classes above
var (
	// ErrInvalidTransition is returned when the requested operation is not
	// legal in the document's current state
	ErrInvalidTransition = fmt.Errorf("%w: invalid state transition", ErrValidation)

	// ErrAlreadySigned signals an idempotent re-sign of an active slot; the
	// caller should unsign first if a re-sign is intended
	ErrAlreadySigned = fmt.Errorf("%w: slot already signed", ErrValidation)

	// ErrNoEligibleApprover is returned when a step's role resolves to no one
	ErrNoEligibleApprover = fmt.Errorf("%w: no eligible approver", ErrNotFound)
)

// Validationf wraps a formatted message as a validation error
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Authorizationf wraps a formatted message as an authorization error
func Authorizationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrAuthorization, fmt.Sprintf(format, args...))
}

// NotFoundf wraps a formatted message as a not-found error
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Conflictf wraps a formatted message as a conflict error
func Conflictf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// Configurationf wraps a formatted message as a configuration error
func Configurationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// IsValidation reports whether err belongs to the validation class
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsAuthorization reports whether err belongs to the authorization class
func IsAuthorization(err error) bool { return errors.Is(err, ErrAuthorization) }

// IsNotFound reports whether err belongs to the not-found class
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConflict reports whether err belongs to the conflict class
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsConfiguration reports whether err belongs to the configuration class
func IsConfiguration(err error) bool { return errors.Is(err, ErrConfiguration) }
