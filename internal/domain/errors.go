package domain

import (
	"errors"
	"fmt"
)

// Authentication errors.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUnauthenticated    = errors.New("authentication required")
)

// Validation errors. All of them wrap ErrValidation so callers can classify
// with errors.Is(err, ErrValidation).
var (
	ErrValidation            = errors.New("validation failed")
	ErrMissingReason         = fmt.Errorf("%w: cancellation reason is required", ErrValidation)
	ErrInvalidScore          = fmt.Errorf("%w: scores must be between 1.0 and 5.0 in steps of 0.5", ErrValidation)
	ErrInvalidStatus         = fmt.Errorf("%w: unknown status", ErrValidation)
	ErrCannotReduceVacancies = fmt.Errorf("%w: vacancies cannot be lower than filled positions", ErrValidation)
)

// Capacity errors.
var (
	ErrCapacity = errors.New("function has no vacancies left")
)

// Backend errors.
var (
	// ErrBackendUnavailable marks network or service failures of the
	// persistence backend. Writes that hit it may fall back to the local cache.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrSyncPending refuses ledger-moving changes on an entity whose offline
	// writes have not been replayed yet.
	ErrSyncPending = fmt.Errorf("%w: entity has changes waiting for synchronization", ErrBackendUnavailable)
)

// Workflow errors.
var (
	ErrForbidden         = errors.New("operation not permitted for this user")
	ErrDuplicateActive   = errors.New("user already has an active application for this event")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrEventClosed       = errors.New("event is not accepting applications")
	ErrEventNotDone      = errors.New("event must be DONE before evaluating staff")
	ErrNotStaffed        = errors.New("user was not approved for this event")
	ErrEvaluationExists  = errors.New("user was already evaluated for this event")
	ErrFunctionMismatch  = fmt.Errorf("%w: function does not belong to event", ErrValidation)
	ErrStaleStatus       = fmt.Errorf("%w: application status changed concurrently", ErrInvalidTransition)
	ErrUserHasHistory    = errors.New("user has applications or evaluations and cannot be deleted")
)

// Not found errors.
var (
	ErrNotFound             = errors.New("not found")
	ErrEventNotFound        = fmt.Errorf("event %w", ErrNotFound)
	ErrFunctionNotFound     = fmt.Errorf("function %w", ErrNotFound)
	ErrApplicationNotFound  = fmt.Errorf("application %w", ErrNotFound)
	ErrUserNotFound         = fmt.Errorf("user %w", ErrNotFound)
	ErrNotificationNotFound = fmt.Errorf("notification %w", ErrNotFound)
)

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsUnavailable reports whether err signals an unreachable backend.
func IsUnavailable(err error) bool { return errors.Is(err, ErrBackendUnavailable) }

// IsNotFound reports whether err is any of the not found errors.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
