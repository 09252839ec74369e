package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound     = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden    = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict     = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation   = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal     = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss    = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Scheduling rule violations. Each rejection carries the rule that fired so
// operators can correct the candidate assignment instead of guessing.
var (
	ErrDayCancelled         = New("DAY_CANCELLED", http.StatusConflict, "doctor's day is cancelled for this week")
	ErrSlotCancelled        = New("SLOT_CANCELLED", http.StatusConflict, "slot is cancelled for this doctor")
	ErrUnavailable          = New("UNAVAILABLE", http.StatusConflict, "doctor is unavailable in this time window")
	ErrCohortConflict       = New("COHORT_CONFLICT", http.StatusConflict, "cohort already scheduled in this slot")
	ErrRoomConflict         = New("ROOM_CONFLICT", http.StatusConflict, "room already booked in this slot")
	ErrMissingRoom          = New("MISSING_ROOM", http.StatusBadRequest, "room code is required")
	ErrAllocationSum        = New("ALLOCATION_SUM_MISMATCH", http.StatusUnprocessableEntity, "allocated hours do not sum to course total")
	ErrUnassignedDoctor     = New("UNASSIGNED_DOCTOR", http.StatusUnprocessableEntity, "doctor is not assigned to this course")
	ErrInvalidDate          = New("INVALID_DATE", http.StatusBadRequest, "invalid date")
	ErrActiveWeekExists     = New("ACTIVE_WEEK_EXISTS", http.StatusConflict, "an active week already exists for this term")
	ErrConfirmationRequired = New("CONFIRMATION_REQUIRED", http.StatusPreconditionFailed, "destructive operation requires explicit confirmation")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Is reports whether err carries the same code as target.
func Is(err error, target *Error) bool {
	if err == nil || target == nil {
		return false
	}
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == target.Code
}
