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
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid credentials")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Booking, scheduling and status workflow errors.
var (
	ErrScheduleNotFound         = New("SCHEDULE_NOT_FOUND", http.StatusNotFound, "interview schedule not found")
	ErrCapacityFull             = New("CAPACITY_FULL", http.StatusBadRequest, "this interview day is fully booked")
	ErrAlreadyBooked            = New("ALREADY_BOOKED", http.StatusBadRequest, "student already has an interview booking")
	ErrInvalidCapacity          = New("INVALID_CAPACITY", http.StatusBadRequest, "capacity must be greater than zero")
	ErrCapacityBelowBookedCount = New("CAPACITY_BELOW_BOOKED_COUNT", http.StatusBadRequest, "capacity cannot be lower than the number of existing bookings")
	ErrInvalidTransition        = New("INVALID_TRANSITION", http.StatusBadRequest, "status can only be changed from New or Pending")
	ErrNoDefaultTemplate        = New("NO_DEFAULT_TEMPLATE", http.StatusBadRequest, "no default mailing content configured")
	ErrMissingEmail             = New("MISSING_EMAIL", http.StatusBadRequest, "student email address is missing")
	ErrTemplateNotFound         = New("TEMPLATE_NOT_FOUND", http.StatusBadRequest, "mailing content not found")
	ErrEmailDeliveryFailed      = New("EMAIL_DELIVERY_FAILED", http.StatusBadRequest, "failed to send email")
	ErrEditLocked               = New("EDIT_LOCKED", http.StatusBadRequest, "student data is locked for editing")
	ErrNotEligible              = New("NOT_ELIGIBLE", http.StatusForbidden, "student is not eligible")
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
