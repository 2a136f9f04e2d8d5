package errorutil

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Error codes surfaced to API clients.
const (
	CodeInvalidInput           = "INVALID_INPUT"
	CodePastDateTime           = "PAST_DATE_TIME"
	CodeDuplicateActiveBooking = "DUPLICATE_ACTIVE_CUSTOMER_BOOKING"
	CodeSlotConflict           = "SLOT_CONFLICT"
	CodeStaffNotWorking        = "STAFF_NOT_WORKING"
	CodeOutsideWorkingHours    = "OUTSIDE_WORKING_HOURS"
	CodeDuringBreak            = "DURING_BREAK"
	CodeCodeSpaceExhausted     = "CODE_SPACE_EXHAUSTED"
	CodeNotFound               = "NOT_FOUND"
	CodeInvalidTransition      = "INVALID_TRANSITION"
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeForbidden              = "FORBIDDEN"
	CodeConflict               = "CONFLICT"
	CodeRateLimited            = "RATE_LIMITED"
	CodeInternal               = "INTERNAL_ERROR"
	CodeDependencyUnavailable  = "DEPENDENCY_UNAVAILABLE"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// NewInvalidInput reports a missing or malformed field.
func NewInvalidInput(field, message string) error {
	var details map[string]any
	if field != "" {
		details = map[string]any{"field": field}
	}
	return NewDomainError(CodeInvalidInput, message, http.StatusBadRequest, details)
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeInvalidInput, message, http.StatusBadRequest, details)
}

func NewPastDateTime(requested string) error {
	return NewDomainError(CodePastDateTime, "appointment time must be in the future", http.StatusUnprocessableEntity,
		map[string]any{"requested": requested})
}

func NewDuplicateActiveBooking(existingID string) error {
	return NewDomainError(CodeDuplicateActiveBooking, "customer already has an active appointment", http.StatusConflict,
		map[string]any{"appointment_id": existingID})
}

func NewSlotConflict(existingID string) error {
	details := map[string]any{}
	if existingID != "" {
		details["appointment_id"] = existingID
	}
	return NewDomainError(CodeSlotConflict, "time slot is already booked", http.StatusConflict, details)
}

func NewStaffNotWorking(staffID, weekday string) error {
	return NewDomainError(CodeStaffNotWorking, "staff member does not work on this day", http.StatusUnprocessableEntity,
		map[string]any{"staff_id": staffID, "weekday": weekday})
}

func NewOutsideWorkingHours(requested, start, end string) error {
	return NewDomainError(CodeOutsideWorkingHours, "time is outside working hours", http.StatusUnprocessableEntity,
		map[string]any{"time": requested, "start_time": start, "end_time": end})
}

func NewDuringBreak(requested, start, end string) error {
	return NewDomainError(CodeDuringBreak, "time falls within the break", http.StatusUnprocessableEntity,
		map[string]any{"time": requested, "break_start": start, "break_end": end})
}

func NewCodeSpaceExhausted(attempts int) error {
	return NewDomainError(CodeCodeSpaceExhausted, "could not allocate a booking code", http.StatusServiceUnavailable,
		map[string]any{"attempts": attempts})
}

func NewInvalidTransition(from, to string) error {
	return NewDomainError(CodeInvalidTransition, "status transition not allowed", http.StatusConflict,
		map[string]any{"from": from, "to": to})
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewRateLimited() error {
	return NewDomainError(CodeRateLimited, "rate limit exceeded", http.StatusTooManyRequests, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err carries a DomainError with the given code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	if de, ok := NewInternalError(err).(*DomainError); ok {
		return de
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
