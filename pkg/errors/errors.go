package errors

import (
	"errors"
	"fmt"
)

// Error kinds. Every domain error wraps exactly one of these so callers can
// branch with errors.Is without knowing the specific failure.
var (
	ErrValidation            = errors.New("validation failed")
	ErrInvalidState          = errors.New("invalid state transition")
	ErrNotFound              = errors.New("not found")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrMalformedResponse     = errors.New("malformed response")
	ErrPersistence           = errors.New("persistence failure")
)

// Domain errors
var (
	ErrBookUnavailable     = fmt.Errorf("%w: book is not available", ErrValidation)
	ErrUnknownEventType    = fmt.Errorf("%w: unknown event type", ErrValidation)
	ErrInvalidLoanStatus   = fmt.Errorf("%w: loan status does not allow this operation", ErrInvalidState)
	ErrPenaltyAlreadyPaid  = fmt.Errorf("%w: penalty is already paid", ErrInvalidState)
	ErrLoanNotFound        = fmt.Errorf("loan %w", ErrNotFound)
	ErrBookNotFound        = fmt.Errorf("book %w", ErrNotFound)
	ErrPenaltyNotFound     = fmt.Errorf("penalty %w", ErrNotFound)
	ErrNotificationMissing = fmt.Errorf("notification %w", ErrNotFound)
	ErrSanctionNotFound    = fmt.Errorf("%w: sanction not defined", ErrDependencyUnavailable)
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeValidation            = "VALIDATION_ERROR"
	ErrCodeBookUnavailable       = "BOOK_UNAVAILABLE"
	ErrCodeBookNotFound          = "BOOK_NOT_FOUND"
	ErrCodeLoanNotFound          = "LOAN_NOT_FOUND"
	ErrCodeInvalidState          = "INVALID_STATE"
	ErrCodePenaltyNotFound       = "PENALTY_NOT_FOUND"
	ErrCodePenaltyAlreadyPaid    = "PENALTY_ALREADY_PAID"
	ErrCodeNotificationNotFound  = "NOTIFICATION_NOT_FOUND"
	ErrCodeSanctionNotFound      = "SANCTION_NOT_FOUND"
	ErrCodeUnknownEventType      = "UNKNOWN_EVENT_TYPE"
	ErrCodeDependencyUnavailable = "DEPENDENCY_UNAVAILABLE"
	ErrCodeMalformedResponse     = "MALFORMED_RESPONSE"
	ErrCodeDatabaseError         = "DATABASE_ERROR"
	ErrCodeCacheError            = "CACHE_ERROR"
)

// Code returns the business code carried by err, or "" when err is not a BusinessError.
func Code(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

func WrapValidation(message string) *BusinessError {
	return NewBusinessError(ErrCodeValidation, message, ErrValidation)
}

func WrapBookUnavailable(bookID string) *BusinessError {
	return NewBusinessError(
		ErrCodeBookUnavailable,
		fmt.Sprintf("Book with ID %s is not available", bookID),
		ErrBookUnavailable,
	)
}

func WrapBookNotFound(bookID string) *BusinessError {
	return NewBusinessError(
		ErrCodeBookNotFound,
		fmt.Sprintf("Book with ID %s not found", bookID),
		ErrBookNotFound,
	)
}

func WrapLoanNotFound(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotFound,
		fmt.Sprintf("Loan with ID %s not found", loanID),
		ErrLoanNotFound,
	)
}

func WrapInvalidState(loanID, current, operation string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidState,
		fmt.Sprintf("Loan with ID %s cannot %s from status %s", loanID, operation, current),
		ErrInvalidLoanStatus,
	)
}

func WrapPenaltyNotFound(penaltyID string) *BusinessError {
	return NewBusinessError(
		ErrCodePenaltyNotFound,
		fmt.Sprintf("Penalty with ID %s not found", penaltyID),
		ErrPenaltyNotFound,
	)
}

func WrapPenaltyAlreadyPaid(penaltyID string) *BusinessError {
	return NewBusinessError(
		ErrCodePenaltyAlreadyPaid,
		fmt.Sprintf("Penalty with ID %s is already paid", penaltyID),
		ErrPenaltyAlreadyPaid,
	)
}

func WrapNotificationNotFound(notificationID string) *BusinessError {
	return NewBusinessError(
		ErrCodeNotificationNotFound,
		fmt.Sprintf("Notification with ID %s not found", notificationID),
		ErrNotificationMissing,
	)
}

func WrapSanctionNotFound(name string) *BusinessError {
	return NewBusinessError(
		ErrCodeSanctionNotFound,
		fmt.Sprintf("Sanction %q is not defined or not active", name),
		ErrSanctionNotFound,
	)
}

func WrapUnknownEventType(eventType string) *BusinessError {
	return NewBusinessError(
		ErrCodeUnknownEventType,
		fmt.Sprintf("Event type %q is not supported", eventType),
		ErrUnknownEventType,
	)
}

func WrapDependencyUnavailable(dependency string, err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDependencyUnavailable,
		fmt.Sprintf("%s is unavailable", dependency),
		fmt.Errorf("%w: %w", ErrDependencyUnavailable, err),
	)
}

func WrapMalformedResponse(dependency, detail string) *BusinessError {
	return NewBusinessError(
		ErrCodeMalformedResponse,
		fmt.Sprintf("%s returned an unexpected payload: %s", dependency, detail),
		fmt.Errorf("%w: %w", ErrDependencyUnavailable, ErrMalformedResponse),
	)
}

// WrapDatabaseError tags err as a persistence failure. Errors that already
// carry a business code pass through unchanged.
func WrapDatabaseError(err error) *BusinessError {
	var be *BusinessError
	if errors.As(err, &be) {
		return be
	}
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		fmt.Errorf("%w: %w", ErrPersistence, err),
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		err,
	)
}
