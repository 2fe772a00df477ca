package shared

import "errors"

// DomainError is a rule violation with a stable machine code. The HTTP
// layer maps codes to statuses.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DomainError) Error() string { return e.Message }

// Is matches on Code alone, so NewDomainError(ErrNotFound.Code, "trade X
// not found") satisfies errors.Is(err, ErrNotFound).
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	return errors.As(target, &t) && t.Code == e.Code
}

func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrForbidden           = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")

	// workflow gates
	ErrNotEligible     = NewDomainError("NOT_ELIGIBLE", "Trade is not eligible for this stage")
	ErrLockNotAcquired = NewDomainError("LOCK_NOT_ACQUIRED", "Another operation is in progress for this trade")
)
