package model

import (
	"errors"
	"fmt"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Standard error codes for API responses
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeInsufficientStock = "INSUFFICIENT_STOCK"
	ErrCodeInvalidState      = "INVALID_STATE"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeUnauthorised      = "UNAUTHORIZED"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// DomainError is a business-rule failure returned to callers as a typed
// result. Infrastructure failures are wrapped separately and never carry
// a domain code.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a VALIDATION_ERROR with a formatted message.
func NewValidationError(format string, args ...any) *DomainError {
	return NewDomainError(ErrCodeValidation, fmt.Sprintf(format, args...))
}

// NewNotFound creates a NOT_FOUND with a formatted message.
func NewNotFound(format string, args ...any) *DomainError {
	return NewDomainError(ErrCodeNotFound, fmt.Sprintf(format, args...))
}

// NewInsufficientStock creates an INSUFFICIENT_STOCK error naming the
// product and the quantity still available.
func NewInsufficientStock(productName string, available int) *DomainError {
	return NewDomainError(ErrCodeInsufficientStock,
		fmt.Sprintf("insufficient stock for product %s, available: %d", productName, available))
}

// NewInvalidState creates an INVALID_STATE with a formatted message.
func NewInvalidState(format string, args ...any) *DomainError {
	return NewDomainError(ErrCodeInvalidState, fmt.Sprintf(format, args...))
}

// NewForbidden creates a FORBIDDEN with a formatted message.
func NewForbidden(format string, args ...any) *DomainError {
	return NewDomainError(ErrCodeForbidden, fmt.Sprintf(format, args...))
}

// AsDomainError unwraps err into a DomainError if one is present.
func AsDomainError(err error) (*DomainError, bool) {
	var derr *DomainError
	if errors.As(err, &derr) {
		return derr, true
	}
	return nil, false
}
