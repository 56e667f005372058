package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeEmptyTable        ErrorType = "EMPTY_TABLE"
	ErrTypeUnsupportedShape  ErrorType = "UNSUPPORTED_SHAPE"
	ErrTypeIndex             ErrorType = "INDEX"
	ErrTypeAmbiguousSelector ErrorType = "AMBIGUOUS_SELECTOR"
	ErrTypeFetch             ErrorType = "FETCH"
	ErrTypeExhausted         ErrorType = "EXHAUSTED"
	ErrTypeValidation        ErrorType = "VALIDATION"
	ErrTypeConfig            ErrorType = "CONFIG"
)

// Sentinels for errors.Is. Any *AppError of the same type matches its sentinel,
// as do the package-specific error types that report one of these types.
var (
	ErrEmptyTable        = &AppError{Type: ErrTypeEmptyTable, Message: "table is empty"}
	ErrUnsupportedShape  = &AppError{Type: ErrTypeUnsupportedShape, Message: "unsupported table shape"}
	ErrIndex             = &AppError{Type: ErrTypeIndex, Message: "index error"}
	ErrAmbiguousSelector = &AppError{Type: ErrTypeAmbiguousSelector, Message: "ambiguous selector"}
	ErrFetch             = &AppError{Type: ErrTypeFetch, Message: "fetch failed"}
	ErrExhausted         = &AppError{Type: ErrTypeExhausted, Message: "all attempts exhausted"}
	ErrValidation        = &AppError{Type: ErrTypeValidation, Message: "validation failed"}
	ErrConfig            = &AppError{Type: ErrTypeConfig, Message: "invalid configuration"}
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an AppError of the same type.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewEmptyTableError creates an error for a table without rows
func NewEmptyTableError(message string) *AppError {
	return NewAppError(ErrTypeEmptyTable, message, nil)
}

// NewUnsupportedShapeError creates an error for a table whose index layout is not recognized
func NewUnsupportedShapeError(message string) *AppError {
	return NewAppError(ErrTypeUnsupportedShape, message, nil)
}

// NewIndexError creates an access error for a missing or unmatched key
func NewIndexError(message string) *AppError {
	return NewAppError(ErrTypeIndex, message, nil)
}

// NewAmbiguousSelectorError creates an access error for a key combination that selects nothing definite
func NewAmbiguousSelectorError(message string) *AppError {
	return NewAppError(ErrTypeAmbiguousSelector, message, nil)
}

// NewValidationError creates a validation error
func NewValidationError(message string, cause error) *AppError {
	return NewAppError(ErrTypeValidation, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// TypeOf returns the ErrorType carried by err, or "" when err does not carry one.
func TypeOf(err error) ErrorType {
	for _, sentinel := range []*AppError{
		ErrEmptyTable, ErrUnsupportedShape, ErrIndex, ErrAmbiguousSelector,
		ErrFetch, ErrExhausted, ErrValidation, ErrConfig,
	} {
		if stderrors.Is(err, sentinel) {
			return sentinel.Type
		}
	}
	return ""
}
