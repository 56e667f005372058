package fetch

import (
	"errors"
	"fmt"

	apperrors "quantkit/internal/errors"
)

var (
	// ErrNoProcessor is returned by the async calls when no ProcessFunc was configured
	ErrNoProcessor = errors.New("fetch: process not implemented")
	// ErrFetcherUsed is returned when a Fetcher is called a second time
	ErrFetcherUsed = errors.New("fetch: fetcher already used")
	// ErrDuplicateURL is returned by RunBatch when two tasks target the same URL
	ErrDuplicateURL = errors.New("fetch: duplicate url in batch")
)

// ExhaustedError reports that every attempt for one URL failed
type ExhaustedError struct {
	URL      string
	Attempts int
	// Errors holds the failure of each attempt, in attempt order
	Errors []error
	// Canceled is the context error when the loop stopped early
	Canceled error
}

// Error implements the error interface
func (e *ExhaustedError) Error() string {
	msg := fmt.Sprintf("[%s] %s: %d attempt(s) failed", apperrors.ErrTypeExhausted, e.URL, e.Attempts)
	if e.Canceled != nil {
		msg += fmt.Sprintf(" (%v)", e.Canceled)
	}
	if n := len(e.Errors); n > 0 {
		msg += fmt.Sprintf(", last: %v", e.Errors[n-1])
	}
	return msg
}

// Unwrap exposes the per-attempt errors and the cancellation cause
func (e *ExhaustedError) Unwrap() []error {
	errs := append([]error(nil), e.Errors...)
	if e.Canceled != nil {
		errs = append(errs, e.Canceled)
	}
	return errs
}

// Is matches the EXHAUSTED sentinel of the errors package
func (e *ExhaustedError) Is(target error) bool {
	t, ok := target.(*apperrors.AppError)
	return ok && t.Type == apperrors.ErrTypeExhausted
}

// ProcessError wraps a failure of the ProcessFunc on an otherwise successful response
type ProcessError struct {
	URL   string
	Cause error
}

// Error implements the error interface
func (e *ProcessError) Error() string {
	return fmt.Sprintf("process %s: %v", e.URL, e.Cause)
}

// Unwrap returns the underlying cause
func (e *ProcessError) Unwrap() error {
	return e.Cause
}
