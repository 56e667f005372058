package request

import (
	"errors"
	"fmt"
	"net/url"

	apperrors "quantkit/internal/errors"
)

// ErrBodyTooLarge is the cause of a FetchError whose response body exceeded the client limit
var ErrBodyTooLarge = errors.New("response body exceeds limit")

// FetchError is the failure of one HTTP attempt: a transport error, a timeout,
// an unreadable body, or a non-2xx status.
type FetchError struct {
	URL        string
	Proxy      string
	StatusCode int
	Cause      error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	via := "direct"
	if e.Proxy != "" {
		via = "via " + e.Proxy
	}
	return fmt.Sprintf("[%s] %s (%s): %v", apperrors.ErrTypeFetch, e.URL, via, e.Cause)
}

// Unwrap returns the underlying cause
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// Is matches the FETCH sentinel of the errors package
func (e *FetchError) Is(target error) bool {
	t, ok := target.(*apperrors.AppError)
	return ok && t.Type == apperrors.ErrTypeFetch
}

// StatusError reports a non-2xx response status
type StatusError struct {
	Code   int
	Status string
}

// Error implements the error interface
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %s", e.Status)
}

// redact renders a proxy URL without its password
func redact(proxy *url.URL) string {
	if proxy == nil {
		return ""
	}
	return proxy.Redacted()
}
