package request

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	apperrors "quantkit/internal/errors"
)

// Request is an outbound request description shared by every attempt made for
// it. It is never modified once built.
type Request struct {
	URL         string
	Header      http.Header
	Query       url.Values
	Body        []byte
	ContentType string
}

// Option configures a Request at build time
type Option func(*Request) error

// WithQuery merges query parameters into the request URL
func WithQuery(values url.Values) Option {
	return func(r *Request) error {
		for k, vs := range values {
			for _, v := range vs {
				r.Query.Add(k, v)
			}
		}
		return nil
	}
}

// WithForm sets a form-encoded body
func WithForm(values url.Values) Option {
	return WithBody("application/x-www-form-urlencoded", []byte(values.Encode()))
}

// WithJSON sets a JSON body encoded from v
func WithJSON(v any) Option {
	return func(r *Request) error {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode json body: %w", err)
		}
		r.Body = b
		r.ContentType = "application/json"
		return nil
	}
}

// WithBody sets a raw body and its content type
func WithBody(contentType string, body []byte) Option {
	return func(r *Request) error {
		r.Body = append([]byte(nil), body...)
		r.ContentType = contentType
		return nil
	}
}

// WithHeader sets a single header
func WithHeader(key, value string) Option {
	return func(r *Request) error {
		r.Header.Set(key, value)
		return nil
	}
}

// Build validates rawURL and assembles a request. The caller's headers are
// copied, then a random browser User-Agent is set and the Accept,
// Connection and Accept-Language defaults are filled where missing. Options
// are applied last.
func Build(rawURL string, headers map[string]string, opts ...Option) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid url %q", rawURL), err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, apperrors.NewValidationError(fmt.Sprintf("url %q must be absolute http or https", rawURL), nil)
	}
	if u.Host == "" {
		return nil, apperrors.NewValidationError(fmt.Sprintf("url %q has no host", rawURL), nil)
	}

	r := &Request{
		URL:    rawURL,
		Header: make(http.Header, len(headers)+4),
		Query:  url.Values{},
	}
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	spoofHeaders(r.Header)

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, apperrors.NewValidationError("invalid request option", err)
		}
	}
	return r, nil
}

// Target returns the request URL with the query parameters applied
func (r *Request) Target() string {
	if len(r.Query) == 0 {
		return r.URL
	}
	u, err := url.Parse(r.URL)
	if err != nil {
		return r.URL
	}
	q := u.Query()
	for k, vs := range r.Query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// httpRequest creates a fresh *http.Request for one attempt. The body is
// re-read from the shared byte slice each time.
func (r *Request) httpRequest(ctx context.Context, method string) (*http.Request, error) {
	var body *bytes.Reader
	if len(r.Body) > 0 {
		body = bytes.NewReader(r.Body)
	}
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, strings.ToUpper(method), r.Target(), body)
	} else {
		req, err = http.NewRequestWithContext(ctx, strings.ToUpper(method), r.Target(), nil)
	}
	if err != nil {
		return nil, err
	}
	req.Header = r.Header.Clone()
	if r.ContentType != "" {
		req.Header.Set("Content-Type", r.ContentType)
	}
	return req, nil
}
