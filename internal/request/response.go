package request

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// Response is a successful response with its body fully captured. Every view
// is derived from the captured body on demand and may be requested repeatedly.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	URL        string
	// Proxy is the redacted proxy the response came through, empty when direct
	Proxy string
	// Attempt is the 1-based attempt number that produced the response
	Attempt int

	body []byte
}

// NewResponse creates a response around an already captured body. Intended for
// tests and processors that synthesize responses.
func NewResponse(statusCode int, header http.Header, body []byte) *Response {
	if header == nil {
		header = http.Header{}
	}
	return &Response{
		StatusCode: statusCode,
		Status:     fmt.Sprintf("%d %s", statusCode, http.StatusText(statusCode)),
		Header:     header,
		body:       append([]byte(nil), body...),
	}
}

// Body returns a copy of the raw body
func (r *Response) Body() []byte {
	return append([]byte(nil), r.body...)
}

// Len returns the body length in bytes
func (r *Response) Len() int {
	return len(r.body)
}

// Text returns the body decoded to UTF-8 using the charset announced by the
// Content-Type header or sniffed from the content.
func (r *Response) Text() (string, error) {
	rd, err := r.decoded()
	if err != nil {
		return "", err
	}
	b, err := io.ReadAll(rd)
	if err != nil {
		return "", fmt.Errorf("decode body: %w", err)
	}
	return string(b), nil
}

// Tree parses the body into an HTML node tree
func (r *Response) Tree() (*html.Node, error) {
	rd, err := r.decoded()
	if err != nil {
		return nil, err
	}
	node, err := html.Parse(rd)
	if err != nil {
		return nil, fmt.Errorf("parse html tree: %w", err)
	}
	return node, nil
}

// Document parses the body into a queryable goquery document
func (r *Response) Document() (*goquery.Document, error) {
	rd, err := r.decoded()
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(rd)
	if err != nil {
		return nil, fmt.Errorf("parse html document: %w", err)
	}
	return doc, nil
}

// JSON decodes the body into generic JSON values
func (r *Response) JSON() (any, error) {
	var v any
	if err := r.DecodeJSON(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// DecodeJSON decodes the body into v
func (r *Response) DecodeJSON(v any) error {
	if err := json.Unmarshal(r.body, v); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

// Path looks up a gjson path expression in the body without decoding it fully
func (r *Response) Path(expr string) gjson.Result {
	return gjson.GetBytes(r.body, expr)
}

func (r *Response) decoded() (io.Reader, error) {
	rd, err := charset.NewReader(bytes.NewReader(r.body), r.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("detect charset: %w", err)
	}
	return rd, nil
}
