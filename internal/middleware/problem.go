package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Problem represents an RFC 7807 problem details object
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
	Trace  string `json:"trace_id,omitempty"`
}

// WriteProblem writes p as an application/problem+json response
func WriteProblem(w http.ResponseWriter, p Problem) error {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	return json.NewEncoder(w).Encode(p)
}

// ProblemFromStatus builds a problem for an HTTP status
func ProblemFromStatus(status int, detail, traceID string) Problem {
	title := http.StatusText(status)
	return Problem{
		Type:   "/errors/" + strings.ReplaceAll(strings.ToLower(title), " ", "-"),
		Title:  title,
		Status: status,
		Detail: detail,
		Trace:  traceID,
	}
}
