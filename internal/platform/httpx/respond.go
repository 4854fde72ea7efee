// Package httpx renders ops endpoint responses and RFC7807 problems.
package httpx

import (
	"encoding/json"
	"net/http"
)

// ProblemContentType is the RFC7807 media type.
const ProblemContentType = "application/problem+json"

// ProblemDetail is an RFC7807 body. Code carries the ledger error class so
// operators can alert on it without parsing titles.
type ProblemDetail struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Code   string `json:"code,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// JSON writes data with status.
func JSON(w http.ResponseWriter, status int, data any) {
	write(w, "application/json", status, data)
}

// Problem writes an RFC7807 problem.
func Problem(w http.ResponseWriter, status int, code, detail string) {
	write(w, ProblemContentType, status, ProblemDetail{
		Type:   "about:blank",
		Title:  http.StatusText(status),
		Status: status,
		Code:   code,
		Detail: detail,
	})
}

func write(w http.ResponseWriter, contentType string, status int, data any) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
