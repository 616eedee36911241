package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrMissingFile = errors.New("image upload requires a file")
	ErrMissingURL  = errors.New("link upload requires a url")
	ErrMissingID   = errors.New("missing entry id")
)

// StatusError is returned for any non-2xx backend response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode), e.Detail)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

func newStatusError(method, path string, code int, body []byte) *StatusError {
	return &StatusError{Method: method, Path: path, StatusCode: code, Detail: detailFromBody(body)}
}

const maxDetail = 200

// detailFromBody extracts FastAPI's {"detail": ...}; falls back to a trimmed body.
func detailFromBody(body []byte) string {
	var v struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &v); err == nil && len(v.Detail) > 0 {
		var s string
		if err := json.Unmarshal(v.Detail, &s); err == nil {
			return s
		}
		// Validation errors come back as a list of objects.
		return string(v.Detail)
	}
	s := strings.TrimSpace(string(body))
	if r := []rune(s); len(r) > maxDetail {
		s = string(r[:maxDetail]) + "…"
	}
	return s
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

func IsNotFound(err error) bool { return StatusCode(err) == http.StatusNotFound }
