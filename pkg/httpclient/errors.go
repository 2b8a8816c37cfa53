package httpclient

import (
	"fmt"
	"strings"
)

const maxSnippetBytes = 512

// StatusError reports a completed request that came back with a non-2xx status.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

// NewStatusError builds a StatusError carrying a trimmed snippet of body.
func NewStatusError(method, path string, status int, body []byte) *StatusError {
	return &StatusError{Method: method, Path: path, StatusCode: status, Body: bodySnippet(body)}
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d body: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// DecodeError reports a 2xx body that could not be decoded as JSON.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s response: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func bodySnippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxSnippetBytes {
		return s[:maxSnippetBytes] + "..."
	}
	return s
}
