package client

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a repository resource does not exist.
var ErrNotFound = errors.New("not found")

// HTTPError represents an HTTP error response.
type HTTPError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.URL)
}

// IsNotFound returns true if the error represents a 404 response.
func (e *HTTPError) IsNotFound() bool {
	return e.StatusCode == 404
}

// Unwrap lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *HTTPError) Unwrap() error {
	if e.IsNotFound() {
		return ErrNotFound
	}
	return nil
}

// Temporary reports whether retrying the request may succeed.
func (e *HTTPError) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// NotFoundError wraps ErrNotFound with the package it was looked up for.
type NotFoundError struct {
	Package string
	Path    string
}

func (e *NotFoundError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("package %s: %s not found", e.Package, e.Path)
	}
	return fmt.Sprintf("package %s not found", e.Package)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// RateLimitError is returned when the repository rate limits requests and
// retries are exhausted.
type RateLimitError struct {
	RetryAfter int // seconds
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry after %d seconds", e.RetryAfter)
}
