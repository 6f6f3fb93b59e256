package fetch

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// TimeoutError reports a call that exceeded its deadline.
type TimeoutError struct {
	URL     string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("fetch: %s timed out after %s", e.URL, e.Timeout)
}

// HTTPError reports a non-success status. Body holds the parsed payload when
// it could be decoded, otherwise the raw text.
type HTTPError struct {
	URL    string
	Status int
	Body   any
}

func (e *HTTPError) Error() string {
	text := http.StatusText(e.Status)
	if text == "" {
		text = "unexpected status"
	}
	return fmt.Sprintf("fetch: %s returned %d %s", e.URL, e.Status, text)
}

// StatusCode mirrors the HTTPError interface used by endpoint handlers.
func (e *HTTPError) StatusCode() int {
	return e.Status
}

// MalformedResponseError reports a body that could not be parsed as the
// declared content type, or did not have the expected shape.
type MalformedResponseError struct {
	URL string
	Err error
}

func (e *MalformedResponseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch: malformed response from %s", e.URL)
	}
	return fmt.Sprintf("fetch: malformed response from %s: %v", e.URL, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// IsTimeout reports whether err is, or wraps, a TimeoutError.
func IsTimeout(err error) bool {
	var target *TimeoutError
	return errors.As(err, &target)
}
