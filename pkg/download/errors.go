// pkg/download/errors.go
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"syscall"
)

// ErrNetwork marks transfer failures reported by the remote end.
var ErrNetwork = errors.New("network error")

// RetryableError wraps a transfer failure that may succeed when attempted again.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err was classified as transient.
func IsRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}

// StatusError is a non-success HTTP response.
type StatusError struct {
	URI        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URI)
}

func (e *StatusError) Unwrap() error { return ErrNetwork }

// IsNotFound reports whether err means the resource does not exist, either a
// 404/410 answer or a missing local file.
func IsNotFound(err error) bool {
	var status *StatusError
	if errors.As(err, &status) {
		return status.StatusCode == http.StatusNotFound || status.StatusCode == http.StatusGone
	}
	return errors.Is(err, fs.ErrNotExist)
}

// checkStatus classifies an HTTP status code. Request timeouts, rate limiting
// and gateway or server overload answers are retryable.
func checkStatus(uri string, code int) error {
	switch code {
	case http.StatusOK:
		return nil
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return &RetryableError{Err: &StatusError{URI: uri, StatusCode: code}}
	}
	return &StatusError{URI: uri, StatusCode: code}
}

// classify wraps timeouts, connection resets and truncated bodies as retryable.
func classify(err error) error {
	if err == nil || IsRetryable(err) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var netErr net.Error
	switch {
	case errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, syscall.ETIMEDOUT),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return &RetryableError{Err: err}
	}
	return err
}

// BatchError reports the transfer that stopped a batch.
type BatchError struct {
	Package   string
	URI       string
	Attempts  int
	Retryable bool
	Err       error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("downloading %s from %s failed after %d attempt(s): %v", e.Package, e.URI, e.Attempts, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }
