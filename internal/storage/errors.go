package storage

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/veilstream/veilstream/core"
)

// transportError marks a network-level connection failure, which is always
// retryable against the next publisher.
type transportError struct {
	endpoint string
	err      error
}

func (e *transportError) Error() string {
	return fmt.Sprintf("publisher %s unreachable: %v", e.endpoint, e.err)
}

func (e *transportError) Unwrap() error { return e.err }

// httpStatusError carries the publisher's HTTP status for retry
// classification.
type httpStatusError struct {
	endpoint string
	status   int
	body     string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("publisher %s returned %d: %s", e.endpoint, e.status, e.body)
}

// statusError maps a non-200 publisher status to either a retryable
// httpStatusError or a terminal core.ErrUploadRejected.
//
// Retry triggers: 429 (rate limited), 413 (payload too large for that node),
// and any 5xx. Every other 4xx means the request itself is malformed and
// retrying against another publisher cannot help.
func statusError(endpoint string, status int, body string) error {
	switch {
	case status == http.StatusTooManyRequests,
		status == http.StatusRequestEntityTooLarge,
		status >= 500:
		return &httpStatusError{endpoint: endpoint, status: status, body: body}
	default:
		return fmt.Errorf("%w: publisher %s returned %d: %s",
			core.ErrUploadRejected, endpoint, status, body)
	}
}

// retryable reports whether the failover loop may try the next publisher.
func retryable(err error) bool {
	var te *transportError
	if errors.As(err, &te) {
		return true
	}
	var se *httpStatusError
	return errors.As(err, &se)
}
