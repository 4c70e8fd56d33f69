package transport

import (
	"errors"
	"fmt"
)

// ErrStatus reports a non-2xx HTTP status.
var ErrStatus = errors.New("unexpected status")

// NetworkError is a request that produced no HTTP response: DNS or connection
// failure, timeout, cancellation or a truncated body.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("request %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// CheckStatus returns nil for 2xx responses and an error wrapping ErrStatus otherwise.
func CheckStatus(resp *Response) error {
	if resp.OK() {
		return nil
	}
	return fmt.Errorf("%w %d for %s", ErrStatus, resp.StatusCode, resp.URL)
}
