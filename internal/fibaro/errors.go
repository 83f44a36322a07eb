package fibaro

import "errors"

var (
	// ErrInvalidURL is returned when the hub base URL cannot be parsed.
	ErrInvalidURL = errors.New("fibaro: invalid hub url")

	// ErrRequestFailed wraps transport-level failures (dial, timeout, cancellation).
	ErrRequestFailed = errors.New("fibaro: request failed")

	// ErrUnexpectedStatus is returned for non-2xx responses.
	ErrUnexpectedStatus = errors.New("fibaro: unexpected status")

	// ErrDecodeFailed is returned when a response body is not the expected JSON.
	ErrDecodeFailed = errors.New("fibaro: decode failed")
)
