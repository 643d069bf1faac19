package vesync

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Operation errors wrap one of ErrAuth, ErrFetch or ErrCommand
// together with the underlying cause (ErrTransport, ErrDecode or *APIError),
// so callers can test for either with errors.Is / errors.As.
var (
	ErrTransport = errors.New("vesync: transport failure")
	ErrDecode    = errors.New("vesync: unexpected response body")

	ErrAuth    = errors.New("vesync: login failed")
	ErrFetch   = errors.New("vesync: fetch failed")
	ErrCommand = errors.New("vesync: command failed")

	ErrUnknownStatus    = errors.New("vesync: device power status unknown")
	ErrInvalidState     = errors.New("vesync: power state must be on or off")
	ErrEmptyDeviceID    = errors.New("vesync: device ID cannot be empty")
	ErrEmptyCredentials = errors.New("vesync: account and password cannot be empty")
	ErrNoSession        = errors.New("vesync: session is required")
	ErrNoClient         = errors.New("vesync: client is required")
)

// APIError is a non-2xx response from the VeSync cloud.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("vesync: API error %d", e.StatusCode)
	}
	return fmt.Sprintf("vesync: API error %d: %s", e.StatusCode, e.Body)
}

// IsUnauthorized reports whether the server rejected the credentials or token,
// as opposed to the request failing on the network.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
	}
	return false
}

// IsTimeout returns true if the error indicates a timeout.
func IsTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

func newAPIError(status int, body []byte) *APIError {
	const maxBody = 256
	text := string(body)
	if len(text) > maxBody {
		text = text[:maxBody] + "..."
	}
	return &APIError{StatusCode: status, Body: text}
}
