package fusionsolar

import (
	"errors"
	"fmt"
)

// Sentinel errors for FusionSolar operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrAuthentication is returned when login is rejected or the session
	// cannot be re-established.
	ErrAuthentication = errors.New("fusionsolar: authentication failed")

	// ErrRateLimited is returned when the northbound account exceeds its
	// request frequency quota (failCode 407).
	ErrRateLimited = errors.New("fusionsolar: access frequency too high")

	// ErrTransport is returned when the HTTP request itself fails or the
	// response cannot be decoded.
	ErrTransport = errors.New("fusionsolar: transport failure")
)

// Vendor failure codes with dedicated handling.
const (
	// failCodeRelogin indicates the session token has expired and the
	// client must log in again (USER_MUST_RELOGIN).
	failCodeRelogin = 305

	// failCodeRateLimit indicates the request frequency quota is exhausted
	// (ACCESS_FREQUENCY_IS_TOO_HIGH).
	failCodeRateLimit = 407
)

// APIError represents a FusionSolar response with a non-zero failCode that
// does not map onto a sentinel error.
type APIError struct {
	FailCode int
	Message  string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("fusionsolar: request failed with code %d: %s", e.FailCode, e.Message)
	}
	return fmt.Sprintf("fusionsolar: request failed with code %d", e.FailCode)
}
