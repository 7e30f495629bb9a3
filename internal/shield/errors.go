package shield

import (
	"errors"

	"github.com/ys4e/pancake/internal/metrics"
)

var (
	// ErrInvalidCredential covers unknown accounts, wrong passwords,
	// undecodable passwords and accounts whose state forbids login. All of them
	// share one client outcome.
	ErrInvalidCredential = errors.New("invalid credentials")
	ErrBadToken          = errors.New("invalid or expired login token")
	ErrDeviceMismatch    = errors.New("login token issued to another device")
	// ErrStorageUnavailable wraps store failures on the primary lookup.
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrInternal           = errors.New("internal error")
)

// Response codes of the envelope.
const (
	RetSuccess           int16 = 0
	RetSystemError       int16 = -1
	RetInvalidCredential int16 = -101
	RetBadToken          int16 = -111
	RetDeviceMismatch    int16 = -116
)

const (
	MessageOK                = "OK"
	MessageSystemError       = "An internal server error has occurred."
	MessageInvalidCredential = "Incorrect username or password."
	MessageBadToken          = "Invalid or expired login token."
	MessageDeviceMismatch    = "Login token was issued to a different device."
)

// Classify maps an operation error onto its envelope code, message and
// metrics outcome. Unrecognised errors are system errors.
func Classify(err error) (retcode int16, message, outcome string) {
	switch {
	case err == nil:
		return RetSuccess, MessageOK, metrics.OutcomeSuccess
	case errors.Is(err, ErrInvalidCredential):
		return RetInvalidCredential, MessageInvalidCredential, metrics.OutcomeInvalidCredential
	case errors.Is(err, ErrDeviceMismatch):
		return RetDeviceMismatch, MessageDeviceMismatch, metrics.OutcomeDeviceMismatch
	case errors.Is(err, ErrBadToken):
		return RetBadToken, MessageBadToken, metrics.OutcomeBadToken
	default:
		return RetSystemError, MessageSystemError, metrics.OutcomeError
	}
}
