package services

import (
	"errors"
	"strings"
)

// Sentinel errors forming the closed error-kind set the API maps onto.
// Wrap them with fmt.Errorf("%w: ...") to add detail; callers branch with
// errors.Is, never on message text.
var (
	// ErrValidation: malformed email, code or display name. Rejected
	// before any side effect.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidOrExpiredCode deliberately does not distinguish wrong,
	// expired and already-used codes.
	ErrInvalidOrExpiredCode = errors.New("invalid or expired code")

	// ErrServiceUnavailable: the required email-delivery leg is
	// unreachable or not configured.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrDisplayNameTaken leaves the verified session intact so the
	// user can retry with another name.
	ErrDisplayNameTaken = errors.New("display name already taken")

	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ErrorKind returns the stable machine-readable kind for an error, for
// the API's tagged error responses.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrInvalidOrExpiredCode):
		return "invalid_code"
	case errors.Is(err, ErrServiceUnavailable):
		return "service_unavailable"
	case errors.Is(err, ErrDisplayNameTaken):
		return "conflict"
	case errors.Is(err, ErrInvalidCredentials):
		return "unauthorized"
	default:
		return "internal"
	}
}

// RedactEmail keeps the first character of the local part and the full
// domain, for logs: "jane@example.com" -> "j***@example.com".
func RedactEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
