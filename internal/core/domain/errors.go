package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain error with a structured error code.
// Codes have the form HB-<AREA>-<NNNN>; the numeric part loosely follows
// HTTP semantics (4xxx caller problem, 5xxx link or server problem).
type DomainError struct {
	Code    string // Error code (e.g., "HB-AUTH-4010")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support. Two domain errors match when their
// codes are equal, regardless of details or cause.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithDetailsf is WithDetails with fmt.Sprintf formatting.
func (e *DomainError) WithDetailsf(format string, args ...any) *DomainError {
	return e.WithDetails(fmt.Sprintf(format, args...))
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Connection Errors (CONN)
// ============================================================================

var (
	// ErrNotConnected indicates an operation that needs a live link was
	// attempted while disconnected.
	ErrNotConnected = NewDomainError("HB-CONN-4000", "not connected")

	// ErrConnectFailed indicates the transport could not be established.
	ErrConnectFailed = NewDomainError("HB-CONN-5030", "connect failed")

	// ErrLinkBroken indicates the link failed during send or receive.
	ErrLinkBroken = NewDomainError("HB-CONN-5031", "connection lost")
)

// ============================================================================
// Authentication Errors (AUTH)
// ============================================================================

var (
	// ErrInvalidCredentials indicates an empty or rejected username/password.
	ErrInvalidCredentials = NewDomainError("HB-AUTH-4010", "invalid credentials")

	// ErrNoValidToken indicates there is no live session token to act on.
	ErrNoValidToken = NewDomainError("HB-AUTH-4011", "no valid token")

	// ErrNotAuthenticated indicates the operation requires an authenticated session.
	ErrNotAuthenticated = NewDomainError("HB-AUTH-4012", "not authenticated")

	// ErrAuthRejected indicates the server answered the authentication
	// request with a non-success status.
	ErrAuthRejected = NewDomainError("HB-AUTH-4030", "authentication rejected by server")

	// ErrInvalidTokenState indicates the token cannot make the requested
	// transition (e.g. refreshing a revoked token).
	ErrInvalidTokenState = NewDomainError("HB-AUTH-4090", "invalid token state")

	// ErrAttemptsExceeded indicates the login attempt budget is used up.
	ErrAttemptsExceeded = NewDomainError("HB-AUTH-4290", "maximum login attempts exceeded")
)

// ============================================================================
// Protocol Errors (PROT)
// ============================================================================

var (
	// ErrTruncatedMessage indicates a decode ran past the end of its buffer.
	ErrTruncatedMessage = NewDomainError("HB-PROT-4000", "truncated message")

	// ErrUnknownMessage indicates a message id with no registered variant.
	ErrUnknownMessage = NewDomainError("HB-PROT-4001", "unknown message")

	// ErrFrameTooLarge indicates a frame length outside the accepted range.
	ErrFrameTooLarge = NewDomainError("HB-PROT-4130", "frame too large")

	// ErrStringTooLong indicates a string that does not fit a 16-bit length prefix.
	ErrStringTooLong = NewDomainError("HB-PROT-4131", "string too long")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternal indicates an unexpected internal failure.
	ErrInternal = NewDomainError("HB-SYS-5000", "internal error")

	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("HB-SYS-4000", "invalid argument")
)
