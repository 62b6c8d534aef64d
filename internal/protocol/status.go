package protocol

import "fmt"

// AuthStatus is the outcome code carried by an AuthenticationResponse.
type AuthStatus byte

// Authentication status codes.
const (
	StatusSuccess            AuthStatus = 0
	StatusInvalidCredentials AuthStatus = 1
	StatusTokenInvalid       AuthStatus = 2
	StatusTokenExpired       AuthStatus = 3
	StatusUserBanned         AuthStatus = 4
	StatusUserLocked         AuthStatus = 5
	StatusServerError        AuthStatus = 6
)

var authStatusNames = [...]string{
	StatusSuccess:            "SUCCESS",
	StatusInvalidCredentials: "INVALID_CREDENTIALS",
	StatusTokenInvalid:       "TOKEN_INVALID",
	StatusTokenExpired:       "TOKEN_EXPIRED",
	StatusUserBanned:         "USER_BANNED",
	StatusUserLocked:         "USER_LOCKED",
	StatusServerError:        "SERVER_ERROR",
}

var authStatusDescriptions = [...]string{
	StatusSuccess:            "Authentication successful",
	StatusInvalidCredentials: "Invalid username or password",
	StatusTokenInvalid:       "SSO token is invalid",
	StatusTokenExpired:       "SSO token has expired",
	StatusUserBanned:         "User account is banned",
	StatusUserLocked:         "User account is locked",
	StatusServerError:        "Server authentication error",
}

// ParseAuthStatus maps a wire code to a status. Unknown codes map to
// StatusServerError.
func ParseAuthStatus(code byte) AuthStatus {
	if int(code) < len(authStatusNames) {
		return AuthStatus(code)
	}
	return StatusServerError
}

// String returns the status name, e.g. "USER_BANNED".
func (s AuthStatus) String() string {
	if int(s) < len(authStatusNames) {
		return authStatusNames[s]
	}
	return fmt.Sprintf("AuthStatus(%d)", byte(s))
}

// Description returns the human readable meaning of the status.
func (s AuthStatus) Description() string {
	if int(s) < len(authStatusDescriptions) {
		return authStatusDescriptions[s]
	}
	return authStatusDescriptions[StatusServerError]
}

// IsSuccess reports whether s is StatusSuccess.
func (s AuthStatus) IsSuccess() bool {
	return s == StatusSuccess
}
