// Package stubserver provides a loopback game server for development and
// end-to-end tests.
//
// It speaks the framed binary protocol of package protocol and answers
// every AuthenticationRequest with an AuthenticationResponse:
//
//   - TOKEN_INVALID when the SSO token is not a session token (hbtk_...)
//   - INVALID_CREDENTIALS when the username is blank
//   - USER_BANNED for configured users
//   - SUCCESS with a fresh user id and a ULID session id otherwise
//
// Other well-formed messages are accepted and ignored; undecodable frames
// are logged and the connection stays open.
package stubserver
