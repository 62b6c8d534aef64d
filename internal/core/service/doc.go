// Package service provides domain services for habbo-go.
//
// Domain services contain business logic and orchestrate operations on
// domain models. They define interfaces for external dependencies so
// implementations can be swapped in tests and production.
//
// This package contains:
//
//   - Authenticator: login state machine, attempt throttling and the
//     session token lifecycle (issue, refresh, revoke)
//   - TicketIssuer: pluggable SSO ticket source; LocalTicketIssuer
//     simulates one without a remote identity provider
//
// The Authenticator is safe for concurrent use.
package service
