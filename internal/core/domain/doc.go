// Package domain defines the core domain models for habbo-go.
//
// Domain models are plain values without IO dependencies. This package
// contains:
//
//   - SessionToken: the credential held by an authenticated session
//   - Errors: domain-specific error definitions with stable codes
//
// Time-dependent queries take an explicit instant (IsValidAt,
// RemainingTimeAt) so callers can inject a clock.
package domain
