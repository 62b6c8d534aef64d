// Package logger provides structured logging on log/slog.
//
// Every logger shares one level, changed at runtime with SetLevel. Session
// tokens and SSO tickets are masked on output and values under secret
// keys such as "password" are dropped. Entries logged through a logger
// bound with WithContext carry the trace and span ids of the active span.
package logger
