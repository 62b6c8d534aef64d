// Package main provides the entry point for habbo-stub-server.
//
// habbo-stub-server is a loopback game server for local development and
// end-to-end testing. It answers every authentication request: SUCCESS
// with a fresh user id, USER_BANNED for configured users and
// TOKEN_INVALID for malformed session tokens.
//
// Usage:
//
//	habbo-stub-server
//	habbo-stub-server --listen 127.0.0.1:30000 --banned mallory
//	habbo-stub-server --tls-cert server.pem --tls-key server.key
//	habbo-stub-server --data-dir ./stub-data users
package main
