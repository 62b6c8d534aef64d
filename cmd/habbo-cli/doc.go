// Package main provides the entry point for habbo-cli.
//
// habbo-cli connects to a game server speaking the length-prefixed binary
// protocol and drives the authentication handshake:
//
//   - connect / disconnect
//   - login / logout / refresh
//   - status, config, version
//
// Usage:
//
//	habbo-cli                          # interactive shell
//	habbo-cli --server localhost:30000 login xiony
//	habbo-cli -o json status
//
// Without a command habbo-cli starts the interactive shell.
package main
