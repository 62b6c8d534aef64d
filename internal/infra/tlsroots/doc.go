// Package tlsroots builds TLS configurations for the game link.
//
// Clients trust the system roots plus an optional CA bundle; the stub
// server loads a certificate and key pair. Both enforce TLS 1.2 or later.
package tlsroots
