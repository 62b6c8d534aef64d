// Package token derives the opaque values behind session tokens and SSO
// tickets.
//
// Derive hashes a list of parts into a URL-safe value; equal parts always
// give equal values. Proof binds a password to salts with Argon2id so a
// ticket can show the credentials were seen without carrying them.
package token
