// Package protocol implements the binary wire format spoken with the game
// server.
//
// Every frame on the socket is a big-endian int32 length followed by that
// many payload bytes. A payload starts with a big-endian int16 message id
// followed by the message fields:
//
//	[int32 length][int16 id][fields...]
//
// Strings are encoded as a uint16 byte length followed by UTF-8 bytes; a zero
// length is the empty string.
//
// Messages form a closed set keyed by id. Decode peeks the id and builds the
// registered variant; unknown ids fail with domain.ErrUnknownMessage. Messages
// never reference a connection or a codec instance, so the same value can be
// marshaled for any link.
package protocol
