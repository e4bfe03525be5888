// Package protocol implements the client-facing WebSocket message set.
// It handles the JSON control frames exchanged with the browser alongside
// binary audio frames, including message parsing, validation, and the
// constructors for relay-to-client messages.
package protocol
