// Package audio provides PCM sizing helpers, WAV encoding/decoding, and an
// optional per-session recorder that captures relayed audio to WAV files
// for debugging.
package audio
