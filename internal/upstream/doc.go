// Package upstream implements the client side of the speech-to-speech
// translation model's bidirectional streaming contract. It defines the
// framed JSON event schema, the builders for the fixed session setup and
// teardown sequence, and the Stream seam with its Amazon Bedrock runtime
// implementation.
package upstream
