package upstream

import "context"

// Stream is one bidirectional connection to the translation model.
// A session owns exactly one Stream for its lifetime.
type Stream interface {
	// Send writes one framed event into the stream.
	Send(ctx context.Context, ev *Event) error

	// Events returns the inbound event sequence. The channel is closed when
	// the stream ends, after which Err reports why.
	Events() <-chan *Event

	// Err returns the terminal stream error, or nil if the stream closed
	// cleanly. Only meaningful after Events is closed.
	Err() error

	// Close releases the stream handle. Safe to call more than once.
	Close() error
}

// Opener opens a fresh Stream per session.
type Opener interface {
	Open(ctx context.Context) (Stream, error)
}
