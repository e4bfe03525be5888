package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Recorder accumulates the PCM audio relayed during one session and writes
// it out as a WAV file on Close. Used only when debug capture is enabled.
type Recorder struct {
	path       string
	sampleRate int

	mu      sync.Mutex
	samples []int16
	closed  bool
}

// NewRecorder creates a recorder writing to <dir>/<sessionID>_<label>.wav.
// The directory is created if it does not exist.
func NewRecorder(dir, sessionID, label string, sampleRate int) (*Recorder, error) {
	if dir == "" {
		return nil, fmt.Errorf("capture directory cannot be empty")
	}

	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create capture directory %s: %w", dir, err)
	}

	return &Recorder{
		path:       filepath.Join(dir, fmt.Sprintf("%s_%s.wav", sessionID, label)),
		sampleRate: sampleRate,
	}, nil
}

// Append adds raw little-endian 16-bit PCM bytes to the recording.
// Appending after Close is a no-op.
func (r *Recorder) Append(pcm []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}

	r.samples = append(r.samples, SamplesFromBytes(pcm)...)
}

// Close writes the accumulated samples to the WAV file. A recording with no
// samples produces no file. Close is idempotent.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	if len(r.samples) == 0 {
		return nil
	}

	data, err := EncodeWAV(r.samples, r.sampleRate)
	if err != nil {
		return fmt.Errorf("failed to encode capture: %w", err)
	}

	if err := os.WriteFile(r.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write capture file %s: %w", r.path, err)
	}

	return nil
}

// Path returns the destination file path of the recording.
func (r *Recorder) Path() string {
	return r.path
}
