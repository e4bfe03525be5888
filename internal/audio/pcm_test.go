package audio

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDuration(t *testing.T) {
	tests := []struct {
		name       string
		numBytes   int
		sampleRate int
		expected   time.Duration
	}{
		{
			name:       "one second at 16kHz",
			numBytes:   32000,
			sampleRate: 16000,
			expected:   time.Second,
		},
		{
			name:       "half second at 24kHz",
			numBytes:   24000,
			sampleRate: 24000,
			expected:   500 * time.Millisecond,
		},
		{
			name:       "zero bytes",
			numBytes:   0,
			sampleRate: 16000,
			expected:   0,
		},
		{
			name:       "invalid sample rate",
			numBytes:   32000,
			sampleRate: 0,
			expected:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Duration(tt.numBytes, tt.sampleRate); got != tt.expected {
				t.Errorf("Duration(%d, %d) = %v, expected %v", tt.numBytes, tt.sampleRate, got, tt.expected)
			}
		})
	}
}

func TestSampleByteRoundTrip(t *testing.T) {
	samples := []int16{0, 127, -128, 32767, -32768}

	data := BytesFromSamples(samples)
	if len(data) != len(samples)*BytesPerSample {
		t.Fatalf("Expected %d bytes, got %d", len(samples)*BytesPerSample, len(data))
	}

	back := SamplesFromBytes(data)
	for i, s := range samples {
		if back[i] != s {
			t.Errorf("Sample %d: expected %d, got %d", i, s, back[i])
		}
	}
}

func TestRecorder(t *testing.T) {
	dir := t.TempDir()

	rec, err := NewRecorder(dir, "session-1", "input", 16000)
	if err != nil {
		t.Fatalf("NewRecorder failed: %v", err)
	}

	rec.Append(BytesFromSamples([]int16{1, 2, 3}))
	rec.Append(BytesFromSamples([]int16{4, 5}))

	if err := rec.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "session-1_input.wav"))
	if err != nil {
		t.Fatalf("Capture file not written: %v", err)
	}

	samples, rate, err := DecodeWAV(data)
	if err != nil {
		t.Fatalf("Capture file is not valid WAV: %v", err)
	}

	if rate != 16000 {
		t.Errorf("Expected sample rate 16000, got %d", rate)
	}

	if len(samples) != 5 {
		t.Errorf("Expected 5 samples, got %d", len(samples))
	}

	// Close is idempotent, and appends after close are dropped.
	rec.Append(BytesFromSamples([]int16{9}))
	if err := rec.Close(); err != nil {
		t.Errorf("Second Close failed: %v", err)
	}
}

func TestRecorderEmpty(t *testing.T) {
	dir := t.TempDir()

	rec, err := NewRecorder(dir, "session-2", "output", 24000)
	if err != nil {
		t.Fatalf("NewRecorder failed: %v", err)
	}

	if err := rec.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := os.Stat(rec.Path()); !os.IsNotExist(err) {
		t.Error("Expected no capture file for an empty recording")
	}
}
