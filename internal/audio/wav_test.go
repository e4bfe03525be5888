package audio

import (
	"strings"
	"testing"
)

func TestEncodeDecodeWAV(t *testing.T) {
	samples := []int16{0, 1000, -1000, 32767, -32768, 42}
	sampleRate := 16000

	encoded, err := EncodeWAV(samples, sampleRate)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	if len(encoded) != 44+len(samples)*BytesPerSample {
		t.Errorf("Expected %d bytes, got %d", 44+len(samples)*BytesPerSample, len(encoded))
	}

	if err := ValidateWAV(encoded); err != nil {
		t.Errorf("Encoded WAV failed validation: %v", err)
	}

	decoded, rate, err := DecodeWAV(encoded)
	if err != nil {
		t.Fatalf("DecodeWAV failed: %v", err)
	}

	if rate != sampleRate {
		t.Errorf("Expected sample rate %d, got %d", sampleRate, rate)
	}

	if len(decoded) != len(samples) {
		t.Fatalf("Expected %d samples, got %d", len(samples), len(decoded))
	}

	for i, s := range samples {
		if decoded[i] != s {
			t.Errorf("Sample %d: expected %d, got %d", i, s, decoded[i])
		}
	}
}

func TestEncodeWAVErrors(t *testing.T) {
	tests := []struct {
		name       string
		samples    []int16
		sampleRate int
		errorMsg   string
	}{
		{
			name:       "empty samples",
			samples:    nil,
			sampleRate: 16000,
			errorMsg:   "cannot encode empty",
		},
		{
			name:       "zero sample rate",
			samples:    []int16{1, 2, 3},
			sampleRate: 0,
			errorMsg:   "sample rate must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeWAV(tt.samples, tt.sampleRate)
			if err == nil {
				t.Fatal("Expected error but got none")
			}
			if !strings.Contains(err.Error(), tt.errorMsg) {
				t.Errorf("Expected error to contain %q, got %q", tt.errorMsg, err.Error())
			}
		})
	}
}

func TestDecodeWAVErrors(t *testing.T) {
	valid, err := EncodeWAV([]int16{1, 2, 3, 4}, 24000)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	tests := []struct {
		name     string
		mutate   func([]byte) []byte
		errorMsg string
	}{
		{
			name:     "too short",
			mutate:   func(d []byte) []byte { return d[:10] },
			errorMsg: "WAV data too short",
		},
		{
			name: "missing RIFF",
			mutate: func(d []byte) []byte {
				out := append([]byte(nil), d...)
				copy(out[0:4], "XXXX")
				return out
			},
			errorMsg: "missing RIFF header",
		},
		{
			name: "wrong format tag",
			mutate: func(d []byte) []byte {
				out := append([]byte(nil), d...)
				copy(out[8:12], "AIFF")
				return out
			},
			errorMsg: "missing WAVE format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeWAV(tt.mutate(valid))
			if err == nil {
				t.Fatal("Expected error but got none")
			}
			if !strings.Contains(err.Error(), tt.errorMsg) {
				t.Errorf("Expected error to contain %q, got %q", tt.errorMsg, err.Error())
			}
		})
	}
}

func TestGetWAVDuration(t *testing.T) {
	// One second of audio at 16 kHz.
	samples := make([]int16, 16000)
	encoded, err := EncodeWAV(samples, 16000)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	duration, err := GetWAVDuration(encoded)
	if err != nil {
		t.Fatalf("GetWAVDuration failed: %v", err)
	}

	if duration != 1.0 {
		t.Errorf("Expected duration 1.0s, got %f", duration)
	}
}
