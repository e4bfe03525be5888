package audio

import (
	"encoding/binary"
	"time"
)

// BytesPerSample is the size of one little-endian 16-bit PCM sample.
const BytesPerSample = 2

// Duration returns the playback duration of a mono 16-bit PCM byte slice
// at the given sample rate. Odd trailing bytes are ignored.
func Duration(numBytes, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	samples := numBytes / BytesPerSample
	return time.Duration(float64(samples) / float64(sampleRate) * float64(time.Second))
}

// SamplesFromBytes converts little-endian 16-bit PCM bytes to samples.
// An odd trailing byte is dropped.
func SamplesFromBytes(data []byte) []int16 {
	samples := make([]int16, len(data)/BytesPerSample)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*BytesPerSample:]))
	}
	return samples
}

// BytesFromSamples converts 16-bit PCM samples to little-endian bytes.
func BytesFromSamples(samples []int16) []byte {
	data := make([]byte, len(samples)*BytesPerSample)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*BytesPerSample:], uint16(s))
	}
	return data
}
