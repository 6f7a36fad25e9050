// Package audiotest generates synthetic waveforms and in-memory WAV files
// for tests. A pure sine tone exercises the "stable pitch, low noise"
// (AI-like) end of the feature space; white noise the opposite.
package audiotest

import (
	"encoding/binary"
	"math"
	"math/rand"
)

// Sine generates a pure tone at the given frequency with amplitude 0.3.
func Sine(freq float64, duration float64, sampleRate int) []float64 {
	n := int(duration * float64(sampleRate))
	samples := make([]float64, n)
	for i := range samples {
		t := float64(i) / float64(sampleRate)
		samples[i] = 0.3 * math.Sin(2*math.Pi*freq*t)
	}
	return samples
}

// WhiteNoise generates seeded Gaussian noise with amplitude 0.1. The fixed
// seed keeps feature-extraction tests deterministic.
func WhiteNoise(duration float64, sampleRate int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	n := int(duration * float64(sampleRate))
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = 0.1 * rng.NormFloat64()
	}
	return samples
}

// WAV encodes mono float64 samples as a 16-bit PCM RIFF/WAVE byte stream.
func WAV(samples []float64, sampleRate int) []byte {
	dataLen := len(samples) * 2
	buf := make([]byte, 44+dataLen)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataLen))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)                   // PCM chunk size
	binary.LittleEndian.PutUint16(buf[20:22], 1)                    // PCM format
	binary.LittleEndian.PutUint16(buf[22:24], 1)                    // mono
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))   // sample rate
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*2)) // byte rate
	binary.LittleEndian.PutUint16(buf[32:34], 2)                    // block align
	binary.LittleEndian.PutUint16(buf[34:36], 16)                   // bits per sample

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataLen))

	for i, s := range samples {
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		binary.LittleEndian.PutUint16(buf[44+i*2:], uint16(int16(s*32767)))
	}

	return buf
}

// SineWAV is shorthand for WAV(Sine(freq, duration, rate), rate).
func SineWAV(freq, duration float64, sampleRate int) []byte {
	return WAV(Sine(freq, duration, sampleRate), sampleRate)
}

// NoiseWAV is shorthand for WAV(WhiteNoise(duration, rate, seed), rate).
func NoiseWAV(duration float64, sampleRate int, seed int64) []byte {
	return WAV(WhiteNoise(duration, sampleRate, seed), sampleRate)
}
