package audio

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-audio/wav"
	mp3 "github.com/hajimehoshi/go-mp3"
)

// container is the sniffed byte-stream format.
type container int

const (
	containerUnknown container = iota
	containerWAV
	containerMP3
)

// sniffContainer inspects the leading bytes for a known audio container.
// MP3 is recognized by an ID3 tag or an MPEG frame sync, WAV by its RIFF
// header.
func sniffContainer(raw []byte) container {
	if len(raw) >= 12 && bytes.Equal(raw[0:4], []byte("RIFF")) && bytes.Equal(raw[8:12], []byte("WAVE")) {
		return containerWAV
	}
	if len(raw) >= 4 {
		if bytes.Equal(raw[0:3], []byte("ID3")) {
			return containerMP3
		}
		if raw[0] == 0xFF && raw[1]&0xE0 == 0xE0 {
			return containerMP3
		}
	}
	return containerUnknown
}

// decodeWAV decodes a RIFF/WAVE byte stream into mono float64 samples.
func decodeWAV(raw []byte) ([]float64, int, error) {
	dec := wav.NewDecoder(bytes.NewReader(raw))
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("not a valid wav file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read pcm data: %w", err)
	}
	if buf == nil || len(buf.Data) == 0 || buf.Format == nil {
		return nil, 0, fmt.Errorf("wav file contains no samples")
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		return nil, 0, fmt.Errorf("wav file reports %d channels", channels)
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))

	frames := len(buf.Data) / channels
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c]) / scale
		}
		samples[i] = sum / float64(channels)
	}

	return samples, buf.Format.SampleRate, nil
}

// decodeMP3 decodes an MPEG audio stream into mono float64 samples. The
// decoder always emits 16-bit little-endian stereo at the stream rate.
func decodeMP3(raw []byte) ([]float64, int, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(raw))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open mp3 stream: %w", err)
	}

	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode mp3 stream: %w", err)
	}
	if len(pcm) < 4 {
		return nil, 0, fmt.Errorf("mp3 stream contains no samples")
	}

	frames := len(pcm) / 4 // 2 channels x int16
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		l := int16(uint16(pcm[i*4]) | uint16(pcm[i*4+1])<<8)
		r := int16(uint16(pcm[i*4+2]) | uint16(pcm[i*4+3])<<8)
		samples[i] = (float64(l) + float64(r)) / 2.0 / 32768.0
	}

	return samples, dec.SampleRate(), nil
}
