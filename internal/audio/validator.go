// Package audio validates and decodes caller-supplied audio bytes into the
// canonical waveform consumed by feature extraction.
package audio

import (
	"fmt"

	"github.com/meghraj-labs/auris/internal/config"
	"github.com/meghraj-labs/auris/internal/domain"
)

// Validator turns raw bytes into a sanity-checked, canonically sampled
// AudioClip. A malformed clip is a terminal client error; there are no
// retries.
type Validator struct {
	cfg config.AudioConfig
}

// NewValidator creates a Validator with the given bounds.
func NewValidator(cfg config.AudioConfig) *Validator {
	return &Validator{cfg: cfg}
}

// Validate decodes raw bytes into a mono AudioClip at the canonical sample
// rate. Failure kinds: SizeExceeded for payloads outside the byte bounds,
// UnsupportedFormat for streams no codec can decode, DurationOutOfRange for
// clips outside the duration bounds.
func (v *Validator) Validate(raw []byte) (*domain.AudioClip, error) {
	if len(raw) < v.cfg.MinBytes {
		return nil, domain.NewDetectionError(domain.KindSizeExceeded,
			fmt.Sprintf("payload is %d bytes, minimum is %d", len(raw), v.cfg.MinBytes))
	}
	if len(raw) > v.cfg.MaxBytes {
		return nil, domain.NewDetectionError(domain.KindSizeExceeded,
			fmt.Sprintf("payload is %d bytes, maximum is %d", len(raw), v.cfg.MaxBytes))
	}

	var (
		samples []float64
		rate    int
		err     error
	)
	switch sniffContainer(raw) {
	case containerWAV:
		samples, rate, err = decodeWAV(raw)
	case containerMP3:
		samples, rate, err = decodeMP3(raw)
	default:
		return nil, domain.NewDetectionError(domain.KindUnsupportedFormat,
			"audio must be WAV or MP3")
	}
	if err != nil {
		return nil, domain.WrapDetectionError(domain.KindUnsupportedFormat,
			"could not decode audio", err)
	}
	if rate <= 0 || len(samples) == 0 {
		return nil, domain.NewDetectionError(domain.KindUnsupportedFormat,
			"decoded stream contains no audio")
	}

	duration := float64(len(samples)) / float64(rate)
	if duration < v.cfg.MinDuration || duration > v.cfg.MaxDuration {
		return nil, domain.NewDetectionError(domain.KindDurationOutOfRange,
			fmt.Sprintf("clip is %.2fs, accepted range is [%.1fs, %.1fs]",
				duration, v.cfg.MinDuration, v.cfg.MaxDuration))
	}

	samples, err = resample(samples, rate, v.cfg.SampleRate)
	if err != nil {
		return nil, domain.WrapDetectionError(domain.KindUnsupportedFormat,
			"could not resample audio", err)
	}

	return &domain.AudioClip{Samples: samples, SampleRate: v.cfg.SampleRate}, nil
}
