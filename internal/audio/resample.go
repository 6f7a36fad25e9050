package audio

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"
)

// resample converts mono samples from rate `from` to rate `to`.
func resample(samples []float64, from, to int) ([]float64, error) {
	if from == to {
		return samples, nil
	}

	rs, err := resampling.New(&resampling.Config{
		InputRate:  float64(from),
		OutputRate: float64(to),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}

	out, err := rs.Process(samples)
	if err != nil {
		return nil, fmt.Errorf("resample %d->%d Hz: %w", from, to, err)
	}

	// The resampler buffers a filter-length tail internally; without the
	// flush every clip comes back short by the filter latency.
	tail, err := rs.Flush()
	if err != nil {
		return nil, fmt.Errorf("flush resampler %d->%d Hz: %w", from, to, err)
	}
	out = append(out, tail...)

	return out, nil
}
