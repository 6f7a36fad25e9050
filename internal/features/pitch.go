package features

// Fundamental-frequency tracking by normalized autocorrelation. The search
// band covers speaking pitch, 50-500 Hz.
const (
	pitchFloorHz   = 50.0
	pitchCeilHz    = 500.0
	voicingMinCorr = 0.3
	frameEnergyEps = 1e-6
)

// trackPitch estimates f0 for one frame. Returns (f0, true) for voiced
// frames, (0, false) for unvoiced or silent frames.
func trackPitch(frame []float64, sampleRate int) (float64, bool) {
	minLag := int(float64(sampleRate) / pitchCeilHz)
	maxLag := int(float64(sampleRate) / pitchFloorHz)
	if maxLag >= len(frame) {
		maxLag = len(frame) - 1
	}
	if minLag < 1 || minLag >= maxLag {
		return 0, false
	}

	r0 := 0.0
	for _, s := range frame {
		r0 += s * s
	}
	if r0 < frameEnergyEps {
		return 0, false
	}

	bestLag, bestCorr := 0, 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		r := 0.0
		for i := 0; i < len(frame)-lag; i++ {
			r += frame[i] * frame[i+lag]
		}
		if corr := r / r0; corr > bestCorr {
			bestCorr = corr
			bestLag = lag
		}
	}

	if bestCorr < voicingMinCorr || bestLag == 0 {
		return 0, false
	}
	return float64(sampleRate) / float64(bestLag), true
}
