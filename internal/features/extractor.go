// Package features converts a validated AudioClip into the fixed-length
// acoustic feature vector consumed by the classifiers. Extraction is
// deterministic: the same clip always yields the same vector.
package features

import (
	"context"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"

	"github.com/meghraj-labs/auris/internal/domain"
)

const (
	// Spectral analysis framing: 32 ms windows, 50% overlap at 16 kHz.
	spectralFrameSize = 512
	spectralHopSize   = 256

	// Pitch framing: 64 ms windows so the longest period (50 Hz) fits
	// several times over.
	pitchFrameSize = 1024
	pitchHopSize   = 512

	// Deadline checks happen between frame batches of this size.
	framesPerDeadlineCheck = 32

	// silenceEps excludes near-silent frames from spectral statistics.
	silenceEps = 1e-10
)

// Extractor computes feature vectors. It is stateless and safe for
// concurrent use; per-request FFT scratch is allocated inside Extract.
type Extractor struct {
	window []float64
}

// NewExtractor creates an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{window: hannWindow(spectralFrameSize)}
}

// Extract computes the feature vector for clip. The context deadline is the
// extraction budget: overrunning it fails with ExtractionTimeout, checked
// between frames so a slow extraction never runs unbounded.
func (e *Extractor) Extract(ctx context.Context, clip *domain.AudioClip) (domain.FeatureVector, error) {
	var v domain.FeatureVector
	v.Duration = clip.Duration()

	zcr, centroidVar, flatness, err := e.spectralFeatures(ctx, clip)
	if err != nil {
		return domain.FeatureVector{}, err
	}
	v.ZeroCrossingRate = zcr
	v.SpectralVariance = centroidVar
	v.SpectralFlatness = flatness

	pitchVar, err := e.pitchVariance(ctx, clip)
	if err != nil {
		return domain.FeatureVector{}, err
	}
	v.PitchVariance = pitchVar

	if !v.Finite() {
		return domain.FeatureVector{}, domain.NewDetectionError(domain.KindClassifierFailure,
			"feature extraction produced non-finite values")
	}
	return v, nil
}

func checkDeadline(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return domain.WrapDetectionError(domain.KindExtractionTimeout,
			"feature extraction exceeded its time budget", err)
	}
	return nil
}

// spectralFeatures computes mean ZCR, spectral centroid variance, and mean
// spectral flatness over 32 ms frames.
func (e *Extractor) spectralFeatures(ctx context.Context, clip *domain.AudioClip) (zcr, centroidVar, flatness float64, err error) {
	samples := clip.Samples
	if len(samples) < spectralFrameSize {
		return 0, 0, 0, nil
	}

	fft := fourier.NewFFT(spectralFrameSize)
	numFrames := (len(samples)-spectralFrameSize)/spectralHopSize + 1
	halfBins := spectralFrameSize/2 + 1
	binHz := float64(clip.SampleRate) / float64(spectralFrameSize)

	windowed := make([]float64, spectralFrameSize)
	coeffs := make([]complex128, halfBins)
	power := make([]float64, halfBins)

	var (
		zcrSum, flatSum float64
		centroids       []float64
		spectralFrames  int
	)

	for t := 0; t < numFrames; t++ {
		if t%framesPerDeadlineCheck == 0 {
			if err := checkDeadline(ctx); err != nil {
				return 0, 0, 0, err
			}
		}

		frame := samples[t*spectralHopSize : t*spectralHopSize+spectralFrameSize]

		crossings := 0
		for i := 1; i < len(frame); i++ {
			if (frame[i] >= 0) != (frame[i-1] >= 0) {
				crossings++
			}
		}
		zcrSum += float64(crossings) / float64(len(frame)-1)

		for i, s := range frame {
			windowed[i] = s * e.window[i]
		}
		coeffs = fft.Coefficients(coeffs, windowed)

		total := 0.0
		for i, c := range coeffs {
			p := real(c)*real(c) + imag(c)*imag(c)
			power[i] = p
			total += p
		}
		if total < silenceEps {
			continue // silent frame: centroid and flatness are undefined
		}

		weighted := 0.0
		for i, p := range power {
			weighted += float64(i) * binHz * p
		}
		centroids = append(centroids, weighted/total)

		logSum := 0.0
		for _, p := range power {
			logSum += math.Log(p + 1e-12)
		}
		geoMean := math.Exp(logSum / float64(len(power)))
		arithMean := total / float64(len(power))
		flatSum += geoMean / arithMean
		spectralFrames++
	}

	zcr = zcrSum / float64(numFrames)
	if spectralFrames > 0 {
		flatness = flatSum / float64(spectralFrames)
	}
	if len(centroids) > 1 {
		centroidVar = stat.Variance(centroids, nil)
	}
	return zcr, centroidVar, flatness, nil
}

// pitchVariance computes the variance of the f0 contour over voiced frames.
// A clip with no voiced frames yields UnvoicedPitchVariance so the pitch
// term contributes nothing rather than failing.
func (e *Extractor) pitchVariance(ctx context.Context, clip *domain.AudioClip) (float64, error) {
	samples := clip.Samples
	if len(samples) < pitchFrameSize {
		return domain.UnvoicedPitchVariance, nil
	}

	numFrames := (len(samples)-pitchFrameSize)/pitchHopSize + 1
	var contour []float64
	for t := 0; t < numFrames; t++ {
		if t%framesPerDeadlineCheck == 0 {
			if err := checkDeadline(ctx); err != nil {
				return 0, err
			}
		}
		frame := samples[t*pitchHopSize : t*pitchHopSize+pitchFrameSize]
		if f0, voiced := trackPitch(frame, clip.SampleRate); voiced {
			contour = append(contour, f0)
		}
	}

	switch len(contour) {
	case 0:
		return domain.UnvoicedPitchVariance, nil
	case 1:
		return 0, nil
	}
	return stat.Variance(contour, nil), nil
}
