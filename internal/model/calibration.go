package model

import (
	"fmt"
	"math"
	"sort"
)

// Curve is a probability calibration mapping fitted offline (sigmoid or
// isotonic), stored as sorted piecewise-linear knots. Raw ensemble scores
// are interpolated to empirically accurate probabilities.
type Curve struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
}

func (c *Curve) validate() error {
	if len(c.X) < 2 || len(c.X) != len(c.Y) {
		return fmt.Errorf("calibration curve needs >=2 matched knots, got %d/%d", len(c.X), len(c.Y))
	}
	if !sort.Float64sAreSorted(c.X) {
		return fmt.Errorf("calibration knots must be sorted by x")
	}
	return nil
}

// Apply interpolates raw through the curve, clamping outside the knot range.
func (c *Curve) Apply(raw float64) float64 {
	if raw <= c.X[0] {
		return c.Y[0]
	}
	last := len(c.X) - 1
	if raw >= c.X[last] {
		return c.Y[last]
	}
	i := sort.SearchFloat64s(c.X, raw)
	// c.X[i-1] < raw <= c.X[i]
	x0, x1 := c.X[i-1], c.X[i]
	y0, y1 := c.Y[i-1], c.Y[i]
	if x1 == x0 {
		return y1
	}
	return y0 + (y1-y0)*(raw-x0)/(x1-x0)
}

// Calibrate maps a raw classifier score to a final confidence: the handle's
// calibration curve if it has one, then clamped to [0, 1] and rounded to
// three decimals.
func Calibrate(raw float64, h Handle) float64 {
	conf := raw
	if c := h.Calibration(); c != nil {
		conf = c.Apply(raw)
	}
	return Round3(clamp01(conf))
}

// LabelThresholdDefault is the confidence at or above which a clip is
// labeled AI_GENERATED. Tunable via configuration; the default matches the
// documented contract.
const LabelThresholdDefault = 0.5

// Round3 rounds to three decimal places.
func Round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
