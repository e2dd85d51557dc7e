package analytics

import (
	"math"

	"dukaan/backend/internal/domain"
)

const maxAxisTicks = 10

var axisSteps = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000, 10000, 50000, 100000}

var defaultAxis = domain.Axis{Step: 1, Max: 10}

// ChartAxis picks the smallest step from axisSteps that covers the largest
// value in at most ten ticks. Larger values fall back to powers of ten.
func ChartAxis(data []float64) domain.Axis {
	peak := 0.0
	for _, v := range data {
		if !math.IsNaN(v) && !math.IsInf(v, 0) && v > peak {
			peak = v
		}
	}
	if peak <= 0 {
		return defaultAxis
	}

	for _, step := range axisSteps {
		ticks := math.Ceil(peak / step)
		if ticks <= maxAxisTicks {
			return domain.Axis{Step: step, Max: step * ticks}
		}
	}

	step := math.Pow(10, math.Floor(math.Log10(peak)))
	for math.Ceil(peak/step) > maxAxisTicks {
		step *= 10
	}
	return domain.Axis{Step: step, Max: step * math.Ceil(peak/step)}
}
