// Package octave builds geometric period bins for fractional-octave
// smoothing of noise spectra.
//
// Bands are spaced and sized in octaves of period, the convention used for
// long-term seismic background-noise characterization: every bin spans the
// same width in log-period, and consecutive bins advance by a fixed
// fraction of an octave.
package octave

import (
	"fmt"
	"math"
)

// Bins holds aligned per-bin geometry produced by [BuildPeriodBins].
//
// EdgesLeft/EdgesRight bound the points assigned to each bin. The plot
// edges are narrower cosmetic bounds centered on each bin for rendering
// non-overlapping bars; they play no role in point assignment.
type Bins struct {
	EdgesLeft      []float64
	PlotEdgesLeft  []float64
	Centers        []float64
	PlotEdgesRight []float64
	EdgesRight     []float64
}

// Len returns the number of bins.
func (b Bins) Len() int {
	return len(b.Centers)
}

// BuildPeriodBins constructs geometric period bins covering
// [minPeriod, maxPeriod].
//
// Each bin spans smoothingWidthOctaves octaves (EdgesRight/EdgesLeft ==
// 2^smoothingWidthOctaves exactly, by construction) and consecutive bins
// advance by stepOctaves octaves. The first bin is centered on minPeriod;
// bins are appended while the center remains below maxPeriod, so at least
// one bin is produced even for a degenerate single-value range.
func BuildPeriodBins(smoothingWidthOctaves, stepOctaves, minPeriod, maxPeriod float64) (Bins, error) {
	if smoothingWidthOctaves <= 0 {
		return Bins{}, fmt.Errorf("octave: smoothing width must be > 0 octaves: %g", smoothingWidthOctaves)
	}

	if stepOctaves <= 0 {
		return Bins{}, fmt.Errorf("octave: step must be > 0 octaves: %g", stepOctaves)
	}

	if minPeriod <= 0 {
		return Bins{}, fmt.Errorf("octave: periods must be > 0: %g", minPeriod)
	}

	if maxPeriod < minPeriod {
		return Bins{}, fmt.Errorf("octave: period range inverted: [%g, %g]", minPeriod, maxPeriod)
	}

	stepFactor := math.Pow(2, stepOctaves)
	smoothingFactor := math.Pow(2, smoothingWidthOctaves)

	left := minPeriod / math.Sqrt(smoothingFactor)
	right := left * smoothingFactor
	center := math.Sqrt(left * right)

	bins := Bins{
		EdgesLeft:  []float64{left},
		Centers:    []float64{center},
		EdgesRight: []float64{right},
	}

	for center < maxPeriod {
		left *= stepFactor
		right = left * smoothingFactor
		center = math.Sqrt(left * right)

		bins.EdgesLeft = append(bins.EdgesLeft, left)
		bins.Centers = append(bins.Centers, center)
		bins.EdgesRight = append(bins.EdgesRight, right)
	}

	halfStep := math.Sqrt(stepFactor)
	bins.PlotEdgesLeft = make([]float64, len(bins.Centers))
	bins.PlotEdgesRight = make([]float64, len(bins.Centers))

	for i, c := range bins.Centers {
		bins.PlotEdgesLeft[i] = c / halfStep
		bins.PlotEdgesRight[i] = c * halfStep
	}

	return bins, nil
}
