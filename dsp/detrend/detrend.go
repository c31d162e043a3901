// Package detrend removes constant and linear trends from sampled data.
//
// Trend removal is the first step of background-noise PSD estimation: raw
// seismic counts carry sensor offsets and slow drifts that would otherwise
// leak into the lowest frequency bins.
package detrend

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Demean subtracts the mean of src and writes the result into dst.
// dst and src may alias; both must have the same length.
func Demean(dst, src []float64) error {
	if len(dst) != len(src) {
		return fmt.Errorf("detrend: length mismatch: %d != %d", len(dst), len(src))
	}

	if len(src) == 0 {
		return nil
	}

	sum := 0.0
	for _, v := range src {
		sum += v
	}

	mean := sum / float64(len(src))
	for i, v := range src {
		dst[i] = v - mean
	}

	return nil
}

// Linear removes the mean and then the least-squares linear trend of the
// residual, writing the result into dst. dst and src may alias.
func Linear(dst, src []float64) error {
	if err := Demean(dst, src); err != nil {
		return err
	}

	if len(dst) < 2 {
		return nil
	}

	xs := make([]float64, len(dst))
	for i := range xs {
		xs[i] = float64(i)
	}

	alpha, beta := stat.LinearRegression(xs, dst, nil, false)
	for i := range dst {
		dst[i] -= alpha + beta*xs[i]
	}

	return nil
}
