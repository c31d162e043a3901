package welch

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-seis/dsp/detrend"
	"github.com/cwbudde/algo-seis/dsp/window"
)

// Config holds Welch estimation parameters.
type Config struct {
	// SampleRate in Hz. Must be > 0.
	SampleRate float64
	// SegmentLength is the averaging segment length in samples.
	// Must be in [1, len(data)].
	SegmentLength int
	// Overlap is the number of samples shared by consecutive segments.
	// Must be in [0, SegmentLength).
	Overlap int
	// Window selects the taper applied to each segment (periodic form).
	Window window.Type
}

// Estimate computes a one-sided power spectral density estimate by
// averaging modified periodograms of overlapping segments.
//
// Each segment has its mean removed, is tapered by the configured window
// and transformed with an FFT of the next power of two above the segment
// length (zero padded). The returned frequencies ascend from 0 to the
// Nyquist frequency; power is density-scaled (units^2/Hz) so that
// integrating over frequency recovers the signal variance.
func Estimate(data []float64, cfg Config) (freqs, power []float64, err error) {
	if len(data) == 0 {
		return nil, nil, fmt.Errorf("welch: input must not be empty")
	}

	if cfg.SampleRate <= 0 {
		return nil, nil, fmt.Errorf("welch: sample rate must be > 0: %g", cfg.SampleRate)
	}

	if cfg.SegmentLength <= 0 || cfg.SegmentLength > len(data) {
		return nil, nil, fmt.Errorf("welch: segment length must be in [1, %d]: %d", len(data), cfg.SegmentLength)
	}

	if cfg.Overlap < 0 || cfg.Overlap >= cfg.SegmentLength {
		return nil, nil, fmt.Errorf("welch: overlap must be in [0, %d): %d", cfg.SegmentLength, cfg.Overlap)
	}

	nseg := cfg.SegmentLength
	step := nseg - cfg.Overlap
	nfft := nextPowerOf2(nseg)
	binCount := nfft/2 + 1

	plan, err := algofft.NewPlan64(nfft)
	if err != nil {
		return nil, nil, fmt.Errorf("welch: fft plan: %w", err)
	}

	coeffs := window.Generate(cfg.Window, nseg)
	scale := 1 / (cfg.SampleRate * window.SumSquares(coeffs))

	seg := make([]float64, nseg)
	in := make([]complex128, nfft)
	out := make([]complex128, nfft)
	acc := make([]float64, binCount)

	segments := 0

	for off := 0; off+nseg <= len(data); off += step {
		copy(seg, data[off:off+nseg])

		if err := detrend.Demean(seg, seg); err != nil {
			return nil, nil, fmt.Errorf("welch: %w", err)
		}

		windowed, err := window.ApplyCoefficients(seg, coeffs)
		if err != nil {
			return nil, nil, fmt.Errorf("welch: %w", err)
		}

		for i := range in {
			if i < nseg {
				in[i] = complex(windowed[i], 0)
			} else {
				in[i] = 0
			}
		}

		if err := plan.Forward(out, in); err != nil {
			return nil, nil, fmt.Errorf("welch: fft: %w", err)
		}

		for k := 0; k < binCount; k++ {
			re := real(out[k])
			im := imag(out[k])
			acc[k] += re*re + im*im
		}

		segments++
	}

	freqs = make([]float64, binCount)
	power = make([]float64, binCount)

	for k := 0; k < binCount; k++ {
		freqs[k] = float64(k) * cfg.SampleRate / float64(nfft)
		power[k] = acc[k] * scale / float64(segments)
	}

	// One-sided spectrum: interior bins gather energy from the mirrored
	// negative frequencies; DC and Nyquist do not.
	for k := 1; k < binCount-1; k++ {
		power[k] *= 2
	}

	return freqs, power, nil
}

// Resolution returns the frequency bin spacing in Hz that [Estimate]
// produces for the given configuration.
func Resolution(cfg Config) float64 {
	if cfg.SampleRate <= 0 || cfg.SegmentLength <= 0 {
		return 0
	}

	return cfg.SampleRate / float64(nextPowerOf2(cfg.SegmentLength))
}

// nextPowerOf2 returns the next power of 2 >= n.
func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}

	p := 1
	for p < n {
		p <<= 1
	}

	return p
}
