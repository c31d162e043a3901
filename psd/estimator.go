package psd

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-seis/dsp/detrend"
	"github.com/cwbudde/algo-seis/dsp/filter"
	"github.com/cwbudde/algo-seis/dsp/octave"
	"github.com/cwbudde/algo-seis/dsp/welch"
)

const (
	// smoothingWidthOctaves and smoothingStepOctaves fix the octave
	// binning geometry: full-octave bands advancing in 1/8 octave steps,
	// the McNamara-Buland convention.
	smoothingWidthOctaves = 1.0
	smoothingStepOctaves  = 0.125

	// minPower floors spectral power before dB conversion so zero power
	// (for instance an all-zero record after filtering) maps to -300 dB
	// instead of -Inf. Floored values fall far below the histogram range
	// and are dropped from the distribution.
	minPower = 1e-30
)

// Estimator turns waveform segments into PSD results using a fixed
// configuration. It keeps its most recent result for the caller's
// convenience and must therefore not be shared between concurrent
// workers; create one Estimator per worker instead.
type Estimator struct {
	cfg  Config
	last *Result
}

// NewEstimator returns an Estimator bound to the given configuration.
func NewEstimator(cfg Config) *Estimator {
	return &Estimator{cfg: cfg}
}

// Config returns the estimator's configuration.
func (e *Estimator) Config() Config {
	return e.cfg
}

// Result returns the most recent result of Calculate, or nil before the
// first successful run.
func (e *Estimator) Result() *Result {
	return e.last
}

// Calculate runs the full estimation pipeline on one segment:
// detrend, count-to-unit conversion, optional zero-phase Butterworth
// pre-filter, Welch estimation, frequency clipping, optional theoretical
// response removal, conversion to acceleration power, dB conversion, and
// octave smoothing with the fixed dB histogram.
//
// The call is synchronous, deterministic and single-pass; any error is
// terminal for this segment and leaves the previous result in place.
func (e *Estimator) Calculate(seg Segment) (*Result, error) {
	if err := validateSegment(seg); err != nil {
		return nil, err
	}

	work := make([]float64, len(seg.Samples))
	if err := detrend.Linear(work, seg.Samples); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	vecmath.ScaleBlock(work, work, 1/seg.Sensitivity)

	if e.cfg.FilterEnabled {
		filtered, err := e.applyFilter(work, seg.SampleRate)
		if err != nil {
			return nil, err
		}

		work = filtered
	}

	segLen := int(math.Round(e.cfg.WindowSeconds * seg.SampleRate))
	if segLen > len(work) || segLen <= 0 {
		segLen = len(work)
	}

	overlap := int(e.cfg.OverlapFraction * float64(segLen))

	freqs, power, err := welch.Estimate(work, welch.Config{
		SampleRate:    seg.SampleRate,
		SegmentLength: segLen,
		Overlap:       overlap,
		Window:        e.cfg.Window,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	freqs, power = clipRange(freqs, power, e.cfg.FreqMin, e.cfg.FreqMax)
	if !hasPositiveFrequency(freqs) {
		return nil, fmt.Errorf("%w: frequency clip [%g, %g] leaves no usable bins",
			ErrInvalidConfig, e.cfg.FreqMin, e.cfg.FreqMax)
	}

	if e.cfg.ResponseRemoval {
		removeResponse(power, freqs, e.cfg.DampingRatio, e.cfg.NaturalPeriod)
	}

	if seg.Instrument == Velocity {
		for i, f := range freqs {
			omega := 2 * math.Pi * f
			power[i] *= omega * omega
		}
	}

	psdDB := make([]float64, len(power))
	for i, p := range power {
		if p < minPower {
			p = minPower
		}

		psdDB[i] = 10 * math.Log10(p)
	}

	smoothedFreqs, smoothedPSD, dist, err := smoothAndBin(freqs, psdDB)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Frequencies:         freqs,
		PSD:                 psdDB,
		SmoothedFrequencies: smoothedFreqs,
		SmoothedPSD:         smoothedPSD,
		Distribution:        dist,
		DBBinEdges:          DBBinEdges(),
		Config:              e.cfg,
		StartTime:           seg.StartTime,
	}

	e.last = result

	return result, nil
}

func validateSegment(seg Segment) error {
	if len(seg.Samples) == 0 {
		return fmt.Errorf("%w: segment has no samples", ErrInvalidInput)
	}

	if seg.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be > 0: %g", ErrInvalidInput, seg.SampleRate)
	}

	if seg.Sensitivity <= 0 {
		return fmt.Errorf("%w: sensitivity must be > 0: %g", ErrInvalidInput, seg.Sensitivity)
	}

	if seg.Instrument != Velocity && seg.Instrument != Acceleration {
		return fmt.Errorf("%w: unknown instrument type: %d", ErrInvalidConfig, int(seg.Instrument))
	}

	return nil
}

func (e *Estimator) applyFilter(data []float64, sampleRate float64) ([]float64, error) {
	var (
		chain *filter.Chain
		err   error
	)

	switch e.cfg.FilterKind {
	case FilterHighPass:
		chain, err = filter.ButterworthHP(e.cfg.CutoffFreq, filterOrder, sampleRate)
	case FilterBandPass:
		chain, err = filter.ButterworthBP(e.cfg.LowFreq, e.cfg.HighFreq, filterOrder, sampleRate)
	default:
		return nil, fmt.Errorf("%w: unknown filter kind: %d", ErrInvalidConfig, int(e.cfg.FilterKind))
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	out, err := filter.ZeroPhase(chain, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	return out, nil
}

// clipRange keeps only the bins with minHz <= f <= maxHz.
func clipRange(freqs, power []float64, minHz, maxHz float64) ([]float64, []float64) {
	outF := freqs[:0:0]
	outP := power[:0:0]

	for i, f := range freqs {
		if f >= minHz && f <= maxHz {
			outF = append(outF, f)
			outP = append(outP, power[i])
		}
	}

	return outF, outP
}

func hasPositiveFrequency(freqs []float64) bool {
	for _, f := range freqs {
		if f > 0 {
			return true
		}
	}

	return false
}

// removeResponse divides the power spectrum in place by |H(j*omega)|^2 of
// the theoretical second-order sensor transfer function
//
//	H(s) = s^2 / (s^2 + 2*zeta*omega_n*s + omega_n^2)
//
// with omega_n = 2*pi/naturalPeriod, recovering true ground motion when no
// measured response curve is available.
func removeResponse(power, freqs []float64, dampingRatio, naturalPeriod float64) {
	omegaN := 2 * math.Pi / naturalPeriod

	for i, f := range freqs {
		omega := 2 * math.Pi * f

		num := omega * omega * omega * omega
		reDen := omegaN*omegaN - omega*omega
		imDen := 2 * dampingRatio * omegaN * omega
		magSq := num / (reDen*reDen + imDen*imDen)

		if magSq > 0 {
			power[i] /= magSq
		}
	}
}

// smoothAndBin performs octave smoothing in period space and builds the
// fixed dB histogram per smoothed bin. Results are returned in strictly
// ascending frequency order.
func smoothAndBin(freqs, psdDB []float64) (smoothedFreqs, smoothedPSD []float64, dist [][]float64, err error) {
	// Assemble the period axis in ascending order, skipping any
	// non-positive frequencies which have no finite period.
	periods := make([]float64, 0, len(freqs))
	dbByPeriod := make([]float64, 0, len(freqs))

	for i := len(freqs) - 1; i >= 0; i-- {
		if freqs[i] <= 0 {
			continue
		}

		periods = append(periods, 1/freqs[i])
		dbByPeriod = append(dbByPeriod, psdDB[i])
	}

	bins, err := octave.BuildPeriodBins(smoothingWidthOctaves, smoothingStepOctaves,
		periods[0], periods[len(periods)-1])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	n := bins.Len()
	meanByPeriod := make([]float64, n)
	distByPeriod := make([][]float64, n)

	for b := 0; b < n; b++ {
		left := bins.EdgesLeft[b]
		right := bins.EdgesRight[b]
		row := make([]float64, NumDBBins)

		sum := 0.0
		count := 0

		for i, p := range periods {
			if p < left || p > right {
				continue
			}

			v := dbByPeriod[i]
			sum += v
			count++

			if idx := int(math.Floor(v - dbBinFloor)); idx >= 0 && idx < NumDBBins {
				row[idx]++
			}
		}

		if count > 0 {
			meanByPeriod[b] = sum / float64(count)
		} else {
			meanByPeriod[b] = math.NaN()
		}

		distByPeriod[b] = row
	}

	// Bin centers ascend in period, hence descend in frequency; reverse
	// all three outputs so the contract of ascending frequencies holds.
	smoothedFreqs = make([]float64, n)
	smoothedPSD = make([]float64, n)
	dist = make([][]float64, n)

	for b := 0; b < n; b++ {
		r := n - 1 - b
		smoothedFreqs[b] = 1 / bins.Centers[r]
		smoothedPSD[b] = meanByPeriod[r]
		dist[b] = distByPeriod[r]
	}

	return smoothedFreqs, smoothedPSD, dist, nil
}
