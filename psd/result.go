package psd

import "time"

// NumDBBins is the number of fixed 1 dB histogram bins. Bin i covers
// [-200+i, -199+i) dB; values outside [-200, -51) are not counted.
// Every Result in a system shares this grid, which is what makes
// cross-file histogram aggregation well defined.
const NumDBBins = 149

// dbBinFloor is the left edge of the first histogram bin in dB.
const dbBinFloor = -200.0

// DBBinEdges returns the left edges of the fixed histogram bins
// (-200, -199, ..., -52 dB) as a fresh slice.
func DBBinEdges() []float64 {
	edges := make([]float64, NumDBBins)
	for i := range edges {
		edges[i] = dbBinFloor + float64(i)
	}

	return edges
}

// Instrument identifies the physical quantity recorded by the sensor.
type Instrument int

const (
	// Velocity instruments record m/s; their spectra are converted to
	// acceleration power by omega^2 scaling.
	Velocity Instrument = iota + 1
	// Acceleration instruments record m/s^2 and need no conversion.
	Acceleration
)

// String returns the display name of the instrument type.
func (i Instrument) String() string {
	switch i {
	case Velocity:
		return "velocity"
	case Acceleration:
		return "acceleration"
	default:
		return "unknown"
	}
}

// Segment is one in-memory waveform handed in by a file-reading caller.
// The estimator never mutates it.
type Segment struct {
	// Samples are raw instrument counts.
	Samples []float64
	// SampleRate in Hz. Must be > 0.
	SampleRate float64
	// Sensitivity converts counts to physical units (counts per m/s or
	// counts per m/s^2). Must be > 0.
	Sensitivity float64
	// Instrument selects the unit conversion applied to the spectrum.
	Instrument Instrument
	// StartTime is carried through for downstream time grouping only.
	StartTime time.Time
}

// Result is the outcome of one estimation run. It is created once per
// segment and not modified afterwards.
type Result struct {
	// Frequencies is the clipped full-resolution frequency axis, Hz,
	// strictly ascending.
	Frequencies []float64
	// PSD is the acceleration noise power in dB rel 1 (m/s^2)^2/Hz, one
	// value per frequency. Power is floored at 1e-30 before conversion,
	// so the curve is always finite.
	PSD []float64

	// SmoothedFrequencies is the octave-binned axis, strictly ascending.
	SmoothedFrequencies []float64
	// SmoothedPSD is the mean dB power per octave bin; NaN where the bin
	// holds no spectral points.
	SmoothedPSD []float64

	// Distribution counts, per smoothed bin, the full-resolution dB
	// values falling into each of the fixed [NumDBBins] 1 dB bins.
	Distribution [][]float64
	// DBBinEdges are the left edges of the fixed dB bins (see
	// [DBBinEdges]).
	DBBinEdges []float64

	// Config is the exact configuration used, snapshotted for
	// reproducibility.
	Config Config
	// StartTime copies the segment's start time for time grouping.
	StartTime time.Time
}
