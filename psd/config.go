package psd

import (
	"fmt"

	"github.com/cwbudde/algo-seis/dsp/window"
)

// FilterKind selects the optional pre-filter topology.
type FilterKind int

const (
	FilterHighPass FilterKind = iota
	FilterBandPass
)

// String returns the display name of the filter kind.
func (k FilterKind) String() string {
	switch k {
	case FilterHighPass:
		return "high-pass"
	case FilterBandPass:
		return "band-pass"
	default:
		return fmt.Sprintf("psd.FilterKind(%d)", int(k))
	}
}

// filterOrder is the Butterworth order used for both pre-filter kinds.
const filterOrder = 5

// Config holds validated PSD estimation parameters. The zero value is not
// usable; construct with [NewConfig], which starts from [DefaultConfig]
// values and rejects invalid settings before any waveform is touched.
type Config struct {
	// FilterEnabled applies a zero-phase Butterworth pre-filter.
	FilterEnabled bool
	FilterKind    FilterKind
	// CutoffFreq is the high-pass corner in Hz.
	CutoffFreq float64
	// LowFreq/HighFreq are the band-pass corners in Hz.
	LowFreq  float64
	HighFreq float64

	// WindowSeconds is the Welch averaging segment length in seconds.
	WindowSeconds float64
	// OverlapFraction is the per-segment overlap in [0, 1).
	OverlapFraction float64
	// Window tapers each Welch segment.
	Window window.Type

	// FreqMin/FreqMax clip the estimated spectrum, inclusive on both ends.
	FreqMin float64
	FreqMax float64

	// ResponseRemoval divides the spectrum by the squared magnitude of the
	// theoretical sensor transfer function before unit conversion.
	ResponseRemoval bool
	DampingRatio    float64
	NaturalPeriod   float64
}

// DefaultConfig returns the standard long-term noise survey settings:
// 1000 s hann segments with 80% overlap, a 0.001-100 Hz clip, 0.1 Hz
// high-pass and 0.1-100 Hz band corners when filtering is switched on,
// and a 0.707 damping / 10 s natural period sensor model.
func DefaultConfig() Config {
	return Config{
		FilterKind:      FilterHighPass,
		CutoffFreq:      0.1,
		LowFreq:         0.1,
		HighFreq:        100,
		WindowSeconds:   1000,
		OverlapFraction: 0.8,
		Window:          window.TypeHann,
		FreqMin:         0.001,
		FreqMax:         100,
		DampingRatio:    0.707,
		NaturalPeriod:   10,
	}
}

// Option configures [NewConfig].
type Option func(*builder)

type builder struct {
	cfg Config
	err error
}

func (b *builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// WithHighPassFilter enables a zero-phase high-pass pre-filter.
func WithHighPassFilter(cutoffHz float64) Option {
	return func(b *builder) {
		b.cfg.FilterEnabled = true
		b.cfg.FilterKind = FilterHighPass
		b.cfg.CutoffFreq = cutoffHz
	}
}

// WithBandPassFilter enables a zero-phase band-pass pre-filter.
func WithBandPassFilter(lowHz, highHz float64) Option {
	return func(b *builder) {
		b.cfg.FilterEnabled = true
		b.cfg.FilterKind = FilterBandPass
		b.cfg.LowFreq = lowHz
		b.cfg.HighFreq = highHz
	}
}

// WithWindowSeconds sets the Welch segment length in seconds.
func WithWindowSeconds(seconds float64) Option {
	return func(b *builder) {
		b.cfg.WindowSeconds = seconds
	}
}

// WithOverlap sets the Welch segment overlap fraction in [0, 1).
func WithOverlap(fraction float64) Option {
	return func(b *builder) {
		b.cfg.OverlapFraction = fraction
	}
}

// WithWindowType sets the Welch segment taper.
func WithWindowType(t window.Type) Option {
	return func(b *builder) {
		b.cfg.Window = t
	}
}

// WithWindowName sets the Welch segment taper from its configuration name
// (hann, hamming, blackman, bartlett, flattop, boxcar).
func WithWindowName(name string) Option {
	return func(b *builder) {
		t, err := window.Parse(name)
		if err != nil {
			b.fail(fmt.Errorf("%w: %v", ErrInvalidConfig, err))
			return
		}

		b.cfg.Window = t
	}
}

// WithFrequencyRange sets the inclusive clip range for the estimated
// spectrum.
func WithFrequencyRange(minHz, maxHz float64) Option {
	return func(b *builder) {
		b.cfg.FreqMin = minHz
		b.cfg.FreqMax = maxHz
	}
}

// WithResponseRemoval enables theoretical instrument-response
// deconvolution with the given damping ratio and natural period (s).
func WithResponseRemoval(dampingRatio, naturalPeriodSeconds float64) Option {
	return func(b *builder) {
		b.cfg.ResponseRemoval = true
		b.cfg.DampingRatio = dampingRatio
		b.cfg.NaturalPeriod = naturalPeriodSeconds
	}
}

// NewConfig builds a validated Config from the defaults plus options.
// The first invalid setting aborts construction with an error wrapping
// [ErrInvalidConfig].
func NewConfig(opts ...Option) (Config, error) {
	b := builder{cfg: DefaultConfig()}

	for _, opt := range opts {
		if opt != nil {
			opt(&b)
		}
	}

	if b.err != nil {
		return Config{}, b.err
	}

	if err := b.cfg.validate(); err != nil {
		return Config{}, err
	}

	return b.cfg, nil
}

func (c Config) validate() error {
	if c.WindowSeconds <= 0 {
		return fmt.Errorf("%w: window length must be > 0 s: %g", ErrInvalidConfig, c.WindowSeconds)
	}

	if c.OverlapFraction < 0 || c.OverlapFraction >= 1 {
		return fmt.Errorf("%w: overlap fraction must be in [0, 1): %g", ErrInvalidConfig, c.OverlapFraction)
	}

	if c.FreqMin < 0 || c.FreqMax <= 0 || c.FreqMin >= c.FreqMax {
		return fmt.Errorf("%w: frequency clip range invalid: [%g, %g]", ErrInvalidConfig, c.FreqMin, c.FreqMax)
	}

	if c.FilterEnabled {
		switch c.FilterKind {
		case FilterHighPass:
			if c.CutoffFreq <= 0 {
				return fmt.Errorf("%w: high-pass cutoff must be > 0 Hz: %g", ErrInvalidConfig, c.CutoffFreq)
			}
		case FilterBandPass:
			if c.LowFreq <= 0 || c.HighFreq <= c.LowFreq {
				return fmt.Errorf("%w: band-pass corners invalid: [%g, %g]", ErrInvalidConfig, c.LowFreq, c.HighFreq)
			}
		default:
			return fmt.Errorf("%w: unknown filter kind: %d", ErrInvalidConfig, int(c.FilterKind))
		}
	}

	if c.DampingRatio <= 0 {
		return fmt.Errorf("%w: damping ratio must be > 0: %g", ErrInvalidConfig, c.DampingRatio)
	}

	if c.NaturalPeriod <= 0 {
		return fmt.Errorf("%w: natural period must be > 0 s: %g", ErrInvalidConfig, c.NaturalPeriod)
	}

	return nil
}
