package window

import (
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-vecmath"
)

// Type identifies a window function.
type Type int

const (
	TypeBoxcar Type = iota
	TypeBartlett
	TypeHann
	TypeHamming
	TypeBlackman
	TypeFlatTop
)

// Cosine-sum coefficients, evaluated as sum(c[k] * cos(k * 2*pi*x)).
var (
	hannCoeffs     = []float64{0.5, -0.5}
	hammingCoeffs  = []float64{0.54, -0.46}
	blackmanCoeffs = []float64{0.42, -0.5, 0.08}
	flatTopCoeffs  = []float64{0.21557895, -0.41663158, 0.277263158, -0.083578947, 0.006947368}
)

var typeNames = map[Type]string{
	TypeBoxcar:   "boxcar",
	TypeBartlett: "bartlett",
	TypeHann:     "hann",
	TypeHamming:  "hamming",
	TypeBlackman: "blackman",
	TypeFlatTop:  "flattop",
}

var namesToType = map[string]Type{
	"boxcar":      TypeBoxcar,
	"rectangular": TypeBoxcar,
	"bartlett":    TypeBartlett,
	"triangle":    TypeBartlett,
	"hann":        TypeHann,
	"hanning":     TypeHann,
	"hamming":     TypeHamming,
	"blackman":    TypeBlackman,
	"flattop":     TypeFlatTop,
}

// String returns the canonical lowercase name of the window type.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}

	return fmt.Sprintf("window.Type(%d)", int(t))
}

// Parse resolves a window name to its Type. Names are matched
// case-insensitively and follow the usual spectral-analysis vocabulary
// (hann, hamming, blackman, bartlett, flattop, boxcar).
func Parse(name string) (Type, error) {
	t, ok := namesToType[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", errUnknownWindow, name)
	}

	return t, nil
}

// Option configures window generation.
type Option func(*config)

type config struct {
	symmetric bool
}

// WithSymmetric selects the symmetric (filter design) form instead of the
// default periodic form used for spectral framing.
func WithSymmetric() Option {
	return func(c *config) {
		c.symmetric = true
	}
}

// Generate returns window coefficients of the given length.
//
// The default form is periodic, which is the correct framing for averaged
// periodogram estimates; pass [WithSymmetric] for the symmetric variant.
func Generate(t Type, length int, opts ...Option) []float64 {
	if length <= 0 {
		return nil
	}

	var cfg config

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	out := make([]float64, length)
	for i := range out {
		out[i] = evalWindow(t, samplePosition(i, length, !cfg.symmetric))
	}

	return out
}

// Apply multiplies buf in-place by the selected window.
func Apply(t Type, buf []float64, opts ...Option) {
	if len(buf) == 0 {
		return
	}

	coeffs := Generate(t, len(buf), opts...)
	if len(coeffs) != len(buf) {
		return
	}

	vecmath.MulBlockInPlace(buf, coeffs)
}

// ApplyCoefficients multiplies samples with coefficients and returns a new slice.
func ApplyCoefficients(samples, coeffs []float64) ([]float64, error) {
	if len(samples) != len(coeffs) {
		return nil, errMismatchedLength
	}

	out := make([]float64, len(samples))
	vecmath.MulBlock(out, samples, coeffs)

	return out, nil
}

// SumSquares returns sum(w[n]^2), the density normalization term for
// windowed periodograms.
func SumSquares(coeffs []float64) float64 {
	sum := 0.0
	for _, c := range coeffs {
		sum += c * c
	}

	return sum
}

func evalWindow(t Type, x float64) float64 {
	if x < 0 {
		x = 0
	}

	if x > 1 {
		x = 1
	}

	switch t {
	case TypeBoxcar:
		return 1
	case TypeBartlett:
		return 1 - math.Abs(2*x-1)
	case TypeHann:
		return cosineFromCoeffs(x, hannCoeffs)
	case TypeHamming:
		return cosineFromCoeffs(x, hammingCoeffs)
	case TypeBlackman:
		return cosineFromCoeffs(x, blackmanCoeffs)
	case TypeFlatTop:
		return cosineFromCoeffs(x, flatTopCoeffs)
	default:
		return 1
	}
}

func cosineFromCoeffs(x float64, coeffs []float64) float64 {
	phase := 2 * math.Pi * x

	sum := 0.0
	for k, c := range coeffs {
		sum += c * math.Cos(float64(k)*phase)
	}

	return sum
}

func samplePosition(n, size int, periodic bool) float64 {
	if size <= 1 {
		return 0
	}

	den := float64(size - 1)
	if periodic {
		den = float64(size)
	}

	return float64(n) / den
}
