// Package noisemodel provides the Peterson (1993) New Low/High Noise
// Model reference curves used to judge site noise against expected Earth
// background levels.
//
// The models are piecewise linear in log-period: within each segment the
// acceleration power is A + B*log10(P) dB. The coefficient tables ship as
// an embedded resource, parsed once on first use; the resulting curves
// are immutable and safe for unlimited concurrent reads.
package noisemodel

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
)

//go:embed noise_models.json
var rawModels []byte

// ErrResource reports a missing or malformed noise-model resource. This
// is a configuration error with no fallback: the same failure repeats on
// every call.
var ErrResource = errors.New("noisemodel: invalid noise model resource")

// Curves holds both reference models sampled on a shared period grid,
// ascending in period.
type Curves struct {
	Periods     []float64
	LowNoiseDB  []float64
	HighNoiseDB []float64
}

// model is one piecewise table; rows are (period, A, B) with each row
// valid from its period up to the next row's period.
type model struct {
	periods []float64
	a       []float64
	b       []float64
	max     float64
}

func (m *model) eval(period float64) (float64, error) {
	if period < m.periods[0] || period > m.max {
		return 0, fmt.Errorf("noisemodel: period %g s outside model range [%g, %g]",
			period, m.periods[0], m.max)
	}

	i := sort.SearchFloat64s(m.periods, period)
	if i == len(m.periods) || m.periods[i] > period {
		i--
	}

	return m.a[i] + m.b[i]*math.Log10(period), nil
}

var (
	loadOnce sync.Once
	loaded   struct {
		low    *model
		high   *model
		curves *Curves
		err    error
	}
)

// Load parses the embedded models on first use and returns the sampled
// curves. The returned value is shared and must not be modified.
func Load() (*Curves, error) {
	loadOnce.Do(loadModels)

	return loaded.curves, loaded.err
}

// EvalLow returns the NLNM acceleration power in dB at the given period.
func EvalLow(period float64) (float64, error) {
	loadOnce.Do(loadModels)

	if loaded.err != nil {
		return 0, loaded.err
	}

	return loaded.low.eval(period)
}

// EvalHigh returns the NHNM acceleration power in dB at the given period.
func EvalHigh(period float64) (float64, error) {
	loadOnce.Do(loadModels)

	if loaded.err != nil {
		return 0, loaded.err
	}

	return loaded.high.eval(period)
}

func loadModels() {
	loaded.low, loaded.high, loaded.curves, loaded.err = parseModels(rawModels)
}

type resourceDoc struct {
	MaxPeriod float64      `json:"max_period"`
	LowNoise  [][3]float64 `json:"low_noise"`
	HighNoise [][3]float64 `json:"high_noise"`
}

func parseModels(raw []byte) (low, high *model, curves *Curves, err error) {
	var doc resourceDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %v", ErrResource, err)
	}

	if doc.MaxPeriod <= 0 {
		return nil, nil, nil, fmt.Errorf("%w: missing max_period", ErrResource)
	}

	low, err = buildModel(doc.LowNoise, doc.MaxPeriod, "low_noise")
	if err != nil {
		return nil, nil, nil, err
	}

	high, err = buildModel(doc.HighNoise, doc.MaxPeriod, "high_noise")
	if err != nil {
		return nil, nil, nil, err
	}

	curves, err = sampleCurves(low, high)
	if err != nil {
		return nil, nil, nil, err
	}

	return low, high, curves, nil
}

func buildModel(rows [][3]float64, maxPeriod float64, name string) (*model, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: missing %s table", ErrResource, name)
	}

	m := &model{
		periods: make([]float64, len(rows)),
		a:       make([]float64, len(rows)),
		b:       make([]float64, len(rows)),
		max:     maxPeriod,
	}

	for i, row := range rows {
		if row[0] <= 0 {
			return nil, fmt.Errorf("%w: %s row %d has non-positive period", ErrResource, name, i)
		}

		if i > 0 && row[0] <= m.periods[i-1] {
			return nil, fmt.Errorf("%w: %s rows not ascending at %d", ErrResource, name, i)
		}

		m.periods[i] = row[0]
		m.a[i] = row[1]
		m.b[i] = row[2]
	}

	if m.periods[len(m.periods)-1] >= maxPeriod {
		return nil, fmt.Errorf("%w: %s table exceeds max_period", ErrResource, name)
	}

	return m, nil
}

// sampleCurves evaluates both models on their merged breakpoint grid,
// restricted to the periods where both are defined.
func sampleCurves(low, high *model) (*Curves, error) {
	lo := math.Max(low.periods[0], high.periods[0])
	hi := math.Min(low.max, high.max)

	grid := make([]float64, 0, len(low.periods)+len(high.periods)+1)
	for _, p := range low.periods {
		if p >= lo && p <= hi {
			grid = append(grid, p)
		}
	}

	for _, p := range high.periods {
		if p >= lo && p <= hi {
			grid = append(grid, p)
		}
	}

	grid = append(grid, hi)
	sort.Float64s(grid)

	curves := &Curves{}
	for i, p := range grid {
		if i > 0 && p == grid[i-1] {
			continue
		}

		lv, err := low.eval(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrResource, err)
		}

		hv, err := high.eval(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrResource, err)
		}

		curves.Periods = append(curves.Periods, p)
		curves.LowNoiseDB = append(curves.LowNoiseDB, lv)
		curves.HighNoiseDB = append(curves.HighNoiseDB, hv)
	}

	return curves, nil
}
