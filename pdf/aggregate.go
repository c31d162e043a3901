package pdf

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Warning reports a non-fatal aggregation problem. Warnings never abort
// an aggregation; they accompany the best-effort result.
type Warning struct {
	Source string
	Reason string
}

func (w Warning) String() string {
	if w.Source == "" {
		return w.Reason
	}

	return fmt.Sprintf("%s: %s", w.Source, w.Reason)
}

// TimeRange is an inclusive [Start, End] window.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window, boundaries
// included. A zero Start or End leaves that side unbounded.
func (r TimeRange) Contains(t time.Time) bool {
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}

	if !r.End.IsZero() && t.After(r.End) {
		return false
	}

	return true
}

// Group names a set of artifact files that belong together, typically
// one station channel.
type Group struct {
	Key   string
	Paths []string
}

// Accumulator sums compatible distribution matrices incrementally.
// Summing partial accumulators with [Accumulator.Merge] yields the same
// totals as feeding every distribution to a single accumulator, so large
// file sets can be aggregated in slices without holding all matrices in
// memory.
type Accumulator struct {
	edges []float64
	sum   [][]float64
}

// NewAccumulator returns an empty accumulator. The first added
// distribution fixes the shape and dB grid.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Empty reports whether anything has been accumulated.
func (acc *Accumulator) Empty() bool {
	return acc.sum == nil
}

// Add sums a distribution into the accumulator. An input whose shape or
// dB-bin grid differs from what the accumulator already holds is
// rejected with a Warning and the accumulator is left unchanged.
func (acc *Accumulator) Add(dist [][]float64, edges []float64) *Warning {
	if len(dist) == 0 || len(edges) == 0 {
		return &Warning{Reason: "empty distribution"}
	}

	for i, row := range dist {
		if len(row) != len(edges) {
			return &Warning{Reason: fmt.Sprintf("distribution row %d has %d entries, want %d",
				i, len(row), len(edges))}
		}
	}

	if acc.Empty() {
		acc.edges = append([]float64(nil), edges...)
		acc.sum = make([][]float64, len(dist))

		for i, row := range dist {
			acc.sum[i] = append([]float64(nil), row...)
		}

		return nil
	}

	if w := acc.compatible(len(dist), edges); w != nil {
		return w
	}

	for i, row := range dist {
		for j, v := range row {
			acc.sum[i][j] += v
		}
	}

	return nil
}

// Merge adds another accumulator's totals into this one. Merging an
// empty accumulator is a no-op; merging into an empty one adopts the
// other's grid.
func (acc *Accumulator) Merge(other *Accumulator) *Warning {
	if other == nil || other.Empty() {
		return nil
	}

	return acc.Add(other.sum, other.edges)
}

// DBBinEdges returns the dB grid the accumulator is locked to, or nil
// while empty.
func (acc *Accumulator) DBBinEdges() []float64 {
	return acc.edges
}

// Probability converts the accumulated counts to per-row probabilities.
// Each frequency row is divided by its own total; a row with zero total
// stays all zero instead of producing NaN. An empty accumulator yields
// an empty matrix.
func (acc *Accumulator) Probability() [][]float64 {
	out := make([][]float64, len(acc.sum))

	for i, row := range acc.sum {
		out[i] = make([]float64, len(row))

		total := 0.0
		for _, v := range row {
			total += v
		}

		if total == 0 {
			continue
		}

		for j, v := range row {
			out[i][j] = v / total
		}
	}

	return out
}

func (acc *Accumulator) compatible(rows int, edges []float64) *Warning {
	if rows != len(acc.sum) {
		return &Warning{Reason: fmt.Sprintf("distribution has %d rows, accumulator holds %d",
			rows, len(acc.sum))}
	}

	if len(edges) != len(acc.edges) {
		return &Warning{Reason: fmt.Sprintf("db grid has %d bins, accumulator holds %d",
			len(edges), len(acc.edges))}
	}

	for i := range edges {
		if edges[i] != acc.edges[i] {
			return &Warning{Reason: fmt.Sprintf("db grid differs at bin %d: %g vs %g",
				i, edges[i], acc.edges[i])}
		}
	}

	return nil
}

// Probability is the aggregated output: a row-normalized probability
// matrix over the shared dB grid.
type Probability struct {
	Matrix     [][]float64
	DBBinEdges []float64
	Count      int
}

// Aggregator combines persisted artifacts from one group into a
// probability density. Problems with individual files are logged and
// reported as warnings, never raised.
type Aggregator struct {
	log *zap.SugaredLogger
}

// AggregatorOption configures [NewAggregator].
type AggregatorOption func(*Aggregator)

// WithLogger routes aggregation warnings to the given logger. The
// default discards them.
func WithLogger(log *zap.SugaredLogger) AggregatorOption {
	return func(g *Aggregator) {
		if log != nil {
			g.log = log
		}
	}
}

// NewAggregator returns an aggregator with the given options applied.
func NewAggregator(opts ...AggregatorOption) *Aggregator {
	g := &Aggregator{log: zap.NewNop().Sugar()}

	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	return g
}

// Aggregate loads every artifact in the group whose filename timestamp
// falls inside the window and sums their distributions. Files outside
// the window are skipped silently; malformed or incompatible files are
// skipped with a warning. If nothing usable remains, the result is an
// empty all-zero probability plus a warning.
func (g *Aggregator) Aggregate(group Group, window TimeRange) (*Probability, []Warning) {
	acc := NewAccumulator()

	var warnings []Warning

	count := 0

	for _, path := range group.Paths {
		ts, err := ArtifactTime(path)
		if err != nil {
			warnings = append(warnings, g.warn(group.Key, path, err.Error()))

			continue
		}

		if !window.Contains(ts) {
			continue
		}

		art, err := Load(path)
		if err != nil {
			warnings = append(warnings, g.warn(group.Key, path, err.Error()))

			continue
		}

		if err := art.validate(); err != nil {
			warnings = append(warnings, g.warn(group.Key, path, err.Error()))

			continue
		}

		if w := acc.Add(art.Distribution, art.DBBinEdges); w != nil {
			w.Source = path
			warnings = append(warnings, *w)
			g.log.Warnw("skipping incompatible artifact",
				"group", group.Key, "path", path, "reason", w.Reason)

			continue
		}

		count++
	}

	if acc.Empty() {
		warnings = append(warnings, g.warn(group.Key, "", "no usable artifacts in time window"))

		return &Probability{Count: 0}, warnings
	}

	return &Probability{
		Matrix:     acc.Probability(),
		DBBinEdges: acc.DBBinEdges(),
		Count:      count,
	}, warnings
}

func (g *Aggregator) warn(key, source, reason string) Warning {
	g.log.Warnw("aggregation warning", "group", key, "source", source, "reason", reason)

	return Warning{Source: source, Reason: reason}
}
