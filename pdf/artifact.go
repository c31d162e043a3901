package pdf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/cwbudde/algo-seis/psd"
)

const (
	timestampLayout = "20060102150405"
	fileSuffix      = "_psd.msgpack"
)

// errBadFilename reports a filename that does not follow the artifact
// naming convention.
var errBadFilename = errors.New("pdf: filename does not match <base>_<timestamp>_psd.msgpack")

// Meta is the exact configuration snapshot stored with every artifact,
// so an aggregation consumer can tell how the spectrum was produced.
type Meta struct {
	FilterEnabled   bool    `msgpack:"filter_enabled"`
	FilterKind      string  `msgpack:"filter_kind"`
	CutoffFreq      float64 `msgpack:"cutoff_freq"`
	LowFreq         float64 `msgpack:"low_freq"`
	HighFreq        float64 `msgpack:"high_freq"`
	ResponseRemoval bool    `msgpack:"response_removal"`
	DampingRatio    float64 `msgpack:"damping_ratio"`
	NaturalPeriod   float64 `msgpack:"natural_period"`
	WindowSeconds   float64 `msgpack:"window_seconds"`
	OverlapFraction float64 `msgpack:"overlap_fraction"`
	WindowName      string  `msgpack:"window_name"`
	FreqMin         float64 `msgpack:"freq_min"`
	FreqMax         float64 `msgpack:"freq_max"`
}

// Artifact is the persisted output of one PSD calculation.
type Artifact struct {
	Frequencies         []float64   `msgpack:"frequencies"`
	PSD                 []float64   `msgpack:"psd"`
	SmoothedFrequencies []float64   `msgpack:"f_smoothed"`
	SmoothedPSD         []float64   `msgpack:"smoothed_psd"`
	Distribution        [][]float64 `msgpack:"psd_distribution"`
	DBBinEdges          []float64   `msgpack:"psd_db_range"`
	Meta                Meta        `msgpack:"metadata"`
	StartTime           time.Time   `msgpack:"start_time"`
}

// FromResult snapshots a calculation result into a persistable artifact.
func FromResult(r *psd.Result) *Artifact {
	return &Artifact{
		Frequencies:         r.Frequencies,
		PSD:                 r.PSD,
		SmoothedFrequencies: r.SmoothedFrequencies,
		SmoothedPSD:         r.SmoothedPSD,
		Distribution:        r.Distribution,
		DBBinEdges:          r.DBBinEdges,
		Meta: Meta{
			FilterEnabled:   r.Config.FilterEnabled,
			FilterKind:      r.Config.FilterKind.String(),
			CutoffFreq:      r.Config.CutoffFreq,
			LowFreq:         r.Config.LowFreq,
			HighFreq:        r.Config.HighFreq,
			ResponseRemoval: r.Config.ResponseRemoval,
			DampingRatio:    r.Config.DampingRatio,
			NaturalPeriod:   r.Config.NaturalPeriod,
			WindowSeconds:   r.Config.WindowSeconds,
			OverlapFraction: r.Config.OverlapFraction,
			WindowName:      r.Config.Window.String(),
			FreqMin:         r.Config.FreqMin,
			FreqMax:         r.Config.FreqMax,
		},
		StartTime: r.StartTime,
	}
}

// Filename returns the conventional artifact name for the given base and
// start time. The timestamp is chosen so the aggregator can filter on it
// without opening the file.
func Filename(base string, start time.Time) string {
	return fmt.Sprintf("%s_%s%s", base, start.UTC().Format(timestampLayout), fileSuffix)
}

// ArtifactTime extracts the start timestamp embedded in an artifact
// filename.
func ArtifactTime(name string) (time.Time, error) {
	base := filepath.Base(name)

	trimmed, ok := strings.CutSuffix(base, fileSuffix)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", errBadFilename, name)
	}

	i := strings.LastIndexByte(trimmed, '_')
	if i < 0 {
		return time.Time{}, fmt.Errorf("%w: %q", errBadFilename, name)
	}

	t, err := time.Parse(timestampLayout, trimmed[i+1:])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", errBadFilename, name)
	}

	return t, nil
}

// Save writes the artifact to path, replacing any existing file. The
// write goes through a temporary file in the same directory so readers
// never observe a partial artifact.
func (a *Artifact) Save(path string) error {
	payload, err := msgpack.Marshal(a)
	if err != nil {
		return fmt.Errorf("pdf: encode artifact: %w", err)
	}

	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".psd-*")
	if err != nil {
		return fmt.Errorf("pdf: save artifact: %w", err)
	}

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return fmt.Errorf("pdf: save artifact: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("pdf: save artifact: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("pdf: save artifact: %w", err)
	}

	return nil
}

// Load reads an artifact from path.
func Load(path string) (*Artifact, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pdf: load artifact: %w", err)
	}

	var a Artifact
	if err := msgpack.Unmarshal(payload, &a); err != nil {
		return nil, fmt.Errorf("pdf: decode artifact %s: %w", filepath.Base(path), err)
	}

	return &a, nil
}

// validate checks the fields the aggregator depends on.
func (a *Artifact) validate() error {
	if len(a.Distribution) == 0 {
		return errors.New("missing psd_distribution")
	}

	if len(a.DBBinEdges) != psd.NumDBBins {
		return fmt.Errorf("psd_db_range has %d entries, want %d", len(a.DBBinEdges), psd.NumDBBins)
	}

	for i, row := range a.Distribution {
		if len(row) != len(a.DBBinEdges) {
			return fmt.Errorf("distribution row %d has %d entries, want %d",
				i, len(row), len(a.DBBinEdges))
		}
	}

	return nil
}
