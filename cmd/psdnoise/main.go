// Command psdnoise runs the seismic noise PSD engine from the command
// line. It is a debugging harness around the library, not a waveform
// format reader: raw input is one sample value per line.
//
// Usage:
//
//	psdnoise calc samples.txt --rate 100 --out ./artifacts
//	psdnoise pdf ./artifacts --from 2024-06-01T00:00:00Z --to 2024-07-01T00:00:00Z
//	psdnoise models
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-seis/noisemodel"
	"github.com/cwbudde/algo-seis/pdf"
	"github.com/cwbudde/algo-seis/psd"
)

var version = "0.1.0"

type calcCmd struct {
	Input string `arg:"" type:"existingfile" help:"Raw sample file, one value per line."`

	Rate        float64 `default:"100" help:"Sample rate in Hz."`
	Sensitivity float64 `default:"1" help:"Instrument sensitivity in counts per physical unit."`
	Instrument  string  `default:"acceleration" enum:"acceleration,velocity" help:"Instrument type."`
	Start       string  `help:"Segment start time, RFC 3339. Defaults to now."`

	Window   float64 `default:"1000" help:"Welch segment length in seconds."`
	Overlap  float64 `default:"0.8" help:"Welch segment overlap fraction."`
	Taper    string  `default:"hann" help:"Segment taper (hann, hamming, blackman, bartlett, flattop, boxcar)."`
	FreqMin  float64 `default:"0.001" help:"Lower frequency clip in Hz."`
	FreqMax  float64 `default:"100" help:"Upper frequency clip in Hz."`
	HighPass float64 `help:"Enable a zero-phase high-pass pre-filter at this corner in Hz."`
	Response bool    `help:"Remove the theoretical instrument response."`
	Damping  float64 `default:"0.707" help:"Sensor damping ratio for response removal."`
	Period   float64 `default:"10" help:"Sensor natural period in seconds for response removal."`

	Out  string `default:"." type:"existingdir" help:"Output directory for the artifact."`
	Base string `help:"Artifact base name. Defaults to the input file name."`
}

func (c *calcCmd) Run(log *zap.SugaredLogger) error {
	samples, err := readSamples(c.Input)
	if err != nil {
		return err
	}

	start := time.Now().UTC()
	if c.Start != "" {
		start, err = time.Parse(time.RFC3339, c.Start)
		if err != nil {
			return fmt.Errorf("invalid --start: %w", err)
		}
	}

	opts := []psd.Option{
		psd.WithWindowSeconds(c.Window),
		psd.WithOverlap(c.Overlap),
		psd.WithWindowName(c.Taper),
		psd.WithFrequencyRange(c.FreqMin, c.FreqMax),
	}

	if c.HighPass > 0 {
		opts = append(opts, psd.WithHighPassFilter(c.HighPass))
	}

	if c.Response {
		opts = append(opts, psd.WithResponseRemoval(c.Damping, c.Period))
	}

	cfg, err := psd.NewConfig(opts...)
	if err != nil {
		return err
	}

	instrument := psd.Acceleration
	if c.Instrument == "velocity" {
		instrument = psd.Velocity
	}

	log.Infow("calculating psd",
		"input", c.Input, "samples", len(samples), "rate", c.Rate)

	result, err := psd.NewEstimator(cfg).Calculate(psd.Segment{
		Samples:     samples,
		SampleRate:  c.Rate,
		Sensitivity: c.Sensitivity,
		Instrument:  instrument,
		StartTime:   start,
	})
	if err != nil {
		return err
	}

	base := c.Base
	if base == "" {
		base = strings.TrimSuffix(filepath.Base(c.Input), filepath.Ext(c.Input))
	}

	path := filepath.Join(c.Out, pdf.Filename(base, start))
	if err := pdf.FromResult(result).Save(path); err != nil {
		return err
	}

	log.Infow("artifact written",
		"path", path,
		"frequencies", len(result.Frequencies),
		"smoothed_bins", len(result.SmoothedFrequencies))

	return nil
}

type pdfCmd struct {
	Dir string `arg:"" type:"existingdir" help:"Directory of PSD artifacts."`

	From string `help:"Window start, RFC 3339. Unbounded when omitted."`
	To   string `help:"Window end, RFC 3339. Unbounded when omitted."`
	Key  string `default:"all" help:"Group label used in log output."`
}

func (c *pdfCmd) Run(log *zap.SugaredLogger) error {
	window, err := parseWindow(c.From, c.To)
	if err != nil {
		return err
	}

	paths, err := filepath.Glob(filepath.Join(c.Dir, "*_psd.msgpack"))
	if err != nil {
		return err
	}

	agg := pdf.NewAggregator(pdf.WithLogger(log))

	prob, warnings := agg.Aggregate(pdf.Group{Key: c.Key, Paths: paths}, window)
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	if prob.Count == 0 {
		return fmt.Errorf("no usable artifacts in %s", c.Dir)
	}

	log.Infow("aggregated", "group", c.Key, "artifacts", prob.Count)

	return writeTSV(os.Stdout, prob)
}

// writeTSV prints the probability matrix with the dB grid as header row:
// one line per smoothed frequency bin, one column per dB bin.
func writeTSV(out *os.File, prob *pdf.Probability) error {
	w := bufio.NewWriter(out)

	for i, edge := range prob.DBBinEdges {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}

		fmt.Fprintf(w, "%g", edge)
	}

	fmt.Fprintln(w)

	for _, row := range prob.Matrix {
		for j, v := range row {
			if j > 0 {
				fmt.Fprint(w, "\t")
			}

			fmt.Fprintf(w, "%.6g", v)
		}

		fmt.Fprintln(w)
	}

	return w.Flush()
}

type modelsCmd struct{}

func (c *modelsCmd) Run() error {
	curves, err := noisemodel.Load()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "period (s)\tNLNM (dB)\tNHNM (dB)\t")

	for i, p := range curves.Periods {
		fmt.Fprintf(w, "%.4g\t%.2f\t%.2f\t\n", p, curves.LowNoiseDB[i], curves.HighNoiseDB[i])
	}

	return w.Flush()
}

type cli struct {
	Verbose bool `short:"v" help:"Enable debug logging."`

	Calc   calcCmd   `cmd:"" help:"Calculate a PSD artifact from a raw sample file."`
	PDF    pdfCmd    `cmd:"" name:"pdf" help:"Aggregate artifacts into a probability density TSV."`
	Models modelsCmd `cmd:"" help:"Print the NLNM/NHNM reference curves."`
}

func main() {
	args := &cli{}
	ctx := kong.Parse(args,
		kong.Name("psdnoise"),
		kong.Description("Seismic noise PSD calculator and aggregator"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	zapLogger, err := newLogger(args.Verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "psdnoise: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	ctx.FatalIfErrorf(ctx.Run(zapLogger.Sugar()))
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}

	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}

	return cfg.Build()
}

func readSamples(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var samples []float64

	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}

		samples = append(samples, v)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return samples, nil
}

func parseWindow(from, to string) (pdf.TimeRange, error) {
	var window pdf.TimeRange

	if from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return window, fmt.Errorf("invalid --from: %w", err)
		}

		window.Start = t
	}

	if to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return window, fmt.Errorf("invalid --to: %w", err)
		}

		window.End = t
	}

	return window, nil
}
