package psd

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/cwbudde/algo-seis/dsp/welch"
	"github.com/cwbudde/algo-seis/internal/testutil"
)

func mustConfig(t *testing.T, opts ...Option) Config {
	t.Helper()

	cfg, err := NewConfig(opts...)
	if err != nil {
		t.Fatalf("NewConfig failed: %v", err)
	}

	return cfg
}

func TestCalculateSinePeak(t *testing.T) {
	fs := 100.0
	seg := Segment{
		Samples:     testutil.Sine(2.0, fs, 1.0, 20000),
		SampleRate:  fs,
		Sensitivity: 1,
		Instrument:  Acceleration,
	}

	est := NewEstimator(mustConfig(t))

	res, err := est.Calculate(seg)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}

	peak := 0
	for i := range res.PSD {
		if res.PSD[i] > res.PSD[peak] {
			peak = i
		}
	}

	resolution := welch.Resolution(welch.Config{SampleRate: fs, SegmentLength: len(seg.Samples)})
	if math.Abs(res.Frequencies[peak]-2.0) > resolution {
		t.Fatalf("peak at %f Hz, want 2.0 +/- %f", res.Frequencies[peak], resolution)
	}
}

func TestCalculateNoiseSmoke(t *testing.T) {
	fs := 100.0
	seg := Segment{
		Samples:     testutil.Noise(1234, 1.0, 10000),
		SampleRate:  fs,
		Sensitivity: 1,
		Instrument:  Acceleration,
		StartTime:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	est := NewEstimator(mustConfig(t))

	res, err := est.Calculate(seg)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}

	if len(res.Frequencies) == 0 || len(res.Frequencies) != len(res.PSD) {
		t.Fatalf("axis lengths: %d freqs, %d psd", len(res.Frequencies), len(res.PSD))
	}

	testutil.RequireAscending(t, res.Frequencies)
	testutil.RequireFinite(t, res.PSD)

	for _, f := range res.Frequencies {
		if f < 0.001 || f > 100 {
			t.Fatalf("frequency %f outside clip range", f)
		}
	}

	if len(res.SmoothedFrequencies) < 1 {
		t.Fatalf("no smoothed bins")
	}

	testutil.RequireAscending(t, res.SmoothedFrequencies)

	if len(res.Distribution) != len(res.SmoothedFrequencies) {
		t.Fatalf("distribution rows=%d smoothed bins=%d", len(res.Distribution), len(res.SmoothedFrequencies))
	}

	if !res.StartTime.Equal(seg.StartTime) {
		t.Fatalf("start time not carried through")
	}

	if est.Result() != res {
		t.Fatalf("Result() does not return the last result")
	}
}

func TestDistributionRowNormalization(t *testing.T) {
	seg := Segment{
		Samples:     testutil.Noise(99, 1.0, 8192),
		SampleRate:  50,
		Sensitivity: 1e3,
		Instrument:  Velocity,
	}

	est := NewEstimator(mustConfig(t))

	res, err := est.Calculate(seg)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}

	sawData := false

	for r, row := range res.Distribution {
		if len(row) != NumDBBins {
			t.Fatalf("row %d has %d bins want %d", r, len(row), NumDBBins)
		}

		total := 0.0
		for _, c := range row {
			total += c
		}

		if total == 0 {
			continue
		}

		sawData = true

		norm := 0.0
		for _, c := range row {
			norm += c / total
		}

		if math.Abs(norm-1) > 1e-9 {
			t.Fatalf("row %d normalizes to %v", r, norm)
		}
	}

	if !sawData {
		t.Fatalf("no distribution row received any counts")
	}
}

func TestVelocityInstrumentScaling(t *testing.T) {
	// With identical input, a velocity segment's spectrum is the
	// acceleration segment's spectrum scaled by omega^2 per bin.
	samples := testutil.Noise(7, 1.0, 4096)
	fs := 40.0

	est := NewEstimator(mustConfig(t))

	velRes, err := est.Calculate(Segment{
		Samples: samples, SampleRate: fs, Sensitivity: 1, Instrument: Velocity,
	})
	if err != nil {
		t.Fatalf("velocity Calculate failed: %v", err)
	}

	accRes, err := est.Calculate(Segment{
		Samples: samples, SampleRate: fs, Sensitivity: 1, Instrument: Acceleration,
	})
	if err != nil {
		t.Fatalf("acceleration Calculate failed: %v", err)
	}

	if len(velRes.PSD) != len(accRes.PSD) {
		t.Fatalf("axis mismatch: %d vs %d", len(velRes.PSD), len(accRes.PSD))
	}

	for i, f := range accRes.Frequencies {
		omega := 2 * math.Pi * f
		wantDB := accRes.PSD[i] + 10*math.Log10(omega*omega)

		if math.Abs(velRes.PSD[i]-wantDB) > 1e-9 {
			t.Fatalf("bin %d (%.4f Hz): velocity %v want %v", i, f, velRes.PSD[i], wantDB)
		}
	}
}

func TestSensitivityScaling(t *testing.T) {
	// Dividing counts by sensitivity shifts power by sensitivity^2,
	// i.e. -20*log10(sensitivity) dB.
	samples := testutil.Noise(21, 1.0, 4096)
	fs := 40.0

	est := NewEstimator(mustConfig(t))

	unit, err := est.Calculate(Segment{
		Samples: samples, SampleRate: fs, Sensitivity: 1, Instrument: Acceleration,
	})
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}

	scaled, err := est.Calculate(Segment{
		Samples: samples, SampleRate: fs, Sensitivity: 100, Instrument: Acceleration,
	})
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}

	for i := range unit.PSD {
		if math.Abs((unit.PSD[i]-scaled.PSD[i])-40) > 1e-9 {
			t.Fatalf("bin %d: dB shift %v want 40", i, unit.PSD[i]-scaled.PSD[i])
		}
	}
}

func TestResponseRemovalBoostsLongPeriods(t *testing.T) {
	samples := testutil.Noise(5, 1.0, 16384)
	fs := 20.0

	plain := NewEstimator(mustConfig(t, WithFrequencyRange(0.001, 10)))
	removed := NewEstimator(mustConfig(t,
		WithFrequencyRange(0.001, 10),
		WithResponseRemoval(0.707, 10),
	))

	seg := Segment{Samples: samples, SampleRate: fs, Sensitivity: 1, Instrument: Acceleration}

	plainRes, err := plain.Calculate(seg)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}

	removedRes, err := removed.Calculate(seg)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}

	// Well below the 0.1 Hz natural frequency, |H|^2 ~ (omega/omega_n)^4,
	// so deconvolution boosts power; well above, it is a no-op.
	omegaN := 2 * math.Pi / 10.0

	for i, f := range plainRes.Frequencies {
		if f <= 0 {
			continue
		}

		omega := 2 * math.Pi * f

		switch {
		case omega < omegaN/10:
			if removedRes.PSD[i] < plainRes.PSD[i]+20 {
				t.Fatalf("%.4f Hz: removal gain %v dB, want > 20 dB",
					f, removedRes.PSD[i]-plainRes.PSD[i])
			}
		case omega > omegaN*10:
			if math.Abs(removedRes.PSD[i]-plainRes.PSD[i]) > 0.1 {
				t.Fatalf("%.4f Hz: removal changed passband by %v dB",
					f, removedRes.PSD[i]-plainRes.PSD[i])
			}
		}
	}
}

func TestHighPassFilterAttenuatesDrift(t *testing.T) {
	fs := 100.0
	n := 60000

	// Strong 0.01 Hz drift plus a small 5 Hz tone.
	samples := make([]float64, n)
	for i := range samples {
		ti := float64(i) / fs
		samples[i] = 100*math.Sin(2*math.Pi*0.01*ti) + math.Sin(2*math.Pi*5*ti)
	}

	seg := Segment{Samples: samples, SampleRate: fs, Sensitivity: 1, Instrument: Acceleration}

	plain := NewEstimator(mustConfig(t, WithWindowSeconds(200)))
	filtered := NewEstimator(mustConfig(t, WithWindowSeconds(200), WithHighPassFilter(1.0)))

	plainRes, err := plain.Calculate(seg)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}

	filteredRes, err := filtered.Calculate(seg)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}

	valueAt := func(res *Result, freq float64) float64 {
		best := 0
		for i, f := range res.Frequencies {
			if math.Abs(f-freq) < math.Abs(res.Frequencies[best]-freq) {
				best = i
			}
		}

		return res.PSD[best]
	}

	if drop := valueAt(plainRes, 0.01) - valueAt(filteredRes, 0.01); drop < 40 {
		t.Fatalf("drift attenuated by only %v dB", drop)
	}

	if math.Abs(valueAt(plainRes, 5)-valueAt(filteredRes, 5)) > 1 {
		t.Fatalf("passband tone moved by %v dB", valueAt(plainRes, 5)-valueAt(filteredRes, 5))
	}
}

func TestCalculateErrors(t *testing.T) {
	cfg := mustConfig(t)
	est := NewEstimator(cfg)

	if _, err := est.Calculate(Segment{SampleRate: 100, Sensitivity: 1, Instrument: Velocity}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty segment: error=%v want ErrInvalidInput", err)
	}

	seg := Segment{Samples: testutil.Noise(3, 1, 100), SampleRate: 100, Sensitivity: 1}
	if _, err := est.Calculate(seg); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("unset instrument: error=%v want ErrInvalidConfig", err)
	}

	seg.Instrument = Velocity
	seg.SampleRate = 0
	if _, err := est.Calculate(seg); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("zero sample rate: error=%v want ErrInvalidInput", err)
	}

	seg.SampleRate = 100
	seg.Sensitivity = 0
	if _, err := est.Calculate(seg); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("zero sensitivity: error=%v want ErrInvalidInput", err)
	}
}

func TestAllZeroInputStaysFinite(t *testing.T) {
	seg := Segment{
		Samples:     make([]float64, 4096),
		SampleRate:  100,
		Sensitivity: 1,
		Instrument:  Acceleration,
	}

	res, err := NewEstimator(mustConfig(t)).Calculate(seg)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}

	// Floored power keeps the curve finite; values sit far below the
	// histogram range, so every distribution row stays empty.
	testutil.RequireFinite(t, res.PSD)

	for r, row := range res.Distribution {
		for _, c := range row {
			if c != 0 {
				t.Fatalf("row %d unexpectedly counted floored values", r)
			}
		}
	}
}
