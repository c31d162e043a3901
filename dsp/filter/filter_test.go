package filter

import (
	"math"
	"testing"
)

func TestButterworthLPResponse(t *testing.T) {
	c, err := ButterworthLP(100, 5, 1000)
	if err != nil {
		t.Fatalf("ButterworthLP failed: %v", err)
	}

	if c.Order() != 5 {
		t.Fatalf("order=%d want=5", c.Order())
	}

	// Passband: |H| ~ 1 well below cutoff.
	if mag := math.Sqrt(c.MagnitudeSquared(10, 1000)); math.Abs(mag-1) > 0.01 {
		t.Fatalf("passband magnitude=%f want~1", mag)
	}

	// -3 dB point at the cutoff.
	if mag := math.Sqrt(c.MagnitudeSquared(100, 1000)); math.Abs(mag-1/math.Sqrt2) > 0.01 {
		t.Fatalf("cutoff magnitude=%f want~0.707", mag)
	}

	// Stopband: an octave above cutoff a 5th-order filter is ~30 dB down.
	if mag := math.Sqrt(c.MagnitudeSquared(200, 1000)); mag > 0.05 {
		t.Fatalf("stopband magnitude=%f want<0.05", mag)
	}
}

func TestButterworthHPResponse(t *testing.T) {
	c, err := ButterworthHP(1.0, 5, 100)
	if err != nil {
		t.Fatalf("ButterworthHP failed: %v", err)
	}

	if mag := math.Sqrt(c.MagnitudeSquared(0.1, 100)); mag > 0.001 {
		t.Fatalf("sub-cutoff magnitude=%f want<0.001", mag)
	}

	if mag := math.Sqrt(c.MagnitudeSquared(10, 100)); math.Abs(mag-1) > 0.01 {
		t.Fatalf("passband magnitude=%f want~1", mag)
	}
}

func TestButterworthBPResponse(t *testing.T) {
	c, err := ButterworthBP(1, 10, 5, 100)
	if err != nil {
		t.Fatalf("ButterworthBP failed: %v", err)
	}

	if mag := math.Sqrt(c.MagnitudeSquared(3, 100)); math.Abs(mag-1) > 0.05 {
		t.Fatalf("band-center magnitude=%f want~1", mag)
	}

	if mag := math.Sqrt(c.MagnitudeSquared(0.1, 100)); mag > 0.01 {
		t.Fatalf("below-band magnitude=%f want<0.01", mag)
	}

	if mag := math.Sqrt(c.MagnitudeSquared(40, 100)); mag > 0.01 {
		t.Fatalf("above-band magnitude=%f want<0.01", mag)
	}
}

func TestDesignValidation(t *testing.T) {
	if _, err := ButterworthHP(0, 5, 100); err == nil {
		t.Fatalf("expected error for zero cutoff")
	}

	if _, err := ButterworthHP(60, 5, 100); err == nil {
		t.Fatalf("expected error for cutoff above nyquist")
	}

	if _, err := ButterworthLP(10, 0, 100); err == nil {
		t.Fatalf("expected error for zero order")
	}

	if _, err := ButterworthBP(10, 1, 5, 100); err == nil {
		t.Fatalf("expected error for inverted band edges")
	}
}

func TestZeroPhasePreservesSineAmplitude(t *testing.T) {
	// A 5 Hz tone inside the passband of a 1 Hz highpass should come
	// through the zero-phase run nearly untouched.
	fs := 100.0
	n := 2000

	data := make([]float64, n)
	for i := range data {
		data[i] = math.Sin(2 * math.Pi * 5 * float64(i) / fs)
	}

	c, err := ButterworthHP(1.0, 5, fs)
	if err != nil {
		t.Fatalf("design failed: %v", err)
	}

	out, err := ZeroPhase(c, data)
	if err != nil {
		t.Fatalf("ZeroPhase failed: %v", err)
	}

	if len(out) != n {
		t.Fatalf("length changed: got=%d want=%d", len(out), n)
	}

	// Compare in the interior, away from edge effects.
	for i := n / 4; i < 3*n/4; i++ {
		if math.Abs(out[i]-data[i]) > 0.01 {
			t.Fatalf("index %d: got %v want %v", i, out[i], data[i])
		}
	}
}

func TestZeroPhaseRemovesDrift(t *testing.T) {
	fs := 100.0
	n := 4000

	data := make([]float64, n)
	for i := range data {
		// 0.01 Hz drift well below a 1 Hz highpass cutoff.
		data[i] = math.Sin(2 * math.Pi * 0.01 * float64(i) / fs)
	}

	c, err := ButterworthHP(1.0, 5, fs)
	if err != nil {
		t.Fatalf("design failed: %v", err)
	}

	out, err := ZeroPhase(c, data)
	if err != nil {
		t.Fatalf("ZeroPhase failed: %v", err)
	}

	for i := n / 4; i < 3*n/4; i++ {
		if math.Abs(out[i]) > 0.01 {
			t.Fatalf("index %d: drift %v not attenuated", i, out[i])
		}
	}
}

func TestZeroPhaseEmptyInput(t *testing.T) {
	c, err := ButterworthHP(1.0, 5, 100)
	if err != nil {
		t.Fatalf("design failed: %v", err)
	}

	if _, err := ZeroPhase(c, nil); err == nil {
		t.Fatalf("expected error for empty input")
	}
}
