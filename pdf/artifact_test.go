package pdf

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/cwbudde/algo-seis/psd"
)

func testArtifact(start time.Time) *Artifact {
	edges := psd.DBBinEdges()

	dist := make([][]float64, 3)
	for i := range dist {
		dist[i] = make([]float64, len(edges))
		dist[i][10+i] = 4
	}

	return &Artifact{
		Frequencies:         []float64{0.5, 1, 2},
		PSD:                 []float64{-140, -138, -141},
		SmoothedFrequencies: []float64{0.6, 1.2, 2.4},
		SmoothedPSD:         []float64{-139.5, math.NaN(), -140.2},
		Distribution:        dist,
		DBBinEdges:          edges,
		Meta: Meta{
			WindowSeconds:   1000,
			OverlapFraction: 0.8,
			WindowName:      "hann",
			FreqMin:         0.001,
			FreqMax:         100,
		},
		StartTime: start,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	start := time.Date(2024, 3, 15, 12, 30, 0, 0, time.UTC)
	art := testArtifact(start)

	path := filepath.Join(t.TempDir(), Filename("STA01.BHZ", start))

	if err := art.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(got.Frequencies) != len(art.Frequencies) {
		t.Fatalf("frequencies: got %d, want %d", len(got.Frequencies), len(art.Frequencies))
	}

	for i := range art.Frequencies {
		if got.Frequencies[i] != art.Frequencies[i] {
			t.Errorf("frequencies[%d]: got %g, want %g", i, got.Frequencies[i], art.Frequencies[i])
		}
	}

	if !math.IsNaN(got.SmoothedPSD[1]) {
		t.Errorf("expected NaN smoothed bin to survive the round trip, got %g", got.SmoothedPSD[1])
	}

	if len(got.Distribution) != len(art.Distribution) {
		t.Fatalf("distribution rows: got %d, want %d", len(got.Distribution), len(art.Distribution))
	}

	if got.Meta.WindowName != "hann" || got.Meta.WindowSeconds != 1000 {
		t.Errorf("metadata mismatch: %+v", got.Meta)
	}

	if !got.StartTime.Equal(start) {
		t.Errorf("start time: got %v, want %v", got.StartTime, start)
	}
}

func TestFilenameRoundTrip(t *testing.T) {
	start := time.Date(2023, 11, 2, 8, 5, 59, 0, time.UTC)

	name := Filename("STA01.BHZ", start)
	if name != "STA01.BHZ_20231102080559_psd.msgpack" {
		t.Fatalf("unexpected filename %q", name)
	}

	got, err := ArtifactTime(name)
	if err != nil {
		t.Fatalf("ArtifactTime failed: %v", err)
	}

	if !got.Equal(start) {
		t.Errorf("got %v, want %v", got, start)
	}
}

func TestArtifactTimeFullPath(t *testing.T) {
	got, err := ArtifactTime("/data/psd/STA_A_20240101000000_psd.msgpack")
	if err != nil {
		t.Fatalf("ArtifactTime failed: %v", err)
	}

	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestArtifactTimeRejectsBadNames(t *testing.T) {
	bad := []string{
		"STA01.BHZ.msgpack",
		"STA01_20240101000000.msgpack",
		"20240101000000_psd.msgpack",
		"STA01_2024_psd.msgpack",
		"STA01_notatime00000_psd.msgpack",
	}

	for _, name := range bad {
		if _, err := ArtifactTime(name); err == nil {
			t.Errorf("expected error for %q", name)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.msgpack")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
