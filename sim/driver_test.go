package sim_test

import (
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/dstab/stabsim/circuit"
	"github.com/dstab/stabsim/sim"
	"github.com/dstab/stabsim/tableau"
)

func mustParse(t *testing.T, src string) *circuit.Circuit {
	t.Helper()
	c, err := circuit.Parse(context.Background(), strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return c
}

func newIdentity(c *circuit.Circuit) *tableau.Tableau {
	return tableau.NewIdentity(c.NumQubits())
}

// Testable property: a DETECTOR over two Z measurements of qubits freshly
// reset to |0> is deterministic with parity 0.
func TestDetectorOnDeterministicParity(t *testing.T) {
	c := mustParse(t, "R 0\nR 1\nM 0 1\nDETECTOR 0@-1 0@-2\n")
	rng := rand.New(rand.NewSource(11))
	tab := newIdentity(c)
	d := sim.NewDriver(tab, rng)
	res, err := d.Run(context.Background(), c)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Detectors) != 1 {
		t.Fatalf("len(Detectors) = %d, want 1", len(res.Detectors))
	}
	det := res.Detectors[0]
	// Targets are resolved in listed order: "0@-1" (dt=1) then "0@-2" (dt=2),
	// against a measure_index of 2 after M 0 1, giving indices 1 then 0.
	want := []int{1, 0}
	if len(det.MeasurementIndices) != len(want) {
		t.Fatalf("MeasurementIndices = %v, want %v", det.MeasurementIndices, want)
	}
	for i, idx := range want {
		if det.MeasurementIndices[i] != idx {
			t.Fatalf("MeasurementIndices = %v, want %v", det.MeasurementIndices, want)
		}
	}
	if det.Parity {
		t.Fatal("expected the detector parity to be deterministically false")
	}
}

func TestObservableIncludeAccumulatesAcrossOperations(t *testing.T) {
	c := mustParse(t, "R 0\nX 1\nM 0 1\nOBSERVABLE_INCLUDE(0) 0@-2\nOBSERVABLE_INCLUDE(0) 0@-1\n")
	rng := rand.New(rand.NewSource(12))
	tab := newIdentity(c)
	d := sim.NewDriver(tab, rng)
	res, err := d.Run(context.Background(), c)
	if err != nil {
		t.Fatal(err)
	}
	obs, ok := res.Observables[0]
	if !ok {
		t.Fatal("observable 0 not present in result")
	}
	if len(obs.MeasurementIndices) != 2 {
		t.Fatalf("len(MeasurementIndices) = %d, want 2", len(obs.MeasurementIndices))
	}
	// qubit 0 measures false, qubit 1 measures true: parity true.
	if !obs.Parity {
		t.Fatal("expected observable parity true")
	}
}

func TestDetectorBeforeStartOfRecordingErrors(t *testing.T) {
	c := mustParse(t, "DETECTOR 0@-1\n")
	rng := rand.New(rand.NewSource(13))
	tab := newIdentity(c)
	d := sim.NewDriver(tab, rng)
	if _, err := d.Run(context.Background(), c); err == nil {
		t.Fatal("expected an error for a record lookback before the start of recording")
	}
}

func TestSampleProducesOneRowPerShot(t *testing.T) {
	c := mustParse(t, "H 0\nM 0\n")
	rows, err := sim.Sample(context.Background(), c, 20, rand.New(rand.NewSource(14)))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 20 {
		t.Fatalf("len(rows) = %d, want 20", len(rows))
	}
	for _, row := range rows {
		if len(row) != 1 {
			t.Fatalf("row length = %d, want 1", len(row))
		}
	}
}

func TestSampleIsDeterministicGivenSameSeed(t *testing.T) {
	c := mustParse(t, "H 0\nCNOT 0 1\nM 0 1\n")
	rows1, err := sim.Sample(context.Background(), c, 50, rand.New(rand.NewSource(99)))
	if err != nil {
		t.Fatal(err)
	}
	rows2, err := sim.Sample(context.Background(), c, 50, rand.New(rand.NewSource(99)))
	if err != nil {
		t.Fatal(err)
	}
	for i := range rows1 {
		if rows1[i][0] != rows2[i][0] || rows1[i][1] != rows2[i][1] {
			t.Fatalf("shot %d diverged between identically-seeded runs", i)
		}
		if rows1[i][0] != rows1[i][1] {
			t.Fatalf("shot %d: Bell pair outcomes disagree: %v vs %v", i, rows1[i][0], rows1[i][1])
		}
	}
}

func TestSampleParallelMatchesSerialOnDeterministicCircuit(t *testing.T) {
	c := mustParse(t, "R 0\nX 0\nM 0\n")
	rows, err := sim.SampleParallel(context.Background(), c, 16, 4, 7)
	if err != nil {
		t.Fatal(err)
	}
	for i, row := range rows {
		if !row[0] {
			t.Fatalf("shot %d: expected deterministic true outcome, got false", i)
		}
	}
}

func TestRepeatUnrollProducesExpectedMeasurementCount(t *testing.T) {
	c := mustParse(t, "REPEAT(4) {\nR 0\nM 0\n}\n")
	rows, err := sim.Sample(context.Background(), c, 5, rand.New(rand.NewSource(20)))
	if err != nil {
		t.Fatal(err)
	}
	for _, row := range rows {
		if len(row) != 4 {
			t.Fatalf("row length = %d, want 4", len(row))
		}
		for _, bit := range row {
			if bit {
				t.Fatal("R;M repeated should always measure false")
			}
		}
	}
}
