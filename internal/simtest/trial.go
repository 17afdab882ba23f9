// Package simtest provides Monte-Carlo trial helpers for testing stabilizer
// circuits, in the style of the teacher's hwtest package.
package simtest

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/dstab/stabsim/circuit"
	"github.com/dstab/stabsim/sim"
	"github.com/dstab/stabsim/tableau"
)

// Trial is one randomized run: Build constructs a circuit from the trial's
// rng (so each trial can vary gate choices/targets), and Check inspects the
// resulting Result, calling t.Fatal/t.Errorf on any violated property.
type Trial struct {
	Build func(rng *rand.Rand) *circuit.Circuit
	Check func(t *testing.T, c *circuit.Circuit, res sim.Result)
}

// Run executes trial n times with independently-seeded rngs, failing fast
// on the first violation. Grounded on hwtest.ComparePart's randomized
// trial loop and timing report.
func Run(t *testing.T, n int, trial Trial) {
	t.Helper()
	rand.Seed(time.Now().UnixNano())
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < n; i++ {
		rng := rand.New(rand.NewSource(rand.Int63()))
		c := trial.Build(rng)
		d := sim.NewDriver(tableau.NewIdentity(c.NumQubits()), rng)
		res, err := d.Run(ctx, c)
		if err != nil {
			t.Fatalf("trial %d: run failed: %v", i, err)
		}
		trial.Check(t, c, res)
	}
	t.Logf("%d trials in %v", n, time.Since(start))
}

// CheckDeterministic fails the test unless outcome matches the expected
// deterministic parity want, used for detector-style invariants.
func CheckDeterministic(t *testing.T, i int, name string, got, want bool) {
	t.Helper()
	if got != want {
		t.Fatalf("trial %d: %s = %v, want %v", i, name, got, want)
	}
}
