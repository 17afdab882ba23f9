package simtest_test

import (
	"math/rand"
	"testing"

	"github.com/dstab/stabsim/circuit"
	"github.com/dstab/stabsim/gate"
	"github.com/dstab/stabsim/internal/simtest"
	"github.com/dstab/stabsim/sim"
)

// Bell-pair correlation: across many random Bell-pair trials, the two
// halves always agree.
func TestBellPairTrialsAlwaysAgree(t *testing.T) {
	simtest.Run(t, 200, simtest.Trial{
		Build: func(rng *rand.Rand) *circuit.Circuit {
			c := circuit.New()
			if err := c.AppendOp(mustGateID(t, "H"), 0, []circuit.Target{circuit.QubitTarget(0, false)}); err != nil {
				t.Fatal(err)
			}
			if err := c.AppendOp(mustGateID(t, "CNOT"), 0, []circuit.Target{
				circuit.QubitTarget(0, false), circuit.QubitTarget(1, false),
			}); err != nil {
				t.Fatal(err)
			}
			if err := c.AppendOp(mustGateID(t, "M"), 0, []circuit.Target{
				circuit.QubitTarget(0, false), circuit.QubitTarget(1, false),
			}); err != nil {
				t.Fatal(err)
			}
			return c
		},
		Check: func(t *testing.T, c *circuit.Circuit, res sim.Result) {
			if res.Record[0] != res.Record[1] {
				t.Fatalf("Bell pair disagreement: %v vs %v", res.Record[0], res.Record[1])
			}
		},
	})
}

func mustGateID(t *testing.T, name string) uint16 {
	t.Helper()
	g, ok := gate.ByName(name)
	if !ok {
		t.Fatalf("gate %q not registered", name)
	}
	return g.ID
}
