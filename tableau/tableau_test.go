package tableau_test

import (
	"math/rand"
	"testing"

	"github.com/dstab/stabsim/tableau"
)

// checkInvariant verifies the defining symplectic relations of a stabilizer
// tableau: destabilizers pairwise commute, stabilizers pairwise commute,
// and destabilizer i anticommutes with stabilizer j iff i == j.
func checkInvariant(t *testing.T, tab *tableau.Tableau) {
	t.Helper()
	n := tab.Len()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if !tab.Destabilizer(i).Commutes(tab.Destabilizer(j)) {
				t.Fatalf("destabilizer %d and %d anticommute", i, j)
			}
			if !tab.Stabilizer(i).Commutes(tab.Stabilizer(j)) {
				t.Fatalf("stabilizer %d and %d anticommute", i, j)
			}
			want := i != j
			if got := tab.Destabilizer(i).Commutes(tab.Stabilizer(j)); got != want {
				t.Fatalf("destabilizer %d vs stabilizer %d: commutes=%v, want %v", i, j, got, want)
			}
		}
	}
}

func TestIdentityInvariant(t *testing.T) {
	checkInvariant(t, tableau.NewIdentity(6))
}

// applyRandomGate exercises every gate, single- and two-qubit, so the
// invariant check below walks the whole Clifford set.
func applyRandomGate(tab *tableau.Tableau, rng *rand.Rand, n int) {
	single := []func(int){
		tab.ApplyI, tab.ApplyX, tab.ApplyY, tab.ApplyZ, tab.ApplyH,
		tab.ApplyS, tab.ApplySDag, tab.ApplySqrtX, tab.ApplySqrtXDag,
		tab.ApplySqrtY, tab.ApplySqrtYDag,
	}
	pair := []func(int, int){
		tab.ApplyCNOT, tab.ApplyCY, tab.ApplyCZ, tab.ApplySWAP,
		tab.ApplyISWAP, tab.ApplyISWAPDag, tab.ApplyXCX, tab.ApplyXCY,
		tab.ApplyXCZ, tab.ApplyYCX, tab.ApplyYCY, tab.ApplyYCZ,
	}
	if n >= 2 && rng.Intn(2) == 0 {
		a := rng.Intn(n)
		b := rng.Intn(n)
		for b == a {
			b = rng.Intn(n)
		}
		pair[rng.Intn(len(pair))](a, b)
		return
	}
	single[rng.Intn(len(single))](rng.Intn(n))
}

func TestInvariantPreservedUnderRandomCliffordSequence(t *testing.T) {
	const n = 8
	rng := rand.New(rand.NewSource(42))
	tab := tableau.NewIdentity(n)
	for i := 0; i < 500; i++ {
		applyRandomGate(tab, rng, n)
		checkInvariant(t, tab)
	}
}

// Every declared inverse pair (S/S_DAG, SQRT_X/SQRT_X_DAG,
// SQRT_Y/SQRT_Y_DAG, ISWAP/ISWAP_DAG) and every self-inverse gate, applied twice, must
// restore the tableau exactly.
func TestSelfInverseAndDeclaredInversePairs(t *testing.T) {
	cases := []struct {
		name string
		run  func(tab *tableau.Tableau)
	}{
		{"I", func(tab *tableau.Tableau) { tab.ApplyI(0); tab.ApplyI(0) }},
		{"X", func(tab *tableau.Tableau) { tab.ApplyX(0); tab.ApplyX(0) }},
		{"Y", func(tab *tableau.Tableau) { tab.ApplyY(0); tab.ApplyY(0) }},
		{"Z", func(tab *tableau.Tableau) { tab.ApplyZ(0); tab.ApplyZ(0) }},
		{"H", func(tab *tableau.Tableau) { tab.ApplyH(0); tab.ApplyH(0) }},
		{"S;S_DAG", func(tab *tableau.Tableau) { tab.ApplyS(0); tab.ApplySDag(0) }},
		{"SQRT_X;SQRT_X_DAG", func(tab *tableau.Tableau) { tab.ApplySqrtX(0); tab.ApplySqrtXDag(0) }},
		{"SQRT_Y;SQRT_Y_DAG", func(tab *tableau.Tableau) { tab.ApplySqrtY(0); tab.ApplySqrtYDag(0) }},
		{"CNOT", func(tab *tableau.Tableau) { tab.ApplyCNOT(0, 1); tab.ApplyCNOT(0, 1) }},
		{"CY", func(tab *tableau.Tableau) { tab.ApplyCY(0, 1); tab.ApplyCY(0, 1) }},
		{"CZ", func(tab *tableau.Tableau) { tab.ApplyCZ(0, 1); tab.ApplyCZ(0, 1) }},
		{"SWAP", func(tab *tableau.Tableau) { tab.ApplySWAP(0, 1); tab.ApplySWAP(0, 1) }},
		{"ISWAP;ISWAP_DAG", func(tab *tableau.Tableau) { tab.ApplyISWAP(0, 1); tab.ApplyISWAPDag(0, 1) }},
		{"XCX", func(tab *tableau.Tableau) { tab.ApplyXCX(0, 1); tab.ApplyXCX(0, 1) }},
		{"XCY", func(tab *tableau.Tableau) { tab.ApplyXCY(0, 1); tab.ApplyXCY(0, 1) }},
		{"XCZ", func(tab *tableau.Tableau) { tab.ApplyXCZ(0, 1); tab.ApplyXCZ(0, 1) }},
		{"YCX", func(tab *tableau.Tableau) { tab.ApplyYCX(0, 1); tab.ApplyYCX(0, 1) }},
		{"YCY", func(tab *tableau.Tableau) { tab.ApplyYCY(0, 1); tab.ApplyYCY(0, 1) }},
		{"YCZ", func(tab *tableau.Tableau) { tab.ApplyYCZ(0, 1); tab.ApplyYCZ(0, 1) }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			tab := tableau.NewIdentity(3)
			want := tableau.NewIdentity(3)
			c.run(tab)
			for k := 0; k < 3; k++ {
				if !tab.Destabilizer(k).Equal(want.Destabilizer(k)) {
					t.Fatalf("destabilizer %d = %v, want identity image", k, tab.Destabilizer(k))
				}
				if !tab.Stabilizer(k).Equal(want.Stabilizer(k)) {
					t.Fatalf("stabilizer %d = %v, want identity image", k, tab.Stabilizer(k))
				}
			}
		})
	}
}

func TestMeasureDeterministicAfterReset(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	tab := tableau.NewIdentity(1)
	if !tab.IsDeterministic(0) {
		t.Fatal("|0> should be deterministic for a Z-basis measurement")
	}
	outcome, err := tab.Measure(0, rng)
	if err != nil {
		t.Fatal(err)
	}
	if outcome {
		t.Fatal("measuring |0> in the Z basis should yield false")
	}
}

func TestMeasureAfterXIsDeterministicTrue(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	tab := tableau.NewIdentity(1)
	tab.ApplyX(0)
	outcome, err := tab.Measure(0, rng)
	if err != nil {
		t.Fatal(err)
	}
	if !outcome {
		t.Fatal("measuring X|0> = |1> in the Z basis should yield true")
	}
}

func TestMeasureAfterHIsRandomButConsistent(t *testing.T) {
	tab := tableau.NewIdentity(1)
	tab.ApplyH(0)
	if tab.IsDeterministic(0) {
		t.Fatal("H|0> should be non-deterministic in the Z basis")
	}
	rng := rand.New(rand.NewSource(3))
	outcome, err := tab.Measure(0, rng)
	if err != nil {
		t.Fatal(err)
	}
	// Once collapsed, a repeat measurement must agree.
	if !tab.IsDeterministic(0) {
		t.Fatal("after collapse, a repeated Z measurement should be deterministic")
	}
	outcome2, err := tab.Measure(0, rng)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != outcome2 {
		t.Fatalf("repeated measurement disagreed: %v then %v", outcome, outcome2)
	}
}

func TestResetForcesZeroState(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	tab := tableau.NewIdentity(1)
	tab.ApplyX(0)
	if err := tab.Reset(0, rng); err != nil {
		t.Fatal(err)
	}
	outcome, err := tab.Measure(0, rng)
	if err != nil {
		t.Fatal(err)
	}
	if outcome {
		t.Fatal("Reset should force the qubit back to |0>")
	}
}

func TestBellPairEntanglement(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	tab := tableau.NewIdentity(2)
	tab.ApplyH(0)
	tab.ApplyCNOT(0, 1)
	if tab.IsDeterministic(0) || tab.IsDeterministic(1) {
		t.Fatal("each qubit of a Bell pair should be individually random")
	}
	a, err := tab.Measure(0, rng)
	if err != nil {
		t.Fatal(err)
	}
	// After measuring qubit 0, qubit 1 must collapse to the same outcome.
	if !tab.IsDeterministic(1) {
		t.Fatal("after measuring one half of a Bell pair, the other half must be deterministic")
	}
	b, err := tab.Measure(1, rng)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatalf("Bell pair outcomes disagreed: %v vs %v", a, b)
	}
}
