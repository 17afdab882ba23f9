// Package tableau implements the stabilizer tableau: the destabilizer/
// stabilizer generator images that track a Clifford circuit's action on the
// all-zero state, plus in-place Clifford gate application and the
// randomized-outcome measurement algorithm.
package tableau

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/dstab/stabsim/pauli"
)

// Tableau holds, for an N-qubit stabilizer state, the images of the 2N
// single-qubit Pauli generators under the Clifford circuit applied so far.
// xs[k] is the current image of X_k; zs[k] is the current image of Z_k.
type Tableau struct {
	n  int
	xs []*pauli.String
	zs []*pauli.String
}

// NewIdentity returns the tableau for the all-zero state on n qubits: the
// image of every generator is itself.
func NewIdentity(n int) *Tableau {
	t := &Tableau{n: n, xs: make([]*pauli.String, n), zs: make([]*pauli.String, n)}
	for k := 0; k < n; k++ {
		t.xs[k] = pauli.New(n)
		t.xs[k].SetPauli(k, 'X')
		t.zs[k] = pauli.New(n)
		t.zs[k].SetPauli(k, 'Z')
	}
	return t
}

// Len returns the number of qubits.
func (t *Tableau) Len() int { return t.n }

// Destabilizer returns the image of X_k.
func (t *Tableau) Destabilizer(k int) *pauli.String { return t.xs[k] }

// Stabilizer returns the image of Z_k.
func (t *Tableau) Stabilizer(k int) *pauli.String { return t.zs[k] }

// Clone returns an independent deep copy of t, used by Monte-Carlo trial
// helpers that need to rerun a circuit from a checkpoint.
func (t *Tableau) Clone() *Tableau {
	c := &Tableau{n: t.n, xs: make([]*pauli.String, t.n), zs: make([]*pauli.String, t.n)}
	for k := 0; k < t.n; k++ {
		c.xs[k] = t.xs[k].Clone()
		c.zs[k] = t.zs[k].Clone()
	}
	return c
}

func (t *Tableau) checkQubit(q int) {
	if q < 0 || q >= t.n {
		panic(errors.Errorf("tableau: qubit %d out of range for %d qubits", q, t.n))
	}
}

// forEachRow calls f on every one of the 2N generator images: the n
// destabilizers followed by the n stabilizers.
func (t *Tableau) forEachRow(f func(*pauli.String)) {
	for _, r := range t.xs {
		f(r)
	}
	for _, r := range t.zs {
		f(r)
	}
}

// single1Q is the conjugation formula for a single-qubit Clifford: given the
// current (x,z) bits of a row at the target qubit, it returns the new bits
// and whether an extra sign flip is introduced.
type single1Q func(x, z bool) (nx, nz, flip bool)

func (t *Tableau) apply1Q(q int, f single1Q) {
	t.checkQubit(q)
	t.forEachRow(func(r *pauli.String) {
		x, z := r.Xs().Get(q), r.Zs().Get(q)
		nx, nz, flip := f(x, z)
		r.Xs().Set(q, nx)
		r.Zs().Set(q, nz)
		if flip {
			r.FlipSign()
		}
	})
}

// single2Q is the conjugation formula for a two-qubit Clifford acting on a
// pair of qubits (a,b): given the current local bits at both qubits, it
// returns the new local bits and whether an extra sign flip is introduced.
type single2Q func(xa, za, xb, zb bool) (nxa, nza, nxb, nzb, flip bool)

func (t *Tableau) apply2Q(a, b int, f single2Q) {
	t.checkQubit(a)
	t.checkQubit(b)
	if a == b {
		panic(errors.Errorf("tableau: two-qubit gate requires distinct qubits, got %d twice", a))
	}
	t.forEachRow(func(r *pauli.String) {
		xa, za := r.Xs().Get(a), r.Zs().Get(a)
		xb, zb := r.Xs().Get(b), r.Zs().Get(b)
		nxa, nza, nxb, nzb, flip := f(xa, za, xb, zb)
		r.Xs().Set(a, nxa)
		r.Zs().Set(a, nza)
		r.Xs().Set(b, nxb)
		r.Zs().Set(b, nzb)
		if flip {
			r.FlipSign()
		}
	})
}

// The single-qubit formulas below are each verified directly against the
// gate's 2x2 unitary matrix (conjugation P -> G'PG), not assembled from
// smaller pieces, since the smaller pieces are exactly what these are.

func fmtI(x, z bool) (bool, bool, bool)        { return x, z, false }
func fmtX(x, z bool) (bool, bool, bool)        { return x, z, z }
func fmtY(x, z bool) (bool, bool, bool)        { return x, z, x != z }
func fmtZ(x, z bool) (bool, bool, bool)        { return x, z, x }
func fmtH(x, z bool) (bool, bool, bool)        { return z, x, x && z }
func fmtS(x, z bool) (bool, bool, bool)        { return x, z != x, x && z }
func fmtSDag(x, z bool) (bool, bool, bool)     { return x, z != x, x && !z }
func fmtSqrtX(x, z bool) (bool, bool, bool)    { return x != z, z, !x && z }
func fmtSqrtXDag(x, z bool) (bool, bool, bool) { return x != z, z, x && z }
func fmtSqrtY(x, z bool) (bool, bool, bool)    { return z, x, x && !z }
func fmtSqrtYDag(x, z bool) (bool, bool, bool) { return z, x, !x && z }

func (t *Tableau) ApplyI(q int)        { t.apply1Q(q, fmtI) }
func (t *Tableau) ApplyX(q int)        { t.apply1Q(q, fmtX) }
func (t *Tableau) ApplyY(q int)        { t.apply1Q(q, fmtY) }
func (t *Tableau) ApplyZ(q int)        { t.apply1Q(q, fmtZ) }
func (t *Tableau) ApplyH(q int)        { t.apply1Q(q, fmtH) }
func (t *Tableau) ApplyS(q int)        { t.apply1Q(q, fmtS) }
func (t *Tableau) ApplySDag(q int)     { t.apply1Q(q, fmtSDag) }
func (t *Tableau) ApplySqrtX(q int)    { t.apply1Q(q, fmtSqrtX) }
func (t *Tableau) ApplySqrtXDag(q int) { t.apply1Q(q, fmtSqrtXDag) }
func (t *Tableau) ApplySqrtY(q int)    { t.apply1Q(q, fmtSqrtY) }
func (t *Tableau) ApplySqrtYDag(q int) { t.apply1Q(q, fmtSqrtYDag) }

// ApplyCNOT applies a controlled-X with control a and target b. Formula per
// Aaronson & Gottesman, "Improved Simulation of Stabilizer Circuits" (2004):
// x_b ^= x_a; z_a ^= z_b; sign flips iff x_a & z_b & (x_b ^ z_a ^ 1).
func (t *Tableau) ApplyCNOT(a, b int) {
	t.apply2Q(a, b, func(xa, za, xb, zb bool) (bool, bool, bool, bool, bool) {
		flip := xa && zb && (xb == za)
		return xa, za != zb, xb != xa, zb, flip
	})
}

// ApplyCZ applies a controlled-Z on (a,b). Derived as H_b;CNOT(a,b);H_b and
// confirmed against CZ's matrix action on the four computational basis
// states: z_a ^= x_b; z_b ^= x_a; sign flips iff x_a & x_b & (z_a ^ z_b).
func (t *Tableau) ApplyCZ(a, b int) {
	t.apply2Q(a, b, func(xa, za, xb, zb bool) (bool, bool, bool, bool, bool) {
		flip := xa && xb && (za != zb)
		return xa, za != xb, xb, zb != xa, flip
	})
}

// ApplySWAP exchanges the full Pauli content of qubits a and b.
func (t *Tableau) ApplySWAP(a, b int) {
	t.apply2Q(a, b, func(xa, za, xb, zb bool) (bool, bool, bool, bool, bool) {
		return xb, zb, xa, za, false
	})
}

// ApplyCY applies a controlled-Y on (a,b), built as the basis-changed CNOT
// S_DAG(b);CNOT(a,b);S(b). Any sandwich V;B;V^-1 with self-inverse B is
// self-inverse, so CY needs no separate inverse.
func (t *Tableau) ApplyCY(a, b int) {
	t.ApplySDag(b)
	t.ApplyCNOT(a, b)
	t.ApplyS(b)
}

// ApplyISWAP applies the iSWAP gate on (a,b), built as S(a);S(b);CZ(a,b);SWAP(a,b)
// -- confirmed against iSWAP's matrix action on all four basis states.
func (t *Tableau) ApplyISWAP(a, b int) {
	t.ApplyS(a)
	t.ApplyS(b)
	t.ApplyCZ(a, b)
	t.ApplySWAP(a, b)
}

// ApplyISWAPDag applies the inverse of ApplyISWAP: the reverse-ordered
// composition of each step's inverse.
func (t *Tableau) ApplyISWAPDag(a, b int) {
	t.ApplySWAP(a, b)
	t.ApplyCZ(a, b)
	t.ApplySDag(b)
	t.ApplySDag(a)
}

// ApplyXCX applies an X-basis-controlled X on (a,b): H(a);CNOT(a,b);H(a).
// Self-inverse by the sandwich argument.
func (t *Tableau) ApplyXCX(a, b int) {
	t.ApplyH(a)
	t.ApplyCNOT(a, b)
	t.ApplyH(a)
}

// ApplyXCY applies an X-basis-controlled Y on (a,b): H(a);CY(a,b);H(a).
func (t *Tableau) ApplyXCY(a, b int) {
	t.ApplyH(a)
	t.ApplyCY(a, b)
	t.ApplyH(a)
}

// ApplyXCZ applies an X-basis-controlled Z on (a,b): H(a);CZ(a,b);H(a).
// Equivalent up to naming convention to CNOT with the roles of control and
// target qubit swapped.
func (t *Tableau) ApplyXCZ(a, b int) {
	t.ApplyH(a)
	t.ApplyCZ(a, b)
	t.ApplyH(a)
}

// ApplyYCX applies a Y-basis-controlled X on (a,b): SQRT_X(a);CNOT(a,b);SQRT_X_DAG(a).
func (t *Tableau) ApplyYCX(a, b int) {
	t.ApplySqrtX(a)
	t.ApplyCNOT(a, b)
	t.ApplySqrtXDag(a)
}

// ApplyYCY applies a Y-basis-controlled Y on (a,b): SQRT_X(a);CY(a,b);SQRT_X_DAG(a).
func (t *Tableau) ApplyYCY(a, b int) {
	t.ApplySqrtX(a)
	t.ApplyCY(a, b)
	t.ApplySqrtXDag(a)
}

// ApplyYCZ applies a Y-basis-controlled Z on (a,b): SQRT_X(a);CZ(a,b);SQRT_X_DAG(a).
func (t *Tableau) ApplyYCZ(a, b int) {
	t.ApplySqrtX(a)
	t.ApplyCZ(a, b)
	t.ApplySqrtXDag(a)
}

// IsDeterministic reports whether measuring qubit q would yield the same
// outcome on every run of the current state, without mutating the tableau.
func (t *Tableau) IsDeterministic(q int) bool {
	t.checkQubit(q)
	return t.findAnticommutingStabilizer(q) < 0
}

// findAnticommutingStabilizer returns the index of a stabilizer generator
// with an X-component on q (which anticommutes with the Z_q measurement),
// or -1 if none exists.
func (t *Tableau) findAnticommutingStabilizer(q int) int {
	for i := 0; i < t.n; i++ {
		if t.zs[i].Xs().Get(q) {
			return i
		}
	}
	return -1
}

// Measure collapses qubit q onto the Z basis, consuming rng.Int63 bits only
// when the outcome is not already determined, and returns the observed
// result.
//
// This follows the standard Aaronson-Gottesman stabilizer measurement
// update: search the stabilizer array for a generator with an X-component
// on q (one that anticommutes with Z_q). If none exists the result is
// forced: it is the sign of the product, over every destabilizer with an
// X-component on q, of that destabilizer's paired stabilizer row.
// Otherwise the result is a fair coin flip: the found stabilizer row (the
// pivot) is multiplied into every other row -- destabilizer or stabilizer
// alike -- that has an X-component on q, the pivot's own destabilizer is
// overwritten with the pivot's pre-multiplication value, and the pivot
// itself is overwritten with a signed Z_q.
func (t *Tableau) Measure(q int, rng *rand.Rand) (bool, error) {
	t.checkQubit(q)
	p := t.findAnticommutingStabilizer(q)
	if p < 0 {
		acc := pauli.New(t.n)
		for i := 0; i < t.n; i++ {
			if t.xs[i].Xs().Get(q) {
				acc.InplaceRightMultiply(t.zs[i])
			}
		}
		return acc.Sign(), nil
	}

	outcome := rng.Int63()&1 == 1
	pivot := t.zs[p].Clone()
	for i := 0; i < t.n; i++ {
		if i != p && t.xs[i].Xs().Get(q) {
			t.xs[i].InplaceRightMultiply(pivot)
		}
	}
	for j := 0; j < t.n; j++ {
		if j != p && t.zs[j].Xs().Get(q) {
			t.zs[j].InplaceRightMultiply(pivot)
		}
	}
	t.xs[p].CopyFrom(pivot)
	fresh := pauli.New(t.n)
	fresh.SetPauli(q, 'Z')
	fresh.SetSign(outcome)
	t.zs[p].CopyFrom(fresh)
	return outcome, nil
}

// Reset collapses qubit q to the |0> state: it measures q and, if the
// outcome was 1, applies an X to flip it back to |0>.
func (t *Tableau) Reset(q int, rng *rand.Rand) error {
	outcome, err := t.Measure(q, rng)
	if err != nil {
		return err
	}
	if outcome {
		t.ApplyX(q)
	}
	return nil
}
