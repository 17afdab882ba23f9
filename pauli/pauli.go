// Package pauli implements signed Pauli-string arithmetic over packed bit
// vectors: the X-mask/Z-mask representation used by both the stabilizer
// tableau and the simulator's targeting of Pauli-string gates.
package pauli

import (
	"github.com/pkg/errors"

	"github.com/dstab/stabsim/bitvec"
	"github.com/dstab/stabsim/bitword"
)

// String is a signed Pauli product on N qubits, stored as two parallel bit
// vectors: xs[q] and zs[q] jointly encode qubit q's Pauli per the mapping
// (0,0)=I, (1,0)=X, (0,1)=Z, (1,1)=Y.
type String struct {
	sign bool // true means an overall factor of -1
	xs   *bitvec.Vec
	zs   *bitvec.Vec
}

// New returns the identity Pauli string (all I, sign +1) on n qubits.
func New(n int) *String {
	return &String{xs: bitvec.New(n), zs: bitvec.New(n)}
}

// FromFunc builds a Pauli string of length n with the given sign, setting
// qubit q's Pauli to whatever f(q) returns ('I', 'X', 'Y', or 'Z').
func FromFunc(n int, sign bool, f func(q int) byte) *String {
	s := &String{sign: sign, xs: bitvec.New(n), zs: bitvec.New(n)}
	for q := 0; q < n; q++ {
		s.SetPauli(q, f(q))
	}
	return s
}

// Len returns the number of qubits.
func (s *String) Len() int { return s.xs.Len() }

// Sign reports whether the string carries an overall factor of -1.
func (s *String) Sign() bool { return s.sign }

// SetSign overwrites the overall sign.
func (s *String) SetSign(neg bool) { s.sign = neg }

// Xs returns the backing X-mask vector. Mutating it directly bypasses no
// invariant but callers should prefer GetPauli/SetPauli for clarity.
func (s *String) Xs() *bitvec.Vec { return s.xs }

// Zs returns the backing Z-mask vector.
func (s *String) Zs() *bitvec.Vec { return s.zs }

// GetPauli returns the single-qubit Pauli at index q as one of 'I','X','Y','Z'.
func (s *String) GetPauli(q int) byte {
	x, z := s.xs.Get(q), s.zs.Get(q)
	switch {
	case !x && !z:
		return 'I'
	case x && !z:
		return 'X'
	case !x && z:
		return 'Z'
	default:
		return 'Y'
	}
}

// SetPauli assigns the single-qubit Pauli at index q.
func (s *String) SetPauli(q int, p byte) {
	switch p {
	case 'I':
		s.xs.Set(q, false)
		s.zs.Set(q, false)
	case 'X':
		s.xs.Set(q, true)
		s.zs.Set(q, false)
	case 'Z':
		s.xs.Set(q, false)
		s.zs.Set(q, true)
	case 'Y':
		s.xs.Set(q, true)
		s.zs.Set(q, true)
	default:
		panic(errors.Errorf("pauli: invalid Pauli letter %q", p))
	}
}

// FlipSign inverts s's overall sign.
func (s *String) FlipSign() { s.sign = !s.sign }

// Clone returns an independent copy of s.
func (s *String) Clone() *String {
	return &String{sign: s.sign, xs: s.xs.Clone(), zs: s.zs.Clone()}
}

// CopyFrom overwrites s's contents with other's. Both must have equal length.
func (s *String) CopyFrom(other *String) {
	s.sign = other.sign
	s.xs.CopyFrom(other.xs)
	s.zs.CopyFrom(other.zs)
}

// Zero resets s to the identity (all I, sign +1).
func (s *String) Zero() {
	s.sign = false
	s.xs.Zero()
	s.zs.Zero()
}

// Commutes reports whether s and other commute as operators: true iff the
// symplectic inner product popcount(s.xs & other.zs) XOR popcount(s.zs &
// other.xs) is 0 mod 2.
func (s *String) Commutes(other *String) bool {
	a := bitvec.AndPopcount(s.xs, other.zs)
	b := bitvec.AndPopcount(s.zs, other.xs)
	return (a+b)%2 == 0
}

// Equal reports whether s and other denote the same signed Pauli string.
func (s *String) Equal(other *String) bool {
	return s.sign == other.sign && s.xs.Equal(other.xs) && s.zs.Equal(other.zs)
}

// InplaceRightMultiply updates s := s * other in the Pauli group and
// reports whether the non-commuting cross terms introduced an extra factor
// of -1 (distinct from the two operands' own declared signs, which are
// simply XORed in). Per the stabilizer-formalism convention used
// throughout this package, composing two real (Hermitian, +-1-signed)
// Pauli strings that arose from Clifford conjugation always yields a real
// result; InplaceRightMultiply panics if the accumulated phase exponent
// comes out odd, which would mean one of the inputs was not such a string.
func (s *String) InplaceRightMultiply(other *String) bool {
	// Per qubit, X*Y, Y*Z and Z*X contribute +i; Y*X, Z*Y and X*Z contribute -i.
	count := 0
	for i := 0; i < s.xs.NumWords(); i++ {
		ax, az := s.xs.Word(i), s.zs.Word(i)
		bx, bz := other.xs.Word(i), other.zs.Word(i)
		aX, aY, aZ := bitword.And(ax, bitword.Not(az)), bitword.And(ax, az), bitword.And(az, bitword.Not(ax))
		bX, bY, bZ := bitword.And(bx, bitword.Not(bz)), bitword.And(bx, bz), bitword.And(bz, bitword.Not(bx))
		plus := bitword.Or(bitword.Or(bitword.And(aX, bY), bitword.And(aY, bZ)), bitword.And(aZ, bX))
		minus := bitword.Or(bitword.Or(bitword.And(aY, bX), bitword.And(aZ, bY)), bitword.And(aX, bZ))
		count += plus.Popcount() - minus.Popcount()
	}
	phase := ((count % 4) + 4) % 4
	if phase%2 != 0 {
		panic(errors.Errorf("pauli: odd phase exponent %d multiplying non-Hermitian-derived strings", phase))
	}
	flip := phase == 2
	s.xs.Xor(other.xs)
	s.zs.Xor(other.zs)
	s.sign = s.sign != other.sign != flip
	return flip
}
