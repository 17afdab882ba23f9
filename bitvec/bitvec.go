// Package bitvec implements a length-tagged, word-aligned packed bit vector
// built on bitword.Word lanes.
package bitvec

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/dstab/stabsim/bitword"
)

// Vec is a packed bit vector of a fixed length.
type Vec struct {
	n     int
	words []bitword.Word
}

// numWords returns the number of bitword.Word needed to hold n bits.
func numWords(n int) int {
	return (n + bitword.Bits - 1) / bitword.Bits
}

// New returns a new zeroed Vec of length n.
func New(n int) *Vec {
	if n < 0 {
		panic("bitvec: negative length")
	}
	return &Vec{n: n, words: make([]bitword.Word, numWords(n))}
}

// Len returns the number of addressable bits.
func (v *Vec) Len() int { return v.n }

// NumWords returns the number of backing bitword.Word lanes.
func (v *Vec) NumWords() int { return len(v.words) }

// Word returns the i-th backing word.
func (v *Vec) Word(i int) bitword.Word { return v.words[i] }

// SetWord overwrites the i-th backing word.
func (v *Vec) SetWord(i int, w bitword.Word) { v.words[i] = w }

// Zero clears every bit.
func (v *Vec) Zero() {
	for i := range v.words {
		v.words[i] = bitword.Zero
	}
}

// Random fills v with independent fair-coin bits drawn from rng.
func (v *Vec) Random(rng *rand.Rand) {
	for i := range v.words {
		var w bitword.Word
		for l := range w {
			w[l] = rng.Uint64()
		}
		v.words[i] = w
	}
	v.maskTail()
}

// maskTail clears any padding bits beyond n in the final word so that
// Popcount-style consumers never observe garbage.
func (v *Vec) maskTail() {
	if v.n == 0 || len(v.words) == 0 {
		return
	}
	rem := v.n % bitword.Bits
	if rem == 0 {
		return
	}
	last := &v.words[len(v.words)-1]
	for i := rem; i < bitword.Bits; i++ {
		*last = last.Set(i, false)
	}
}

func (v *Vec) checkIndex(i int) {
	if i < 0 || i >= v.n {
		panic(errors.Errorf("bitvec: index %d out of range [0,%d)", i, v.n))
	}
}

// Get returns bit i. It panics if i is out of range.
func (v *Vec) Get(i int) bool {
	v.checkIndex(i)
	return v.words[i/bitword.Bits].Get(i % bitword.Bits)
}

// Set assigns bit i. It panics if i is out of range.
func (v *Vec) Set(i int, b bool) {
	v.checkIndex(i)
	wi := i / bitword.Bits
	v.words[wi] = v.words[wi].Set(i%bitword.Bits, b)
}

// sameLen panics if v and other have different lengths; used to guard the
// in-place combinators, mirroring the teacher's "Check" precondition idiom.
func (v *Vec) sameLen(other *Vec) {
	if v.n != other.n {
		panic(errors.Errorf("bitvec: length mismatch %d != %d", v.n, other.n))
	}
}

// Xor performs v ^= other in place.
func (v *Vec) Xor(other *Vec) {
	v.sameLen(other)
	for i := range v.words {
		v.words[i] = bitword.Xor(v.words[i], other.words[i])
	}
}

// Or performs v |= other in place.
func (v *Vec) Or(other *Vec) {
	v.sameLen(other)
	for i := range v.words {
		v.words[i] = bitword.Or(v.words[i], other.words[i])
	}
}

// And performs v &= other in place.
func (v *Vec) And(other *Vec) {
	v.sameLen(other)
	for i := range v.words {
		v.words[i] = bitword.And(v.words[i], other.words[i])
	}
}

// Popcount returns the number of set bits.
func (v *Vec) Popcount() int {
	n := 0
	for _, w := range v.words {
		n += w.Popcount()
	}
	return n
}

// Clone returns an independent copy of v.
func (v *Vec) Clone() *Vec {
	c := &Vec{n: v.n, words: make([]bitword.Word, len(v.words))}
	copy(c.words, v.words)
	return c
}

// CopyFrom overwrites v's contents with other's. Both must have equal length.
func (v *Vec) CopyFrom(other *Vec) {
	v.sameLen(other)
	copy(v.words, other.words)
}

// AndPopcount returns popcount(a & b) without mutating either vector.
func AndPopcount(a, b *Vec) int {
	a.sameLen(b)
	n := 0
	for i := range a.words {
		n += bitword.And(a.words[i], b.words[i]).Popcount()
	}
	return n
}

// Equal reports whether v and other hold the same bits.
func (v *Vec) Equal(other *Vec) bool {
	if v.n != other.n {
		return false
	}
	for i := range v.words {
		if v.words[i] != other.words[i] {
			return false
		}
	}
	return true
}
