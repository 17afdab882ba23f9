// Package bittable implements a packed row-major bit matrix with in-place
// square transpose and out-of-place rectangular transpose, built on the
// classic 64x64 bit-matrix transpose trick (the same recursive doubling
// shape the original engine implements as an 8x8-tile byte-lane interleave,
// here expressed over bitword's native 64-bit lanes since Go has no SIMD
// byte-shuffle primitive to target).
package bittable

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/dstab/stabsim/bitvec"
)

const tile = 64

// Table is a rows x cols packed bit matrix. Storage is padded internally:
// each row is rounded up to a whole 64-bit chunk and the row count is
// rounded up to a multiple of 64, so every row/column tile used by the
// transpose machinery is fully backed by storage. Rows and Cols report the
// exact, unpadded logical size.
type Table struct {
	rows, cols   int
	arows        int // rows padded up to a multiple of 64
	chunksPerRow int // cols padded up to a multiple of 64, in 64-bit chunks
	data         []uint64
}

// New returns a new zeroed Table of the given logical shape.
func New(rows, cols int) *Table {
	if rows < 0 || cols < 0 {
		panic("bittable: negative dimension")
	}
	chunksPerRow := (cols + 63) / 64
	arows := ((rows + 63) / 64) * 64
	return &Table{
		rows:         rows,
		cols:         cols,
		arows:        arows,
		chunksPerRow: chunksPerRow,
		data:         make([]uint64, arows*chunksPerRow),
	}
}

// Rows returns the number of logical rows.
func (t *Table) Rows() int { return t.rows }

// Cols returns the number of logical columns.
func (t *Table) Cols() int { return t.cols }

func (t *Table) checkCell(i, j int) {
	if i < 0 || i >= t.rows || j < 0 || j >= t.cols {
		panic(errors.Errorf("bittable: index (%d,%d) out of range for %dx%d table", i, j, t.rows, t.cols))
	}
}

// Get returns the bit at (i,j).
func (t *Table) Get(i, j int) bool {
	t.checkCell(i, j)
	return t.data[i*t.chunksPerRow+j/64]&(uint64(1)<<uint(j%64)) != 0
}

// Set assigns the bit at (i,j).
func (t *Table) Set(i, j int, b bool) {
	t.checkCell(i, j)
	idx := i*t.chunksPerRow + j/64
	bit := uint(j % 64)
	if b {
		t.data[idx] |= uint64(1) << bit
	} else {
		t.data[idx] &^= uint64(1) << bit
	}
}

// RowChunks returns a mutable view of row i's backing 64-bit chunks,
// including any column padding beyond Cols(). Callers must not grow or
// shrink the returned slice.
func (t *Table) RowChunks(i int) []uint64 {
	if i < 0 || i >= t.rows {
		panic(errors.Errorf("bittable: row %d out of range for %d rows", i, t.rows))
	}
	return t.data[i*t.chunksPerRow : (i+1)*t.chunksPerRow]
}

// Col materializes column j as a freshly allocated bit vector; unlike
// RowChunks this cannot be a zero-copy view because columns are not
// contiguous in row-major storage.
func (t *Table) Col(j int) *bitvec.Vec {
	if j < 0 || j >= t.cols {
		panic(errors.Errorf("bittable: col %d out of range for %d cols", j, t.cols))
	}
	v := bitvec.New(t.rows)
	for i := 0; i < t.rows; i++ {
		if t.Get(i, j) {
			v.Set(i, true)
		}
	}
	return v
}

// Clear zeroes every bit, including padding.
func (t *Table) Clear() {
	for i := range t.data {
		t.data[i] = 0
	}
}

// FillRandom fills every logical bit with an independent fair coin flip and
// zeroes all padding so padded-region reads are never garbage.
func (t *Table) FillRandom(rng *rand.Rand) {
	for i := range t.data {
		t.data[i] = rng.Uint64()
	}
	t.maskPadding()
}

func (t *Table) maskPadding() {
	// Clear padding columns beyond Cols() within real rows.
	rem := t.cols % 64
	if rem != 0 && t.chunksPerRow > 0 {
		var keep uint64 = (uint64(1) << uint(rem)) - 1
		for i := 0; i < t.rows; i++ {
			idx := i*t.chunksPerRow + t.chunksPerRow - 1
			t.data[idx] &= keep
		}
	}
	// Clear padding rows beyond Rows() entirely.
	for i := t.rows; i < t.arows; i++ {
		base := i * t.chunksPerRow
		for c := 0; c < t.chunksPerRow; c++ {
			t.data[base+c] = 0
		}
	}
}

func (t *Table) sameShape(other *Table) {
	if t.rows != other.rows || t.cols != other.cols {
		panic(errors.Errorf("bittable: shape mismatch %dx%d != %dx%d", t.rows, t.cols, other.rows, other.cols))
	}
}

// Xor performs t ^= other in place. Both tables must have equal shape.
func (t *Table) Xor(other *Table) {
	t.sameShape(other)
	for i := range t.data {
		t.data[i] ^= other.data[i]
	}
}

// Or performs t |= other in place. Both tables must have equal shape.
func (t *Table) Or(other *Table) {
	t.sameShape(other)
	for i := range t.data {
		t.data[i] |= other.data[i]
	}
}

// And performs t &= other in place. Both tables must have equal shape.
func (t *Table) And(other *Table) {
	t.sameShape(other)
	for i := range t.data {
		t.data[i] &= other.data[i]
	}
}

// Equal reports whether t and other hold the same logical bits.
func (t *Table) Equal(other *Table) bool {
	if t.rows != other.rows || t.cols != other.cols {
		return false
	}
	for i := 0; i < t.rows; i++ {
		a, b := t.RowChunks(i), other.RowChunks(i)
		for c := 0; c < t.chunksPerRow; c++ {
			if a[c] != b[c] {
				return false
			}
		}
	}
	return true
}

// getTile extracts the 64x64 bit block at tile coordinates (ti,tj), i.e.
// rows [ti*64, ti*64+64) and the 64-bit chunk at column-chunk index tj.
func (t *Table) getTile(ti, tj int) [tile]uint64 {
	var blk [tile]uint64
	base := ti * tile
	for r := 0; r < tile; r++ {
		blk[r] = t.data[(base+r)*t.chunksPerRow+tj]
	}
	return blk
}

func (t *Table) setTile(ti, tj int, blk [tile]uint64) {
	base := ti * tile
	for r := 0; r < tile; r++ {
		t.data[(base+r)*t.chunksPerRow+tj] = blk[r]
	}
}

// transpose64 transposes a 64x64 bit matrix packed as 64 uint64 rows, in
// place. This is the classic recursive-doubling bit-interleave algorithm:
// at each of six levels the swap distance halves (32,16,...,1), exactly
// mirroring the block-transpose recursion described for the 8x8-tile
// primitive, just carried out over 64-bit lanes instead of bytes.
func transpose64(a *[tile]uint64) {
	m := uint64(0x00000000FFFFFFFF)
	for j := uint(32); j != 0; {
		for k := 0; k < tile; k = (k + int(j) + 1) &^ int(j) {
			t := ((a[k] >> j) ^ a[k+int(j)]) & m
			a[k] ^= t << j
			a[k+int(j)] ^= t
		}
		j >>= 1
		m ^= m << j
	}
}

// DoSquareTranspose transposes t in place. t must be square with both
// dimensions a multiple of 256.
func (t *Table) DoSquareTranspose() error {
	if t.rows != t.cols {
		return errors.Errorf("bittable: square transpose requires rows == cols, got %dx%d", t.rows, t.cols)
	}
	if t.rows%256 != 0 {
		return errors.Errorf("bittable: square transpose requires a multiple of 256, got %d", t.rows)
	}
	n := t.rows / tile
	for ti := 0; ti < n; ti++ {
		for tj := ti; tj < n; tj++ {
			if ti == tj {
				blk := t.getTile(ti, tj)
				transpose64(&blk)
				t.setTile(ti, tj, blk)
				continue
			}
			a := t.getTile(ti, tj)
			b := t.getTile(tj, ti)
			transpose64(&a)
			transpose64(&b)
			t.setTile(tj, ti, a)
			t.setTile(ti, tj, b)
		}
	}
	return nil
}

// TransposeInto writes the transpose of t into out, which must have
// out.Rows() == t.Cols() and out.Cols() == t.Rows(). Unlike
// DoSquareTranspose this permits any (possibly rectangular) shape.
func (t *Table) TransposeInto(out *Table) error {
	if out.rows != t.cols || out.cols != t.rows {
		return errors.Errorf("bittable: transpose target must be %dx%d, got %dx%d", t.cols, t.rows, out.rows, out.cols)
	}
	tileRows := t.arows / tile
	tileCols := t.chunksPerRow
	for ti := 0; ti < tileRows; ti++ {
		for tj := 0; tj < tileCols; tj++ {
			blk := t.getTile(ti, tj)
			transpose64(&blk)
			out.setTile(tj, ti, blk)
		}
	}
	out.maskPadding()
	return nil
}

// NaiveTranspose returns a freshly computed transpose using the
// straightforward O(rows*cols) reference definition, for testing the fast
// path against.
func (t *Table) NaiveTranspose() *Table {
	out := New(t.cols, t.rows)
	for i := 0; i < t.rows; i++ {
		for j := 0; j < t.cols; j++ {
			if t.Get(i, j) {
				out.Set(j, i, true)
			}
		}
	}
	return out
}
