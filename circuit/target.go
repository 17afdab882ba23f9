// Package circuit implements the arena-backed operation list, the
// streaming textual parser, the dumper, and circuit composition.
package circuit

// Target is a tagged qubit reference packed into 32 bits, per the bit
// layout shared by the IR arena and the simulator driver.
type Target uint32

const (
	// TargetQubitMask isolates the qubit index, bits 0..23.
	TargetQubitMask uint32 = 0x00FFFFFF
	// TargetPauliXMask is bit 24.
	TargetPauliXMask uint32 = 1 << 24
	// TargetPauliZMask is bit 25 (Y is X|Z).
	TargetPauliZMask uint32 = 1 << 25
	// TargetRecordShift is the shift for the 4-bit lookback nibble.
	TargetRecordShift = 28
	// TargetRecordMask isolates the lookback nibble, bits 28..31.
	TargetRecordMask uint32 = 0xF0000000
	// TargetInvertedMask is bit 31 alone, used only by plain-qubit
	// measurement targets (never combined with the record nibble).
	TargetInvertedMask uint32 = 0x80000000

	// MaxQubitIndex is the largest representable qubit index.
	MaxQubitIndex = int(TargetQubitMask)
	// MaxLookback is the largest representable record lookback distance.
	MaxLookback = 15
)

// QubitTarget builds a plain (optionally inverted) qubit target, used by M
// and R.
func QubitTarget(q int, inverted bool) Target {
	t := uint32(q) & TargetQubitMask
	if inverted {
		t |= TargetInvertedMask
	}
	return Target(t)
}

// PauliTarget builds a Pauli-string target carrying X/Z flags, used by
// TargetsPauliString gates.
func PauliTarget(q int, x, z bool) Target {
	t := uint32(q) & TargetQubitMask
	if x {
		t |= TargetPauliXMask
	}
	if z {
		t |= TargetPauliZMask
	}
	return Target(t)
}

// RecordTarget builds a measurement-record lookback target, used by
// DETECTOR and OBSERVABLE_INCLUDE. dt must be in [1,15].
func RecordTarget(dt int) Target {
	return Target((uint32(dt) << TargetRecordShift) & TargetRecordMask)
}

// QubitIndex returns the qubit-index bits.
func (t Target) QubitIndex() int { return int(uint32(t) & TargetQubitMask) }

// HasX reports whether the Pauli-X flag is set.
func (t Target) HasX() bool { return uint32(t)&TargetPauliXMask != 0 }

// HasZ reports whether the Pauli-Z flag is set.
func (t Target) HasZ() bool { return uint32(t)&TargetPauliZMask != 0 }

// Inverted reports whether the measurement-inversion flag is set.
func (t Target) Inverted() bool { return uint32(t)&TargetInvertedMask != 0 }

// Lookback returns the record lookback distance, or 0 if this target does
// not encode one.
func (t Target) Lookback() int { return int((uint32(t) & TargetRecordMask) >> TargetRecordShift) }

// PauliLetter returns the single-qubit Pauli letter encoded by the X/Z
// flags: 'I', 'X', 'Y', or 'Z'.
func (t Target) PauliLetter() byte {
	switch {
	case t.HasX() && t.HasZ():
		return 'Y'
	case t.HasX():
		return 'X'
	case t.HasZ():
		return 'Z'
	default:
		return 'I'
	}
}
