package circuit

import (
	"github.com/pkg/errors"

	"github.com/dstab/stabsim/gate"
)

// Operation is one instruction: a gate id, its real argument, and a view
// into the owning Circuit's arena. An Operation is only valid while its
// owning Circuit is alive.
type Operation struct {
	GateID uint16
	Arg    float64
	Offset uint32
	Length uint32
}

// Circuit is the arena-backed operation list.
type Circuit struct {
	arena           []Target
	ops             []Operation
	numQubits       int
	numMeasurements int
	canFuse         bool
}

// New returns an empty circuit.
func New() *Circuit {
	return &Circuit{}
}

// NumQubits returns 1 + the largest qubit index touched by any target, or 0.
func (c *Circuit) NumQubits() int { return c.numQubits }

// NumMeasurements returns the total length of every ProducesResults op's
// target slice.
func (c *Circuit) NumMeasurements() int { return c.numMeasurements }

// Ops returns the operation list. Callers must not mutate the result.
func (c *Circuit) Ops() []Operation { return c.ops }

// Targets returns op's target slice.
func (c *Circuit) Targets(op Operation) []Target {
	return c.arena[op.Offset : op.Offset+op.Length]
}

func canFuseWith(prev Operation, g *gate.Gate, gateID uint16, arg float64) bool {
	return !g.Flags.Has(gate.IsNotFusable) && prev.GateID == gateID && prev.Arg == arg
}

// AppendOp validates and appends one instruction. targets must already be
// correctly encoded for g's category (QubitTarget/PauliTarget/RecordTarget);
// a target carrying bits outside that category's mask is rejected.
func (c *Circuit) AppendOp(gateID uint16, arg float64, targets []Target) error {
	g, ok := gate.ByID(gateID)
	if !ok {
		return errors.Errorf("circuit: unknown gate id %d", gateID)
	}
	if err := validateTargets(g, targets); err != nil {
		return err
	}
	if arg != 0 && !g.Flags.Has(gate.TakesParensArgument) {
		return errors.Errorf("circuit: gate %q does not take an argument, got %g", g.Name, arg)
	}

	if c.canFuse && len(c.ops) > 0 {
		last := len(c.ops) - 1
		prev := c.ops[last]
		if canFuseWith(prev, g, gateID, arg) && int(prev.Offset+prev.Length) == len(c.arena) {
			c.arena = append(c.arena, targets...)
			c.ops[last].Length += uint32(len(targets))
			c.accumulate(g, targets)
			return nil
		}
	}

	off := len(c.arena)
	c.arena = append(c.arena, targets...)
	c.ops = append(c.ops, Operation{GateID: gateID, Arg: arg, Offset: uint32(off), Length: uint32(len(targets))})
	c.canFuse = true
	c.accumulate(g, targets)
	return nil
}

// ResetFuseBoundary disables fusion across the next AppendOp call; used
// after a REPEAT unroll.
func (c *Circuit) ResetFuseBoundary() { c.canFuse = false }

func (c *Circuit) accumulate(g *gate.Gate, targets []Target) {
	if !g.Flags.Has(gate.OnlyTargetsMeasurementRecord) {
		for _, t := range targets {
			if q := t.QubitIndex() + 1; q > c.numQubits {
				c.numQubits = q
			}
		}
	}
	if g.Flags.Has(gate.ProducesResults) {
		c.numMeasurements += len(targets)
	}
}

func validateTargets(g *gate.Gate, targets []Target) error {
	if g.Flags.Has(gate.TargetsPairs) {
		if len(targets)%2 != 0 {
			return errors.Errorf("circuit: gate %q requires an even number of targets, got %d", g.Name, len(targets))
		}
		for i := 0; i < len(targets); i += 2 {
			if targets[i].QubitIndex() == targets[i+1].QubitIndex() {
				return errors.Errorf("circuit: gate %q has a self-paired target on qubit %d", g.Name, targets[i].QubitIndex())
			}
		}
	}
	if g.Flags.Has(gate.OnlyTargetsMeasurementRecord) {
		for _, t := range targets {
			if t.Lookback() == 0 {
				return errors.Errorf("circuit: gate %q requires record-lookback targets only", g.Name)
			}
		}
	}
	for _, t := range targets {
		if !g.Flags.Has(gate.OnlyTargetsMeasurementRecord) && t.QubitIndex() > MaxQubitIndex {
			return errors.Errorf("circuit: qubit index %d exceeds %d", t.QubitIndex(), MaxQubitIndex)
		}
	}
	allowed := TargetQubitMask
	switch {
	case g.Flags.Has(gate.OnlyTargetsMeasurementRecord):
		allowed = TargetRecordMask
	case g.Flags.Has(gate.TargetsPauliString):
		allowed |= TargetPauliXMask | TargetPauliZMask
	case g.Flags.Has(gate.ProducesResults):
		allowed |= TargetInvertedMask
	case g.Flags.Has(gate.CanTargetMeasurementRecord):
		allowed |= TargetRecordMask
	}
	for _, t := range targets {
		if uint32(t)&^allowed != 0 {
			return errors.Errorf("circuit: gate %q does not accept target word %#08x", g.Name, uint32(t))
		}
	}
	return nil
}

// AppendCircuit rematerializes other's arena slices into c's arena and
// appends its ops, attempting to fuse the first appended op with c's last
// op. Grounded on Circuit::operator+= / append_circuit in the original
// source.
//
// Self-append (other == c) is detected by pointer identity: per the design
// notes, rather than walking other.ops while c.ops (the very same backing
// slice) is being extended underneath the loop, a self-append snapshots the
// op list up front, appends a fresh copy of each snapshotted op,
// and doubles numMeasurements directly instead of re-deriving it op by op.
func (c *Circuit) AppendCircuit(other *Circuit) error {
	if other == c {
		return c.appendSelf()
	}
	for i, op := range other.ops {
		targets := other.Targets(op)
		if i == 0 {
			if err := c.AppendOp(op.GateID, op.Arg, targets); err != nil {
				return err
			}
			continue
		}
		c.canFuse = true
		if err := c.AppendOp(op.GateID, op.Arg, targets); err != nil {
			return err
		}
	}
	return nil
}

func (c *Circuit) appendSelf() error {
	origOps := len(c.ops)
	origArena := len(c.arena)
	origMeasurements := c.numMeasurements
	snapshot := append([]Operation(nil), c.ops...)
	for i := 0; i < origOps; i++ {
		op := snapshot[i]
		targets := append([]Target(nil), c.arena[op.Offset:op.Offset+op.Length]...)
		if i == 0 {
			if err := c.AppendOp(op.GateID, op.Arg, targets); err != nil {
				return err
			}
			continue
		}
		c.canFuse = true
		if err := c.AppendOp(op.GateID, op.Arg, targets); err != nil {
			return err
		}
	}
	_ = origArena
	c.numMeasurements = 2 * origMeasurements
	return nil
}

// Times performs reps-1 successive self-appends (AppendCircuit(c)). Each
// self-append doubles the circuit as it stands, so the result holds
// 2^(reps-1) copies of the original, not reps copies.
func (c *Circuit) Times(reps int) error {
	if reps < 1 {
		return errors.Errorf("circuit: Times requires reps >= 1, got %d", reps)
	}
	for i := 1; i < reps; i++ {
		if err := c.AppendCircuit(c); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns an independent deep copy of c.
func (c *Circuit) Clone() *Circuit {
	clone := &Circuit{
		arena:           append([]Target(nil), c.arena...),
		ops:             append([]Operation(nil), c.ops...),
		numQubits:       c.numQubits,
		numMeasurements: c.numMeasurements,
	}
	return clone
}

// Equal reports whether c and other have bit-identical arenas and ops.
func (c *Circuit) Equal(other *Circuit) bool {
	if c.numQubits != other.numQubits || c.numMeasurements != other.numMeasurements {
		return false
	}
	if len(c.ops) != len(other.ops) {
		return false
	}
	for i := range c.ops {
		a, b := c.ops[i], other.ops[i]
		if a.GateID != b.GateID || a.Arg != b.Arg || a.Length != b.Length {
			return false
		}
		ta, tb := c.Targets(a), other.Targets(b)
		for j := range ta {
			if ta[j] != tb[j] {
				return false
			}
		}
	}
	return true
}

// ApproxEqual reports whether c and other are equal up to eps tolerance on
// every op's real argument.
func (c *Circuit) ApproxEqual(other *Circuit, eps float64) bool {
	if c.numQubits != other.numQubits || c.numMeasurements != other.numMeasurements {
		return false
	}
	if len(c.ops) != len(other.ops) {
		return false
	}
	for i := range c.ops {
		a, b := c.ops[i], other.ops[i]
		if a.GateID != b.GateID || a.Length != b.Length {
			return false
		}
		if diff := a.Arg - b.Arg; diff > eps || diff < -eps {
			return false
		}
		ta, tb := c.Targets(a), other.Targets(b)
		for j := range ta {
			if ta[j] != tb[j] {
				return false
			}
		}
	}
	return true
}
