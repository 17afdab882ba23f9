// Package sim drives a parsed circuit against a Tableau, maintaining the
// measurement record and resolving DETECTOR/OBSERVABLE_INCLUDE annotations.
package sim

import (
	"context"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/dstab/stabsim/circuit"
	"github.com/dstab/stabsim/gate"
	"github.com/dstab/stabsim/tableau"
)

// Detector is a parity of measurement outcomes expected to be deterministic
// under noiseless execution.
type Detector struct {
	MeasurementIndices []int
	Parity             bool
}

// Observable is a parity of measurement outcomes representing a logical
// qubit's eigenvalue, keyed by its declared index.
type Observable struct {
	Index              int
	MeasurementIndices []int
	Parity             bool
}

// Result is everything a single run of a circuit produces.
type Result struct {
	Record      []bool
	Detectors   []Detector
	Observables map[int]Observable
	Ticks       int
}

// Driver walks a Circuit's operations against a Tableau.
type Driver struct {
	tab         *tableau.Tableau
	rng         *rand.Rand
	record      []bool
	detectors   []Detector
	observables map[int]*Observable
	ticks       int
}

// NewDriver returns a driver operating on tab, using rng for measurement
// and reset outcomes.
func NewDriver(tab *tableau.Tableau, rng *rand.Rand) *Driver {
	return &Driver{tab: tab, rng: rng, observables: map[int]*Observable{}}
}

// Run walks every operation of c in order, checking ctx for cancellation
// between operations, per the single-threaded synchronous contract.
func (d *Driver) Run(ctx context.Context, c *circuit.Circuit) (Result, error) {
	for _, op := range c.Ops() {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		g, ok := gate.ByID(op.GateID)
		if !ok {
			return Result{}, errors.Errorf("sim: unknown gate id %d", op.GateID)
		}
		targets := c.Targets(op)
		if err := d.applyOp(g, op, targets); err != nil {
			return Result{}, errors.Wrapf(err, "applying %q", g.Name)
		}
	}
	return d.result(), nil
}

func (d *Driver) applyOp(g *gate.Gate, op circuit.Operation, targets []circuit.Target) error {
	switch {
	case g.IsClifford():
		return d.applyClifford(g, targets)
	case g.Name == "M":
		return d.applyMeasure(targets)
	case g.Name == "R":
		return d.applyReset(targets)
	case g.Name == "DETECTOR":
		return d.applyDetector(targets)
	case g.Name == "OBSERVABLE_INCLUDE":
		return d.applyObservableInclude(op, targets)
	case g.Name == "TICK":
		d.ticks++
		return nil
	default:
		return errors.Errorf("sim: gate %q has no driver handling", g.Name)
	}
}

func (d *Driver) applyClifford(g *gate.Gate, targets []circuit.Target) error {
	if g.Flags.Has(gate.TargetsPairs) {
		for i := 0; i < len(targets); i += 2 {
			g.Apply2(d.tab, targets[i].QubitIndex(), targets[i+1].QubitIndex())
		}
		return nil
	}
	for _, t := range targets {
		g.Apply1(d.tab, t.QubitIndex())
	}
	return nil
}

func (d *Driver) applyMeasure(targets []circuit.Target) error {
	for _, t := range targets {
		outcome, err := d.tab.Measure(t.QubitIndex(), d.rng)
		if err != nil {
			return err
		}
		if t.Inverted() {
			outcome = !outcome
		}
		d.record = append(d.record, outcome)
	}
	return nil
}

func (d *Driver) applyReset(targets []circuit.Target) error {
	for _, t := range targets {
		if err := d.tab.Reset(t.QubitIndex(), d.rng); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) applyDetector(targets []circuit.Target) error {
	idxs, err := d.resolveLookbacks(targets)
	if err != nil {
		return err
	}
	d.detectors = append(d.detectors, Detector{MeasurementIndices: idxs, Parity: d.parityOf(idxs)})
	return nil
}

func (d *Driver) applyObservableInclude(op circuit.Operation, targets []circuit.Target) error {
	idxs, err := d.resolveLookbacks(targets)
	if err != nil {
		return err
	}
	idx := int(op.Arg)
	obs, ok := d.observables[idx]
	if !ok {
		obs = &Observable{Index: idx}
		d.observables[idx] = obs
	}
	obs.MeasurementIndices = append(obs.MeasurementIndices, idxs...)
	return nil
}

// resolveLookbacks maps each target's dt to measure_index - dt, where
// measure_index is the running measurement count before this operation.
func (d *Driver) resolveLookbacks(targets []circuit.Target) ([]int, error) {
	measureIndex := len(d.record)
	idxs := make([]int, 0, len(targets))
	for _, t := range targets {
		dt := t.Lookback()
		if dt == 0 {
			return nil, errors.New("sim: record lookback dt must be nonzero")
		}
		idx := measureIndex - dt
		if idx < 0 {
			return nil, errors.New("sim: record lookback before start of recording")
		}
		idxs = append(idxs, idx)
	}
	return idxs, nil
}

func (d *Driver) parityOf(idxs []int) bool {
	parity := false
	for _, i := range idxs {
		parity = parity != d.record[i]
	}
	return parity
}

func (d *Driver) result() Result {
	observables := make(map[int]Observable, len(d.observables))
	for idx, obs := range d.observables {
		observables[idx] = Observable{
			Index:              obs.Index,
			MeasurementIndices: obs.MeasurementIndices,
			Parity:             d.parityOf(obs.MeasurementIndices),
		}
	}
	return Result{
		Record:      d.record,
		Detectors:   d.detectors,
		Observables: observables,
		Ticks:       d.ticks,
	}
}

func newTableauFor(c *circuit.Circuit) *tableau.Tableau {
	return tableau.NewIdentity(c.NumQubits())
}

// Sample re-runs c shots times, each from a fresh identity tableau, and
// returns one measurement-record row per shot. Used for Monte-Carlo trials.
func Sample(ctx context.Context, c *circuit.Circuit, shots int, rng *rand.Rand) ([][]bool, error) {
	if shots < 1 {
		return nil, errors.Errorf("sim: Sample requires shots >= 1, got %d", shots)
	}
	rows := make([][]bool, shots)
	for s := 0; s < shots; s++ {
		tab := newTableauFor(c)
		d := NewDriver(tab, rng)
		res, err := d.Run(ctx, c)
		if err != nil {
			return nil, errors.Wrapf(err, "shot %d", s)
		}
		rows[s] = res.Record
	}
	return rows, nil
}
