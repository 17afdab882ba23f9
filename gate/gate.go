// Package gate holds the static, process-wide gate registry: every circuit
// instruction's numeric id, name, flag bits, and (for Cliffords) the tableau
// patch that implements it.
package gate

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/dstab/stabsim/tableau"
)

// Flag is a disjoint-use bitset describing how a gate's targets and
// arguments are interpreted, per the target-word and parser dispatch
// contract.
type Flag uint16

const (
	// ProducesResults marks a gate that writes to the measurement record.
	ProducesResults Flag = 1 << iota
	// TakesParensArgument marks a gate with a single non-negative real
	// argument written as NAME(x).
	TakesParensArgument
	// IsBlock marks a gate expecting a "{ ... }" body (only REPEAT).
	IsBlock
	// TargetsPairs requires an even target count, consecutive pairs
	// distinct, each pair applied as a two-qubit gate.
	TargetsPairs
	// IsNotFusable forbids merging with a neighboring identical operation.
	IsNotFusable
	// TargetsPauliString marks a gate whose targets carry X/Z Pauli flags.
	TargetsPauliString
	// OnlyTargetsMeasurementRecord requires every target to be a record
	// lookback.
	OnlyTargetsMeasurementRecord
	// CanTargetMeasurementRecord permits, but does not require, record
	// lookback targets.
	CanTargetMeasurementRecord
)

// Has reports whether f has every bit of mask set.
func (f Flag) Has(mask Flag) bool { return f&mask == mask }

// Apply1 is a single-qubit tableau patch.
type Apply1 func(t *tableau.Tableau, q int)

// Apply2 is a two-qubit tableau patch.
type Apply2 func(t *tableau.Tableau, a, b int)

// Gate is one entry of the static registry.
type Gate struct {
	ID      uint16
	Name    string
	Flags   Flag
	Apply1  Apply1 // set for single-qubit Clifford gates
	Apply2  Apply2 // set for two-qubit (TargetsPairs) Clifford gates
	Inverse string // name of the declared inverse gate, "" if none/self
}

// IsClifford reports whether g carries a tableau patch.
func (g *Gate) IsClifford() bool { return g.Apply1 != nil || g.Apply2 != nil }

var byName = map[string]*Gate{}
var byID []*Gate

func register(g *Gate) {
	g.ID = uint16(len(byID))
	byID = append(byID, g)
	byName[g.Name] = g
}

// ByName looks up a gate by its canonical upper-case name, case-insensitive.
func ByName(name string) (*Gate, bool) {
	g, ok := byName[strings.ToUpper(name)]
	return g, ok
}

// ByID looks up a gate by its numeric id.
func ByID(id uint16) (*Gate, bool) {
	if int(id) >= len(byID) {
		return nil, false
	}
	return byID[id], true
}

// Count returns the number of registered gates.
func Count() int { return len(byID) }

func cliff1(name, inverse string, apply Apply1) {
	register(&Gate{Name: name, Apply1: apply, Inverse: inverse})
}

func cliff2(name, inverse string, apply Apply2) {
	register(&Gate{Name: name, Flags: TargetsPairs, Apply2: apply, Inverse: inverse})
}

func init() {
	cliff1("I", "", (*tableau.Tableau).ApplyI)
	cliff1("X", "", (*tableau.Tableau).ApplyX)
	cliff1("Y", "", (*tableau.Tableau).ApplyY)
	cliff1("Z", "", (*tableau.Tableau).ApplyZ)
	cliff1("H", "", (*tableau.Tableau).ApplyH)
	cliff1("S", "S_DAG", (*tableau.Tableau).ApplyS)
	cliff1("S_DAG", "S", (*tableau.Tableau).ApplySDag)
	cliff1("SQRT_X", "SQRT_X_DAG", (*tableau.Tableau).ApplySqrtX)
	cliff1("SQRT_X_DAG", "SQRT_X", (*tableau.Tableau).ApplySqrtXDag)
	cliff1("SQRT_Y", "SQRT_Y_DAG", (*tableau.Tableau).ApplySqrtY)
	cliff1("SQRT_Y_DAG", "SQRT_Y", (*tableau.Tableau).ApplySqrtYDag)

	cliff2("CNOT", "", (*tableau.Tableau).ApplyCNOT)
	registerAlias("CX", "CNOT")
	cliff2("CY", "", (*tableau.Tableau).ApplyCY)
	cliff2("CZ", "", (*tableau.Tableau).ApplyCZ)
	cliff2("SWAP", "", (*tableau.Tableau).ApplySWAP)
	cliff2("ISWAP", "ISWAP_DAG", (*tableau.Tableau).ApplyISWAP)
	cliff2("ISWAP_DAG", "ISWAP", (*tableau.Tableau).ApplyISWAPDag)
	cliff2("XCX", "", (*tableau.Tableau).ApplyXCX)
	cliff2("XCY", "", (*tableau.Tableau).ApplyXCY)
	cliff2("XCZ", "", (*tableau.Tableau).ApplyXCZ)
	cliff2("YCX", "", (*tableau.Tableau).ApplyYCX)
	cliff2("YCY", "", (*tableau.Tableau).ApplyYCY)
	cliff2("YCZ", "", (*tableau.Tableau).ApplyYCZ)

	register(&Gate{Name: "M", Flags: ProducesResults})
	register(&Gate{Name: "R", Flags: 0})
	register(&Gate{Name: "DETECTOR", Flags: OnlyTargetsMeasurementRecord | IsNotFusable})
	register(&Gate{Name: "OBSERVABLE_INCLUDE", Flags: OnlyTargetsMeasurementRecord | TakesParensArgument | IsNotFusable})
	register(&Gate{Name: "TICK", Flags: IsNotFusable})
	register(&Gate{Name: "REPEAT", Flags: IsBlock | TakesParensArgument})

	if err := validate(); err != nil {
		panic(err)
	}
}

// registerAlias registers name as a second lookup key for an already
// registered gate's *Gate entry, without allocating a new id.
func registerAlias(alias, target string) {
	g, ok := byName[target]
	if !ok {
		panic(errors.Errorf("gate: alias %q refers to unknown gate %q", alias, target))
	}
	byName[alias] = g
}

func validate() error {
	for _, g := range byID {
		set := 0
		for _, bit := range []Flag{ProducesResults, OnlyTargetsMeasurementRecord, TargetsPauliString, CanTargetMeasurementRecord} {
			if g.Flags.Has(bit) {
				set++
			}
		}
		if set > 1 {
			return errors.Errorf("gate: %q sets more than one of the targeting-dispatch flags", g.Name)
		}
		if g.Flags.Has(IsBlock) && g.Name != "REPEAT" {
			return errors.Errorf("gate: %q sets IsBlock but only REPEAT may", g.Name)
		}
		if g.Flags.Has(TakesParensArgument) && g.Flags.Has(IsBlock) && g.Name != "REPEAT" {
			return errors.Errorf("gate: %q combines TakesParensArgument and IsBlock but is not REPEAT", g.Name)
		}
		if g.Inverse != "" {
			inv, ok := byName[g.Inverse]
			if !ok {
				return errors.Errorf("gate: %q declares unknown inverse %q", g.Name, g.Inverse)
			}
			if inv.Inverse != g.Name {
				return errors.Errorf("gate: %q and %q do not declare each other as inverses", g.Name, g.Inverse)
			}
		}
	}
	return nil
}
