package circuit

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dstab/stabsim/gate"
)

// Dump writes c's textual form to w: a header comment followed by one
// line per operation, in the grammar §4.8 expects a round trip through
// Parse to reproduce.
func Dump(w io.Writer, c *Circuit) error {
	if _, err := fmt.Fprintf(w, "# Circuit [num_qubits=%d, num_measurements=%d]\n", c.NumQubits(), c.NumMeasurements()); err != nil {
		return err
	}
	var sb strings.Builder
	for _, op := range c.Ops() {
		g, ok := gate.ByID(op.GateID)
		if !ok {
			return fmt.Errorf("circuit: dump: unknown gate id %d", op.GateID)
		}
		sb.Reset()
		sb.WriteString(g.Name)
		if g.Flags.Has(gate.TakesParensArgument) {
			sb.WriteByte('(')
			sb.WriteString(formatArg(op.Arg))
			sb.WriteByte(')')
		}
		for _, t := range c.Targets(op) {
			sb.WriteByte(' ')
			writeTarget(&sb, g, t)
		}
		sb.WriteByte('\n')
		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
	}
	return nil
}

func formatArg(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeTarget(sb *strings.Builder, g *gate.Gate, t Target) {
	switch {
	case g.Flags.Has(gate.OnlyTargetsMeasurementRecord):
		fmt.Fprintf(sb, "0@-%d", t.Lookback())
	case g.Flags.Has(gate.TargetsPauliString):
		sb.WriteByte(t.PauliLetter())
		fmt.Fprintf(sb, "%d", t.QubitIndex())
	default:
		if t.Inverted() {
			sb.WriteByte('!')
		}
		fmt.Fprintf(sb, "%d", t.QubitIndex())
	}
}
