package circuit

import (
	"bufio"
	"context"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/dstab/stabsim/gate"
)

const eof = -1

// source is the single-character read interface the parser consumes,
// tracking the number of characters consumed for error messages.
type source struct {
	r   *bufio.Reader
	pos Pos
}

func newSource(r io.Reader) *source { return &source{r: bufio.NewReader(r)} }

// readChar returns the next byte as an int, or eof at end of input.
func (s *source) readChar() int {
	b, err := s.r.ReadByte()
	if err != nil {
		return eof
	}
	s.pos++
	return int(b)
}

func (s *source) peekChar() int {
	b, err := s.r.Peek(1)
	if err != nil {
		return eof
	}
	return int(b[0])
}

func isNameChar(c int) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isDigit(c int) bool { return c >= '0' && c <= '9' }

func isInlineSpace(c int) bool { return c == ' ' || c == '\t' }

// Parse reads a complete circuit from r, per the textual grammar. ctx is
// checked for cancellation between commands.
func Parse(ctx context.Context, r io.Reader) (*Circuit, error) {
	src := newSource(r)
	c, _, err := parseBody(ctx, src, 0)
	return c, err
}

// parseBody parses commands until EOF (depth==0) or a closing '}'
// (depth>0, consumed). Returns the parsed sub-circuit and whether a '}' was
// consumed (always true for depth>0 on success).
func parseBody(ctx context.Context, src *source, depth int) (*Circuit, bool, error) {
	c := New()
	for {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		skipInterCommandWS(src)
		switch p := src.peekChar(); {
		case p == eof:
			if depth > 0 {
				return nil, false, parseError(src.pos, "unterminated block: expected '}' before end of input")
			}
			return c, false, nil
		case p == '}':
			src.readChar()
			if depth == 0 {
				return nil, false, parseError(src.pos, "unmatched '}'")
			}
			return c, true, nil
		}
		if err := parseCommand(ctx, src, c); err != nil {
			return nil, false, err
		}
	}
}

func skipInterCommandWS(src *source) {
	for {
		switch src.peekChar() {
		case ' ', '\t', '\n', '\r':
			src.readChar()
		case '#':
			skipComment(src)
		default:
			return
		}
	}
}

func skipComment(src *source) {
	for {
		c := src.readChar()
		if c == eof || c == '\n' {
			return
		}
	}
}

func parseCommand(ctx context.Context, src *source, c *Circuit) error {
	startPos := src.pos
	name, err := readName(src)
	if err != nil {
		return err
	}
	g, ok := gate.ByName(name)
	if !ok {
		return parseError(startPos, "unknown gate %q", name)
	}

	arg, hasArg, err := readParensArg(src, g)
	if err != nil {
		return err
	}
	if g.Flags.Has(gate.TakesParensArgument) && !hasArg && g.Name != "REPEAT" {
		return parseError(src.pos, "gate %q requires a (...) argument", name)
	}

	if g.Name == "REPEAT" {
		if !hasArg {
			skipInlineWS(src)
			n, err := readUint(src)
			if err != nil {
				return err
			}
			arg = float64(n)
		}
		return parseRepeat(ctx, src, c, int(arg))
	}

	targets, err := readTargets(src, g)
	if err != nil {
		return err
	}
	if err := expectCommandEnd(src, g); err != nil {
		return err
	}
	if err := c.AppendOp(g.ID, arg, targets); err != nil {
		return errors.Wrapf(err, "in command %q", name)
	}
	return nil
}

func readName(src *source) (string, error) {
	var buf []byte
	for isNameChar(src.peekChar()) {
		buf = append(buf, byte(src.readChar()))
		if len(buf) > 31 {
			return "", parseError(src.pos, "gate name exceeds 31 characters")
		}
	}
	if len(buf) == 0 {
		return "", parseError(src.pos, "expected a gate name, got %q", rune(src.peekChar()))
	}
	return string(buf), nil
}

func readParensArg(src *source, g *gate.Gate) (float64, bool, error) {
	if src.peekChar() != '(' {
		return 0, false, nil
	}
	openPos := src.pos
	src.readChar()
	var buf []byte
	for src.peekChar() != ')' {
		c := src.readChar()
		if c == eof || c == '\n' {
			return 0, false, parseError(openPos, "unterminated (...) argument")
		}
		buf = append(buf, byte(c))
	}
	src.readChar() // consume ')'
	if !g.Flags.Has(gate.TakesParensArgument) {
		return 0, false, parseError(openPos, "gate %q does not take a (...) argument", g.Name)
	}
	v, err := strconv.ParseFloat(string(buf), 64)
	if err != nil || v < 0 {
		return 0, false, parseError(openPos, "invalid (...) argument %q: must be a non-negative real", string(buf))
	}
	return v, true, nil
}

// parseRepeat handles REPEAT n { ... } (or REPEAT(n) { ... }), unrolling the
// block n times into c. No copy fuses with the op before it.
func parseRepeat(ctx context.Context, src *source, c *Circuit, reps int) error {
	if reps < 1 {
		return parseError(src.pos, "REPEAT count must be >= 1, got %d", reps)
	}
	skipInlineWS(src)
	if src.readChar() != '{' {
		return parseError(src.pos, "expected '{' after REPEAT count")
	}
	body, _, err := parseBody(ctx, src, 1)
	if err != nil {
		return err
	}
	for i := 0; i < reps; i++ {
		c.ResetFuseBoundary()
		if err := c.AppendCircuit(body); err != nil {
			return errors.Wrap(err, "unrolling REPEAT block")
		}
	}
	c.ResetFuseBoundary()
	return nil
}

func skipInlineWS(src *source) {
	for isInlineSpace(src.peekChar()) {
		src.readChar()
	}
}

// readTargets reads the (WS target)* run terminated by newline, comment,
// '{', or EOF.
func readTargets(src *source, g *gate.Gate) ([]Target, error) {
	var targets []Target
	for {
		skipInlineWS(src)
		switch p := src.peekChar(); {
		case p == eof, p == '\n', p == '\r', p == '#':
			return targets, nil
		case p == '{':
			if g.Name != "REPEAT" {
				return nil, parseError(src.pos, "'{' is only valid after REPEAT")
			}
			return targets, nil
		}
		t, err := readTarget(src, g)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
		if n := src.peekChar(); n != eof && !isInlineSpace(n) && n != '\n' && n != '\r' && n != '#' && n != '{' {
			return nil, parseError(src.pos, "mis-separated targets: expected whitespace, got %q", rune(n))
		}
	}
}

func readUint(src *source) (int, error) {
	startPos := src.pos
	var buf []byte
	for isDigit(src.peekChar()) {
		buf = append(buf, byte(src.readChar()))
	}
	if len(buf) == 0 {
		return 0, parseError(startPos, "expected a decimal integer, got %q", rune(src.peekChar()))
	}
	v, err := strconv.Atoi(string(buf))
	if err != nil {
		return 0, parseError(startPos, "invalid integer %q", string(buf))
	}
	return v, nil
}

func readTarget(src *source, g *gate.Gate) (Target, error) {
	startPos := src.pos
	switch p := src.peekChar(); {
	case g.Flags.Has(gate.OnlyTargetsMeasurementRecord):
		return readRecordTarget(src)
	case g.Flags.Has(gate.TargetsPauliString):
		return readPauliTarget(src)
	case p == '!':
		src.readChar()
		q, err := readUint(src)
		if err != nil {
			return 0, err
		}
		if q > MaxQubitIndex {
			return 0, parseError(startPos, "qubit index %d exceeds %d", q, MaxQubitIndex)
		}
		return QubitTarget(q, true), nil
	case isDigit(p):
		q, err := readUint(src)
		if err != nil {
			return 0, err
		}
		if g.Flags.Has(gate.CanTargetMeasurementRecord) && src.peekChar() == '@' {
			return readRecordSuffix(src)
		}
		if q > MaxQubitIndex {
			return 0, parseError(startPos, "qubit index %d exceeds %d", q, MaxQubitIndex)
		}
		return QubitTarget(q, false), nil
	default:
		return 0, parseError(startPos, "unrecognized target syntax at %q", rune(p))
	}
}

func readPauliTarget(src *source) (Target, error) {
	startPos := src.pos
	letter := src.readChar()
	var x, z bool
	switch letter {
	case 'X', 'x':
		x = true
	case 'Y', 'y':
		x, z = true, true
	case 'Z', 'z':
		z = true
	case 'I', 'i':
	default:
		return 0, parseError(startPos, "Pauli target must start with X, Y, or Z, got %q", rune(letter))
	}
	q, err := readUint(src)
	if err != nil {
		return 0, err
	}
	if q > MaxQubitIndex {
		return 0, parseError(startPos, "qubit index %d exceeds %d", q, MaxQubitIndex)
	}
	return PauliTarget(q, x, z), nil
}

// readRecordTarget reads a bare "UINT@-UINT" lookback target, for gates
// whose targets are always record lookbacks (DETECTOR, OBSERVABLE_INCLUDE).
func readRecordTarget(src *source) (Target, error) {
	if _, err := readUint(src); err != nil {
		return 0, err
	}
	return readRecordSuffix(src)
}

// readRecordSuffix reads the "@-UINT" tail once the leading UINT has
// already been consumed by the caller.
func readRecordSuffix(src *source) (Target, error) {
	atPos := src.pos
	if src.readChar() != '@' {
		return 0, parseError(atPos, "expected '@-d' record lookback")
	}
	if src.readChar() != '-' {
		return 0, parseError(src.pos, "expected '@-d' record lookback")
	}
	dtPos := src.pos
	dt, err := readUint(src)
	if err != nil {
		return 0, err
	}
	if dt < 1 || dt > MaxLookback {
		return 0, parseError(dtPos, "record lookback %d out of range [1,%d]", dt, MaxLookback)
	}
	return RecordTarget(dt), nil
}

func expectCommandEnd(src *source, g *gate.Gate) error {
	switch p := src.peekChar(); {
	case p == eof:
		return nil
	case p == '\n':
		src.readChar()
		return nil
	case p == '\r':
		src.readChar()
		if src.peekChar() == '\n' {
			src.readChar()
		}
		return nil
	case p == '#':
		skipComment(src)
		return nil
	case p == '{':
		return parseError(src.pos, "'{' after non-block gate %q", g.Name)
	default:
		return parseError(src.pos, "unexpected character %q after command", rune(p))
	}
}
