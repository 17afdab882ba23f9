package circuit

import "github.com/pkg/errors"

// Pos is the number of characters consumed from the source stream when the
// error was raised, used for ParseError's location field.
type Pos int

// ParseError reports a malformed-grammar or out-of-range-value fault while
// reading a circuit. Mirrors the teacher's own parseError helper in
// parse.go: a single formatted message naming the offending input and
// position, wrapped so callers can still unwrap to the underlying cause.
type ParseError struct {
	Pos Pos
	Msg string
	err error
}

func (e *ParseError) Error() string {
	return errors.Errorf("at pos %d: %s", e.Pos, e.Msg).Error()
}

func (e *ParseError) Unwrap() error { return e.err }

func parseError(pos Pos, format string, args ...interface{}) *ParseError {
	msg := errors.Errorf(format, args...)
	return &ParseError{Pos: pos, Msg: msg.Error(), err: msg}
}
