package scanner

import (
	"fmt"
	"strings"

	"github.com/lemonberrylabs/loxide/pkg/token"
)

// ErrorKind classifies a lexical error.
type ErrorKind int

const (
	UnexpectedChar     ErrorKind = iota // no token starts with this character
	UnterminatedString                  // input ended inside a string literal
	NumberLiteralParse                  // digit run is not a finite float64
)

// String returns the error kind name.
func (k ErrorKind) String() string {
	switch k {
	case UnexpectedChar:
		return "UnexpectedChar"
	case UnterminatedString:
		return "UnterminatedString"
	case NumberLiteralParse:
		return "NumberLiteralParse"
	default:
		return "Unknown"
	}
}

// Error is a single lexical error. Pos is 0-based; Position reports it
// 1-based for display.
type Error struct {
	Kind ErrorKind
	Text string // offending lexeme
	Line string // full text of the source line
	Pos  token.Pos
}

// Position returns the 1-based line and column of the error.
func (e *Error) Position() (line, col int) {
	return e.Pos.Line + 1, e.Pos.Column + 1
}

// SourceLine returns the full source line the error refers to.
func (e *Error) SourceLine() string {
	return e.Line
}

// Error implements the error interface.
func (e *Error) Error() string {
	line, col := e.Position()
	switch e.Kind {
	case UnexpectedChar:
		return fmt.Sprintf("unexpected character '%s' at line %d col %d", e.Text, line, col)
	case UnterminatedString:
		return fmt.Sprintf("unterminated string at line %d col %d", line, col)
	case NumberLiteralParse:
		return fmt.Sprintf("unable to parse '%s' as a number at line %d col %d", e.Text, line, col)
	default:
		return fmt.Sprintf("scan error at line %d col %d", line, col)
	}
}

// ErrorList is the ordered list of every lexical error found in one source.
type ErrorList []*Error

// Error implements the error interface.
func (l ErrorList) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	msgs := make([]string, len(l))
	for i, e := range l {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("%d scan errors: %s", len(l), strings.Join(msgs, "; "))
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (l ErrorList) Unwrap() []error {
	errs := make([]error, len(l))
	for i, e := range l {
		errs[i] = e
	}
	return errs
}
