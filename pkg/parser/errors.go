package parser

import (
	"fmt"
	"strings"

	"github.com/lemonberrylabs/loxide/pkg/ast"
	"github.com/lemonberrylabs/loxide/pkg/token"
)

// ErrorKind classifies a syntax error.
type ErrorKind int

const (
	PopFailed          ErrorKind = iota // token stream ended where an operand was required
	MissingRightParen                   // grouping not closed by ')'
	UnexpectedToken                     // complete expression followed by a stray token
	ExpectedExpression                  // token cannot start an expression
	NestingTooDeep                      // grouping/unary nesting exceeded the limit
)

// String returns the error kind name.
func (k ErrorKind) String() string {
	switch k {
	case PopFailed:
		return "PopFailed"
	case MissingRightParen:
		return "MissingRightParen"
	case UnexpectedToken:
		return "UnexpectedToken"
	case ExpectedExpression:
		return "ExpectedExpression"
	case NestingTooDeep:
		return "NestingTooDeep"
	default:
		return "Unknown"
	}
}

// Error is a syntax error for one top-level unit. Token is the token the
// parser was looking at when it failed. Partial, when non-nil, is the part of
// the unit that did parse; it is offered for diagnostics and is never
// evaluated.
type Error struct {
	Kind    ErrorKind
	Token   token.Token
	Partial ast.Node
}

// Position returns the 1-based line and column of the offending token.
func (e *Error) Position() (line, col int) {
	return e.Token.Pos.Line + 1, e.Token.Pos.Column + 1
}

// SourceLine returns the full source line of the offending token.
func (e *Error) SourceLine() string {
	return e.Token.Line
}

func (e *Error) Error() string {
	line, col := e.Position()
	var msg string
	switch e.Kind {
	case PopFailed:
		msg = "unexpected end of input, expected an expression"
	case MissingRightParen:
		msg = fmt.Sprintf("expected ')' after expression, got %s", describe(e.Token))
	case UnexpectedToken:
		msg = fmt.Sprintf("unexpected %s after expression", describe(e.Token))
	case ExpectedExpression:
		msg = fmt.Sprintf("expected expression, got %s", describe(e.Token))
	case NestingTooDeep:
		msg = "expression nested too deeply"
	default:
		msg = "syntax error"
	}
	return fmt.Sprintf("parse error at line %d col %d: %s", line, col, msg)
}

func describe(tok token.Token) string {
	if tok.Type == token.End {
		return "end of input"
	}
	if tok.Lexeme != "" {
		return fmt.Sprintf("'%s'", tok.Lexeme)
	}
	return tok.Type.String()
}

// ErrorList holds the syntax errors of a program in source order.
type ErrorList []*Error

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
	return fmt.Sprintf("%d parse errors: %s", len(l), strings.Join(msgs, "; "))
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (l ErrorList) Unwrap() []error {
	errs := make([]error, len(l))
	for i, e := range l {
		errs[i] = e
	}
	return errs
}
