package types

import (
	"fmt"
	"strings"

	"github.com/lemonberrylabs/loxide/pkg/token"
)

// Error tag constants.
const (
	TagTypeError     = "TypeError"
	TagOperatorError = "OperatorError"
)

// RuntimeError is an evaluation failure. Tags classify it; Token, when
// set, is the operator the failure is attributed to and carries its source
// position.
type RuntimeError struct {
	Message string
	Tags    []string
	Token   *token.Token
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Token != nil && e.Token.Line != "" {
		line, col := e.Position()
		return fmt.Sprintf("%s at line %d col %d (tags=[%s])", e.Message, line, col, strings.Join(e.Tags, ", "))
	}
	return fmt.Sprintf("%s (tags=[%s])", e.Message, strings.Join(e.Tags, ", "))
}

// Position returns the 1-based line and column of the offending operator,
// or zeros when the error has no source position.
func (e *RuntimeError) Position() (line, col int) {
	if e.Token == nil {
		return 0, 0
	}
	return e.Token.Pos.Line + 1, e.Token.Pos.Column + 1
}

// SourceLine returns the source line of the offending operator, if known.
func (e *RuntimeError) SourceLine() string {
	if e.Token == nil {
		return ""
	}
	return e.Token.Line
}

// HasTag returns true if the error has the specified tag.
func (e *RuntimeError) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// At attaches the operator token to the error and returns it.
func (e *RuntimeError) At(tok token.Token) *RuntimeError {
	e.Token = &tok
	return e
}

// NewTypeError creates a TypeError.
func NewTypeError(msg string) *RuntimeError {
	return &RuntimeError{Message: msg, Tags: []string{TagTypeError}}
}

// NewTypeErrorf creates a TypeError with a formatted message.
func NewTypeErrorf(format string, args ...interface{}) *RuntimeError {
	return NewTypeError(fmt.Sprintf(format, args...))
}

// NewOperatorError creates an error for an operator that has no meaning in
// the position it appears in. It is also a TypeError.
func NewOperatorError(msg string) *RuntimeError {
	return &RuntimeError{Message: msg, Tags: []string{TagTypeError, TagOperatorError}}
}
