// Package token defines the lexical vocabulary shared by the scanner and the
// parser: token types, the token value itself and the reserved word table.
package token

import (
	"fmt"
	"strconv"
)

// Type represents the type of a lexical token.
type Type int

const (
	// Single-character tokens
	LeftParen  Type = iota // (
	RightParen             // )
	LeftBrace              // {
	RightBrace             // }
	Comma                  // ,
	Dot                    // .
	Minus                  // -
	Plus                   // +
	Semicolon              // ;
	Slash                  // /
	Star                   // *

	// One or two character tokens
	Bang         // !
	BangEqual    // !=
	Equal        // =
	EqualEqual   // ==
	Greater      // >
	GreaterEqual // >=
	Less         // <
	LessEqual    // <=

	// Literals
	Identifier
	String
	Number

	// Keywords
	And
	Class
	Else
	False
	Fun
	For
	If
	Nil
	Or
	Print
	Return
	Super
	This
	True
	Var
	While

	// End marks the end of the token stream. It appears exactly once, last.
	End
)

var typeNames = [...]string{
	LeftParen:    "LEFT_PAREN",
	RightParen:   "RIGHT_PAREN",
	LeftBrace:    "LEFT_BRACE",
	RightBrace:   "RIGHT_BRACE",
	Comma:        "COMMA",
	Dot:          "DOT",
	Minus:        "MINUS",
	Plus:         "PLUS",
	Semicolon:    "SEMICOLON",
	Slash:        "SLASH",
	Star:         "STAR",
	Bang:         "BANG",
	BangEqual:    "BANG_EQUAL",
	Equal:        "EQUAL",
	EqualEqual:   "EQUAL_EQUAL",
	Greater:      "GREATER",
	GreaterEqual: "GREATER_EQUAL",
	Less:         "LESS",
	LessEqual:    "LESS_EQUAL",
	Identifier:   "IDENTIFIER",
	String:       "STRING",
	Number:       "NUMBER",
	And:          "AND",
	Class:        "CLASS",
	Else:         "ELSE",
	False:        "FALSE",
	Fun:          "FUN",
	For:          "FOR",
	If:           "IF",
	Nil:          "NIL",
	Or:           "OR",
	Print:        "PRINT",
	Return:       "RETURN",
	Super:        "SUPER",
	This:         "THIS",
	True:         "TRUE",
	Var:          "VAR",
	While:        "WHILE",
	End:          "END",
}

// String returns a debug-friendly representation of the token type.
func (t Type) String() string {
	if t >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "UNKNOWN"
}

// Keywords maps every reserved word to its token type. Lookups are
// case-sensitive. The map is built once at package initialisation and is
// never written afterwards.
var Keywords = map[string]Type{
	"and":    And,
	"class":  Class,
	"else":   Else,
	"false":  False,
	"for":    For,
	"fun":    Fun,
	"if":     If,
	"nil":    Nil,
	"or":     Or,
	"print":  Print,
	"return": Return,
	"super":  Super,
	"this":   This,
	"true":   True,
	"var":    Var,
	"while":  While,
}

// symbols holds the fixed source text of every payload-free token.
var symbols = map[Type]string{
	LeftParen:    "(",
	RightParen:   ")",
	LeftBrace:    "{",
	RightBrace:   "}",
	Comma:        ",",
	Dot:          ".",
	Minus:        "-",
	Plus:         "+",
	Semicolon:    ";",
	Slash:        "/",
	Star:         "*",
	Bang:         "!",
	BangEqual:    "!=",
	Equal:        "=",
	EqualEqual:   "==",
	Greater:      ">",
	GreaterEqual: ">=",
	Less:         "<",
	LessEqual:    "<=",
	End:          "",
}

func init() {
	for word, t := range Keywords {
		symbols[t] = word
	}
}

// Symbol returns the fixed source text for a payload-free token type, or ""
// for literal-bearing types.
func Symbol(t Type) string {
	return symbols[t]
}

// Pos is a 0-based position in the source.
type Pos struct {
	Line   int
	Column int // in grapheme clusters
}

// Token represents a single lexical token.
type Token struct {
	Type   Type
	Lexeme string  // raw source text
	Str    string  // decoded text (Identifier, String)
	Num    float64 // decoded value (Number)
	Pos    Pos
	Line   string // full text of the source line the token starts on
}

// New creates a payload-free token of the given type.
func New(t Type) Token {
	return Token{Type: t, Lexeme: symbols[t]}
}

// NewNumber creates a Number token from its lexeme and decoded value.
func NewNumber(lexeme string, v float64) Token {
	return Token{Type: Number, Lexeme: lexeme, Num: v}
}

// NewString creates a String token carrying the decoded literal text.
func NewString(s string) Token {
	return Token{Type: String, Lexeme: `"` + s + `"`, Str: s}
}

// NewIdentifier creates an Identifier token.
func NewIdentifier(name string) Token {
	return Token{Type: Identifier, Lexeme: name, Str: name}
}

// At returns a copy of the token positioned in the given source line.
func (t Token) At(pos Pos, line string) Token {
	t.Pos = pos
	t.Line = line
	return t
}

// IsOperator reports whether the token type may appear as the operator of a
// unary or binary expression.
func (t Type) IsOperator() bool {
	switch t {
	case Minus, Plus, Slash, Star, Bang, BangEqual, EqualEqual,
		Greater, GreaterEqual, Less, LessEqual:
		return true
	}
	return false
}

// IsStatementStart reports whether the token type begins a statement. The
// parser stops discarding tokens at these during error recovery.
func (t Type) IsStatementStart() bool {
	switch t {
	case Class, Fun, Var, For, If, While, Print, Return:
		return true
	}
	return false
}

// String renders the token with its payload, e.g. NUMBER(1) or PLUS.
func (t Token) String() string {
	switch t.Type {
	case Number:
		return fmt.Sprintf("%s(%s)", t.Type, strconv.FormatFloat(t.Num, 'f', -1, 64))
	case String:
		return fmt.Sprintf("%s(%q)", t.Type, t.Str)
	case Identifier:
		return fmt.Sprintf("%s(%s)", t.Type, t.Str)
	default:
		return t.Type.String()
	}
}

// Equal reports whether two tokens have the same type and payload. Positions
// are ignored.
func (t Token) Equal(o Token) bool {
	if t.Type != o.Type {
		return false
	}
	switch t.Type {
	case Number:
		return t.Num == o.Num
	case String, Identifier:
		return t.Str == o.Str
	}
	return true
}
