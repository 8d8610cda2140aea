// Package parser builds expression trees from the scanner's token stream
// with a recursive descent parser. A program is a sequence of expressions
// separated by ';'. A malformed unit is reported and skipped; parsing then
// resumes at the next unit.
package parser

import (
	"github.com/lemonberrylabs/loxide/pkg/ast"
	"github.com/lemonberrylabs/loxide/pkg/token"
)

// DefaultMaxDepth is the default limit on nested groupings and unary
// operators in a single expression.
const DefaultMaxDepth = 512

// Parser is a recursive descent parser over a token slice.
type Parser struct {
	tokens   []token.Token
	pos      int
	depth    int
	maxDepth int
}

// Option configures a Parser.
type Option func(*Parser)

// WithMaxDepth sets the nesting limit. Values below 1 keep the default.
func WithMaxDepth(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.maxDepth = n
		}
	}
}

// New creates a parser over tokens. The slice normally ends with an End
// token; a missing End is treated as if it were there.
func New(tokens []token.Token, opts ...Option) *Parser {
	p := &Parser{tokens: tokens, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Unit is one top-level expression of a program: either Expr or Err is set.
type Unit struct {
	Expr ast.Node
	Err  *Error
}

// Program is the result of parsing a whole token stream.
type Program struct {
	Units []Unit
}

// Exprs returns the expressions of the units that parsed.
func (p *Program) Exprs() []ast.Node {
	var out []ast.Node
	for _, u := range p.Units {
		if u.Err == nil {
			out = append(out, u.Expr)
		}
	}
	return out
}

// Err returns every syntax error of the program as an ErrorList, or nil.
func (p *Program) Err() error {
	var list ErrorList
	for _, u := range p.Units {
		if u.Err != nil {
			list = append(list, u.Err)
		}
	}
	if len(list) == 0 {
		return nil
	}
	return list
}

// Parse parses every unit up to the End token.
func (p *Parser) Parse() *Program {
	prog := &Program{}
	for p.current().Type != token.End {
		start := p.pos
		expr, err := p.unit()
		if err != nil {
			p.synchronize()
			if p.pos == start {
				p.advance()
			}
			prog.Units = append(prog.Units, Unit{Err: err})
			continue
		}
		prog.Units = append(prog.Units, Unit{Expr: expr})
	}
	return prog
}

// ParseExpression parses tokens holding exactly one expression, optionally
// terminated by ';'. On failure the returned error is a *Error.
func ParseExpression(tokens []token.Token, opts ...Option) (ast.Node, error) {
	p := New(tokens, opts...)
	expr, err := p.unit()
	if err != nil {
		return nil, err
	}
	if tok := p.current(); tok.Type != token.End {
		return nil, &Error{Kind: UnexpectedToken, Token: tok, Partial: expr}
	}
	return expr, nil
}

// unit parses one expression and its terminator.
func (p *Parser) unit() (ast.Node, *Error) {
	p.depth = 0
	expr, err := p.expression()
	if err != nil {
		return nil, err
	}
	switch tok := p.current(); tok.Type {
	case token.Semicolon:
		p.advance()
	case token.End:
	default:
		return nil, &Error{Kind: UnexpectedToken, Token: tok, Partial: expr}
	}
	return expr, nil
}

// synchronize discards tokens until a statement keyword (left in place) or
// a ';' (consumed).
func (p *Parser) synchronize() {
	for {
		tok := p.current()
		switch {
		case tok.Type == token.End:
			return
		case tok.Type == token.Semicolon:
			p.advance()
			return
		case tok.Type.IsStatementStart():
			return
		}
		p.advance()
	}
}

// current returns the current token, or End past the slice.
func (p *Parser) current() token.Token {
	if p.pos >= len(p.tokens) {
		end := token.New(token.End)
		if n := len(p.tokens); n > 0 {
			last := p.tokens[n-1]
			end = end.At(last.Pos, last.Line)
		}
		return end
	}
	return p.tokens[p.pos]
}

// advance consumes the current token and returns it. It never moves past
// the end of the slice.
func (p *Parser) advance() token.Token {
	tok := p.current()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// match consumes the current token if it has one of the given types.
func (p *Parser) match(types ...token.Type) (token.Token, bool) {
	tok := p.current()
	for _, t := range types {
		if tok.Type == t {
			p.advance()
			return tok, true
		}
	}
	return tok, false
}

// Precedence (low to high):
//
//	== !=
//	> >= < <=
//	+ -
//	* /
//	unary ! -
//	literals, grouping
func (p *Parser) expression() (ast.Node, *Error) {
	return p.equality()
}

func (p *Parser) equality() (ast.Node, *Error) {
	return p.binary(p.comparison, token.EqualEqual, token.BangEqual)
}

func (p *Parser) comparison() (ast.Node, *Error) {
	return p.binary(p.term, token.Greater, token.GreaterEqual, token.Less, token.LessEqual)
}

func (p *Parser) term() (ast.Node, *Error) {
	return p.binary(p.factor, token.Minus, token.Plus)
}

func (p *Parser) factor() (ast.Node, *Error) {
	return p.binary(p.unary, token.Slash, token.Star)
}

// binary parses a left-associative chain of operands joined by ops.
func (p *Parser) binary(operand func() (ast.Node, *Error), ops ...token.Type) (ast.Node, *Error) {
	left, err := operand()
	if err != nil {
		return nil, err
	}

	for {
		op, ok := p.match(ops...)
		if !ok {
			return left, nil
		}
		right, err := operand()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryNode{Left: left, Operator: op, Right: right}
	}
}

func (p *Parser) unary() (ast.Node, *Error) {
	op, ok := p.match(token.Bang, token.Minus)
	if !ok {
		return p.primary()
	}
	if err := p.enter(op); err != nil {
		return nil, err
	}
	defer p.leave()

	operand, err := p.unary()
	if err != nil {
		return nil, err
	}
	return &ast.UnaryNode{Operator: op, Operand: operand}, nil
}

func (p *Parser) primary() (ast.Node, *Error) {
	tok := p.current()
	switch tok.Type {
	case token.True, token.False:
		p.advance()
		return &ast.BoolNode{Value: tok.Type == token.True}, nil
	case token.Number:
		p.advance()
		return &ast.NumberNode{Value: tok.Num}, nil
	case token.String:
		p.advance()
		return &ast.StringNode{Value: tok.Str}, nil
	case token.LeftParen:
		return p.grouping()
	case token.End:
		return nil, &Error{Kind: PopFailed, Token: tok}
	case token.Semicolon:
		return nil, &Error{Kind: ExpectedExpression, Token: tok}
	default:
		p.advance()
		return nil, &Error{Kind: ExpectedExpression, Token: tok}
	}
}

func (p *Parser) grouping() (ast.Node, *Error) {
	open := p.advance()
	if err := p.enter(open); err != nil {
		return nil, err
	}
	defer p.leave()

	inner, err := p.expression()
	if err != nil {
		return nil, err
	}
	if tok, ok := p.match(token.RightParen); !ok {
		return nil, &Error{Kind: MissingRightParen, Token: tok, Partial: inner}
	}
	return &ast.GroupingNode{Inner: inner}, nil
}

func (p *Parser) enter(tok token.Token) *Error {
	if p.depth >= p.maxDepth {
		return &Error{Kind: NestingTooDeep, Token: tok}
	}
	p.depth++
	return nil
}

func (p *Parser) leave() {
	p.depth--
}
