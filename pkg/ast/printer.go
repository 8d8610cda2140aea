package ast

import (
	"strconv"
	"strings"

	"github.com/lemonberrylabs/loxide/pkg/token"
)

// Print renders the canonical, fully parenthesised diagnostic form of a tree:
// unary as (op operand), binary as (op left right), grouping as (inner) and
// literals as their literal text. It is meant for traces and error messages,
// not as a serialisation format; use Source for text that parses back.
func Print(n Node) string {
	var sb strings.Builder
	writePrefix(&sb, n)
	return sb.String()
}

func writePrefix(sb *strings.Builder, n Node) {
	switch x := n.(type) {
	case *UnaryNode:
		sb.WriteByte('(')
		sb.WriteString(operator(x.Operator))
		sb.WriteByte(' ')
		writePrefix(sb, x.Operand)
		sb.WriteByte(')')
	case *BinaryNode:
		sb.WriteByte('(')
		sb.WriteString(operator(x.Operator))
		sb.WriteByte(' ')
		writePrefix(sb, x.Left)
		sb.WriteByte(' ')
		writePrefix(sb, x.Right)
		sb.WriteByte(')')
	case *GroupingNode:
		sb.WriteByte('(')
		writePrefix(sb, x.Inner)
		sb.WriteByte(')')
	default:
		writeLiteral(sb, n)
	}
}

// Source renders the tree as infix source text with every operation wrapped
// in parentheses. Scanning and parsing the result yields a tree that is Equal
// to the original once groupings are stripped.
func Source(n Node) string {
	var sb strings.Builder
	writeInfix(&sb, n)
	return sb.String()
}

func writeInfix(sb *strings.Builder, n Node) {
	switch x := n.(type) {
	case *UnaryNode:
		sb.WriteByte('(')
		sb.WriteString(operator(x.Operator))
		writeInfix(sb, x.Operand)
		sb.WriteByte(')')
	case *BinaryNode:
		sb.WriteByte('(')
		writeInfix(sb, x.Left)
		sb.WriteByte(' ')
		sb.WriteString(operator(x.Operator))
		sb.WriteByte(' ')
		writeInfix(sb, x.Right)
		sb.WriteByte(')')
	case *GroupingNode:
		sb.WriteByte('(')
		writeInfix(sb, x.Inner)
		sb.WriteByte(')')
	default:
		writeLiteral(sb, n)
	}
}

func writeLiteral(sb *strings.Builder, n Node) {
	switch x := n.(type) {
	case *BoolNode:
		sb.WriteString(strconv.FormatBool(x.Value))
	case *NumberNode:
		sb.WriteString(FormatNumber(x.Value))
	case *StringNode:
		sb.WriteByte('"')
		sb.WriteString(x.Value)
		sb.WriteByte('"')
	case nil:
		sb.WriteString("<nil>")
	default:
		sb.WriteString("<" + n.nodeType() + ">")
	}
}

// FormatNumber renders a number the way a literal is written in source:
// shortest round-trip digits, no exponent.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func operator(tok token.Token) string {
	if tok.Lexeme != "" {
		return tok.Lexeme
	}
	return token.Symbol(tok.Type)
}
