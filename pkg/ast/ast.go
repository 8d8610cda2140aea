// Package ast defines the expression tree produced by the parser and consumed
// by the evaluator.
package ast

import "github.com/lemonberrylabs/loxide/pkg/token"

// Node is the interface for all expression tree nodes. Every non-leaf node
// owns its children; trees are never shared or cyclic.
type Node interface {
	nodeType() string
}

// BoolNode represents a true or false literal.
type BoolNode struct {
	Value bool
}

func (n *BoolNode) nodeType() string { return "Bool" }

// NumberNode represents a numeric literal. Value is always finite.
type NumberNode struct {
	Value float64
}

func (n *NumberNode) nodeType() string { return "Number" }

// StringNode represents a string literal.
type StringNode struct {
	Value string
}

func (n *StringNode) nodeType() string { return "String" }

// UnaryNode represents a prefix operation (e.g., -x, !x).
type UnaryNode struct {
	Operator token.Token
	Operand  Node
}

func (n *UnaryNode) nodeType() string { return "Unary" }

// BinaryNode represents an infix operation (e.g., a + b, x == y).
type BinaryNode struct {
	Left     Node
	Operator token.Token
	Right    Node
}

func (n *BinaryNode) nodeType() string { return "Binary" }

// GroupingNode represents a parenthesised expression.
type GroupingNode struct {
	Inner Node
}

func (n *GroupingNode) nodeType() string { return "Grouping" }

// Kind returns the node's variant name, e.g. "Binary".
func Kind(n Node) string {
	if n == nil {
		return "<nil>"
	}
	return n.nodeType()
}

// Equal reports whether two trees have the same shape, operators and literal
// values. Token positions are ignored.
func Equal(a, b Node) bool {
	switch x := a.(type) {
	case *BoolNode:
		y, ok := b.(*BoolNode)
		return ok && x.Value == y.Value
	case *NumberNode:
		y, ok := b.(*NumberNode)
		return ok && x.Value == y.Value
	case *StringNode:
		y, ok := b.(*StringNode)
		return ok && x.Value == y.Value
	case *UnaryNode:
		y, ok := b.(*UnaryNode)
		return ok && x.Operator.Type == y.Operator.Type && Equal(x.Operand, y.Operand)
	case *BinaryNode:
		y, ok := b.(*BinaryNode)
		return ok && x.Operator.Type == y.Operator.Type && Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	case *GroupingNode:
		y, ok := b.(*GroupingNode)
		return ok && Equal(x.Inner, y.Inner)
	case nil:
		return b == nil
	}
	return false
}

// StripGroupings returns a copy of the tree with every grouping replaced by
// its inner expression. Groupings never change a value, so two trees that
// are Equal after stripping evaluate identically.
func StripGroupings(n Node) Node {
	switch x := n.(type) {
	case *GroupingNode:
		return StripGroupings(x.Inner)
	case *UnaryNode:
		return &UnaryNode{Operator: x.Operator, Operand: StripGroupings(x.Operand)}
	case *BinaryNode:
		return &BinaryNode{Left: StripGroupings(x.Left), Operator: x.Operator, Right: StripGroupings(x.Right)}
	default:
		return n
	}
}

// Depth returns the height of the tree; a single literal has depth 1.
func Depth(n Node) int {
	switch x := n.(type) {
	case *UnaryNode:
		return 1 + Depth(x.Operand)
	case *BinaryNode:
		return 1 + max(Depth(x.Left), Depth(x.Right))
	case *GroupingNode:
		return 1 + Depth(x.Inner)
	case nil:
		return 0
	default:
		return 1
	}
}
