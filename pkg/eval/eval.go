// Package eval evaluates expression trees to runtime values.
package eval

import (
	"fmt"

	"github.com/lemonberrylabs/loxide/pkg/ast"
	"github.com/lemonberrylabs/loxide/pkg/token"
	"github.com/lemonberrylabs/loxide/pkg/types"
)

// Evaluate evaluates an expression tree. Operands must already have the
// kind their operator requires; there is no implicit conversion. Every
// failure is returned as a *types.RuntimeError.
func Evaluate(node ast.Node) (types.Value, error) {
	switch n := node.(type) {
	case *ast.BoolNode:
		return types.NewBool(n.Value), nil
	case *ast.NumberNode:
		return types.NewNumber(n.Value), nil
	case *ast.StringNode:
		return types.NewString(n.Value), nil
	case *ast.GroupingNode:
		return Evaluate(n.Inner)
	case *ast.UnaryNode:
		return evalUnary(n)
	case *ast.BinaryNode:
		return evalBinary(n)
	default:
		return types.Value{}, types.NewTypeErrorf("unsupported expression node %s", ast.Kind(node))
	}
}

// Expect checks that v has the given kind.
func Expect(v types.Value, want types.ValueType) error {
	if v.Type() != want {
		return types.NewTypeErrorf("expected %s, got %s", want, v.Type())
	}
	return nil
}

// EvaluateAs evaluates node and checks that the result has the given kind.
func EvaluateAs(node ast.Node, want types.ValueType) (types.Value, error) {
	v, err := Evaluate(node)
	if err != nil {
		return types.Value{}, err
	}
	if err := Expect(v, want); err != nil {
		return types.Value{}, err
	}
	return v, nil
}

func evalUnary(n *ast.UnaryNode) (types.Value, error) {
	operand, err := Evaluate(n.Operand)
	if err != nil {
		return types.Value{}, err
	}

	switch n.Operator.Type {
	case token.Bang:
		if operand.Type() != types.TypeBool {
			return types.Value{}, types.NewTypeErrorf("operand of '!' must be bool, got %s", operand.Type()).At(n.Operator)
		}
		return types.NewBool(!operand.AsBool()), nil
	case token.Minus:
		if operand.Type() != types.TypeNumber {
			return types.Value{}, types.NewTypeErrorf("operand of '-' must be number, got %s", operand.Type()).At(n.Operator)
		}
		return types.NewNumber(-operand.AsNumber()), nil
	default:
		return types.Value{}, types.NewOperatorError(fmt.Sprintf("'%s' is not a unary operator", symbol(n.Operator))).At(n.Operator)
	}
}

func evalBinary(n *ast.BinaryNode) (types.Value, error) {
	left, err := Evaluate(n.Left)
	if err != nil {
		return types.Value{}, err
	}
	right, err := Evaluate(n.Right)
	if err != nil {
		return types.Value{}, err
	}

	op := n.Operator
	switch op.Type {
	case token.Plus:
		return evalAdd(op, left, right)
	case token.Minus:
		return evalArith(op, left, right, func(a, b float64) float64 { return a - b })
	case token.Star:
		return evalArith(op, left, right, func(a, b float64) float64 { return a * b })
	case token.Slash:
		// IEEE division: x/0 is ±inf and 0/0 is NaN.
		return evalArith(op, left, right, func(a, b float64) float64 { return a / b })
	case token.Greater:
		return evalCompare(op, left, right, func(a, b float64) bool { return a > b })
	case token.GreaterEqual:
		return evalCompare(op, left, right, func(a, b float64) bool { return a >= b })
	case token.Less:
		return evalCompare(op, left, right, func(a, b float64) bool { return a < b })
	case token.LessEqual:
		return evalCompare(op, left, right, func(a, b float64) bool { return a <= b })
	case token.EqualEqual, token.BangEqual:
		if left.Type() != right.Type() {
			return types.Value{}, mismatch(op, left, right)
		}
		eq := left.Equal(right)
		if op.Type == token.BangEqual {
			eq = !eq
		}
		return types.NewBool(eq), nil
	default:
		return types.Value{}, types.NewOperatorError(fmt.Sprintf("'%s' is not a binary operator", symbol(op))).At(op)
	}
}

func evalAdd(op token.Token, left, right types.Value) (types.Value, error) {
	switch {
	case left.Type() == types.TypeNumber && right.Type() == types.TypeNumber:
		return types.NewNumber(left.AsNumber() + right.AsNumber()), nil
	case left.Type() == types.TypeString && right.Type() == types.TypeString:
		return types.NewString(left.AsString() + right.AsString()), nil
	}
	return types.Value{}, mismatch(op, left, right)
}

func evalArith(op token.Token, left, right types.Value, f func(float64, float64) float64) (types.Value, error) {
	if left.Type() != types.TypeNumber || right.Type() != types.TypeNumber {
		return types.Value{}, mismatch(op, left, right)
	}
	return types.NewNumber(f(left.AsNumber(), right.AsNumber())), nil
}

func evalCompare(op token.Token, left, right types.Value, test func(float64, float64) bool) (types.Value, error) {
	if left.Type() != types.TypeNumber || right.Type() != types.TypeNumber {
		return types.Value{}, mismatch(op, left, right)
	}
	return types.NewBool(test(left.AsNumber(), right.AsNumber())), nil
}

func mismatch(op token.Token, left, right types.Value) *types.RuntimeError {
	return types.NewTypeErrorf("unsupported operand types for '%s': %s and %s", symbol(op), left.Type(), right.Type()).At(op)
}

func symbol(tok token.Token) string {
	if tok.Lexeme != "" {
		return tok.Lexeme
	}
	return tok.Type.String()
}
