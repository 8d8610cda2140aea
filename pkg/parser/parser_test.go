package parser

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/lemonberrylabs/loxide/pkg/ast"
	"github.com/lemonberrylabs/loxide/pkg/scanner"
	"github.com/lemonberrylabs/loxide/pkg/token"
)

func scan(t testing.TB, src string) []token.Token {
	t.Helper()
	toks, err := scanner.Scan(src)
	require.NoError(t, err)
	return toks
}

func parseOne(t *testing.T, src string) ast.Node {
	t.Helper()
	node, err := ParseExpression(scan(t, src))
	require.NoError(t, err, "source %q", src)
	return node
}

func parseErr(t *testing.T, src string, opts ...Option) *Error {
	t.Helper()
	_, err := ParseExpression(scan(t, src), opts...)
	require.Error(t, err, "source %q", src)
	var perr *Error
	require.True(t, errors.As(err, &perr))
	return perr
}

func TestParsePrecedence(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1 + 2 * 3", "(+ 1 (* 2 3))"},
		{"1 * 2 + 3", "(+ (* 1 2) 3)"},
		{"1 - 2 - 3", "(- (- 1 2) 3)"},
		{"8 / 4 / 2", "(/ (/ 8 4) 2)"},
		{"1 < 2 == true", "(== (< 1 2) true)"},
		{"1 + 2 >= 3 != false", "(!= (>= (+ 1 2) 3) false)"},
		{"!!!true", "(! (! (! true)))"},
		{"--5", "(- (- 5))"},
		{"-(-5)", "(- ((- 5)))"},
		{"(1 + 2) * 3", "(* ((+ 1 2)) 3)"},
		{"(1)", "(1)"},
		{`"a" + "b"`, `(+ "a" "b")`},
		{"1.5;", "1.5"},
		{"-2 * 3", "(* (- 2) 3)"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ast.Print(parseOne(t, tt.input)))
		})
	}
}

func TestParseTreeShape(t *testing.T) {
	node := parseOne(t, "1 + 2 * 3")
	want := &ast.BinaryNode{
		Left:     &ast.NumberNode{Value: 1},
		Operator: token.New(token.Plus),
		Right: &ast.BinaryNode{
			Left:     &ast.NumberNode{Value: 2},
			Operator: token.New(token.Star),
			Right:    &ast.NumberNode{Value: 3},
		},
	}
	assert.True(t, ast.Equal(want, node), "got %s", ast.Print(node))

	bin, ok := node.(*ast.BinaryNode)
	require.True(t, ok)
	assert.Equal(t, token.Pos{Line: 0, Column: 2}, bin.Operator.Pos)
}

func TestParseMissingRightParen(t *testing.T) {
	perr := parseErr(t, "(1 + 2")
	assert.Equal(t, MissingRightParen, perr.Kind)
	require.NotNil(t, perr.Partial)
	assert.Equal(t, "(+ 1 2)", ast.Print(perr.Partial))
	assert.Equal(t, token.End, perr.Token.Type)

	perr = parseErr(t, "1 +\n(2")
	assert.Equal(t, MissingRightParen, perr.Kind)
	line, col := perr.Position()
	assert.Equal(t, 2, line)
	assert.Equal(t, 3, col)
	assert.Equal(t, "(2", perr.SourceLine())

	perr = parseErr(t, "(1 2)")
	assert.Equal(t, MissingRightParen, perr.Kind)
	assert.Equal(t, token.Number, perr.Token.Type)
	assert.Equal(t, "1", ast.Print(perr.Partial))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input   string
		kind    ErrorKind
		partial string
	}{
		{"1 +", PopFailed, ""},
		{"-", PopFailed, ""},
		{"", PopFailed, ""},
		{"1 2", UnexpectedToken, "1"},
		{"(1) (2)", UnexpectedToken, "(1)"},
		{"1 + )", ExpectedExpression, ""},
		{"print 1", ExpectedExpression, ""},
		{"x + 1", ExpectedExpression, ""},
		{"nil", ExpectedExpression, ""},
		{";", ExpectedExpression, ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			perr := parseErr(t, tt.input)
			assert.Equal(t, tt.kind, perr.Kind)
			if tt.partial == "" {
				assert.Nil(t, perr.Partial)
			} else {
				require.NotNil(t, perr.Partial)
				assert.Equal(t, tt.partial, ast.Print(perr.Partial))
			}
			assert.NotEmpty(t, perr.Error())
		})
	}
}

func TestParseProgramUnits(t *testing.T) {
	prog := New(scan(t, "1 + 2; 3 * 4; \"x\"")).Parse()
	require.NoError(t, prog.Err())
	require.Len(t, prog.Units, 3)

	var got []string
	for _, e := range prog.Exprs() {
		got = append(got, ast.Print(e))
	}
	assert.Equal(t, []string{"(+ 1 2)", "(* 3 4)", `"x"`}, got)
}

func TestParseSynchronize(t *testing.T) {
	// The first unit fails at '*'; recovery skips "2" and stops in front of
	// "print", which then fails on its own and is skipped up to ';'.
	prog := New(scan(t, "1 + * 2 print 3; 4")).Parse()
	require.Len(t, prog.Units, 3)

	require.NotNil(t, prog.Units[0].Err)
	assert.Equal(t, ExpectedExpression, prog.Units[0].Err.Kind)
	assert.Equal(t, token.Star, prog.Units[0].Err.Token.Type)

	require.NotNil(t, prog.Units[1].Err)
	assert.Equal(t, ExpectedExpression, prog.Units[1].Err.Kind)
	assert.Equal(t, token.Print, prog.Units[1].Err.Token.Type)

	require.Nil(t, prog.Units[2].Err)
	assert.Equal(t, "4", ast.Print(prog.Units[2].Expr))

	var list ErrorList
	require.True(t, errors.As(prog.Err(), &list))
	assert.Len(t, list, 2)
	assert.Contains(t, list.Error(), "2 parse errors")
}

func TestParseSynchronizeEmptyUnits(t *testing.T) {
	prog := New(scan(t, "; 1; (2; 3")).Parse()
	require.Len(t, prog.Units, 4)
	assert.Equal(t, ExpectedExpression, prog.Units[0].Err.Kind)
	assert.Equal(t, "1", ast.Print(prog.Units[1].Expr))
	assert.Equal(t, MissingRightParen, prog.Units[2].Err.Kind)
	assert.Equal(t, "2", ast.Print(prog.Units[2].Err.Partial))
	assert.Equal(t, "3", ast.Print(prog.Units[3].Expr))
}

func TestParseEmptyProgram(t *testing.T) {
	prog := New(scan(t, "// nothing here")).Parse()
	assert.Empty(t, prog.Units)
	assert.NoError(t, prog.Err())
}

func TestParseWithoutEndToken(t *testing.T) {
	toks := []token.Token{token.NewNumber("1", 1), token.New(token.Plus)}
	_, err := ParseExpression(toks)
	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, PopFailed, perr.Kind)

	_, err = ParseExpression(nil)
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, PopFailed, perr.Kind)

	prog := New([]token.Token{token.New(token.LeftParen)}).Parse()
	require.Len(t, prog.Units, 1)
	assert.Equal(t, PopFailed, prog.Units[0].Err.Kind)
}

func TestParseNestingLimit(t *testing.T) {
	perr := parseErr(t, "((((1))))", WithMaxDepth(3))
	assert.Equal(t, NestingTooDeep, perr.Kind)

	perr = parseErr(t, "!!!!true", WithMaxDepth(3))
	assert.Equal(t, NestingTooDeep, perr.Kind)

	node, err := ParseExpression(scan(t, "(((1)))"), WithMaxDepth(3))
	require.NoError(t, err)
	assert.Equal(t, 4, ast.Depth(node))

	deep := strings.Repeat("(", 100000) + "1" + strings.Repeat(")", 100000)
	perr = parseErr(t, deep)
	assert.Equal(t, NestingTooDeep, perr.Kind)

	perr = parseErr(t, strings.Repeat("-", 100000)+"1")
	assert.Equal(t, NestingTooDeep, perr.Kind)
}

func TestParseNestingLimitRecovers(t *testing.T) {
	src := strings.Repeat("(", 20) + "1" + strings.Repeat(")", 20) + "; 2"
	prog := New(scan(t, src), WithMaxDepth(10)).Parse()
	require.Len(t, prog.Units, 2)
	assert.Equal(t, NestingTooDeep, prog.Units[0].Err.Kind)
	assert.Equal(t, "2", ast.Print(prog.Units[1].Expr))
}

func genNode(t *rapid.T, depth int) ast.Node {
	kinds := 5
	if depth <= 0 {
		kinds = 2
	}
	switch rapid.IntRange(0, kinds).Draw(t, "kind") {
	case 0:
		return &ast.BoolNode{Value: rapid.Bool().Draw(t, "bool")}
	case 1:
		return &ast.NumberNode{Value: math.Abs(rapid.Float64Range(0, 1e9).Draw(t, "number"))}
	case 2:
		return &ast.StringNode{Value: rapid.StringMatching(`[a-z ]{0,6}`).Draw(t, "string")}
	case 3:
		op := rapid.SampledFrom([]token.Type{token.Bang, token.Minus}).Draw(t, "unary")
		return &ast.UnaryNode{Operator: token.New(op), Operand: genNode(t, depth-1)}
	case 4:
		return &ast.GroupingNode{Inner: genNode(t, depth-1)}
	default:
		op := rapid.SampledFrom([]token.Type{
			token.Plus, token.Minus, token.Star, token.Slash,
			token.Greater, token.GreaterEqual, token.Less, token.LessEqual,
			token.EqualEqual, token.BangEqual,
		}).Draw(t, "binary")
		return &ast.BinaryNode{Left: genNode(t, depth-1), Operator: token.New(op), Right: genNode(t, depth-1)}
	}
}

func TestPrintReparseProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tree := genNode(t, 5)
		src := ast.Source(tree)

		toks, err := scanner.Scan(src)
		if err != nil {
			t.Fatalf("scan %q: %v", src, err)
		}
		got, err := ParseExpression(toks)
		if err != nil {
			t.Fatalf("parse %q: %v", src, err)
		}
		if !ast.Equal(ast.StripGroupings(tree), ast.StripGroupings(got)) {
			t.Fatalf("round trip of %q: got %s, want %s", src, ast.Print(got), ast.Print(tree))
		}
	})
}

func TestParseTerminatesProperty(t *testing.T) {
	kinds := []token.Type{
		token.LeftParen, token.RightParen, token.Minus, token.Plus, token.Semicolon,
		token.Star, token.Bang, token.EqualEqual, token.Less, token.True, token.False,
		token.Print, token.Var, token.Identifier, token.Dot, token.LeftBrace,
	}
	rapid.Check(t, func(t *rapid.T) {
		types := rapid.SliceOf(rapid.SampledFrom(kinds)).Draw(t, "tokens")
		toks := make([]token.Token, 0, len(types)+1)
		for _, tt := range types {
			toks = append(toks, token.New(tt))
		}
		toks = append(toks, token.NewNumber("1", 1), token.New(token.End))

		prog := New(toks).Parse()
		if len(prog.Units) > len(toks) {
			t.Fatalf("%d units from %d tokens", len(prog.Units), len(toks))
		}
		for i, u := range prog.Units {
			if (u.Expr == nil) == (u.Err == nil) {
				t.Fatalf("unit %d: exactly one of Expr and Err must be set", i)
			}
		}
	})
}
