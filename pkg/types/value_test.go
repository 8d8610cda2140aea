package types

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lemonberrylabs/loxide/pkg/token"
)

func TestValueString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{NewBool(true), "true"},
		{NewNumber(7), "7"},
		{NewNumber(0.5), "0.5"},
		{NewNumber(-2.25), "-2.25"},
		{NewNumber(math.Inf(1)), "inf"},
		{NewNumber(math.Inf(-1)), "-inf"},
		{NewNumber(math.NaN()), "NaN"},
		{NewString("ab"), "ab"},
		{Value{}, "<invalid>"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.v.String())
	}
}

func TestValueEqual(t *testing.T) {
	assert.True(t, NewNumber(1).Equal(NewNumber(1)))
	assert.False(t, NewNumber(1).Equal(NewString("1")))
	assert.False(t, NewBool(false).Equal(Value{}))
	assert.False(t, NewNumber(math.NaN()).Equal(NewNumber(math.NaN())))
	assert.True(t, NewString("").Equal(NewString("")))
}

func TestValueAccessorsPanicOnWrongKind(t *testing.T) {
	assert.Panics(t, func() { NewString("x").AsNumber() })
	assert.Panics(t, func() { NewNumber(1).AsBool() })
	assert.Panics(t, func() { NewBool(true).AsString() })
}

func TestValueMarshalJSON(t *testing.T) {
	b, err := json.Marshal([]Value{NewBool(true), NewNumber(1.5), NewString("hi"), NewNumber(math.Inf(1))})
	require.NoError(t, err)
	assert.JSONEq(t, `[true, 1.5, "hi", "inf"]`, string(b))

	_, err = json.Marshal(Value{})
	assert.Error(t, err)
}

func TestParseValueType(t *testing.T) {
	for name, want := range map[string]ValueType{"bool": TypeBool, "boolean": TypeBool, "number": TypeNumber, "string": TypeString} {
		got, err := ParseValueType(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseValueType("nil")
	assert.Error(t, err)
}

func TestRuntimeError(t *testing.T) {
	err := NewTypeError("bad operands")
	assert.Equal(t, "bad operands (tags=[TypeError])", err.Error())
	line, col := err.Position()
	assert.Zero(t, line)
	assert.Zero(t, col)

	op := token.New(token.Plus).At(token.Pos{Line: 2, Column: 4}, "a + b")
	err = NewOperatorError("no such operator").At(op)
	assert.True(t, err.HasTag(TagTypeError))
	assert.True(t, err.HasTag(TagOperatorError))
	assert.Equal(t, "a + b", err.SourceLine())
	assert.Contains(t, err.Error(), "line 3 col 5")
}
