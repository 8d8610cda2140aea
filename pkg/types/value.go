// Package types defines the runtime values produced by evaluation.
// The value set is closed: bool, number (float64) and string.
package types

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// ValueType represents the kind of a runtime value.
type ValueType int

const (
	typeInvalid ValueType = iota
	TypeBool              // bool
	TypeNumber            // float64
	TypeString            // string
)

// String returns the kind name used in diagnostics and API payloads.
func (t ValueType) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	default:
		return "invalid"
	}
}

// ParseValueType maps a kind name ("bool", "number", "string") to its
// ValueType.
func ParseValueType(name string) (ValueType, error) {
	switch name {
	case "bool", "boolean":
		return TypeBool, nil
	case "number":
		return TypeNumber, nil
	case "string":
		return TypeString, nil
	}
	return typeInvalid, fmt.Errorf("unknown value kind %q", name)
}

// Value is a runtime value. It uses a tagged union approach. The zero Value
// is not a valid value of the language; it is only returned alongside an
// error.
type Value struct {
	typ       ValueType
	boolVal   bool
	numVal    float64
	stringVal string
}

// NewBool creates a bool value.
func NewBool(v bool) Value {
	return Value{typ: TypeBool, boolVal: v}
}

// NewNumber creates a number value.
func NewNumber(v float64) Value {
	return Value{typ: TypeNumber, numVal: v}
}

// NewString creates a string value.
func NewString(v string) Value {
	return Value{typ: TypeString, stringVal: v}
}

func (v Value) Type() ValueType {
	return v.typ
}

// IsValid reports whether v holds one of the three value kinds.
func (v Value) IsValid() bool {
	return v.typ != typeInvalid
}

// AsBool returns the boolean value. Panics if not a bool.
func (v Value) AsBool() bool {
	if v.typ != TypeBool {
		panic(fmt.Sprintf("AsBool called on %s value", v.typ))
	}
	return v.boolVal
}

// AsNumber returns the numeric value. Panics if not a number.
func (v Value) AsNumber() float64 {
	if v.typ != TypeNumber {
		panic(fmt.Sprintf("AsNumber called on %s value", v.typ))
	}
	return v.numVal
}

// AsString returns the string value. Panics if not a string.
func (v Value) AsString() string {
	if v.typ != TypeString {
		panic(fmt.Sprintf("AsString called on %s value", v.typ))
	}
	return v.stringVal
}

// Equal reports whether two values have the same kind and the same
// contents. Numbers compare with IEEE semantics, so NaN is never equal to
// anything.
func (v Value) Equal(other Value) bool {
	if v.typ != other.typ {
		return false
	}
	switch v.typ {
	case TypeBool:
		return v.boolVal == other.boolVal
	case TypeNumber:
		return v.numVal == other.numVal
	case TypeString:
		return v.stringVal == other.stringVal
	}
	return false
}

// String returns the display form of the value: numbers without a trailing
// ".0" and strings without quotes.
func (v Value) String() string {
	switch v.typ {
	case TypeBool:
		return strconv.FormatBool(v.boolVal)
	case TypeNumber:
		return FormatNumber(v.numVal)
	case TypeString:
		return v.stringVal
	}
	return "<invalid>"
}

// FormatNumber renders a float64 for display. Non-finite values render as
// inf, -inf and NaN.
func FormatNumber(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "NaN"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// MarshalJSON converts a Value to JSON. JSON has no encoding for non-finite
// numbers, so those are written as their display strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.typ {
	case TypeBool:
		return json.Marshal(v.boolVal)
	case TypeNumber:
		if math.IsInf(v.numVal, 0) || math.IsNaN(v.numVal) {
			return json.Marshal(FormatNumber(v.numVal))
		}
		return json.Marshal(v.numVal)
	case TypeString:
		return json.Marshal(v.stringVal)
	}
	return nil, fmt.Errorf("cannot marshal %s value", v.typ)
}

// ToGoValue converts a Value to a plain Go value: bool, float64 or string.
func (v Value) ToGoValue() interface{} {
	switch v.typ {
	case TypeBool:
		return v.boolVal
	case TypeNumber:
		return v.numVal
	case TypeString:
		return v.stringVal
	}
	return nil
}
