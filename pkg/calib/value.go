package calib

import (
	"fmt"
	"strconv"
)

type Kind byte

const (
	Invalid Kind = iota
	Int
	Float
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Float:
		return "float"
	}
	return "invalid"
}

// Value is either an Int or a Float. The zero Value is Invalid.
type Value struct {
	kind Kind
	i    int64
	f    float64
}

func IntValue(i int64) Value {
	return Value{kind: Int, i: i}
}

func FloatValue(f float64) Value {
	return Value{kind: Float, f: f}
}

func (v Value) Kind() Kind {
	return v.kind
}

// Int returns ErrType unless the value was stored as an integer
func (v Value) Int() (int64, error) {
	if v.kind != Int {
		return 0, fmt.Errorf("%w: %s is not int", ErrType, v.kind)
	}
	return v.i, nil
}

// Float returns ErrType unless the value was stored as a float
func (v Value) Float() (float64, error) {
	if v.kind != Float {
		return 0, fmt.Errorf("%w: %s is not float", ErrType, v.kind)
	}
	return v.f, nil
}

// Number widens Int to float64. Calibration files write whole numbers without
// a decimal point, so math code reads every parameter through Number.
func (v Value) Number() (float64, error) {
	switch v.kind {
	case Int:
		return float64(v.i), nil
	case Float:
		return v.f, nil
	}
	return 0, fmt.Errorf("%w: invalid value", ErrType)
}

func (v Value) String() string {
	switch v.kind {
	case Int:
		return strconv.FormatInt(v.i, 10)
	case Float:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	}
	return ""
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == Invalid {
		return []byte("null"), nil
	}
	return []byte(v.String()), nil
}
