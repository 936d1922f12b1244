package code

import (
	"fmt"
	"math"

	"github.com/Manu343726/a64asm/pkg/utils"
)

// Kind tag of a Value
type ValueKind uint

const (
	Int32 ValueKind = iota
	Int64
	Float32
	Float64
	Pointer

	TOTAL_VALUE_KINDS
)

func (k ValueKind) String() string {
	switch k {
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Pointer:
		return "pointer"
	}

	return fmt.Sprintf("<invalid value kind %d>", uint(k))
}

// A primitive value passed as call argument or stored to the stack. Bits holds the raw
// representation: sign extended integers, IEEE 754 bits for floats, the address for pointers
type Value struct {
	Kind ValueKind
	Bits uint64
}

func IntValue(value int32) Value {
	return Value{Kind: Int32, Bits: uint64(int64(value))}
}

func LongValue(value int64) Value {
	return Value{Kind: Int64, Bits: uint64(value)}
}

func FloatValue(value float32) Value {
	return Value{Kind: Float32, Bits: uint64(math.Float32bits(value))}
}

func DoubleValue(value float64) Value {
	return Value{Kind: Float64, Bits: math.Float64bits(value)}
}

func PtrValue(address uint64) Value {
	return Value{Kind: Pointer, Bits: address}
}

func (v Value) Int32() int32 {
	return int32(v.Bits)
}

func (v Value) Int64() int64 {
	return int64(v.Bits)
}

func (v Value) Float32() float32 {
	return math.Float32frombits(uint32(v.Bits))
}

func (v Value) Float64() float64 {
	return math.Float64frombits(v.Bits)
}

// Returns the platform kind values of this kind are moved around as
func (v Value) PlatformKind() (PlatformKind, error) {
	switch v.Kind {
	case Int32:
		return DWord, nil
	case Int64, Pointer:
		return QWord, nil
	case Float32:
		return Single, nil
	case Float64:
		return Double, nil
	}

	return 0, utils.MakeError(ErrUnknownKind, "%v", v.Kind)
}

func (v Value) String() string {
	switch v.Kind {
	case Int32:
		return fmt.Sprintf("int32(%d)", v.Int32())
	case Int64:
		return fmt.Sprintf("int64(%d)", v.Int64())
	case Float32:
		return fmt.Sprintf("float32(%v)", v.Float32())
	case Float64:
		return fmt.Sprintf("float64(%v)", v.Float64())
	case Pointer:
		return fmt.Sprintf("pointer(0x%x)", v.Bits)
	}

	return fmt.Sprintf("%v(0x%x)", v.Kind, v.Bits)
}
