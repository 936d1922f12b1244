package code

import "fmt"

// Machine level kind of a value, as seen by loads, stores and moves
type PlatformKind uint

const (
	// 32 bit integer
	DWord PlatformKind = iota
	// 64 bit integer or pointer
	QWord
	// Single precision float
	Single
	// Double precision float
	Double

	TOTAL_PLATFORM_KINDS
)

// Returns the size in bytes of values of the kind
func (k PlatformKind) Size() int {
	return 1 << k.Log2Size()
}

// Returns log2 of the size in bytes of values of the kind, as used to scale memory offsets
func (k PlatformKind) Log2Size() int {
	switch k {
	case DWord, Single:
		return 2
	case QWord, Double:
		return 3
	}

	panic(fmt.Sprintf("invalid platform kind %d", uint(k)))
}

// Returns true if values of the kind live in SIMD&FP registers
func (k PlatformKind) IsFloat() bool {
	return k == Single || k == Double
}

func (k PlatformKind) String() string {
	switch k {
	case DWord:
		return "dword"
	case QWord:
		return "qword"
	case Single:
		return "single"
	case Double:
		return "double"
	}

	return fmt.Sprintf("<invalid platform kind %d>", uint(k))
}
