package registers

type RegisterClass uint

const (
	// General purpose 64 bit integer registers, including the stack pointer and the zero register
	RegisterClass_GeneralPurpose RegisterClass = iota

	// 128 bit SIMD&FP registers. Only the low 32/64 bits are used, as single/double precision floats
	RegisterClass_SIMD

	// Number of register classes
	TOTAL_REGISTER_CLASSES
)

func (rc RegisterClass) String() string {
	switch rc {
	case RegisterClass_GeneralPurpose:
		return "general purpose registers"
	case RegisterClass_SIMD:
		return "SIMD&FP registers"
	}

	panic("unreachable")
}
