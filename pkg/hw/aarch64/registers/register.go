package registers

import "fmt"

// Register identifies one of the fixed AArch64 hardware registers.
//
// Registers are plain values: the encoder never allocates nor frees them, it only
// needs their hardware encoding and class.
type Register uint8

const (
	R0 Register = iota
	R1
	R2
	R3
	R4
	R5
	R6
	R7
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
	R16
	R17
	R18
	R19
	R20
	R21
	R22
	R23
	R24
	R25
	R26
	R27
	R28
	R29
	R30

	// Stack pointer. Shares hardware encoding 31 with ZR, the instruction form decides which one is meant
	SP

	// Zero register
	ZR

	V0
	V1
	V2
	V3
	V4
	V5
	V6
	V7
	V8
	V9
	V10
	V11
	V12
	V13
	V14
	V15
	V16
	V17
	V18
	V19
	V20
	V21
	V22
	V23
	V24
	V25
	V26
	V27
	V28
	V29
	V30
	V31

	// Number of registers
	TOTAL_REGISTERS
)

const (
	// Frame pointer
	FP = R29

	// Link register
	LR = R30
)

// Width in bits of a register field in an instruction word
const EncodingBits = 5

// Returns the 5-bit hardware encoding of the register
func (r Register) Encoding() uint32 {
	switch {
	case r <= R30:
		return uint32(r - R0)
	case r == SP, r == ZR:
		return 31
	case r >= V0 && r <= V31:
		return uint32(r - V0)
	}

	panic(fmt.Sprintf("invalid register %d", uint8(r)))
}

// Returns the class the register belongs to
func (r Register) Class() RegisterClass {
	switch {
	case r <= ZR:
		return RegisterClass_GeneralPurpose
	case r >= V0 && r <= V31:
		return RegisterClass_SIMD
	}

	panic(fmt.Sprintf("invalid register %d", uint8(r)))
}

// Returns true if the register is a general purpose integer register (including SP and ZR)
func (r Register) IsGeneralPurpose() bool {
	return r.IsValid() && r.Class() == RegisterClass_GeneralPurpose
}

// Returns true if the register is a SIMD&FP register
func (r Register) IsSIMD() bool {
	return r.IsValid() && r.Class() == RegisterClass_SIMD
}

// Returns true if the value names an existing register
func (r Register) IsValid() bool {
	return r < TOTAL_REGISTERS
}

// Returns the register name as printed by assemblers (x0, sp, xzr, v3...)
func (r Register) Name() string {
	switch {
	case r <= R30:
		return fmt.Sprintf("x%d", r.Encoding())
	case r == SP:
		return "sp"
	case r == ZR:
		return "xzr"
	case r >= V0 && r <= V31:
		return fmt.Sprintf("v%d", r.Encoding())
	}

	return fmt.Sprintf("<invalid register %d>", uint8(r))
}

func (r Register) String() string {
	return r.Name()
}

// Returns the general purpose register with the given hardware number (0-30)
func X(n int) Register {
	if n < 0 || n > 30 {
		panic(fmt.Sprintf("x%d is not a general purpose register", n))
	}

	return R0 + Register(n)
}

// Returns the SIMD&FP register with the given hardware number (0-31)
func V(n int) Register {
	if n < 0 || n > 31 {
		panic(fmt.Sprintf("v%d is not a SIMD register", n))
	}

	return V0 + Register(n)
}
