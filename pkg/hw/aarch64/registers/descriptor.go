package registers

import (
	"fmt"
	"strings"

	"github.com/Manu343726/a64asm/pkg/utils"
)

// Contains all the metadata describing the registers and register classes the assembler knows about
var RegisterClasses = []*RegisterClassDescriptor{
	GeneralPurpose(),
	SIMD(),
}

// General purpose registers descriptor
func GeneralPurpose() *RegisterClassDescriptor {
	registers := utils.Iota(31, func(i int) *RegisterDescriptor {
		return &RegisterDescriptor{
			Register:    X(i),
			Description: gpDescription(i),
		}
	})

	registers[FP].Alias = "fp"
	registers[LR].Alias = "lr"

	registers = append(registers,
		&RegisterDescriptor{
			Register:    SP,
			Description: "Stack pointer. Must stay 16 byte aligned whenever it is used as a base register",
		},
		&RegisterDescriptor{
			Register:    ZR,
			Alias:       "zr",
			Description: "Zero register. Reads as zero, writes are discarded",
		},
	)

	return NewRegisterClassDescriptor(&RegisterClassDescriptor{
		Class:       RegisterClass_GeneralPurpose,
		Description: "64 bit general purpose integer registers",
	}, registers)
}

// SIMD&FP registers descriptor
func SIMD() *RegisterClassDescriptor {
	return NewRegisterClassDescriptor(&RegisterClassDescriptor{
		Class:       RegisterClass_SIMD,
		Description: "SIMD&FP registers, used as single and double precision floating point registers",
	}, utils.Iota(32, func(i int) *RegisterDescriptor {
		description := "Floating point register"

		if i < 8 {
			description = "Floating point argument/result register"
		}

		return &RegisterDescriptor{
			Register:    V(i),
			Description: description,
		}
	}))
}

func gpDescription(i int) string {
	switch {
	case i < 8:
		return "Argument/result register"
	case i == 8:
		return "Indirect result register. Used as the assembler scratch register"
	case i < 16:
		return "Caller saved temporary register"
	case i < 18:
		return "Intra procedure call scratch register"
	case i == 18:
		return "Platform register"
	case i < 29:
		return "Callee saved register"
	case i == 29:
		return "Frame pointer"
	default:
		return "Link register. Stores the return address of a call"
	}
}

// Returns the descriptor of a register class
func Class(rc RegisterClass) *RegisterClassDescriptor {
	for _, class := range RegisterClasses {
		if class.Class == rc {
			return class
		}
	}

	panic(fmt.Sprintf("missing descriptor for register class '%v'", rc))
}

// Returns the descriptor of a register
func Describe(r Register) *RegisterDescriptor {
	for _, descriptor := range Class(r.Class()).AllRegisters() {
		if descriptor.Register == r {
			return descriptor
		}
	}

	panic(fmt.Sprintf("missing descriptor for register '%v'", r))
}

// Returns a register given its name or alias. Names are case insensitive and both the
// x/w views of general purpose registers and the v/s/d views of SIMD registers are accepted
func RegisterByName(name string) (Register, error) {
	lower := strings.ToLower(name)

	for _, class := range RegisterClasses {
		for _, descriptor := range class.AllRegisters() {
			if descriptor.Name() == lower || (descriptor.Alias != "" && descriptor.Alias == lower) {
				return descriptor.Register, nil
			}
		}
	}

	var n int
	if _, err := fmt.Sscanf(lower, "w%d", &n); err == nil && n >= 0 && n <= 30 && lower == fmt.Sprintf("w%d", n) {
		return X(n), nil
	}

	for _, prefix := range []string{"s", "d"} {
		if _, err := fmt.Sscanf(lower, prefix+"%d", &n); err == nil && n >= 0 && n <= 31 && lower == fmt.Sprintf("%v%d", prefix, n) {
			return V(n), nil
		}
	}

	return 0, utils.MakeError(ErrUnknownRegister, "'%v'", name)
}

// Returns a register by name, panics if no such register exists
func MustRegister(name string) Register {
	reg, err := RegisterByName(name)

	if err != nil {
		panic(err)
	}

	return reg
}

// Returns a human readable description of all the registers
func DocString() string {
	var builder strings.Builder

	for _, class := range RegisterClasses {
		builder.WriteString(fmt.Sprintf("%v (%v registers): %v\n", class.Class, class.TotalRegisters(), class.Description))

		for _, register := range class.AllRegisters() {
			name := register.Name()

			if register.Alias != "" {
				name = fmt.Sprintf("%v (%v)", name, register.Alias)
			}

			builder.WriteString(fmt.Sprintf("  %-10s [%2d] %v\n", name, register.Register.Encoding(), register.Description))
		}
	}

	return builder.String()
}
