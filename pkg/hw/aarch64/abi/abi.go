package abi

import (
	"errors"
	"fmt"

	"github.com/Manu343726/a64asm/pkg/hw/aarch64/code"
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/registers"
	"github.com/Manu343726/a64asm/pkg/utils"
)

// Calling convention family
type CallKind uint

const (
	// Calls between compiled Java methods. The receiver goes in x1 and x0 is the last integer argument register
	CallKind_Java CallKind = iota
	// AAPCS64 calls into native code
	CallKind_Native
)

func (k CallKind) String() string {
	switch k {
	case CallKind_Java:
		return "java"
	case CallKind_Native:
		return "native"
	}

	return fmt.Sprintf("<invalid call kind %d>", uint(k))
}

var ErrUnsupported = errors.New("unsupported calling convention")

// Size in bytes of a stack argument slot
const StackSlotSize = 8

// Required alignment of the outgoing argument area
const StackAlignment = 16

var (
	javaIntegerArguments   = []registers.Register{registers.R1, registers.R2, registers.R3, registers.R4, registers.R5, registers.R6, registers.R7, registers.R0}
	nativeIntegerArguments = []registers.Register{registers.R0, registers.R1, registers.R2, registers.R3, registers.R4, registers.R5, registers.R6, registers.R7}
	floatArguments         = []registers.Register{registers.V0, registers.V1, registers.V2, registers.V3, registers.V4, registers.V5, registers.V6, registers.V7}
	allocatable            = []registers.Register{registers.R19, registers.R20, registers.R21, registers.R22, registers.R23, registers.R24, registers.R25, registers.R26, registers.R27, registers.R28}
)

// Shape of a call: parameter kinds and, unless Void, the result kind
type Signature struct {
	Params []code.PlatformKind
	Return code.PlatformKind
	Void   bool
}

// Returns the signature of a call taking the given values as arguments
func SignatureOf(ret code.PlatformKind, args ...code.Value) (Signature, error) {
	params := make([]code.PlatformKind, len(args))

	for i, arg := range args {
		kind, err := arg.PlatformKind()
		if err != nil {
			return Signature{}, err
		}

		params[i] = kind
	}

	return Signature{Params: params, Return: ret}, nil
}

// AArch64 register usage of the test assembler
type RegisterConfig struct{}

func NewRegisterConfig() *RegisterConfig {
	return &RegisterConfig{}
}

// General purpose register the assembler clobbers freely (x8, the indirect result register)
func (c *RegisterConfig) ScratchRegister() registers.Register {
	return registers.R8
}

// Floating point register used to stage float values stored to the stack
func (c *RegisterConfig) FloatScratchRegister() registers.Register {
	return registers.V9
}

// Returns the register holding results of the given kind
func (c *RegisterConfig) ReturnRegister(kind code.PlatformKind) registers.Register {
	if kind.IsFloat() {
		return registers.V0
	}

	return registers.R0
}

// Integer argument registers of Java calls, in order
func (c *RegisterConfig) JavaArgumentRegisters() []registers.Register {
	return javaIntegerArguments
}

// Registers handed out by the assembler as fresh registers
func (c *RegisterConfig) AllocatableRegisters() []registers.Register {
	return allocatable
}

// Returns the integer and floating point argument registers of a call kind
func (c *RegisterConfig) ArgumentRegisters(kind CallKind) ([]registers.Register, []registers.Register, error) {
	switch kind {
	case CallKind_Java:
		return javaIntegerArguments, floatArguments, nil
	case CallKind_Native:
		return nativeIntegerArguments, floatArguments, nil
	}

	return nil, nil, utils.MakeError(ErrUnsupported, "call kind %v", kind)
}

// Assigns argument and result locations to a call. Arguments that do not fit in registers
// go to 8 byte stack slots addressed from the stack pointer at the call
func (c *RegisterConfig) CallingConvention(kind CallKind, sig Signature) (*code.CallingConvention, error) {
	integers, floats, err := c.ArgumentRegisters(kind)
	if err != nil {
		return nil, err
	}

	cc := &code.CallingConvention{
		Arguments: make([]code.Location, len(sig.Params)),
	}

	nextInteger, nextFloat, stackOffset := 0, 0, 0

	for i, param := range sig.Params {
		if param >= code.TOTAL_PLATFORM_KINDS {
			return nil, utils.MakeError(ErrUnsupported, "parameter %d has invalid kind %v", i, param)
		}

		switch {
		case param.IsFloat() && nextFloat < len(floats):
			cc.Arguments[i] = code.RegisterLocation{Register: floats[nextFloat], Kind: param}
			nextFloat++
		case !param.IsFloat() && nextInteger < len(integers):
			cc.Arguments[i] = code.RegisterLocation{Register: integers[nextInteger], Kind: param}
			nextInteger++
		default:
			cc.Arguments[i] = code.StackSlot{Kind: param, Offset: stackOffset}
			stackOffset += StackSlotSize
		}
	}

	cc.StackSize = utils.AlignUp(stackOffset, StackAlignment)

	if !sig.Void {
		if sig.Return >= code.TOTAL_PLATFORM_KINDS {
			return nil, utils.MakeError(ErrUnsupported, "invalid return kind %v", sig.Return)
		}

		cc.Return = code.RegisterLocation{Register: c.ReturnRegister(sig.Return), Kind: sig.Return}
	}

	return cc, nil
}
