package registers

import (
	"errors"

	"github.com/Manu343726/a64asm/pkg/utils"
)

type RegisterClassDescriptor struct {
	Class       RegisterClass
	Description string

	registers []*RegisterDescriptor
}

// Returns the number of registers in the class
func (d *RegisterClassDescriptor) TotalRegisters() int {
	return len(d.registers)
}

// Returns the set of all registers in the class
func (d *RegisterClassDescriptor) AllRegisters() []*RegisterDescriptor {
	return d.registers
}

var ErrUnknownRegister = errors.New("unknown register")
var ErrWrongRegisterClass = errors.New("wrong register class")

// Returns a register of the class given its index within the class
func (d *RegisterClassDescriptor) Register(index int) (*RegisterDescriptor, error) {
	if index >= 0 && index < len(d.registers) {
		return d.registers[index], nil
	} else {
		return nil, utils.MakeError(ErrUnknownRegister, "register with index '%v' not found in register class, '%v' class has only %v registers", index, d.Class, d.TotalRegisters())
	}
}

// Initializes a register class descriptor with the given registers
func NewRegisterClassDescriptor(descriptor *RegisterClassDescriptor, registers []*RegisterDescriptor) *RegisterClassDescriptor {
	for _, register := range registers {
		if register.Register.Class() != descriptor.Class {
			panic(utils.MakeError(ErrWrongRegisterClass, "register %v does not belong to %v", register.Register, descriptor.Class))
		}
	}

	descriptor.registers = registers
	return descriptor
}
