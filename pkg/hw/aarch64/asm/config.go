package asm

import (
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/code"
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/registers"
)

// Platform constants the assembler needs from the VM
type Config struct {
	// Address of the deoptimization handler stub called by the epilogue
	HandleDeoptStub uint64 `mapstructure:"handle_deopt_stub" yaml:"handle_deopt_stub"`

	// Mark ids
	VerifiedEntryMark     int `mapstructure:"verified_entry_mark" yaml:"verified_entry_mark"`
	DeoptHandlerEntryMark int `mapstructure:"deopt_handler_entry_mark" yaml:"deopt_handler_entry_mark"`

	// Alignment of the data section
	DataAlignment int `mapstructure:"data_alignment" yaml:"data_alignment"`

	// Compressed pointer encoding
	NarrowOopBase  uint64 `mapstructure:"narrow_oop_base" yaml:"narrow_oop_base"`
	NarrowOopShift int    `mapstructure:"narrow_oop_shift" yaml:"narrow_oop_shift"`
}

func DefaultConfig() Config {
	return Config{
		HandleDeoptStub:       0x00007f1234560000,
		VerifiedEntryMark:     1,
		DeoptHandlerEntryMark: 5,
		DataAlignment:         16,
		NarrowOopBase:         0,
		NarrowOopShift:        3,
	}
}

// Register usage the assembler depends on
type RegisterConfig interface {
	ScratchRegister() registers.Register
	FloatScratchRegister() registers.Register
	ReturnRegister(kind code.PlatformKind) registers.Register
	JavaArgumentRegisters() []registers.Register
	AllocatableRegisters() []registers.Register
}
