package asm

import (
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/code"
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/encoding"
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/registers"
	"github.com/Manu343726/a64asm/pkg/utils"
)

// Placeholder addresses of pointer sequences waiting for the linker
const (
	Pointer32Placeholder uint64 = 0xdeaddead
	Pointer48Placeholder uint64 = 0xdeaddeaddead
)

// Data item placeholders
const (
	dataItem32Placeholder uint32 = 0xdeaddead
	dataItem64Placeholder uint64 = 0xdeaddeaddeaddead
)

func (a *Assembler) emitLoadPointer32(ret registers.Register, addr uint64) {
	if addr>>32 != 0 {
		utils.Panicf(ErrInvalidPointer, "0x%x does not fit in 32 bits", addr)
	}

	a.emit(encoding.Movz(ret, uint32(addr>>16)&0xffff, 16))
	a.emit(encoding.Movk(ret, uint32(addr)&0xffff, 0))
}

func (a *Assembler) emitLoadPointer48(ret registers.Register, addr uint64) {
	if addr>>48 != 0 {
		utils.Panicf(ErrInvalidPointer, "0x%x does not fit in 48 bits", addr)
	}

	a.emit(encoding.Movz(ret, uint32(addr)&0xffff, 0))
	a.emit(encoding.Movk(ret, uint32(addr>>16)&0xffff, 16))
	a.emit(encoding.Movk(ret, uint32(addr>>32)&0xffff, 32))
}

func (a *Assembler) emitLoadInt(ret registers.Register, value int32) {
	bits := uint32(value)

	a.emit(encoding.Movz(ret, bits&0xffff, 0))
	a.emit(encoding.Movk(ret, bits>>16, 16))
}

func (a *Assembler) emitLoadLong(ret registers.Register, value int64) {
	bits := uint64(value)

	a.emit(encoding.Movz(ret, uint32(bits)&0xffff, 0))
	a.emit(encoding.Movk(ret, uint32(bits>>16)&0xffff, 16))
	a.emit(encoding.Movk(ret, uint32(bits>>32)&0xffff, 32))
	a.emit(encoding.Movk(ret, uint32(bits>>48)&0xffff, 48))
}

// Appends a constant to the data section and loads it into ret through the scratch register
func (a *Assembler) emitLoadFloatBits(ret registers.Register, kind code.PlatformKind, bits uint64) {
	a.data.Align(kind.Size())
	ref := code.DataSectionReference{Offset: a.data.Position()}

	if kind == code.Single {
		a.data.EmitInt(uint32(bits))
	} else {
		a.data.EmitLong(bits)
	}

	literalKind := code.QWord
	if kind == code.Single {
		literalKind = code.DWord
	}

	a.recordDataPatchInCode(code.PatchKind_LiteralLoad, ref)
	a.emit(encoding.LdrLiteral(a.scratch(), literalKind, encoding.LiteralPlaceholder))
	a.emit(encoding.FmovToFP(kind, ret, a.scratch()))
}

func (a *Assembler) emitLoadFloat(ret registers.Register, value float32) {
	a.emitLoadFloatBits(ret, code.Single, code.FloatValue(value).Bits)
}

func (a *Assembler) emitLoadDouble(ret registers.Register, value float64) {
	a.emitLoadFloatBits(ret, code.Double, code.DoubleValue(value).Bits)
}

// Loads a 32 bit integer into a fresh register
func (a *Assembler) EmitLoadInt(value int32) registers.Register {
	ret := a.NewRegister()
	a.emitLoadInt(ret, value)
	return ret
}

// Loads a 64 bit integer into a fresh register
func (a *Assembler) EmitLoadLong(value int64) registers.Register {
	ret := a.NewRegister()
	a.emitLoadLong(ret, value)
	return ret
}

// Loads a float constant from the data section into v0
func (a *Assembler) EmitLoadFloat(value float32) registers.Register {
	ret := registers.V0
	a.emitLoadFloat(ret, value)
	return ret
}

// Loads a double constant from the data section into v0
func (a *Assembler) EmitLoadDouble(value float64) registers.Register {
	ret := registers.V0
	a.emitLoadDouble(ret, value)
	return ret
}

// Loads the address of a VM constant into a fresh register. The address is patched in by the linker
func (a *Assembler) EmitLoadPointer(c code.Constant) registers.Register {
	ret := a.NewRegister()
	ref := code.ConstantReference{Constant: c}

	if c.Compressed {
		a.recordDataPatchInCode(code.PatchKind_Pointer32, ref)
		a.emitLoadPointer32(ret, Pointer32Placeholder)
	} else {
		a.recordDataPatchInCode(code.PatchKind_Pointer48, ref)
		a.emitLoadPointer48(ret, Pointer48Placeholder)
	}

	return ret
}

// Loads a 64 bit pointer stored in the data section into a fresh register
func (a *Assembler) EmitLoadPointerFromData(ref code.DataSectionReference) registers.Register {
	ret := a.NewRegister()
	a.recordDataPatchInCode(code.PatchKind_LiteralLoad, ref)
	a.emit(encoding.LdrLiteral(ret, code.QWord, encoding.LiteralPlaceholder))
	return ret
}

// Loads a 32 bit compressed pointer stored in the data section into a fresh register
func (a *Assembler) EmitLoadNarrowPointer(ref code.DataSectionReference) registers.Register {
	ret := a.NewRegister()
	a.recordDataPatchInCode(code.PatchKind_LiteralLoad, ref)
	a.emit(encoding.LdrLiteral(ret, code.DWord, encoding.LiteralPlaceholder))
	return ret
}

// Loads the pointer at [base, #offset] into a fresh register
func (a *Assembler) EmitLoadPointerAt(base registers.Register, offset int) registers.Register {
	ret := a.NewRegister()
	a.emit(encoding.LdrImm(ret, code.QWord, base, offset))
	return ret
}

// Reserves a data section item holding the address of a VM constant, 4 bytes for compressed constants and 8 otherwise
func (a *Assembler) EmitDataItem(c code.Constant) code.DataSectionReference {
	size := code.QWord.Size()
	if c.Compressed {
		size = code.DWord.Size()
	}

	a.data.Align(size)
	ref := code.DataSectionReference{Offset: a.data.Position()}
	a.record(code.DataItemPatch{DataOffset: ref.Offset, Reference: code.ConstantReference{Constant: c}})

	if c.Compressed {
		a.data.EmitInt(dataItem32Placeholder)
	} else {
		a.data.EmitLong(dataItem64Placeholder)
	}

	return ref
}

// Decodes a compressed pointer in place: ptr = base + (ptr << shift)
func (a *Assembler) EmitUncompressPointer(ptr registers.Register, base uint64, shift int) registers.Register {
	if shift > 0 {
		a.emit(encoding.LslImm(ptr, ptr, shift))
	}

	if base != 0 {
		a.emitLoadPointer48(a.scratch(), base)
		a.emit(encoding.AddReg(ptr, ptr, a.scratch()))
	}

	return ptr
}

// Adds two registers into a fresh register
func (a *Assembler) EmitIntAdd(x, y registers.Register) registers.Register {
	ret := a.NewRegister()
	a.emit(encoding.AddReg(ret, x, y))
	return ret
}
