package encoding

import (
	"fmt"

	"github.com/Manu343726/a64asm/pkg/hw/aarch64/code"
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/registers"
)

// Fixed instruction words
const (
	NopWord uint32 = 0xd503201f

	// stp x29, x30, [sp, #-32]!
	StpFrameWord uint32 = 0xa9be7bfd

	// mov x29, sp
	MovFPFromSPWord uint32 = 0x910003fd

	// mov sp, x29
	MovSPFromFPWord uint32 = 0x910003bf

	// ldp x29, x30, [sp], #32
	LdpFrameWord uint32 = 0xa8c27bfd

	// ret (x30)
	RetWord uint32 = 0xd65f03c0
)

// Placeholder imm19 of literal loads waiting for the linker
const LiteralPlaceholder = 0xdead

func gpr(r registers.Register) {
	if !r.IsGeneralPurpose() {
		panic(fmt.Sprintf("%v is not a general purpose register", r))
	}
}

func simd(r registers.Register) {
	if !r.IsSIMD() {
		panic(fmt.Sprintf("%v is not a SIMD&FP register", r))
	}
}

func Nop() uint32 {
	return NopWord
}

// add rd, rn, rm
func AddReg(rd, rn, rm registers.Register) uint32 {
	gpr(rd)
	gpr(rn)
	gpr(rm)

	return Field(0b10001011000, 31, 21) |
		RegField(rm, 20, 16) |
		RegField(rn, 9, 5) |
		RegField(rd, 4, 0)
}

// add rd, rn, #imm12
func AddImm(rd, rn registers.Register, imm12 uint32) uint32 {
	gpr(rd)
	gpr(rn)

	return Field(0b1001000100, 31, 22) |
		Field(imm12, 21, 10) |
		RegField(rn, 9, 5) |
		RegField(rd, 4, 0)
}

// sub rd, rn, #imm12
func SubImm(rd, rn registers.Register, imm12 uint32) uint32 {
	gpr(rd)
	gpr(rn)

	return Field(0b1101000100, 31, 22) |
		Field(imm12, 21, 10) |
		RegField(rn, 9, 5) |
		RegField(rd, 4, 0)
}

// sub rd, rn, rm, uxtx. The extended register form accepts sp as rd and rn
func SubReg(rd, rn, rm registers.Register) uint32 {
	gpr(rd)
	gpr(rn)
	gpr(rm)

	return Field(0b11001011001, 31, 21) |
		RegField(rm, 20, 16) |
		Field(0b011000, 15, 10) |
		RegField(rn, 9, 5) |
		RegField(rd, 4, 0)
}

// mov rd, rm, encoded as orr rd, xzr, rm
func MovReg(rd, rm registers.Register) uint32 {
	gpr(rd)
	gpr(rm)

	return Field(0b10101010000, 31, 21) |
		RegField(rm, 20, 16) |
		RegField(registers.ZR, 9, 5) |
		RegField(rd, 4, 0)
}

func moveWideShift(shift int) uint32 {
	switch shift {
	case 0, 16, 32, 48:
		return uint32(shift / 16)
	}

	panic(fmt.Sprintf("invalid move wide shift %d, must be one of 0, 16, 32 or 48", shift))
}

// movz rd, #imm16, lsl #shift
func Movz(rd registers.Register, imm16 uint32, shift int) uint32 {
	gpr(rd)

	return Field(0b110100101, 31, 23) |
		Field(moveWideShift(shift), 22, 21) |
		Field(imm16, 20, 5) |
		RegField(rd, 4, 0)
}

// movk rd, #imm16, lsl #shift
func Movk(rd registers.Register, imm16 uint32, shift int) uint32 {
	gpr(rd)

	return Field(0b111100101, 31, 23) |
		Field(moveWideShift(shift), 22, 21) |
		Field(imm16, 20, 5) |
		RegField(rd, 4, 0)
}

// lsl rd, rn, #shift, encoded as ubfm rd, rn, #(-shift mod 64), #(63-shift)
func LslImm(rd, rn registers.Register, shift int) uint32 {
	gpr(rd)
	gpr(rn)

	if shift < 0 || shift > 63 {
		panic(fmt.Sprintf("invalid shift amount %d", shift))
	}

	return Field(0b1101001101, 31, 22) |
		Field(uint32(-shift&63), 21, 16) |
		Field(uint32(63-shift), 15, 10) |
		RegField(rn, 9, 5) |
		RegField(rd, 4, 0)
}

// ldr rt, <pc + imm19*4>. Only integer kinds are supported
func LdrLiteral(rt registers.Register, kind code.PlatformKind, imm19 uint32) uint32 {
	gpr(rt)

	var opc uint32

	switch kind {
	case code.DWord:
		opc = 0b00
	case code.QWord:
		opc = 0b01
	default:
		panic(fmt.Sprintf("unsupported literal load kind %v", kind))
	}

	return Field(opc, 31, 30) |
		Field(0b011000, 29, 24) |
		Field(imm19, 23, 5) |
		RegField(rt, 4, 0)
}

func loadStoreImm(opc uint32, rt registers.Register, kind code.PlatformKind, rn registers.Register, offset int) uint32 {
	gpr(rn)

	var size, v uint32

	switch kind {
	case code.DWord:
		gpr(rt)
		size, v = 0b10, 0
	case code.QWord:
		gpr(rt)
		size, v = 0b11, 0
	case code.Single:
		simd(rt)
		size, v = 0b10, 1
	case code.Double:
		simd(rt)
		size, v = 0b11, 1
	default:
		panic(fmt.Sprintf("unsupported load/store kind %v", kind))
	}

	if offset < 0 || offset&(kind.Size()-1) != 0 {
		panic(fmt.Sprintf("offset %d must be non-negative and %d byte aligned", offset, kind.Size()))
	}

	return Field(size, 31, 30) |
		Field(0b111, 29, 27) |
		Field(v, 26, 26) |
		Field(0b01, 25, 24) |
		Field(opc, 23, 22) |
		Field(uint32(offset>>kind.Log2Size()), 21, 10) |
		RegField(rn, 9, 5) |
		RegField(rt, 4, 0)
}

// ldr rt, [rn, #offset]
func LdrImm(rt registers.Register, kind code.PlatformKind, rn registers.Register, offset int) uint32 {
	return loadStoreImm(0b01, rt, kind, rn, offset)
}

// str rt, [rn, #offset]
func StrImm(rt registers.Register, kind code.PlatformKind, rn registers.Register, offset int) uint32 {
	return loadStoreImm(0b00, rt, kind, rn, offset)
}

// blr rn
func Blr(rn registers.Register) uint32 {
	gpr(rn)

	return Field(0b1101011000111111000000, 31, 10) |
		RegField(rn, 9, 5)
}

func Ret() uint32 {
	return RetWord
}

func fmov(kind code.PlatformKind, opcode uint32, rd, rn registers.Register) uint32 {
	var sf, ftype uint32

	switch kind {
	case code.Single:
		sf, ftype = 0, 0b00
	case code.Double:
		sf, ftype = 1, 0b01
	default:
		panic(fmt.Sprintf("unsupported fmov kind %v", kind))
	}

	return Field(sf, 31, 31) |
		Field(0b0011110, 30, 24) |
		Field(ftype, 23, 22) |
		Field(opcode, 21, 16) |
		RegField(rn, 9, 5) |
		RegField(rd, 4, 0)
}

// fmov vd, xn (or sd, wn for singles)
func FmovToFP(kind code.PlatformKind, vd, rn registers.Register) uint32 {
	simd(vd)
	gpr(rn)

	return fmov(kind, 0b100111, vd, rn)
}

// fmov xd, vn (or wd, sn for singles)
func FmovFromFP(kind code.PlatformKind, rd, vn registers.Register) uint32 {
	gpr(rd)
	simd(vn)

	return fmov(kind, 0b100110, rd, vn)
}

func StpFrame() uint32 {
	return StpFrameWord
}

func MovFPFromSP() uint32 {
	return MovFPFromSPWord
}

func MovSPFromFP() uint32 {
	return MovSPFromFPWord
}

func LdpFrame() uint32 {
	return LdpFrameWord
}
