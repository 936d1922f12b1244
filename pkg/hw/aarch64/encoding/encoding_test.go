package encoding

import (
	"fmt"
	"testing"

	"github.com/Manu343726/a64asm/pkg/hw/aarch64/code"
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/registers"
	"github.com/Manu343726/a64asm/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldRoundtrip(t *testing.T) {
	for lsb := 0; lsb < WordBits; lsb++ {
		for msb := lsb; msb < WordBits; msb++ {
			width := msb - lsb + 1
			max := utils.AllOnes[uint32](width)

			for _, value := range []uint32{0, 1, max / 2, max} {
				word := Field(value, msb, lsb)

				assert.Equal(t, value, Extract(word, msb, lsb), "[%d:%d] = 0x%x", msb, lsb, value)
				assert.Zero(t, word&^(max<<lsb), "bits outside [%d:%d] must be zero", msb, lsb)
			}
		}
	}
}

func TestField_Overflow(t *testing.T) {
	assert.Panics(t, func() { Field(0x1000, 21, 10) })
	assert.Panics(t, func() { Field(1, 3, 4) })
	assert.Panics(t, func() { Field(1, 32, 0) })
	assert.NotPanics(t, func() { Field(0xfff, 21, 10) })
}

func TestRegField(t *testing.T) {
	assert.Equal(t, uint32(31<<5), RegField(registers.SP, 9, 5))
	assert.Equal(t, uint32(8), RegField(registers.R8, 4, 0))
	assert.Panics(t, func() { RegField(registers.R0, 5, 0) })
}

func TestExtractSigned(t *testing.T) {
	word := Field(0x7fffe, 23, 5)
	assert.Equal(t, int64(-2), ExtractSigned(word, 23, 5))
}

func TestReplace(t *testing.T) {
	word := LdrLiteral(registers.R8, code.QWord, LiteralPlaceholder)
	patched := Replace(word, 4, 23, 5)

	assert.Equal(t, uint32(4), Extract(patched, 23, 5))
	assert.Equal(t, Extract(word, 31, 24), Extract(patched, 31, 24))
	assert.Equal(t, Extract(word, 4, 0), Extract(patched, 4, 0))
}

func TestEncoders(t *testing.T) {
	cases := []struct {
		name     string
		word     uint32
		expected uint32
	}{
		{"nop", Nop(), 0xd503201f},
		{"add x1, x2, x3", AddReg(registers.R1, registers.R2, registers.R3), 0x8b030041},
		{"add x1, x2, #16", AddImm(registers.R1, registers.R2, 16), 0x91004041},
		{"sub sp, sp, #32", SubImm(registers.SP, registers.SP, 32), 0xd10083ff},
		{"sub sp, sp, x8", SubReg(registers.SP, registers.SP, registers.R8), 0xcb2863ff},
		{"mov x1, x2", MovReg(registers.R1, registers.R2), 0xaa0203e1},
		{"mov x0, x5", MovReg(registers.R0, registers.R5), 0xaa0503e0},
		{"movz x8, #0x7788", Movz(registers.R8, 0x7788, 0), 0xd28ef108},
		{"movk x8, #0x1122, lsl #48", Movk(registers.R8, 0x1122, 48), 0xf2e22448},
		{"lsl x1, x2, #3", LslImm(registers.R1, registers.R2, 3), 0xd37df041},
		{"ldr x8, #0xdead", LdrLiteral(registers.R8, code.QWord, LiteralPlaceholder), 0x581bd5a8},
		{"ldr x1, [x2, #16]", LdrImm(registers.R1, code.QWord, registers.R2, 16), 0xf9400841},
		{"str x1, [x2, #16]", StrImm(registers.R1, code.QWord, registers.R2, 16), 0xf9000841},
		{"str d1, [x2, #16]", StrImm(registers.V1, code.Double, registers.R2, 16), 0xfd000841},
		{"str s1, [sp, #8]", StrImm(registers.V1, code.Single, registers.SP, 8), 0xbd000be1},
		{"ldr wzr, [x8]", LdrImm(registers.ZR, code.DWord, registers.R8, 0), 0xb940011f},
		{"ldr xzr, [x8]", LdrImm(registers.ZR, code.QWord, registers.R8, 0), 0xf940011f},
		{"blr x8", Blr(registers.R8), 0xd63f0100},
		{"ret", Ret(), 0xd65f03c0},
		{"fmov d0, x8", FmovToFP(code.Double, registers.V0, registers.R8), 0x9e670100},
		{"fmov d2, x1", FmovToFP(code.Double, registers.V2, registers.R1), 0x9e670022},
		{"fmov s1, w8", FmovToFP(code.Single, registers.V1, registers.R8), 0x1e270101},
		{"fmov x0, d3", FmovFromFP(code.Double, registers.R0, registers.V3), 0x9e660060},
		{"stp x29, x30, [sp, #-32]!", StpFrame(), 0xa9be7bfd},
		{"mov x29, sp", MovFPFromSP(), 0x910003fd},
		{"mov sp, x29", MovSPFromFP(), 0x910003bf},
		{"ldp x29, x30, [sp], #32", LdpFrame(), 0xa8c27bfd},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, fmt.Sprintf("0x%08x", c.expected), fmt.Sprintf("0x%08x", c.word))
		})
	}
}

func TestMoveWideShifts(t *testing.T) {
	for i, shift := range []int{0, 16, 32, 48} {
		assert.Equal(t, uint32(i), Extract(Movz(registers.R0, 1, shift), 22, 21))
		assert.Equal(t, uint32(i), Extract(Movk(registers.R0, 1, shift), 22, 21))
	}

	assert.Panics(t, func() { Movz(registers.R0, 1, 8) })
	assert.Panics(t, func() { Movk(registers.R0, 1, 64) })
	assert.Panics(t, func() { Movz(registers.R0, 0x10000, 0) })
}

func TestLoadStoreOffsets(t *testing.T) {
	assert.Equal(t, uint32(2), Extract(LdrImm(registers.R0, code.QWord, registers.SP, 16), 21, 10))
	assert.Equal(t, uint32(4), Extract(LdrImm(registers.R0, code.DWord, registers.SP, 16), 21, 10))
	assert.Panics(t, func() { LdrImm(registers.R0, code.QWord, registers.SP, 12) })
	assert.Panics(t, func() { StrImm(registers.R0, code.DWord, registers.SP, -4) })
	assert.Panics(t, func() { StrImm(registers.V0, code.QWord, registers.SP, 0) })
	assert.Panics(t, func() { LdrImm(registers.R0, code.Double, registers.SP, 0) })
}

func TestRegisterClassChecks(t *testing.T) {
	assert.Panics(t, func() { AddReg(registers.V0, registers.R1, registers.R2) })
	assert.Panics(t, func() { FmovToFP(code.Double, registers.R0, registers.R1) })
	assert.Panics(t, func() { FmovFromFP(code.QWord, registers.R0, registers.V1) })
	assert.Panics(t, func() { LdrLiteral(registers.R0, code.Double, 0) })
}

func TestLookup(t *testing.T) {
	cases := []struct {
		word uint32
		op   Op
		kind code.PlatformKind
	}{
		{Nop(), Op_Nop, code.DWord},
		{AddReg(registers.R1, registers.R2, registers.R3), Op_AddReg, code.QWord},
		{AddImm(registers.R1, registers.R2, 1), Op_AddImm, code.QWord},
		{MovFPFromSP(), Op_AddImm, code.QWord},
		{SubImm(registers.SP, registers.SP, 16), Op_SubImm, code.QWord},
		{SubReg(registers.SP, registers.SP, registers.R8), Op_SubReg, code.QWord},
		{MovReg(registers.R0, registers.R1), Op_Mov, code.QWord},
		{Movz(registers.R8, 1, 16), Op_Movz, code.QWord},
		{Movk(registers.R8, 1, 16), Op_Movk, code.QWord},
		{LslImm(registers.R0, registers.R0, 3), Op_Ubfm, code.QWord},
		{LdrLiteral(registers.R0, code.DWord, 1), Op_LdrLiteral, code.DWord},
		{LdrLiteral(registers.R0, code.QWord, 1), Op_LdrLiteral, code.QWord},
		{LdrImm(registers.V0, code.Single, registers.SP, 4), Op_LdrImm, code.Single},
		{StrImm(registers.R0, code.QWord, registers.SP, 8), Op_StrImm, code.QWord},
		{Blr(registers.R8), Op_Blr, code.DWord},
		{Ret(), Op_Ret, code.DWord},
		{FmovToFP(code.Single, registers.V0, registers.R8), Op_FmovToFP, code.Single},
		{FmovFromFP(code.Double, registers.R0, registers.V0), Op_FmovFromFP, code.Double},
		{StpFrame(), Op_StpPreIndex, code.QWord},
		{LdpFrame(), Op_LdpPostIndex, code.QWord},
	}

	for _, c := range cases {
		form, err := Lookup(c.word)
		require.NoError(t, err, "0x%08x", c.word)
		assert.Equal(t, c.op, form.Op, "0x%08x decoded as %v", c.word, form)
		assert.Equal(t, c.kind, form.Kind, "0x%08x decoded as %v", c.word, form)
	}

	_, err := Lookup(0)
	assert.ErrorIs(t, err, ErrUnknownInstruction)
}

func TestDecodeOperands(t *testing.T) {
	instruction, err := Decode(Movk(registers.R8, 0x3344, 32))
	require.NoError(t, err)

	assert.Equal(t, uint32(2), instruction.Operand("hw"))
	assert.Equal(t, uint32(0x3344), instruction.Operand("imm16"))
	assert.Equal(t, uint32(8), instruction.Operand("Rd"))

	stp, err := Decode(StpFrame())
	require.NoError(t, err)
	assert.Equal(t, int64(-4), stp.Value("imm7"))
	assert.Equal(t, int64(30), stp.Value("Rt2"))

	patched := instruction.WithOperand("imm16", 0xbeef)
	assert.Equal(t, Movk(registers.R8, 0xbeef, 32), patched.Word)

	assert.Panics(t, func() { instruction.Operand("imm12") })
}

func TestPrettyPrint(t *testing.T) {
	diagram, err := PrettyPrint(AddImm(registers.R1, registers.R2, 16), 0)
	require.NoError(t, err)

	assert.Contains(t, diagram, "add (immediate)")
	assert.Contains(t, diagram, "imm12=16")
	assert.Contains(t, diagram, "Rn=2")
	assert.Contains(t, diagram, "Rd=1")
	assert.Contains(t, diagram, "1001000100")

	_, err = PrettyPrint(0, 0)
	assert.ErrorIs(t, err, ErrUnknownInstruction)
}

func TestDocString(t *testing.T) {
	doc := DocString()

	for _, form := range Forms {
		assert.Contains(t, doc, form.Name)
	}
	assert.Contains(t, doc, "imm12[21:10]")
	assert.Contains(t, doc, "pattern 0xd503201f")
}
