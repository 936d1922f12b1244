package link

import (
	"encoding/binary"
	"testing"

	"github.com/Manu343726/a64asm/pkg/hw/aarch64/code"
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/encoding"
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/registers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compiled(words []uint32, data []byte, sites ...code.Site) *code.CompiledCode {
	cc := &code.CompiledCode{Name: "test", Data: data, DataAlignment: 16, Sites: sites}

	for _, word := range words {
		cc.Code = binary.LittleEndian.AppendUint32(cc.Code, word)
	}

	return cc
}

func word(img *Image, offset int) uint32 {
	return binary.LittleEndian.Uint32(img.Code[offset:])
}

func TestLayout(t *testing.T) {
	cc := compiled([]uint32{encoding.Nop(), encoding.Nop(), encoding.Ret()}, make([]byte, 8))

	img, err := Link(cc, Options{BaseAddress: 0x10000})
	require.NoError(t, err)

	assert.Equal(t, uint64(0x10000), img.BaseAddress)
	assert.Equal(t, uint64(0x10010), img.DataAddress)
	assert.Equal(t, uint64(0x10018), img.End())
	assert.Len(t, img.Bytes(), 0x18)
	assert.Equal(t, uint64(0x10008), img.Address(8))

	img, err = Link(cc, Options{BaseAddress: 0x10000, DataAlignment: 4})
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1000c), img.DataAddress)
}

func TestLiteralPatch(t *testing.T) {
	placeholder := encoding.LdrLiteral(registers.R8, code.QWord, encoding.LiteralPlaceholder)
	cc := compiled(
		[]uint32{encoding.Nop(), placeholder, encoding.Ret()},
		make([]byte, 16),
		code.DataPatch{PCOffset: 4, Kind: code.PatchKind_LiteralLoad, Reference: code.DataSectionReference{Offset: 8}},
	)

	img, err := Link(cc, Options{BaseAddress: 0x10000})
	require.NoError(t, err)

	// data at 0x10010, target 0x10018, instruction at 0x10004
	patched, err := encoding.Decode(word(img, 4))
	require.NoError(t, err)
	assert.Equal(t, int64(5), patched.Value("imm19"))
	assert.Equal(t, uint32(8), patched.Operand("Rt"))

	// Input is left untouched
	assert.Equal(t, placeholder, binary.LittleEndian.Uint32(cc.Code[4:]))
}

func TestPointerPatches(t *testing.T) {
	cc := compiled(
		[]uint32{
			encoding.Movz(registers.R0, 0xdead, 0),
			encoding.Movk(registers.R0, 0xdead, 16),
			encoding.Movk(registers.R0, 0xdead, 32),
			encoding.Movz(registers.R1, 0xdead, 16),
			encoding.Movk(registers.R1, 0xdead, 0),
		},
		nil,
		code.DataPatch{PCOffset: 0, Kind: code.PatchKind_Pointer48, Reference: code.ConstantReference{Constant: code.Constant{Name: "a"}}},
		code.DataPatch{PCOffset: 12, Kind: code.PatchKind_Pointer32, Reference: code.ConstantReference{Constant: code.Constant{Name: "b", Compressed: true}}},
	)

	img, err := Link(cc, Options{BaseAddress: 0x10000, Constants: ConstantTable{"a": 0x123456789abc, "b": 0xcafebabe}})
	require.NoError(t, err)

	assert.Equal(t, encoding.Movz(registers.R0, 0x9abc, 0), word(img, 0))
	assert.Equal(t, encoding.Movk(registers.R0, 0x5678, 16), word(img, 4))
	assert.Equal(t, encoding.Movk(registers.R0, 0x1234, 32), word(img, 8))
	assert.Equal(t, encoding.Movz(registers.R1, 0xcafe, 16), word(img, 12))
	assert.Equal(t, encoding.Movk(registers.R1, 0xbabe, 0), word(img, 16))
}

func TestForeignCallPatch(t *testing.T) {
	cc := compiled(
		[]uint32{
			encoding.Movz(registers.R8, 0xdead, 0),
			encoding.Movk(registers.R8, 0xdead, 16),
			encoding.Movk(registers.R8, 0xdead, 32),
			encoding.Blr(registers.R8),
		},
		nil,
		code.Call{PCOffset: 0, Size: 16, Target: 0x7f1234560000, Foreign: true},
	)

	img, err := Link(cc, Options{BaseAddress: 0x10000})
	require.NoError(t, err)

	assert.Equal(t, encoding.Movz(registers.R8, 0x0000, 0), word(img, 0))
	assert.Equal(t, encoding.Movk(registers.R8, 0x3456, 16), word(img, 4))
	assert.Equal(t, encoding.Movk(registers.R8, 0x7f12, 32), word(img, 8))
}

func TestDataItemPatch(t *testing.T) {
	cc := compiled(
		[]uint32{encoding.Ret()},
		make([]byte, 16),
		code.DataItemPatch{DataOffset: 0, Reference: code.ConstantReference{Constant: code.Constant{Name: "a"}}},
		code.DataItemPatch{DataOffset: 8, Reference: code.ConstantReference{Constant: code.Constant{Name: "b", Compressed: true}}},
	)

	img, err := Link(cc, Options{BaseAddress: 0x10000, Constants: ConstantTable{"a": 0x00007f0011223344, "b": 0x55667788}})
	require.NoError(t, err)

	assert.Equal(t, uint64(0x00007f0011223344), binary.LittleEndian.Uint64(img.Data[0:]))
	assert.Equal(t, uint32(0x55667788), binary.LittleEndian.Uint32(img.Data[8:]))
	assert.Equal(t, make([]byte, 16), cc.Data)
}

func TestErrors(t *testing.T) {
	literal := encoding.LdrLiteral(registers.R8, code.QWord, encoding.LiteralPlaceholder)

	cases := []struct {
		name string
		cc   *code.CompiledCode
		err  error
	}{
		{
			"unresolved constant",
			compiled([]uint32{encoding.Movz(registers.R0, 0, 0), encoding.Movk(registers.R0, 0, 16), encoding.Movk(registers.R0, 0, 32)}, nil,
				code.DataPatch{PCOffset: 0, Kind: code.PatchKind_Pointer48, Reference: code.ConstantReference{Constant: code.Constant{Name: "missing"}}}),
			ErrUnresolvedReference,
		},
		{
			"data reference out of the data section",
			compiled([]uint32{literal}, make([]byte, 8),
				code.DataPatch{PCOffset: 0, Kind: code.PatchKind_LiteralLoad, Reference: code.DataSectionReference{Offset: 8}}),
			ErrUnresolvedReference,
		},
		{
			"patch site is not a literal load",
			compiled([]uint32{encoding.Nop()}, make([]byte, 8),
				code.DataPatch{PCOffset: 0, Kind: code.PatchKind_LiteralLoad, Reference: code.DataSectionReference{Offset: 0}}),
			ErrInvalidPatchSite,
		},
		{
			"patch site outside of the code",
			compiled([]uint32{literal}, make([]byte, 8),
				code.DataPatch{PCOffset: 4, Kind: code.PatchKind_LiteralLoad, Reference: code.DataSectionReference{Offset: 0}}),
			ErrInvalidPatchSite,
		},
		{
			"compressed constant wider than 32 bits",
			compiled([]uint32{encoding.Movz(registers.R0, 0, 16), encoding.Movk(registers.R0, 0, 0)}, nil,
				code.DataPatch{PCOffset: 0, Kind: code.PatchKind_Pointer32, Reference: code.ConstantReference{Constant: code.Constant{Name: "wide", Compressed: true}}}),
			ErrOutOfRange,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Link(c.cc, Options{BaseAddress: 0x10000, Constants: ConstantTable{"wide": 1 << 40}})
			assert.ErrorIs(t, err, c.err)
		})
	}

	_, err := Link(compiled(nil, nil), Options{BaseAddress: 0x10002})
	assert.ErrorIs(t, err, ErrOutOfRange)
}
