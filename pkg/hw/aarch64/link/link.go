package link

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Manu343726/a64asm/pkg/hw/aarch64/code"
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/encoding"
	"github.com/Manu343726/a64asm/pkg/utils"
)

var (
	ErrUnresolvedReference = errors.New("unresolved reference")
	ErrInvalidPatchSite    = errors.New("invalid patch site")
	ErrOutOfRange          = errors.New("patch value out of range")
)

// Resolves VM constants to the value embedded in code. Compressed constants resolve to their 32 bit narrow value
type ConstantResolver interface {
	Resolve(c code.Constant) (uint64, error)
}

// Constant resolver backed by a name -> address table
type ConstantTable map[string]uint64

func (t ConstantTable) Resolve(c code.Constant) (uint64, error) {
	if addr, ok := t[c.Name]; ok {
		return addr, nil
	}

	return 0, utils.MakeError(ErrUnresolvedReference, "constant %v", c)
}

type Options struct {
	// Address the code is placed at
	BaseAddress uint64 `mapstructure:"base_address" yaml:"base_address"`

	// Alignment of the data section start. Zero means the alignment requested by the compiled code
	DataAlignment int `mapstructure:"data_alignment" yaml:"data_alignment"`

	Constants ConstantResolver `mapstructure:"-" yaml:"-"`
	Logger    *slog.Logger     `mapstructure:"-" yaml:"-"`
}

func DefaultOptions() Options {
	return Options{
		BaseAddress: 0x10000,
		Constants:   ConstantTable{},
	}
}

// Linked code and data, laid out contiguously starting at BaseAddress
type Image struct {
	Name        string
	BaseAddress uint64
	Code        []byte
	DataAddress uint64
	Data        []byte
	Sites       []code.Site
	FrameSize   int
}

// Returns the address of a code offset
func (img *Image) Address(offset int) uint64 {
	return img.BaseAddress + uint64(offset)
}

// Returns the address one past the end of the image
func (img *Image) End() uint64 {
	return img.DataAddress + uint64(len(img.Data))
}

// Returns the image as a single byte block starting at BaseAddress. The gap between code and data is zero filled
func (img *Image) Bytes() []byte {
	block := make([]byte, img.End()-img.BaseAddress)
	copy(block, img.Code)
	copy(block[img.DataAddress-img.BaseAddress:], img.Data)
	return block
}

type linker struct {
	img    *Image
	opts   Options
	logger *slog.Logger
}

// Resolves every patch request recorded in cc. The input is never modified
func Link(cc *code.CompiledCode, opts Options) (*Image, error) {
	alignment := opts.DataAlignment
	if alignment == 0 {
		alignment = cc.DataAlignment
	}
	if alignment == 0 {
		alignment = 1
	}

	if !utils.IsAligned(opts.BaseAddress, 4) {
		return nil, utils.MakeError(ErrOutOfRange, "base address 0x%x is not word aligned", opts.BaseAddress)
	}

	if opts.Constants == nil {
		opts.Constants = ConstantTable{}
	}

	l := linker{
		img: &Image{
			Name:        cc.Name,
			BaseAddress: opts.BaseAddress,
			Code:        append([]byte(nil), cc.Code...),
			DataAddress: utils.AlignUp(opts.BaseAddress+uint64(len(cc.Code)), uint64(alignment)),
			Data:        append([]byte(nil), cc.Data...),
			Sites:       append([]code.Site(nil), cc.Sites...),
			FrameSize:   cc.TotalFrameSize,
		},
		opts:   opts,
		logger: opts.Logger,
	}

	if l.logger == nil {
		l.logger = slog.New(slog.DiscardHandler)
	}

	for _, site := range cc.Sites {
		if err := l.patch(site); err != nil {
			return nil, utils.MakeError(err, "%v: %v", cc.Name, site)
		}
	}

	return l.img, nil
}

func (l *linker) patch(site code.Site) error {
	switch site := site.(type) {
	case code.DataPatch:
		return l.patchCode(site)
	case code.DataItemPatch:
		return l.patchData(site)
	case code.Call:
		if site.Foreign {
			return l.patchPointer(site.PCOffset, code.PatchKind_Pointer48, site.Target)
		}
	}

	return nil
}

func (l *linker) resolve(ref code.Reference) (uint64, error) {
	switch ref := ref.(type) {
	case code.DataSectionReference:
		if ref.Offset < 0 || ref.Offset >= len(l.img.Data) {
			return 0, utils.MakeError(ErrUnresolvedReference, "%v outside of a %d bytes data section", ref, len(l.img.Data))
		}

		return l.img.DataAddress + uint64(ref.Offset), nil
	case code.ConstantReference:
		return l.opts.Constants.Resolve(ref.Constant)
	}

	return 0, utils.MakeError(ErrUnresolvedReference, "%v", ref)
}

func (l *linker) patchCode(site code.DataPatch) error {
	target, err := l.resolve(site.Reference)
	if err != nil {
		return err
	}

	if site.Kind == code.PatchKind_LiteralLoad {
		return l.patchLiteral(site.PCOffset, target)
	}

	return l.patchPointer(site.PCOffset, site.Kind, target)
}

func (l *linker) instruction(offset int, op encoding.Op) (encoding.Instruction, error) {
	if offset < 0 || offset+4 > len(l.img.Code) || offset%4 != 0 {
		return encoding.Instruction{}, utils.MakeError(ErrInvalidPatchSite, "offset %d outside of a %d bytes code buffer", offset, len(l.img.Code))
	}

	word := binary.LittleEndian.Uint32(l.img.Code[offset:])
	instruction, err := encoding.Decode(word)
	if err != nil {
		return encoding.Instruction{}, utils.MakeError(ErrInvalidPatchSite, "%v", err)
	}

	if instruction.Form.Op != op {
		return encoding.Instruction{}, utils.MakeError(ErrInvalidPatchSite, "expected %v at offset %d, found %v", opName(op), offset, instruction.Form)
	}

	return instruction, nil
}

func (l *linker) write(offset int, instruction encoding.Instruction) {
	binary.LittleEndian.PutUint32(l.img.Code[offset:], instruction.Word)
	l.logger.Debug("patch",
		slog.String("address", utils.FormatUintHex(l.img.Address(offset), 16)),
		slog.String("word", utils.FormatUintHex(uint64(instruction.Word), 8)))
}

func (l *linker) patchLiteral(offset int, target uint64) error {
	instruction, err := l.instruction(offset, encoding.Op_LdrLiteral)
	if err != nil {
		return err
	}

	delta := int64(target) - int64(l.img.Address(offset))

	if delta%4 != 0 || !utils.FitsSigned(delta/4, 19) {
		return utils.MakeError(ErrOutOfRange, "literal 0x%x is not reachable from 0x%x", target, l.img.Address(offset))
	}

	l.write(offset, instruction.WithOperand("imm19", uint32(delta/4)&utils.AllOnes[uint32](19)))
	return nil
}

// Rewrites the movz/movk immediates of a pointer sequence
func (l *linker) patchPointer(offset int, kind code.PatchKind, value uint64) error {
	bits := 16 * kind.Instructions()

	if value>>bits != 0 {
		return utils.MakeError(ErrOutOfRange, "0x%x does not fit in %d bits", value, bits)
	}

	var halves []uint32
	if kind == code.PatchKind_Pointer32 {
		// movz hi, lsl 16; movk lo
		halves = []uint32{uint32(value>>16) & 0xffff, uint32(value) & 0xffff}
	} else {
		halves = []uint32{uint32(value) & 0xffff, uint32(value>>16) & 0xffff, uint32(value>>32) & 0xffff}
	}

	for i, half := range halves {
		op := encoding.Op_Movk
		if i == 0 {
			op = encoding.Op_Movz
		}

		instruction, err := l.instruction(offset+4*i, op)
		if err != nil {
			return err
		}

		l.write(offset+4*i, instruction.WithOperand("imm16", half))
	}

	return nil
}

func (l *linker) patchData(site code.DataItemPatch) error {
	value, err := l.resolve(site.Reference)
	if err != nil {
		return err
	}

	size := 8
	if ref, ok := site.Reference.(code.ConstantReference); ok && ref.Constant.Compressed {
		size = 4
	}

	if site.DataOffset < 0 || site.DataOffset+size > len(l.img.Data) {
		return utils.MakeError(ErrInvalidPatchSite, "data item [%d, %d) outside of a %d bytes data section", site.DataOffset, site.DataOffset+size, len(l.img.Data))
	}

	if size == 4 {
		if value>>32 != 0 {
			return utils.MakeError(ErrOutOfRange, "0x%x does not fit in a 32 bit data item", value)
		}

		binary.LittleEndian.PutUint32(l.img.Data[site.DataOffset:], uint32(value))
	} else {
		binary.LittleEndian.PutUint64(l.img.Data[site.DataOffset:], value)
	}

	return nil
}

func opName(op encoding.Op) string {
	for _, form := range encoding.Forms {
		if form.Op == op {
			return form.Name
		}
	}

	return fmt.Sprintf("op %d", uint(op))
}
