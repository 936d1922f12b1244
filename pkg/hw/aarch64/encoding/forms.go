package encoding

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Manu343726/a64asm/pkg/hw/aarch64/code"
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/registers"
	"github.com/Manu343726/a64asm/pkg/utils"
)

// Operation implemented by an instruction form
type Op uint

const (
	Op_Nop Op = iota
	Op_AddReg
	Op_AddImm
	Op_SubImm
	Op_SubReg
	Op_Mov
	Op_Movz
	Op_Movk
	Op_Ubfm
	Op_LdrLiteral
	Op_LdrImm
	Op_StrImm
	Op_Blr
	Op_Ret
	Op_FmovToFP
	Op_FmovFromFP
	Op_StpPreIndex
	Op_LdpPostIndex

	TOTAL_OPS
)

// Operand field of an instruction form
type OperandField struct {
	Name   string
	Msb    int
	Lsb    int
	Signed bool
}

func (f OperandField) Width() int {
	return f.Msb - f.Lsb + 1
}

// Describes the fixed opcode bits and the operand fields of one of the instruction forms the assembler emits
type Form struct {
	Name    string
	Op      Op
	Kind    code.PlatformKind
	Mask    uint32
	Pattern uint32
	Fields  []OperandField
}

// Returns true if the word is an instance of the form
func (f *Form) Matches(word uint32) bool {
	return word&f.Mask == f.Pattern
}

// Returns the operand field with the given name
func (f *Form) Field(name string) (OperandField, bool) {
	for _, field := range f.Fields {
		if field.Name == name {
			return field, true
		}
	}

	return OperandField{}, false
}

func (f *Form) String() string {
	return f.Name
}

var (
	rd    = OperandField{Name: "Rd", Msb: 4, Lsb: 0}
	rt    = OperandField{Name: "Rt", Msb: 4, Lsb: 0}
	rn    = OperandField{Name: "Rn", Msb: 9, Lsb: 5}
	rm    = OperandField{Name: "Rm", Msb: 20, Lsb: 16}
	rt2   = OperandField{Name: "Rt2", Msb: 14, Lsb: 10}
	imm6  = OperandField{Name: "imm6", Msb: 15, Lsb: 10}
	imm7  = OperandField{Name: "imm7", Msb: 21, Lsb: 15, Signed: true}
	imm12 = OperandField{Name: "imm12", Msb: 21, Lsb: 10}
	imm16 = OperandField{Name: "imm16", Msb: 20, Lsb: 5}
	imm19 = OperandField{Name: "imm19", Msb: 23, Lsb: 5, Signed: true}
	hw    = OperandField{Name: "hw", Msb: 22, Lsb: 21}
	immr  = OperandField{Name: "immr", Msb: 21, Lsb: 16}
	imms  = OperandField{Name: "imms", Msb: 15, Lsb: 10}
)

func registerFor(kind code.PlatformKind) registers.Register {
	if kind.IsFloat() {
		return registers.V0
	}

	return registers.R0
}

func loadStoreForms() []*Form {
	var forms []*Form

	for _, kind := range []code.PlatformKind{code.DWord, code.QWord, code.Single, code.Double} {
		for _, load := range []bool{true, false} {
			word := loadStoreImm(0b00, registerFor(kind), kind, registers.R0, 0)
			name, op := "str", Op_StrImm

			if load {
				word = loadStoreImm(0b01, registerFor(kind), kind, registers.R0, 0)
				name, op = "ldr", Op_LdrImm
			}

			forms = append(forms, &Form{
				Name:    fmt.Sprintf("%v (unsigned offset, %v)", name, kind),
				Op:      op,
				Kind:    kind,
				Mask:    0xffc00000,
				Pattern: word & 0xffc00000,
				Fields:  []OperandField{imm12, rn, rt},
			})
		}
	}

	return forms
}

// Table of every instruction form the assembler emits
var Forms = append([]*Form{
	{Name: "nop", Op: Op_Nop, Mask: 0xffffffff, Pattern: NopWord},
	{Name: "add (shifted register)", Op: Op_AddReg, Kind: code.QWord, Mask: 0xffe00000, Pattern: 0x8b000000, Fields: []OperandField{rm, imm6, rn, rd}},
	{Name: "add (immediate)", Op: Op_AddImm, Kind: code.QWord, Mask: 0xffc00000, Pattern: 0x91000000, Fields: []OperandField{imm12, rn, rd}},
	{Name: "sub (immediate)", Op: Op_SubImm, Kind: code.QWord, Mask: 0xffc00000, Pattern: 0xd1000000, Fields: []OperandField{imm12, rn, rd}},
	{Name: "sub (extended register, uxtx)", Op: Op_SubReg, Kind: code.QWord, Mask: 0xffe0fc00, Pattern: 0xcb206000, Fields: []OperandField{rm, rn, rd}},
	{Name: "mov (register)", Op: Op_Mov, Kind: code.QWord, Mask: 0xffe0ffe0, Pattern: 0xaa0003e0, Fields: []OperandField{rm, rd}},
	{Name: "movz", Op: Op_Movz, Kind: code.QWord, Mask: 0xff800000, Pattern: 0xd2800000, Fields: []OperandField{hw, imm16, rd}},
	{Name: "movk", Op: Op_Movk, Kind: code.QWord, Mask: 0xff800000, Pattern: 0xf2800000, Fields: []OperandField{hw, imm16, rd}},
	{Name: "ubfm", Op: Op_Ubfm, Kind: code.QWord, Mask: 0xffc00000, Pattern: 0xd3400000, Fields: []OperandField{immr, imms, rn, rd}},
	{Name: "ldr (literal, dword)", Op: Op_LdrLiteral, Kind: code.DWord, Mask: 0xff000000, Pattern: 0x18000000, Fields: []OperandField{imm19, rt}},
	{Name: "ldr (literal, qword)", Op: Op_LdrLiteral, Kind: code.QWord, Mask: 0xff000000, Pattern: 0x58000000, Fields: []OperandField{imm19, rt}},
	{Name: "blr", Op: Op_Blr, Mask: 0xfffffc1f, Pattern: 0xd63f0000, Fields: []OperandField{rn}},
	{Name: "ret", Op: Op_Ret, Mask: 0xfffffc1f, Pattern: 0xd65f0000, Fields: []OperandField{rn}},
	{Name: "fmov (general to double)", Op: Op_FmovToFP, Kind: code.Double, Mask: 0xfffffc00, Pattern: 0x9e670000, Fields: []OperandField{rn, rd}},
	{Name: "fmov (double to general)", Op: Op_FmovFromFP, Kind: code.Double, Mask: 0xfffffc00, Pattern: 0x9e660000, Fields: []OperandField{rn, rd}},
	{Name: "fmov (general to single)", Op: Op_FmovToFP, Kind: code.Single, Mask: 0xfffffc00, Pattern: 0x1e270000, Fields: []OperandField{rn, rd}},
	{Name: "fmov (single to general)", Op: Op_FmovFromFP, Kind: code.Single, Mask: 0xfffffc00, Pattern: 0x1e260000, Fields: []OperandField{rn, rd}},
	{Name: "stp (pre-index)", Op: Op_StpPreIndex, Kind: code.QWord, Mask: 0xffc00000, Pattern: 0xa9800000, Fields: []OperandField{imm7, rt2, rn, rt}},
	{Name: "ldp (post-index)", Op: Op_LdpPostIndex, Kind: code.QWord, Mask: 0xffc00000, Pattern: 0xa8c00000, Fields: []OperandField{imm7, rt2, rn, rt}},
}, loadStoreForms()...)

var ErrUnknownInstruction = errors.New("unknown instruction")

// Returns the form a word is an instance of
func Lookup(word uint32) (*Form, error) {
	for _, form := range Forms {
		if form.Matches(word) {
			return form, nil
		}
	}

	return nil, utils.MakeError(ErrUnknownInstruction, "0x%08x", word)
}

// An instruction word decoded against its form
type Instruction struct {
	Form *Form
	Word uint32
}

// Returns the raw contents of an operand field. Panics if the form has no such field
func (i Instruction) Operand(name string) uint32 {
	field, ok := i.Form.Field(name)
	if !ok {
		panic(fmt.Sprintf("%v has no operand '%v'", i.Form, name))
	}

	return Extract(i.Word, field.Msb, field.Lsb)
}

// Returns the value of an operand field, sign extended if the field is signed
func (i Instruction) Value(name string) int64 {
	field, ok := i.Form.Field(name)
	if !ok {
		panic(fmt.Sprintf("%v has no operand '%v'", i.Form, name))
	}

	if field.Signed {
		return ExtractSigned(i.Word, field.Msb, field.Lsb)
	}

	return int64(Extract(i.Word, field.Msb, field.Lsb))
}

// Returns a copy of the instruction with an operand field replaced
func (i Instruction) WithOperand(name string, value uint32) Instruction {
	field, ok := i.Form.Field(name)
	if !ok {
		panic(fmt.Sprintf("%v has no operand '%v'", i.Form, name))
	}

	i.Word = Replace(i.Word, value, field.Msb, field.Lsb)
	return i
}

func (i Instruction) String() string {
	operands := make([]string, 0, len(i.Form.Fields))

	for _, field := range i.Form.Fields {
		operands = append(operands, fmt.Sprintf("%v=%v", field.Name, i.Value(field.Name)))
	}

	return fmt.Sprintf("%v {%v}", i.Form.Name, strings.Join(operands, ", "))
}

// Decodes a word against the form table
func Decode(word uint32) (Instruction, error) {
	form, err := Lookup(word)
	if err != nil {
		return Instruction{}, err
	}

	return Instruction{Form: form, Word: word}, nil
}

// Returns an ascii diagram of the fields of an instruction word, fixed opcode bits included
func PrettyPrint(word uint32, leftpad int) (string, error) {
	instruction, err := Decode(word)
	if err != nil {
		return "", err
	}

	fields := make([]utils.AsciiFrameField, 0, len(instruction.Form.Fields)*2+1)
	operandBits := uint32(0)

	for _, field := range instruction.Form.Fields {
		fields = append(fields, utils.AsciiFrameField{
			Name:  fmt.Sprintf("%v=%v", field.Name, instruction.Value(field.Name)),
			Begin: field.Lsb,
			Width: field.Width(),
		})

		operandBits |= Field(utils.AllOnes[uint32](field.Width()), field.Msb, field.Lsb)
	}

	// Runs of fixed bits between operand fields
	for bit := 0; bit < WordBits; {
		if operandBits&(1<<bit) != 0 {
			bit++
			continue
		}

		end := bit
		for end < WordBits && operandBits&(1<<end) == 0 {
			end++
		}

		fields = append(fields, utils.AsciiFrameField{
			Name:  utils.FormatUintBinary(uint64(Extract(word, end-1, bit)), end-bit),
			Begin: bit,
			Width: end - bit,
		})

		bit = end
	}

	sort.Slice(fields, func(i, j int) bool { return fields[i].Begin < fields[j].Begin })

	frame, err := utils.AsciiFrame(fields, WordBits, "bits", utils.AsciiFrameUnitLayout_RightToLeft, leftpad)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%v%v (0x%08x)\n%v", strings.Repeat(" ", leftpad), instruction.Form.Name, word, frame), nil
}

// Returns a table of every instruction form with its opcode mask, fixed bits and operand fields
func DocString() string {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("%d instruction forms\n", len(Forms)))

	for _, form := range Forms {
		fields := make([]string, 0, len(form.Fields))
		for _, field := range form.Fields {
			fields = append(fields, fmt.Sprintf("%v[%d:%d]", field.Name, field.Msb, field.Lsb))
		}

		builder.WriteString(fmt.Sprintf("  %-36v mask 0x%08x pattern 0x%08x %v\n", form.Name, form.Mask, form.Pattern, strings.Join(fields, " ")))
	}

	return builder.String()
}
