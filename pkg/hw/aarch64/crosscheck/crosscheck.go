// Package crosscheck assembles a fixed set of instructions both with the encoders of this
// module and with the Go toolchain's arm64 backend (github.com/twitchyliquid64/golang-asm),
// and reports any word the two disagree on.
package crosscheck

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Manu343726/a64asm/pkg/hw/aarch64/code"
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/encoding"
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/registers"
	"github.com/Manu343726/a64asm/pkg/utils"
	"github.com/samber/lo"
	goasm "github.com/twitchyliquid64/golang-asm"
	"github.com/twitchyliquid64/golang-asm/obj"
	"github.com/twitchyliquid64/golang-asm/obj/arm64"
)

var (
	ErrMismatch        = errors.New("encoding mismatch")
	ErrReferenceFailed = errors.New("reference assembler failed")
)

// Returns the golang-asm register number of a register
func goRegister(r registers.Register) int16 {
	switch {
	case r == registers.SP:
		return arm64.REGSP
	case r == registers.ZR:
		return arm64.REGZERO
	case r.IsSIMD():
		return arm64.REG_F0 + int16(r.Encoding())
	}

	return arm64.REG_R0 + int16(r.Encoding())
}

func regOperand(r registers.Register) obj.Addr {
	return obj.Addr{Type: obj.TYPE_REG, Reg: goRegister(r)}
}

func constOperand(value int64) obj.Addr {
	return obj.Addr{Type: obj.TYPE_CONST, Offset: value}
}

func memOperand(base registers.Register, offset int64) obj.Addr {
	return obj.Addr{Type: obj.TYPE_MEM, Reg: goRegister(base), Offset: offset}
}

// One instruction built by both assemblers
type Case struct {
	Name string
	// Word produced by this module's encoders
	Encode func() uint32
	// Fills a golang-asm prog with the same instruction
	Reference func(p *obj.Prog)
}

// Outcome of a case
type Result struct {
	Name     string
	Word     uint32
	Expected uint32
}

func (r Result) Match() bool {
	return r.Word == r.Expected
}

func (r Result) String() string {
	if r.Match() {
		return fmt.Sprintf("%-24v 0x%08x ok", r.Name, r.Word)
	}

	return fmt.Sprintf("%-24v 0x%08x expected 0x%08x", r.Name, r.Word, r.Expected)
}

// Cases run by default
var Cases = []Case{
	{
		Name:   "nop",
		Encode: encoding.Nop,
		Reference: func(p *obj.Prog) {
			p.As = arm64.ANOOP
		},
	},
	{
		Name:   "add x1, x2, x3",
		Encode: func() uint32 { return encoding.AddReg(registers.R1, registers.R2, registers.R3) },
		Reference: func(p *obj.Prog) {
			p.As = arm64.AADD
			p.From = regOperand(registers.R3)
			p.Reg = goRegister(registers.R2)
			p.To = regOperand(registers.R1)
		},
	},
	{
		Name:   "add x1, x2, #16",
		Encode: func() uint32 { return encoding.AddImm(registers.R1, registers.R2, 16) },
		Reference: func(p *obj.Prog) {
			p.As = arm64.AADD
			p.From = constOperand(16)
			p.Reg = goRegister(registers.R2)
			p.To = regOperand(registers.R1)
		},
	},
	{
		Name:   "sub sp, sp, #32",
		Encode: func() uint32 { return encoding.SubImm(registers.SP, registers.SP, 32) },
		Reference: func(p *obj.Prog) {
			p.As = arm64.ASUB
			p.From = constOperand(32)
			p.Reg = goRegister(registers.SP)
			p.To = regOperand(registers.SP)
		},
	},
	{
		Name:   "mov x1, x2",
		Encode: func() uint32 { return encoding.MovReg(registers.R1, registers.R2) },
		Reference: func(p *obj.Prog) {
			p.As = arm64.AMOVD
			p.From = regOperand(registers.R2)
			p.To = regOperand(registers.R1)
		},
	},
	{
		Name:   "ldr x1, [x2, #16]",
		Encode: func() uint32 { return encoding.LdrImm(registers.R1, code.QWord, registers.R2, 16) },
		Reference: func(p *obj.Prog) {
			p.As = arm64.AMOVD
			p.From = memOperand(registers.R2, 16)
			p.To = regOperand(registers.R1)
		},
	},
	{
		Name:   "str x1, [x2, #16]",
		Encode: func() uint32 { return encoding.StrImm(registers.R1, code.QWord, registers.R2, 16) },
		Reference: func(p *obj.Prog) {
			p.As = arm64.AMOVD
			p.From = regOperand(registers.R1)
			p.To = memOperand(registers.R2, 16)
		},
	},
	{
		Name:   "str d1, [x2, #16]",
		Encode: func() uint32 { return encoding.StrImm(registers.V1, code.Double, registers.R2, 16) },
		Reference: func(p *obj.Prog) {
			p.As = arm64.AFMOVD
			p.From = regOperand(registers.V1)
			p.To = memOperand(registers.R2, 16)
		},
	},
	{
		Name:   "fmov d2, x1",
		Encode: func() uint32 { return encoding.FmovToFP(code.Double, registers.V2, registers.R1) },
		Reference: func(p *obj.Prog) {
			p.As = arm64.AFMOVD
			p.From = regOperand(registers.R1)
			p.To = regOperand(registers.V2)
		},
	},
}

// Assembles a single prog with golang-asm and returns its first word
func reference(c Case) (uint32, error) {
	b, err := goasm.NewBuilder("arm64", 64)
	if err != nil {
		return 0, utils.MakeError(ErrReferenceFailed, "%v: %v", c.Name, err)
	}

	p := b.NewProg()
	c.Reference(p)
	b.AddInstruction(p)

	out := b.Assemble()
	if len(out) < 4 {
		return 0, utils.MakeError(ErrReferenceFailed, "%v: assembled %d bytes", c.Name, len(out))
	}

	return binary.LittleEndian.Uint32(out), nil
}

type Option func(*checker)

type checker struct {
	logger *slog.Logger
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *checker) {
		c.logger = logger
	}
}

// Runs a set of cases, Cases if none are given
func Run(cases []Case, options ...Option) ([]Result, error) {
	c := checker{logger: slog.New(slog.DiscardHandler)}
	for _, option := range options {
		option(&c)
	}

	if len(cases) == 0 {
		cases = Cases
	}

	results := make([]Result, 0, len(cases))

	for _, testCase := range cases {
		expected, err := reference(testCase)
		if err != nil {
			return results, err
		}

		result := Result{Name: testCase.Name, Word: testCase.Encode(), Expected: expected}
		c.logger.Log(context.Background(), slog.LevelDebug, "crosscheck",
			slog.String("case", result.Name),
			slog.String("word", utils.FormatUintHex(uint64(result.Word), 8)),
			slog.String("expected", utils.FormatUintHex(uint64(result.Expected), 8)))

		results = append(results, result)
	}

	return results, nil
}

// Returns an ErrMismatch error naming every mismatching result, nil if all of them match
func Verify(results []Result) error {
	mismatches := lo.Filter(results, func(r Result, _ int) bool { return !r.Match() })
	if len(mismatches) == 0 {
		return nil
	}

	return utils.MakeError(ErrMismatch, "%v", utils.FormatSlice(lo.Map(mismatches, func(r Result, _ int) string { return r.String() }), "; "))
}
