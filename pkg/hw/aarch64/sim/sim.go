// Package sim executes the AArch64 subset emitted by the assembler, so that generated
// functions can be run and checked without real hardware.
package sim

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Manu343726/a64asm/pkg/hw/aarch64/code"
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/encoding"
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/link"
	"github.com/Manu343726/a64asm/pkg/utils"
)

// Return address installed by Call. Returning to it halts the CPU
const HaltAddress uint64 = 0x0000fffffffff000

var (
	ErrHalted              = errors.New("cpu is halted")
	ErrStepLimit           = errors.New("step limit reached")
	ErrUnknownInstruction  = errors.New("unknown instruction")
	ErrUnalignedStack      = errors.New("unaligned stack pointer")
	ErrUnsupportedOperands = errors.New("unsupported operands")
)

// Host implementation of a function called with blr. It runs instead of the code at its address
type HostFunction func(state *CPUState) error

type Options struct {
	MemoryBase uint64 `mapstructure:"memory_base" yaml:"memory_base"`
	MemorySize int    `mapstructure:"memory_size" yaml:"memory_size"`
	MaxSteps   int    `mapstructure:"max_steps" yaml:"max_steps"`
}

func DefaultOptions() Options {
	return Options{
		MemoryBase: 0x10000,
		MemorySize: 1 << 20,
		MaxSteps:   100000,
	}
}

// Interpreter executes AArch64 machine code
type Interpreter struct {
	state  *CPUState
	hooks  map[uint64]HostFunction
	opts   Options
	logger *slog.Logger
}

type Option func(*Interpreter)

func WithLogger(logger *slog.Logger) Option {
	return func(i *Interpreter) {
		i.logger = logger
	}
}

func NewInterpreter(opts Options, options ...Option) *Interpreter {
	i := &Interpreter{
		state:  NewCPUState(opts.MemoryBase, opts.MemorySize),
		hooks:  make(map[uint64]HostFunction),
		opts:   opts,
		logger: slog.New(slog.DiscardHandler),
	}

	for _, option := range options {
		option(i)
	}

	return i
}

// State returns the current CPU state
func (i *Interpreter) State() *CPUState {
	return i.state
}

// Resets the CPU state, keeping hooks
func (i *Interpreter) Reset() {
	i.state = NewCPUState(i.opts.MemoryBase, i.opts.MemorySize)
}

// Registers a host function for calls to addr
func (i *Interpreter) Hook(addr uint64, fn HostFunction) {
	i.hooks[addr] = fn
}

// Copies a linked image into memory
func (i *Interpreter) Load(img *link.Image) error {
	if err := i.state.WriteMemory(img.BaseAddress, img.Bytes()); err != nil {
		return utils.MakeError(err, "loading %v", img.Name)
	}

	return nil
}

// Result of executing one instruction
type StepResult struct {
	PC          uint64
	Instruction encoding.Instruction
}

// Step executes a single instruction
func (i *Interpreter) Step() (*StepResult, error) {
	s := i.state

	if s.Halted {
		return nil, ErrHalted
	}

	word, err := s.ReadMemory32(s.PC)
	if err != nil {
		return nil, err
	}

	instruction, err := encoding.Decode(word)
	if err != nil {
		return nil, utils.MakeError(ErrUnknownInstruction, "0x%08x at 0x%x", word, s.PC)
	}

	pc := s.PC

	if i.logger.Enabled(context.Background(), slog.LevelDebug) {
		i.logger.Debug("step",
			slog.String("pc", utils.FormatUintHex(pc, 16)),
			slog.String("instruction", instruction.String()))
	}

	next, err := i.execute(instruction)
	if err != nil {
		return nil, err
	}

	s.PC = next

	if s.PC == HaltAddress {
		s.Halted = true
	}

	return &StepResult{PC: pc, Instruction: instruction}, nil
}

// Run executes instructions until halted, an error occurs or the step limit is reached
func (i *Interpreter) Run() error {
	return i.RunN(i.opts.MaxSteps)
}

// RunN executes at most n instructions, failing with ErrStepLimit if the CPU did not halt
func (i *Interpreter) RunN(n int) error {
	for count := 0; count < n; count++ {
		if i.state.Halted {
			return nil
		}

		if _, err := i.Step(); err != nil {
			return err
		}
	}

	if i.state.Halted {
		return nil
	}

	return utils.MakeError(ErrStepLimit, "%d steps", n)
}

// Calls the function at entry and runs it until it returns
func (i *Interpreter) Call(entry uint64) error {
	i.state.X[30] = HaltAddress
	i.state.PC = entry
	i.state.Halted = false

	return i.Run()
}

func (i *Interpreter) baseAddress(n uint32) (uint64, error) {
	base := i.state.readX(n, true)

	if n == 31 && base%16 != 0 {
		return 0, utils.MakeError(ErrUnalignedStack, "sp = 0x%x at pc 0x%x", base, i.state.PC)
	}

	return base, nil
}

func (i *Interpreter) load(addr uint64, kind code.PlatformKind) (uint64, error) {
	if kind.Size() == 4 {
		value, err := i.state.ReadMemory32(addr)
		return uint64(value), err
	}

	return i.state.ReadMemory64(addr)
}

func (i *Interpreter) store(addr uint64, kind code.PlatformKind, value uint64) error {
	if kind.Size() == 4 {
		return i.state.WriteMemory32(addr, uint32(value))
	}

	return i.state.WriteMemory64(addr, value)
}

func ubfm(value uint64, immr, imms uint32) uint64 {
	if imms >= immr {
		return (value >> immr) & utils.AllOnes[uint64](int(imms-immr+1))
	}

	return (value & utils.AllOnes[uint64](int(imms+1))) << (64 - immr)
}

// Executes an instruction and returns the address of the next one
func (i *Interpreter) execute(in encoding.Instruction) (uint64, error) {
	s := i.state
	form := in.Form
	next := s.PC + 4

	switch form.Op {
	case encoding.Op_Nop:

	case encoding.Op_AddReg:
		s.writeX(in.Operand("Rd"), false, s.readX(in.Operand("Rn"), false)+(s.readX(in.Operand("Rm"), false)<<in.Operand("imm6")))

	case encoding.Op_AddImm:
		s.writeX(in.Operand("Rd"), true, s.readX(in.Operand("Rn"), true)+uint64(in.Operand("imm12")))

	case encoding.Op_SubImm:
		s.writeX(in.Operand("Rd"), true, s.readX(in.Operand("Rn"), true)-uint64(in.Operand("imm12")))

	case encoding.Op_SubReg:
		s.writeX(in.Operand("Rd"), true, s.readX(in.Operand("Rn"), true)-s.readX(in.Operand("Rm"), false))

	case encoding.Op_Mov:
		s.writeX(in.Operand("Rd"), false, s.readX(in.Operand("Rm"), false))

	case encoding.Op_Movz:
		s.writeX(in.Operand("Rd"), false, uint64(in.Operand("imm16"))<<(16*in.Operand("hw")))

	case encoding.Op_Movk:
		shift := 16 * in.Operand("hw")
		rd := in.Operand("Rd")
		s.writeX(rd, false, s.readX(rd, false)&^(uint64(0xffff)<<shift)|uint64(in.Operand("imm16"))<<shift)

	case encoding.Op_Ubfm:
		s.writeX(in.Operand("Rd"), false, ubfm(s.readX(in.Operand("Rn"), false), in.Operand("immr"), in.Operand("imms")))

	case encoding.Op_LdrLiteral:
		value, err := i.load(s.PC+uint64(in.Value("imm19")*4), form.Kind)
		if err != nil {
			return 0, err
		}

		s.writeX(in.Operand("Rt"), false, value)

	case encoding.Op_LdrImm, encoding.Op_StrImm:
		base, err := i.baseAddress(in.Operand("Rn"))
		if err != nil {
			return 0, err
		}

		addr := base + uint64(in.Operand("imm12"))<<form.Kind.Log2Size()
		rt := in.Operand("Rt")

		if form.Op == encoding.Op_StrImm {
			value := s.readX(rt, false)
			if form.Kind.IsFloat() {
				value = s.V[rt]
			}

			return next, i.store(addr, form.Kind, value)
		}

		value, err := i.load(addr, form.Kind)
		if err != nil {
			return 0, err
		}

		if form.Kind.IsFloat() {
			s.V[rt] = value
		} else {
			s.writeX(rt, false, value)
		}

	case encoding.Op_Blr:
		target := s.readX(in.Operand("Rn"), false)
		s.X[30] = s.PC + 4

		if hook, ok := i.hooks[target]; ok {
			i.logger.Debug("host call", slog.String("target", utils.FormatUintHex(target, 16)))

			if err := hook(s); err != nil {
				return 0, utils.MakeError(err, "host function at 0x%x", target)
			}

			next = s.X[30]
		} else {
			next = target
		}

	case encoding.Op_Ret:
		next = s.readX(in.Operand("Rn"), false)

	case encoding.Op_FmovToFP:
		value := s.readX(in.Operand("Rn"), false)
		if form.Kind == code.Single {
			value &= 0xffffffff
		}

		s.V[in.Operand("Rd")] = value

	case encoding.Op_FmovFromFP:
		value := s.V[in.Operand("Rn")]
		if form.Kind == code.Single {
			value &= 0xffffffff
		}

		s.writeX(in.Operand("Rd"), false, value)

	case encoding.Op_StpPreIndex:
		base, err := i.baseAddress(in.Operand("Rn"))
		if err != nil {
			return 0, err
		}

		addr := base + uint64(in.Value("imm7")*8)

		if err := s.WriteMemory64(addr, s.readX(in.Operand("Rt"), false)); err != nil {
			return 0, err
		}

		if err := s.WriteMemory64(addr+8, s.readX(in.Operand("Rt2"), false)); err != nil {
			return 0, err
		}

		s.writeX(in.Operand("Rn"), true, addr)

	case encoding.Op_LdpPostIndex:
		base, err := i.baseAddress(in.Operand("Rn"))
		if err != nil {
			return 0, err
		}

		first, err := s.ReadMemory64(base)
		if err != nil {
			return 0, err
		}

		second, err := s.ReadMemory64(base + 8)
		if err != nil {
			return 0, err
		}

		s.writeX(in.Operand("Rt"), false, first)
		s.writeX(in.Operand("Rt2"), false, second)
		s.writeX(in.Operand("Rn"), true, base+uint64(in.Value("imm7")*8))

	default:
		return 0, utils.MakeError(ErrUnsupportedOperands, "%v", form)
	}

	return next, nil
}
