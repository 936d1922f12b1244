package asm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Manu343726/a64asm/pkg/hw/aarch64/code"
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/encoding"
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/registers"
	"github.com/Manu343726/a64asm/pkg/utils"
)

// Size of the frame header pushed by the prologue: the saved fp/lr pair at the bottom and
// 16 bytes of spill space above it
const frameHeaderSize = 32

// Bytes from the top of the frame down to the saved fp/lr pair
const frameSpillSize = 16

const stackAlignment = 16

// Emits AArch64 machine code for small synthetic functions.
//
// Instructions are appended to a code buffer and constants to a data section. Everything
// that needs addresses only known at link time is recorded as a site instead. An Assembler
// is not safe for concurrent use.
type Assembler struct {
	name   string
	config Config
	regs   RegisterConfig
	logger *slog.Logger

	code  Buffer
	data  Buffer
	sites []code.Site

	// Current frame size, in bytes from the stack pointer up to the caller's stack pointer
	frameSize int

	// Bytes of the frame in use by stack slots, counted down from the top of the frame
	curStackSlot int

	prologueDone bool
	deoptRescue  *code.StackSlot

	callDepth int

	nextRegister int
}

type Option func(*Assembler)

// Traces emitted words and recorded sites at debug level
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assembler) {
		a.logger = logger
	}
}

func New(name string, config Config, regs RegisterConfig, options ...Option) *Assembler {
	a := &Assembler{
		name:   name,
		config: config,
		regs:   regs,
		logger: slog.New(slog.DiscardHandler),
	}

	for _, option := range options {
		option(a)
	}

	a.logger = a.logger.With(slog.String("function", name))
	return a
}

func (a *Assembler) Name() string {
	return a.name
}

func (a *Assembler) Config() Config {
	return a.config
}

// Current position in the code buffer
func (a *Assembler) Position() int {
	return a.code.Position()
}

// Current frame size
func (a *Assembler) FrameSize() int {
	return a.frameSize
}

func (a *Assembler) emit(word uint32) {
	if a.logger.Enabled(context.Background(), slog.LevelDebug) {
		form := "?"

		if f, err := encoding.Lookup(word); err == nil {
			form = f.Name
		}

		a.logger.Debug("emit",
			slog.Int("offset", a.code.Position()),
			slog.String("word", utils.FormatUintHex(uint64(word), 8)),
			slog.String("form", form))
	}

	a.code.EmitInt(word)
}

func (a *Assembler) record(site code.Site) {
	a.logger.Debug("site", slog.String("site", site.String()))
	a.sites = append(a.sites, site)
}

func (a *Assembler) recordMark(id int) {
	a.record(code.Mark{PCOffset: a.code.Position(), ID: id})
}

func (a *Assembler) recordDataPatchInCode(kind code.PatchKind, ref code.Reference) {
	a.record(code.DataPatch{PCOffset: a.code.Position(), Kind: kind, Reference: ref})
}

func (a *Assembler) recordCall(target uint64, size int, foreign bool, debug *code.DebugInfo) {
	a.record(code.Call{PCOffset: a.code.Position(), Size: size, Target: target, Foreign: foreign, Debug: debug})
}

func (a *Assembler) recordImplicitException(debug *code.DebugInfo) {
	a.record(code.ImplicitException{PCOffset: a.code.Position(), Debug: debug})
}

// Returns a fresh register from the allocatable pool. Registers are never reused within a function
func (a *Assembler) NewRegister() registers.Register {
	pool := a.regs.AllocatableRegisters()

	if a.nextRegister >= len(pool) {
		utils.Panicf(ErrRegisterPoolExhausted, "all %d allocatable registers are in use", len(pool))
	}

	reg := pool[a.nextRegister]
	a.nextRegister++
	return reg
}

func (a *Assembler) scratch() registers.Register {
	return a.regs.ScratchRegister()
}

// Returns the frame and side tables emitted so far. The assembler can keep emitting afterwards
func (a *Assembler) Finish() *code.CompiledCode {
	if a.callDepth != 0 {
		utils.Panicf(ErrUnbalancedCall, "finishing %v with %d open call sequences", a.name, a.callDepth)
	}

	data := Buffer{data: a.data.Bytes()}
	data.Align(a.config.DataAlignment)

	cc := &code.CompiledCode{
		Name:           a.name,
		Code:           a.code.Bytes(),
		Data:           data.Bytes(),
		DataAlignment:  a.config.DataAlignment,
		Sites:          append([]code.Site(nil), a.sites...),
		TotalFrameSize: a.frameSize,
	}

	if a.deoptRescue != nil {
		slot := *a.deoptRescue
		cc.DeoptRescueSlot = &slot
	}

	a.logger.Debug("finish",
		slog.Int("code", len(cc.Code)),
		slog.Int("data", len(cc.Data)),
		slog.Int("sites", len(cc.Sites)),
		slog.Int("frame", cc.TotalFrameSize))

	return cc
}

func (a *Assembler) String() string {
	return fmt.Sprintf("%v (%d bytes of code, %d bytes of data, frame %d)", a.name, a.code.Position(), a.data.Position(), a.frameSize)
}
