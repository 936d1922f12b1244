package asm

import (
	"log/slog"

	"github.com/Manu343726/a64asm/pkg/hw/aarch64/code"
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/encoding"
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/registers"
	"github.com/Manu343726/a64asm/pkg/utils"
)

// Size in bytes of a call sequence emitted by EmitCall
const CallSequenceSize = 4 * 4

// Moves the stack pointer down by size bytes (up if negative). size must be a multiple of
// 16. Shrinking is limited to 4095 bytes and growing to 65534 bytes
func (a *Assembler) EmitGrowStack(size int) error {
	if err := validateStackDelta(size); err != nil {
		return err
	}

	a.emitGrowStack(size)
	return nil
}

func validateStackDelta(size int) error {
	if size%stackAlignment != 0 {
		return utils.MakeError(ErrIllegalArgument, "stack delta %d is not a multiple of %d", size, stackAlignment)
	}

	if size <= -4096 || size >= 65535 {
		return utils.MakeError(ErrIllegalArgument, "stack delta %d out of range", size)
	}

	return nil
}

func (a *Assembler) emitGrowStack(size int) {
	switch {
	case size > -4096 && size < 0:
		a.emit(encoding.AddImm(registers.SP, registers.SP, uint32(-size)))
	case size == 0:
	case size < 4096:
		a.emit(encoding.SubImm(registers.SP, registers.SP, uint32(size)))
	case size < 65535:
		a.emit(encoding.Movz(a.scratch(), uint32(size)&0xffff, 0))
		a.emit(encoding.Movk(a.scratch(), uint32(size>>16)&0xffff, 16))
		a.emit(encoding.SubReg(registers.SP, registers.SP, a.scratch()))
	}
}

// Allocates a stack slot of the current frame, growing the frame if needed
func (a *Assembler) newStackSlot(kind code.PlatformKind) code.StackSlot {
	if !a.prologueDone {
		utils.Panicf(ErrInvalidFrameState, "allocating a %v stack slot before the prologue", kind)
	}

	if a.callDepth > 0 {
		utils.Panicf(ErrInvalidFrameState, "allocating a %v stack slot inside a call sequence", kind)
	}

	size := kind.Size()
	cur := utils.AlignUp(a.curStackSlot+size, size)

	// Skip the saved fp/lr pair
	if cur > frameSpillSize && cur-size < frameHeaderSize {
		cur = frameHeaderSize + size
	}

	a.curStackSlot = cur

	if cur > a.frameSize {
		newFrameSize := utils.AlignUp(cur, stackAlignment)
		a.emitGrowStack(newFrameSize - a.frameSize)
		a.frameSize = newFrameSize
	}

	slot := code.StackSlot{Kind: kind, Offset: -cur, AddFrameSize: true}
	a.logger.Debug("stack slot", slog.String("slot", slot.String()), slog.Int("frame", a.frameSize))
	return slot
}

// Emits the function prologue: a patchable nop at the verified entry point, the fp/lr
// frame record and the deoptimization rescue slot
func (a *Assembler) EmitPrologue() {
	if a.prologueDone {
		utils.Panicf(ErrInvalidFrameState, "prologue of %v emitted twice", a.name)
	}

	a.recordMark(a.config.VerifiedEntryMark)
	a.emit(encoding.Nop())
	a.emit(encoding.StpFrame())
	a.emit(encoding.MovFPFromSP())

	a.prologueDone = true
	a.frameSize = frameHeaderSize

	slot := a.newStackSlot(code.QWord)
	a.deoptRescue = &slot
}

// Emits the deoptimization handler entry: a call to the deopt stub
func (a *Assembler) EmitEpilogue() {
	a.recordMark(a.config.DeoptHandlerEntryMark)
	a.recordCall(a.config.HandleDeoptStub, CallSequenceSize, true, nil)
	a.EmitCall(Pointer48Placeholder)
}

// Calls the given address through the scratch register
func (a *Assembler) EmitCall(addr uint64) {
	a.emitLoadPointer48(a.scratch(), addr)
	a.emit(encoding.Blr(a.scratch()))
}

// Calls a foreign function at addr, recording the call site
func (a *Assembler) EmitForeignCall(addr uint64, debug *code.DebugInfo) {
	a.recordCall(addr, CallSequenceSize, true, debug)
	a.EmitCall(addr)
}

func (a *Assembler) validateArguments(cc *code.CallingConvention, args []code.Value) error {
	if len(args) != len(cc.Arguments) {
		return utils.MakeError(ErrIllegalArgument, "calling convention expects %d arguments, got %d", len(cc.Arguments), len(args))
	}

	for i, arg := range args {
		if err := validateLoad(cc.Arguments[i], arg); err != nil {
			return utils.MakeError(err, "argument %d", i)
		}
	}

	return nil
}

func validateLoad(loc code.Location, value code.Value) error {
	kind, err := value.PlatformKind()
	if err != nil {
		return utils.MakeError(ErrUnsupported, "%v", err)
	}

	switch loc := loc.(type) {
	case code.RegisterLocation:
		if loc.Kind != kind || kind.IsFloat() != loc.Register.IsSIMD() {
			return utils.MakeError(ErrUnsupported, "cannot load %v into %v", value, loc)
		}
	case code.StackSlot:
		if loc.Kind != kind {
			return utils.MakeError(ErrUnsupported, "cannot store %v into %v", value, loc)
		}

		if loc.Offset < 0 && !loc.AddFrameSize {
			return utils.MakeError(ErrIllegalArgument, "negative stack offset in %v", loc)
		}
	default:
		return utils.MakeError(ErrUnsupported, "location %v", loc)
	}

	return nil
}

// Reserves the outgoing argument area of a call and loads the arguments into their locations
func (a *Assembler) EmitCallPrologue(cc *code.CallingConvention, args ...code.Value) error {
	if a.callDepth != 0 {
		return utils.MakeError(ErrUnbalancedCall, "call prologue inside an open call sequence")
	}

	if cc.StackSize < 0 {
		return utils.MakeError(ErrIllegalArgument, "negative call stack size %d", cc.StackSize)
	}

	// the epilogue releases the area with a single add
	if err := validateStackDelta(-cc.StackSize); err != nil {
		return utils.MakeError(err, "outgoing area of %d bytes cannot be released", cc.StackSize)
	}

	if err := a.validateArguments(cc, args); err != nil {
		return err
	}

	a.emitGrowStack(cc.StackSize)
	a.frameSize += cc.StackSize
	a.callDepth++

	for i, arg := range args {
		if err := a.EmitLoad(cc.Arguments[i], arg); err != nil {
			return err
		}
	}

	return nil
}

// Releases the outgoing argument area reserved by the matching call prologue
func (a *Assembler) EmitCallEpilogue(cc *code.CallingConvention) error {
	if a.callDepth != 1 {
		return utils.MakeError(ErrUnbalancedCall, "call epilogue without a call prologue")
	}

	if err := validateStackDelta(-cc.StackSize); err != nil {
		return err
	}

	a.emitGrowStack(-cc.StackSize)
	a.frameSize -= cc.StackSize
	a.callDepth--
	return nil
}

// Loads a value into a register or stores it into a stack slot
func (a *Assembler) EmitLoad(loc code.Location, value code.Value) error {
	if err := validateLoad(loc, value); err != nil {
		return err
	}

	switch loc := loc.(type) {
	case code.RegisterLocation:
		a.emitLoadValue(loc.Register, value)
	case code.StackSlot:
		reg := a.scratch()

		if value.Kind == code.Float32 || value.Kind == code.Float64 {
			reg = a.regs.FloatScratchRegister()
		}

		a.emitLoadValue(reg, value)
		a.emitToStack(loc, reg)
	}

	return nil
}

func (a *Assembler) emitLoadValue(reg registers.Register, value code.Value) {
	switch value.Kind {
	case code.Int32:
		a.emitLoadInt(reg, value.Int32())
	case code.Int64, code.Pointer:
		a.emitLoadLong(reg, value.Int64())
	case code.Float32:
		a.emitLoadFloat(reg, value.Float32())
	case code.Float64:
		a.emitLoadDouble(reg, value.Float64())
	default:
		panic("unreachable")
	}
}

func (a *Assembler) emitToStack(slot code.StackSlot, reg registers.Register) {
	a.emit(encoding.StrImm(reg, slot.Kind, registers.SP, slot.OffsetIn(a.frameSize)))
}

func (a *Assembler) toStack(kind code.PlatformKind, reg registers.Register) code.StackSlot {
	slot := a.newStackSlot(kind)
	a.emitToStack(slot, reg)
	return slot
}

// Stores a 32 bit integer register into a new stack slot
func (a *Assembler) EmitIntToStack(reg registers.Register) code.StackSlot {
	return a.toStack(code.DWord, reg)
}

// Stores a 64 bit integer register into a new stack slot
func (a *Assembler) EmitLongToStack(reg registers.Register) code.StackSlot {
	return a.toStack(code.QWord, reg)
}

func (a *Assembler) EmitFloatToStack(reg registers.Register) code.StackSlot {
	return a.toStack(code.Single, reg)
}

func (a *Assembler) EmitDoubleToStack(reg registers.Register) code.StackSlot {
	return a.toStack(code.Double, reg)
}

func (a *Assembler) EmitPointerToStack(reg registers.Register) code.StackSlot {
	return a.toStack(code.QWord, reg)
}

func (a *Assembler) EmitNarrowPointerToStack(reg registers.Register) code.StackSlot {
	return a.toStack(code.DWord, reg)
}

// First integer argument register of Java calls
func (a *Assembler) EmitIntArg0() registers.Register {
	return a.regs.JavaArgumentRegisters()[0]
}

// Second integer argument register of Java calls
func (a *Assembler) EmitIntArg1() registers.Register {
	return a.regs.JavaArgumentRegisters()[1]
}

func (a *Assembler) emitReturn() {
	if a.callDepth != 0 {
		utils.Panicf(ErrUnbalancedCall, "return inside an open call sequence")
	}

	a.emit(encoding.MovSPFromFP())
	a.emit(encoding.LdpFrame())
	a.emit(encoding.Ret())
}

// Returns the integer in reg
func (a *Assembler) EmitIntRet(reg registers.Register) {
	a.emit(encoding.MovReg(a.regs.ReturnRegister(code.QWord), reg))
	a.emitReturn()
}

// Returns the pointer in reg
func (a *Assembler) EmitPointerRet(reg registers.Register) {
	a.EmitIntRet(reg)
}

// Returns the float or double in reg, which must already be the float return register
func (a *Assembler) EmitFloatRet(reg registers.Register) error {
	if reg != a.regs.ReturnRegister(code.Double) {
		return utils.MakeError(ErrUnsupported, "float results must be in %v, got %v", a.regs.ReturnRegister(code.Double), reg)
	}

	a.emitReturn()
	return nil
}

// Emits a load guaranteed to fault and records it as an implicit exception site
func (a *Assembler) EmitTrap(debug *code.DebugInfo) {
	a.emit(encoding.Movz(a.scratch(), 0, 0))
	a.recordImplicitException(debug)
	a.emit(encoding.LdrImm(registers.ZR, code.QWord, a.scratch(), 0))
}
