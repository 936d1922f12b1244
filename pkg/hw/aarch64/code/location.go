package code

import (
	"fmt"

	"github.com/Manu343726/a64asm/pkg/hw/aarch64/registers"
)

// Where a value lives: a register or a stack slot
type Location interface {
	fmt.Stringer

	// Platform kind of the value stored in the location
	PlatformKind() PlatformKind

	isLocation()
}

type RegisterLocation struct {
	Register registers.Register
	Kind     PlatformKind
}

func (l RegisterLocation) PlatformKind() PlatformKind {
	return l.Kind
}

func (l RegisterLocation) String() string {
	return fmt.Sprintf("%v:%v", l.Register, l.Kind)
}

func (RegisterLocation) isLocation() {}

// A stack slot of the current frame.
//
// Local slots (AddFrameSize set) are addressed relative to the top of the frame, so their
// offset stays valid while the frame grows. Outgoing argument slots are addressed relative
// to the stack pointer at the call.
type StackSlot struct {
	Kind         PlatformKind
	Offset       int
	AddFrameSize bool
}

// Returns the offset of the slot from the stack pointer, given the current frame size
func (s StackSlot) OffsetIn(frameSize int) int {
	if s.AddFrameSize {
		return s.Offset + frameSize
	}

	return s.Offset
}

func (s StackSlot) PlatformKind() PlatformKind {
	return s.Kind
}

func (s StackSlot) String() string {
	if s.AddFrameSize {
		return fmt.Sprintf("stack:%v[frame%+d]", s.Kind, s.Offset)
	}

	return fmt.Sprintf("stack:%v[sp+%d]", s.Kind, s.Offset)
}

func (StackSlot) isLocation() {}

// Locations of the arguments and the result of a call, together with the stack space the
// call needs for outgoing arguments
type CallingConvention struct {
	StackSize int
	Arguments []Location
	Return    Location
}
