package code

import "fmt"

// Debug information attached to call and exception sites
type DebugInfo struct {
	Method string
	BCI    int
}

func (d *DebugInfo) String() string {
	if d == nil {
		return "<no debug info>"
	}

	return fmt.Sprintf("%v@%d", d.Method, d.BCI)
}

// Side table entry recorded while emitting code. Sites are the contract between the
// assembler and the linker: the linker only rewrites bytes a site points to
type Site interface {
	fmt.Stringer

	// Byte offset the site refers to. Code offset for every site but DataItemPatch,
	// which refers to the data section
	Position() int

	isSite()
}

// Well known code position (verified entry, deopt handler...)
type Mark struct {
	PCOffset int
	ID       int
}

func (s Mark) Position() int { return s.PCOffset }

func (s Mark) String() string {
	return fmt.Sprintf("mark %d @%d", s.ID, s.PCOffset)
}

func (Mark) isSite() {}

// Call site. Size is the length in bytes of the call sequence starting at PCOffset, so
// PCOffset+Size is the return address
type Call struct {
	PCOffset int
	Size     int
	Target   uint64
	Foreign  bool
	Debug    *DebugInfo
}

func (s Call) Position() int { return s.PCOffset }

func (s Call) String() string {
	kind := "call"

	if s.Foreign {
		kind = "foreign call"
	}

	return fmt.Sprintf("%v 0x%x @%d (%d bytes) %v", kind, s.Target, s.PCOffset, s.Size, s.Debug)
}

func (Call) isSite() {}

// Instruction expected to fault. The runtime maps the faulting pc back to this site
type ImplicitException struct {
	PCOffset int
	Debug    *DebugInfo
}

func (s ImplicitException) Position() int { return s.PCOffset }

func (s ImplicitException) String() string {
	return fmt.Sprintf("implicit exception @%d %v", s.PCOffset, s.Debug)
}

func (ImplicitException) isSite() {}

// How a data patch rewrites the instructions at its site
type PatchKind uint

const (
	// pc relative ldr literal, imm19 rewritten with the word offset to the target
	PatchKind_LiteralLoad PatchKind = iota
	// movz+movk pair holding a 32 bit address
	PatchKind_Pointer32
	// movz+movk+movk sequence holding a 48 bit address
	PatchKind_Pointer48
)

func (k PatchKind) String() string {
	switch k {
	case PatchKind_LiteralLoad:
		return "literal"
	case PatchKind_Pointer32:
		return "pointer32"
	case PatchKind_Pointer48:
		return "pointer48"
	}

	return fmt.Sprintf("<invalid patch kind %d>", uint(k))
}

// Returns the number of instructions rewritten by a patch of this kind
func (k PatchKind) Instructions() int {
	switch k {
	case PatchKind_LiteralLoad:
		return 1
	case PatchKind_Pointer32:
		return 2
	case PatchKind_Pointer48:
		return 3
	}

	panic(fmt.Sprintf("invalid patch kind %d", uint(k)))
}

// Patch request of the instructions at PCOffset
type DataPatch struct {
	PCOffset  int
	Kind      PatchKind
	Reference Reference
}

func (s DataPatch) Position() int { return s.PCOffset }

func (s DataPatch) String() string {
	return fmt.Sprintf("%v patch @%d -> %v", s.Kind, s.PCOffset, s.Reference)
}

func (DataPatch) isSite() {}

// Patch request of a data section item, which receives the address of the reference
type DataItemPatch struct {
	DataOffset int
	Reference  Reference
}

func (s DataItemPatch) Position() int { return s.DataOffset }

func (s DataItemPatch) String() string {
	return fmt.Sprintf("data item patch data+%d -> %v", s.DataOffset, s.Reference)
}

func (DataItemPatch) isSite() {}
