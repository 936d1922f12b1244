package sim

import (
	"encoding/binary"
	"fmt"

	"github.com/Manu343726/a64asm/pkg/hw/aarch64/registers"
)

// Memory access outside of the simulated memory or through a misaligned stack pointer
type Fault struct {
	PC      uint64
	Address uint64
	Size    int
	Write   bool
	Reason  string
}

func (f *Fault) Error() string {
	access := "read"
	if f.Write {
		access = "write"
	}

	return fmt.Sprintf("fault at pc 0x%x: %d byte %v at 0x%x: %v", f.PC, f.Size, access, f.Address, f.Reason)
}

// CPUState represents the architectural state visible to the emitted code
type CPUState struct {
	// General purpose registers x0-x30
	X [31]uint64
	// Stack pointer
	SP uint64
	// Low 64 bits of the SIMD&FP registers
	V [32]uint64
	// Program counter
	PC uint64

	// Flat little endian memory covering [MemoryBase, MemoryBase+len(Memory))
	Memory     []byte
	MemoryBase uint64

	Halted bool
}

// Creates a CPU state with size bytes of memory starting at base. The stack pointer starts at the top of memory
func NewCPUState(base uint64, size int) *CPUState {
	state := &CPUState{
		Memory:     make([]byte, size),
		MemoryBase: base,
	}

	state.SP = (base + uint64(size)) &^ 15
	return state
}

func (s *CPUState) translate(addr uint64, size int, write bool) (uint64, error) {
	if addr < s.MemoryBase || addr-s.MemoryBase+uint64(size) > uint64(len(s.Memory)) {
		return 0, &Fault{PC: s.PC, Address: addr, Size: size, Write: write, Reason: "out of bounds"}
	}

	return addr - s.MemoryBase, nil
}

func (s *CPUState) ReadMemory32(addr uint64) (uint32, error) {
	offset, err := s.translate(addr, 4, false)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(s.Memory[offset:]), nil
}

func (s *CPUState) ReadMemory64(addr uint64) (uint64, error) {
	offset, err := s.translate(addr, 8, false)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint64(s.Memory[offset:]), nil
}

func (s *CPUState) WriteMemory32(addr uint64, value uint32) error {
	offset, err := s.translate(addr, 4, true)
	if err != nil {
		return err
	}

	binary.LittleEndian.PutUint32(s.Memory[offset:], value)
	return nil
}

func (s *CPUState) WriteMemory64(addr uint64, value uint64) error {
	offset, err := s.translate(addr, 8, true)
	if err != nil {
		return err
	}

	binary.LittleEndian.PutUint64(s.Memory[offset:], value)
	return nil
}

// Copies a block of bytes into memory
func (s *CPUState) WriteMemory(addr uint64, data []byte) error {
	offset, err := s.translate(addr, len(data), true)
	if err != nil {
		return err
	}

	copy(s.Memory[offset:], data)
	return nil
}

// Returns the value of a register. ZR reads as zero and SIMD registers return their low 64 bits
func (s *CPUState) Register(r registers.Register) uint64 {
	switch {
	case r == registers.SP:
		return s.SP
	case r == registers.ZR:
		return 0
	case r.IsSIMD():
		return s.V[r.Encoding()]
	}

	return s.X[r.Encoding()]
}

// Sets the value of a register. Writes to ZR are discarded
func (s *CPUState) SetRegister(r registers.Register, value uint64) {
	switch {
	case r == registers.SP:
		s.SP = value
	case r == registers.ZR:
	case r.IsSIMD():
		s.V[r.Encoding()] = value
	default:
		s.X[r.Encoding()] = value
	}
}

// Register 31 is either sp or xzr depending on the operand
func (s *CPUState) readX(n uint32, sp bool) uint64 {
	if n == 31 {
		if sp {
			return s.SP
		}

		return 0
	}

	return s.X[n]
}

func (s *CPUState) writeX(n uint32, sp bool, value uint64) {
	if n == 31 {
		if sp {
			s.SP = value
		}

		return
	}

	s.X[n] = value
}
