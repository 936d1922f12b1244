package asm

import (
	"encoding/binary"
	"math"

	"github.com/Manu343726/a64asm/pkg/utils"
)

// Append only little endian byte buffer
type Buffer struct {
	data []byte
}

// Returns the offset the next byte will be written to
func (b *Buffer) Position() int {
	return len(b.data)
}

func (b *Buffer) EmitInt(value uint32) {
	b.data = binary.LittleEndian.AppendUint32(b.data, value)
}

func (b *Buffer) EmitLong(value uint64) {
	b.data = binary.LittleEndian.AppendUint64(b.data, value)
}

func (b *Buffer) EmitFloat(value float32) {
	b.EmitInt(math.Float32bits(value))
}

func (b *Buffer) EmitDouble(value float64) {
	b.EmitLong(math.Float64bits(value))
}

// Pads the buffer with zeros up to the next multiple of alignment
func (b *Buffer) Align(alignment int) {
	if alignment <= 1 {
		return
	}

	for len(b.data) < utils.AlignUp(len(b.data), alignment) {
		b.data = append(b.data, 0)
	}
}

// Returns the 32 bit word at the given offset
func (b *Buffer) Word(offset int) uint32 {
	return binary.LittleEndian.Uint32(b.data[offset:])
}

// Returns a copy of the buffer contents
func (b *Buffer) Bytes() []byte {
	return append([]byte{}, b.data...)
}
