package encoding

import (
	"fmt"

	"github.com/Manu343726/a64asm/pkg/hw/aarch64/registers"
	"github.com/Manu343726/a64asm/pkg/utils"
)

// Width in bits of an instruction word
const WordBits = 32

// Returns value shifted into the inclusive bit range [msb:lsb] of an instruction word.
// Panics if the range is malformed or value does not fit in it
func Field(value uint32, msb, lsb int) uint32 {
	if msb < lsb || lsb < 0 || msb >= WordBits {
		panic(fmt.Sprintf("invalid bit range [%d:%d]", msb, lsb))
	}

	width := msb - lsb + 1

	if !utils.FitsUnsigned(value, width) {
		panic(fmt.Sprintf("value 0x%x does not fit in bit range [%d:%d]", value, msb, lsb))
	}

	var word uint32
	utils.CreateBitView(&word).Write(value, lsb, width)
	return word
}

// Returns the hardware encoding of a register shifted into a 5 bit field
func RegField(r registers.Register, msb, lsb int) uint32 {
	if msb-lsb+1 != registers.EncodingBits {
		panic(fmt.Sprintf("register field [%d:%d] must be %d bits wide", msb, lsb, registers.EncodingBits))
	}

	return Field(r.Encoding(), msb, lsb)
}

// Returns the contents of the bit range [msb:lsb] of an instruction word
func Extract(word uint32, msb, lsb int) uint32 {
	if msb < lsb || lsb < 0 || msb >= WordBits {
		panic(fmt.Sprintf("invalid bit range [%d:%d]", msb, lsb))
	}

	return utils.CreateBitView(&word).Read(lsb, msb-lsb+1)
}

// Returns the bit range [msb:lsb] of an instruction word interpreted as a two's complement number
func ExtractSigned(word uint32, msb, lsb int) int64 {
	return utils.SignExtend(uint64(Extract(word, msb, lsb)), msb-lsb+1)
}

// Returns word with the bit range [msb:lsb] replaced by value
func Replace(word uint32, value uint32, msb, lsb int) uint32 {
	Field(value, msb, lsb)
	utils.CreateBitView(&word).Write(value, lsb, msb-lsb+1)
	return word
}
