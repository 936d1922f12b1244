package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// Formats an uint value into a fixed width binary string of n bits
func FormatUintBinary(value uint64, bits int) string {
	leadingZerosFormat := "%0" + fmt.Sprint(bits) + "s"
	return fmt.Sprintf(leadingZerosFormat, strconv.FormatUint(value, 2))
}

// Formats an uint value into an fixed width hex string of n characters
func FormatUintHex(value uint64, digits int) string {
	leadingZerosFormat := "0x%0" + fmt.Sprint(digits) + "s"
	return fmt.Sprintf(leadingZerosFormat, strconv.FormatUint(value, 16))
}

// Returns an string containing all formatted sequence items separated by a given separator
func FormatSlice[T any](input []T, separator string) string {
	var builder strings.Builder

	for i, value := range input {
		builder.WriteString(fmt.Sprint(value))

		if i < len(input)-1 {
			builder.WriteString(separator)
		}
	}

	return builder.String()
}

// Formats a byte buffer as rows of little endian 32 bit words, prefixed with their offset
func FormatWords(data []byte, base uint64) string {
	var builder strings.Builder

	for offset := 0; offset+4 <= len(data); offset += 4 {
		word := uint32(data[offset]) | uint32(data[offset+1])<<8 | uint32(data[offset+2])<<16 | uint32(data[offset+3])<<24
		builder.WriteString(fmt.Sprintf("%v: %v\n", FormatUintHex(base+uint64(offset), 8), FormatUintHex(uint64(word), 8)))
	}

	if rest := len(data) % 4; rest != 0 {
		builder.WriteString(fmt.Sprintf("%v: % x\n", FormatUintHex(base+uint64(len(data)-rest), 8), data[len(data)-rest:]))
	}

	return builder.String()
}
