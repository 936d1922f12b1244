package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatUint(t *testing.T) {
	assert.Equal(t, "00101", FormatUintBinary(5, 5))
	assert.Equal(t, "0x0000001f", FormatUintHex(0x1f, 8))
	assert.Equal(t, "1, 2, 3", FormatSlice([]int{1, 2, 3}, ", "))
}

func TestFormatWords(t *testing.T) {
	data := []byte{0x1f, 0x20, 0x03, 0xd5, 0xaa}

	assert.Equal(t, ""+
		"0x00001000: 0xd503201f\n"+
		"0x00001004: aa\n",
		FormatWords(data, 0x1000))
}

func TestMakeError(t *testing.T) {
	sentinel := errors.New("sentinel")
	err := MakeError(sentinel, "value %v out of range [%v, %v)", 7, 0, 4)

	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, "sentinel: value 7 out of range [0, 4)", err.Error())
}
