package utils

import (
	"regexp"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

var ansiEscape = regexp.MustCompile("\x1b\\[[0-9;]*m")

func withColors(t *testing.T, enabled bool) {
	previous := color.NoColor
	color.NoColor = !enabled
	t.Cleanup(func() { color.NoColor = previous })
}

func TestHighlightAsm(t *testing.T) {
	withColors(t, true)

	lines := []string{
		"add x1, x2, #0x10",
		"ldr d1, [sp,#8]",
		"movk x8, #0x1122, lsl #48",
		"0x00010000: d503201f  nop // mark",
		"blr x8",
	}

	for _, line := range lines {
		highlighted := HighlightAsm(line)
		assert.NotEqual(t, line, highlighted)
		assert.Equal(t, line, ansiEscape.ReplaceAllString(highlighted, ""))
	}

	assert.Contains(t, HighlightAsm("add x1, x2, x3"), asmMnemonicColor.Sprint("add"))
	assert.Contains(t, HighlightAsm("add x1, x2, x3"), asmRegisterColor.Sprint("x3"))
	assert.Contains(t, HighlightAsm("fmov d2, x1"), asmFPRegisterColor.Sprint("d2"))
	assert.Contains(t, HighlightAsm("nop // x1"), asmCommentColor.Sprint("// x1"))
}

func TestHighlightAsm_NoColor(t *testing.T) {
	withColors(t, false)

	assert.Equal(t, "add x1, x2, #0x10", HighlightAsm("add x1, x2, #0x10"))
	assert.Equal(t, "", HighlightAsm(""))
}
