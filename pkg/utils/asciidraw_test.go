package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsciiFrame_NoFields(t *testing.T) {
	actual, err := AsciiFrame([]AsciiFrameField{}, 16, "bits", AsciiFrameUnitLayout_RightToLeft, 0)
	assert.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(actual, "\n"), "\n")
	assert.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "15"))
	assert.True(t, strings.HasSuffix(lines[0], "0"))
	assert.Contains(t, lines[2], "(unused)")
	assert.Contains(t, lines[4], "16 bits")
}

func TestAsciiFrame_FillsGaps(t *testing.T) {
	fields := []AsciiFrameField{
		{Name: "rd", Begin: 0, Width: 5},
		{Name: "opcode", Begin: 10, Width: 22},
	}

	actual, err := AsciiFrame(fields, 32, "bits", AsciiFrameUnitLayout_RightToLeft, 2)
	assert.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(actual, "\n"), "\n")
	assert.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "  31"))

	// Right to left: the most significant field is drawn first
	body := lines[2]
	assert.Less(t, strings.Index(body, "opcode"), strings.Index(body, "(unused)"))
	assert.Less(t, strings.Index(body, "(unused)"), strings.Index(body, "rd"))
	assert.Contains(t, lines[4], "22 bits")
	assert.Contains(t, lines[4], "5 bits")
}

func TestAsciiFrame_LeftToRight(t *testing.T) {
	fields := []AsciiFrameField{
		{Name: "low", Begin: 0, Width: 8},
		{Name: "high", Begin: 8, Width: 8},
	}

	actual, err := AsciiFrame(fields, 16, "bytes", AsciiFrameUnitLayout_LeftToRight, 0)
	assert.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(actual, "\n"), "\n")
	assert.True(t, strings.HasPrefix(lines[0], "0"))
	assert.True(t, strings.HasSuffix(lines[0], "15"))
	assert.Less(t, strings.Index(lines[2], "low"), strings.Index(lines[2], "high"))
}

func TestAsciiFrame_OverlappingFields(t *testing.T) {
	fields := []AsciiFrameField{
		{Name: "a", Begin: 0, Width: 8},
		{Name: "b", Begin: 4, Width: 8},
	}

	_, err := AsciiFrame(fields, 16, "bits", AsciiFrameUnitLayout_RightToLeft, 0)
	assert.ErrorIs(t, err, ErrOverlappingFields)
}

func TestAsciiFrame_FieldOutOfFrame(t *testing.T) {
	fields := []AsciiFrameField{
		{Name: "a", Begin: 10, Width: 8},
	}

	_, err := AsciiFrame(fields, 16, "bits", AsciiFrameUnitLayout_RightToLeft, 0)
	assert.ErrorIs(t, err, ErrFieldOutOfFrame)
}
