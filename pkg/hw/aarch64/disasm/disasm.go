// Package disasm renders compiled code as an annotated listing. Instruction text comes from
// the golang.org/x/arch decoder in GNU syntax, independent of the assembler's own encoder,
// and every instruction is annotated with the form it matches and the sites recorded at its
// offset.
package disasm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Manu343726/a64asm/pkg/hw/aarch64/code"
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/encoding"
	"github.com/Manu343726/a64asm/pkg/utils"
	"github.com/fatih/color"
	"github.com/samber/lo"
	"golang.org/x/arch/arm64/arm64asm"
)

var ErrTruncatedCode = errors.New("code section is not a whole number of words")

var (
	offsetColor = color.New(color.FgHiBlack)
	wordColor   = color.New(color.FgWhite)
	formColor   = color.New(color.FgHiBlack)
	siteColor   = color.New(color.FgGreen)
	dataColor   = color.New(color.FgYellow)
	errorColor  = color.New(color.FgRed, color.Bold)
)

// One instruction of a listing
type Line struct {
	Offset  int
	Address uint64
	Word    uint32
	// GNU syntax text, "<unknown>" if the word does not decode
	Text string
	// Matching assembler form, nil for words the assembler never emits
	Form  *encoding.Form
	Sites []code.Site
}

// Decodes the code section of compiled code. Addresses are relative to base
func List(cc *code.CompiledCode, base uint64) ([]Line, error) {
	if len(cc.Code)%4 != 0 {
		return nil, utils.MakeError(ErrTruncatedCode, "code section of %v is %d bytes", cc.Name, len(cc.Code))
	}

	sites := lo.GroupBy(lo.Filter(cc.Sites, func(site code.Site, _ int) bool {
		_, isDataItem := site.(code.DataItemPatch)
		return !isDataItem
	}), func(site code.Site) int { return site.Position() })

	lines := make([]Line, 0, len(cc.Code)/4)

	for offset := 0; offset+4 <= len(cc.Code); offset += 4 {
		word := binary.LittleEndian.Uint32(cc.Code[offset:])
		line := Line{
			Offset:  offset,
			Address: base + uint64(offset),
			Word:    word,
			Text:    "<unknown>",
			Sites:   sites[offset],
		}

		if inst, err := arm64asm.Decode(cc.Code[offset : offset+4]); err == nil {
			line.Text = arm64asm.GNUSyntax(inst)
		}

		if form, err := encoding.Lookup(word); err == nil {
			line.Form = form
		}

		lines = append(lines, line)
	}

	return lines, nil
}

func (l Line) String() string {
	return l.format(false)
}

func (l Line) format(colorize bool) string {
	sprint := func(c *color.Color, s string) string {
		if colorize {
			return c.Sprint(s)
		}
		return s
	}

	text := l.Text
	if colorize {
		text = utils.HighlightAsm(text)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%v %v  %v", sprint(offsetColor, fmt.Sprintf("0x%08x:", l.Address)), sprint(wordColor, fmt.Sprintf("%08x", l.Word)), text)

	if padding := 28 - len(l.Text); padding > 0 {
		b.WriteString(strings.Repeat(" ", padding))
	}

	if l.Form != nil {
		b.WriteString(sprint(formColor, "// "+l.Form.Name))
	} else {
		b.WriteString(sprint(errorColor, "// not an assembler form"))
	}

	for _, site := range l.Sites {
		b.WriteString("\n")
		b.WriteString(sprint(siteColor, fmt.Sprintf("%v^ %v", strings.Repeat(" ", 22), site)))
	}

	return b.String()
}

// Writes a listing, one instruction per line
func Write(w io.Writer, lines []Line, colorize bool) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line.format(colorize)); err != nil {
			return err
		}
	}

	return nil
}

// Writes the data section of compiled code as words, followed by the data item patches
func WriteData(w io.Writer, cc *code.CompiledCode, base uint64, colorize bool) error {
	dump := utils.FormatWords(cc.Data, base)
	if colorize {
		dump = dataColor.Sprint(dump)
	}

	if _, err := io.WriteString(w, dump); err != nil {
		return err
	}

	for _, item := range code.SitesOf[code.DataItemPatch](cc) {
		text := fmt.Sprintf("0x%08x: %v", base+uint64(item.DataOffset), item)
		if colorize {
			text = siteColor.Sprint(text)
		}

		if _, err := fmt.Fprintln(w, text); err != nil {
			return err
		}
	}

	return nil
}

// Returns the field diagram of an instruction word
func Explain(word uint32) (string, error) {
	return encoding.PrettyPrint(word, 4)
}
