// Package utils provides utility functions for the a64asm project.
package utils

import (
	"regexp"
	"sort"
	"strings"

	"github.com/fatih/color"
)

// Assembly syntax highlighting colors
var (
	// Mnemonics
	asmMnemonicColor = color.New(color.FgMagenta, color.Bold)
	// General purpose registers
	asmRegisterColor = color.New(color.FgCyan)
	// SIMD and floating point registers
	asmFPRegisterColor = color.New(color.FgHiCyan)
	// Immediates
	asmNumberColor = color.New(color.FgYellow)
	// Comments and annotations
	asmCommentColor = color.New(color.FgHiBlack)
	// Labels and addresses
	asmAddressColor = color.New(color.FgBlue)
	// Shift and extend operators
	asmOperatorColor = color.New(color.FgRed)
)

// Patterns for syntax elements
var (
	// Matches "//" and ";" comments up to the end of the line
	asmCommentPattern = regexp.MustCompile(`(?://|;).*$`)
	// Matches a leading "0x...:" address column
	asmAddressPattern = regexp.MustCompile(`^\s*0x[0-9a-fA-F]+:`)
	// Matches the mnemonic, the first word after the address and encoding columns
	asmMnemonicPattern = regexp.MustCompile(`^(?:\s*0x[0-9a-fA-F]+:)?(?:\s+[0-9a-f]{8}\b)?\s*([a-z][a-z0-9.]*)`)
	// Matches immediates with and without the '#' prefix
	asmNumberPattern = regexp.MustCompile(`#?-?\b(?:0x[0-9a-fA-F]+|[0-9]+(?:\.[0-9]+)?(?:e[+-]?[0-9]+)?)\b`)
	// Matches general purpose registers
	asmRegisterPattern = regexp.MustCompile(`\b(?:[xw](?:[12]?[0-9]|30)|sp|wsp|xzr|wzr|fp|lr)\b`)
	// Matches SIMD and floating point registers
	asmFPRegisterPattern = regexp.MustCompile(`\b[vqdsbh](?:[12]?[0-9]|3[01])\b`)
	// Matches shift and extend operators
	asmOperatorPattern = regexp.MustCompile(`\b(?:lsl|lsr|asr|ror|uxt[bhwx]|sxt[bhwx])\b`)
)

// token represents a syntax-highlighted token
type token struct {
	text  string
	color *color.Color
	start int
	end   int
}

type highlightRule struct {
	pattern *regexp.Regexp
	color   *color.Color
	group   int
}

var asmRules = []highlightRule{
	// Comments first, nothing inside a comment is highlighted
	{asmCommentPattern, asmCommentColor, 0},
	{asmAddressPattern, asmAddressColor, 0},
	{asmMnemonicPattern, asmMnemonicColor, 1},
	{asmOperatorPattern, asmOperatorColor, 0},
	{asmRegisterPattern, asmRegisterColor, 0},
	{asmFPRegisterPattern, asmFPRegisterColor, 0},
	{asmNumberPattern, asmNumberColor, 0},
}

// HighlightAsm applies syntax highlighting to a line of AArch64 GNU assembly and returns
// the colored string. Colors are not emitted when color.NoColor is set
func HighlightAsm(line string) string {
	if line == "" {
		return ""
	}

	var tokens []token

	for _, rule := range asmRules {
		for _, match := range rule.pattern.FindAllStringSubmatchIndex(line, -1) {
			start, end := match[2*rule.group], match[2*rule.group+1]
			if start < 0 || overlapsAny(start, end, tokens) {
				continue
			}

			tokens = append(tokens, token{
				text:  line[start:end],
				color: rule.color,
				start: start,
				end:   end,
			})
		}
	}

	return buildHighlightedString(line, tokens)
}

// overlapsAny checks if a range overlaps with any existing token
func overlapsAny(start, end int, tokens []token) bool {
	for _, t := range tokens {
		if start < t.end && end > t.start {
			return true
		}
	}
	return false
}

// buildHighlightedString constructs the final string with color codes
func buildHighlightedString(line string, tokens []token) string {
	if len(tokens) == 0 {
		return line
	}

	sort.Slice(tokens, func(i, j int) bool { return tokens[i].start < tokens[j].start })

	var result strings.Builder
	pos := 0

	for _, t := range tokens {
		if t.start > pos {
			result.WriteString(line[pos:t.start])
		}
		result.WriteString(t.color.Sprint(t.text))
		pos = t.end
	}

	if pos < len(line) {
		result.WriteString(line[pos:])
	}

	return result.String()
}
