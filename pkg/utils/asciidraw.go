package utils

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

type AsciiFrameField struct {
	// Name of the field
	Name string

	// Units within the frame the field begins from
	Begin int

	// Field width
	Width int
}

// The last unit within the frame used by this field
func (f *AsciiFrameField) TopUnit() int {
	return f.PastTopUnit() - 1
}

// The first unit within the frame used by the next field
func (f *AsciiFrameField) PastTopUnit() int {
	return f.Begin + f.Width
}

type AsciiFrameUnitLayout uint

const (
	// Units increase left to right
	AsciiFrameUnitLayout_LeftToRight AsciiFrameUnitLayout = iota
	// Units increase right to left, as in instruction encoding diagrams
	AsciiFrameUnitLayout_RightToLeft
)

var ErrOverlappingFields = errors.New("overlapping frame fields")
var ErrFieldOutOfFrame = errors.New("field does not fit in frame")

const unusedFieldName = "(unused)"

type asciiFrameCell struct {
	index  string
	name   string
	width  string
	length int
}

type asciiFrame struct {
	fields     []AsciiFrameField
	frameWidth int
	unit       string
	leftpad    int
	layout     AsciiFrameUnitLayout
}

// Writes text centered in a row of the given length, padded with filler
func centered(builder *strings.Builder, text string, filler string, length int) {
	free := length - len(text)
	left := free / 2

	builder.WriteString(strings.Repeat(filler, left))
	builder.WriteString(text)
	builder.WriteString(strings.Repeat(filler, free-left))
}

func (f *asciiFrame) cells() []asciiFrameCell {
	cells := make([]asciiFrameCell, len(f.fields))

	for i := range cells {
		field := &f.fields[i]
		index := field.Begin

		if f.layout == AsciiFrameUnitLayout_RightToLeft {
			field = &f.fields[len(f.fields)-i-1]
			index = field.TopUnit()
		}

		cell := &cells[i]
		cell.index = fmt.Sprint(index)
		cell.name = fmt.Sprintf(" %v ", field.Name)
		cell.width = fmt.Sprintf(" %v %v ", field.Width, f.unit)
		cell.length = Max([]int{len(cell.index), len(cell.name), len(cell.width) + 4})
	}

	return cells
}

func (f *asciiFrame) Draw() string {
	rows := make([]strings.Builder, 5)
	indices, header, body, footer, widths := &rows[0], &rows[1], &rows[2], &rows[3], &rows[4]

	for i := range rows {
		rows[i].WriteString(strings.Repeat(" ", f.leftpad))
	}

	for _, cell := range f.cells() {
		indices.WriteString(cell.index)
		indices.WriteString(strings.Repeat(" ", cell.length-len(cell.index)+1))
		header.WriteString("+" + strings.Repeat("-", cell.length))
		body.WriteString("|")
		centered(body, cell.name, " ", cell.length)
		footer.WriteString("+" + strings.Repeat("-", cell.length))
		widths.WriteString(" <-")
		centered(widths, cell.width, "-", cell.length-4)
		widths.WriteString("->")
	}

	if f.layout == AsciiFrameUnitLayout_LeftToRight {
		indices.WriteString(fmt.Sprint(f.frameWidth - 1))
	} else {
		indices.WriteString("0")
	}

	header.WriteString("+")
	body.WriteString("|")
	footer.WriteString("+")

	var result strings.Builder

	for i := range rows {
		result.WriteString(strings.TrimRight(rows[i].String(), " "))
		result.WriteString("\n")
	}

	return result.String()
}

// Returns the fields sorted by position with the gaps between them filled with unused fields
func fillAsciiFrameGaps(fields []AsciiFrameField, frameWidth int) ([]AsciiFrameField, error) {
	sorted := append([]AsciiFrameField(nil), fields...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Begin < sorted[j].Begin })

	result := make([]AsciiFrameField, 0, len(sorted)*2+1)
	currentUnit := 0

	for _, field := range sorted {
		if field.Begin < 0 || field.Width <= 0 || field.PastTopUnit() > frameWidth {
			return nil, MakeError(ErrFieldOutOfFrame, "field '%v' [%v, %v) in a frame of %v units", field.Name, field.Begin, field.PastTopUnit(), frameWidth)
		}

		if field.Begin < currentUnit {
			return nil, MakeError(ErrOverlappingFields, "field '%v' begins at %v but the previous field ends at %v", field.Name, field.Begin, currentUnit)
		}

		if field.Begin > currentUnit {
			result = append(result, AsciiFrameField{
				Name:  unusedFieldName,
				Begin: currentUnit,
				Width: field.Begin - currentUnit,
			})
		}

		result = append(result, field)
		currentUnit = field.PastTopUnit()
	}

	if currentUnit < frameWidth {
		result = append(result, AsciiFrameField{
			Name:  unusedFieldName,
			Begin: currentUnit,
			Width: frameWidth - currentUnit,
		})
	}

	return result, nil
}

// Prints an ascii diagram of a binary frame composed of contiguous fields of different unit lenghts
func AsciiFrame(fields []AsciiFrameField, frameWidth int, unit string, layout AsciiFrameUnitLayout, leftpad int) (string, error) {
	allFields, err := fillAsciiFrameGaps(fields, frameWidth)
	if err != nil {
		return "", err
	}

	if len(allFields) == 0 {
		return "", MakeError(ErrFieldOutOfFrame, "empty frame")
	}

	frame := asciiFrame{
		fields:     allFields,
		frameWidth: frameWidth,
		unit:       unit,
		leftpad:    leftpad,
		layout:     layout,
	}

	return frame.Draw(), nil
}
