package texfmt

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// RowStructure assembles a row's formatted columns into one line, without a
// line terminator. Implementations hold no per-row state.
type RowStructure interface {
	Structure() Structure
	Line(row *RowDataSet) (string, error)
}

// Positional places every column at its fixed offset in a line of exactly
// the layout width. Widths are counted in runes.
type Positional struct{}

func (Positional) Structure() Structure { return StructurePositional }

func (Positional) String() string { return "positional" }

func (Positional) Line(row *RowDataSet) (string, error) {
	layout := row.Layout()
	buf := make([]rune, layout.Width())
	for i := range buf {
		buf[i] = ' '
	}
	for i, c := range row.Columns() {
		def := c.Definition()
		text := c.Text()
		if n := utf8.RuneCountInString(text); n > def.Width {
			return "", layoutErr(layout.Label(), i+1, ErrOverflow,
				"value '%s' is bigger than column width (%d)", text, def.Width)
		}
		copy(buf[def.Position:def.Position+def.Width], []rune(alignCell(text, def.Width, def.Align, def.Fill)))
	}
	return string(buf), nil
}

// Separated joins the formatted columns with a literal separator. Column
// widths are not enforced.
type Separated struct {
	Sep string
}

func (Separated) Structure() Structure { return StructureSeparator }

func (s Separated) String() string { return fmt.Sprintf("separator(%q)", s.Sep) }

func (s Separated) Line(row *RowDataSet) (string, error) {
	return strings.Join(row.Texts(), s.Sep), nil
}

// alignCell pads s with fill up to width runes: right-aligned values are
// filled on the left, left-aligned ones on the right.
func alignCell(s string, width int, align Alignment, fill rune) string {
	pad := width - utf8.RuneCountInString(s)
	if pad <= 0 {
		return s
	}
	if fill == 0 {
		fill = ' '
	}
	padding := strings.Repeat(string(fill), pad)
	if align == AlignRight {
		return padding + s
	}
	return s + padding
}
