package texfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// BorderStyle controls table border characters.
type BorderStyle int

const (
	BorderRounded BorderStyle = iota // ╭─╮╰╯│┬┴├┤┼
	BorderNone                       // No borders, space-separated columns
	BorderASCII                      // +-+|
	BorderHeavy                      // ┏━┓┗┛┃┳┻┣┫╋
	BorderDouble                     // ╔═╗╚╝║╦╩╠╣╬
)

type borderChars struct {
	topLeft, topRight, bottomLeft, bottomRight string
	horizontal, vertical                       string
	topTee, bottomTee, leftTee, rightTee       string
	cross                                      string
}

var borderSets = map[BorderStyle]borderChars{
	BorderRounded: {
		topLeft: "╭", topRight: "╮", bottomLeft: "╰", bottomRight: "╯",
		horizontal: "─", vertical: "│",
		topTee: "┬", bottomTee: "┴", leftTee: "├", rightTee: "┤",
		cross: "┼",
	},
	BorderASCII: {
		topLeft: "+", topRight: "+", bottomLeft: "+", bottomRight: "+",
		horizontal: "-", vertical: "|",
		topTee: "+", bottomTee: "+", leftTee: "+", rightTee: "+",
		cross: "+",
	},
	BorderHeavy: {
		topLeft: "┏", topRight: "┓", bottomLeft: "┗", bottomRight: "┛",
		horizontal: "━", vertical: "┃",
		topTee: "┳", bottomTee: "┻", leftTee: "┣", rightTee: "┫",
		cross: "╋",
	},
	BorderDouble: {
		topLeft: "╔", topRight: "╗", bottomLeft: "╚", bottomRight: "╝",
		horizontal: "═", vertical: "║",
		topTee: "╦", bottomTee: "╩", leftTee: "╠", rightTee: "╣",
		cross: "╬",
	},
}

// TableSink previews exported rows as a table. Rows are collected and the
// table is written on Close. Cells are the formatted column values, aligned
// like their columns; a separator line marks where consecutive rows switch
// layout.
type TableSink struct {
	w      io.Writer
	opts   sinkOptions
	header []string
	rows   [][]string
	aligns [][]Alignment
	groups []string
}

// NewTableSink returns a sink rendering to w on Close.
func NewTableSink(w io.Writer, opts ...SinkOption) *TableSink {
	return &TableSink{w: w, opts: newSinkOptions(opts)}
}

func (s *TableSink) Append(row *RowDataSet, _ RowStructure) error {
	layout := row.Layout()
	if s.opts.header && s.header == nil {
		s.header = columnKeys(layout)
	}
	aligns := make([]Alignment, row.Len())
	for i, c := range row.Columns() {
		aligns[i] = c.Definition().Align
	}
	s.rows = append(s.rows, row.Texts())
	s.aligns = append(s.aligns, aligns)
	s.groups = append(s.groups, layout.ID())
	return nil
}

func (s *TableSink) RowSequence() int { return s.opts.start + len(s.rows) }

func (s *TableSink) Close() error {
	if len(s.rows) == 0 {
		return nil
	}
	numCols := colCount(s.header, s.rows)
	widths := computeWidths(numCols, s.header, s.rows)
	if s.opts.border == BorderNone {
		return s.renderPlain(widths)
	}
	return s.renderBordered(widths, borderSets[s.opts.border])
}

func colCount(header []string, rows [][]string) int {
	n := len(header)
	for _, row := range rows {
		if len(row) > n {
			n = len(row)
		}
	}
	return n
}

func computeWidths(numCols int, header []string, rows [][]string) []int {
	widths := make([]int, numCols)
	for i, h := range header {
		if w := runewidth.StringWidth(h); w > widths[i] {
			widths[i] = w
		}
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}

func (s *TableSink) groupChanged(i int) bool {
	return i > 0 && s.groups[i] != s.groups[i-1]
}

// --- Plain table (BorderNone) ---

func (s *TableSink) renderPlain(widths []int) error {
	if len(s.header) > 0 {
		if err := writePlainRow(s.w, s.header, widths, nil); err != nil {
			return err
		}
		if err := writePlainSep(s.w, widths); err != nil {
			return err
		}
	}
	for i, row := range s.rows {
		if s.groupChanged(i) {
			if err := writePlainSep(s.w, widths); err != nil {
				return err
			}
		}
		if err := writePlainRow(s.w, row, widths, s.aligns[i]); err != nil {
			return err
		}
	}
	return nil
}

func writePlainSep(w io.Writer, widths []int) error {
	sep := make([]string, len(widths))
	for i, width := range widths {
		sep[i] = strings.Repeat("-", width)
	}
	_, err := fmt.Fprintln(w, strings.Join(sep, "  "))
	return err
}

func writePlainRow(w io.Writer, cells []string, widths []int, aligns []Alignment) error {
	parts := make([]string, len(widths))
	for i, width := range widths {
		parts[i] = padCell(cellAt(cells, i), width, alignAt(aligns, i))
	}
	line := strings.TrimRight(strings.Join(parts, "  "), " ")
	_, err := fmt.Fprintln(w, line)
	return err
}

// --- Bordered table ---

func (s *TableSink) renderBordered(widths []int, bc borderChars) error {
	if err := drawHLine(s.w, widths, bc.topLeft, bc.horizontal, bc.topTee, bc.topRight); err != nil {
		return err
	}
	if len(s.header) > 0 {
		if err := drawBorderedRow(s.w, s.header, widths, nil, bc.vertical); err != nil {
			return err
		}
		if err := drawHLine(s.w, widths, bc.leftTee, bc.horizontal, bc.cross, bc.rightTee); err != nil {
			return err
		}
	}
	for i, row := range s.rows {
		if s.groupChanged(i) {
			if err := drawHLine(s.w, widths, bc.leftTee, bc.horizontal, bc.cross, bc.rightTee); err != nil {
				return err
			}
		}
		if err := drawBorderedRow(s.w, row, widths, s.aligns[i], bc.vertical); err != nil {
			return err
		}
	}
	return drawHLine(s.w, widths, bc.bottomLeft, bc.horizontal, bc.bottomTee, bc.bottomRight)
}

func drawHLine(w io.Writer, widths []int, left, fill, mid, right string) error {
	var sb strings.Builder
	sb.WriteString(left)
	for i, width := range widths {
		sb.WriteString(strings.Repeat(fill, width+2))
		if i < len(widths)-1 {
			sb.WriteString(mid)
		}
	}
	sb.WriteString(right)
	_, err := fmt.Fprintln(w, sb.String())
	return err
}

func drawBorderedRow(w io.Writer, cells []string, widths []int, aligns []Alignment, vert string) error {
	var sb strings.Builder
	sb.WriteString(vert)
	for i, width := range widths {
		sb.WriteString(" ")
		sb.WriteString(padCell(cellAt(cells, i), width, alignAt(aligns, i)))
		sb.WriteString(" ")
		if i < len(widths)-1 {
			sb.WriteString(vert)
		}
	}
	sb.WriteString(vert)
	_, err := fmt.Fprintln(w, sb.String())
	return err
}

func cellAt(cells []string, i int) string {
	if i < len(cells) {
		return cells[i]
	}
	return ""
}

func alignAt(aligns []Alignment, i int) Alignment {
	if i < len(aligns) {
		return aligns[i]
	}
	return AlignLeft
}

// padCell pads s with spaces to a display width, so wide runes line up.
func padCell(s string, width int, align Alignment) string {
	pad := width - runewidth.StringWidth(s)
	if pad <= 0 {
		return s
	}
	if align == AlignRight {
		return strings.Repeat(" ", pad) + s
	}
	return s + strings.Repeat(" ", pad)
}
