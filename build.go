package texfmt

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Layout and column attribute names.
const (
	attrName              = "name"
	attrStructure         = "structure"
	attrSeparator         = "separator"
	attrWidth             = "width"
	attrType              = "type"
	attrValue             = "value"
	attrFormat            = "format"
	attrAlign             = "align"
	attrPosition          = "position"
	attrFill              = "fill"
	attrDecimalSeparator  = "decimal-separator"
	attrGroupingSeparator = "grouping-separator"
)

// derivedTypes fixes the column type of sources whose values have one shape.
var derivedTypes = map[string]string{
	SourceFixed:     TypeText,
	SourceCounter:   TypeInteger,
	SourceTimestamp: TypeTimestamp,
}

// layoutBuilder validates layout nodes against the registered formatters
// and value sources.
type layoutBuilder struct {
	formatters map[string]Formatter
	sources    map[string]ValueSource
}

// rowStructure reads the structure attributes of n. It reports false when n
// does not declare a structure.
func rowStructure(n *Node, label string) (RowStructure, bool, error) {
	s, ok := n.Attr(attrStructure)
	if !ok || strings.TrimSpace(s) == "" {
		return nil, false, nil
	}
	st, err := ParseStructure(s)
	if err != nil {
		return nil, false, &LayoutError{Layout: label, Err: err}
	}
	if st == StructureSeparator {
		sep, ok := n.Attr(attrSeparator)
		if !ok {
			return nil, false, layoutErr(label, 0, ErrConfiguration, "separator must be defined for structure 'separator'")
		}
		return Separated{Sep: sep}, true, nil
	}
	return Positional{}, true, nil
}

// defaultStructure returns the structure declared on a document root,
// positional when the root declares none.
func defaultStructure(root *Node) (RowStructure, error) {
	rs, ok, err := rowStructure(root, root.Name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return Positional{}, nil
	}
	return rs, nil
}

func (b *layoutBuilder) build(n *Node, fallback RowStructure) (*Layout, error) {
	if n == nil {
		return nil, fmt.Errorf("%w: layout node is required", ErrConfiguration)
	}
	id, label := n.Name, n.Name
	if name, ok := n.Attr(attrName); ok && strings.TrimSpace(name) != "" {
		id = name
		label = n.Name + "[" + name + "]"
	}

	rs, ok, err := rowStructure(n, label)
	if err != nil {
		return nil, err
	}
	if !ok {
		rs = fallback
	}
	if rs == nil {
		rs = Positional{}
	}
	positional := rs.Structure() == StructurePositional

	width := 0
	widthStr, hasWidth := n.Attr(attrWidth)
	if positional && (!hasWidth || strings.TrimSpace(widthStr) == "") {
		return nil, layoutErr(label, 0, ErrConfiguration, "width is required for positional layouts")
	}
	if hasWidth {
		width, err = strconv.Atoi(strings.TrimSpace(widthStr))
		if err != nil {
			return nil, layoutErr(label, 0, ErrConfiguration, "width %q is invalid", widthStr)
		}
		if width < 0 {
			return nil, layoutErr(label, 0, ErrConfiguration, "width is negative")
		}
	}

	if len(n.Children) == 0 {
		return nil, layoutErr(label, 0, ErrConfiguration, "no columns found")
	}
	for i, c := range n.Children {
		if c == nil {
			return nil, layoutErr(label, i+1, ErrConfiguration, "column node is required")
		}
	}
	columns := make([]*ColumnDefinition, len(n.Children))
	for i := range n.Children {
		def, err := b.column(n.Children, i, label, positional, width)
		if err != nil {
			return nil, err
		}
		columns[i] = def
	}

	return &Layout{id: id, label: label, width: width, structure: rs, columns: columns}, nil
}

func (b *layoutBuilder) column(nodes []*Node, i int, label string, positional bool, layoutWidth int) (*ColumnDefinition, error) {
	n := nodes[i]
	col := i + 1
	def := &ColumnDefinition{Fill: ' '}

	if positional {
		pos, err := position(n, label, col)
		if err != nil {
			return nil, err
		}
		if i == 0 && pos != 0 {
			return nil, layoutErr(label, col, ErrConfiguration, "first column must start at position 1, got %d", pos+1)
		}
		def.Position = pos
	}

	def.Source = strings.TrimSpace(n.Name)
	if _, ok := b.sources[def.Source]; !ok && def.Source != SourceColumn {
		return nil, layoutErr(label, col, ErrConfiguration, "invalid tag name %q, allowed are %v", n.Name, b.sourceNames())
	}

	if t, ok := derivedTypes[def.Source]; ok {
		def.Type = t
	} else {
		t, _ := n.Attr(attrType)
		def.Type = strings.TrimSpace(t)
		if def.Type == "" {
			return nil, layoutErr(label, col, ErrConfiguration, "type not defined")
		}
	}
	formatter, ok := b.formatters[def.Type]
	if !ok {
		return nil, layoutErr(label, col, ErrConfiguration, "formatter not defined for type %q", def.Type)
	}

	def.Value, _ = n.Attr(attrValue)
	if !def.IsCounter() && strings.TrimSpace(def.Value) == "" {
		return nil, layoutErr(label, col, ErrConfiguration, "value not defined")
	}

	format, _ := n.Attr(attrFormat)
	def.Format = strings.TrimSpace(format)

	if align, ok := n.Attr(attrAlign); ok {
		a, err := ParseAlignment(align)
		if err != nil {
			return nil, &LayoutError{Layout: label, Column: col, Err: err}
		}
		def.Align = a
	}

	width := -1
	if s, ok := n.Attr(attrWidth); ok {
		w, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil, layoutErr(label, col, ErrConfiguration, "width %q is invalid", s)
		}
		if w < 0 {
			return nil, layoutErr(label, col, ErrConfiguration, "width is negative")
		}
		width = w
	}

	if positional {
		next := layoutWidth
		if i < len(nodes)-1 {
			p, err := position(nodes[i+1], label, col+1)
			if err != nil {
				return nil, err
			}
			next = p
		}
		gap := next - def.Position
		if gap <= 0 {
			return nil, layoutErr(label, col, ErrConfiguration,
				"column starts at %d but the next column or the layout end is at %d", def.Position+1, next+1)
		}
		if width < 0 {
			width = gap
		} else if width != gap {
			return nil, layoutErr(label, col, ErrConfiguration,
				"invalid size %d, the next column or the layout end requires %d", width, gap)
		}
	}
	def.Width = max(width, 0)

	var err error
	if def.Fill, err = singleRune(n, attrFill, ' '); err != nil {
		return nil, &LayoutError{Layout: label, Column: col, Err: err}
	}
	if def.DecimalSeparator, err = singleRune(n, attrDecimalSeparator, 0); err != nil {
		return nil, &LayoutError{Layout: label, Column: col, Err: err}
	}
	if def.GroupingSeparator, err = singleRune(n, attrGroupingSeparator, 0); err != nil {
		return nil, &LayoutError{Layout: label, Column: col, Err: err}
	}

	if v, ok := formatter.(DefinitionValidator); ok {
		if err := v.ValidateDefinition(def); err != nil {
			return nil, &LayoutError{Layout: label, Column: col, Err: err}
		}
	}
	return def, nil
}

// position parses the 1-based position attribute of a column and returns it
// zero-based.
func position(n *Node, label string, col int) (int, error) {
	s, ok := n.Attr(attrPosition)
	if !ok || strings.TrimSpace(s) == "" {
		return 0, layoutErr(label, col, ErrConfiguration, "position not defined")
	}
	p, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, layoutErr(label, col, ErrConfiguration, "position %q is invalid", s)
	}
	if p < 1 {
		return 0, layoutErr(label, col, ErrConfiguration, "position %d is out of range, positions start at 1", p)
	}
	return p - 1, nil
}

func singleRune(n *Node, attr string, def rune) (rune, error) {
	s, ok := n.Attr(attr)
	if !ok {
		return def, nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("%w: %s %q must be one single character", ErrConfiguration, attr, s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

func (b *layoutBuilder) sourceNames() []string {
	names := []string{SourceColumn}
	for name := range b.sources {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
