package texfmt

import "fmt"

// Layout is a validated row template. Layouts are built by a [Session] from
// an attributed tree and never change afterwards.
type Layout struct {
	id        string
	label     string
	width     int
	structure RowStructure
	columns   []*ColumnDefinition
}

// ID returns the identifier rows are exported under.
func (l *Layout) ID() string { return l.id }

// Label returns the diagnostic name used in error messages.
func (l *Layout) Label() string { return l.label }

// Width returns the declared line width. Separator layouts without a width
// attribute report zero.
func (l *Layout) Width() int { return l.width }

// Structure returns the layout's row assembly algorithm.
func (l *Layout) Structure() RowStructure { return l.structure }

// Columns returns the column definitions in output order.
func (l *Layout) Columns() []*ColumnDefinition {
	out := make([]*ColumnDefinition, len(l.columns))
	copy(out, l.columns)
	return out
}

func (l *Layout) String() string {
	return fmt.Sprintf("Layout[%s structure=%s width=%d columns=%d]", l.label, l.structure, l.width, len(l.columns))
}

// ColumnDefinition is the static configuration of one column. A definition is
// shared by every row exported under its layout.
type ColumnDefinition struct {
	Type              string
	Source            string
	Position          int // zero-based, positional layouts only
	Value             string
	Format            string
	Align             Alignment
	Width             int
	Fill              rune
	DecimalSeparator  rune // zero when not overridden
	GroupingSeparator rune // zero when not overridden
}

// IsCounter reports whether the column is stamped with the sink row sequence.
func (d *ColumnDefinition) IsCounter() bool { return d.Source == SourceCounter }
