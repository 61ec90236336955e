package texfmt

import "fmt"

// Column is one resolved and formatted value of a row.
type Column struct {
	index     int
	def       *ColumnDefinition
	formatter Formatter
	value     any
	text      string
}

// Definition returns the column's static configuration.
func (c *Column) Definition() *ColumnDefinition { return c.def }

// Value returns the raw resolved value.
func (c *Column) Value() any { return c.value }

// Text returns the formatted value.
func (c *Column) Text() string { return c.text }

func (c *Column) String() string { return fmt.Sprintf("Column[%s=%q]", c.def.Source, c.text) }

// RowDataSet holds the columns of one exported row. Counter columns are
// tracked separately so they can be restamped before every sink append.
type RowDataSet struct {
	layout   *Layout
	fc       *FormatContext
	columns  []*Column
	counters []*Column
}

// NewRowDataSet returns an empty row for layout, formatting through fc.
func NewRowDataSet(layout *Layout, fc *FormatContext) *RowDataSet {
	return &RowDataSet{
		layout:  layout,
		fc:      fc,
		columns: make([]*Column, 0, len(layout.columns)),
	}
}

// Layout returns the layout the row is exported under.
func (r *RowDataSet) Layout() *Layout { return r.layout }

// Columns returns the row's columns in layout order.
func (r *RowDataSet) Columns() []*Column { return r.columns }

// Column returns the i-th column, zero-based.
func (r *RowDataSet) Column(i int) *Column { return r.columns[i] }

// Len returns the number of columns.
func (r *RowDataSet) Len() int { return len(r.columns) }

// Texts returns the formatted values in layout order.
func (r *RowDataSet) Texts() []string {
	out := make([]string, len(r.columns))
	for i, c := range r.columns {
		out[i] = c.text
	}
	return out
}

// AddColumn formats value with f and appends the column. Failures are
// reported as a [*LayoutError] naming the column.
func (r *RowDataSet) AddColumn(value any, def *ColumnDefinition, f Formatter) error {
	c := &Column{index: len(r.columns) + 1, def: def, formatter: f}
	if err := r.set(c, value); err != nil {
		return err
	}
	r.columns = append(r.columns, c)
	if def.IsCounter() {
		r.counters = append(r.counters, c)
	}
	return nil
}

// UpdateCounters restamps every counter column with n.
func (r *RowDataSet) UpdateCounters(n int) error {
	for _, c := range r.counters {
		if err := r.set(c, n); err != nil {
			return err
		}
	}
	return nil
}

func (r *RowDataSet) set(c *Column, value any) error {
	if err := CheckType(c.formatter, value); err != nil {
		return &LayoutError{Layout: r.layout.label, Column: c.index, Err: err}
	}
	text, err := c.formatter.Format(r.fc, value, c.def)
	if err != nil {
		return &LayoutError{Layout: r.layout.label, Column: c.index, Err: err}
	}
	c.value, c.text = value, text
	return nil
}
