package texfmt

import (
	"encoding/csv"
	"io"
)

// CSVSink writes each row's formatted columns as spreadsheet cells. The row
// structure is not used: every column becomes one field.
type CSVSink struct {
	cw      *csv.Writer
	header  bool
	written bool
	count   int
}

// NewCSVSink returns a sink writing CSV records to w. Use [WithHeader] to
// print column keys before the first row and [WithDelimiter] to change the
// field delimiter.
func NewCSVSink(w io.Writer, opts ...SinkOption) *CSVSink {
	o := newSinkOptions(opts)
	cw := csv.NewWriter(w)
	cw.Comma = o.delimiter
	return &CSVSink{cw: cw, header: o.header, count: o.start}
}

func (s *CSVSink) Append(row *RowDataSet, _ RowStructure) error {
	if s.header && !s.written {
		if err := s.cw.Write(columnKeys(row.Layout())); err != nil {
			return err
		}
	}
	s.written = true
	if err := s.cw.Write(row.Texts()); err != nil {
		return err
	}
	s.cw.Flush()
	if err := s.cw.Error(); err != nil {
		return err
	}
	s.count++
	return nil
}

func (s *CSVSink) RowSequence() int { return s.count }

func (s *CSVSink) Close() error {
	s.cw.Flush()
	return s.cw.Error()
}

// columnKeys names each column by its lookup key, or its source when the
// column has none.
func columnKeys(l *Layout) []string {
	keys := make([]string, len(l.columns))
	for i, def := range l.columns {
		keys[i] = def.Value
		if keys[i] == "" {
			keys[i] = def.Source
		}
	}
	return keys
}
