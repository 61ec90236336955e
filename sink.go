package texfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/c2h5oh/datasize"
)

// Sink consumes assembled rows. Sinks are called in registration order for
// every exported row.
type Sink interface {
	// Append assembles row with rs and outputs it.
	Append(row *RowDataSet, rs RowStructure) error
	// RowSequence reports how many rows the sink holds before the next
	// append. Counter columns are stamped with it.
	RowSequence() int
	// Close finalizes output and releases resources.
	Close() error
}

// DefaultLineSeparator terminates lines unless [WithLineSeparator] is used.
const DefaultLineSeparator = "\r\n"

type sinkOptions struct {
	lineSep    string
	trailing   bool
	start      int
	bufferSize datasize.ByteSize
	header     bool
	delimiter  rune
	border     BorderStyle
}

func newSinkOptions(opts []SinkOption) sinkOptions {
	o := sinkOptions{
		lineSep:    DefaultLineSeparator,
		trailing:   true,
		bufferSize: 64 * datasize.KB,
		delimiter:  ',',
		border:     BorderRounded,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// SinkOption configures a sink. Options a sink does not use are ignored.
type SinkOption func(*sinkOptions)

// WithLineSeparator sets the text written between lines.
func WithLineSeparator(sep string) SinkOption {
	return func(o *sinkOptions) { o.lineSep = sep }
}

// WithTrailingSeparator controls whether Close terminates the last line.
// Default: true.
func WithTrailingSeparator(on bool) SinkOption {
	return func(o *sinkOptions) { o.trailing = on }
}

// WithStartSequence seeds the row sequence, e.g. when appending to output
// that already holds n rows.
func WithStartSequence(n int) SinkOption {
	return func(o *sinkOptions) { o.start = n }
}

// WithBufferSize sets the write buffer of file sinks. Default: 64KB.
func WithBufferSize(size datasize.ByteSize) SinkOption {
	return func(o *sinkOptions) { o.bufferSize = size }
}

// WithHeader makes CSV and table sinks print a header row of column keys.
func WithHeader(on bool) SinkOption {
	return func(o *sinkOptions) { o.header = on }
}

// WithDelimiter sets the CSV field delimiter. Default: comma.
func WithDelimiter(r rune) SinkOption {
	return func(o *sinkOptions) { o.delimiter = r }
}

// WithBorder sets the table sink border style. Default: BorderRounded.
func WithBorder(b BorderStyle) SinkOption {
	return func(o *sinkOptions) { o.border = b }
}

// WriterSink writes lines to an io.Writer, separating them with the line
// separator. It does not close the writer.
type WriterSink struct {
	w        io.Writer
	opts     sinkOptions
	count    int
	appended bool
}

// NewWriterSink returns a sink writing to w.
func NewWriterSink(w io.Writer, opts ...SinkOption) *WriterSink {
	o := newSinkOptions(opts)
	return &WriterSink{w: w, opts: o, count: o.start}
}

func (s *WriterSink) Append(row *RowDataSet, rs RowStructure) error {
	line, err := rs.Line(row)
	if err != nil {
		return err
	}
	if s.appended {
		if _, err := io.WriteString(s.w, s.opts.lineSep); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(s.w, line); err != nil {
		return err
	}
	s.appended = true
	s.count++
	return nil
}

func (s *WriterSink) RowSequence() int { return s.count }

func (s *WriterSink) Close() error {
	if s.opts.trailing && s.appended {
		_, err := io.WriteString(s.w, s.opts.lineSep)
		return err
	}
	return nil
}

func (s *WriterSink) String() string {
	return fmt.Sprintf("WriterSink[rows=%d lineSeparator=%q]", s.count, s.opts.lineSep)
}

// BufferSink keeps output in memory, terminating every line.
type BufferSink struct {
	sb      strings.Builder
	lineSep string
	count   int
}

// NewBufferSink returns an empty in-memory sink.
func NewBufferSink(opts ...SinkOption) *BufferSink {
	o := newSinkOptions(opts)
	return &BufferSink{lineSep: o.lineSep, count: o.start}
}

func (s *BufferSink) Append(row *RowDataSet, rs RowStructure) error {
	line, err := rs.Line(row)
	if err != nil {
		return err
	}
	s.sb.WriteString(line)
	s.sb.WriteString(s.lineSep)
	s.count++
	return nil
}

func (s *BufferSink) RowSequence() int { return s.count }

func (s *BufferSink) Close() error { return nil }

// String returns everything appended so far.
func (s *BufferSink) String() string { return s.sb.String() }

// SliceSink collects lines in memory.
type SliceSink struct {
	lines []string
	start int
}

// NewSliceSink returns an empty sink.
func NewSliceSink(opts ...SinkOption) *SliceSink {
	return &SliceSink{start: newSinkOptions(opts).start}
}

func (s *SliceSink) Append(row *RowDataSet, rs RowStructure) error {
	line, err := rs.Line(row)
	if err != nil {
		return err
	}
	s.lines = append(s.lines, line)
	return nil
}

func (s *SliceSink) RowSequence() int { return s.start + len(s.lines) }

func (s *SliceSink) Close() error { return nil }

// Lines returns a copy of the collected lines.
func (s *SliceSink) Lines() []string {
	out := make([]string, len(s.lines))
	copy(out, s.lines)
	return out
}
