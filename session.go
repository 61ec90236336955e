package texfmt

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Session exports rows through registered layouts into registered sinks.
// Formatters, value sources, sinks and layouts are registered first; once a
// row has been exported or the session is closed, registration fails with
// [ErrState]. A Session is not safe for concurrent use; run one session per
// goroutine.
type Session struct {
	id     string
	logger *zap.Logger
	clock  clockwork.Clock
	start  time.Time
	end    time.Time

	formatters map[string]Formatter
	sources    map[string]ValueSource
	sinks      []Sink
	layouts    map[string]*Layout
	fc         *FormatContext

	started bool
	closed  bool
}

// Option configures a [Session].
type Option func(*Session)

// WithLogger sets the logger. Default: no logging.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithClock sets the clock providing the session start time.
func WithClock(c clockwork.Clock) Option {
	return func(s *Session) { s.clock = c }
}

// New starts a session. params backs the "param" value source and must
// hold every key a layout's param columns reference.
func New(params map[string]any, opts ...Option) *Session {
	s := &Session{
		id:         uuid.NewString(),
		logger:     zap.NewNop(),
		clock:      clockwork.NewRealClock(),
		formatters: defaultFormatters(),
		layouts:    make(map[string]*Layout),
		fc:         NewFormatContext(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.start = s.clock.Now()
	s.logger = s.logger.With(zap.String("session", s.id))
	if params == nil {
		params = map[string]any{}
	}
	s.sources = map[string]ValueSource{
		SourceFixed:     FixedSource{},
		SourceParam:     ParamSource(params),
		SourceCounter:   counterSource{},
		SourceTimestamp: TimeSource(s.start),
	}
	s.logger.Debug("session started")
	return s
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string { return s.id }

// Start returns the time the session started. Timestamp columns render it.
func (s *Session) Start() time.Time { return s.start }

// Elapsed returns the time since the session started, or its total
// duration once closed.
func (s *Session) Elapsed() time.Duration {
	if s.closed {
		return s.end.Sub(s.start)
	}
	return s.clock.Since(s.start)
}

func (s *Session) checkConfigure(kind string) error {
	if s.closed {
		return fmt.Errorf("%w: session already closed", ErrState)
	}
	if s.started {
		return fmt.Errorf("%w: cannot register a new %s after exporting started", ErrState, kind)
	}
	return nil
}

// RegisterFormatter registers f for a column type, replacing any formatter
// already registered under that name.
func (s *Session) RegisterFormatter(name string, f Formatter) error {
	if err := s.checkConfigure("formatter"); err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" || f == nil {
		return fmt.Errorf("%w: formatter name and formatter are required", ErrConfiguration)
	}
	s.formatters[name] = f
	s.logger.Debug("registered formatter", zap.String("type", name), zap.String("formatter", fmt.Sprintf("%T", f)))
	return nil
}

// RegisterSource registers a value source under the tag name layouts use to
// select it. The same source serves every row. "column" is reserved for the
// per-row source passed to [Session.ExportRow].
func (s *Session) RegisterSource(name string, src ValueSource) error {
	if err := s.checkConfigure("value source"); err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" || src == nil {
		return fmt.Errorf("%w: value source name and value source are required", ErrConfiguration)
	}
	if reservedSources[name] {
		return fmt.Errorf("%w: value source cannot override name %q", ErrConfiguration, name)
	}
	s.sources[name] = src
	s.logger.Debug("registered value source", zap.String("source", name))
	return nil
}

// RegisterSink adds a sink. Sinks receive rows in registration order.
func (s *Session) RegisterSink(sink Sink) error {
	if err := s.checkConfigure("sink"); err != nil {
		return err
	}
	if sink == nil {
		return fmt.Errorf("%w: sink is required", ErrConfiguration)
	}
	s.sinks = append(s.sinks, sink)
	s.logger.Debug("registered sink", zap.String("sink", fmt.Sprintf("%T", sink)))
	return nil
}

// RegisterLayout builds a layout from n. fallback is used when n declares
// no structure; nil means positional. Nothing is registered on error.
func (s *Session) RegisterLayout(n *Node, fallback RowStructure) error {
	if err := s.checkConfigure("layout"); err != nil {
		return err
	}
	if n == nil {
		return fmt.Errorf("%w: layout node is required", ErrConfiguration)
	}
	l, err := s.builder().build(n, fallback)
	if err != nil {
		return err
	}
	if _, ok := s.layouts[l.id]; ok {
		return layoutErr(l.label, 0, ErrConfiguration, "duplicated layout id %q", l.id)
	}
	s.install(l)
	return nil
}

// RegisterLayouts registers every child of a layout document root. The
// root's structure attributes are the default for its layouts. Either all
// layouts are registered or none.
func (s *Session) RegisterLayouts(root *Node) error {
	if err := s.checkConfigure("layout"); err != nil {
		return err
	}
	if root == nil {
		return fmt.Errorf("%w: layout document is required", ErrConfiguration)
	}
	fallback, err := defaultStructure(root)
	if err != nil {
		return err
	}
	if len(root.Children) == 0 {
		return fmt.Errorf("%w: document %q does not contain at least one layout", ErrConfiguration, root.Name)
	}
	b := s.builder()
	built := make([]*Layout, 0, len(root.Children))
	seen := make(map[string]bool, len(root.Children))
	for _, n := range root.Children {
		l, err := b.build(n, fallback)
		if err != nil {
			return err
		}
		if _, ok := s.layouts[l.id]; ok || seen[l.id] {
			return layoutErr(l.label, 0, ErrConfiguration, "duplicated layout id %q", l.id)
		}
		seen[l.id] = true
		built = append(built, l)
	}
	for _, l := range built {
		s.install(l)
	}
	return nil
}

// LoadLayouts reads a layout document from fs and registers its layouts.
func (s *Session) LoadLayouts(fs afero.Fs, path string) error {
	if err := s.checkConfigure("layout"); err != nil {
		return err
	}
	root, err := ReadLayoutFile(fs, path)
	if err != nil {
		return err
	}
	s.logger.Debug("loaded layout document", zap.String("path", path))
	return s.RegisterLayouts(root)
}

func (s *Session) builder() *layoutBuilder {
	return &layoutBuilder{formatters: s.formatters, sources: s.sources}
}

func (s *Session) install(l *Layout) {
	s.layouts[l.id] = l
	s.logger.Debug("registered layout", zap.Stringer("layout", l))
}

// Layout returns the layout registered under id.
func (s *Session) Layout(id string) (*Layout, bool) {
	l, ok := s.layouts[id]
	return l, ok
}

// Layouts returns the registered layouts ordered by id.
func (s *Session) Layouts() []*Layout {
	ids := slices.Sorted(maps.Keys(s.layouts))
	out := make([]*Layout, len(ids))
	for i, id := range ids {
		out[i] = s.layouts[id]
	}
	return out
}

// ExportRow resolves and formats one row with the layout registered under
// id and hands it to every sink. row serves the layout's "column" columns.
// Counter columns are stamped with each sink's row sequence right before
// that sink's append. A row that fails to resolve, format or assemble is
// sent to no sink.
func (s *Session) ExportRow(id string, row ValueSource) error {
	if s.closed {
		return fmt.Errorf("%w: session already closed", ErrState)
	}
	s.started = true

	layout, ok := s.layouts[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownLayout, id)
	}

	ds := NewRowDataSet(layout, s.fc)
	for i, def := range layout.columns {
		src := s.sources[def.Source]
		if def.Source == SourceColumn {
			src = row
		}
		if src == nil {
			return layoutErr(layout.label, i+1, ErrResolution, "no value source for %q", def.Source)
		}
		v, err := src.Value(def.Value)
		if err != nil {
			return &LayoutError{Layout: layout.label, Column: i + 1, Err: err}
		}
		if err := ds.AddColumn(v, def, s.formatters[def.Type]); err != nil {
			return err
		}
	}

	// Every sink's line must assemble before any sink receives the row.
	if len(s.sinks) == 0 {
		if _, err := layout.structure.Line(ds); err != nil {
			return err
		}
	}
	for _, sink := range s.sinks {
		if err := ds.UpdateCounters(sink.RowSequence()); err != nil {
			return err
		}
		if _, err := layout.structure.Line(ds); err != nil {
			return err
		}
	}
	for _, sink := range s.sinks {
		if err := ds.UpdateCounters(sink.RowSequence()); err != nil {
			return err
		}
		if err := sink.Append(ds, layout.structure); err != nil {
			return err
		}
	}
	s.logger.Debug("exported row", zap.String("layout", layout.label), zap.Int("sinks", len(s.sinks)))
	return nil
}

// ExportMap exports a row whose "column" values come from m.
func (s *Session) ExportMap(id string, m map[string]any) error {
	return s.ExportRow(id, MapSource(m))
}

// ExportHeader exports a row with the "header" layout.
func (s *Session) ExportHeader(row ValueSource) error { return s.ExportRow("header", row) }

// ExportDetail exports a row with the "detail" layout.
func (s *Session) ExportDetail(row ValueSource) error { return s.ExportRow("detail", row) }

// ExportFooter exports a row with the "footer" layout.
func (s *Session) ExportFooter(row ValueSource) error { return s.ExportRow("footer", row) }

// Close closes every sink and ends the session. Sink errors are joined.
func (s *Session) Close() error {
	if s.closed {
		return fmt.Errorf("%w: session already closed", ErrState)
	}
	s.closed = true
	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.end = s.clock.Now()
	s.logger.Debug("session closed", zap.Duration("elapsed", s.Elapsed()))
	return errors.Join(errs...)
}
