// Package texfmt exports rows of data as text lines described by declarative
// layouts.
//
// A layout is an ordered list of column definitions. For every exported row
// each column resolves a raw value from a named value source, renders it with
// the formatter registered for its type, and the layout's row structure
// assembles the formatted columns into one line that is handed to every
// registered sink.
//
// # Sessions
//
// A [Session] owns the registries and runs exports. Registration happens
// before the first export:
//
//	s := texfmt.New(map[string]any{"company": "ACME"})
//	sink, err := texfmt.NewFileSink(afero.NewOsFs(), "out/file.txt", false)
//	...
//	s.RegisterSink(sink)
//	s.LoadLayouts(afero.NewOsFs(), "layouts.xml")
//	s.ExportMap("detail", map[string]any{"amount": decimal.RequireFromString("12.50")})
//	s.Close()
//
// # Layout documents
//
// Layouts are decoded into a generic [Node] tree from XML ([ParseXML]) or
// YAML ([ParseYAML]). Each child of the document root is a layout; each child
// of a layout is a column whose tag names its value source:
//
//	<export structure="positional">
//	  <header width="10">
//	    <fixed value="AB" fill="-" position="1" width="5"/>
//	    <counter align="right" fill="0" position="6"/>
//	  </header>
//	  <detail structure="separator" separator=",">
//	    <param type="text" value="name"/>
//	    <column type="decimal" value="amount" format="#,##0.00"/>
//	  </detail>
//	</export>
//
// Layout attributes: structure (positional or separator), separator, width
// and name, which overrides the layout id. Column attributes: type, value,
// format, align, width, position (1-based), fill, decimal-separator and
// grouping-separator.
//
// # Row structures
//
//   - [Positional] — every column at a fixed offset, padded with its fill
//     character; values longer than their column fail with [ErrOverflow]
//   - [Separated] — columns joined by a literal separator
//
// # Value sources
//
//   - column — the per-row [ValueSource] passed to [Session.ExportRow]
//   - fixed — the value attribute itself
//   - param — the session parameters; missing keys fail with [ErrResolution]
//   - counter — the row sequence of the sink receiving the row
//   - timestamp — the session start time
//
// # Formatters
//
//   - text — string
//   - integer — int, optionally through a number pattern
//   - decimal — [decimal.Decimal] through a number pattern like "#,##0.00"
//   - fraction — only the fraction digits a decimal column would print
//   - timestamp — [time.Time] through a strftime pattern like "%d/%m/%Y"
//
// # Errors
//
// The package exports sentinel errors for programmatic handling:
//
//   - [ErrConfiguration] — invalid layout or registration
//   - [ErrState] — registration after exporting started, or use after Close
//   - [ErrResolution] — a value could not be resolved
//   - [ErrTypeMismatch] — a value does not suit its column's formatter
//   - [ErrOverflow] — a value is wider than its positional column
//   - [ErrUnknownLayout] — no layout registered under the exported id
//
// Errors tied to a layout or column are wrapped in [*LayoutError].
package texfmt
