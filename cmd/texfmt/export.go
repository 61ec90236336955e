package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/bjaus/texfmt"
	"github.com/c2h5oh/datasize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const exportLongDescription = `Export JSON rows through a layout document.

Every line of the rows file is a JSON object. Its keys serve the layout's
"column" columns; a "_layout" key selects the layout for that row, otherwise
--layout is used. Values are converted to the type of the column reading them.
`

// layoutKey selects the layout of a single row.
const layoutKey = "_layout"

type exportOptions struct {
	layouts    string
	params     string
	rows       string
	layout     string
	out        string
	csv        string
	append     bool
	preview    bool
	lineSep    string
	bufferSize datasize.ByteSize
}

func exportCommand(root *rootCommand) *cobra.Command {
	opts := &exportOptions{bufferSize: 64 * datasize.KB}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export rows through a layout document",
		Long:  exportLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, root, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.layouts, "layouts", "", "layout document (.xml, .yaml or .yml)")
	f.StringVar(&opts.params, "params", "", "YAML file with static parameters")
	f.StringVar(&opts.rows, "rows", "", "JSON lines file with one row per line")
	f.StringVar(&opts.layout, "layout", "", "default layout id")
	f.StringVar(&opts.out, "out", "", "output file, stdout when empty")
	f.StringVar(&opts.csv, "csv", "", "also write formatted columns to a CSV file")
	f.BoolVar(&opts.append, "append", false, "append to the output file and continue its row count")
	f.BoolVar(&opts.preview, "preview", false, "print a table of exported rows to stderr")
	f.StringVar(&opts.lineSep, "line-separator", "crlf", "line separator: crlf or lf")
	f.Var(byteSizeValue{&opts.bufferSize}, "buffer-size", "output file buffer size")
	_ = cmd.MarkFlagRequired("layouts")
	_ = cmd.MarkFlagRequired("rows")
	return cmd
}

func runExport(cmd *cobra.Command, root *rootCommand, opts *exportOptions) (err error) {
	logger := root.logger
	defer func() { _ = logger.Sync() }()

	lineSep, err := parseLineSeparator(opts.lineSep)
	if err != nil {
		return err
	}

	params, err := readParams(root, opts.params)
	if err != nil {
		return err
	}

	s := texfmt.New(params, texfmt.WithLogger(logger))
	var files []io.Closer
	closed := false
	defer func() {
		if !closed {
			err = errors.Join(err, s.Close())
		}
		for _, f := range files {
			err = errors.Join(err, f.Close())
		}
	}()

	sinkOpts := []texfmt.SinkOption{
		texfmt.WithLineSeparator(lineSep),
		texfmt.WithBufferSize(opts.bufferSize),
	}
	if opts.out == "" {
		err = s.RegisterSink(texfmt.NewWriterSink(cmd.OutOrStdout(), sinkOpts...))
	} else {
		var sink *texfmt.FileSink
		if sink, err = texfmt.NewFileSink(root.fs, opts.out, opts.append, sinkOpts...); err == nil {
			err = s.RegisterSink(sink)
		}
	}
	if err != nil {
		return err
	}

	if opts.csv != "" {
		f, err := root.fs.Create(opts.csv)
		if err != nil {
			return err
		}
		files = append(files, f)
		if err := s.RegisterSink(texfmt.NewCSVSink(f, texfmt.WithHeader(true))); err != nil {
			return err
		}
	}
	if opts.preview {
		if err := s.RegisterSink(texfmt.NewTableSink(cmd.ErrOrStderr(), texfmt.WithHeader(true))); err != nil {
			return err
		}
	}

	if err := s.LoadLayouts(root.fs, opts.layouts); err != nil {
		return err
	}
	if err := coerceParams(params, s.Layouts()); err != nil {
		return err
	}
	types, err := rowTypes(s.Layouts())
	if err != nil {
		return err
	}

	rows, err := root.fs.Open(opts.rows)
	if err != nil {
		return err
	}
	defer rows.Close()

	n, err := exportRows(s, rows, opts.layout, types)
	if err != nil {
		return fmt.Errorf("%s: %w", opts.rows, err)
	}

	closed = true
	if err := s.Close(); err != nil {
		return err
	}
	logger.Info("export finished", zap.Int("rows", n), zap.Duration("elapsed", s.Elapsed()))
	return nil
}

func exportRows(s *texfmt.Session, r io.Reader, defaultLayout string, types map[string]map[string]string) (int, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), int(datasize.MB))
	n := 0
	for line := 1; sc.Scan(); line++ {
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var values map[string]any
		if err := dec.Decode(&values); err != nil {
			return n, fmt.Errorf("line %d: %w", line, err)
		}

		id := defaultLayout
		if v, ok := values[layoutKey].(string); ok && v != "" {
			id = v
		}
		if id == "" {
			return n, fmt.Errorf("line %d: no layout, set --layout or %q", line, layoutKey)
		}
		if err := s.ExportRow(id, coercingSource{values: values, types: types[id]}); err != nil {
			return n, fmt.Errorf("line %d: %w", line, err)
		}
		n++
	}
	return n, sc.Err()
}

func readParams(root *rootCommand, path string) (map[string]any, error) {
	params := map[string]any{}
	if path == "" {
		return params, nil
	}
	data, err := afero.ReadFile(root.fs, path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return params, nil
}

func parseLineSeparator(s string) (string, error) {
	switch s {
	case "crlf":
		return "\r\n", nil
	case "lf":
		return "\n", nil
	default:
		return "", fmt.Errorf("invalid line separator %q, options are 'crlf' or 'lf'", s)
	}
}

// byteSizeValue adapts datasize.ByteSize to a pflag value.
type byteSizeValue struct{ v *datasize.ByteSize }

func (b byteSizeValue) String() string { return b.v.HumanReadable() }

func (b byteSizeValue) Set(s string) error { return b.v.UnmarshalText([]byte(s)) }

func (b byteSizeValue) Type() string { return "size" }
