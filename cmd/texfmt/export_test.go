package main

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const layoutsYAML = `
export:
  children:
    - header:
        width: 20
        children:
          - fixed: {value: HDR, position: 1, width: 3}
          - param: {type: text, value: company, position: 4}
          - counter: {align: right, fill: "0", position: 15}
    - detail:
        structure: separator
        separator: ";"
        children:
          - column: {type: text, value: name}
          - column: {type: integer, value: qty}
          - column: {type: decimal, value: amount, format: "0.00"}
`

const conflictYAML = `
export:
  children:
    - header:
        structure: separator
        separator: ";"
        children:
          - column: {type: text, value: qty}
          - column: {type: integer, value: qty}
`

const rowsJSONL = `{"_layout":"header"}
{"name":"Widget","qty":3,"amount":12.5}

{"name":"Gadget","qty":"10","amount":"0.125"}
`

func newTestFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/in/layouts.yaml", []byte(layoutsYAML), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/in/params.yaml", []byte("company: ACME\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/in/rows.jsonl", []byte(rowsJSONL), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/in/conflict.yaml", []byte(conflictYAML), 0o644))
	return fs
}

func run(t *testing.T, fs afero.Fs, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand(fs, &stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

var baseArgs = []string{
	"export",
	"--layouts", "/in/layouts.yaml",
	"--params", "/in/params.yaml",
	"--rows", "/in/rows.jsonl",
	"--layout", "detail",
}

func TestExportStdout(t *testing.T) {
	t.Parallel()
	stdout, stderr, err := run(t, newTestFs(t), append(baseArgs, "--line-separator", "lf")...)
	require.NoError(t, err)
	assert.Equal(t, "HDRACME       000000\nWidget;3;12.50\nGadget;10;0.12\n", stdout)
	assert.Empty(t, stderr)
}

func TestExportFile(t *testing.T) {
	t.Parallel()
	fs := newTestFs(t)
	args := append(baseArgs, "--out", "/out/export.txt", "--csv", "/out/export.csv", "--buffer-size", "1KB")

	stdout, _, err := run(t, fs, args...)
	require.NoError(t, err)
	assert.Empty(t, stdout)

	got, err := afero.ReadFile(fs, "/out/export.txt")
	require.NoError(t, err)
	assert.Equal(t, "HDRACME       000000\r\nWidget;3;12.50\r\nGadget;10;0.12\r\n", string(got))

	csv, err := afero.ReadFile(fs, "/out/export.csv")
	require.NoError(t, err)
	assert.Equal(t, "HDR,company,counter\nHDR,ACME,0\nWidget,3,12.50\nGadget,10,0.12\n", string(csv))

	_, _, err = run(t, fs, append(args, "--append")...)
	require.NoError(t, err)
	got, err = afero.ReadFile(fs, "/out/export.txt")
	require.NoError(t, err)
	assert.Contains(t, string(got), "Gadget;10;0.12\r\nHDRACME       000003\r\n")
}

func TestExportPreviewAndDebug(t *testing.T) {
	t.Parallel()
	_, stderr, err := run(t, newTestFs(t), append(baseArgs, "--preview", "--debug")...)
	require.NoError(t, err)
	assert.Contains(t, stderr, "│ HDR    │ company │ counter │")
	assert.Contains(t, stderr, "│ HDR    │ ACME    │       0 │")
	assert.Contains(t, stderr, "│ Widget │ 3       │ 12.50   │")
	assert.Contains(t, stderr, "exported row")
	assert.Contains(t, stderr, "export finished")
}

func TestExportErrors(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		rows string
		args []string
		msg  string
	}{
		"no layout": {
			rows: `{"name":"x"}`,
			args: []string{"export", "--layouts", "/in/layouts.yaml", "--params", "/in/params.yaml", "--rows", "/in/bad.jsonl"},
			msg:  "line 1: no layout",
		},
		"unknown layout": {
			rows: `{"_layout":"trailer"}`,
			args: append(baseArgs[:len(baseArgs)-4:len(baseArgs)-4], "--rows", "/in/bad.jsonl"),
			msg:  `unknown layout: "trailer"`,
		},
		"invalid json": {
			rows: `{"name":`,
			args: append(baseArgs[:len(baseArgs)-4:len(baseArgs)-4], "--rows", "/in/bad.jsonl", "--layout", "detail"),
			msg:  "/in/bad.jsonl: line 1:",
		},
		"invalid integer": {
			rows: `{"name":"x","qty":"many","amount":1}`,
			args: append(baseArgs[:len(baseArgs)-4:len(baseArgs)-4], "--rows", "/in/bad.jsonl", "--layout", "detail"),
			msg:  "line 1:",
		},
		"missing param": {
			rows: `{"_layout":"header"}`,
			args: []string{"export", "--layouts", "/in/layouts.yaml", "--rows", "/in/bad.jsonl"},
			msg:  `entry "company" not defined in params`,
		},
		"conflicting column types": {
			rows: `{"_layout":"header"}`,
			args: []string{"export", "--layouts", "/in/conflict.yaml", "--rows", "/in/bad.jsonl"},
			msg:  `column "qty" is read as both text and integer`,
		},
		"invalid line separator": {
			args: append(baseArgs, "--line-separator", "cr"),
			msg:  `invalid line separator "cr"`,
		},
		"invalid buffer size": {
			args: append(baseArgs, "--buffer-size", "lots"),
			msg:  "invalid argument",
		},
		"missing required flag": {
			args: []string{"export", "--rows", "/in/rows.jsonl"},
			msg:  `required flag(s) "layouts" not set`,
		},
		"missing layouts file": {
			args: []string{"export", "--layouts", "/in/none.xml", "--rows", "/in/rows.jsonl"},
			msg:  "none.xml",
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			fs := newTestFs(t)
			if tt.rows != "" {
				require.NoError(t, afero.WriteFile(fs, "/in/bad.jsonl", []byte(tt.rows), 0o644))
			}
			_, _, err := run(t, fs, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestParseLineSeparator(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		in      string
		want    string
		wantErr require.ErrorAssertionFunc
	}{
		"crlf":    {in: "crlf", want: "\r\n", wantErr: require.NoError},
		"lf":      {in: "lf", want: "\n", wantErr: require.NoError},
		"unknown": {in: "CRLF", wantErr: require.Error},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, err := parseLineSeparator(tt.in)
			tt.wantErr(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
