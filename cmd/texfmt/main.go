// Command texfmt exports JSON rows as text lines described by a layout
// document.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := newRootCommand(afero.NewOsFs(), os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type rootCommand struct {
	fs     afero.Fs
	debug  bool
	logger *zap.Logger
}

func newRootCommand(fs afero.Fs, stdout, stderr io.Writer) *cobra.Command {
	root := &rootCommand{fs: fs, logger: zap.NewNop()}
	cmd := &cobra.Command{
		Use:           "texfmt",
		Short:         "Export rows as positional or delimited text",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if root.debug {
				root.logger = newDebugLogger(cmd.ErrOrStderr())
			}
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.PersistentFlags().BoolVar(&root.debug, "debug", false, "log every registration and exported row")
	cmd.AddCommand(exportCommand(root))
	return cmd
}

func newDebugLogger(w io.Writer) *zap.Logger {
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(w),
		zap.DebugLevel,
	)
	return zap.New(core)
}
