// Package cli implements the relmap command line tool.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Environment variables providing flag defaults. They may be set in a .env
// file of the working directory.
const (
	EnvMetadata = "RELMAP_METADATA"
	EnvDriver   = "RELMAP_DRIVER"
	EnvDSN      = "RELMAP_DSN"
)

// NewRootCommand creates the root command of the relmap CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "relmap",
		Short: "Compile property paths into SQL",
		Long: `relmap compiles property path expressions such as "author.country.name"
against entity metadata into SQL joins, conditions and orderings.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log compiled joins and statements to stderr")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewExplainCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))

	return cmd
}

// Logger returns the logger commands report to: debug level on w when
// verbose, warnings only otherwise.
func (o *RootOptions) Logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Execute runs the CLI with the process arguments and returns the exit code.
func Execute(ctx context.Context) int {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	cmd := NewRootCommand()
	cmd.SilenceErrors = true
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return GetExitCode(err)
	}
	return ExitSuccess
}

func envDefault(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
