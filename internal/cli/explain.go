package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/syssam/relmap/dialect"
)

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatementOptions{}
	var dialectName string

	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Print the SQL compiled for conditions and orderings",
		Long: `Compile the --where conditions and --order expressions of an entity type
into a SELECT statement and print it with its arguments, without connecting
to a database.`,
		Example: `  relmap explain -m library.yaml -e Book -w '{"tags.name": ["go", "sql"]}' -o author.name:desc`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(rootOpts, opts, dialectName, cmd)
		},
	}
	opts.bind(cmd)
	cmd.Flags().StringVarP(&dialectName, "dialect", "d", envDefault(EnvDriver, dialect.SQLite), "SQL dialect (sqlite|mysql|postgres)")

	return cmd
}

func runExplain(rootOpts *RootOptions, opts *StatementOptions, dialectName string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
	log := rootOpts.Logger(cmd.ErrOrStderr())

	switch dialectName {
	case dialect.SQLite, dialect.MySQL, dialect.Postgres:
	default:
		return formatter.Fail(ExitCommandError, "explain", fmt.Errorf("unknown dialect %q", dialectName))
	}
	model, err := opts.loadModel(nil, log)
	if err != nil {
		return formatter.Fail(ExitCommandError, "load metadata", err)
	}
	compiled, err := opts.compile(model, dialectName, log)
	if err != nil {
		return formatter.Fail(ExitFailure, "compile", err)
	}
	return formatter.Success(compiled)
}

// WriteText implements Texter.
func (c *Compiled) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s\nargs: %v\ndistinct: %t\n", c.Query, c.Args, c.Distinct)
	return err
}
