package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/syssam/relmap/dialect"
	"github.com/syssam/relmap/dialect/sql"
)

// QueryOptions holds the connection flags of the query command.
type QueryOptions struct {
	StatementOptions
	Driver        string
	DSN           string
	SlowThreshold time.Duration
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run the compiled statement and print the rows",
		Long: `Compile the --where conditions and --order expressions of an entity type
into a SELECT statement, run it against the database and print the rows.

Supported drivers are sqlite (modernc.org/sqlite), postgres (lib/pq) and
mysql (go-sql-driver/mysql).`,
		Example: `  RELMAP_DSN=file:library.db relmap query -m library.yaml -e Author -w '{"books.title": "SQL Joins"}'`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd.Context(), rootOpts, opts, cmd)
		},
	}
	opts.bind(cmd)
	f := cmd.Flags()
	f.StringVar(&opts.Driver, "driver", envDefault(EnvDriver, dialect.SQLite), "database/sql driver name (env "+EnvDriver+")")
	f.StringVar(&opts.DSN, "dsn", envDefault(EnvDSN, ""), "data source name (env "+EnvDSN+")")
	f.DurationVar(&opts.SlowThreshold, "slow", 100*time.Millisecond, "log statements slower than this")

	return cmd
}

// QueryResult holds the fetched rows in column order.
type QueryResult struct {
	Compiled
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

func runQuery(ctx context.Context, rootOpts *RootOptions, opts *QueryOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
	log := rootOpts.Logger(cmd.ErrOrStderr())

	if opts.DSN == "" {
		return formatter.Fail(ExitCommandError, "query", fmt.Errorf("--dsn or %s is required", EnvDSN))
	}
	conn, err := sql.Open(opts.Driver, opts.DSN)
	if err != nil {
		return formatter.Fail(ExitCommandError, "open database", err)
	}
	defer conn.Close()
	drv := sql.NewStatsDriver(sql.NewDebugDriver(conn, log),
		sql.WithSlowThreshold(opts.SlowThreshold),
		sql.WithSlowQueryLog(log),
	)

	model, err := opts.loadModel(drv, log)
	if err != nil {
		return formatter.Fail(ExitCommandError, "load metadata", err)
	}
	compiled, err := opts.compile(model, drv.Dialect(), log)
	if err != nil {
		return formatter.Fail(ExitFailure, "compile", err)
	}

	var rows sql.Rows
	if err := drv.Query(ctx, compiled.Query, compiled.Args, &rows); err != nil {
		return formatter.Fail(ExitFailure, "query", err)
	}
	columns, err := rows.Columns()
	if err != nil {
		rows.Close()
		return formatter.Fail(ExitFailure, "query", err)
	}
	maps, err := sql.ScanMaps(rows)
	if err != nil {
		return formatter.Fail(ExitFailure, "query", err)
	}
	for _, m := range maps {
		for k, v := range m {
			if b, ok := v.([]byte); ok {
				m[k] = string(b)
			}
		}
	}
	log.DebugContext(ctx, "query stats", "stats", drv.Stats().String())

	return formatter.Success(&QueryResult{Compiled: *compiled, Columns: columns, Rows: maps})
}

// WriteText implements Texter.
func (r *QueryResult) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, c := range r.Columns {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, c)
	}
	fmt.Fprintln(tw)
	for _, row := range r.Rows {
		for i, c := range r.Columns {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			if v := row[c]; v == nil {
				fmt.Fprint(tw, "NULL")
			} else {
				fmt.Fprint(tw, v)
			}
		}
		fmt.Fprintln(tw)
	}
	fmt.Fprintf(tw, "(%d rows)\n", len(r.Rows))
	return tw.Flush()
}
