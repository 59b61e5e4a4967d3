package cli

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/syssam/relmap/dbal"
	"github.com/syssam/relmap/dialect"
	"github.com/syssam/relmap/dialect/sql"
	"github.com/syssam/relmap/mapper"
	"github.com/syssam/relmap/mapper/sqlmapper"
	"github.com/syssam/relmap/metadata"
)

// StatementOptions are the flags describing the statement to compile.
type StatementOptions struct {
	Metadata string
	Entity   string
	Where    string   // JSON object of expression to value
	Order    []string // "expr" or "expr:desc"
	Limit    int
}

func (o *StatementOptions) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&o.Metadata, "metadata", "m", envDefault(EnvMetadata, "relmap.yaml"), "metadata YAML file (env "+EnvMetadata+")")
	f.StringVarP(&o.Entity, "entity", "e", "", "entity type to select")
	f.StringVarP(&o.Where, "where", "w", "", `conditions as a JSON object, e.g. '{"author.name": "Ann"}'`)
	f.StringArrayVarP(&o.Order, "order", "o", nil, `ordering expression, "expr" or "expr:desc" (repeatable)`)
	f.IntVar(&o.Limit, "limit", 0, "maximum number of rows, 0 for no limit")
	_ = cmd.MarkFlagRequired("entity")
}

// Compiled is a compiled SELECT statement.
type Compiled struct {
	Entity   string `json:"entity"`
	Query    string `json:"query"`
	Args     []any  `json:"args"`
	Distinct bool   `json:"distinct"`
}

// loadModel reads the metadata file and registers a SQL mapper for every
// entity type. drv may be nil when nothing is executed.
func (o *StatementOptions) loadModel(drv dialect.Driver, log *slog.Logger) (*mapper.Model, error) {
	storage, err := metadata.LoadFile(o.Metadata)
	if err != nil {
		return nil, err
	}
	model := mapper.NewModel(storage)
	if err := sqlmapper.Register(model, drv, sqlmapper.WithLogger(log)); err != nil {
		return nil, err
	}
	return model, nil
}

// compile builds the SELECT statement of the entity in the given dialect.
func (o *StatementOptions) compile(model *mapper.Model, dialectName string, log *slog.Logger) (*Compiled, error) {
	mp, err := model.Mapper(o.Entity)
	if err != nil {
		return nil, err
	}
	where, err := parseWhere(o.Where)
	if err != nil {
		return nil, err
	}
	table := mp.TableName()
	sel := sql.Dialect(dialectName).Select(table + ".*").From(table)
	st := dbal.NewHelper(model, mp, dbal.WithLogger(log)).NewStatement(sel)

	for _, expr := range sortedKeys(where) {
		if err := st.Where(expr, where[expr]); err != nil {
			return nil, err
		}
	}
	for _, arg := range o.Order {
		expr, dir, err := parseOrder(arg)
		if err != nil {
			return nil, err
		}
		if err := st.OrderBy(expr, dir); err != nil {
			return nil, err
		}
	}
	if st.DistinctNeeded() {
		sel.Distinct()
	}
	if o.Limit > 0 {
		sel.Limit(o.Limit)
	}
	query, args := sel.Query()
	return &Compiled{Entity: o.Entity, Query: query, Args: args, Distinct: st.DistinctNeeded()}, nil
}

// parseWhere decodes the --where object. Integral numbers are bound as
// int64, the rest of the values as decoded.
func parseWhere(s string) (map[string]any, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var where map[string]any
	dec := json.NewDecoder(strings.NewReader(s))
	if err := dec.Decode(&where); err != nil {
		return nil, fmt.Errorf("cli: invalid --where object: %w", err)
	}
	for k, v := range where {
		where[k] = normalizeNumber(v)
	}
	return where, nil
}

func normalizeNumber(v any) any {
	switch v := v.(type) {
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
			return int64(v)
		}
	case []any:
		for i := range v {
			v[i] = normalizeNumber(v[i])
		}
	}
	return v
}

func parseOrder(arg string) (string, metadata.Direction, error) {
	expr, dir, found := strings.Cut(arg, ":")
	if !found {
		return expr, metadata.ASC, nil
	}
	d, err := metadata.ParseDirection(dir)
	if err != nil {
		return "", "", fmt.Errorf("cli: --order %q: %w", arg, err)
	}
	return expr, d, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
