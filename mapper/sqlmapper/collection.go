package sqlmapper

import (
	"context"
	"slices"

	"github.com/syssam/relmap"
	"github.com/syssam/relmap/dbal"
	"github.com/syssam/relmap/dialect/sql"
	"github.com/syssam/relmap/entity"
	"github.com/syssam/relmap/mapper"
	"github.com/syssam/relmap/metadata"
)

// Collection is the lazily fetched one-to-many collection of a parent.
type Collection struct {
	mapper   *Mapper
	property string
	parent   entity.Entity
	orders   []metadata.Order
}

// OrderBy implements mapper.Collection.
func (c *Collection) OrderBy(expr string, dir metadata.Direction) mapper.Collection {
	cp := *c
	cp.orders = append(slices.Clone(c.orders), metadata.Order{Expression: expr, Direction: dir})
	return &cp
}

// Selector returns the statement the collection is fetched with.
func (c *Collection) Selector() (*sql.Selector, error) {
	table := c.mapper.TableName()
	sel := sql.Dialect(c.mapper.driver.Dialect()).Select(table + ".*").From(table)
	st := dbal.NewHelper(c.mapper.model, c.mapper, dbal.WithLogger(c.mapper.log)).NewStatement(sel)
	if err := st.Where(c.property, c.parent.PersistedID()); err != nil {
		return nil, err
	}
	for _, o := range c.orders {
		if err := st.OrderBy(o.Expression, o.Direction); err != nil {
			return nil, err
		}
	}
	if st.DistinctNeeded() {
		sel.Distinct()
	}
	return sel, nil
}

// Fetch implements mapper.Collection. The collection of an unpersisted
// parent is empty and is not queried.
func (c *Collection) Fetch(ctx context.Context) ([]entity.Entity, error) {
	if !c.parent.IsPersisted() {
		return nil, nil
	}
	sel, err := c.Selector()
	if err != nil {
		return nil, err
	}
	query, args := sel.Query()
	c.mapper.log.DebugContext(ctx, "fetch collection", "entity", c.mapper.EntityType(), "sql", query)
	var rows sql.Rows
	if err := c.mapper.driver.Query(ctx, query, args, &rows); err != nil {
		return nil, relmap.NewQueryError(c.mapper.EntityType(), "fetch", err)
	}
	maps, err := sql.ScanMaps(rows)
	if err != nil {
		return nil, relmap.NewQueryError(c.mapper.EntityType(), "scan", err)
	}
	out := make([]entity.Entity, 0, len(maps))
	for _, row := range maps {
		e, err := c.mapper.hydrate(c.mapper.meta, c.mapper.reflection, row)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

var _ mapper.Collection = (*Collection)(nil)
