package dbal

import (
	"github.com/syssam/relmap"
	"github.com/syssam/relmap/mapper"
	"github.com/syssam/relmap/metadata"
	"github.com/syssam/relmap/parser"
)

// Statement compiles expressions onto one builder. Joins shared by several
// expressions are added once.
type Statement struct {
	helper   *Helper
	builder  Builder
	aliases  *AliasAllocator
	joins    map[joinKey]string
	distinct bool
}

type joinKey struct {
	source, table, sourceColumn, targetColumn string
}

// DistinctNeeded reports whether any compiled expression traversed a
// one-to-many or many-to-many relationship.
func (s *Statement) DistinctNeeded() bool {
	return s.distinct
}

// Aliases returns the alias allocator of the statement.
func (s *Statement) Aliases() *AliasAllocator {
	return s.aliases
}

// Where adds the predicate "expr value".
//
// An empty list compared for equality adds the always-false "1=0", and for
// any other operator the always-true "1=1", without resolving the path.
// Otherwise "=" becomes IN for lists and IS for nil, "!=" becomes NOT IN
// and IS NOT, and the remaining operators are used as they are.
func (s *Statement) Where(expr string, value any) error {
	cond, err := parser.Parse(expr)
	if err != nil {
		return err
	}
	value = materialize(value)
	list, isList := value.([]any)
	if isList && len(list) == 0 {
		if cond.Operator == parser.Equal {
			s.builder.AndWhere("1=0")
		} else {
			s.builder.AndWhere("1=1")
		}
		return nil
	}
	var op string
	switch cond.Operator {
	case parser.Equal:
		switch {
		case isList:
			op = "IN"
		case value == nil:
			op = "IS"
		default:
			op = "="
		}
	case parser.NotEqual:
		switch {
		case isList:
			op = "NOT IN"
		case value == nil:
			op = "IS NOT"
		default:
			op = "!="
		}
	default:
		op = string(cond.Operator)
	}
	column, toMany, err := s.normalize(cond.Levels)
	if err != nil {
		return err
	}
	s.distinct = s.distinct || toMany
	s.builder.AndWhere(column+" "+op+" ?", value)
	return nil
}

// OrderBy adds the ordering by expr. A trailing operator in expr is ignored.
// If the path traverses a to-many relationship no ordering is added and an
// AmbiguousOrderingError is returned; joins resolved up to that point stay
// on the builder.
func (s *Statement) OrderBy(expr string, dir metadata.Direction) error {
	cond, err := parser.Parse(expr)
	if err != nil {
		return err
	}
	column, toMany, err := s.normalize(cond.Levels)
	if err != nil {
		return err
	}
	if toMany {
		s.distinct = true
		return relmap.NewAmbiguousOrderingError(expr)
	}
	if dir == metadata.DESC {
		column += " DESC"
	}
	s.builder.AddOrderBy(column)
	return nil
}

// normalize adds the joins of all levels but the last, and returns the
// qualified column of the last one.
func (s *Statement) normalize(levels []string) (string, bool, error) {
	var (
		model      = s.helper.model
		current    = s.helper.mapper
		reflection = current.StorageReflection()
		source     = s.builder.FromAlias()
		path       = levels[:len(levels)-1]
		column     = levels[len(levels)-1]
		toMany     bool
	)
	meta, err := model.Entity(current.EntityType())
	if err != nil {
		return "", false, err
	}
	for _, level := range path {
		prop, err := meta.Property(level)
		if err != nil {
			return "", false, err
		}
		rel := prop.Relationship
		if rel == nil {
			return "", false, relmap.NewRelationshipNotFoundError(meta.Type, level)
		}
		target, err := model.Mapper(rel.Target)
		if err != nil {
			return "", false, err
		}
		targetReflection := target.StorageReflection()
		var sourceColumn, targetColumn string
		switch rel.Shape {
		case metadata.OneToMany:
			if sourceColumn, err = primaryKey(current); err != nil {
				return "", false, err
			}
			targetColumn = targetReflection.ConvertEntityToStorageKey(rel.Reciprocal)
			toMany = true
		case metadata.ManyToMany:
			params, err := joinParameters(current, target, rel.IsOwning)
			if err != nil {
				return "", false, err
			}
			pk, err := primaryKey(current)
			if err != nil {
				return "", false, err
			}
			source = s.join(source, params.Table, pk, params.InColumn)
			sourceColumn = params.OutColumn
			if targetColumn, err = primaryKey(target); err != nil {
				return "", false, err
			}
			toMany = true
		case metadata.ManyToOne:
			sourceColumn = reflection.ConvertEntityToStorageKey(level)
			if targetColumn, err = primaryKey(target); err != nil {
				return "", false, err
			}
		default:
			return "", false, relmap.NewInvariantError("%s.%s has invalid shape %s", meta.Type, level, rel.Shape)
		}
		source = s.join(source, target.TableName(), sourceColumn, targetColumn)
		current, reflection = target, targetReflection
		if meta, err = model.Entity(current.EntityType()); err != nil {
			return "", false, err
		}
	}
	if _, err := meta.Property(column); err != nil {
		return "", false, err
	}
	return source + "." + reflection.ConvertEntityToStorageKey(column), toMany, nil
}

// join adds "LEFT JOIN table ON source.sourceColumn = alias.targetColumn"
// and returns the alias of the joined table. The table name is tried as
// alias first; it is replaced by a synthetic one when the builder already
// holds a different join under that alias.
func (s *Statement) join(source, table, sourceColumn, targetColumn string) string {
	key := joinKey{source: source, table: table, sourceColumn: sourceColumn, targetColumn: targetColumn}
	if alias, ok := s.joins[key]; ok {
		return alias
	}
	alias := s.aliases.Alias(table)
	for {
		on := source + "." + sourceColumn + " = " + alias + "." + targetColumn
		existing, ok := s.builder.Joined(alias)
		if alias != s.builder.FromAlias() && (!ok || existing == on) {
			s.builder.LeftJoin(source, table, alias, on)
			s.helper.log.Debug("join", "table", table, "alias", alias, "on", on)
			break
		}
		alias = s.aliases.Mint()
	}
	s.joins[key] = alias
	return alias
}

func primaryKey(m mapper.Mapper) (string, error) {
	pk := m.StorageReflection().StoragePrimaryKey()
	if len(pk) == 0 || pk[0] == "" {
		return "", relmap.NewInvariantError("mapper of %s has no primary key", m.EntityType())
	}
	return pk[0], nil
}

// joinParameters returns the bridge table between source and target, with
// InColumn referencing source. The owning side provides the parameters.
func joinParameters(source, target mapper.Mapper, owning bool) (mapper.JoinParameters, error) {
	var params mapper.JoinParameters
	if owning {
		p, err := source.ManyToManyJoinParameters(target)
		if err != nil {
			return params, err
		}
		params = p
	} else {
		p, err := target.ManyToManyJoinParameters(source)
		if err != nil {
			return params, err
		}
		params = mapper.JoinParameters{Table: p.Table, InColumn: p.OutColumn, OutColumn: p.InColumn}
	}
	switch {
	case params.Table == "":
		return params, relmap.NewInvariantError("many-to-many %s -> %s has no bridge table", source.EntityType(), target.EntityType())
	case params.InColumn == "" || params.OutColumn == "":
		return params, relmap.NewInvariantError("bridge table %s lacks a join column", params.Table)
	case params.InColumn == params.OutColumn:
		return params, relmap.NewInvariantError("bridge table %s joins both sides on %s", params.Table, params.InColumn)
	}
	return params, nil
}
