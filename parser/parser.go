// Package parser splits property-path expressions into the levels they
// traverse and the trailing comparison operator.
//
//	author.country.name     -> [author country name], =
//	author.born>=           -> [author born], >=
//	this->author->name!=    -> [author name], !=
package parser

import (
	"regexp"
	"strings"

	"github.com/syssam/relmap"
)

// Operator is the comparison operator of a condition.
type Operator string

// Supported operators. Equal is used when an expression has none.
const (
	Equal        Operator = "="
	NotEqual     Operator = "!="
	Less         Operator = "<"
	LessEqual    Operator = "<="
	Greater      Operator = ">"
	GreaterEqual Operator = ">="
)

// Condition is a parsed path expression.
type Condition struct {
	// Levels holds the property names in traversal order. The last one is
	// the scalar property compared or ordered by.
	Levels []string
	// Operator is the trailing comparison operator.
	Operator Operator
}

// Path returns the relationship levels, i.e. all levels but the last.
func (c Condition) Path() []string {
	return c.Levels[:len(c.Levels)-1]
}

// Column returns the trailing scalar property.
func (c Condition) Column() string {
	return c.Levels[len(c.Levels)-1]
}

var (
	conditionRe = regexp.MustCompile(`^(.*?)\s*(!=|<=|>=|=|<|>)?$`)
	identRe     = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Parse parses expr into a Condition.
func Parse(expr string) (Condition, error) {
	m := conditionRe.FindStringSubmatch(strings.TrimSpace(expr))
	if m == nil || m[1] == "" {
		return Condition{}, relmap.NewInvalidExpressionError(expr, "missing property path")
	}
	path, sep := m[1], "."
	if strings.Contains(path, "->") {
		path, sep = strings.TrimPrefix(path, "this->"), "->"
	}
	levels := strings.Split(path, sep)
	for _, l := range levels {
		if !identRe.MatchString(l) {
			return Condition{}, relmap.NewInvalidExpressionError(expr, "invalid property name "+quote(l))
		}
	}
	op := Operator(m[2])
	if op == "" {
		op = Equal
	}
	return Condition{Levels: levels, Operator: op}, nil
}

// MustParse is like Parse but panics if the expression cannot be parsed.
func MustParse(expr string) Condition {
	c, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return c
}

func quote(s string) string {
	return `"` + s + `"`
}
