package dbal

import (
	"regexp"
	"strconv"
)

var aliasRe = regexp.MustCompile(`^(?:[a-z0-9_]+\.){0,2}([a-z0-9_]+)$`)

// AliasAllocator hands out table aliases unique within one statement.
//
// A name such as "books" or "public.books" is aliased by its last segment.
// Asking again for the same name returns the same alias. A name whose
// segment is already taken by another name, or a name that is not a plain
// lowercase identifier, gets a synthetic "_join{n}" alias.
type AliasAllocator struct {
	next   int
	byName map[string]string
	taken  map[string]bool
}

// NewAliasAllocator returns an allocator with its counter at 1.
func NewAliasAllocator() *AliasAllocator {
	return &AliasAllocator{
		next:   1,
		byName: make(map[string]string),
		taken:  make(map[string]bool),
	}
}

// Alias returns the alias of name.
func (a *AliasAllocator) Alias(name string) string {
	if alias, ok := a.byName[name]; ok {
		return alias
	}
	var alias string
	if m := aliasRe.FindStringSubmatch(name); m != nil && !a.taken[m[1]] {
		alias = m[1]
		a.taken[alias] = true
	} else {
		alias = a.Mint()
	}
	a.byName[name] = alias
	return alias
}

// Mint returns a fresh synthetic alias.
func (a *AliasAllocator) Mint() string {
	for {
		alias := "_join" + strconv.Itoa(a.next)
		a.next++
		if !a.taken[alias] {
			a.taken[alias] = true
			return alias
		}
	}
}

// Reserve marks alias as used, e.g. the alias of the statement root table.
func (a *AliasAllocator) Reserve(alias string) {
	a.taken[alias] = true
}
