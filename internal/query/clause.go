// Package query holds the filter expression tree used against the audit
// collections. Clauses are built by pure functions and translated once into
// the store's native representation (see repository).
package query

import (
	"time"
)

// Clause is a node of a filter expression.
type Clause interface {
	clause()
}

// MatchAll matches every document.
type MatchAll struct{}

// Eq matches documents whose Field equals Value.
type Eq struct {
	Field string
	Value any
}

// In matches documents whose Field is one of Values.
type In struct {
	Field  string
	Values []string
}

// Range bounds a timestamp field. Both ends are inclusive; a nil end is open.
type Range struct {
	Field string
	From  *time.Time
	To    *time.Time
}

// Contains is a case-insensitive substring match. Text is literal, not a pattern.
type Contains struct {
	Field string
	Text  string
}

// Present matches documents where Field exists and is not null.
type Present struct {
	Field string
}

// Or matches when any child matches.
type Or []Clause

// And matches when every child matches.
type And []Clause

func (MatchAll) clause() {}
func (Eq) clause()       {}
func (In) clause()       {}
func (Range) clause()    {}
func (Contains) clause() {}
func (Present) clause()  {}
func (Or) clause()       {}
func (And) clause()      {}

// Combine folds clauses into one: none is MatchAll, one is returned as is,
// several become an And.
func Combine(clauses ...Clause) Clause {
	filtered := make([]Clause, 0, len(clauses))
	for _, c := range clauses {
		if c == nil {
			continue
		}
		if _, ok := c.(MatchAll); ok {
			continue
		}
		filtered = append(filtered, c)
	}
	switch len(filtered) {
	case 0:
		return MatchAll{}
	case 1:
		return filtered[0]
	default:
		return And(filtered)
	}
}

// AnyContains builds an Or of Contains clauses over fields.
func AnyContains(text string, fields ...string) Clause {
	or := make(Or, 0, len(fields))
	for _, f := range fields {
		or = append(or, Contains{Field: f, Text: text})
	}
	return or
}

// Since is a Range with only a lower bound.
func Since(field string, from time.Time) Range {
	return Range{Field: field, From: &from}
}

// Sort orders results by a single field.
type Sort struct {
	Field string
	Desc  bool
}

// FindOptions controls paging, ordering and projection of a find.
type FindOptions struct {
	Sort       *Sort
	Skip       int64
	Limit      int64
	Projection []string
}

// Group is a group-and-count over Key, optionally restricted by Match.
// Results are ordered by count descending; Limit <= 0 means unbounded.
type Group struct {
	Match Clause
	Key   string
	Limit int64
}
