package query

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// Match evaluates c against a decoded document. It mirrors the semantics the
// Mongo translation gives the same tree and backs the in-memory store.
func Match(c Clause, doc map[string]any) bool {
	switch c := c.(type) {
	case nil, MatchAll:
		return true
	case Eq:
		v, ok := Lookup(doc, c.Field)
		return ok && equal(v, c.Value)
	case In:
		v, ok := Lookup(doc, c.Field)
		if !ok {
			return false
		}
		s, isStr := v.(string)
		if !isStr {
			return false
		}
		for _, candidate := range c.Values {
			if s == candidate {
				return true
			}
		}
		return false
	case Range:
		v, ok := Lookup(doc, c.Field)
		if !ok {
			return false
		}
		t, ok := AsTime(v)
		if !ok {
			return false
		}
		if c.From != nil && t.Before(*c.From) {
			return false
		}
		if c.To != nil && t.After(*c.To) {
			return false
		}
		return true
	case Contains:
		v, ok := Lookup(doc, c.Field)
		if !ok {
			return false
		}
		s, isStr := v.(string)
		if !isStr {
			return false
		}
		return strings.Contains(strings.ToLower(s), strings.ToLower(c.Text))
	case Present:
		v, ok := Lookup(doc, c.Field)
		return ok && v != nil
	case Or:
		for _, child := range c {
			if Match(child, doc) {
				return true
			}
		}
		return false
	case And:
		for _, child := range c {
			if !Match(child, doc) {
				return false
			}
		}
		return true
	default:
		panic(fmt.Sprintf("query: unknown clause %T", c))
	}
}

// Lookup resolves a dotted path such as "properties.USER".
func Lookup(doc map[string]any, path string) (any, bool) {
	var cur any = doc
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// AsTime accepts time.Time values and RFC 3339 strings.
func AsTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	default:
		return time.Time{}, false
	}
}

func equal(a, b any) bool {
	if as, ok := a.(string); ok {
		bs, ok := b.(string)
		return ok && as == bs
	}
	return reflect.DeepEqual(a, b)
}
