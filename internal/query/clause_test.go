package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombineShapes(t *testing.T) {
	assert.Equal(t, MatchAll{}, Combine())
	assert.Equal(t, MatchAll{}, Combine(nil, MatchAll{}))

	single := Eq{Field: "event", Value: "API_DELETED"}
	assert.Equal(t, single, Combine(single))

	second := Eq{Field: "referenceType", Value: "API"}
	got := Combine(single, second)
	and, ok := got.(And)
	require.True(t, ok, "expected And, got %T", got)
	assert.Len(t, and, 2)
}

func TestMatchOperators(t *testing.T) {
	created := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	doc := map[string]any{
		"_id":        "a1",
		"user":       "jdoe",
		"event":      "API_UPDATED",
		"createdAt":  created,
		"properties": map[string]any{"USER": "u-2"},
		"nothing":    nil,
	}

	assert.True(t, Match(MatchAll{}, doc))
	assert.True(t, Match(Eq{Field: "event", Value: "API_UPDATED"}, doc))
	assert.False(t, Match(Eq{Field: "event", Value: "API_DELETED"}, doc))
	assert.True(t, Match(In{Field: "properties.USER", Values: []string{"u-1", "u-2"}}, doc))
	assert.False(t, Match(In{Field: "properties.GROUP", Values: []string{"u-2"}}, doc))
	assert.True(t, Match(Contains{Field: "user", Text: "DO"}, doc))
	assert.False(t, Match(Contains{Field: "user", Text: "j.d"}, doc))
	assert.True(t, Match(Present{Field: "user"}, doc))
	assert.False(t, Match(Present{Field: "nothing"}, doc))
	assert.False(t, Match(Present{Field: "missing"}, doc))

	before := created.Add(-time.Hour)
	after := created.Add(time.Hour)
	assert.True(t, Match(Range{Field: "createdAt", From: &before, To: &after}, doc))
	assert.True(t, Match(Range{Field: "createdAt", From: &created, To: &created}, doc))
	assert.False(t, Match(Since("createdAt", after), doc))

	assert.True(t, Match(Or{Eq{Field: "user", Value: "x"}, Eq{Field: "user", Value: "jdoe"}}, doc))
	assert.False(t, Match(And{Eq{Field: "user", Value: "jdoe"}, Eq{Field: "event", Value: "x"}}, doc))
}

func TestMatchRangeAcceptsTextTimestamps(t *testing.T) {
	doc := map[string]any{"createdAt": "2024-03-05T23:59:59.998Z"}
	to := time.Date(2024, 3, 5, 23, 59, 59, 999_000_000, time.UTC)
	assert.True(t, Match(Range{Field: "createdAt", To: &to}, doc))
}

func TestAnyContains(t *testing.T) {
	c := AnyContains("api", "name", "description")
	or, ok := c.(Or)
	require.True(t, ok)
	assert.Len(t, or, 2)
	assert.True(t, Match(c, map[string]any{"description": "Payments API"}))
}
