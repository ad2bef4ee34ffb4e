package service

import (
	"encoding/json"
	"testing"

	"github.com/imannovv/gravitee-audit/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePatchNestedJSON(t *testing.T) {
	ops := DecodePatch(`[{"op":"replace","path":"/x","value":"{\"a\":1}"}]`)
	require.Len(t, ops, 1)
	assert.Equal(t, "replace", ops[0].Operation)
	assert.Equal(t, "/x", ops[0].Path)
	assert.True(t, ops[0].Value.Present)
	assert.Equal(t, map[string]any{"a": json.Number("1")}, ops[0].Value.Value)
}

func TestDecodePatchInvalid(t *testing.T) {
	tests := map[string]any{
		"not json":          "not json",
		"object not list":   `{"op":"add"}`,
		"trailing garbage":  `[] []`,
		"non-object entry":  `[{"op":"add","path":"/a"}, 3]`,
		"decoded non-list":  map[string]any{"op": "add"},
		"decoded bad entry": []any{"add"},
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Nil(t, DecodePatch(raw))
		})
	}
	assert.Nil(t, DecodePatch(nil))
}

func TestDecodePatchValuePresence(t *testing.T) {
	ops := DecodePatch(`[{"op":"remove","path":"/a"},{"op":"add","path":"/b","value":null},{"op":"move","from":"/c","path":"/d"}]`)
	require.Len(t, ops, 3)

	assert.False(t, ops[0].Value.Present)
	assert.True(t, ops[1].Value.Present)
	assert.Nil(t, ops[1].Value.Value)
	assert.Equal(t, "/c", ops[2].From)

	out, err := json.Marshal(ops)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"operation":"remove","path":"/a"},
		{"operation":"add","path":"/b","value":null},
		{"operation":"move","path":"/d","from":"/c"}
	]`, string(out))
}

func TestDecodePatchAlreadyDecoded(t *testing.T) {
	ops := DecodePatch([]any{
		map[string]any{"op": "replace", "path": "/name", "value": "Payments v2"},
	})
	require.Len(t, ops, 1)
	assert.Equal(t, model.PatchValue{Present: true, Value: "Payments v2"}, ops[0].Value)
}

func TestDecodePatchKeepsUndecodableNestedText(t *testing.T) {
	ops := DecodePatch(`[{"op":"add","path":"/a","value":"{broken"}]`)
	require.Len(t, ops, 1)
	assert.Equal(t, "{broken", ops[0].Value.Value)
}

func TestDecodePatchEmptyList(t *testing.T) {
	ops := DecodePatch(`[]`)
	assert.NotNil(t, ops)
	assert.Empty(t, ops)
}
