package graph

import (
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emergent-company/primary-api/pkg/apperror"
)

func TestDecodeBase(t *testing.T) {
	props := map[string]any{
		"id":          "t1",
		"name":        "Task",
		"description": "does things",
		"status":      "ASSIGNED",
		"priority":    int64(2),
	}

	b, err := DecodeBase(props, "status")
	require.NoError(t, err)

	assert.Equal(t, "t1", b.ID)
	assert.Equal(t, "Task", b.Name)
	require.NotNil(t, b.Description)
	assert.Equal(t, "does things", *b.Description)
	assert.Equal(t, map[string]any{"priority": int64(2)}, b.Extra)
}

func TestDecodeBase_WrongTypes(t *testing.T) {
	_, err := DecodeBase(map[string]any{"name": 12})
	assert.True(t, errors.Is(err, apperror.ErrInvalidInput))

	_, err = DecodeBase(map[string]any{"id": []any{"x"}})
	assert.True(t, errors.Is(err, apperror.ErrInvalidInput))
}

func TestNodeBase_PropertiesRoundTrip(t *testing.T) {
	desc := "d"
	b := NodeBase{ID: "x", Name: "X", Description: &desc, Extra: map[string]any{"color": "red"}}

	props := b.Properties()
	assert.Equal(t, map[string]any{"id": "x", "name": "X", "description": "d", "color": "red"}, props)

	back, err := DecodeBase(props)
	require.NoError(t, err)
	assert.Equal(t, b, back)
}

func TestNodeBase_ValidateName(t *testing.T) {
	assert.NoError(t, NodeBase{Name: "ok"}.ValidateName())
	assert.True(t, errors.Is(NodeBase{Name: "  "}.ValidateName(), apperror.ErrValidation))
}

func TestStringListProp(t *testing.T) {
	tests := []struct {
		name      string
		value     any
		expected  []string
		expectErr bool
	}{
		{"missing", nil, nil, false},
		{"single string", "Coding", []string{"Coding"}, false},
		{"string slice", []string{"a", "b"}, []string{"a", "b"}, false},
		{"any slice", []any{"a", "b"}, []string{"a", "b"}, false},
		{"mixed slice", []any{"a", 1}, nil, true},
		{"number", 3, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := StringListProp(map[string]any{"k": tt.value}, "k")
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, got)
			}
		})
	}
}

func TestNormalizeValue(t *testing.T) {
	tests := []struct {
		name      string
		input     any
		expected  any
		expectErr bool
	}{
		{"nil", nil, nil, false},
		{"integral float", 3.0, int64(3), false},
		{"fraction", 2.5, 2.5, false},
		{"int", 7, int64(7), false},
		{"bool", true, true, false},
		{"string list", []string{"a"}, []any{"a"}, false},
		{"int list", []any{1.0, json.Number("2")}, []any{int64(1), int64(2)}, false},
		{"ints and floats", []any{1.0, 2.5}, []any{1.0, 2.5}, false},
		{"empty list", []any{}, []any{}, false},
		{"mixed list", []any{1.0, "x", false}, nil, true},
		{"null item", []any{"a", nil}, nil, true},
		{"map", map[string]any{}, nil, true},
		{"nested list", []any{[]any{}}, nil, true},
		{"struct", struct{}{}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeValue(tt.input)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, got)
			}
		})
	}
}

func TestNormalizeParams(t *testing.T) {
	params, err := NormalizeParams(map[string]any{
		"n":      json.Number("5"),
		"f":      json.Number("5.0"),
		"name":   "x",
		"props":  map[string]any{"limit": json.Number("3"), "tags": []any{"a", json.Number("1")}},
		"nested": []any{[]any{json.Number("2")}},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(5), params["n"])
	assert.Equal(t, 5.0, params["f"])
	assert.Equal(t, "x", params["name"])
	assert.Equal(t, map[string]any{"limit": int64(3), "tags": []any{"a", int64(1)}}, params["props"])
	assert.Equal(t, []any{[]any{int64(2)}}, params["nested"])

	params, err = NormalizeParams(nil)
	require.NoError(t, err)
	assert.Nil(t, params)

	_, err = NormalizeParams(map[string]any{"n": json.Number("1x")})
	assert.Error(t, err)
}

func TestParseLabel(t *testing.T) {
	l, err := ParseLabel("task")
	require.NoError(t, err)
	assert.Equal(t, LabelTask, l)

	l, err = ParseLabel("CAPABILITY")
	require.NoError(t, err)
	assert.Equal(t, LabelCapability, l)

	_, err = ParseLabel("User")
	assert.True(t, errors.Is(err, apperror.ErrInvalidInput))

	l, err = ParseOptionalLabel("")
	require.NoError(t, err)
	assert.Equal(t, Label(""), l)
}

func TestParseRelationshipType(t *testing.T) {
	got, err := ParseRelationshipType("can_execute")
	require.NoError(t, err)
	assert.Equal(t, "CAN_EXECUTE", got)

	for _, bad := range []string{"", "1ABC", "HAS SPACE", "A]->(b)"} {
		_, err := ParseRelationshipType(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		expected  NodeQuery
		expectErr bool
	}{
		{"none", "", NodeQuery{}, false},
		{"explicit exact", "property=status&value=ASSIGNED", NodeQuery{Property: "status", Value: "ASSIGNED", Match: MatchExact}, false},
		{"explicit contains", "property=name&value=rep&match=contains", NodeQuery{Property: "name", Value: "rep", Match: MatchContains}, false},
		{"shorthand", "status=COMPLETED", NodeQuery{Property: "status", Value: "COMPLETED", Match: MatchExact}, false},
		{"two filters", "status=A&assignee=b", NodeQuery{}, true},
		{"bad match", "property=name&value=x&match=fuzzy", NodeQuery{}, true},
		{"bad property", "property=na%20me&value=x", NodeQuery{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			got, err := ParseFilter(values)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, got)
			}
		})
	}
}

func TestParseFilter_Skip(t *testing.T) {
	values, _ := url.ParseQuery("label=Task&name=x")
	got, err := ParseFilter(values, "label")
	require.NoError(t, err)
	assert.Equal(t, "name", got.Property)
}

func TestParseUpdate(t *testing.T) {
	updates, op, err := ParseUpdate(UpdateRequest{})
	require.NoError(t, err)
	assert.Equal(t, OpOverwrite, op)
	assert.NotNil(t, updates)

	_, _, err = ParseUpdate(UpdateRequest{Operation: "merge"})
	assert.True(t, errors.Is(err, apperror.ErrInvalidInput))
}

func TestDecodeProps(t *testing.T) {
	props, err := DecodeProps(strings.NewReader(`{"name": "x", "n": 12}`))
	require.NoError(t, err)
	assert.Equal(t, "x", props["name"])

	clean, err := NormalizeProps(props)
	require.NoError(t, err)
	assert.Equal(t, int64(12), clean["n"])

	_, err = DecodeProps(strings.NewReader(`[1, 2]`))
	assert.Error(t, err)
	_, err = DecodeProps(strings.NewReader(`null`))
	assert.Error(t, err)
}
