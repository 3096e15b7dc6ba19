package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/emergent-company/primary-api/pkg/apperror"
)

// Node is a stored node with its labels and full property set.
type Node struct {
	Labels []string       `json:"labels"`
	Props  map[string]any `json:"properties"`
}

// ID returns the node's id property.
func (n Node) ID() string {
	id, _ := n.Props["id"].(string)
	return id
}

// HasLabel reports whether the node carries l.
func (n Node) HasLabel(l Label) bool {
	for _, s := range n.Labels {
		if s == string(l) {
			return true
		}
	}
	return false
}

// Ref addresses a node by label and id. An empty label matches any label.
type Ref struct {
	Label Label
	ID    string
}

func (r Ref) String() string {
	return fmt.Sprintf("%s '%s'", r.Label.Name(), r.ID)
}

// MatchMode selects how a property filter compares values.
type MatchMode string

const (
	MatchExact    MatchMode = "exact"
	MatchContains MatchMode = "contains"
)

// ParseMatchMode accepts "exact" (the default) or "contains".
func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(s) {
	case "", MatchExact:
		return MatchExact, nil
	case MatchContains:
		return MatchContains, nil
	}
	return "", apperror.NewInvalidInput(fmt.Sprintf("unknown match mode %q", s))
}

// NodeQuery selects nodes by optional label and optional property filter.
type NodeQuery struct {
	Label    Label
	Property string
	Value    any
	Match    MatchMode
}

// Operation is a partial-update mode.
type Operation string

const (
	OpOverwrite Operation = "overwrite"
	OpAppend    Operation = "append"
	OpRemove    Operation = "remove"
)

// ParseOperation defaults to overwrite when s is empty.
func ParseOperation(s string) (Operation, error) {
	switch Operation(s) {
	case "", OpOverwrite:
		return OpOverwrite, nil
	case OpAppend:
		return OpAppend, nil
	case OpRemove:
		return OpRemove, nil
	}
	return "", apperror.NewInvalidInput(fmt.Sprintf("unknown operation %q", s))
}

// Edge is an outgoing relationship and its target.
type Edge struct {
	Type      string   `json:"relationship_type"`
	EndLabels []string `json:"end_node_labels"`
	EndID     string   `json:"end_node_id"`
	End       Node     `json:"-"`
}

// Stats are store-wide counts.
type Stats struct {
	NodeCount         int64            `json:"node_count"`
	RelationshipCount int64            `json:"relationship_count"`
	Labels            map[string]int64 `json:"labels"`
	RelationshipTypes map[string]int64 `json:"relationship_types"`
}

// NormalizeValue converts v to a type the store accepts: nil, string, bool,
// int64, float64 or a flat []any of those. Integral floats become int64.
// List items must share one type and may not be null; a list mixing int64
// and float64 is stored as all float64.
func NormalizeValue(v any) (any, error) {
	switch t := v.(type) {
	case []any:
		return normalizeList(t)
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, nil
	}
	return normalizeScalar(v)
}

func normalizeList(items []any) ([]any, error) {
	out := make([]any, len(items))
	var hasInt, hasFloat bool
	for i, item := range items {
		n, err := normalizeScalar(item)
		if err != nil {
			return nil, err
		}
		switch n.(type) {
		case nil:
			return nil, apperror.NewInvalidInput("lists may not contain null")
		case int64:
			hasInt = true
		case float64:
			hasFloat = true
		}
		out[i] = n
	}

	if hasInt && hasFloat {
		for i, n := range out {
			if x, ok := n.(int64); ok {
				out[i] = float64(x)
			}
		}
	}
	for _, n := range out {
		if reflect.TypeOf(n) != reflect.TypeOf(out[0]) {
			return nil, apperror.NewInvalidInput("list items must all have the same type")
		}
	}
	return out, nil
}

func normalizeScalar(v any) (any, error) {
	switch t := v.(type) {
	case nil, string, bool, int64:
		return t, nil
	case int:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case float32:
		return normalizeFloat(float64(t)), nil
	case float64:
		return normalizeFloat(t), nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, nil
		}
		f, err := t.Float64()
		if err != nil {
			return nil, apperror.NewInvalidInput(fmt.Sprintf("invalid number %q", t.String()))
		}
		return f, nil
	case map[string]any:
		return nil, apperror.NewInvalidInput("nested objects are not supported as property values")
	case []any, []string:
		return nil, apperror.NewInvalidInput("nested lists are not supported as property values")
	}
	return nil, apperror.NewInvalidInput(fmt.Sprintf("unsupported property value of type %T", v))
}

func normalizeFloat(f float64) any {
	if f == math.Trunc(f) && f >= math.MinInt64 && f <= math.MaxInt64 {
		return int64(f)
	}
	return f
}

// NormalizeParams converts the numbers in raw query parameters the way
// NormalizeValue does, at any depth. Maps and mixed lists are left alone.
func NormalizeParams(params map[string]any) (map[string]any, error) {
	if params == nil {
		return nil, nil
	}
	out := make(map[string]any, len(params))
	for k, v := range params {
		n, err := normalizeParam(v)
		if err != nil {
			return nil, apperror.NewInvalidInput(fmt.Sprintf("parameter %q: %s", k, errorMessage(err)))
		}
		out[k] = n
	}
	return out, nil
}

func normalizeParam(v any) (any, error) {
	switch t := v.(type) {
	case json.Number:
		return normalizeScalar(t)
	case float64:
		return normalizeFloat(t), nil
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			n, err := normalizeParam(item)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case map[string]any:
		return NormalizeParams(t)
	}
	return v, nil
}

// NormalizeProps validates every key and value of props. Nil values are dropped.
func NormalizeProps(props map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(props))
	for k, v := range props {
		if err := checkPropertyName(k); err != nil {
			return nil, err
		}
		n, err := NormalizeValue(v)
		if err != nil {
			return nil, apperror.NewInvalidInput(fmt.Sprintf("property %q: %s", k, errorMessage(err)))
		}
		if n != nil {
			out[k] = n
		}
	}
	return out, nil
}

func errorMessage(err error) string {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
