package graphdb

import (
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// Node is a graph node as returned by a statement.
type Node struct {
	ElementID string
	Labels    []string
	Props     map[string]any
}

// Relationship is a graph edge as returned by a statement.
type Relationship struct {
	ElementID      string
	Type           string
	StartElementID string
	EndElementID   string
	Props          map[string]any
}

// Path is an alternating sequence of nodes and relationships.
type Path struct {
	Nodes         []Node
	Relationships []Relationship
}

// Record is one result row keyed by column name.
type Record map[string]any

// Counters summarize the writes a statement performed.
type Counters struct {
	NodesCreated         int `json:"nodes_created"`
	NodesDeleted         int `json:"nodes_deleted"`
	RelationshipsCreated int `json:"relationships_created"`
	RelationshipsDeleted int `json:"relationships_deleted"`
	PropertiesSet        int `json:"properties_set"`
}

// Result holds every record of a statement plus its write counters.
type Result struct {
	Keys     []string
	Records  []Record
	Counters Counters
}

// Single returns the only record, or false when the result is empty.
func (r *Result) Single() (Record, bool) {
	if r == nil || len(r.Records) == 0 {
		return nil, false
	}
	return r.Records[0], true
}

// Data returns the records as plain JSON-friendly maps.
func (r *Result) Data() []map[string]any {
	if r == nil {
		return []map[string]any{}
	}
	out := make([]map[string]any, 0, len(r.Records))
	for _, rec := range r.Records {
		out = append(out, rec.Data())
	}
	return out
}

// Data converts every value with Plain.
func (r Record) Data() map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		out[k] = Plain(v)
	}
	return out
}

// Node returns the node stored under key.
func (r Record) Node(key string) (Node, bool) {
	n, ok := r[key].(Node)
	return n, ok
}

// String returns the string stored under key.
func (r Record) String(key string) (string, bool) {
	s, ok := r[key].(string)
	return s, ok
}

// Int returns the integer stored under key.
func (r Record) Int(key string) (int64, bool) {
	switch v := r[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), v == float64(int64(v))
	}
	return 0, false
}

// Strings returns the list of strings stored under key, skipping non-strings.
func (r Record) Strings(key string) []string {
	list, ok := r[key].([]any)
	if !ok {
		if ss, ok := r[key].([]string); ok {
			return ss
		}
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Plain reduces graph values to what encoding/json can render.
// Nodes and relationships become their property maps.
func Plain(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case Node:
		return plainMap(t.Props)
	case Relationship:
		return plainMap(t.Props)
	case Path:
		nodes := make([]any, 0, len(t.Nodes))
		for _, n := range t.Nodes {
			nodes = append(nodes, plainMap(n.Props))
		}
		return nodes
	case map[string]any:
		return plainMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Plain(item)
		}
		return out
	case time.Time:
		return t.Format(time.RFC3339Nano)
	case string, bool, int64, float64, []byte:
		return t
	case fmt.Stringer:
		return t.String()
	}
	return v
}

func plainMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = Plain(v)
	}
	return out
}

func convertRecord(rec *neo4j.Record) Record {
	out := make(Record, len(rec.Keys))
	for i, key := range rec.Keys {
		if i < len(rec.Values) {
			out[key] = convertValue(rec.Values[i])
		}
	}
	return out
}

func convertValue(v any) any {
	switch t := v.(type) {
	case dbtype.Node:
		return convertNode(t)
	case dbtype.Relationship:
		return convertRelationship(t)
	case dbtype.Path:
		p := Path{
			Nodes:         make([]Node, 0, len(t.Nodes)),
			Relationships: make([]Relationship, 0, len(t.Relationships)),
		}
		for _, n := range t.Nodes {
			p.Nodes = append(p.Nodes, convertNode(n))
		}
		for _, r := range t.Relationships {
			p.Relationships = append(p.Relationships, convertRelationship(r))
		}
		return p
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = convertValue(item)
		}
		return out
	case map[string]any:
		return convertProps(t)
	}
	return v
}

func convertNode(n dbtype.Node) Node {
	return Node{
		ElementID: n.ElementId,
		Labels:    n.Labels,
		Props:     convertProps(n.Props),
	}
}

func convertRelationship(r dbtype.Relationship) Relationship {
	return Relationship{
		ElementID:      r.ElementId,
		Type:           r.Type,
		StartElementID: r.StartElementId,
		EndElementID:   r.EndElementId,
		Props:          convertProps(r.Props),
	}
}

func convertProps(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = convertValue(v)
	}
	return out
}

func countersFrom(c neo4j.Counters) Counters {
	if c == nil {
		return Counters{}
	}
	return Counters{
		NodesCreated:         c.NodesCreated(),
		NodesDeleted:         c.NodesDeleted(),
		RelationshipsCreated: c.RelationshipsCreated(),
		RelationshipsDeleted: c.RelationshipsDeleted(),
		PropertiesSet:        c.PropertiesSet(),
	}
}
